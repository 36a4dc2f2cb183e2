package notify

import (
	"context"
	"fmt"
	"net/url"

	"go.uber.org/zap"
)

// Mailer is the outbound notification gateway. Delivery is synchronous from
// the caller's perspective; whether a failure matters is the caller's call
// (registration swallows it, forgot-password surfaces it).
type Mailer interface {
	SendVerificationEmail(ctx context.Context, to, firstName, code string) error
	SendPasswordResetLink(ctx context.Context, to, token string) error
	SendPasswordResetConfirmation(ctx context.Context, to string) error
}

// LogMailer writes outbound mail to the structured log instead of an SMTP
// relay. Production deployments swap this for a real transport behind the
// same interface.
type LogMailer struct {
	logger  *zap.Logger
	from    string
	baseURL string
}

// NewLogMailer constructs the gateway.
func NewLogMailer(logger *zap.Logger, from, baseURL string) *LogMailer {
	return &LogMailer{logger: logger, from: from, baseURL: baseURL}
}

func (m *LogMailer) SendVerificationEmail(_ context.Context, to, firstName, code string) error {
	m.logger.Info("sending verification email",
		zap.String("from", m.from),
		zap.String("to", to),
		zap.String("first_name", firstName),
		zap.String("verification_code", code),
	)
	return nil
}

func (m *LogMailer) SendPasswordResetLink(_ context.Context, to, token string) error {
	m.logger.Info("sending password reset email",
		zap.String("from", m.from),
		zap.String("to", to),
		zap.String("reset_url", m.ResetURL(to, token)),
	)
	return nil
}

func (m *LogMailer) SendPasswordResetConfirmation(_ context.Context, to string) error {
	m.logger.Info("sending password reset confirmation",
		zap.String("from", m.from),
		zap.String("to", to),
	)
	return nil
}

// ResetURL builds the link embedded in reset emails from the application
// base URL plus the token and email query parameters.
func (m *LogMailer) ResetURL(email, token string) string {
	params := url.Values{}
	params.Set("token", token)
	params.Set("email", email)
	return fmt.Sprintf("%s/account/reset-password?%s", m.baseURL, params.Encode())
}

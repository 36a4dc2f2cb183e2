package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/account-service/internal/events"
	"github.com/spec-kit/account-service/internal/notify"
)

// NotificationService handles emitting account notifications for domain events.
type NotificationService struct {
	dispatcher events.Dispatcher
	mailer     notify.Mailer
	logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, mailer notify.Mailer, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		mailer:     mailer,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventUserRegistered, n.handleUserRegistered)
	n.dispatcher.Subscribe(events.EventPasswordResetCompleted, n.handlePasswordResetCompleted)
}

func (n *NotificationService) handleUserRegistered(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.UserRegisteredPayload)
	if !ok {
		n.logger.Warn("unexpected payload for user_registered", zap.String("event_id", event.ID))
		return nil
	}
	if err := n.mailer.SendVerificationEmail(ctx, event.Email, payload.FirstName, payload.VerificationCode); err != nil {
		// best-effort: registration already committed
		n.logger.Warn("failed to send verification email", zap.String("email", event.Email), zap.Error(err))
	}
	return nil
}

func (n *NotificationService) handlePasswordResetCompleted(ctx context.Context, event events.Event) error {
	if err := n.mailer.SendPasswordResetConfirmation(ctx, event.Email); err != nil {
		n.logger.Warn("failed to send reset confirmation", zap.String("email", event.Email), zap.Error(err))
	}
	return nil
}

package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/account-service/internal/api/dto"
	"github.com/spec-kit/account-service/internal/service"
	apperrors "github.com/spec-kit/account-service/pkg/util"
)

// AccountHandler exposes the /account endpoints.
type AccountHandler struct {
	auth *service.AuthService
}

// NewAccountHandler constructs handler.
func NewAccountHandler(authService *service.AuthService) *AccountHandler {
	return &AccountHandler{auth: authService}
}

// Register handles POST /account/register.
func (h *AccountHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest("invalid request payload")
	}

	_, token, _, err := h.auth.Register(c.Context(), service.RegisterInput{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		Phone:       req.Phone,
		Password:    req.Password,
		Description: req.Description,
	})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"message": "user registered successfully, check your email for verification",
		"token":   token,
	})
}

// Login handles POST /account/login.
func (h *AccountHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest("invalid request payload")
	}

	_, token, _, err := h.auth.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"token":   token,
	})
}

// ForgotPassword handles POST /account/forgot-password.
func (h *AccountHandler) ForgotPassword(c *fiber.Ctx) error {
	var req dto.ForgotPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest("invalid request payload")
	}

	if err := h.auth.RequestPasswordReset(c.Context(), req.Email); err != nil {
		return err
	}

	return c.JSON(fiber.Map{"message": "reset link sent"})
}

// ResetPassword handles POST /account/reset-password.
func (h *AccountHandler) ResetPassword(c *fiber.Ctx) error {
	var req dto.ResetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest("invalid request payload")
	}

	if err := h.auth.ResetPassword(c.Context(), req.Email, req.Token, req.Password); err != nil {
		return err
	}

	return c.JSON(fiber.Map{"message": "password reset successful"})
}

// Logout handles POST /account/logout. It succeeds whether or not a valid
// token accompanies the request, so repeated calls are never an error.
func (h *AccountHandler) Logout(c *fiber.Ctx) error {
	raw := rawBearerToken(c)
	if err := h.auth.Logout(c.Context(), raw); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "logged out",
	})
}

// rawBearerToken returns the bearer token from the Authorization header, or
// empty when the header is absent or malformed.
func rawBearerToken(c *fiber.Ctx) string {
	authHeader := c.Get("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

package controllers

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/docfoxhq/DocFox/app/models"
	"github.com/docfoxhq/DocFox/app/repository"
	"github.com/docfoxhq/DocFox/internal/pkg/env"
	"github.com/docfoxhq/DocFox/internal/pkg/notification"
	"github.com/docfoxhq/DocFox/internal/pkg/session"
	"github.com/docfoxhq/DocFox/internal/pkg/usercontext"
)

// AuthController handles registration, activation, login and password reset
type AuthController struct {
	users         repository.UserRepository
	notifications *notification.Dispatcher
}

func NewAuthController(users repository.UserRepository, notifications *notification.Dispatcher) *AuthController {
	return &AuthController{users: users, notifications: notifications}
}

func publicBaseURL() string {
	return env.GetEnv("PUBLIC_BASE_URL", "http://localhost:8080")
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleRegister creates an inactive account and sends the verification mail
func (ac *AuthController) HandleRegister(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_request", "invalid JSON body")
	}

	user, err := models.CreateUser(req.Username, req.Email, req.Password)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_request", err.Error())
	}
	if err := user.GenerateActivationToken(); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "failed to create account")
	}

	if err := ac.users.Create(user); err != nil {
		// Unique email index violation surfaces here
		return jsonError(c, fiber.StatusConflict, "email_taken", "an account with this email already exists")
	}

	if ac.notifications != nil {
		ac.notifications.Send(user, notification.EventVerification, notification.Payload{
			ActionURL: fmt.Sprintf("%s/api/v1/auth/activate?token=%s", publicBaseURL(), user.ActivationToken),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "account created, please verify your email address",
	})
}

// HandleActivate verifies the email token and activates the account
func (ac *AuthController) HandleActivate(c *fiber.Ctx) error {
	token := c.Query("token")
	if token == "" {
		return jsonError(c, fiber.StatusBadRequest, "invalid_request", "token is required")
	}

	user, err := ac.users.GetByActivationToken(token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusBadRequest, "invalid_token", "invalid or expired activation token")
		}
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "activation failed")
	}

	user.Status = models.STATUS_ACTIVE
	user.ActivationToken = ""
	if err := ac.users.Update(user); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "activation failed")
	}

	if ac.notifications != nil {
		ac.notifications.Send(user, notification.EventWelcome, notification.Payload{
			ActionURL: publicBaseURL(),
		})
	}

	return c.JSON(fiber.Map{"message": "account activated"})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleLogin authenticates and opens a session. Failures are deliberately
// uniform so the response does not reveal whether the email exists.
func (ac *AuthController) HandleLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_request", "invalid JSON body")
	}

	user, err := ac.users.GetByEmail(req.Email)
	if err != nil || !user.CheckPassword(req.Password) {
		return jsonError(c, fiber.StatusUnauthorized, "invalid_credentials", "email or password is incorrect")
	}
	if !user.IsActive() {
		return jsonError(c, fiber.StatusForbidden, "account_inactive", "please verify your email address first")
	}

	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "failed to open session")
	}
	sess.Set(usercontext.SessionKeyAuth, true)
	sess.Set(usercontext.SessionKeyUserID, user.ID)
	sess.Set(usercontext.SessionKeyName, user.Name)
	sess.Set(usercontext.SessionKeyIsAdmin, user.Role == models.ROLE_ADMIN)
	if err := sess.Save(); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "failed to save session")
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := ac.users.Update(user); err != nil {
		log.Warnf("[Auth] Failed to record last login for user %d: %v", user.ID, err)
	}

	return c.JSON(fiber.Map{
		"message": "logged in",
		"user": fiber.Map{
			"name":  user.Name,
			"email": user.Email,
			"tier":  user.SubscriptionTier,
		},
	})
}

// HandleLogout destroys the session
func (ac *AuthController) HandleLogout(c *fiber.Ctx) error {
	sess, err := session.GetSessionStore().Get(c)
	if err == nil {
		if err := sess.Destroy(); err != nil {
			log.Warnf("[Auth] Failed to destroy session: %v", err)
		}
	}
	return c.JSON(fiber.Map{"message": "logged out"})
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

// HandleForgotPassword issues a reset token. The response is identical
// whether or not the email exists.
func (ac *AuthController) HandleForgotPassword(c *fiber.Ctx) error {
	var req forgotPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_request", "invalid JSON body")
	}

	user, err := ac.users.GetByEmail(req.Email)
	if err == nil {
		if err := user.GenerateResetToken(); err == nil {
			if err := ac.users.Update(user); err == nil && ac.notifications != nil {
				ac.notifications.Send(user, notification.EventPasswordReset, notification.Payload{
					ActionURL: fmt.Sprintf("%s/reset-password?token=%s", publicBaseURL(), user.ResetToken),
				})
			}
		}
	}

	return c.JSON(fiber.Map{"message": "if the email exists, a reset link has been sent"})
}

type resetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// HandleResetPassword sets a new password from a valid reset token
func (ac *AuthController) HandleResetPassword(c *fiber.Ctx) error {
	var req resetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_request", "invalid JSON body")
	}
	if req.Token == "" {
		return jsonError(c, fiber.StatusBadRequest, "invalid_request", "token is required")
	}
	if len(req.Password) < 6 {
		return jsonError(c, fiber.StatusBadRequest, "invalid_request", "password must be at least 6 characters")
	}

	user, err := ac.users.GetByResetToken(req.Token)
	if err != nil || !user.IsResetTokenValid(req.Token) {
		return jsonError(c, fiber.StatusBadRequest, "invalid_token", "invalid or expired reset token")
	}

	if err := user.SetPassword(req.Password); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "failed to set password")
	}
	user.ResetToken = ""
	user.ResetSentAt = nil
	if err := ac.users.Update(user); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "failed to set password")
	}

	if ac.notifications != nil {
		ac.notifications.Send(user, notification.EventSecurityAlert, notification.Payload{
			AlertDetail: "Your password was changed just now.",
		})
	}

	return c.JSON(fiber.Map{"message": "password updated"})
}

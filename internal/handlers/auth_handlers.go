package handlers

import (
	"net/http"

	"invoicedesk/internal/common"
	"invoicedesk/internal/models"
	"invoicedesk/internal/services"

	"github.com/labstack/echo/v4"
)

// AuthHandlers handles account registration and token issuance
type AuthHandlers struct {
	authService services.AuthService
}

func NewAuthHandlers(authService services.AuthService) *AuthHandlers {
	return &AuthHandlers{authService: authService}
}

// Register handles POST /auth/register
func (h *AuthHandlers) Register(c echo.Context) error {
	var req models.RegisterInput
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	user, err := h.authService.Register(c.Request().Context(), &req)
	if err != nil {
		return common.SendAppError(c, err)
	}
	return c.JSON(http.StatusCreated, newUserResponse(user))
}

// Token handles POST /auth/token
func (h *AuthHandlers) Token(c echo.Context) error {
	var req models.LoginInput
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	token, err := h.authService.Login(c.Request().Context(), &req)
	if err != nil {
		return common.SendAppError(c, err)
	}
	return c.JSON(http.StatusOK, tokenResponse{
		Access:    token.AccessToken,
		TokenType: token.TokenType,
		ExpiresIn: token.ExpiresIn,
		User:      newUserResponse(token.User),
	})
}

// Profile handles GET /auth/profile
func (h *AuthHandlers) Profile(c echo.Context) error {
	ctx := c.Request().Context()
	user, err := h.authService.Profile(ctx, common.GetActorFromContext(ctx))
	if err != nil {
		return common.SendAppError(c, err)
	}
	return c.JSON(http.StatusOK, newUserResponse(user))
}

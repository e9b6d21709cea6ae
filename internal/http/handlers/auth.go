package handlers

import (
	"errors"
	"net/http"

	"dieselhub/internal/auth"

	"github.com/labstack/echo/v4"
)

// AuthHandler handles admin authentication endpoints
type AuthHandler struct {
	authService *auth.Service
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *auth.Service) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Login godoc
// @Summary Admin login
// @Description Exchange the admin token for a short-lived access token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body auth.LoginRequest true "Admin token"
// @Success 200 {object} auth.LoginResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /admin/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req auth.LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorJSON("Invalid request"))
	}

	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorJSON(err.Error()))
	}

	response, err := h.authService.Login(req)
	switch {
	case errors.Is(err, auth.ErrLoginDisabled):
		return c.JSON(http.StatusServiceUnavailable, errorJSON(err.Error()))
	case err != nil:
		return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
	}

	return c.JSON(http.StatusOK, response)
}

package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"dieselhub/internal/antispam"
	"dieselhub/internal/services"
	"dieselhub/pkg/models"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// DeviceIDHeader carries the storefront's persistent device id
const DeviceIDHeader = "x-device-id"

// orderEnvelope is the loosely typed view of a checkout body
type orderEnvelope struct {
	Company json.RawMessage `json:"company"`
	Items   json.RawMessage `json:"items"`
}

// honeypotValue returns the filled-in honeypot as text, or "" for blank, null, false and zero
func honeypotValue(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return strings.TrimSpace(text)
	}
	switch string(raw) {
	case "null", "false", "0":
		return ""
	}
	return string(raw)
}

func isJSONArray(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '['
}

// OrderHandler handles checkout and order administration
type OrderHandler struct {
	orderService *services.OrderService
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orderService *services.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// Submit godoc
// @Summary Submit order
// @Description Run the abuse gate, store the order and forward it to Telegram
// @Tags orders
// @Accept json
// @Produce json
// @Param x-device-id header string false "Device id"
// @Param request body models.OrderRequest true "Order"
// @Success 200 {object} map[string]bool
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]interface{}
// @Router /order [post]
func (h *OrderHandler) Submit(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorJSON("Invalid request"))
	}

	// A filled honeypot wins over any decode or validation error further down
	var envelope orderEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return c.JSON(http.StatusBadRequest, errorJSON("Invalid request"))
	}

	var req models.OrderRequest
	if company := honeypotValue(envelope.Company); company != "" {
		req = models.OrderRequest{Company: company}
	} else {
		if !isJSONArray(envelope.Items) {
			return c.JSON(http.StatusBadRequest, errorJSON("no items"))
		}
		if err := json.Unmarshal(body, &req); err != nil {
			return c.JSON(http.StatusBadRequest, errorJSON("Invalid request"))
		}
		if err := c.Validate(&req); err != nil {
			return c.JSON(http.StatusBadRequest, errorJSON(err.Error()))
		}
	}

	verdict := h.orderService.Submit(c.Request().Context(), &req, clientIP(c), c.Request().Header.Get(DeviceIDHeader))

	switch verdict.Outcome {
	case antispam.OutcomeRejectedEmpty:
		return c.JSON(http.StatusBadRequest, errorJSON("no items"))
	case antispam.OutcomeChallengeRequired:
		return c.JSON(http.StatusForbidden, map[string]interface{}{
			"needCaptcha": true,
			"siteKey":     verdict.SiteKey,
		})
	}

	// Accepted and honeypot submissions look identical to the client
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}

// List godoc
// @Summary List orders
// @Description Latest orders, newest first. Failures return an empty list.
// @Tags admin-orders
// @Produce json
// @Success 200 {array} models.Order
// @Router /admin/orders [get]
func (h *OrderHandler) List(c echo.Context) error {
	return c.JSON(http.StatusOK, h.orderService.ListRecent(c.Request().Context()))
}

// Get godoc
// @Summary Get order
// @Tags admin-orders
// @Produce json
// @Param id path int true "Order ID"
// @Success 200 {object} models.Order
// @Failure 404 {object} map[string]string
// @Router /admin/orders/{id} [get]
func (h *OrderHandler) Get(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return c.JSON(http.StatusNotFound, errorJSON("not_found"))
	}

	order, err := h.orderService.Get(c.Request().Context(), id)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Error().Err(err).Uint("order_id", id).Msg("Failed to load order")
		}
		return c.JSON(http.StatusNotFound, errorJSON("not_found"))
	}

	return c.JSON(http.StatusOK, order)
}

// Update godoc
// @Summary Update order
// @Description Change status, admin comment or payment
// @Tags admin-orders
// @Accept json
// @Produce json
// @Param id path int true "Order ID"
// @Param request body models.UpdateOrderRequest true "Fields"
// @Success 200 {object} models.Order
// @Failure 400 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /admin/orders/{id} [patch]
func (h *OrderHandler) Update(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return c.JSON(http.StatusNotFound, errorJSON("not_found"))
	}

	var req models.UpdateOrderRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorJSON("Invalid request"))
	}

	order, err := h.orderService.Update(c.Request().Context(), id, &req)
	switch {
	case errors.Is(err, services.ErrNoFields):
		return c.JSON(http.StatusBadRequest, errorJSON("no_fields"))
	case errors.Is(err, gorm.ErrRecordNotFound):
		return c.JSON(http.StatusNotFound, errorJSON("not_found"))
	case err != nil:
		log.Error().Err(err).Uint("order_id", id).Msg("Failed to update order")
		return c.JSON(http.StatusInternalServerError, errorJSON("failed"))
	}

	return c.JSON(http.StatusOK, order)
}

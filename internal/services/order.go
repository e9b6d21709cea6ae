package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"dieselhub/internal/antispam"
	"dieselhub/internal/metrics"
	"dieselhub/internal/utils"
	"dieselhub/pkg/models"

	"github.com/rs/zerolog/log"
)

const (
	// AdminOrderListLimit caps the admin order list
	AdminOrderListLimit = 200
	maxAdminCommentLen  = 1000
)

// ErrNoFields is returned when an order update carries nothing to change
var ErrNoFields = errors.New("no_fields")

// OrderStore persists orders
type OrderStore interface {
	Create(ctx context.Context, order *models.Order) error
	ListRecent(ctx context.Context, limit int) ([]models.Order, error)
	GetByID(ctx context.Context, id uint) (*models.Order, error)
	Update(ctx context.Context, id uint, fields map[string]interface{}) (*models.Order, error)
}

// OrderNotifier delivers new orders to staff
type OrderNotifier interface {
	NotifyOrder(ctx context.Context, order *models.Order) error
}

// SubmissionGuard decides whether an order attempt may proceed
type SubmissionGuard interface {
	Evaluate(ctx context.Context, sub *antispam.Submission) antispam.Verdict
}

// OrderService runs checkout submissions through the abuse guards and stores them
type OrderService struct {
	guard    SubmissionGuard
	store    OrderStore
	notifier OrderNotifier
	metrics  *metrics.Metrics
}

// NewOrderService creates an order service. notifier may be nil.
func NewOrderService(guard SubmissionGuard, store OrderStore, notifier OrderNotifier, m *metrics.Metrics) *OrderService {
	return &OrderService{
		guard:    guard,
		store:    store,
		notifier: notifier,
		metrics:  m,
	}
}

// Submit evaluates the guards and, once accepted, persists and forwards the order.
// Persistence and notification failures are logged only; the client still gets success.
func (s *OrderService) Submit(ctx context.Context, req *models.OrderRequest, ip, deviceID string) antispam.Verdict {
	verdict := s.guard.Evaluate(ctx, &antispam.Submission{
		IP:           ip,
		DeviceID:     deviceID,
		Company:      req.Company,
		ItemCount:    len(req.Items),
		CaptchaToken: req.CaptchaToken,
	})
	s.metrics.IncOrder(string(verdict.Outcome))

	if verdict.Outcome == antispam.OutcomeRejectedSilently {
		log.Warn().Str("ip", ip).Msg("Order honeypot tripped, bot blocked")
	}
	if verdict.Outcome != antispam.OutcomeAccepted {
		return verdict
	}

	order := BuildOrder(req, ip, deviceID)
	if err := s.store.Create(ctx, order); err != nil {
		log.Warn().Err(err).Str("ip", ip).Msg("Failed to persist order, continuing")
	} else {
		log.Info().Uint("order_id", order.ID).Int("items", len(order.Items)).Msg("Order stored")
	}

	if s.notifier != nil {
		if err := s.notifier.NotifyOrder(ctx, order); err != nil {
			s.metrics.IncNotificationFailure()
			log.Error().Err(err).Uint("order_id", order.ID).Msg("Failed to send order notification")
		}
	}

	return verdict
}

// BuildOrder maps a checkout request onto a new order
func BuildOrder(req *models.OrderRequest, ip, deviceID string) *models.Order {
	delivery := strings.TrimSpace(req.Delivery)
	if delivery == "" {
		delivery = models.DefaultDelivery
	}

	order := &models.Order{
		Name:     strings.TrimSpace(req.Name),
		Phone:    utils.NormalizeUAPhone(req.Phone),
		Delivery: delivery,
		Payment:  req.Payment,
		Total:    req.Total,
		Items:    req.Items,
		UTM:      req.UTM,
		IP:       ip,
		Status:   models.OrderStatusNew,
	}
	if deviceID != "" {
		order.DeviceID = &deviceID
	}
	return order
}

// ListRecent returns the latest orders; failures yield an empty list
func (s *OrderService) ListRecent(ctx context.Context) []models.Order {
	orders, err := s.store.ListRecent(ctx, AdminOrderListLimit)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to list orders, returning empty list")
		return []models.Order{}
	}
	if orders == nil {
		return []models.Order{}
	}
	return orders
}

// Get returns one order
func (s *OrderService) Get(ctx context.Context, id uint) (*models.Order, error) {
	return s.store.GetByID(ctx, id)
}

// Update applies the admin-editable fields. A blank status is ignored and
// comments are cut to 1000 characters.
func (s *OrderService) Update(ctx context.Context, id uint, req *models.UpdateOrderRequest) (*models.Order, error) {
	fields := map[string]interface{}{}
	if req.Status != nil && *req.Status != "" {
		fields["status"] = *req.Status
	}
	if req.AdminComment != nil {
		comment := []rune(*req.AdminComment)
		if len(comment) > maxAdminCommentLen {
			comment = comment[:maxAdminCommentLen]
		}
		fields["admin_comment"] = string(comment)
	}
	if req.Payment != nil {
		fields["payment"] = *req.Payment
	}
	if len(fields) == 0 {
		return nil, ErrNoFields
	}

	order, err := s.store.Update(ctx, id, fields)
	if err != nil {
		return nil, fmt.Errorf("failed to update order %d: %w", id, err)
	}
	return order, nil
}

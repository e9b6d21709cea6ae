package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"dieselhub/internal/antispam"
	"dieselhub/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeOrderStore struct {
	created   []*models.Order
	createErr error
	listErr   error
	updates   map[string]interface{}
}

func (f *fakeOrderStore) Create(_ context.Context, o *models.Order) error {
	if f.createErr != nil {
		return f.createErr
	}
	o.ID = uint(len(f.created) + 1)
	f.created = append(f.created, o)
	return nil
}

func (f *fakeOrderStore) ListRecent(_ context.Context, limit int) ([]models.Order, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := []models.Order{}
	for _, o := range f.created {
		out = append(out, *o)
	}
	return out, nil
}

func (f *fakeOrderStore) GetByID(_ context.Context, id uint) (*models.Order, error) {
	for _, o := range f.created {
		if o.ID == id {
			return o, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeOrderStore) Update(ctx context.Context, id uint, fields map[string]interface{}) (*models.Order, error) {
	f.updates = fields
	return f.GetByID(ctx, id)
}

type fakeNotifier struct {
	sent []*models.Order
	err  error
}

func (f *fakeNotifier) NotifyOrder(_ context.Context, o *models.Order) error {
	f.sent = append(f.sent, o)
	return f.err
}

type fixedVerifier bool

func (v fixedVerifier) VerifyChallengeToken(_ context.Context, token, _ string) bool {
	return bool(v) && token != ""
}

func newOrderFixture(verifier antispam.ChallengeVerifier) (*OrderService, *fakeOrderStore, *fakeNotifier) {
	gate := antispam.NewGate(antispam.NewMemoryAttemptStore(), 2, 5*time.Minute, nil)
	store := &fakeOrderStore{}
	notifier := &fakeNotifier{}
	pipeline := antispam.NewOrderPipeline(gate, verifier, "site-key")
	return NewOrderService(pipeline, store, notifier, nil), store, notifier
}

func validOrder() *models.OrderRequest {
	return &models.OrderRequest{
		Items: []models.OrderItem{{Number: "A-1", Qty: 1, Price: 100}},
		Name:  " Ivan ",
		Phone: "050 111 22 33",
		Total: 100,
	}
}

func TestOrderService_AcceptedIsStoredAndNotified(t *testing.T) {
	svc, store, notifier := newOrderFixture(fixedVerifier(true))

	verdict := svc.Submit(context.Background(), validOrder(), "1.1.1.1", "dev")

	assert.Equal(t, antispam.OutcomeAccepted, verdict.Outcome)
	require.Len(t, store.created, 1)
	order := store.created[0]
	assert.Equal(t, "Ivan", order.Name)
	assert.Equal(t, "+380501112233", order.Phone)
	assert.Equal(t, models.DefaultDelivery, order.Delivery)
	assert.Equal(t, models.OrderStatusNew, order.Status)
	require.NotNil(t, order.DeviceID)
	assert.Equal(t, "dev", *order.DeviceID)
	assert.Len(t, notifier.sent, 1)
}

func TestOrderService_HoneypotHasNoSideEffects(t *testing.T) {
	svc, store, notifier := newOrderFixture(fixedVerifier(true))
	req := validOrder()
	req.Company = "Bots Inc"

	verdict := svc.Submit(context.Background(), req, "1.1.1.1", "")

	assert.Equal(t, antispam.OutcomeRejectedSilently, verdict.Outcome)
	assert.Empty(t, store.created)
	assert.Empty(t, notifier.sent)
}

func TestOrderService_ChallengeBlocksPersistence(t *testing.T) {
	svc, store, _ := newOrderFixture(fixedVerifier(false))
	ctx := context.Background()

	svc.Submit(ctx, validOrder(), "1.1.1.1", "")
	svc.Submit(ctx, validOrder(), "1.1.1.1", "")
	verdict := svc.Submit(ctx, validOrder(), "1.1.1.1", "")

	assert.Equal(t, antispam.OutcomeChallengeRequired, verdict.Outcome)
	assert.Equal(t, "site-key", verdict.SiteKey)
	assert.Len(t, store.created, 2)
}

func TestOrderService_FailSoftPersistenceAndNotification(t *testing.T) {
	svc, store, notifier := newOrderFixture(fixedVerifier(true))
	store.createErr = errors.New("db down")
	notifier.err = errors.New("telegram down")

	verdict := svc.Submit(context.Background(), validOrder(), "1.1.1.1", "")

	assert.Equal(t, antispam.OutcomeAccepted, verdict.Outcome)
	assert.Len(t, notifier.sent, 1, "notification still attempted")
}

func TestOrderService_ListRecentFailSoft(t *testing.T) {
	svc, store, _ := newOrderFixture(fixedVerifier(true))
	store.listErr = errors.New("db down")

	orders := svc.ListRecent(context.Background())
	assert.NotNil(t, orders)
	assert.Empty(t, orders)
}

func TestOrderService_Update(t *testing.T) {
	svc, store, _ := newOrderFixture(fixedVerifier(true))
	ctx := context.Background()
	svc.Submit(ctx, validOrder(), "1.1.1.1", "")

	empty := ""
	_, err := svc.Update(ctx, 1, &models.UpdateOrderRequest{Status: &empty})
	assert.ErrorIs(t, err, ErrNoFields)

	status := "Відправлено"
	comment := strings.Repeat("ж", 1200)
	order, err := svc.Update(ctx, 1, &models.UpdateOrderRequest{Status: &status, AdminComment: &comment})
	require.NoError(t, err)
	assert.Equal(t, uint(1), order.ID)
	assert.Equal(t, status, store.updates["status"])
	assert.Len(t, []rune(store.updates["admin_comment"].(string)), 1000)

	_, err = svc.Update(ctx, 99, &models.UpdateOrderRequest{Status: &status})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

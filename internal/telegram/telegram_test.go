package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"dieselhub/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendMessage(t *testing.T) {
	var got SendMessageRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN/sendMessage", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	client := NewClient(server.URL+"/", "TOKEN")
	require.NoError(t, client.SendMessage(context.Background(), "42", "*hi*"))
	assert.Equal(t, "42", got.ChatID)
	assert.Equal(t, "Markdown", got.ParseMode)
}

func TestSendMessage_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"ok":false,"error_code":400,"description":"chat not found"}`))
	}))
	defer server.Close()

	err := NewClient(server.URL, "TOKEN").SendMessage(context.Background(), "42", "x")
	assert.ErrorContains(t, err, "chat not found")
}

func TestFormatOrder(t *testing.T) {
	device := "dev-1"
	order := &models.Order{
		Name:     "Ivan",
		Phone:    "+380501112233",
		Delivery: "Нова пошта, Київ №1",
		Total:    12500,
		DeviceID: &device,
		IP:       "1.2.3.4",
		UTM:      map[string]any{"source": "google"},
		Items: []models.OrderItem{
			{Number: "0445-110", Availability: "In stock", Condition: "New", Type: "Injector", Qty: 2, Price: 6250},
			{ID: 7, Qty: 1, Price: 0},
		},
	}

	text := FormatOrder(order)

	assert.True(t, strings.HasPrefix(text, "🛒 *Нове замовлення*\n"))
	assert.Contains(t, text, "💳 —\n")
	assert.Contains(t, text, `🔗 utm: {"source":"google"}`)
	assert.Contains(t, text, "📱 device: dev-1\n")
	assert.Contains(t, text, "• 0445-110 | In stock | New | Injector | 2 шт × 6250 ₴\n")
	assert.Contains(t, text, "• 7 | — | — | — | 1 шт × 0 ₴\n")
	assert.Contains(t, text, "Σ Разом: *12")
	assert.True(t, strings.HasSuffix(text, "500 ₴*"))
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "950", FormatAmount(950))
	assert.NotContains(t, FormatAmount(1234.5), ".")
}

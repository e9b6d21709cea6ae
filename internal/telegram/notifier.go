package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"dieselhub/pkg/models"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

const placeholder = "—"

// OrderNotifier forwards new orders to one chat
type OrderNotifier struct {
	client *Client
	chatID string
}

// NewOrderNotifier creates a notifier posting to chatID
func NewOrderNotifier(client *Client, chatID string) *OrderNotifier {
	return &OrderNotifier{client: client, chatID: chatID}
}

// NotifyOrder sends the formatted order
func (n *OrderNotifier) NotifyOrder(ctx context.Context, order *models.Order) error {
	return n.client.SendMessage(ctx, n.chatID, FormatOrder(order))
}

// FormatOrder renders an order as a Markdown message with a uk-UA formatted total
func FormatOrder(order *models.Order) string {
	var b strings.Builder

	b.WriteString("🛒 *Нове замовлення*\n")
	fmt.Fprintf(&b, "👤 %s\n", order.Name)
	fmt.Fprintf(&b, "📞 %s\n", order.Phone)
	fmt.Fprintf(&b, "🚚 %s\n", order.Delivery)
	fmt.Fprintf(&b, "💳 %s\n", orDash(order.Payment))
	if len(order.UTM) > 0 {
		if utm, err := json.Marshal(order.UTM); err == nil {
			fmt.Fprintf(&b, "🔗 utm: %s\n", utm)
		}
	}
	fmt.Fprintf(&b, "📱 device: %s\n", orDash(order.DeviceID))
	fmt.Fprintf(&b, "🌐 ip: %s\n\n", dashIfEmpty(order.IP))

	for _, item := range order.Items {
		b.WriteString(FormatItem(item))
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "\nΣ Разом: *%s ₴*", FormatAmount(order.Total))
	return b.String()
}

// FormatItem renders one cart line
func FormatItem(item models.OrderItem) string {
	label := item.Number
	if label == "" {
		label = strconv.FormatUint(uint64(item.ID), 10)
	}
	return fmt.Sprintf("• %s | %s | %s | %s | %d шт × %s ₴",
		label,
		dashIfEmpty(item.Availability),
		dashIfEmpty(item.Condition),
		dashIfEmpty(item.Type),
		item.Qty,
		strconv.FormatFloat(item.Price, 'f', -1, 64),
	)
}

var ukPrinter = message.NewPrinter(language.Ukrainian)

// FormatAmount groups thousands the Ukrainian way, keeping at most two decimals
func FormatAmount(v float64) string {
	return ukPrinter.Sprint(number.Decimal(v, number.MaxFractionDigits(2)))
}

func orDash(s *string) string {
	if s == nil {
		return placeholder
	}
	return dashIfEmpty(*s)
}

func dashIfEmpty(s string) string {
	if strings.TrimSpace(s) == "" {
		return placeholder
	}
	return s
}

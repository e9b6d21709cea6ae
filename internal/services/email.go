package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"

	"dieselhub/internal/config"
	"dieselhub/internal/telegram"
	"dieselhub/pkg/models"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/ses"
	"github.com/aws/aws-sdk-go/service/ses/sesiface"
	"github.com/rs/zerolog/log"
)

var orderEmailTemplate = template.Must(template.New("order").Funcs(template.FuncMap{
	"amount": telegram.FormatAmount,
	"dash": func(s string) string {
		if s == "" {
			return "—"
		}
		return s
	},
}).Parse(`<h2>Нове замовлення #{{.ID}}</h2>
<p>{{.Name}}<br>{{.Phone}}<br>{{.Delivery}}<br>{{if .Payment}}{{.Payment}}{{else}}—{{end}}</p>
<table border="1" cellpadding="4" cellspacing="0">
<tr><th>Номер</th><th>Наявність</th><th>Стан</th><th>Тип</th><th>К-сть</th><th>Ціна</th></tr>
{{range .Items}}<tr><td>{{if .Number}}{{.Number}}{{else}}{{.ID}}{{end}}</td><td>{{dash .Availability}}</td><td>{{dash .Condition}}</td><td>{{dash .Type}}</td><td>{{.Qty}}</td><td>{{amount .Price}} ₴</td></tr>
{{end}}</table>
<p><b>Разом: {{amount .Total}} ₴</b></p>`))

// EmailNotifier mails order summaries through Amazon SES
type EmailNotifier struct {
	sesClient sesiface.SESAPI
	fromEmail string
	to        []string
}

// NewEmailNotifier creates an SES notifier from the environment settings
func NewEmailNotifier(cfg *config.Config) (*EmailNotifier, error) {
	if !cfg.EmailEnabled() {
		return nil, errors.New("email notifications not configured (AWS_REGION, AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY, SES_FROM_EMAIL, ORDER_EMAIL_TO)")
	}

	sess, err := session.NewSession(&aws.Config{
		Region:      aws.String(cfg.SESRegion),
		Credentials: credentials.NewStaticCredentials(cfg.SESAccessKey, cfg.SESSecretKey, ""),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return NewEmailNotifierWithClient(ses.New(sess), cfg.SESFromEmail, cfg.OrderEmailTo), nil
}

// NewEmailNotifierWithClient wires an existing SES client
func NewEmailNotifierWithClient(client sesiface.SESAPI, from string, to []string) *EmailNotifier {
	return &EmailNotifier{sesClient: client, fromEmail: from, to: to}
}

// NotifyOrder implements OrderNotifier
func (n *EmailNotifier) NotifyOrder(ctx context.Context, order *models.Order) error {
	body, err := RenderOrderEmail(order)
	if err != nil {
		return err
	}

	toAddresses := make([]*string, 0, len(n.to))
	for _, addr := range n.to {
		toAddresses = append(toAddresses, aws.String(addr))
	}

	input := &ses.SendEmailInput{
		Destination: &ses.Destination{ToAddresses: toAddresses},
		Message: &ses.Message{
			Body: &ses.Body{
				Html: &ses.Content{Charset: aws.String("UTF-8"), Data: aws.String(body)},
			},
			Subject: &ses.Content{
				Charset: aws.String("UTF-8"),
				Data:    aws.String(fmt.Sprintf("Нове замовлення #%d", order.ID)),
			},
		},
		Source: aws.String(n.fromEmail),
	}

	if _, err := n.sesClient.SendEmailWithContext(ctx, input); err != nil {
		return fmt.Errorf("failed to send email via SES: %w", err)
	}

	log.Info().Uint("order_id", order.ID).Strs("to", n.to).Msg("Order email sent")
	return nil
}

// RenderOrderEmail renders the HTML order summary
func RenderOrderEmail(order *models.Order) (string, error) {
	var buf bytes.Buffer
	if err := orderEmailTemplate.Execute(&buf, order); err != nil {
		return "", fmt.Errorf("failed to render order email: %w", err)
	}
	return buf.String(), nil
}

// MultiNotifier fans an order out to every notifier and joins their errors
type MultiNotifier []OrderNotifier

// NotifyOrder implements OrderNotifier
func (m MultiNotifier) NotifyOrder(ctx context.Context, order *models.Order) error {
	var errs []error
	for _, n := range m {
		if err := n.NotifyOrder(ctx, order); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

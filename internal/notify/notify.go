// Package notify sends owner notifications: an SMS when a sale leaves an
// item low on stock and an email with the daily dashboard.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"biashara-bot/internal/common/logger"
	"biashara-bot/internal/common/metrics"
	"biashara-bot/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

var (
	ErrNotificationFailed = errors.New("NOTIFICATION_SEND_FAILED")
	ErrNoRecipient        = errors.New("NO_RECIPIENT")
)

// SNSService is the part of the SNS client used here.
type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SESService is the part of the SES client used here.
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// LowStockSMS texts the owner's phone, or publishes to a topic when no
// phone number is set.
type LowStockSMS struct {
	client      SNSService
	phoneNumber string
	topicARN    string
	botName     string
	logger      logger.Logger
}

func NewLowStockSMS(client SNSService, phoneNumber, topicARN, botName string, log logger.Logger) *LowStockSMS {
	return &LowStockSMS{
		client:      client,
		phoneNumber: phoneNumber,
		topicARN:    topicARN,
		botName:     botName,
		logger:      log.WithFields(map[string]interface{}{"notifier": "low_stock_sms"}),
	}
}

func (n *LowStockSMS) NotifyLowStock(ctx context.Context, item string, quantity int) error {
	input := &sns.PublishInput{
		Message: aws.String(fmt.Sprintf("%s: %s is low, only %d left. Restock soon.", n.botName, item, quantity)),
	}
	switch {
	case n.phoneNumber != "":
		input.PhoneNumber = aws.String(n.phoneNumber)
	case n.topicARN != "":
		input.TopicArn = aws.String(n.topicARN)
	default:
		return ErrNoRecipient
	}

	if _, err := n.client.Publish(ctx, input); err != nil {
		metrics.NotificationsSent.WithLabelValues("sms", "failed").Inc()
		return fmt.Errorf("%w: %v", ErrNotificationFailed, err)
	}

	metrics.NotificationsSent.WithLabelValues("sms", "sent").Inc()
	n.logger.Info("low stock SMS sent", map[string]interface{}{
		"item":     item,
		"quantity": quantity,
	})
	return nil
}

// ReportMailer emails the dashboard snapshot.
type ReportMailer struct {
	client   SESService
	from     string
	to       []string
	botName  string
	currency string
	logger   logger.Logger
}

func NewReportMailer(client SESService, from string, to []string, botName, currency string, log logger.Logger) *ReportMailer {
	return &ReportMailer{
		client:   client,
		from:     from,
		to:       append([]string(nil), to...),
		botName:  botName,
		currency: currency,
		logger:   log.WithFields(map[string]interface{}{"notifier": "report_email"}),
	}
}

func (m *ReportMailer) SendDashboard(ctx context.Context, d *models.Dashboard) error {
	if len(m.to) == 0 {
		return ErrNoRecipient
	}

	subject := fmt.Sprintf("%s report for %s", m.botName, d.Date)
	body := RenderDashboard(d, m.currency)

	_, err := m.client.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{ToAddresses: m.to},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(m.from),
	})
	if err != nil {
		metrics.NotificationsSent.WithLabelValues("email", "failed").Inc()
		return fmt.Errorf("%w: %v", ErrNotificationFailed, err)
	}

	metrics.NotificationsSent.WithLabelValues("email", "sent").Inc()
	m.logger.Info("report email sent", map[string]interface{}{
		"date":       d.Date,
		"recipients": len(m.to),
	})
	return nil
}

// RenderDashboard formats the dashboard as plain text.
func RenderDashboard(d *models.Dashboard, currency string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 Total earned today (%s): %s %s\n", d.Date, currency, models.FormatAmount(d.TotalToday))

	b.WriteString("\n⚠️ Low stock:\n")
	if len(d.LowStock) == 0 {
		b.WriteString("  none\n")
	}
	for _, s := range d.LowStock {
		fmt.Fprintf(&b, "  %s: %d\n", s.Item, s.Quantity)
	}

	b.WriteString("\n📝 Reminders:\n")
	if len(d.Reminders) == 0 {
		b.WriteString("  none\n")
	}
	for _, r := range d.Reminders {
		fmt.Fprintf(&b, "  %s owes %s %s for %s\n", r.Name, currency, models.FormatAmount(r.Amount), r.Reason)
	}

	b.WriteString("\n🧾 Recent sales:\n")
	if len(d.RecentSales) == 0 {
		b.WriteString("  none\n")
	}
	for _, s := range d.RecentSales {
		fmt.Fprintf(&b, "  %s  %d %s @ %s = %s %s\n", s.Date, s.Quantity, s.Item, models.FormatAmount(s.UnitPrice), currency, models.FormatAmount(s.Total))
	}
	return b.String()
}

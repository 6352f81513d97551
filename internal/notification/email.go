package notification

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dojoflow/dojoflow/internal/config"
	ierr "github.com/dojoflow/dojoflow/internal/errors"
	"github.com/dojoflow/dojoflow/internal/logger"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Reminder describes a billing reminder delivered to a contact by email.
type Reminder struct {
	ToEmail     string
	ToName      string
	AcademyName string
	AmountCents int64
	Currency    string
	DueDate     time.Time
}

// EmailSender delivers billing reminder emails to contacts.
type EmailSender interface {
	SendUpcomingChargeReminder(ctx context.Context, r *Reminder) error
	SendOverdueNotice(ctx context.Context, r *Reminder) error
}

type emailSender struct {
	cfg    *config.EmailConfig
	logger *logger.Logger
}

// NewEmailSender creates the sendgrid-backed sender. When email is disabled
// the sender logs the reminder instead of delivering it.
func NewEmailSender(cfg *config.Configuration, logger *logger.Logger) EmailSender {
	return &emailSender{
		cfg:    &cfg.Email,
		logger: logger,
	}
}

func (s *emailSender) SendUpcomingChargeReminder(ctx context.Context, r *Reminder) error {
	subject := fmt.Sprintf("Upcoming payment of %s on %s", formatAmount(r.AmountCents, r.Currency), r.DueDate.Format("Jan 2, 2006"))
	htmlBody := fmt.Sprintf(`
		<html>
		<body>
			<p>Hi %s,</p>
			<p>This is a reminder that your next payment of <strong>%s</strong> to %s is scheduled for <strong>%s</strong>.</p>
			<p>The amount will be charged automatically to your payment method on file. No action is needed if your details are up to date.</p>
			<p>Thanks,<br>%s</p>
		</body>
		</html>
	`, r.ToName, formatAmount(r.AmountCents, r.Currency), r.AcademyName, r.DueDate.Format("January 2, 2006"), r.AcademyName)

	plainText := fmt.Sprintf(`Hi %s,

This is a reminder that your next payment of %s to %s is scheduled for %s.

The amount will be charged automatically to your payment method on file.

Thanks,
%s
`, r.ToName, formatAmount(r.AmountCents, r.Currency), r.AcademyName, r.DueDate.Format("January 2, 2006"), r.AcademyName)

	return s.send(ctx, r, subject, htmlBody, plainText)
}

func (s *emailSender) SendOverdueNotice(ctx context.Context, r *Reminder) error {
	subject := fmt.Sprintf("Payment of %s is overdue", formatAmount(r.AmountCents, r.Currency))
	htmlBody := fmt.Sprintf(`
		<html>
		<body>
			<p>Hi %s,</p>
			<p>Your payment of <strong>%s</strong> to %s was due on <strong>%s</strong> and has not been received.</p>
			<p>Please update your payment method so we can retry the charge, or contact the academy if you believe this is a mistake.</p>
			<p>Thanks,<br>%s</p>
		</body>
		</html>
	`, r.ToName, formatAmount(r.AmountCents, r.Currency), r.AcademyName, r.DueDate.Format("January 2, 2006"), r.AcademyName)

	plainText := fmt.Sprintf(`Hi %s,

Your payment of %s to %s was due on %s and has not been received.

Please update your payment method so we can retry the charge, or contact the academy if you believe this is a mistake.

Thanks,
%s
`, r.ToName, formatAmount(r.AmountCents, r.Currency), r.AcademyName, r.DueDate.Format("January 2, 2006"), r.AcademyName)

	return s.send(ctx, r, subject, htmlBody, plainText)
}

func (s *emailSender) send(ctx context.Context, r *Reminder, subject, htmlBody, plainText string) error {
	if !s.cfg.Enabled || s.cfg.SendGridAPIKey == "" {
		s.logger.Infow("email delivery disabled, logging reminder instead",
			"to", r.ToEmail,
			"subject", subject,
		)
		return nil
	}

	from := mail.NewEmail(s.cfg.FromName, s.cfg.FromAddress)
	to := mail.NewEmail(r.ToName, r.ToEmail)
	message := mail.NewSingleEmail(from, subject, to, plainText, htmlBody)

	client := sendgrid.NewSendClient(s.cfg.SendGridAPIKey)
	response, err := client.Send(message)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to send reminder email").
			Mark(ierr.ErrSystem)
	}

	if response.StatusCode >= 400 {
		return ierr.NewError(fmt.Sprintf("sendgrid returned status %d", response.StatusCode)).
			WithHint("Failed to send reminder email").
			WithReportableDetails(map[string]any{
				"status_code": response.StatusCode,
			}).
			Mark(ierr.ErrSystem)
	}

	s.logger.Debugw("reminder email sent",
		"to", r.ToEmail,
		"subject", subject,
		"status_code", response.StatusCode,
	)
	return nil
}

// formatAmount renders minor units as a human amount, e.g. 5000 USD -> "$50.00 USD".
func formatAmount(cents int64, currency string) string {
	return fmt.Sprintf("%.2f %s", float64(cents)/100, strings.ToUpper(currency))
}

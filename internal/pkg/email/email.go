package email

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"sort"
	"strings"
	"time"

	"github.com/corepay/payroll-engine-go/internal/config"
	"github.com/corepay/payroll-engine-go/internal/domain/notification"
)

const maxRetries = 3

var subjects = map[notification.Kind]string{
	notification.KindRunStatusChanged: "Payroll run status changed",
	notification.KindPayslipReady:     "Your payslip is ready",
	notification.KindAwardPending:     "Award pending review",
}

// NewEmailNotifier builds the SMTP-backed notification sink. When the SMTP
// host is empty the notifier degrades to logging only.
func NewEmailNotifier(cfg config.SMTPConfig) notification.Notifier {
	return &emailNotifier{cfg: cfg}
}

type emailNotifier struct {
	cfg config.SMTPConfig
}

func (n *emailNotifier) Notify(ctx context.Context, kind notification.Kind, recipient, message string, metadata map[string]string) error {
	subject, ok := subjects[kind]
	if !ok {
		subject = "Payroll notification"
	}

	var body strings.Builder
	body.WriteString(message)
	body.WriteString("\r\n")
	if len(metadata) > 0 {
		body.WriteString("\r\n")
		keys := make([]string, 0, len(metadata))
		for k := range metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&body, "%s: %s\r\n", k, metadata[k])
		}
	}

	return n.send(recipient, subject, body.String())
}

func (n *emailNotifier) send(to, subject, textBody string) error {
	// Skip sending if SMTP is not configured
	if n.cfg.Host == "" {
		slog.Warn("SMTP not configured, skipping notification", "to", to, "subject", subject)
		return nil
	}

	from := n.cfg.From

	headers := fmt.Sprintf("From: %s <%s>\r\n", n.cfg.FromName, from)
	headers += fmt.Sprintf("To: %s\r\n", to)
	headers += fmt.Sprintf("Subject: %s\r\n", subject)
	headers += "MIME-Version: 1.0\r\n"
	headers += "Content-Type: text/plain; charset=\"UTF-8\"\r\n"
	headers += "\r\n"

	payload := []byte(headers + textBody)

	auth := smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
	addr := fmt.Sprintf("%s:%d", n.cfg.Host, n.cfg.Port)

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		err := smtp.SendMail(addr, auth, from, []string{to}, payload)
		if err == nil {
			slog.Info("Notification sent", "to", to, "subject", subject, "attempt", attempt)
			return nil
		}

		lastErr = err
		slog.Error("Failed to send notification",
			"to", to,
			"subject", subject,
			"attempt", attempt,
			"max_retries", maxRetries,
			"error", err,
		)

		// Wait before retrying (exponential backoff: 1s, 2s, 4s)
		if attempt < maxRetries {
			time.Sleep(time.Duration(1<<(attempt-1)) * time.Second)
		}
	}

	return fmt.Errorf("failed to send notification after %d attempts: %w", maxRetries, lastErr)
}

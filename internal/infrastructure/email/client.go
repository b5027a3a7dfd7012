// Package email sends data-source outage alerts through the Resend API.
package email

import (
	"fmt"
	"time"

	"github.com/resendlabs/resend-go"

	"github.com/pixelcycle/pixelcycle-go/internal/infrastructure/observability/logging"
	"github.com/pixelcycle/pixelcycle-go/pkg/config"
)

// Service defines the interface for sending alert emails, allowing for mock
// implementations in tests.
type Service interface {
	SendOutageAlert(cacheKey string, failures int, lastErr error) error
}

// ResendClient is the concrete implementation of the email Service using the
// Resend API.
type ResendClient struct {
	client    *resend.Client
	fromEmail string
	toEmail   string
}

// logOnlyClient stands in when no API key or recipient is configured, so
// outages still leave a trail without external delivery.
type logOnlyClient struct {
	logger *logging.ChanneledLogger
}

// NewService creates the alert mailer. Without an API key and a recipient it
// degrades to log-only delivery.
func NewService(logger *logging.ChanneledLogger) Service {
	if config.ResendAPIKey == "" || config.AlertToEmail == "" {
		if logger != nil {
			logger.Email().Info("Alert email delivery disabled",
				"hasApiKey", config.ResendAPIKey != "", "hasRecipient", config.AlertToEmail != "")
		}
		return &logOnlyClient{logger: logger}
	}

	return &ResendClient{
		client:    resend.NewClient(config.ResendAPIKey),
		fromEmail: config.AlertFromEmail,
		toEmail:   config.AlertToEmail,
	}
}

// SendOutageAlert composes and sends the feed outage email.
func (c *ResendClient) SendOutageAlert(cacheKey string, failures int, lastErr error) error {
	subject := fmt.Sprintf("PixelCycle: %s feed is down", cacheKey)

	errText := "unknown error"
	if lastErr != nil {
		errText = lastErr.Error()
	}
	htmlContent := fmt.Sprintf(
		`<h2>Data source outage</h2>
<p>The feed behind <strong>%s</strong> has failed %d consecutive fetches.</p>
<p>Last error: <code>%s</code></p>
<p>The panel keeps showing the last known good data until the feed recovers.</p>
<p><small>Sent %s</small></p>`,
		cacheKey, failures, errText, time.Now().UTC().Format(time.RFC1123))

	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("PixelCycle Alerts <%s>", c.fromEmail),
		To:      []string{c.toEmail},
		Subject: subject,
		Html:    htmlContent,
	}

	if _, err := c.client.Emails.Send(params); err != nil {
		return fmt.Errorf("failed to send outage alert via Resend: %w", err)
	}
	return nil
}

func (c *logOnlyClient) SendOutageAlert(cacheKey string, failures int, lastErr error) error {
	if c.logger != nil {
		c.logger.Email().Warn("Outage alert (email disabled)",
			"cacheKey", cacheKey, "failures", failures, "error", fmt.Sprintf("%v", lastErr))
	}
	return nil
}

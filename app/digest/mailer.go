package digest

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/lysyi3m/regwatch/app/news"
)

const DefaultMaxAttempts = 3

// SendFunc has the signature of smtp.SendMail.
type SendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type Mailer struct {
	host        string
	port        int
	send        SendFunc
	backoff     news.Pacer
	maxAttempts int
}

// NewMailer uses host when set; otherwise the relay is derived from each sender.
func NewMailer(host string, port int) *Mailer {
	if port == 0 {
		port = 587
	}
	return &Mailer{
		host:        host,
		port:        port,
		send:        smtp.SendMail,
		backoff:     news.Exponential{Base: 2 * time.Second, Max: 30 * time.Second},
		maxAttempts: DefaultMaxAttempts,
	}
}

// WithTransport replaces the SMTP submission function and the retry backoff.
func (m *Mailer) WithTransport(send SendFunc, backoff news.Pacer) *Mailer {
	m.send = send
	m.backoff = backoff
	return m
}

// Relay returns the SMTP host and port used for the given sender.
func (m *Mailer) Relay(sender string) (string, int) {
	if m.host != "" {
		return m.host, m.port
	}
	if strings.HasSuffix(strings.ToLower(sender), "@gmail.com") {
		return "smtp.gmail.com", 587
	}
	return "smtp.office365.com", 587
}

func (m *Mailer) Send(ctx context.Context, msg *Message, password string) error {
	if len(msg.To) == 0 {
		return fmt.Errorf("message has no recipients")
	}

	data, err := msg.Bytes()
	if err != nil {
		return fmt.Errorf("failed to build message: %w", err)
	}

	host, port := m.Relay(msg.From)
	addr := host + ":" + strconv.Itoa(port)
	auth := smtp.PlainAuth("", msg.From, password, host)

	var lastErr error
	for attempt := 1; attempt <= m.maxAttempts; attempt++ {
		lastErr = m.send(addr, auth, msg.From, msg.To, data)
		if lastErr == nil {
			slog.Info("Digest sent",
				"relay", addr,
				"recipients", len(msg.To),
				"attempt", attempt)
			return nil
		}

		slog.Warn("Digest send failed",
			"relay", addr,
			"attempt", attempt,
			"max_attempts", m.maxAttempts,
			"error", lastErr)

		if attempt < m.maxAttempts {
			if err := news.Wait(ctx, m.backoff, attempt); err != nil {
				return fmt.Errorf("send interrupted: %w", err)
			}
		}
	}

	return fmt.Errorf("failed to send digest after %d attempts: %w", m.maxAttempts, lastErr)
}

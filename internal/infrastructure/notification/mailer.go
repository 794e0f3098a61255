// Package notification sends transactional email over SMTP. Sends are
// best-effort: callers log failures and move on, there is no retry queue.
package notification

import (
	"context"
	"errors"
	"strings"

	"gopkg.in/gomail.v2"
)

// Errors for mailer configuration
var (
	ErrMailerConfigMissingHost = errors.New("mailer: SMTP host is required")
	ErrMailerConfigMissingFrom = errors.New("mailer: from address is required")
)

// Config holds SMTP configuration
type Config struct {
	// Host is the SMTP server hostname
	Host string
	// Port is the SMTP server port
	Port int
	// Username authenticates against the SMTP server
	Username string
	// Password authenticates against the SMTP server
	Password string
	// From is the sender address on outgoing mail
	From string
	// OpsMailbox receives a copy of every notification
	OpsMailbox string
}

// Validate validates the mailer configuration and fills in defaults
func (c *Config) Validate() error {
	if c.Host == "" {
		return ErrMailerConfigMissingHost
	}
	if c.From == "" {
		return ErrMailerConfigMissingFrom
	}
	if c.Port == 0 {
		c.Port = 587
	}
	return nil
}

// Mailer sends HTML email through an SMTP relay
type Mailer struct {
	config *Config
	send   func(m ...*gomail.Message) error
}

// NewMailer creates a mailer with the given configuration
func NewMailer(config *Config) (*Mailer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	dialer := gomail.NewDialer(config.Host, config.Port, config.Username, config.Password)
	return &Mailer{
		config: config,
		send:   dialer.DialAndSend,
	}, nil
}

// Send delivers one HTML message. The operations mailbox is always added
// to the recipient list; duplicate addresses are collapsed.
func (m *Mailer) Send(ctx context.Context, subject, htmlBody string, recipients []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	to := m.recipientList(recipients)
	if len(to) == 0 {
		return errors.New("mailer: no recipients")
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.config.From)
	msg.SetHeader("To", to...)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	return m.send(msg)
}

// recipientList appends the ops mailbox and drops blanks and duplicates,
// preserving order
func (m *Mailer) recipientList(recipients []string) []string {
	all := make([]string, 0, len(recipients)+1)
	all = append(all, recipients...)
	if m.config.OpsMailbox != "" {
		all = append(all, m.config.OpsMailbox)
	}

	seen := make(map[string]struct{}, len(all))
	out := make([]string, 0, len(all))
	for _, addr := range all {
		addr = strings.TrimSpace(addr)
		if addr == "" {
			continue
		}
		key := strings.ToLower(addr)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, addr)
	}
	return out
}

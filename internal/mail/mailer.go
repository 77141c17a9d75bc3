package mail

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"messenger/internal/config"

	gomail "github.com/wneessen/go-mail"
)

// ErrDisabled is returned when no SMTP server is configured.
var ErrDisabled = errors.New("mail delivery is not configured")

type dialer interface {
	DialAndSendWithContext(ctx context.Context, messages ...*gomail.Msg) error
}

type SMTPMailer struct {
	client dialer
	from   string
}

// New returns an SMTP mailer, or a mailer that always fails with
// ErrDisabled when cfg has no host.
func New(cfg config.MailConfig) (*SMTPMailer, error) {
	if !cfg.Enabled() {
		return &SMTPMailer{}, nil
	}

	opts := []gomail.Option{
		gomail.WithPort(cfg.Port),
		gomail.WithTLSPolicy(tlsPolicy(cfg.TLS)),
	}
	if cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}

	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("create smtp client: %w", err)
	}
	return &SMTPMailer{client: client, from: cfg.From}, nil
}

func tlsPolicy(raw string) gomail.TLSPolicy {
	switch strings.ToLower(raw) {
	case "none":
		return gomail.NoTLS
	case "opportunistic":
		return gomail.TLSOpportunistic
	default:
		return gomail.TLSMandatory
	}
}

func (m *SMTPMailer) SendTemporaryPassword(ctx context.Context, to, username, password string) error {
	if m.client == nil {
		return ErrDisabled
	}

	msg, err := temporaryPasswordMessage(m.from, to, username, password)
	if err != nil {
		return err
	}
	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

func temporaryPasswordMessage(from, to, username, password string) (*gomail.Msg, error) {
	msg := gomail.NewMsg()
	if err := msg.From(from); err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", from, err)
	}
	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", to, err)
	}
	msg.Subject("รหัสผ่านชั่วคราว / Temporary password")
	msg.SetBodyString(gomail.TypeTextPlain, fmt.Sprintf(
		"ผู้ใช้ %s\nรหัสผ่านชั่วคราวของคุณคือ: %s\nกรุณาเปลี่ยนรหัสผ่านหลังเข้าสู่ระบบ\n\n"+
			"User %s\nYour temporary password is: %s\nPlease change it after signing in.\n",
		username, password, username, password))
	return msg, nil
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Authd Contributors

// Package mail implements the outbound notification transport.
package mail

import (
	"context"

	gomail "github.com/wneessen/go-mail"

	"github.com/samber/oops"
)

// Config holds SMTP transport settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPNotifier sends plain-text mail over SMTP. It satisfies
// account.Notifier. Delivery is attempted once; failures surface to
// the caller unretried.
type SMTPNotifier struct {
	client *gomail.Client
	from   string
}

// NewSMTPNotifier creates an SMTPNotifier from config.
func NewSMTPNotifier(cfg Config) (*SMTPNotifier, error) {
	if cfg.Host == "" {
		return nil, oops.Code("MAIL_CONFIG_INVALID").Errorf("smtp host is required")
	}
	if cfg.From == "" {
		return nil, oops.Code("MAIL_CONFIG_INVALID").Errorf("from address is required")
	}

	opts := []gomail.Option{
		gomail.WithPort(cfg.Port),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
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
		return nil, oops.Code("MAIL_CLIENT_FAILED").Wrap(err)
	}

	return &SMTPNotifier{client: client, from: cfg.From}, nil
}

// Send delivers a single message.
func (n *SMTPNotifier) Send(ctx context.Context, to, subject, body string) error {
	msg := gomail.NewMsg()
	if err := msg.From(n.from); err != nil {
		return oops.Code("MAIL_SEND_FAILED").With("operation", "set from").Wrap(err)
	}
	if err := msg.To(to); err != nil {
		return oops.Code("MAIL_SEND_FAILED").With("operation", "set to").Wrap(err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextPlain, body)

	if err := n.client.DialAndSendWithContext(ctx, msg); err != nil {
		return oops.Code("MAIL_SEND_FAILED").
			With("operation", "dial and send").
			Wrap(err)
	}
	return nil
}

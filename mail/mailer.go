// Copyright (C) 2025 l3montree GmbH
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package mail delivers transactional mail through resend or plain smtp.
// Without either configured, mail is only logged, which is fine for
// local development and tests.
package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/smtp"

	"github.com/inkvault-dev/inkvault/config"
)

// Mailer sends a single message. The Notifier composes the domain mails
// on top of it.
type Mailer interface {
	Send(ctx context.Context, to, subject, html string) error
}

// NewMailerFromConfig picks the mailer backend from the environment,
// preferring resend, then smtp, then log only.
func NewMailerFromConfig() Mailer {
	if key := config.ResendAPIKey(); key != "" {
		return &resendMailer{apiKey: key, from: config.MailFrom()}
	}
	if addr := config.SMTPAddr(); addr != "" {
		return &smtpMailer{addr: addr, from: config.MailFrom()}
	}
	return &logMailer{}
}

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

type resendMailer struct {
	apiKey string
	from   string
}

func (m *resendMailer) Send(ctx context.Context, to, subject, html string) error {
	body := resendRequest{
		From:    m.from,
		To:      []string{to},
		Subject: subject,
		HTML:    html,
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://api.resend.com/emails", bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.apiKey)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("resend API error: status %d", resp.StatusCode)
	}

	return nil
}

type smtpMailer struct {
	addr string
	from string
}

func (m *smtpMailer) Send(ctx context.Context, to, subject, html string) error {
	msg := "From: " + m.from + "\r\n" +
		"To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/html; charset=\"UTF-8\"\r\n" +
		"\r\n" +
		html

	if err := smtp.SendMail(m.addr, nil, m.from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

type logMailer struct{}

func (m *logMailer) Send(ctx context.Context, to, subject, html string) error {
	slog.Info("mail (log only)", "to", to, "subject", subject)
	return nil
}

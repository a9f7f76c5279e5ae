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

package mail

import (
	"context"
	"fmt"
	"html"

	"github.com/inkvault-dev/inkvault/config"
)

// Notifier composes the domain mails on top of a Mailer. It implements
// shared.Notifier.
type Notifier struct {
	mailer Mailer
}

func NewNotifier(mailer Mailer) *Notifier {
	return &Notifier{mailer: mailer}
}

func (n *Notifier) SendInvitation(ctx context.Context, to, projectName, token string) error {
	subject := fmt.Sprintf("You have been invited to %s", projectName)
	body := fmt.Sprintf(
		`<p>You have been invited to collaborate on <b>%s</b> on %s.</p>`+
			`<p>Use this invitation token to join: <code>%s</code></p>`+
			`<p>The invitation expires in 7 days.</p>`,
		html.EscapeString(projectName), html.EscapeString(config.InstanceName()), html.EscapeString(token))
	return n.mailer.Send(ctx, to, subject, body)
}

func (n *Notifier) SendMergeRequestCreated(ctx context.Context, to, projectName, title string) error {
	subject := fmt.Sprintf("Review requested in %s", projectName)
	body := fmt.Sprintf(
		`<p>A merge request needs your review in <b>%s</b>:</p><p>%s</p>`,
		html.EscapeString(projectName), html.EscapeString(title))
	return n.mailer.Send(ctx, to, subject, body)
}

func (n *Notifier) SendMergeRequestApproved(ctx context.Context, to, projectName, title string) error {
	subject := fmt.Sprintf("Merge request approved in %s", projectName)
	body := fmt.Sprintf(
		`<p>Your merge request in <b>%s</b> has been approved:</p><p>%s</p>`,
		html.EscapeString(projectName), html.EscapeString(title))
	return n.mailer.Send(ctx, to, subject, body)
}

func (n *Notifier) SendChangesRequested(ctx context.Context, to, projectName, title, comment string) error {
	subject := fmt.Sprintf("Changes requested in %s", projectName)
	body := fmt.Sprintf(
		`<p>A reviewer requested changes on your merge request in <b>%s</b>:</p><p>%s</p>`,
		html.EscapeString(projectName), html.EscapeString(title))
	if comment != "" {
		body += fmt.Sprintf(`<blockquote>%s</blockquote>`, html.EscapeString(comment))
	}
	return n.mailer.Send(ctx, to, subject, body)
}

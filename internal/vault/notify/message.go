// Package notify delivers invitation notices to invitees.
package notify

import (
	"bytes"
	htmltemplate "html/template"
	"net/url"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/aussiebroadwan/teamvault/internal/vault/service"
)

// Message is a rendered invitation email.
type Message struct {
	Subject    string
	HTML       string
	Text       string
	AcceptURL  string
	DeclineURL string
}

type messageData struct {
	Inviter          string
	Invitee          string
	OrganizationName string
	Role             string
	AcceptURL        string
	DeclineURL       string
	Expires          string
}

var htmlBody = htmltemplate.Must(htmltemplate.New("invitation.html").Parse(`<table width="100%" cellpadding="0" cellspacing="0" style="font-family:Arial,Helvetica,sans-serif;background:#0f172a;padding:32px;color:#f8fafc;">
  <tr>
    <td align="center">
      <table width="600" cellpadding="0" cellspacing="0" style="background:#020617;border-radius:24px;padding:40px;">
        <tr>
          <td>
            <p style="text-transform:uppercase;letter-spacing:0.2em;font-size:12px;color:#34d399;margin:0 0 12px 0;">Team Vault</p>
            <h1 style="font-size:28px;margin:0 0 16px 0;">You're invited to {{.OrganizationName}}</h1>
            <p style="font-size:15px;line-height:1.6;color:#cbd5f5;margin:0 0 24px 0;">
              {{.Inviter}} has invited {{.Invitee}} to join as {{.Role}} and collaborate on shared vault entries.
              Accept to gain access, or decline if you weren't expecting this.
            </p>
            <p style="margin:0 0 24px 0;">
              <a href="{{.AcceptURL}}" style="background:#34d399;color:#052e16;text-decoration:none;padding:12px 28px;border-radius:999px;font-weight:600;font-size:14px;">Accept invite</a>
              &nbsp;
              <a href="{{.DeclineURL}}" style="color:#94a3b8;text-decoration:none;font-size:14px;">Decline</a>
            </p>
            <p style="font-size:13px;color:#64748b;margin:0;">This link expires on {{.Expires}}.</p>
          </td>
        </tr>
      </table>
    </td>
  </tr>
</table>
`))

var textBody = texttemplate.Must(texttemplate.New("invitation.txt").Parse(`You're invited to {{.OrganizationName}} by {{.Inviter}} as {{.Role}}.

Accept:  {{.AcceptURL}}
Decline: {{.DeclineURL}}

This link expires on {{.Expires}}.
`))

// BuildInvitation renders the invitation email for n. Links point at
// <baseURL>/invite/<token>?action=accept|decline.
func BuildInvitation(baseURL string, n service.InvitationNotice) (Message, error) {
	base := strings.TrimRight(baseURL, "/") + "/invite/" + url.PathEscape(n.Token)
	data := messageData{
		Inviter:          n.InviterLabel,
		Invitee:          n.ToEmail,
		OrganizationName: n.OrganizationName,
		Role:             n.Role,
		AcceptURL:        base + "?action=accept",
		DeclineURL:       base + "?action=decline",
		Expires:          n.ExpiresAt.UTC().Format(time.RFC1123),
	}

	var html, text bytes.Buffer
	if err := htmlBody.Execute(&html, data); err != nil {
		return Message{}, err
	}
	if err := textBody.Execute(&text, data); err != nil {
		return Message{}, err
	}

	return Message{
		Subject:    n.InviterLabel + " invited you to join " + n.OrganizationName,
		HTML:       html.String(),
		Text:       text.String(),
		AcceptURL:  data.AcceptURL,
		DeclineURL: data.DeclineURL,
	}, nil
}

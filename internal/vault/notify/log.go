package notify

import (
	"context"
	"log/slog"

	"github.com/aussiebroadwan/teamvault/internal/vault/service"
	"github.com/aussiebroadwan/teamvault/pkg/slogx"
)

// LogNotifier writes invitation links to the log instead of mailing them.
// Used when no SMTP relay is configured.
type LogNotifier struct {
	BaseURL string
}

func (n LogNotifier) SendInvitation(ctx context.Context, notice service.InvitationNotice) error {
	msg, err := BuildInvitation(n.BaseURL, notice)
	if err != nil {
		return err
	}

	slogx.FromContext(ctx).Info("invitation email (not sent)",
		slog.String("to", notice.ToEmail),
		slog.String("subject", msg.Subject),
		slog.String("accept_url", msg.AcceptURL),
		slog.String("decline_url", msg.DeclineURL),
	)
	return nil
}

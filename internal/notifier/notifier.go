// Package notifier delivers trending-token alerts once they clear the
// cooldown gate. The Telegram implementation sends to the account's own
// saved-messages chat; NoopNotifier backs --dry-run runs.
package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/gotd/td/telegram"
	"github.com/gotd/td/tg"

	"github.com/nhattruong0204/alpha-radar/pkg/models"
)

// Notifier delivers a single alert message. Implementations must be
// safe for concurrent use.
type Notifier interface {
	Send(ctx context.Context, token models.TrendingToken) error
}

// NoopNotifier discards every alert. Used for --dry-run.
type NoopNotifier struct{}

// Send always succeeds without doing anything.
func (NoopNotifier) Send(ctx context.Context, token models.TrendingToken) error { return nil }

// TelegramNotifier sends alert text to the authenticated account's own
// saved-messages chat via a live gotd/td client.
type TelegramNotifier struct {
	client *telegram.Client
}

// NewTelegramNotifier wraps an already-connected client.
func NewTelegramNotifier(client *telegram.Client) *TelegramNotifier {
	return &TelegramNotifier{client: client}
}

// Send formats the token into an alert message and delivers it to the
// account's saved-messages peer ("Self").
func (n *TelegramNotifier) Send(ctx context.Context, token models.TrendingToken) error {
	_, err := n.client.API().MessagesSendMessage(ctx, &tg.MessagesSendMessageRequest{
		Peer:     &tg.InputPeerSelf{},
		Message:  formatAlert(token),
		RandomID: time.Now().UnixNano(),
	})
	if err != nil {
		return fmt.Errorf("notifier: send message: %w", err)
	}
	return nil
}

func formatAlert(t models.TrendingToken) string {
	return fmt.Sprintf(
		"trending: %s (%s)\nmentions=%d unique_chats=%d velocity=%.2f score=%.2f",
		t.Contract, t.Chain, t.Mentions, t.UniqueConversations, t.Velocity, t.Score,
	)
}

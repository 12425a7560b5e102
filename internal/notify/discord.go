package notify

import (
	"context"
	"fmt"

	"github.com/ringops/ringstats/internal/httpclient"
	"go.uber.org/zap"
)

type discordPayload struct {
	Content         string          `json:"content"`
	AllowedMentions allowedMentions `json:"allowed_mentions"`
}

type allowedMentions struct {
	Parse []string `json:"parse"`
}

type DiscordNotifier struct {
	http       httpclient.HTTPClient
	webhookURL string
	userID     string
}

func NewDiscordNotifier(http httpclient.HTTPClient, webhookURL, userID string) *DiscordNotifier {
	return &DiscordNotifier{http: http, webhookURL: webhookURL, userID: userID}
}

func (d *DiscordNotifier) Name() string {
	return "discord"
}

func (d *DiscordNotifier) Notify(ctx context.Context, event MintConfirmed) error {
	if d.webhookURL == "" {
		zap.L().Warn("Discord webhook not configured, skipping notification", zap.String("itemId", event.ItemID))
		return nil
	}
	payload := discordPayload{
		Content:         DiscordContent(d.userID, event),
		AllowedMentions: allowedMentions{Parse: []string{"users"}},
	}
	if _, err := d.http.PostJSON(ctx, d.webhookURL, payload); err != nil {
		return fmt.Errorf("discord webhook: %w", err)
	}
	return nil
}

func DiscordContent(userID string, event MintConfirmed) string {
	mention := ""
	if userID != "" {
		mention = fmt.Sprintf("<@%s>\n", userID)
	}
	return fmt.Sprintf("%s✅ **リングmint通知**\n**NFT ID**: %s %s のmintが確認されました！\n🔗 Create NFTを開く： %s",
		mention, event.ItemID, event.Name, event.CreateNftURL)
}

package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/campusnotes/campusnotes/internal/identity/metrics"
)

const defaultDiscordAPIBase = "https://discord.com/api"

// GuildJoinService adds a freshly signed-in Discord identity to the community
// guild using the bot token. It is a fire-and-forget side effect: failure is
// logged and counted, never surfaced to the login.
type GuildJoinService struct {
	HTTPClient *http.Client
	Logger     *slog.Logger

	BotToken string
	GuildID  string
	BaseURL  string // override for tests; defaults to the Discord API
	Timeout  time.Duration
}

// Enabled reports whether guild auto-join is configured.
func (s *GuildJoinService) Enabled() bool {
	return s != nil && s.BotToken != "" && s.GuildID != ""
}

// Join adds the member to the guild. Callers run it on its own goroutine
// after the resolution committed; it owns its own timeout.
func (s *GuildJoinService) Join(providerUserID, accessToken string) {
	timeout := s.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.join(ctx, providerUserID, accessToken); err != nil {
		metrics.GuildJoins.WithLabelValues("error").Inc()
		s.Logger.Warn("guild auto-join failed",
			"provider_user_id", providerUserID,
			"guild_id", s.GuildID,
			"err", err,
		)
		return
	}

	metrics.GuildJoins.WithLabelValues("ok").Inc()
	s.Logger.Info("guild auto-join succeeded",
		"provider_user_id", providerUserID,
		"guild_id", s.GuildID,
	)
}

func (s *GuildJoinService) join(ctx context.Context, providerUserID, accessToken string) error {
	base := s.BaseURL
	if base == "" {
		base = defaultDiscordAPIBase
	}
	url := fmt.Sprintf("%s/guilds/%s/members/%s", base, s.GuildID, providerUserID)

	body, err := json.Marshal(map[string]string{"access_token": accessToken})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bot "+s.BotToken)
	req.Header.Set("Content-Type", "application/json")

	client := s.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusCreated, http.StatusNoContent:
		// 201 joined, 204 already a member.
		return nil
	default:
		return fmt.Errorf("discord returned %d", resp.StatusCode)
	}
}

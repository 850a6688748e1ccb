// Package dispatch posts rendered notifications to Slack, via the Web
// API (bot token) or a pre-shared incoming webhook URL.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/slack-go/slack"
	"golang.org/x/time/rate"

	"github.com/gomashio/gomashio/internal/config"
	"github.com/gomashio/gomashio/internal/secrets"
)

// Poster performs one Slack delivery.
type Poster interface {
	Post(ctx context.Context, text, channel string) error
}

// Sender rate-limits outbound posts (chat.postMessage is limited
// upstream to roughly one message per second per channel) and logs
// outcomes. It never influences the webhook acknowledgement.
type Sender struct {
	poster  Poster
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewSender picks the deployment variant from the config: webhook_url
// when set, otherwise the Web API with the SSM-sourced bot token.
func NewSender(log *slog.Logger, cfg config.SlackConfig, source secrets.Source) *Sender {
	if log == nil {
		log = slog.Default()
	}
	var poster Poster
	if cfg.WebhookURL != "" {
		poster = &webhookPoster{url: cfg.WebhookURL}
	} else {
		poster = &apiPoster{source: source}
	}

	perSecond := cfg.MessagesPerSecond
	if perSecond <= 0 {
		perSecond = config.DefaultMessagesPerSecond
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = config.DefaultBurst
	}

	return &Sender{
		poster:  poster,
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
		logger:  log.With(slog.String("component", "dispatch")),
	}
}

// Post delivers text to channel. An empty channel leaves the
// destination to the webhook's default in the webhook variant.
func (s *Sender) Post(ctx context.Context, text, channel string) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	if err := s.poster.Post(ctx, text, channel); err != nil {
		return fmt.Errorf("post message: %w", err)
	}
	s.logger.Debug("message posted", slog.String("channel", channel))
	return nil
}

type apiPoster struct {
	source secrets.Source
}

func (p *apiPoster) Post(ctx context.Context, text, channel string) error {
	token, err := p.source.Token(ctx)
	if err != nil {
		return fmt.Errorf("slack token: %w", err)
	}
	api := slack.New(token)
	_, _, err = api.PostMessageContext(ctx, channel,
		slack.MsgOptionText(text, false),
		slack.MsgOptionLinkNames(true),
	)
	return err
}

type webhookPoster struct {
	url string
}

func (p *webhookPoster) Post(ctx context.Context, text, channel string) error {
	return slack.PostWebhookContext(ctx, p.url, &slack.WebhookMessage{
		Text:    text,
		Channel: channel,
	})
}

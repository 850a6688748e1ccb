package router

import (
	"context"
	"log/slog"

	"github.com/gomashio/gomashio/internal/config"
	"github.com/gomashio/gomashio/internal/github"
	"github.com/gomashio/gomashio/internal/identity"
	"github.com/gomashio/gomashio/internal/notify"
)

// DirectoryResolver yields the displayName→userID mapping.
type DirectoryResolver interface {
	Resolve(ctx context.Context) (map[string]string, error)
}

// Sender delivers rendered text to a channel.
type Sender interface {
	Post(ctx context.Context, text, channel string) error
}

// Processor runs the per-delivery pipeline: ignore check, channel
// resolution, directory + identity resolution, rendering, dispatch.
type Processor struct {
	rules     config.RulesConfig
	table     *Table
	directory DirectoryResolver
	identity  *identity.Resolver
	sender    Sender
	logger    *slog.Logger
}

// NewProcessor wires the pipeline.
func NewProcessor(log *slog.Logger, rules config.RulesConfig, table *Table, directory DirectoryResolver, ids *identity.Resolver, sender Sender) *Processor {
	if log == nil {
		log = slog.Default()
	}
	return &Processor{
		rules:     rules,
		table:     table,
		directory: directory,
		identity:  ids,
		sender:    sender,
		logger:    log.With(slog.String("component", "router")),
	}
}

// Handle processes one delivery. Every short-circuit and failure is a
// hard return here; the caller acknowledges the webhook either way.
func (p *Processor) Handle(ctx context.Context, event github.Event) {
	action := event.Action()
	log := p.logger.With(
		slog.String("event", event.Type),
		slog.String("action", action),
		slog.String("delivery", event.Delivery),
	)

	if p.rules.Ignored(event.Type, action) {
		log.Info("ignored event, nothing to do")
		return
	}

	repo := event.Payload.Repository
	if repo == nil || repo.Name == "" {
		log.Info("repository is empty, nothing to do")
		return
	}

	channel, ok := p.table.ChannelFor(repo.Name)
	if !ok {
		log.Info("repository not eligible for notification", slog.String("repository", repo.Name))
		return
	}

	dir, err := p.directory.Resolve(ctx)
	if err != nil {
		log.Error("directory resolve failed", slog.Any("error", err))
		return
	}

	text := notify.Render(event, p.identity.Bind(dir))
	if text == "" {
		log.Info("text is empty, nothing to do")
		return
	}

	if err := p.sender.Post(ctx, text, channel); err != nil {
		log.Error("slack post failed", slog.String("channel", channel), slog.Any("error", err))
		return
	}
	log.Info("notification dispatched", slog.String("channel", channel), slog.String("repository", repo.Name))
}

package directory

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/slack-go/slack"

	"github.com/gomashio/gomashio/internal/secrets"
)

// SlackLister fetches the workspace member list via the Slack
// users.list API. The token is obtained lazily so the secret fetch only
// happens on the cache-miss path.
type SlackLister struct {
	source secrets.Source
	logger *slog.Logger
}

// NewSlackLister creates a lister backed by the given token source.
func NewSlackLister(log *slog.Logger, source secrets.Source) *SlackLister {
	if log == nil {
		log = slog.Default()
	}
	return &SlackLister{
		source: source,
		logger: log.With(slog.String("component", "slack_directory")),
	}
}

// ListMembers calls users.list and reduces the response to Members.
func (l *SlackLister) ListMembers(ctx context.Context) ([]Member, error) {
	token, err := l.source.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("slack token: %w", err)
	}

	api := slack.New(token)
	users, err := api.GetUsersContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("slack users.list: %w", err)
	}

	members := make([]Member, 0, len(users))
	for _, u := range users {
		members = append(members, Member{
			ID:          u.ID,
			Deleted:     u.Deleted,
			IsBot:       u.IsBot,
			DisplayName: u.Profile.DisplayNameNormalized,
			RealName:    u.Profile.RealNameNormalized,
		})
	}
	l.logger.Debug("fetched slack members", slog.Int("count", len(members)))
	return members, nil
}

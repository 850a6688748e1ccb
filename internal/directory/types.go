// Package directory resolves the Slack workspace member directory,
// preferring a cached snapshot in DynamoDB over a fresh users.list call.
package directory

import (
	"context"
	"errors"
	"strings"
)

// ErrUpstreamUnavailable reports that neither the cache nor a fresh
// fetch could produce the directory.
var ErrUpstreamUnavailable = errors.New("slack directory unavailable")

// CacheKey is the partition key value of the single cache record.
const CacheKey = "users.list"

// Record is the persisted directory snapshot: an expiry timestamp in
// epoch seconds and the JSON-serialized displayName→userID mapping.
type Record struct {
	ExpiresAt int64
	Response  string
}

// Store reads and writes the single cache record.
type Store interface {
	Get(ctx context.Context) (Record, bool, error)
	Put(ctx context.Context, rec Record) error
}

// Member is one Slack workspace member, reduced to the fields the
// directory needs.
type Member struct {
	ID          string
	Deleted     bool
	IsBot       bool
	DisplayName string
	RealName    string
}

// Lister fetches the full member list from Slack.
type Lister interface {
	ListMembers(ctx context.Context) ([]Member, error)
}

// FromMembers builds the displayName→userID mapping from raw members:
// deactivated and bot accounts are dropped, and the normalized display
// name is preferred, falling back to the normalized real name.
func FromMembers(members []Member) map[string]string {
	dir := make(map[string]string, len(members))
	for _, m := range members {
		if m.Deleted || m.IsBot {
			continue
		}
		name := strings.TrimSpace(m.DisplayName)
		if name == "" {
			name = strings.TrimSpace(m.RealName)
		}
		if name == "" {
			continue
		}
		dir[name] = m.ID
	}
	return dir
}

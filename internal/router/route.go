// Package router classifies inbound GitHub events and drives eligible
// ones through identity resolution, rendering, and dispatch.
package router

import (
	"fmt"
	"regexp"

	"github.com/gomashio/gomashio/internal/config"
)

type rule struct {
	pattern *regexp.Regexp
	channel string
}

// Table is the ordered repository→channel routing table. Patterns are
// case-insensitive; the first matching rule wins.
type Table struct {
	rules []rule
}

// NewTable compiles the configured rules in declared order. An invalid
// pattern is a startup error.
func NewTable(rules []config.RepositoryRule) (*Table, error) {
	compiled := make([]rule, 0, len(rules))
	for _, r := range rules {
		re, err := regexp.Compile("(?i)" + r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("repository rule %q: %w", r.Pattern, err)
		}
		compiled = append(compiled, rule{pattern: re, channel: r.Channel})
	}
	return &Table{rules: compiled}, nil
}

// ChannelFor returns the destination channel for the repository name,
// or false when no rule matches.
func (t *Table) ChannelFor(repository string) (string, bool) {
	for _, r := range t.rules {
		if r.pattern.MatchString(repository) {
			return r.channel, true
		}
	}
	return "", false
}

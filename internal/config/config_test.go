package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "")

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, DefaultHTTPAddr, cfg.Server.Addr)
	require.Equal(t, "info", cfg.Log.Level)
	require.Equal(t, DefaultCacheTable, cfg.Cache.Table)
	require.Equal(t, DefaultTokenParameter, cfg.Slack.TokenParameter)
	require.Equal(t, 24*time.Hour, cfg.Cache.Expiry())
	require.NotNil(t, cfg.Rules.AccountMap)
	require.NotNil(t, cfg.Rules.IgnoreEvents)
}

func TestLoadFull(t *testing.T) {
	path := writeConfig(t, `
[log]
level = "debug"
format = "json"

[server]
addr = ":9000"

[slack]
token_parameter = "prod_slack_token"
messages_per_second = 0.5
burst = 1

[cache]
table = "prod_slack_cache"
ttl = "12h"
refresh_schedule = "@daily"

[rules]
[rules.account_map]
"gh-bob" = "Bob Real Name"
carol = "Carol S"

[rules.ignore_events]
issues = ["opened", "closed"]
push = [""]

[[rules.repository]]
pattern = "^gomashio"
channel = "#dev"

[[rules.repository]]
pattern = ".*"
channel = "#catchall"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, ":9000", cfg.Server.Addr)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, "prod_slack_token", cfg.Slack.TokenParameter)
	require.Equal(t, "prod_slack_cache", cfg.Cache.Table)
	require.Equal(t, 12*time.Hour, cfg.Cache.Expiry())
	require.Equal(t, "@daily", cfg.Cache.RefreshSchedule)

	require.Equal(t, "Bob Real Name", cfg.Rules.AccountMap["gh-bob"])

	// Declared order of routing rules is match order.
	require.Len(t, cfg.Rules.Repositories, 2)
	require.Equal(t, "^gomashio", cfg.Rules.Repositories[0].Pattern)
	require.Equal(t, "#dev", cfg.Rules.Repositories[0].Channel)
	require.Equal(t, "#catchall", cfg.Rules.Repositories[1].Channel)
}

func TestIgnored(t *testing.T) {
	rules := RulesConfig{IgnoreEvents: map[string][]string{
		"issues": {"opened"},
		"push":   {""},
	}}

	require.True(t, rules.Ignored("issues", "opened"))
	require.False(t, rules.Ignored("issues", "assigned"))
	// A payload without an action looks up the empty string.
	require.True(t, rules.Ignored("push", ""))
	require.False(t, rules.Ignored("unknown", ""))
}

func TestExpiryFallsBackOnBadTTL(t *testing.T) {
	require.Equal(t, 24*time.Hour, CacheConfig{TTL: "soon"}.Expiry())
	require.Equal(t, 24*time.Hour, CacheConfig{TTL: "-1h"}.Expiry())
}

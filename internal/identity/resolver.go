// Package identity translates GitHub logins into Slack mentions using
// the configured account map and a freshly resolved directory.
package identity

// Resolver holds the immutable configured account map: GitHub login →
// Slack display name (or already a Slack user ID).
type Resolver struct {
	accounts map[string]string
}

// NewResolver creates a resolver over the configured account map.
func NewResolver(accounts map[string]string) *Resolver {
	if accounts == nil {
		accounts = map[string]string{}
	}
	return &Resolver{accounts: accounts}
}

// Bind inverts the account map through the directory: a configured
// display name found in the directory is replaced by its Slack user
// ID; anything absent passes through unchanged (treated as already
// being an ID). The result is transient, valid for one invocation.
func (r *Resolver) Bind(directory map[string]string) Bound {
	bound := make(Bound, len(r.accounts))
	for login, name := range r.accounts {
		if id, ok := directory[name]; ok {
			bound[login] = id
		} else {
			bound[login] = name
		}
	}
	return bound
}

// Bound is the per-invocation login→Slack-ID mapping.
type Bound map[string]string

// Resolve returns the mapped value for login, or login unchanged when
// unmapped. Never fails.
func (b Bound) Resolve(login string) string {
	if v, ok := b[login]; ok && v != "" {
		return v
	}
	return login
}

// Mention returns the Slack mention syntax for login.
func (b Bound) Mention(login string) string {
	return "<@" + b.Resolve(login) + ">"
}

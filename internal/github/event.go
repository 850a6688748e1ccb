// Package github defines the subset of GitHub webhook payloads the
// relay understands and decodes the two delivery encodings GitHub uses.
package github

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrMalformedPayload reports a webhook body that could not be decoded.
var ErrMalformedPayload = errors.New("malformed webhook payload")

// Header names set by GitHub on every delivery.
const (
	EventHeader    = "X-GitHub-Event"
	DeliveryHeader = "X-GitHub-Delivery"
)

// Event is one inbound webhook delivery: the event type from the
// X-GitHub-Event header plus the decoded payload. Transient, one per
// invocation.
type Event struct {
	Type     string
	Delivery string
	Payload  Payload
}

// Action returns the payload action, with a missing action normalized
// to the empty string for ignore-table lookups.
func (e Event) Action() string {
	return e.Payload.Action
}

// Payload is the typed subset of a repository event payload.
type Payload struct {
	Action      string       `json:"action"`
	Repository  *Repository  `json:"repository"`
	Comment     *Comment     `json:"comment"`
	Issue       *Issue       `json:"issue"`
	PullRequest *PullRequest `json:"pull_request"`
}

// Repository identifies the repository an event belongs to.
type Repository struct {
	Name     string `json:"name"`
	FullName string `json:"full_name"`
}

// User is a GitHub account reference.
type User struct {
	Login string `json:"login"`
}

// Comment is an issue or pull request review comment.
type Comment struct {
	Body    string `json:"body"`
	HTMLURL string `json:"html_url"`
	User    User   `json:"user"`
}

// Issue carries the fields rendered for issues events.
type Issue struct {
	Title     string `json:"title"`
	HTMLURL   string `json:"html_url"`
	Assignees []User `json:"assignees"`
}

// PullRequest carries the fields rendered for pull_request events.
type PullRequest struct {
	Title              string `json:"title"`
	HTMLURL            string `json:"html_url"`
	Assignees          []User `json:"assignees"`
	RequestedReviewers []User `json:"requested_reviewers"`
}

// DecodePayload decodes a webhook body. GitHub delivers either raw
// JSON or an application/x-www-form-urlencoded body with a single
// payload=<url-encoded JSON> parameter. The form variant is unescaped
// without '+'-to-space translation: GitHub transmits spaces inside
// free text as '+', and the renderer owns that substitution.
func DecodePayload(contentType string, body []byte) (Payload, error) {
	raw := strings.TrimSpace(string(body))
	if raw == "" {
		return Payload{}, fmt.Errorf("%w: empty body", ErrMalformedPayload)
	}

	if strings.Contains(contentType, "application/x-www-form-urlencoded") || strings.HasPrefix(raw, "payload=") {
		encoded := strings.TrimPrefix(raw, "payload=")
		decoded, err := url.PathUnescape(encoded)
		if err != nil {
			return Payload{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}
		raw = decoded
	}

	var payload Payload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return payload, nil
}

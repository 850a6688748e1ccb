// Package notify renders the notification text for a GitHub event.
// Unhandled event types render empty text, which suppresses dispatch.
package notify

import (
	"regexp"
	"strings"

	"github.com/gomashio/gomashio/internal/github"
)

// Event types with rendering rules.
const (
	EventIssueComment             = "issue_comment"
	EventIssues                   = "issues"
	EventPullRequest              = "pull_request"
	EventPullRequestReviewComment = "pull_request_review_comment"

	actionAssigned = "assigned"
)

var userPattern = regexp.MustCompile(`@([a-zA-Z0-9_\-]+)`)

// Mentioner turns a GitHub login into a chat mention.
type Mentioner interface {
	Mention(login string) string
}

// Render produces the notification text for the event, or "" when the
// event type or action has no rendering rule.
func Render(event github.Event, ids Mentioner) string {
	switch event.Type {
	case EventIssueComment, EventPullRequestReviewComment:
		comment := event.Payload.Comment
		if comment == nil {
			return ""
		}
		return comment.User.Login + ": \n" +
			ReplaceUsers(comment.Body, ids) + "\n" +
			comment.HTMLURL

	case EventIssues:
		issue := event.Payload.Issue
		if issue == nil || event.Payload.Action != actionAssigned {
			return ""
		}
		return "Issue " + actionAssigned + "\n" +
			"Assignees: " + UserList(issue.Assignees, ids) + "\n" +
			Link(issue.HTMLURL, issue.Title)

	case EventPullRequest:
		pr := event.Payload.PullRequest
		if pr == nil || event.Payload.Action != actionAssigned {
			return ""
		}
		return "Pull Request " + actionAssigned + "\n" +
			pr.Title + "\n" +
			"Reviewers: " + UserList(pr.RequestedReviewers, ids) + "\n" +
			"Assignees: " + UserList(pr.Assignees, ids) + "\n" +
			Link(pr.HTMLURL, pr.Title)
	}
	return ""
}

// ReplaceUsers expands mentions in free text from the webhook. The
// webhook transmits spaces as '+', so every '+' becomes a space first;
// a literal '+' in the original text is indistinguishable from an
// encoded space and is lost. Then every @name token (letters, digits,
// underscore, hyphen) becomes a chat mention.
func ReplaceUsers(text string, ids Mentioner) string {
	text = strings.ReplaceAll(text, "+", " ")
	return userPattern.ReplaceAllStringFunc(text, func(match string) string {
		return ids.Mention(match[1:])
	})
}

// UserList joins mentions for the given users with single spaces.
func UserList(users []github.User, ids Mentioner) string {
	mentions := make([]string, len(users))
	for i, u := range users {
		mentions[i] = ids.Mention(u.Login)
	}
	return strings.Join(mentions, " ")
}

// Link formats Slack's bracketed link syntax.
func Link(url, text string) string {
	return "<" + url + "|" + text + ">"
}

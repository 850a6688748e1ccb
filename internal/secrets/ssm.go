// Package secrets resolves the Slack bot token from SSM Parameter Store.
package secrets

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// Source yields the Slack bearer token.
type Source interface {
	Token(ctx context.Context) (string, error)
}

// SSMClient is the subset of the SSM API the source uses.
type SSMClient interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// SSMSource reads a SecureString parameter with decryption and caches
// the value for the process lifetime, so the directory refresh and the
// dispatcher share a single parameter fetch.
type SSMSource struct {
	client SSMClient
	name   string
	logger *slog.Logger

	mu    sync.Mutex
	token string
}

// NewSSMSource creates a token source for the named parameter.
func NewSSMSource(log *slog.Logger, client SSMClient, name string) *SSMSource {
	if log == nil {
		log = slog.Default()
	}
	return &SSMSource{
		client: client,
		name:   name,
		logger: log.With(slog.String("component", "secrets")),
	}
}

// Token returns the decrypted parameter value, fetching it at most once.
func (s *SSMSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" {
		return s.token, nil
	}

	out, err := s.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(s.name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("get parameter %s: %w", s.name, err)
	}
	if out.Parameter == nil || out.Parameter.Value == nil || *out.Parameter.Value == "" {
		return "", fmt.Errorf("parameter %s has no value", s.name)
	}

	s.token = *out.Parameter.Value
	s.logger.Debug("slack token loaded", slog.String("parameter", s.name))
	return s.token, nil
}

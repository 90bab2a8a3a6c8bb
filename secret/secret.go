// Package secret resolves deployment secrets from SSM Parameter Store or
// from the environment.
package secret

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// ErrNotFound is returned when a secret has no value.
var ErrNotFound = errors.New("secret not found")

// Resolver retrieves secret values by name. Names are short kebab-case
// keys such as "session-secret".
type Resolver interface {
	GetSecret(ctx context.Context, name string) (string, error)
}

// SSMClient is the subset of *ssm.Client used by SSMResolver.
type SSMClient interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// SSMResolver reads SecureString parameters stored under a path prefix.
type SSMResolver struct {
	client SSMClient
	prefix string
}

// NewSSMResolver returns a resolver that reads "<prefix>/<name>".
func NewSSMResolver(client SSMClient, prefix string) *SSMResolver {
	return &SSMResolver{client: client, prefix: strings.TrimRight(prefix, "/")}
}

// NewSSMResolverFromEnv loads the default AWS configuration and returns an
// SSM backed resolver.
func NewSSMResolverFromEnv(ctx context.Context, prefix string) (*SSMResolver, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewSSMResolver(ssm.NewFromConfig(cfg), prefix), nil
}

func (r *SSMResolver) paramName(name string) string {
	return r.prefix + "/" + name
}

func (r *SSMResolver) GetSecret(ctx context.Context, name string) (string, error) {
	param := r.paramName(name)
	out, err := r.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(param),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("ssm get parameter %q: %w", param, err)
	}
	if out.Parameter == nil || out.Parameter.Value == nil {
		return "", fmt.Errorf("ssm parameter %q: %w", param, ErrNotFound)
	}
	return *out.Parameter.Value, nil
}

// EnvResolver reads secrets from environment variables. "apple-private-key"
// is read from APPLE_PRIVATE_KEY.
type EnvResolver struct {
	lookup func(string) (string, bool)
}

func NewEnvResolver() *EnvResolver {
	return &EnvResolver{lookup: os.LookupEnv}
}

func (r *EnvResolver) GetSecret(_ context.Context, name string) (string, error) {
	key := EnvName(name)
	v, ok := r.lookup(key)
	if !ok || v == "" {
		return "", fmt.Errorf("environment variable %s: %w", key, ErrNotFound)
	}
	return v, nil
}

// EnvName maps a secret name, or the last segment of a parameter path, to
// its environment variable.
func EnvName(name string) string {
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	return strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
}

// Fill resolves each named secret into its target, leaving targets that
// already hold a value untouched. Secrets that cannot be found are skipped;
// any other failure is returned.
func Fill(ctx context.Context, r Resolver, targets map[string]*string) error {
	for name, dst := range targets {
		if *dst != "" {
			continue
		}
		v, err := r.GetSecret(ctx, name)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		*dst = v
	}
	return nil
}

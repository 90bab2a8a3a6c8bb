package secret

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSSM struct {
	params    map[string]string
	decrypted bool
	err       error
}

func (f *fakeSSM) GetParameter(_ context.Context, in *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	f.decrypted = aws.ToBool(in.WithDecryption)
	if f.err != nil {
		return nil, f.err
	}
	v, ok := f.params[aws.ToString(in.Name)]
	if !ok {
		return &ssm.GetParameterOutput{}, nil
	}
	return &ssm.GetParameterOutput{Parameter: &ssmtypes.Parameter{Name: in.Name, Value: aws.String(v)}}, nil
}

func TestSSMResolver(t *testing.T) {
	client := &fakeSSM{params: map[string]string{"/blog/session-secret": "s3cret"}}
	r := NewSSMResolver(client, "/blog/")

	v, err := r.GetSecret(context.Background(), "session-secret")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", v)
	assert.True(t, client.decrypted)

	_, err = r.GetSecret(context.Background(), "github-token")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSSMResolverError(t *testing.T) {
	boom := errors.New("access denied")
	r := NewSSMResolver(&fakeSSM{err: boom}, "/blog")
	_, err := r.GetSecret(context.Background(), "session-secret")
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestEnvResolver(t *testing.T) {
	t.Setenv("APPLE_PRIVATE_KEY", "pem")
	r := NewEnvResolver()

	v, err := r.GetSecret(context.Background(), "apple-private-key")
	require.NoError(t, err)
	assert.Equal(t, "pem", v)

	_, err = r.GetSecret(context.Background(), "no-such-secret-here")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEnvName(t *testing.T) {
	assert.Equal(t, "SESSION_SECRET", EnvName("session-secret"))
	assert.Equal(t, "GITHUB_TOKEN", EnvName("/blog/prod/github-token"))
}

func TestFill(t *testing.T) {
	r := NewSSMResolver(&fakeSSM{params: map[string]string{
		"/blog/session-secret": "from-ssm",
		"/blog/github-token":   "tok",
	}}, "/blog")

	session, token, basic := "", "preset", ""
	err := Fill(context.Background(), r, map[string]*string{
		"session-secret":      &session,
		"github-token":        &token,
		"basic-auth-password": &basic,
	})
	require.NoError(t, err)
	assert.Equal(t, "from-ssm", session)
	assert.Equal(t, "preset", token)
	assert.Empty(t, basic)
}

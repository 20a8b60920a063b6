package storage

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/secretsmanager"
	"github.com/aws/aws-sdk-go/service/secretsmanager/secretsmanageriface"
	"gotest.tools/v3/assert"
)

type fakeSecretsManager struct {
	secretsmanageriface.SecretsManagerAPI
	secrets map[string][]byte
	creates int
}

func (f *fakeSecretsManager) notFound() error {
	return awserr.New(secretsmanager.ErrCodeResourceNotFoundException, "not found", nil)
}

func (f *fakeSecretsManager) GetSecretValueWithContext(_ aws.Context, in *secretsmanager.GetSecretValueInput, _ ...request.Option) (*secretsmanager.GetSecretValueOutput, error) {
	b, ok := f.secrets[aws.StringValue(in.SecretId)]
	if !ok {
		return nil, f.notFound()
	}
	return &secretsmanager.GetSecretValueOutput{SecretBinary: b}, nil
}

func (f *fakeSecretsManager) PutSecretValueWithContext(_ aws.Context, in *secretsmanager.PutSecretValueInput, _ ...request.Option) (*secretsmanager.PutSecretValueOutput, error) {
	name := aws.StringValue(in.SecretId)
	if _, ok := f.secrets[name]; !ok {
		return nil, f.notFound()
	}
	f.secrets[name] = in.SecretBinary
	return &secretsmanager.PutSecretValueOutput{}, nil
}

func (f *fakeSecretsManager) CreateSecretWithContext(_ aws.Context, in *secretsmanager.CreateSecretInput, _ ...request.Option) (*secretsmanager.CreateSecretOutput, error) {
	f.creates++
	f.secrets[aws.StringValue(in.Name)] = in.SecretBinary
	return &secretsmanager.CreateSecretOutput{}, nil
}

func TestAWSSecretsManager(t *testing.T) {
	fake := &fakeSecretsManager{secrets: map[string][]byte{}}
	s := NewAWSSecretsManager(fake, "trustlist/")
	ctx := context.Background()

	_, err := s.Read(ctx, "de.json")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NilError(t, s.Write(ctx, "de.json", []byte(`[{"id":"A"},{"id":"B"}]`)))
	assert.NilError(t, s.Write(ctx, "de.json", []byte(`[{"id":"A"}]`)))
	assert.Equal(t, fake.creates, 1)

	b, err := s.Read(ctx, "de.json")
	assert.NilError(t, err)
	assert.Equal(t, string(b), `[{"id":"A"}]`)

	_, ok := fake.secrets["trustlist/de.json"]
	assert.Assert(t, ok)
}

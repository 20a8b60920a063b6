package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/secretsmanager"
	"github.com/aws/aws-sdk-go/service/secretsmanager/secretsmanageriface"
)

type AWSConfig struct {
	Endpoint        string `config:"endpoint"`
	Region          string `config:"region"`
	AccessKeyID     string `config:"accessKeyID"`
	SecretAccessKey string `config:"secretAccessKey"`
	Prefix          string `config:"prefix"`
}

var _ Storage = &AWSSecretsManager{}

// AWSSecretsManager stores each snapshot as the binary value of one secret.
// Updating a secret creates a new version atomically. Secrets hold at most
// 64KiB.
type AWSSecretsManager struct {
	Prefix string

	client secretsmanageriface.SecretsManagerAPI
}

func NewAWSSecretsManagerFromConfig(cfg AWSConfig) (*AWSSecretsManager, error) {
	awsCfg := aws.NewConfig()
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
	}
	if cfg.Region != "" {
		awsCfg.Region = aws.String(cfg.Region)
	}
	if cfg.AccessKeyID != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(cfg.AccessKeyID, cfg.SecretAccessKey, "")
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("aws sm: creating session: %w", err)
	}

	return NewAWSSecretsManager(secretsmanager.New(sess), cfg.Prefix), nil
}

func NewAWSSecretsManager(client secretsmanageriface.SecretsManagerAPI, prefix string) *AWSSecretsManager {
	return &AWSSecretsManager{Prefix: prefix, client: client}
}

func (s *AWSSecretsManager) secretName(key string) string {
	return s.Prefix + sanitizeKey(key)
}

// Write
// must have the secretsmanager:CreateSecret and secretsmanager:PutSecretValue
// permissions
func (s *AWSSecretsManager) Write(ctx context.Context, key string, data []byte) error {
	name := s.secretName(key)

	_, err := s.client.PutSecretValueWithContext(ctx, &secretsmanager.PutSecretValueInput{
		SecretId:     aws.String(name),
		SecretBinary: data,
	})
	if err == nil {
		return nil
	}

	var aerr awserr.Error
	if !errors.As(err, &aerr) || aerr.Code() != secretsmanager.ErrCodeResourceNotFoundException {
		return fmt.Errorf("aws sm: put secret value: %w", err)
	}

	_, err = s.client.CreateSecretWithContext(ctx, &secretsmanager.CreateSecretInput{
		Name:         aws.String(name),
		SecretBinary: data,
	})
	if err != nil {
		return fmt.Errorf("aws sm: creating secret: %w", err)
	}
	return nil
}

// Read
// must have permission secretsmanager:GetSecretValue
func (s *AWSSecretsManager) Read(ctx context.Context, key string) ([]byte, error) {
	sec, err := s.client.GetSecretValueWithContext(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(s.secretName(key)),
	})
	if err != nil {
		var aerr awserr.Error
		if errors.As(err, &aerr) && aerr.Code() == secretsmanager.ErrCodeResourceNotFoundException {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("aws sm: get secret: %w", err)
	}

	return sec.SecretBinary, nil
}

package secrets

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// Provider retrieves named secrets. Used once per invocation to obtain the
// source store's service-account credentials.
type Provider interface {
	Get(ctx context.Context, name string) (string, error)
}

// secretsManagerAPI is the minimal Secrets Manager interface needed by
// ManagerProvider, allowing injection of a mock client in tests.
type secretsManagerAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// ManagerProvider reads secrets from AWS Secrets Manager.
type ManagerProvider struct {
	client secretsManagerAPI
}

// NewManagerProvider builds a ManagerProvider using the default AWS
// credential chain for the given region.
func NewManagerProvider(ctx context.Context, region string) (*ManagerProvider, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed loading aws config: %w", err)
	}
	return &ManagerProvider{client: secretsmanager.NewFromConfig(cfg)}, nil
}

// NewManagerProviderWithClient builds a ManagerProvider with a custom
// client (for testing).
func NewManagerProviderWithClient(client secretsManagerAPI) *ManagerProvider {
	return &ManagerProvider{client: client}
}

// Get returns the secret value for name. String secrets are preferred;
// binary secrets are returned as-is.
func (p *ManagerProvider) Get(ctx context.Context, name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("secret name must be provided")
	}

	out, err := p.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(name),
	})
	if err != nil {
		return "", fmt.Errorf("failed retrieving secret %s: %w", name, err)
	}

	if out.SecretString != nil {
		return *out.SecretString, nil
	}
	if len(out.SecretBinary) > 0 {
		return string(out.SecretBinary), nil
	}
	return "", fmt.Errorf("secret %s has no value", name)
}

var _ Provider = (*ManagerProvider)(nil)

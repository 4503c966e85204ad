package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
)

var (
	ErrSecretNotFound  = errors.New("secret not found")
	ErrSecretMalformed = errors.New("secret payload malformed")
)

type secretsAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// Resolver reads bearer credentials from AWS Secrets Manager. It holds no
// cache: tokens rotate out-of-band and each pipeline run must see the
// current value.
type Resolver struct {
	client secretsAPI
}

func NewResolver(ctx context.Context, region string) (*Resolver, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &Resolver{client: secretsmanager.NewFromConfig(awsCfg)}, nil
}

// AccessToken fetches the secret and extracts the bearer token. The payload
// is either the token itself or a JSON envelope {"access_token": "..."}.
func (r *Resolver) AccessToken(ctx context.Context, secretID string) (string, error) {
	if strings.TrimSpace(secretID) == "" {
		return "", fmt.Errorf("%w: empty secret id", ErrSecretNotFound)
	}
	out, err := r.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: &secretID,
	})
	if err != nil {
		var nf *types.ResourceNotFoundException
		if errors.As(err, &nf) {
			return "", fmt.Errorf("%w: %s", ErrSecretNotFound, secretID)
		}
		return "", fmt.Errorf("get secret %s: %w", secretID, err)
	}
	if out.SecretString == nil {
		return "", fmt.Errorf("%w: %s has no string payload", ErrSecretMalformed, secretID)
	}
	return parseAccessToken(*out.SecretString)
}

func parseAccessToken(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: empty payload", ErrSecretMalformed)
	}
	if !strings.HasPrefix(raw, "{") {
		return raw, nil
	}
	var envelope struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal([]byte(raw), &envelope); err != nil {
		return "", fmt.Errorf("%w: %v", ErrSecretMalformed, err)
	}
	if strings.TrimSpace(envelope.AccessToken) == "" {
		return "", fmt.Errorf("%w: missing access_token field", ErrSecretMalformed)
	}
	return envelope.AccessToken, nil
}

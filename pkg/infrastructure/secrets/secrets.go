// Package secrets reads credentials from Secret Manager with an
// environment-variable override for local runs.
package secrets

import (
	"context"
	"fmt"
	"hash/crc32"
	"log/slog"
	"os"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"

	apperrors "github.com/ripixel/fitplan-server/pkg/errors"
)

// SecretsAdapter implements shared.SecretStore.
type SecretsAdapter struct {
	Logger *slog.Logger
	// lookupEnv is os.LookupEnv outside tests.
	lookupEnv func(string) (string, bool)
}

// GetSecret fetches the latest version of a secret. An environment variable
// named after the secret wins over Secret Manager.
func (a *SecretsAdapter) GetSecret(ctx context.Context, projectID, secretName string) (string, error) {
	lookup := a.lookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if val, ok := lookup(secretName); ok && val != "" {
		a.logger().Debug("Using local env var for secret", "secret", secretName)
		return val, nil
	}

	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return "", apperrors.ErrSecretFailed.WithCause(err).WithMessage("create secretmanager client")
	}
	defer client.Close()

	req := &secretmanagerpb.AccessSecretVersionRequest{
		Name: fmt.Sprintf("projects/%s/secrets/%s/versions/latest", projectID, secretName),
	}
	result, err := client.AccessSecretVersion(ctx, req)
	if err != nil {
		return "", apperrors.ErrSecretFailed.WithCause(err).WithMetadata("secret", secretName)
	}

	crc32c := crc32.MakeTable(crc32.Castagnoli)
	checksum := int64(crc32.Checksum(result.Payload.Data, crc32c))
	if result.Payload.DataCrc32C != nil && *result.Payload.DataCrc32C != checksum {
		return "", apperrors.ErrSecretFailed.WithMessage("secret payload checksum mismatch").WithMetadata("secret", secretName)
	}

	return string(result.Payload.Data), nil
}

func (a *SecretsAdapter) logger() *slog.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return slog.Default()
}

// Package secrets resolves configuration values stored in Google Secret Manager.
package secrets

import (
	"context"
	"fmt"
	"strings"

	"formation/internal/config"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/api/option"
)

// Prefix marks a config value as a reference to a secret, e.g. "sm://db-dsn".
const Prefix = "sm://"

// Accessor is the subset of the Secret Manager client the resolver uses.
type Accessor interface {
	AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest, opts ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error)
}

type Resolver struct {
	accessor  Accessor
	projectID string
}

func NewResolver(accessor Accessor, projectID string) *Resolver {
	return &Resolver{accessor: accessor, projectID: projectID}
}

// NeedsResolution reports whether any secret field of cfg holds a reference.
func NeedsResolution(cfg *config.Config) bool {
	for _, f := range cfg.SecretFields() {
		if strings.HasPrefix(*f, Prefix) {
			return true
		}
	}
	return false
}

// Resolve replaces every sm:// reference in cfg with the latest secret version.
func (r *Resolver) Resolve(ctx context.Context, cfg *config.Config) error {
	for _, f := range cfg.SecretFields() {
		if !strings.HasPrefix(*f, Prefix) {
			continue
		}
		v, err := r.Access(ctx, strings.TrimPrefix(*f, Prefix))
		if err != nil {
			return err
		}
		*f = v
	}
	return nil
}

// Access returns the latest version of the named secret. Fully qualified
// resource names are used as-is.
func (r *Resolver) Access(ctx context.Context, name string) (string, error) {
	resourceName := name
	if !strings.HasPrefix(name, "projects/") {
		if r.projectID == "" {
			return "", fmt.Errorf("cannot resolve secret %q: GCP project ID is not set", name)
		}
		resourceName = fmt.Sprintf("projects/%s/secrets/%s/versions/latest", r.projectID, name)
	}

	result, err := r.accessor.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: resourceName,
	})
	if err != nil {
		return "", fmt.Errorf("failed to access secret version %s: %w", resourceName, err)
	}
	return strings.TrimSpace(string(result.Payload.Data)), nil
}

// ResolveConfig connects to Secret Manager only when cfg references a secret.
func ResolveConfig(ctx context.Context, cfg *config.Config, opts ...option.ClientOption) error {
	if !NeedsResolution(cfg) {
		return nil
	}
	client, err := secretmanager.NewClient(ctx, opts...)
	if err != nil {
		return fmt.Errorf("failed to create Secret Manager client: %w", err)
	}
	defer client.Close()
	return NewResolver(client, cfg.GCPProjectID).Resolve(ctx, cfg)
}

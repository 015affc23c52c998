package properties

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hashicorp/vault/api"
)

// VaultLoader reads a property bag from a HashiCorp Vault KV v2 secret.
// The bag is stored as a single .properties-formatted string field.
// Authentication comes from the standard Vault environment (VAULT_TOKEN).
type VaultLoader struct {
	client      *api.Client
	mountPath   string
	secretPath  string
	field       string
	log         *slog.Logger
	locationURI string
}

// NewVaultLoader creates a loader for one field of a KV v2 secret.
func NewVaultLoader(address, mountPath, secretPath, field string, log *slog.Logger) (*VaultLoader, error) {
	config := api.DefaultConfig()
	config.Address = address
	config.Timeout = 30 * time.Second

	client, err := api.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("could not create Vault client: %w", err)
	}

	mountPath = strings.Trim(mountPath, "/")
	secretPath = strings.Trim(secretPath, "/")

	return &VaultLoader{
		client:      client,
		mountPath:   mountPath,
		secretPath:  secretPath,
		field:       field,
		log:         log,
		locationURI: fmt.Sprintf("vault://%s/%s/%s", address, mountPath, secretPath),
	}, nil
}

// Load fetches the secret and parses the configured field.
func (l *VaultLoader) Load(ctx context.Context) (Properties, error) {
	secret, err := l.client.KVv2(l.mountPath).Get(ctx, l.secretPath)
	if err != nil {
		return nil, fmt.Errorf("could not fetch %s: %w", l.locationURI, err)
	}

	raw, ok := secret.Data[l.field].(string)
	if !ok {
		return nil, fmt.Errorf("field %q missing or not a string in %s", l.field, l.locationURI)
	}

	props, err := Parse(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("could not parse %s: %w", l.locationURI, err)
	}

	l.log.Debug("Loaded properties from Vault",
		slog.String("mount", l.mountPath),
		slog.String("path", l.secretPath),
		slog.Int("keys", len(props)))

	return props, nil
}

func (l *VaultLoader) LocationURI() string {
	return l.locationURI
}

package tlssettings

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/vault/api"
)

// VaultProvider fetches TLS client material from a HashiCorp Vault KV v2
// secret. The secret holds PEM strings under the configured field names.
// Authentication comes from the standard Vault environment (VAULT_TOKEN).
type VaultProvider struct {
	// Address is the Vault server, e.g. https://vault.example.com:8200.
	Address string

	// MountPath is the KV v2 mount, e.g. "secret".
	MountPath string

	// SecretPath is the path within the mount, e.g. "services/tls-client".
	SecretPath string

	// CertField, KeyField and TrustField name the secret fields holding the
	// client certificate, private key, and CA bundle. They default to
	// "certificate", "private_key" and "ca_chain".
	CertField  string
	KeyField   string
	TrustField string

	// MinVersion overrides the minimum accepted TLS version.
	// Defaults to TLS 1.2.
	MinVersion uint16
}

func (p *VaultProvider) TLSClientConfig() (*tls.Config, error) {
	config := api.DefaultConfig()
	config.Address = p.Address
	config.Timeout = 30 * time.Second

	client, err := api.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("could not create Vault client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	mount := strings.Trim(p.MountPath, "/")
	path := strings.Trim(p.SecretPath, "/")
	secret, err := client.KVv2(mount).Get(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("could not fetch TLS material from vault://%s/%s/%s: %w", p.Address, mount, path, err)
	}

	certField := fieldOrDefault(p.CertField, "certificate")
	keyField := fieldOrDefault(p.KeyField, "private_key")
	trustField := fieldOrDefault(p.TrustField, "ca_chain")

	certPEM, _ := secret.Data[certField].(string)
	keyPEM, _ := secret.Data[keyField].(string)
	trustPEM, _ := secret.Data[trustField].(string)

	minVersion := p.MinVersion
	if minVersion == 0 {
		minVersion = tls.VersionTLS12
	}
	cfg := &tls.Config{MinVersion: minVersion}

	if certPEM != "" || keyPEM != "" {
		cert, err := tls.X509KeyPair([]byte(certPEM), []byte(keyPEM))
		if err != nil {
			return nil, fmt.Errorf("could not assemble key pair from vault secret: %w", err)
		}
		cfg.Certificates = []tls.Certificate{cert}
	}

	if trustPEM != "" {
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM([]byte(trustPEM)) {
			return nil, fmt.Errorf("no certificates found in vault field %q", trustField)
		}
		cfg.RootCAs = pool
	}

	return cfg, nil
}

func fieldOrDefault(field, def string) string {
	if field == "" {
		return def
	}
	return field
}

package tlssettings

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
)

// Provider supplies ready-to-use TLS client parameters for a security
// context. Implementations must return a fresh config on every call so
// callers can adjust verification policy without affecting each other.
type Provider interface {
	TLSClientConfig() (*tls.Config, error)
}

// StaticProvider wraps an existing TLS config, handing out clones.
type StaticProvider struct {
	Config *tls.Config
}

func (p *StaticProvider) TLSClientConfig() (*tls.Config, error) {
	if p.Config == nil {
		return nil, errors.New("no TLS config set")
	}
	return p.Config.Clone(), nil
}

// FileProvider builds mutual-TLS client parameters from PEM files on disk.
// CertFile and KeyFile hold the client identity; TrustFile holds the CA
// certificates the client trusts. Any of the three may be left empty.
type FileProvider struct {
	// CertFile is the PEM-encoded client certificate chain.
	CertFile string

	// KeyFile is the PEM-encoded private key for CertFile.
	KeyFile string

	// TrustFile is a PEM bundle of trusted CA certificates. When empty the
	// system trust store is used.
	TrustFile string

	// MinVersion overrides the minimum accepted TLS version.
	// Defaults to TLS 1.2.
	MinVersion uint16
}

func (p *FileProvider) TLSClientConfig() (*tls.Config, error) {
	minVersion := p.MinVersion
	if minVersion == 0 {
		minVersion = tls.VersionTLS12
	}

	cfg := &tls.Config{MinVersion: minVersion}

	if p.CertFile != "" || p.KeyFile != "" {
		cert, err := tls.LoadX509KeyPair(p.CertFile, p.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("could not load client key pair: %w", err)
		}
		cfg.Certificates = []tls.Certificate{cert}
	}

	if p.TrustFile != "" {
		pool, err := loadTrustPool(p.TrustFile)
		if err != nil {
			return nil, err
		}
		cfg.RootCAs = pool
	}

	return cfg, nil
}

func loadTrustPool(path string) (*x509.CertPool, error) {
	pemData, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read trust bundle: %w", err)
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pemData) {
		return nil, fmt.Errorf("no certificates found in trust bundle %s", path)
	}
	return pool, nil
}

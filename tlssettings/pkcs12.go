package tlssettings

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"

	"golang.org/x/crypto/pkcs12"
)

// PKCS12Provider builds TLS client parameters from a Java-style PKCS#12
// keystore, the format platform deployments typically ship alongside their
// signature and encryption property files.
type PKCS12Provider struct {
	// Path is the .p12/.pfx keystore file.
	Path string

	// Password protects the keystore.
	Password string

	// TrustFile is an optional PEM bundle of trusted CA certificates. When
	// empty, CA certificates bundled in the keystore are trusted; if there
	// are none, the system trust store is used.
	TrustFile string

	// MinVersion overrides the minimum accepted TLS version.
	// Defaults to TLS 1.2.
	MinVersion uint16
}

func (p *PKCS12Provider) TLSClientConfig() (*tls.Config, error) {
	data, err := os.ReadFile(p.Path)
	if err != nil {
		return nil, fmt.Errorf("could not read keystore: %w", err)
	}

	blocks, err := pkcs12.ToPEM(data, p.Password)
	if err != nil {
		return nil, fmt.Errorf("could not decode keystore %s: %w", p.Path, err)
	}

	minVersion := p.MinVersion
	if minVersion == 0 {
		minVersion = tls.VersionTLS12
	}
	cfg := &tls.Config{MinVersion: minVersion}

	// The first certificate block is the client identity, any further
	// certificates are its chain or bundled CAs.
	var certPEM, keyPEM []byte
	bundled := x509.NewCertPool()
	bundledCount := 0
	for _, block := range blocks {
		encoded := pem.EncodeToMemory(block)
		switch {
		case block.Type == "CERTIFICATE" && certPEM == nil:
			certPEM = encoded
		case block.Type == "CERTIFICATE":
			certPEM = append(certPEM, encoded...)
			if bundled.AppendCertsFromPEM(encoded) {
				bundledCount++
			}
		default:
			keyPEM = append(keyPEM, encoded...)
		}
	}

	if certPEM == nil || keyPEM == nil {
		return nil, fmt.Errorf("keystore %s does not contain a certificate and key", p.Path)
	}

	cert, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return nil, fmt.Errorf("could not assemble key pair from keystore: %w", err)
	}
	cfg.Certificates = []tls.Certificate{cert}

	switch {
	case p.TrustFile != "":
		trustPool, err := loadTrustPool(p.TrustFile)
		if err != nil {
			return nil, err
		}
		cfg.RootCAs = trustPool
	case bundledCount > 0:
		cfg.RootCAs = bundled
	}

	return cfg, nil
}

package tlssettings

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTestKeyPair generates a self-signed cert and key and writes them as
// PEM files, returning their paths.
func writeTestKeyPair(t *testing.T, dir string) (certPath, keyPath string) {
	t.Helper()

	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	template := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "client.example.org"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
	}
	certDER, err := x509.CreateCertificate(rand.Reader, template, template, privateKey.Public(), privateKey)
	require.NoError(t, err)

	keyDER, err := x509.MarshalPKCS8PrivateKey(privateKey)
	require.NoError(t, err)

	certPath = filepath.Join(dir, "client.crt")
	keyPath = filepath.Join(dir, "client.key")
	require.NoError(t, os.WriteFile(certPath, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: certDER}), 0644))
	require.NoError(t, os.WriteFile(keyPath, pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: keyDER}), 0600))
	return certPath, keyPath
}

func TestStaticProvider(t *testing.T) {
	base := &tls.Config{MinVersion: tls.VersionTLS13}
	provider := &StaticProvider{Config: base}

	cfg, err := provider.TLSClientConfig()
	require.NoError(t, err)
	assert.Equal(t, uint16(tls.VersionTLS13), cfg.MinVersion)

	// Returned config must be a clone: mutating it must not leak back.
	cfg.InsecureSkipVerify = true
	again, err := provider.TLSClientConfig()
	require.NoError(t, err)
	assert.False(t, again.InsecureSkipVerify)
}

func TestStaticProviderNilConfig(t *testing.T) {
	provider := &StaticProvider{}
	_, err := provider.TLSClientConfig()
	assert.Error(t, err)
}

func TestFileProvider(t *testing.T) {
	dir := t.TempDir()
	certPath, keyPath := writeTestKeyPair(t, dir)

	provider := &FileProvider{
		CertFile:  certPath,
		KeyFile:   keyPath,
		TrustFile: certPath,
	}

	cfg, err := provider.TLSClientConfig()
	require.NoError(t, err)
	assert.Len(t, cfg.Certificates, 1)
	assert.NotNil(t, cfg.RootCAs)
	assert.Equal(t, uint16(tls.VersionTLS12), cfg.MinVersion)
}

func TestFileProviderTrustOnly(t *testing.T) {
	dir := t.TempDir()
	certPath, _ := writeTestKeyPair(t, dir)

	provider := &FileProvider{TrustFile: certPath}
	cfg, err := provider.TLSClientConfig()
	require.NoError(t, err)
	assert.Empty(t, cfg.Certificates)
	assert.NotNil(t, cfg.RootCAs)
}

func TestFileProviderMissingKey(t *testing.T) {
	dir := t.TempDir()
	certPath, _ := writeTestKeyPair(t, dir)

	provider := &FileProvider{
		CertFile: certPath,
		KeyFile:  filepath.Join(dir, "missing.key"),
	}
	_, err := provider.TLSClientConfig()
	assert.Error(t, err)
}

func TestFileProviderBadTrustBundle(t *testing.T) {
	dir := t.TempDir()
	trustPath := filepath.Join(dir, "trust.pem")
	require.NoError(t, os.WriteFile(trustPath, []byte("not a certificate"), 0644))

	provider := &FileProvider{TrustFile: trustPath}
	_, err := provider.TLSClientConfig()
	assert.Error(t, err)
}

func TestSelfSignedCert(t *testing.T) {
	cert, err := SelfSignedCert("localhost", "127.0.0.1")
	require.NoError(t, err)
	require.NotEmpty(t, cert.Certificate)

	parsed, err := x509.ParseCertificate(cert.Certificate[0])
	require.NoError(t, err)
	assert.Contains(t, parsed.DNSNames, "localhost")
	require.Len(t, parsed.IPAddresses, 1)
	assert.Equal(t, "127.0.0.1", parsed.IPAddresses[0].String())
}

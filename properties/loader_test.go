package properties

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFileLoader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "signature.properties")
	content := "org.apache.ws.security.crypto.merlin.keystore.file=/etc/keystores/serverKeystore.jks\n" +
		"org.apache.ws.security.crypto.merlin.keystore.password=changeit\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	loader := NewFileLoader(path, discardLogger())
	props, err := loader.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "/etc/keystores/serverKeystore.jks", props.Get("org.apache.ws.security.crypto.merlin.keystore.file"))
	assert.Equal(t, "changeit", props.Get("org.apache.ws.security.crypto.merlin.keystore.password"))
	assert.Equal(t, "file://"+path, loader.LocationURI())
}

func TestFileLoaderMissingFile(t *testing.T) {
	loader := NewFileLoader(filepath.Join(t.TempDir(), "nope.properties"), discardLogger())
	_, err := loader.Load(context.Background())
	assert.Error(t, err)
}

func TestLoaderFactorySchemes(t *testing.T) {
	lf := NewLoaderFactory(discardLogger())

	tests := []struct {
		name     string
		location string
		wantType any
		wantErr  bool
	}{
		{name: "bare path", location: "/etc/sts/signature.properties", wantType: &FileLoader{}},
		{name: "file scheme", location: "file:///etc/sts/signature.properties", wantType: &FileLoader{}},
		{name: "s3 scheme", location: "s3://config-bucket/sts/signature.properties?region=eu-west-1", wantType: &S3Loader{}},
		{name: "vault scheme", location: "vault://vault.example.com:8200/secret/sts-signature", wantType: &VaultLoader{}},
		{name: "unknown scheme", location: "gopher://example.com/props", wantErr: true},
		{name: "s3 without key", location: "s3://config-bucket", wantErr: true},
		{name: "vault without path", location: "vault://vault.example.com:8200/secret", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader, err := lf.LoaderFor(tt.location)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidLocationURI)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.wantType, loader)
		})
	}
}

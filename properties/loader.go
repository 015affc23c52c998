package properties

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
)

// ErrInvalidLocationURI is returned when a property location URI is malformed
// or uses an unsupported scheme.
var ErrInvalidLocationURI = errors.New("invalid property location URI")

// Loader fetches a property bag from one location.
type Loader interface {
	// Load fetches and parses the property bag.
	Load(ctx context.Context) (Properties, error)

	// LocationURI returns the location this loader reads from, for logging.
	LocationURI() string
}

// LoaderFactory creates property loaders from location URIs.
type LoaderFactory struct {
	log *slog.Logger
}

// NewLoaderFactory creates a factory that resolves property locations.
func NewLoaderFactory(logger *slog.Logger) *LoaderFactory {
	return &LoaderFactory{log: logger}
}

// LoaderFor creates a loader for the given location URI. Locations without a
// scheme are treated as local file paths.
func (lf *LoaderFactory) LoaderFor(location string) (Loader, error) {
	if !strings.Contains(location, "://") {
		return NewFileLoader(location, lf.log), nil
	}

	u, err := url.Parse(location)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLocationURI, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "file":
		return lf.createFileLoader(u)
	case "s3":
		return lf.createS3Loader(u)
	case "vault":
		return lf.createVaultLoader(u)
	default:
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidLocationURI, u.Scheme)
	}
}

// Load resolves a loader for the location and fetches the bag in one step.
func (lf *LoaderFactory) Load(ctx context.Context, location string) (Properties, error) {
	loader, err := lf.LoaderFor(location)
	if err != nil {
		return nil, err
	}
	return loader.Load(ctx)
}

// createFileLoader handles file:///absolute/path URIs.
func (lf *LoaderFactory) createFileLoader(u *url.URL) (Loader, error) {
	path := u.Path
	if u.Host != "" {
		path = u.Host + "/" + strings.TrimPrefix(path, "/")
	}
	if path == "" {
		return nil, fmt.Errorf("%w: empty path in file URI %q", ErrInvalidLocationURI, u.String())
	}
	return NewFileLoader(path, lf.log), nil
}

// createS3Loader handles s3://[ACCESS_KEY:SECRET_KEY@]bucket/key?region=us-west-2&endpoint=custom.s3.com URIs.
func (lf *LoaderFactory) createS3Loader(u *url.URL) (Loader, error) {
	bucket := u.Host
	key := strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" {
		return nil, fmt.Errorf("%w: s3 URI needs bucket and key: %q", ErrInvalidLocationURI, u.String())
	}

	query := u.Query()
	region := query.Get("region")
	if region == "" {
		region = "us-east-1"
	}
	endpoint := query.Get("endpoint")

	var accessKey, secretKey string
	if u.User != nil {
		accessKey = u.User.Username()
		secretKey, _ = u.User.Password()
	}

	return NewS3Loader(bucket, key, region, endpoint, accessKey, secretKey, lf.log)
}

// createVaultLoader handles vault://host:port/mount/secret-path?field=content URIs.
func (lf *LoaderFactory) createVaultLoader(u *url.URL) (Loader, error) {
	parts := strings.SplitN(strings.Trim(u.Path, "/"), "/", 2)
	if u.Host == "" || len(parts) != 2 {
		return nil, fmt.Errorf("%w: vault URI needs host, mount and path: %q", ErrInvalidLocationURI, u.String())
	}

	field := u.Query().Get("field")
	if field == "" {
		field = "content"
	}

	scheme := "https"
	if u.Query().Get("insecure") == "true" {
		scheme = "http"
	}

	return NewVaultLoader(scheme+"://"+u.Host, parts[0], parts[1], field, lf.log)
}

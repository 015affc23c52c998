package secureclient

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/perimeterlabs/secureclient/properties"
	"github.com/perimeterlabs/secureclient/tlssettings"
	"github.com/perimeterlabs/secureclient/trustbroker"
)

// Builder validates inputs and constructs factories bound to one endpoint
// and service contract. One builder is created per deployment and shared; it
// holds the TLS settings provider and the trust broker configuration every
// produced factory references read-only.
type Builder struct {
	tlsProvider  tlssettings.Provider
	brokerConfig *trustbroker.Config
	loaders      *properties.LoaderFactory
	log          *slog.Logger
}

// NewBuilder creates a builder. Both the TLS settings provider and the trust
// broker configuration are required; a broker configuration with a blank
// address is valid and means no STS integration is present.
func NewBuilder(tlsProvider tlssettings.Provider, brokerConfig *trustbroker.Config, logger *slog.Logger) (*Builder, error) {
	if tlsProvider == nil || brokerConfig == nil {
		return nil, errors.New("could not access security configurations")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{
		tlsProvider:  tlsProvider,
		brokerConfig: brokerConfig,
		loaders:      properties.NewLoaderFactory(logger),
		log:          logger,
	}, nil
}

// Option adjusts how a factory is built.
type Option func(*buildOptions)

type buildOptions struct {
	username       string
	password       string
	providers      []MessageBodyProvider
	disableCNCheck bool
	transport      http.RoundTripper
	timeout        time.Duration
}

// WithBasicAuth attaches basic-auth credentials to the base transport.
// Credentials are only applied when both username and password are
// non-empty.
func WithBasicAuth(username, password string) Option {
	return func(o *buildOptions) {
		o.username = username
		o.password = password
	}
}

// WithMessageBodyProviders registers payload serializers on produced
// clients.
func WithMessageBodyProviders(providers ...MessageBodyProvider) Option {
	return func(o *buildOptions) {
		o.providers = append(o.providers, providers...)
	}
}

// WithDisableCNCheck disables hostname verification during the TLS
// handshake. Certificate chains are still verified against the trust store.
// Only meaningful on secured factories.
func WithDisableCNCheck() Option {
	return func(o *buildOptions) {
		o.disableCNCheck = true
	}
}

// WithTransport replaces the default transport conduit. Security
// configuration requires the round tripper to be an *http.Transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *buildOptions) {
		o.transport = rt
	}
}

// WithRequestTimeout bounds each request made through produced clients,
// including the trust broker exchange.
func WithRequestTimeout(d time.Duration) Option {
	return func(o *buildOptions) {
		o.timeout = d
	}
}

// BuildFactory constructs a factory bound to the endpoint and contract for
// its entire lifetime. No network I/O happens here.
//
// Endpoints not using https yield an unsecured factory: a warning is logged,
// security configuration is skipped, and the factory will refuse to produce
// secured clients.
func (b *Builder) BuildFactory(endpointURL string, contract *ServiceContract, opts ...Option) (*Factory, error) {
	if endpointURL == "" || contract == nil {
		return nil, fmt.Errorf("%w: called without a valid URL or service contract, will not be able to connect", ErrInvalidArgument)
	}

	var options buildOptions
	for _, opt := range opts {
		opt(&options)
	}

	endpoint, err := url.Parse(endpointURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConstructionFailure, err)
	}
	if endpoint.Scheme == "" || endpoint.Host == "" {
		return nil, fmt.Errorf("%w: endpoint %q has no scheme or host", ErrConstructionFailure, endpointURL)
	}

	transport := options.transport
	if transport == nil {
		transport = http.DefaultTransport.(*http.Transport).Clone()
	}
	conduit, _ := transport.(*http.Transport)

	baseHeader := http.Header{}
	var tlsParams *tls.Config

	secured := strings.HasPrefix(strings.ToLower(endpointURL), "https")
	if !secured {
		b.log.Warn("Cannot secure non-https connection, only unsecured clients will be created",
			slog.String("endpoint", endpointURL))
	} else {
		if conduit == nil {
			return nil, fmt.Errorf("%w: unable to configure security for %s", ErrTransportUnavailable, endpointURL)
		}

		if options.username != "" && options.password != "" {
			baseHeader.Set("Authorization", basicAuth(options.username, options.password))
		}

		tlsParams, err = b.tlsProvider.TLSClientConfig()
		if err != nil {
			return nil, fmt.Errorf("could not obtain TLS parameters: %w", err)
		}
		conduit.TLSClientConfig = tlsParams
	}

	if options.disableCNCheck {
		if tlsParams == nil {
			return nil, fmt.Errorf("%w: unable to disable CN check for %s", ErrTransportUnavailable, endpointURL)
		}
		disableHostnameVerification(tlsParams)
	}

	return &Factory{
		endpoint:     endpoint,
		endpointURL:  endpointURL,
		contract:     contract,
		secured:      secured,
		conduit:      conduit,
		transport:    transport,
		baseHeader:   baseHeader,
		providers:    options.providers,
		timeout:      options.timeout,
		brokerConfig: b.brokerConfig,
		tlsProvider:  b.tlsProvider,
		loaders:      b.loaders,
		log:          b.log,
	}, nil
}

func basicAuth(username, password string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(username+":"+password))
}

// disableHostnameVerification keeps chain verification against the
// configured roots while skipping the hostname match.
func disableHostnameVerification(cfg *tls.Config) {
	roots := cfg.RootCAs
	cfg.InsecureSkipVerify = true
	cfg.VerifyPeerCertificate = func(rawCerts [][]byte, _ [][]*x509.Certificate) error {
		if len(rawCerts) == 0 {
			return errors.New("no peer certificates presented")
		}

		certs := make([]*x509.Certificate, 0, len(rawCerts))
		for _, raw := range rawCerts {
			cert, err := x509.ParseCertificate(raw)
			if err != nil {
				return fmt.Errorf("could not parse peer certificate: %w", err)
			}
			certs = append(certs, cert)
		}

		opts := x509.VerifyOptions{
			Roots:         roots,
			Intermediates: x509.NewCertPool(),
		}
		for _, cert := range certs[1:] {
			opts.Intermediates.AddCert(cert)
		}

		_, err := certs[0].Verify(opts)
		return err
	}
}

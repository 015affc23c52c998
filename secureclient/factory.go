package secureclient

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"github.com/perimeterlabs/secureclient/metrics"
	"github.com/perimeterlabs/secureclient/properties"
	"github.com/perimeterlabs/secureclient/restsecurity"
	"github.com/perimeterlabs/secureclient/tlssettings"
	"github.com/perimeterlabs/secureclient/trustbroker"
)

// Factory produces one disposable secured client per call, bound to exactly
// one endpoint URL and service contract for its entire lifetime. The base
// configuration it holds is never used for real calls and never mutated
// after construction, so concurrent callers may share a factory freely.
type Factory struct {
	endpoint     *url.URL
	endpointURL  string
	contract     *ServiceContract
	secured      bool
	conduit      *http.Transport
	transport    http.RoundTripper
	baseHeader   http.Header
	providers    []MessageBodyProvider
	timeout      time.Duration
	brokerConfig *trustbroker.Config
	tlsProvider  tlssettings.Provider
	loaders      *properties.LoaderFactory
	log          *slog.Logger
}

// Endpoint returns a copy of the endpoint URL the factory is bound to.
func (f *Factory) Endpoint() *url.URL {
	u := *f.endpoint
	return &u
}

// Contract returns the service contract the factory is bound to.
func (f *Factory) Contract() *ServiceContract {
	return f.contract
}

// Secured reports whether the factory can produce secured clients.
func (f *Factory) Secured() bool {
	return f.secured
}

// ClientForSubject produces a fresh client carrying the given subject's
// credential material. The subject must be the recognized platform subject
// kind; it already carries proof of authentication, so no token exchange
// happens on this path.
//
// The returned client must not be reused between logical requests: call this
// method again for each new request so the security context stays current.
func (f *Factory) ClientForSubject(subject Subject) (*Client, error) {
	if !f.secured {
		return nil, fmt.Errorf("%w: %s", ErrInsecureTransport, f.endpointURL)
	}

	platformSubject, ok := subject.(*PlatformSubject)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedSubjectType, subject)
	}

	client, _ := f.newClient()

	cookie, err := restsecurity.SessionCookie(platformSubject.Assertion)
	if err != nil {
		return nil, fmt.Errorf("could not bind subject %s onto client: %w", platformSubject.Principal(), err)
	}
	client.AddCookie(cookie)

	metrics.ClientsIssued.WithLabelValues("subject").Inc()
	return client, nil
}

// ClientForSystem produces a fresh client carrying the system identity. A
// trust broker client is configured on the clone's transport bus and a
// security token is requested synchronously; the call blocks for the
// duration of the exchange and is bounded only by ctx and the transport's
// timeouts. Every call performs a fresh exchange; tokens are never cached.
func (f *Factory) ClientForSystem(ctx context.Context) (*Client, error) {
	if !f.secured {
		return nil, fmt.Errorf("%w: %s", ErrInsecureTransport, f.endpointURL)
	}

	if !f.brokerConfig.Configured() {
		return nil, fmt.Errorf("%w: trust broker address is blank, no assertion will be generated", ErrTrustBrokerNotConfigured)
	}

	client, bus := f.newClient()

	broker, err := trustbroker.Configure(ctx, bus, f.brokerConfig, f.tlsProvider, f.loaders, f.log)
	if err != nil {
		return nil, err
	}

	token, err := broker.RequestSecurityToken(ctx, f.brokerConfig.Address)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenExchangeFailure, err)
	}
	if len(token.Assertion) == 0 {
		return nil, fmt.Errorf("%w: could not add token to request", ErrEmptyToken)
	}

	cookie, err := restsecurity.SessionCookie(token.Assertion)
	if err != nil {
		return nil, fmt.Errorf("could not encode assertion into session cookie: %w", err)
	}

	client.Reset()
	client.AddCookie(cookie)

	metrics.ClientsIssued.WithLabelValues("system").Inc()
	return client, nil
}

// newClient stamps out a fresh client from the immutable base
// configuration. The conduit is cloned so per-call security material never
// leaks between clients; the clone's conduit is returned as the transport
// bus for the trust broker path.
func (f *Factory) newClient() (*Client, *http.Transport) {
	var rt http.RoundTripper
	var bus *http.Transport
	if f.conduit != nil {
		bus = f.conduit.Clone()
		rt = bus
	} else {
		rt = f.transport
	}

	// Session affinity: responses may set cookies that later requests
	// through the same client must carry.
	jar, _ := cookiejar.New(nil)

	providers := make([]MessageBodyProvider, len(f.providers))
	copy(providers, f.providers)

	endpoint := *f.endpoint

	return &Client{
		endpoint: &endpoint,
		contract: f.contract,
		httpClient: &http.Client{
			Transport: &tracingRoundTripper{next: rt, log: f.log},
			Jar:       jar,
			Timeout:   f.timeout,
		},
		header:     f.baseHeader.Clone(),
		baseHeader: f.baseHeader.Clone(),
		providers:  providers,
	}, bus
}

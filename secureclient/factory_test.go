package secureclient

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perimeterlabs/secureclient/restsecurity"
	"github.com/perimeterlabs/secureclient/stsserver"
	"github.com/perimeterlabs/secureclient/tlssettings"
	"github.com/perimeterlabs/secureclient/trustbroker"
)

func tlsSettingsForPool(pool *x509.CertPool) *tlssettings.StaticProvider {
	return &tlssettings.StaticProvider{Config: &tls.Config{RootCAs: pool, MinVersion: tls.VersionTLS12}}
}

func getSecuredFactory(t *testing.T, builder *Builder) *Factory {
	t.Helper()
	factory, err := builder.BuildFactory("https://svc.example/api", &ServiceContract{Name: "CatalogService"})
	require.NoError(t, err)
	return factory
}

func TestClientForSubject(t *testing.T) {
	factory := getSecuredFactory(t, getTestBuilder(t))
	assertion := []byte(`<saml2:Assertion ID="_1">subject</saml2:Assertion>`)

	client, err := factory.ClientForSubject(&PlatformSubject{Name: "alice", Assertion: assertion})
	require.NoError(t, err)

	cookies := client.Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, restsecurity.AssertionCookieName, cookies[0].Name)

	decoded, err := restsecurity.DecodeAssertion(cookies[0].Value)
	require.NoError(t, err)
	assert.Equal(t, assertion, decoded)
}

func TestClientForSubjectRejectsUnsupportedKinds(t *testing.T) {
	factory := getSecuredFactory(t, getTestBuilder(t))

	_, err := factory.ClientForSubject(&GuestSubject{})
	require.ErrorIs(t, err, ErrUnsupportedSubjectType)

	_, err = factory.ClientForSubject(nil)
	require.ErrorIs(t, err, ErrUnsupportedSubjectType)
}

func TestUnsecuredFactoryRefusesBothPaths(t *testing.T) {
	builder := getTestBuilder(t)
	factory, err := builder.BuildFactory("http://svc.example/api", &ServiceContract{Name: "CatalogService"})
	require.NoError(t, err)

	subject := &PlatformSubject{Name: "alice", Assertion: []byte("<a/>")}

	// Refusal is stable across repeated calls.
	for i := 0; i < 2; i++ {
		_, err = factory.ClientForSubject(subject)
		require.ErrorIs(t, err, ErrInsecureTransport)

		_, err = factory.ClientForSystem(context.Background())
		require.ErrorIs(t, err, ErrInsecureTransport)
	}
}

func TestClientsAreIsolated(t *testing.T) {
	factory := getSecuredFactory(t, getTestBuilder(t))
	subject := &PlatformSubject{Name: "alice", Assertion: []byte("<a/>")}

	first, err := factory.ClientForSubject(subject)
	require.NoError(t, err)
	second, err := factory.ClientForSubject(subject)
	require.NoError(t, err)
	require.NotSame(t, first, second)

	first.AddCookie(&http.Cookie{Name: "extra", Value: "1"})
	first.Header().Set("X-Request-ID", "abc")

	assert.Len(t, second.Cookies(), 1)
	assert.Empty(t, second.Header().Get("X-Request-ID"))
}

func TestClientForSystemRequiresBrokerAddress(t *testing.T) {
	factory := getSecuredFactory(t, getTestBuilder(t))

	_, err := factory.ClientForSystem(context.Background())
	require.ErrorIs(t, err, ErrTrustBrokerNotConfigured)
}

func startTokenService(t *testing.T, cfg *stsserver.HandlerConfig) (*httptest.Server, *Builder) {
	t.Helper()
	cfg.Log = getTestLogger()
	handler := stsserver.NewHandler(cfg)

	mux := http.NewServeMux()
	mux.HandleFunc(stsserver.TokenServicePath, handler.HandleIssue)
	srv := httptest.NewTLSServer(mux)
	t.Cleanup(srv.Close)

	pool := x509.NewCertPool()
	pool.AddCert(srv.Certificate())

	builder, err := NewBuilder(
		tlsSettingsForPool(pool),
		&trustbroker.Config{
			Address:       srv.URL + stsserver.TokenServicePath,
			ServiceName:   "SecurityTokenService",
			EndpointName:  "STS_Port",
			AssertionType: "http://docs.oasis-open.org/wss/oasis-wss-saml-token-profile-1.1#SAMLV2.0",
			KeyType:       "http://docs.oasis-open.org/ws-sx/ws-trust/200512/PublicKey",
			KeySize:       "256",
		},
		getTestLogger(),
	)
	require.NoError(t, err)
	return srv, builder
}

func TestClientForSystem(t *testing.T) {
	srv, builder := startTokenService(t, &stsserver.HandlerConfig{Issuer: "test-sts", SubjectName: "system"})
	factory := getSecuredFactory(t, builder)

	client, err := factory.ClientForSystem(context.Background())
	require.NoError(t, err)

	cookies := client.Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, restsecurity.AssertionCookieName, cookies[0].Name)

	decoded, err := restsecurity.DecodeAssertion(cookies[0].Value)
	require.NoError(t, err)
	assert.Contains(t, string(decoded), "saml2:Assertion")
	assert.Contains(t, string(decoded), "<saml2:NameID>system</saml2:NameID>")
	assert.Contains(t, string(decoded), srv.URL)
}

func TestClientForSystemEmptyToken(t *testing.T) {
	_, builder := startTokenService(t, &stsserver.HandlerConfig{OmitAssertion: true})
	factory := getSecuredFactory(t, builder)

	_, err := factory.ClientForSystem(context.Background())
	require.ErrorIs(t, err, ErrEmptyToken)
}

func TestClientForSystemExchangeFailure(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "broker offline", http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	pool := x509.NewCertPool()
	pool.AddCert(srv.Certificate())

	builder, err := NewBuilder(
		tlsSettingsForPool(pool),
		&trustbroker.Config{Address: srv.URL, KeySize: "256"},
		getTestLogger(),
	)
	require.NoError(t, err)
	factory := getSecuredFactory(t, builder)

	_, err = factory.ClientForSystem(context.Background())
	require.ErrorIs(t, err, ErrTokenExchangeFailure)
}

func TestClientForSystemInvalidKeySize(t *testing.T) {
	builder, err := NewBuilder(
		tlsSettingsForPool(x509.NewCertPool()),
		&trustbroker.Config{Address: "https://sts.example/sts", KeySize: "not-a-number"},
		getTestLogger(),
	)
	require.NoError(t, err)
	factory := getSecuredFactory(t, builder)

	_, err = factory.ClientForSystem(context.Background())
	require.ErrorIs(t, err, trustbroker.ErrInvalidConfiguration)
}

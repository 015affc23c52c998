package trustbroker

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/perimeterlabs/secureclient/metrics"
	"github.com/perimeterlabs/secureclient/properties"
	"github.com/perimeterlabs/secureclient/tlssettings"
)

// SecurityToken is the signed assertion returned by the trust broker. The
// assertion is opaque XML; it is consumed exactly once by encoding it into a
// session cookie, and never cached or reused across calls.
type SecurityToken struct {
	// TokenType is the token type URI the broker reported, if any.
	TokenType string

	// Assertion is the raw assertion element. Empty when the exchange
	// succeeded but produced no usable credential.
	Assertion []byte
}

// Client is a configured trust broker client bound to one transport bus. No
// network interaction happens until RequestSecurityToken is called.
type Client struct {
	address             string
	serviceName         string
	endpointName        string
	addressingNamespace string
	tokenType           string
	keyType             string
	keySize             int
	properties          map[string]any
	httpClient          *http.Client
	log                 *slog.Logger
}

// Configure builds a trust broker client from the shared broker
// configuration, bound to the given transport bus.
//
// Up to three property bags (signature, encryption, token) are loaded from
// the locations in cfg, skipping blank locations, and attached under their
// protocol property keys. When the broker address is https, TLS parameters
// from the provider are attached to the broker's own conduit; a bus that
// exposes no conduit is logged and left as-is rather than failing, since the
// exchange may still succeed at the transport layer.
func Configure(ctx context.Context, bus http.RoundTripper, cfg *Config, tlsProvider tlssettings.Provider, loaders *properties.LoaderFactory, log *slog.Logger) (*Client, error) {
	keySize, err := strconv.Atoi(strings.TrimSpace(cfg.KeySize))
	if err != nil {
		return nil, fmt.Errorf("%w: key size %q is not numeric", ErrInvalidConfiguration, cfg.KeySize)
	}

	client := &Client{
		address:             cfg.Address,
		serviceName:         cfg.ServiceName,
		endpointName:        cfg.EndpointName,
		addressingNamespace: AddressingNamespace,
		tokenType:           cfg.AssertionType,
		keyType:             cfg.KeyType,
		keySize:             keySize,
		properties:          map[string]any{},
		log:                 log,
	}

	log.Debug("Configuring trust broker client",
		slog.String("address", cfg.Address),
		slog.String("serviceName", cfg.ServiceName),
		slog.String("endpointName", cfg.EndpointName),
		slog.String("addressingNamespace", AddressingNamespace))

	for key, location := range map[string]string{
		SignaturePropertiesKey:  cfg.SignatureProperties,
		EncryptionPropertiesKey: cfg.EncryptionProperties,
		TokenPropertiesKey:      cfg.TokenProperties,
	} {
		if strings.TrimSpace(location) == "" {
			continue
		}
		props, err := loaders.Load(ctx, location)
		if err != nil {
			return nil, fmt.Errorf("could not load %s from %s: %w", key, location, err)
		}
		log.Debug("Attaching broker properties", slog.String("key", key), slog.String("location", location))
		client.properties[key] = props
	}

	// Protocol compliance: the certificate is always used for key info.
	client.properties[UseCertForKeyInfoKey] = "true"

	conduit := bus
	if strings.HasPrefix(strings.ToLower(cfg.Address), "https") {
		transport, ok := bus.(*http.Transport)
		if !ok || transport == nil {
			// Unlike the main client path, a missing conduit here is not
			// fatal: the exchange proceeds and may fail at the transport
			// layer instead.
			log.Info("Transport conduit unavailable for trust broker client, keystores not configured",
				slog.String("address", cfg.Address))
		} else {
			tlsParams, err := tlsProvider.TLSClientConfig()
			if err != nil {
				return nil, fmt.Errorf("could not obtain TLS parameters for trust broker client: %w", err)
			}
			brokerTransport := transport.Clone()
			brokerTransport.TLSClientConfig = tlsParams
			conduit = brokerTransport
		}
	}

	client.httpClient = &http.Client{Transport: conduit}
	return client, nil
}

// Properties returns the protocol properties attached to the client.
func (c *Client) Properties() map[string]any {
	return c.properties
}

// Address returns the broker endpoint this client talks to.
func (c *Client) Address() string {
	return c.address
}

// RequestSecurityToken performs one synchronous RST/Issue round trip against
// the broker, requesting a token scoped to appliesTo. The call blocks for
// the duration of the exchange; deadlines and cancellation come from ctx.
// Nothing is retried.
func (c *Client) RequestSecurityToken(ctx context.Context, appliesTo string) (*SecurityToken, error) {
	messageID := uuid.NewString()
	requestContext := uuid.NewString()
	envelope := c.issueRequest(messageID, requestContext, appliesTo)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.address, bytes.NewReader(envelope))
	if err != nil {
		metrics.TokenExchanges.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("could not build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/soap+xml; charset=utf-8")

	c.log.Debug("Requesting security token",
		slog.String("address", c.address),
		slog.String("appliesTo", appliesTo),
		slog.String("messageID", messageID))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.TokenExchanges.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("could not reach trust broker: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.TokenExchanges.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("could not read trust broker response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		metrics.TokenExchanges.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("trust broker returned %d: %s", resp.StatusCode, truncate(body, 512))
	}

	token, err := parseTokenResponse(body)
	if err != nil {
		metrics.TokenExchanges.WithLabelValues("error").Inc()
		return nil, err
	}

	metrics.TokenExchanges.WithLabelValues("ok").Inc()
	return token, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

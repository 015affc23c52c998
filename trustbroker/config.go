package trustbroker

import (
	"errors"
	"strings"
)

// Protocol-defined property keys under which the loaded property bags are
// attached to the broker client.
const (
	// SignaturePropertiesKey holds the signature crypto properties.
	SignaturePropertiesKey = "ws-security.signature.properties"

	// EncryptionPropertiesKey holds the encryption crypto properties.
	EncryptionPropertiesKey = "ws-security.encryption.properties"

	// TokenPropertiesKey holds the STS token crypto properties.
	TokenPropertiesKey = "ws-security.sts.token.properties"

	// UseCertForKeyInfoKey requests that the certificate be used for key
	// info. The protocol requires this to always be set to "true".
	UseCertForKeyInfoKey = "ws-security.sts.token.usecert"
)

// AddressingNamespace is the WS-Addressing namespace used when talking to
// the security token service. It is a protocol-level constant, not
// user-configurable.
const AddressingNamespace = "http://www.w3.org/2005/08/addressing"

// ErrInvalidConfiguration is returned when the broker configuration holds a
// malformed value, such as a non-numeric key size.
var ErrInvalidConfiguration = errors.New("invalid trust broker configuration")

// Config describes the security token service a deployment trades
// credentials with. It is built once at startup and shared read-only by
// every factory the deployment creates.
type Config struct {
	// Address is the STS endpoint. Blank means no STS is configured, which
	// is a valid deployment state.
	Address string

	// ServiceName and EndpointName identify the STS service and port.
	ServiceName  string
	EndpointName string

	// SignatureProperties, EncryptionProperties and TokenProperties are
	// property bag locations (see package properties). Blank locations are
	// skipped.
	SignatureProperties  string
	EncryptionProperties string
	TokenProperties      string

	// AssertionType is the requested token type URI.
	AssertionType string

	// KeyType is the requested key type URI.
	KeyType string

	// KeySize is the requested key size in bits, kept as the string it was
	// configured with and validated when the broker client is configured.
	KeySize string
}

// Configured reports whether an STS address is present.
func (c *Config) Configured() bool {
	return c != nil && strings.TrimSpace(c.Address) != ""
}

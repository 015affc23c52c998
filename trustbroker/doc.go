// Package trustbroker exchanges identity material for signed security
// assertions with a WS-Trust security token service (STS).
//
// A Client is configured from a shared, immutable Config and bound to the
// transport bus of the client that will ultimately carry the minted token.
// Configuration attaches the signature, encryption, and token property bags
// and the broker's own TLS parameters; no network interaction happens until
// RequestSecurityToken is called.
//
// The exchange itself is a single synchronous SOAP 1.2 round trip: an
// RST/Issue request addressed with WS-Addressing, answered by an RSTR
// carrying the assertion. The assertion is treated as opaque XML; this
// package performs none of the SAML or WS-Security cryptography itself.
package trustbroker

package secureclient

import "errors"

// Failure values surfaced by the builder and factory. All are reported
// synchronously; nothing is retried internally and no partial client is ever
// returned alongside an error.
var (
	// ErrInvalidArgument reports bad construction input, such as an empty
	// endpoint URL or a nil service contract.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrConstructionFailure reports that the underlying base client could
	// not be created.
	ErrConstructionFailure = errors.New("could not construct base client")

	// ErrInsecureTransport reports an attempt to secure a client for a
	// non-https endpoint.
	ErrInsecureTransport = errors.New("cannot secure non-https connection")

	// ErrTransportUnavailable reports that the expected transport conduit
	// is missing. This is a contract violation of the transport stack or a
	// caller-usage error, not a normal runtime condition.
	ErrTransportUnavailable = errors.New("transport conduit unavailable")

	// ErrUnsupportedSubjectType reports a subject that is not the
	// recognized platform subject kind.
	ErrUnsupportedSubjectType = errors.New("unsupported subject type")

	// ErrTrustBrokerNotConfigured reports that no STS address is set. This
	// is a valid deployment state, distinguished from exchange failures.
	ErrTrustBrokerNotConfigured = errors.New("no trust broker configured")

	// ErrTokenExchangeFailure reports a transport or protocol failure
	// during the security token exchange; it wraps the underlying cause.
	ErrTokenExchangeFailure = errors.New("could not obtain security token")

	// ErrEmptyToken reports that the token exchange succeeded but produced
	// no usable assertion.
	ErrEmptyToken = errors.New("trust broker returned an empty token")
)

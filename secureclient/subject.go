package secureclient

// Subject is an externally-authenticated identity to be propagated onto
// outgoing requests. The set of subject kinds is closed: only the platform
// subject carries credential material a factory can bind to a client, and
// any other kind is rejected at the boundary.
type Subject interface {
	// Principal names the authenticated identity, for logging.
	Principal() string

	sealedSubject()
}

// PlatformSubject is an identity authenticated by the platform, carrying the
// signed assertion that proves it. This is the only subject kind accepted by
// Factory.ClientForSubject.
type PlatformSubject struct {
	// Name is the principal name.
	Name string

	// Assertion is the signed assertion XML issued when the subject
	// authenticated.
	Assertion []byte
}

func (s *PlatformSubject) Principal() string { return s.Name }

func (*PlatformSubject) sealedSubject() {}

// GuestSubject is an unauthenticated visitor identity. It carries no
// credential material and cannot be bound to a secured client.
type GuestSubject struct{}

func (GuestSubject) Principal() string { return "guest" }

func (GuestSubject) sealedSubject() {}

// Package secureclient builds outbound REST clients that are transparently
// secured for a service-oriented deployment.
//
// A Builder is constructed once with the deployment's TLS settings provider
// and trust broker configuration, and produces factories bound to one
// endpoint and service contract:
//
//	builder, err := secureclient.NewBuilder(tlsProvider, brokerConfig, logger)
//	factory, err := builder.BuildFactory("https://svc.example/api",
//		&secureclient.ServiceContract{Name: "CatalogService"},
//		secureclient.WithBasicAuth("system", "secret"))
//
// Each call to the factory returns a fresh disposable client whose security
// context is call-specific:
//
//	client, err := factory.ClientForSubject(subject)  // propagate a caller identity
//	client, err := factory.ClientForSystem(ctx)       // mint a system identity via the STS
//
// ClientForSubject binds an already-authenticated platform subject's
// assertion onto the clone; ClientForSystem drives a synchronous WS-Trust
// exchange (see package trustbroker) and attaches the minted assertion as a
// session cookie. Returned clients must not be reused between logical
// requests or shared across concurrent calls.
//
// Endpoints not using https yield unsecured factories: building succeeds
// with a warning, but both per-call operations refuse to attach security.
package secureclient

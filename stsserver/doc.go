// Package stsserver implements a WS-Trust security token service stub.
//
// The stub answers RST/Issue requests with unsigned, test-grade SAML 2.0
// assertions. It exists so deployments and integration tests can exercise
// the full system-identity flow of package secureclient without standing up
// a production token service. The Server wraps the handler with health and
// drain endpoints, Prometheus metrics, and optional pprof diagnostics.
package stsserver

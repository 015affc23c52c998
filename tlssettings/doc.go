// Package tlssettings supplies TLS client parameters for secured outbound
// connections.
//
// The Provider interface abstracts where keystore and truststore material
// comes from. Included implementations:
//
//   - StaticProvider: an in-memory config, mostly for tests and embedding
//   - FileProvider: PEM keystore/truststore files on local disk
//   - PKCS12Provider: a Java-style .p12/.pfx keystore
//   - VaultProvider: PEM material stored in a HashiCorp Vault KV v2 secret
//
// Every call to TLSClientConfig returns a fresh *tls.Config, so a caller may
// mutate verification policy (for example disabling hostname checks) without
// affecting other consumers of the same provider.
package tlssettings

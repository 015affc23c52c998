// Package flags holds the CLI flags and setup helpers shared by the
// command-line tools.
package flags

import (
	"log/slog"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/perimeterlabs/secureclient/common"
	"github.com/perimeterlabs/secureclient/tlssettings"
	"github.com/perimeterlabs/secureclient/trustbroker"
)

var LogJSONFlag = &cli.BoolFlag{
	Name:  "log-json",
	Value: false,
	Usage: "log in JSON format",
}
var LogDebugFlag = &cli.BoolFlag{
	Name:  "log-debug",
	Value: false,
	Usage: "log debug messages",
}
var LogUIDFlag = &cli.BoolFlag{
	Name:  "log-uid",
	Value: false,
	Usage: "generate a uuid and add to all log messages",
}
var LogServiceFlag = &cli.StringFlag{
	Name:  "log-service",
	Value: common.PackageName,
	Usage: "add 'service' tag to logs",
}

// LoggingFlags are the flags every command takes for logger setup.
var LoggingFlags = []cli.Flag{LogJSONFlag, LogDebugFlag, LogUIDFlag, LogServiceFlag}

var TLSCertFlag = &cli.StringFlag{
	Name:  "tls-cert",
	Usage: "PEM file with the client certificate chain",
}
var TLSKeyFlag = &cli.StringFlag{
	Name:  "tls-key",
	Usage: "PEM file with the private key for tls-cert",
}
var TLSTrustFlag = &cli.StringFlag{
	Name:  "tls-trust",
	Usage: "PEM bundle of trusted CA certificates (system trust store if unset)",
}
var TLSPKCS12Flag = &cli.StringFlag{
	Name:  "tls-pkcs12",
	Usage: "PKCS#12 keystore with the client identity (takes precedence over tls-cert/tls-key)",
}
var TLSPKCS12PasswordFlag = &cli.StringFlag{
	Name:    "tls-pkcs12-password",
	Usage:   "password for the PKCS#12 keystore",
	EnvVars: []string{"TLS_PKCS12_PASSWORD"},
}

// TLSFlags are the flags for building a TLS settings provider.
var TLSFlags = []cli.Flag{TLSCertFlag, TLSKeyFlag, TLSTrustFlag, TLSPKCS12Flag, TLSPKCS12PasswordFlag}

var STSAddressFlag = &cli.StringFlag{
	Name:  "sts-address",
	Usage: "security token service endpoint (blank means no STS is configured)",
}
var STSServiceNameFlag = &cli.StringFlag{
	Name:  "sts-service-name",
	Value: "SecurityTokenService",
	Usage: "STS service name",
}
var STSEndpointNameFlag = &cli.StringFlag{
	Name:  "sts-endpoint-name",
	Value: "STS_Port",
	Usage: "STS endpoint name",
}
var SignaturePropertiesFlag = &cli.StringFlag{
	Name:  "signature-properties",
	Usage: "location of the signature crypto property bag (path, file://, s3:// or vault://)",
}
var EncryptionPropertiesFlag = &cli.StringFlag{
	Name:  "encryption-properties",
	Usage: "location of the encryption crypto property bag",
}
var TokenPropertiesFlag = &cli.StringFlag{
	Name:  "token-properties",
	Usage: "location of the STS token crypto property bag",
}
var AssertionTypeFlag = &cli.StringFlag{
	Name:  "assertion-type",
	Value: "http://docs.oasis-open.org/wss/oasis-wss-saml-token-profile-1.1#SAMLV2.0",
	Usage: "requested token type URI",
}
var KeyTypeFlag = &cli.StringFlag{
	Name:  "key-type",
	Value: "http://docs.oasis-open.org/ws-sx/ws-trust/200512/PublicKey",
	Usage: "requested key type URI",
}
var KeySizeFlag = &cli.StringFlag{
	Name:  "key-size",
	Value: "256",
	Usage: "requested key size in bits",
}

// BrokerFlags are the flags for the trust broker configuration.
var BrokerFlags = []cli.Flag{
	STSAddressFlag, STSServiceNameFlag, STSEndpointNameFlag,
	SignaturePropertiesFlag, EncryptionPropertiesFlag, TokenPropertiesFlag,
	AssertionTypeFlag, KeyTypeFlag, KeySizeFlag,
}

// SetupLogger builds the process logger from the logging flags.
func SetupLogger(cCtx *cli.Context) *slog.Logger {
	logger := common.SetupLogger(&common.LoggingOpts{
		Debug:   cCtx.Bool(LogDebugFlag.Name),
		JSON:    cCtx.Bool(LogJSONFlag.Name),
		Service: cCtx.String(LogServiceFlag.Name),
		Version: common.Version,
	})

	if cCtx.Bool(LogUIDFlag.Name) {
		id := uuid.Must(uuid.NewRandom())
		logger = logger.With("uid", id.String())
	}
	return logger
}

// TLSProvider builds the TLS settings provider from the TLS flags. A PKCS#12
// keystore wins over separate PEM files.
func TLSProvider(cCtx *cli.Context) tlssettings.Provider {
	if path := cCtx.String(TLSPKCS12Flag.Name); path != "" {
		return &tlssettings.PKCS12Provider{
			Path:      path,
			Password:  cCtx.String(TLSPKCS12PasswordFlag.Name),
			TrustFile: cCtx.String(TLSTrustFlag.Name),
		}
	}
	return &tlssettings.FileProvider{
		CertFile:  cCtx.String(TLSCertFlag.Name),
		KeyFile:   cCtx.String(TLSKeyFlag.Name),
		TrustFile: cCtx.String(TLSTrustFlag.Name),
	}
}

// BrokerConfig builds the trust broker configuration from the broker flags.
func BrokerConfig(cCtx *cli.Context) *trustbroker.Config {
	return &trustbroker.Config{
		Address:              cCtx.String(STSAddressFlag.Name),
		ServiceName:          cCtx.String(STSServiceNameFlag.Name),
		EndpointName:         cCtx.String(STSEndpointNameFlag.Name),
		SignatureProperties:  cCtx.String(SignaturePropertiesFlag.Name),
		EncryptionProperties: cCtx.String(EncryptionPropertiesFlag.Name),
		TokenProperties:      cCtx.String(TokenPropertiesFlag.Name),
		AssertionType:        cCtx.String(AssertionTypeFlag.Name),
		KeyType:              cCtx.String(KeyTypeFlag.Name),
		KeySize:              cCtx.String(KeySizeFlag.Name),
	}
}

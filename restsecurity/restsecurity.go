// Package restsecurity handles the session artifact carried by secured REST
// clients: a signed assertion, DEFLATE-compressed and base64-encoded into a
// cookie consumed by downstream servers.
package restsecurity

import (
	"bytes"
	"compress/flate"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// AssertionCookieName is the well-known cookie the platform uses to carry a
// security assertion between services.
const AssertionCookieName = "org.codice.websso.saml.token"

// ErrEmptyAssertion is returned when an empty assertion is offered for encoding.
var ErrEmptyAssertion = errors.New("assertion is empty")

// EncodeAssertion compresses the assertion XML with raw DEFLATE and encodes
// the result with standard base64, producing a cookie-safe value.
func EncodeAssertion(assertion []byte) (string, error) {
	if len(bytes.TrimSpace(assertion)) == 0 {
		return "", ErrEmptyAssertion
	}

	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.DefaultCompression)
	if err != nil {
		return "", fmt.Errorf("could not initialize deflate writer: %w", err)
	}
	if _, err := w.Write(assertion); err != nil {
		return "", fmt.Errorf("could not compress assertion: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("could not finalize compressed assertion: %w", err)
	}

	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// DecodeAssertion reverses EncodeAssertion, recovering the original
// assertion XML from a cookie value.
func DecodeAssertion(value string) ([]byte, error) {
	compressed, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("could not base64-decode assertion: %w", err)
	}

	r := flate.NewReader(bytes.NewReader(compressed))
	defer r.Close()

	assertion, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("could not decompress assertion: %w", err)
	}
	return assertion, nil
}

// SessionCookie encodes the assertion into the platform session cookie.
func SessionCookie(assertion []byte) (*http.Cookie, error) {
	encoded, err := EncodeAssertion(assertion)
	if err != nil {
		return nil, err
	}

	return &http.Cookie{
		Name:  AssertionCookieName,
		Value: encoded,
		Path:  "/",
	}, nil
}

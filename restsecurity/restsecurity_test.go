package restsecurity

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		name      string
		assertion string
	}{
		{
			name:      "small assertion",
			assertion: `<saml2:Assertion ID="_1234"><saml2:Subject>system</saml2:Subject></saml2:Assertion>`,
		},
		{
			name:      "assertion with unicode",
			assertion: `<saml2:Assertion ID="_äöü"><saml2:Subject>sÿstem</saml2:Subject></saml2:Assertion>`,
		},
		{
			name:      "large repetitive assertion",
			assertion: `<saml2:Assertion>` + strings.Repeat("<x>attr</x>", 5000) + `</saml2:Assertion>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded, err := EncodeAssertion([]byte(tt.assertion))
			require.NoError(t, err)
			assert.NotEmpty(t, encoded)

			decoded, err := DecodeAssertion(encoded)
			require.NoError(t, err)
			assert.Equal(t, tt.assertion, string(decoded))
		})
	}
}

func TestEncodeAssertionEmpty(t *testing.T) {
	_, err := EncodeAssertion(nil)
	assert.ErrorIs(t, err, ErrEmptyAssertion)

	_, err = EncodeAssertion([]byte("   \n\t"))
	assert.ErrorIs(t, err, ErrEmptyAssertion)
}

func TestDecodeAssertionInvalid(t *testing.T) {
	_, err := DecodeAssertion("not base64!!!")
	assert.Error(t, err)

	// Valid base64 but not a deflate stream.
	_, err = DecodeAssertion("aGVsbG8gd29ybGQ=")
	assert.Error(t, err)
}

func TestSessionCookie(t *testing.T) {
	assertion := []byte(`<saml2:Assertion ID="_1"/>`)

	cookie, err := SessionCookie(assertion)
	require.NoError(t, err)
	assert.Equal(t, AssertionCookieName, cookie.Name)
	assert.Equal(t, "/", cookie.Path)

	decoded, err := DecodeAssertion(cookie.Value)
	require.NoError(t, err)
	assert.Equal(t, assertion, decoded)
}

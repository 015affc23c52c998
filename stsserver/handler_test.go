package stsserver

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const issueRequest = `<s:Envelope xmlns:s="http://www.w3.org/2003/05/soap-envelope"
    xmlns:wsa="http://www.w3.org/2005/08/addressing"
    xmlns:trust="http://docs.oasis-open.org/ws-sx/ws-trust/200512"
    xmlns:wsp="http://schemas.xmlsoap.org/ws/2004/09/policy">
  <s:Header>
    <wsa:Action>http://docs.oasis-open.org/ws-sx/ws-trust/200512/RST/Issue</wsa:Action>
    <wsa:MessageID>urn:uuid:00000000-0000-0000-0000-000000000001</wsa:MessageID>
    <wsa:To>https://sts.example/services/SecurityTokenService</wsa:To>
  </s:Header>
  <s:Body>
    <trust:RequestSecurityToken>
      <trust:RequestType>http://docs.oasis-open.org/ws-sx/ws-trust/200512/Issue</trust:RequestType>
      <trust:TokenType>http://docs.oasis-open.org/wss/oasis-wss-saml-token-profile-1.1#SAMLV2.0</trust:TokenType>
      <trust:KeyType>http://docs.oasis-open.org/ws-sx/ws-trust/200512/PublicKey</trust:KeyType>
      <trust:KeySize>256</trust:KeySize>
      <wsp:AppliesTo>
        <wsa:EndpointReference>
          <wsa:Address>https://svc.example/api</wsa:Address>
        </wsa:EndpointReference>
      </wsp:AppliesTo>
    </trust:RequestSecurityToken>
  </s:Body>
</s:Envelope>`

func postIssue(t *testing.T, h *Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, TokenServicePath, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/soap+xml; charset=utf-8")
	rec := httptest.NewRecorder()
	h.HandleIssue(rec, req)
	return rec
}

func TestHandleIssue(t *testing.T) {
	handler := NewHandler(&HandlerConfig{
		Issuer:      "test-sts",
		SubjectName: "platform-system",
		Log:         getTestLogger(),
	})

	rec := postIssue(t, handler, issueRequest)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/soap+xml")

	body := rec.Body.String()
	assert.Contains(t, body, "RequestSecurityTokenResponseCollection")
	assert.Contains(t, body, "RequestedSecurityToken")
	assert.Contains(t, body, "<saml2:Assertion")
	assert.Contains(t, body, "<saml2:Issuer>test-sts</saml2:Issuer>")
	assert.Contains(t, body, "<saml2:NameID>platform-system</saml2:NameID>")
	assert.Contains(t, body, "<saml2:Audience>https://svc.example/api</saml2:Audience>")
	assert.Contains(t, body, "oasis-wss-saml-token-profile-1.1#SAMLV2.0")
}

func TestHandleIssueOmitAssertion(t *testing.T) {
	handler := NewHandler(&HandlerConfig{OmitAssertion: true, Log: getTestLogger()})

	rec := postIssue(t, handler, issueRequest)
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "RequestSecurityTokenResponseCollection")
	assert.NotContains(t, body, "RequestedSecurityToken")
	assert.NotContains(t, body, "saml2:Assertion")
}

func TestHandleIssueMalformedEnvelope(t *testing.T) {
	handler := NewHandler(&HandlerConfig{Log: getTestLogger()})

	rec := postIssue(t, handler, "this is not xml")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "malformed request envelope")
}

func TestHandleIssueUnsupportedRequestType(t *testing.T) {
	handler := NewHandler(&HandlerConfig{Log: getTestLogger()})

	renew := strings.ReplaceAll(issueRequest, "200512/Issue", "200512/Renew")
	rec := postIssue(t, handler, renew)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "unsupported request type")
}

func TestHandleIssueMissingRequest(t *testing.T) {
	handler := NewHandler(&HandlerConfig{Log: getTestLogger()})

	empty := `<s:Envelope xmlns:s="http://www.w3.org/2003/05/soap-envelope"><s:Body></s:Body></s:Envelope>`
	rec := postIssue(t, handler, empty)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "unsupported request type")
}

func TestHandleIssueDefaults(t *testing.T) {
	handler := NewHandler(&HandlerConfig{Log: getTestLogger()})

	rec := postIssue(t, handler, issueRequest)
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "<saml2:Issuer>sts-stub</saml2:Issuer>")
	assert.Contains(t, body, "<saml2:NameID>system</saml2:NameID>")
}

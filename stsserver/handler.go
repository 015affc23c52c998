package stsserver

import (
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/perimeterlabs/secureclient/metrics"
)

// TokenServicePath is the route the token service listens on.
const TokenServicePath = "/services/SecurityTokenService"

const (
	trustNamespace = "http://docs.oasis-open.org/ws-sx/ws-trust/200512"
	soapNamespace  = "http://www.w3.org/2003/05/soap-envelope"

	// maxBodySize is the maximum allowed request body size (1MB).
	maxBodySize = 1024 * 1024
)

// HandlerConfig configures the token issuing handler.
type HandlerConfig struct {
	// Issuer is the issuer name stamped into minted assertions.
	Issuer string

	// SubjectName is the principal asserted for system callers.
	SubjectName string

	// TokenLifetime bounds minted assertions. Defaults to 30 minutes.
	TokenLifetime time.Duration

	// OmitAssertion makes the handler answer without a token element.
	// Failure injection for exercising empty-token handling in clients.
	OmitAssertion bool

	Log *slog.Logger
}

// Handler answers WS-Trust RST/Issue requests with generated assertions.
// Assertions are unsigned and test-grade: the stub exists for local
// development and integration tests, not for production issuance.
type Handler struct {
	issuer        string
	subjectName   string
	tokenLifetime time.Duration
	omitAssertion bool
	log           *slog.Logger
}

// NewHandler creates a token issuing handler.
func NewHandler(cfg *HandlerConfig) *Handler {
	issuer := cfg.Issuer
	if issuer == "" {
		issuer = "sts-stub"
	}
	subjectName := cfg.SubjectName
	if subjectName == "" {
		subjectName = "system"
	}
	lifetime := cfg.TokenLifetime
	if lifetime == 0 {
		lifetime = 30 * time.Minute
	}
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		issuer:        issuer,
		subjectName:   subjectName,
		tokenLifetime: lifetime,
		omitAssertion: cfg.OmitAssertion,
		log:           log,
	}
}

// Incoming RST envelope, matched by local element name.
type requestEnvelope struct {
	XMLName xml.Name `xml:"Envelope"`
	Header  struct {
		Action    string `xml:"Action"`
		MessageID string `xml:"MessageID"`
		To        string `xml:"To"`
	} `xml:"Header"`
	Body struct {
		Request *struct {
			RequestType string `xml:"RequestType"`
			TokenType   string `xml:"TokenType"`
			KeyType     string `xml:"KeyType"`
			KeySize     string `xml:"KeySize"`
			AppliesTo   struct {
				Address string `xml:"EndpointReference>Address"`
			} `xml:"AppliesTo"`
		} `xml:"RequestSecurityToken"`
	} `xml:"Body"`
}

// HandleIssue processes one RST/Issue request.
func (h *Handler) HandleIssue(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		h.fault(w, "s:Receiver", "could not read request")
		return
	}

	var envelope requestEnvelope
	if err := xml.Unmarshal(body, &envelope); err != nil {
		h.fault(w, "s:Sender", "malformed request envelope")
		return
	}

	request := envelope.Body.Request
	if request == nil || !strings.HasSuffix(request.RequestType, "/Issue") {
		h.fault(w, "s:Sender", "unsupported request type")
		return
	}

	h.log.Info("Issuing security token",
		slog.String("appliesTo", request.AppliesTo.Address),
		slog.String("tokenType", request.TokenType),
		slog.String("messageID", envelope.Header.MessageID))

	var requestedToken string
	if !h.omitAssertion {
		requestedToken = fmt.Sprintf("<trust:RequestedSecurityToken>%s</trust:RequestedSecurityToken>",
			h.mintAssertion(request.AppliesTo.Address))
		metrics.TokensIssued.Inc()
	}

	response := fmt.Sprintf(`<s:Envelope xmlns:s="%s">
  <s:Body>
    <trust:RequestSecurityTokenResponseCollection xmlns:trust="%s">
      <trust:RequestSecurityTokenResponse>
        <trust:TokenType>%s</trust:TokenType>%s
      </trust:RequestSecurityTokenResponse>
    </trust:RequestSecurityTokenResponseCollection>
  </s:Body>
</s:Envelope>`, soapNamespace, trustNamespace, xmlEscape(request.TokenType), requestedToken)

	w.Header().Set("Content-Type", "application/soap+xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(response))
}

// mintAssertion generates an unsigned SAML 2.0 assertion for the system
// subject.
func (h *Handler) mintAssertion(audience string) string {
	now := time.Now().UTC()
	assertion := fmt.Sprintf(`<saml2:Assertion xmlns:saml2="urn:oasis:names:tc:SAML:2.0:assertion" ID="_%s" IssueInstant="%s" Version="2.0">`+
		`<saml2:Issuer>%s</saml2:Issuer>`+
		`<saml2:Subject><saml2:NameID>%s</saml2:NameID></saml2:Subject>`+
		`<saml2:Conditions NotBefore="%s" NotOnOrAfter="%s">`+
		`<saml2:AudienceRestriction><saml2:Audience>%s</saml2:Audience></saml2:AudienceRestriction>`+
		`</saml2:Conditions>`+
		`</saml2:Assertion>`,
		uuid.NewString(),
		now.Format(time.RFC3339),
		xmlEscape(h.issuer),
		xmlEscape(h.subjectName),
		now.Format(time.RFC3339),
		now.Add(h.tokenLifetime).Format(time.RFC3339),
		xmlEscape(audience))
	return assertion
}

func (h *Handler) fault(w http.ResponseWriter, code, reason string) {
	h.log.Info("Rejecting token request", slog.String("code", code), slog.String("reason", reason))

	response := fmt.Sprintf(`<s:Envelope xmlns:s="%s">
  <s:Body>
    <s:Fault>
      <s:Code><s:Value>%s</s:Value></s:Code>
      <s:Reason><s:Text xml:lang="en">%s</s:Text></s:Reason>
    </s:Fault>
  </s:Body>
</s:Envelope>`, soapNamespace, code, xmlEscape(reason))

	w.Header().Set("Content-Type", "application/soap+xml; charset=utf-8")
	w.WriteHeader(http.StatusInternalServerError)
	w.Write([]byte(response))
}

func xmlEscape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

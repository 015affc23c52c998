package trustbroker

import (
	"bytes"
	"encoding/xml"
	"fmt"
)

// WS-Trust 1.3 protocol constants.
const (
	trustNamespace  = "http://docs.oasis-open.org/ws-sx/ws-trust/200512"
	soapNamespace   = "http://www.w3.org/2003/05/soap-envelope"
	policyNamespace = "http://schemas.xmlsoap.org/ws/2004/09/policy"

	issueAction      = trustNamespace + "/RST/Issue"
	issueRequestType = trustNamespace + "/Issue"
)

const requestTemplate = `<?xml version="1.0" encoding="utf-8"?>
<s:Envelope xmlns:s="%[1]s" xmlns:wsa="%[2]s" xmlns:wst="%[3]s" xmlns:wsp="%[4]s">
  <s:Header>
    <wsa:Action s:mustUnderstand="1">%[5]s</wsa:Action>
    <wsa:MessageID>urn:uuid:%[6]s</wsa:MessageID>
    <wsa:To s:mustUnderstand="1">%[7]s</wsa:To>
  </s:Header>
  <s:Body>
    <wst:RequestSecurityToken Context="%[8]s">
      <wst:RequestType>%[9]s</wst:RequestType>%[10]s
      <wsp:AppliesTo>
        <wsa:EndpointReference>
          <wsa:Address>%[11]s</wsa:Address>
        </wsa:EndpointReference>
      </wsp:AppliesTo>
    </wst:RequestSecurityToken>
  </s:Body>
</s:Envelope>`

// issueRequest renders an RST/Issue envelope addressed to the broker.
func (c *Client) issueRequest(messageID, requestContext, appliesTo string) []byte {
	var extra bytes.Buffer
	if c.tokenType != "" {
		fmt.Fprintf(&extra, "\n      <wst:TokenType>%s</wst:TokenType>", xmlEscape(c.tokenType))
	}
	if c.keyType != "" {
		fmt.Fprintf(&extra, "\n      <wst:KeyType>%s</wst:KeyType>", xmlEscape(c.keyType))
	}
	fmt.Fprintf(&extra, "\n      <wst:KeySize>%d</wst:KeySize>", c.keySize)

	body := fmt.Sprintf(requestTemplate,
		soapNamespace,
		c.addressingNamespace,
		trustNamespace,
		policyNamespace,
		issueAction,
		xmlEscape(messageID),
		xmlEscape(c.address),
		xmlEscape(requestContext),
		issueRequestType,
		extra.String(),
		xmlEscape(appliesTo),
	)
	return []byte(body)
}

func xmlEscape(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

// Response envelope. Element names are matched by local name so the parser
// accepts any namespace prefix choice the broker makes.
type responseEnvelope struct {
	XMLName xml.Name `xml:"Envelope"`
	Body    struct {
		Fault      *soapFault `xml:"Fault"`
		Collection *struct {
			Responses []tokenResponse `xml:"RequestSecurityTokenResponse"`
		} `xml:"RequestSecurityTokenResponseCollection"`
		Response *tokenResponse `xml:"RequestSecurityTokenResponse"`
	} `xml:"Body"`
}

type tokenResponse struct {
	TokenType              string `xml:"TokenType"`
	RequestedSecurityToken *struct {
		Inner []byte `xml:",innerxml"`
	} `xml:"RequestedSecurityToken"`
}

type soapFault struct {
	Code struct {
		Value string `xml:"Value"`
	} `xml:"Code"`
	Reason struct {
		Text string `xml:"Text"`
	} `xml:"Reason"`
}

func (f *soapFault) Error() string {
	return fmt.Sprintf("soap fault %s: %s", f.Code.Value, f.Reason.Text)
}

// parseTokenResponse extracts the security token from an RSTR envelope. The
// broker may answer with a response collection or a bare response element.
func parseTokenResponse(data []byte) (*SecurityToken, error) {
	var envelope responseEnvelope
	if err := xml.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("could not parse token response: %w", err)
	}

	if envelope.Body.Fault != nil {
		return nil, envelope.Body.Fault
	}

	var response *tokenResponse
	switch {
	case envelope.Body.Collection != nil && len(envelope.Body.Collection.Responses) > 0:
		response = &envelope.Body.Collection.Responses[0]
	case envelope.Body.Response != nil:
		response = envelope.Body.Response
	default:
		return nil, fmt.Errorf("token response carries no RequestSecurityTokenResponse element")
	}

	token := &SecurityToken{TokenType: response.TokenType}
	if response.RequestedSecurityToken != nil {
		token.Assertion = bytes.TrimSpace(response.RequestedSecurityToken.Inner)
	}
	return token, nil
}

package secureclient

import "encoding/json"

// JSONBodyProvider is a MessageBodyProvider for application/json payloads.
type JSONBodyProvider struct{}

func (JSONBodyProvider) ContentType() string { return "application/json" }

func (JSONBodyProvider) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (JSONBodyProvider) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// Package typeform decodes Typeform webhook deliveries.
//
// Answers arrive as a heterogeneous array whose shape depends on each
// record's "type". They are decoded one by one into a closed set of Value
// variants, and anything unexpected becomes UnknownValue rather than failing
// the whole delivery.
package typeform

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Payload is the subset of the webhook body the service reads.
type Payload struct {
	EventID      string       `json:"event_id"`
	EventType    string       `json:"event_type"`
	FormResponse FormResponse `json:"form_response"`
}

type FormResponse struct {
	FormID      string `json:"form_id"`
	Token       string `json:"token"`
	SubmittedAt string `json:"submitted_at"`

	// Hidden is decoded lazily by Payload.Hidden; senders put numbers and
	// nulls here as well as strings.
	Hidden json.RawMessage `json:"hidden"`

	// Answers is kept raw so it can be stored verbatim and decoded
	// record-by-record.
	Answers []json.RawMessage `json:"answers"`
}

// ParsePayload decodes a delivery body. Only a body that is not a JSON object
// at all is an error; individual answers are decoded lazily by Answers.
func ParsePayload(body []byte) (*Payload, error) {
	var p Payload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("typeform: decoding payload: %w", err)
	}
	return &p, nil
}

// SubmissionID is the delivery's stable identity: the event id, or the
// response token when the event id is missing.
func (p *Payload) SubmissionID() string {
	if id := strings.TrimSpace(p.EventID); id != "" {
		return id
	}
	return strings.TrimSpace(p.FormResponse.Token)
}

// RawAnswers re-encodes the answers array exactly as received. A delivery
// without answers yields "[]".
func (p *Payload) RawAnswers() json.RawMessage {
	if len(p.FormResponse.Answers) == 0 {
		return json.RawMessage("[]")
	}
	raw, err := json.Marshal(p.FormResponse.Answers)
	if err != nil {
		// Each element is already valid JSON, so this cannot happen.
		return json.RawMessage("[]")
	}
	return raw
}

// Answers decodes every answer record. It never fails.
func (p *Payload) Answers() []Answer {
	out := make([]Answer, 0, len(p.FormResponse.Answers))
	for _, raw := range p.FormResponse.Answers {
		out = append(out, DecodeAnswer(raw))
	}
	return out
}

// Hidden returns a trimmed hidden field, or "" when it is absent or not a
// JSON string. A hidden block that is not an object yields "" for every key.
func (p *Payload) Hidden(key string) string {
	if len(p.FormResponse.Hidden) == 0 {
		return ""
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(p.FormResponse.Hidden, &fields); err != nil {
		return ""
	}
	var s string
	if err := json.Unmarshal(fields[key], &s); err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

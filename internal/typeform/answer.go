package typeform

import (
	"encoding/json"
	"strconv"
)

// Answer is one decoded answer record.
type Answer struct {
	Ref   string
	Type  string
	Value Value
}

// Value is implemented by every answer variant. The unexported method closes
// the set to this package.
type Value interface {
	isValue()
}

type (
	// TextValue covers "text", "email", "url", "phone_number" and the
	// generic "string" shape.
	TextValue string
	// ChoiceValue is a single selected label.
	ChoiceValue string
	// ChoicesValue is a multi-select.
	ChoicesValue []string
	NumberValue  float64
	BooleanValue bool
	// UnknownValue keeps records we could not interpret, so they can be
	// logged and stored without being mapped.
	UnknownValue struct {
		Type string
		Raw  json.RawMessage
	}
)

func (TextValue) isValue()    {}
func (ChoiceValue) isValue()  {}
func (ChoicesValue) isValue() {}
func (NumberValue) isValue()  {}
func (BooleanValue) isValue() {}
func (UnknownValue) isValue() {}

type rawAnswer struct {
	Type  string `json:"type"`
	Field struct {
		Ref string `json:"ref"`
	} `json:"field"`
	Text        *string  `json:"text"`
	String      *string  `json:"string"`
	Email       *string  `json:"email"`
	URL         *string  `json:"url"`
	PhoneNumber *string  `json:"phone_number"`
	Number      *float64 `json:"number"`
	Boolean     *bool    `json:"boolean"`
	Choice      *struct {
		Label string `json:"label"`
		Other string `json:"other"`
	} `json:"choice"`
	Choices *struct {
		Labels []string `json:"labels"`
		Other  string   `json:"other"`
	} `json:"choices"`
}

// DecodeAnswer interprets a single answer record. The declared type selects
// the variant; a record whose payload does not match its type, or whose type
// we do not know, becomes UnknownValue.
func DecodeAnswer(raw json.RawMessage) Answer {
	var ra rawAnswer
	if err := json.Unmarshal(raw, &ra); err != nil {
		return Answer{Value: UnknownValue{Raw: raw}}
	}

	a := Answer{Ref: ra.Field.Ref, Type: ra.Type}
	unknown := UnknownValue{Type: ra.Type, Raw: raw}

	switch ra.Type {
	case "text", "email", "url", "phone_number", "long_text", "short_text":
		if s := firstString(ra.Text, ra.String, ra.Email, ra.URL, ra.PhoneNumber); s != nil {
			a.Value = TextValue(*s)
			return a
		}
	case "choice":
		if ra.Choice != nil {
			label := ra.Choice.Label
			if label == "" {
				label = ra.Choice.Other
			}
			a.Value = ChoiceValue(label)
			return a
		}
	case "choices":
		if ra.Choices != nil {
			labels := append([]string{}, ra.Choices.Labels...)
			if ra.Choices.Other != "" {
				labels = append(labels, ra.Choices.Other)
			}
			a.Value = ChoicesValue(labels)
			return a
		}
	case "number":
		if ra.Number != nil {
			a.Value = NumberValue(*ra.Number)
			return a
		}
	case "boolean":
		if ra.Boolean != nil {
			a.Value = BooleanValue(*ra.Boolean)
			return a
		}
	}

	a.Value = unknown
	return a
}

func firstString(candidates ...*string) *string {
	for _, c := range candidates {
		if c != nil && *c != "" {
			return c
		}
	}
	return nil
}

// FormatNumber renders a number without a trailing ".0" for whole values.
func FormatNumber(n NumberValue) string {
	return strconv.FormatFloat(float64(n), 'f', -1, 64)
}

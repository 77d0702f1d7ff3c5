package value

import "encoding/json"

// WarningPrefix starts the message reported for every Opaque result.
const WarningPrefix = "Invalid JSON conversion for "

var jsonNull = json.RawMessage("null")

// Result is the outcome of serializing one value. It is either a
// Representable or an Opaque.
type Result interface {
	// JSON returns the document that stands for the value. Opaque results
	// stand as JSON null.
	JSON() json.RawMessage

	isResult()
}

// Representable holds the JSON text of a value that could be encoded.
type Representable struct {
	Doc json.RawMessage
}

// JSON returns the encoded document.
func (r Representable) JSON() json.RawMessage {
	return r.Doc
}

func (Representable) isResult() {}

// Opaque marks a value that has no JSON form.
type Opaque struct {
	Original any
	Preview  string
}

// JSON returns null.
func (o Opaque) JSON() json.RawMessage {
	return jsonNull
}

// Message returns the warning text reported for the value.
func (o Opaque) Message() string {
	return WarningPrefix + o.Preview
}

func (Opaque) isResult() {}

// Typed pairs a serialized value with the synopsis of its runtime type.
type Typed struct {
	Value json.RawMessage `json:"value"`
	Type  string          `json:"type"`
}

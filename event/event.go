package event

import (
	"encoding/json"

	"github.com/fracker/fracker/value"
)

// Kind discriminates the documents of the protocol.
type Kind string

// The kinds of documents.
const (
	KindRequest Kind = "request"
	KindCall    Kind = "call"
	KindExit    Kind = "exit"
	KindReturn  Kind = "return"
	KindWarning Kind = "warning"
)

// Request describes the unit of work being traced.
type Request struct {
	Type   Kind            `json:"type"`
	Server json.RawMessage `json:"server"`
	Get    json.RawMessage `json:"get"`
	Post   json.RawMessage `json:"post"`
	Cookie json.RawMessage `json:"cookie"`
	Input  *string         `json:"input"`
}

// Call reports that a function was entered.
type Call struct {
	Type      Kind    `json:"type"`
	ID        int     `json:"id"`
	Level     int     `json:"level"`
	Timestamp float64 `json:"timestamp"`
	Function  string  `json:"function"`
	File      string  `json:"file"`
	Line      int     `json:"line"`
	Arguments []Arg   `json:"arguments"`
}

// Arg is one element of Call.Arguments. Include arguments carry only a
// value.
type Arg struct {
	Name  string          `json:"name,omitempty"`
	Value json.RawMessage `json:"value"`
	Type  string          `json:"type,omitempty"`
}

// Exit reports that a function was left.
type Exit struct {
	Type      Kind    `json:"type"`
	ID        int     `json:"id"`
	Level     int     `json:"level"`
	Timestamp float64 `json:"timestamp"`
}

// Return reports the value a function returned.
type Return struct {
	Type   Kind        `json:"type"`
	ID     int         `json:"id"`
	Level  int         `json:"level"`
	Return value.Typed `json:"return"`
}

// Warning reports a value that could not be serialized.
type Warning struct {
	Type    Kind   `json:"type"`
	Message string `json:"message"`
}

// Envelope decodes only the discriminator of a document.
type Envelope struct {
	Type  Kind `json:"type"`
	ID    *int `json:"id,omitempty"`
	Level *int `json:"level,omitempty"`
}

package value

import (
	"encoding/json"
	"fmt"
)

// Serializer converts runtime values into Results.
type Serializer struct {
	encoder  Encoder
	renderer Renderer
}

// NewSerializer creates a Serializer from its collaborators. Nil
// collaborators are replaced by the defaults.
func NewSerializer(encoder Encoder, renderer Renderer) *Serializer {
	if encoder == nil {
		encoder = NewPartialEncoder()
	}

	if renderer == nil {
		renderer = NewTextRenderer()
	}

	return &Serializer{
		encoder:  encoder,
		renderer: renderer,
	}
}

// Default creates a Serializer backed by PartialEncoder and TextRenderer.
func Default() *Serializer {
	return NewSerializer(nil, nil)
}

// Serialize converts v. It returns a Representable when the encoder produced
// usable text and an Opaque otherwise.
func (s *Serializer) Serialize(v any) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			result = s.opaque(v)
		}
	}()

	text, err := s.encoder.Encode(v)
	if err != nil || len(text) == 0 || !json.Valid(text) {
		return s.opaque(v)
	}

	return Representable{Doc: json.RawMessage(text)}
}

// SerializeTyped converts v and attaches the synopsis of its type. The
// synopsis is computed from v itself, so it is present even when v could not
// be serialized.
func (s *Serializer) SerializeTyped(v any) (Typed, Result) {
	result := s.Serialize(v)

	return Typed{
		Value: result.JSON(),
		Type:  s.synopsis(v),
	}, result
}

func (s *Serializer) opaque(v any) Opaque {
	return Opaque{
		Original: v,
		Preview:  s.preview(v),
	}
}

func (s *Serializer) preview(v any) (text string) {
	defer func() {
		if r := recover(); r != nil {
			text = fmt.Sprintf("<%T>", v)
		}
	}()

	text = s.renderer.Preview(v)
	if text == "" {
		text = fmt.Sprintf("<%T>", v)
	}

	return text
}

func (s *Serializer) synopsis(v any) (text string) {
	defer func() {
		if r := recover(); r != nil {
			text = fmt.Sprintf("%T", v)
		}
	}()

	text = s.renderer.Synopsis(v)
	if text == "" {
		text = fmt.Sprintf("%T", v)
	}

	return text
}

package store

import (
	"bytes"
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"gopkg.in/yaml.v3"
)

// Codec turns a Document into bytes and back.
type Codec interface {
	Name() string
	Marshal(doc *Document) ([]byte, error)
	Unmarshal(data []byte, doc *Document) error
}

// Codec names accepted by CodecByName and Config.Codec.
const (
	CodecJSON = "json"
	CodecYAML = "yaml"
)

// jsonAPI decodes numbers as json.Number so integers survive the round trip.
var jsonAPI = jsoniter.Config{
	EscapeHTML:             false,
	SortMapKeys:            true,
	UseNumber:              true,
	ValidateJsonRawMessage: true,
}.Froze()

// JSONCodec encodes documents with json-iterator. Payloads are validated
// before decoding.
type JSONCodec struct{}

func (JSONCodec) Name() string { return CodecJSON }

func (JSONCodec) Marshal(doc *Document) ([]byte, error) {
	return jsonAPI.Marshal(doc)
}

func (JSONCodec) Unmarshal(data []byte, doc *Document) error {
	if !jsonAPI.Valid(data) {
		return fmt.Errorf("%w: invalid json", ErrCorruptPayload)
	}
	if err := jsonAPI.Unmarshal(data, doc); err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptPayload, err)
	}
	return nil
}

// YAMLCodec encodes documents as YAML.
type YAMLCodec struct{}

func (YAMLCodec) Name() string { return CodecYAML }

func (YAMLCodec) Marshal(doc *Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (YAMLCodec) Unmarshal(data []byte, doc *Document) error {
	if err := yaml.Unmarshal(data, doc); err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptPayload, err)
	}
	return nil
}

// CodecByName resolves a codec name; the empty name selects JSON.
func CodecByName(name string) (Codec, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", CodecJSON:
		return JSONCodec{}, nil
	case CodecYAML, "yml":
		return YAMLCodec{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, name)
}

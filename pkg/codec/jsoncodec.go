// pkg/codec/jsoncodec.go
package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Codec encodes action payloads on the wire (HTTP ingress, relay).
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	ContentType() string
}

type jsonCodec struct{ strict bool }

var (
	// JSONStrict rejects unknown fields and trailing content.
	JSONStrict Codec = jsonCodec{strict: true}
	// JSON accepts unknown fields.
	JSON Codec = jsonCodec{}
)

// ByName resolves a manifest codec name; "" means JSONStrict.
func ByName(name string) (Codec, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "json-strict":
		return JSONStrict, nil
	case "json":
		return JSON, nil
	default:
		return nil, fmt.Errorf("codec: unknown codec %q", name)
	}
}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func (c jsonCodec) Unmarshal(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	if c.strict {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("json decode: %w", err)
	}
	// must be EOF
	var extra any
	if err := dec.Decode(&extra); err != io.EOF {
		return fmt.Errorf("json trailing content")
	}
	return nil
}

func (jsonCodec) ContentType() string { return "application/json" }

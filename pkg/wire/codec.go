package wire

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Codec encodes and decodes wire records.
type Codec interface {
	// Name is the codec identifier used in configuration ("json", "cbor").
	Name() string

	// ContentType is the media type used when the record is an HTTP body.
	ContentType() string

	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// Codec names.
const (
	CodecJSON = "json"
	CodecCBOR = "cbor"
)

// encMode is the CBOR encoder mode for provisioning records.
// Configured for deterministic encoding.
var encMode cbor.EncMode

// decMode is the CBOR decoder mode for provisioning records.
var decMode cbor.DecMode

func init() {
	var err error

	encOpts := cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
	}
	encMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create CBOR encoder mode: %v", err))
	}

	// Lenient on duplicate keys for forward compatibility with firmware.
	decOpts := cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyQuiet,
		IndefLength:       cbor.IndefLengthAllowed,
		ExtraReturnErrors: cbor.ExtraDecErrorNone,
	}
	decMode, err = decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create CBOR decoder mode: %v", err))
	}
}

// JSONCodec encodes records as JSON objects.
type JSONCodec struct{}

// Name returns "json".
func (JSONCodec) Name() string { return CodecJSON }

// ContentType returns "application/json".
func (JSONCodec) ContentType() string { return "application/json" }

// Marshal encodes v as compact JSON.
func (JSONCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

// Unmarshal decodes the first JSON value in data. Truncated input yields
// an error wrapping io.ErrUnexpectedEOF.
func (JSONCodec) Unmarshal(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	return dec.Decode(v)
}

// CBORCodec encodes records as CBOR maps with text keys.
type CBORCodec struct{}

// Name returns "cbor".
func (CBORCodec) Name() string { return CodecCBOR }

// ContentType returns "application/cbor".
func (CBORCodec) ContentType() string { return "application/cbor" }

// Marshal encodes v as canonical CBOR.
func (CBORCodec) Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes CBOR bytes into v.
func (CBORCodec) Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// CodecByName returns the codec registered under name.
// An empty name selects JSON.
func CodecByName(name string) (Codec, error) {
	switch name {
	case "", CodecJSON:
		return JSONCodec{}, nil
	case CodecCBOR:
		return CBORCodec{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, name)
	}
}

// Compile-time interface satisfaction checks.
var (
	_ Codec = JSONCodec{}
	_ Codec = CBORCodec{}
)

package wire

import (
	"errors"
	"fmt"
	"io"
)

// MaxPayloadSize is the largest encoded record accepted for a single write.
// It matches the ATT maximum attribute length the firmware reads in one go.
const MaxPayloadSize = 512

// Wire errors.
var (
	ErrUnknownCodec    = errors.New("unknown codec")
	ErrInvalidRecord   = errors.New("invalid record")
	ErrPayloadTooLarge = errors.New("payload exceeds single write size")
	ErrIncomplete      = errors.New("incomplete record")
	ErrMalformed       = errors.New("malformed record")
)

// Credentials is the record that carries the target network to a device.
type Credentials struct {
	SSID     string `json:"ssid" cbor:"ssid"`
	Password string `json:"password" cbor:"password"`

	// Email is forwarded to the device for alert routing.
	Email string `json:"email,omitempty" cbor:"email,omitempty"`
}

// Ack is the device's answer to a Credentials record.
type Ack struct {
	Success  bool   `json:"success" cbor:"success"`
	DeviceID *int   `json:"deviceId,omitempty" cbor:"deviceId,omitempty"`
	Error    string `json:"error,omitempty" cbor:"error,omitempty"`
	Message  string `json:"message,omitempty" cbor:"message,omitempty"`
}

// Reason returns the device supplied explanation, preferring Error.
func (a *Ack) Reason() string {
	if a.Error != "" {
		return a.Error
	}
	return a.Message
}

// ackRecord distinguishes an absent success field from false.
type ackRecord struct {
	Success  *bool  `json:"success" cbor:"success"`
	DeviceID *int   `json:"deviceId,omitempty" cbor:"deviceId,omitempty"`
	Error    string `json:"error,omitempty" cbor:"error,omitempty"`
	Message  string `json:"message,omitempty" cbor:"message,omitempty"`
}

// EncodeCredentials encodes a credentials record for a single write.
func EncodeCredentials(c Codec, creds *Credentials) ([]byte, error) {
	if creds == nil || creds.SSID == "" {
		return nil, fmt.Errorf("%w: ssid is required", ErrInvalidRecord)
	}

	data, err := c.Marshal(creds)
	if err != nil {
		return nil, fmt.Errorf("failed to encode credentials: %w", err)
	}
	if len(data) > MaxPayloadSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, len(data))
	}
	return data, nil
}

// DecodeCredentials decodes a credentials record. Used by device simulators
// and tests.
func DecodeCredentials(c Codec, data []byte) (*Credentials, error) {
	var creds Credentials
	if err := c.Unmarshal(data, &creds); err != nil {
		return nil, classify(err)
	}
	if creds.SSID == "" {
		return nil, fmt.Errorf("%w: ssid is required", ErrMalformed)
	}
	return &creds, nil
}

// EncodeAck encodes an acknowledgment record.
func EncodeAck(c Codec, ack *Ack) ([]byte, error) {
	return c.Marshal(ack)
}

// DecodeAck decodes an acknowledgment record. The success field is
// mandatory; a record without it is malformed.
func DecodeAck(c Codec, data []byte) (*Ack, error) {
	return decodeAck(c, data, nil)
}

// DecodeAckDefault decodes an acknowledgment record, using def when the
// record has no success field.
func DecodeAckDefault(c Codec, data []byte, def bool) (*Ack, error) {
	return decodeAck(c, data, &def)
}

func decodeAck(c Codec, data []byte, def *bool) (*Ack, error) {
	if len(data) == 0 {
		return nil, ErrIncomplete
	}

	var rec ackRecord
	if err := c.Unmarshal(data, &rec); err != nil {
		return nil, classify(err)
	}

	success := rec.Success
	if success == nil {
		if def == nil {
			return nil, fmt.Errorf("%w: missing success field", ErrMalformed)
		}
		success = def
	}

	return &Ack{
		Success:  *success,
		DeviceID: rec.DeviceID,
		Error:    rec.Error,
		Message:  rec.Message,
	}, nil
}

// classify maps a codec error onto ErrIncomplete or ErrMalformed.
func classify(err error) error {
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %v", ErrIncomplete, err)
	}
	return fmt.Errorf("%w: %v", ErrMalformed, err)
}

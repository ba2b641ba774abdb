package feemsg

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// DefaultMajorVersion is the broadcaster major version this client speaks.
const DefaultMajorVersion = "8"

var (
	// ErrMalformedEnvelope marks a message whose outer JSON envelope is
	// missing or invalid.
	ErrMalformedEnvelope = errors.New("malformed fee message envelope")
	// ErrMalformedPayload marks a message whose hex payload or inner JSON
	// is invalid or incomplete.
	ErrMalformedPayload = errors.New("malformed fee message payload")
)

// IncompatibleVersionError rejects an announcement from a broadcaster on a
// different major version. Routine during broadcaster upgrades, so it is
// distinguished from malformed input.
type IncompatibleVersionError struct {
	Got      string
	Expected string
}

func (e *IncompatibleVersionError) Error() string {
	return fmt.Sprintf("incompatible broadcaster version: got %s, expected major %s", e.Got, e.Expected)
}

// Codec decodes fee messages from their doubly-encoded wire format.
// Decoding is pure; it never touches the directory.
type Codec struct {
	MajorVersion string
}

// NewCodec returns a codec gated on DefaultMajorVersion.
func NewCodec() *Codec {
	return &Codec{MajorVersion: DefaultMajorVersion}
}

// Decode parses raw bytes from the fee content topic into a FeeAnnouncement.
// Steps: outer JSON envelope, hex-decode of the data field, inner JSON, then
// a hard major-version gate.
func (c *Codec) Decode(raw []byte) (*FeeAnnouncement, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	if env.Data == "" || env.Signature == "" {
		return nil, fmt.Errorf("%w: missing data or signature", ErrMalformedEnvelope)
	}

	inner, err := hex.DecodeString(strings.TrimPrefix(env.Data, "0x"))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid hex data: %v", ErrMalformedPayload, err)
	}
	if !utf8.Valid(inner) {
		return nil, fmt.Errorf("%w: payload is not valid UTF-8", ErrMalformedPayload)
	}

	var ann FeeAnnouncement
	if err := json.Unmarshal(inner, &ann); err != nil {
		return nil, fmt.Errorf("%w: invalid fee data JSON: %v", ErrMalformedPayload, err)
	}
	if ann.RailgunAddress == "" || ann.Version == "" || len(ann.Fees) == 0 {
		return nil, fmt.Errorf("%w: missing required fields", ErrMalformedPayload)
	}

	if major := MajorVersion(ann.Version); major != c.MajorVersion {
		return nil, &IncompatibleVersionError{Got: ann.Version, Expected: c.MajorVersion}
	}

	return &ann, nil
}

// Encode wraps an announcement in the wire envelope: inner JSON, hex-encoded,
// with the signature carried alongside. Counterpart of Decode; the signature
// is not produced here, only transported.
func Encode(ann *FeeAnnouncement, signature string) ([]byte, error) {
	inner, err := json.Marshal(ann)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{
		Data:      hex.EncodeToString(inner),
		Signature: signature,
	})
}

// MajorVersion returns the segment of a dot-separated version string before
// the first dot; the whole string when there is no dot.
func MajorVersion(version string) string {
	if i := strings.IndexByte(version, '.'); i >= 0 {
		return version[:i]
	}
	return version
}

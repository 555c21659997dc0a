package storage

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// bufferEnvelope is the binary-safe wrapper for opaque byte values stored in
// text columns. Arbitrary buffers round-trip through JSON without corruption.
type bufferEnvelope struct {
	Type string `json:"type"`
	Data string `json:"data"`
}

const bufferEnvelopeType = "Buffer"

func encodeBlob(value []byte) (string, error) {
	env := bufferEnvelope{
		Type: bufferEnvelopeType,
		Data: base64.StdEncoding.EncodeToString(value),
	}
	out, err := json.Marshal(env)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func decodeBlob(stored string) ([]byte, error) {
	var env bufferEnvelope
	if err := json.Unmarshal([]byte(stored), &env); err != nil || env.Type != bufferEnvelopeType {
		// Legacy plain values are returned verbatim.
		return []byte(stored), nil
	}
	raw, err := base64.StdEncoding.DecodeString(env.Data)
	if err != nil {
		return nil, fmt.Errorf("corrupt buffer envelope: %w", err)
	}
	return raw, nil
}

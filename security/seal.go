package security

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"

	"golang.org/x/crypto/nacl/secretbox"
)

const (
	sealKeySize   = 32
	sealNonceSize = 24
)

// Sealer optionally encrypts cookie values with NaCl secretbox
// (XSalsa20-Poly1305). A sealed refresh-token cookie is opaque to anything
// that exfiltrates the browser's cookie jar without the gateway's key.
// With a nil key the sealer is a pass-through.
type Sealer struct {
	key     [sealKeySize]byte
	enabled bool
}

// NewSealer creates a sealer. A nil or empty key disables sealing;
// otherwise the key must be exactly 32 bytes.
func NewSealer(key []byte) (*Sealer, error) {
	if len(key) == 0 {
		return &Sealer{enabled: false}, nil
	}
	if len(key) != sealKeySize {
		return nil, fmt.Errorf("seal key must be exactly %d bytes, got %d", sealKeySize, len(key))
	}

	s := &Sealer{enabled: true}
	copy(s.key[:], key)
	return s, nil
}

// Enabled reports whether sealing is active.
func (s *Sealer) Enabled() bool {
	return s.enabled
}

// Seal encrypts a cookie value. Output format is base64url([nonce][box]).
func (s *Sealer) Seal(value string) (string, error) {
	if !s.enabled {
		return value, nil
	}

	var nonce [sealNonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("failed to generate seal nonce: %w", err)
	}

	sealed := secretbox.Seal(nonce[:], []byte(value), &nonce, &s.key)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Open decrypts a sealed cookie value produced by Seal.
func (s *Sealer) Open(sealed string) (string, error) {
	if !s.enabled {
		return sealed, nil
	}

	raw, err := base64.RawURLEncoding.DecodeString(sealed)
	if err != nil {
		return "", fmt.Errorf("malformed sealed value: %w", err)
	}
	if len(raw) <= sealNonceSize {
		return "", fmt.Errorf("sealed value too short")
	}

	var nonce [sealNonceSize]byte
	copy(nonce[:], raw[:sealNonceSize])

	value, ok := secretbox.Open(nil, raw[sealNonceSize:], &nonce, &s.key)
	if !ok {
		return "", fmt.Errorf("failed to open sealed value")
	}
	return string(value), nil
}

// GenerateSealKey generates a random 32-byte secretbox key.
func GenerateSealKey() ([]byte, error) {
	key := make([]byte, sealKeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("failed to generate seal key: %w", err)
	}
	return key, nil
}

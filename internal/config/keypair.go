package config

import (
	"bytes"
	"crypto/ed25519"
	"encoding/json"
	"fmt"
	"strings"

	"filippo.io/edwards25519"
	solanago "github.com/gagliardetto/solana-go"
)

// ParsePrivateKey decodes a payer secret key from either of the two
// supported encodings: a JSON numeric array (the solana-keygen file format)
// or base58 text. The structured-array decode is attempted when the input
// starts with '['; otherwise base58 is the only alternative. Anything else
// fails explicitly.
func ParsePrivateKey(raw string) (solanago.PrivateKey, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("%w: empty", ErrBadPrivateKey)
	}

	var key solanago.PrivateKey
	if strings.HasPrefix(raw, "[") {
		var nums []int16
		if err := json.Unmarshal([]byte(raw), &nums); err != nil {
			return nil, fmt.Errorf("%w: json array: %v", ErrBadPrivateKey, err)
		}
		key = make(solanago.PrivateKey, len(nums))
		for i, n := range nums {
			if n < 0 || n > 255 {
				return nil, fmt.Errorf("%w: array element %d out of byte range", ErrBadPrivateKey, n)
			}
			key[i] = byte(n)
		}
	} else {
		decoded, err := solanago.PrivateKeyFromBase58(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: base58: %v", ErrBadPrivateKey, err)
		}
		key = decoded
	}

	if len(key) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrBadPrivateKey, len(key), ed25519.PrivateKeySize)
	}
	if err := checkKeyIntegrity(key); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPrivateKey, err)
	}
	return key, nil
}

// checkKeyIntegrity verifies the public half of a 64-byte secret key: it
// must match the key derived from the seed and decode to a canonical
// ed25519 curve point.
func checkKeyIntegrity(key solanago.PrivateKey) error {
	derived := ed25519.NewKeyFromSeed(key[:ed25519.SeedSize])
	pub := derived.Public().(ed25519.PublicKey)
	if !bytes.Equal(pub, []byte(key[ed25519.SeedSize:])) {
		return fmt.Errorf("public half does not match seed")
	}
	if _, err := new(edwards25519.Point).SetBytes(pub); err != nil {
		return fmt.Errorf("public key not on curve: %v", err)
	}
	return nil
}

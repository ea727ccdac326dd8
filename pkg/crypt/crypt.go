// Package crypt encrypts secrets held in api connection configs.
//
// Ciphertexts are hex-encoded "iv:tag:payload" with AES-256-GCM.
// Stored values carry a "plain:" or "enc:" prefix so both forms can
// coexist; untagged values are read as plaintext for compatibility
// with older records.
package crypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

const (
	prefixPlain = "plain:"
	prefixEnc   = "enc:"

	// GCM is run with a 16 byte nonce, not the 12 byte default,
	// to stay compatible with ciphertexts written by older tooling.
	ivLength = 16
)

var ErrMalformedCiphertext = errors.New("malformed ciphertext")

// Key is a parsed AES-256 key.
type Key struct {
	raw []byte
}

// ParseKey reads a hex-encoded 32 byte key.
func ParseKey(hexKey string) (*Key, error) {
	raw, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("encryption key is not hex: %w", err)
	}
	if len(raw) != 32 {
		return nil, fmt.Errorf("encryption key must be 32 bytes, got %d", len(raw))
	}
	return &Key{raw: raw}, nil
}

func (k *Key) gcm() (cipher.AEAD, error) {
	block, err := aes.NewCipher(k.raw)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCMWithNonceSize(block, ivLength)
}

// Encrypt seals text into the "iv:tag:payload" hex form.
func (k *Key) Encrypt(text string) (string, error) {
	gcm, err := k.gcm()
	if err != nil {
		return "", err
	}
	iv := make([]byte, ivLength)
	if _, err := rand.Read(iv); err != nil {
		return "", err
	}

	sealed := gcm.Seal(nil, iv, []byte(text), nil)
	// Seal appends the tag; split it back out for the wire format.
	payload := sealed[:len(sealed)-gcm.Overhead()]
	tag := sealed[len(sealed)-gcm.Overhead():]

	return strings.Join(
		[]string{
			hex.EncodeToString(iv),
			hex.EncodeToString(tag),
			hex.EncodeToString(payload),
		},
		":",
	), nil
}

// Decrypt opens a ciphertext produced by Encrypt.
func (k *Key) Decrypt(ciphertext string) (string, error) {
	parts := strings.Split(ciphertext, ":")
	if len(parts) != 3 {
		return "", ErrMalformedCiphertext
	}
	iv, err := hex.DecodeString(parts[0])
	if err != nil || len(iv) != ivLength {
		return "", ErrMalformedCiphertext
	}
	tag, err := hex.DecodeString(parts[1])
	if err != nil {
		return "", ErrMalformedCiphertext
	}
	payload, err := hex.DecodeString(parts[2])
	if err != nil {
		return "", ErrMalformedCiphertext
	}

	gcm, err := k.gcm()
	if err != nil {
		return "", err
	}
	plain, err := gcm.Open(nil, iv, append(payload, tag...), nil)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrMalformedCiphertext, err)
	}
	return string(plain), nil
}

// Seal stores secret for persistence: encrypted when a key is
// configured, tagged plaintext otherwise.
func Seal(key *Key, secret string) (string, error) {
	if key == nil {
		return prefixPlain + secret, nil
	}
	enc, err := key.Encrypt(secret)
	if err != nil {
		return "", err
	}
	return prefixEnc + enc, nil
}

// Open reverses Seal.
func Open(key *Key, stored string) (string, error) {
	if enc, ok := strings.CutPrefix(stored, prefixEnc); ok {
		if key == nil {
			return "", errors.New("encrypted secret but no encryption key configured")
		}
		return key.Decrypt(enc)
	}
	if plain, ok := strings.CutPrefix(stored, prefixPlain); ok {
		return plain, nil
	}
	return stored, nil
}

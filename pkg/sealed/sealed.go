// Package sealed encrypts small secrets, such as session tokens, before they
// are written to persistent storage.
package sealed

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/nacl/secretbox"
)

const nonceSize = 24

// ErrOpen is returned when a sealed value cannot be authenticated.
var ErrOpen = errors.New("sealed value cannot be opened")

// Box seals and opens values with a key derived from a shared secret.
type Box struct {
	key [32]byte
}

// New derives a key for purpose from secret.
func New(secret, purpose string) (*Box, error) {
	if secret == "" {
		return nil, errors.New("sealing secret is required")
	}
	b := &Box{}
	kdf := hkdf.New(sha256.New, []byte(secret), nil, []byte(purpose))
	if _, err := io.ReadFull(kdf, b.key[:]); err != nil {
		return nil, fmt.Errorf("derive sealing key: %w", err)
	}
	return b, nil
}

// Seal encrypts plaintext behind a random nonce.
func (b *Box) Seal(plaintext []byte) ([]byte, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	return secretbox.Seal(nonce[:], plaintext, &nonce, &b.key), nil
}

// Open authenticates and decrypts a value produced by Seal.
func (b *Box) Open(sealed []byte) ([]byte, error) {
	if len(sealed) < nonceSize+secretbox.Overhead {
		return nil, ErrOpen
	}
	var nonce [nonceSize]byte
	copy(nonce[:], sealed[:nonceSize])
	out, ok := secretbox.Open(nil, sealed[nonceSize:], &nonce, &b.key)
	if !ok {
		return nil, ErrOpen
	}
	return out, nil
}

// SealString seals s and encodes the result for text storage.
func (b *Box) SealString(s string) (string, error) {
	raw, err := b.Seal([]byte(s))
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// OpenString reverses SealString.
func (b *Box) OpenString(s string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return "", ErrOpen
	}
	out, err := b.Open(raw)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

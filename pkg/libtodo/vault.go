package libtodo

import (
	"hash"
	"io"

	sargon2 "github.com/mdouchement/simple-argon2"
	"github.com/pkg/errors"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// SealVersion is the first byte of every sealed payload.
const SealVersion byte = 0x01

var kdfInfo = []byte("todokernel:record:v1")

// DeriveKey expands key material (an owner identifier) into a symmetric key.
// The same key material always gives the same key.
func DeriveKey(keyMaterial string) []byte {
	nhash := func() hash.Hash {
		h, err := blake2b.New256(nil)
		if err != nil {
			panic(err)
		}
		return h
	}

	key := make([]byte, chacha20poly1305.KeySize)

	kdf := hkdf.New(nhash, []byte(keyMaterial), nil, kdfInfo)
	if _, err := io.ReadFull(kdf, key); err != nil {
		panic(err)
	}

	return key
}

// Seal encrypts and authenticates plaintext with the key derived from keyMaterial.
// The result is version || nonce || ciphertext.
func Seal(plaintext []byte, keyMaterial string) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(DeriveKey(keyMaterial))
	if err != nil {
		return nil, errors.Wrap(err, "could not create cipher")
	}

	nonce, err := sargon2.GenerateRandomBytes(uint32(aead.NonceSize()))
	if err != nil {
		return nil, errors.Wrap(err, "could not generate nonce")
	}

	header := []byte{SealVersion}

	sealed := make([]byte, 0, len(header)+len(nonce)+len(plaintext)+aead.Overhead())
	sealed = append(sealed, header...)
	sealed = append(sealed, nonce...)
	return aead.Seal(sealed, nonce, plaintext, header), nil
}

// Open decrypts a payload produced by Seal with the same key material.
// It never returns partially decrypted bytes.
func Open(sealed []byte, keyMaterial string) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(DeriveKey(keyMaterial))
	if err != nil {
		return nil, errors.Wrap(err, "could not create cipher")
	}

	if len(sealed) < 1+aead.NonceSize()+aead.Overhead() {
		return nil, &CryptoError{Err: ErrMalformed}
	}

	if sealed[0] != SealVersion {
		return nil, &CryptoError{Err: ErrMalformed}
	}

	header := sealed[:1]
	nonce := sealed[1 : 1+aead.NonceSize()]
	ciphertext := sealed[1+aead.NonceSize():]

	plaintext := make([]byte, 0, len(ciphertext)-aead.Overhead())
	plaintext, err = aead.Open(plaintext, nonce, ciphertext, header)
	if err != nil {
		return nil, &CryptoError{Err: ErrAuthenticationFailed}
	}
	return plaintext, nil
}

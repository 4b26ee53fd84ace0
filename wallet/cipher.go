package wallet

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// pbkdf2Iterations is deliberately high so offline brute force against a
	// stolen wallet file stays expensive.
	pbkdf2Iterations = 100000

	encryptionKeyLen = 32
	saltLen          = 32
	nonceLen         = 12
)

// ErrDecryptionFailed covers every authentication failure the same way:
// wrong password, corrupted salt or nonce, tampered ciphertext. The caller
// cannot tell which, and neither can anyone probing the wallet.
var ErrDecryptionFailed = errors.New("wallet decryption failed")

// SealedBlob is the output of one Encrypt call. Salt and nonce are fresh per
// call, so sealing the same plaintext under the same password twice never
// repeats a ciphertext.
type SealedBlob struct {
	Ciphertext []byte
	Salt       []byte
	Nonce      []byte
}

// DeriveEncryptionKey stretches password into a 32-byte AES key with
// PBKDF2-HMAC-SHA256.
func DeriveEncryptionKey(password, salt []byte) []byte {
	return pbkdf2.Key(password, salt, pbkdf2Iterations, encryptionKeyLen, sha256.New)
}

// Encrypt seals plaintext under password with AES-256-GCM, drawing a fresh
// salt and nonce from random.
func Encrypt(plaintext, password []byte, random io.Reader) (*SealedBlob, error) {
	salt := make([]byte, saltLen)
	if _, err := io.ReadFull(random, salt); err != nil {
		return nil, fmt.Errorf("could not generate salt: %w", err)
	}

	nonce := make([]byte, nonceLen)
	if _, err := io.ReadFull(random, nonce); err != nil {
		return nil, fmt.Errorf("could not generate nonce: %w", err)
	}

	aead, err := newAEAD(DeriveEncryptionKey(password, salt))
	if err != nil {
		return nil, err
	}

	return &SealedBlob{
		Ciphertext: aead.Seal(nil, nonce, plaintext, nil),
		Salt:       salt,
		Nonce:      nonce,
	}, nil
}

// Decrypt opens ciphertext sealed by Encrypt. Any authentication failure
// comes back as ErrDecryptionFailed.
func Decrypt(ciphertext, password, salt, nonce []byte) ([]byte, error) {
	if len(nonce) != nonceLen {
		return nil, ErrDecryptionFailed
	}

	aead, err := newAEAD(DeriveEncryptionKey(password, salt))
	if err != nil {
		return nil, err
	}

	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return plaintext, nil
}

func newAEAD(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

package key

import (
	"errors"
	"io"
	"math/big"

	"github.com/ethereum/go-ethereum/crypto"
)

const (
	// SignatureLength is the exact size of the signature accepted by
	// FromSignature (r ‖ s ‖ v).
	SignatureLength = 65

	scalarLength = 32
)

var (
	ErrInvalidSignatureLength = errors.New("signature must be exactly 65 bytes")
	ErrInvalidDerivedKey      = errors.New("derived scalar is outside the valid key range")
)

var curveOrder = crypto.S256().Params().N

// PrivateScalar is a secp256k1 private key. A constructed value always lies
// strictly inside (0, curve order).
type PrivateScalar struct {
	d *big.Int
}

// NewPrivateScalar interprets b as a big-endian integer and rejects anything
// outside the valid key range.
func NewPrivateScalar(b []byte) (PrivateScalar, error) {
	d := new(big.Int).SetBytes(b)
	if d.Sign() == 0 || d.Cmp(curveOrder) >= 0 {
		return PrivateScalar{}, ErrInvalidDerivedKey
	}
	return PrivateScalar{d: d}, nil
}

// Bytes returns the scalar as a fixed 32-byte big-endian slice.
func (s PrivateScalar) Bytes() []byte {
	b := make([]byte, scalarLength)
	s.d.FillBytes(b)
	return b
}

// BigInt returns a copy of the scalar value.
func (s PrivateScalar) BigInt() *big.Int {
	return new(big.Int).Set(s.d)
}

// Public derives the compressed public point for this scalar.
func (s PrivateScalar) Public() PublicPoint {
	x, y := crypto.S256().ScalarBaseMult(s.Bytes())
	return compressCoords(x, y)
}

func (s PrivateScalar) Equal(o PrivateScalar) bool {
	if s.d == nil || o.d == nil {
		return s.d == o.d
	}
	return s.d.Cmp(o.d) == 0
}

// Key holds the long-lived dual key pair of a wallet. The spend key controls
// funds sent to derived one-time addresses; the view key only lets its holder
// recognise them.
type Key struct {
	privSpend PrivateScalar
	privView  PrivateScalar

	PubSpend PublicPoint
	PubView  PublicPoint
}

// NewKeyPair draws two independent scalars from random. Each draw is
// rejection-sampled into the valid key range.
func NewKeyPair(random io.Reader) (*Key, error) {
	privSpend, err := randomScalar(random)
	if err != nil {
		return nil, err
	}

	privView, err := randomScalar(random)
	if err != nil {
		return nil, err
	}

	// The spend and view keys must be distinct.
	for privView.Equal(privSpend) {
		privView, err = randomScalar(random)
		if err != nil {
			return nil, err
		}
	}

	return newKey(privSpend, privView), nil
}

// FromSignature derives the key pair deterministically from a 65-byte
// signature: the r-half hashes to the spend key, the s-half to the view key.
// Reusing a signature across contexts links the resulting wallets.
func FromSignature(sig []byte) (*Key, error) {
	if len(sig) != SignatureLength {
		return nil, ErrInvalidSignatureLength
	}

	privSpend, err := NewPrivateScalar(crypto.Keccak256(sig[:32]))
	if err != nil {
		return nil, err
	}

	privView, err := NewPrivateScalar(crypto.Keccak256(sig[32:64]))
	if err != nil {
		return nil, err
	}

	return newKey(privSpend, privView), nil
}

// FromScalars rebuilds a key pair from its two private scalars, as stored in
// an encrypted wallet file.
func FromScalars(spend, view []byte) (*Key, error) {
	privSpend, err := NewPrivateScalar(spend)
	if err != nil {
		return nil, err
	}

	privView, err := NewPrivateScalar(view)
	if err != nil {
		return nil, err
	}

	return newKey(privSpend, privView), nil
}

func newKey(privSpend, privView PrivateScalar) *Key {
	return &Key{
		privSpend: privSpend,
		privView:  privView,
		PubSpend:  privSpend.Public(),
		PubView:   privView.Public(),
	}
}

func (k *Key) PrivateSpend() PrivateScalar {
	return k.privSpend
}

func (k *Key) PrivateView() PrivateScalar {
	return k.privView
}

func randomScalar(random io.Reader) (PrivateScalar, error) {
	b := make([]byte, scalarLength)
	for {
		if _, err := io.ReadFull(random, b); err != nil {
			return PrivateScalar{}, err
		}

		s, err := NewPrivateScalar(b)
		if err == nil {
			zero(b)
			return s, nil
		}
	}
}

// zero wipes a scratch buffer that held private material.
func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

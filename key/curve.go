package key

import (
	"crypto/ecdsa"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// PublicPointLength is the size of a compressed secp256k1 point.
const PublicPointLength = 33

var ErrInvalidPublicKey = errors.New("invalid compressed public key")

// PublicPoint is a secp256k1 curve point in 33-byte compressed form
// (0x02/0x03 prefix plus the x-coordinate).
type PublicPoint [PublicPointLength]byte

// NewPublicPoint validates b and copies it into a PublicPoint. It fails on
// anything that is not a compressed encoding of a point on the curve.
func NewPublicPoint(b []byte) (PublicPoint, error) {
	if !IsValidPublicKey(b) {
		return PublicPoint{}, ErrInvalidPublicKey
	}
	var p PublicPoint
	copy(p[:], b)
	return p, nil
}

// IsValidPublicKey reports whether b is a 33-byte compressed encoding of a
// point actually on the curve, not merely well-formed.
func IsValidPublicKey(b []byte) bool {
	if len(b) != PublicPointLength {
		return false
	}
	if b[0] != 0x02 && b[0] != 0x03 {
		return false
	}
	_, err := crypto.DecompressPubkey(b)
	return err == nil
}

func (p PublicPoint) Bytes() []byte {
	b := make([]byte, PublicPointLength)
	copy(b, p[:])
	return b
}

func (p PublicPoint) Hex() string {
	return hexutil.Encode(p[:])
}

func (p PublicPoint) decompress() (*ecdsa.PublicKey, error) {
	pub, err := crypto.DecompressPubkey(p[:])
	if err != nil {
		return nil, ErrInvalidPublicKey
	}
	return pub, nil
}

// Address derives the account address controlled by the private key behind
// this point.
func (p PublicPoint) Address() (common.Address, error) {
	pub, err := p.decompress()
	if err != nil {
		return common.Address{}, err
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// SharedSecret computes the ECDH shared point priv * pub in compressed form.
func SharedSecret(priv PrivateScalar, pub PublicPoint) (PublicPoint, error) {
	p, err := pub.decompress()
	if err != nil {
		return PublicPoint{}, err
	}
	x, y := crypto.S256().ScalarMult(p.X, p.Y, priv.Bytes())
	return compressCoords(x, y), nil
}

// AddScalarBaseMult computes p + k*G in compressed form.
func AddScalarBaseMult(p PublicPoint, k *big.Int) (PublicPoint, error) {
	pub, err := p.decompress()
	if err != nil {
		return PublicPoint{}, err
	}
	gx, gy := crypto.S256().ScalarBaseMult(k.Bytes())
	x, y := crypto.S256().Add(pub.X, pub.Y, gx, gy)
	return compressCoords(x, y), nil
}

// CurveOrder returns a copy of the secp256k1 group order.
func CurveOrder() *big.Int {
	return new(big.Int).Set(curveOrder)
}

func compressCoords(x, y *big.Int) PublicPoint {
	var p PublicPoint
	copy(p[:], crypto.CompressPubkey(&ecdsa.PublicKey{Curve: crypto.S256(), X: x, Y: y}))
	return p
}

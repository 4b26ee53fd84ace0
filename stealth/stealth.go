// Package stealth implements the sender and recipient sides of the dual-key
// stealth address scheme: a sender turns a recipient's meta-address into a
// fresh one-time address, and the recipient recognises such addresses and
// recomputes their private keys.
package stealth

import (
	"errors"
	"io"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/nerolation/nachtara/key"
)

var (
	ErrDerivedKeyInvalid = errors.New("recovered stealth private key is zero")
	ErrEmptyMetadata     = errors.New("metadata must carry at least the view tag byte")
)

// Ephemeral is a single-use key pair generated by the sender for one payment.
// Its private half never leaves the sender's process.
type Ephemeral struct {
	Priv key.PrivateScalar
	Pub  key.PublicPoint
}

// NewEphemeral draws a fresh ephemeral pair from random.
func NewEphemeral(random io.Reader) (*Ephemeral, error) {
	k, err := key.NewKeyPair(random)
	if err != nil {
		return nil, err
	}
	return &Ephemeral{Priv: k.PrivateSpend(), Pub: k.PubSpend}, nil
}

// Info is what a sender publishes for one payment: the one-time address, the
// ephemeral public key the recipient needs to claim it, and the view tag.
type Info struct {
	Address      common.Address
	EphemeralPub key.PublicPoint
	ViewTag      byte
}

// Generate derives a one-time address for the recipient behind meta. If eph
// is nil a fresh ephemeral pair is drawn from random.
func Generate(meta []byte, eph *Ephemeral, random io.Reader) (*Info, error) {
	spendPub, viewPub, err := key.ParseMetaAddress(meta)
	if err != nil {
		return nil, err
	}
	if !key.IsValidPublicKey(spendPub.Bytes()) || !key.IsValidPublicKey(viewPub.Bytes()) {
		return nil, key.ErrInvalidPublicKey
	}

	if eph == nil {
		eph, err = NewEphemeral(random)
		if err != nil {
			return nil, err
		}
	}

	shared, err := key.SharedSecret(eph.Priv, viewPub)
	if err != nil {
		return nil, err
	}
	sharedHash := crypto.Keccak256(shared[:])

	stealthPub, err := key.AddScalarBaseMult(spendPub, hashToScalar(sharedHash))
	if err != nil {
		return nil, err
	}
	addr, err := stealthPub.Address()
	if err != nil {
		return nil, err
	}

	return &Info{
		Address:      addr,
		EphemeralPub: eph.Pub,
		// The tag leaks 8 bits of the shared secret so recipients can drop
		// 255/256 of foreign announcements without a point addition.
		ViewTag: sharedHash[0],
	}, nil
}

// Recognize reports whether the announcement described by ephPub, claimed and
// tag pays the key pair (spendPub, viewPriv). The view tag check runs before
// any further curve arithmetic; a mismatch returns immediately.
//
// The tag comparison is an ordinary byte inequality and therefore variable
// time. Making it constant time would cost the fast path its point.
func Recognize(ephPub, spendPub key.PublicPoint, viewPriv key.PrivateScalar, claimed common.Address, tag byte) (bool, error) {
	shared, err := key.SharedSecret(viewPriv, ephPub)
	if err != nil {
		return false, err
	}
	sharedHash := crypto.Keccak256(shared[:])

	if sharedHash[0] != tag {
		return false, nil
	}

	stealthPub, err := key.AddScalarBaseMult(spendPub, hashToScalar(sharedHash))
	if err != nil {
		return false, err
	}
	addr, err := stealthPub.Address()
	if err != nil {
		return false, err
	}

	return addr == claimed, nil
}

// RecoverPrivateKey recomputes the private key of the one-time address
// announced with ephPub. Only the holder of both private halves can do this.
func RecoverPrivateKey(ephPub key.PublicPoint, spendPriv, viewPriv key.PrivateScalar) (key.PrivateScalar, error) {
	shared, err := key.SharedSecret(viewPriv, ephPub)
	if err != nil {
		return key.PrivateScalar{}, err
	}
	sharedHash := crypto.Keccak256(shared[:])

	d := new(big.Int).Add(spendPriv.BigInt(), hashToScalar(sharedHash))
	d.Mod(d, key.CurveOrder())
	if d.Sign() == 0 {
		return key.PrivateScalar{}, ErrDerivedKeyInvalid
	}

	b := make([]byte, 32)
	d.FillBytes(b)
	return key.NewPrivateScalar(b)
}

// PackMetadata builds announcement metadata: the view tag first, any extra
// scheme-specific bytes appended verbatim.
func PackMetadata(tag byte, extra []byte) []byte {
	md := make([]byte, 0, 1+len(extra))
	md = append(md, tag)
	return append(md, extra...)
}

// UnpackViewTag extracts the view tag from announcement metadata.
func UnpackViewTag(metadata []byte) (byte, error) {
	if len(metadata) == 0 {
		return 0, ErrEmptyMetadata
	}
	return metadata[0], nil
}

func hashToScalar(h []byte) *big.Int {
	return new(big.Int).Mod(new(big.Int).SetBytes(h), key.CurveOrder())
}

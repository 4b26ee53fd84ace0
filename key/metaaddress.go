package key

import (
	"errors"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// MetaAddressLength is the size of a full meta-address: the compressed spend
// key followed by the compressed view key.
const MetaAddressLength = 2 * PublicPointLength

var ErrInvalidMetaAddressLength = errors.New("meta-address must be 33 or 66 bytes")

// MetaAddress is the recipient's published pair of compressed public keys,
// spend first, view second.
type MetaAddress [MetaAddressLength]byte

// MetaAddress encodes the key pair's public halves for publication.
func (k *Key) MetaAddress() MetaAddress {
	var m MetaAddress
	copy(m[:PublicPointLength], k.PubSpend[:])
	copy(m[PublicPointLength:], k.PubView[:])
	return m
}

func (m MetaAddress) Bytes() []byte {
	b := make([]byte, MetaAddressLength)
	copy(b, m[:])
	return b
}

// String renders the wire format: 0x followed by 132 hex characters.
func (m MetaAddress) String() string {
	return hexutil.Encode(m[:])
}

// ParseMetaAddress splits b into the spend and view public points. A single
// 33-byte key serves both roles. Curve membership is not checked here;
// callers that need it go through NewPublicPoint or IsValidPublicKey.
func ParseMetaAddress(b []byte) (spend, view PublicPoint, err error) {
	switch len(b) {
	case PublicPointLength:
		copy(spend[:], b)
		copy(view[:], b)
		return spend, view, nil
	case MetaAddressLength:
		copy(spend[:], b[:PublicPointLength])
		copy(view[:], b[PublicPointLength:])
		return spend, view, nil
	default:
		return PublicPoint{}, PublicPoint{}, ErrInvalidMetaAddressLength
	}
}

// ParseMetaAddressHex decodes the 0x-prefixed wire form and splits it.
func ParseMetaAddressHex(s string) (spend, view PublicPoint, err error) {
	b, err := hexutil.Decode(s)
	if err != nil {
		return PublicPoint{}, PublicPoint{}, err
	}
	return ParseMetaAddress(b)
}

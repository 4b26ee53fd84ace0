// Package scanner applies the stealth address engine across a sequence of
// announcement records to discover payments owned by a key pair. It holds no
// state of its own; fetching announcements and tracking a cursor are the
// caller's concern.
package scanner

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/nerolation/nachtara/key"
	"github.com/nerolation/nachtara/stealth"
)

// Announcement is one on-chain record pairing an ephemeral public key and
// metadata with a claimed one-time address. Read-only input to Scan.
type Announcement struct {
	EphemeralPub []byte
	Metadata     []byte
	Address      common.Address
	BlockHeight  uint64
	TxHash       common.Hash
}

// ViewTag returns the first metadata byte.
func (a *Announcement) ViewTag() (byte, error) {
	return stealth.UnpackViewTag(a.Metadata)
}

// Match is an announcement recognised as ours, together with the recomputed
// private key controlling its address.
type Match struct {
	Announcement Announcement
	PrivateKey   key.PrivateScalar
}

// Scan checks each announcement in arrival order against keys and returns
// the owned ones, in original relative order. Malformed announcements (empty
// metadata, ill-formed ephemeral key) are simply not ours and are skipped.
// Scan is pure and restartable from any point in the sequence.
func Scan(anns []Announcement, keys *key.Key) ([]Match, error) {
	var matches []Match

	spendPub := keys.PubSpend
	spendPriv := keys.PrivateSpend()
	viewPriv := keys.PrivateView()

	for _, ann := range anns {
		tag, err := ann.ViewTag()
		if err != nil {
			continue
		}

		ephPub, err := key.NewPublicPoint(ann.EphemeralPub)
		if err != nil {
			continue
		}

		ours, err := stealth.Recognize(ephPub, spendPub, viewPriv, ann.Address, tag)
		if err != nil || !ours {
			continue
		}

		priv, err := stealth.RecoverPrivateKey(ephPub, spendPriv, viewPriv)
		if err != nil {
			return nil, err
		}

		matches = append(matches, Match{Announcement: ann, PrivateKey: priv})
	}

	return matches, nil
}

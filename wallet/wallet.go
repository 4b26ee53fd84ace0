package wallet

import (
	"errors"
	"io"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/syndtr/goleveldb/leveldb"

	"github.com/nerolation/nachtara/database"
	"github.com/nerolation/nachtara/key"
	"github.com/nerolation/nachtara/scanner"
)

// Wallet ties the long-lived key pair to the local database that tracks the
// scan cursor and the payments discovered so far.
type Wallet struct {
	db      *database.DB
	chainID uint64
	keyPair *key.Key
}

// New creates a fresh wallet: a key pair drawn from random, sealed to file
// under password, with the scan cursor initialised to zero.
func New(random io.Reader, db *database.DB, chainID uint64, password []byte, file string) (*Wallet, error) {
	keyPair, err := key.NewKeyPair(random)
	if err != nil {
		return nil, err
	}

	if err := Save(keyPair, password, file, random); err != nil {
		return nil, err
	}

	return open(keyPair, db, chainID)
}

// FromSignature creates a wallet deterministically from a 65-byte signature
// and seals it to file. Same signature, same wallet — this is the recovery
// path.
func FromSignature(sig []byte, random io.Reader, db *database.DB, chainID uint64, password []byte, file string) (*Wallet, error) {
	keyPair, err := key.FromSignature(sig)
	if err != nil {
		return nil, err
	}

	if err := Save(keyPair, password, file, random); err != nil {
		return nil, err
	}

	return open(keyPair, db, chainID)
}

// LoadFromFile opens an existing wallet file with password.
func LoadFromFile(db *database.DB, chainID uint64, password []byte, file string) (*Wallet, error) {
	keyPair, err := Load(file, password)
	if err != nil {
		return nil, err
	}

	return open(keyPair, db, chainID)
}

func open(keyPair *key.Key, db *database.DB, chainID uint64) (*Wallet, error) {
	w := &Wallet{
		db:      db,
		chainID: chainID,
		keyPair: keyPair,
	}

	// Check if this chain has been scanned before
	_, err := db.GetScanHeight(chainID)
	if err == nil {
		return w, nil
	}

	if err != leveldb.ErrNotFound {
		return nil, err
	}

	if err := db.UpdateScanHeight(chainID, 0); err != nil {
		return nil, err
	}

	return w, nil
}

// CheckAnnouncements runs one batch of announcements, starting at height,
// through the scanner. Discovered payments are stored encrypted and the
// cursor advances past the batch. The batch must begin exactly at the saved
// cursor so a restarted scan can never skip or double-count a block.
func (w *Wallet) CheckAnnouncements(height uint64, anns []scanner.Announcement) (uint64, error) {
	savedHeight, err := w.GetSavedHeight()
	if err != nil {
		return 0, err
	}

	if height != savedHeight {
		return 0, errors.New("batch does not start at the last scanned height")
	}

	matches, err := scanner.Scan(anns, w.keyPair)
	if err != nil {
		return 0, err
	}

	storageKey := w.storageKey()
	for _, m := range matches {
		p := database.NewPayment(&m.Announcement, m.PrivateKey)
		if err := w.db.PutPayment(storageKey, p); err != nil {
			return uint64(len(matches)), err
		}
	}

	nextHeight := height
	for _, ann := range anns {
		if ann.BlockHeight >= nextHeight {
			nextHeight = ann.BlockHeight + 1
		}
	}

	if err := w.db.UpdateScanHeight(w.chainID, nextHeight); err != nil {
		return uint64(len(matches)), err
	}

	return uint64(len(matches)), nil
}

// Payments returns every stored payment, decrypted.
func (w *Wallet) Payments() ([]database.Payment, error) {
	return w.db.FetchPayments(w.storageKey())
}

func (w *Wallet) GetSavedHeight() (uint64, error) {
	return w.db.GetScanHeight(w.chainID)
}

func (w *Wallet) MetaAddress() key.MetaAddress {
	return w.keyPair.MetaAddress()
}

func (w *Wallet) PublicAddress() (string, error) {
	addr, err := w.keyPair.PubSpend.Address()
	if err != nil {
		return "", err
	}
	return addr.Hex(), nil
}

func (w *Wallet) Keys() *key.Key {
	return w.keyPair
}

// storageKey derives the at-rest encryption key for the payment store from
// the view key. The spend key never touches storage.
func (w *Wallet) storageKey() []byte {
	return crypto.Keccak256(w.keyPair.PrivateView().Bytes())
}

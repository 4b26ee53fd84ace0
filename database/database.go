package database

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"
)

type DB struct {
	storage *leveldb.DB
}

var (
	paymentPrefix    = []byte("payment")
	scanHeightPrefix = []byte("syncedHeight")

	writeOptions = &opt.WriteOptions{NoWriteMerge: false, Sync: true}
)

func New(path string) (*DB, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("wallet cannot be used without database %s", err.Error())
	}
	return &DB{storage: db}, nil
}

func (db *DB) Put(key, value []byte) error {
	return db.storage.Put(key, value, nil)
}

// PutPayment stores a discovered payment, encrypted under encryptionKey.
// The record is keyed by tx hash and address so re-scanning the same range
// overwrites rather than duplicates.
func (db *DB) PutPayment(encryptionKey []byte, p *Payment) error {
	buf := &bytes.Buffer{}
	if err := p.Encode(buf); err != nil {
		return err
	}

	encryptedBytes, err := encrypt(buf.Bytes(), encryptionKey)
	if err != nil {
		return err
	}

	key := append(paymentPrefix, p.TxHash.Bytes()...)
	key = append(key, p.Address.Bytes()...)

	return db.storage.Put(key, encryptedBytes, writeOptions)
}

// FetchPayments decrypts and returns every stored payment.
func (db *DB) FetchPayments(decryptionKey []byte) ([]Payment, error) {
	var payments []Payment

	iter := db.storage.NewIterator(util.BytesPrefix(paymentPrefix), nil)
	defer iter.Release()
	for iter.Next() {
		val := iter.Value()

		encryptedBytes := make([]byte, len(val))
		copy(encryptedBytes[:], val)

		decryptedBytes, err := decrypt(encryptedBytes, decryptionKey)
		if err != nil {
			return nil, err
		}

		p := Payment{}
		if err := p.Decode(bytes.NewBuffer(decryptedBytes)); err != nil {
			return nil, err
		}

		payments = append(payments, p)
	}

	if err := iter.Error(); err != nil {
		return nil, err
	}

	return payments, nil
}

func (db *DB) GetScanHeight(chainID uint64) (uint64, error) {
	heightBytes, err := db.storage.Get(scanHeightKey(chainID), nil)
	if err != nil {
		return 0, err
	}

	height := binary.LittleEndian.Uint64(heightBytes)
	return height, nil
}

func (db *DB) UpdateScanHeight(chainID, newHeight uint64) error {
	heightBytes := make([]byte, 8)
	binary.LittleEndian.PutUint64(heightBytes, newHeight)
	return db.Put(scanHeightKey(chainID), heightBytes)
}

func scanHeightKey(chainID uint64) []byte {
	key := make([]byte, len(scanHeightPrefix)+8)
	copy(key, scanHeightPrefix)
	binary.LittleEndian.PutUint64(key[len(scanHeightPrefix):], chainID)
	return key
}

func (db *DB) Get(key []byte) ([]byte, error) {
	return db.storage.Get(key, nil)
}

func (db *DB) Delete(key []byte) error {
	return db.storage.Delete(key, nil)
}

func (db *DB) Close() error {
	return db.storage.Close()
}

// Records are sealed with AES-256-GCM; the nonce is prepended to the sealed
// bytes.
func encrypt(plaintext, key []byte) ([]byte, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	return append(nonce, aead.Seal(nil, nonce, plaintext, nil)...), nil
}

func decrypt(ciphertext, key []byte) ([]byte, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < aead.NonceSize() {
		return nil, errors.New("ciphertext shorter than nonce")
	}

	nonce, sealed := ciphertext[:aead.NonceSize()], ciphertext[aead.NonceSize():]
	return aead.Open(nil, nonce, sealed, nil)
}

func newAEAD(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

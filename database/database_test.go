package database

import (
	"bytes"
	"crypto/rand"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/syndtr/goleveldb/leveldb"

	"github.com/nerolation/nachtara/key"
	"github.com/nerolation/nachtara/scanner"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(filepath.Join(t.TempDir(), "db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestPutGet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db")

	db, err := New(path)
	require.NoError(t, err)

	// Put
	k := []byte("hello")
	value := []byte("world")
	require.NoError(t, db.Put(k, value))

	// Close and re-open database
	require.NoError(t, db.Close())
	db, err = New(path)
	require.NoError(t, err)
	defer db.Close()

	// Get
	val, err := db.Get(k)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(val, value))

	// Delete
	require.NoError(t, db.Delete(k))

	// Get after delete
	_, err = db.Get(k)
	assert.Equal(t, leveldb.ErrNotFound, err)
}

func TestScanHeightPerChain(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetScanHeight(1)
	assert.Equal(t, leveldb.ErrNotFound, err)

	require.NoError(t, db.UpdateScanHeight(1, 42))
	require.NoError(t, db.UpdateScanHeight(5, 1000))

	height, err := db.GetScanHeight(1)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), height)

	height, err = db.GetScanHeight(5)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), height)
}

func TestPaymentRoundTrip(t *testing.T) {
	db := newTestDB(t)

	encryptionKey := make([]byte, 32)
	_, err := rand.Read(encryptionKey)
	require.NoError(t, err)

	p := randPayment(t, 7)
	require.NoError(t, db.PutPayment(encryptionKey, p))

	payments, err := db.FetchPayments(encryptionKey)
	require.NoError(t, err)
	require.Len(t, payments, 1)

	got := payments[0]
	assert.Equal(t, p.Timestamp, got.Timestamp)
	assert.Equal(t, p.BlockHeight, got.BlockHeight)
	assert.Equal(t, p.TxHash, got.TxHash)
	assert.Equal(t, p.Address, got.Address)
	assert.Equal(t, p.EphemeralPub, got.EphemeralPub)
	assert.True(t, p.PrivateKey.Equal(got.PrivateKey))
}

func TestPaymentOverwriteNotDuplicate(t *testing.T) {
	db := newTestDB(t)

	encryptionKey := make([]byte, 32)
	_, err := rand.Read(encryptionKey)
	require.NoError(t, err)

	p := randPayment(t, 3)
	require.NoError(t, db.PutPayment(encryptionKey, p))
	require.NoError(t, db.PutPayment(encryptionKey, p))

	payments, err := db.FetchPayments(encryptionKey)
	require.NoError(t, err)
	assert.Len(t, payments, 1)
}

func TestFetchPaymentsWrongKey(t *testing.T) {
	db := newTestDB(t)

	encryptionKey := make([]byte, 32)
	_, err := rand.Read(encryptionKey)
	require.NoError(t, err)

	require.NoError(t, db.PutPayment(encryptionKey, randPayment(t, 1)))

	wrongKey := make([]byte, 32)
	_, err = rand.Read(wrongKey)
	require.NoError(t, err)

	_, err = db.FetchPayments(wrongKey)
	assert.Error(t, err)
}

func randPayment(t *testing.T, height uint64) *Payment {
	t.Helper()

	keys, err := key.NewKeyPair(rand.Reader)
	require.NoError(t, err)

	var txHash common.Hash
	_, err = rand.Read(txHash[:])
	require.NoError(t, err)

	ann := scanner.Announcement{
		EphemeralPub: keys.PubView.Bytes(),
		Metadata:     []byte{0x42},
		Address:      common.BytesToAddress(txHash[:20]),
		BlockHeight:  height,
		TxHash:       txHash,
	}

	return NewPayment(&ann, keys.PrivateSpend())
}

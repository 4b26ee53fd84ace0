package wallet

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/nerolation/nachtara/key"
)

// FileVersion is the only wallet file layout this build reads or writes.
const FileVersion = 1

var (
	ErrWalletFileExists           = errors.New("wallet file already exists")
	ErrUnsupportedWalletVersion   = errors.New("unsupported wallet file version")
	ErrWalletIntegrityCheckFailed = errors.New("decrypted keys do not match the stored meta-address")
)

// File is the persisted form of a wallet: the key pair sealed under a
// password, plus enough public material to identify the wallet without
// decrypting it.
type File struct {
	Version     int    `json:"version"`
	Address     string `json:"address"`
	MetaAddress string `json:"metaAddress"`
	Ciphertext  string `json:"ciphertext"`
	Salt        string `json:"salt"`
	Nonce       string `json:"nonce"`
	CreatedAt   int64  `json:"createdAt"`
}

// Save seals k's private scalars under password and writes the wallet file.
// It refuses to overwrite an existing file.
func Save(k *key.Key, password []byte, path string, random io.Reader) error {
	if _, err := os.Stat(path); err == nil {
		return ErrWalletFileExists
	}

	plaintext := append(k.PrivateSpend().Bytes(), k.PrivateView().Bytes()...)
	blob, err := Encrypt(plaintext, password, random)
	clearBytes(plaintext)
	if err != nil {
		return err
	}

	addr, err := k.PubSpend.Address()
	if err != nil {
		return err
	}

	f := File{
		Version:     FileVersion,
		Address:     addr.Hex(),
		MetaAddress: k.MetaAddress().String(),
		Ciphertext:  hexutil.Encode(blob.Ciphertext),
		Salt:        hexutil.Encode(blob.Salt),
		Nonce:       hexutil.Encode(blob.Nonce),
		CreatedAt:   time.Now().Unix(),
	}

	data, err := json.MarshalIndent(&f, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

// Load reads the wallet file, opens it with password and rebuilds the key
// pair. The re-derived meta-address must match the stored one; a mismatch
// means a corrupted file or a partial write, and no keys are returned.
func Load(path string, password []byte) (*key.Key, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("malformed wallet file: %w", err)
	}

	if f.Version != FileVersion {
		return nil, ErrUnsupportedWalletVersion
	}

	ciphertext, err := hexutil.Decode(f.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("malformed wallet file: %w", err)
	}
	salt, err := hexutil.Decode(f.Salt)
	if err != nil {
		return nil, fmt.Errorf("malformed wallet file: %w", err)
	}
	nonce, err := hexutil.Decode(f.Nonce)
	if err != nil {
		return nil, fmt.Errorf("malformed wallet file: %w", err)
	}

	plaintext, err := Decrypt(ciphertext, password, salt, nonce)
	if err != nil {
		return nil, err
	}
	defer clearBytes(plaintext)

	if len(plaintext) != 64 {
		return nil, ErrWalletIntegrityCheckFailed
	}

	k, err := key.FromScalars(plaintext[:32], plaintext[32:])
	if err != nil {
		return nil, ErrWalletIntegrityCheckFailed
	}

	if k.MetaAddress().String() != f.MetaAddress {
		return nil, ErrWalletIntegrityCheckFailed
	}

	return k, nil
}

func clearBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

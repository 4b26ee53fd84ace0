package database

import (
	"bytes"
	"encoding/binary"
	"io"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/nerolation/nachtara/key"
	"github.com/nerolation/nachtara/scanner"
)

// Payment is one discovered stealth payment: the announcement it came from
// and the recomputed private key controlling its address.
type Payment struct {
	Timestamp    int64
	BlockHeight  uint64
	TxHash       common.Hash
	Address      common.Address
	EphemeralPub []byte
	PrivateKey   key.PrivateScalar
}

func NewPayment(ann *scanner.Announcement, priv key.PrivateScalar) *Payment {
	return &Payment{
		Timestamp:    time.Now().Unix(),
		BlockHeight:  ann.BlockHeight,
		TxHash:       ann.TxHash,
		Address:      ann.Address,
		EphemeralPub: ann.EphemeralPub,
		PrivateKey:   priv,
	}
}

// Schema
//
// timestamp(8) + height(8) + txhash(32) + address(20) + privkey(32) + ephemeral

func (p *Payment) Encode(b *bytes.Buffer) error {
	if err := binary.Write(b, binary.LittleEndian, p.Timestamp); err != nil {
		return err
	}

	if err := binary.Write(b, binary.LittleEndian, p.BlockHeight); err != nil {
		return err
	}

	if _, err := b.Write(p.TxHash.Bytes()); err != nil {
		return err
	}

	if _, err := b.Write(p.Address.Bytes()); err != nil {
		return err
	}

	if _, err := b.Write(p.PrivateKey.Bytes()); err != nil {
		return err
	}

	if _, err := b.Write(p.EphemeralPub); err != nil {
		return err
	}

	return nil
}

func (p *Payment) Decode(b *bytes.Buffer) error {
	if err := binary.Read(b, binary.LittleEndian, &p.Timestamp); err != nil {
		return err
	}

	if err := binary.Read(b, binary.LittleEndian, &p.BlockHeight); err != nil {
		return err
	}

	var txHash [32]byte
	if _, err := io.ReadFull(b, txHash[:]); err != nil {
		return err
	}
	p.TxHash = common.Hash(txHash)

	var addr [20]byte
	if _, err := io.ReadFull(b, addr[:]); err != nil {
		return err
	}
	p.Address = common.Address(addr)

	var privBytes [32]byte
	if _, err := io.ReadFull(b, privBytes[:]); err != nil {
		return err
	}

	priv, err := key.NewPrivateScalar(privBytes[:])
	if err != nil {
		return err
	}
	p.PrivateKey = priv

	ephemeralBytes, err := io.ReadAll(b)
	if err != nil {
		return err
	}

	p.EphemeralPub = ephemeralBytes
	return nil
}

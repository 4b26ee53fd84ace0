package main

import (
	"crypto/rand"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/nerolation/nachtara/config"
	"github.com/nerolation/nachtara/database"
	"github.com/nerolation/nachtara/key"
	"github.com/nerolation/nachtara/scanner"
	"github.com/nerolation/nachtara/stealth"
	"github.com/nerolation/nachtara/wallet"
	"golang.org/x/term"
)

// Demo harness: creates or opens a wallet, feeds it a synthetic batch of
// announcements with a few payments to itself mixed in, and lists what the
// scan recovered. Fetching real announcements over RPC plugs in at the point
// where the synthetic batch is built.

func main() {
	_ = godotenv.Load()

	if err := config.Init(); err != nil {
		panic(fmt.Sprintf("unexpected error loading config %s", err.Error()))
	}
	cfg := config.Get()

	password, err := readPassword()
	if err != nil {
		panic(fmt.Sprintf("could not read password %s", err.Error()))
	}

	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		panic(fmt.Sprintf("unexpected error opening wallet %s", err.Error()))
	}
	defer db.Close()

	w, err := openWallet(db, cfg, password)
	if err != nil {
		panic(fmt.Sprintf("unexpected error opening wallet %s", err.Error()))
	}

	pubAddr, err := w.PublicAddress()
	if err != nil {
		panic(fmt.Sprintf("could not determine the public address %s", err.Error()))
	}
	fmt.Println("wallet address:", pubAddr)
	fmt.Println("meta-address:  ", w.MetaAddress().String())

	height, err := w.GetSavedHeight()
	if err != nil {
		panic(fmt.Sprintf("could not read scan height %s", err.Error()))
	}

	anns, err := fakeAnnouncements(w.MetaAddress(), height, 64, 3)
	if err != nil {
		panic(fmt.Sprintf("could not build announcements %s", err.Error()))
	}

	found, err := w.CheckAnnouncements(height, anns)
	if err != nil {
		panic(fmt.Sprintf("could not check announcements %s", err.Error()))
	}
	fmt.Printf("scanned %d announcements, %d for us\n", len(anns), found)

	payments, err := w.Payments()
	if err != nil {
		panic(fmt.Sprintf("could not fetch payments %s", err.Error()))
	}
	for _, p := range payments {
		fmt.Printf("payment at block %d: %s\n", p.BlockHeight, p.Address.Hex())
	}
}

func openWallet(db *database.DB, cfg *config.Config, password []byte) (*wallet.Wallet, error) {
	if _, err := os.Stat(cfg.WalletPath); err == nil {
		return wallet.LoadFromFile(db, cfg.ChainID, password, cfg.WalletPath)
	}
	return wallet.New(rand.Reader, db, cfg.ChainID, password, cfg.WalletPath)
}

func readPassword() ([]byte, error) {
	if pw := os.Getenv("WALLET_PASSWORD"); pw != "" {
		return []byte(pw), nil
	}

	fmt.Fprint(os.Stderr, "Enter wallet password: ")
	defer fmt.Fprintln(os.Stderr)

	return term.ReadPassword(int(os.Stdin.Fd()))
}

// fakeAnnouncements builds a batch of total announcements starting at height,
// of which ours are addressed to meta and the rest to freshly drawn decoy
// recipients.
func fakeAnnouncements(meta key.MetaAddress, height uint64, total, ours int) ([]scanner.Announcement, error) {
	anns := make([]scanner.Announcement, 0, total)

	for i := 0; i < total; i++ {
		target := meta
		if i%(total/ours) != 0 {
			decoy, err := key.NewKeyPair(rand.Reader)
			if err != nil {
				return nil, err
			}
			target = decoy.MetaAddress()
		}

		info, err := stealth.Generate(target.Bytes(), nil, rand.Reader)
		if err != nil {
			return nil, err
		}

		var txHash common.Hash
		if _, err := rand.Read(txHash[:]); err != nil {
			return nil, err
		}

		anns = append(anns, scanner.Announcement{
			EphemeralPub: info.EphemeralPub.Bytes(),
			Metadata:     stealth.PackMetadata(info.ViewTag, nil),
			Address:      info.Address,
			BlockHeight:  height + uint64(i),
			TxHash:       txHash,
		})
	}

	return anns, nil
}

// Package solana wraps the on-chain side: key handling, transaction
// submission, and swap execution against Jupiter-built transactions.
package solana

import (
	"fmt"
	"math/big"

	sdk "github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
)

const LamportsPerSOL = 1_000_000_000

// LamportsToSOL converts a lamport amount into SOL for display.
func LamportsToSOL(lamports *big.Int) decimal.Decimal {
	return decimal.NewFromBigInt(lamports, -9)
}

// Wallet holds the signing key for all legs.
type Wallet struct {
	key sdk.PrivateKey
}

// LoadWallet parses a base58-encoded private key.
func LoadWallet(base58Key string) (*Wallet, error) {
	key, err := sdk.PrivateKeyFromBase58(base58Key)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return &Wallet{key: key}, nil
}

func (w *Wallet) PublicKey() sdk.PublicKey { return w.key.PublicKey() }

// Address returns the base58 public key.
func (w *Wallet) Address() string { return w.key.PublicKey().String() }

// Sign signs every signature slot owned by this wallet.
func (w *Wallet) Sign(tx *sdk.Transaction) error {
	_, err := tx.Sign(func(key sdk.PublicKey) *sdk.PrivateKey {
		if key.Equals(w.key.PublicKey()) {
			return &w.key
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("sign transaction: %w", err)
	}
	return nil
}

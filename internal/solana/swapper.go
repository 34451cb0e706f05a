package solana

import (
	"context"
	"encoding/base64"
	"fmt"

	bin "github.com/gagliardetto/binary"
	sdk "github.com/gagliardetto/solana-go"

	"vertex/internal/infra/log"
	"vertex/internal/jupiter"
)

// Swapper executes a single swap leg: it asks Jupiter to build the
// transaction for a quote, signs it, and submits it to the network.
type Swapper struct {
	jup    *jupiter.Client
	client *Client
	wallet *Wallet
	logger log.Logger
}

func NewSwapper(jup *jupiter.Client, client *Client, wallet *Wallet, logger log.Logger) *Swapper {
	return &Swapper{jup: jup, client: client, wallet: wallet, logger: logger}
}

// Swap executes the quote and returns the confirmed transaction signature.
func (s *Swapper) Swap(ctx context.Context, q *jupiter.Quote) (string, error) {
	built, err := s.jup.BuildSwap(ctx, q, s.wallet.Address())
	if err != nil {
		return "", fmt.Errorf("build swap %s->%s: %w", q.InputMint, q.OutputMint, err)
	}
	raw, err := base64.StdEncoding.DecodeString(built.SwapTransaction)
	if err != nil {
		return "", fmt.Errorf("decode swap transaction: %w", err)
	}
	tx, err := sdk.TransactionFromDecoder(bin.NewBinDecoder(raw))
	if err != nil {
		return "", fmt.Errorf("deserialize swap transaction: %w", err)
	}
	if err := s.wallet.Sign(tx); err != nil {
		return "", err
	}
	sig, err := s.client.SendAndConfirm(ctx, tx)
	if err != nil {
		return "", err
	}
	return sig.String(), nil
}

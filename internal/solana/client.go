package solana

import (
	"context"
	"fmt"
	"time"

	sdk "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"vertex/internal/infra/log"
)

const (
	sendMaxRetries  = uint(3)
	confirmPoll     = 2 * time.Second
	confirmDeadline = 60 * time.Second
)

// Client is a thin wrapper over the Solana JSON-RPC client.
type Client struct {
	rpc    *rpc.Client
	logger log.Logger
}

func NewClient(rpcURL string, logger log.Logger) *Client {
	return &Client{rpc: rpc.New(rpcURL), logger: logger}
}

// Balance returns the lamport balance of pub at confirmed commitment.
func (c *Client) Balance(ctx context.Context, pub sdk.PublicKey) (uint64, error) {
	out, err := c.rpc.GetBalance(ctx, pub, rpc.CommitmentConfirmed)
	if err != nil {
		return 0, fmt.Errorf("get balance: %w", err)
	}
	return out.Value, nil
}

// SendAndConfirm submits tx with preflight enabled and polls signature
// status until the transaction reaches confirmed commitment or the
// confirmation window closes.
func (c *Client) SendAndConfirm(ctx context.Context, tx *sdk.Transaction) (sdk.Signature, error) {
	maxRetries := sendMaxRetries
	sig, err := c.rpc.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight:       false,
		PreflightCommitment: rpc.CommitmentConfirmed,
		MaxRetries:          &maxRetries,
	})
	if err != nil {
		return sdk.Signature{}, fmt.Errorf("send transaction: %w", err)
	}
	c.logger.Debug().Str("signature", sig.String()).Msg("transaction sent")

	deadline := time.NewTimer(confirmDeadline)
	defer deadline.Stop()
	tick := time.NewTicker(confirmPoll)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return sig, ctx.Err()
		case <-deadline.C:
			return sig, fmt.Errorf("transaction %s not confirmed within %s", sig, confirmDeadline)
		case <-tick.C:
			st, err := c.rpc.GetSignatureStatuses(ctx, true, sig)
			if err != nil {
				c.logger.Warn().Err(err).Str("signature", sig.String()).Msg("status poll failed")
				continue
			}
			if len(st.Value) == 0 || st.Value[0] == nil {
				continue
			}
			status := st.Value[0]
			if status.Err != nil {
				return sig, fmt.Errorf("transaction %s failed on-chain: %v", sig, status.Err)
			}
			switch status.ConfirmationStatus {
			case rpc.ConfirmationStatusConfirmed, rpc.ConfirmationStatusFinalized:
				return sig, nil
			}
		}
	}
}

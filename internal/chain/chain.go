// Package chain signs unsigned swap transactions and submits them to Solana.
package chain

import (
	"context"
	"errors"
	"fmt"
	"time"

	bin "github.com/gagliardetto/binary"
	solana "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

var (
	// ErrBroadcast indicates the network rejected the submitted transaction.
	ErrBroadcast = errors.New("broadcast failed")
	// ErrConfirm indicates the transaction was not confirmed in time or
	// failed on-chain.
	ErrConfirm = errors.New("confirmation failed")
)

// Broadcaster takes a raw unsigned transaction, applies the signer's
// signature, and submits it. Implementations must block until the network
// confirms the transaction.
type Broadcaster interface {
	SignAndBroadcast(ctx context.Context, rawTx []byte, key solana.PrivateKey) (solana.Signature, error)
}

// RPCBroadcaster submits through a Solana JSON-RPC endpoint and polls
// signature statuses until the confirmed commitment tier.
type RPCBroadcaster struct {
	client         *rpc.Client
	commitment     rpc.CommitmentType
	pollInterval   time.Duration
	confirmTimeout time.Duration
}

// NewRPCBroadcaster wires an RPC client at the requested commitment level.
func NewRPCBroadcaster(rpcURL, commitment string) *RPCBroadcaster {
	c := rpc.CommitmentConfirmed
	switch commitment {
	case "processed":
		c = rpc.CommitmentProcessed
	case "finalized":
		c = rpc.CommitmentFinalized
	}
	return &RPCBroadcaster{
		client:         rpc.New(rpcURL),
		commitment:     c,
		pollInterval:   2 * time.Second,
		confirmTimeout: 90 * time.Second,
	}
}

// SignAndBroadcast decodes the transaction, partial-signs it with key, sends
// it with preflight at the configured commitment, and waits for confirmation.
func (b *RPCBroadcaster) SignAndBroadcast(ctx context.Context, rawTx []byte, key solana.PrivateKey) (solana.Signature, error) {
	var sig solana.Signature

	tx, err := SignTransaction(rawTx, key)
	if err != nil {
		return sig, err
	}

	sig, err = b.client.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight:       false,
		PreflightCommitment: b.commitment,
	})
	if err != nil {
		return sig, fmt.Errorf("%w: %v", ErrBroadcast, err)
	}

	if err := b.awaitConfirmation(ctx, sig); err != nil {
		return sig, err
	}
	return sig, nil
}

// SignTransaction deserializes a raw transaction and applies the key's
// signature. The signing is partial: slots for other required signers are
// left untouched.
func SignTransaction(rawTx []byte, key solana.PrivateKey) (*solana.Transaction, error) {
	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(rawTx))
	if err != nil {
		return nil, fmt.Errorf("unmarshal tx: %w", err)
	}

	_, err = tx.PartialSign(func(pub solana.PublicKey) *solana.PrivateKey {
		if pub.Equals(key.PublicKey()) {
			return &key
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("sign: %w", err)
	}
	return tx, nil
}

func (b *RPCBroadcaster) awaitConfirmation(ctx context.Context, sig solana.Signature) error {
	ctx, cancel := context.WithTimeout(ctx, b.confirmTimeout)
	defer cancel()

	ticker := time.NewTicker(b.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %s: %v", ErrConfirm, sig, ctx.Err())
		case <-ticker.C:
			out, err := b.client.GetSignatureStatuses(ctx, true, sig)
			if err != nil {
				continue // transient RPC errors are retried until the deadline
			}
			if out == nil || len(out.Value) == 0 || out.Value[0] == nil {
				continue
			}
			status := out.Value[0]
			if status.Err != nil {
				return fmt.Errorf("%w: %s failed on-chain: %v", ErrConfirm, sig, status.Err)
			}
			switch status.ConfirmationStatus {
			case rpc.ConfirmationStatusConfirmed, rpc.ConfirmationStatusFinalized:
				return nil
			}
		}
	}
}

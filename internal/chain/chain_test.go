package chain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	solana "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/rpc"
)

func unsignedTransaction(t *testing.T, payer solana.PublicKey) []byte {
	t.Helper()
	transfer := system.NewTransferInstruction(1, payer, solana.NewWallet().PublicKey()).Build()
	tx, err := solana.NewTransaction(
		[]solana.Instruction{transfer},
		solana.Hash{},
		solana.TransactionPayer(payer),
	)
	if err != nil {
		t.Fatalf("NewTransaction returned error: %v", err)
	}
	raw, err := tx.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary returned error: %v", err)
	}
	return raw
}

func TestSignTransaction(t *testing.T) {
	wallet := solana.NewWallet()
	raw := unsignedTransaction(t, wallet.PublicKey())

	tx, err := SignTransaction(raw, wallet.PrivateKey)
	if err != nil {
		t.Fatalf("SignTransaction returned error: %v", err)
	}
	if len(tx.Signatures) == 0 {
		t.Fatalf("expected at least one signature")
	}
	if tx.Signatures[0].IsZero() {
		t.Fatalf("payer signature slot left empty")
	}
	if err := tx.VerifySignatures(); err != nil {
		t.Fatalf("signature verification failed: %v", err)
	}
}

func TestSignTransactionLeavesOtherSigners(t *testing.T) {
	payer := solana.NewWallet()
	other := solana.NewWallet()
	raw := unsignedTransaction(t, payer.PublicKey())

	// Signing with a key that is not a required signer must not fabricate
	// a signature for the payer slot.
	tx, err := SignTransaction(raw, other.PrivateKey)
	if err != nil {
		t.Fatalf("SignTransaction returned error: %v", err)
	}
	if len(tx.Signatures) > 0 && !tx.Signatures[0].IsZero() {
		t.Fatalf("unexpected signature in payer slot")
	}
}

func TestSignTransactionGarbage(t *testing.T) {
	wallet := solana.NewWallet()
	if _, err := SignTransaction([]byte{0xde, 0xad, 0xbe, 0xef}, wallet.PrivateKey); err == nil {
		t.Fatalf("expected error for undecodable transaction")
	}
}

// rpcStub answers Solana JSON-RPC calls; statusValue is the raw JSON for the
// single element of getSignatureStatuses' value array.
func rpcStub(t *testing.T, sendResult string, statusValue string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     any    `json:"id"`
			Method string `json:"method"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode rpc request: %v", err)
		}
		id, _ := json.Marshal(req.ID)
		switch req.Method {
		case "sendTransaction":
			fmt.Fprintf(w, `{"jsonrpc":"2.0","id":%s,"result":%q}`, id, sendResult)
		case "getSignatureStatuses":
			fmt.Fprintf(w, `{"jsonrpc":"2.0","id":%s,"result":{"context":{"slot":1},"value":[%s]}}`, id, statusValue)
		default:
			t.Fatalf("unexpected rpc method %s", req.Method)
		}
	}))
}

func pollingBroadcaster(url string) *RPCBroadcaster {
	return &RPCBroadcaster{
		client:         rpc.New(url),
		commitment:     rpc.CommitmentConfirmed,
		pollInterval:   5 * time.Millisecond,
		confirmTimeout: 2 * time.Second,
	}
}

func TestAwaitConfirmationConfirmed(t *testing.T) {
	server := rpcStub(t, "", `{"slot":1,"confirmations":3,"err":null,"confirmationStatus":"confirmed"}`)
	defer server.Close()

	b := pollingBroadcaster(server.URL)
	var sig solana.Signature
	if err := b.awaitConfirmation(context.Background(), sig); err != nil {
		t.Fatalf("awaitConfirmation returned error: %v", err)
	}
}

func TestAwaitConfirmationFinalizedCounts(t *testing.T) {
	server := rpcStub(t, "", `{"slot":1,"confirmations":null,"err":null,"confirmationStatus":"finalized"}`)
	defer server.Close()

	b := pollingBroadcaster(server.URL)
	var sig solana.Signature
	if err := b.awaitConfirmation(context.Background(), sig); err != nil {
		t.Fatalf("finalized must satisfy the confirmed tier, got %v", err)
	}
}

func TestAwaitConfirmationOnChainError(t *testing.T) {
	server := rpcStub(t, "", `{"slot":1,"confirmations":0,"err":{"InstructionError":[0,{"Custom":6000}]},"confirmationStatus":"processed"}`)
	defer server.Close()

	b := pollingBroadcaster(server.URL)
	var sig solana.Signature
	if err := b.awaitConfirmation(context.Background(), sig); !errors.Is(err, ErrConfirm) {
		t.Fatalf("expected ErrConfirm for failed transaction, got %v", err)
	}
}

func TestAwaitConfirmationTimesOut(t *testing.T) {
	// The signature never lands; the loop must give up at the deadline.
	server := rpcStub(t, "", `null`)
	defer server.Close()

	b := pollingBroadcaster(server.URL)
	b.confirmTimeout = 50 * time.Millisecond
	var sig solana.Signature
	if err := b.awaitConfirmation(context.Background(), sig); !errors.Is(err, ErrConfirm) {
		t.Fatalf("expected ErrConfirm on timeout, got %v", err)
	}
}

func TestSignAndBroadcastConfirms(t *testing.T) {
	wallet := solana.NewWallet()
	raw := unsignedTransaction(t, wallet.PublicKey())

	var want solana.Signature
	want[0] = 0x09
	server := rpcStub(t, want.String(), `{"slot":1,"confirmations":1,"err":null,"confirmationStatus":"confirmed"}`)
	defer server.Close()

	b := pollingBroadcaster(server.URL)
	sig, err := b.SignAndBroadcast(context.Background(), raw, wallet.PrivateKey)
	if err != nil {
		t.Fatalf("SignAndBroadcast returned error: %v", err)
	}
	if !sig.Equals(want) {
		t.Fatalf("expected signature %s, got %s", want, sig)
	}
}

func TestNewRPCBroadcasterCommitment(t *testing.T) {
	b := NewRPCBroadcaster("https://rpc", "finalized")
	if b.commitment != rpc.CommitmentFinalized {
		t.Fatalf("expected finalized commitment, got %v", b.commitment)
	}
	b = NewRPCBroadcaster("https://rpc", "")
	if b.commitment != rpc.CommitmentConfirmed {
		t.Fatalf("expected confirmed default, got %v", b.commitment)
	}
	b = NewRPCBroadcaster("https://rpc", "processed")
	if b.commitment != rpc.CommitmentProcessed {
		t.Fatalf("expected processed commitment, got %v", b.commitment)
	}
}

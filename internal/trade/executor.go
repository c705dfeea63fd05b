// Package trade orchestrates the decrypt-sign-broadcast pipeline for swaps.
package trade

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"math"

	solana "github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"

	"github.com/Asadbekabdullaev35/sauce-bot-backend-v1/internal/chain"
	"github.com/Asadbekabdullaev35/sauce-bot-backend-v1/internal/jupiter"
	"github.com/Asadbekabdullaev35/sauce-bot-backend-v1/internal/metrics"
	"github.com/Asadbekabdullaev35/sauce-bot-backend-v1/internal/risk"
	"github.com/Asadbekabdullaev35/sauce-bot-backend-v1/internal/store"
	"github.com/Asadbekabdullaev35/sauce-bot-backend-v1/internal/vault"
)

// Direction selects which way a swap runs. Buy and sell execute the same
// pipeline; callers decide which mint is in and which is out.
type Direction string

const (
	Buy  Direction = "buy"
	Sell Direction = "sell"
)

var (
	// ErrInvalidRequest marks requests with missing or unusable fields.
	ErrInvalidRequest = errors.New("invalid trade request")
	// ErrNoWallet marks users without any provisioned wallet.
	ErrNoWallet = errors.New("user has no wallets")
	// ErrKeyMismatch signals that the decrypted keypair does not match the
	// stored wallet address. This is stored-data corruption and must be loud.
	ErrKeyMismatch = errors.New("decrypted key does not match stored public key")
)

// Request carries the caller-supplied trade parameters. Amounts are in the
// chain's native unit; slippage is a percentage.
type Request struct {
	TelegramID  string  `json:"telegramId"`
	TradeAmount float64 `json:"tradeAmount"`
	Slippage    float64 `json:"slippage"`
	InputMint   string  `json:"inputMint"`
	OutputMint  string  `json:"outputMint"`
}

// UserFinder is the read-only slice of the store the executor needs.
type UserFinder interface {
	FindByTelegramID(ctx context.Context, telegramID string) (*store.User, error)
}

// SwapService obtains routes and unsigned transactions from the aggregator.
type SwapService interface {
	GetQuote(ctx context.Context, inputMint, outputMint string, amount uint64, slippageBps int) (*jupiter.Quote, error)
	BuildSwapTransaction(ctx context.Context, payer solana.PublicKey, quote *jupiter.Quote) (string, error)
}

// Executor runs the linear trade pipeline. No local state mutates before
// broadcast, so any failure simply aborts the request.
type Executor struct {
	users  UserFinder
	vault  *vault.Vault
	swaps  SwapService
	chain  chain.Broadcaster
	limits risk.Limits
	log    zerolog.Logger
}

// NewExecutor wires the executor's collaborators.
func NewExecutor(users UserFinder, v *vault.Vault, swaps SwapService, broadcaster chain.Broadcaster, limits risk.Limits, log zerolog.Logger) *Executor {
	return &Executor{users: users, vault: v, swaps: swaps, chain: broadcaster, limits: limits, log: log}
}

// Execute validates the request, reconstructs the user's signing keypair,
// obtains a swap transaction, signs it, and broadcasts it. It returns the
// broadcast signature once the network confirms the transaction.
func (e *Executor) Execute(ctx context.Context, dir Direction, req Request) (string, error) {
	sig, err := e.execute(ctx, dir, req)
	if err != nil {
		metrics.TradesTotal.WithLabelValues(string(dir), "error").Inc()
		return "", err
	}
	metrics.TradesTotal.WithLabelValues(string(dir), "ok").Inc()
	return sig, nil
}

func (e *Executor) execute(ctx context.Context, dir Direction, req Request) (string, error) {
	if err := e.validate(req); err != nil {
		return "", err
	}

	user, err := e.users.FindByTelegramID(ctx, req.TelegramID)
	if err != nil {
		return "", err
	}
	if len(user.Wallets) == 0 {
		return "", fmt.Errorf("%w: %s", ErrNoWallet, req.TelegramID)
	}

	wallet, err := user.ActiveWallet()
	if err != nil {
		return "", err
	}

	secret, err := e.vault.Decrypt(wallet.SecretKey)
	if err != nil {
		return "", fmt.Errorf("decrypt wallet secret: %w", err)
	}
	key, err := solana.PrivateKeyFromBase58(string(secret))
	if err != nil {
		return "", fmt.Errorf("reconstruct keypair: %w", err)
	}

	// The reconstructed keypair must match the stored address exactly;
	// a mismatch means the stored record or key material is corrupt.
	if key.PublicKey().String() != wallet.PublicKey {
		return "", fmt.Errorf("%w: wallet %s", ErrKeyMismatch, wallet.PublicKey)
	}

	lamports := toBaseUnits(req.TradeAmount)
	slippageBps := int(math.Round(req.Slippage * 100))

	quote, err := e.swaps.GetQuote(ctx, req.InputMint, req.OutputMint, lamports, slippageBps)
	if err != nil {
		return "", err
	}

	rawTx, err := e.swaps.BuildSwapTransaction(ctx, key.PublicKey(), quote)
	if err != nil {
		return "", err
	}
	decoded, err := decodeTransaction(rawTx)
	if err != nil {
		return "", err
	}

	sig, err := e.chain.SignAndBroadcast(ctx, decoded, key)
	if err != nil {
		return "", err
	}

	e.log.Info().
		Str("direction", string(dir)).
		Str("telegramId", req.TelegramID).
		Str("inputMint", req.InputMint).
		Str("outputMint", req.OutputMint).
		Uint64("lamports", lamports).
		Str("signature", sig.String()).
		Msg("trade confirmed")
	return sig.String(), nil
}

// maxTradeAmount bounds a single trade in native units. It sits above the
// chain's total supply, so it only rejects nonsense; it also keeps the
// lamports conversion inside uint64 range.
const maxTradeAmount = 1_000_000_000

func (e *Executor) validate(req Request) error {
	switch {
	case req.TelegramID == "":
		return fmt.Errorf("%w: telegramId is required", ErrInvalidRequest)
	case !isFinite(req.TradeAmount) || req.TradeAmount <= 0:
		return fmt.Errorf("%w: tradeAmount is required", ErrInvalidRequest)
	case req.TradeAmount > maxTradeAmount:
		return fmt.Errorf("%w: tradeAmount %g exceeds the maximum supported amount", ErrInvalidRequest, req.TradeAmount)
	case !isFinite(req.Slippage) || req.Slippage <= 0:
		return fmt.Errorf("%w: slippage is required", ErrInvalidRequest)
	case req.InputMint == "":
		return fmt.Errorf("%w: inputMint is required", ErrInvalidRequest)
	case req.OutputMint == "":
		return fmt.Errorf("%w: outputMint is required", ErrInvalidRequest)
	}
	if !e.limits.Allow(req.TradeAmount) {
		return fmt.Errorf("%w: tradeAmount %g exceeds the per-trade limit", ErrInvalidRequest, req.TradeAmount)
	}
	return nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// toBaseUnits converts a human-unit amount to lamports, truncating toward
// zero rather than rounding.
func toBaseUnits(amount float64) uint64 {
	return uint64(amount * float64(solana.LAMPORTS_PER_SOL))
}

func decodeTransaction(encoded string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: decode transaction: %v", jupiter.ErrNoSwapTransaction, err)
	}
	return raw, nil
}

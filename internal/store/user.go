// Package store persists Telegram users and their custodied wallets.
package store

import (
	"errors"
	"fmt"
)

// Defaults applied when provisioning users and wallets.
const (
	DefaultWalletLabel = "Unnamed Wallet"
	DefaultSlippage    = 0.5
	DefaultTradeAmount = 0.1
)

// ErrNotFound indicates no user exists for the requested Telegram id.
var ErrNotFound = errors.New("user not found")

// Wallet couples a chain address with its encrypted secret key. The secret
// key only ever exists here in vault-encrypted form.
type Wallet struct {
	Label     string `bson:"label" json:"label"`
	PublicKey string `bson:"publicKey" json:"publicKey"`
	SecretKey string `bson:"secretKey" json:"-"`
}

// TradeDefaults are the per-direction fallback settings stored for a user.
// The trade endpoints currently require explicit amounts and do not read
// these; they are persisted for the bot front end.
type TradeDefaults struct {
	Slippage    float64 `bson:"slippage" json:"slippage"`
	TradeAmount float64 `bson:"tradeAmount" json:"tradeAmount"`
}

// Settings groups buy and sell defaults.
type Settings struct {
	Buy  TradeDefaults `bson:"buy" json:"buy"`
	Sell TradeDefaults `bson:"sell" json:"sell"`
}

// User is the stored record for one Telegram account.
type User struct {
	TelegramID        string   `bson:"telegramId" json:"telegramId"`
	Wallets           []Wallet `bson:"wallets" json:"wallets"`
	ActiveWalletIndex int      `bson:"activeWalletIndex" json:"activeWalletIndex"`
	Settings          Settings `bson:"settings" json:"settings"`
}

// DefaultSettings returns the settings applied to newly provisioned users.
func DefaultSettings() Settings {
	d := TradeDefaults{Slippage: DefaultSlippage, TradeAmount: DefaultTradeAmount}
	return Settings{Buy: d, Sell: d}
}

// ActiveWallet returns the wallet selected by ActiveWalletIndex. Users with
// no wallets or an index outside the list are rejected.
func (u *User) ActiveWallet() (*Wallet, error) {
	if len(u.Wallets) == 0 {
		return nil, fmt.Errorf("user %s has no wallets", u.TelegramID)
	}
	if u.ActiveWalletIndex < 0 || u.ActiveWalletIndex >= len(u.Wallets) {
		return nil, fmt.Errorf("active wallet index %d out of range for %d wallets", u.ActiveWalletIndex, len(u.Wallets))
	}
	return &u.Wallets[u.ActiveWalletIndex], nil
}

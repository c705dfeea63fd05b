package store

import "testing"

func TestActiveWallet(t *testing.T) {
	user := User{
		TelegramID: "12345",
		Wallets: []Wallet{
			{Label: "first", PublicKey: "pk1"},
			{Label: "second", PublicKey: "pk2"},
		},
		ActiveWalletIndex: 1,
	}

	wallet, err := user.ActiveWallet()
	if err != nil {
		t.Fatalf("ActiveWallet returned error: %v", err)
	}
	if wallet.PublicKey != "pk2" {
		t.Fatalf("expected pk2, got %s", wallet.PublicKey)
	}
}

func TestActiveWalletEmptyList(t *testing.T) {
	user := User{TelegramID: "12345"}
	if _, err := user.ActiveWallet(); err == nil {
		t.Fatalf("expected error for user with no wallets")
	}
}

func TestActiveWalletIndexOutOfRange(t *testing.T) {
	user := User{
		TelegramID:        "12345",
		Wallets:           []Wallet{{PublicKey: "pk1"}},
		ActiveWalletIndex: 3,
	}
	if _, err := user.ActiveWallet(); err == nil {
		t.Fatalf("expected error for out-of-range index")
	}

	user.ActiveWalletIndex = -1
	if _, err := user.ActiveWallet(); err == nil {
		t.Fatalf("expected error for negative index")
	}
}

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()
	if s.Buy.Slippage != DefaultSlippage || s.Sell.Slippage != DefaultSlippage {
		t.Fatalf("unexpected default slippage: %+v", s)
	}
	if s.Buy.TradeAmount != DefaultTradeAmount || s.Sell.TradeAmount != DefaultTradeAmount {
		t.Fatalf("unexpected default trade amount: %+v", s)
	}
}

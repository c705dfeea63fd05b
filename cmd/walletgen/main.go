// Binary walletgen provisions a custodied wallet: it generates a keypair,
// encrypts the secret with the vault, and optionally writes it to the store.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	solana "github.com/gagliardetto/solana-go"
	"github.com/joho/godotenv"

	"github.com/Asadbekabdullaev35/sauce-bot-backend-v1/internal/config"
	"github.com/Asadbekabdullaev35/sauce-bot-backend-v1/internal/store"
	"github.com/Asadbekabdullaev35/sauce-bot-backend-v1/internal/util"
	"github.com/Asadbekabdullaev35/sauce-bot-backend-v1/internal/vault"
)

func main() {
	_ = godotenv.Load() // best-effort

	telegramID := flag.String("telegram-id", "", "attach the wallet to this user (print-only when empty)")
	label := flag.String("label", store.DefaultWalletLabel, "wallet label")
	flag.Parse()

	log := util.NewConsoleLogger("info")

	cfg, err := config.Load(getEnv("CONFIG_PATH", "config.yaml"))
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	v, err := vault.New(cfg.Vault.EncryptionKey)
	if err != nil {
		log.Fatal().Err(err).Msg("vault")
	}

	wallet := solana.NewWallet()
	encrypted, err := v.Encrypt([]byte(wallet.PrivateKey.String()))
	if err != nil {
		log.Fatal().Err(err).Msg("encrypt secret")
	}

	fmt.Printf("publicKey: %s\n", wallet.PublicKey())
	fmt.Printf("secretKey: %s\n", encrypted)

	if *telegramID == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	users, err := store.NewMongoStore(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("mongo")
	}
	defer func() { _ = users.Close(context.Background()) }()

	w := store.Wallet{
		Label:     *label,
		PublicKey: wallet.PublicKey().String(),
		SecretKey: encrypted,
	}
	if err := users.UpsertWallet(ctx, *telegramID, w); err != nil {
		log.Fatal().Err(err).Msg("upsert wallet")
	}
	log.Info().Str("telegramId", *telegramID).Str("publicKey", w.PublicKey).Msg("wallet provisioned")
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// Command tipctl creates, inspects and pays tip links.
//
//	tipctl create -creator 0x... -amount 2.50
//	tipctl show -id tip_...
//	tipctl pay -id tip_... [-amount 1]
//
// pay signs with the key in PRIVATE_KEY and sends the transfer through RPC_URL.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/raid-guild/x402-tip-links/payer"
)

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var err error
	switch os.Args[1] {
	case "create":
		err = runCreate(ctx, os.Args[2:])
	case "show":
		err = runShow(ctx, os.Args[2:])
	case "pay":
		err = runPay(ctx, os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "tipctl:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: tipctl <create|show|pay> [flags]")
}

func newFlagSet(name string) (*flag.FlagSet, *string, *string) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	server := fs.String("server", envOr("TIPLINKS_URL", "http://localhost:3000"), "tip links API base URL")
	apiKey := fs.String("api-key", os.Getenv("TIPLINKS_API_KEY"), "API key sent as X-API-Key")
	return fs, server, apiKey
}

func runCreate(ctx context.Context, args []string) error {
	fs, server, apiKey := newFlagSet("create")
	creator := fs.String("creator", "", "creator address receiving the tips")
	amount := fs.String("amount", "", "default tip amount in whole tokens")
	_ = fs.Parse(args)

	response, err := payer.NewClient(*server, *apiKey).CreateTipLink(ctx, *creator, *amount)
	if err != nil {
		return err
	}
	return printJSON(response)
}

func runShow(ctx context.Context, args []string) error {
	fs, server, apiKey := newFlagSet("show")
	id := fs.String("id", "", "tip link id")
	_ = fs.Parse(args)

	response, err := payer.NewClient(*server, *apiKey).TipMetadata(ctx, *id)
	if err != nil {
		return err
	}
	return printJSON(response)
}

func runPay(ctx context.Context, args []string) error {
	fs, server, apiKey := newFlagSet("pay")
	id := fs.String("id", "", "tip link id")
	amount := fs.String("amount", "", "tip amount, defaults to the link's default amount")
	chainID := fs.Int64("chain-id", 8453, "chain id of the payment network")
	rpcURL := fs.String("rpc-url", os.Getenv("RPC_URL"), "JSON-RPC endpoint used to send the transfer")
	timeout := fs.Duration("timeout", 2*time.Minute, "time to wait for the transfer to be mined")
	_ = fs.Parse(args)

	if *rpcURL == "" {
		return fmt.Errorf("missing -rpc-url or RPC_URL")
	}
	signer, err := payer.NewKeySigner(os.Getenv("PRIVATE_KEY"))
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	wallet := payer.NewWallet(payer.WalletConfig{
		ChainID: *chainID,
		RPCURL:  *rpcURL,
		Timeout: *timeout,
	}, signer, logger)

	response, err := payer.NewClient(*server, *apiKey).Tip(ctx, wallet, *id, *amount)
	if err != nil {
		return err
	}
	return printJSON(response)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

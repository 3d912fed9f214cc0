package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"appforge/internal/infra"
	"appforge/internal/infra/credentials"
)

// apikey manages the integration credentials the pipeline falls back to
// when no environment variable is set:
//
//	apikey set openai sk-xxxx
//	apikey set github ghp_xxxx
//	apikey show openai
func main() {
	_ = godotenv.Load()

	if len(os.Args) < 3 {
		usage()
		os.Exit(2)
	}

	cfg, err := infra.LoadConfig()
	if err != nil {
		fatal("load config: %v", err)
	}
	logger := infra.NewLogger(cfg.AppEnv, "apikey")

	ctx := context.Background()
	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		fatal("connect database: %v", err)
	}
	defer pool.Close()

	store := credentials.NewStore(infra.NewSQLRunner(pool, logger))

	switch os.Args[1] {
	case "set":
		if len(os.Args) != 4 {
			usage()
			os.Exit(2)
		}
		if err := store.SetToken(ctx, os.Args[2], os.Args[3]); err != nil {
			fatal("set token: %v", err)
		}
		fmt.Printf("stored %s credential\n", os.Args[2])
	case "show":
		token, err := store.Token(ctx, os.Args[2])
		if err != nil {
			fatal("read token: %v", err)
		}
		if token == "" {
			fmt.Printf("no %s credential stored\n", os.Args[2])
			return
		}
		fmt.Printf("%s credential: %s\n", os.Args[2], mask(token))
	default:
		usage()
		os.Exit(2)
	}
}

func mask(token string) string {
	if len(token) <= 8 {
		return "********"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage:
  apikey set <openai|github> <token>
  apikey show <openai|github>`)
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

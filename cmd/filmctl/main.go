package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/joho/godotenv"

	"filmdb.org/internal/auth"
	"filmdb.org/internal/cli"
	"filmdb.org/internal/obs"
	"filmdb.org/internal/store/pg"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "warning: .env: %v\n", err)
	}
	obs.InitLogger(obs.LogOptions{Level: envOr("LOG_LEVEL", "warn"), Pretty: true, Output: os.Stderr})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	env := cli.Env{
		Open:     openPostgres,
		Password: cli.TerminalPassword,
		Origin:   envOr("FILMDB_LOGIN_ORIGIN", "filmctl"),
	}
	code := cli.Execute(ctx, env, os.Args[1:])
	stop()
	os.Exit(code)
}

func openPostgres(ctx context.Context) (auth.CredentialStore, func() error, error) {
	dsn := strings.TrimSpace(os.Getenv("FILMDB_PG_DSN"))
	if dsn == "" {
		return nil, nil, errors.New("FILMDB_PG_DSN is not set")
	}
	store, err := pg.Open(dsn)
	if err != nil {
		return nil, nil, err
	}
	return store, store.Close, nil
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

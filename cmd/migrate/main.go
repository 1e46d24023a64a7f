package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"filmdb.org/internal/migrate"
	"filmdb.org/internal/obs"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "warning: .env: %v\n", err)
	}
	log := obs.InitLogger(obs.LogOptions{Level: os.Getenv("LOG_LEVEL"), Pretty: true, Output: os.Stderr})

	var (
		dsn            = flag.String("dsn", os.Getenv("FILMDB_PG_DSN"), "PostgreSQL DSN")
		migrationsPath = flag.String("migrations", "", "Directory of SQL migrations (embedded set when empty)")
		seedsPath      = flag.String("seeds", "", "Directory of SQL seeds (embedded set when empty)")
		threshold      = flag.Int("threshold", envInt("FILMDB_LOCKOUT_THRESHOLD", 5), "Failed logins before an account locks (lockout)")
		lockFor        = flag.Duration("duration", envDuration("FILMDB_LOCKOUT_DURATION", 0), "Automatic unlock after this long, 0 keeps it locked (lockout)")
	)
	flag.Parse()

	if *dsn == "" {
		log.Fatal().Msg("missing DSN: provide via -dsn or FILMDB_PG_DSN")
	}
	if len(flag.Args()) == 0 {
		log.Fatal().Msg("usage: migrate [up|down|seed|status|lockout]")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	db, err := sql.Open("pgx", *dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("open db")
	}
	defer db.Close()

	var opts []migrate.Option
	if *migrationsPath != "" || *seedsPath != "" {
		opts = append(opts, migrate.WithDirs(*migrationsPath, *seedsPath))
	}
	mgr := migrate.NewManager(db, opts...)

	cmd := flag.Arg(0)
	switch cmd {
	case "up":
		err = mgr.Up(ctx)
	case "down":
		err = mgr.Down(ctx)
	case "seed":
		err = mgr.Seed(ctx)
	case "status":
		var history []string
		history, err = mgr.Status(ctx)
		if err == nil {
			for _, item := range history {
				fmt.Println(item)
			}
		}
	case "lockout":
		err = mgr.SetLockoutPolicy(ctx, migrate.LockoutPolicy{MaxFailedAttempts: *threshold, LockoutDuration: *lockFor})
	default:
		log.Fatal().Str("command", cmd).Msg("unknown command")
	}
	if err != nil {
		log.Fatal().Err(err).Str("command", cmd).Msg("migrate failed")
	}
	log.Info().Str("command", cmd).Msg("done")
}

func envInt(key string, def int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return def
}

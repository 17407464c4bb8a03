// Command devtoken mints an access token for local testing against the API.
package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/ivankudzin/skillswap/internal/config"
	authsvc "github.com/ivankudzin/skillswap/internal/services/auth"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "devtoken:", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		userID  int64
		ttl     time.Duration
		cfgPath string
	)

	flagSet := pflag.NewFlagSet("devtoken", pflag.ContinueOnError)
	flagSet.Int64VarP(&userID, "user", "u", 0, "user id to put in the token subject")
	flagSet.DurationVar(&ttl, "ttl", 0, "token lifetime (default: auth.jwt_access_ttl)")
	flagSet.StringVar(&cfgPath, "config", os.Getenv("APP_CONFIG"), "config file (default: configs/config.yaml)")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if cfgPath == "" {
		cfgPath = "configs/config.yaml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if ttl <= 0 {
		ttl = cfg.Auth.JWTAccessTTL
	}

	token, expiresAt, err := authsvc.NewJWTManager(cfg.Auth.JWTSecret, ttl).GenerateAccessToken(userID)
	if err != nil {
		return fmt.Errorf("generate token: %w", err)
	}

	fmt.Println(token)
	fmt.Fprintln(os.Stderr, "expires at", expiresAt.Format(time.RFC3339))
	return nil
}

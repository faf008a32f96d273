package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/spf13/cobra"

	authmodels "safenest/internal/auth/models"
	"safenest/internal/auth/password"
	accountstore "safenest/internal/auth/store/account"
	onboardingstore "safenest/internal/onboarding/store"
	"safenest/internal/platform/config"
	"safenest/internal/platform/logger"
	"safenest/internal/platform/postgres"
	residentstore "safenest/internal/resident/store"
	"safenest/internal/seed"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg := config.Load()
		if cfg.DatabaseURL == "" {
			return errors.New("DATABASE_URL must be set")
		}
		log := logger.New(cfg.LogLevel, cfg.LogFormat)

		db, err := postgres.Open(cmd.Context(), cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := postgres.Migrate(cmd.Context(), db, log); err != nil {
			return err
		}
		log.InfoContext(cmd.Context(), "migrations up to date")
		return nil
	},
}

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password [password]",
	Short: "Print a bcrypt hash for ADMIN_PASSWORD_HASH",
	Long: `Print a bcrypt hash suitable for ADMIN_PASSWORD_HASH.

The password is read from the first argument, or from the first line of
stdin when no argument is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		plain := ""
		if len(args) == 1 {
			plain = args[0]
		} else {
			var err error
			if plain, err = readPassword(cmd); err != nil {
				return err
			}
		}
		hash, err := password.Hash(plain)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), hash)
		return err
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load demo onboarding requests and residents into Postgres",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg := config.Load()
		if cfg.DatabaseURL == "" {
			return errors.New("DATABASE_URL must be set; use serve --seed-demo for in-memory data")
		}
		log := logger.New(cfg.LogLevel, cfg.LogFormat)

		db, err := postgres.Open(cmd.Context(), cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()

		res, err := seed.Demo(cmd.Context(), onboardingstore.NewPostgres(db), residentstore.NewPostgres(db), cfg.DefaultCaseManager)
		if err != nil {
			return err
		}
		log.InfoContext(cmd.Context(), "demo data loaded", "requests", res.Requests, "residents", res.Residents)
		return nil
	},
}

var addAccountCmd = &cobra.Command{
	Use:   "add-account EMAIL",
	Short: "Create a sign-in account in Postgres, or reset its password",
	Long: `Create a sign-in account in Postgres, or reset its password when it exists.
The password is read from the first line of stdin.

Only ADMIN_EMAIL is granted a session. Any other account that signs in with
valid credentials is refused with access denied, and the attempt is audited.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		if cfg.DatabaseURL == "" {
			return errors.New("DATABASE_URL must be set; in-memory accounts do not outlive the process")
		}
		plain, err := readPassword(cmd)
		if err != nil {
			return err
		}

		db, err := postgres.Open(cmd.Context(), cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()

		account, err := addAccount(cmd.Context(), accountstore.NewPostgres(db), args[0], plain, time.Now())
		if err != nil {
			return err
		}
		if !strings.EqualFold(account.Email, cfg.Auth.AdminEmail) {
			cmd.PrintErrf("note: %s is not ADMIN_EMAIL and will be refused at sign-in\n", account.Email)
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), "saved account", account.Email)
		return err
	},
}

type accountSaver interface {
	Save(ctx context.Context, account *authmodels.Account) error
}

func addAccount(ctx context.Context, store accountSaver, email, plain string, now time.Time) (*authmodels.Account, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil {
		return nil, fmt.Errorf("invalid email %q: %w", email, err)
	}
	hash, err := password.Hash(plain)
	if err != nil {
		return nil, err
	}
	account := &authmodels.Account{
		Email:        authmodels.NormalizeEmail(addr.Address),
		PasswordHash: hash,
		CreatedAt:    now,
	}
	if err := store.Save(ctx, account); err != nil {
		return nil, fmt.Errorf("save account: %w", err)
	}
	return account, nil
}

// readPassword returns the first line of stdin without its line ending.
func readPassword(cmd *cobra.Command) (string, error) {
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

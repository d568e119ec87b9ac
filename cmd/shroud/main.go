// Command shroud encrypts and decrypts field values and manages a small
// contact book whose phone numbers are stored encrypted.
//
// Usage:
//
//	shroud [-env-file file] [-config file] [-driver d] [-dsn dsn] <command> [args]
//
// Commands:
//
//	encrypt <text>      print the stored form of text
//	decrypt <value>     print the plaintext of a stored value
//	add <name> <tel>    store a contact
//	get <id>            show one contact
//	list                show every contact
//	delete <id>         remove a contact
//
// Cipher settings come from the config file and SENSITIVE_DATA_DATA_CRYPT_*
// variables; the database from -driver/-dsn or STORE_DRIVER/STORE_DSN.
// -env-file loads variables from a dotenv file without overriding ones
// already set.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/zoobzio/shroud"
	"github.com/zoobzio/shroud/internal/logger"
	"github.com/zoobzio/shroud/models"
	"github.com/zoobzio/shroud/store"
)

var errUsage = errors.New("usage: shroud [-env-file file] [-config file] [-driver d] [-dsn dsn] encrypt|decrypt|add|get|list|delete [args]")

func main() {
	log := logger.NewLogger("shroud")
	ctx := log.WithContext(context.Background())

	if err := run(ctx, os.Args[1:], os.Stdout, log); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		log.Fatal().Err(err).Msg("command failed")
	}
}

func run(ctx context.Context, args []string, stdout io.Writer, log *logger.Logger) error {
	fs := flag.NewFlagSet("shroud", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	envFile := fs.String("env-file", "", "Dotenv file path")
	configPath := fs.String("config", "", "YAML config file path")
	driver := fs.String("driver", "", "Database driver (sqlite3, pgx)")
	dsn := fs.String("dsn", "", "Database DSN")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	rest := fs.Args()
	if len(rest) == 0 {
		return errUsage
	}

	if *envFile != "" {
		if err := godotenv.Load(*envFile); err != nil {
			return fmt.Errorf("error loading env file: %w", err)
		}
	}

	cfg, err := shroud.LoadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}
	if cfg.UsesPlaceholderKey() {
		log.Warn().Msg("using the placeholder encryption key; set SENSITIVE_DATA_DATA_CRYPT_KEY")
	}

	cmd, params := rest[0], rest[1:]
	switch cmd {
	case "encrypt":
		if len(params) != 1 {
			return errUsage
		}
		return encryptValue(stdout, cfg, params[0])
	case "decrypt":
		if len(params) != 1 {
			return errUsage
		}
		return decryptValue(stdout, cfg, params[0])
	case "add":
		if len(params) != 2 {
			return errUsage
		}
	case "get", "delete":
		if _, err := parseID(params); err != nil {
			return err
		}
	case "list":
		if len(params) != 0 {
			return errUsage
		}
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}

	hooks, err := shroud.New(cfg)
	if err != nil {
		return fmt.Errorf("error creating interceptor: %w", err)
	}
	log.Debug().Bool("enabled", hooks.Enabled()).Str("cipher", cfg.CipherAlgorithm).Msg("interceptor ready")

	storeCfg, err := store.LoadConfig()
	if err != nil {
		return err
	}
	if *driver != "" {
		storeCfg.Driver = *driver
	}
	if *dsn != "" {
		storeCfg.DSN = *dsn
	}

	db, err := store.Open(ctx, storeCfg, log)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		return err
	}

	repo := store.NewContactRepository(db, hooks, log)
	return runContacts(ctx, stdout, repo, cmd, params)
}

func runContacts(ctx context.Context, stdout io.Writer, repo store.ContactRepository, cmd string, params []string) error {
	switch cmd {
	case "add":
		id, err := repo.Create(ctx, &models.Contact{Name: params[0], Tel: params[1]})
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, id)
	case "get":
		id, err := parseID(params)
		if err != nil {
			return err
		}
		c, err := repo.Get(ctx, id)
		if err != nil {
			return err
		}
		printContact(stdout, *c)
	case "list":
		contacts, err := repo.List(ctx)
		if err != nil {
			return err
		}
		for _, c := range contacts {
			printContact(stdout, c)
		}
	case "delete":
		id, err := parseID(params)
		if err != nil {
			return err
		}
		return repo.Delete(ctx, id)
	}
	return nil
}

func encryptValue(stdout io.Writer, cfg shroud.Config, plaintext string) error {
	key, err := shroud.DeriveKey(cfg.Key, cfg.KeyAlgorithm)
	if err != nil {
		return err
	}
	ciphertext, err := shroud.Encrypt(plaintext, key, cfg.CipherAlgorithm)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, shroud.AddMarker(ciphertext))
	return nil
}

func decryptValue(stdout io.Writer, cfg shroud.Config, value string) error {
	if !shroud.IsMarked(value) {
		fmt.Fprintln(stdout, value)
		return nil
	}
	ciphertext, err := shroud.StripMarker(value)
	if err != nil {
		return err
	}
	key, err := shroud.DeriveKey(cfg.Key, cfg.KeyAlgorithm)
	if err != nil {
		return err
	}
	plaintext, err := shroud.Decrypt(ciphertext, key, cfg.CipherAlgorithm)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, plaintext)
	return nil
}

func parseID(params []string) (int64, error) {
	if len(params) != 1 {
		return 0, errUsage
	}
	id, err := strconv.ParseInt(params[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid id %q", errUsage, params[0])
	}
	return id, nil
}

func printContact(w io.Writer, c models.Contact) {
	fmt.Fprintf(w, "%d\t%s\t%s\n", c.ID, c.Name, c.Tel)
}

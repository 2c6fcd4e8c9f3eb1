// Command mailboard polls an IMAP mailbox for CI/CD notification mail
// and files work items in Azure Boards.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/lmedina/mailboard/internal/boards"
	"github.com/lmedina/mailboard/internal/classify"
	"github.com/lmedina/mailboard/internal/credential"
	"github.com/lmedina/mailboard/internal/journal"
	"github.com/lmedina/mailboard/internal/mailbox"
	"github.com/lmedina/mailboard/internal/model"
	"github.com/lmedina/mailboard/internal/pipeline"
)

func main() {
	configPath := flag.String("config", model.DefaultConfigPath(), "path to config file")
	storeKey := flag.String("store-credential", "", "prompt for a secret, store it in the OS keyring under the given key (imap-password or boards-pat), and exit")
	deleteKey := flag.String("delete-credential", "", "remove the given key (imap-password or boards-pat) from the OS keyring and exit")
	flag.Parse()

	var err error
	switch {
	case *storeKey != "":
		err = storeCredential(*storeKey)
	case *deleteKey != "":
		err = deleteCredential(*deleteKey)
	default:
		err = run(*configPath)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "mailboard: %v\n", err)
		os.Exit(1)
	}
}

// storeCredential prompts for a secret with terminal echo disabled and
// writes it to the OS keyring.
func storeCredential(key string) error {
	if !credential.KnownKey(key) {
		return fmt.Errorf("unknown credential key %q (expected %s or %s)",
			key, credential.KeyIMAPPassword, credential.KeyBoardsPAT)
	}

	fmt.Fprintf(os.Stderr, "Enter value for %s: ", key)
	value, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return fmt.Errorf("reading secret: %w", err)
	}
	if len(value) == 0 {
		return errors.New("refusing to store an empty secret")
	}

	if err := credential.Set(key, string(value)); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Stored %s in the OS keyring.\n", key)
	return nil
}

func deleteCredential(key string) error {
	if !credential.KnownKey(key) {
		return fmt.Errorf("unknown credential key %q (expected %s or %s)",
			key, credential.KeyIMAPPassword, credential.KeyBoardsPAT)
	}
	if err := credential.Delete(key); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Removed %s from the OS keyring.\n", key)
	return nil
}

func run(configPath string) error {
	cfg, err := model.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if err := credential.Resolve(cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer logger.Sync()

	logger.Info("starting mailboard",
		zap.Strings("senders", cfg.Senders),
		zap.Int("poll_interval_sec", cfg.PollIntervalSec),
	)
	for _, cs := range model.CategoryStates() {
		logger.Info("category mapping",
			zap.String("category", string(cs.Category)),
			zap.String("state", cs.State),
		)
	}

	mb := mailbox.NewClient(
		cfg.IMAP.Server, cfg.IMAP.Port,
		cfg.IMAP.User, cfg.IMAP.Password,
		cfg.IMAP.TLS,
	)
	client := boards.NewClient(cfg.Boards.Organization, cfg.Boards.Project, cfg.Boards.PAT)
	submitter := boards.NewSubmitter(client, cfg.Boards.ItemType, model.DefaultTitlePrefixes(), logger)
	classifier := classify.New(model.DefaultRuleTable())

	var recorder pipeline.Recorder
	if cfg.Journal.Enabled {
		j, err := journal.Open(cfg.Journal.Path)
		if err != nil {
			return err
		}
		defer j.Close()
		recorder = j
	}

	pipe := pipeline.New(mb, classifier, submitter, recorder, cfg.Senders, logger)
	poller := pipeline.NewPoller(
		pipe,
		time.Duration(cfg.PollIntervalSec)*time.Second,
		logger,
	)

	ctx, stop := signal.NotifyContext(
		context.Background(), os.Interrupt, syscall.SIGTERM,
	)
	defer stop()

	poller.Run(ctx)
	logger.Info("shutting down")
	return nil
}

// Package cli builds the cobra command tree: organizing runs, the inbox
// watcher, move history, backend credential management and config
// inspection.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
	"github.com/zalando/go-keyring"

	"vaultsort/internal/agent"
	"vaultsort/internal/config"
	"vaultsort/internal/llm"
	"vaultsort/internal/pathutil"
	"vaultsort/internal/runlog"
	"vaultsort/internal/state"
	"vaultsort/internal/watch"
)

const keyringServiceName = "vaultsort"

// defaultKeyName is used when no llm.key_name is configured.
const defaultKeyName = "backend"

// organizePass runs one full queue-drain over the inbox: fresh run log,
// ledger session, runner, then empty-directory cleanup.
func organizePass(ctx context.Context, cfg *config.Config) error {
	log, err := runlog.New(cfg.LogsDir())
	if err != nil {
		return err
	}
	defer log.Close()

	var db *state.DB
	sessionID := ""
	if d, err := state.Connect(cfg.StatePath()); err == nil {
		db = d
		defer db.Close()
		if s, err := db.CreateSession(ctx, cfg.Inbox(), cfg.Run.DryRun); err == nil {
			sessionID = s.ID
		}
	} else {
		fmt.Fprintf(os.Stderr, "warning: move ledger unavailable: %v\n", err)
	}

	client := llm.NewClient(cfg.LLM.URL, cfg.LLM.KeyName, time.Duration(cfg.LLM.RequestTimeout)*time.Second)

	runner := agent.NewRunner(cfg, client, log, db, sessionID)
	if err := runner.Seed(); err != nil {
		return err
	}
	runErr := runner.Run(ctx)

	pathutil.RemoveEmptyDirs(cfg.Inbox(), config.DropFolder)
	fmt.Println("run log:", log.Path())
	return runErr
}

// prestageInbox moves the visible children of ~/Downloads and ~/Desktop into
// the inbox with no-overwrite suffixing.
func prestageInbox(cfg *config.Config) {
	home, err := os.UserHomeDir()
	if err != nil {
		return
	}
	for _, dir := range []string{filepath.Join(home, "Downloads"), filepath.Join(home, "Desktop")} {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			name := e.Name()
			if strings.HasPrefix(name, ".") || name == config.DropFolder {
				continue
			}
			if e.Type()&os.ModeSymlink != 0 {
				continue
			}
			src := filepath.Join(dir, name)
			if _, err := pathutil.SafeMove(src, cfg.Inbox(), name, cfg.Run.DryRun); err != nil {
				fmt.Fprintf(os.Stderr, "warning: prestage %s: %v\n", src, err)
			}
		}
	}
}

func NewRunCmd() *cobra.Command {
	var dryRun bool
	var noPrestage bool
	var waitSecs int

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Organize the inbox once",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if dryRun {
				cfg.Run.DryRun = true
			}
			if err := cfg.EnsureDirs(); err != nil {
				return err
			}
			if !noPrestage {
				prestageInbox(cfg)
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			if waitSecs > 0 {
				probe := llm.NewClient(cfg.LLM.URL, "", 0)
				if !probe.WaitReady(ctx, time.Duration(waitSecs)*time.Second) {
					return fmt.Errorf("backend not reachable at %s", cfg.LLM.URL)
				}
			}

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(sigCh)

			done := make(chan error, 1)
			go func() { done <- organizePass(ctx, cfg) }()

			var got syscall.Signal
			var runErr error
			select {
			case s := <-sigCh:
				if ss, ok := s.(syscall.Signal); ok {
					got = ss
				} else {
					got = syscall.SIGINT
				}
				cancel()
				runErr = <-done
			case runErr = <-done:
			}

			if got != 0 {
				os.Exit(128 + int(got))
			}
			if errors.Is(runErr, context.Canceled) {
				return nil
			}
			return runErr
		},
	}

	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Plan moves without touching files")
	runCmd.Flags().BoolVar(&noPrestage, "no-prestage", false, "Skip moving Downloads and Desktop into the inbox")
	runCmd.Flags().IntVar(&waitSecs, "wait-backend", 0, "Seconds to wait for the backend port before starting")
	return runCmd
}

func NewWatchCmd() *cobra.Command {
	var settleSecs int

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-run organizing whenever the inbox settles",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.EnsureDirs(); err != nil {
				return err
			}

			w, err := watch.New(cfg.Inbox(), time.Duration(settleSecs)*time.Second)
			if err != nil {
				return err
			}
			defer w.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			fmt.Println("watching:", cfg.Inbox())
			err = w.Run(ctx, func(ctx context.Context) error {
				return organizePass(ctx, cfg)
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	watchCmd.Flags().IntVar(&settleSecs, "settle", 5, "Quiet seconds before a burst of inbox changes triggers a run")
	return watchCmd
}

func NewHistoryCmd() *cobra.Command {
	var limit int

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent moves from the ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			db, err := state.Connect(cfg.StatePath())
			if err != nil {
				return err
			}
			defer db.Close()

			moves, err := db.ListMoves(cmd.Context(), limit)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 2, 2, 2, ' ', 0)
			fmt.Fprintln(w, "WHEN\tSRC\tDEST\tOWNER")
			for _, m := range moves {
				owner := m.Owner
				if owner == "" {
					owner = "-"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					m.CreatedAt.Format("2006-01-02 15:04"), m.Src, m.Dest, owner)
			}
			return w.Flush()
		},
	}

	historyCmd.Flags().IntVar(&limit, "limit", 20, "Maximum rows to show")
	return historyCmd
}

func configuredKeyName(cfg *config.Config) string {
	if cfg.LLM.KeyName != "" {
		return cfg.LLM.KeyName
	}
	return defaultKeyName
}

func NewConnectCmd() *cobra.Command {
	connectCmd := &cobra.Command{
		Use:   "connect",
		Short: "Manage the backend API credential in the OS keyring",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConnectStatus()
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show backend connection status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConnectStatus()
		},
	}

	var setKey string
	setCmd := &cobra.Command{
		Use:   "set-key",
		Short: "Store the backend API key",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			key := strings.TrimSpace(setKey)
			if key == "" {
				fmt.Print("Enter backend API key: ")
				reader := bufio.NewReader(os.Stdin)
				line, err := reader.ReadString('\n')
				if err != nil {
					return fmt.Errorf("read api key: %w", err)
				}
				key = strings.TrimSpace(line)
			}
			if key == "" {
				return errors.New("api key cannot be empty")
			}
			name := configuredKeyName(cfg)
			if err := keyring.Set(keyringServiceName, name, key); err != nil {
				return fmt.Errorf("store key %q: %w", name, err)
			}
			fmt.Printf("Stored backend key %q\n", name)
			return nil
		},
	}
	setCmd.Flags().StringVar(&setKey, "key", "", "API key value")

	removeCmd := &cobra.Command{
		Use:     "rm-key",
		Aliases: []string{"remove", "delete"},
		Short:   "Remove the stored backend API key",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			name := configuredKeyName(cfg)
			if err := keyring.Delete(keyringServiceName, name); err != nil {
				fmt.Printf("No stored key %q\n", name)
				return nil
			}
			fmt.Printf("Removed backend key %q\n", name)
			return nil
		},
	}

	connectCmd.AddCommand(statusCmd, setCmd, removeCmd)
	return connectCmd
}

func runConnectStatus() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	name := configuredKeyName(cfg)
	status := "not connected"
	if _, err := keyring.Get(keyringServiceName, name); err == nil {
		status = "connected"
	}
	w := tabwriter.NewWriter(os.Stdout, 2, 2, 2, ' ', 0)
	fmt.Fprintln(w, "BACKEND\tKEY\tSTATUS")
	fmt.Fprintf(w, "%s\t%s\t%s\n", cfg.LLM.URL, name, status)
	return w.Flush()
}

func NewConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			fmt.Println("# file:", config.Path())
			if err := toml.NewEncoder(os.Stdout).Encode(cfg); err != nil {
				return err
			}
			fmt.Println()
			fmt.Println("# taxonomy hints")
			for root, categories := range config.LoadTaxonomy() {
				fmt.Printf("#   %s: %s\n", root, strings.Join(categories, ", "))
			}
			return nil
		},
	}
}

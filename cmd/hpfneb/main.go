package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Azeezakinyemi999/Hindered-Partition-Function-NEB/internal/bus"
	"github.com/Azeezakinyemi999/Hindered-Partition-Function-NEB/internal/catalog"
	"github.com/Azeezakinyemi999/Hindered-Partition-Function-NEB/internal/config"
	"github.com/Azeezakinyemi999/Hindered-Partition-Function-NEB/internal/engine"
	"github.com/Azeezakinyemi999/Hindered-Partition-Function-NEB/internal/engine/dockerengine"
	"github.com/Azeezakinyemi999/Hindered-Partition-Function-NEB/internal/engine/surrogate"
	"github.com/Azeezakinyemi999/Hindered-Partition-Function-NEB/internal/ledger"
	"github.com/Azeezakinyemi999/Hindered-Partition-Function-NEB/internal/notify"
	"github.com/Azeezakinyemi999/Hindered-Partition-Function-NEB/internal/runner"
	"github.com/Azeezakinyemi999/Hindered-Partition-Function-NEB/internal/sched"
	"github.com/Azeezakinyemi999/Hindered-Partition-Function-NEB/internal/vault"
	"github.com/Azeezakinyemi999/Hindered-Partition-Function-NEB/internal/web"
	"github.com/google/uuid"
)

var version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "version":
		fmt.Printf("hpfneb %s\n", version)
	case "run":
		err = runBatch(os.Args[2:])
	case "serve":
		err = runServe()
	case "report":
		err = runReport(os.Args[2:])
	case "archive":
		err = runArchive(os.Args[2:])
	case "secret":
		err = runSecret(os.Args[2:])
	default:
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		slog.Error("command failed", "command", os.Args[1], "error", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage: hpfneb <command>

Commands:
  run [adsorbate...]   Run one batch and print its report
  serve                Start the orchestrator service (API, scheduler, events)
  report [run-id]      Print the report of a run (latest if omitted)
  archive <...>        Pack or unpack workspace archives
  secret <...>         Manage encrypted calculator credentials
  version              Print version
`)
}

// buildEngine selects the calculator backend from config.
func buildEngine(cfg *config.Config, l *ledger.Ledger) (engine.Engine, error) {
	switch cfg.Calculator.Mode {
	case "", "surrogate":
		return surrogate.New(cfg.Calculator.Slab), nil
	case "docker":
		var v *vault.Vault
		if len(cfg.Calculator.Secrets) > 0 {
			pass := os.Getenv("HPFNEB_VAULT_PASSPHRASE")
			if pass == "" {
				return nil, fmt.Errorf("calculator secrets configured but HPFNEB_VAULT_PASSPHRASE is not set")
			}
			v = vault.New(pass)
		}
		return dockerengine.New(cfg.Calculator, l, v)
	default:
		return nil, fmt.Errorf("unknown calculator mode %q", cfg.Calculator.Mode)
	}
}

func runBatch(adsorbates []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if len(adsorbates) == 0 {
		adsorbates = cfg.Batch.Adsorbates
	}
	if len(adsorbates) == 0 {
		return fmt.Errorf("no adsorbates given and none configured")
	}

	l, err := ledger.Open(cfg.Ledger.Path)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer l.Close()

	eng, err := buildEngine(cfg, l)
	if err != nil {
		return err
	}

	notifier, err := notify.New(cfg.Notify)
	if err != nil {
		slog.Warn("notifier disabled", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r := runner.New(cfg, eng, l, nil, notifier)
	runID, err := r.RunBatch(ctx, adsorbates)
	if err != nil {
		return err
	}

	run, err := l.GetRun(runID)
	if err != nil {
		return err
	}
	fmt.Print(run.Report)
	if run.Status == "failed" {
		return fmt.Errorf("every item in run %s failed", runID)
	}
	return nil
}

func runServe() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	slog.Info("starting hpfneb", "version", version)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l, err := ledger.Open(cfg.Ledger.Path)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer l.Close()
	slog.Info("ledger opened", "path", cfg.Ledger.Path)

	var events *bus.Client
	if cfg.Bus.Enabled {
		b, err := bus.New(cfg.Bus)
		if err != nil {
			return fmt.Errorf("start bus: %w", err)
		}
		defer b.Close()
		events, err = bus.NewClient(b)
		if err != nil {
			return fmt.Errorf("connect bus: %w", err)
		}
		defer events.Close()
		slog.Info("event bus started", "port", b.Port())
	}

	eng, err := buildEngine(cfg, l)
	if err != nil {
		return err
	}

	if err := catalog.New(l).Sync(cfg.Catalog); err != nil {
		return fmt.Errorf("sync catalog: %w", err)
	}

	if err := syncBatches(l, cfg.Batches); err != nil {
		return fmt.Errorf("sync batches: %w", err)
	}

	notifier, err := notify.New(cfg.Notify)
	if err != nil {
		slog.Warn("notifier disabled", "error", err)
	}

	r := runner.New(cfg, eng, l, events, notifier)

	go sched.New(l, r, cfg.Scheduler.PollInterval).Start(ctx)

	if cfg.Web.Enabled {
		srv := web.NewServer(l, r, events, cfg.Web, version)
		go func() {
			if err := srv.Start(ctx); err != nil {
				slog.Error("web server error", "error", err)
			}
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info("shutting down", "signal", sig)
	cancel()
	return nil
}

// syncBatches upserts the configured scheduled batches so the poll loop
// picks them up. Batches only present in the ledger are left alone.
func syncBatches(l *ledger.Ledger, batches map[string]config.ScheduledBatch) error {
	for name, b := range batches {
		if _, err := sched.Parse(b.Schedule); err != nil {
			return fmt.Errorf("batch %s: %w", name, err)
		}
		if err := l.SaveBatch(&ledger.Batch{
			ID:         uuid.New().String(),
			Name:       name,
			Schedule:   b.Schedule,
			Adsorbates: b.Adsorbates,
			Status:     "active",
			NextRunAt:  sched.NextRun(b.Schedule),
		}); err != nil {
			return err
		}
		slog.Info("scheduled batch registered", "name", name, "adsorbates", len(b.Adsorbates))
	}
	return nil
}

func runReport(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	l, err := ledger.Open(cfg.Ledger.Path)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer l.Close()

	var run *ledger.Run
	if len(args) > 0 {
		run, err = l.GetRun(args[0])
	} else {
		run, err = l.LatestRun()
	}
	if err != nil {
		return err
	}
	if run == nil {
		return fmt.Errorf("no matching run")
	}
	if run.Report == "" {
		return fmt.Errorf("run %s has no report (status %s)", run.ID, run.Status)
	}
	fmt.Print(run.Report)
	return nil
}

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/paulstuart/gollm/relnotify"
	"github.com/paulstuart/gollm/relnotify/pkg/config"
	"github.com/paulstuart/gollm/relnotify/pkg/logx"
	"github.com/paulstuart/gollm/relnotify/pkg/notifier"
	"github.com/paulstuart/gollm/relnotify/pkg/scraper"
	"github.com/paulstuart/gollm/relnotify/pkg/watermark"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

// options holds the persistent flags.
type options struct {
	cfgPath  string
	logLevel string
	dryRun   bool
	out      io.Writer
}

func main() {
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}

// execute runs the CLI and returns the process exit code.
func execute(args []string, stdout, stderr io.Writer) int {
	rootCmd := newRootCmd(stdout)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &options{out: out}

	rootCmd := &cobra.Command{
		Use:   "relnotify",
		Short: "Announce new Sora releases to Slack",
		Long: `relnotify reads the Sora and Sora JavaScript SDK release notes,
posts every release it has not announced yet to a Slack channel,
and remembers the newest one so the next run stays quiet.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          opts.runOnce,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.cfgPath, "config", "c", "", "Path to a YAML or JSON config file")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&opts.dryRun, "dry-run", false, "Print messages to stdout instead of posting them; the watermark is left untouched")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Check every source once",
		Args:  cobra.NoArgs,
		RunE:  opts.runOnce,
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "watch",
		Short: "Check every source on the configured schedule",
		Args:  cobra.NoArgs,
		RunE:  opts.watch,
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version info",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "relnotify %s (%s, %s)\n", version, commit, buildDate)
		},
	})

	return rootCmd
}

// setup loads configuration and wires the runner. The returned close func
// releases the watermark store.
func (o *options) setup() (*relnotify.Runner, *config.Config, func(), error) {
	cfg, err := config.Load(o.cfgPath)
	if err != nil {
		return nil, nil, nil, err
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, nil, fmt.Errorf("invalid config: %w", err)
	}

	out := o.out
	if out == nil {
		out = os.Stdout
	}
	log := logx.New(out, cfg.Log.Level, cfg.Log.Format)

	store, err := watermark.Open(watermark.Config{
		Driver:      cfg.Store.Driver,
		Path:        cfg.Store.Path,
		BusyTimeout: cfg.BusyTimeout(),
	}, log)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open watermark store: %w", err)
	}

	r := &relnotify.Runner{
		Sources: cfg.Sources,
		Fetcher: scraper.NewFetcher(scraper.FetcherConfig{
			Timeout:   cfg.HTTPTimeout(),
			UserAgent: cfg.HTTP.UserAgent,
		}),
		Store:   store,
		Strict:  cfg.StrictDelivery,
		Timeout: cfg.HTTPTimeout(),
		Log:     log,
	}

	switch {
	case o.dryRun:
		// A preview must not consume pending releases.
		r.Store = watermark.ReadOnly(store, log)
		r.Notifier = notifier.NewWriter(out, cfg.Slack.Channel)
	default:
		r.Delivery = cfg.DeliveryReady()
		if r.Delivery == nil {
			slack, err := notifier.NewSlack(notifier.SlackConfig{
				Token:   cfg.Slack.Token,
				Channel: cfg.Slack.Channel,
				BaseURL: cfg.Slack.BaseURL,
				Timeout: cfg.SlackTimeout(),
			})
			if err != nil {
				_ = store.Close()
				return nil, nil, nil, err
			}
			r.Notifier = slack
		}
	}

	closeFn := func() {
		if err := store.Close(); err != nil {
			log.Warn("close watermark store", logx.Err(err))
		}
	}
	return r, cfg, closeFn, nil
}

func (o *options) runOnce(cmd *cobra.Command, args []string) error {
	r, _, closeFn, err := o.setup()
	if err != nil {
		return err
	}
	defer closeFn()

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	_, err = r.Run(ctx)
	return err
}

func (o *options) watch(cmd *cobra.Command, args []string) error {
	r, cfg, closeFn, err := o.setup()
	if err != nil {
		return err
	}
	defer closeFn()

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cl := logx.CronLogger{Log: r.Log}
	c := cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)))
	if _, err := c.AddFunc(cfg.Schedule, func() { runLogged(ctx, r) }); err != nil {
		return fmt.Errorf("schedule %q: %w", cfg.Schedule, err)
	}

	r.Log.Info("watching release notes", logx.String("schedule", cfg.Schedule), logx.Int("sources", len(r.Sources)))
	runLogged(ctx, r)

	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

// runLogged keeps the watch loop alive across failed runs.
func runLogged(ctx context.Context, r *relnotify.Runner) {
	if ctx.Err() != nil {
		return
	}
	if _, err := r.Run(ctx); err != nil {
		r.Log.Error("run failed", logx.Err(err))
	}
}

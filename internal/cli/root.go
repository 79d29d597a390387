// Package cli is the tada command line: one-shot commands over the todo list
// and the interactive view.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/golang/glog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Makepad-fr/tadasync/internal/config"
	"github.com/Makepad-fr/tadasync/internal/model"
	"github.com/Makepad-fr/tadasync/internal/repository"
	"github.com/Makepad-fr/tadasync/internal/state"
	"github.com/Makepad-fr/tadasync/internal/store"
	"github.com/Makepad-fr/tadasync/internal/store/docstore"
	"github.com/Makepad-fr/tadasync/internal/tui"
	"github.com/Makepad-fr/tadasync/internal/ui"
)

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// Env is everything the commands touch outside the process.
type Env struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Getenv config.Getenv
	Clock  func() time.Time

	// Open connects the configured store.
	Open func(ctx context.Context, cfg config.Config, m *docstore.Metrics) (docstore.Client, error)
	// Interactive runs the full-screen list.
	Interactive func(ctx context.Context, ctl *state.Controller) error
	// GoFlags are merged into the root flags (glog registers there).
	GoFlags *flag.FlagSet
}

// DefaultEnv wires the real terminal, environment and store.
func DefaultEnv() *Env {
	return &Env{
		Stdin:       os.Stdin,
		Stdout:      os.Stdout,
		Stderr:      os.Stderr,
		Getenv:      os.Getenv,
		Clock:       time.Now,
		Open:        store.Open,
		Interactive: tui.Run,
		GoFlags:     flag.CommandLine,
	}
}

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath  string
	Driver      string
	Theme       string
	MetricsAddr string
	Format      string // "json" | "text"
}

type app struct {
	env     *Env
	opts    RootOptions
	cfg     config.Config
	metrics *docstore.Metrics
	closers []func()
	root    *cobra.Command
}

// NewRootCommand creates the root command.
func NewRootCommand(env *Env) *cobra.Command {
	return newApp(env).root
}

// Execute runs the command line and returns the process exit code.
func Execute(ctx context.Context, env *Env, args []string) int {
	a := newApp(env)
	defer a.close()
	a.root.SetArgs(args)
	err := a.root.ExecuteContext(ctx)
	if err != nil {
		if msg := message(err); msg != "" {
			a.output().failure(err, msg)
		}
		glog.V(1).Infof("[cli] %v", err)
	}
	return ExitCode(err)
}

func newApp(env *Env) *app {
	if env.Getenv == nil {
		env.Getenv = os.Getenv
	}
	if env.Clock == nil {
		env.Clock = time.Now
	}
	if env.Open == nil {
		env.Open = store.Open
	}
	a := &app{env: env}

	cmd := &cobra.Command{
		Use:   "tada",
		Short: "tada - a tiny todo list backed by a document store",
		Long: "Manage short todos kept in a remote document store.\n" +
			"Run `tada ls` on a terminal for the interactive list.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return usageError("unknown subcommand: %s", args[0])
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Help()
			return &ExitError{Code: ExitUsage}
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}
	cmd.SetIn(env.Stdin)
	cmd.SetOut(env.Stdout)
	cmd.SetErr(env.Stderr)
	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return &ExitError{Code: ExitUsage, Message: err.Error()}
	})

	pf := cmd.PersistentFlags()
	pf.StringVar(&a.opts.ConfigPath, "config", "", "config file (default ~/.tada/config.yaml)")
	pf.StringVar(&a.opts.Driver, "driver", "", "store driver ("+strings.Join(config.Drivers, "|")+")")
	pf.StringVar(&a.opts.Theme, "theme", "", "color theme ("+strings.Join(ui.Themes, "|")+")")
	pf.StringVar(&a.opts.MetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	pf.StringVar(&a.opts.Format, "format", "text", "output format (json|text)")
	if env.GoFlags != nil {
		pf.AddGoFlagSet(env.GoFlags)
	}

	cmd.AddCommand(a.newListCommand())
	cmd.AddCommand(a.newAddCommand())
	cmd.AddCommand(a.newDoneCommand())
	cmd.AddCommand(a.newEditCommand())
	cmd.AddCommand(a.newRemoveCommand())
	cmd.AddCommand(a.newAuthCommand())

	a.root = cmd
	return a
}

// setup resolves configuration and theme before any command runs.
func (a *app) setup() error {
	if !slices.Contains(ValidFormats, a.opts.Format) {
		return usageError("invalid format %q: must be one of %v", a.opts.Format, ValidFormats)
	}
	cfg, err := config.Load(a.opts.ConfigPath, a.env.Getenv)
	if err != nil {
		return &ExitError{Code: ExitFailure, Message: "config: " + err.Error(), Err: err}
	}
	if a.opts.Driver != "" {
		cfg.Driver = strings.ToLower(a.opts.Driver)
	}
	if a.opts.Theme != "" {
		cfg.Theme = a.opts.Theme
	}
	if err := ui.SetTheme(cfg.Theme); err != nil {
		return usageError("%v", err)
	}
	a.cfg = cfg
	if a.opts.MetricsAddr != "" && a.metrics == nil {
		if err := a.serveMetrics(a.opts.MetricsAddr); err != nil {
			return &ExitError{Code: ExitFailure, Message: "metrics: " + err.Error(), Err: err}
		}
	}
	return nil
}

func (a *app) serveMetrics(addr string) error {
	reg := prometheus.NewRegistry()
	a.metrics = docstore.NewMetrics(reg)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			glog.Errorf("[metrics] serve: %v", err)
		}
	}()
	glog.Infof("[metrics] listening on %s", ln.Addr())
	a.closers = append(a.closers, func() { _ = srv.Close() })
	return nil
}

// session connects the store and builds the controller. mount loads the list.
func (a *app) session(ctx context.Context, mount bool) (*state.Controller, func(), error) {
	cfg := a.cfg
	if err := cfg.ApplyToken(a.env.Getenv); err != nil {
		return nil, nil, &ExitError{Code: ExitFailure, Message: "credentials: " + err.Error(), Err: err}
	}
	client, err := a.env.Open(ctx, cfg, a.metrics)
	if err != nil {
		var missing *config.MissingError
		if errors.As(err, &missing) {
			return nil, nil, &ExitError{
				Code:    ExitFailure,
				Message: missing.Error(),
				Hint:    "Set them in the environment or ~/.tada/config.yaml",
				Err:     err,
			}
		}
		return nil, nil, &ExitError{Code: ExitFailure, Message: "open store: " + err.Error(), Err: err}
	}
	done := func() {
		if err := client.Close(); err != nil {
			glog.Warningf("[store] close: %v", err)
		}
	}
	repo := repository.New(client,
		repository.WithCollection(cfg.Collection),
		repository.WithClock(a.env.Clock))
	ctl := state.New(repo, state.WithClock(a.env.Clock))
	if mount {
		if err := ctl.Mount(ctx); err != nil {
			done()
			return nil, nil, err
		}
	}
	return ctl, done, nil
}

func (a *app) output() output {
	return output{format: a.opts.Format, out: a.env.Stdout, errOut: a.env.Stderr}
}

func (a *app) interactive() bool {
	if a.env.Interactive == nil || a.opts.Format != "text" {
		return false
	}
	f, ok := a.env.Stdout.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (a *app) close() {
	for _, c := range a.closers {
		c()
	}
}

// message is what the user sees for err; store details stay in the log.
func message(err error) string {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Message
	}
	var re *repository.Error
	var ve *model.ValidationError
	if errors.As(err, &re) || errors.As(err, &ve) {
		return state.Message(err)
	}
	return err.Error()
}

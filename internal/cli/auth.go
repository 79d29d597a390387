package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Makepad-fr/tadasync/internal/config"
	"github.com/Makepad-fr/tadasync/internal/ui"
)

const authUsage = "tada auth <login|logout|status|whoami>"

type authStatus struct {
	LoggedIn  bool       `json:"loggedIn"`
	Source    string     `json:"source,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

func (a *app) newAuthCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the store API key (" + config.TokenEnv + " overrides the saved one)",
		Args: func(cmd *cobra.Command, args []string) error {
			return usageError("usage: %s", authUsage)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return usageError("usage: %s", authUsage)
		},
	}
	cmd.AddCommand(
		&cobra.Command{Use: "login", Short: "Save an API key read from stdin", Args: exactArgs(0, "tada auth login"), RunE: a.authLogin},
		&cobra.Command{Use: "logout", Short: "Delete the saved API key", Args: exactArgs(0, "tada auth logout"), RunE: a.authLogout},
		&cobra.Command{Use: "status", Short: "Show where the API key comes from", Args: exactArgs(0, "tada auth status"), RunE: a.authStatus},
		&cobra.Command{Use: "whoami", Short: "Decode the API key claims locally", Args: exactArgs(0, "tada auth whoami"), RunE: a.authWhoAmI},
	)
	return cmd
}

func (a *app) authLogin(cmd *cobra.Command, args []string) error {
	fmt.Fprint(a.env.Stderr, "Paste your token: ")
	sc := bufio.NewScanner(a.env.Stdin)
	if !sc.Scan() {
		err := sc.Err()
		if err == nil {
			err = fmt.Errorf("no input")
		}
		return &ExitError{Code: ExitFailure, Message: "read token: " + err.Error(), Err: err}
	}
	if strings.TrimSpace(sc.Text()) == "" {
		return usageError("login: empty token")
	}
	if err := config.SetToken(sc.Text()); err != nil {
		return &ExitError{Code: ExitFailure, Message: "save token: " + err.Error(), Err: err}
	}
	return a.output().success(authStatus{LoggedIn: true, Source: "file"}, "logged in")
}

func (a *app) authLogout(cmd *cobra.Command, args []string) error {
	ti, _ := config.GetToken(a.env.Getenv)
	if ti != nil && ti.Source == "env" {
		return a.output().success(authStatus{LoggedIn: true, Source: "env"},
			"token is provided by "+config.TokenEnv+" env var (nothing to delete)")
	}
	if err := config.DeleteToken(); err != nil {
		return &ExitError{Code: ExitFailure, Message: "logout: " + err.Error(), Err: err}
	}
	return a.output().success(authStatus{}, "logged out")
}

func (a *app) authStatus(cmd *cobra.Command, args []string) error {
	ti, err := config.GetToken(a.env.Getenv)
	if err != nil {
		return &ExitError{Code: ExitFailure, Message: "status: " + err.Error(), Err: err}
	}
	out := a.output()
	if out.json() {
		st := authStatus{}
		if ti != nil {
			st = authStatus{LoggedIn: true, Source: ti.Source, ExpiresAt: ti.ExpiresAt}
		}
		return out.success(st, "")
	}
	w := a.env.Stdout
	if ti == nil {
		ui.Hint(w, "not logged in")
		fmt.Fprintln(w, "Run: tada auth login")
		return nil
	}
	fmt.Fprintf(w, "source: %s\n", ti.Source)
	if ti.ExpiresAt != nil {
		fmt.Fprintf(w, "expires: %s\n", ti.ExpiresAt.UTC().Format(time.RFC3339))
	} else {
		fmt.Fprintln(w, "expires: (unknown)")
	}
	fmt.Fprintf(w, "env override: %s\n", config.TokenEnv)
	return nil
}

// whoami decodes JWT claims locally (unverified); opaque keys print basic info.
func (a *app) authWhoAmI(cmd *cobra.Command, args []string) error {
	ti, _ := config.GetToken(a.env.Getenv)
	if ti == nil {
		return &ExitError{Code: ExitUsage, Message: "not logged in. Run: tada auth login"}
	}
	out := a.output()
	claims, ok := config.Claims(ti.Token)
	if out.json() {
		return out.success(map[string]any{"source": ti.Source, "claims": claims}, "")
	}
	w := a.env.Stdout
	if !ok {
		fmt.Fprintln(w, "Opaque token (cannot introspect locally).")
		fmt.Fprintln(w, "source:", ti.Source)
		return nil
	}
	b, err := json.MarshalIndent(claims, "", "  ")
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	fmt.Fprintln(w, "JWT payload:")
	fmt.Fprintln(w, string(b))
	return nil
}

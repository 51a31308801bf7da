package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"helpdesk/cmd/internal/auth/client"
	"helpdesk/cmd/internal/helpdesk"
)

const annotationNoApp = "helpdesk.no_app"

// cliState is shared by every command of one invocation.
type cliState struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	cfg    Config
	output string
	prompt *prompter

	app *App
}

func (st *cliState) render(v any, table func(w tableWriter)) error {
	return render(st.stdout, st.output, v, table)
}

// NewRootCmd builds the helpdesk command tree over the given streams.
func NewRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	st := &cliState{
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
		cfg:    LoadConfig(),
		prompt: newPrompter(stdin, stderr),
	}

	root := &cobra.Command{
		Use:   "helpdesk",
		Short: "Help-desk ticketing client",
		Long: `helpdesk talks to the help-desk REST API on behalf of a signed-in user.

Clients file and follow tickets, engineers work assigned tickets, and
administrators assign engineers, manage users and read reports.

The session (access and refresh token) is kept in a local store and is
refreshed transparently when the access token expires.

Configuration comes from HELPDESK_* environment variables; the flags below
override them for a single invocation.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := validOutput(st.output); err != nil {
				return err
			}
			if cmd.Annotations[annotationNoApp] == "true" {
				return nil
			}
			log := NewLogger(st.cfg, st.stderr)
			nav := &cliNavigator{w: st.stderr, loginURL: st.cfg.LoginURL}
			a, err := New(cmd.Context(), st.cfg, log, nav)
			if err != nil {
				return err
			}
			st.app = a
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if st.app != nil {
				st.app.Close()
			}
		},
	}
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.StringVarP(&st.output, "output", "o", OutputTable, "output format: table, json or yaml")
	flags.StringVar(&st.cfg.Profile, "profile", st.cfg.Profile, "session profile name (HELPDESK_PROFILE)")
	flags.StringVar(&st.cfg.APIURL, "api-url", st.cfg.APIURL, "API base URL (HELPDESK_API_URL)")
	flags.StringVar(&st.cfg.SessionStore, "store", st.cfg.SessionStore, "session store: file, memory, postgres or redis (HELPDESK_SESSION_STORE)")
	flags.StringVar(&st.cfg.LogLevel, "log-level", st.cfg.LogLevel, "log level: debug, info, warn or error (HELPDESK_LOG_LEVEL)")

	root.AddCommand(
		newLoginCmd(st),
		newLogoutCmd(st),
		newRegisterCmd(st),
		newWhoamiCmd(st),
		newUsersCmd(st),
		newStatsCmd(st),
		newReportCmd(st),
		newTicketsCmd(st),
		newVersionCmd(st),
	)
	return root
}

// ExitCode maps a command error to a process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, client.ErrSessionEnded), errors.Is(err, client.ErrUnauthorized):
		return 3
	case errors.Is(err, helpdesk.ErrValidation), errors.Is(err, client.ErrBadRequest):
		return 2
	default:
		return 1
	}
}

// FormatError renders err for the terminal, expanding field errors.
func FormatError(err error) string {
	var verr *helpdesk.ValidationError
	if errors.As(err, &verr) {
		return "invalid input: " + helpdesk.FormatFields(verr.Fields)
	}
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && len(apiErr.Fields) > 0 {
		msg := fmt.Sprintf("request rejected (%d): %s", apiErr.StatusCode, helpdesk.FormatFields(apiErr.Fields))
		if apiErr.Detail != "" {
			msg += "\n  " + apiErr.Detail
		}
		return msg
	}
	if errors.As(err, &apiErr) && apiErr.Detail != "" && !errors.Is(err, client.ErrSessionEnded) {
		return fmt.Sprintf("%s (%d)", apiErr.Detail, apiErr.StatusCode)
	}
	return err.Error()
}

func ctxOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

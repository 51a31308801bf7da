package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"helpdesk/cmd/internal/helpdesk"
)

func newLoginCmd(st *cliState) *cobra.Command {
	var passwordStdin bool

	cmd := &cobra.Command{
		Use:   "login [username]",
		Short: "Sign in and store the session",
		Long: `Sign in with a username and password. Any existing session for the
profile is replaced.

The password is prompted for without echo. For scripts, pipe it in:
  echo "$PASSWORD" | helpdesk login alice --password-stdin`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var username string
			if len(args) == 1 {
				username = args[0]
			} else {
				u, err := st.prompt.line("Username: ")
				if err != nil {
					return err
				}
				username = u
			}

			var password string
			var err error
			if passwordStdin {
				password, err = st.prompt.line("")
			} else {
				password, err = st.prompt.password("Password: ")
			}
			if err != nil {
				return err
			}

			u, err := st.app.Auth.Login(ctxOf(cmd), username, password)
			if err != nil {
				return err
			}
			return st.render(u, func(w tableWriter) {
				fmt.Fprintf(w, "Signed in as %s (%s)\n", u.Username, orDash(string(u.UserType)))
			})
		},
	}
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the password from stdin")
	return cmd
}

func newLogoutCmd(st *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := st.app.Auth.Logout(ctxOf(cmd)); err != nil {
				return err
			}
			if st.output == OutputTable {
				fmt.Fprintln(st.stdout, "Signed out.")
				return nil
			}
			return st.render(map[string]bool{"signed_out": true}, nil)
		},
	}
}

func newRegisterCmd(st *cliState) *cobra.Command {
	var in helpdesk.RegisterInput
	var userType string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Long: `Create an account. If the server returns tokens, the new user is
signed in right away.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pw, err := st.prompt.newPassword()
			if err != nil {
				return err
			}
			in.Password = pw
			in.UserType = helpdesk.UserType(strings.ToLower(userType))

			res, err := st.app.Auth.Register(ctxOf(cmd), in)
			if err != nil {
				return err
			}
			return st.render(res, func(w tableWriter) {
				msg := res.Message
				if msg == "" {
					msg = "Account created."
				}
				fmt.Fprintln(w, msg)
				if res.LoggedIn {
					fmt.Fprintf(w, "Signed in as %s.\n", in.Username)
				} else {
					fmt.Fprintln(w, "Sign in with: helpdesk login "+in.Username)
				}
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&in.Username, "username", "", "username (letters, numbers, underscores)")
	f.StringVar(&in.Email, "email", "", "email address")
	f.StringVar(&in.FirstName, "first-name", "", "first name")
	f.StringVar(&in.LastName, "last-name", "", "last name")
	f.StringVar(&userType, "user-type", string(helpdesk.UserClient), "client, engineer or admin")
	f.StringVar(&in.Phone, "phone", "", "phone number")
	f.StringVar(&in.Department, "department", "", "department")
	return cmd
}

func newWhoamiCmd(st *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			u, ok, err := st.app.Auth.Restore(ctxOf(cmd))
			if err != nil {
				return err
			}
			if !ok {
				return errors.New("not signed in; run: helpdesk login")
			}
			return st.render(u, func(w tableWriter) {
				fmt.Fprintf(w, "Username:\t%s\n", u.Username)
				fmt.Fprintf(w, "Name:\t%s\n", u.DisplayName())
				fmt.Fprintf(w, "Email:\t%s\n", orDash(u.Email))
				fmt.Fprintf(w, "Type:\t%s\n", u.UserType)
				if u.Department != "" {
					fmt.Fprintf(w, "Department:\t%s\n", u.Department)
				}
			})
		},
	}
}

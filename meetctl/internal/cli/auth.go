package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var errNotSignedIn = errors.New("not signed in, run 'meetctl login' first")

func NewLoginCmd(deps *Dependencies) *cobra.Command {
	var email string
	var signup bool
	var displayName string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to MeetFlow",
		Long: `Sign in with email and password. The session is kept in the system
keyring, or in ~/.meetflow/session.yaml when no keyring is available.

Examples:
  meetctl login --email ada@example.com
  meetctl login --signup --email ada@example.com --name Ada`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := formatter(deps)
			reader := bufio.NewReader(deps.In)

			if email == "" {
				fmt.Fprint(deps.Out, "Email: ")
				line, err := reader.ReadString('\n')
				if err != nil {
					return fmt.Errorf("reading email: %w", err)
				}
				email = strings.TrimSpace(line)
			}

			password, err := readPassword(deps, reader)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if signup {
				s, err := deps.App.Session.Register(ctx, email, password, displayName)
				if err != nil {
					return fmt.Errorf("sign up failed: %w", err)
				}
				out.SignedIn(s.User.Email)
				return nil
			}
			s, err := deps.App.Session.Login(ctx, email, password)
			if err != nil {
				return fmt.Errorf("sign in failed: %w", err)
			}
			out.SignedIn(s.User.Email)
			return nil
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "Account email")
	cmd.Flags().BoolVar(&signup, "signup", false, "Create the account first")
	cmd.Flags().StringVarP(&displayName, "name", "n", "", "Display name for --signup")

	return cmd
}

// readPassword reads without echo from a terminal, falling back to a plain
// line when input is piped.
func readPassword(deps *Dependencies, reader *bufio.Reader) (string, error) {
	fmt.Fprint(deps.Out, "Password: ")
	if f, ok := deps.In.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		raw, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(deps.Out)
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return string(raw), nil
	}
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func NewLogoutCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := formatter(deps)
			if err := deps.App.Session.Logout(cmd.Context()); err != nil {
				out.Warning(fmt.Sprintf("server sign-out failed: %v", err))
			}
			out.Success("Signed out")
			return nil
		},
	}
}

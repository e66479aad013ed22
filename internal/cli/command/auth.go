package command

import (
	"bufio"
	"io"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/fintrack-go/internal/core/domain"
)

// LoginCommand returns the login command.
func LoginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Sign in and store the session",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "email",
				Aliases:  []string{"e"},
				Usage:    "Account email",
				EnvVars:  []string{"FINTRACK_EMAIL"},
				Required: true,
			},
			&cli.StringFlag{
				Name:    "password",
				Aliases: []string{"p"},
				Usage:   "Account password (read from stdin when omitted)",
			},
		},
		Action: loginAction,
	}
}

func loginAction(c *cli.Context) error {
	password := c.String("password")
	if password == "" {
		var err error
		if password, err = readSecret(c.App.Reader); err != nil {
			return err
		}
	}

	rt, err := EnsureSession(c)
	if err != nil {
		return err
	}

	session, err := rt.Sessions.Login(c.Context, strings.TrimSpace(c.String("email")), password)
	if err != nil {
		return err
	}
	return write(c, newSessionView(&session.Identity))
}

// LogoutCommand returns the logout command.
func LogoutCommand() *cli.Command {
	return &cli.Command{
		Name:   "logout",
		Usage:  "Discard the local session",
		Action: logoutAction,
	}
}

func logoutAction(c *cli.Context) error {
	rt, err := EnsureSession(c)
	if err != nil {
		return err
	}
	if err := rt.Sessions.Logout(c.Context); err != nil {
		return err
	}
	return write(c, newSessionView(nil))
}

// WhoamiCommand returns the whoami command.
func WhoamiCommand() *cli.Command {
	return &cli.Command{
		Name:   "whoami",
		Usage:  "Show the signed-in user",
		Action: whoamiAction,
	}
}

func whoamiAction(c *cli.Context) error {
	rt, err := EnsureSession(c)
	if err != nil {
		return err
	}
	id := rt.Sessions.CurrentIdentity()
	if id == nil {
		return domain.ErrUnauthenticated.WithDetails("not logged in")
	}
	return write(c, newSessionView(id))
}

// RefreshCommand returns the refresh command.
func RefreshCommand() *cli.Command {
	return &cli.Command{
		Name:   "refresh",
		Usage:  "Exchange the refresh token for a new access token",
		Action: refreshAction,
	}
}

func refreshAction(c *cli.Context) error {
	rt, err := EnsureSession(c)
	if err != nil {
		return err
	}
	session, err := rt.Sessions.Refresh(c.Context)
	if err != nil {
		return err
	}
	view := newSessionView(&session.Identity)
	view.Tokens = "rotated"
	return write(c, view)
}

// PasswdCommand returns the passwd command.
func PasswdCommand() *cli.Command {
	return &cli.Command{
		Name:  "passwd",
		Usage: "Change the account password",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "current",
				Usage: "Current password (read from stdin when omitted)",
			},
			&cli.StringFlag{
				Name:  "new",
				Usage: "New password (read from stdin when omitted)",
			},
		},
		Action: passwdAction,
	}
}

func passwdAction(c *cli.Context) error {
	current, next := c.String("current"), c.String("new")
	if current == "" || next == "" {
		lines := bufio.NewReader(c.App.Reader)
		var err error
		if current == "" {
			if current, err = readLine(lines); err != nil {
				return err
			}
		}
		if next == "" {
			if next, err = readLine(lines); err != nil {
				return err
			}
		}
	}

	rt, err := EnsureSession(c)
	if err != nil {
		return err
	}
	if err := rt.Sessions.ChangePassword(c.Context, current, next); err != nil {
		return err
	}
	return write(c, &messageView{Result: "password changed"})
}

// readSecret reads one line from r.
func readSecret(r io.Reader) (string, error) {
	return readLine(bufio.NewReader(r))
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", domain.ErrInvalidArgument.WithDetails("expected a password on stdin")
	}
	return strings.TrimRight(line, "\r\n"), nil
}

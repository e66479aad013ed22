package command

import (
	"github.com/urfave/cli/v2"

	"github.com/yndnr/fintrack-go/internal/core/domain"
)

// ProfileCommand returns the profile subcommand group.
func ProfileCommand() *cli.Command {
	return &cli.Command{
		Name:  "profile",
		Usage: "Profile management",
		Subcommands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Show the cached profile",
				Action: func(c *cli.Context) error {
					return whoamiAction(c)
				},
			},
			{
				Name:  "update",
				Usage: "Change first and last name",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "first-name",
						Usage: "New first name",
					},
					&cli.StringFlag{
						Name:  "last-name",
						Usage: "New last name",
					},
				},
				Action: profileUpdate,
			},
		},
	}
}

func profileUpdate(c *cli.Context) error {
	patch := domain.ProfilePatch{
		FirstName: c.String("first-name"),
		LastName:  c.String("last-name"),
	}
	if err := patch.Validate(); err != nil {
		return err
	}

	rt, err := EnsureSession(c)
	if err != nil {
		return err
	}

	result, err := rt.Sessions.UpdateProfile(c.Context, patch)
	if err != nil {
		return err
	}

	view := newSessionView(result.Identity())
	view.Tokens = "unchanged"
	if result.Kind() == domain.ProfileRotated {
		view.Tokens = "rotated"
	}
	return write(c, view)
}

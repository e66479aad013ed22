package command

import (
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/fintrack-go/internal/cli/output"
	"github.com/yndnr/fintrack-go/internal/config"
	"github.com/yndnr/fintrack-go/internal/infra/buildinfo"
)

// statusView summarises the local client state.
type statusView struct {
	State    string `json:"state" yaml:"state"`
	Email    string `json:"email,omitempty" yaml:"email,omitempty"`
	Expires  string `json:"access_expires,omitempty" yaml:"access_expires,omitempty" table:"ACCESS EXPIRES"`
	Server   string `json:"server" yaml:"server"`
	Engine   string `json:"engine" yaml:"engine" table:"STORE ENGINE"`
	StoreDir string `json:"store_dir,omitempty" yaml:"store_dir,omitempty" table:"STORE DIR"`
	Sealed   bool   `json:"sealed" yaml:"sealed"`
	LogLevel string `json:"log_level" yaml:"log_level" table:"LOG LEVEL"`
}

// StatusCommand returns the status command.
func StatusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show session and client status",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "metrics",
				Usage: "Print client metrics in Prometheus text format",
			},
		},
		Action: statusAction,
	}
}

func statusAction(c *cli.Context) error {
	rt, err := EnsureSession(c)
	if err != nil {
		return err
	}

	if c.Bool("metrics") {
		return rt.Metrics.WriteText(c.App.Writer)
	}

	cfg := rt.Config
	view := &statusView{
		State:    string(rt.Sessions.State()),
		Server:   rt.Gateway.BaseURL(),
		Engine:   cfg.Storage.Engine,
		Sealed:   cfg.Storage.Encryption.Passphrase != "",
		LogLevel: cfg.Log.Level,
	}
	if cfg.Storage.Engine == config.EngineBadger {
		view.StoreDir = cfg.Storage.Dir
	}
	if sess := rt.Sessions.CurrentSession(); sess != nil {
		view.Email = sess.Identity.Email
		if exp, ok := tokenExpiry(sess.AccessToken); ok {
			view.Expires = exp.UTC().Format(time.RFC3339)
		}
	}
	return write(c, view)
}

// ConfigCommand returns the config subcommand group.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Client configuration",
		Subcommands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show the effective configuration with secrets masked",
				Action: configShow,
			},
			{
				Name:   "validate",
				Usage:  "Validate the configuration",
				Action: configValidate,
			},
			{
				Name:  "path",
				Usage: "Print the default config file path",
				Action: func(c *cli.Context) error {
					return write(c, &messageView{Result: config.DefaultConfigPath()})
				},
			},
		},
	}
}

func configShow(c *cli.Context) error {
	cfg, err := LoadConfig(c)
	if err != nil {
		return err
	}
	sanitized := config.Sanitize(cfg)
	if ParseGlobalFlags(c).Output == output.FormatTable {
		return write(c, sanitized.Map())
	}
	return write(c, sanitized)
}

func configValidate(c *cli.Context) error {
	if _, err := LoadConfig(c); err != nil {
		return err
	}
	return write(c, &messageView{Result: "configuration is valid"})
}

// VersionCommand returns the version command.
func VersionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Show build information",
		Action: func(c *cli.Context) error {
			return write(c, buildinfo.Get())
		},
	}
}

package command

import (
	"errors"
	"fmt"
	"io"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/fintrack-go/internal/cli/output"
	"github.com/yndnr/fintrack-go/internal/core/domain"
	"github.com/yndnr/fintrack-go/internal/infra/buildinfo"
)

// runtimeKey is the App.Metadata key holding the *Runtime.
const runtimeKey = "runtime"

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:                 "fintrack-cli",
		Usage:                "Sign in to FinTrack and manage your session",
		Version:              buildinfo.String(),
		Flags:                globalFlags(),
		EnableBashCompletion: true,
		Commands: []*cli.Command{
			LoginCommand(),
			LogoutCommand(),
			WhoamiCommand(),
			RefreshCommand(),
			PasswdCommand(),
			ProfileCommand(),
			StatusCommand(),
			ConfigCommand(),
			VersionCommand(),
		},
		Before: func(c *cli.Context) error {
			if _, err := output.ParseFormat(c.String("output")); err != nil {
				return domain.ErrInvalidArgument.WithDetails(err.Error())
			}
			return nil
		},
		After: func(c *cli.Context) error {
			if rt, ok := c.App.Metadata[runtimeKey].(*Runtime); ok {
				delete(c.App.Metadata, runtimeKey)
				return rt.Close()
			}
			return nil
		},
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Config file (default ~/.fintrack/cli.yaml)",
			EnvVars: []string{"FINTRACK_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "Auth API base URL (e.g., http://localhost:8000/api)",
		},
		&cli.StringFlag{
			Name:  "store-dir",
			Usage: "Credential store directory",
		},
		&cli.BoolFlag{
			Name:  "ephemeral",
			Usage: "Keep credentials in memory only for this invocation",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
			Value:   "table",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"V"},
			Usage:   "Enable debug logging",
		},
	}
}

// GlobalFlags defines flags available to all commands.
type GlobalFlags struct {
	ConfigPath string
	Server     string
	StoreDir   string
	Ephemeral  bool
	Output     output.Format
	Verbose    bool
}

// ParseGlobalFlags extracts global flags from context.
func ParseGlobalFlags(c *cli.Context) *GlobalFlags {
	format, err := output.ParseFormat(c.String("output"))
	if err != nil {
		format = output.FormatTable
	}
	return &GlobalFlags{
		ConfigPath: c.String("config"),
		Server:     c.String("server"),
		StoreDir:   c.String("store-dir"),
		Ephemeral:  c.Bool("ephemeral"),
		Output:     format,
		Verbose:    c.Bool("verbose"),
	}
}

// Overrides returns the flags that were set as dotted config keys.
func (f *GlobalFlags) Overrides() map[string]any {
	overrides := make(map[string]any)
	if f.Server != "" {
		overrides["gateway.base_url"] = f.Server
	}
	if f.StoreDir != "" {
		overrides["storage.dir"] = f.StoreDir
	}
	if f.Ephemeral {
		overrides["storage.engine"] = "memory"
	}
	if f.Verbose {
		overrides["log.level"] = "debug"
	}
	return overrides
}

// PrintError prints err to w as "error: [CODE] message: details".
func PrintError(w io.Writer, err error) {
	var de *domain.DomainError
	if errors.As(err, &de) {
		fmt.Fprintf(w, "error: %s\n", de.Error())
		return
	}
	fmt.Fprintf(w, "error: %v\n", err)
}

// write renders data in the selected output format to the app writer.
func write(c *cli.Context, data any) error {
	return output.Write(c.App.Writer, ParseGlobalFlags(c).Output, data)
}

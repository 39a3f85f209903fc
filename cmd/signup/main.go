// Command signup serves the signup form and offers offline tooling for it.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vango-dev/signup/internal/config"
	"github.com/vango-dev/signup/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// useColor is cleared by --no-color or when stderr is not a terminal.
var useColor = true

func main() {
	if err := newRootCmd().Execute(); err != nil {
		errors.Fprint(os.Stderr, err)
		os.Exit(1)
	}
}

// rootOptions holds the persistent flags.
type rootOptions struct {
	configPath string
	noColor    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "signup",
		Short: "A live-validated signup form",
		Long: `signup serves an account signup form with field-level validation,
live feedback over WebSocket and a simulated signup API.

The same validation rules back the HTML form, the JSON API, the
"validate" command and the interactive "prompt" command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.noColor || !term.IsTerminal(int(os.Stderr.Fd())) {
				useColor = false
				errors.DisableColors()
			}
		},
	}

	root.SetFlagErrorFunc(usageError)
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Config file (default: signup.yaml, signup.yml or signup.json in the working directory)")
	root.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "Disable colored output")

	root.AddCommand(
		serveCmd(opts),
		validateCmd(),
		schemaCmd(),
		promptCmd(opts),
		versionCmd(),
	)
	return root
}

// usageError reports a flag or argument mistake as E401.
func usageError(cmd *cobra.Command, err error) error {
	return errors.New("E401").
		Wrap(err).
		WithSuggestion(fmt.Sprintf("Run '%s --help' for usage", cmd.CommandPath()))
}

// checkArgs wraps a positional argument check so that failures are
// reported as usage errors.
func checkArgs(check cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := check(cmd, args); err != nil {
			return usageError(cmd, err)
		}
		return nil
	}
}

// load reads the configuration file and applies environment overrides.
// Callers apply flag overrides and then Validate.
func (o *rootOptions) load() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if o.configPath != "" {
		cfg, err = config.Load(o.configPath)
	} else {
		cfg, err = config.LoadDir(".")
	}
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv(os.LookupEnv)
	return cfg, nil
}

func paint(code, text string) string {
	if !useColor {
		return text
	}
	return code + text + "\033[0m"
}

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", paint("\033[32m", "✓"), fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", paint("\033[33m", "⚠"), fmt.Sprintf(format, args...))
}

// Package cli wires the netauto commands together.
package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	gsyslog "github.com/hashicorp/go-syslog"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	verbose bool
	syslog  bool
}

// NewRootCmd returns the root cobra command for the netauto CLI.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "netauto",
		Short:         "Back up network device configurations and probe host reachability",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	cmd.PersistentFlags().BoolVar(&opts.syslog, "syslog", false, "send logs to syslog instead of the console")
	cmd.AddCommand(newBackupCmd(opts))
	cmd.AddCommand(newProbeCmd(opts))
	return cmd
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}

// newLogger builds the process logger. Nothing here is global: the logger
// is handed down into every component explicitly.
func (o *rootOptions) newLogger() (zerolog.Logger, error) {
	level := zerolog.InfoLevel
	if o.verbose {
		level = zerolog.DebugLevel
	}
	var out io.Writer = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	if o.syslog {
		sl, err := gsyslog.NewLogger(gsyslog.LOG_INFO, "LOCAL0", "netauto")
		if err != nil {
			return zerolog.Nop(), fmt.Errorf("unable to open syslog: %w", err)
		}
		out = sl
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger(), nil
}

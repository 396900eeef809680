package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var version = "dev"

// zerologAdapter satisfies library.Logger on top of a zerolog.Logger.
// Args are alternating key/value pairs.
type zerologAdapter struct {
	l zerolog.Logger
}

func fields(args []any) map[string]any {
	m := make(map[string]any, len(args)/2)
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprint(args[i])
		}
		m[key] = args[i+1]
	}
	return m
}

func (z zerologAdapter) Debug(msg string, args ...any) { z.l.Debug().Fields(fields(args)).Msg(msg) }
func (z zerologAdapter) Info(msg string, args ...any)  { z.l.Info().Fields(fields(args)).Msg(msg) }
func (z zerologAdapter) Warn(msg string, args ...any)  { z.l.Warn().Fields(fields(args)).Msg(msg) }
func (z zerologAdapter) Error(msg string, args ...any) { z.l.Error().Fields(fields(args)).Msg(msg) }

func newLogger(verbose bool) zerologAdapter {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	l := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
	return zerologAdapter{l: l}
}

func main() {
	var (
		configPath string
		verbose    bool
	)

	rootCmd := &cobra.Command{
		Use:   "circulate",
		Short: "Track a library's books, members, and loans",
		Long: `circulate manages a small library's circulation: registering books and
members, checking books out and back in, tracking overdue loans, and
searching the catalog. State lives in a single SQLite file.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(
		newAddBookCommand(&configPath, &verbose),
		newAddMemberCommand(&configPath, &verbose),
		newSearchCommand(&configPath, &verbose),
		newCheckoutCommand(&configPath, &verbose),
		newReturnCommand(&configPath, &verbose),
		newOverdueCommand(&configPath, &verbose),
		newLoansCommand(&configPath, &verbose),
		newSetActiveCommand(&configPath, &verbose),
		newSetFinesCommand(&configPath, &verbose),
		newSetPasswordCommand(&configPath, &verbose),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

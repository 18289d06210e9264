// Command callsim replays a scripted call on a simulated clock and prints the
// timeline, the alerts sent and the call summary.
package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/zhouzirui/z-guardian/backend/internal/sim"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		scriptPath string
		seed       uint64
		aiName     string
		codeWord   string
		format     string
		settle     time.Duration
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:   "callsim",
		Short: "Replay a scripted fake call",
		Long: `Replay a scripted fake call deterministically.

Script lines are user messages unless they start with a directive:
  wait <duration>     advance the clock, e.g. "wait 1.5s"
  toggle <control>    mute, video, voice or recording
  codeword <word>     stage and save a new code word
  draft <text>        stage input text without sending
  end                 hang up now
Lines starting with "> " are always sent as messages. "-" reads stdin.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			in, closeIn, err := openScript(cmd, scriptPath)
			if err != nil {
				return err
			}
			defer closeIn()

			steps, err := sim.Parse(in)
			if err != nil {
				return err
			}

			logger := zerolog.Nop()
			if verbose {
				logger = zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr()}).With().Timestamp().Logger()
			}

			res, err := sim.Run(cmd.Context(), steps, sim.Options{
				Seed:     seed,
				AIName:   aiName,
				CodeWord: codeWord,
				Settle:   settle,
				Logger:   logger,
			})
			if err != nil {
				return err
			}
			return sim.Write(cmd.OutOrStdout(), res, format)
		},
	}

	cmd.Flags().StringVarP(&scriptPath, "script", "s", "-", "Script file, or - for stdin")
	cmd.Flags().Uint64Var(&seed, "seed", 1, "Random seed for reply choice and timing")
	cmd.Flags().StringVar(&aiName, "ai-name", "", "Companion name (default Alex)")
	cmd.Flags().StringVar(&codeWord, "code-word", "", "Initial code word (default pineapple)")
	cmd.Flags().StringVarP(&format, "format", "f", sim.FormatText, "Output format: json or text")
	cmd.Flags().DurationVar(&settle, "settle", sim.DefaultSettle, "Time to let pending replies land before hanging up")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log session activity to stderr")
	return cmd
}

func openScript(cmd *cobra.Command, path string) (io.Reader, func(), error) {
	if path == "" || path == "-" {
		return cmd.InOrStdin(), func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open script: %w", err)
	}
	return f, func() { f.Close() }, nil
}

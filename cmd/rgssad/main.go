// Command rgssad inspects and extracts RGSS game archives.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp(os.Stdout, os.Stderr).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// env carries the loggers and output streams shared by all commands.
type env struct {
	out     io.Writer
	logger  *slog.Logger
	failLog *slog.Logger
	closeFn func() error
}

func newApp(stdout, stderr io.Writer) *cli.App {
	e := &env{out: stdout}

	return &cli.App{
		Name:      "rgssad",
		Usage:     "inspect and extract RGSS game archives (.rgssad, .rgss2a, .rgss3a)",
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-level",
				Value: "warn",
				Usage: "stderr log level (debug, info, warn, error)",
			},
			&cli.PathFlag{
				Name:  "log-file",
				Usage: "append failures as JSON records to `FILE`",
			},
		},
		Before: func(c *cli.Context) error {
			return e.setup(stderr, c.String("log-level"), c.Path("log-file"))
		},
		After: func(*cli.Context) error {
			if e.closeFn != nil {
				return e.closeFn()
			}
			return nil
		},
		Commands: []*cli.Command{
			detectCommand(e),
			listCommand(e),
			extractCommand(e),
			exportCommand(e),
			packCommand(e),
		},
	}
}

// setup configures logging from the global flags.
func (e *env) setup(stderr io.Writer, level, logFile string) error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return fmt.Errorf("invalid --log-level %q: %w", level, err)
	}
	e.logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: lvl}))
	e.failLog = slog.New(slog.DiscardHandler)

	if logFile != "" {
		//nolint:gosec // path comes from the operator
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		e.failLog = slog.New(slog.NewJSONHandler(f, nil))
		e.closeFn = f.Close
	}
	return nil
}

// action wraps a command so that its failure is also written to the log file.
func (e *env) action(name string, fn cli.ActionFunc) cli.ActionFunc {
	return func(c *cli.Context) error {
		err := fn(c)
		if err != nil {
			e.failLog.Error("command failed", "command", name, "args", c.Args().Slice(), "error", err.Error())
		}
		return err
	}
}

// archiveArg returns the single positional archive path.
func archiveArg(c *cli.Context) (string, error) {
	if c.NArg() != 1 {
		return "", fmt.Errorf("%s: expected exactly one archive path, got %d", c.Command.Name, c.NArg())
	}
	return c.Args().First(), nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	cli "github.com/urfave/cli/v3"

	"github.com/dgallion1/thesisfmt/internal/pipeline"
	"github.com/dgallion1/thesisfmt/internal/profile"
)

// errNotCompliant makes the process exit non-zero after a report with
// error-severity findings has been written.
var errNotCompliant = errors.New("document is not compliant")

type app struct {
	out    io.Writer
	errOut io.Writer

	log     *slog.Logger
	profile profile.Profile
	builder *pipeline.Builder

	errWasHandled bool
}

// prepare runs after the command line has been parsed and before any
// subcommand action.
func (a *app) prepare(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	var level slog.Level
	if v := strings.TrimSpace(cmd.String("log-level")); v != "" {
		if err := level.UnmarshalText([]byte(v)); err != nil {
			return ctx, fmt.Errorf("bad log level: %w", err)
		}
	}
	a.log = slog.New(slog.NewTextHandler(a.errOut, &slog.HandlerOptions{Level: level}))

	if cmd.NArg() == 0 {
		return ctx, nil
	}

	var err error
	if a.profile, err = profile.Load(cmd.String("profile")); err != nil {
		return ctx, fmt.Errorf("unable to prepare profile: %w", err)
	}
	if a.builder, err = pipeline.NewBuilder(a.profile, a.log); err != nil {
		return ctx, fmt.Errorf("unable to prepare builder: %w", err)
	}
	if path := cmd.String("profile"); path != "" {
		a.log.Debug("Profile loaded", "path", path, "name", a.profile.Name)
	}
	return ctx, nil
}

func (a *app) exitErrHandler(_ context.Context, _ *cli.Command, err error) {
	if a.log == nil {
		return
	}
	if errors.Is(err, errNotCompliant) {
		a.log.Warn("Validation found errors")
	} else {
		a.log.Error("Program ended with error", "error", err)
	}
	a.errWasHandled = true
}

func usageErrorHandler(_ context.Context, _ *cli.Command, err error, _ bool) error {
	return err
}

func (a *app) command() *cli.Command {
	return &cli.Command{
		Name:            "thesisfmt",
		Usage:           "assembles and checks academic thesis documents (docx)",
		HideHelpCommand: true,
		Writer:          a.out,
		ErrWriter:       a.errOut,
		Before:          a.prepare,
		OnUsageError:    usageErrorHandler,
		ExitErrHandler:  a.exitErrHandler,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "profile", Aliases: []string{"p"}, Sources: cli.EnvVars("THESISFMT_PROFILE"),
				Usage: "load formatting profile overrides from `FILE` (YAML)"},
			&cli.StringFlag{Name: "log-level", Value: "info", Sources: cli.EnvVars("LOG_LEVEL"),
				Usage: "log `LEVEL` (debug, info, warn, error)"},
		},
		Commands: []*cli.Command{
			{
				Name:         "build",
				Usage:        "Assembles a chapter directory tree into a formatted docx",
				ArgsUsage:    "SOURCE",
				OnUsageError: usageErrorHandler,
				Action:       a.build,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Value: "thesis.docx", Sources: cli.EnvVars("THESISFMT_OUT"),
						Usage: "write the document to `FILE`"},
					&cli.BoolFlag{Name: "validate", Usage: "validate the written document and print the report"},
				},
			},
			{
				Name:         "validate",
				Usage:        "Checks a docx against the profile and reports findings",
				ArgsUsage:    "FILE",
				OnUsageError: usageErrorHandler,
				Action:       a.validate,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "pdf", Usage: "count pages of the PDF rendition in `FILE`"},
					&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: "text", Sources: cli.EnvVars("THESISFMT_FORMAT"),
						Usage: "report `FORMAT` (text, json, yaml)"},
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "write the report to `FILE` instead of STDOUT"},
				},
			},
			{
				Name:         "styles",
				Usage:        "Lists the styles defined in a docx grouped by kind",
				ArgsUsage:    "FILE",
				OnUsageError: usageErrorHandler,
				Action:       a.styles,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: "text", Usage: "output `FORMAT` (text, json, yaml)"},
				},
			},
			{
				Name:         "extract",
				Usage:        "Prints the text of a docx, or its chapter outline as JSON or YAML",
				ArgsUsage:    "FILE",
				OnUsageError: usageErrorHandler,
				Action:       a.extract,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: "text", Usage: "output `FORMAT` (text, json, yaml)"},
				},
			},
			{
				Name:         "profile",
				Usage:        "Dumps either default or active formatting profile (YAML)",
				ArgsUsage:    "DESTINATION",
				OnUsageError: usageErrorHandler,
				Action:       a.dumpProfile,
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "default", Usage: "output the built-in profile, ignoring overrides"},
				},
			},
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	a := &app{out: os.Stdout, errOut: os.Stderr}

	var err error
	// os.Exit is called at the end of main, no deferred functions after this one
	defer func() {
		stop()
		if err != nil {
			if !a.errWasHandled {
				fmt.Fprintf(os.Stderr, "Program ended with error: %v\n", err)
			}
			os.Exit(1)
		}
	}()
	err = a.command().Run(ctx, os.Args)
}

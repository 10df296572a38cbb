// Package cli provides the command line interface.
package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/temirov/sessiontree/internal/config"
	"github.com/temirov/sessiontree/internal/output"
	"github.com/temirov/sessiontree/internal/services/clipboard"
	"github.com/temirov/sessiontree/internal/services/stream"
	"github.com/temirov/sessiontree/internal/source"
	"github.com/temirov/sessiontree/internal/types"
	"github.com/temirov/sessiontree/internal/utils"
)

const (
	formatFlagName   = "format"
	summaryFlagName  = "summary"
	treeFlagName     = "tree"
	maxSizeFlagName  = "max-size"
	matchFlagName    = "match"
	dedupeFlagName   = "dedupe"
	copyFlagName     = "copy"
	capacityFlagName = "capacity"
	requiredFlagName = "required"
	configFlagName   = "config"
	verboseFlagName  = "verbose"
	versionFlagName  = "version"
	globalFlagName   = "global"
	forceFlagName    = "force"

	versionTemplate      = "sessiontree version: %s\n"
	rootUse              = "sessiontree"
	rootShortDescription = "sessiontree command line interface"
	rootLongDescription  = `sessiontree reconstructs a directory tree from a recorded terminal session
of cd and ls commands and answers size queries about it.
Sessions are read from files, standard input ("-") or s3://bucket/key.
Use --format to select raw, json, xml, or yaml output, and --version to print the application version.`

	reportUse              = "report [logs...]"
	treeUse                = "tree [logs...]"
	freeUse                = "free [logs...]"
	configUse              = "config"
	configInitUse          = "init"
	reportAlias            = "r"
	treeAlias              = "t"
	freeAlias              = "f"
	reportShortDescription = "list directories below a size threshold (" + reportAlias + ")"
	treeShortDescription   = "display the reconstructed tree (" + treeAlias + ")"
	freeShortDescription   = "find the smallest directory to delete (" + freeAlias + ")"
	configShortDescription = "manage configuration files"
	initShortDescription   = "write a default configuration file"

	// reportLongDescription provides detailed help for the report command.
	reportLongDescription = `Replay each session and list every directory whose total size is strictly
below --max-size, in pre-order. Use --match to keep only directories whose
path matches a glob pattern and --summary to print the combined size.`
	// reportUsageExample demonstrates report command usage.
	reportUsageExample = `  # Sum directories smaller than 100000 bytes
  sessiontree report session.log

  # Read from standard input and render JSON
  cat session.log | sessiontree report --format json

  # Only directories below /a
  sessiontree report --match '/a/**' session.log`

	// treeLongDescription provides detailed help for the tree command.
	treeLongDescription = `Replay each session and print the reconstructed tree with recursive sizes.`
	// treeUsageExample demonstrates tree command usage.
	treeUsageExample = `  # Render the tree as YAML
  sessiontree tree --format yaml session.log

  # Fetch the session from S3
  sessiontree tree s3://logs/session.log`

	// freeLongDescription provides detailed help for the free command.
	freeLongDescription = `Find the smallest directory whose deletion raises unused space to --required
on a device of --capacity bytes.`
	// freeUsageExample demonstrates free command usage.
	freeUsageExample = `  # Use the default capacity and requirement
  sessiontree free session.log

  # Custom device
  sessiontree free --capacity 1000000 --required 250000 session.log`

	configFlagDescription   = "configuration file path"
	verboseFlagDescription  = "enable debug logging"
	versionFlagDescription  = "display application version"
	formatFlagDescription   = "output format (raw, json, xml, yaml)"
	summaryFlagDescription  = "include summary totals"
	treeFlagDescription     = "include the reconstructed tree"
	maxSizeFlagDescription  = "exclusive upper bound of reported directory sizes"
	matchFlagDescription    = "glob pattern applied to directory paths (repeatable)"
	dedupeFlagDescription   = "ignore entries listed again in the same directory"
	copyFlagDescription     = "copy rendered output to the clipboard"
	capacityFlagDescription = "total device capacity in bytes"
	requiredFlagDescription = "unused space required in bytes"
	globalFlagDescription   = "write the global configuration file"
	forceFlagDescription    = "overwrite an existing configuration file"

	invalidFormatMessage           = "Invalid format value '%s'"
	clipboardServiceMissingMessage = "clipboard service is not configured"
	clipboardCopyErrorFormat       = "copy output: %w"
	configInitializedFormat        = "Configuration written to %s\n"
	sessionParsedMessage           = "session parsed"
)

// errVersionDisplayed stops command execution after --version printed the version.
var errVersionDisplayed = errors.New("version displayed")

// Dependencies holds the collaborators commands rely on.
type Dependencies struct {
	Logger *zap.Logger
	// Level is raised to debug by --verbose when set.
	Level     *zap.AtomicLevel
	Clipboard clipboard.Copier
	// S3ClientFactory overrides the configured AWS client.
	S3ClientFactory  source.S3ClientFactory
	WorkingDirectory string
}

type application struct {
	dependencies Dependencies
	configPath   string
	verbose      bool
	showVersion  bool
}

// Execute runs the sessiontree application.
func Execute(logger *zap.Logger, level *zap.AtomicLevel) error {
	rootCommand := NewRootCommand(Dependencies{
		Logger:    logger,
		Level:     level,
		Clipboard: clipboard.NewService(),
	})
	rootCommand.SetArgs(normalizeBooleanFlagArguments(rootCommand, os.Args[1:]))
	return executeRootCommand(rootCommand)
}

func executeRootCommand(rootCommand *cobra.Command) error {
	if err := rootCommand.Execute(); err != nil && !errors.Is(err, errVersionDisplayed) {
		return err
	}
	return nil
}

// NewRootCommand builds the root Cobra command.
func NewRootCommand(dependencies Dependencies) *cobra.Command {
	app := &application{dependencies: dependencies}

	rootCommand := &cobra.Command{
		Use:           rootUse,
		Short:         rootShortDescription,
		Long:          rootLongDescription,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			return command.Help()
		},
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			if app.showVersion {
				fmt.Fprintf(command.OutOrStdout(), versionTemplate, utils.GetApplicationVersion())
				return errVersionDisplayed
			}
			if app.verbose && app.dependencies.Level != nil {
				app.dependencies.Level.SetLevel(zap.DebugLevel)
			}
			return nil
		},
	}
	rootCommand.PersistentFlags().StringVar(&app.configPath, configFlagName, "", configFlagDescription)
	rootCommand.PersistentFlags().BoolVar(&app.verbose, verboseFlagName, false, verboseFlagDescription)
	rootCommand.PersistentFlags().BoolVar(&app.showVersion, versionFlagName, false, versionFlagDescription)
	rootCommand.AddCommand(
		createReportCommand(app),
		createTreeCommand(app),
		createFreeCommand(app),
		createConfigCommand(app),
	)
	rootCommand.InitDefaultHelpCmd()
	rootCommand.InitDefaultCompletionCmd()
	return rootCommand
}

func (app *application) logger() *zap.Logger {
	if app.dependencies.Logger == nil {
		return zap.NewNop()
	}
	return app.dependencies.Logger
}

func (app *application) loadConfiguration() (config.ApplicationConfiguration, error) {
	return config.LoadApplicationConfiguration(config.LoadOptions{
		WorkingDirectory: app.dependencies.WorkingDirectory,
		ExplicitFilePath: app.configPath,
	})
}

func (app *application) s3ClientFactory(settings config.S3Configuration) source.S3ClientFactory {
	if app.dependencies.S3ClientFactory != nil {
		return app.dependencies.S3ClientFactory
	}
	return source.DefaultS3ClientFactory(source.S3Options{
		Region:       settings.Region,
		Endpoint:     settings.Endpoint,
		UsePathStyle: settings.PathStyle != nil && *settings.PathStyle,
	})
}

// sharedFlags are registered on every query command.
type sharedFlags struct {
	format          string
	deduplicate     bool
	copyToClipboard bool
}

func addSharedFlags(command *cobra.Command, flags *sharedFlags) {
	command.Flags().StringVar(&flags.format, formatFlagName, config.DefaultFormat, formatFlagDescription)
	registerBooleanFlag(command.Flags(), &flags.deduplicate, dedupeFlagName, false, dedupeFlagDescription)
	registerBooleanFlag(command.Flags(), &flags.copyToClipboard, copyFlagName, false, copyFlagDescription)
}

// createReportCommand returns the report subcommand.
func createReportCommand(app *application) *cobra.Command {
	var shared sharedFlags
	var threshold int64
	var patterns []string
	var summaryEnabled bool
	var treeEnabled bool

	reportCommand := &cobra.Command{
		Use:     reportUse,
		Aliases: []string{reportAlias},
		Short:   reportShortDescription,
		Long:    reportLongDescription,
		Example: reportUsageExample,
		Args:    cobra.ArbitraryArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			configuration, err := app.loadConfiguration()
			if err != nil {
				return err
			}
			settings := configuration.Report
			reportOptions := stream.ReportOptions{
				Threshold:   resolveInt64(command, maxSizeFlagName, threshold, settings.Threshold),
				Patterns:    resolveStrings(command, matchFlagName, patterns, settings.Match),
				IncludeTree: resolveBool(command, treeFlagName, treeEnabled, settings.Tree),
			}
			return app.runSessions(command, sessionRun{
				commandName:     types.CommandReport,
				format:          resolveString(command, formatFlagName, shared.format, settings.Format),
				includeSummary:  resolveBool(command, summaryFlagName, summaryEnabled, settings.Summary),
				copyToClipboard: resolveBool(command, copyFlagName, shared.copyToClipboard, settings.Clipboard),
				deduplicate:     resolveBool(command, dedupeFlagName, shared.deduplicate, configuration.Replay.DeduplicateListings),
				locations:       arguments,
				s3:              configuration.Source.S3,
				produce: func(ctx context.Context, replay stream.ReplayOptions, events chan<- stream.Event) error {
					options := reportOptions
					options.ReplayOptions = replay
					return stream.StreamReport(ctx, options, events)
				},
			})
		},
	}

	addSharedFlags(reportCommand, &shared)
	reportCommand.Flags().Int64Var(&threshold, maxSizeFlagName, config.DefaultReportThreshold, maxSizeFlagDescription)
	reportCommand.Flags().StringArrayVar(&patterns, matchFlagName, nil, matchFlagDescription)
	registerBooleanFlag(reportCommand.Flags(), &summaryEnabled, summaryFlagName, true, summaryFlagDescription)
	registerBooleanFlag(reportCommand.Flags(), &treeEnabled, treeFlagName, false, treeFlagDescription)
	return reportCommand
}

// createTreeCommand returns the tree subcommand.
func createTreeCommand(app *application) *cobra.Command {
	var shared sharedFlags
	var summaryEnabled bool

	treeCommand := &cobra.Command{
		Use:     treeUse,
		Aliases: []string{treeAlias},
		Short:   treeShortDescription,
		Long:    treeLongDescription,
		Example: treeUsageExample,
		Args:    cobra.ArbitraryArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			configuration, err := app.loadConfiguration()
			if err != nil {
				return err
			}
			settings := configuration.Tree
			return app.runSessions(command, sessionRun{
				commandName:     types.CommandTree,
				format:          resolveString(command, formatFlagName, shared.format, settings.Format),
				includeSummary:  resolveBool(command, summaryFlagName, summaryEnabled, settings.Summary),
				copyToClipboard: resolveBool(command, copyFlagName, shared.copyToClipboard, settings.Clipboard),
				deduplicate:     resolveBool(command, dedupeFlagName, shared.deduplicate, configuration.Replay.DeduplicateListings),
				locations:       arguments,
				s3:              configuration.Source.S3,
				produce: func(ctx context.Context, replay stream.ReplayOptions, events chan<- stream.Event) error {
					return stream.StreamTree(ctx, stream.TreeOptions{ReplayOptions: replay}, events)
				},
			})
		},
	}

	addSharedFlags(treeCommand, &shared)
	registerBooleanFlag(treeCommand.Flags(), &summaryEnabled, summaryFlagName, true, summaryFlagDescription)
	return treeCommand
}

// createFreeCommand returns the free subcommand.
func createFreeCommand(app *application) *cobra.Command {
	var shared sharedFlags
	var capacity int64
	var required int64

	freeCommand := &cobra.Command{
		Use:     freeUse,
		Aliases: []string{freeAlias},
		Short:   freeShortDescription,
		Long:    freeLongDescription,
		Example: freeUsageExample,
		Args:    cobra.ArbitraryArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			configuration, err := app.loadConfiguration()
			if err != nil {
				return err
			}
			settings := configuration.Free
			resolvedCapacity := resolveInt64(command, capacityFlagName, capacity, settings.Capacity)
			resolvedRequired := resolveInt64(command, requiredFlagName, required, settings.Required)
			return app.runSessions(command, sessionRun{
				commandName:     types.CommandFree,
				format:          resolveString(command, formatFlagName, shared.format, settings.Format),
				copyToClipboard: resolveBool(command, copyFlagName, shared.copyToClipboard, settings.Clipboard),
				deduplicate:     resolveBool(command, dedupeFlagName, shared.deduplicate, configuration.Replay.DeduplicateListings),
				locations:       arguments,
				s3:              configuration.Source.S3,
				produce: func(ctx context.Context, replay stream.ReplayOptions, events chan<- stream.Event) error {
					options := stream.FreeOptions{ReplayOptions: replay, Capacity: resolvedCapacity, Required: resolvedRequired}
					return stream.StreamFree(ctx, options, events)
				},
			})
		},
	}

	addSharedFlags(freeCommand, &shared)
	freeCommand.Flags().Int64Var(&capacity, capacityFlagName, config.DefaultFreeCapacity, capacityFlagDescription)
	freeCommand.Flags().Int64Var(&required, requiredFlagName, config.DefaultFreeRequired, requiredFlagDescription)
	return freeCommand
}

// createConfigCommand returns the config command group.
func createConfigCommand(app *application) *cobra.Command {
	var global bool
	var force bool

	configCommand := &cobra.Command{
		Use:   configUse,
		Short: configShortDescription,
		RunE: func(command *cobra.Command, arguments []string) error {
			return command.Help()
		},
	}
	initCommand := &cobra.Command{
		Use:   configInitUse,
		Short: initShortDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			target := config.InitTargetLocal
			if global {
				target = config.InitTargetGlobal
			}
			path, err := config.InitializeConfiguration(config.InitOptions{
				Target:           target,
				Force:            force,
				WorkingDirectory: app.dependencies.WorkingDirectory,
			})
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(command.OutOrStdout(), configInitializedFormat, path)
			return err
		},
	}
	registerBooleanFlag(initCommand.Flags(), &global, globalFlagName, false, globalFlagDescription)
	registerBooleanFlag(initCommand.Flags(), &force, forceFlagName, false, forceFlagDescription)
	configCommand.AddCommand(initCommand)
	return configCommand
}

type sessionRun struct {
	commandName     string
	format          string
	includeSummary  bool
	copyToClipboard bool
	deduplicate     bool
	locations       []string
	s3              config.S3Configuration
	produce         func(context.Context, stream.ReplayOptions, chan<- stream.Event) error
}

// runSessions replays every location in order and renders them with one renderer.
// The first failing location aborts the command.
func (app *application) runSessions(command *cobra.Command, run sessionRun) error {
	format := strings.ToLower(run.format)
	if !output.IsSupportedFormat(format) {
		return fmt.Errorf(invalidFormatMessage, format)
	}
	locations := run.locations
	if len(locations) == 0 {
		locations = []string{utils.StandardInputLocation}
	}

	stdout := command.OutOrStdout()
	var clipboardBuffer *bytes.Buffer
	if run.copyToClipboard {
		if app.dependencies.Clipboard == nil {
			return errors.New(clipboardServiceMissingMessage)
		}
		clipboardBuffer = &bytes.Buffer{}
		stdout = io.MultiWriter(stdout, clipboardBuffer)
	}

	renderer, rendererErr := output.NewStreamRenderer(format, output.RendererOptions{
		Stdout:         stdout,
		Stderr:         command.ErrOrStderr(),
		Command:        run.commandName,
		IncludeSummary: run.includeSummary,
		TotalRoots:     len(locations),
	})
	if rendererErr != nil {
		return rendererErr
	}

	ctx := command.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	logger := app.logger()
	opener := &source.Opener{Stdin: command.InOrStdin(), S3: app.s3ClientFactory(run.s3)}

	for _, location := range locations {
		commands, readErr := opener.ReadCommands(ctx, location)
		if readErr != nil {
			return readErr
		}
		logger.Debug(sessionParsedMessage, zap.String("location", location), zap.Int("commands", len(commands)))
		replayOptions := stream.ReplayOptions{
			Location:            location,
			Commands:            commands,
			DeduplicateListings: run.deduplicate,
			Logger:              logger,
		}
		producer := func(streamCtx context.Context, events chan<- stream.Event) error {
			return run.produce(streamCtx, replayOptions, events)
		}
		if streamErr := dispatchStream(ctx, producer, renderer.Handle); streamErr != nil {
			return streamErr
		}
	}

	if err := renderer.Flush(); err != nil {
		return err
	}
	if clipboardBuffer != nil {
		if err := app.dependencies.Clipboard.Copy(clipboardBuffer.String()); err != nil {
			return fmt.Errorf(clipboardCopyErrorFormat, err)
		}
	}
	return nil
}

func dispatchStream(
	ctx context.Context,
	produce func(context.Context, chan<- stream.Event) error,
	consume func(stream.Event) error,
) error {
	group, streamCtx := errgroup.WithContext(ctx)
	events := make(chan stream.Event)

	group.Go(func() error {
		defer close(events)
		return produce(streamCtx, events)
	})

	group.Go(func() error {
		for {
			select {
			case <-streamCtx.Done():
				return streamCtx.Err()
			case event, ok := <-events:
				if !ok {
					return nil
				}
				if err := consume(event); err != nil {
					return err
				}
			}
		}
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func resolveString(command *cobra.Command, flagName string, flagValue string, configured string) string {
	if command.Flags().Changed(flagName) || configured == "" {
		return flagValue
	}
	return configured
}

func resolveBool(command *cobra.Command, flagName string, flagValue bool, configured *bool) bool {
	if command.Flags().Changed(flagName) || configured == nil {
		return flagValue
	}
	return *configured
}

func resolveInt64(command *cobra.Command, flagName string, flagValue int64, configured *int64) int64 {
	if command.Flags().Changed(flagName) || configured == nil {
		return flagValue
	}
	return *configured
}

func resolveStrings(command *cobra.Command, flagName string, flagValue []string, configured []string) []string {
	if command.Flags().Changed(flagName) || len(configured) == 0 {
		return flagValue
	}
	return append([]string{}, configured...)
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/Helcaraxan/aptgraph/internal/analysis"
	"github.com/Helcaraxan/aptgraph/internal/apt"
	"github.com/Helcaraxan/aptgraph/internal/completion"
	"github.com/Helcaraxan/aptgraph/internal/config"
	"github.com/Helcaraxan/aptgraph/internal/depgraph"
	"github.com/Helcaraxan/aptgraph/internal/logger"
	"github.com/Helcaraxan/aptgraph/internal/parsers"
	"github.com/Helcaraxan/aptgraph/internal/printer"
)

type commonArgs struct {
	log    *logger.Builder
	stdout io.Writer

	configPath string
	config     *config.Config

	// Values of the flags that override the configuration when explicitly set.
	flags configFlags
}

type configFlags struct {
	descriptionPath string
	imagePath       string
	format          string
	renderer        string
	rendererBinary  string
	style           string
	depth           int
	timeout         time.Duration
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cArgs := &commonArgs{
		log:    logger.NewBuilder(os.Stderr),
		stdout: os.Stdout,
	}
	if err := newRootCmd(cArgs).ExecuteContext(ctx); err != nil {
		cArgs.log.Log().Debug("Exited with an error.", zap.Error(err))
		os.Exit(1)
	}
}

func newRootCmd(cArgs *commonArgs) *cobra.Command {
	var verbose []string
	var quiet bool

	gArgs := &graphArgs{commonArgs: cArgs}
	rootCmd := &cobra.Command{
		Use:   "aptgraph <package>",
		Short: aptgraphShort,
		Long:  aptgraphLong,
		Args:  cobra.ExactArgs(1),
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if quiet {
				cArgs.log.SetDomainLevel("all", zapcore.ErrorLevel)
			}
			for _, domain := range verbose {
				cArgs.log.SetDomainLevel(domain, zapcore.DebugLevel)
			}
			return cArgs.loadConfig(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGraphCmd(cmd.Context(), gArgs, args[0])
		},
		ValidArgsFunction: cArgs.completePackage,
	}

	rootCmd.PersistentFlags().StringSliceVarP(&verbose, "verbose", "v", nil, "Verbose output. See 'aptgraph --help' for more information.")
	rootCmd.PersistentFlags().Lookup("verbose").NoOptDefVal = "all"
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Only report errors.")
	rootCmd.PersistentFlags().StringVar(&cArgs.configPath, "config", "", "Path to a YAML or TOML configuration file.")

	addGraphFlags(rootCmd, gArgs)

	rootCmd.AddCommand(
		initGraphCmd(cArgs),
		initAnalyseCmd(cArgs),
		initCompletionCommand(cArgs),
		initVersionCmd(cArgs),
	)
	return rootCmd
}

// loadConfig layers the configuration file and the explicitly set flags on top of the defaults.
func (a *commonArgs) loadConfig(cmd *cobra.Command) error {
	log := a.log.Domain(logger.InitDomain)

	c := config.Default()
	if a.configPath != "" {
		var err error
		if c, err = config.Load(log.Logger, a.configPath); err != nil {
			return err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("dot-output") {
		c.DescriptionPath = a.flags.descriptionPath
	}
	if flags.Changed("output") {
		c.ImagePath = a.flags.imagePath
	}
	if flags.Changed("format") {
		c.Format = a.flags.format
	}
	if flags.Changed("renderer") {
		c.Renderer = a.flags.renderer
	}
	if flags.Changed("renderer-binary") {
		c.RendererBinary = a.flags.rendererBinary
	}
	if flags.Changed("style") {
		c.Style = a.flags.style
	}
	if flags.Changed("depth") {
		c.Depth = a.flags.depth
	}
	if flags.Changed("timeout") {
		c.Timeout = a.flags.timeout
	}

	if err := c.Validate(); err != nil {
		log.Error("Invalid settings.", zap.Error(err))
		return err
	}
	log.Debug("Resolved settings.", zap.Any("config", c))
	a.config = c
	return nil
}

// completePackage suggests package names. The logger is only retrieved once the verbosity is known.
func (a *commonArgs) completePackage(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return completion.PackageArg(a.log.Domain(logger.PackageInfoDomain).Logger)(cmd, args, toComplete)
}

type graphArgs struct {
	*commonArgs

	noRender bool
}

func initGraphCmd(cArgs *commonArgs) *cobra.Command {
	cmdArgs := &graphArgs{commonArgs: cArgs}

	graphCmd := &cobra.Command{
		Use:   "graph <package>",
		Short: graphShort,
		Long:  graphLong,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGraphCmd(cmd.Context(), cmdArgs, args[0])
		},
		ValidArgsFunction: cArgs.completePackage,
	}
	addGraphFlags(graphCmd, cmdArgs)
	return graphCmd
}

func addGraphFlags(cmd *cobra.Command, cmdArgs *graphArgs) {
	flags := &cmdArgs.flags

	cmd.Flags().StringVarP(&flags.descriptionPath, "dot-output", "d", config.DefaultDescriptionPath, "Path at which the DOT description is written.")
	cmd.Flags().StringVarP(&flags.imagePath, "output", "o", config.DefaultImagePath, "Path at which the rendered image is written.")
	cmd.Flags().StringVarP(&flags.format, "format", "F", "", "Image format (pdf, png, ps, jpg, gif, svg). Inferred from the output path when not set.")
	cmd.Flags().StringVar(&flags.renderer, "renderer", config.RendererDot, "Renderer to use: 'dot' runs the Graphviz tool, 'embedded' renders in-process.")
	cmd.Flags().StringVar(&flags.rendererBinary, "renderer-binary", printer.DefaultDotBinary, "Graphviz tool run by the 'dot' renderer.")
	cmd.Flags().BoolVar(&cmdArgs.noRender, "no-render", false, "Only write the DOT description.")
	cmd.Flags().StringVar(&flags.style, "style", "", "Style options for the generated graph.")
	addDiscoveryFlags(cmd, flags)

	cmd.Flags().Lookup("dot-output").Annotations = map[string][]string{cobra.BashCompFilenameExt: {"dot", "gv"}}
	cmd.Flags().Lookup("output").Annotations = map[string][]string{cobra.BashCompFilenameExt: {"gif", "jpg", "pdf", "png", "ps", "svg"}}
	_ = cmd.RegisterFlagCompletionFunc("format", completion.Formats)
}

func addDiscoveryFlags(cmd *cobra.Command, flags *configFlags) {
	cmd.Flags().IntVar(&flags.depth, "depth", 0, "Maximum number of dependency levels to expand below the package. Zero means no limit.")
	cmd.Flags().DurationVar(&flags.timeout, "timeout", config.DefaultTimeout, "Time limit for each package manager or renderer invocation. Zero disables it.")
}

func runGraphCmd(ctx context.Context, args *graphArgs, pkg string) error {
	c := args.config

	style, err := parsers.ParseStyleOptions(args.log.Domain(logger.PrinterDomain).Logger, c.Style)
	if err != nil {
		return err
	}

	g, err := discover(ctx, args.commonArgs, pkg)
	if err != nil {
		return err
	}
	reportFailures(args.log.Domain(logger.DiscoveryDomain), g)
	if g.Empty() {
		reportNothingToRender(args.log.Log(), g)
		return nil
	}

	if err = printer.Print(g, &printer.PrintConfig{
		Log:        args.log.Domain(logger.PrinterDomain),
		OutputPath: c.DescriptionPath,
		Style:      style,
	}); err != nil {
		return err
	}
	args.log.Log().Info("Dependency graph written.", zap.String("path", c.DescriptionPath), zap.Int("edges", g.Graph.EdgeCount()))

	if args.noRender {
		return nil
	}
	return render(ctx, args.commonArgs)
}

func discover(ctx context.Context, args *commonArgs, pkg string) (*depgraph.Graph, error) {
	c := args.config
	source := apt.NewCommandSource(args.log.Domain(logger.PackageInfoDomain).Logger, c.QueryCommand, c.Timeout)
	g, err := depgraph.Discover(ctx, args.log.Domain(logger.DiscoveryDomain).Logger, source, pkg, depgraph.Options{MaxDepth: c.Depth})
	if err != nil {
		return nil, err
	}
	args.log.Domain(logger.GraphDomain).Debug(
		"Dependency graph built.",
		zap.Int("nodes", g.Graph.NodeCount()),
		zap.Int("edges", g.Graph.EdgeCount()),
		zap.Strings("undeclared", g.Undeclared),
	)
	return g, nil
}

func render(ctx context.Context, args *commonArgs) error {
	c := args.config
	log := args.log.Domain(logger.RenderDomain)

	var renderer printer.Renderer
	switch c.Renderer {
	case config.RendererEmbedded:
		renderer = printer.NewEmbeddedRenderer(log.Logger)
	default:
		renderer = printer.NewDotRenderer(log.Logger, c.RendererBinary, c.Timeout)
	}

	err := renderer.Render(ctx, c.DescriptionPath, c.ImagePath, c.ImageFormat())
	switch {
	case err == nil:
		log.Info("Dependency graph rendered.", zap.String("path", c.ImagePath))
	case errors.Is(err, printer.ErrRendererMissing):
		log.Error(
			"Graphviz does not seem to be installed. Install it with 'sudo apt install graphviz' or use '--renderer=embedded'.",
			zap.String("binary", c.RendererBinary),
			zap.String("description", c.DescriptionPath),
		)
	case errors.Is(err, printer.ErrRenderFailed):
		log.Error("Could not render the dependency graph.", zap.String("description", c.DescriptionPath), zap.Error(err))
	default:
		return err
	}
	return nil
}

func reportFailures(log *logger.Logger, g *depgraph.Graph) {
	if len(g.Failures) == 0 || (len(g.Failures) == 1 && g.Failures[g.Root] != nil) {
		return
	}

	names := make([]string, 0, len(g.Failures))
	for name := range g.Failures {
		names = append(names, name)
	}
	sort.Strings(names)

	log.Warn("Some dependencies could not be looked up and were not expanded.", zap.Int("count", len(names)))
	log.AddIndent()
	defer log.RemoveIndent()
	for _, name := range names {
		log.Warn(name, zap.Error(g.Failures[name]))
	}
}

func reportNothingToRender(log *logger.Logger, g *depgraph.Graph) {
	switch g.Status {
	case depgraph.StatusNotFound:
		log.Warn("Package not found. Nothing to render.", zap.String("package", g.Root))
	case depgraph.StatusToolMissing:
		log.Error("The package manager could not be run. Nothing to render.", zap.String("package", g.Root))
	case depgraph.StatusQueryFailed:
		log.Error("Could not retrieve package information. Nothing to render.", zap.String("package", g.Root))
	default:
		log.Info("Package has no dependencies. Nothing to render.", zap.String("package", g.Root))
	}
}

type analyseArgs struct {
	*commonArgs

	yaml bool
}

func initAnalyseCmd(cArgs *commonArgs) *cobra.Command {
	cmdArgs := &analyseArgs{commonArgs: cArgs}

	analyseCmd := &cobra.Command{
		Use:     "analyse <package>",
		Aliases: []string{"analyze"}, // nolint
		Short:   analyseShort,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyseCmd(cmd.Context(), cmdArgs, args[0])
		},
		ValidArgsFunction: cArgs.completePackage,
	}

	analyseCmd.Flags().BoolVar(&cmdArgs.yaml, "yaml", false, "Output the statistics as YAML.")
	addDiscoveryFlags(analyseCmd, &cArgs.flags)
	return analyseCmd
}

func runAnalyseCmd(ctx context.Context, args *analyseArgs, pkg string) error {
	g, err := discover(ctx, args.commonArgs, pkg)
	if err != nil {
		return err
	}

	result, err := analysis.Analyse(args.log.Domain(logger.AnalysisDomain).Logger, g)
	if err != nil {
		return err
	}

	if !args.yaml {
		return result.Print(args.stdout)
	}
	enc := yaml.NewEncoder(args.stdout)
	enc.SetIndent(2)
	if err = enc.Encode(result); err != nil {
		return err
	}
	return enc.Close()
}

type completionArgs struct {
	*commonArgs

	outputPath string
}

func initCompletionCommand(cArgs *commonArgs) *cobra.Command {
	cmdArgs := &completionArgs{commonArgs: cArgs}

	completionCommand := &cobra.Command{
		Use:   "completion",
		Short: completionShort,
	}

	completionCommand.PersistentFlags().StringVarP(&cmdArgs.outputPath, "output", "o", "", "Output path for the generated completion script.")
	completionCommand.PersistentFlags().Lookup("output").Annotations = map[string][]string{cobra.BashCompFilenameExt: {"", "sh"}}

	for _, shell := range []completion.ShellType{completion.BASH, completion.FISH, completion.POWERSHELL, completion.ZSH} {
		completionCommand.AddCommand(&cobra.Command{
			Use:   shell.String(),
			Short: fmt.Sprintf("Generates a %s completion script ready to be sourced.", shell),
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runCompletionCommand(cmdArgs, cmd.Root(), shell)
			},
		})
	}
	return completionCommand
}

func runCompletionCommand(args *completionArgs, rootCmd *cobra.Command, shell completion.ShellType) error {
	log := args.log.Domain(logger.InitDomain)

	writer := args.stdout
	if args.outputPath != "" {
		f, err := os.OpenFile(args.outputPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
		if err != nil {
			log.Error("Failed to open file to write completion script.", zap.String("path", args.outputPath), zap.Error(err))
			return err
		}
		defer func() {
			_ = f.Close()
		}()
		writer = f
	}
	return completion.GenerateCompletionScript(log.Logger, rootCmd, shell, writer)
}

func initVersionCmd(cArgs *commonArgs) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: versionShort,
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cArgs.stdout, "aptgraph version %s (built %s)\n", toolVersion, toolDate)
			return err
		},
	}
}

// ABOUTME: CLI entry point for nlsh: natural language (Chinese or English) to shell commands
// ABOUTME: Builds the matcher, templates, LLM client, and executor from config, then dispatches cobra commands

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mauromedda/nlsh/internal/agent"
	"github.com/mauromedda/nlsh/internal/config"
	"github.com/mauromedda/nlsh/internal/display"
	"github.com/mauromedda/nlsh/internal/intent"
	"github.com/mauromedda/nlsh/internal/library"
	"github.com/mauromedda/nlsh/internal/llm"
	nlog "github.com/mauromedda/nlsh/internal/log"
	"github.com/mauromedda/nlsh/internal/metrics"
	"github.com/mauromedda/nlsh/internal/pipeline"
	"github.com/mauromedda/nlsh/internal/shell"
	"github.com/mauromedda/nlsh/internal/template"
)

var (
	version = "dev"
	commit  = "unknown"
)

// options holds the persistent flags.
type options struct {
	verbose bool
	fuzzy   bool
	model   string
	baseURL string
	noColor bool

	// Test hooks; empty means the process working and home directories.
	workDir string
	homeDir string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd(&options{}).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(opts *options) *cobra.Command {
	root := &cobra.Command{
		Use:   "nlsh",
		Short: "Turn natural-language requests into shell commands",
		Long: `nlsh maps Chinese or English requests to shell commands.

Usage modes:
  nlsh                 Interactive prompt; each line is planned and, after confirmation, run
  nlsh plan <text>     Print the command for a request
  nlsh run <text>      Plan and run a request
  nlsh match <text>    Show how a request scores against every intent`,
		Version:       fmt.Sprintf("%s (%s)", version, commit),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.verbose {
				nlog.SetLevel(nlog.LevelDebug)
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			return a.repl(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	pf := root.PersistentFlags()
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "Log matching and fallback decisions to stderr")
	pf.BoolVar(&opts.fuzzy, "fuzzy", false, "Tolerate typos in keywords")
	pf.StringVar(&opts.model, "model", "", "LLM model for parameter filling and chat")
	pf.StringVar(&opts.baseURL, "base-url", "", "OpenAI-compatible API base URL")
	pf.BoolVar(&opts.noColor, "no-color", false, "Disable styled output")

	root.AddCommand(
		matchCmd(opts),
		planCmd(opts),
		runCmd(opts),
		intentsCmd(opts),
		statsCmd(opts),
	)
	return root
}

// app is the wired pipeline plus its presentation.
type app struct {
	settings *config.Settings
	matcher  *intent.Matcher
	engine   *template.Engine
	agent    *agent.Agent
	executor *shell.Executor
	metrics  *metrics.Metrics
	render   *display.Renderer
}

func newApp(opts *options, out io.Writer) (*app, error) {
	workDir := opts.workDir
	if workDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("working directory: %w", err)
		}
		workDir = wd
	}

	var (
		settings *config.Settings
		err      error
	)
	if opts.homeDir != "" {
		settings, err = config.LoadWithHome(workDir, opts.homeDir)
	} else {
		settings, err = config.Load(workDir)
	}
	if err != nil {
		return nil, err
	}
	if opts.model != "" {
		settings.Model = opts.model
	}
	if opts.baseURL != "" {
		settings.BaseURL = opts.baseURL
	}
	if opts.fuzzy {
		settings.Fuzzy.Enabled = true
	}

	lib, err := loadLibrary(settings, opts.homeDir)
	if err != nil {
		return nil, err
	}

	matcher := intent.NewMatcher(intent.MatcherConfig{
		CacheCapacity: settings.CacheCapacity,
		Fuzzy: intent.FuzzyConfig{
			Enabled:             settings.Fuzzy.Enabled,
			SimilarityThreshold: settings.Fuzzy.SimilarityThreshold,
			Weight:              settings.Fuzzy.Weight,
		},
	})
	engine := template.NewEngine()
	// Register already warns about each skipped pattern.
	if diags := lib.Install(matcher, engine); len(diags) > 0 {
		nlog.Debug("%d intent patterns skipped", len(diags))
	}

	executor := shell.NewExecutor(shell.Config{Timeout: settings.ShellTimeout(), Dir: workDir})
	m := metrics.New(matcher)

	cfg := agent.Config{
		Matcher: matcher,
		Engine:  engine,
		Bridge:  pipeline.NewBridge(),
		Runner:  executor,
		Metrics: m,
		Execute: true,
	}
	if settings.LLMConfigured() {
		cfg.LLM = llm.NewOpenAIClient(llm.OpenAIConfig{
			APIKey:      settings.APIKey,
			BaseURL:     settings.BaseURL,
			Model:       settings.Model,
			Temperature: settings.Temperature,
			MaxTokens:   settings.MaxTokens,
		})
	} else {
		nlog.Debug("no LLM configured; missing parameters are not filled")
	}

	color, width := terminalInfo(out)
	if opts.noColor {
		color = false
	}

	return &app{
		settings: settings,
		matcher:  matcher,
		engine:   engine,
		agent:    agent.New(cfg),
		executor: executor,
		metrics:  m,
		render:   display.NewRenderer(color, width),
	}, nil
}

// loadLibrary merges the built-in intents with ~/.nlsh/intents.yaml (when
// present) and every configured intents file (which must exist).
func loadLibrary(settings *config.Settings, homeDir string) (*library.Library, error) {
	lib, err := library.Builtin()
	if err != nil {
		return nil, err
	}

	globalFile := config.GlobalIntentsFile()
	if homeDir != "" {
		globalFile = filepath.Join(config.GlobalDirIn(homeDir), "intents.yaml")
	}
	user, err := library.LoadFile(globalFile)
	switch {
	case err == nil:
		lib.Merge(user)
	case !errors.Is(err, fs.ErrNotExist):
		return nil, err
	}

	for _, path := range settings.IntentsFiles {
		extra, err := library.LoadFile(path)
		if err != nil {
			return nil, err
		}
		lib.Merge(extra)
	}
	return lib, nil
}

// terminalInfo reports whether out is a terminal and its width.
func terminalInfo(out io.Writer) (bool, int) {
	f, ok := out.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return false, display.DefaultWidth
	}
	w, _, err := term.GetSize(int(f.Fd()))
	if err != nil || w <= 0 {
		w = display.DefaultWidth
	}
	return true, w
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/AgentShepherd/shellgate/internal/api"
	"github.com/AgentShepherd/shellgate/internal/completion"
	"github.com/AgentShepherd/shellgate/internal/config"
	"github.com/AgentShepherd/shellgate/internal/hook"
	"github.com/AgentShepherd/shellgate/internal/logger"
	"github.com/AgentShepherd/shellgate/internal/rules"
	"github.com/AgentShepherd/shellgate/internal/tui"
	"github.com/AgentShepherd/shellgate/internal/types"
)

// Version is set at build time via ldflags: -X main.Version=x.y.z
var Version = "0.1.0"

var log = logger.New("main")

func main() {
	// Shell completion requests exit before any output
	if completion.Run() {
		return
	}
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run dispatches a subcommand and returns the process exit code.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		printUsage(stdout)
		return 0
	}

	switch args[0] {
	case "hook":
		return runHook(args[1:], stdin, stdout, stderr)
	case "check":
		return runCheck(args[1:], stdout, stderr)
	case "policy":
		return runPolicy(args[1:], stdout, stderr)
	case "serve":
		return runServe(args[1:], stderr)
	case "lint-config":
		return runLintConfig(args[1:], stdout, stderr)
	case "init-config":
		return runInitConfig(args[1:], stdout, stderr)
	case "completion":
		return runCompletion(args[1:], stdout, stderr)
	case "help", "-h", "--help":
		printUsage(stdout)
		return 0
	case "version", "-v", "--version":
		fmt.Fprintf(stdout, "shellgate version %s\n", Version)
		return 0
	}

	fmt.Fprintf(stderr, "Unknown command %q\n\n", args[0])
	printUsage(stderr)
	return 2
}

// commonFlags are accepted by every subcommand that reads the config.
type commonFlags struct {
	configPath *string
	logLevel   *string
	noColor    *bool
	platform   *string
}

func addCommonFlags(fs *flag.FlagSet, withPlatform bool) *commonFlags {
	f := &commonFlags{
		configPath: fs.String("config", config.DefaultConfigPath(), "Path to configuration file"),
		logLevel:   fs.String("log-level", "", "Log level: trace, debug, info, warn, error"),
		noColor:    fs.Bool("no-color", false, "Disable colored output"),
	}
	if withPlatform {
		f.platform = fs.String("platform", "", "Policy platform: windows, darwin, linux (default from config or host)")
	}
	return f
}

// load reads the config, applies flag overrides, validates it and configures
// logging and output styling.
func (f *commonFlags) load() (*config.Config, error) {
	cfg, err := config.Load(*f.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	// CLI overrides, applied before validation
	if *f.logLevel != "" {
		cfg.Server.LogLevel = types.LogLevel(*f.logLevel)
	}
	if *f.noColor {
		cfg.Server.NoColor = true
	}
	if f.platform != nil && *f.platform != "" {
		cfg.Policy.Platform = *f.platform
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger.SetGlobalLevelFromString(string(cfg.Server.LogLevel))
	if cfg.Server.NoColor {
		logger.SetColored(false)
		tui.SetPlainMode(true)
	}
	return cfg, nil
}

// buildValidator returns the validator for the configured platform.
func buildValidator(cfg *config.Config) (*rules.Validator, error) {
	p, err := cfg.ResolvePlatform()
	if err != nil {
		return nil, err
	}
	pol, err := cfg.BuildPolicy(p)
	if err != nil {
		return nil, err
	}
	return rules.NewValidator(pol), nil
}

// runHook handles the hook subcommand: one pre-tool-use payload on stdin,
// one decision on stdout. Configuration problems block instead of allowing.
func runHook(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("hook", flag.ContinueOnError)
	fs.SetOutput(stderr)
	flags := addCommonFlags(fs, true)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	failClosed := func(reason string) int {
		log.Error("%s", reason)
		if err := json.NewEncoder(stdout).Encode(hook.Block(reason)); err != nil {
			return 1
		}
		return 0
	}

	cfg, err := flags.load()
	if err != nil {
		return failClosed(fmt.Sprintf("shellgate configuration invalid: %v", err))
	}
	v, err := buildValidator(cfg)
	if err != nil {
		return failClosed(fmt.Sprintf("shellgate policy unavailable: %v", err))
	}

	adapter := hook.NewAdapter(v, cfg.Hook.ShellTools)
	if _, err := adapter.Handle(stdin, stdout); err != nil {
		log.Debug("hook: %v", err)
	}
	return 0
}

// runCheck handles the check subcommand
func runCheck(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	fs.SetOutput(stderr)
	flags := addCommonFlags(fs, true)
	jsonOut := fs.Bool("json", false, "Print the result as JSON")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	command := strings.Join(fs.Args(), " ")
	if strings.TrimSpace(command) == "" {
		fmt.Fprintln(stderr, "Usage: shellgate check [--platform P] [--json] <command...>")
		return 2
	}

	cfg, err := flags.load()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	v, err := buildValidator(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	res := v.Validate(command)
	if *jsonOut {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 2
		}
	} else {
		tui.PrintDecision(stdout, res.Allowed, res.Rule, res.Reason)
	}

	if !res.Allowed {
		return 1
	}
	return 0
}

// policySummary is the JSON shape of `shellgate policy --json`.
type policySummary struct {
	Platform        types.Platform `json:"platform"`
	MaxWrapperDepth int            `json:"max_wrapper_depth"`
	Allowed         []string       `json:"allowed_commands"`
	ExtraValidation []string       `json:"extra_validation_commands"`
	SetupScripts    []string       `json:"setup_scripts"`
	DevScripts      []string       `json:"dev_script_patterns"`
	Denylist        []string       `json:"denylist"`
}

// runPolicy handles the policy subcommand
func runPolicy(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("policy", flag.ContinueOnError)
	fs.SetOutput(stderr)
	flags := addCommonFlags(fs, true)
	jsonOut := fs.Bool("json", false, "Print the policy as JSON")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := flags.load()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	v, err := buildValidator(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	pol := v.Policy()
	summary := policySummary{
		Platform:        pol.Platform(),
		MaxWrapperDepth: pol.MaxWrapperDepth(),
		Allowed:         pol.AllowedCommands(),
		ExtraValidation: pol.ExtraValidationCommands(),
		SetupScripts:    pol.SetupScripts(),
		DevScripts:      pol.DevScriptPatterns(),
		Denylist:        v.Denylist().Names(),
	}

	if *jsonOut {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(summary); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	fmt.Fprintf(stdout, "%s %s (max wrapper depth %d)\n\n", tui.Title("Policy for"), summary.Platform, summary.MaxWrapperDepth)
	sections := []struct {
		title string
		items []string
	}{
		{"Allowed commands", summary.Allowed},
		{"Validated by a rule", summary.ExtraValidation},
		{"Setup scripts", summary.SetupScripts},
		{"Dev script patterns (pkill -f)", summary.DevScripts},
		{"Denylist rules", summary.Denylist},
	}
	for _, s := range sections {
		fmt.Fprintf(stdout, "%s %s\n", tui.Title(s.title), tui.Muted(fmt.Sprintf("(%d)", len(s.items))))
		fmt.Fprint(stdout, tui.WrapList(s.items, "  ", 78))
		fmt.Fprintln(stdout)
	}
	return 0
}

// runServe handles the serve subcommand
func runServe(args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	flags := addCommonFlags(fs, false)
	listen := fs.String("listen", "", "Listen address (default from config)")
	watch := fs.Bool("watch", false, "Reload the config file when it changes")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := flags.load()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if *listen != "" {
		cfg.API.Listen = *listen
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
	}

	srv, err := api.NewServer(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	if *watch {
		w, err := config.NewWatcher(*flags.configPath, func(next *config.Config) {
			logger.SetGlobalLevelFromString(string(next.Server.LogLevel))
			if err := srv.Reload(next); err != nil {
				log.Error("Reload rejected, keeping previous policy: %v", err)
			}
		})
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		if err := w.Start(); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		defer func() {
			_ = w.Stop()
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe(cfg.API.Listen)
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		if err != nil {
			log.Error("Server error: %v", err)
			return 1
		}
		return 0
	case <-quit:
	}

	log.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
		return 1
	}
	log.Info("shellgate stopped")
	return 0
}

// runLintConfig handles the lint-config subcommand
func runLintConfig(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("lint-config", flag.ContinueOnError)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	path := config.DefaultConfigPath()
	if fs.NArg() > 0 {
		path = fs.Arg(0)
	}
	fmt.Fprintf(stdout, "Linting %s...\n", path)

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(stderr, "%s config file not found: %s\n", tui.IconCross, path)
		} else {
			fmt.Fprintf(stderr, "%s %v\n", tui.IconCross, err)
		}
		return 1
	}

	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(stderr, "%s %v\n", tui.IconCross, err)
		return 1
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "%s %v", tui.IconCross, err)
		return 1
	}

	p, _ := cfg.ResolvePlatform()
	fmt.Fprintf(stdout, "%s Config valid (platform %s, max wrapper depth %d, %d extra command(s))\n",
		tui.IconCheck, p, cfg.Policy.MaxWrapperDepth, len(cfg.Policy.ExtraCommands))
	return 0
}

// runInitConfig handles the init-config subcommand
func runInitConfig(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("init-config", flag.ContinueOnError)
	fs.SetOutput(stderr)
	force := fs.Bool("force", false, "Overwrite an existing file")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	path := config.DefaultConfigPath()
	if fs.NArg() > 0 {
		path = fs.Arg(0)
	}
	if _, err := os.Stat(path); err == nil && !*force {
		fmt.Fprintf(stderr, "%s %s already exists (use --force to overwrite)\n", tui.IconCross, path)
		return 1
	}

	if err := config.DefaultConfig().Save(path); err != nil {
		fmt.Fprintf(stderr, "%s %v\n", tui.IconCross, err)
		return 1
	}
	fmt.Fprintf(stdout, "%s Wrote default configuration to %s\n", tui.IconCheck, path)
	return 0
}

// runCompletion handles the completion subcommand
func runCompletion(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("completion", flag.ContinueOnError)
	fs.SetOutput(stderr)
	doInstall := fs.Bool("install", false, "Install shell completion")
	doUninstall := fs.Bool("uninstall", false, "Remove shell completion")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	switch {
	case *doInstall && *doUninstall:
		fmt.Fprintln(stderr, "Use only one of --install and --uninstall")
		return 2
	case *doInstall:
		if err := completion.Install(); err != nil {
			fmt.Fprintf(stderr, "%s %v\n", tui.IconCross, err)
			return 1
		}
		fmt.Fprintf(stdout, "%s Shell completion installed; restart your shell\n", tui.IconCheck)
	case *doUninstall:
		if err := completion.Uninstall(); err != nil {
			fmt.Fprintf(stderr, "%s %v\n", tui.IconCross, err)
			return 1
		}
		fmt.Fprintf(stdout, "%s Shell completion removed\n", tui.IconCheck)
	default:
		if completion.IsInstalled() {
			fmt.Fprintln(stdout, "Shell completion is installed")
		} else {
			fmt.Fprintln(stdout, "Shell completion is not installed (shellgate completion --install)")
		}
	}
	return 0
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `shellgate - Shell command gate for autonomous coding agents

Usage:
  shellgate hook [--platform P]             Answer a pre-tool-use hook payload (stdin -> stdout)
  shellgate check [--platform P] <cmd...>   Validate one command (exit 1 when blocked)
  shellgate policy [--platform P] [--json]  Show the allowlist, rule-checked commands and denylist
  shellgate serve [--listen addr] [--watch] Serve decisions over HTTP
  shellgate lint-config [file.yaml]         Validate a configuration file
  shellgate init-config [--force] [file]    Write the default configuration
  shellgate completion [--install]          Set up shell tab-completion
  shellgate version                         Show version
  shellgate help                            Show this help

Common flags:
  --config path      Configuration file (default ~/.shellgate/config.yaml)
  --log-level level  trace, debug, info, warn, error
  --no-color         Disable colored output
`)
}

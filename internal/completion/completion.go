// Package completion provides CLI tab-completion for shellgate.
//
// The binary answers completion requests itself: when the shell invokes it
// with COMP_LINE set, it prints the matching candidates and exits. One
// install works for bash, zsh and fish.
package completion

import (
	"os"

	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/install"
	"github.com/posener/complete/v2/predict"
)

const binaryName = "shellgate"

var (
	platforms = predict.Set{"linux", "darwin", "windows"}
	logLevels = predict.Set{"trace", "debug", "info", "warn", "error"}
)

// commonFlags mirrors the flags every config-reading subcommand accepts.
func commonFlags(extra map[string]complete.Predictor) map[string]complete.Predictor {
	flags := map[string]complete.Predictor{
		"config":    predict.Files("*.yaml"),
		"log-level": logLevels,
		"no-color":  predict.Nothing,
	}
	for k, v := range extra {
		flags[k] = v
	}
	return flags
}

// command defines the shellgate CLI completion tree.
var command = &complete.Command{
	Sub: map[string]*complete.Command{
		"hook": {Flags: commonFlags(map[string]complete.Predictor{"platform": platforms})},
		"check": {Flags: commonFlags(map[string]complete.Predictor{
			"platform": platforms,
			"json":     predict.Nothing,
		})},
		"policy": {Flags: commonFlags(map[string]complete.Predictor{
			"platform": platforms,
			"json":     predict.Nothing,
		})},
		"serve": {Flags: commonFlags(map[string]complete.Predictor{
			"listen": predict.Nothing,
			"watch":  predict.Nothing,
		})},
		"lint-config": {Args: predict.Files("*.yaml")},
		"init-config": {Flags: map[string]complete.Predictor{"force": predict.Nothing}, Args: predict.Files("*.yaml")},
		"completion":  {Flags: map[string]complete.Predictor{"install": predict.Nothing, "uninstall": predict.Nothing}},
		"version":     {},
		"help":        {},
	},
}

// Subcommands returns the names completion knows about.
func Subcommands() []string {
	names := make([]string, 0, len(command.Sub))
	for name := range command.Sub {
		names = append(names, name)
	}
	return names
}

// Run checks if the binary was invoked for shell completion.
// If so it prints completions and returns true; the caller should exit.
func Run() bool {
	if os.Getenv("COMP_LINE") != "" || os.Getenv("COMP_INSTALL") != "" || os.Getenv("COMP_UNINSTALL") != "" {
		command.Complete(binaryName)
		return true
	}
	return false
}

// Install sets up shell completion for the detected shells.
func Install() error {
	return install.Install(binaryName)
}

// Uninstall removes shell completion for the detected shells.
func Uninstall() error {
	return install.Uninstall(binaryName)
}

// IsInstalled reports whether shell completion is already set up.
func IsInstalled() bool {
	return install.IsInstalled(binaryName)
}

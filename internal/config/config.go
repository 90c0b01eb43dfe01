package config

import (
	"bytes"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/AgentShepherd/shellgate/internal/fileutil"
	"github.com/AgentShepherd/shellgate/internal/logger"
	"github.com/AgentShepherd/shellgate/internal/platform"
	"github.com/AgentShepherd/shellgate/internal/policy"
	"github.com/AgentShepherd/shellgate/internal/types"
)

var cfgLog = logger.New("config")

// Config represents the shellgate configuration
type Config struct {
	Server ServerConfig `yaml:"server"`
	API    APIConfig    `yaml:"api"`
	Policy PolicyConfig `yaml:"policy"`
	Hook   HookConfig   `yaml:"hook"`
}

// ServerConfig holds process-wide settings
type ServerConfig struct {
	LogLevel types.LogLevel `yaml:"log_level"`
	NoColor  bool           `yaml:"no_color"`
}

// APIConfig holds settings for `shellgate serve`
type APIConfig struct {
	Listen string `yaml:"listen"`
}

// PolicyConfig tunes the command policy
type PolicyConfig struct {
	// Platform selects the policy table; empty means the host OS.
	Platform          string   `yaml:"platform"`
	MaxWrapperDepth   int      `yaml:"max_wrapper_depth"`
	ExtraCommands     []string `yaml:"extra_commands"`
	DevProcesses      []string `yaml:"dev_processes"`
	DevScriptPatterns []string `yaml:"dev_script_patterns"`
}

// HookConfig holds hook adapter settings
type HookConfig struct {
	ShellTools []string `yaml:"shell_tools"`
}

// DefaultListen is the default address for the HTTP surface.
const DefaultListen = "127.0.0.1:9191"

// DefaultConfigPath returns the default config file path (~/.shellgate/config.yaml).
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(home, ".shellgate", "config.yaml")
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			LogLevel: types.LogLevelInfo,
			NoColor:  false,
		},
		API: APIConfig{
			Listen: DefaultListen,
		},
		Policy: PolicyConfig{
			MaxWrapperDepth: policy.DefaultMaxWrapperDepth,
		},
		Hook: HookConfig{
			ShellTools: []string{"Bash", "Shell", "exec", "run_command"},
		},
	}
}

// ResolvePlatform returns the configured platform, or the host platform when
// none is set.
func (c *Config) ResolvePlatform() (types.Platform, error) {
	if c.Policy.Platform == "" {
		return platform.Detect(), nil
	}
	p, ok := types.ParsePlatform(c.Policy.Platform)
	if !ok {
		return "", fmt.Errorf("unknown platform %q", c.Policy.Platform)
	}
	return p, nil
}

// PolicyOptions converts the policy section into policy.Options.
func (c *Config) PolicyOptions() policy.Options {
	return policy.Options{
		ExtraCommands:     c.Policy.ExtraCommands,
		DevProcesses:      c.Policy.DevProcesses,
		DevScriptPatterns: c.Policy.DevScriptPatterns,
		MaxWrapperDepth:   c.Policy.MaxWrapperDepth,
	}
}

// BuildPolicy builds the policy for p with this configuration applied.
func (c *Config) BuildPolicy(p types.Platform) (*policy.Policy, error) {
	return policy.New(p, c.PolicyOptions())
}

// Validate checks all Config fields and returns a multi-error report.
// Call this AFTER CLI overrides have been applied, not during Load().
func (c *Config) Validate() error {
	var errs []string

	if !c.Server.LogLevel.Valid() {
		errs = append(errs, fmt.Sprintf("server.log_level: unknown log level %q (valid: trace, debug, info, warn, error)", c.Server.LogLevel))
	}

	if c.API.Listen != "" {
		if _, port, err := net.SplitHostPort(c.API.Listen); err != nil || port == "" {
			errs = append(errs, fmt.Sprintf("api.listen: must be host:port (got %q)", c.API.Listen))
		}
	}

	if c.Policy.Platform != "" {
		if _, ok := types.ParsePlatform(c.Policy.Platform); !ok {
			errs = append(errs, fmt.Sprintf("policy.platform: unknown platform %q (valid: windows, darwin, linux)", c.Policy.Platform))
		}
	}
	if c.Policy.MaxWrapperDepth < 1 || c.Policy.MaxWrapperDepth > policy.MaxWrapperDepthLimit {
		errs = append(errs, fmt.Sprintf("policy.max_wrapper_depth: must be 1-%d (got %d)", policy.MaxWrapperDepthLimit, c.Policy.MaxWrapperDepth))
	} else if err := c.PolicyOptions().Validate(); err != nil {
		errs = append(errs, "policy: "+err.Error())
	}

	for i, tool := range c.Hook.ShellTools {
		if strings.TrimSpace(tool) == "" {
			errs = append(errs, fmt.Sprintf("hook.shell_tools[%d]: must not be empty", i))
		}
	}

	if len(errs) == 0 {
		return nil
	}
	var sb strings.Builder
	sb.WriteString("config validation failed:\n")
	for i, e := range errs {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, e)
	}
	return errors.New(sb.String())
}

// isUnknownFieldError returns true if the error is from yaml.Decoder.KnownFields(true)
// detecting an unrecognized key (e.g. typo like "polcy:").
func isUnknownFieldError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "not found in type")
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults.
// Note: Load does NOT call Validate(). Callers should apply CLI overrides
// first, then call cfg.Validate() themselves.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	return Parse(data)
}

// Parse decodes YAML config data on top of the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if len(bytes.TrimSpace(data)) == 0 {
		return cfg, nil
	}

	// Try strict decode to warn about unknown fields
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if isUnknownFieldError(err) {
			cfgLog.Warn("config has unknown fields (ignored): %v", err)
			// Re-parse without strict mode for forward compatibility
			cfg = DefaultConfig()
			if err2 := yaml.Unmarshal(data, cfg); err2 != nil {
				return nil, fmt.Errorf("config parse error: %w", err2)
			}
		} else {
			return nil, fmt.Errorf("config parse error: %w", err)
		}
	}
	return cfg, nil
}

const fileHeader = `# shellgate configuration
# Docs: shellgate help; validate with: shellgate lint-config
`

// Marshal encodes c as YAML with a short header comment.
func (c *Config) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(fileHeader)
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Save writes c to path with owner-only permissions, creating the parent
// directory when needed. The file is replaced atomically so a running
// Watcher never reads a partial file.
func (c *Config) Save(path string) error {
	data, err := c.Marshal()
	if err != nil {
		return err
	}
	if err := fileutil.SecureMkdirAll(filepath.Dir(path)); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := fileutil.WriteFileAtomic(path, data); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

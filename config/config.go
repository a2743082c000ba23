// Package config loads and saves NoLang's TOML-backed runtime
// configuration: verifier limit overrides, VM stack capacity, and the
// debug TUI's display/trace toggles.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
)

// Config represents NoLang's runtime configuration.
type Config struct {
	// Verifier settings: soft overrides of the format package's hard
	// limits, never allowed to exceed them (enforced by Validate).
	Verifier struct {
		MaxProgramSize  int  `toml:"max_program_size"`
		MaxRefDepth     int  `toml:"max_ref_depth"`
		MaxRecursion    int  `toml:"max_recursion"`
		FailFast        bool `toml:"fail_fast"`
		AllTagsRequired bool `toml:"all_tags_required"`
	} `toml:"verifier"`

	// VM execution settings.
	Execution struct {
		StackCapacity int    `toml:"stack_capacity"`
		MaxCycles     uint64 `toml:"max_cycles"`
		EnableTrace   bool   `toml:"enable_trace"`
	} `toml:"execution"`

	// Debug TUI settings.
	Debugger struct {
		HistorySize    int  `toml:"history_size"`
		AutoSaveBreaks bool `toml:"auto_save_breakpoints"`
		ShowDisasm     bool `toml:"show_disassembly"`
		ShowBindings   bool `toml:"show_bindings"`
	} `toml:"debugger"`

	// Display settings for value/disassembly rendering.
	Display struct {
		ColorOutput   bool   `toml:"color_output"`
		DisasmContext int    `toml:"disasm_context"`
		NumberFormat  string `toml:"number_format"` // hex, dec, both
	} `toml:"display"`

	// Trace settings (log file and entry cap). They are loaded and saved
	// with the rest of the file; no command reads them.
	Trace struct {
		OutputFile string `toml:"output_file"`
		MaxEntries int    `toml:"max_entries"`
	} `toml:"trace"`
}

// DefaultConfig returns a configuration with the module's built-in
// defaults: verifier limits equal to the format package's hard
// ceilings, an operand stack at its 4096-slot cap, and a debugger
// disposed to show everything.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Verifier.MaxProgramSize = 65536
	cfg.Verifier.MaxRefDepth = 4096
	cfg.Verifier.MaxRecursion = 1024
	cfg.Verifier.FailFast = false
	cfg.Verifier.AllTagsRequired = true

	cfg.Execution.StackCapacity = 4096
	cfg.Execution.MaxCycles = 10_000_000
	cfg.Execution.EnableTrace = false

	cfg.Debugger.HistorySize = 1000
	cfg.Debugger.AutoSaveBreaks = true
	cfg.Debugger.ShowDisasm = true
	cfg.Debugger.ShowBindings = true

	cfg.Display.ColorOutput = true
	cfg.Display.DisasmContext = 5
	cfg.Display.NumberFormat = "dec"

	cfg.Trace.OutputFile = "trace.log"
	cfg.Trace.MaxEntries = 100000

	return cfg
}

// Validate reports an error if any configured limit exceeds the
// format package's hard ceiling; a config can only ever tighten those limits,
// never loosen them, since the VM's operand-stack capacity and the
// verifier's structural bounds are compiled-in invariants, not runtime
// parameters.
func (c *Config) Validate() error {
	if c.Verifier.MaxProgramSize > 65536 {
		return fmt.Errorf("verifier.max_program_size %d exceeds the hard ceiling 65536", c.Verifier.MaxProgramSize)
	}
	if c.Verifier.MaxRefDepth > 4096 {
		return fmt.Errorf("verifier.max_ref_depth %d exceeds the hard ceiling 4096", c.Verifier.MaxRefDepth)
	}
	if c.Verifier.MaxRecursion > 1024 {
		return fmt.Errorf("verifier.max_recursion %d exceeds the hard ceiling 1024", c.Verifier.MaxRecursion)
	}
	if c.Execution.StackCapacity > 4096 {
		return fmt.Errorf("execution.stack_capacity %d exceeds the hard ceiling 4096", c.Execution.StackCapacity)
	}
	return nil
}

// GetConfigPath returns the platform-specific config file path.
func GetConfigPath() string {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		configDir = filepath.Join(configDir, "nolang")

	case "darwin", "linux":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.toml"
		}
		configDir = filepath.Join(homeDir, ".config", "nolang")

	default:
		return "config.toml"
	}

	if err := os.MkdirAll(configDir, 0750); err != nil {
		return "config.toml"
	}

	return filepath.Join(configDir, "config.toml")
}

// GetLogPath returns the platform-specific log directory path.
func GetLogPath() string {
	var logDir string

	switch runtime.GOOS {
	case "windows":
		logDir = os.Getenv("APPDATA")
		if logDir == "" {
			logDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		logDir = filepath.Join(logDir, "nolang", "logs")

	case "darwin", "linux":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "logs"
		}
		logDir = filepath.Join(homeDir, ".local", "share", "nolang", "logs")

	default:
		return "logs"
	}

	if err := os.MkdirAll(logDir, 0750); err != nil {
		return "logs"
	}

	return logDir
}

// Load loads configuration from the default config file.
func Load() (*Config, error) {
	return LoadFrom(GetConfigPath())
}

// LoadFrom loads configuration from the specified file. A missing file
// is not an error: it yields DefaultConfig().
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save saves configuration to the default config file.
func (c *Config) Save() error {
	return c.SaveTo(GetConfigPath())
}

// SaveTo saves configuration to the specified file.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path) // #nosec G304 -- user config file path
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close config file: %w", closeErr)
		}
	}()

	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
}

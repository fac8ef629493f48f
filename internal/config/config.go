// Package config holds the settings of one wrapper invocation.
//
// A Config is built once, at the command line boundary, from defaults, an
// optional YAML file, and the environment, in that order.  It's then
// handed to every component that needs it; nothing reads settings from
// globals.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gobwas/glob"
	"gopkg.in/yaml.v3"
)

const (
	// FileName is looked for in the working directory.
	FileName = ".hookwrap.yaml"

	EnvConfig   = "HOOKWRAP_CONFIG"
	EnvJobs     = "HOOKWRAP_JOBS"
	EnvTimeout  = "HOOKWRAP_TIMEOUT"
	EnvLogLevel = "HOOKWRAP_LOG_LEVEL"
)

// ToolOverride adjusts one wrapped tool.
type ToolOverride struct {
	// Binary replaces the tool's executable, e.g. "clang-format-14".
	Binary string `yaml:"binary"`
	// Args are extra default flags, injected like the built-in defaults.
	Args []string `yaml:"args"`
	// Env is set in the tool's environment.
	Env map[string]string `yaml:"env"`
}

// Config is the settings of one invocation.
type Config struct {
	// WorkDir is where relative paths resolve and tools run.
	WorkDir string `yaml:"-"`
	// Jobs bounds parallel tool runs; zero means one per CPU.
	Jobs int `yaml:"jobs"`
	// Timeout bounds each tool run; zero means no bound.
	Timeout time.Duration `yaml:"timeout"`
	// RawOutput disables finding filters, showing tool output as is.
	RawOutput bool `yaml:"raw_output"`
	// Env is set in every tool's environment.
	Env map[string]string `yaml:"env"`
	// Tools holds per-tool overrides, keyed by tool name.
	Tools map[string]ToolOverride `yaml:"tools"`
	// Exclude holds glob patterns, e.g. "third_party/**", naming files
	// that are never checked.  Validate compiles them.
	Exclude  []string `yaml:"exclude"`
	excludes []glob.Glob
	// Logger receives diagnostics; never nil after Load or Default.
	Logger *slog.Logger `yaml:"-"`
}

// Default returns a Config for workDir with no file or environment applied.
func Default(workDir string) *Config {
	return &Config{
		WorkDir: workDir,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// Load builds the Config for workDir.  getenv is usually os.Getenv.
// The config file is $HOOKWRAP_CONFIG if set, else FileName in workDir if
// present.
func Load(workDir string, getenv func(string) string, logOut io.Writer) (*Config, error) {
	c := Default(workDir)
	level, err := parseLevel(getenv(EnvLogLevel))
	if err != nil {
		return nil, err
	}
	c.Logger = slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: level}))

	path := getenv(EnvConfig)
	explicit := path != ""
	if !explicit {
		path = filepath.Join(workDir, FileName)
	}
	if err = c.readFile(path); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	} else {
		c.Logger.Debug("loaded config", "path", path)
	}
	if err = c.applyEnv(getenv); err != nil {
		return nil, err
	}
	return c, c.Validate()
}

// readFile overlays the YAML file at path onto c.
func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err = yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing %s; %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv(EnvJobs); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s=%q; %w", EnvJobs, v, err)
		}
		c.Jobs = n
	}
	if v := getenv(EnvTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s=%q; %w", EnvTimeout, v, err)
		}
		c.Timeout = d
	}
	return nil
}

// Validate looks for trouble.
func (c *Config) Validate() error {
	if c.Jobs < 0 {
		return fmt.Errorf("jobs %d is negative", c.Jobs)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout %s is negative", c.Timeout)
	}
	for name, t := range c.Tools {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("tool override with empty name")
		}
		if strings.ContainsAny(t.Binary, "\n\x00") {
			return fmt.Errorf("tool %s has a bad binary %q", name, t.Binary)
		}
	}
	c.excludes = c.excludes[:0]
	for _, pattern := range c.Exclude {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return fmt.Errorf("exclude pattern %q; %w", pattern, err)
		}
		c.excludes = append(c.excludes, g)
	}
	return nil
}

// Excluded is true if path matches an Exclude pattern.
func (c *Config) Excluded(path string) bool {
	path = filepath.ToSlash(filepath.Clean(path))
	for _, g := range c.excludes {
		if g.Match(path) {
			return true
		}
	}
	return false
}

// Tool returns the override for the named tool; the zero value if none.
func (c *Config) Tool(name string) ToolOverride {
	return c.Tools[name]
}

// Binary returns the executable to run for the named tool.
func (c *Config) Binary(name string) string {
	if b := c.Tool(name).Binary; b != "" {
		return b
	}
	return name
}

// ToolEnv returns the environment additions for the named tool: the
// global Env with the tool's Env on top.
func (c *Config) ToolEnv(name string) map[string]string {
	t := c.Tool(name)
	if len(c.Env) == 0 && len(t.Env) == 0 {
		return nil
	}
	env := make(map[string]string, len(c.Env)+len(t.Env))
	for k, v := range c.Env {
		env[k] = v
	}
	for k, v := range t.Env {
		env[k] = v
	}
	return env
}

func parseLevel(s string) (slog.Level, error) {
	if s == "" {
		return slog.LevelWarn, nil
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("%s=%q; %w", EnvLogLevel, s, err)
	}
	return l, nil
}

package cmdrs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/monopole/hookwrap"
	"github.com/monopole/hookwrap/internal/args"
	"github.com/monopole/hookwrap/internal/config"
	"github.com/monopole/hookwrap/internal/vcs"
	"github.com/monopole/hookwrap/internal/version"
)

var _ hookwrap.Commander = &Command{}

const (
	flagNoDiff   = "--no-diff"
	flagLineDiff = "--line-diff"
	gitTool      = "git"
)

// Command wraps one tool, as described by its ToolSpec, for one hook
// invocation.
type Command struct {
	spec   *ToolSpec
	cfg    *config.Config
	argv   []string
	runner *hookwrap.ProcRunner
	// Staged lists staged files when no argument names a file.  If nil,
	// git is asked.
	Staged args.StagedLister
}

// New returns a Command running spec with the given command line.  As
// with os.Args, argv[0] names the program and is ignored.
func New(spec *ToolSpec, cfg *config.Config, argv []string) *Command {
	return &Command{
		spec:   spec,
		cfg:    cfg,
		argv:   argv,
		runner: hookwrap.NewProcRunner(cfg.Logger),
	}
}

func (c *Command) String() string { return c.spec.Name }

// invocation holds what Run works out before running the tool on files.
type invocation struct {
	files     []string
	flags     []string
	inPlace   bool
	noDiff    bool
	lineDiff  bool
	toolToken version.Token
}

// Run implements hookwrap.Commander.
func (c *Command) Run(ctx context.Context) (*hookwrap.Outcome, error) {
	inv, err := c.prepare(ctx)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		// Only a version check was asked for.
		return hookwrap.NewOutcome(), nil
	}
	c.cfg.Logger.Debug("running",
		"tool", c.spec.Name, "files", inv.files, "flags", inv.flags)
	if c.spec.Kind == Formatter {
		return c.runFormatter(ctx, inv)
	}
	return c.runAnalyzer(ctx, inv)
}

// prepare checks the tool is there, classifies arguments, checks the
// version and injects defaults.  It returns nil if there's nothing to run.
func (c *Command) prepare(ctx context.Context) (*invocation, error) {
	if err := c.checkInstalled(); err != nil {
		return nil, err
	}
	cl := &args.Classifier{
		Tool:          c.spec.Name,
		RequiresFiles: c.spec.RequiresFiles,
		Dir:           c.cfg.WorkDir,
		Staged:        c.staged(),
		Exclude:       c.cfg.Excluded,
	}
	class, err := cl.Classify(ctx, c.argv)
	if err != nil {
		return nil, err
	}
	inv := &invocation{files: class.Files, flags: class.Flags}
	if class.Pin != nil || c.spec.needsVersion() {
		inv.toolToken, err = version.Probe(
			ctx, c.runner, c.spec.Name, c.spec.LookBehind, c.params(nil))
		if err != nil {
			return nil, err
		}
		c.cfg.Logger.Debug("found version", "tool", c.spec.Name, "version", inv.toolToken)
	}
	if class.Pin != nil {
		if err = class.Pin.Check(c.spec.Name, inv.toolToken); err != nil {
			return nil, err
		}
		if len(inv.files) == 0 && len(inv.flags) == 0 {
			return nil, nil
		}
	}
	if c.spec.Kind == Formatter {
		inv.flags, inv.noDiff = args.Remove(inv.flags, flagNoDiff)
		if c.spec.LineDiff {
			inv.flags, inv.lineDiff = args.Remove(inv.flags, flagLineDiff)
		}
		if len(inv.files) == 0 {
			// Flags alone give a formatter nothing to do.
			return nil, nil
		}
	}
	inv.flags = injectGroups(inv.flags, c.cfg.Tool(c.spec.Name).Args)
	for _, d := range c.spec.defaultsFor(inv.toolToken) {
		inv.flags = args.Inject(inv.flags, d...)
	}
	for _, f := range c.spec.InPlaceFlags {
		if args.Has(inv.flags, f) {
			inv.inPlace = true
		}
	}
	if cb := c.spec.Config; cb != nil && !args.Has(inv.flags, cb.Flag) {
		if err = c.bootstrapConfig(ctx, cb); err != nil {
			return nil, err
		}
		inv.flags = args.Inject(inv.flags, cb.Flag, cb.Name)
	}
	return inv, nil
}

// injectGroups injects extra flags one group at a time, a group being a
// flag followed by any values that don't look like flags.
func injectGroups(flags, extra []string) []string {
	for i := 0; i < len(extra); {
		j := i + 1
		for j < len(extra) && !strings.HasPrefix(extra[j], "-") {
			j++
		}
		flags = args.Inject(flags, extra[i:j]...)
		i = j
	}
	return flags
}

func (c *Command) checkInstalled() error {
	bin := c.cfg.Binary(c.spec.Name)
	if _, err := exec.LookPath(bin); err != nil {
		return &hookwrap.Error{
			Kind:    hookwrap.KindToolNotFound,
			Tool:    c.spec.Name,
			Problem: bin + " not found",
			Details: fmt.Sprintf("Make sure %s is installed and on your PATH.", bin),
			Err:     err,
		}
	}
	return nil
}

func (c *Command) staged() args.StagedLister {
	if c.Staged != nil {
		return c.Staged
	}
	return c.git().StagedFiles
}

func (c *Command) git() *vcs.Git {
	return vcs.NewGit(c.runner, hookwrap.Parameters{
		Path:       c.cfg.Binary(gitTool),
		WorkingDir: c.cfg.WorkDir,
		Env:        c.cfg.ToolEnv(gitTool),
		Timeout:    c.cfg.Timeout,
	})
}

// params returns the parameters to run the tool with the given arguments.
func (c *Command) params(toolArgs []string) hookwrap.Parameters {
	return hookwrap.Parameters{
		Path:       c.cfg.Binary(c.spec.Name),
		Args:       toolArgs,
		WorkingDir: c.cfg.WorkDir,
		Env:        c.cfg.ToolEnv(c.spec.Name),
		Timeout:    c.cfg.Timeout,
	}
}

// run runs the tool once.  Errors name the tool, not its binary.
func (c *Command) run(ctx context.Context, toolArgs []string) (*hookwrap.Result, error) {
	p := c.params(toolArgs)
	res, err := c.runner.Run(ctx, &p)
	if err != nil {
		var he *hookwrap.Error
		if errors.As(err, &he) {
			he.Tool = c.spec.Name
		}
		return nil, err
	}
	return res, nil
}

// path resolves a file argument against the working directory.
func (c *Command) path(file string) string {
	if c.cfg.WorkDir == "" || filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(c.cfg.WorkDir, file)
}

// bootstrapConfig writes the tool's default config file unless it exists.
func (c *Command) bootstrapConfig(ctx context.Context, cb *ConfigBootstrap) error {
	path := c.path(cb.Name)
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	res, err := c.run(ctx, []string{cb.Show})
	if err != nil {
		return err
	}
	if !res.Success() {
		return &hookwrap.Error{
			Kind:    hookwrap.KindUnexpected,
			Tool:    c.spec.Name,
			Problem: "generating " + cb.Name,
			Details: string(res.Record.Combined()),
			Code:    res.ExitCode,
		}
	}
	text := res.Record.Stdout()
	if cb.Fix != nil {
		text = cb.Fix.ReplaceAll(text, []byte(cb.FixTo))
	}
	if err = os.WriteFile(path, text, 0o644); err != nil {
		return fmt.Errorf("writing %s; %w", path, err)
	}
	c.cfg.Logger.Info("wrote default config", "tool", c.spec.Name, "path", path)
	return nil
}

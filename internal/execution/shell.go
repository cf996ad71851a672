package execution

import (
	"bytes"
	"context"
	stderrors "errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"git.home.luguber.info/inful/makeomatic/internal/foundation/errors"
	"git.home.luguber.info/inful/makeomatic/internal/process"
)

// DefaultGracePeriod is how long a timed out command may take to exit after being asked to
// terminate before it is killed.
const DefaultGracePeriod = 5 * time.Second

// ShellCommand runs an external program.
type ShellCommand struct {
	Argv          []string
	Timeout       time.Duration
	GracePeriod   time.Duration
	CombineOutput bool
	SearchPaths   []string
	Env           map[string]string
}

// Command returns a ShellCommand for argv.
func Command(argv ...string) *ShellCommand {
	return &ShellCommand{Argv: argv}
}

// Script returns a ShellCommand that runs script with "sh -c".
func Script(script string) *ShellCommand {
	return &ShellCommand{Argv: []string{"sh", "-c", script}}
}

// WithTimeout sets the wall-clock bound and returns c.
func (c *ShellCommand) WithTimeout(d time.Duration) *ShellCommand {
	c.Timeout = d
	return c
}

func (c *ShellCommand) Description() string {
	return strings.Join(c.Argv, " ")
}

func (c *ShellCommand) CloneRunner() Runner {
	cp := *c
	cp.Argv = append([]string(nil), c.Argv...)
	cp.SearchPaths = append([]string(nil), c.SearchPaths...)
	if c.Env != nil {
		cp.Env = make(map[string]string, len(c.Env))
		for k, v := range c.Env {
			cp.Env[k] = v
		}
	}
	return &cp
}

// Run starts the program and waits for it. When the timeout expires the process group is
// sent SIGTERM, then killed after the grace period, and the outcome is flagged as timed out.
func (c *ShellCommand) Run(ctx context.Context, _ *process.Context) (Outcome, error) {
	if len(c.Argv) == 0 {
		return Outcome{}, errors.ConfigError("empty command").Build()
	}
	path, err := ResolveCommand(c.Argv[0], c.SearchPaths)
	if err != nil {
		return Outcome{}, err
	}

	runCtx := ctx
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	grace := c.GracePeriod
	if grace <= 0 {
		grace = DefaultGracePeriod
	}
	cmd := exec.CommandContext(runCtx, path, c.Argv[1:]...)
	reap := configureTermination(cmd, grace)
	cmd.WaitDelay = grace
	if len(c.Env) > 0 {
		env := os.Environ()
		for k, v := range c.Env {
			env = append(env, k+"="+v)
		}
		cmd.Env = env
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	if c.CombineOutput {
		cmd.Stderr = &stdout
	} else {
		cmd.Stderr = &stderr
	}

	runErr := cmd.Run()
	reap()
	out := Outcome{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}

	if c.Timeout > 0 && stderrors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		out.TimedOut = true
		out.Result = errors.ExitBuildFailed
		return out, errors.TimeoutError("command timed out").
			WithContext("command", c.Description()).
			WithContext("timeout", c.Timeout.String()).
			Build()
	}
	if ctx.Err() != nil {
		return out, errors.WrapError(ctx.Err(), errors.CategoryBuild, "command canceled").
			WithContext("command", c.Description()).
			Build()
	}

	var exitErr *exec.ExitError
	switch {
	case runErr == nil:
		return out, nil
	case stderrors.As(runErr, &exitErr):
		out.Result = exitErr.ExitCode()
		if out.Result < 0 {
			out.Result = errors.ExitBuildFailed
		}
		return out, nil
	default:
		return out, errors.WrapError(runErr, errors.CategoryBuild, "cannot run command").
			WithContext("command", c.Description()).
			Build()
	}
}

// ResolveCommand finds name on PATH or in searchPaths. Names containing a path separator
// must point at an executable file. A command that cannot be found is a configuration error.
func ResolveCommand(name string, searchPaths []string) (string, error) {
	if strings.ContainsRune(name, os.PathSeparator) {
		if isExecutable(name) {
			return name, nil
		}
		return "", errors.ConfigError("command is not an executable file").
			WithContext("command", name).
			Build()
	}
	for _, dir := range searchPaths {
		candidate := filepath.Join(dir, name)
		if isExecutable(candidate) {
			return candidate, nil
		}
	}
	if path, err := exec.LookPath(name); err == nil {
		return path, nil
	}
	return "", errors.ConfigError("cannot find command in PATH or search paths").
		WithContext("command", name).
		Build()
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	return info.Mode()&0o111 != 0
}

// CheckVersion runs "name arg" and returns the given line of its output. It fails with a
// configuration error when the tool is missing or exits with an unexpected code.
func CheckVersion(ctx context.Context, name, arg string, line, expectedCode int, searchPaths []string) (string, error) {
	cmd := &ShellCommand{
		Argv:          []string{name, arg},
		CombineOutput: true,
		SearchPaths:   searchPaths,
		Timeout:       30 * time.Second,
	}
	out, err := cmd.Run(ctx, nil)
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryConfig, "tool version check failed").
			WithContext("command", name).
			Build()
	}
	if out.Result != expectedCode {
		return "", errors.ConfigError("tool version check returned unexpected code").
			WithContext("command", name).
			WithContext("return_code", out.Result).
			WithContext("expected", expectedCode).
			Build()
	}
	lines := strings.Split(strings.TrimSpace(string(out.Stdout)), "\n")
	if line < 0 || line >= len(lines) {
		return "", errors.ConfigError("tool version output too short").
			WithContext("command", name).
			Build()
	}
	return strings.TrimSpace(lines[line]), nil
}

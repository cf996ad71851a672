// Package process owns the process-wide state a build touches: the tree-wide return code,
// the environment and the current working directory. Engine code mutates the environment
// and the working directory only through a Context so that every change is scoped.
package process

import (
	"os"
	"strings"
	"sync"

	"git.home.luguber.info/inful/makeomatic/internal/foundation/errors"
)

// Context is shared by reference through one build run.
type Context struct {
	mu         sync.Mutex
	returnCode int
}

// New returns a Context with return code 0.
func New() *Context {
	return &Context{}
}

// RegisterReturnCode records code as the tree-wide return code unless a non-zero code was
// already registered. Zero is ignored.
func (c *Context) RegisterReturnCode(code int) {
	if code == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.returnCode == 0 {
		c.returnCode = code
	}
}

// ReturnCode returns the tree-wide return code.
func (c *Context) ReturnCode() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.returnCode
}

// Failed reports whether any failure has been registered.
func (c *Context) Failed() bool {
	return c.ReturnCode() != 0
}

// Setenv sets an environment variable. Call it inside WithEnvironment.
func (c *Context) Setenv(key, value string) error {
	if err := os.Setenv(key, value); err != nil {
		return errors.WrapError(err, errors.CategoryRuntime, "cannot set environment variable").
			WithContext("key", key).
			Build()
	}
	return nil
}

// Unsetenv removes an environment variable. Call it inside WithEnvironment.
func (c *Context) Unsetenv(key string) error {
	if err := os.Unsetenv(key); err != nil {
		return errors.WrapError(err, errors.CategoryRuntime, "cannot unset environment variable").
			WithContext("key", key).
			Build()
	}
	return nil
}

// WithEnvironment runs fn and afterwards restores exactly the environment that was in
// place before it, including variables fn removed or added. The restore also happens
// when fn panics.
func (c *Context) WithEnvironment(fn func() error) error {
	saved := snapshotEnv()
	defer restoreEnv(saved)
	return fn()
}

// InDir changes into dir, runs fn and changes back to the previous directory on every
// exit path. An empty dir runs fn in the current directory. Failing to enter dir is a
// configuration error and fn is not run.
func (c *Context) InDir(dir string, fn func() error) error {
	if dir == "" {
		return fn()
	}
	prev, err := os.Getwd()
	if err != nil {
		return errors.WrapError(err, errors.CategoryRuntime, "cannot determine current directory").Build()
	}
	if err := os.Chdir(dir); err != nil {
		return errors.WrapError(err, errors.CategoryConfig, "cannot change into working directory").
			WithContext("dir", dir).
			Build()
	}
	defer func() { _ = os.Chdir(prev) }()
	return fn()
}

func snapshotEnv() map[string]string {
	env := os.Environ()
	m := make(map[string]string, len(env))
	for _, kv := range env {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		m[k] = v
	}
	return m
}

func restoreEnv(saved map[string]string) {
	for k := range snapshotEnv() {
		if _, keep := saved[k]; !keep {
			_ = os.Unsetenv(k)
		}
	}
	for k, v := range saved {
		if cur, ok := os.LookupEnv(k); !ok || cur != v {
			_ = os.Setenv(k, v)
		}
	}
}

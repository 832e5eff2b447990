package clipboard

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/thruflo/clipsync/internal/syncerr"
)

// helperWaitDelay bounds how long a finished helper may hold its I/O open.
const helperWaitDelay = 2 * time.Second

// command is a helper binary plus its arguments.
type command struct {
	name string
	args []string
}

// helper pairs the read and write commands of one clipboard tool.
type helper struct {
	read  command
	write command
	// needsEnv is an environment variable that must be set for the helper
	// to work, such as WAYLAND_DISPLAY.
	needsEnv string
}

// defaultHelpers returns the clipboard helpers to try for goos, in order.
// Windows has none; it goes through the native clipboard API.
func defaultHelpers(goos string) []helper {
	switch goos {
	case "darwin":
		return []helper{
			{read: command{name: "pbpaste"}, write: command{name: "pbcopy"}},
		}
	case "windows":
		return nil
	default:
		return []helper{
			{
				read:     command{name: "wl-paste", args: []string{"--no-newline"}},
				write:    command{name: "wl-copy"},
				needsEnv: "WAYLAND_DISPLAY",
			},
			{
				read:  command{name: "xclip", args: []string{"-selection", "clipboard", "-o"}},
				write: command{name: "xclip", args: []string{"-selection", "clipboard"}},
			},
			{
				read:  command{name: "xsel", args: []string{"--clipboard", "--output"}},
				write: command{name: "xsel", args: []string{"--clipboard", "--input"}},
			},
		}
	}
}

// runFunc executes path with args, feeding stdin, and returns stdout.
type runFunc func(ctx context.Context, path string, args []string, stdin io.Reader) ([]byte, error)

// native is a clipboard reached through an OS API instead of a helper.
type native struct {
	read  func() (string, error)
	write func(string) error
}

// OS accesses the system clipboard through the native API where there is
// one, and through helper binaries otherwise.
type OS struct {
	native   *native
	helpers  []helper
	lookPath func(string) (string, error)
	getenv   func(string) string
	// run reads a helper's stdout; feed writes to its stdin.
	run  runFunc
	feed runFunc
}

// NewOS returns an OS clipboard for the running platform.
func NewOS() *OS {
	return &OS{
		native:   nativeClipboard(),
		helpers:  defaultHelpers(runtime.GOOS),
		lookPath: exec.LookPath,
		getenv:   os.Getenv,
		run:      runCommand,
		feed:     feedCommand,
	}
}

func runCommand(ctx context.Context, path string, args []string, stdin io.Reader) ([]byte, error) {
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stdin = stdin
	cmd.WaitDelay = helperWaitDelay
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%w: %s", err, msg)
		}
		return nil, err
	}
	return stdout.Bytes(), nil
}

// feedCommand runs a write helper. xclip, xsel and wl-copy fork a child
// that keeps serving the selection, so stdout and stderr stay detached or
// Run would wait on the child's copy of the pipes.
func feedCommand(ctx context.Context, path string, args []string, stdin io.Reader) ([]byte, error) {
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stdin = stdin
	cmd.Stdout = nil
	cmd.Stderr = nil
	cmd.WaitDelay = helperWaitDelay

	if err := cmd.Run(); err != nil && !errors.Is(err, exec.ErrWaitDelay) {
		return nil, err
	}
	return nil, nil
}

// callNative runs fn, giving up when ctx is done.
func callNative[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn()
		done <- result{v, err}
	}()

	select {
	case r := <-done:
		return r.v, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// resolve returns the resolved path of the first usable helper command
// selected by pick.
func (c *OS) resolve(pick func(helper) command) (command, string, error) {
	var tried []string
	for _, h := range c.helpers {
		if h.needsEnv != "" && c.getenv(h.needsEnv) == "" {
			continue
		}
		cmd := pick(h)
		path, err := c.lookPath(cmd.name)
		if err != nil {
			tried = append(tried, cmd.name)
			continue
		}
		return cmd, path, nil
	}
	if len(tried) == 0 {
		return command{}, "", errors.New("no clipboard helper for this platform")
	}
	return command{}, "", fmt.Errorf("no clipboard helper found (tried %s)", strings.Join(tried, ", "))
}

// Read returns the clipboard text.
func (c *OS) Read(ctx context.Context) (string, error) {
	const op = "read clipboard"

	if c.native != nil {
		text, err := callNative(ctx, c.native.read)
		if err != nil {
			return "", classify(op, "clipboard api", err)
		}
		return text, nil
	}

	cmd, path, err := c.resolve(func(h helper) command { return h.read })
	if err != nil {
		return "", syncerr.New(syncerr.KindUnavailable, op, err)
	}

	out, err := c.run(ctx, path, cmd.args, nil)
	if err != nil {
		return "", classify(op, cmd.name, err)
	}
	return string(out), nil
}

// Write replaces the clipboard text.
func (c *OS) Write(ctx context.Context, text string) error {
	const op = "write clipboard"

	if c.native != nil {
		_, err := callNative(ctx, func() (struct{}, error) {
			return struct{}{}, c.native.write(text)
		})
		if err != nil {
			return classify(op, "clipboard api", err)
		}
		return nil
	}

	cmd, path, err := c.resolve(func(h helper) command { return h.write })
	if err != nil {
		return syncerr.New(syncerr.KindUnavailable, op, err)
	}

	if _, err := c.feed(ctx, path, cmd.args, strings.NewReader(text)); err != nil {
		return classify(op, cmd.name, err)
	}
	return nil
}

// classify maps a clipboard failure to AccessDenied or Unavailable.
func classify(op, name string, err error) error {
	wrapped := fmt.Errorf("%s: %w", name, err)
	if errors.Is(err, fs.ErrPermission) {
		return syncerr.New(syncerr.KindAccessDenied, op, wrapped)
	}
	return syncerr.New(syncerr.KindUnavailable, op, wrapped)
}

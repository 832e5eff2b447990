package cli

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thruflo/clipsync/internal/clipboard"
	"github.com/thruflo/clipsync/internal/config"
	"github.com/thruflo/clipsync/internal/server"
	"github.com/thruflo/clipsync/internal/testutil"
)

// cliEnv is an isolated config file, reference store and in-memory
// clipboard for one test. Tests using it share package-level command state
// and must not run in parallel.
type cliEnv struct {
	configPath string
	store      *server.MemoryStore
	serverURL  string
	local      *clipboard.Memory
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	t.Setenv(config.ServerURLEnv, "")

	store := server.NewMemoryStore()
	srv, err := server.NewServer(&server.Config{Store: store})
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	env := &cliEnv{
		configPath: filepath.Join(t.TempDir(), "config.yaml"),
		store:      store,
		serverURL:  ts.URL,
		local:      clipboard.NewMemory(""),
	}

	prevClipboard, prevID := newLocalClipboard, newInstanceID
	newLocalClipboard = func() clipboard.Clipboard { return env.local }
	newInstanceID = func() string { return "test-instance" }
	t.Cleanup(func() {
		newLocalClipboard, newInstanceID = prevClipboard, prevID
	})
	return env
}

func (e *cliEnv) writeConfig(t *testing.T, cfg config.Config) {
	t.Helper()
	require.NoError(t, config.Save(e.configPath, &cfg))
}

func (e *cliEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return e.runContext(t, context.Background(), args...)
}

func (e *cliEnv) runContext(t *testing.T, ctx context.Context, args ...string) (string, error) {
	t.Helper()
	resetFlags()

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(append([]string{"--config", e.configPath}, args...))
	err := rootCmd.ExecuteContext(ctx)
	return buf.String(), err
}

func resetFlags() {
	configPath, serverURL, logLevel, noColor = "", "", "", false
	connectForce = false
	serveHost, servePort, serveDB = "", server.DefaultPort, ""
	if f := rootCmd.Flags().Lookup("version"); f != nil {
		_ = f.Value.Set("false")
	}
}

func TestVersion(t *testing.T) {
	env := newCLIEnv(t)

	out, err := env.run(t, "--version")
	require.NoError(t, err)
	assert.Equal(t, "clipsync version dev\n", out)
}

func TestPush(t *testing.T) {
	env := newCLIEnv(t)
	env.local.Copy("from the cli")

	out, err := env.run(t, "--server", env.serverURL, "push")
	require.NoError(t, err)
	assert.Contains(t, out, "pushed 12 bytes")

	text, err := env.store.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "from the cli", text)
}

func TestPull(t *testing.T) {
	env := newCLIEnv(t)
	require.NoError(t, env.store.Set(context.Background(), "remote value"))

	cfg := config.DefaultConfig()
	cfg.ServerURL = env.serverURL
	env.writeConfig(t, cfg)

	out, err := env.run(t, "pull")
	require.NoError(t, err)
	assert.Contains(t, out, "pulled 12 bytes")
	assert.Equal(t, "remote value", env.local.Text())
}

func TestManualSyncErrors(t *testing.T) {
	t.Run("no server configured", func(t *testing.T) {
		env := newCLIEnv(t)

		_, err := env.run(t, "push")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no server configured")
	})

	t.Run("invalid server flag", func(t *testing.T) {
		env := newCLIEnv(t)

		_, err := env.run(t, "--server", "ftp://host", "pull")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid --server")
	})

	t.Run("clipboard failure is surfaced", func(t *testing.T) {
		env := newCLIEnv(t)
		env.local.SetReadError(os.ErrPermission)

		_, err := env.run(t, "--server", env.serverURL, "push")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read local clipboard")
	})
}

func TestConnect(t *testing.T) {
	env := newCLIEnv(t)

	out, err := env.run(t, "connect", env.serverURL+"/")
	require.NoError(t, err)
	assert.Contains(t, out, "connected to "+env.serverURL)

	cfg, err := config.Load(env.configPath)
	require.NoError(t, err)
	assert.Equal(t, env.serverURL, cfg.ServerURL)
	assert.Equal(t, []string{env.serverURL}, cfg.RecentServers)
}

func TestConnectDoesNotSaveGlobalFlags(t *testing.T) {
	env := newCLIEnv(t)

	_, err := env.run(t, "--log-level", "debug", "--server", "http://elsewhere.test", "connect", env.serverURL)
	require.NoError(t, err)

	cfg, err := config.Load(env.configPath)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultLogLevel, cfg.LogLevel)
	assert.Equal(t, env.serverURL, cfg.ServerURL)
	assert.Equal(t, []string{env.serverURL}, cfg.RecentServers)
}

func TestConnectUnreachable(t *testing.T) {
	const dead = "http://127.0.0.1:1"

	t.Run("refuses without force", func(t *testing.T) {
		env := newCLIEnv(t)

		_, err := env.run(t, "connect", dead)
		require.Error(t, err)
		assert.NoFileExists(t, env.configPath)
	})

	t.Run("saves with force", func(t *testing.T) {
		env := newCLIEnv(t)

		out, err := env.run(t, "connect", "--force", dead)
		require.NoError(t, err)
		assert.Contains(t, out, "saving anyway")

		cfg, err := config.Load(env.configPath)
		require.NoError(t, err)
		assert.Equal(t, dead, cfg.ServerURL)
	})

	t.Run("rejects bad url", func(t *testing.T) {
		env := newCLIEnv(t)

		_, err := env.run(t, "connect", "not a url")
		assert.Error(t, err)
	})
}

func TestServers(t *testing.T) {
	env := newCLIEnv(t)

	out, err := env.run(t, "servers")
	require.NoError(t, err)
	assert.Equal(t, "No recent servers.\n", out)

	cfg := config.DefaultConfig()
	cfg.ServerURL = "http://b:8080"
	cfg.RecentServers = []string{"http://b:8080", "http://a:8080"}
	env.writeConfig(t, cfg)

	out, err = env.run(t, "servers")
	require.NoError(t, err)
	assert.Equal(t, "* http://b:8080\n  http://a:8080\n", out)
}

func TestStatus(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		env := newCLIEnv(t)

		out, err := env.run(t, "status")
		require.NoError(t, err)
		assert.Contains(t, out, env.configPath)
		assert.Contains(t, out, "not configured")
	})

	t.Run("connected", func(t *testing.T) {
		env := newCLIEnv(t)

		out, err := env.run(t, "--server", env.serverURL, "status")
		require.NoError(t, err)
		assert.Contains(t, out, env.serverURL)
		assert.Contains(t, out, "test-instance")
		assert.Contains(t, out, "connected")
	})

	t.Run("unreachable", func(t *testing.T) {
		env := newCLIEnv(t)

		out, err := env.run(t, "--server", "http://127.0.0.1:1", "status")
		require.NoError(t, err)
		assert.Contains(t, out, "unreachable (transport)")
	})
}

func TestRun(t *testing.T) {
	env := newCLIEnv(t)
	require.NoError(t, env.store.Set(context.Background(), "seed"))

	cfg := config.DefaultConfig()
	cfg.ServerURL = env.serverURL
	cfg.Sync.IntervalMS = 10
	cfg.Sync.QuiescenceMS = 20
	env.writeConfig(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	type result struct {
		out string
		err error
	}
	done := make(chan result, 1)
	go func() {
		out, err := env.runContext(t, ctx, "run")
		done <- result{out, err}
	}()

	testutil.Eventually(t, 2*time.Second, func() bool { return env.local.Text() == "seed" })

	env.local.Copy("typed here")
	testutil.Eventually(t, 2*time.Second, func() bool {
		text, _ := env.store.Get(context.Background())
		return text == "typed here"
	})

	cancel()
	select {
	case r := <-done:
		require.NoError(t, r.err)
		assert.Contains(t, r.out, "Syncing with "+env.serverURL)
		assert.Contains(t, r.out, "Stopped after")
	case <-time.After(5 * time.Second):
		t.Fatal("run did not stop")
	}
}

func TestRunRequiresServerWhenAutoConnectDisabled(t *testing.T) {
	env := newCLIEnv(t)

	cfg := config.DefaultConfig()
	cfg.ServerURL = env.serverURL
	cfg.AutoConnect = false
	env.writeConfig(t, cfg)

	_, err := env.run(t, "run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "auto_connect is disabled")
}

func TestFormatAge(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{500 * time.Millisecond, "just now"},
		{42 * time.Second, "42s ago"},
		{5 * time.Minute, "5m ago"},
		{3 * time.Hour, "3h ago"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatAge(tt.d))
	}
}

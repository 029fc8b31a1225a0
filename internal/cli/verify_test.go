package cli

import (
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/hsck/tests/testutil"
)

func closedPort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())
	return port
}

func TestVerifyReportsUnreachableServers(t *testing.T) {
	env := newTestEnv(t)
	cfgDir := testutil.WriteConfigDir(t, map[string]string{
		"default.toml": fmt.Sprintf(`
[smtp_config]
server = "127.0.0.1"
port = %d
encryption = "none"

[imap_config]
server = "127.0.0.1"
port = %d
username = "teacher"
password = "secret"
`, closedPort(t), closedPort(t)),
	})

	err := env.execute("verify", "-c", cfgDir, "--mode", "dev")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "verification failed: [SMTP IMAP]")
	assert.Contains(t, env.out.String(), "✗ SMTP 127.0.0.1:")
	assert.Contains(t, env.out.String(), "✗ IMAP 127.0.0.1:")
}

func TestVerifySkipIMAP(t *testing.T) {
	env := newTestEnv(t)
	cfgDir := testutil.WriteConfigDir(t, map[string]string{
		"default.toml": fmt.Sprintf("[smtp_config]\nserver = \"127.0.0.1\"\nport = %d\nencryption = \"none\"\n", closedPort(t)),
	})

	err := env.execute("verify", "-c", cfgDir, "--skip-imap")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "[SMTP]")
	assert.NotContains(t, env.out.String(), "IMAP")
}

func TestVerifyConfigError(t *testing.T) {
	env := newTestEnv(t)
	err := env.execute("verify", "-c", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading default config")
}

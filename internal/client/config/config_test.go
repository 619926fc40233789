package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "127.0.0.1:50051", c.ServerEndpointAddr)
	assert.Equal(t, 15*time.Second, c.RequestTimeout)
	assert.Equal(t, "gophvault-session.db", c.SessionDB)
	assert.NoError(t, c.Validate())
}

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected *Config
		wantErr  bool
	}{
		{name: "all flags", args: []string{"-a", "10.0.0.1:9090", "-rt", "3", "-l", "/tmp/s.db"},
			expected: &Config{ServerEndpointAddr: "10.0.0.1:9090", RequestTimeout: 3 * time.Second, SessionDB: "/tmp/s.db"}},
		{name: "unknown flags ignored", args: []string{"-x", "1", "-a", "h:1"},
			expected: &Config{ServerEndpointAddr: "h:1", RequestTimeout: 15 * time.Second, SessionDB: "gophvault-session.db"}},
		{name: "bad timeout", args: []string{"-rt", "abc"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Config{}
			c.LoadDefaults()
			err := parseFlags(c, tt.args)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Empty(t, cmp.Diff(tt.expected, c))
		})
	}
}

func TestLoadConfig_JSONThenFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"server_endpoint_addr":"json:1","request_timeout":"7s","session_db":"j.db"}`), 0o600))

	c, err := LoadConfig([]string{"-c", path, "-a", "flag:2"})
	require.NoError(t, err)
	assert.Equal(t, "flag:2", c.ServerEndpointAddr)
	assert.Equal(t, 7*time.Second, c.RequestTimeout)
	assert.Equal(t, "j.db", c.SessionDB)
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig([]string{"-c", filepath.Join(t.TempDir(), "missing.json")})
	require.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{`), 0o600))
	_, err = LoadConfig([]string{"-c", bad})
	require.Error(t, err)

	_, err = LoadConfig([]string{"-rt", "0"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "request timeout")
}

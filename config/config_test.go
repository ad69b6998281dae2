package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/easysteem/internal/chainprops"
	"github.com/vadiminshakov/easysteem/internal/clients"
	"github.com/vadiminshakov/easysteem/internal/services/pricer"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	t.Setenv(TokenEnv, "")

	conf, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, clients.DefaultSteemNode, conf.NodeURL)
	assert.Equal(t, "STEEM", conf.NativeSymbol)
	assert.Equal(t, "SBD", conf.StableSymbol)
	assert.Equal(t, chainprops.DefaultPolicy(), conf.RefreshPolicy)
	assert.Equal(t, 10*time.Second, conf.FetchTimeout)
	assert.False(t, conf.StaleOnError)
	assert.Empty(t, conf.AccessToken)
}

func TestLoad(t *testing.T) {
	t.Setenv(TokenEnv, "")

	path := writeConfig(t, `
node_url: https://node.example
account: harpagon
access_token: file-token
price_sources:
  steem: binance
  sbd: cryptocompare
refresh_policy: if_empty
max_age: 5m
stale_on_error: "true"
fetch_timeout: 3s
rpc_rate_limit: "2.5"
rpc_retries: "0"
wal_dir: /tmp/props
log_level: DEBUG
`)

	conf, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://node.example", conf.NodeURL)
	assert.Equal(t, "harpagon", conf.Account)
	assert.Equal(t, "file-token", conf.AccessToken)
	assert.Equal(t, map[string]pricer.Source{"STEEM": pricer.SourceBinance, "SBD": pricer.SourceCryptoCompare}, conf.PriceSources)
	assert.Equal(t, chainprops.RefreshPolicy{Mode: chainprops.RefreshIfEmpty, MaxAge: 5 * time.Minute}, conf.RefreshPolicy)
	assert.True(t, conf.StaleOnError)
	assert.Equal(t, 3*time.Second, conf.FetchTimeout)
	assert.Equal(t, 2.5, conf.RPCRateLimit)
	assert.Equal(t, 0, conf.RPCRetries)
	assert.Equal(t, "/tmp/props", conf.WALDir)
	assert.Equal(t, "debug", conf.LogLevel)
}

func TestLoadTokenFromEnv(t *testing.T) {
	t.Setenv(TokenEnv, "env-token")

	conf, err := Load(writeConfig(t, "access_token: file-token\n"))
	require.NoError(t, err)
	assert.Equal(t, "env-token", conf.AccessToken)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		msg  string
	}{
		{name: "price source", body: "price_sources:\n  steem: kraken\n", msg: "price_sources"},
		{name: "refresh policy", body: "refresh_policy: sometimes\n", msg: "refresh_policy"},
		{name: "stale on error", body: "stale_on_error: maybe\n", msg: "stale_on_error"},
		{name: "rate limit", body: "rpc_rate_limit: \"-1\"\n", msg: "rpc_rate_limit"},
		{name: "retries", body: "rpc_retries: many\n", msg: "rpc_retries"},
		{name: "log level", body: "log_level: loud\n", msg: "log_level"},
		{name: "yaml", body: "node_url: [\n", msg: "parse yaml config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		require.Error(t, err)
	})
}

func TestTmpRoundTrip(t *testing.T) {
	t.Setenv(TokenEnv, "")

	conf := Default()
	conf.Account = "harpagon"
	conf.PriceSources["STEEM"] = pricer.SourceBybit
	conf.RefreshPolicy = chainprops.RefreshPolicy{Mode: chainprops.RefreshAlways, MaxAge: time.Minute}
	conf.StaleOnError = true

	back, err := conf.Tmp().Config()
	require.NoError(t, err)
	assert.Equal(t, conf, back)
}

func TestFlags(t *testing.T) {
	t.Setenv(TokenEnv, "")

	path := writeConfig(t, "account: harpagon\naccess_token: secret\nrefresh_policy: never\n")

	var flags Flags
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Register(fs)
	require.NoError(t, fs.Parse([]string{"--config", path, "--refresh", "always", "--fetch-timeout", "2s", "-a", "bob"}))

	conf, err := flags.Load()
	require.NoError(t, err)
	assert.Equal(t, "bob", conf.Account)
	assert.Equal(t, "secret", conf.AccessToken)
	assert.Equal(t, chainprops.RefreshAlways, conf.RefreshPolicy.Mode)
	assert.Equal(t, 2*time.Second, conf.FetchTimeout)

	fs = pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags = Flags{}
	flags.Register(fs)
	require.NoError(t, fs.Parse([]string{"--log-level", "verbose"}))
	_, err = flags.Load()
	require.Error(t, err)
}

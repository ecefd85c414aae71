package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	t.Setenv("WALLET_PRIVATE_KEY", "0xabc")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, time.Second, cfg.Trading.TickInterval)
	assert.Equal(t, "idle", cfg.Trading.Strategy)
	assert.Equal(t, "GTC", cfg.Trading.OrderType)
	assert.Equal(t, int64(137), cfg.Wallet.ChainID)
	assert.Equal(t, "0xabc", cfg.Wallet.PrivateKey)
	require.NoError(t, cfg.Validate())
}

func TestLoad_YAMLThenEnvOverlay(t *testing.T) {
	path := writeFile(t, "bot.yaml", `
wallet:
  key_file: secrets/key.json
  signature_type: 2
  funder_address: "0x1111111111111111111111111111111111111111"
trading:
  dry_run: true
  strategy: idle
  assets: ["tok-a", " tok-b ", ""]
  tick_interval: 250ms
  reconcile: immediate
risk:
  max_positions: 3
  min_price: 0.1
  max_price: 0.9
  daily_loss_limit: 0
relayer:
  enabled: true
status_api:
  enabled: false
log:
  level: debug
`)
	t.Setenv("KEYVAULT_PASSPHRASE", "correct horse battery staple")
	t.Setenv("MAX_POSITIONS", "4")
	t.Setenv("ASSETS", "tok-c")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "secrets/key.json", cfg.Wallet.KeyFile)
	assert.Equal(t, 2, cfg.Wallet.SignatureType)
	assert.True(t, cfg.Trading.DryRun)
	assert.Equal(t, 250*time.Millisecond, cfg.Trading.TickInterval)
	assert.Equal(t, "immediate", cfg.Trading.Reconcile)
	assert.Equal(t, []string{"tok-c"}, cfg.Trading.Assets)
	assert.Equal(t, 4, cfg.Risk.MaxPositions)
	assert.Equal(t, 0.1, cfg.Risk.MinPrice)
	assert.Zero(t, cfg.Risk.DailyLossLimit)
	assert.Equal(t, 25.0, cfg.Risk.MaxTradeSize)
	assert.True(t, cfg.Relayer.Enabled)
	assert.False(t, cfg.StatusAPI.Enabled)
	assert.Equal(t, "debug", cfg.Log.Level)
	require.NoError(t, cfg.Validate())
}

func TestLoad_JSONAssets(t *testing.T) {
	path := writeFile(t, "bot.json", `{"trading":{"assets":["x"," y"]},"data_dir":"/tmp/d"}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, cfg.Trading.Assets)
	assert.Equal(t, "/tmp/d", cfg.DataDir)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(writeFile(t, "bot.toml", "x = 1"))
	assert.ErrorContains(t, err, "不支持的配置文件格式")

	_, err = Load(writeFile(t, "bad.yaml", "trading:\n  tick_interval: soon\n"))
	assert.ErrorContains(t, err, "trading.tick_interval")

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	t.Setenv("SUBMIT_TIMEOUT", "later")
	_, err = Load("")
	assert.ErrorContains(t, err, "SUBMIT_TIMEOUT")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		c := Default()
		c.Wallet.PrivateKey = "0xabc"
		return c
	}
	require.NoError(t, valid().Validate())

	cases := map[string]func(c *Config){
		"tick_interval":  func(c *Config) { c.Trading.TickInterval = 0 },
		"submit_timeout": func(c *Config) { c.Trading.SubmitTimeout = -time.Second },
		"max_positions":  func(c *Config) { c.Risk.MaxPositions = 0 },
		"min_price":      func(c *Config) { c.Risk.MinPrice, c.Risk.MaxPrice = 0.8, 0.2 },
		"[0, 1]":         func(c *Config) { c.Risk.MaxPrice = 1.5 },
		"min_trade_size": func(c *Config) { c.Risk.MinTradeSize, c.Risk.MaxTradeSize = 30, 10 },
		"订单类型":           func(c *Config) { c.Trading.OrderType = "IOC" },
		"签名类型":           func(c *Config) { c.Wallet.SignatureType = 7 },
		"私钥来源":           func(c *Config) { c.Wallet.PrivateKey = "" },
		"KEYVAULT_PASSPHRASE": func(c *Config) {
			c.Wallet.PrivateKey = ""
			c.Wallet.KeyFile = "key.json"
		},
		"GNOSIS_SAFE": func(c *Config) { c.Relayer.Enabled = true },
	}
	for want, mutate := range cases {
		t.Run(want, func(t *testing.T) {
			c := valid()
			mutate(c)
			err := c.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), want)
		})
	}
}

func TestValidate_DryRunWithoutKey(t *testing.T) {
	c := Default()
	c.Trading.DryRun = true
	assert.NoError(t, c.Validate())

	// 关闭的限制不参与区间检查
	c.Risk.MinPrice = 0
	c.Risk.MinTradeSize = 0
	assert.NoError(t, c.Validate())
}

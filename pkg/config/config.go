package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// WalletConfig 钱包配置。私钥、助记词与口令只从环境变量读取。
type WalletConfig struct {
	KeyFile        string // keyvault 加密私钥文件
	Passphrase     string
	PrivateKey     string
	Mnemonic       string
	DerivationPath string
	FunderAddress  string
	SignatureType  int
	ChainID        int64
}

// HasKeySource 至少配置了一种私钥来源
func (w WalletConfig) HasKeySource() bool {
	return w.KeyFile != "" || w.PrivateKey != "" || w.Mnemonic != ""
}

// BuilderConfig Builder API 凭证（中继服务使用）
type BuilderConfig struct {
	Key        string
	Secret     string
	Passphrase string
}

// APIConfig 远端服务地址
type APIConfig struct {
	Host       string
	WSURL      string
	RelayerURL string
	ProxyURL   string
	Timeout    time.Duration
	RetryCount int
}

// TradingConfig 调度器配置
type TradingConfig struct {
	DryRun            bool
	Strategy          string
	Assets            []string
	OrderType         string
	Reconcile         string // next_tick 或 immediate
	TickInterval      time.Duration
	SubmitTimeout     time.Duration
	ReconcileInterval time.Duration
}

// RiskConfig 风控阈值，<= 0 表示关闭对应限制
type RiskConfig struct {
	MaxPositions         int
	MinTradeSize         float64
	MaxTradeSize         float64
	MinPrice             float64
	MaxPrice             float64
	MaxPerMarket         float64
	MaxTotalExposure     float64
	DailyLossLimit       float64
	TradeCooldown        time.Duration
	MaxConsecutiveErrors int
}

// StreamConfig 行情流配置
type StreamConfig struct {
	PingInterval     time.Duration
	HeartbeatTimeout time.Duration
}

// RelayerConfig 代理钱包中继
type RelayerConfig struct {
	Enabled     bool
	SafeAddress string
	AutoDeploy  bool
}

// StatusAPIConfig 状态接口
type StatusAPIConfig struct {
	Enabled bool
	Addr    string
	Debug   bool // 挂载 expvar 与 pprof
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string
	File       string
	MaxSize    int
	MaxBackups int
	MaxAge     int
	Compress   bool
}

// Config 运行配置
type Config struct {
	Wallet    WalletConfig
	Builder   BuilderConfig
	API       APIConfig
	Trading   TradingConfig
	Risk      RiskConfig
	Stream    StreamConfig
	Relayer   RelayerConfig
	StatusAPI StatusAPIConfig
	DataDir   string
	Log       LogConfig
}

// ConfigFile 配置文件结构（YAML/JSON），时长字段使用 "1s" 这种格式
type ConfigFile struct {
	Wallet struct {
		KeyFile        string `yaml:"key_file" json:"key_file"`
		DerivationPath string `yaml:"derivation_path" json:"derivation_path"`
		FunderAddress  string `yaml:"funder_address" json:"funder_address"`
		SignatureType  *int   `yaml:"signature_type" json:"signature_type"`
		ChainID        int64  `yaml:"chain_id" json:"chain_id"`
	} `yaml:"wallet" json:"wallet"`
	API struct {
		Host       string `yaml:"host" json:"host"`
		WSURL      string `yaml:"ws_url" json:"ws_url"`
		RelayerURL string `yaml:"relayer_url" json:"relayer_url"`
		Proxy      string `yaml:"proxy" json:"proxy"`
		Timeout    string `yaml:"timeout" json:"timeout"`
		RetryCount *int   `yaml:"retry_count" json:"retry_count"`
	} `yaml:"api" json:"api"`
	Trading struct {
		DryRun            *bool    `yaml:"dry_run" json:"dry_run"`
		Strategy          string   `yaml:"strategy" json:"strategy"`
		Assets            []string `yaml:"assets" json:"assets"`
		OrderType         string   `yaml:"order_type" json:"order_type"`
		Reconcile         string   `yaml:"reconcile" json:"reconcile"`
		TickInterval      string   `yaml:"tick_interval" json:"tick_interval"`
		SubmitTimeout     string   `yaml:"submit_timeout" json:"submit_timeout"`
		ReconcileInterval string   `yaml:"reconcile_interval" json:"reconcile_interval"`
	} `yaml:"trading" json:"trading"`
	Risk struct {
		MaxPositions         *int     `yaml:"max_positions" json:"max_positions"`
		MinTradeSize         *float64 `yaml:"min_trade_size" json:"min_trade_size"`
		MaxTradeSize         *float64 `yaml:"max_trade_size" json:"max_trade_size"`
		MinPrice             *float64 `yaml:"min_price" json:"min_price"`
		MaxPrice             *float64 `yaml:"max_price" json:"max_price"`
		MaxPerMarket         *float64 `yaml:"max_per_market" json:"max_per_market"`
		MaxTotalExposure     *float64 `yaml:"max_total_exposure" json:"max_total_exposure"`
		DailyLossLimit       *float64 `yaml:"daily_loss_limit" json:"daily_loss_limit"`
		TradeCooldown        string   `yaml:"trade_cooldown" json:"trade_cooldown"`
		MaxConsecutiveErrors *int     `yaml:"max_consecutive_errors" json:"max_consecutive_errors"`
	} `yaml:"risk" json:"risk"`
	Stream struct {
		PingInterval     string `yaml:"ping_interval" json:"ping_interval"`
		HeartbeatTimeout string `yaml:"heartbeat_timeout" json:"heartbeat_timeout"`
	} `yaml:"stream" json:"stream"`
	Relayer struct {
		Enabled     *bool  `yaml:"enabled" json:"enabled"`
		SafeAddress string `yaml:"safe_address" json:"safe_address"`
		AutoDeploy  *bool  `yaml:"auto_deploy" json:"auto_deploy"`
	} `yaml:"relayer" json:"relayer"`
	StatusAPI struct {
		Enabled *bool  `yaml:"enabled" json:"enabled"`
		Addr    string `yaml:"addr" json:"addr"`
		Debug   *bool  `yaml:"debug" json:"debug"`
	} `yaml:"status_api" json:"status_api"`
	DataDir string `yaml:"data_dir" json:"data_dir"`
	Log     struct {
		Level      string `yaml:"level" json:"level"`
		File       string `yaml:"file" json:"file"`
		MaxSize    int    `yaml:"max_size" json:"max_size"`
		MaxBackups int    `yaml:"max_backups" json:"max_backups"`
		MaxAge     int    `yaml:"max_age" json:"max_age"`
		Compress   *bool  `yaml:"compress" json:"compress"`
	} `yaml:"log" json:"log"`
}

// Default 默认配置
func Default() *Config {
	return &Config{
		Wallet: WalletConfig{
			DerivationPath: "m/44'/60'/0'/0/0",
			ChainID:        137,
		},
		API: APIConfig{
			Host:       "https://clob.polymarket.com",
			WSURL:      "wss://ws-subscriptions-clob.polymarket.com/ws/market",
			RelayerURL: "https://relayer-v2.polymarket.com",
			Timeout:    10 * time.Second,
			RetryCount: 3,
		},
		Trading: TradingConfig{
			Strategy:          "idle",
			OrderType:         "GTC",
			Reconcile:         "next_tick",
			TickInterval:      time.Second,
			SubmitTimeout:     15 * time.Second,
			ReconcileInterval: 5 * time.Second,
		},
		Risk: RiskConfig{
			MaxPositions:         10,
			MinTradeSize:         5,
			MaxTradeSize:         25,
			MinPrice:             0.05,
			MaxPrice:             0.95,
			MaxPerMarket:         50,
			MaxTotalExposure:     200,
			DailyLossLimit:       50,
			TradeCooldown:        30 * time.Second,
			MaxConsecutiveErrors: 5,
		},
		Stream: StreamConfig{
			PingInterval:     10 * time.Second,
			HeartbeatTimeout: 30 * time.Second,
		},
		StatusAPI: StatusAPIConfig{
			Enabled: true,
			Addr:    "127.0.0.1:8080",
		},
		DataDir: "data",
		Log: LogConfig{
			Level:      "info",
			File:       "logs/bot.log",
			MaxSize:    100,
			MaxBackups: 10,
			MaxAge:     30,
			Compress:   true,
		},
	}
}

// Load 加载配置。优先级：环境变量 > 配置文件 > 默认值；filePath 为空时只用环境变量。
func Load(filePath string) (*Config, error) {
	cfg := Default()
	if filePath != "" {
		cf, err := loadConfigFile(filePath)
		if err != nil {
			return nil, fmt.Errorf("加载配置文件失败 %s: %w", filePath, err)
		}
		if err := cfg.applyFile(cf); err != nil {
			return nil, fmt.Errorf("配置文件 %s 无效: %w", filePath, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadConfigFile 加载配置文件（支持 YAML 和 JSON）
func loadConfigFile(filePath string) (*ConfigFile, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var configFile ConfigFile
	ext := strings.ToLower(filepath.Ext(filePath))

	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &configFile); err != nil {
			return nil, fmt.Errorf("解析 YAML 配置文件失败: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &configFile); err != nil {
			return nil, fmt.Errorf("解析 JSON 配置文件失败: %w", err)
		}
	default:
		return nil, fmt.Errorf("不支持的配置文件格式: %s (支持 .yaml, .yml, .json)", ext)
	}

	return &configFile, nil
}

func (c *Config) applyFile(cf *ConfigFile) error {
	w := &c.Wallet
	w.KeyFile = pickString(cf.Wallet.KeyFile, w.KeyFile)
	w.DerivationPath = pickString(cf.Wallet.DerivationPath, w.DerivationPath)
	w.FunderAddress = pickString(cf.Wallet.FunderAddress, w.FunderAddress)
	pickInt(cf.Wallet.SignatureType, &w.SignatureType)
	if cf.Wallet.ChainID != 0 {
		w.ChainID = cf.Wallet.ChainID
	}

	a := &c.API
	a.Host = pickString(cf.API.Host, a.Host)
	a.WSURL = pickString(cf.API.WSURL, a.WSURL)
	a.RelayerURL = pickString(cf.API.RelayerURL, a.RelayerURL)
	a.ProxyURL = pickString(cf.API.Proxy, a.ProxyURL)
	pickInt(cf.API.RetryCount, &a.RetryCount)

	t := &c.Trading
	pickBool(cf.Trading.DryRun, &t.DryRun)
	t.Strategy = pickString(cf.Trading.Strategy, t.Strategy)
	if len(cf.Trading.Assets) > 0 {
		t.Assets = cleanList(cf.Trading.Assets)
	}
	t.OrderType = pickString(cf.Trading.OrderType, t.OrderType)
	t.Reconcile = pickString(cf.Trading.Reconcile, t.Reconcile)

	r := &c.Risk
	pickInt(cf.Risk.MaxPositions, &r.MaxPositions)
	pickFloat(cf.Risk.MinTradeSize, &r.MinTradeSize)
	pickFloat(cf.Risk.MaxTradeSize, &r.MaxTradeSize)
	pickFloat(cf.Risk.MinPrice, &r.MinPrice)
	pickFloat(cf.Risk.MaxPrice, &r.MaxPrice)
	pickFloat(cf.Risk.MaxPerMarket, &r.MaxPerMarket)
	pickFloat(cf.Risk.MaxTotalExposure, &r.MaxTotalExposure)
	pickFloat(cf.Risk.DailyLossLimit, &r.DailyLossLimit)
	pickInt(cf.Risk.MaxConsecutiveErrors, &r.MaxConsecutiveErrors)

	pickBool(cf.Relayer.Enabled, &c.Relayer.Enabled)
	pickBool(cf.Relayer.AutoDeploy, &c.Relayer.AutoDeploy)
	c.Relayer.SafeAddress = pickString(cf.Relayer.SafeAddress, c.Relayer.SafeAddress)

	pickBool(cf.StatusAPI.Enabled, &c.StatusAPI.Enabled)
	pickBool(cf.StatusAPI.Debug, &c.StatusAPI.Debug)
	c.StatusAPI.Addr = pickString(cf.StatusAPI.Addr, c.StatusAPI.Addr)
	c.DataDir = pickString(cf.DataDir, c.DataDir)

	l := &c.Log
	l.Level = pickString(cf.Log.Level, l.Level)
	l.File = pickString(cf.Log.File, l.File)
	if cf.Log.MaxSize > 0 {
		l.MaxSize = cf.Log.MaxSize
	}
	if cf.Log.MaxBackups > 0 {
		l.MaxBackups = cf.Log.MaxBackups
	}
	if cf.Log.MaxAge > 0 {
		l.MaxAge = cf.Log.MaxAge
	}
	pickBool(cf.Log.Compress, &l.Compress)

	durations := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"api.timeout", cf.API.Timeout, &a.Timeout},
		{"trading.tick_interval", cf.Trading.TickInterval, &t.TickInterval},
		{"trading.submit_timeout", cf.Trading.SubmitTimeout, &t.SubmitTimeout},
		{"trading.reconcile_interval", cf.Trading.ReconcileInterval, &t.ReconcileInterval},
		{"risk.trade_cooldown", cf.Risk.TradeCooldown, &r.TradeCooldown},
		{"stream.ping_interval", cf.Stream.PingInterval, &c.Stream.PingInterval},
		{"stream.heartbeat_timeout", cf.Stream.HeartbeatTimeout, &c.Stream.HeartbeatTimeout},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		v, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("%s: %w", d.name, err)
		}
		*d.dst = v
	}
	return nil
}

func (c *Config) applyEnv() error {
	w := &c.Wallet
	w.KeyFile = getEnv("WALLET_KEY_FILE", w.KeyFile)
	w.Passphrase = getEnv("KEYVAULT_PASSPHRASE", w.Passphrase)
	w.PrivateKey = getEnv("WALLET_PRIVATE_KEY", w.PrivateKey)
	w.Mnemonic = getEnv("WALLET_MNEMONIC", w.Mnemonic)
	w.DerivationPath = getEnv("WALLET_DERIVATION_PATH", w.DerivationPath)
	w.FunderAddress = getEnv("WALLET_FUNDER_ADDRESS", w.FunderAddress)
	w.SignatureType = parseIntEnv("WALLET_SIGNATURE_TYPE", w.SignatureType)
	w.ChainID = int64(parseIntEnv("CHAIN_ID", int(w.ChainID)))

	c.Builder = BuilderConfig{
		Key:        getEnv("POLY_BUILDER_API_KEY", c.Builder.Key),
		Secret:     getEnv("POLY_BUILDER_SECRET", c.Builder.Secret),
		Passphrase: getEnv("POLY_BUILDER_PASSPHRASE", c.Builder.Passphrase),
	}

	c.API.Host = getEnv("CLOB_HOST", c.API.Host)
	c.API.WSURL = getEnv("CLOB_WS_URL", c.API.WSURL)
	c.API.RelayerURL = getEnv("RELAYER_URL", c.API.RelayerURL)
	c.API.ProxyURL = getEnv("PROXY_URL", c.API.ProxyURL)

	t := &c.Trading
	t.DryRun = parseBoolEnv("DRY_RUN", t.DryRun)
	t.Strategy = getEnv("STRATEGY", t.Strategy)
	if assets := getEnv("ASSETS", ""); assets != "" {
		t.Assets = parseList(assets)
	}
	t.OrderType = getEnv("ORDER_TYPE", t.OrderType)
	t.Reconcile = getEnv("RECONCILE_POLICY", t.Reconcile)

	var err error
	if t.TickInterval, err = parseDurationEnv("TICK_INTERVAL", t.TickInterval); err != nil {
		return err
	}
	if t.SubmitTimeout, err = parseDurationEnv("SUBMIT_TIMEOUT", t.SubmitTimeout); err != nil {
		return err
	}

	r := &c.Risk
	r.MaxPositions = parseIntEnv("MAX_POSITIONS", r.MaxPositions)
	r.MaxTradeSize = parseFloatEnv("MAX_TRADE_SIZE", r.MaxTradeSize)
	r.DailyLossLimit = parseFloatEnv("DAILY_LOSS_LIMIT", r.DailyLossLimit)

	c.Relayer.Enabled = parseBoolEnv("RELAYER_ENABLED", c.Relayer.Enabled)
	c.StatusAPI.Addr = getEnv("STATUS_API_ADDR", c.StatusAPI.Addr)
	c.DataDir = getEnv("DATA_DIR", c.DataDir)
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.File = getEnv("LOG_FILE", c.Log.File)
	return nil
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c.Trading.TickInterval <= 0 {
		return fmt.Errorf("trading.tick_interval 必须大于 0")
	}
	if c.Trading.SubmitTimeout <= 0 {
		return fmt.Errorf("trading.submit_timeout 必须大于 0")
	}
	if c.Risk.MaxPositions < 1 {
		return fmt.Errorf("risk.max_positions 至少为 1")
	}

	r := c.Risk
	if r.MinPrice < 0 || r.MaxPrice > 1 {
		return fmt.Errorf("价格区间必须在 [0, 1] 内: min=%v max=%v", r.MinPrice, r.MaxPrice)
	}
	if r.MinPrice > 0 && r.MaxPrice > 0 && r.MinPrice >= r.MaxPrice {
		return fmt.Errorf("risk.min_price (%v) 必须小于 risk.max_price (%v)", r.MinPrice, r.MaxPrice)
	}
	if r.MinTradeSize > 0 && r.MaxTradeSize > 0 && r.MinTradeSize > r.MaxTradeSize {
		return fmt.Errorf("risk.min_trade_size (%v) 不能大于 risk.max_trade_size (%v)", r.MinTradeSize, r.MaxTradeSize)
	}

	switch strings.ToUpper(c.Trading.OrderType) {
	case "GTC", "FOK", "GTD", "FAK":
	default:
		return fmt.Errorf("未知的订单类型: %s", c.Trading.OrderType)
	}
	switch c.Wallet.SignatureType {
	case 0, 1, 2:
	default:
		return fmt.Errorf("未知的签名类型: %d", c.Wallet.SignatureType)
	}

	// 纸交易可以不加载私钥
	if !c.Trading.DryRun && !c.Wallet.HasKeySource() {
		return fmt.Errorf("未配置私钥来源（WALLET_KEY_FILE / WALLET_PRIVATE_KEY / WALLET_MNEMONIC）")
	}
	if c.Wallet.KeyFile != "" && c.Wallet.Passphrase == "" && c.Wallet.PrivateKey == "" && c.Wallet.Mnemonic == "" {
		return fmt.Errorf("使用 key_file 时必须设置 KEYVAULT_PASSPHRASE")
	}
	if c.Relayer.Enabled && c.Wallet.SignatureType != 2 {
		return fmt.Errorf("relayer 仅支持 GNOSIS_SAFE 签名类型 (signature_type=2)")
	}
	return nil
}

func pickString(v, def string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return def
}

func pickInt(v *int, dst *int) {
	if v != nil {
		*dst = *v
	}
}

func pickFloat(v *float64, dst *float64) {
	if v != nil {
		*dst = *v
	}
}

func pickBool(v *bool, dst *bool) {
	if v != nil {
		*dst = *v
	}
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// parseList 解析逗号分隔列表
func parseList(str string) []string {
	return cleanList(strings.Split(str, ","))
}

// getEnv 获取环境变量，如果不存在则返回默认值
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseIntEnv 解析整数环境变量
func parseIntEnv(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// parseFloatEnv 解析浮点数环境变量
func parseFloatEnv(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// parseBoolEnv 解析布尔环境变量
func parseBoolEnv(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// parseDurationEnv 时长格式错误直接报错
func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return parsed, nil
}

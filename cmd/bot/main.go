package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/betbot/polyclob/clob/auth"
	"github.com/betbot/polyclob/clob/client"
	"github.com/betbot/polyclob/clob/relayer"
	"github.com/betbot/polyclob/clob/signing"
	"github.com/betbot/polyclob/clob/types"
	"github.com/betbot/polyclob/internal/infrastructure/websocket"
	"github.com/betbot/polyclob/internal/ledger"
	"github.com/betbot/polyclob/internal/scheduler"
	"github.com/betbot/polyclob/internal/statusapi"
	"github.com/betbot/polyclob/pkg/config"
	"github.com/betbot/polyclob/pkg/keyvault"
	"github.com/betbot/polyclob/pkg/logger"
	"github.com/betbot/polyclob/pkg/ratelimit"
	"github.com/betbot/polyclob/pkg/shutdown"
)

const gracefulShutdownPeriod = 15 * time.Second

func firstExistingFile(paths ...string) (string, bool) {
	for _, p := range paths {
		if strings.TrimSpace(p) == "" {
			continue
		}
		if _, err := os.Stat(p); err == nil {
			return p, true
		}
	}
	return "", false
}

func main() {
	configPath := flag.String("config", "", "配置文件路径（支持 .yaml, .yml, .json）")
	envFile := flag.String("env", ".env", "环境变量文件")
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "加载 %s 失败: %v\n", *envFile, err)
		os.Exit(1)
	}

	path := *configPath
	if path == "" {
		path, _ = firstExistingFile("yml/config.yaml", "config.yaml")
	}
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "配置无效: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(logger.Config{
		Level:      cfg.Log.Level,
		OutputFile: cfg.Log.File,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	if path != "" {
		logrus.Infof("使用配置文件: %s", path)
	} else {
		logrus.Warnf("未指定配置文件，使用环境变量和默认值")
	}

	if err := run(cfg); err != nil {
		logrus.Errorf("❌ 交易机器人异常退出: %v", err)
		_ = logger.Close()
		os.Exit(1)
	}
	_ = logger.Close()
}

func run(cfg *config.Config) error {
	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdowns := shutdown.NewManager()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownPeriod)
		defer cancel()
		if err := shutdowns.Shutdown(ctx); err != nil {
			logrus.Errorf("关闭过程出现错误: %v", err)
		}
	}()

	key, err := loadKey(cfg.Wallet)
	if err != nil {
		return err
	}
	defer key.Zero()
	if key.Valid() {
		logrus.Infof("签名地址: %s", key.Address().Hex())
	}

	chainID := types.Chain(cfg.Wallet.ChainID)
	sigType := types.SignatureType(cfg.Wallet.SignatureType)
	limiter := ratelimit.NewManager()

	funder := cfg.Wallet.FunderAddress
	if cfg.Relayer.Enabled {
		safe, err := prepareSafe(rootCtx, cfg, key, chainID, limiter)
		if err != nil {
			return err
		}
		if funder == "" {
			funder = safe
		}
	}

	clobClient, err := client.NewClient(client.Config{
		Host:       cfg.API.Host,
		ChainID:    chainID,
		Timeout:    cfg.API.Timeout,
		RetryCount: cfg.API.RetryCount,
		Limiter:    limiter,
	}, key, nil)
	if err != nil {
		return fmt.Errorf("创建 CLOB 客户端失败: %w", err)
	}

	var exchange scheduler.Exchange
	if key.Valid() {
		creds, err := clobClient.CreateOrDeriveAPIKey(rootCtx, 0)
		if err != nil {
			return fmt.Errorf("获取 API 凭证失败: %w", err)
		}
		if err := clobClient.SetCreds(creds); err != nil {
			return err
		}
		logrus.Info("✅ API 凭证已就绪")

		builder, err := client.NewOrderBuilder(signing.NewOrderSigner(key, chainID), sigType, funder)
		if err != nil {
			return fmt.Errorf("创建订单构建器失败: %w", err)
		}
		exchange = scheduler.NewClientExchange(clobClient, builder)
	}

	streamCfg := websocket.DefaultConfig()
	streamCfg.URL = cfg.API.WSURL
	streamCfg.ProxyURL = cfg.API.ProxyURL
	streamCfg.PingInterval = cfg.Stream.PingInterval
	streamCfg.HeartbeatTimeout = cfg.Stream.HeartbeatTimeout
	market := websocket.NewMarketStream(streamCfg, nil, clobClient)

	store, err := ledger.OpenBadgerStore(filepath.Join(cfg.DataDir, "ledger"))
	if err != nil {
		return fmt.Errorf("打开账本存储失败: %w", err)
	}
	shutdowns.OnShutdown("ledger_store", func(context.Context) error {
		return store.Close()
	})
	book, err := ledger.New(ledger.Config{MaxPositions: cfg.Risk.MaxPositions}, store)
	if err != nil {
		return fmt.Errorf("加载账本失败: %w", err)
	}
	risk := ledger.NewRisk(riskConfig(cfg.Risk), book)

	strategy, err := scheduler.NewStrategy(cfg.Trading.Strategy)
	if err != nil {
		return fmt.Errorf("%w（已注册: %s）", err, strings.Join(scheduler.RegisteredStrategies(), ","))
	}
	policy, ok := scheduler.ParseReconcilePolicy(cfg.Trading.Reconcile)
	if !ok {
		return fmt.Errorf("未知的对账策略: %s", cfg.Trading.Reconcile)
	}

	sched, err := scheduler.New(scheduler.Config{
		TickInterval:      cfg.Trading.TickInterval,
		SubmitTimeout:     cfg.Trading.SubmitTimeout,
		ReconcileInterval: cfg.Trading.ReconcileInterval,
		Reconcile:         policy,
		OrderType:         types.OrderType(strings.ToUpper(cfg.Trading.OrderType)),
		DryRun:            cfg.Trading.DryRun || exchange == nil,
	}, strategy, market, market.Store(), book, risk, exchange)
	if err != nil {
		return err
	}
	if err := sched.Subscribe(cfg.Trading.Assets...); err != nil {
		return fmt.Errorf("订阅资产失败: %w", err)
	}

	if cfg.StatusAPI.Enabled {
		api, err := statusapi.New(statusapi.Config{Addr: cfg.StatusAPI.Addr, Debug: cfg.StatusAPI.Debug}, sched, market.Store())
		if err != nil {
			return err
		}
		if err := api.Start(); err != nil {
			return fmt.Errorf("启动状态接口失败: %w", err)
		}
		logrus.Infof("📊 状态接口: http://%s/status", cfg.StatusAPI.Addr)
		shutdowns.OnShutdown("status_api", api.Shutdown)
	}

	if sched.DryRun() {
		logrus.Warn("📝 纸交易模式：订单只在本地模拟成交")
	}
	logrus.Infof("🚀 启动策略 %s，资产 %d 个，按 Ctrl+C 停止", strategy.Name(), len(cfg.Trading.Assets))

	err = sched.Run(rootCtx)
	if err != nil && rootCtx.Err() == nil {
		return err
	}
	logrus.Info("✅ 交易机器人已停止")
	return nil
}

// loadKey 私钥来源优先级：加密文件 > 明文私钥 > 助记词。纸交易允许无私钥。
func loadKey(w config.WalletConfig) (keyvault.SigningKey, error) {
	switch {
	case w.KeyFile != "" && w.Passphrase != "":
		key, err := keyvault.UnlockFile(w.KeyFile, w.Passphrase)
		if err != nil {
			return keyvault.SigningKey{}, fmt.Errorf("解锁私钥文件失败: %w", err)
		}
		return key, nil
	case w.PrivateKey != "":
		key, err := keyvault.ParsePrivateKey(w.PrivateKey)
		if err != nil {
			return keyvault.SigningKey{}, fmt.Errorf("解析私钥失败: %w", err)
		}
		return key, nil
	case w.Mnemonic != "":
		key, err := keyvault.FromMnemonic(w.Mnemonic, w.DerivationPath)
		if err != nil {
			return keyvault.SigningKey{}, fmt.Errorf("助记词派生私钥失败: %w", err)
		}
		return key, nil
	default:
		return keyvault.SigningKey{}, nil
	}
}

// prepareSafe 检查代理钱包是否已部署，按需通过中继部署，返回 Safe 地址
func prepareSafe(ctx context.Context, cfg *config.Config, key keyvault.SigningKey, chainID types.Chain, limiter *ratelimit.Manager) (string, error) {
	var builder *types.BuilderCreds
	if cfg.Builder.Key != "" {
		builder = &types.BuilderCreds{Key: cfg.Builder.Key, Secret: cfg.Builder.Secret, Passphrase: cfg.Builder.Passphrase}
	}
	wallet, err := auth.NewWalletAuthenticator(key, types.SignatureType(cfg.Wallet.SignatureType), builder)
	if err != nil {
		return "", fmt.Errorf("创建中继认证器失败: %w", err)
	}
	rc, err := relayer.NewClient(relayer.Config{
		Host:        cfg.API.RelayerURL,
		ChainID:     chainID,
		Timeout:     cfg.API.Timeout,
		SafeAddress: cfg.Relayer.SafeAddress,
		Limiter:     limiter,
	}, key, auth.Router{Relay: wallet})
	if err != nil {
		return "", fmt.Errorf("创建中继客户端失败: %w", err)
	}

	safe := rc.SafeAddress().Hex()
	deployed, err := rc.IsDeployed(ctx)
	if err != nil {
		return "", fmt.Errorf("查询 Safe 部署状态失败: %w", err)
	}
	if deployed {
		logrus.Infof("代理钱包: %s", safe)
		return safe, nil
	}
	if !cfg.Relayer.AutoDeploy {
		logrus.Warnf("⚠️ 代理钱包 %s 尚未部署（relayer.auto_deploy=false）", safe)
		return safe, nil
	}

	resp, err := rc.Deploy(ctx)
	if err != nil {
		return "", fmt.Errorf("部署 Safe 失败: %w", err)
	}
	logrus.Infof("已提交 Safe 部署: tx=%s", resp.TransactionID)
	waitCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()
	if _, err := rc.WaitForTransaction(waitCtx, resp.TransactionID, 0); err != nil {
		return "", fmt.Errorf("等待 Safe 部署失败: %w", err)
	}
	logrus.Infof("✅ 代理钱包已部署: %s", safe)
	return safe, nil
}

func riskConfig(r config.RiskConfig) ledger.RiskConfig {
	return ledger.RiskConfig{
		MinTradeSize:         decimal.NewFromFloat(r.MinTradeSize),
		MaxTradeSize:         decimal.NewFromFloat(r.MaxTradeSize),
		MinPrice:             decimal.NewFromFloat(r.MinPrice),
		MaxPrice:             decimal.NewFromFloat(r.MaxPrice),
		MaxPerMarket:         decimal.NewFromFloat(r.MaxPerMarket),
		MaxTotalExposure:     decimal.NewFromFloat(r.MaxTotalExposure),
		DailyLossLimit:       decimal.NewFromFloat(r.DailyLossLimit),
		TradeCooldown:        r.TradeCooldown,
		MaxConsecutiveErrors: int64(r.MaxConsecutiveErrors),
	}
}

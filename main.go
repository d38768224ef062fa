package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/docs-hub/docs-hub/internal/api"
	"github.com/docs-hub/docs-hub/internal/cache"
	"github.com/docs-hub/docs-hub/internal/config"
	"github.com/docs-hub/docs-hub/internal/docs"
	"github.com/docs-hub/docs-hub/internal/logging"
	"github.com/docs-hub/docs-hub/internal/server"
	"github.com/docs-hub/docs-hub/internal/server/routes"
	"github.com/docs-hub/docs-hub/internal/version"
)

// cliOptions 汇总 CLI 标志解析后的结果，便于在测试中注入。
type cliOptions struct {
	configPath  string
	checkOnly   bool
	showVersion bool
}

var (
	stdOut io.Writer = os.Stdout
	stdErr io.Writer = os.Stderr
)

const shutdownTimeout = 30 * time.Second

func main() {
	opts, err := parseCLIFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(stdErr, err.Error())
		os.Exit(2)
	}
	os.Exit(run(opts))
}

// run 根据解析到的 CLI 选项执行业务流程，并返回退出码，方便测试。
func run(opts cliOptions) int {
	if opts.showVersion {
		printVersion()
		return 0
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(stdErr, "加载配置失败: %v\n", err)
		return 1
	}

	logger, err := logging.InitLogger(cfg)
	if err != nil {
		fmt.Fprintf(stdErr, "初始化日志失败: %v\n", err)
		return 1
	}

	if opts.checkOnly {
		fields := logging.BaseFields("check_config", opts.configPath)
		fields["listen_port"] = cfg.ListenPort
		fields["cache_path"] = cfg.CachePath
		fields["result"] = "ok"
		logger.WithFields(fields).Info("配置校验通过")
		return 0
	}

	// CLI 启动遵循“配置 → 磁盘缓存加载 → 上游客户端 → Fiber server”顺序，
	// 保证所有请求共享同一份缓存实例。
	store := cache.NewMemoryCache(cfg.CachePath, logger)
	if err := store.Load(context.Background()); err != nil {
		logger.WithError(err).WithFields(logrus.Fields{
			"action":    "cache_load",
			"cache_dir": cfg.CachePath,
		}).Warn("缓存加载失败，以空缓存启动")
	}

	httpClient := server.NewUpstreamClient(cfg)
	client := docs.NewClient(httpClient, cfg.DocsBaseURL)
	handler := api.NewHandler(store, client, logger)

	fields := logging.BaseFields("startup", opts.configPath)
	fields["listen_port"] = cfg.ListenPort
	fields["cache_path"] = cfg.CachePath
	fields["cache_entries"] = store.Len()
	fields["version"] = version.Full()
	logger.WithFields(fields).Info("配置加载完成")

	if err := startHTTPServer(cfg, handler, store, logger); err != nil {
		fmt.Fprintf(stdErr, "HTTP 服务启动失败: %v\n", err)
		return 1
	}
	return 0
}

// parseCLIFlags 解析 CLI 参数，并结合环境变量计算最终的配置路径。
func parseCLIFlags(args []string) (cliOptions, error) {
	fs := flag.NewFlagSet("docs-hub", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		configFlag string
		checkOnly  bool
		showVer    bool
	)

	fs.StringVar(&configFlag, "config", "", "配置文件路径（默认 ./config.toml，可被 DOCS_HUB_CONFIG 覆盖）")
	fs.BoolVar(&checkOnly, "check-config", false, "仅校验配置后退出")
	fs.BoolVar(&showVer, "version", false, "显示版本信息")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, fmt.Errorf("解析参数失败: %w", err)
	}

	path := os.Getenv("DOCS_HUB_CONFIG")
	if configFlag != "" {
		path = configFlag
	}
	if path == "" {
		path = config.DefaultConfigPath
	}

	return cliOptions{
		configPath:  path,
		checkOnly:   checkOnly,
		showVersion: showVer,
	}, nil
}

// startHTTPServer 启动 Fiber 服务并阻塞到收到退出信号；
// 退出前先优雅关闭 HTTP，再把缓存落盘。
func startHTTPServer(cfg *config.Config, handler *api.Handler, store cache.Cache, logger *logrus.Logger) error {
	app, err := server.NewApp(server.AppOptions{Logger: logger})
	if err != nil {
		return err
	}
	routes.RegisterDocRoutes(app, handler)

	port := cfg.ListenPort
	logger.WithFields(logrus.Fields{
		"action": "listen",
		"port":   port,
	}).Info("Fiber 服务启动")

	listenErr := make(chan error, 1)
	go func() {
		listenErr <- app.Listen(fmt.Sprintf(":%d", port))
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-listenErr:
		return err
	case sig := <-sigCh:
		logger.WithFields(logrus.Fields{
			"action": "shutdown",
			"signal": sig.String(),
		}).Info("收到退出信号，开始优雅关闭")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.WithError(err).Warn("HTTP 服务关闭失败")
	}

	if err := store.Save(shutdownCtx); err != nil {
		logger.WithError(err).WithFields(logrus.Fields{
			"action":    "cache_save",
			"cache_dir": cfg.CachePath,
		}).Error("退出前缓存落盘失败")
	} else {
		logger.WithFields(logrus.Fields{
			"action":  "cache_save",
			"entries": store.Len(),
		}).Info("缓存已落盘")
	}
	return nil
}

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata" // 确保在精简镜像中也能识别时区

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/user/dataminer/internal/config"
	"github.com/user/dataminer/internal/handler"
	"github.com/user/dataminer/internal/middleware"
	"github.com/user/dataminer/internal/repository"
	"github.com/user/dataminer/internal/router"
	"github.com/user/dataminer/internal/service"
	"github.com/user/dataminer/internal/utils"
)

func main() {
	// 加载环境变量
	if err := godotenv.Load(); err != nil {
		log.Println("未找到 .env 文件，使用系统环境变量")
	}

	// 加载配置
	cfg := config.Load()

	// 初始化表格存储
	var tables repository.TableHost
	if cfg.UseMemoryStore() {
		log.Println("使用内存表格，重启后数据会丢失")
		tables = repository.NewMemoryTableStore()
	} else {
		db, err := repository.InitDB(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("数据库连接失败: %v", err)
		}
		sqlDB, _ := db.DB()
		defer sqlDB.Close()
		tables = repository.NewTableStore(db)
	}

	// 初始化服务
	signer := utils.NewProxySigner(cfg.ProxySecret, cfg.ProxyBaseURL)
	factory := service.NewFactory(service.Deps{
		Client:   service.NewAPIClient(cfg.APIBaseURL, cfg.APITimeout),
		Signer:   signer,
		Resolver: service.NewShortLinkResolver(10 * time.Second),
		Pacing: service.Pacing{
			PageDelay:  cfg.PageDelay,
			ReplyDelay: cfg.ReplyDelay,
			URLDelay:   cfg.URLDelay,
		},
	})
	cache := service.NewExtractionCache(cfg.CacheTTL)
	extraction := service.NewExtractionService(factory, service.NewTableService(tables, cfg.TableBatchSize), cache)

	initCtx, cancelInit := context.WithTimeout(context.Background(), 10*time.Second)
	if err := extraction.Initialize(initCtx); err != nil {
		log.Printf("数据提取服务初始化失败，提取接口暂不可用: %v", err)
	}
	cancelInit()

	runs := service.NewRunRegistry(extraction, cfg.RunHistorySize, cfg.RunTTL)

	// 启动定时清理任务
	cleanupSvc := service.NewCleanupService(runs, cache, 10*time.Minute)
	cleanupSvc.Start()
	defer cleanupSvc.Stop()

	// 初始化 Gin
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := handler.RegisterValidators(); err != nil {
		log.Fatalf("注册校验规则失败: %v", err)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	// 启用 gzip，代理的媒体流不压缩
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{utils.MediaProxyPath, utils.DownloadProxyPath})))

	// 中间件
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.CORS())

	// 初始化 Handler
	h := handler.NewHandler(cfg, extraction, runs, tables, cleanupSvc, signer)

	// 注册路由
	router.RegisterRoutes(r, h)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	// 在 goroutine 中启动服务器，这样我们就可以监听信号
	go func() {
		log.Printf("服务器启动于 http://localhost:%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("服务器启动失败: %v", err)
		}
	}()

	// 等待中断信号以优雅地关闭服务器
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("正在关闭服务器...")

	// 5 秒超时上下文用于关闭过程
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("服务器强制关闭:", err)
	}

	log.Println("服务器已退出")
}

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/alphastore-tech/dashboard-backend/internal/client/kis"
	"github.com/alphastore-tech/dashboard-backend/internal/config"
	cronrunner "github.com/alphastore-tech/dashboard-backend/internal/cron"
	"github.com/alphastore-tech/dashboard-backend/internal/db"
	"github.com/alphastore-tech/dashboard-backend/internal/handler"
	"github.com/alphastore-tech/dashboard-backend/internal/logger"
	gormrepository "github.com/alphastore-tech/dashboard-backend/internal/repository/gorm"
	"github.com/alphastore-tech/dashboard-backend/internal/secrets"
	"github.com/alphastore-tech/dashboard-backend/internal/service"
)

func main() {
	cfgPath := os.Getenv("DASH_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("DASH_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}
	if err := cfg.Validate(); err != nil {
		panic(err)
	}

	logger, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	loc, err := time.LoadLocation(cfg.App.Timezone)
	if err != nil {
		logger.Fatal("invalid timezone", zap.Error(err))
	}

	dbConn, err := db.Open(cfg.DB)
	if err != nil {
		logger.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close(dbConn)

	if err := db.SetTimezone(dbConn, cfg.DB.Timezone); err != nil {
		logger.Warn("failed to set timezone", zap.Error(err))
	}
	if err := db.AutoMigrate(dbConn); err != nil {
		logger.Fatal("auto-migrate failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	resolver, err := secrets.NewResolver(ctx, cfg.Secrets.Region)
	if err != nil {
		logger.Fatal("secrets resolver init failed", zap.Error(err))
	}

	kisHTTP := &http.Client{Timeout: cfg.KIS.Timeout}
	kisClient := kis.NewClient(kisHTTP, cfg.KIS.BaseURL, cfg.KIS.AppKey, cfg.KIS.AppSecret, cfg.KIS.CustType)
	spotAccount := kis.Account{CANO: cfg.KIS.Spot.CANO, AcntPrdtCd: cfg.KIS.Spot.AcntPrdtCd}
	futuresAccount := kis.Account{CANO: cfg.KIS.Futures.CANO, AcntPrdtCd: cfg.KIS.Futures.AcntPrdtCd}

	store := gormrepository.New(dbConn.Gorm)

	navPipeline := &service.NavPipeline{
		Secrets:  resolver,
		SecretID: cfg.Secrets.AccessTokenID,
		Spot:     &kis.SpotFetcher{Client: kisClient, Account: spotAccount},
		Futures:  &kis.FuturesFetcher{Client: kisClient, Account: futuresAccount},
		Repo:     store,
		Logger:   logger,
		Loc:      loc,
	}
	pnlPipeline := &service.PnlPipeline{
		Secrets:  resolver,
		SecretID: cfg.Secrets.AccessTokenID,
		Client:   kisClient,
		Account:  spotAccount,
		Repo:     store,
		Logger:   logger,
		Loc:      loc,
		StartYMD: cfg.Pipelines.PnlStartDate,
	}
	portfolioSvc := &service.PortfolioService{
		Secrets:       resolver,
		SecretID:      cfg.Secrets.AccessTokenID,
		Client:        kisClient,
		SpotPrdtCd:    cfg.KIS.Spot.AcntPrdtCd,
		FuturesPrdtCd: cfg.KIS.Futures.AcntPrdtCd,
		Repo:          store,
		Logger:        logger,
	}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware())

	healthHandler := &handler.HealthHandler{DB: dbConn.Gorm}
	healthHandler.Register(engine)
	navHandler := &handler.NavHandler{Repo: store}
	navHandler.Register(engine)
	pnlHandler := &handler.PnlHandler{Repo: store}
	pnlHandler.Register(engine)
	portfolioHandler := &handler.PortfolioHandler{
		Service:          portfolioSvc,
		DefaultAccountNo: cfg.KIS.Futures.CANO,
	}
	portfolioHandler.Register(engine)
	kisHandler := &handler.KISHandler{
		Client:   kisClient,
		Secrets:  resolver,
		SecretID: cfg.Secrets.AccessTokenID,
		Account:  futuresAccount,
	}
	kisHandler.Register(engine)
	pipelineHandler := &handler.PipelineHandler{Nav: navPipeline, Pnl: pnlPipeline}
	pipelineHandler.Register(engine)

	cronRunner := cronrunner.New(logger, ctx)
	if cfg.Cron.Enabled {
		_, err = cronRunner.Add("daily_nav", cfg.Cron.DailyNav, func(ctx context.Context) {
			report, err := navPipeline.RunOnce(ctx)
			if err != nil {
				logger.Warn("daily nav pipeline failed",
					zap.String("step", report.Step), zap.Error(err))
				return
			}
			logger.Info("daily nav pipeline ok",
				zap.String("trade_date", report.TradeDate.Format("2006-01-02")))
		})
		if err != nil {
			logger.Warn("cron register daily nav failed", zap.Error(err))
		}

		_, err = cronRunner.Add("daily_pnl", cfg.Cron.DailyPnl, func(ctx context.Context) {
			rows, err := pnlPipeline.RunOnce(ctx)
			if err != nil {
				logger.Warn("daily pnl pipeline failed", zap.Error(err))
				return
			}
			logger.Info("daily pnl pipeline ok", zap.Int("rows", rows))
		})
		if err != nil {
			logger.Warn("cron register daily pnl failed", zap.Error(err))
		}

		cronRunner.Start()
		defer cronRunner.Stop()
	}

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}

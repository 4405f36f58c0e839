package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shopping/internal/config"
	"shopping/internal/handler"
	"shopping/internal/infra/db"
	"shopping/internal/infra/notify"
	"shopping/internal/infra/ratelimit"
	infraRepo "shopping/internal/infra/repository"
	"shopping/internal/infra/token"
	"shopping/internal/logger"
	"shopping/internal/server"
	"shopping/internal/usecase"
	auth "shopping/internal/usecase/auth_usecase"

	"go.uber.org/zap"
)

type realClock struct{}

func (c *realClock) Now() time.Time {
	return time.Now()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zl, err := logger.New(logger.ConfigFor(cfg.GoEnv, cfg.LogLevel, cfg.LogFormat))
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	if err := run(cfg, zl); err != nil {
		zl.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg config.Config, zl *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	//DB接続
	gormDB, err := db.Connect(db.Options{
		DSN:          cfg.DSN(),
		LogLevel:     cfg.LogLevel,
		MaxOpenConns: 25,
		MaxIdleConns: 5,
	}, zl)
	if err != nil {
		return err
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}
	defer func() { _ = sqlDB.Close() }()

	if cfg.MigrateOnStart {
		if err := db.MigrateUp(sqlDB, zl); err != nil {
			return err
		}
	}

	limiter, closeLimiter, err := newLimiter(ctx, cfg, zl)
	if err != nil {
		return err
	}
	defer closeLimiter()

	dispatcher := notify.NewDispatcher(newSender(cfg, zl), notify.Options{
		Workers:   cfg.NotifyWorkers,
		QueueSize: cfg.NotifyQueueSize,
	}, zl)

	//Repository（GORM実装）生成
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	txManager := infraRepo.NewTxManagerGorm(gormDB)
	cartRepo := infraRepo.NewCartGormRepository(gormDB)
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	categoryRepo := infraRepo.NewCategoryGormRepository(gormDB)
	reviewRepo := infraRepo.NewReviewGormRepository(gormDB)
	analyticsRepo := infraRepo.NewAnalyticsGormRepository(gormDB)

	//usecaseに渡す部品
	clock := &realClock{}
	jwt := token.NewJWT(cfg.JWTSecret, cfg.AccessTTL)

	//Usecase生成
	registerUC := auth.NewRegisterUserUsecase(userRepo, auth.NewBcryptPasswordHasher(12), clock)
	loginUC := auth.NewLoginUsecase(userRepo, auth.NewBcryptPasswordVerifier(), jwt, clock)
	logoutAllUC := auth.NewLogoutAllUsecase(userRepo)
	productUC := usecase.NewProductUsecase(productRepo, categoryRepo, txManager)

	//Handler生成
	h := server.Handlers{
		Health:       handler.NewHealthHandler(sqlDB),
		Auth:         handler.NewAuthHandler(registerUC, loginUC, logoutAllUC),
		AdminUser:    handler.NewAdminUserHandler(logoutAllUC),
		Product:      handler.NewProductHandler(productUC),
		AdminProduct: handler.NewAdminProductHandler(productUC),
		Category:     handler.NewCategoryHandler(usecase.NewCategoryUsecase(categoryRepo, productRepo)),
		Cart:         handler.NewCartHandler(usecase.NewCartUsecase(cartRepo, cartRepo, productRepo, txManager)),
		Order:        handler.NewOrderHandler(usecase.NewOrderUsecase(txManager, userRepo, dispatcher, zl)),
		AdminOrder:   handler.NewAdminOrderHandler(usecase.NewAdminOrderUsecase(txManager)),
		Review:       handler.NewReviewHandler(usecase.NewReviewUsecase(txManager, reviewRepo, productRepo)),
		Analytics:    handler.NewAnalyticsHandler(usecase.NewAnalyticsUsecase(analyticsRepo)),
		AuditLog:     handler.NewAuditLogHandler(usecase.NewAuditLogUsecase(infraRepo.NewAuditLogGormRepository(gormDB))),
	}

	e := server.New(server.Options{
		Logger:  zl,
		Limiter: limiter,
		Tokens:  jwt,
		Users:   userRepo,
	}, h)

	//Server起動
	zl.Info("server starting", zap.String("addr", cfg.Addr()), zap.String("env", cfg.GoEnv))
	serveErr := server.Start(ctx, e, cfg.Addr(), 10*time.Second)

	// 積まれた通知を送り切る
	closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := dispatcher.Close(closeCtx); err != nil {
		zl.Warn("notify queue not drained", zap.Error(err))
	}

	return serveErr
}

// REDIS_URL があれば Redis、無ければプロセス内
func newLimiter(ctx context.Context, cfg config.Config, zl *zap.Logger) (ratelimit.Store, func(), error) {
	limit := ratelimit.Limit{
		Capacity: cfg.RateLimitCapacity,
		Refill:   cfg.RateLimitRefill,
		Every:    cfg.RateLimitRefillEvery,
	}
	if cfg.RedisURL == "" {
		zl.Info("rate limit: in-memory store")
		store, err := ratelimit.NewMemoryStore(limit)
		return store, func() {}, err
	}

	client, err := ratelimit.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	store, err := ratelimit.NewRedisStore(client, limit, "")
	if err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	zl.Info("rate limit: redis store")
	return store, func() { _ = client.Close() }, nil
}

// SMTP_HOST が無ければログに出すだけ
func newSender(cfg config.Config, zl *zap.Logger) notify.Sender {
	if cfg.SMTPHost == "" {
		return notify.NewLogSender(zl)
	}
	return notify.NewSMTPSender(notify.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	})
}

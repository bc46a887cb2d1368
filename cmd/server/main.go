package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	authentity "github.com/buildhub/sitestock/internal/auth/entity"
	authhandler "github.com/buildhub/sitestock/internal/auth/handler"
	authrepo "github.com/buildhub/sitestock/internal/auth/repository"
	authsvc "github.com/buildhub/sitestock/internal/auth/service"
	"github.com/buildhub/sitestock/internal/config"
	hireentity "github.com/buildhub/sitestock/internal/hire/entity"
	hirehandler "github.com/buildhub/sitestock/internal/hire/handler"
	hirerepo "github.com/buildhub/sitestock/internal/hire/repository"
	hiresvc "github.com/buildhub/sitestock/internal/hire/service"
	"github.com/buildhub/sitestock/internal/middleware"
	projectentity "github.com/buildhub/sitestock/internal/project/entity"
	projecthandler "github.com/buildhub/sitestock/internal/project/handler"
	projectrepo "github.com/buildhub/sitestock/internal/project/repository"
	projectsvc "github.com/buildhub/sitestock/internal/project/service"
	stockentity "github.com/buildhub/sitestock/internal/stock/entity"
	stockhandler "github.com/buildhub/sitestock/internal/stock/handler"
	stockrepo "github.com/buildhub/sitestock/internal/stock/repository"
	stocksvc "github.com/buildhub/sitestock/internal/stock/service"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// 加载 .env 文件
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化日志
	zapLogger, err := initLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting sitestock service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	// 初始化数据库
	db, err := initDatabase(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}

	if err := db.AutoMigrate(
		&authentity.User{},
		&authentity.Role{},
		&authentity.Permission{},
		&projectentity.Project{},
		&stockentity.Item{},
		&stockentity.Location{},
		&stockentity.SerializedUnit{},
		&stockentity.LocationQuantity{},
		&stockentity.StockTransaction{},
		&stockentity.Attachment{},
		&hireentity.Booking{},
	); err != nil {
		zapLogger.Fatal("AutoMigrate failed", zap.Error(err))
	}

	// 初始化Redis
	rdb := initRedis(cfg.Redis)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		zapLogger.Warn("Redis unavailable, refresh tokens disabled", zap.Error(err))
	}

	// 初始化MinIO客户端
	var minioClient *minio.Client
	if cfg.MinIO.Endpoint != "" {
		minioClient, err = minio.New(cfg.MinIO.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, ""),
			Secure: cfg.MinIO.UseSSL,
		})
		if err != nil {
			zapLogger.Warn("MinIO unavailable, attachments disabled", zap.Error(err))
			minioClient = nil
		}
	}

	// 库存域
	stockRepos := stockrepo.NewRepositories(db)
	stockServices := stocksvc.NewServices(stockRepos, minioClient, cfg.MinIO.Bucket)
	stockHandlers := stockhandler.NewHandlers(stockServices, stockRepos.Location)

	// 项目域
	projectRepo := projectrepo.NewProjectRepository(db)
	projectService := projectsvc.NewProjectService(projectRepo)
	projectHandler := projecthandler.NewProjectHandler(projectService)

	// 租赁域
	bookingRepo := hirerepo.NewBookingRepository(db)
	bookingService := hiresvc.NewBookingService(
		db, bookingRepo, projectRepo, stockRepos.Item, stockRepos.Transaction,
		stockServices.Movement, stockServices.Unit)
	bookingHandler := hirehandler.NewBookingHandler(bookingService)

	// 认证域
	userRepo := authrepo.NewUserRepository(db)
	authService := authsvc.NewAuthService(userRepo, rdb, cfg)
	authHandler := authhandler.NewAuthHandler(authService)

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 创建路由
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(zapLogger))
	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	registerRoutes(router, cfg, stockHandlers, projectHandler, bookingHandler, authHandler)

	// 创建HTTP服务器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 启动服务器
	go func() {
		zapLogger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exited")
}

func initLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config

	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	switch cfg.Level {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}

	return zapCfg.Build()
}

func initDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	// TranslateError 让唯一索引冲突以 gorm.ErrDuplicatedKey 返回，
	// 序列号/编码查重依赖这层转换。
	gormConfig := &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	}

	db, err := gorm.Open(postgres.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	return db, nil
}

func initRedis(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

func registerRoutes(
	r *gin.Engine,
	cfg *config.Config,
	stockH *stockhandler.Handlers,
	projectH *projecthandler.ProjectHandler,
	bookingH *hirehandler.BookingHandler,
	authH *authhandler.AuthHandler,
) {
	// 健康检查
	r.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/health/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// 版本信息
	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    Version,
			"build_time": BuildTime,
		})
	})

	// API v1
	v1 := r.Group("/api/v1")
	{
		// 认证 (无需登录)
		auth := v1.Group("/auth")
		{
			auth.POST("/login", authH.Login)
			auth.POST("/refresh", authH.Refresh)
		}

		// 需要认证的接口
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(cfg.JWT.Secret))
		{
			// 当前用户
			authorized.GET("/auth/me", authH.Me)
			authorized.POST("/auth/logout", authH.Logout)
			authorized.POST("/auth/password", authH.ChangePassword)
			authorized.POST("/auth/register", middleware.RequireRole("admin"), authH.Register)
			authorized.POST("/auth/users/:id/roles", middleware.RequireRole("admin"), authH.AssignRole)

			// 物资目录
			items := authorized.Group("/items")
			{
				items.POST("", middleware.RequirePermission("stock:item:create"), stockH.Item.Create)
				items.GET("", stockH.Item.List)
				items.GET("/:id", stockH.Item.Get)
				items.PUT("/:id", middleware.RequirePermission("stock:item:update"), stockH.Item.Update)
				items.PUT("/:id/tracking-mode", middleware.RequirePermission("stock:item:update"), stockH.Item.ChangeTrackingMode)
				items.POST("/:id/deactivate", middleware.RequirePermission("stock:item:update"), stockH.Item.Deactivate)
				items.POST("/:id/activate", middleware.RequirePermission("stock:item:update"), stockH.Item.Activate)
				items.GET("/:id/quantities", stockH.Item.Quantities)
				items.GET("/:id/locations", stockH.Item.LocationBreakdown)
			}

			// 序列化单件
			units := authorized.Group("/units")
			{
				units.POST("", middleware.RequirePermission("stock:unit:create"), stockH.Unit.Register)
				units.GET("", stockH.Unit.List)
				units.GET("/:id", stockH.Unit.Get)
				units.PUT("/:id/status", middleware.RequirePermission("stock:unit:update"), stockH.Unit.TransitionStatus)
				units.PUT("/:id/location", middleware.RequirePermission("stock:unit:update"), stockH.Unit.Relocate)
				units.PUT("/:id/condition", middleware.RequirePermission("stock:unit:update"), stockH.Unit.UpdateCondition)
			}

			// 出入库
			movements := authorized.Group("/movements")
			{
				movements.POST("", middleware.RequirePermission("stock:movement:create"), stockH.Movement.Apply)
				movements.POST("/receive", middleware.RequirePermission("stock:movement:create"), stockH.Movement.Receive)
				movements.POST("/issue", middleware.RequirePermission("stock:movement:create"), stockH.Movement.Issue)
				movements.POST("/transfer", middleware.RequirePermission("stock:movement:create"), stockH.Movement.Transfer)
				movements.POST("/count", middleware.RequirePermission("stock:movement:count"), stockH.Movement.Count)
				movements.GET("/transactions", stockH.Movement.Transactions)
				movements.GET("/alerts", stockH.Movement.Alerts)
				movements.GET("/export", stockH.Movement.ExportStock)
			}

			// 库存地点
			locations := authorized.Group("/locations")
			{
				locations.POST("", middleware.RequirePermission("stock:location:create"), stockH.Location.Create)
				locations.GET("", stockH.Location.List)
				locations.GET("/:id", stockH.Location.Get)
				locations.PUT("/:id", middleware.RequirePermission("stock:location:update"), stockH.Location.Update)
			}

			// 附件
			attachments := authorized.Group("/attachments")
			{
				attachments.POST("", stockH.Attachment.Upload)
				attachments.GET("", stockH.Attachment.List)
				attachments.GET("/:id/download", stockH.Attachment.Download)
				attachments.DELETE("/:id", stockH.Attachment.Delete)
			}

			// 工程项目
			projects := authorized.Group("/projects")
			{
				projects.POST("", middleware.RequirePermission("project:create"), projectH.Create)
				projects.GET("", projectH.List)
				projects.GET("/:id", projectH.Get)
				projects.PUT("/:id", middleware.RequirePermission("project:update"), projectH.Update)
			}

			// 租赁/领用
			bookings := authorized.Group("/bookings")
			{
				bookings.POST("", middleware.RequirePermission("hire:booking:create"), bookingH.Create)
				bookings.GET("", bookingH.List)
				bookings.GET("/:id", bookingH.Get)
				bookings.POST("/:id/dispatch", middleware.RequirePermission("hire:booking:dispatch"), bookingH.Dispatch)
				bookings.POST("/:id/return", middleware.RequirePermission("hire:booking:dispatch"), bookingH.Return)
				bookings.POST("/:id/cancel", middleware.RequirePermission("hire:booking:create"), bookingH.Cancel)
			}
		}
	}
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "backoffice/api/swagger" // swagger docs
	"backoffice/internal/config"
	"backoffice/internal/database"
	"backoffice/internal/handler"
	"backoffice/internal/logger"
	"backoffice/internal/middleware"
	"backoffice/internal/model"
	"backoffice/internal/render"
	"backoffice/internal/repository"
	"backoffice/internal/service"
	"backoffice/internal/storage"
	"backoffice/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// @title           Trade Back-Office API
// @version         1.0
// @description     Invoices, trading partners, factories and users of the trade back office.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("load config: " + err.Error())
	}

	log := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: cfg.Log.Output})
	defer func() { _ = log.Sync() }()

	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewConnection(cfg.Database, log)
	if err != nil {
		log.Fatal("Database connection failed", zap.Error(err))
	}
	log.Info("Connected to PostgreSQL successfully", zap.String("host", cfg.Database.Host), zap.String("db", cfg.Database.DBName))

	files, err := storage.New(ctx, cfg.Storage, log)
	if err != nil {
		log.Fatal("Storage setup failed", zap.Error(err))
	}

	pdf := render.NewChromedpPDF(cfg.Render, log)
	defer pdf.Close()
	renderer, err := render.New(pdf)
	if err != nil {
		log.Fatal("Template setup failed", zap.Error(err))
	}

	// Set up WebSocket Hub
	wsHub := websocket.NewHub(log, cfg.HTTP.CORSAllowOrigins)
	go wsHub.Run(ctx)

	// Set up dependencies (Repository -> Service -> Handler)
	userRepo := repository.NewUserRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	txManager := repository.NewTransactionManager(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	shipperRepo := repository.NewShipperRepository(db)
	bankRepo := repository.NewBankRepository(db)
	factoryRepo := repository.NewFactoryRepository(db)
	categoryRepo := repository.NewFactoryCategoryRepository(db)

	numberer, err := service.NewNumberer(cfg.Invoice, invoiceRepo)
	if err != nil {
		log.Fatal("Invoice numbering setup failed", zap.Error(err))
	}

	userService := service.NewUserService(userRepo, auditRepo, txManager, cfg.JWT)
	invoiceService := service.NewInvoiceService(service.InvoiceDeps{
		Invoices:        invoiceRepo,
		Shippers:        shipperRepo,
		Customers:       customerRepo,
		Banks:           bankRepo,
		Audit:           auditRepo,
		TxManager:       txManager,
		Numberer:        numberer,
		Renderer:        renderer,
		Notifier:        wsHub,
		ConflictRetries: cfg.Invoice.ConflictRetries,
	})

	if err := userService.EnsureSuperAdmin(ctx, cfg.Bootstrap); err != nil {
		log.Fatal("Super Admin bootstrap failed", zap.Error(err))
	}

	// Initialize Handlers
	userHandler := handler.NewUserHandler(userService, cfg.JWT.Expiration, cfg.App.IsProduction())
	customerHandler := handler.NewCustomerHandler(service.NewCustomerService(customerRepo, wsHub))
	shipperHandler := handler.NewShipperHandler(service.NewShipperService(shipperRepo, bankRepo, wsHub))
	bankHandler := handler.NewBankHandler(service.NewBankService(bankRepo, wsHub))
	factoryHandler := handler.NewFactoryHandler(
		service.NewFactoryService(factoryRepo, categoryRepo, txManager, files, wsHub),
		service.NewFactoryCategoryService(categoryRepo, wsHub),
	)
	sampleInvoiceHandler := handler.NewInvoiceHandler(invoiceService, model.InvoiceKindSample)
	salesInvoiceHandler := handler.NewInvoiceHandler(invoiceService, model.InvoiceKindSales)
	reportHandler := handler.NewReportHandler(service.NewReportService(invoiceRepo))
	auditHandler := handler.NewAuditHandler(service.NewAuditService(auditRepo))

	// Set up Gin Router
	router := gin.New()
	router.Use(logger.GinMiddleware(log), logger.Recovery(log))
	router.MaxMultipartMemory = 8 << 20

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Request-ID"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.ExposeHeaders = []string{"Content-Disposition", "X-Request-ID"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})

	// Uploaded documents on local disk
	if local, ok := files.(*storage.LocalStorage); ok {
		router.Static(cfg.Storage.PublicBaseURL, local.Root())
	}

	// WebSocket endpoint
	jwtSecret := []byte(cfg.JWT.Secret)
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, jwtSecret, userRepo)
	})

	// API Routing
	api := router.Group("/api", middleware.BodyLimit(cfg.HTTP.MaxUploadBytes))
	userHandler.RegisterPublicRoutes(api)

	protected := api.Group("", middleware.Authenticate(jwtSecret, userRepo))
	userHandler.RegisterRoutes(protected)
	customerHandler.RegisterRoutes(protected)
	shipperHandler.RegisterRoutes(protected)
	bankHandler.RegisterRoutes(protected)
	factoryHandler.RegisterRoutes(protected)
	sampleInvoiceHandler.RegisterRoutes(protected)
	salesInvoiceHandler.RegisterRoutes(protected)
	reportHandler.RegisterRoutes(protected)
	auditHandler.RegisterRoutes(protected)

	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Server listening", zap.String("addr", srv.Addr), zap.String("env", cfg.App.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Graceful shutdown failed", zap.Error(err))
	}
}

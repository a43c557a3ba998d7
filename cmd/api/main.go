package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "garage/api/swagger" // swagger docs
	"garage/internal/cache"
	"garage/internal/config"
	"garage/internal/database"
	"garage/internal/handler"
	"garage/internal/middleware"
	"garage/internal/repository"
	"garage/internal/scheduler"
	"garage/internal/service"
	"garage/internal/websocket"
	"garage/internal/workflow"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Garage Workshop API
// @version         1.0
// @description     Job cards, parts requisitions, technician time and invoicing for a repair workshop.
// @host            localhost:8080
// @BasePath        /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg := config.Load()

	db, err := database.NewConnection(cfg.DBDriver, cfg.DSN)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	log.Printf("Connected to %s successfully.", cfg.DBDriver)

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	productCache := cache.Connect(ctx, cfg.RedisAddr, 30*time.Second)
	cancel()

	// Repositories
	txManager := repository.NewTransactionManager(db)
	auditRepo := repository.NewAuditRepository(db)
	employeeRepo := repository.NewEmployeeRepository(db)
	productRepo := repository.NewProductRepository(db)
	invTxRepo := repository.NewInventoryTxRepository(db)
	jobCardRepo := repository.NewJobCardRepository(db)
	requisitionRepo := repository.NewRequisitionRepository(db)
	timesheetRepo := repository.NewTimesheetRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)

	// Services
	policy := workflow.PaymentPolicy{AllowOverpayment: cfg.AllowOverpayment, Epsilon: cfg.PaymentEpsilon}
	employeeService := service.NewEmployeeService(employeeRepo, auditRepo, txManager)
	inventoryService := service.NewInventoryService(productRepo, invTxRepo, auditRepo, txManager, productCache, wsHub)
	jobCardService := service.NewJobCardService(jobCardRepo, employeeService, auditRepo, txManager, wsHub)
	requisitionService := service.NewRequisitionService(requisitionRepo, jobCardRepo, inventoryService, auditRepo, txManager, wsHub)
	timesheetService := service.NewTimesheetService(timesheetRepo, jobCardRepo, auditRepo, txManager, wsHub)
	invoiceService := service.NewInvoiceService(invoiceRepo, jobCardRepo, requisitionRepo, timesheetRepo, productRepo, auditRepo, txManager, wsHub, policy, cfg.LaborRate)
	auditService := service.NewAuditService(auditRepo)

	// Handlers
	handlers := []interface{ RegisterRoutes(*gin.RouterGroup) }{
		handler.NewEmployeeHandler(employeeService),
		handler.NewInventoryHandler(inventoryService),
		handler.NewJobCardHandler(jobCardService),
		handler.NewRequisitionHandler(requisitionService),
		handler.NewTimesheetHandler(timesheetService),
		handler.NewInvoiceHandler(invoiceService),
		handler.NewAuditHandler(auditService),
	}

	router := gin.Default()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigin
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK", "ws_clients": wsHub.ClientCount()})
	})

	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, cfg.JWTSecret)
	})

	api := router.Group("/api", middleware.Authenticate(cfg.JWTSecret))
	for _, h := range handlers {
		h.RegisterRoutes(api)
	}

	overdue := scheduler.NewOverdueScheduler(invoiceService)
	if err := overdue.Start(cfg.OverdueSchedule); err != nil {
		log.Fatalf("Scheduler failed: %v", err)
	}

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: router}
	go func() {
		log.Printf("Server listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down...")

	overdue.Stop()
	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
}

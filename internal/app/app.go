// Package app wires repositories, the ledger engine, the inter-company
// workflow and the HTTP transport into one router.
package app

import (
	"net/http"

	"intercompany/internal/config"
	"intercompany/internal/handler"
	"intercompany/internal/intercompany"
	"intercompany/internal/ledger"
	"intercompany/internal/logger"
	"intercompany/internal/middleware"
	"intercompany/internal/repository"
	"intercompany/internal/service"
	"intercompany/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

type App struct {
	Router *gin.Engine
	Hub    *websocket.Hub

	Engine   *ledger.Engine
	Workflow *intercompany.Workflow

	InvoiceService service.InvoiceService
	CompanyService service.CompanyService
	UserService    service.UserService
}

// New builds the application on db. The websocket hub is created but not started.
func New(db *gorm.DB, cfg *config.Config) *App {
	log := logger.WithComponent("app")

	invoiceRepo := repository.NewInvoiceRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	partnerRepo := repository.NewPartnerRepository(db)
	companyRepo := repository.NewCompanyRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	userRepo := repository.NewUserRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	txManager := repository.NewTransactionManager(db)
	directory := repository.NewDirectory(companyRepo, partnerRepo, catalogRepo, userRepo)

	engine := ledger.NewEngine(invoiceRepo, messageRepo, partnerRepo, companyRepo, catalogRepo, logger.WithComponent("ledger"))
	workflow := intercompany.New(engine, directory, txManager, cfg.AccountPrecision, logger.WithComponent("intercompany"))
	engine.OnWrite(workflow.CheckWrite)

	hub := websocket.NewHub(logger.WithComponent("websocket"))

	invoiceService := service.NewInvoiceService(engine, workflow, invoiceRepo, catalogRepo, auditRepo, txManager, hub, logger.WithComponent("invoice"))
	companyService := service.NewCompanyService(companyRepo, userRepo, auditRepo, txManager)
	userService := service.NewUserService(userRepo, companyRepo, cfg.JWTSecret)
	auditService := service.NewAuditService(auditRepo)
	partnerService := service.NewPartnerService(partnerRepo, catalogRepo)

	auth := middleware.NewAuth(cfg.JWTSecret, userService)

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(log))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})

	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(hub, c, auth.Secret(), userService)
	})

	public := router.Group("")
	protected := router.Group("", auth.Authenticate())

	handler.NewUserHandler(userService).RegisterRoutes(public, protected)
	handler.NewInvoiceHandler(invoiceService).RegisterRoutes(protected)
	handler.NewCompanyHandler(companyService).RegisterRoutes(protected)
	handler.NewPartnerHandler(partnerService).RegisterRoutes(protected)
	handler.NewAuditHandler(auditService).RegisterRoutes(protected)

	return &App{
		Router:         router,
		Hub:            hub,
		Engine:         engine,
		Workflow:       workflow,
		InvoiceService: invoiceService,
		CompanyService: companyService,
		UserService:    userService,
	}
}

func requestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		event := log.Debug()
		if c.Writer.Status() >= http.StatusInternalServerError {
			event = log.Error()
		}
		event.
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Msg("request")
	}
}

// Package router 提供HTTP路由配置
// 负责组装服务、处理器与中间件
package router

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/weiwangfds/fieldtax/config"
	"github.com/weiwangfds/fieldtax/internal/handler"
	"github.com/weiwangfds/fieldtax/internal/middleware"
	cleanupservice "github.com/weiwangfds/fieldtax/internal/service/cleanup"
	exportservice "github.com/weiwangfds/fieldtax/internal/service/export"
	ledgerservice "github.com/weiwangfds/fieldtax/internal/service/ledger"
	recordservice "github.com/weiwangfds/fieldtax/internal/service/record"
	refdataservice "github.com/weiwangfds/fieldtax/internal/service/refdata"
	"github.com/weiwangfds/fieldtax/internal/service/session"
	transferservice "github.com/weiwangfds/fieldtax/internal/service/transfer"
)

// Router 路由配置
type Router struct {
	engine *gin.Engine
	db     *gorm.DB
}

// NewRouter 创建路由实例
func NewRouter(loggerMiddleware *middleware.LoggerMiddleware, db *gorm.DB, cfg *config.Config) *Router {
	// 设置Gin模式
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()

	// 初始化服务
	// 显式传入同一个数据库句柄，导出与参照数据同步共享同一个会话闸门
	gate := session.NewGate()
	ledgerService := ledgerservice.NewLedgerService(db)
	cleanupService := cleanupservice.NewCleanupService(db)
	transferClient := transferservice.NewClient(cfg.Remote)
	exportService := exportservice.NewExportService(cfg.Export, gate, ledgerService, transferClient, cleanupService)
	refdataService := refdataservice.NewRefdataService(db, gate, transferClient)
	recordService := recordservice.NewRecordService(db)

	// 初始化处理器
	syncHandler := handler.NewSyncHandler(exportService, refdataService, ledgerService)
	recordHandler := handler.NewRecordHandler(recordService)

	// 使用中间件
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestID())
	engine.Use(loggerMiddleware.Logger())
	engine.Use(loggerMiddleware.RequestLogger())

	// 配置CORS
	engine.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"*"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// 健康检查
	engine.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"message": "Service is running",
		})
	})

	// API路由组
	api := engine.Group("/api/v1")
	{
		// 基础信息接口
		api.GET("/info", func(c *gin.Context) {
			c.JSON(200, gin.H{
				"service": "Fieldtax Sync Client",
				"version": "1.0.0",
				"status":  "running",
			})
		})

		// 数据库状态检查
		api.GET("/db/status", func(c *gin.Context) {
			sqlDB, err := db.DB()
			if err != nil {
				c.JSON(500, gin.H{
					"error": "Database connection error",
				})
				return
			}

			if err := sqlDB.Ping(); err != nil {
				c.JSON(500, gin.H{
					"error": "Database ping failed",
				})
				return
			}

			c.JSON(200, gin.H{
				"status": "Database connection OK",
			})
		})

		// 采集记录接口
		records := api.Group("/records")
		{
			records.POST("/taxpayers", recordHandler.CreateTaxpayer)
			records.GET("/taxpayers", recordHandler.ListTaxpayers)
			records.POST("/parcels", recordHandler.CreateParcel)
			records.GET("/parcels", recordHandler.ListParcels)
		}

		// 参照数据查询接口
		api.GET("/reference", recordHandler.ListReferenceTables)

		// 同步操作接口
		sync := api.Group("/sync")
		{
			sync.POST("/taxpayers", syncHandler.ExportTaxpayers)
			sync.POST("/parcels", syncHandler.ExportParcels)
			sync.POST("/reference", syncHandler.SynchronizeReference)
			sync.GET("/pending", syncHandler.GetPendingStatus)
		}
	}

	return &Router{
		engine: engine,
		db:     db,
	}
}

// GetEngine 获取Gin引擎实例
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}

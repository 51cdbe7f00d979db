package apiserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/propgraph/propgraph/pkg/apiserver/handlers"
	"github.com/propgraph/propgraph/pkg/apiserver/middleware"
	"github.com/propgraph/propgraph/pkg/assignment"
	"github.com/propgraph/propgraph/pkg/auth"
	"github.com/propgraph/propgraph/pkg/cascade"
	"github.com/propgraph/propgraph/pkg/catalog"
	"github.com/propgraph/propgraph/pkg/config"
	"github.com/propgraph/propgraph/pkg/eventbus"
	"github.com/propgraph/propgraph/pkg/importer"
	"github.com/propgraph/propgraph/pkg/query"
	"github.com/propgraph/propgraph/pkg/report"
)

const jsonBodyLimit = 1 << 20

type Server struct {
	router *gin.Engine
	db     *gorm.DB
	cfg    *config.Config
	logger *zap.Logger
	bus    *eventbus.Bus
	tokens *auth.TokenManager
}

func NewServer(db *gorm.DB, cfg *config.Config, logger *zap.Logger, bus *eventbus.Bus) *Server {
	s := &Server{
		db:     db,
		cfg:    cfg,
		logger: logger,
		bus:    bus,
		tokens: auth.NewTokenManager(cfg.Auth),
	}
	s.setupRouter()
	return s
}

// resource is the handler set mounted for every collection.
type resource interface {
	Create(c *gin.Context)
	Get(c *gin.Context)
	Update(c *gin.Context)
	List(c *gin.Context)
	Delete(c *gin.Context)
}

func (s *Server) setupRouter() {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(s.logger))
	r.Use(middleware.CORS())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	records := catalog.New(s.db, s.logger)
	orchestrator := cascade.NewOrchestrator(s.db, s.logger)
	imp := importer.New(s.db, s.cfg.Import, s.logger)
	limits := s.cfg.Query

	masterHandler := handlers.NewEntityHandler("master development", records.MasterDevelopments, query.MasterDevelopments,
		s.db, limits, orchestrator.DeleteMasterDevelopment, s.bus, s.logger)
	subHandler := handlers.NewEntityHandler("sub development", records.SubDevelopments, query.SubDevelopments,
		s.db, limits, orchestrator.DeleteSubDevelopment, s.bus, s.logger)
	projectHandler := handlers.NewEntityHandler("project", records.Projects, query.Projects,
		s.db, limits, orchestrator.DeleteProject, s.bus, s.logger)
	inventoryHandler := handlers.NewEntityHandler("inventory", records.Inventory, query.Inventories,
		s.db, limits, orchestrator.DeleteInventory, s.bus, s.logger)
	customerHandler := handlers.NewEntityHandler("customer", records.Customers, query.Customers,
		s.db, limits, orchestrator.DeleteCustomer, s.bus, s.logger)
	importHandler := handlers.NewImportHandler(imp, s.cfg.Import, s.bus, s.logger)
	assignmentHandler := handlers.NewAssignmentHandler(assignment.NewLinker(s.db, s.logger), s.bus, s.logger)
	reportHandler := handlers.NewReportHandler(report.NewAggregator(s.db), s.logger)

	api := r.Group("/api/v1")
	api.Use(middleware.Auth(s.tokens))

	rest := api.Group("", middleware.LimitBodyBytes(jsonBodyLimit))
	uploadLimit := s.cfg.Import.MaxFileSize
	if uploadLimit > 0 {
		uploadLimit += jsonBodyLimit
	}
	uploads := api.Group("",
		middleware.NewIPRateLimiter(s.cfg.Import.RatePerMinute).Middleware(),
		middleware.LimitBodyBytes(uploadLimit),
	)

	mount := func(path string, h resource, collection importer.Collection) {
		rest.POST(path, h.Create)
		rest.POST(path+"/list", h.List)
		rest.GET(path+"/:id", h.Get)
		rest.PATCH(path+"/:id", h.Update)
		rest.DELETE(path+"/:id", h.Delete)
		uploads.POST(path+"/import", importHandler.Import(collection))
	}
	mount("/master-developments", masterHandler, importer.MasterDevelopments)
	mount("/sub-developments", subHandler, importer.SubDevelopments)
	mount("/projects", projectHandler, importer.Projects)
	mount("/inventory", inventoryHandler, importer.Inventories)
	mount("/customers", customerHandler, importer.Customers)

	rest.GET("/master-developments/:id/report", reportHandler.MasterDevelopment)
	rest.POST("/assignments", assignmentHandler.Add)
	rest.DELETE("/assignments", assignmentHandler.Remove)

	s.router = r
}

func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) Tokens() *auth.TokenManager {
	return s.tokens
}

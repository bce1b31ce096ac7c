package router

import (
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/fleet-ops-api/internal/handler"
	"github.com/noah-isme/fleet-ops-api/internal/middleware"
	"github.com/noah-isme/fleet-ops-api/internal/service"
	"github.com/noah-isme/fleet-ops-api/pkg/config"
	appErrors "github.com/noah-isme/fleet-ops-api/pkg/errors"
	"github.com/noah-isme/fleet-ops-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/fleet-ops-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/fleet-ops-api/pkg/middleware/requestid"
	"github.com/noah-isme/fleet-ops-api/pkg/response"
)

// maxMultipartMemory bounds the in-memory part of an upload batch; larger
// parts spill to temporary files.
const maxMultipartMemory = 32 << 20

// Handlers groups every HTTP handler mounted by New.
type Handlers struct {
	Auth          *handler.AuthHandler
	Employees     *handler.EmployeeHandler
	Vehicles      *handler.VehicleHandler
	Schools       *handler.SchoolHandler
	Routes        *handler.RouteHandler
	Passengers    *handler.PassengerHandler
	CallLogs      *handler.CallLogHandler
	Incidents     *handler.IncidentHandler
	Certificates  *handler.CertificateHandler
	Dashboard     *handler.DashboardHandler
	Documents     *handler.DocumentHandler
	Notifications *handler.NotificationHandler
	Audit         *handler.AuditHandler
	Portal        *handler.PortalHandler
	Metrics       *handler.MetricsHandler
}

// Options carries the shared infrastructure the routes depend on.
type Options struct {
	Config     *config.Config
	Logger     *zap.Logger
	Tokens     middleware.TokenValidator
	AuditTrail middleware.AuditWriter
	Metrics    *service.MetricsService
}

// New builds the gin engine with every route of the API.
func New(opts Options, h Handlers) *gin.Engine {
	cfg := opts.Config
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r := gin.New()
	r.MaxMultipartMemory = maxMultipartMemory
	if err := r.SetTrustedProxies(nil); err != nil {
		log.Warn("failed to reset trusted proxies", zap.Error(err))
	}
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(log))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(opts.Metrics, "/metrics"))
	r.Use(middleware.WithResponseMeta())

	r.NoRoute(func(c *gin.Context) {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "route not found"))
	})

	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}
	if cfg.Storage.Driver == config.StorageDriverLocal {
		if prefix := localFilesPrefix(cfg.Storage.PublicBaseURL); prefix != "" {
			r.Static(prefix, cfg.Storage.LocalDir)
		}
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/login", h.Auth.Login)
	auth.POST("/refresh", h.Auth.Refresh)
	auth.POST("/logout", middleware.OptionalJWT(opts.Tokens), h.Auth.Logout)
	auth.GET("/me", middleware.JWT(opts.Tokens), h.Auth.Me)

	// Signed download links are checked by the document service, not by JWT.
	api.GET("/documents/:id/download", h.Documents.Download)

	mountPortal(api.Group("/portal"), h.Portal)

	secured := api.Group("")
	secured.Use(middleware.JWT(opts.Tokens))
	read := middleware.RequireRoles(middleware.ReadRoles...)
	write := middleware.RequireRoles(middleware.WriteRoles...)
	del := middleware.RequireRoles(middleware.DeleteRoles...)

	employees := secured.Group("/employees")
	employees.GET("", read, h.Employees.List)
	employees.GET("/:id", read, h.Employees.Get)
	employees.POST("", write, h.Employees.Create)
	employees.PUT("/:id", write, h.Employees.Update)
	employees.DELETE("/:id", del, h.Employees.Delete)
	employees.PUT("/:id/driver", write, h.Employees.UpsertDriver)
	employees.PUT("/:id/assistant", write, h.Employees.UpsertAssistant)
	employees.POST("/:id/assistant/qr-token", write, h.Employees.RotateAssistantQRToken)

	vehicles := secured.Group("/vehicles")
	vehicles.GET("", read, h.Vehicles.List)
	vehicles.GET("/:id", read, h.Vehicles.Get)
	vehicles.POST("", write, h.Vehicles.Create)
	vehicles.PUT("/:id", write, h.Vehicles.Update)
	vehicles.DELETE("/:id", del, h.Vehicles.Delete)
	vehicles.POST("/:id/qr-token", write, h.Vehicles.RotateQRToken)
	vehicles.POST("/:id/breakdown", write, h.Vehicles.ReportBreakdown)
	vehicles.GET("/:id/updates", read, h.Vehicles.ListUpdates)
	vehicles.POST("/:id/updates", write, h.Vehicles.AddNote)

	schools := secured.Group("/schools")
	schools.Use(middleware.Audit(opts.AuditTrail, "school", log))
	schools.GET("", read, h.Schools.List)
	schools.GET("/:id", read, h.Schools.Get)
	schools.POST("", write, h.Schools.Create)
	schools.PUT("/:id", write, h.Schools.Update)
	schools.DELETE("/:id", del, h.Schools.Delete)

	routes := secured.Group("/routes")
	routes.GET("", read, h.Routes.List)
	routes.GET("/form-options", read, h.Routes.FormOptions)
	routes.POST("/plan", read, h.Routes.Plan)
	routes.GET("/:id", read, h.Routes.Get)
	routes.GET("/:id/geometry", read, h.Routes.Geometry)
	routes.POST("", write, h.Routes.Create)
	routes.PUT("/:id", write, h.Routes.Update)
	routes.DELETE("/:id", del, h.Routes.Delete)

	passengers := secured.Group("/passengers")
	passengers.GET("", read, h.Passengers.List)
	passengers.GET("/:id", read, h.Passengers.Get)
	passengers.POST("", write, h.Passengers.Create)
	passengers.PUT("/:id", write, h.Passengers.Update)
	passengers.DELETE("/:id", del, h.Passengers.Delete)

	calls := secured.Group("/call-logs")
	calls.Use(middleware.Audit(opts.AuditTrail, "call_log", log))
	calls.GET("", read, h.CallLogs.List)
	calls.GET("/:id", read, h.CallLogs.Get)
	calls.POST("", write, h.CallLogs.Create)
	calls.PUT("/:id", write, h.CallLogs.Update)
	calls.DELETE("/:id", del, h.CallLogs.Delete)

	incidents := secured.Group("/incidents")
	incidents.GET("", read, h.Incidents.List)
	incidents.GET("/:id", read, h.Incidents.Get)
	incidents.POST("", write, h.Incidents.Create)
	incidents.PUT("/:id", write, h.Incidents.Update)
	incidents.DELETE("/:id", del, h.Incidents.Delete)

	certificates := secured.Group("/certificates", read)
	certificates.GET("/expiring", h.Certificates.Expiring)
	certificates.GET("/summary", h.Certificates.Summary)
	certificates.GET("/counts", h.Certificates.Counts)
	certificates.GET("/export", h.Certificates.Export)

	if cfg.Dashboard.Enabled {
		secured.GET("/dashboard", read, h.Dashboard.Overview)
	}

	documents := secured.Group("/documents")
	documents.GET("", read, h.Documents.List)
	documents.GET("/:id", read, h.Documents.Get)
	documents.DELETE("/:id", del, h.Documents.Delete)
	secured.POST("/uploads/:target/:ownerId", write, h.Documents.Upload)

	requirements := secured.Group("/document-requirements")
	requirements.GET("", read, h.Documents.ListRequirements)
	requirements.GET("/:id", read, h.Documents.GetRequirement)
	requirements.POST("", write, h.Documents.CreateRequirement)
	requirements.PUT("/:id", write, h.Documents.UpdateRequirement)
	requirements.DELETE("/:id", del, h.Documents.DeleteRequirement)

	notifications := secured.Group("/notifications")
	notifications.GET("", read, h.Notifications.List)
	notifications.POST("/expiry-sweep", write, h.Notifications.Sweep)
	notifications.GET("/summaries", read, h.Notifications.ListSummaries)
	notifications.POST("/summaries", write, h.Notifications.CreateSummary)
	notifications.GET("/:id", read, h.Notifications.Get)
	notifications.POST("/:id/resolve", write, h.Notifications.Resolve)

	audit := secured.Group("/audit-logs")
	audit.GET("", write, h.Audit.List)
	audit.POST("", write, h.Audit.Create)

	secured.GET("/metrics/snapshot", write, h.Metrics.Snapshot)

	return r
}

func mountPortal(portal *gin.RouterGroup, h *handler.PortalHandler) {
	portal.GET("/assistants/:qrToken", h.Assistant)
	portal.POST("/assistants/:qrToken/documents", h.AssistantUpload)
	portal.GET("/vehicles/:qrToken", h.Vehicle)
	portal.POST("/vehicles/:qrToken/notes", h.VehicleNote)
	portal.POST("/vehicles/:qrToken/updates", h.VehicleUpdate)
	portal.POST("/vehicles/:qrToken/breakdown", h.VehicleBreakdown)
	portal.GET("/documents/:token", h.Document)
	portal.POST("/documents/:token", h.DocumentUpload)
}

// localFilesPrefix returns the path component of the public base URL the
// local store writes into file_url, e.g. "/files".
func localFilesPrefix(publicBaseURL string) string {
	u, err := url.Parse(publicBaseURL)
	if err != nil {
		return ""
	}
	path := strings.TrimRight(u.Path, "/")
	if path == "" {
		return ""
	}
	return path
}

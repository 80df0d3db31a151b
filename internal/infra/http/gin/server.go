package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"villabook/internal/infra/config"
	"villabook/internal/infra/obs"
)

type CalendarHTTP interface {
	Get(c *gin.Context)
	BulkUpdate(c *gin.Context)
}

type BookingHTTP interface {
	Create(c *gin.Context)
	List(c *gin.Context)
	Get(c *gin.Context)
	UpdateStatus(c *gin.Context)
}

type HouseHTTP interface {
	List(c *gin.Context)
	Get(c *gin.Context)
	Create(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
	UploadImage(c *gin.Context)
}

type AuthHTTP interface {
	LineLogin(c *gin.Context)
	AdminLogin(c *gin.Context)
	AdminLogout(c *gin.Context)
	Me(c *gin.Context)
}

type Handlers struct {
	Calendar CalendarHTTP
	Booking  BookingHTTP
	House    HouseHTTP
	Auth     AuthHTTP

	// AuthMiddleware resolves bearer tokens into a request principal;
	// AdminRequired rejects requests without an admin principal.
	AuthMiddleware gin.HandlerFunc
	AdminRequired  gin.HandlerFunc
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"X-Request-ID",
		},
		MaxAge: 12 * time.Hour,
	}))
	if h.AuthMiddleware != nil {
		router.Use(h.AuthMiddleware)
	}

	registerSwaggerRoutes(router)

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	admin := h.AdminRequired
	if admin == nil {
		admin = func(c *gin.Context) { c.Next() }
	}

	api := router.Group("/api/v1")
	if h.Auth != nil {
		api.POST("/auth/line", h.Auth.LineLogin)
		api.POST("/auth/admin/login", h.Auth.AdminLogin)
		api.POST("/auth/admin/logout", admin, h.Auth.AdminLogout)
		api.GET("/auth/me", h.Auth.Me)
	}
	if h.Calendar != nil {
		api.GET("/calendar", h.Calendar.Get)
		api.POST("/calendar", admin, h.Calendar.BulkUpdate)
	}
	if h.Booking != nil {
		api.POST("/bookings", h.Booking.Create)
		api.GET("/bookings", admin, h.Booking.List)
		api.GET("/bookings/:id", h.Booking.Get)
		api.PATCH("/bookings/:id", admin, h.Booking.UpdateStatus)
	}
	if h.House != nil {
		api.GET("/houses", h.House.List)
		api.GET("/houses/:id", h.House.Get)
		api.POST("/houses", admin, h.House.Create)
		api.PUT("/houses/:id", admin, h.House.Update)
		api.DELETE("/houses/:id", admin, h.House.Delete)
		api.POST("/houses/:id/images", admin, h.House.UploadImage)
	}

	return &http.Server{Addr: cfg.HTTPAddr, Handler: router}
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}

package router

import (
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"

	"user-table/api"
	"user-table/internal/adapter/gin/handler"
	"user-table/internal/adapter/gin/middleware"
	"user-table/internal/observability"
)

// Common holds what both servers share.
type Common struct {
	ServiceName string
	Production  bool
	Redis       *redis.Client // nil disables rate limiting
	RateLimit   middleware.RateLimiterConfig
	Metrics     *observability.Metrics
	Log         *zap.Logger
}

func newEngine(cfg Common) *gin.Engine {
	if cfg.Production {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.Recovery(cfg.Log))
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(cfg.Log))
	router.Use(cfg.Metrics.Middleware())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": cfg.ServiceName,
		})
	})
	router.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))

	return router
}

// SetupAPIRouter builds the users backend: the dummyjson-compatible users resource
// and its Swagger UI.
func SetupAPIRouter(users *handler.UserHandler, cfg Common) *gin.Engine {
	router := newEngine(cfg)

	router.GET("/openapi.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", api.SwaggerJSON)
	})
	router.GET("/swagger/*any", gin.WrapH(httpSwagger.Handler(httpSwagger.URL("/openapi.json"))))

	g := router.Group("/users")
	g.Use(middleware.RateLimiter(cfg.Redis, cfg.RateLimit, cfg.Log))
	{
		g.GET("", users.ListUsers)
		g.GET("/search", users.SearchUsers)
		g.POST("/add", users.CreateUser)
		g.GET("/:id", users.GetUser)
		g.PUT("/:id", users.UpdateUser)
		g.PATCH("/:id", users.UpdateUser)
		g.DELETE("/:id", users.DeleteUser)
	}

	return router
}

// SetupWebRouter builds the browser view of the user table.
func SetupWebRouter(table *handler.TableHandler, tmpl *template.Template, session middleware.SessionConfig, cfg Common) *gin.Engine {
	router := newEngine(cfg)
	router.SetHTMLTemplate(tmpl)

	view := router.Group("/")
	view.Use(middleware.SecureHeaders(cfg.Production))
	view.Use(middleware.RateLimiter(cfg.Redis, cfg.RateLimit, cfg.Log))
	view.Use(middleware.Session(session))
	{
		view.GET("/", table.Page)
		view.GET("/state", table.State)
		view.PATCH("/form", table.SetField)
		view.POST("/users", table.Submit)
		view.POST("/users/:id/edit", table.Edit)
		view.POST("/users/:id/delete", table.Delete)
		view.POST("/close", table.Close)
	}

	return router
}

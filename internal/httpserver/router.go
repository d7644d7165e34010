package httpserver

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"smarttaskflow/internal/handler"
)

// Pinger 就绪检查依赖，*pgxpool.Pool 满足
type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Plan     *handler.PlanHandler
	Auth     *handler.AuthHandler
	Tasks    *handler.TaskHandler
	Sessions SessionLoader
	DB       Pinger
	Logger   *zap.Logger
}

func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(CORSMiddleware())
	r.Use(TraceMiddleware())
	r.Use(RequestLogMiddleware(d.Logger))

	// Health endpoints (放在最前面)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.HEAD("/healthz", func(c *gin.Context) {
		c.Status(200)
	})
	r.GET("/readyz", func(c *gin.Context) {
		if d.DB == nil {
			c.JSON(200, gin.H{"status": "ready"})
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), 1*time.Second)
		defer cancel()

		if err := d.DB.Ping(ctx); err != nil {
			c.JSON(500, gin.H{"status": "db_not_ready", "error": err.Error()})
			return
		}
		c.JSON(200, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.GET("/ping", d.Plan.Ping)
	api.POST("/generate-plan", d.Plan.GeneratePlan)

	if d.Auth != nil {
		api.POST("/auth/signup", d.Auth.SignUp)
		api.POST("/auth/signin", d.Auth.SignIn)
		api.POST("/auth/signout", d.Auth.SignOut)
		api.GET("/auth/session", d.Auth.Session)
	}

	// Protected
	if d.Tasks != nil && d.Sessions != nil {
		authed := api.Group("")
		authed.Use(AuthMiddleware(d.Sessions, d.Logger))
		{
			authed.GET("/tasks", d.Tasks.ListTasks)
			authed.POST("/tasks", d.Tasks.CreateTask)
			authed.GET("/tasks/:id", d.Tasks.GetTask)
			authed.PATCH("/tasks/:id", d.Tasks.UpdateTask)
			authed.DELETE("/tasks/:id", d.Tasks.DeleteTask)
			authed.POST("/tasks/:id/toggle", d.Tasks.ToggleTask)
			authed.GET("/tasks/:id/score", d.Tasks.ScoreTask)
			authed.GET("/dashboard", d.Tasks.Dashboard)
		}
	}

	return r
}

package app

import (
	"excel_interviewer_backend/docs"
	"excel_interviewer_backend/internal/config"
	"excel_interviewer_backend/internal/middleware"
	"excel_interviewer_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api/v1"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	api := router.Group("/api/v1")
	{
		api.GET("/health", c.health.HealthCheck)

		// Candidate-facing interview flow.
		interview := api.Group("/interviews")
		{
			interview.POST("/start", c.interview.Start)
			interview.GET("/:sessionId/next-question", c.interview.NextQuestion)
			interview.POST("/answer", c.interview.SubmitAnswer)
			interview.POST("/:sessionId/end", c.interview.End)
			interview.GET("/:sessionId/status", c.interview.Status)
			interview.GET("/:sessionId/report", c.report.GetReport)
		}

		api.POST("/admin/login", c.admin.Login)

		admin := api.Group("/admin")
		admin.Use(middleware.AuthMiddleware(cfg))
		{
			admin.GET("/interviews", c.admin.ListInterviews)
			admin.GET("/interviews/:sessionId/responses", c.admin.GetResponses)
			admin.POST("/interviews/:sessionId/export", c.admin.ExportTranscript)
			admin.DELETE("/interviews/:sessionId", c.admin.DeleteInterview)
		}
	}
}

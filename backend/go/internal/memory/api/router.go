package api

import (
	"MedMemory/backend/go/pkg/logger"
	"MedMemory/backend/go/pkg/ratelimiter"

	"github.com/gin-gonic/gin"
)

// SetupRouter 配置和返回一个 Gin 引擎实例。limiter 为 nil 时不限流。
func SetupRouter(h *Handler, limiter ratelimiter.RateLimiter, log *logger.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(log))

	r.GET("/healthz", h.Healthz)

	apiV1 := r.Group("/api/v1")
	if limiter != nil {
		apiV1.Use(RateLimit(limiter))
	}
	{
		apiV1.POST("/statements", h.IngestStatement)
		apiV1.POST("/statements/assess", h.AssessStatement)

		apiV1.POST("/time/parse", h.ParseTime)
		apiV1.POST("/time/window", h.UpdateWindow)

		apiV1.POST("/medications/decide", h.DecideMedication)
		apiV1.POST("/medications/confidence", h.MedicationConfidence)
		apiV1.POST("/symptoms/decide", h.DecideSymptom)
		apiV1.POST("/symptoms/confidence", h.SymptomConfidence)

		subjects := apiV1.Group("/subjects/:subject")
		{
			subjects.GET("/medications", h.ListMedications)
			subjects.GET("/symptoms", h.ListSymptoms)
			subjects.GET("/decisions", h.ListDecisions)
			subjects.GET("/rejected", h.ListRejected)
			subjects.GET("/graph", h.SubjectGraph)
		}

		apiV1.GET("/lineages/:lineage/versions", h.LineageVersions)
	}

	return r
}

package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// NewRouter wires the handlers of ctrl. Requests under /orchestrator must
// carry the bearer token when token is not empty.
func NewRouter(ctrl *Controller, token string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(ctrl.Log))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	orch := r.Group("/orchestrator", requireToken(token))
	{
		orch.POST("/orchestration", ctrl.PullOrchestration)

		subs := orch.Group("/subscriptions")
		{
			subs.POST("", ctrl.Subscribe)
			subs.DELETE("", ctrl.Unsubscribe)
			subs.POST("/query", ctrl.QuerySubscriptions)
			subs.GET("/:id", ctrl.GetSubscription)
		}

		orch.POST("/push/trigger", ctrl.TriggerPush)

		locks := orch.Group("/locks")
		{
			locks.POST("", ctrl.CreateLocks)
			locks.POST("/query", ctrl.QueryLocks)
			locks.DELETE("", ctrl.RemoveLocks)
		}

		jobs := orch.Group("/jobs")
		{
			jobs.POST("/query", ctrl.QueryJobs)
			jobs.DELETE("", ctrl.DeleteJobs)
		}
	}
	return r
}

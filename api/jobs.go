package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kilianp07/orchestrator/core/model"
)

// QueryJobs handles POST /orchestrator/jobs/query.
func (ctrl *Controller) QueryJobs(c *gin.Context) {
	const origin = "POST /orchestrator/jobs/query"
	var f model.JobFilter
	if err := c.ShouldBindJSON(&f); err != nil {
		ctrl.badRequest(c, origin, "Invalid request payload: "+err.Error())
		return
	}
	page, err := ctrl.Jobs.Query(c.Request.Context(), f)
	if err != nil {
		ctrl.fail(c, origin, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// DeleteJobs removes the jobs listed in the id query parameters.
func (ctrl *Controller) DeleteJobs(c *gin.Context) {
	const origin = "DELETE /orchestrator/jobs"
	raw := c.QueryArray("id")
	ids := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			ctrl.badRequest(c, origin, "Invalid job id: "+s)
			return
		}
		ids = append(ids, id)
	}
	if err := ctrl.Jobs.DeleteInBatch(c.Request.Context(), ids); err != nil {
		ctrl.fail(c, origin, err)
		return
	}
	c.Status(http.StatusNoContent)
}

package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kilianp07/orchestrator/core/model"
)

// PullOrchestration runs a synchronous orchestration for the posted form.
func (ctrl *Controller) PullOrchestration(c *gin.Context) {
	const origin = "POST /orchestrator/orchestration"
	var form model.OrchestrationForm
	if err := c.ShouldBindJSON(&form); err != nil {
		ctrl.badRequest(c, origin, "Invalid request payload: "+err.Error())
		return
	}
	resp, err := ctrl.Pull.Pull(c.Request.Context(), form)
	if err != nil {
		ctrl.fail(c, origin, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// TriggerPush queues push jobs for the requester's active subscriptions
// and answers 202 with their ids.
func (ctrl *Controller) TriggerPush(c *gin.Context) {
	const origin = "POST /orchestrator/push/trigger"
	var req model.TriggerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ctrl.badRequest(c, origin, "Invalid request payload: "+err.Error())
		return
	}
	ids, err := ctrl.Trigger.Trigger(c.Request.Context(), req)
	if err != nil {
		ctrl.fail(c, origin, err)
		return
	}
	c.JSON(http.StatusAccepted, TriggerResponse{JobIDs: ids})
}

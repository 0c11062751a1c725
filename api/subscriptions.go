package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kilianp07/orchestrator/core/model"
)

// Subscribe stores the posted subscriptions, replacing existing ones with
// the same owner, target and service.
func (ctrl *Controller) Subscribe(c *gin.Context) {
	const origin = "POST /orchestrator/subscriptions"
	var req SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ctrl.badRequest(c, origin, "Invalid request payload: "+err.Error())
		return
	}
	subs, err := ctrl.Subscriptions.Create(c.Request.Context(), req.Requester, req.Subscriptions)
	if err != nil {
		ctrl.fail(c, origin, err)
		return
	}
	c.JSON(http.StatusCreated, SubscribeResponse{Subscriptions: subs})
}

// Unsubscribe removes the subscription named by the owner, target and
// service query parameters.
func (ctrl *Controller) Unsubscribe(c *gin.Context) {
	const origin = "DELETE /orchestrator/subscriptions"
	owner := c.Query("owner")
	target := c.DefaultQuery("target", owner)
	removed, err := ctrl.Subscriptions.Unsubscribe(c.Request.Context(), owner, target, c.Query("service"))
	if err != nil {
		ctrl.fail(c, origin, err)
		return
	}
	c.JSON(http.StatusOK, UnsubscribeResponse{Removed: removed})
}

// GetSubscription returns one subscription or 404.
func (ctrl *Controller) GetSubscription(c *gin.Context) {
	const origin = "GET /orchestrator/subscriptions/:id"
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		ctrl.badRequest(c, origin, "Invalid subscription id: "+c.Param("id"))
		return
	}
	sub, err := ctrl.Subscriptions.Get(c.Request.Context(), id)
	if err != nil {
		ctrl.fail(c, origin, err)
		return
	}
	if sub == nil {
		ctrl.notFound(c, origin, "Subscription not found: "+id.String())
		return
	}
	c.JSON(http.StatusOK, sub)
}

// QuerySubscriptions handles POST /orchestrator/subscriptions/query.
func (ctrl *Controller) QuerySubscriptions(c *gin.Context) {
	const origin = "POST /orchestrator/subscriptions/query"
	var f model.SubscriptionFilter
	if err := c.ShouldBindJSON(&f); err != nil {
		ctrl.badRequest(c, origin, "Invalid request payload: "+err.Error())
		return
	}
	page, err := ctrl.Subscriptions.Query(c.Request.Context(), f)
	if err != nil {
		ctrl.fail(c, origin, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

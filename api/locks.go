package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kilianp07/orchestrator/core/model"
)

// CreateLocks handles POST /orchestrator/locks.
func (ctrl *Controller) CreateLocks(c *gin.Context) {
	const origin = "POST /orchestrator/locks"
	var req LockCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ctrl.badRequest(c, origin, "Invalid request payload: "+err.Error())
		return
	}
	locks, err := ctrl.Locks.Create(c.Request.Context(), req.Locks)
	if err != nil {
		ctrl.fail(c, origin, err)
		return
	}
	c.JSON(http.StatusCreated, LockCreateResponse{Locks: locks})
}

// QueryLocks handles POST /orchestrator/locks/query.
func (ctrl *Controller) QueryLocks(c *gin.Context) {
	const origin = "POST /orchestrator/locks/query"
	var f model.LockFilter
	if err := c.ShouldBindJSON(&f); err != nil {
		ctrl.badRequest(c, origin, "Invalid request payload: "+err.Error())
		return
	}
	page, err := ctrl.Locks.Query(c.Request.Context(), f)
	if err != nil {
		ctrl.fail(c, origin, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// RemoveLocks deletes the owner's locks listed in the id query parameters.
// Unknown ids are ignored.
func (ctrl *Controller) RemoveLocks(c *gin.Context) {
	const origin = "DELETE /orchestrator/locks"
	raw := c.QueryArray("id")
	ids := make([]int64, 0, len(raw))
	for _, s := range raw {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			ctrl.badRequest(c, origin, "Invalid lock id: "+s)
			return
		}
		ids = append(ids, id)
	}
	if err := ctrl.Locks.Remove(c.Request.Context(), c.Query("owner"), ids); err != nil {
		ctrl.fail(c, origin, err)
		return
	}
	c.Status(http.StatusNoContent)
}

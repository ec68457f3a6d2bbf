// Package handlers implements the gin HTTP handlers for the dealflow API.
// Every response uses the common.APIResponse envelope; failures map through
// the error-code table in pkg/errors.
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/vperelman/dealflow/pkg/errors"
	"github.com/vperelman/dealflow/pkg/types/common"
)

// UserIDHeader names the header the frontend sends the acting seller in.
// Authentication proper sits in front of this service.
const UserIDHeader = "X-User-ID"

func ownerID(c *gin.Context) common.UserID {
	return common.UserID(c.GetHeader(UserIDHeader))
}

func respond(c *gin.Context, status int, data interface{}) {
	c.JSON(status, common.NewSuccessResponse(data))
}

func respondError(c *gin.Context, err error) {
	appErr := errors.AsAppError(err)
	c.JSON(errors.HTTPStatusForCode(appErr.Code),
		common.NewErrorResponse(string(appErr.Code), appErr.Message, appErr.Detail))
}

func parsePagination(c *gin.Context) *common.Pagination {
	pageStr := c.Query("page")
	sizeStr := c.Query("page_size")
	if pageStr == "" && sizeStr == "" {
		return nil
	}

	p := &common.Pagination{Page: 1, PageSize: 20}
	if v, err := strconv.Atoi(pageStr); err == nil && v > 0 {
		p.Page = v
	}
	if v, err := strconv.Atoi(sizeStr); err == nil && v > 0 && v <= 500 {
		p.PageSize = v
	}
	return p
}

func pathID(c *gin.Context, name string) (common.ID, bool) {
	id := common.ID(c.Param(name))
	if err := id.Validate(); err != nil {
		respondError(c, errors.Validation("invalid "+name).WithCause(err))
		return "", false
	}
	return id, true
}

// bindJSON decodes the body and converts decode failures into validation
// errors instead of gin's default plain 400.
func bindJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		respondError(c, errors.Validation("invalid request body").WithCause(err))
		return false
	}
	return true
}

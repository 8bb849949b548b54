package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mo0hamed-shoaib/naafe-backend/internal/dto"
	"github.com/mo0hamed-shoaib/naafe-backend/internal/http/handlers/common"
	"github.com/mo0hamed-shoaib/naafe-backend/internal/service"
	"github.com/mo0hamed-shoaib/naafe-backend/internal/validation"
)

// JobRequestHandler is the HTTP layer for seekers' job requests.
type JobRequestHandler struct {
	requests *service.JobRequestService
}

// NewJobRequestHandler creates the handler.
func NewJobRequestHandler(requests *service.JobRequestService) *JobRequestHandler {
	return &JobRequestHandler{requests: requests}
}

// CreateJobRequest handles POST /job-requests.
func (h *JobRequestHandler) CreateJobRequest(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	var req dto.CreateJobRequestRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	if err := validation.ValidateLength("title", req.Title, validation.MinTitleLength, validation.MaxTitleLength); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}
	if err := validation.ValidateLength("description", req.Description, validation.MinDescriptionLength, validation.MaxDescriptionLength); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	request, err := h.requests.CreateJobRequest(c.Request.Context(), service.CreateJobRequestInput{
		SeekerID:    userID,
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusCreated, request)
}

// GetJobRequest handles GET /job-requests/:id.
func (h *JobRequestHandler) GetJobRequest(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	request, err := h.requests.GetJobRequest(c.Request.Context(), id)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, request)
}

// ListMyJobRequests handles GET /job-requests/my.
func (h *JobRequestHandler) ListMyJobRequests(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	requests, err := h.requests.ListMyJobRequests(c.Request.Context(), userID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, requests)
}

package controller

import (
	"encoding/json"
	"strconv"

	"excel_interviewer_backend/internal/service"
	"excel_interviewer_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AdminController struct {
	Admin     *service.AdminService
	Interview *service.InterviewService
	Report    *service.ReportService
	Storage   *service.StorageService
}

func NewAdminController(admin *service.AdminService, interview *service.InterviewService, report *service.ReportService, storage *service.StorageService) *AdminController {
	return &AdminController{
		Admin:     admin,
		Interview: interview,
		Report:    report,
		Storage:   storage,
	}
}

type AdminLoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// @Summary Admin login
// @Tags Admin
// @Accept json
// @Produce json
// @Param body body AdminLoginRequest true "Credentials"
// @Success 200 {object} util.Response
// @Router /admin/login [post]
func (c *AdminController) Login(ctx *gin.Context) {
	var req AdminLoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	token, err := c.Admin.Login(req.Username, req.Password)
	if err != nil {
		util.DomainError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"token": token})
}

// @Summary List interviews
// @Tags Admin
// @Produce json
// @Security ApiKeyAuth
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} util.Response
// @Router /admin/interviews [get]
func (c *AdminController) ListInterviews(ctx *gin.Context) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	interviews, total, err := c.Interview.List(page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, util.PageResponse{
		List:  interviews,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}

// @Summary Get the full transcript of a session
// @Tags Admin
// @Produce json
// @Security ApiKeyAuth
// @Param sessionId path string true "Session ID"
// @Success 200 {object} util.Response
// @Router /admin/interviews/{sessionId}/responses [get]
func (c *AdminController) GetResponses(ctx *gin.Context) {
	transcript, err := c.Interview.GetTranscript(ctx.Param("sessionId"))
	if err != nil {
		util.DomainError(ctx, err)
		return
	}

	util.Success(ctx, transcript)
}

// @Summary Export a transcript to the storage backend
// @Tags Admin
// @Produce json
// @Security ApiKeyAuth
// @Param sessionId path string true "Session ID"
// @Success 200 {object} util.Response
// @Router /admin/interviews/{sessionId}/export [post]
func (c *AdminController) ExportTranscript(ctx *gin.Context) {
	sessionID := ctx.Param("sessionId")

	transcript, err := c.Interview.GetTranscript(sessionID)
	if err != nil {
		util.DomainError(ctx, err)
		return
	}

	payload, err := json.MarshalIndent(transcript, "", "  ")
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	url, err := c.Storage.ExportTranscript(ctx.Request.Context(), sessionID, payload)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"url": url})
}

// @Summary Delete an interview and all associated data
// @Tags Admin
// @Produce json
// @Security ApiKeyAuth
// @Param sessionId path string true "Session ID"
// @Success 200 {object} util.Response
// @Router /admin/interviews/{sessionId} [delete]
func (c *AdminController) DeleteInterview(ctx *gin.Context) {
	sessionID := ctx.Param("sessionId")

	if err := c.Interview.Delete(sessionID); err != nil {
		util.DomainError(ctx, err)
		return
	}

	c.Report.InvalidateCache(ctx.Request.Context(), sessionID)
	util.Success(ctx, gin.H{"message": "Interview deleted successfully"})
}

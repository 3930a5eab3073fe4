package controller

import (
	"excel_interviewer_backend/internal/service"
	"excel_interviewer_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type InterviewController struct {
	Service *service.InterviewService
}

func NewInterviewController(svc *service.InterviewService) *InterviewController {
	return &InterviewController{Service: svc}
}

type StartInterviewRequest struct {
	CandidateName string `json:"candidateName" binding:"required"`
}

// @Summary Start a new interview session
// @Tags Interview
// @Accept json
// @Produce json
// @Param body body StartInterviewRequest true "Candidate info"
// @Success 201 {object} util.Response
// @Router /interviews/start [post]
func (c *InterviewController) Start(ctx *gin.Context) {
	var req StartInterviewRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.Service.Start(req.CandidateName)
	if err != nil {
		util.DomainError(ctx, err)
		return
	}

	util.Created(ctx, result)
}

// @Summary Get the next question for a session
// @Description Returns the next question, the outstanding question if one is
// @Description still unanswered, or a terminal status once the interview is over.
// @Tags Interview
// @Produce json
// @Param sessionId path string true "Session ID"
// @Success 200 {object} util.Response
// @Router /interviews/{sessionId}/next-question [get]
func (c *InterviewController) NextQuestion(ctx *gin.Context) {
	result, err := c.Service.NextQuestion(ctx.Param("sessionId"))
	if err != nil {
		util.DomainError(ctx, err)
		return
	}

	util.Success(ctx, result)
}

type SubmitAnswerRequest struct {
	SessionID  string `json:"sessionId" binding:"required"`
	QuestionID string `json:"questionId" binding:"required"`
	Response   string `json:"response" binding:"required"`
}

// @Summary Submit an answer to the outstanding question
// @Tags Interview
// @Accept json
// @Produce json
// @Param body body SubmitAnswerRequest true "Answer"
// @Success 200 {object} util.Response
// @Router /interviews/answer [post]
func (c *InterviewController) SubmitAnswer(ctx *gin.Context) {
	var req SubmitAnswerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.Service.SubmitAnswer(ctx.Request.Context(), req.SessionID, req.QuestionID, req.Response)
	if err != nil {
		util.DomainError(ctx, err)
		return
	}

	util.Success(ctx, result)
}

// @Summary End the interview early
// @Tags Interview
// @Produce json
// @Param sessionId path string true "Session ID"
// @Success 200 {object} util.Response
// @Router /interviews/{sessionId}/end [post]
func (c *InterviewController) End(ctx *gin.Context) {
	interview, err := c.Service.End(ctx.Param("sessionId"))
	if err != nil {
		util.DomainError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"sessionId": interview.SessionID,
		"status":    interview.Status,
		"message":   "Interview ended by candidate.",
	})
}

// @Summary Get the current session snapshot
// @Tags Interview
// @Produce json
// @Param sessionId path string true "Session ID"
// @Success 200 {object} util.Response
// @Router /interviews/{sessionId}/status [get]
func (c *InterviewController) Status(ctx *gin.Context) {
	snapshot, err := c.Service.Status(ctx.Param("sessionId"))
	if err != nil {
		util.DomainError(ctx, err)
		return
	}

	util.Success(ctx, snapshot)
}

package controller

import (
	"excel_interviewer_backend/internal/service"
	"excel_interviewer_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ReportController struct {
	Service *service.ReportService
}

func NewReportController(svc *service.ReportService) *ReportController {
	return &ReportController{Service: svc}
}

// @Summary Get the final interview report
// @Description Available once the interview is completed or ended early. If
// @Description narrative generation is unavailable the deterministic fields are
// @Description still populated and narrativeAvailable is false.
// @Tags Report
// @Produce json
// @Param sessionId path string true "Session ID"
// @Success 200 {object} util.Response
// @Failure 409 {object} util.Response "interview still in progress"
// @Router /interviews/{sessionId}/report [get]
func (c *ReportController) GetReport(ctx *gin.Context) {
	report, err := c.Service.GenerateReport(ctx.Request.Context(), ctx.Param("sessionId"))
	if err != nil {
		util.DomainError(ctx, err)
		return
	}

	util.Success(ctx, report)
}

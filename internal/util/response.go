package util

import (
	"errors"
	"net/http"

	"excel_interviewer_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Response is the unified JSON envelope.
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// PageResponse wraps paginated lists.
type PageResponse struct {
	List  interface{} `json:"list"`
	Total int64       `json:"total"`
	Page  int         `json:"page"`
	Limit int         `json:"limit"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    http.StatusOK,
		Message: "success",
		Data:    data,
	})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    http.StatusCreated,
		Message: "created",
		Data:    data,
	})
}

func Error(c *gin.Context, code int, message string) {
	c.JSON(code, Response{
		Code:    code,
		Message: message,
	})
}

func Unauthorized(c *gin.Context) {
	Error(c, http.StatusUnauthorized, "Unauthorized")
}

func Forbidden(c *gin.Context) {
	Error(c, http.StatusForbidden, "Forbidden")
}

func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

func NotFound(c *gin.Context) {
	Error(c, http.StatusNotFound, "Resource not found")
}

func InternalServerError(c *gin.Context) {
	Error(c, http.StatusInternalServerError, "Internal server error")
}

func LogInternalError(c *gin.Context, err error) {
	logger.Log.Error("Internal server error", zap.Error(err))
	InternalServerError(c)
}

// DomainError maps sentinel errors from internal/util/errors.go to HTTP
// statuses: not-found 404, invalid-state 409, validation 400. Anything
// unrecognized is logged and answered with 500.
func DomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInterviewNotFound), errors.Is(err, ErrQuestionNotFound):
		Error(c, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrInterviewFinished),
		errors.Is(err, ErrNoPendingQuestion),
		errors.Is(err, ErrQuestionMismatch),
		errors.Is(err, ErrReportNotReady):
		Error(c, http.StatusConflict, err.Error())
	case errors.Is(err, ErrEmptyAnswer), errors.Is(err, ErrEmptyCandidateName):
		BadRequest(c, err.Error())
	case errors.Is(err, ErrInvalidCredentials):
		Unauthorized(c)
	default:
		LogInternalError(c, err)
	}
}

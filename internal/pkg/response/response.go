package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	CodeSuccess              = 0
	CodeParamError           = 1000
	CodeAuthFailed           = 1001
	CodePermissionDenied     = 1002
	CodeResourceNotFound     = 1003
	CodeSubscriptionRequired = 1004
	CodeDuplicateAction      = 1005
	CodeServerError          = 5000
	CodeGatewayError         = 5001
)

var codeMessages = map[int]string{
	CodeSuccess:              "success",
	CodeParamError:           "invalid parameters",
	CodeAuthFailed:           "authentication failed",
	CodePermissionDenied:     "permission denied",
	CodeResourceNotFound:     "resource not found",
	CodeSubscriptionRequired: "an active subscription is required",
	CodeDuplicateAction:      "duplicate action",
	CodeServerError:          "internal server error",
	CodeGatewayError:         "payment provider unavailable",
}

// Response is the envelope every JSON endpoint returns.
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

type PageData struct {
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
	Items    interface{} `json:"items"`
}

func Success(c *gin.Context, data interface{}) {
	SuccessWithMessage(c, "success", data)
}

func SuccessWithMessage(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    CodeSuccess,
		Message: message,
		Data:    data,
	})
}

func SuccessPage(c *gin.Context, total int64, page, pageSize int, items interface{}) {
	Success(c, PageData{
		Total:    total,
		Page:     page,
		PageSize: pageSize,
		Items:    items,
	})
}

// Error writes code with message, falling back to the code's default message.
func Error(c *gin.Context, code int, message string) {
	if message == "" {
		message = codeMessages[code]
	}
	c.JSON(http.StatusOK, Response{
		Code:    code,
		Message: message,
		Data:    nil,
	})
}

func ParamError(c *gin.Context, message string) {
	Error(c, CodeParamError, message)
}

func AuthError(c *gin.Context, message string) {
	Error(c, CodeAuthFailed, message)
}

func PermissionError(c *gin.Context, message string) {
	Error(c, CodePermissionDenied, message)
}

func NotFoundError(c *gin.Context, message string) {
	Error(c, CodeResourceNotFound, message)
}

func SubscriptionError(c *gin.Context, message string) {
	Error(c, CodeSubscriptionRequired, message)
}

func DuplicateError(c *gin.Context, message string) {
	Error(c, CodeDuplicateAction, message)
}

func ServerError(c *gin.Context, message string) {
	Error(c, CodeServerError, message)
}

func GatewayError(c *gin.Context, message string) {
	Error(c, CodeGatewayError, message)
}

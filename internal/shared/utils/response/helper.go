package response

import (
	"errors"
	"strings"

	"fvivu/internal/shared/apperror"
	"fvivu/pkg/logger"

	"github.com/gin-gonic/gin"
)

func RespondJSON(c *gin.Context, status string, code int, message string, data interface{}, errors interface{}) {
	c.JSON(code, StandardApiResponse{
		Status:     status,
		StatusCode: code,
		Message:    message,
		Data:       data,
		Errors:     errors,
	})
}

// RespondError maps a domain error to its status code. Server-side errors
// get the fallback message so internals are not leaked to clients.
func RespondError(c *gin.Context, err error, fallback string) {
	code := apperror.StatusCode(err)
	message := fallback
	if code < 500 || errors.Is(err, apperror.ErrUpstreamPayment) {
		message = capitalize(err.Error())
	}
	if code >= 500 {
		logger.GetDefault().LogHTTPError(c, err, code)
	}
	RespondJSON(c, "error", code, message, nil, nil)
}

// RespondPaginated writes a success envelope with list metadata.
func RespondPaginated(c *gin.Context, code int, message string, items interface{}, meta Pagination) {
	RespondJSON(c, "success", code, message, PaginatedData{Items: items, Pagination: meta}, nil)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

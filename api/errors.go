package api

import (
	"net/http"

	"churnsight/internal/errors"

	"github.com/gin-gonic/gin"
)

// respondError maps application error codes onto HTTP statuses. Client
// errors carry the actionable message (what was missing or mismatched);
// server errors carry the code and a short cause string, never a stack.
func respondError(c *gin.Context, err error) {
	code := errors.GetCode(err)

	switch code {
	case errors.CodeMissingFeature,
		errors.CodeSchemaMismatch,
		errors.CodeInvalidInput,
		errors.CodeValidationError:
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
			"code":  code,
		})
	default:
		cause := "internal error"
		if appErr, ok := err.(*errors.AppError); ok {
			cause = appErr.Message
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "prediction service error",
			"code":  code,
			"cause": cause,
		})
	}
}

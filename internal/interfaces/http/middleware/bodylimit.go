package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/merch/byom/internal/interfaces/http/dto"
)

// BodyLimit caps request bodies at maxBytes. A declared Content-Length over
// the cap is refused up front; streamed bodies (multipart graphic uploads)
// fail on read once they cross it.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	message := fmt.Sprintf("Request body exceeds %d bytes", maxBytes)
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge,
				dto.NewErrorResponseWithRequestID(dto.ErrCodeFileTooLarge, message, GetRequestID(c)))
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}

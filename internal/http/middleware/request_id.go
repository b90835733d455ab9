package middleware

import (
	"strconv"

	"basegraph.app/recommender/common/id"
	"basegraph.app/recommender/common/logger"
	"github.com/gin-gonic/gin"
)

const RequestIDHeader = "X-Request-Id"

// RequestID tags each request with a snowflake id, reusing a valid inbound
// X-Request-Id, and echoes it in the response. The id is added to the
// request context's log fields.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID, ok := id.Parse(c.GetHeader(RequestIDHeader))
		if !ok {
			requestID = id.New()
		}

		c.Header(RequestIDHeader, strconv.FormatInt(requestID, 10))

		ctx := logger.WithLogFields(c.Request.Context(), logger.LogFields{
			RequestID: logger.Ptr(requestID),
		})
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

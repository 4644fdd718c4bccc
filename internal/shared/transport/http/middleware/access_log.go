package middleware

import (
	"net/http"

	"TrenchGame/internal/shared/transport"
	"TrenchGame/modules/kit/logx"

	"github.com/gin-gonic/gin"
)

// AccessLog writes one access line per request. 2xx maps to OK, any other
// status is logged as its own code.
func AccessLog(log logx.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		action := c.Request.Method + " " + route

		ctx := transport.NewContextWithParent(c.Request.Context(), action)
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		status := c.Writer.Status()
		switch {
		case status < http.StatusBadRequest:
			transport.SetBizCode(ctx, transport.OK)
		default:
			transport.SetBizCode(ctx, transport.BizCode(status))
			if len(c.Errors) > 0 {
				transport.SetErrorReason(ctx, c.Errors.Last().Error())
			}
		}
		transport.WriteAccessLog(ctx, log)
	}
}

// Cors allows browser clients served from another origin to read the HTTP API.
func Cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

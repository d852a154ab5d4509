package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// FunctionAllowedHeaders are the request headers browser clients send to
// function-style endpoints.
var FunctionAllowedHeaders = []string{"authorization", "x-client-info", "apikey", "content-type"}

// CORS allows any origin and answers preflight requests itself with an
// empty 200 body.
func CORS(allowedHeaders ...string) gin.HandlerFunc {
	if len(allowedHeaders) == 0 {
		allowedHeaders = FunctionAllowedHeaders
	}
	headers := strings.Join(allowedHeaders, ", ")

	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Headers", headers)
		if c.Request.Method == http.MethodOptions {
			c.Header("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	}
}

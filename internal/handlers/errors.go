package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// abortWithError hands err to ErrorHandlerMiddleware, which renders it.
func abortWithError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// queryInt reads an integer query parameter; missing or malformed values yield 0.
func queryInt(c *gin.Context, key string) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return 0
	}
	return n
}

package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Success writes a success JSON response.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"code": 0,
		"msg":  "ok",
		"data": data,
	})
}

// Fail writes an error JSON response with the given status.
func Fail(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{
		"code": -1,
		"msg":  msg,
	})
}

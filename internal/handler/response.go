package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response 统一响应
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// badRequest 400 错误响应
func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, Response{Code: -1, Message: msg})
}

// notFound 404 错误响应
func notFound(c *gin.Context, msg string) {
	c.JSON(http.StatusNotFound, Response{Code: -1, Message: msg})
}

// internalError 500 错误响应
func internalError(c *gin.Context, err error) {
	c.JSON(http.StatusInternalServerError, Response{Code: -1, Message: err.Error()})
}

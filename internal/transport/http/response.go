package http

import "github.com/gin-gonic/gin"

// JSONResponse is the envelope of every API response
type JSONResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func respond(c *gin.Context, status int, code int, message string, data interface{}) {
	c.JSON(status, JSONResponse{
		Code:    code,
		Message: message,
		Data:    data,
	})
}

func success(c *gin.Context, data interface{}) {
	respond(c, 200, 0, "success", data)
}

func fail(c *gin.Context, status int, code int, message string) {
	respond(c, status, code, message, nil)
}

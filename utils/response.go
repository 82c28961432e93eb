package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// JSONResponse defines the uniform structure for API responses.
// Errors carries per-field messages for validation failures.
type JSONResponse struct {
	Code    int                 `json:"code"`
	Message string              `json:"message"`
	Data    interface{}         `json:"data,omitempty"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

// Respond writes a JSON response with the given status code.
func Respond(ctx *gin.Context, status int, code int, message string, data interface{}) {
	ctx.JSON(status, JSONResponse{
		Code:    code,
		Message: message,
		Data:    data,
	})
}

// Success returns a standard success response.
func Success(ctx *gin.Context, data interface{}) {
	Respond(ctx, http.StatusOK, 0, "success", data)
}

// Created answers a successful insert.
func Created(ctx *gin.Context, data interface{}) {
	Respond(ctx, http.StatusCreated, 0, "created", data)
}

// Accepted answers a full replacement, which the users endpoint reports as 202.
func Accepted(ctx *gin.Context, data interface{}) {
	Respond(ctx, http.StatusAccepted, 0, "accepted", data)
}

// NoContent answers a successful delete.
func NoContent(ctx *gin.Context) {
	ctx.Status(http.StatusNoContent)
}

// Error returns a standard error response.
func Error(ctx *gin.Context, status int, code int, message string) {
	Respond(ctx, status, code, message, nil)
}

// FieldErrors returns a 400 carrying the field to messages map.
func FieldErrors(ctx *gin.Context, code int, message string, errs map[string][]string) {
	ctx.JSON(http.StatusBadRequest, JSONResponse{
		Code:    code,
		Message: message,
		Errors:  errs,
	})
}

// Package envelope renders the uniform JSON response body used by every API
// endpoint: {success, data, message, meta}.
package envelope

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/kindercare/kindercare/pkg/pagination"
)

type Response struct {
	Success bool             `json:"success"`
	Data    interface{}      `json:"data,omitempty"`
	Message string           `json:"message,omitempty"`
	Meta    *pagination.Meta `json:"meta,omitempty"`
}

// OK writes a 200 response carrying data.
func OK(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, Response{Success: true, Data: data})
}

// Created writes a 201 response carrying data.
func Created(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusCreated, Response{Success: true, Data: data})
}

// List writes a paginated 200 response. A nil slice is rendered as [] so
// clients never see a missing data field on an empty page.
func List[T any](c echo.Context, items []T, p pagination.Params, total int) error {
	if items == nil {
		items = []T{}
	}
	return c.JSON(http.StatusOK, Response{Success: true, Data: items, Meta: p.Meta(total)})
}

// Message writes a 200 response with only a message.
func Message(c echo.Context, msg string) error {
	return c.JSON(http.StatusOK, Response{Success: true, Message: msg})
}

// Fail writes an error response.
func Fail(c echo.Context, status int, msg string) error {
	return c.JSON(status, Response{Success: false, Message: msg})
}

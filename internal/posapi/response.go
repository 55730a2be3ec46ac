package posapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ApiError is one entry of the envelope's error list.
type ApiError struct {
	Message string   `json:"message"`
	Code    string   `json:"code"`
	Details string   `json:"details"`
	Path    []string `json:"path"`
}

// Envelope is the uniform response shape for every POS endpoint. A null data
// with null errors is a legitimate empty result, not a failure.
type Envelope struct {
	Data   interface{} `json:"data"`
	Errors []ApiError  `json:"errors"`
}

func ok(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, Envelope{Data: data})
}

// empty is the explicit "no such thing" signal: 200 with null data and null
// errors.
func empty(c echo.Context) error {
	return c.JSON(http.StatusOK, Envelope{})
}

func fail(c echo.Context, status int, code, message string, details interface{}) error {
	d := ""
	switch v := details.(type) {
	case string:
		d = v
	case error:
		d = v.Error()
	case nil:
		d = message
	}
	return c.JSON(status, Envelope{
		Errors: []ApiError{{
			Message: message,
			Code:    code,
			Details: d,
			Path:    []string{c.Path()},
		}},
	})
}

type pagedResult struct {
	Items    interface{} `json:"items"`
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
}

func paged(c echo.Context, rows interface{}, total int64, page, pageSize int) error {
	return ok(c, pagedResult{Items: rows, Total: total, Page: page, PageSize: pageSize})
}

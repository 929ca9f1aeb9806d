package params

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	DefaultPageNumber = 1
	DefaultPageSize   = 20
	MaxPageSize       = 100
)

// QueryParams carries the standard pagination query pair.
type QueryParams struct {
	PageNumber int
	PageSize   int
}

// FromEcho reads page/page_size with sane bounds.
func FromEcho(c echo.Context) QueryParams {
	p := QueryParams{PageNumber: DefaultPageNumber, PageSize: DefaultPageSize}
	if n, err := strconv.Atoi(c.QueryParam("page")); err == nil && n > 0 {
		p.PageNumber = n
	}
	if n, err := strconv.Atoi(c.QueryParam("page_size")); err == nil && n > 0 {
		if n > MaxPageSize {
			n = MaxPageSize
		}
		p.PageSize = n
	}
	return p
}

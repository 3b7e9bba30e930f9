package echoapi

import (
	"github.com/labstack/echo/v4"

	"github.com/trezcool/bursar/core/registry"
)

// loadedMiddleware rejects snapshot reads until the registry's first load succeeded.
func loadedMiddleware(reg *registry.Registry) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			switch reg.State() {
			case registry.Ready, registry.Reloading:
				return next(ctx)
			}
			return errNotLoaded
		}
	}
}

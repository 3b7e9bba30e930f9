package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/bursar/core/fee"
	"github.com/trezcool/bursar/core/registry"
)

type feeApi struct {
	reg *registry.Registry
}

func registerFeeAPI(g *echo.Group, jwt echo.MiddlewareFunc, reg *registry.Registry) {
	api := feeApi{reg: reg}

	fg := g.Group("/fees", jwt)
	fg.GET("", api.query, loadedMiddleware(reg))
	fg.PUT("", api.save)
	fg.PUT("/bulk", api.saveMany)
}

// Handlers

// query returns the fee schedule keyed by "{grade}_{term}_{year}".
func (api *feeApi) query(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.reg.Fees())
}

func (api *feeApi) save(ctx echo.Context) error {
	var data fee.Fee
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Fee")
	}
	if err := api.reg.UpsertFee(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "saving school fee")
	}
	return ctx.JSON(http.StatusAccepted, data)
}

func (api *feeApi) saveMany(ctx echo.Context) error {
	var data []fee.Fee
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to []Fee")
	}
	if err := api.reg.UpsertFees(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "saving school fees")
	}
	return ctx.NoContent(http.StatusAccepted)
}

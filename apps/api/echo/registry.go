package echoapi

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/bursar/core"
	"github.com/trezcool/bursar/core/registry"
	notifysvc "github.com/trezcool/bursar/services/notify"
)

var keepAliveInterval = 30 * time.Second

type registryApi struct {
	reg   *registry.Registry
	notes *notifysvc.Feed
}

func registerRegistryAPI(g *echo.Group, jwt echo.MiddlewareFunc, reg *registry.Registry, notes *notifysvc.Feed) {
	api := registryApi{reg: reg, notes: notes}

	// un-authed endpoints
	g.GET("/status", api.status)
	g.GET("/events", api.events)

	// authed endpoints
	ag := g.Group("", jwt)
	ag.POST("/reload", api.reload)
	ag.GET("/summary", api.summary, loadedMiddleware(reg))
	ag.GET("/notifications", api.notifications)
}

type (
	StatusResponse struct {
		State    registry.State `json:"state"`
		Students int            `json:"students"`
		Fees     int            `json:"fees"`
	}

	SummaryRequest struct {
		Term string `query:"term"`
		Year string `query:"year"`
	}
)

// Handlers

func (api *registryApi) status(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.statusResponse())
}

func (api *registryApi) statusResponse() StatusResponse {
	return StatusResponse{
		State:    api.reg.State(),
		Students: len(api.reg.Students()),
		Fees:     len(api.reg.Fees()),
	}
}

// reload reloads `?collection=students|fees`, both if omitted.
// Before the first successful load, it (re)initializes the registry instead.
func (api *registryApi) reload(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	switch api.reg.State() {
	case registry.Uninitialized, registry.Error:
		if err := api.reg.Initialize(reqCtx); err != nil {
			if err == registry.ErrClosed {
				// the registry no longer follows the store: stop serving it
				return core.NewShutdownError(err.Error())
			}
			return errors.Wrap(err, "initializing registry")
		}
		return ctx.JSON(http.StatusOK, api.statusResponse())
	}

	var collections []registry.Collection
	switch c := ctx.QueryParam("collection"); c {
	case "":
		collections = []registry.Collection{registry.Students, registry.Fees}
	case registry.Students.String():
		collections = []registry.Collection{registry.Students}
	case registry.Fees.String():
		collections = []registry.Collection{registry.Fees}
	default:
		return core.NewValidationError(nil, core.FieldError{Field: "collection", Error: "unknown collection"})
	}

	for _, c := range collections {
		if err := api.reg.Reload(reqCtx, c); err != nil {
			return errors.Wrapf(err, "reloading %s", c)
		}
	}
	return ctx.JSON(http.StatusOK, api.statusResponse())
}

func (api *registryApi) summary(ctx echo.Context) error {
	var data SummaryRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SummaryRequest")
	}
	data.Term, data.Year = core.CleanString(data.Term), core.CleanString(data.Year)

	var flds []core.FieldError
	if data.Term == "" {
		flds = append(flds, core.FieldError{Field: "term", Error: "this field is required"})
	}
	if data.Year == "" {
		flds = append(flds, core.FieldError{Field: "year", Error: "this field is required"})
	}
	if flds != nil {
		return core.NewValidationError(nil, flds...)
	}

	return ctx.JSON(http.StatusOK, api.reg.Summary(data.Term, data.Year))
}

func (api *registryApi) notifications(ctx echo.Context) error {
	limit, _ := strconv.Atoi(ctx.QueryParam("limit"))
	return ctx.JSON(http.StatusOK, api.notes.Recent(limit))
}

// events streams snapshot changes as server-sent events: `event: snapshot`, data being the
// collection name. Changes are dropped for clients that do not keep up.
func (api *registryApi) events(ctx echo.Context) error {
	changes := make(chan registry.Collection, 16)
	remove := api.reg.OnSnapshotChanged(func(c registry.Collection) {
		select {
		case changes <- c:
		default:
		}
	})
	defer remove()

	res := ctx.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.WriteHeader(http.StatusOK)
	res.Flush()

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Request().Context().Done():
			return nil
		case c := <-changes:
			if _, err := fmt.Fprintf(res, "event: snapshot\ndata: %s\n\n", c); err != nil {
				return nil
			}
			res.Flush()
		case <-ticker.C:
			if _, err := fmt.Fprint(res, ": keep-alive\n\n"); err != nil {
				return nil
			}
			res.Flush()
		}
	}
}

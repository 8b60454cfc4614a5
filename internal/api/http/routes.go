package httpapi

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	"skycast/internal/events"
	"skycast/internal/favorites"
	"skycast/internal/location"
	"skycast/internal/resolver"
	"skycast/internal/session"
	"skycast/internal/weather"
)

var validate = validator.New()

// Suggester is the autocomplete slice of the fetch client.
type Suggester interface {
	Suggestions(ctx context.Context, prefix string) []string
}

// Deps are the core components the HTTP surface exposes. Handlers never touch
// the cache store or fetch client beyond these.
type Deps struct {
	Resolver  *resolver.Resolver
	Suggester Suggester
	Favorites *favorites.Controller
	Session   *session.Holder
	Events    *events.Broadcaster
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, deps Deps) {
	v1 := app.Group("/api/v1")

	v1.Get("/weather/home", func(c *fiber.Ctx) error {
		res, err := deps.Resolver.Home(c.Context())
		return renderResult(c, res, err)
	})

	v1.Get("/weather/search", func(c *fiber.Ctx) error {
		var q searchQuery
		q.Query = c.Query("q")
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "q query parameter is required")
		}

		res, err := deps.Resolver.ByCityName(c.Context(), q.Query)
		return renderResult(c, res, err)
	})

	v1.Get("/weather/city/:id", func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "city id must be numeric")
		}

		res, err := deps.Resolver.ByCityID(c.Context(), id)
		return renderResult(c, res, err)
	})

	v1.Get("/suggestions", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"suggestions": deps.Suggester.Suggestions(c.Context(), c.Query("q")),
		})
	})

	v1.Get("/favorites", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"ids": deps.Favorites.IDs()})
	})

	v1.Get("/favorites/:id", func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "city id must be numeric")
		}
		return c.JSON(fiber.Map{"id": id, "favorite": deps.Favorites.IsFavorite(id)})
	})

	v1.Post("/favorites/:id/toggle", func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "city id must be numeric")
		}

		// An optional snapshot in the body seeds the favorites-weather cache.
		var snap *weather.Snapshot
		if len(c.Body()) > 0 {
			var s weather.Snapshot
			if err := json.Unmarshal(c.Body(), &s); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "invalid snapshot body")
			}
			snap = &s
		}

		favorite := deps.Favorites.Toggle(id, snap)
		return c.JSON(fiber.Map{"id": id, "favorite": favorite})
	})

	v1.Get("/session", func(c *fiber.Ctx) error {
		state, sess := deps.Session.Current()
		return c.JSON(fiber.Map{"state": state, "session": sess})
	})

	v1.Post("/session", func(c *fiber.Ctx) error {
		var body signInBody
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid session body")
		}
		if err := validate.Struct(body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		deps.Session.Apply(c.Context(), &session.User{UID: body.UID, Email: body.Email})
		state, sess := deps.Session.Current()
		return c.JSON(fiber.Map{"state": state, "session": sess})
	})

	v1.Delete("/session", func(c *fiber.Ctx) error {
		deps.Session.Apply(c.Context(), nil)
		return c.SendStatus(fiber.StatusNoContent)
	})

	v1.Get("/events", func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderContentType, "text/event-stream")
		c.Set(fiber.HeaderCacheControl, "no-cache")
		c.Set(fiber.HeaderConnection, "keep-alive")

		id := uuid.NewString()
		ch := deps.Events.Subscribe(id)

		c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
			defer deps.Events.Unsubscribe(id)

			for ev := range ch {
				payload, err := json.Marshal(ev)
				if err != nil {
					continue
				}
				fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, payload)
				if err := w.Flush(); err != nil {
					// Client went away; stop streaming.
					return
				}
			}
		}))
		return nil
	})
}

type searchQuery struct {
	Query string `validate:"required"`
}

type signInBody struct {
	UID   string `json:"uid" validate:"required"`
	Email string `json:"email" validate:"omitempty,email"`
}

// renderResult maps a resolver outcome to a response. A snapshot alongside an
// error means stale data with an out-of-band failure: both are returned with
// a 200 so the client can show what it has.
func renderResult(c *fiber.Ctx, res resolver.Result, err error) error {
	body := fiber.Map{}
	if res.Snapshot != nil {
		body["snapshot"] = res.Snapshot
		body["source"] = res.Source
		if !res.SavedAt.IsZero() {
			body["savedAt"] = res.SavedAt.UnixMilli()
		}
	}

	if err != nil {
		if res.Snapshot == nil {
			return fiber.NewError(statusFromError(err), err.Error())
		}
		body["error"] = err.Error()
	}

	return c.JSON(body)
}

func statusFromError(err error) int {
	switch {
	case errors.Is(err, weather.ErrCityNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, weather.ErrNotConfigured):
		return fiber.StatusServiceUnavailable
	case errors.Is(err, location.ErrPermissionDenied):
		return fiber.StatusForbidden
	default:
		return fiber.StatusBadGateway
	}
}

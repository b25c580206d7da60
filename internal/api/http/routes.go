package httpapi

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/weatherdemo/resilient-forecast/internal/forecast"
	"github.com/weatherdemo/resilient-forecast/internal/stats"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
//
// /weatherforecast is the simulated flaky backend: it takes the attempt
// number from the caller and answers with a forecast or an injected
// fault. /api/v1/forecast is the consumer path in front of it, with the
// cache-aside and retry behavior.
func RegisterRoutes(app *fiber.App, svc *forecast.Service, provider forecast.Provider, st *stats.Stats) {
	app.Get("/weatherforecast", func(c *fiber.Ctx) error {
		req, err := parseForecastQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		days, err := provider.RequestForecast(c.Context(), req.City, req.Attempt)
		if err != nil {
			// Injected faults answer with a plain-text 5xx body, the way
			// the simulated upstream would.
			return c.Status(faultStatus(err)).SendString(err.Error())
		}

		return c.JSON(days)
	})

	v1 := app.Group("/api/v1")

	v1.Get("/forecast", func(c *fiber.Ctx) error {
		city := c.Query("city")
		if err := validate.Var(city, "required"); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "city query parameter is required")
		}

		payload, err := svc.Fetch(c.Context(), city)
		if err != nil {
			var exhausted *forecast.RetryExhaustedError
			if errors.As(err, &exhausted) {
				return fiber.NewError(fiber.StatusBadGateway, "weather forecast temporarily unavailable")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch weather forecast")
		}

		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.Send(payload)
	})

	app.Get("/stats", func(c *fiber.Ctx) error {
		return c.JSON(st.Snapshot())
	})
}

// forecastQuery holds query parameters for the simulated backend.
type forecastQuery struct {
	City    string `validate:"required"`
	Attempt int    `validate:"gte=1"`
}

func parseForecastQuery(c *fiber.Ctx) (forecastQuery, error) {
	q := forecastQuery{
		City:    c.Query("city"),
		Attempt: c.QueryInt("attempt", 1),
	}

	if err := validate.Struct(q); err != nil {
		return q, err
	}

	return q, nil
}

// faultStatus maps injected faults to upstream-style status codes.
func faultStatus(err error) int {
	var fault *forecast.Fault
	if errors.As(err, &fault) && fault.Kind == forecast.FaultServiceUnavailable {
		return fiber.StatusServiceUnavailable
	}
	return fiber.StatusInternalServerError
}

package httpapi

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/obsmine/weather-obs-pipeline/internal/config"
	"github.com/obsmine/weather-obs-pipeline/internal/openmeteo"
	"github.com/obsmine/weather-obs-pipeline/internal/pipeline"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, p *pipeline.Pipeline, cfg *config.AppConfig) {
	v1 := app.Group("/api/v1")

	v1.Get("/locations", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"locations":        cfg.Locations,
			"timezone":         cfg.LocalTZ.String(),
			"temperature_unit": openmeteo.TemperatureUnitLabel,
			"wind_speed_unit":  openmeteo.WindSpeedUnitLabel,
		})
	})

	v1.Get("/weather/hourly", func(c *fiber.Ctx) error {
		req, err := parseObservationQuery(c, cfg)
		if err != nil {
			return err
		}
		res, err := runPipeline(c, p, cfg, req, 0)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{
			"location":   req.loc,
			"days":       req.Days,
			"run_id":     res.RunID,
			"query_url":  res.QueryURL,
			"from_cache": res.FromCache,
			"diagnostic": res.Diagnostic,
			"recent":     res.Recent,
			"series":     res.Hourly,
		})
	})

	v1.Get("/weather/daily", func(c *fiber.Ctx) error {
		req, err := parseObservationQuery(c, cfg)
		if err != nil {
			return err
		}
		res, err := runPipeline(c, p, cfg, req, 0)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{
			"location":   req.loc,
			"days":       req.Days,
			"run_id":     res.RunID,
			"from_cache": res.FromCache,
			"diagnostic": res.Diagnostic,
			"daily":      res.Daily,
		})
	})

	v1.Get("/weather/anomaly", func(c *fiber.Ctx) error {
		req, err := parseObservationQuery(c, cfg)
		if err != nil {
			return err
		}
		window, err := parseWindow(c)
		if err != nil {
			return err
		}
		res, err := runPipeline(c, p, cfg, req, window)
		if err != nil {
			return err
		}
		if window == 0 {
			window = p.AnomalyWindow()
		}
		return c.JSON(fiber.Map{
			"location":   req.loc,
			"days":       req.Days,
			"window":     window,
			"run_id":     res.RunID,
			"from_cache": res.FromCache,
			"diagnostic": res.Diagnostic,
			"anomaly":    res.Anomaly,
		})
	})
}

func runPipeline(c *fiber.Ctx, p *pipeline.Pipeline, cfg *config.AppConfig, req observationQuery, window int) (*pipeline.Result, error) {
	res, err := p.RunWithWindow(c.Context(), req.loc, cfg.ClampLookback(req.Days), window)
	if err != nil {
		if errors.Is(err, pipeline.ErrNoData) {
			return nil, fiber.NewError(fiber.StatusNotFound, "no weather data available for requested location")
		}
		return nil, fiber.NewError(fiber.StatusInternalServerError, "failed to run weather pipeline")
	}
	return res, nil
}

// observationQuery holds the shared query parameters of the weather
// endpoints.
type observationQuery struct {
	Location string `validate:"required"`
	Days     int    `validate:"omitempty,min=1,max=14"`

	loc pipeline.Location
}

// parseObservationQuery binds and validates the shared parameters. The
// returned error, if any, is ready to hand back to Fiber: bad input is
// a 400, an unknown location a 404.
func parseObservationQuery(c *fiber.Ctx, cfg *config.AppConfig) (observationQuery, error) {
	var q observationQuery
	q.Location = c.Query("location")

	if daysStr := c.Query("days"); daysStr != "" {
		days, err := strconv.Atoi(daysStr)
		if err != nil || days < config.MinLookbackDays || days > config.MaxLookbackDays {
			return q, fiber.NewError(fiber.StatusBadRequest,
				fmt.Sprintf("days must be an integer between %d and %d", config.MinLookbackDays, config.MaxLookbackDays))
		}
		q.Days = days
	}

	if err := validate.Struct(q); err != nil {
		return q, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if q.Days == 0 {
		q.Days = cfg.DefaultLookbackDays
	}

	loc, ok := cfg.LocationByName(q.Location)
	if !ok {
		return q, fiber.NewError(fiber.StatusNotFound, "unknown location")
	}
	q.loc = loc
	return q, nil
}

// parseWindow reads the optional anomaly window parameter. Zero means
// "use the configured default".
func parseWindow(c *fiber.Ctx) (int, error) {
	windowStr := c.Query("window")
	if windowStr == "" {
		return 0, nil
	}
	window, err := strconv.Atoi(windowStr)
	if err != nil {
		return 0, fiber.NewError(fiber.StatusBadRequest, "window must be an integer")
	}
	if window < 2 || window > 168 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "window must be between 2 and 168")
	}
	return window, nil
}

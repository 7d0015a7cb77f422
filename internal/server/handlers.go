package server

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/planbiir/gprofile/internal/gpx"
	"github.com/planbiir/gprofile/internal/places"
	"github.com/planbiir/gprofile/internal/profile"
	"github.com/planbiir/gprofile/internal/render"
	"github.com/planbiir/gprofile/internal/report"
	"github.com/planbiir/gprofile/internal/track"
)

// Service builds reports from uploaded GPX documents.
type Service struct {
	Profile   profile.Config
	Render    render.Options
	Annotator *places.Annotator
	Logger    *slog.Logger
}

// Request carries the per-request overrides of the configured defaults.
type Request struct {
	SegmentWidthKm  *float64
	SmoothingWindow *int
	SlopeMode       string
	Places          *bool
}

// Build parses body and runs the pipeline with the overrides applied.
func (s *Service) Build(ctx context.Context, body []byte, req Request) (*report.Report, error) {
	cfg := s.Profile
	if req.SegmentWidthKm != nil {
		cfg.SegmentWidthKm = *req.SegmentWidthKm
	}
	if req.SmoothingWindow != nil {
		cfg.SmoothingWindow = *req.SmoothingWindow
	}
	if req.SlopeMode != "" {
		cfg.SlopeMode = profile.SlopeMode(req.SlopeMode)
	}

	opts := report.Options{Profile: cfg, Annotator: s.Annotator, Logger: s.Logger}
	if req.Places != nil && !*req.Places {
		opts.Annotator = nil
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	file, err := gpx.ParseBytes(body)
	if err != nil {
		return nil, err
	}
	r, err := report.FromPoints(ctx, file.FlattenPoints(), opts)
	if err != nil {
		return nil, err
	}
	r.Name = file.Name
	return r, nil
}

func RegisterRoutes(r fiber.Router, svc *Service) {
	r.Post("/", func(c *fiber.Ctx) error {
		rep, err := buildFromRequest(c, svc)
		if err != nil {
			return err
		}
		return c.JSON(rep)
	})

	r.Post("/chart", func(c *fiber.Ctx) error {
		rep, err := buildFromRequest(c, svc)
		if err != nil {
			return err
		}
		var buf bytes.Buffer
		if err := render.WriteHTML(&buf, rep, svc.Render); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		c.Type("html", "utf-8")
		return c.Send(buf.Bytes())
	})

	r.Post("/image", func(c *fiber.Ctx) error {
		rep, err := buildFromRequest(c, svc)
		if err != nil {
			return err
		}
		var buf bytes.Buffer
		if err := render.WritePNG(&buf, rep, svc.Render); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		c.Type("png")
		return c.Send(buf.Bytes())
	})

	r.Post("/bands", func(c *fiber.Ctx) error {
		rep, err := buildFromRequest(c, svc)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{
			"slope_mode":   rep.SlopeMode,
			"band_lengths": rep.BandLengths,
			"total_km":     profile.Round2(rep.TotalBandLength()),
		})
	})
}

func buildFromRequest(c *fiber.Ctx, svc *Service) (*report.Report, error) {
	req, err := parseRequest(c)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	rep, err := svc.Build(c.UserContext(), c.Body(), req)
	switch {
	case err == nil:
		return rep, nil
	case errors.Is(err, track.ErrEmptyTrack):
		return nil, fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, profile.ErrInvalidConfig), errors.Is(err, gpx.ErrInvalidGPX):
		return nil, fiber.NewError(fiber.StatusBadRequest, err.Error())
	default:
		return nil, fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}

func parseRequest(c *fiber.Ctx) (Request, error) {
	var req Request
	if v := c.Query("segment_km"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return req, errors.New("segment_km must be a number")
		}
		req.SegmentWidthKm = &f
	}
	if v := c.Query("window"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return req, errors.New("window must be an integer")
		}
		req.SmoothingWindow = &n
	}
	req.SlopeMode = c.Query("mode")
	if v := c.Query("places"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return req, errors.New("places must be true or false")
		}
		req.Places = &b
	}
	return req, nil
}

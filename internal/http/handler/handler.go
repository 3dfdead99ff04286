// Package handler exposes the print queue over HTTP: producers push jobs,
// tablets pair, poll and acknowledge.
package handler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"print-bridge/internal/directory"
	"print-bridge/internal/models"
	"print-bridge/internal/printer"
	"print-bridge/internal/queue"
	"print-bridge/internal/realtime"
	"print-bridge/internal/receipt"
)

var (
	errBadRequest = errors.New("bad request")
	errForbidden  = errors.New("forbidden")
	errNoPrinter  = errors.New("restaurant has no network printer")
	errNoTablet   = errors.New("restaurant has no tablet address")
)

type Config struct {
	Queue     *queue.Queue
	Directory directory.Directory
	Hub       *realtime.Hub
	Printer   receipt.PrinterConfig
	JWTSecret string
	TokenTTL  time.Duration

	// Send, Probe and Forward default to the printer package.
	Send    func(ctx context.Context, addr string, data []byte) error
	Probe   func(addr string) bool
	Forward func(addr string, payload printer.TabletPayload) (string, error)
}

type Handler struct {
	queue     *queue.Queue
	dir       directory.Directory
	hub       *realtime.Hub
	printer   receipt.PrinterConfig
	jwtSecret string
	tokenTTL  time.Duration
	send      func(ctx context.Context, addr string, data []byte) error
	probe     func(addr string) bool
	forward   func(addr string, payload printer.TabletPayload) (string, error)
	log       zerolog.Logger
}

func New(cfg Config) *Handler {
	h := &Handler{
		queue:     cfg.Queue,
		dir:       cfg.Directory,
		hub:       cfg.Hub,
		printer:   cfg.Printer,
		jwtSecret: cfg.JWTSecret,
		tokenTTL:  cfg.TokenTTL,
		send:      cfg.Send,
		probe:     cfg.Probe,
		forward:   cfg.Forward,
		log:       log.With().Str("component", "http").Logger(),
	}
	if h.send == nil {
		h.send = printer.Send
	}
	if h.probe == nil {
		h.probe = printer.Probe
	}
	if h.forward == nil {
		h.forward = printer.Forward
	}
	if h.tokenTTL <= 0 {
		h.tokenTTL = 30 * 24 * time.Hour
	}
	if h.printer.Width == 0 {
		h.printer = receipt.DefaultConfig()
	}
	return h
}

// lookupRestaurant maps directory failures onto the queue's error kinds.
func (h *Handler) lookupRestaurant(ctx context.Context, restaurantID string) (models.Restaurant, error) {
	if restaurantID == "" {
		return models.Restaurant{}, fmt.Errorf("%w: restaurantId is required", errBadRequest)
	}
	r, err := h.dir.Lookup(ctx, restaurantID)
	if errors.Is(err, directory.ErrNotFound) {
		return models.Restaurant{}, fmt.Errorf("%w: %s", queue.ErrUnknownRestaurant, restaurantID)
	}
	if err != nil {
		return models.Restaurant{}, fmt.Errorf("%w: %w", queue.ErrUnavailable, err)
	}
	return r, nil
}

// prepareOrder fills the header fields the producer may leave to the
// restaurant record, then validates the order.
func prepareOrder(r models.Restaurant, order *models.OrderData) error {
	if order.RestaurantName == "" {
		order.RestaurantName = r.Name
	}
	if order.RestaurantPhone == "" {
		order.RestaurantPhone = r.Phone
	}
	if order.Timestamp.IsZero() {
		order.Timestamp = time.Now()
	}
	return order.Validate()
}

// encode renders order for restaurant r. A positive width overrides the
// configured printer width; the restaurant's timezone wins over the default.
func (h *Handler) encode(r models.Restaurant, order *models.OrderData, width int) ([]byte, error) {
	cfg := h.printer
	if width != 0 {
		cfg.Width = width
	}
	if r.Timezone != "" {
		cfg.Location = r.Location()
	}
	if err := prepareOrder(r, order); err != nil {
		return nil, err
	}

	enc, err := receipt.NewEncoder(cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return enc.Encode(*order)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, queue.ErrInvalidJob),
		errors.Is(err, models.ErrInvalidOrder):
		return fiber.StatusBadRequest
	case errors.Is(err, errForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, queue.ErrUnknownRestaurant):
		return fiber.StatusNotFound
	case errors.Is(err, queue.ErrDuplicateJob):
		return fiber.StatusConflict
	case errors.Is(err, errNoPrinter), errors.Is(err, errNoTablet):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, queue.ErrUnavailable):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

func (h *Handler) fail(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	if status >= fiber.StatusInternalServerError {
		h.log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
	}
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"error":   err.Error(),
	})
}

package handler

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"print-bridge/internal/models"
	"print-bridge/internal/printer"
)

type renderReceiptRequest struct {
	RestaurantID string           `json:"restaurantId"`
	OrderData    models.OrderData `json:"orderData"`
	Width        int              `json:"width"`
}

// RenderReceipt handles POST /api/receipts/render. The restaurant is optional
// here; it only supplies the header and timezone.
func (h *Handler) RenderReceipt(c *fiber.Ctx) error {
	var req renderReceiptRequest
	if err := c.BodyParser(&req); err != nil {
		return h.fail(c, fmt.Errorf("%w: invalid request body", errBadRequest))
	}

	var restaurant models.Restaurant
	if rid := strings.TrimSpace(req.RestaurantID); rid != "" {
		r, err := h.lookupRestaurant(c.UserContext(), rid)
		if err != nil {
			return h.fail(c, err)
		}
		restaurant = r
	}

	stream, err := h.encode(restaurant, &req.OrderData, req.Width)
	if err != nil {
		return h.fail(c, err)
	}

	return c.JSON(fiber.Map{
		"success":     true,
		"receiptData": base64.StdEncoding.EncodeToString(stream),
		"size":        len(stream),
	})
}

type printReceiptRequest struct {
	RestaurantID string           `json:"restaurantId"`
	OrderData    models.OrderData `json:"orderData"`
}

// PrintReceipt handles POST /api/receipts/print: encode and send straight to
// the restaurant's network printer, bypassing the tablet queue.
func (h *Handler) PrintReceipt(c *fiber.Ctx) error {
	var req printReceiptRequest
	if err := c.BodyParser(&req); err != nil {
		return h.fail(c, fmt.Errorf("%w: invalid request body", errBadRequest))
	}

	restaurant, err := h.lookupRestaurant(c.UserContext(), strings.TrimSpace(req.RestaurantID))
	if err != nil {
		return h.fail(c, err)
	}
	if restaurant.PrinterAddress == "" {
		return h.fail(c, fmt.Errorf("%w: %s", errNoPrinter, restaurant.ID))
	}

	stream, err := h.encode(restaurant, &req.OrderData, 0)
	if err != nil {
		return h.fail(c, err)
	}

	if err := h.send(c.UserContext(), restaurant.PrinterAddress, stream); err != nil {
		h.log.Warn().Err(err).Str("restaurant_id", restaurant.ID).Msg("direct print failed")
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"success": false,
			"error":   "printer unreachable: " + err.Error(),
		})
	}

	h.log.Info().
		Str("restaurant_id", restaurant.ID).
		Str("order_number", req.OrderData.OrderNumber).
		Int("bytes", len(stream)).
		Msg("receipt sent to printer")

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Receipt sent to printer",
		"size":    len(stream),
	})
}

type forwardReceiptRequest struct {
	RestaurantID string           `json:"restaurantId"`
	OrderData    models.OrderData `json:"orderData"`
	ReceiptData  string           `json:"receiptData"`
}

// ForwardReceipt handles POST /api/receipts/forward: push the receipt to the
// restaurant tablet's local /print endpoint without queueing it.
func (h *Handler) ForwardReceipt(c *fiber.Ctx) error {
	var req forwardReceiptRequest
	if err := c.BodyParser(&req); err != nil {
		return h.fail(c, fmt.Errorf("%w: invalid request body", errBadRequest))
	}

	restaurant, err := h.lookupRestaurant(c.UserContext(), strings.TrimSpace(req.RestaurantID))
	if err != nil {
		return h.fail(c, err)
	}
	if restaurant.TabletAddress == "" {
		return h.fail(c, fmt.Errorf("%w: %s", errNoTablet, restaurant.ID))
	}

	receiptData := req.ReceiptData
	if receiptData == "" {
		stream, err := h.encode(restaurant, &req.OrderData, 0)
		if err != nil {
			return h.fail(c, err)
		}
		receiptData = base64.StdEncoding.EncodeToString(stream)
	} else if err := prepareOrder(restaurant, &req.OrderData); err != nil {
		return h.fail(c, err)
	}

	answer, err := h.forward(restaurant.TabletAddress, printer.TabletPayload{
		Receipt:   receiptData,
		OrderData: req.OrderData,
		PrintType: printer.ThermalReceipt,
		Timestamp: time.Now().UTC(),
		Source:    printer.ForwardSource,
	})
	if err != nil {
		h.log.Warn().Err(err).Str("restaurant_id", restaurant.ID).Msg("tablet forward failed")
		resp := fiber.Map{
			"success": false,
			"error":   "tablet unreachable: " + err.Error(),
		}
		if errors.Is(err, printer.ErrTabletRejected) {
			resp["error"] = err.Error()
			resp["tabletResponse"] = answer
		}
		return c.Status(fiber.StatusBadGateway).JSON(resp)
	}

	h.log.Info().
		Str("restaurant_id", restaurant.ID).
		Str("order_number", req.OrderData.OrderNumber).
		Msg("receipt forwarded to tablet")

	return c.JSON(fiber.Map{
		"success":        true,
		"message":        "Receipt sent to tablet",
		"tabletResponse": answer,
	})
}

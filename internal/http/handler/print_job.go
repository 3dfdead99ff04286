package handler

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"print-bridge/internal/http/middleware"
	"print-bridge/internal/models"
)

type createPrintJobRequest struct {
	ID           string           `json:"id"`
	RestaurantID string           `json:"restaurantId"`
	OrderData    models.OrderData `json:"orderData"`
	// ReceiptData is an optional ready-made receipt; without it the
	// order is encoded here.
	ReceiptData string `json:"receiptData"`
}

// CreatePrintJob handles POST /api/print-jobs.
func (h *Handler) CreatePrintJob(c *fiber.Ctx) error {
	var req createPrintJobRequest
	if err := c.BodyParser(&req); err != nil {
		return h.fail(c, fmt.Errorf("%w: invalid request body", errBadRequest))
	}
	req.RestaurantID = strings.TrimSpace(req.RestaurantID)

	restaurant, err := h.lookupRestaurant(c.UserContext(), req.RestaurantID)
	if err != nil {
		if statusFor(err) == fiber.StatusNotFound {
			return h.unknownRestaurant(c, err)
		}
		return h.fail(c, err)
	}

	job := models.PrintJob{
		ID:           strings.TrimSpace(req.ID),
		RestaurantID: req.RestaurantID,
		OrderData:    req.OrderData,
	}
	if req.ReceiptData != "" {
		if err := prepareOrder(restaurant, &job.OrderData); err != nil {
			return h.fail(c, err)
		}
		job.ReceiptData = req.ReceiptData
		job.ReceiptEncoding = models.ReceiptText
	} else {
		stream, err := h.encode(restaurant, &job.OrderData, 0)
		if err != nil {
			return h.fail(c, err)
		}
		job.ReceiptData = base64.StdEncoding.EncodeToString(stream)
		job.ReceiptEncoding = models.ReceiptBase64
	}

	job, err = h.queue.Enqueue(c.UserContext(), job)
	if err != nil {
		return h.fail(c, err)
	}

	stats, err := h.queue.Stats(c.UserContext())
	if err != nil {
		return h.fail(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":         true,
		"message":         "Receipt queued for printing at " + restaurant.Name,
		"jobId":           job.ID,
		"queueSize":       stats.Total,
		"restaurant":      restaurant.Name,
		"tabletReachable": h.probe(restaurant.TabletAddress),
		"timestamp":       job.Timestamp,
	})
}

// unknownRestaurant lists the valid ids alongside the 404.
func (h *Handler) unknownRestaurant(c *fiber.Ctx, err error) error {
	available := []string{}
	if restaurants, lerr := h.dir.List(c.UserContext()); lerr == nil {
		for _, r := range restaurants {
			if r.IsActive {
				available = append(available, r.ID)
			}
		}
	}
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"success":              false,
		"error":                err.Error(),
		"availableRestaurants": available,
	})
}

// QueueStats handles GET /api/print-jobs/stats.
func (h *Handler) QueueStats(c *fiber.Ctx) error {
	stats, err := h.queue.Stats(c.UserContext())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{
		"success":   true,
		"total":     stats.Total,
		"pending":   stats.Pending,
		"completed": stats.Completed,
	})
}

// ListPendingJobs handles GET /tablet/print-jobs. The token decides the
// restaurant; an explicit restaurantId must match it.
func (h *Handler) ListPendingJobs(c *fiber.Ctx) error {
	restaurantID := middleware.RestaurantID(c)
	if q := strings.TrimSpace(c.Query("restaurantId")); q != "" && q != restaurantID {
		return h.fail(c, fmt.Errorf("%w: token is not valid for restaurant %s", errForbidden, q))
	}

	jobs, err := h.queue.ListPending(c.UserContext(), restaurantID)
	if err != nil {
		return h.fail(c, err)
	}
	stats, err := h.queue.Stats(c.UserContext())
	if err != nil {
		return h.fail(c, err)
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"jobs":       jobs,
		"totalQueue": stats.Total,
		"pending":    stats.Pending,
		"completed":  stats.Completed,
	})
}

// CompleteJob handles PUT /tablet/print-jobs/:id/complete. Repeating the
// call is harmless; success reports whether this call did the transition.
// Jobs of other restaurants are reported like unknown ones.
func (h *Handler) CompleteJob(c *fiber.Ctx) error {
	jobID := c.Params("id")

	ok, err := h.queue.Complete(c.UserContext(), middleware.RestaurantID(c), jobID)
	if err != nil {
		return h.fail(c, err)
	}

	message := "Job marked as completed"
	if !ok {
		message = "Job is unknown or already completed"
	}
	return c.JSON(fiber.Map{
		"success": ok,
		"message": message,
		"jobId":   jobID,
	})
}

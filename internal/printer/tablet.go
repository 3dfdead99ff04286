package printer

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"print-bridge/internal/models"
)

const (
	ForwardTimeout   = 5 * time.Second
	ThermalReceipt   = "thermal_receipt"
	ForwardSource    = "print-bridge"
	tabletPrintRoute = "/print"
)

var ErrTabletRejected = errors.New("tablet rejected print data")

// TabletPayload is the body a tablet's local /print endpoint accepts.
type TabletPayload struct {
	Receipt   string           `json:"receipt"`
	OrderData models.OrderData `json:"orderData"`
	PrintType string           `json:"printType"`
	Timestamp time.Time        `json:"timestamp"`
	Source    string           `json:"source"`
}

// Forward pushes payload to the tablet listening at addr (host:port) and
// returns whatever the tablet answered. A non-2xx answer is ErrTabletRejected
// with the body still returned.
func Forward(addr string, payload TabletPayload) (string, error) {
	if addr == "" {
		return "", ErrNoAddress
	}

	agent := fiber.Post("http://" + addr + tabletPrintRoute).
		Timeout(ForwardTimeout).
		JSON(payload)
	if err := agent.Parse(); err != nil {
		return "", fmt.Errorf("build tablet request: %w", err)
	}

	code, body, errs := agent.String()
	if len(errs) > 0 {
		return "", fmt.Errorf("connection failed: %w", errors.Join(errs...))
	}
	if code < fiber.StatusOK || code >= fiber.StatusMultipleChoices {
		return body, fmt.Errorf("%w: status %d", ErrTabletRejected, code)
	}
	return body, nil
}

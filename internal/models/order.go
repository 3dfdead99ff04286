package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentCard    PaymentMethod = "Card"
	PaymentCash    PaymentMethod = "Cash"
	PaymentDigital PaymentMethod = "Digital"
)

// ErrInvalidOrder wraps every OrderData validation failure.
var ErrInvalidOrder = errors.New("invalid order data")

var validate = validator.New(validator.WithRequiredStructEnabled())

type OrderItem struct {
	Name      string          `json:"name" validate:"required"`
	Quantity  int             `json:"quantity" validate:"gt=0"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	LineTotal decimal.Decimal `json:"lineTotal"`
}

// OrderData is the structured order handed over by the checkout side.
// Total is trusted as given and never re-derived from the other amounts.
type OrderData struct {
	OrderNumber     string          `json:"orderNumber" validate:"required"`
	RestaurantName  string          `json:"restaurantName"`
	RestaurantPhone string          `json:"restaurantPhone,omitempty"`
	Items           []OrderItem     `json:"items" validate:"required,min=1,dive"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	Tax             decimal.Decimal `json:"tax"`
	Delivery        decimal.Decimal `json:"delivery"`
	Tip             decimal.Decimal `json:"tip"`
	Total           decimal.Decimal `json:"total"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod" validate:"required,oneof=Card Cash Digital"`
	CustomerName    string          `json:"customerName,omitempty"`
	CustomerPhone   string          `json:"customerPhone,omitempty"`
	DeliveryAddress string          `json:"deliveryAddress,omitempty"`
	Timestamp       time.Time       `json:"timestamp"`
}

// Validate reports the first problem that would make the order unprintable.
// Absent optional fields are fine, they are simply left off the receipt.
func (o OrderData) Validate() error {
	if err := validate.Struct(o); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalidOrder, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidOrder, err)
	}

	if o.Subtotal.IsZero() && o.Total.IsZero() {
		return fmt.Errorf("%w: order totals are missing", ErrInvalidOrder)
	}

	amounts := map[string]decimal.Decimal{
		"subtotal": o.Subtotal,
		"tax":      o.Tax,
		"delivery": o.Delivery,
		"tip":      o.Tip,
		"total":    o.Total,
	}
	for _, name := range []string{"subtotal", "tax", "delivery", "tip", "total"} {
		if amounts[name].IsNegative() {
			return fmt.Errorf("%w: %s is negative", ErrInvalidOrder, name)
		}
	}
	for i, item := range o.Items {
		if item.LineTotal.IsNegative() {
			return fmt.Errorf("%w: items[%d].lineTotal is negative", ErrInvalidOrder, i)
		}
	}

	return nil
}

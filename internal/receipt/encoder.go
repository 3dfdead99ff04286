// Package receipt renders orders into ESC/POS receipts for 58/80mm thermal printers.
package receipt

import (
	"fmt"
	"strconv"
	"time"
	"unicode/utf8"

	"print-bridge/internal/escpos"
	"print-bridge/internal/models"
)

const (
	DefaultWidth    = 42
	DefaultEncoding = "cp437"

	// priceColumn is the room kept free for the price on an item line.
	priceColumn = 8
	minWidth    = priceColumn + 4
)

type PrinterConfig struct {
	Width    int            `json:"width"`
	Encoding string         `json:"encoding"`
	Location *time.Location `json:"-"`
}

func DefaultConfig() PrinterConfig {
	return PrinterConfig{
		Width:    DefaultWidth,
		Encoding: DefaultEncoding,
		Location: time.UTC,
	}
}

// Encoder is stateless apart from its configuration and safe for concurrent use.
type Encoder struct {
	cfg PrinterConfig
}

func NewEncoder(cfg PrinterConfig) (*Encoder, error) {
	if cfg.Width == 0 {
		cfg.Width = DefaultWidth
	}
	if cfg.Width < minWidth {
		return nil, fmt.Errorf("printer width %d is below the minimum of %d", cfg.Width, minWidth)
	}
	if cfg.Encoding == "" {
		cfg.Encoding = DefaultEncoding
	}
	if cfg.Encoding != DefaultEncoding {
		return nil, fmt.Errorf("unsupported printer encoding %q", cfg.Encoding)
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Encoder{cfg: cfg}, nil
}

func (e *Encoder) Config() PrinterConfig {
	return e.cfg
}

// Encode validates order and renders it. Nothing is returned unless the
// whole receipt could be produced.
func (e *Encoder) Encode(order models.OrderData) ([]byte, error) {
	if err := order.Validate(); err != nil {
		return nil, err
	}

	w := escpos.NewWriter()
	w.Init().CodePage437().NarrowSpacing()

	e.header(w, order)
	e.details(w, order)
	e.items(w, order.Items)
	e.totals(w, order)
	e.footer(w)

	w.Feed(3).Cut()
	return w.Bytes(), nil
}

// Encode renders order with the default 42-column configuration.
func Encode(order models.OrderData) ([]byte, error) {
	return (&Encoder{cfg: DefaultConfig()}).Encode(order)
}

func (e *Encoder) header(w *escpos.Writer, o models.OrderData) {
	w.Align(escpos.AlignCenter)
	w.Bold(true).Font(escpos.FontDoubleHeight)
	w.Line(o.RestaurantName)
	w.Font(escpos.FontNormal).Bold(false)

	if o.RestaurantPhone != "" {
		w.Line(o.RestaurantPhone)
	}
	w.Line(rule(e.cfg.Width))

	w.Bold(true).Line("ORDER #" + o.OrderNumber).Bold(false)
	w.Line(FormatTimestamp(o.Timestamp, e.cfg.Location))
	w.Line(rule(e.cfg.Width))
}

func (e *Encoder) details(w *escpos.Writer, o models.OrderData) {
	w.Align(escpos.AlignLeft)

	if o.CustomerName != "" {
		w.Line("Customer: " + o.CustomerName)
	}
	if o.CustomerPhone != "" {
		w.Line("Phone: " + o.CustomerPhone)
	}
	if o.DeliveryAddress != "" {
		for _, line := range WrapText("Delivery: "+o.DeliveryAddress, e.cfg.Width) {
			w.Line(line)
		}
	}
	w.Line("Payment: " + string(o.PaymentMethod))
	w.Line(rule(e.cfg.Width))
}

func (e *Encoder) items(w *escpos.Writer, items []models.OrderItem) {
	w.Align(escpos.AlignLeft)
	w.Bold(true).Line(PadLine("ITEMS", "PRICE", e.cfg.Width)).Bold(false)

	for _, item := range items {
		left := strconv.Itoa(item.Quantity) + "x " + item.Name
		price := Money(item.LineTotal)

		if utf8.RuneCountInString(left) <= e.cfg.Width-priceColumn {
			w.Line(PadLine(left, price, e.cfg.Width))
			continue
		}

		lines := WrapText(left, e.cfg.Width-priceColumn)
		w.Line(PadLine(lines[0], price, e.cfg.Width))
		for _, rest := range lines[1:] {
			w.Line(rest)
		}
	}

	w.Line(rule(e.cfg.Width))
}

func (e *Encoder) totals(w *escpos.Writer, o models.OrderData) {
	w.Align(escpos.AlignLeft)
	w.Line(PadLine("Subtotal:", Money(o.Subtotal), e.cfg.Width))

	if o.Tax.IsPositive() {
		w.Line(PadLine("Tax:", Money(o.Tax), e.cfg.Width))
	}
	if o.Delivery.IsPositive() {
		w.Line(PadLine("Delivery:", Money(o.Delivery), e.cfg.Width))
	}
	if o.Tip.IsPositive() {
		w.Line(PadLine("Tip:", Money(o.Tip), e.cfg.Width))
	}
	w.Line(rule(e.cfg.Width))

	w.Bold(true).Font(escpos.FontDoubleWidth)
	w.Line(PadLine("TOTAL:", Money(o.Total), e.cfg.Width))
	w.Font(escpos.FontNormal).Bold(false)
}

func (e *Encoder) footer(w *escpos.Writer) {
	w.Line(rule(e.cfg.Width))
	w.Align(escpos.AlignCenter)
	w.Line("Thank you for your order!")
	w.Line("Visit us again soon!")
	w.Feed(1)
}

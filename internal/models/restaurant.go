package models

import "time"

type Restaurant struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Phone          string `json:"phone,omitempty"`
	TabletAddress  string `json:"tabletAddress,omitempty"`  // host:port of the tablet bridge
	PrinterAddress string `json:"printerAddress,omitempty"` // host:port of a network printer, usually :9100
	Timezone       string `json:"timezone,omitempty"`
	IsActive       bool   `json:"isActive"`
	PairingHash    string `json:"pairingHash,omitempty"` // bcrypt hash of the tablet pairing code
}

// Location falls back to UTC when the timezone is empty or unknown.
func (r Restaurant) Location() *time.Location {
	if r.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(r.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// RestaurantResponse is the directory entry without secrets.
type RestaurantResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Phone      string `json:"phone,omitempty"`
	HasTablet  bool   `json:"hasTablet"`
	HasPrinter bool   `json:"hasPrinter"`
	IsActive   bool   `json:"isActive"`
}

func ToRestaurantResponse(r Restaurant) RestaurantResponse {
	return RestaurantResponse{
		ID:         r.ID,
		Name:       r.Name,
		Phone:      r.Phone,
		HasTablet:  r.TabletAddress != "",
		HasPrinter: r.PrinterAddress != "",
		IsActive:   r.IsActive,
	}
}

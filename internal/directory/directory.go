// Package directory resolves restaurant ids to their display name and
// tablet/printer addresses.
package directory

import (
	"context"
	"errors"

	"print-bridge/internal/models"
)

var ErrNotFound = errors.New("restaurant not found")

type Directory interface {
	Lookup(ctx context.Context, restaurantID string) (models.Restaurant, error)
	List(ctx context.Context) ([]models.Restaurant, error)
}

package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"print-bridge/internal/models"
)

// Static is an in-memory roster, usually loaded from a JSON file.
type Static struct {
	restaurants map[string]models.Restaurant
}

func NewStatic(restaurants ...models.Restaurant) (*Static, error) {
	s := &Static{restaurants: make(map[string]models.Restaurant, len(restaurants))}
	for _, r := range restaurants {
		r.ID = strings.TrimSpace(r.ID)
		if r.ID == "" {
			return nil, fmt.Errorf("restaurant %q has no id", r.Name)
		}
		if _, dup := s.restaurants[r.ID]; dup {
			return nil, fmt.Errorf("restaurant id %q is listed twice", r.ID)
		}
		s.restaurants[r.ID] = r
	}
	return s, nil
}

// LoadFile reads a JSON array of restaurants.
func LoadFile(path string) (*Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read restaurants file: %w", err)
	}

	var restaurants []models.Restaurant
	if err := json.Unmarshal(data, &restaurants); err != nil {
		return nil, fmt.Errorf("parse restaurants file %s: %w", path, err)
	}
	return NewStatic(restaurants...)
}

func (s *Static) Lookup(_ context.Context, restaurantID string) (models.Restaurant, error) {
	r, ok := s.restaurants[restaurantID]
	if !ok || !r.IsActive {
		return models.Restaurant{}, fmt.Errorf("%w: %s", ErrNotFound, restaurantID)
	}
	return r, nil
}

func (s *Static) List(_ context.Context) ([]models.Restaurant, error) {
	out := make([]models.Restaurant, 0, len(s.restaurants))
	for _, r := range s.restaurants {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

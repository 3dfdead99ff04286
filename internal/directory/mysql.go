package directory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"print-bridge/internal/models"
)

// MySQL reads the roster from the restaurants table.
//
//	CREATE TABLE restaurants (
//	  id VARCHAR(64) PRIMARY KEY,
//	  name VARCHAR(255) NOT NULL,
//	  phone VARCHAR(32) NOT NULL DEFAULT '',
//	  tablet_address VARCHAR(255) NOT NULL DEFAULT '',
//	  printer_address VARCHAR(255) NOT NULL DEFAULT '',
//	  timezone VARCHAR(64) NOT NULL DEFAULT '',
//	  is_active CHAR(1) NOT NULL DEFAULT 'y',
//	  pairing_hash VARCHAR(255) NOT NULL DEFAULT ''
//	);
type MySQL struct {
	db *sql.DB
}

func NewMySQL(db *sql.DB) *MySQL {
	return &MySQL{db: db}
}

const restaurantColumns = "id, name, phone, tablet_address, printer_address, timezone, is_active, pairing_hash"

func (m *MySQL) Lookup(ctx context.Context, restaurantID string) (models.Restaurant, error) {
	row := m.db.QueryRowContext(ctx,
		"SELECT "+restaurantColumns+" FROM restaurants WHERE id = ?",
		restaurantID,
	)

	r, err := scanRestaurant(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Restaurant{}, fmt.Errorf("%w: %s", ErrNotFound, restaurantID)
	}
	if err != nil {
		return models.Restaurant{}, fmt.Errorf("lookup restaurant %s: %w", restaurantID, err)
	}
	if !r.IsActive {
		return models.Restaurant{}, fmt.Errorf("%w: %s is inactive", ErrNotFound, restaurantID)
	}
	return r, nil
}

func (m *MySQL) List(ctx context.Context) ([]models.Restaurant, error) {
	rows, err := m.db.QueryContext(ctx, "SELECT "+restaurantColumns+" FROM restaurants ORDER BY id ASC")
	if err != nil {
		return nil, fmt.Errorf("list restaurants: %w", err)
	}
	defer rows.Close()

	restaurants := []models.Restaurant{}
	for rows.Next() {
		r, err := scanRestaurant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan restaurant: %w", err)
		}
		restaurants = append(restaurants, r)
	}
	return restaurants, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRestaurant(s scanner) (models.Restaurant, error) {
	var r models.Restaurant
	var isActive string
	err := s.Scan(
		&r.ID,
		&r.Name,
		&r.Phone,
		&r.TabletAddress,
		&r.PrinterAddress,
		&r.Timezone,
		&isActive,
		&r.PairingHash,
	)
	r.IsActive = isActive == "y"
	return r, err
}

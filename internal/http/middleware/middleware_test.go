package middleware

import (
	"encoding/base64"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"print-bridge/internal/config"
)

func newTabletApp() *fiber.App {
	app := fiber.New()
	app.Use(RequestLogger())
	app.Get("/tablet", TabletAuth("s3cret"), func(c *fiber.Ctx) error {
		return c.SendString(RestaurantID(c))
	})
	app.Get("/api", BasicAuth("pos", "pw"), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	return app
}

func TestTabletAuth(t *testing.T) {
	token, _, err := config.GenerateTabletToken("s3cret", "xtreme-pizza", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	app := newTabletApp()

	tests := []struct {
		name   string
		target string
		header string
		want   int
	}{
		{"bearer header", "/tablet", "Bearer " + token, fiber.StatusOK},
		{"query token", "/tablet?token=" + token, "", fiber.StatusOK},
		{"missing", "/tablet", "", fiber.StatusUnauthorized},
		{"wrong scheme", "/tablet", "Token " + token, fiber.StatusUnauthorized},
		{"garbage", "/tablet", "Bearer nope", fiber.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatal(err)
			}
			if resp.StatusCode != tt.want {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}

func TestBasicAuth(t *testing.T) {
	app := newTabletApp()

	req := httptest.NewRequest("GET", "/api", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("no credentials: %d", resp.StatusCode)
	}

	req = httptest.NewRequest("GET", "/api", nil)
	req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte("pos:pw")))
	resp, err = app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("valid credentials: %d", resp.StatusCode)
	}
}

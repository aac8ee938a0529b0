package auth

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
)

func TestJWTMiddleware(t *testing.T) {
	svc := NewService("secret", nil)
	token, err := svc.signToken(3, time.Minute)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	app := fiber.New()
	app.Get("/protected", JWTMiddleware("secret"), func(c *fiber.Ctx) error {
		return c.SendString(fmt.Sprintf("%d", UserID(c)))
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 with valid token")
	}

	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	resp, _ = app.Test(req)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token")
	}

	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	resp, _ = app.Test(req)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for malformed token")
	}

	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Basic "+token)
	resp, _ = app.Test(req)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for non-bearer scheme")
	}
}

func TestUserIDUnauthenticated(t *testing.T) {
	app := fiber.New()
	app.Get("/open", func(c *fiber.Ctx) error {
		if UserID(c) != 0 {
			t.Fatalf("expected zero user id")
		}
		return c.SendStatus(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/open", nil)
	if _, err := app.Test(req); err != nil {
		t.Fatalf("test request: %v", err)
	}
}

package auth

import (
	"log"

	"github.com/wasuken/maptabi-new/internal/apperr"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/register", func(c *fiber.Ctx) error {
		var req RegisterRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		if req.Email == "" || req.Password == "" || req.DisplayName == "" {
			return fiber.NewError(fiber.StatusBadRequest, "email, password, displayName required")
		}

		user, tokens, err := svc.Register(c.Context(), req)
		if err != nil {
			log.Printf("register %s: %v", req.Email, err)
			return apperr.ToFiber(err, "registration failed")
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"user": user, "tokens": tokens})
	})

	r.Post("/login", func(c *fiber.Ctx) error {
		var req LoginRequest
		if err := c.BodyParser(&req); err != nil || req.Email == "" || req.Password == "" {
			return fiber.NewError(fiber.StatusBadRequest, "email and password required")
		}

		user, tokens, err := svc.Login(c.Context(), req)
		if err != nil {
			log.Printf("login %s: %v", req.Email, err)
			return apperr.ToFiber(err, "login failed")
		}
		return c.JSON(fiber.Map{"user": user, "tokens": tokens})
	})

	r.Post("/refresh", func(c *fiber.Ctx) error {
		var req RefreshRequest
		if err := c.BodyParser(&req); err != nil || req.RefreshToken == "" {
			return fiber.NewError(fiber.StatusBadRequest, "refreshToken required")
		}

		userID, err := svc.ValidateRefreshToken(c.Context(), req.RefreshToken)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "refresh token invalid")
		}

		tokens, err := svc.GenerateTokens(c.Context(), userID)
		if err != nil {
			log.Printf("refresh tokens for user %d: %v", userID, err)
			return apperr.ToFiber(err, "token refresh failed")
		}
		return c.JSON(tokens)
	})

	r.Get("/me", authMiddleware, func(c *fiber.Ctx) error {
		userID := UserID(c)
		user, err := svc.GetUser(c.Context(), userID)
		if err != nil {
			log.Printf("get user %d: %v", userID, err)
			return apperr.ToFiber(err, "failed to load user")
		}
		return c.JSON(user)
	})
}

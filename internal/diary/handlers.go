package diary

import (
	"log"
	"strconv"

	"github.com/wasuken/maptabi-new/internal/apperr"
	"github.com/wasuken/maptabi-new/internal/auth"
	"github.com/wasuken/maptabi-new/internal/location"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Use(authMiddleware)

	r.Get("/", func(c *fiber.Ctx) error {
		userID := auth.UserID(c)
		diaries, err := svc.ListByOwner(c.Context(), userID)
		if err != nil {
			log.Printf("list diaries for user %d: %v", userID, err)
			return apperr.ToFiber(err, "failed to load diaries")
		}
		if diaries == nil {
			diaries = []Diary{}
		}
		return c.JSON(diaries)
	})

	r.Post("/", func(c *fiber.Ctx) error {
		var input Input
		if err := c.BodyParser(&input); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		if input.Title == "" || input.Content == "" {
			return fiber.NewError(fiber.StatusBadRequest, "title and content required")
		}

		userID := auth.UserID(c)
		d, err := svc.Create(c.Context(), input, userID)
		if err != nil {
			log.Printf("create diary for user %d: %v", userID, err)
			return apperr.ToFiber(err, "failed to create diary")
		}
		return c.Status(fiber.StatusCreated).JSON(d)
	})

	r.Get("/:id", func(c *fiber.Ctx) error {
		diaryID, err := parseID(c, "id")
		if err != nil {
			return err
		}
		userID := auth.UserID(c)
		d, err := svc.GetByID(c.Context(), diaryID, userID)
		if err != nil {
			log.Printf("get diary %d for user %d: %v", diaryID, userID, err)
			return apperr.ToFiber(err, "failed to load diary")
		}
		return c.JSON(d)
	})

	r.Put("/:id", func(c *fiber.Ctx) error {
		diaryID, err := parseID(c, "id")
		if err != nil {
			return err
		}
		var input Input
		if err := c.BodyParser(&input); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		if input.Title == "" || input.Content == "" {
			return fiber.NewError(fiber.StatusBadRequest, "title and content required")
		}

		userID := auth.UserID(c)
		d, err := svc.Update(c.Context(), diaryID, input, userID)
		if err != nil {
			log.Printf("update diary %d for user %d: %v", diaryID, userID, err)
			return apperr.ToFiber(err, "failed to update diary")
		}
		return c.JSON(d)
	})

	r.Delete("/:id", func(c *fiber.Ctx) error {
		diaryID, err := parseID(c, "id")
		if err != nil {
			return err
		}
		userID := auth.UserID(c)
		if err := svc.Delete(c.Context(), diaryID, userID); err != nil {
			log.Printf("delete diary %d for user %d: %v", diaryID, userID, err)
			return apperr.ToFiber(err, "failed to delete diary")
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	r.Get("/:id/locations", func(c *fiber.Ctx) error {
		diaryID, err := parseID(c, "id")
		if err != nil {
			return err
		}
		userID := auth.UserID(c)
		locations, err := svc.Locations(c.Context(), diaryID, userID)
		if err != nil {
			log.Printf("list locations of diary %d for user %d: %v", diaryID, userID, err)
			return apperr.ToFiber(err, "failed to load locations")
		}
		if locations == nil {
			locations = []location.Location{}
		}
		return c.JSON(locations)
	})

	r.Post("/:id/locations", func(c *fiber.Ctx) error {
		diaryID, err := parseID(c, "id")
		if err != nil {
			return err
		}
		var req ReplaceRequest
		if err := c.BodyParser(&req); err != nil || req.Locations == nil {
			return fiber.NewError(fiber.StatusBadRequest, "locations must be an array")
		}
		for _, input := range req.Locations {
			if input.Latitude == nil || input.Longitude == nil {
				return fiber.NewError(fiber.StatusBadRequest, "every location needs latitude and longitude")
			}
		}

		userID := auth.UserID(c)
		locations, err := svc.ReplaceLocations(c.Context(), diaryID, userID, req.Locations)
		if err != nil {
			log.Printf("replace locations of diary %d for user %d: %v", diaryID, userID, err)
			return apperr.ToFiber(err, "failed to update locations")
		}
		if locations == nil {
			locations = []location.Location{}
		}
		return c.JSON(locations)
	})
}

func parseID(c *fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid diary id")
	}
	return id, nil
}

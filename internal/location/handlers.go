package location

import (
	"log"
	"strconv"

	"github.com/wasuken/maptabi-new/internal/apperr"
	"github.com/wasuken/maptabi-new/internal/auth"

	"github.com/gofiber/fiber/v2"
)

const (
	defaultRadiusKm    = 5.0
	defaultMaxDiaries  = 30
	defaultMaxPerDiary = 50
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	// Registered before the parameterized routes so "public" is not
	// taken for a location id.
	r.Get("/public/nearby", func(c *fiber.Ctx) error {
		params, err := parseNearbyParams(c)
		if err != nil {
			return err
		}
		locations, err := svc.PublicNearby(c.Context(), params)
		if err != nil {
			log.Printf("public nearby (%.4f,%.4f): %v", params.Latitude, params.Longitude, err)
			return apperr.ToFiber(err, "failed to load nearby locations")
		}
		if locations == nil {
			locations = []Location{}
		}
		return c.JSON(locations)
	})

	r.Post("/diaries/:diaryId", authMiddleware, func(c *fiber.Ctx) error {
		diaryID, err := strconv.ParseInt(c.Params("diaryId"), 10, 64)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid diary id")
		}

		var input Input
		if err := c.BodyParser(&input); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		if input.Latitude == nil || input.Longitude == nil {
			return fiber.NewError(fiber.StatusBadRequest, "latitude and longitude required")
		}

		userID := auth.UserID(c)
		loc, err := svc.Add(c.Context(), diaryID, userID, input)
		if err != nil {
			log.Printf("add location to diary %d for user %d: %v", diaryID, userID, err)
			return apperr.ToFiber(err, "failed to add location")
		}
		return c.Status(fiber.StatusCreated).JSON(loc)
	})

	r.Delete("/:id", authMiddleware, func(c *fiber.Ctx) error {
		locationID, err := strconv.ParseInt(c.Params("id"), 10, 64)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid location id")
		}

		userID := auth.UserID(c)
		if err := svc.Delete(c.Context(), locationID, userID); err != nil {
			log.Printf("delete location %d for user %d: %v", locationID, userID, err)
			return apperr.ToFiber(err, "failed to delete location")
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	r.Get("/", authMiddleware, func(c *fiber.Ctx) error {
		userID := auth.UserID(c)
		locations, err := svc.ListByOwner(c.Context(), userID)
		if err != nil {
			log.Printf("list locations for user %d: %v", userID, err)
			return apperr.ToFiber(err, "failed to load locations")
		}
		if locations == nil {
			locations = []Location{}
		}
		return c.JSON(locations)
	})
}

func parseNearbyParams(c *fiber.Ctx) (NearbyParams, error) {
	lat, err := strconv.ParseFloat(c.Query("latitude"), 64)
	if err != nil {
		return NearbyParams{}, fiber.NewError(fiber.StatusBadRequest, "latitude must be a valid number")
	}
	lng, err := strconv.ParseFloat(c.Query("longitude"), 64)
	if err != nil {
		return NearbyParams{}, fiber.NewError(fiber.StatusBadRequest, "longitude must be a valid number")
	}

	params := NearbyParams{
		Latitude:             lat,
		Longitude:            lng,
		RadiusKm:             defaultRadiusKm,
		MaxDiaries:           defaultMaxDiaries,
		MaxLocationsPerDiary: defaultMaxPerDiary,
	}

	if raw := c.Query("radiusKm"); raw != "" {
		radius, err := strconv.ParseFloat(raw, 64)
		if err != nil || radius < 0.1 || radius > 100 {
			return NearbyParams{}, fiber.NewError(fiber.StatusBadRequest, "radiusKm must be between 0.1 and 100")
		}
		params.RadiusKm = radius
	}
	if raw := c.Query("maxDiaries"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 100 {
			return NearbyParams{}, fiber.NewError(fiber.StatusBadRequest, "maxDiaries must be between 1 and 100")
		}
		params.MaxDiaries = n
	}
	if raw := c.Query("maxLocationsPerDiary"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 100 {
			return NearbyParams{}, fiber.NewError(fiber.StatusBadRequest, "maxLocationsPerDiary must be between 1 and 100")
		}
		params.MaxLocationsPerDiary = n
	}
	return params, nil
}

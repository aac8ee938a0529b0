package comment

import (
	"log"
	"strconv"

	"github.com/wasuken/maptabi-new/internal/apperr"
	"github.com/wasuken/maptabi-new/internal/auth"

	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes wires the comment endpoints. They live on the app
// root because the paths span two prefixes: comments are listed and
// created under their location, but mutated by their own id.
func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Get("/locations/:locationId/comments", authMiddleware, func(c *fiber.Ctx) error {
		locationID, err := parseID(c, "locationId", "invalid location id")
		if err != nil {
			return err
		}
		comments, err := svc.ListByLocation(c.Context(), locationID)
		if err != nil {
			log.Printf("list comments for location %d: %v", locationID, err)
			return apperr.ToFiber(err, "failed to load comments")
		}
		if comments == nil {
			comments = []Comment{}
		}
		return c.JSON(comments)
	})

	r.Post("/locations/:locationId/comments", authMiddleware, func(c *fiber.Ctx) error {
		locationID, err := parseID(c, "locationId", "invalid location id")
		if err != nil {
			return err
		}
		var input Input
		if err := c.BodyParser(&input); err != nil || input.Content == "" {
			return fiber.NewError(fiber.StatusBadRequest, "content required")
		}

		userID := auth.UserID(c)
		cm, err := svc.Create(c.Context(), locationID, userID, input.Content)
		if err != nil {
			log.Printf("create comment on location %d by user %d: %v", locationID, userID, err)
			return apperr.ToFiber(err, "failed to create comment")
		}
		return c.Status(fiber.StatusCreated).JSON(cm)
	})

	r.Put("/comments/:commentId", authMiddleware, func(c *fiber.Ctx) error {
		commentID, err := parseID(c, "commentId", "invalid comment id")
		if err != nil {
			return err
		}
		var input Input
		if err := c.BodyParser(&input); err != nil || input.Content == "" {
			return fiber.NewError(fiber.StatusBadRequest, "content required")
		}

		userID := auth.UserID(c)
		cm, err := svc.Update(c.Context(), commentID, userID, input.Content)
		if err != nil {
			log.Printf("update comment %d by user %d: %v", commentID, userID, err)
			return apperr.ToFiber(err, "failed to update comment")
		}
		return c.JSON(cm)
	})

	r.Delete("/comments/:commentId", authMiddleware, func(c *fiber.Ctx) error {
		commentID, err := parseID(c, "commentId", "invalid comment id")
		if err != nil {
			return err
		}
		userID := auth.UserID(c)
		if err := svc.Delete(c.Context(), commentID, userID); err != nil {
			log.Printf("delete comment %d by user %d: %v", commentID, userID, err)
			return apperr.ToFiber(err, "failed to delete comment")
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}

func parseID(c *fiber.Ctx, name, msg string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil {
		return 0, fiber.NewError(fiber.StatusBadRequest, msg)
	}
	return id, nil
}

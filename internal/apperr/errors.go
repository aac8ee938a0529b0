// Package apperr defines the failure taxonomy shared by every service.
// Services return these sentinel values (wrapped where extra context
// helps) instead of raw pgx errors, and handlers translate them into a
// fixed HTTP status with a user-safe message. Anything that is not one
// of these sentinels is treated as a storage failure: logged with its
// full context and surfaced as a generic 500.
package apperr

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound is returned when an entity is absent or not visible to
// the requester. Handlers translate it into HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrUnauthorized is returned when an entity exists and is visible but
// the requester is not its owner or author. Handlers translate it into
// HTTP 403.
var ErrUnauthorized = errors.New("unauthorized")

// ErrDuplicateEmail is returned on registration when the email address
// is already taken. Handlers translate it into HTTP 409.
var ErrDuplicateEmail = errors.New("email already registered")

// ErrInvalidCredentials is returned on login failure. Handlers
// translate it into HTTP 401 without saying which part was wrong.
var ErrInvalidCredentials = errors.New("invalid credentials")

const uniqueViolation = "23505"

// IsUniqueViolation reports whether err is the store's unique
// constraint violation, used to map duplicate registrations onto
// ErrDuplicateEmail.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// IsNoRows reports whether err is pgx's empty-result scan error.
func IsNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// ToFiber maps a service error to a fiber error with the status the
// taxonomy prescribes. fallback is the user-safe message for anything
// unrecognized; the caller is expected to have logged the underlying
// error already.
func ToFiber(err error, fallback string) *fiber.Error {
	switch {
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, ErrNotFound.Error())
	case errors.Is(err, ErrUnauthorized):
		return fiber.NewError(fiber.StatusForbidden, ErrUnauthorized.Error())
	case errors.Is(err, ErrDuplicateEmail):
		return fiber.NewError(fiber.StatusConflict, ErrDuplicateEmail.Error())
	case errors.Is(err, ErrInvalidCredentials):
		return fiber.NewError(fiber.StatusUnauthorized, ErrInvalidCredentials.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, fallback)
	}
}

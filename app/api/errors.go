package api

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"resumerag/types"
)

func ErrorHandler(c *fiber.Ctx, err error) error {
	if apiError, ok := err.(Error); ok {
		return c.Status(apiError.Code).JSON(apiError)
	}
	if valError, ok := err.(ValidationError); ok {
		return c.Status(valError.Status).JSON(valError)
	}

	apiError := fromDomainError(err)
	slog.Error("request failed", "code", apiError.Code, "error", apiError.Message)
	return c.Status(apiError.Code).JSON(apiError)
}

// fromDomainError maps pipeline error kinds onto HTTP statuses.
func fromDomainError(err error) Error {
	switch {
	case errors.Is(err, types.ErrInvalidArgument):
		return NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, types.ErrSchemaViolation):
		return NewError(fiber.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, types.ErrEmbeddingFailure),
		errors.Is(err, types.ErrMalformedResponse):
		return NewError(fiber.StatusBadGateway, err.Error())
	case errors.Is(err, types.ErrStoreUnavailable):
		return NewError(fiber.StatusServiceUnavailable, err.Error())
	case errors.Is(err, types.ErrConfiguration):
		return NewError(fiber.StatusInternalServerError, err.Error())
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return NewError(fiberErr.Code, fiberErr.Message)
	}
	return NewError(fiber.StatusInternalServerError, err.Error())
}

type Error struct {
	Code    int    `json:"code"`
	Message string `json:"error"`
}

// Error implements the error interface
func (e Error) Error() string {
	return e.Message
}

func NewError(code int, err string) Error {
	return Error{
		Code:    code,
		Message: err,
	}
}

func ErrBadRequest() Error {
	return Error{
		Code:    fiber.StatusBadRequest,
		Message: "invalid JSON request",
	}
}

type ValidationError struct {
	Status int               `json:"status"`
	Errors map[string]string `json:"errors"`
}

func (e ValidationError) Error() string {
	return "validation failed"
}

func NewValidationError(errors map[string]string) ValidationError {
	return ValidationError{
		Status: fiber.StatusUnprocessableEntity,
		Errors: errors,
	}
}

package handlers

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/acme/lead-call-relay/pkg/errors"
)

func translateError(err error) error {
	if err == nil {
		return nil
	}
	return fiber.NewError(apperrors.StatusCode(err), err.Error())
}

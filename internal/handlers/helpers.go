package handlers

import (
	"github.com/anonto42/nano-feed/backend/internal/apperr"
	"github.com/anonto42/nano-feed/backend/internal/middleware"
	"github.com/anonto42/nano-feed/backend/internal/pagination"
	"github.com/anonto42/nano-feed/backend/validators"
	"github.com/labstack/echo/v4"
)

// getUserIDFromContext returns the caller id resolved by the identity middleware.
func getUserIDFromContext(c echo.Context) (string, error) {
	userID := middleware.UserID(c)
	if userID == "" {
		return "", apperr.Unauthorized("Authentication required")
	}
	return userID, nil
}

func pageParams(c echo.Context) (pagination.Params, error) {
	return pagination.Parse(c.QueryParam("page"), c.QueryParam("limit"))
}

// bindAndValidate binds the request body into req and runs the registered validator.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return apperr.Invalid("Invalid request payload", validators.Details(err), err)
	}
	if err := c.Validate(req); err != nil {
		return apperr.Invalid("Validation failed", validators.Details(err), err)
	}
	return nil
}

package controller

import (
	"net/http/httptest"
	"testing"

	"github.com/eduline/liveclass/internal/auth"
	"github.com/eduline/liveclass/internal/model"
	"github.com/eduline/liveclass/internal/service"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthMiddleware(t *testing.T) {
	tokens := auth.NewTokenManager("testsecret")

	app := fiber.New()
	app.Get("/me", AuthMiddleware(tokens), func(c *fiber.Ctx) error {
		actor := requestActor(c)
		return c.JSON(actor)
	})

	// Без токена — 401
	resp, err := app.Test(httptest.NewRequest("GET", "/me", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	// С мусорным токеном — 401
	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "garbage")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	// С валидным токеном — проходит
	token, err := tokens.Generate(&model.User{ID: 7, OrganizationID: 10, Role: model.RoleTeacher})
	require.NoError(t, err)

	req = httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestClassifyError(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{service.ErrUnauthenticated, fiber.StatusUnauthorized, "unauthenticated"},
		{service.ErrNotFound, fiber.StatusNotFound, "not_found"},
		{service.ErrForbidden, fiber.StatusForbidden, "forbidden"},
		{service.ErrAccessDenied, fiber.StatusForbidden, "access_denied"},
		{service.ErrChildSelectionRequired, fiber.StatusUnprocessableEntity, "child_selection_required"},
		{service.ErrSessionNotActive, fiber.StatusConflict, "session_not_active"},
		{service.ErrInvalidTransition, fiber.StatusConflict, "invalid_transition"},
		{service.ErrEditNotAllowed, fiber.StatusConflict, "edit_not_allowed"},
		{service.ErrDeleteNotAllowed, fiber.StatusConflict, "delete_not_allowed"},
		{service.ErrValidation, fiber.StatusUnprocessableEntity, "validation_error"},
		{assert.AnError, fiber.StatusInternalServerError, "internal_error"},
	}

	for _, tc := range cases {
		status, code := classifyError(tc.err)
		assert.Equal(t, tc.status, status, tc.code)
		assert.Equal(t, tc.code, code)
	}
}

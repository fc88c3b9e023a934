package middleware

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/goadmin/pkg/errors"
)

func TestErrorHandlerEnvelopesAppError(t *testing.T) {
	app := fiber.New()
	app.Use(ErrorHandler())
	app.Get("/boom", func(c *fiber.Ctx) error {
		return apperrors.Unauthenticated("Token expired")
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/boom", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, 401, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var envelope struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(body, &envelope))
	assert.NotZero(t, envelope.Code)
	assert.Equal(t, "Token expired", envelope.Message)
}

func TestErrorHandlerPassesSuccessThrough(t *testing.T) {
	app := fiber.New()
	app.Use(ErrorHandler())
	app.Get("/ok", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/ok", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, 200, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
}

package tenant

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/goadmin/pkg/enums"
	"github.com/goadmin/services/system/internal/model"
)

func newTestApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.Tenant{}))

	ctrl := NewController(NewRepositoryWithDB(db))
	app := fiber.New()
	group := app.Group(ctrl.Prefix())
	for _, route := range ctrl.Routes(nil) {
		group.Add(route.Method, route.Path, route.Handler)
	}
	return app, db
}

func seedTenant(t *testing.T, db *gorm.DB, name, website string, status enums.CommonStatus) *model.Tenant {
	t.Helper()
	tenant := &model.Tenant{
		Name:       name,
		Website:    website,
		Status:     status,
		ExpireTime: time.Now().Add(24 * time.Hour),
	}
	require.NoError(t, db.Create(tenant).Error)
	return tenant
}

func get(t *testing.T, app *fiber.App, target string) (int, map[string]json.RawMessage) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest("GET", target, nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var envelope map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(body, &envelope))
	return resp.StatusCode, envelope
}

func TestGetByWebsite(t *testing.T) {
	app, db := newTestApp(t)
	seedTenant(t, db, "acme", "acme.example.com", enums.StatusEnable)

	status, envelope := get(t, app, "/system/tenant/get-by-website?website=acme.example.com")
	require.Equal(t, 200, status)

	var tenant model.Tenant
	require.NoError(t, json.Unmarshal(envelope["data"], &tenant))
	assert.Equal(t, "acme", tenant.Name)
}

func TestGetByWebsiteDisabledHidden(t *testing.T) {
	app, db := newTestApp(t)
	seedTenant(t, db, "dormant", "dormant.example.com", enums.StatusDisable)

	status, envelope := get(t, app, "/system/tenant/get-by-website?website=dormant.example.com")
	require.Equal(t, 200, status)
	assert.Equal(t, "null", string(envelope["data"]))
}

func TestGetByWebsiteUnknown(t *testing.T) {
	app, _ := newTestApp(t)

	status, envelope := get(t, app, "/system/tenant/get-by-website?website=nobody.example.com")
	require.Equal(t, 200, status)
	assert.Equal(t, "null", string(envelope["data"]))
}

func TestGetByWebsiteMissingParam(t *testing.T) {
	app, _ := newTestApp(t)

	status, _ := get(t, app, "/system/tenant/get-by-website")
	assert.Equal(t, 400, status)
}

func TestGetIDByName(t *testing.T) {
	app, db := newTestApp(t)
	seeded := seedTenant(t, db, "acme", "acme.example.com", enums.StatusEnable)

	status, envelope := get(t, app, "/system/tenant/get-id-by-name?name=acme")
	require.Equal(t, 200, status)

	var id string
	require.NoError(t, json.Unmarshal(envelope["data"], &id))
	assert.Equal(t, seeded.ID, id)
}

func TestGetIDByNameUnknown(t *testing.T) {
	app, _ := newTestApp(t)

	status, envelope := get(t, app, "/system/tenant/get-id-by-name?name=ghost")
	require.Equal(t, 200, status)
	assert.Equal(t, "null", string(envelope["data"]))
}

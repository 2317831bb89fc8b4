package http_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apphttp "github.com/jhoicas/Licores-api/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/Licores-api/pkg/jwt"
)

const (
	testJWTSecret = "test-secret-key-for-unit-tests"
	testUserID    = "00000000-0000-0000-0000-000000000001"
	testCompanyID = "00000000-0000-0000-0000-000000000002"
	testFinYearID = "2024-25"
	testIssuer    = "licores-api-test"
	testExpMin    = 60
)

func identity(role string) pkgjwt.Identity {
	return pkgjwt.Identity{UserID: testUserID, CompanyID: testCompanyID, FinYearID: testFinYearID, Role: role}
}

func bearer(t *testing.T, id pkgjwt.Identity) string {
	t.Helper()
	tok, err := pkgjwt.Generate(testJWTSecret, id, testIssuer, testExpMin)
	require.NoError(t, err)
	return "Bearer " + tok
}

// tokenForRole token de la empresa de prueba con el rol indicado.
func tokenForRole(t *testing.T, role string) string {
	return bearer(t, identity(role))
}

// sessionApp expone la sesión armada por AuthMiddleware en /me y dos rutas con los mismos permisos
// que la API real: facturación (admin, facturador) y compras (admin, bodeguero).
func sessionApp() *fiber.App {
	app := fiber.New()
	auth := apphttp.AuthMiddleware(testJWTSecret)
	ok := func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) }

	app.Get("/me", auth, func(c *fiber.Ctx) error {
		rc := apphttp.RequestContext(c)
		return c.JSON(fiber.Map{
			"user_id":    rc.UserID,
			"company_id": rc.CompanyID,
			"fin_year":   rc.FinYearID,
			"role":       apphttp.GetRole(c),
		})
	})
	app.Post("/billing", auth, apphttp.RequireRole(apphttp.RoleAdmin, apphttp.RoleFacturador), ok)
	app.Post("/purchases", auth, apphttp.RequireRole(apphttp.RoleAdmin, apphttp.RoleBodeguero), ok)
	return app
}

func send(t *testing.T, app *fiber.App, method, path, authHeader string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestRequireRole_MatrizDePermisos(t *testing.T) {
	app := sessionApp()
	cases := []struct {
		role string
		path string
		want int
	}{
		{apphttp.RoleAdmin, "/billing", http.StatusNoContent},
		{apphttp.RoleFacturador, "/billing", http.StatusNoContent},
		{apphttp.RoleBodeguero, "/billing", http.StatusForbidden},
		{apphttp.RoleAdmin, "/purchases", http.StatusNoContent},
		{apphttp.RoleBodeguero, "/purchases", http.StatusNoContent},
		{apphttp.RoleFacturador, "/purchases", http.StatusForbidden},
		{"auditor", "/billing", http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.role+tc.path, func(t *testing.T) {
			status, body := send(t, app, http.MethodPost, tc.path, tokenForRole(t, tc.role))
			assert.Equal(t, tc.want, status)
			if tc.want == http.StatusForbidden {
				assert.Contains(t, body, "FORBIDDEN")
			}
		})
	}
}

func TestAuthMiddleware_Rechazos(t *testing.T) {
	app := sessionApp()
	noCompany := identity(apphttp.RoleAdmin)
	noCompany.CompanyID = ""

	cases := []struct {
		name   string
		header string
		code   string
	}{
		{"sin header", "", "MISSING_TOKEN"},
		{"sin esquema bearer", "Token abc", "INVALID_TOKEN"},
		{"token malformado", "Bearer token.invalido.aqui", "INVALID_TOKEN"},
		{"sin empresa", bearer(t, noCompany), "MISSING_COMPANY"},
		{"sin rol", tokenForRole(t, ""), "MISSING_ROLE"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := send(t, app, http.MethodPost, "/billing", tc.header)
			assert.Equal(t, http.StatusUnauthorized, status)
			assert.Contains(t, body, tc.code)
		})
	}
}

func TestAuthMiddleware_ArmaSesion(t *testing.T) {
	status, raw := send(t, sessionApp(), http.MethodGet, "/me", tokenForRole(t, apphttp.RoleBodeguero))
	require.Equal(t, http.StatusOK, status)

	var body map[string]string
	require.NoError(t, json.Unmarshal([]byte(raw), &body))
	assert.Equal(t, testUserID, body["user_id"])
	assert.Equal(t, testCompanyID, body["company_id"])
	assert.Equal(t, testFinYearID, body["fin_year"])
	assert.Equal(t, apphttp.RoleBodeguero, body["role"])
}

func TestJWT_GenerateYParse(t *testing.T) {
	tok, err := pkgjwt.Generate(testJWTSecret, identity(apphttp.RoleFacturador), testIssuer, testExpMin)
	require.NoError(t, err)

	claims, err := pkgjwt.Parse(testJWTSecret, tok)
	require.NoError(t, err)
	assert.Equal(t, testUserID, claims.UserID)
	assert.Equal(t, testUserID, claims.Subject)
	assert.Equal(t, testCompanyID, claims.CompanyID)
	assert.Equal(t, testFinYearID, claims.FinYearID)
	assert.Equal(t, apphttp.RoleFacturador, claims.Role)
	assert.Equal(t, testIssuer, claims.Issuer)
}

func TestJWT_TokensInvalidos(t *testing.T) {
	expired, err := pkgjwt.Generate(testJWTSecret, identity(apphttp.RoleAdmin), testIssuer, -1)
	require.NoError(t, err)
	_, err = pkgjwt.Parse(testJWTSecret, expired)
	assert.Error(t, err, "expirado")

	valid, err := pkgjwt.Generate(testJWTSecret, identity(apphttp.RoleAdmin), testIssuer, testExpMin)
	require.NoError(t, err)
	_, err = pkgjwt.Parse("otro-secret", valid)
	assert.Error(t, err, "firma con otro secret")

	_, err = pkgjwt.Generate("", identity(apphttp.RoleAdmin), testIssuer, testExpMin)
	assert.Error(t, err, "secret vacío")
}

package admin

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"fvivu/internal/shared/middleware"
	"fvivu/internal/users"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(f *fixture) *gin.Engine {
	gin.SetMode(gin.TestMode)
	ctrl := NewController(f.svc)
	r := gin.New()
	asAdmin := func(c *gin.Context) {
		c.Set(middleware.ContextUserID, f.admin.ID.String())
		c.Set(middleware.ContextUserRole, string(users.RoleAdmin))
	}
	g := r.Group("/admin", asAdmin)
	g.GET("/users", ctrl.ListUsers)
	g.PATCH("/users/:id/ban", ctrl.BanUser)
	g.POST("/partners", ctrl.CreatePartner)
	g.GET("/tours/pending", ctrl.ListPendingTours)
	g.PATCH("/tours/:id/approve", ctrl.ReviewTour)
	return r
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Status     string          `json:"status"`
	StatusCode int             `json:"statusCode"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestListUsersEndpoint(t *testing.T) {
	f := newFixture()
	r := newTestRouter(f)

	w := do(r, http.MethodGet, "/admin/users?role=CUSTOMER&page=1&limit=5", "")
	require.Equal(t, http.StatusOK, w.Code)

	var page struct {
		Items []struct {
			Email string `json:"email"`
		} `json:"items"`
		Pagination struct {
			Total int64 `json:"total"`
			Limit int   `json:"limit"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &page))
	require.Len(t, page.Items, 1)
	assert.Equal(t, "an@example.com", page.Items[0].Email)
	assert.EqualValues(t, 1, page.Pagination.Total)
	assert.Equal(t, 5, page.Pagination.Limit)

	w = do(r, http.MethodGet, "/admin/users?active=maybe", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreatePartnerEndpoint(t *testing.T) {
	f := newFixture()
	r := newTestRouter(f)

	w := do(r, http.MethodPost, "/admin/partners", `{"name":"Lan Pham","email":"lan@travel.vn"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.NotContains(t, w.Body.String(), f.notifier.sent[0].password)

	w = do(r, http.MethodPost, "/admin/partners", `{"name":"Lan Pham","email":"not-an-email"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/admin/partners", `{"name":"Lan Again","email":"lan@travel.vn"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestReviewTourEndpoint(t *testing.T) {
	f := newFixture()
	r := newTestRouter(f)
	path := "/admin/tours/" + f.tour.ID.String() + "/approve"

	w := do(r, http.MethodGet, "/admin/tours/pending", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), f.tour.ID.String())

	w = do(r, http.MethodPatch, path, `{"decision":"maybe"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPatch, path, `{"decision":"ACTIVE"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(decode(t, w).Data), `"status":"ACTIVE"`)

	w = do(r, http.MethodPatch, path, `{"decision":"INACTIVE"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(r, http.MethodGet, "/admin/tours/pending?partnerId=xyz", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBanUserEndpoint(t *testing.T) {
	f := newFixture()
	r := newTestRouter(f)

	w := do(r, http.MethodPatch, "/admin/users/"+f.partner.ID.String()+"/ban", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(decode(t, w).Data), `"active":false`)

	w = do(r, http.MethodPatch, "/admin/users/"+f.admin.ID.String()+"/ban", "")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

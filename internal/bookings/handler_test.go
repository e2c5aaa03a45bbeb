package bookings

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/brightpath-tutoring/backend/internal/availability"
)

func bookingRouter(f *fixture) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(f.svc, nil)
	r := gin.New()
	r.POST("/bookings", h.Create)
	r.GET("/admin/bookings", h.List)
	r.GET("/admin/bookings/:id", h.Get)
	r.POST("/admin/bookings/:id/payments", h.RecordPayment)
	return r
}

func serve(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandlerCreate_StatusCodes(t *testing.T) {
	t.Run("bookings closed", func(t *testing.T) {
		f := newFixture(false)
		w := serve(bookingRouter(f), http.MethodPost, "/bookings", `{}`)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		f := newFixture(true)
		w := serve(bookingRouter(f), http.MethodPost, "/bookings", `{"block_id":`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("full block reports places", func(t *testing.T) {
		f := newFixture(true)
		block := openBlock()
		f.checker.On("Check", mock.Anything, block.ID).Return(block, availability.Result{Available: false, SpotsRemaining: 0}, nil)
		body := `{"block_id":"` + block.ID.String() + `","parent_name":"Sam","parent_email":"sam@example.com","child_name":"Alex"}`
		w := serve(bookingRouter(f), http.MethodPost, "/bookings", body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), `"spots_remaining":0`)
	})

	t.Run("unknown block", func(t *testing.T) {
		f := newFixture(true)
		id := uuid.New()
		f.checker.On("Check", mock.Anything, id).Return(nil, availability.Result{}, availability.ErrBlockNotFound)
		body := `{"block_id":"` + id.String() + `","parent_name":"Sam","parent_email":"sam@example.com","child_name":"Alex"}`
		w := serve(bookingRouter(f), http.MethodPost, "/bookings", body)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestHandlerGet_NotFound(t *testing.T) {
	f := newFixture(true)
	id := uuid.New()
	f.repo.On("GetByID", mock.Anything, id).Return(nil, nil)
	w := serve(bookingRouter(f), http.MethodGet, "/admin/bookings/"+id.String(), "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = serve(bookingRouter(f), http.MethodGet, "/admin/bookings/nope", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandlerList_InvalidFilter(t *testing.T) {
	f := newFixture(true)
	w := serve(bookingRouter(f), http.MethodGet, "/admin/bookings?block_id=xyz", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandlerRecordPayment_Negative(t *testing.T) {
	f := newFixture(true)
	w := serve(bookingRouter(f), http.MethodPost, "/admin/bookings/"+uuid.NewString()+"/payments", `{"amount":"-10"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"amount"`)
}

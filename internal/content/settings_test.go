package content

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightpath-tutoring/backend/internal/clock"
	"github.com/brightpath-tutoring/backend/pkg/storage"
)

type memObjects struct {
	data  map[string][]byte
	err   error
	reads int
}

func (m *memObjects) Get(ctx context.Context, key string) ([]byte, error) {
	m.reads++
	if m.err != nil {
		return nil, m.err
	}
	b, ok := m.data[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return b, nil
}

func (m *memObjects) Put(ctx context.Context, key, contentType string, body []byte) error {
	if m.err != nil {
		return m.err
	}
	m.data[key] = body
	return nil
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoad_SourceOrder(t *testing.T) {
	ctx := context.Background()
	file := writeFile(t, `{"bookings_open":false,"currency":"EUR"}`)

	t.Run("defaults", func(t *testing.T) {
		r := NewReader(ReaderConfig{}, nil)
		assert.Equal(t, DefaultSettings(), r.Load(ctx))
	})

	t.Run("file keeps unset defaults", func(t *testing.T) {
		r := NewReader(ReaderConfig{File: writeFile(t, `{"bookings_open":false}`)}, nil)
		s := r.Load(ctx)
		assert.False(t, s.BookingsOpen)
		assert.Equal(t, "GBP", s.Currency)
	})

	t.Run("object wins over file", func(t *testing.T) {
		objects := &memObjects{data: map[string][]byte{"settings.json": []byte(`{"bookings_open":true,"currency":"USD"}`)}}
		r := NewReader(ReaderConfig{Objects: objects, Key: "settings.json", File: file}, nil)
		assert.Equal(t, "USD", r.Load(ctx).Currency)
	})

	t.Run("object error falls back to file", func(t *testing.T) {
		objects := &memObjects{err: errors.New("timeout")}
		r := NewReader(ReaderConfig{Objects: objects, Key: "settings.json", File: file}, nil)
		assert.Equal(t, "EUR", r.Load(ctx).Currency)
	})

	t.Run("invalid file falls back to defaults", func(t *testing.T) {
		r := NewReader(ReaderConfig{File: writeFile(t, `{"currency":"pounds"}`)}, nil)
		assert.Equal(t, DefaultSettings(), r.Load(ctx))
	})

	t.Run("missing file", func(t *testing.T) {
		r := NewReader(ReaderConfig{File: filepath.Join(t.TempDir(), "absent.json")}, nil)
		assert.Equal(t, DefaultSettings(), r.Load(ctx))
	})
}

func TestLoad_Caches(t *testing.T) {
	clk := clock.NewFake(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	objects := &memObjects{data: map[string][]byte{"k": []byte(`{"bookings_open":false,"currency":"GBP"}`)}}
	r := NewReader(ReaderConfig{Objects: objects, Key: "k", CacheTTL: time.Minute, Clock: clk}, nil)

	assert.False(t, r.BookingsOpen(context.Background()))
	objects.data["k"] = []byte(`{"bookings_open":true,"currency":"GBP"}`)
	assert.False(t, r.BookingsOpen(context.Background()))
	assert.Equal(t, 1, objects.reads)

	clk.Advance(time.Minute)
	assert.True(t, r.BookingsOpen(context.Background()))
	assert.Equal(t, 2, objects.reads)
}

func TestLoad_ObjectStoreErrorKeepsLastGoodSettings(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewFake(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	objects := &memObjects{data: map[string][]byte{}}
	r := NewReader(ReaderConfig{Objects: objects, Key: "k", CacheTTL: time.Minute, Clock: clk}, nil)

	require.NoError(t, r.Save(ctx, Settings{BookingsOpen: false, Currency: "GBP"}))
	clk.Advance(2 * time.Minute)
	objects.err = errors.New("503 slow down")

	assert.False(t, r.BookingsOpen(ctx))
	assert.Equal(t, 1, objects.reads)

	// retried once the kept copy has aged another TTL
	assert.False(t, r.BookingsOpen(ctx))
	assert.Equal(t, 1, objects.reads)
	clk.Advance(time.Minute)
	objects.err = nil
	objects.data["k"] = []byte(`{"bookings_open":true,"currency":"GBP"}`)
	assert.True(t, r.BookingsOpen(ctx))
	assert.Equal(t, 2, objects.reads)
}

type slowObjects struct {
	entered chan struct{}
	release chan struct{}
	body    []byte
}

func (s *slowObjects) Get(ctx context.Context, key string) ([]byte, error) {
	s.entered <- struct{}{}
	<-s.release
	return s.body, nil
}

func (s *slowObjects) Put(ctx context.Context, key, contentType string, body []byte) error {
	s.body = body
	return nil
}

func TestLoad_RefreshDoesNotBlockReaders(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewFake(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	objects := &slowObjects{entered: make(chan struct{}, 1), release: make(chan struct{})}
	r := NewReader(ReaderConfig{Objects: objects, Key: "k", CacheTTL: time.Minute, Clock: clk}, nil)
	require.NoError(t, r.Save(ctx, Settings{BookingsOpen: false, Currency: "GBP"}))
	objects.body = []byte(`{"bookings_open":true,"currency":"GBP"}`)
	clk.Advance(2 * time.Minute)

	done := make(chan Settings)
	go func() { done <- r.Load(ctx) }()
	<-objects.entered

	// the refresh is stuck in Get; other readers get the cached copy
	assert.False(t, r.BookingsOpen(ctx))

	close(objects.release)
	assert.True(t, (<-done).BookingsOpen)
	assert.True(t, r.BookingsOpen(ctx))
}

func TestSave(t *testing.T) {
	ctx := context.Background()

	r := NewReader(ReaderConfig{}, nil)
	assert.ErrorIs(t, r.Save(ctx, DefaultSettings()), ErrNotWritable)

	objects := &memObjects{data: map[string][]byte{}}
	r = NewReader(ReaderConfig{Objects: objects, Key: "k", CacheTTL: time.Hour}, nil)
	assert.ErrorIs(t, r.Save(ctx, Settings{Currency: "x"}), ErrInvalidSettings)

	want := Settings{BookingsOpen: false, Currency: "GBP", ContactEmail: "hello@example.com"}
	require.NoError(t, r.Save(ctx, want))
	assert.Contains(t, string(objects.data["k"]), `"contact_email": "hello@example.com"`)
	assert.Equal(t, want, r.Load(ctx))
}

func TestHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	do := func(h *Handler, method, body string) *httptest.ResponseRecorder {
		r := gin.New()
		r.GET("/settings", h.Get)
		r.PUT("/admin/settings", h.Update)
		req := httptest.NewRequest(method, map[string]string{http.MethodGet: "/settings", http.MethodPut: "/admin/settings"}[method], strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	readOnly := NewHandler(NewReader(ReaderConfig{}, nil), nil)
	w := do(readOnly, http.MethodGet, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"bookings_open":true`)

	w = do(readOnly, http.MethodPut, `{"bookings_open":false,"currency":"GBP"}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	writable := NewHandler(NewReader(ReaderConfig{Objects: &memObjects{data: map[string][]byte{}}, Key: "k"}, nil), nil)
	w = do(writable, http.MethodPut, `{"bookings_open":false,"currency":"GB"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"currency":"len=3"`)

	w = do(writable, http.MethodPut, `{"bookings_open":false,"currency":"GBP"}`)
	assert.Equal(t, http.StatusOK, w.Code)
}

// Package content serves editable site settings. Settings come from the content bucket
// when configured, then a local JSON file, then built-in defaults.
package content

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/brightpath-tutoring/backend/internal/clock"
	"github.com/brightpath-tutoring/backend/internal/fallback"
	"github.com/brightpath-tutoring/backend/pkg/storage"
	"github.com/brightpath-tutoring/backend/pkg/validator"
)

var (
	ErrNotWritable     = errors.New("settings storage is not configured")
	ErrInvalidSettings = errors.New("invalid settings")
)

// Settings are the site-wide switches editable from the admin area.
type Settings struct {
	BookingsOpen bool   `json:"bookings_open"`
	Currency     string `json:"currency" validate:"required,len=3,alpha"`
	ContactEmail string `json:"contact_email" validate:"omitempty,email"`
	Notice       string `json:"notice,omitempty" validate:"max=500"`
}

// DefaultSettings is served when no source is available.
func DefaultSettings() Settings {
	return Settings{BookingsOpen: true, Currency: "GBP"}
}

// ObjectStore reads and writes raw objects. *storage.S3 implements it.
type ObjectStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key, contentType string, body []byte) error
}

// ReaderConfig configures a Reader. Objects and File are optional.
type ReaderConfig struct {
	Objects  ObjectStore
	Key      string
	File     string
	CacheTTL time.Duration
	Clock    clock.Clock
}

// Reader loads settings and caches them for CacheTTL.
type Reader struct {
	cfg    ReaderConfig
	logger *zap.Logger

	mu         sync.Mutex
	cached     *Settings
	cachedAt   time.Time
	source     string
	refreshing bool
	saves      uint64
}

// NewReader creates a settings reader.
func NewReader(cfg ReaderConfig, logger *zap.Logger) *Reader {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real{}
	}
	return &Reader{cfg: cfg, logger: logger}
}

// Load returns the current settings. It never fails; defaults are the last source.
// Sources are read without holding the lock, and while one caller refreshes the others
// are served the cached copy. When the object store errors the last good copy is kept.
func (r *Reader) Load(ctx context.Context) Settings {
	r.mu.Lock()
	now := r.cfg.Clock.Now()
	if r.cached != nil && (r.refreshing || now.Sub(r.cachedAt) < r.cfg.CacheTTL) {
		s := *r.cached
		r.mu.Unlock()
		return s
	}
	var stale *Settings
	if r.cached != nil {
		cp := *r.cached
		stale = &cp
	}
	saves := r.saves
	r.refreshing = true
	r.mu.Unlock()

	s, source, err := r.fetch(ctx, stale)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.refreshing = false
	if r.saves != saves {
		// Saved while fetching; the fetch may have read the old object.
		return *r.cached
	}
	if err != nil {
		// Only a cancelled context gets here.
		r.logger.Warn("load settings", zap.Error(err))
		if r.cached != nil {
			return *r.cached
		}
		return DefaultSettings()
	}
	if source == "cache" {
		r.logger.Warn("serving cached site settings", zap.String("source", r.source))
		r.cachedAt = now
		return s
	}
	if source != r.source {
		r.logger.Info("site settings loaded", zap.String("source", source))
	}
	r.cached, r.cachedAt, r.source = &s, now, source
	return s
}

// fetch walks the sources. A failing object store yields stale, when there is one,
// ahead of the file and the defaults.
func (r *Reader) fetch(ctx context.Context, stale *Settings) (Settings, string, error) {
	remoteFailed := false
	return fallback.First(ctx,
		fallback.Provider[Settings]{Name: "s3", Fetch: func(ctx context.Context) (Settings, error) {
			s, err := r.fromObjects(ctx)
			if err != nil && !errors.Is(err, fallback.ErrSkip) {
				remoteFailed = true
			}
			return s, err
		}},
		fallback.Provider[Settings]{Name: "cache", Fetch: func(context.Context) (Settings, error) {
			if stale == nil || !remoteFailed {
				return Settings{}, fallback.ErrSkip
			}
			return *stale, nil
		}},
		fallback.Provider[Settings]{Name: "file", Fetch: r.fromFile},
		fallback.Provider[Settings]{Name: "defaults", Fetch: func(context.Context) (Settings, error) {
			return DefaultSettings(), nil
		}},
	)
}

// BookingsOpen reports whether new bookings are accepted.
func (r *Reader) BookingsOpen(ctx context.Context) bool {
	return r.Load(ctx).BookingsOpen
}

// Save validates s and writes it to the object store, replacing the cached copy.
func (r *Reader) Save(ctx context.Context, s Settings) error {
	if r.cfg.Objects == nil {
		return ErrNotWritable
	}
	if fields := validator.Validate(s); fields != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSettings, fields)
	}
	body, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	if err := r.cfg.Objects.Put(ctx, r.cfg.Key, "application/json", body); err != nil {
		return err
	}
	r.mu.Lock()
	r.cached, r.cachedAt, r.source = &s, r.cfg.Clock.Now(), "s3"
	r.saves++
	r.mu.Unlock()
	return nil
}

func (r *Reader) fromObjects(ctx context.Context) (Settings, error) {
	if r.cfg.Objects == nil {
		return Settings{}, fallback.ErrSkip
	}
	raw, err := r.cfg.Objects.Get(ctx, r.cfg.Key)
	if errors.Is(err, storage.ErrObjectNotFound) {
		return Settings{}, fallback.ErrSkip
	}
	if err != nil {
		r.logger.Warn("settings object unavailable", zap.String("key", r.cfg.Key), zap.Error(err))
		return Settings{}, err
	}
	return r.parse(raw, "s3")
}

func (r *Reader) fromFile(context.Context) (Settings, error) {
	if r.cfg.File == "" {
		return Settings{}, fallback.ErrSkip
	}
	raw, err := os.ReadFile(r.cfg.File)
	if errors.Is(err, fs.ErrNotExist) {
		return Settings{}, fallback.ErrSkip
	}
	if err != nil {
		r.logger.Warn("settings file unreadable", zap.String("path", r.cfg.File), zap.Error(err))
		return Settings{}, err
	}
	return r.parse(raw, "file")
}

// parse decodes over the defaults so absent fields keep their default value.
func (r *Reader) parse(raw []byte, source string) (Settings, error) {
	s := DefaultSettings()
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&s); err != nil {
		r.logger.Warn("settings malformed", zap.String("source", source), zap.Error(err))
		return Settings{}, fmt.Errorf("decode: %w", err)
	}
	if fields := validator.Validate(s); fields != nil {
		r.logger.Warn("settings rejected", zap.String("source", source), zap.Any("fields", fields))
		return Settings{}, fmt.Errorf("%w: %v", ErrInvalidSettings, fields)
	}
	return s, nil
}

// Package service provides the business logic layer over the repositories:
// source management with API client caching, catalog browsing through the
// navigation tree, favorites, and watch history.
package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/jwhitfield/ottarr/internal/config"
	"github.com/jwhitfield/ottarr/internal/models"
	"github.com/jwhitfield/ottarr/internal/repository"
	ottarrsync "github.com/jwhitfield/ottarr/internal/sync"
	"github.com/jwhitfield/ottarr/pkg/httpclient"
	"github.com/jwhitfield/ottarr/pkg/xtream"
)

// SourceManager manages configured sources and hands out an authenticated
// API client for the active one. The client is cached per active source;
// switching sources invalidates it, forcing re-authentication on the next
// sync.
type SourceManager struct {
	sources repository.SourceRepository
	cfg     config.SyncConfig
	logger  *slog.Logger

	mu       sync.Mutex
	cachedID models.ULID
	client   *xtream.Client
}

// NewSourceManager creates a source manager.
func NewSourceManager(sources repository.SourceRepository, cfg config.SyncConfig) *SourceManager {
	return &SourceManager{
		sources: sources,
		cfg:     cfg,
		logger:  slog.Default(),
	}
}

// WithLogger sets the logger for the manager.
func (m *SourceManager) WithLogger(logger *slog.Logger) *SourceManager {
	m.logger = logger
	return m
}

// Create validates and persists a new source.
func (m *SourceManager) Create(ctx context.Context, source *models.Source) error {
	if err := source.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	if err := m.sources.Create(ctx, source); err != nil {
		return fmt.Errorf("creating source: %w", err)
	}

	m.logger.Info("created source",
		"id", source.ID.String(),
		"name", source.Name,
	)
	return nil
}

// Update persists changes to an existing source and invalidates any cached
// client for it, since credentials or the URL may have changed.
func (m *SourceManager) Update(ctx context.Context, source *models.Source) error {
	if err := source.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	if err := m.sources.Update(ctx, source); err != nil {
		return fmt.Errorf("updating source: %w", err)
	}

	m.invalidate(source.ID)
	m.logger.Info("updated source", "id", source.ID.String(), "name", source.Name)
	return nil
}

// Get retrieves one source by id.
func (m *SourceManager) Get(ctx context.Context, id models.ULID) (*models.Source, error) {
	return m.sources.GetByID(ctx, id)
}

// List returns all configured sources.
func (m *SourceManager) List(ctx context.Context) ([]*models.Source, error) {
	return m.sources.GetAll(ctx)
}

// Delete removes a source and all its cached content.
func (m *SourceManager) Delete(ctx context.Context, id models.ULID) error {
	if err := m.sources.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting source: %w", err)
	}
	m.invalidate(id)
	m.logger.Info("deleted source", "id", id.String())
	return nil
}

// SetActive makes the given source the single active one and invalidates
// the cached client so the next sync re-authenticates against it.
func (m *SourceManager) SetActive(ctx context.Context, id models.ULID) error {
	if err := m.sources.SetActive(ctx, id); err != nil {
		return err
	}

	m.mu.Lock()
	m.cachedID = models.ULID{}
	m.client = nil
	m.mu.Unlock()

	m.logger.Info("switched active source", "id", id.String())
	return nil
}

// Active returns the currently active source and a content client for it,
// implementing the provider contract the sync engines consume.
func (m *SourceManager) Active(ctx context.Context) (*models.Source, ottarrsync.ContentSource, error) {
	source, err := m.sources.GetActive(ctx)
	if err != nil {
		return nil, nil, err
	}
	if source == nil {
		return nil, nil, models.ErrNoActiveSource
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.client == nil || m.cachedID != source.ID {
		m.client = m.newClient(source)
		m.cachedID = source.ID
		m.logger.Debug("built API client", "source_id", source.ID.String())
	}

	return source, &xtreamContentSource{client: m.client}, nil
}

// ReportSyncError records the last sync error on the source row.
func (m *SourceManager) ReportSyncError(ctx context.Context, id models.ULID, syncErr error) {
	msg := ""
	if syncErr != nil {
		msg = syncErr.Error()
	}
	if err := m.sources.UpdateLastError(ctx, id, msg); err != nil {
		m.logger.Warn("recording sync error failed", "error", err.Error())
	}
}

func (m *SourceManager) newClient(source *models.Source) *xtream.Client {
	resilient := httpclient.New(httpclient.Config{
		Timeout:       m.cfg.HTTPTimeout,
		RetryAttempts: 1, // the sync engine owns the retry policy
		Logger:        m.logger,
	})
	opts := []xtream.ClientOption{xtream.WithHTTPClient(resilient.StandardClient())}
	if source.UserAgent != "" {
		opts = append(opts, xtream.WithUserAgent(source.UserAgent))
	}
	return xtream.NewClient(source.URL, source.Username, source.Password, opts...)
}

func (m *SourceManager) invalidate(id models.ULID) {
	m.mu.Lock()
	if m.cachedID == id {
		m.cachedID = models.ULID{}
		m.client = nil
	}
	m.mu.Unlock()
}

// xtreamContentSource adapts the Xtream API client to the content source
// contract the sync engines consume.
type xtreamContentSource struct {
	client *xtream.Client
}

func (s *xtreamContentSource) Authenticate(ctx context.Context) error {
	info, err := s.client.GetAuthInfo(ctx)
	if err != nil {
		return fmt.Errorf("authenticating: %w", err)
	}
	if !info.UserInfo.IsAuthenticated() {
		return models.ErrAuthenticationFailed
	}
	return nil
}

func (s *xtreamContentSource) FetchCategories(ctx context.Context, contentType models.ContentType) ([]xtream.Category, error) {
	switch contentType {
	case models.ContentTypeLive:
		return s.client.GetLiveCategories(ctx)
	case models.ContentTypeMovie:
		return s.client.GetVODCategories(ctx)
	case models.ContentTypeSeries:
		return s.client.GetSeriesCategories(ctx)
	default:
		return nil, fmt.Errorf("%w: %q", models.ErrInvalidContentType, contentType)
	}
}

func (s *xtreamContentSource) FetchItems(ctx context.Context, contentType models.ContentType) (io.ReadCloser, error) {
	switch contentType {
	case models.ContentTypeLive:
		return s.client.GetLiveStreamsReader(ctx)
	case models.ContentTypeMovie:
		return s.client.GetVODStreamsReader(ctx)
	case models.ContentTypeSeries:
		return s.client.GetSeriesReader(ctx)
	default:
		return nil, fmt.Errorf("%w: %q", models.ErrInvalidContentType, contentType)
	}
}

var _ ottarrsync.SourceProvider = (*SourceManager)(nil)

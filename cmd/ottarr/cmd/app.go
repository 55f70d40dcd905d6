package cmd

import (
	"fmt"
	"log/slog"

	"github.com/jwhitfield/ottarr/internal/config"
	"github.com/jwhitfield/ottarr/internal/database"
	"github.com/jwhitfield/ottarr/internal/models"
	"github.com/jwhitfield/ottarr/internal/netgate"
	"github.com/jwhitfield/ottarr/internal/repository"
	"github.com/jwhitfield/ottarr/internal/service"
	ottarrsync "github.com/jwhitfield/ottarr/internal/sync"
)

// appRuntime bundles the wired core of the application: database,
// services, the state bus, and one sync engine per content type. It is
// shared between the serve and sync commands.
type appRuntime struct {
	db          *database.DB
	sources     repository.SourceRepository
	manager     *service.SourceManager
	content     *service.ContentService
	library     *service.LibraryService
	bus         *ottarrsync.Bus
	coordinator *ottarrsync.Coordinator
}

// buildRuntime opens the database, runs migrations, and wires the
// repositories, services, and sync engines together.
func buildRuntime(cfg *config.Config, logger *slog.Logger) (*appRuntime, error) {
	db, err := database.New(cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("initializing database: %w", err)
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	sources := repository.NewSourceRepository(db.DB)
	items := repository.NewContentItemRepository(db.DB)
	cats := repository.NewCategoryRepository(db.DB)
	meta := repository.NewCacheMetadataRepository(db.DB)
	favorites := repository.NewFavoriteRepository(db.DB)
	history := repository.NewWatchHistoryRepository(db.DB)

	manager := service.NewSourceManager(sources, cfg.Sync).WithLogger(logger)
	content := service.NewContentService(items, cats).WithLogger(logger)
	library := service.NewLibraryService(favorites, history, items).WithLogger(logger)

	bus := ottarrsync.NewBus(logger)
	gate := netgate.FromConfig(cfg.NetGate.RequireTunnel, logger)

	engines := make([]*ottarrsync.Engine, 0, len(models.AllContentTypes))
	for _, ct := range models.AllContentTypes {
		engines = append(engines, ottarrsync.NewEngine(ottarrsync.EngineDeps{
			ContentType: ct,
			Config:      cfg.Sync,
			Provider:    manager,
			Items:       items,
			Categories:  cats,
			Meta:        meta,
			Gate:        gate,
			Bus:         bus,
			Recompute:   content.RecomputeCounts,
			Logger:      logger,
		}))
	}

	return &appRuntime{
		db:          db,
		sources:     sources,
		manager:     manager,
		content:     content,
		library:     library,
		bus:         bus,
		coordinator: ottarrsync.NewCoordinator(engines, logger),
	}, nil
}

// Close releases the runtime's resources.
func (a *appRuntime) Close() error {
	return a.db.Close()
}

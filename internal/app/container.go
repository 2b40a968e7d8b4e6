package app

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/castmeta/mediawiki-scraper/internal/config"
	"github.com/castmeta/mediawiki-scraper/internal/domain"
	"github.com/castmeta/mediawiki-scraper/internal/service"
	"github.com/castmeta/mediawiki-scraper/internal/service/cache"
)

// Container bundles the assembled scrape pipeline and its shared resources.
type Container struct {
	Config    *config.Config
	Logger    *zap.Logger
	Assembler *service.PerformerAssembler

	closers []func()
}

// Close releases held resources in reverse construction order.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

// Build assembles all services. Heavy-weight initialization (the cache tier)
// happens here so the pipeline constructors stay focused on behavior.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (container *Container, err error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var closers []func()
	defer func() {
		if err != nil {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
		}
	}()

	// Cache tier: Redis when configured, in-process otherwise. A Redis that
	// will not answer degrades to the memory store rather than failing the run.
	var store cache.Store = cache.NewMemoryStore()
	if cfg.Redis.Enabled {
		redisStore, redisErr := cache.NewRedisStore(cache.RedisConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, logger)
		if redisErr != nil {
			logger.Warn("Redis unavailable, falling back to in-process cache",
				zap.Error(redisErr))
		} else {
			store = redisStore
			closers = append(closers, func() {
				_ = redisStore.Close()
			})
		}
	}

	httpClient := &http.Client{Timeout: cfg.HTTP.Timeout}
	client := service.NewAPIClient(httpClient, cfg.HTTP.RetryAttempts, logger)

	discovery := service.NewDiscoveryService(client, store, logger)
	parser := service.NewContentParser(client, store, cfg.Scraper.ExtractCategories, logger)

	table := domain.NewAliasTable(domain.AliasTableOptions{
		MapRaceToEthnicity:          cfg.Scraper.MapRaceToEthnicity,
		MapUniverseToDisambiguation: cfg.Scraper.MapUniverseToDisambiguation,
	})
	extractor := service.NewFieldExtractor(table, logger)
	converter := service.NewConverter(cfg.Scraper)
	images := service.NewImageExtractor(client, cfg.Scraper.ProbeImages, logger)

	assembler := service.NewPerformerAssembler(discovery, parser, extractor, converter, images, cfg.Scraper, logger)

	return &Container{
		Config:    cfg,
		Logger:    logger,
		Assembler: assembler,
		closers:   closers,
	}, nil
}

// Package di wires the service's components together for the server binary.
package di

import (
	"context"
	"net/http"

	"github.com/charmbracelet/log"

	"github.com/buzzbrief/buzzbrief/brief"
	"github.com/buzzbrief/buzzbrief/cache"
	"github.com/buzzbrief/buzzbrief/internal/config"
	"github.com/buzzbrief/buzzbrief/pool"
	"github.com/buzzbrief/buzzbrief/server"
	"github.com/buzzbrief/buzzbrief/speech"
	"github.com/buzzbrief/buzzbrief/store"
	"github.com/buzzbrief/buzzbrief/storecache"
	"github.com/buzzbrief/buzzbrief/summarize"
)

// Container owns the process-scoped singletons: the connection pool, the
// article read cache, and the services built on them.
type Container struct {
	cfg      config.Config
	log      *log.Logger
	pool     *pool.Pool
	articles *storecache.CachedArticles
	briefs   *brief.Service
	server   *server.Server
}

// New builds the full object graph. The pool is created (and probed) here
// exactly once; pool creation failure fails container construction.
func New(ctx context.Context, cfg config.Config, logger *log.Logger) (*Container, error) {
	if logger == nil {
		logger = log.Default()
	}

	p, err := pool.New(ctx, pool.Config{
		DSN:            cfg.DatabaseURL,
		MinConns:       cfg.PoolMinConns,
		MaxConns:       cfg.PoolMaxConns,
		AcquireTimeout: cfg.PoolAcquireTimeout,
		MaxIdleTime:    cfg.PoolMaxIdleTime,
		CommandTimeout: cfg.CommandTimeout,
	}, logger)
	if err != nil {
		return nil, err
	}

	cacheCfg := cache.DefaultConfig()
	cacheCfg.Capacity = cfg.ArticleCacheCapacity
	cacheCfg.TTL = cfg.ArticleCacheTTL
	cacheService, err := cache.NewCacheService(cacheCfg)
	if err != nil {
		p.Close()
		return nil, err
	}

	articles := storecache.New(store.NewArticleStore(p), cacheService, cache.NewDefaultKeySerializer())

	synth := speech.NewClient(speech.ClientConfig{
		APIURL:  cfg.TTSAPIURL,
		APIKey:  cfg.TTSAPIKey,
		Timeout: cfg.TTSTimeout,
	}, logger)

	briefs := brief.NewService(p, summarize.NewTruncate(), synth, logger)
	briefs.SetInvalidator(articles)

	return &Container{
		cfg:      cfg,
		log:      logger,
		pool:     p,
		articles: articles,
		briefs:   briefs,
		server:   server.New(articles, briefs, logger),
	}, nil
}

// Handler returns the fully wired HTTP handler.
func (c *Container) Handler() http.Handler {
	return c.server.Handler(server.Options{
		RateLimitRPS:   c.cfg.RateLimitRPS,
		RateLimitBurst: c.cfg.RateLimitBurst,
	})
}

// Articles exposes the cached article reader, including its invalidation
// hooks.
func (c *Container) Articles() *storecache.CachedArticles {
	return c.articles
}

// Briefs exposes the summary/audio service.
func (c *Container) Briefs() *brief.Service {
	return c.briefs
}

// Close tears down the process-scoped resources.
func (c *Container) Close() error {
	return c.pool.Close()
}

// Package propdex indexes resource property sets and answers structured queries
// over them, in memory or on Redis.
package propdex

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/propdex/internal/db"
	dbRedis "github.com/kailas-cloud/propdex/internal/db/redis"
	"github.com/kailas-cloud/propdex/internal/domain/resourcetype"
	"github.com/kailas-cloud/propdex/internal/index/fields"
	"github.com/kailas-cloud/propdex/internal/index/mapper"
	"github.com/kailas-cloud/propdex/internal/index/memory"
	"github.com/kailas-cloud/propdex/internal/index/querybuild"
	indexrepo "github.com/kailas-cloud/propdex/internal/repository/index"
	searchuc "github.com/kailas-cloud/propdex/internal/usecase/search"
)

const defaultReadinessTimeout = 10 * time.Second

// Client is the propdex entry point. It is safe for concurrent use.
type Client struct {
	tree   *Tree
	mapper *mapper.Mapper
	store  db.Store
	repo   *indexrepo.Repo
	svc    *searchuc.Service
	logger *zap.Logger

	unwatch func()
}

// New creates a Client. A resource type tree is required; with WithRedis the
// client connects and creates the search index before returning.
func New(opts ...Option) (*Client, error) {
	cfg := defaultConfig()
	for _, o := range opts {
		o(cfg)
	}

	tree := cfg.tree
	if tree == nil {
		if cfg.typesPath == "" {
			return nil, errors.New("propdex: resource types required (use WithTypes or WithTypesFile)")
		}
		var err error
		if tree, err = resourcetype.LoadFile(cfg.typesPath); err != nil {
			return nil, fmt.Errorf("propdex: load types: %w", err)
		}
	}

	store, err := createStore(cfg)
	if err != nil {
		return nil, err
	}
	if store != nil {
		if err := store.WaitForReady(context.Background(), defaultReadinessTimeout); err != nil {
			store.Close()
			return nil, fmt.Errorf("propdex: database not ready: %w", err)
		}
	}

	c, err := wireClient(context.Background(), tree, store, cfg)
	if err != nil {
		if store != nil {
			store.Close()
		}
		return nil, err
	}
	return c, nil
}

func createStore(cfg *clientConfig) (db.Store, error) {
	switch cfg.driver {
	case driverMemory:
		return nil, nil
	case driverRedis:
		if len(cfg.addrs) == 0 {
			return nil, errors.New("propdex: redis address required")
		}
		s, err := dbRedis.NewStore(dbRedis.Config{Addrs: cfg.addrs, Password: cfg.password})
		if err != nil {
			return nil, fmt.Errorf("propdex: create redis store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("propdex: unknown driver %q", cfg.driver)
	}
}

// wireClient assembles the mapper, compiler and engine. A nil store selects the
// in-memory engine.
func wireClient(ctx context.Context, tree *Tree, store db.Store, cfg *clientConfig) (*Client, error) {
	codec := fields.NewCodec(cfg.locale, cfg.location)
	m := mapper.New(tree, codec, mapper.WithLogger(cfg.logger))
	compiler := querybuild.New(codec, querybuild.WithLogger(cfg.logger))

	c := &Client{tree: tree, mapper: m, store: store, logger: cfg.logger}

	var e searchuc.Engine
	if store == nil {
		e = memory.New(memory.WithLogger(cfg.logger))
	} else {
		schema, err := indexrepo.BuildSchema(cfg.indexName, cfg.keyPrefix, tree.Definitions())
		if err != nil {
			return nil, fmt.Errorf("propdex: index schema: %w", err)
		}
		c.repo = indexrepo.New(store, schema,
			indexrepo.WithLogger(cfg.logger), indexrepo.WithMaxResults(cfg.maxResults),
			indexrepo.WithQueryTimeout(cfg.queryTimeout))
		if _, err := c.repo.EnsureIndex(ctx); err != nil {
			return nil, fmt.Errorf("propdex: ensure index: %w", err)
		}
		e = c.repo
	}

	c.svc = searchuc.New(e, m, compiler,
		searchuc.WithLogger(cfg.logger), searchuc.WithLimits(cfg.defLimit, cfg.maxLimit))
	c.unwatch = tree.OnChange(c.typesChanged)
	return c, nil
}

// typesChanged drops cached type lookups and, on Redis, applies the new schema.
// Documents indexed before the change keep their old fields until reindexed.
func (c *Client) typesChanged() {
	c.mapper.Invalidate()
	if c.repo == nil {
		return
	}
	cur := c.repo.Schema()
	schema, err := indexrepo.BuildSchema(cur.Name(), cur.Prefix(), c.tree.Definitions())
	if err != nil {
		c.logger.Error("rebuilding index schema failed", zap.Error(err))
		return
	}
	c.repo.SetSchema(schema)
	if _, err := c.repo.EnsureIndex(context.Background()); err != nil {
		c.logger.Error("applying index schema failed", zap.Error(err))
	}
}

// Close releases all resources.
func (c *Client) Close() {
	if c.unwatch != nil {
		c.unwatch()
	}
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity. It always succeeds for the in-memory engine.
func (c *Client) Ping(ctx context.Context) error {
	if c.store == nil {
		return nil
	}
	if err := c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Types returns the resource type tree. Reloading it re-derives the index configuration.
func (c *Client) Types() *Tree { return c.tree }

// Index stores ps and its acl, replacing the resource with the same uri.
func (c *Client) Index(ctx context.Context, ps PropertySet, entries *Acl) error {
	return c.svc.Index(ctx, ps, entries)
}

// IndexAll stores several resources at once.
func (c *Client) IndexAll(ctx context.Context, items []Item) error {
	return c.svc.IndexAll(ctx, items)
}

// Delete removes the resource of uri and reports whether it was indexed.
func (c *Client) Delete(ctx context.Context, uri string) (bool, error) {
	return c.svc.Delete(ctx, uri)
}

// Get reads the indexed resource of uri. A nil sel loads every property.
func (c *Client) Get(ctx context.Context, uri string, sel Select) (*LoadedSet, bool, error) {
	return c.svc.Get(ctx, uri, sel)
}

// Count returns the number of resources matching q.
func (c *Client) Count(ctx context.Context, q Query) (int, error) {
	return c.svc.Count(ctx, q)
}

// Search starts a search for resources matching q.
func (c *Client) Search(q Query) *SearchBuilder {
	return &SearchBuilder{client: c, q: q}
}

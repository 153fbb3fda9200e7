package propdex

import (
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/language"
)

const (
	driverMemory = "memory"
	driverRedis  = "redis"
)

// Option configures a Client.
type Option func(*clientConfig)

type clientConfig struct {
	tree      *Tree
	typesPath string

	driver   string
	addrs    []string
	password string

	locale       language.Tag
	location     *time.Location
	indexName    string
	keyPrefix    string
	defLimit     int
	maxLimit     int
	maxResults   int
	queryTimeout time.Duration

	logger *zap.Logger
}

func defaultConfig() *clientConfig {
	return &clientConfig{
		driver:    driverMemory,
		locale:    language.English,
		location:  time.UTC,
		indexName: "propdex-idx",
		keyPrefix: "propdex:res:",
		logger:    zap.NewNop(),
	}
}

// WithTypes uses an already loaded resource type tree.
func WithTypes(tree *Tree) Option {
	return func(c *clientConfig) { c.tree = tree }
}

// WithTypesFile loads the resource type tree from a YAML file.
func WithTypesFile(path string) Option {
	return func(c *clientConfig) { c.typesPath = path }
}

// WithMemory keeps the index in process. This is the default.
func WithMemory() Option {
	return func(c *clientConfig) {
		c.driver = driverMemory
		c.addrs = nil
	}
}

// WithRedis stores the index in Redis with RediSearch and RedisJSON.
func WithRedis(addrs ...string) Option {
	return func(c *clientConfig) {
		c.driver = driverRedis
		c.addrs = addrs
	}
}

// WithPassword sets the Redis password.
func WithPassword(password string) Option {
	return func(c *clientConfig) { c.password = password }
}

// WithLocale sets the locale used for collation and lowercasing.
func WithLocale(tag language.Tag) Option {
	return func(c *clientConfig) { c.locale = tag }
}

// WithTimeZone sets the zone used to parse dates and timestamps without an offset.
func WithTimeZone(loc *time.Location) Option {
	return func(c *clientConfig) {
		if loc != nil {
			c.location = loc
		}
	}
}

// WithIndex sets the RediSearch index name and the key prefix of index documents.
func WithIndex(name, keyPrefix string) Option {
	return func(c *clientConfig) {
		c.indexName = name
		c.keyPrefix = keyPrefix
	}
}

// WithLimits sets the default and the largest page size of a search.
func WithLimits(def, maxLimit int) Option {
	return func(c *clientConfig) {
		c.defLimit = def
		c.maxLimit = maxLimit
	}
}

// WithQueryTimeout bounds server-side execution of Redis searches.
func WithQueryTimeout(d time.Duration) Option {
	return func(c *clientConfig) { c.queryTimeout = d }
}

// WithMaxResults caps Redis pages that request no limit.
func WithMaxResults(n int) Option {
	return func(c *clientConfig) { c.maxResults = n }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *clientConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

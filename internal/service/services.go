package service

import (
	redisx "github.com/oakdale/lessongo/internal/redis"
	postgres "github.com/oakdale/lessongo/internal/repository/postgres"
	redis "github.com/oakdale/lessongo/internal/repository/redis"
	"github.com/oakdale/lessongo/internal/service/admin"
	"github.com/oakdale/lessongo/internal/service/catalog"
	"github.com/oakdale/lessongo/internal/service/orders"
	"github.com/oakdale/lessongo/internal/service/query"
)

type Services struct {
	Query   *query.Service
	Catalog *catalog.Service
	Orders  *orders.Service
	Admin   *admin.Service
}

type Config struct {
	Query query.Config
}

func NewServices(
	store *postgres.Store,
	cache *redis.Cache,
	pubsub *redisx.CatalogPubSub,
	limiter *redis.SlidingWindowLimiter,
	cfg Config,
) *Services {
	return &Services{
		Query:   query.New(store.Catalog(), cache, cfg.Query),
		Catalog: catalog.New(store.Catalog(), cache, pubsub),
		Orders:  orders.New(store.Orders(), cache, pubsub, limiter),
		Admin:   admin.New(store, cache, pubsub),
	}
}

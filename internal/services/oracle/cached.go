package oracle

import (
	"context"
	"errors"
	"time"

	"CostCast/internal/domain/models"
	domrepo "CostCast/internal/domain/repository"
	domsvc "CostCast/internal/domain/service"
	"CostCast/pkg/cache"
	"CostCast/pkg/logger"
)

// CachedOracle memoizes oracle results per material and horizon.
// Cache failures are logged and never fail a prediction.
type CachedOracle struct {
	next    domsvc.ForecastOracle
	cache   cache.Store
	ttl     time.Duration
	log     *logger.Logger
	metrics domrepo.Metrics
}

func NewCachedOracle(next domsvc.ForecastOracle, c cache.Store, ttl time.Duration, log *logger.Logger, metrics domrepo.Metrics) *CachedOracle {
	if log == nil {
		log = logger.NewNop()
	}
	return &CachedOracle{next: next, cache: c, ttl: ttl, log: log, metrics: metrics}
}

func (o *CachedOracle) Predict(ctx context.Context, material models.Material, horizon int) (models.OracleResult, error) {
	key := cache.Key("oracle", material, horizon)

	var cached models.OracleResult
	err := o.cache.Get(ctx, key, &cached)
	switch {
	case err == nil:
		o.record(true)
		return cached, nil
	case !errors.Is(err, cache.ErrMiss):
		o.log.Warn("oracle cache read failed", logger.String("key", key), logger.Error(err))
	}
	o.record(false)

	res, err := o.next.Predict(ctx, material, horizon)
	if err != nil {
		return res, err
	}
	if err := o.cache.Set(ctx, key, res, o.ttl); err != nil {
		o.log.Warn("oracle cache write failed", logger.String("key", key), logger.Error(err))
	}
	return res, nil
}

func (o *CachedOracle) record(hit bool) {
	if o.metrics != nil {
		o.metrics.RecordCacheLookup(hit)
	}
}

var _ domsvc.ForecastOracle = (*CachedOracle)(nil)

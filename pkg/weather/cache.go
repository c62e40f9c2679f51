package weather

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"irrigo/entities"
	"irrigo/pkg/apperr"
	"irrigo/pkg/clock"
	"irrigo/pkg/logx"
	"irrigo/pkg/weather/repository"
)

type memEntry struct {
	f       Forecast
	fetched time.Time
}

// Cache answers (city, day) lookups from memory, then from persisted readings, then
// from the wrapped client. Concurrent misses for the same key share one fetch.
// Errors are never cached.
type Cache struct {
	next  Client
	repo  repository.WeatherRepository
	ttl   time.Duration
	fetch time.Duration
	clock clock.Clock
	log   logx.Logger

	mu  sync.Mutex
	mem map[string]memEntry
	sf  singleflight.Group
}

// NewCache wraps next. repo may be nil to keep the cache memory-only.
func NewCache(next Client, repo repository.WeatherRepository, ttl time.Duration, clk clock.Clock, log logx.Logger) *Cache {
	if ttl <= 0 {
		ttl = 3 * time.Hour
	}
	if clk == nil {
		clk = clock.New(time.UTC)
	}
	return &Cache{
		next:  next,
		repo:  repo,
		ttl:   ttl,
		fetch: 10 * time.Second,
		clock: clk,
		log:   log.With(logx.String("comp", "weather-cache")),
		mem:   map[string]memEntry{},
	}
}

// WithFetchTimeout bounds a shared upstream fetch. The fetch is detached from the
// caller that started it, so it runs until done or until d elapses.
func (c *Cache) WithFetchTimeout(d time.Duration) *Cache {
	if d > 0 {
		c.fetch = d
	}
	return c
}

func cacheKey(city string, date time.Time) (string, string) {
	c := strings.ToLower(strings.TrimSpace(city))
	return c, entities.DayKey(date)
}

func (c *Cache) GetForecast(ctx context.Context, city string, date time.Time) (Forecast, error) {
	cityKey, day := cacheKey(city, date)
	key := cityKey + "|" + day
	now := c.clock.Now()

	c.mu.Lock()
	e, ok := c.mem[key]
	c.mu.Unlock()
	if ok && now.Sub(e.fetched) < c.ttl {
		return e.f, nil
	}

	if c.repo != nil {
		r, err := c.repo.Find(cityKey, day)
		switch {
		case err == nil && now.Sub(r.FetchedAt) < c.ttl:
			f := fromReading(r)
			c.remember(key, f, r.FetchedAt)
			return f, nil
		case err != nil && !errors.Is(err, apperr.ErrNotFound):
			c.log.Warn("weather reading lookup failed", logx.String("city", cityKey), logx.Err(err))
		}
	}

	ch := c.sf.DoChan(key, func() (any, error) {
		c.mu.Lock()
		e, ok := c.mem[key]
		c.mu.Unlock()
		if ok && c.clock.Now().Sub(e.fetched) < c.ttl {
			return e.f, nil
		}
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.fetch)
		defer cancel()
		f, err := c.next.GetForecast(fctx, city, date)
		if err != nil {
			return Forecast{}, err
		}
		fetched := c.clock.Now()
		c.remember(key, f, fetched)
		if c.repo != nil {
			r := toReading(cityKey, day, f, fetched)
			if err := c.repo.Upsert(r); err != nil {
				c.log.Warn("weather reading store failed", logx.String("city", cityKey), logx.Err(err))
			}
		}
		return f, nil
	})
	select {
	case <-ctx.Done():
		return Forecast{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Forecast{}, res.Err
		}
		return res.Val.(Forecast), nil
	}
}

func (c *Cache) remember(key string, f Forecast, fetched time.Time) {
	c.mu.Lock()
	c.mem[key] = memEntry{f: f, fetched: fetched}
	c.mu.Unlock()
}

// Purge drops in-memory entries older than the TTL.
func (c *Cache) Purge() int {
	now := c.clock.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k, e := range c.mem {
		if now.Sub(e.fetched) >= c.ttl {
			delete(c.mem, k)
			n++
		}
	}
	return n
}

func toReading(city, day string, f Forecast, fetched time.Time) *entities.WeatherReading {
	return &entities.WeatherReading{
		City:            city,
		Day:             day,
		TempC:           f.TempC,
		TempMaxC:        f.TempMaxC,
		HumidityPct:     f.HumidityPct,
		PrecipitationMM: f.PrecipitationMM,
		Description:     f.Description,
		FetchedAt:       fetched,
	}
}

func fromReading(r *entities.WeatherReading) Forecast {
	return Forecast{
		TempC:           r.TempC,
		TempMaxC:        r.TempMaxC,
		HumidityPct:     r.HumidityPct,
		PrecipitationMM: r.PrecipitationMM,
		Description:     r.Description,
	}
}

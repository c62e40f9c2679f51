package weather_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"irrigo/pkg/clock"
	"irrigo/pkg/logx"
	"irrigo/pkg/testkit"
	"irrigo/pkg/weather"
	weatherRepoImp "irrigo/pkg/weather/repositoryImp"
)

func TestCacheServesRepeatsFromMemory(t *testing.T) {
	t.Parallel()
	clk := clock.At("2026-06-01")
	w := testkit.NewWeather()
	w.Rain("2026-06-01", 12)
	c := weather.NewCache(w, nil, time.Hour, clk, logx.Nop())

	for i := 0; i < 3; i++ {
		f, err := c.GetForecast(context.Background(), "Pune", clk.Today())
		require.NoError(t, err)
		assert.Equal(t, 12.0, *f.PrecipitationMM)
	}
	_, err := c.GetForecast(context.Background(), " pune ", clk.Today())
	require.NoError(t, err)
	assert.Equal(t, int64(1), w.Calls.Load(), "city keys are case-insensitive")

	clk.Set(clk.Now().Add(2 * time.Hour))
	_, err = c.GetForecast(context.Background(), "Pune", clk.Today())
	require.NoError(t, err)
	assert.Equal(t, int64(2), w.Calls.Load(), "expired entries are refetched")
}

func TestCacheDoesNotCacheFailures(t *testing.T) {
	t.Parallel()
	clk := clock.At("2026-06-01")
	w := testkit.NewWeather()
	w.Fail("2026-06-01", errors.New("boom"))
	c := weather.NewCache(w, nil, time.Hour, clk, logx.Nop())

	_, err := c.GetForecast(context.Background(), "Pune", clk.Today())
	require.Error(t, err)
	w.Heat("2026-06-01", 38)
	f, err := c.GetForecast(context.Background(), "Pune", clk.Today())
	require.NoError(t, err)
	assert.Equal(t, 38.0, f.TempMaxC)
	assert.Equal(t, int64(2), w.Calls.Load())
}

func TestCacheCollapsesConcurrentMisses(t *testing.T) {
	t.Parallel()
	clk := clock.At("2026-06-01")
	w := testkit.NewWeather()
	w.Delay = 50 * time.Millisecond
	c := weather.NewCache(w, nil, time.Hour, clk, logx.Nop())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.GetForecast(context.Background(), "Pune", clk.Today())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(1), w.Calls.Load())
}

func TestCacheSharedFetchOutlivesFirstCaller(t *testing.T) {
	t.Parallel()
	clk := clock.At("2026-06-01")
	slow := weather.ClientFunc(func(ctx context.Context, _ string, _ time.Time) (weather.Forecast, error) {
		select {
		case <-ctx.Done():
			return weather.Forecast{}, ctx.Err()
		case <-time.After(200 * time.Millisecond):
			return weather.Forecast{TempMaxC: 33, Description: "clear sky"}, nil
		}
	})
	c := weather.NewCache(slow, nil, time.Hour, clk, logx.Nop()).WithFetchTimeout(5 * time.Second)

	short, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	firstErr := make(chan error, 1)
	go func() {
		_, err := c.GetForecast(short, "Pune", clk.Today())
		firstErr <- err
	}()

	time.Sleep(10 * time.Millisecond)
	f, err := c.GetForecast(context.Background(), "Pune", clk.Today())
	require.NoError(t, err)
	assert.Equal(t, 33.0, f.TempMaxC)
	assert.ErrorIs(t, <-firstErr, context.DeadlineExceeded)

	// the shared result was kept for later callers
	f, err = c.GetForecast(context.Background(), "Pune", clk.Today())
	require.NoError(t, err)
	assert.Equal(t, "clear sky", f.Description)
}

func TestCacheSharedFetchHasOwnDeadline(t *testing.T) {
	t.Parallel()
	clk := clock.At("2026-06-01")
	hang := weather.ClientFunc(func(ctx context.Context, _ string, _ time.Time) (weather.Forecast, error) {
		<-ctx.Done()
		return weather.Forecast{}, ctx.Err()
	})
	c := weather.NewCache(hang, nil, time.Hour, clk, logx.Nop()).WithFetchTimeout(30 * time.Millisecond)

	_, err := c.GetForecast(context.Background(), "Pune", clk.Today())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCachePersistsReadings(t *testing.T) {
	t.Parallel()
	db := testkit.DB(t)
	repo := weatherRepoImp.New(db)
	clk := clock.At("2026-06-01")

	w := testkit.NewWeather()
	w.Rain("2026-06-02", 20)
	first := weather.NewCache(w, repo, time.Hour, clk, logx.Nop())
	day := clk.Today().AddDate(0, 0, 1)
	_, err := first.GetForecast(context.Background(), "Pune", day)
	require.NoError(t, err)

	r, err := repo.Find("pune", "2026-06-02")
	require.NoError(t, err)
	assert.Equal(t, 20.0, *r.PrecipitationMM)

	// a fresh cache (new process) is answered by the stored reading
	second := weather.NewCache(w, repo, time.Hour, clk, logx.Nop())
	f, err := second.GetForecast(context.Background(), "PUNE", day)
	require.NoError(t, err)
	assert.Equal(t, "moderate rain", f.Description)
	assert.Equal(t, int64(1), w.Calls.Load())

	n, err := repo.PruneBefore(day.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestCachePurge(t *testing.T) {
	t.Parallel()
	clk := clock.At("2026-06-01")
	c := weather.NewCache(testkit.NewWeather(), nil, time.Hour, clk, logx.Nop())
	_, err := c.GetForecast(context.Background(), "Pune", clk.Today())
	require.NoError(t, err)
	assert.Equal(t, 0, c.Purge())
	clk.Set(clk.Now().Add(90 * time.Minute))
	assert.Equal(t, 1, c.Purge())
}

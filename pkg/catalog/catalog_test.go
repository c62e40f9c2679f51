package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"irrigo/pkg/logx"
)

func TestLookupNamesAndAliases(t *testing.T) {
	t.Parallel()
	c := New(logx.Nop())

	cases := []struct {
		in   string
		want string
	}{
		{"rice", "Rice"},
		{"Paddy", "Rice"},
		{"Ground Nuts", "Groundnut"},
		{"Kidneybeans", "Kidney Beans"},
		{"kidney beans", "Kidney Beans"},
		{"Pigeonpeas", "Pigeon Peas"},
		{"Mothbeans", "Moth Beans"},
		{"Mungbean", "Mung Bean"},
		{"Blackgram", "Black Gram"},
		{"  MAIZE ", "Maize"},
	}
	for _, tc := range cases {
		e, ok := c.Lookup(tc.in)
		require.True(t, ok, tc.in)
		assert.Equal(t, tc.want, e.Name, tc.in)
	}

	_, ok := c.Lookup("")
	assert.False(t, ok)
}

func TestResolveUnknownUsesDefaults(t *testing.T) {
	t.Parallel()
	c := New(logx.Nop())
	e, known := c.Resolve(" Dragonfruit ")
	assert.False(t, known)
	assert.Equal(t, "Dragonfruit", e.Name)
	assert.Equal(t, DefaultGrowthDays, e.GrowthDays)
	assert.Equal(t, DefaultFrequencyDays, e.FrequencyDays)
	assert.Empty(t, e.Category)
}

func TestLoadYAMLOverridesBuiltin(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	p := filepath.Join(dir, "crops.yaml")
	require.NoError(t, os.WriteFile(p, []byte(`
- name: Rice
  growth_days: 140
  frequency_days: 2
  category: Cereal
- name: Quinoa
  aliases: [Chenopodium]
  growth_days: 95
`), 0o644))

	c := New(logx.Nop())
	require.NoError(t, c.LoadFiles(p))

	for _, name := range []string{"rice", "Paddy"} {
		rice, ok := c.Lookup(name)
		require.True(t, ok, name)
		assert.Equal(t, "Rice", rice.Name, name)
		assert.Equal(t, 140, rice.GrowthDays, name)
		assert.Equal(t, 2, rice.FrequencyDays, name)
		assert.Equal(t, []string{"Paddy"}, rice.Aliases, name)
	}

	q, ok := c.Lookup("chenopodium")
	require.True(t, ok)
	assert.Equal(t, "Quinoa", q.Name)
	assert.Equal(t, DefaultFrequencyDays, q.FrequencyDays)
}

func TestLoadCSVHeaderAliases(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	p := filepath.Join(dir, "crops.csv")
	require.NoError(t, os.WriteFile(p, []byte("\uFEFFCrop,Duration,Interval,Category,Aliases\n"+
		"Sorghum,110,6,Cereal,Jowar|Milo\n"+
		",10,1,,\n"), 0o644))

	c := New(logx.Nop())
	require.NoError(t, c.LoadFiles(p))

	e, ok := c.Lookup("milo")
	require.True(t, ok)
	assert.Equal(t, Entry{Name: "Sorghum", Aliases: []string{"Jowar", "Milo"}, GrowthDays: 110, FrequencyDays: 6, Category: "Cereal"}, e)
}

func TestLoadXLSX(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	p := filepath.Join(dir, "crops.xlsx")

	x := excelize.NewFile()
	sheet := x.GetSheetName(0)
	require.NoError(t, x.SetSheetRow(sheet, "A1", &[]any{"name", "growth_days", "frequency_days", "category"}))
	require.NoError(t, x.SetSheetRow(sheet, "A2", &[]any{"Barley", 95, 8, "Cereal"}))
	require.NoError(t, x.SaveAs(p))
	require.NoError(t, x.Close())

	c := New(logx.Nop())
	require.NoError(t, c.LoadFiles(p))
	e, ok := c.Lookup("barley")
	require.True(t, ok)
	assert.Equal(t, 95, e.GrowthDays)
	assert.Equal(t, 8, e.FrequencyDays)
}

func TestLoadBrokenFileKeepsPrevious(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	good := filepath.Join(dir, "good.csv")
	require.NoError(t, os.WriteFile(good, []byte("name,growth_days\nTeff,80\n"), 0o644))

	c := New(logx.Nop())
	require.NoError(t, c.LoadFiles(good))

	bad := filepath.Join(dir, "bad.csv")
	require.NoError(t, os.WriteFile(bad, []byte("growth_days\n80\n"), 0o644))
	require.Error(t, c.LoadFiles(bad))
	require.Error(t, c.LoadFiles(filepath.Join(dir, "crops.txt")))

	_, ok := c.Lookup("teff")
	assert.True(t, ok, "previous table survives failed loads")
}

func TestEntriesSortedAndUnique(t *testing.T) {
	t.Parallel()
	c := New(logx.Nop())
	es := c.Entries()
	require.Len(t, es, len(builtin))
	for i := 1; i < len(es); i++ {
		assert.Less(t, es[i-1].Name, es[i].Name)
	}
}

func TestWatchReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "crops.csv")
	require.NoError(t, os.WriteFile(p, []byte("name,growth_days\nMillet,70\n"), 0o644))

	c := New(logx.Nop())
	require.NoError(t, c.LoadFiles(p))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- c.Watch(ctx, p) }()

	// give the watcher a moment to register
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(p, []byte("name,growth_days\nMillet,75\n"), 0o644))

	assert.Eventually(t, func() bool {
		e, ok := c.Lookup("millet")
		return ok && e.GrowthDays == 75
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not stop")
	}
}

// Package catalog maps crop names to growing-season length, watering interval and category.
package catalog

import (
	"sort"
	"strings"
	"sync"

	"irrigo/pkg/logx"
)

const (
	DefaultGrowthDays    = 90
	DefaultFrequencyDays = 7
)

type Entry struct {
	Name          string   `yaml:"name" json:"name"`
	Aliases       []string `yaml:"aliases,omitempty" json:"aliases,omitempty"`
	GrowthDays    int      `yaml:"growth_days" json:"growth_days"`
	FrequencyDays int      `yaml:"frequency_days" json:"frequency_days"`
	Category      string   `yaml:"category,omitempty" json:"category,omitempty"`
}

// Catalog is safe for concurrent use. File reloads swap the whole table at once.
type Catalog struct {
	mu    sync.RWMutex
	byKey map[string]Entry
	names []string
	log   logx.Logger
}

// New returns a catalog holding only the built-in table.
func New(log logx.Logger) *Catalog {
	c := &Catalog{log: log.With(logx.String("comp", "catalog"))}
	c.Replace(nil)
	return c
}

// norm folds case and drops separators, so "Kidneybeans" and "kidney beans" meet.
func norm(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "\uFEFF")
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "-", "")
	s = strings.ReplaceAll(s, "_", "")
	return s
}

// Replace installs the built-ins overlaid with extra. A later entry with the same name wins
// and keeps the earlier aliases when it lists none. Alias keys are built from the final entries.
func (c *Catalog) Replace(extra []Entry) {
	byName := map[string]Entry{}
	var names []string
	add := func(e Entry) {
		e.Name = strings.TrimSpace(e.Name)
		if e.Name == "" {
			return
		}
		if e.GrowthDays <= 0 {
			e.GrowthDays = DefaultGrowthDays
		}
		if e.FrequencyDays <= 0 {
			e.FrequencyDays = DefaultFrequencyDays
		}
		k := norm(e.Name)
		prev, seen := byName[k]
		if !seen {
			names = append(names, k)
		} else if len(e.Aliases) == 0 {
			e.Aliases = prev.Aliases
		}
		byName[k] = e
	}
	for _, e := range builtin {
		add(e)
	}
	for _, e := range extra {
		add(e)
	}

	byKey := make(map[string]Entry, len(byName)*2)
	for _, k := range names {
		byKey[k] = byName[k]
	}
	for _, k := range names {
		e := byName[k]
		for _, a := range e.Aliases {
			if ak := norm(a); ak != "" && ak != k {
				byKey["@"+ak] = e
			}
		}
	}

	c.mu.Lock()
	c.byKey = byKey
	c.names = names
	c.mu.Unlock()
}

// Lookup finds an entry by name or alias, ignoring case and separators.
func (c *Catalog) Lookup(name string) (Entry, bool) {
	k := norm(name)
	if k == "" {
		return Entry{}, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if e, ok := c.byKey[k]; ok {
		return e, true
	}
	e, ok := c.byKey["@"+k]
	return e, ok
}

// Resolve is Lookup with defaults for unknown crops. The returned Name is canonical
// when known and the trimmed input otherwise.
func (c *Catalog) Resolve(name string) (Entry, bool) {
	if e, ok := c.Lookup(name); ok {
		return e, true
	}
	return Entry{
		Name:          strings.TrimSpace(name),
		GrowthDays:    DefaultGrowthDays,
		FrequencyDays: DefaultFrequencyDays,
	}, false
}

// Entries lists every crop once, sorted by name.
func (c *Catalog) Entries() []Entry {
	c.mu.RLock()
	out := make([]Entry, 0, len(c.names))
	for _, k := range c.names {
		out = append(out, c.byKey[k])
	}
	c.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// LoadFiles reads every path and installs built-ins plus their entries. On any error the
// current table is kept.
func (c *Catalog) LoadFiles(paths ...string) error {
	var all []Entry
	for _, p := range paths {
		if strings.TrimSpace(p) == "" {
			continue
		}
		es, err := ReadFile(p)
		if err != nil {
			return err
		}
		all = append(all, es...)
	}
	c.Replace(all)
	c.log.Info("catalog loaded", logx.Int("extra", len(all)), logx.Any("paths", paths))
	return nil
}

var builtin = []Entry{
	{Name: "Rice", Aliases: []string{"Paddy"}, GrowthDays: 120, FrequencyDays: 3, Category: "Cereal"},
	{Name: "Wheat", GrowthDays: 120, FrequencyDays: 7, Category: "Cereal"},
	{Name: "Maize", Aliases: []string{"Corn"}, GrowthDays: 100, FrequencyDays: 5, Category: "Cereal"},
	{Name: "Cotton", GrowthDays: 160, FrequencyDays: 7, Category: "Fibre"},
	{Name: "Jute", GrowthDays: 120, FrequencyDays: 5, Category: "Fibre"},
	{Name: "Sugarcane", GrowthDays: 365, FrequencyDays: 7, Category: "Cash Crop"},
	{Name: "Coffee", GrowthDays: 365, FrequencyDays: 10, Category: "Plantation"},
	{Name: "Coconut", GrowthDays: 365, FrequencyDays: 5, Category: "Plantation"},
	{Name: "Chickpea", Aliases: []string{"Gram"}, GrowthDays: 100, FrequencyDays: 10, Category: "Pulse"},
	{Name: "Lentil", GrowthDays: 110, FrequencyDays: 10, Category: "Pulse"},
	{Name: "Kidney Beans", Aliases: []string{"Kidneybeans"}, GrowthDays: 90, FrequencyDays: 7, Category: "Pulse"},
	{Name: "Pigeon Peas", Aliases: []string{"Pigeonpeas"}, GrowthDays: 150, FrequencyDays: 10, Category: "Pulse"},
	{Name: "Moth Beans", Aliases: []string{"Mothbeans"}, GrowthDays: 75, FrequencyDays: 10, Category: "Pulse"},
	{Name: "Mung Bean", Aliases: []string{"Mungbean"}, GrowthDays: 65, FrequencyDays: 7, Category: "Pulse"},
	{Name: "Black Gram", Aliases: []string{"Blackgram"}, GrowthDays: 80, FrequencyDays: 7, Category: "Pulse"},
	{Name: "Groundnut", Aliases: []string{"Ground Nuts", "Peanut"}, GrowthDays: 120, FrequencyDays: 7, Category: "Oilseed"},
	{Name: "Tomato", GrowthDays: 90, FrequencyDays: 3, Category: "Vegetable"},
	{Name: "Potato", GrowthDays: 100, FrequencyDays: 5, Category: "Vegetable"},
	{Name: "Onion", GrowthDays: 120, FrequencyDays: 5, Category: "Vegetable"},
	{Name: "Banana", GrowthDays: 300, FrequencyDays: 3, Category: "Fruit"},
	{Name: "Mango", GrowthDays: 365, FrequencyDays: 10, Category: "Fruit"},
	{Name: "Grapes", GrowthDays: 180, FrequencyDays: 5, Category: "Fruit"},
	{Name: "Watermelon", GrowthDays: 85, FrequencyDays: 4, Category: "Fruit"},
	{Name: "Muskmelon", GrowthDays: 80, FrequencyDays: 4, Category: "Fruit"},
	{Name: "Apple", GrowthDays: 180, FrequencyDays: 7, Category: "Fruit"},
	{Name: "Orange", GrowthDays: 270, FrequencyDays: 7, Category: "Fruit"},
	{Name: "Papaya", GrowthDays: 270, FrequencyDays: 4, Category: "Fruit"},
	{Name: "Pomegranate", GrowthDays: 180, FrequencyDays: 7, Category: "Fruit"},
}

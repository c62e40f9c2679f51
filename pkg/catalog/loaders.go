package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.yaml.in/yaml/v3"
)

// ReadFile parses a catalog file chosen by extension: .yaml/.yml, .csv or .xlsx.
func ReadFile(path string) ([]Entry, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return readYAML(path)
	case ".csv":
		return readCSV(path)
	case ".xlsx":
		return readXLSX(path)
	default:
		return nil, fmt.Errorf("catalog %s: unsupported file type", path)
	}
}

func readYAML(path string) ([]Entry, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var list []Entry
	if err := yaml.Unmarshal(b, &list); err == nil {
		return list, nil
	}
	var doc struct {
		Crops []Entry `yaml:"crops"`
	}
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return doc.Crops, nil
}

func readCSV(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1
	head, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("catalog %s: header: %w", path, err)
	}
	cols, err := mapColumns(head)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}

	var out []Entry
	for {
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("catalog %s: %w", path, err)
		}
		if e, ok := cols.entry(rec); ok {
			out = append(out, e)
		}
	}
	return out, nil
}

func readXLSX(path string) ([]Entry, error) {
	x, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer x.Close()

	sheets := x.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("catalog %s: workbook has no sheets", path)
	}
	rows, err := x.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	cols, err := mapColumns(rows[0])
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	var out []Entry
	for _, rec := range rows[1:] {
		if e, ok := cols.entry(rec); ok {
			out = append(out, e)
		}
	}
	return out, nil
}

type columns struct {
	name, growth, freq, category, aliases int
}

// mapColumns accepts several spellings per column. Only the name column is required.
func mapColumns(head []string) (columns, error) {
	hmap := map[string]int{}
	for i, h := range head {
		hmap[norm(h)] = i
	}
	findAny := func(keys ...string) int {
		for _, k := range keys {
			if idx, ok := hmap[norm(k)]; ok {
				return idx
			}
		}
		return -1
	}
	c := columns{
		name:     findAny("name", "crop", "crop_name"),
		growth:   findAny("growth_days", "duration", "days", "growing_duration"),
		freq:     findAny("frequency_days", "frequency", "interval", "irrigation_interval"),
		category: findAny("category", "group", "type"),
		aliases:  findAny("aliases", "alias", "other_names"),
	}
	if c.name == -1 {
		return c, fmt.Errorf("missing crop name column, found headers: %v", head)
	}
	return c, nil
}

func (c columns) entry(rec []string) (Entry, bool) {
	get := func(idx int) string {
		if idx < 0 || idx >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[idx])
	}
	name := get(c.name)
	if name == "" {
		return Entry{}, false
	}
	e := Entry{Name: name, Category: get(c.category)}
	if v, err := strconv.Atoi(get(c.growth)); err == nil && v > 0 {
		e.GrowthDays = v
	}
	if v, err := strconv.Atoi(get(c.freq)); err == nil && v > 0 {
		e.FrequencyDays = v
	}
	for _, a := range strings.Split(get(c.aliases), "|") {
		if a = strings.TrimSpace(a); a != "" {
			e.Aliases = append(e.Aliases, a)
		}
	}
	return e, true
}

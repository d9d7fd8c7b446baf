// Package catalog loads and serves the fixed phone catalog backing every
// comparison. The catalog is an immutable snapshot taken once at startup
// from the embedded CSV, a CSV file, or Postgres.
package catalog

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

type Catalog struct {
	phones []Phone
	byID   map[string]Phone
}

// Options selects the catalog source. DSN wins over CSVPath; with neither
// set the embedded catalog is used.
type Options struct {
	CSVPath string
	DSN     string
	Logger  *zap.Logger
}

func Load(ctx context.Context, opts Options) (*Catalog, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	var (
		phones []Phone
		err    error
		source string
	)
	switch {
	case strings.TrimSpace(opts.DSN) != "":
		source = "postgres"
		phones, err = loadPostgres(ctx, opts.DSN, log)
	case strings.TrimSpace(opts.CSVPath) != "":
		source = opts.CSVPath
		phones, err = loadCSVFile(opts.CSVPath)
	default:
		source = "embedded"
		phones, err = parseCSV(embeddedCSV)
	}
	if err != nil {
		return nil, err
	}

	cat, err := New(phones)
	if err != nil {
		return nil, err
	}
	log.Info("catalog loaded", zap.String("source", source), zap.Int("phones", cat.Len()))
	return cat, nil
}

// New builds a catalog from an explicit phone list. Duplicate or empty ids
// are rejected.
func New(phones []Phone) (*Catalog, error) {
	if len(phones) == 0 {
		return nil, fmt.Errorf("catalog: no phones")
	}
	byID := make(map[string]Phone, len(phones))
	for _, p := range phones {
		id := strings.TrimSpace(p.ID)
		if id == "" {
			return nil, fmt.Errorf("catalog: phone %q has no id", p.Name)
		}
		if _, dup := byID[id]; dup {
			return nil, fmt.Errorf("catalog: duplicate phone id %q", id)
		}
		byID[id] = p
	}
	out := make([]Phone, len(phones))
	copy(out, phones)
	return &Catalog{phones: out, byID: byID}, nil
}

func (c *Catalog) Len() int { return len(c.phones) }

// All returns a copy of every phone in catalog order.
func (c *Catalog) All() []Phone {
	out := make([]Phone, len(c.phones))
	copy(out, c.phones)
	return out
}

func (c *Catalog) Get(id string) (Phone, bool) {
	p, ok := c.byID[strings.TrimSpace(id)]
	return p, ok
}

// Filter narrows the catalog. Zero values mean "no constraint".
type Filter struct {
	MaxPrice int
	MinPrice int
	Brand    string
	FiveG    bool
}

func (c *Catalog) Filter(f Filter) []Phone {
	brand := strings.ToLower(strings.TrimSpace(f.Brand))
	out := make([]Phone, 0, len(c.phones))
	for _, p := range c.phones {
		if f.MaxPrice > 0 && p.PriceINR > f.MaxPrice {
			continue
		}
		if f.MinPrice > 0 && p.PriceINR < f.MinPrice {
			continue
		}
		if brand != "" && strings.ToLower(p.Brand) != brand {
			continue
		}
		if f.FiveG && !p.Has5G {
			continue
		}
		out = append(out, p)
	}
	return out
}

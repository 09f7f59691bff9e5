package syncer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/sosanhsach/pricesync/internal/logger"
	"github.com/sosanhsach/pricesync/internal/vendor"
)

// CatalogSource is the slice of the vendor client the syncer consumes.
type CatalogSource interface {
	// ListAvailableSkuGroups returns every SKU group the vendor offers.
	ListAvailableSkuGroups(ctx context.Context) ([]string, error)

	// GetDenominations returns the denomination→price map for one group.
	GetDenominations(ctx context.Context, skuGroup string) (map[string]json.Number, error)

	// GetNotes returns the fields/notes payload for one group.
	GetNotes(ctx context.Context, skuGroup string) (vendor.Notes, error)
}

// Catalog is the immutable per-cycle snapshot of vendor pricing data.
// Groups preserves the vendor's listing order; Entries is keyed by SKU
// group.
type Catalog struct {
	Groups  []string
	Entries map[string]vendor.CatalogEntry
}

// Lookup returns the price for a (skuGroup, denomination) pair and
// whether both resolved in the snapshot.
func (c Catalog) Lookup(skuGroup, denominationKey string) (json.Number, bool) {
	entry, ok := c.Entries[skuGroup]
	if !ok {
		return "", false
	}
	price, ok := entry.Denominations[denominationKey]
	return price, ok
}

// BuildCatalog assembles a fresh catalog snapshot from the vendor.
//
// Group listing and notes failures abort the build. Denomination failures
// are softer: an upstream error for one group downgrades that group to an
// empty denomination map, so one broken group cannot starve the rest of
// the cycle.
func BuildCatalog(ctx context.Context, src CatalogSource) (Catalog, error) {
	groups, err := src.ListAvailableSkuGroups(ctx)
	if err != nil {
		return Catalog{}, fmt.Errorf("failed to list available SKU groups: %w", err)
	}
	logger.Infof("Vendor offers %d SKU groups", len(groups))

	catalog := Catalog{
		Groups:  groups,
		Entries: make(map[string]vendor.CatalogEntry, len(groups)),
	}
	for _, group := range groups {
		denominations, err := src.GetDenominations(ctx, group)
		if err != nil {
			var upstreamErr *vendor.UpstreamError
			if !errors.As(err, &upstreamErr) {
				return Catalog{}, fmt.Errorf("failed to get denominations for %s: %w", group, err)
			}
			logger.Warnf("Denominations unavailable for %s, continuing with empty set: %v", group, err)
			denominations = map[string]json.Number{}
		}
		catalog.Entries[group] = vendor.CatalogEntry{
			SkuGroup:      group,
			Denominations: denominations,
			Currency:      vendor.DefaultCurrency,
		}
	}

	// Notes fetches are mostly cache hits after the first cycle, so the
	// misses can safely run in parallel.
	notes := make([]vendor.Notes, len(groups))
	g, gctx := errgroup.WithContext(ctx)
	for i, group := range groups {
		g.Go(func() error {
			n, err := src.GetNotes(gctx, group)
			if err != nil {
				return fmt.Errorf("failed to get notes for %s: %w", group, err)
			}
			notes[i] = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Catalog{}, err
	}

	for i, group := range groups {
		entry := catalog.Entries[group]
		entry.Notes = notes[i].Notes
		catalog.Entries[group] = entry
	}
	return catalog, nil
}

package syncer

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sosanhsach/pricesync/internal/vendor"
)

func TestBuildCatalog(t *testing.T) {
	t.Parallel()

	src := &fakeCatalogSource{
		groups: []string{"mobile_legends", "genshin"},
		denominations: map[string]map[string]json.Number{
			"mobile_legends": {"86_diamonds": "1.31", "172_diamonds": "2.59"},
			"genshin":        {"60_crystals": "0.99"},
		},
		notes: map[string]vendor.Notes{
			"mobile_legends": {Notes: "Nhập User ID và Zone ID"},
			"genshin":        {Notes: "Nhập UID"},
		},
	}

	catalog, err := BuildCatalog(context.Background(), src)
	require.NoError(t, err)
	require.Len(t, catalog.Entries, 2)

	// The vendor's listing order is preserved in the snapshot.
	assert.Equal(t, []string{"mobile_legends", "genshin"}, catalog.Groups)

	ml := catalog.Entries["mobile_legends"]
	assert.Equal(t, "mobile_legends", ml.SkuGroup)
	assert.Equal(t, json.Number("1.31"), ml.Denominations["86_diamonds"])
	assert.Equal(t, "Nhập User ID và Zone ID", ml.Notes)
	assert.Equal(t, vendor.DefaultCurrency, ml.Currency)

	assert.Equal(t, "Nhập UID", catalog.Entries["genshin"].Notes)
	assert.Equal(t, int32(2), src.noteCalls.Load())
}

func TestBuildCatalogLookup(t *testing.T) {
	t.Parallel()

	catalog := Catalog{
		Groups: []string{"genshin"},
		Entries: map[string]vendor.CatalogEntry{
			"genshin": {
				SkuGroup:      "genshin",
				Denominations: map[string]json.Number{"60_crystals": "0.99"},
			},
		},
	}

	price, ok := catalog.Lookup("genshin", "60_crystals")
	assert.True(t, ok)
	assert.Equal(t, json.Number("0.99"), price)

	_, ok = catalog.Lookup("genshin", "unknown")
	assert.False(t, ok)

	_, ok = catalog.Lookup("unknown", "60_crystals")
	assert.False(t, ok)
}

func TestBuildCatalogListFailureAborts(t *testing.T) {
	t.Parallel()

	src := &fakeCatalogSource{
		listErr: &vendor.UpstreamError{StatusCode: 502, URL: "https://upstream", Message: "bad gateway"},
	}

	_, err := BuildCatalog(context.Background(), src)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list available SKU groups")
}

func TestBuildCatalogUpstreamDenominationFailureDowngraded(t *testing.T) {
	t.Parallel()

	src := &fakeCatalogSource{
		groups: []string{"broken", "genshin"},
		denominations: map[string]map[string]json.Number{
			"genshin": {"60_crystals": "0.99"},
		},
		denominationErrs: map[string]error{
			"broken": &vendor.UpstreamError{StatusCode: 500, URL: "https://upstream", Message: "boom"},
		},
		notes: map[string]vendor.Notes{
			"broken":  {Notes: "n/a"},
			"genshin": {Notes: "Nhập UID"},
		},
	}

	catalog, err := BuildCatalog(context.Background(), src)
	require.NoError(t, err)

	// The broken group survives with an empty denomination set.
	assert.Empty(t, catalog.Entries["broken"].Denominations)
	assert.Equal(t, json.Number("0.99"), catalog.Entries["genshin"].Denominations["60_crystals"])
}

func TestBuildCatalogNonUpstreamDenominationFailureAborts(t *testing.T) {
	t.Parallel()

	src := &fakeCatalogSource{
		groups: []string{"genshin"},
		denominationErrs: map[string]error{
			"genshin": fmt.Errorf("cache file unreadable"),
		},
	}

	_, err := BuildCatalog(context.Background(), src)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to get denominations for genshin")
}

func TestBuildCatalogNotesFailureAborts(t *testing.T) {
	t.Parallel()

	src := &fakeCatalogSource{
		groups: []string{"genshin"},
		denominations: map[string]map[string]json.Number{
			"genshin": {"60_crystals": "0.99"},
		},
		noteErrs: map[string]error{
			"genshin": &vendor.UpstreamError{StatusCode: 429, URL: "https://upstream", Message: "rate limited"},
		},
	}

	_, err := BuildCatalog(context.Background(), src)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to get notes for genshin")
}

package arbitrage

import (
	"testing"

	"github.com/stretchr/testify/require"

	"vertex/internal/config"
)

func TestDefaultCatalogClosedCycles(t *testing.T) {
	catalog := DefaultCatalog()
	require.Len(t, catalog, 6)
	require.NoError(t, ValidateCatalog(catalog))
	for _, p := range catalog {
		// every default path starts and ends at SOL
		require.Equal(t, MintSOL, p.Legs[0].From, p.Name)
		require.Equal(t, MintSOL, p.Legs[2].To, p.Name)
	}
}

func TestCatalogFromConfigFallsBackToDefault(t *testing.T) {
	var cfg config.Config
	catalog, err := CatalogFromConfig(cfg)
	require.NoError(t, err)
	require.Equal(t, DefaultCatalog(), catalog)
}

func TestCatalogFromConfigCustomTriangles(t *testing.T) {
	var cfg config.Config
	cfg.Arbitrage.Triangles = []config.Triangle{
		{Name: "A-B-C", Legs: []config.Leg{{From: "a", To: "b"}, {From: "b", To: "c"}, {From: "c", To: "a"}}},
	}
	catalog, err := CatalogFromConfig(cfg)
	require.NoError(t, err)
	require.Len(t, catalog, 1)
	require.Equal(t, "A-B-C", catalog[0].Name)
	require.Equal(t, Leg{From: "c", To: "a"}, catalog[0].Legs[2])
}

func TestCatalogFromConfigRejectsOpenCycle(t *testing.T) {
	var cfg config.Config
	cfg.Arbitrage.Triangles = []config.Triangle{
		{Name: "broken", Legs: []config.Leg{{From: "a", To: "b"}, {From: "b", To: "c"}, {From: "c", To: "b"}}},
	}
	_, err := CatalogFromConfig(cfg)
	require.Error(t, err)
	require.Contains(t, err.Error(), "broken")
}

func TestCatalogFromConfigRejectsWrongLegCount(t *testing.T) {
	var cfg config.Config
	cfg.Arbitrage.Triangles = []config.Triangle{
		{Name: "pair", Legs: []config.Leg{{From: "a", To: "b"}, {From: "b", To: "a"}}},
	}
	_, err := CatalogFromConfig(cfg)
	require.Error(t, err)
}

func TestValidateCatalogRejectsDuplicateNames(t *testing.T) {
	p := triangle("dup", "a", "b", "c")
	err := ValidateCatalog([]Path{p, p})
	require.Error(t, err)
	require.Contains(t, err.Error(), "duplicate")
}

func TestValidateCatalogRejectsMidCycleBreak(t *testing.T) {
	p := triangle("x", "a", "b", "c")
	p.Legs[1].To = "d" // leg 2 no longer feeds leg 3
	err := ValidateCatalog([]Path{p})
	require.Error(t, err)
}

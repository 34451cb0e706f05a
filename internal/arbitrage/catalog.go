package arbitrage

import (
	"fmt"

	"vertex/internal/config"
)

// Mainnet token mints used by the default catalog.
const (
	MintSOL  = "So11111111111111111111111111111111111111112"
	MintUSDC = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	MintUSDT = "Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB"
	MintBONK = "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263"
	MintJUP  = "JUPyiwrYJFskUPiHa7hkeR8VUtAeFoSYbKedZNsDvCN"
)

// Leg is one directed swap between two mints.
type Leg struct {
	From string
	To   string
}

// Path is an immutable 3-leg cycle. Legs chain: leg[i].To == leg[i+1].From,
// and the last leg returns to the first leg's input mint.
type Path struct {
	Name string
	Legs [3]Leg
}

func triangle(name string, a, b, c string) Path {
	return Path{Name: name, Legs: [3]Leg{{From: a, To: b}, {From: b, To: c}, {From: c, To: a}}}
}

// DefaultCatalog returns the fixed SOL-anchored triangles scanned when no
// catalog is configured.
func DefaultCatalog() []Path {
	return []Path{
		// Stables
		triangle("SOL-USDC-USDT", MintSOL, MintUSDC, MintUSDT),
		triangle("SOL-USDT-USDC", MintSOL, MintUSDT, MintUSDC),
		// SOL/USDC/BONK
		triangle("SOL-USDC-BONK", MintSOL, MintUSDC, MintBONK),
		triangle("SOL-BONK-USDC", MintSOL, MintBONK, MintUSDC),
		// SOL/USDC/JUP
		triangle("SOL-USDC-JUP", MintSOL, MintUSDC, MintJUP),
		triangle("SOL-JUP-USDC", MintSOL, MintJUP, MintUSDC),
	}
}

// CatalogFromConfig builds the path catalog from configured triangles,
// falling back to the default catalog. Every path is cycle-validated.
func CatalogFromConfig(cfg config.Config) ([]Path, error) {
	triangles := cfg.Arbitrage.Triangles
	if len(triangles) == 0 {
		catalog := DefaultCatalog()
		if err := ValidateCatalog(catalog); err != nil {
			return nil, err
		}
		return catalog, nil
	}
	catalog := make([]Path, 0, len(triangles))
	for _, t := range triangles {
		if len(t.Legs) != 3 {
			return nil, fmt.Errorf("triangle %q: expected 3 legs, got %d", t.Name, len(t.Legs))
		}
		p := Path{Name: t.Name}
		for i, l := range t.Legs {
			p.Legs[i] = Leg{From: l.From, To: l.To}
		}
		catalog = append(catalog, p)
	}
	if err := ValidateCatalog(catalog); err != nil {
		return nil, err
	}
	return catalog, nil
}

// ValidateCatalog rejects any path that is not a closed 3-cycle.
func ValidateCatalog(catalog []Path) error {
	if len(catalog) == 0 {
		return fmt.Errorf("path catalog is empty")
	}
	seen := make(map[string]struct{}, len(catalog))
	for _, p := range catalog {
		if p.Name == "" {
			return fmt.Errorf("unnamed path in catalog")
		}
		if _, dup := seen[p.Name]; dup {
			return fmt.Errorf("duplicate path name %q", p.Name)
		}
		seen[p.Name] = struct{}{}
		for i, leg := range p.Legs {
			if leg.From == "" || leg.To == "" {
				return fmt.Errorf("path %q: leg %d has an empty mint", p.Name, i+1)
			}
			next := p.Legs[(i+1)%3]
			if leg.To != next.From {
				return fmt.Errorf("path %q: leg %d output %s does not feed leg %d input %s",
					p.Name, i+1, leg.To, (i+1)%3+1, next.From)
			}
		}
	}
	return nil
}

// Package catalog resolves adsorbate definitions. Config-declared entries
// are synced into the ledger on startup; unknown names fall back to a bare
// definition whose formula is the name itself, so a batch can always run an
// adsorbate nobody bothered to declare.
package catalog

import (
	"fmt"
	"log/slog"

	"github.com/Azeezakinyemi999/Hindered-Partition-Function-NEB/internal/chem"
	"github.com/Azeezakinyemi999/Hindered-Partition-Function-NEB/internal/config"
	"github.com/Azeezakinyemi999/Hindered-Partition-Function-NEB/internal/ledger"
)

type Catalog struct {
	ledger *ledger.Ledger
}

func New(l *ledger.Ledger) *Catalog {
	return &Catalog{ledger: l}
}

// Sync persists the config-declared entries into the ledger.
func (c *Catalog) Sync(entries map[string]config.CatalogEntry) error {
	for name, entry := range entries {
		formula := entry.Formula
		if formula == "" {
			formula = name
		}
		if _, err := chem.ParseFormula(formula); err != nil {
			return fmt.Errorf("catalog entry %s: %w", name, err)
		}
		if err := c.ledger.SaveCatalogEntry(&ledger.CatalogEntry{
			Name:        name,
			Formula:     formula,
			Charge:      entry.Charge,
			Magmom:      entry.Magmom,
			Description: entry.Description,
		}); err != nil {
			return err
		}
	}
	if len(entries) > 0 {
		slog.Info("catalog synced", "entries", len(entries))
	}
	return nil
}

// Resolve returns the definition for an adsorbate name. Names without a
// catalog entry get a bare definition as long as the name parses as a
// formula.
func (c *Catalog) Resolve(name string) (ledger.CatalogEntry, error) {
	entry, err := c.ledger.GetCatalogEntry(name)
	if err != nil {
		return ledger.CatalogEntry{}, err
	}
	if entry != nil {
		return *entry, nil
	}

	if _, err := chem.ParseFormula(name); err != nil {
		return ledger.CatalogEntry{}, fmt.Errorf("unknown adsorbate %s: %w", name, err)
	}
	return ledger.CatalogEntry{Name: name, Formula: name}, nil
}

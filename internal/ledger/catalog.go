package ledger

import (
	"database/sql"
	"fmt"
)

// CatalogEntry is one adsorbate definition persisted from the config catalog.
type CatalogEntry struct {
	Name        string  `json:"name"`
	Formula     string  `json:"formula"`
	Charge      int     `json:"charge"`
	Magmom      float64 `json:"magmom"`
	Description string  `json:"description,omitempty"`
}

func (l *Ledger) SaveCatalogEntry(e *CatalogEntry) error {
	_, err := l.db.Exec(`
		INSERT INTO catalog (name, formula, charge, magmom, description)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			formula = excluded.formula, charge = excluded.charge,
			magmom = excluded.magmom, description = excluded.description,
			updated_at = CURRENT_TIMESTAMP`,
		e.Name, e.Formula, e.Charge, e.Magmom, e.Description)
	if err != nil {
		return fmt.Errorf("save catalog entry: %w", err)
	}
	return nil
}

func (l *Ledger) GetCatalogEntry(name string) (*CatalogEntry, error) {
	row := l.db.QueryRow(`
		SELECT name, formula, charge, magmom, description
		FROM catalog WHERE name = ?`, name)

	e := &CatalogEntry{}
	var desc *string
	err := row.Scan(&e.Name, &e.Formula, &e.Charge, &e.Magmom, &desc)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get catalog entry: %w", err)
	}
	if desc != nil {
		e.Description = *desc
	}
	return e, nil
}

func (l *Ledger) ListCatalog() ([]CatalogEntry, error) {
	rows, err := l.db.Query(`
		SELECT name, formula, charge, magmom, description
		FROM catalog ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list catalog: %w", err)
	}
	defer rows.Close()

	var entries []CatalogEntry
	for rows.Next() {
		var e CatalogEntry
		var desc *string
		if err := rows.Scan(&e.Name, &e.Formula, &e.Charge, &e.Magmom, &desc); err != nil {
			return nil, fmt.Errorf("scan catalog entry: %w", err)
		}
		if desc != nil {
			e.Description = *desc
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

package ledger

import (
	"database/sql"
	"fmt"
	"time"
)

// Secret is an encrypted calculator credential (API token, license string).
// Value and Nonce are vault ciphertext; plaintext never touches the ledger.
type Secret struct {
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Value       []byte    `json:"-"`
	Nonce       []byte    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (l *Ledger) SaveSecret(sec *Secret) error {
	_, err := l.db.Exec(`
		INSERT INTO secrets (name, description, value, nonce)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			description = excluded.description, value = excluded.value,
			nonce = excluded.nonce, updated_at = CURRENT_TIMESTAMP`,
		sec.Name, sec.Description, sec.Value, sec.Nonce)
	if err != nil {
		return fmt.Errorf("save secret: %w", err)
	}
	return nil
}

func (l *Ledger) GetSecret(name string) (*Secret, error) {
	row := l.db.QueryRow(`
		SELECT name, description, value, nonce, created_at, updated_at
		FROM secrets WHERE name = ?`, name)

	sec := &Secret{}
	var desc *string
	err := row.Scan(&sec.Name, &desc, &sec.Value, &sec.Nonce, &sec.CreatedAt, &sec.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get secret: %w", err)
	}
	if desc != nil {
		sec.Description = *desc
	}
	return sec, nil
}

// ListSecrets returns secret metadata only, never ciphertext.
func (l *Ledger) ListSecrets() ([]Secret, error) {
	rows, err := l.db.Query(`
		SELECT name, description, created_at, updated_at
		FROM secrets ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list secrets: %w", err)
	}
	defer rows.Close()

	var secrets []Secret
	for rows.Next() {
		var sec Secret
		var desc *string
		if err := rows.Scan(&sec.Name, &desc, &sec.CreatedAt, &sec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan secret: %w", err)
		}
		if desc != nil {
			sec.Description = *desc
		}
		secrets = append(secrets, sec)
	}
	return secrets, rows.Err()
}

func (l *Ledger) DeleteSecret(name string) error {
	_, err := l.db.Exec(`DELETE FROM secrets WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete secret: %w", err)
	}
	return nil
}

package repo

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/spaza-link/combo-catalog/internal/logger"
	"github.com/spaza-link/combo-catalog/internal/models"
	"go.uber.org/zap"
)

// ErrNotFound is returned when a requested combo does not exist
var ErrNotFound = errors.New("combo not found")

// Repository is the sqlite-backed local copy of the combo catalog. It
// powers the serve command's API and the sync command's offline
// snapshot. Nested item and keyword lists are stored as JSON columns.
type Repository struct {
	db *sql.DB
}

// New creates a repository backed by the database at dbPath
func New(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	repo := &Repository{db: db}
	if err := repo.initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return repo, nil
}

// initialize creates the database schema
func (r *Repository) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS combos (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		price REAL NOT NULL,
		category TEXT NOT NULL DEFAULT '',
		items TEXT NOT NULL,
		keywords TEXT NOT NULL,
		is_active INTEGER NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_combos_category ON combos(category);

	CREATE TABLE IF NOT EXISTS syncs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		source TEXT NOT NULL,
		combo_count INTEGER NOT NULL,
		synced_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`

	_, err := r.db.Exec(schema)
	return err
}

// Close closes the database connection
func (r *Repository) Close() error {
	return r.db.Close()
}

// Ping checks if the database connection is alive
func (r *Repository) Ping() error {
	return r.db.Ping()
}

// Count returns the number of combos in the snapshot
func (r *Repository) Count() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM combos").Scan(&count)
	return count, err
}

const comboColumns = "id, name, description, price, category, items, keywords, is_active, created_at, updated_at"

func scanCombo(row interface{ Scan(...any) error }) (*models.Combo, error) {
	var combo models.Combo
	var itemsJSON, keywordsJSON string

	err := row.Scan(
		&combo.ID,
		&combo.Name,
		&combo.Description,
		&combo.Price,
		&combo.Category,
		&itemsJSON,
		&keywordsJSON,
		&combo.IsActive,
		&combo.CreatedAt,
		&combo.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(itemsJSON), &combo.Items); err != nil {
		return nil, fmt.Errorf("failed to decode items for combo %d: %w", combo.ID, err)
	}
	if err := json.Unmarshal([]byte(keywordsJSON), &combo.Keywords); err != nil {
		return nil, fmt.Errorf("failed to decode keywords for combo %d: %w", combo.ID, err)
	}

	return &combo, nil
}

// ListCombos returns every combo in catalog order
func (r *Repository) ListCombos() ([]models.Combo, error) {
	rows, err := r.db.Query("SELECT " + comboColumns + " FROM combos ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var combos []models.Combo
	for rows.Next() {
		combo, err := scanCombo(rows)
		if err != nil {
			logger.Log.Warn("Error scanning combo row", zap.Error(err))
			continue
		}
		combos = append(combos, *combo)
	}

	return combos, rows.Err()
}

// GetCombo returns a single combo by id
func (r *Repository) GetCombo(id int) (*models.Combo, error) {
	row := r.db.QueryRow("SELECT "+comboColumns+" FROM combos WHERE id = ?", id)

	combo, err := scanCombo(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return combo, nil
}

func encodeNested(draft models.ComboDraft) (string, string, error) {
	items := draft.Items
	if items == nil {
		items = []models.ComboItem{}
	}
	keywords := draft.Keywords
	if keywords == nil {
		keywords = []string{}
	}

	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return "", "", err
	}
	keywordsJSON, err := json.Marshal(keywords)
	if err != nil {
		return "", "", err
	}
	return string(itemsJSON), string(keywordsJSON), nil
}

// CreateCombo inserts a new combo, assigning its id and timestamps
func (r *Repository) CreateCombo(draft models.ComboDraft) (*models.Combo, error) {
	itemsJSON, keywordsJSON, err := encodeNested(draft)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	result, err := r.db.Exec(`
		INSERT INTO combos (name, description, price, category, items, keywords, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		draft.Name, draft.Description, draft.Price, draft.Category,
		itemsJSON, keywordsJSON, draft.IsActive, now, now,
	)
	if err != nil {
		return nil, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	return r.GetCombo(int(id))
}

// UpdateCombo replaces a combo's caller-writable fields and bumps its
// updated_at timestamp
func (r *Repository) UpdateCombo(id int, draft models.ComboDraft) (*models.Combo, error) {
	itemsJSON, keywordsJSON, err := encodeNested(draft)
	if err != nil {
		return nil, err
	}

	result, err := r.db.Exec(`
		UPDATE combos
		SET name = ?, description = ?, price = ?, category = ?, items = ?, keywords = ?, is_active = ?, updated_at = ?
		WHERE id = ?`,
		draft.Name, draft.Description, draft.Price, draft.Category,
		itemsJSON, keywordsJSON, draft.IsActive, time.Now().UTC(), id,
	)
	if err != nil {
		return nil, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, ErrNotFound
	}

	return r.GetCombo(id)
}

// DeleteCombo removes a combo by id
func (r *Repository) DeleteCombo(id int) error {
	result, err := r.db.Exec("DELETE FROM combos WHERE id = ?", id)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// ToggleCombo flips a combo's active flag and returns the updated combo
func (r *Repository) ToggleCombo(id int) (*models.Combo, error) {
	result, err := r.db.Exec(
		"UPDATE combos SET is_active = NOT is_active, updated_at = ? WHERE id = ?",
		time.Now().UTC(), id,
	)
	if err != nil {
		return nil, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, ErrNotFound
	}

	return r.GetCombo(id)
}

// Categories returns the distinct categories present in the snapshot
func (r *Repository) Categories() ([]string, error) {
	rows, err := r.db.Query("SELECT DISTINCT category FROM combos WHERE category != '' ORDER BY category")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []string
	for rows.Next() {
		var category string
		if err := rows.Scan(&category); err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}

	return categories, rows.Err()
}

// Stats computes the catalog aggregate served by the statistics endpoint
func (r *Repository) Stats() (*models.ComboStatistics, error) {
	stats := &models.ComboStatistics{}

	err := r.db.QueryRow(`
		SELECT COUNT(*),
		       COALESCE(SUM(is_active), 0),
		       COALESCE(AVG(price), 0),
		       COALESCE(MIN(price), 0),
		       COALESCE(MAX(price), 0)
		FROM combos`).Scan(
		&stats.TotalCombos,
		&stats.ActiveCombos,
		&stats.PriceStats.Average,
		&stats.PriceStats.Minimum,
		&stats.PriceStats.Maximum,
	)
	if err != nil {
		return nil, err
	}

	stats.InactiveCombos = stats.TotalCombos - stats.ActiveCombos
	stats.PriceStats.Average = math.Round(stats.PriceStats.Average*100) / 100
	stats.PriceStats.Range = stats.PriceStats.Maximum - stats.PriceStats.Minimum

	categories, err := r.Categories()
	if err != nil {
		return nil, err
	}
	stats.Categories = categories
	stats.CategoryCount = len(categories)

	var lastUpdated time.Time
	err = r.db.QueryRow("SELECT updated_at FROM combos ORDER BY updated_at DESC LIMIT 1").Scan(&lastUpdated)
	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}
	stats.LastUpdated = lastUpdated

	return stats, nil
}

// ReplaceAll swaps the entire snapshot for the given catalog, keeping
// the remote ids. Used by sync and by seeding.
func (r *Repository) ReplaceAll(combos []models.Combo) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM combos"); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
		INSERT INTO combos (id, name, description, price, category, items, keywords, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, combo := range combos {
		itemsJSON, keywordsJSON, err := encodeNested(models.ComboDraft{
			Items:    combo.Items,
			Keywords: combo.Keywords,
		})
		if err != nil {
			return err
		}

		_, err = stmt.Exec(
			combo.ID, combo.Name, combo.Description, combo.Price, combo.Category,
			itemsJSON, keywordsJSON, combo.IsActive, combo.CreatedAt, combo.UpdatedAt,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// RecordSync appends an entry to the sync history
func (r *Repository) RecordSync(source string, comboCount int) error {
	_, err := r.db.Exec("INSERT INTO syncs (source, combo_count) VALUES (?, ?)", source, comboCount)
	return err
}

// SyncEntry describes one catalog sync
type SyncEntry struct {
	ID         int       `json:"id"`
	Source     string    `json:"source"`
	ComboCount int       `json:"combo_count"`
	SyncedAt   time.Time `json:"synced_at"`
}

// SyncHistory returns the most recent sync entries, newest first
func (r *Repository) SyncHistory(limit int) ([]SyncEntry, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := r.db.Query(
		"SELECT id, source, combo_count, synced_at FROM syncs ORDER BY synced_at DESC, id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []SyncEntry
	for rows.Next() {
		var entry SyncEntry
		if err := rows.Scan(&entry.ID, &entry.Source, &entry.ComboCount, &entry.SyncedAt); err != nil {
			return nil, err
		}
		history = append(history, entry)
	}

	return history, rows.Err()
}

package db

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/humanzai/cpdash/pkg/models"
)

// RecordAction stores an action, assigning an ID and timestamp when unset.
// Returns the stored action.
func (db *DB) RecordAction(a models.Action) (models.Action, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Timestamp == 0 {
		a.Timestamp = time.Now().Unix()
	}
	if a.Status == "" {
		a.Status = models.StatusOK
	}

	_, err := db.conn.Exec(`
		INSERT INTO actions (id, timestamp, app, deployment, kind, label, detail, status, error, operator)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Timestamp, a.App, a.Deployment, string(a.Kind), a.Label, a.Detail, string(a.Status), a.Error, a.Operator,
	)
	if err != nil {
		return models.Action{}, fmt.Errorf("failed to record action: %w", err)
	}
	return a, nil
}

// GetAction returns the action with the given ID
func (db *DB) GetAction(id string) (*models.Action, error) {
	row := db.conn.QueryRow(`
		SELECT id, timestamp, app, deployment, kind, label, detail, status, error, operator
		FROM actions WHERE id = ?`, id)

	a, err := scanAction(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("action %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get action: %w", err)
	}
	return a, nil
}

// ActionFilter narrows ListActions. Zero values match everything.
type ActionFilter struct {
	App        string
	Deployment string
	Kind       models.ActionKind
	Since      int64 // Unix seconds, inclusive
	Until      int64 // Unix seconds, exclusive
	Limit      int
}

// ListActions returns matching actions, newest first
func (db *DB) ListActions(f ActionFilter) ([]models.Action, error) {
	var where []string
	var args []any

	if f.App != "" {
		where = append(where, "app = ?")
		args = append(args, f.App)
	}
	if f.Deployment != "" {
		where = append(where, "deployment = ?")
		args = append(args, f.Deployment)
	}
	if f.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, string(f.Kind))
	}
	if f.Since > 0 {
		where = append(where, "timestamp >= ?")
		args = append(args, f.Since)
	}
	if f.Until > 0 {
		where = append(where, "timestamp < ?")
		args = append(args, f.Until)
	}

	query := `SELECT id, timestamp, app, deployment, kind, label, detail, status, error, operator FROM actions`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY timestamp DESC, rowid DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list actions: %w", err)
	}
	defer rows.Close()

	var actions []models.Action
	for rows.Next() {
		a, err := scanAction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan action: %w", err)
		}
		actions = append(actions, *a)
	}
	return actions, rows.Err()
}

// CountActions returns the number of journaled actions
func (db *DB) CountActions() (int, error) {
	var count int
	if err := db.conn.QueryRow("SELECT COUNT(*) FROM actions").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count actions: %w", err)
	}
	return count, nil
}

func scanAction(scanner interface{ Scan(...any) error }) (*models.Action, error) {
	var a models.Action
	var kind, status string
	var label, errText sql.NullString

	if err := scanner.Scan(&a.ID, &a.Timestamp, &a.App, &a.Deployment, &kind, &label, &a.Detail, &status, &errText, &a.Operator); err != nil {
		return nil, err
	}

	a.Kind = models.ActionKind(kind)
	a.Status = models.ActionStatus(status)
	if label.Valid {
		a.Label = &label.String
	}
	if errText.Valid {
		a.Error = &errText.String
	}
	return &a, nil
}

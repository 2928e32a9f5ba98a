package store

import "time"

type AuditEntry struct {
	ID         int64     `json:"id"`
	EntityType string    `json:"entity_type"`
	EntityID   int64     `json:"entity_id"`
	Action     string    `json:"action"`
	OldValue   string    `json:"old_value,omitempty"`
	NewValue   string    `json:"new_value,omitempty"`
	Actor      string    `json:"actor"`
	CreatedAt  time.Time `json:"created_at"`
}

func (db *DB) AppendAudit(entityType string, entityID int64, action, oldValue, newValue, actor string) {
	db.Exec(db.Q(`INSERT INTO audit_log (entity_type, entity_id, action, old_value, new_value, actor) VALUES (?, ?, ?, ?, ?, ?)`),
		entityType, entityID, action, oldValue, newValue, actor)
}

func (db *DB) ListAudit(entityType string, entityID int64, limit int) ([]*AuditEntry, error) {
	rows, err := db.Query(db.Q(`SELECT id, entity_type, entity_id, action, old_value, new_value, actor, created_at
		FROM audit_log WHERE entity_type=? AND entity_id=? ORDER BY id DESC LIMIT ?`),
		entityType, entityID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []*AuditEntry
	for rows.Next() {
		var a AuditEntry
		var created dbTime
		if err := rows.Scan(&a.ID, &a.EntityType, &a.EntityID, &a.Action, &a.OldValue, &a.NewValue, &a.Actor, &created); err != nil {
			return nil, err
		}
		a.CreatedAt = created.Time()
		entries = append(entries, &a)
	}
	return entries, rows.Err()
}

// CountAuditSince counts audit entries for an action recorded at or after the
// cutoff. Used for the overrides-today KPI.
func (db *DB) CountAuditSince(action string, since time.Time) (int, error) {
	var n int
	err := db.QueryRow(db.Q(`SELECT COUNT(*) FROM audit_log WHERE action=? AND created_at >= ?`),
		action, fmtTime(since)).Scan(&n)
	return n, err
}

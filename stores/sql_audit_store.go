package stores

import (
	"context"
	"encoding/json"

	"github.com/oarkflow/squealx"

	"github.com/oarkflow/catalogaccess"
)

// SQLAuditStore persists rule-change audit entries in SQL. Rows are append
// only; nothing here updates or deletes.
type SQLAuditStore struct {
	db *squealx.DB
}

func NewSQLAuditStore(db *squealx.DB) (*SQLAuditStore, error) {
	return &SQLAuditStore{db: db}, nil
}

func (s *SQLAuditStore) Append(ctx context.Context, entry *catalogaccess.AuditEntry) error {
	q := `INSERT INTO catalog_access_audit(id, organization_id, entity_type, entity_id, action, previous_state_json, new_state_json, actor_id, actor_name, origin, created_at)
VALUES(:id, :organization_id, :entity_type, :entity_id, :action, :previous_state_json, :new_state_json, :actor_id, :actor_name, :origin, :created_at)`
	var prevState, newState any
	if entry.PreviousState != nil {
		prevState = string(entry.PreviousState)
	}
	if entry.NewState != nil {
		newState = string(entry.NewState)
	}
	_, err := s.db.NamedExecContext(ctx, q, map[string]any{
		"id":                  entry.ID,
		"organization_id":     entry.OrganizationID,
		"entity_type":         string(entry.EntityType),
		"entity_id":           entry.EntityID,
		"action":              string(entry.Action),
		"previous_state_json": prevState,
		"new_state_json":      newState,
		"actor_id":            entry.ActorID,
		"actor_name":          nullIfEmpty(entry.ActorName),
		"origin":              nullIfEmpty(entry.Origin),
		"created_at":          entry.CreatedAt,
	})
	return err
}

func (s *SQLAuditStore) History(ctx context.Context, filter catalogaccess.AuditFilter) ([]*catalogaccess.AuditEntry, int, error) {
	where := ` WHERE 1=1`
	params := map[string]any{}
	if filter.EntityType != "" {
		where += " AND entity_type = :entity_type"
		params["entity_type"] = string(filter.EntityType)
	}
	if filter.EntityID != "" {
		where += " AND entity_id = :entity_id"
		params["entity_id"] = filter.EntityID
	}
	if !filter.StartTime.IsZero() {
		where += " AND created_at >= :start"
		params["start"] = filter.StartTime
	}
	if !filter.EndTime.IsZero() {
		where += " AND created_at <= :end"
		params["end"] = filter.EndTime
	}

	total, err := s.count(ctx, where, params)
	if err != nil {
		return nil, 0, err
	}

	q := `SELECT id, organization_id, entity_type, entity_id, action, previous_state_json, new_state_json, actor_id, actor_name, origin, created_at FROM catalog_access_audit` + where + ` ORDER BY created_at DESC`
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	q += " LIMIT :limit"
	params["limit"] = limit
	if filter.Offset > 0 {
		q += " OFFSET :offset"
		params["offset"] = filter.Offset
	}

	r, err := s.db.NamedQueryContext(ctx, q, params)
	if err != nil {
		return nil, 0, err
	}
	defer r.Close()
	out := make([]*catalogaccess.AuditEntry, 0)
	for r.Next() {
		var id, org, entityType, entityID, action, actorID string
		var prevRaw, newRaw, actorName, origin any
		var createdRaw any
		if err := r.Scan(&id, &org, &entityType, &entityID, &action, &prevRaw, &newRaw, &actorID, &actorName, &origin, &createdRaw); err != nil {
			return nil, 0, err
		}
		entry := &catalogaccess.AuditEntry{
			ID:             id,
			OrganizationID: org,
			EntityType:     catalogaccess.EntityType(entityType),
			EntityID:       entityID,
			Action:         catalogaccess.AuditAction(action),
			ActorID:        actorID,
			CreatedAt:      scanTime(createdRaw),
		}
		entry.PreviousState = rawJSON(prevRaw)
		entry.NewState = rawJSON(newRaw)
		entry.ActorName = scanString(actorName)
		entry.Origin = scanString(origin)
		out = append(out, entry)
	}
	return out, total, nil
}

func (s *SQLAuditStore) count(ctx context.Context, where string, params map[string]any) (int, error) {
	r, err := s.db.NamedQueryContext(ctx, `SELECT COUNT(*) FROM catalog_access_audit`+where, params)
	if err != nil {
		return 0, err
	}
	defer r.Close()
	total := 0
	if r.Next() {
		if err := r.Scan(&total); err != nil {
			return 0, err
		}
	}
	return total, nil
}

func rawJSON(v any) json.RawMessage {
	switch s := v.(type) {
	case string:
		if s != "" {
			return json.RawMessage(s)
		}
	case []byte:
		if len(s) > 0 {
			return json.RawMessage(s)
		}
	}
	return nil
}

func scanString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	}
	return ""
}

package stores

import (
	"context"

	"github.com/oarkflow/squealx"

	"github.com/oarkflow/catalogaccess"
)

// SQLRuleStore persists client and user access rules in SQL (squealx). Id
// lists are stored as JSON columns; at most one row exists per client/user,
// enforced by the primary key.
type SQLRuleStore struct {
	db *squealx.DB
}

func NewSQLRuleStore(db *squealx.DB) *SQLRuleStore {
	return &SQLRuleStore{db: db}
}

func (s *SQLRuleStore) GetClientRule(ctx context.Context, clientID string) (*catalogaccess.ClientRule, error) {
	q := `SELECT client_id, organization_id, access_mode, allowed_categories_json, allowed_items_json, denied_categories_json, denied_items_json, updated_by, created_at, updated_at FROM client_access_rules WHERE client_id = :client_id`
	r, err := s.db.NamedQueryContext(ctx, q, map[string]any{"client_id": clientID})
	if err != nil {
		return nil, err
	}
	defer r.Close()
	if !r.Next() {
		return nil, catalogaccess.ErrRuleNotFound
	}
	var id, org, mode, allowedCats, allowedItems, deniedCats, deniedItems string
	var updatedBy any
	var createdRaw, updatedRaw any
	if err := r.Scan(&id, &org, &mode, &allowedCats, &allowedItems, &deniedCats, &deniedItems, &updatedBy, &createdRaw, &updatedRaw); err != nil {
		return nil, err
	}
	rule := &catalogaccess.ClientRule{
		ClientID:          id,
		OrganizationID:    org,
		AccessMode:        catalogaccess.AccessMode(mode),
		AllowedCategories: decodeIDs(allowedCats),
		AllowedItems:      decodeIDs(allowedItems),
		DeniedCategories:  decodeIDs(deniedCats),
		DeniedItems:       decodeIDs(deniedItems),
		CreatedAt:         scanTime(createdRaw),
		UpdatedAt:         scanTime(updatedRaw),
	}
	if updatedBy != nil {
		switch v := updatedBy.(type) {
		case string:
			rule.UpdatedBy = v
		case []byte:
			rule.UpdatedBy = string(v)
		}
	}
	return rule, nil
}

func (s *SQLRuleStore) SaveClientRule(ctx context.Context, rule *catalogaccess.ClientRule) error {
	q := `INSERT INTO client_access_rules(client_id, organization_id, access_mode, allowed_categories_json, allowed_items_json, denied_categories_json, denied_items_json, updated_by, created_at, updated_at)
VALUES(:client_id, :organization_id, :access_mode, :allowed_categories_json, :allowed_items_json, :denied_categories_json, :denied_items_json, :updated_by, :created_at, :updated_at)
ON CONFLICT(client_id) DO UPDATE SET
    organization_id = excluded.organization_id,
    access_mode = excluded.access_mode,
    allowed_categories_json = excluded.allowed_categories_json,
    allowed_items_json = excluded.allowed_items_json,
    denied_categories_json = excluded.denied_categories_json,
    denied_items_json = excluded.denied_items_json,
    updated_by = excluded.updated_by,
    updated_at = excluded.updated_at`
	_, err := s.db.NamedExecContext(ctx, q, map[string]any{
		"client_id":               rule.ClientID,
		"organization_id":         rule.OrganizationID,
		"access_mode":             string(rule.AccessMode),
		"allowed_categories_json": encodeIDs(rule.AllowedCategories),
		"allowed_items_json":      encodeIDs(rule.AllowedItems),
		"denied_categories_json":  encodeIDs(rule.DeniedCategories),
		"denied_items_json":       encodeIDs(rule.DeniedItems),
		"updated_by":              nullIfEmpty(rule.UpdatedBy),
		"created_at":              rule.CreatedAt,
		"updated_at":              rule.UpdatedAt,
	})
	return err
}

func (s *SQLRuleStore) GetUserRule(ctx context.Context, userID string) (*catalogaccess.UserRule, error) {
	q := `SELECT user_id, organization_id, client_id, inheritance_mode, access_mode, allowed_categories_json, allowed_items_json, denied_categories_json, denied_items_json, updated_by, created_at, updated_at FROM user_access_rules WHERE user_id = :user_id`
	r, err := s.db.NamedQueryContext(ctx, q, map[string]any{"user_id": userID})
	if err != nil {
		return nil, err
	}
	defer r.Close()
	if !r.Next() {
		return nil, catalogaccess.ErrRuleNotFound
	}
	var id, org, clientID, inheritance, mode, allowedCats, allowedItems, deniedCats, deniedItems string
	var updatedBy any
	var createdRaw, updatedRaw any
	if err := r.Scan(&id, &org, &clientID, &inheritance, &mode, &allowedCats, &allowedItems, &deniedCats, &deniedItems, &updatedBy, &createdRaw, &updatedRaw); err != nil {
		return nil, err
	}
	rule := &catalogaccess.UserRule{
		UserID:            id,
		OrganizationID:    org,
		ClientID:          clientID,
		InheritanceMode:   catalogaccess.InheritanceMode(inheritance),
		AccessMode:        catalogaccess.AccessMode(mode),
		AllowedCategories: decodeIDs(allowedCats),
		AllowedItems:      decodeIDs(allowedItems),
		DeniedCategories:  decodeIDs(deniedCats),
		DeniedItems:       decodeIDs(deniedItems),
		CreatedAt:         scanTime(createdRaw),
		UpdatedAt:         scanTime(updatedRaw),
	}
	if updatedBy != nil {
		switch v := updatedBy.(type) {
		case string:
			rule.UpdatedBy = v
		case []byte:
			rule.UpdatedBy = string(v)
		}
	}
	return rule, nil
}

func (s *SQLRuleStore) SaveUserRule(ctx context.Context, rule *catalogaccess.UserRule) error {
	q := `INSERT INTO user_access_rules(user_id, organization_id, client_id, inheritance_mode, access_mode, allowed_categories_json, allowed_items_json, denied_categories_json, denied_items_json, updated_by, created_at, updated_at)
VALUES(:user_id, :organization_id, :client_id, :inheritance_mode, :access_mode, :allowed_categories_json, :allowed_items_json, :denied_categories_json, :denied_items_json, :updated_by, :created_at, :updated_at)
ON CONFLICT(user_id) DO UPDATE SET
    organization_id = excluded.organization_id,
    client_id = excluded.client_id,
    inheritance_mode = excluded.inheritance_mode,
    access_mode = excluded.access_mode,
    allowed_categories_json = excluded.allowed_categories_json,
    allowed_items_json = excluded.allowed_items_json,
    denied_categories_json = excluded.denied_categories_json,
    denied_items_json = excluded.denied_items_json,
    updated_by = excluded.updated_by,
    updated_at = excluded.updated_at`
	_, err := s.db.NamedExecContext(ctx, q, map[string]any{
		"user_id":                 rule.UserID,
		"organization_id":         rule.OrganizationID,
		"client_id":               rule.ClientID,
		"inheritance_mode":        string(rule.InheritanceMode),
		"access_mode":             string(rule.AccessMode),
		"allowed_categories_json": encodeIDs(rule.AllowedCategories),
		"allowed_items_json":      encodeIDs(rule.AllowedItems),
		"denied_categories_json":  encodeIDs(rule.DeniedCategories),
		"denied_items_json":       encodeIDs(rule.DeniedItems),
		"updated_by":              nullIfEmpty(rule.UpdatedBy),
		"created_at":              rule.CreatedAt,
		"updated_at":              rule.UpdatedAt,
	})
	return err
}

package stores

import (
	"context"

	"github.com/oarkflow/squealx"

	"github.com/oarkflow/catalogaccess"
)

// SQLDirectory resolves a user to its parent client and organization from the
// client_users mapping table maintained by the identity layer.
type SQLDirectory struct {
	db *squealx.DB
}

func NewSQLDirectory(db *squealx.DB) *SQLDirectory {
	return &SQLDirectory{db: db}
}

func (d *SQLDirectory) ParentClient(ctx context.Context, userID string) (string, string, error) {
	q := `SELECT client_id, organization_id FROM client_users WHERE user_id = :user_id`
	r, err := d.db.NamedQueryContext(ctx, q, map[string]any{"user_id": userID})
	if err != nil {
		return "", "", err
	}
	defer r.Close()
	if !r.Next() {
		return "", "", catalogaccess.ErrNotFound
	}
	var clientID, organizationID string
	if err := r.Scan(&clientID, &organizationID); err != nil {
		return "", "", err
	}
	return clientID, organizationID, nil
}

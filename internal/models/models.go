package models

import (
	"database/sql"
	"time"

	"github.com/lib/pq"
)

// Operator is an account allowed to manage rooms and runtime config
type Operator struct {
	Username    string         `db:"username" json:"username"`
	DisplayName string         `db:"display_name" json:"display_name"`
	TokenHash   string         `db:"token_hash" json:"-"`
	Roles       pq.StringArray `db:"roles" json:"roles"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

// HasRole reports whether the operator holds role
func (o *Operator) HasRole(role string) bool {
	for _, r := range o.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// OperatorAudit is a row of the operator audit log
type OperatorAudit struct {
	ID               int            `db:"id" json:"id"`
	OperatorUsername string         `db:"operator_username" json:"operator_username"`
	IP               sql.NullString `db:"ip" json:"ip"`
	Route            string         `db:"route" json:"route"`
	Action           string         `db:"action" json:"action"`
	Details          sql.NullString `db:"details" json:"details"`
	Success          bool           `db:"success" json:"success"`
	CreatedAt        time.Time      `db:"created_at" json:"created_at"`
}

// RuntimeConfig is an operator-editable override of a config value
type RuntimeConfig struct {
	Key         string         `db:"key" json:"key"`
	Value       string         `db:"value" json:"value"`
	ValueType   string         `db:"value_type" json:"value_type"`
	Description sql.NullString `db:"description" json:"description"`
	UpdatedBy   sql.NullString `db:"updated_by" json:"updated_by"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

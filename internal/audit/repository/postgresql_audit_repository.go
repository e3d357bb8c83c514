// Package repository persists registrar audit log entries.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	auditDomain "github.com/md-riaz/domaindesk/internal/audit/domain"
	"github.com/md-riaz/domaindesk/internal/database"
	apperrors "github.com/md-riaz/domaindesk/internal/errors"
)

const auditColumns = `id, event_type, registrar, operation, error_kind, error_code, message,
			  domain_id, domain_name, partner_id, from_status, to_status, metadata, created_at`

// PostgreSQLAuditRepository implements audit persistence for PostgreSQL.
type PostgreSQLAuditRepository struct {
	db *sql.DB
}

// NewPostgreSQLAuditRepository creates a new PostgreSQL audit repository.
func NewPostgreSQLAuditRepository(db *sql.DB) *PostgreSQLAuditRepository {
	return &PostgreSQLAuditRepository{db: db}
}

// Create inserts entry.
func (p *PostgreSQLAuditRepository) Create(ctx context.Context, entry *auditDomain.Entry) error {
	querier := database.GetTx(ctx, p.db)

	metadata, err := encodeMetadata(entry.Metadata)
	if err != nil {
		return err
	}

	query := `INSERT INTO registrar_audit_logs (` + auditColumns + `)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err = querier.ExecContext(ctx, query,
		entry.ID,
		entry.EventType,
		entry.Registrar,
		entry.Operation,
		entry.ErrorKind,
		entry.ErrorCode,
		entry.Message,
		uuidOrNil(entry.DomainID),
		entry.DomainName,
		uuidOrNil(entry.PartnerID),
		entry.FromStatus,
		entry.ToStatus,
		metadata,
		entry.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create audit entry")
	}
	return nil
}

// List returns entries matching filter, newest first.
func (p *PostgreSQLAuditRepository) List(
	ctx context.Context,
	filter auditDomain.Filter,
) ([]*auditDomain.Entry, error) {
	querier := database.GetTx(ctx, p.db)

	var (
		conditions []string
		args       []any
	)
	if filter.DomainID != nil {
		args = append(args, *filter.DomainID)
		conditions = append(conditions, fmt.Sprintf("domain_id = $%d", len(args)))
	}
	if filter.EventType != "" {
		args = append(args, filter.EventType)
		conditions = append(conditions, fmt.Sprintf("event_type = $%d", len(args)))
	}

	query := `SELECT ` + auditColumns + ` FROM registrar_audit_logs`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	args = append(args, filter.Limit, filter.Offset)
	query += fmt.Sprintf(` ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list audit entries")
	}
	defer func() { _ = rows.Close() }()

	var entries []*auditDomain.Entry
	for rows.Next() {
		var (
			entry     auditDomain.Entry
			domainID  uuid.NullUUID
			partnerID uuid.NullUUID
			metadata  sql.NullString
		)
		if err := rows.Scan(
			&entry.ID,
			&entry.EventType,
			&entry.Registrar,
			&entry.Operation,
			&entry.ErrorKind,
			&entry.ErrorCode,
			&entry.Message,
			&domainID,
			&entry.DomainName,
			&partnerID,
			&entry.FromStatus,
			&entry.ToStatus,
			&metadata,
			&entry.CreatedAt,
		); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan audit entry")
		}
		if err := fillEntry(&entry, domainID, partnerID, metadata); err != nil {
			return nil, err
		}
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate audit entries")
	}
	return entries, nil
}

func encodeMetadata(metadata map[string]any) (any, error) {
	if len(metadata) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(metadata)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to encode audit metadata")
	}
	return string(data), nil
}

func uuidOrNil(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return *id
}

func fillEntry(entry *auditDomain.Entry, domainID, partnerID uuid.NullUUID, metadata sql.NullString) error {
	if domainID.Valid {
		entry.DomainID = &domainID.UUID
	}
	if partnerID.Valid {
		entry.PartnerID = &partnerID.UUID
	}
	if metadata.Valid && metadata.String != "" {
		if err := json.Unmarshal([]byte(metadata.String), &entry.Metadata); err != nil {
			return apperrors.Wrap(err, "failed to decode audit metadata")
		}
	}
	return nil
}

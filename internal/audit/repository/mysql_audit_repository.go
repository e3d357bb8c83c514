package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"

	auditDomain "github.com/md-riaz/domaindesk/internal/audit/domain"
	"github.com/md-riaz/domaindesk/internal/database"
	apperrors "github.com/md-riaz/domaindesk/internal/errors"
)

// MySQLAuditRepository implements audit persistence for MySQL.
type MySQLAuditRepository struct {
	db *sql.DB
}

// NewMySQLAuditRepository creates a new MySQL audit repository.
func NewMySQLAuditRepository(db *sql.DB) *MySQLAuditRepository {
	return &MySQLAuditRepository{db: db}
}

// Create inserts entry.
func (m *MySQLAuditRepository) Create(ctx context.Context, entry *auditDomain.Entry) error {
	querier := database.GetTx(ctx, m.db)

	metadata, err := encodeMetadata(entry.Metadata)
	if err != nil {
		return err
	}

	id, err := entry.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal audit entry id")
	}
	domainID, err := binaryOrNil(entry.DomainID)
	if err != nil {
		return err
	}
	partnerID, err := binaryOrNil(entry.PartnerID)
	if err != nil {
		return err
	}

	query := `INSERT INTO registrar_audit_logs (` + auditColumns + `)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(ctx, query,
		id,
		entry.EventType,
		entry.Registrar,
		entry.Operation,
		entry.ErrorKind,
		entry.ErrorCode,
		entry.Message,
		domainID,
		entry.DomainName,
		partnerID,
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
func (m *MySQLAuditRepository) List(
	ctx context.Context,
	filter auditDomain.Filter,
) ([]*auditDomain.Entry, error) {
	querier := database.GetTx(ctx, m.db)

	var (
		conditions []string
		args       []any
	)
	if filter.DomainID != nil {
		domainID, err := filter.DomainID.MarshalBinary()
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to marshal domain id")
		}
		conditions = append(conditions, "domain_id = ?")
		args = append(args, domainID)
	}
	if filter.EventType != "" {
		conditions = append(conditions, "event_type = ?")
		args = append(args, filter.EventType)
	}

	query := `SELECT ` + auditColumns + ` FROM registrar_audit_logs`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, filter.Limit, filter.Offset)

	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list audit entries")
	}
	defer func() { _ = rows.Close() }()

	var entries []*auditDomain.Entry
	for rows.Next() {
		var (
			entry     auditDomain.Entry
			id        []byte
			domainID  []byte
			partnerID []byte
			metadata  sql.NullString
		)
		if err := rows.Scan(
			&id,
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
		if err := entry.ID.UnmarshalBinary(id); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal audit entry id")
		}
		nullDomain, err := nullUUIDFromBinary(domainID)
		if err != nil {
			return nil, err
		}
		nullPartner, err := nullUUIDFromBinary(partnerID)
		if err != nil {
			return nil, err
		}
		if err := fillEntry(&entry, nullDomain, nullPartner, metadata); err != nil {
			return nil, err
		}
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate audit entries")
	}
	return entries, nil
}

func binaryOrNil(id *uuid.UUID) (any, error) {
	if id == nil {
		return nil, nil
	}
	b, err := id.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal uuid")
	}
	return b, nil
}

func nullUUIDFromBinary(b []byte) (uuid.NullUUID, error) {
	if len(b) == 0 {
		return uuid.NullUUID{}, nil
	}
	var id uuid.UUID
	if err := id.UnmarshalBinary(b); err != nil {
		return uuid.NullUUID{}, apperrors.Wrap(err, "failed to unmarshal uuid")
	}
	return uuid.NullUUID{UUID: id, Valid: true}, nil
}

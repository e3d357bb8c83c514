package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/md-riaz/domaindesk/internal/database"
	apperrors "github.com/md-riaz/domaindesk/internal/errors"
	lifecycleDomain "github.com/md-riaz/domaindesk/internal/lifecycle/domain"
)

// MySQLDomainRepository implements domain persistence for MySQL.
type MySQLDomainRepository struct {
	db *sql.DB
}

// NewMySQLDomainRepository creates a new MySQL domain repository.
func NewMySQLDomainRepository(db *sql.DB) *MySQLDomainRepository {
	return &MySQLDomainRepository{db: db}
}

// Get returns the domain when it belongs to partnerID.
func (m *MySQLDomainRepository) Get(
	ctx context.Context,
	partnerID, domainID uuid.UUID,
) (*lifecycleDomain.Domain, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT ` + domainColumns + ` FROM domains WHERE id = ? AND partner_id = ?`

	dom, err := m.scan(querier.QueryRowContext(ctx, query, binaryID(domainID), binaryID(partnerID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, lifecycleDomain.ErrDomainNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get domain")
	}
	return dom, nil
}

// UpdateLifecycle stores the lifecycle fields of d if its stored status is still from.
func (m *MySQLDomainRepository) UpdateLifecycle(
	ctx context.Context,
	d *lifecycleDomain.Domain,
	from lifecycleDomain.Status,
) error {
	querier := database.GetTx(ctx, m.db)

	query := `UPDATE domains SET status = ?, registered_at = ?, expires_at = ?, updated_at = ?
			  WHERE id = ? AND partner_id = ? AND status = ?`

	now := time.Now().UTC()
	result, err := querier.ExecContext(
		ctx,
		query,
		string(d.Status),
		d.RegisteredAt,
		d.ExpiresAt,
		now,
		binaryID(d.ID),
		binaryID(d.PartnerID),
		string(from),
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update domain")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to get rows affected")
	}
	if affected == 0 {
		return lifecycleDomain.ErrStaleDomain
	}
	d.UpdatedAt = now
	return nil
}

// ListExpiring returns renewable domains of partnerID expiring before the given time.
func (m *MySQLDomainRepository) ListExpiring(
	ctx context.Context,
	partnerID uuid.UUID,
	before time.Time,
	limit int,
) ([]*lifecycleDomain.Domain, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT ` + domainColumns + ` FROM domains
			  WHERE partner_id = ? AND expires_at IS NOT NULL AND expires_at < ? AND ` + renewableFilter + `
			  ORDER BY expires_at ASC, id ASC
			  LIMIT ?`

	rows, err := querier.QueryContext(ctx, query, binaryID(partnerID), before, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list expiring domains")
	}
	defer func() {
		_ = rows.Close()
	}()

	var domains []*lifecycleDomain.Domain
	for rows.Next() {
		dom, err := m.scan(rows)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan domain")
		}
		domains = append(domains, dom)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate domains")
	}
	return domains, nil
}

func (m *MySQLDomainRepository) scan(row rowScanner) (*lifecycleDomain.Domain, error) {
	var (
		dom                            lifecycleDomain.Domain
		id, partnerID, clientID, regID []byte
		status                         string
		nameservers                    []byte
		registeredAt, expiresAt        sql.NullTime
	)
	if err := row.Scan(
		&id,
		&partnerID,
		&clientID,
		&regID,
		&dom.Name,
		&status,
		&dom.Years,
		&nameservers,
		&dom.AutoRenew,
		&registeredAt,
		&expiresAt,
		&dom.CreatedAt,
		&dom.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if err := dom.ID.UnmarshalBinary(id); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal domain id")
	}
	if err := dom.PartnerID.UnmarshalBinary(partnerID); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal partner id")
	}
	var err error
	if dom.ClientID, err = optionalID(clientID); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal client id")
	}
	if dom.RegistrarID, err = optionalID(regID); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal registrar id")
	}

	dom.Status = lifecycleDomain.Status(status)
	if err := decodeNameservers(nameservers, &dom); err != nil {
		return nil, err
	}
	dom.RegisteredAt = timePtr(registeredAt)
	dom.ExpiresAt = timePtr(expiresAt)
	return &dom, nil
}

// binaryID is the BINARY(16) form of id. MarshalBinary never fails for a UUID.
func binaryID(id uuid.UUID) []byte {
	b, _ := id.MarshalBinary()
	return b
}

func optionalID(raw []byte) (*uuid.UUID, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var id uuid.UUID
	if err := id.UnmarshalBinary(raw); err != nil {
		return nil, err
	}
	return &id, nil
}

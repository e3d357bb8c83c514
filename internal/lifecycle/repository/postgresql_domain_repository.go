// Package repository implements persistence for domains, the partner and client
// directory and TLD prices.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/md-riaz/domaindesk/internal/database"
	apperrors "github.com/md-riaz/domaindesk/internal/errors"
	lifecycleDomain "github.com/md-riaz/domaindesk/internal/lifecycle/domain"
)

const domainColumns = `id, partner_id, client_id, registrar_id, name, status, years, nameservers,
	auto_renew, registered_at, expires_at, created_at, updated_at`

// renewableFilter keeps rows whose status allows renewal.
const renewableFilter = `status NOT IN ('pending_registration', 'registration_failed', 'redemption', 'transferred_out')`

// PostgreSQLDomainRepository implements domain persistence for PostgreSQL.
type PostgreSQLDomainRepository struct {
	db *sql.DB
}

// NewPostgreSQLDomainRepository creates a new PostgreSQL domain repository.
func NewPostgreSQLDomainRepository(db *sql.DB) *PostgreSQLDomainRepository {
	return &PostgreSQLDomainRepository{db: db}
}

// Get returns the domain when it belongs to partnerID.
func (p *PostgreSQLDomainRepository) Get(
	ctx context.Context,
	partnerID, domainID uuid.UUID,
) (*lifecycleDomain.Domain, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + domainColumns + ` FROM domains WHERE id = $1 AND partner_id = $2`

	dom, err := p.scan(querier.QueryRowContext(ctx, query, domainID, partnerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, lifecycleDomain.ErrDomainNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get domain")
	}
	return dom, nil
}

// UpdateLifecycle stores the lifecycle fields of d if its stored status is still from.
func (p *PostgreSQLDomainRepository) UpdateLifecycle(
	ctx context.Context,
	d *lifecycleDomain.Domain,
	from lifecycleDomain.Status,
) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE domains SET status = $1, registered_at = $2, expires_at = $3, updated_at = $4
			  WHERE id = $5 AND partner_id = $6 AND status = $7`

	now := time.Now().UTC()
	result, err := querier.ExecContext(
		ctx,
		query,
		string(d.Status),
		d.RegisteredAt,
		d.ExpiresAt,
		now,
		d.ID,
		d.PartnerID,
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
func (p *PostgreSQLDomainRepository) ListExpiring(
	ctx context.Context,
	partnerID uuid.UUID,
	before time.Time,
	limit int,
) ([]*lifecycleDomain.Domain, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + domainColumns + ` FROM domains
			  WHERE partner_id = $1 AND expires_at IS NOT NULL AND expires_at < $2 AND ` + renewableFilter + `
			  ORDER BY expires_at ASC, id ASC
			  LIMIT $3`

	rows, err := querier.QueryContext(ctx, query, partnerID, before, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list expiring domains")
	}
	defer func() {
		_ = rows.Close()
	}()

	var domains []*lifecycleDomain.Domain
	for rows.Next() {
		dom, err := p.scan(rows)
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

type rowScanner interface {
	Scan(dest ...any) error
}

func (p *PostgreSQLDomainRepository) scan(row rowScanner) (*lifecycleDomain.Domain, error) {
	var (
		dom          lifecycleDomain.Domain
		status       string
		clientID     uuid.NullUUID
		registrarID  uuid.NullUUID
		nameservers  []byte
		registeredAt sql.NullTime
		expiresAt    sql.NullTime
	)
	if err := row.Scan(
		&dom.ID,
		&dom.PartnerID,
		&clientID,
		&registrarID,
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

	dom.Status = lifecycleDomain.Status(status)
	if clientID.Valid {
		dom.ClientID = &clientID.UUID
	}
	if registrarID.Valid {
		dom.RegistrarID = &registrarID.UUID
	}
	if err := decodeNameservers(nameservers, &dom); err != nil {
		return nil, err
	}
	dom.RegisteredAt = timePtr(registeredAt)
	dom.ExpiresAt = timePtr(expiresAt)
	return &dom, nil
}

func decodeNameservers(raw []byte, dom *lifecycleDomain.Domain) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, &dom.Nameservers); err != nil {
		return apperrors.Wrap(err, "failed to decode nameservers")
	}
	return nil
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}

package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/md-riaz/domaindesk/internal/database"
	apperrors "github.com/md-riaz/domaindesk/internal/errors"
	lifecycleDomain "github.com/md-riaz/domaindesk/internal/lifecycle/domain"
)

const (
	partnerColumns = `id, name, email, default_registrar_id`
	clientColumns  = `id, partner_id, name, organization, email, phone, address, city, state, postal_code, country`
)

// PostgreSQLDirectoryRepository reads partners and clients from PostgreSQL.
type PostgreSQLDirectoryRepository struct {
	db *sql.DB
}

// NewPostgreSQLDirectoryRepository creates a new PostgreSQL directory repository.
func NewPostgreSQLDirectoryRepository(db *sql.DB) *PostgreSQLDirectoryRepository {
	return &PostgreSQLDirectoryRepository{db: db}
}

// GetPartner returns a partner by id.
func (p *PostgreSQLDirectoryRepository) GetPartner(
	ctx context.Context,
	partnerID uuid.UUID,
) (*lifecycleDomain.Partner, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + partnerColumns + ` FROM partners WHERE id = $1`

	partner, err := p.scanPartner(querier.QueryRowContext(ctx, query, partnerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, lifecycleDomain.ErrPartnerNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get partner")
	}
	return partner, nil
}

// ListPartners returns every partner ordered by name.
func (p *PostgreSQLDirectoryRepository) ListPartners(ctx context.Context) ([]*lifecycleDomain.Partner, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + partnerColumns + ` FROM partners ORDER BY name ASC, id ASC`

	rows, err := querier.QueryContext(ctx, query)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list partners")
	}
	defer func() {
		_ = rows.Close()
	}()

	var partners []*lifecycleDomain.Partner
	for rows.Next() {
		partner, err := p.scanPartner(rows)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan partner")
		}
		partners = append(partners, partner)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate partners")
	}
	return partners, nil
}

// GetClient returns a client of partnerID.
func (p *PostgreSQLDirectoryRepository) GetClient(
	ctx context.Context,
	partnerID, clientID uuid.UUID,
) (*lifecycleDomain.Client, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + clientColumns + ` FROM clients WHERE id = $1 AND partner_id = $2`

	var (
		client   lifecycleDomain.Client
		optional [7]sql.NullString
	)
	err := querier.QueryRowContext(ctx, query, clientID, partnerID).Scan(
		&client.ID,
		&client.PartnerID,
		&client.Name,
		&optional[0],
		&client.Email,
		&optional[1],
		&optional[2],
		&optional[3],
		&optional[4],
		&optional[5],
		&optional[6],
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, lifecycleDomain.ErrClientNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get client")
	}
	fillClient(&client, optional)
	return &client, nil
}

func (p *PostgreSQLDirectoryRepository) scanPartner(row rowScanner) (*lifecycleDomain.Partner, error) {
	var (
		partner     lifecycleDomain.Partner
		registrarID uuid.NullUUID
	)
	if err := row.Scan(&partner.ID, &partner.Name, &partner.Email, &registrarID); err != nil {
		return nil, err
	}
	if registrarID.Valid {
		partner.DefaultRegistrarID = &registrarID.UUID
	}
	return &partner, nil
}

// fillClient copies the nullable contact columns, in clientColumns order.
func fillClient(client *lifecycleDomain.Client, optional [7]sql.NullString) {
	client.Organization = optional[0].String
	client.Phone = optional[1].String
	client.Address = optional[2].String
	client.City = optional[3].String
	client.State = optional[4].String
	client.PostalCode = optional[5].String
	client.Country = optional[6].String
}

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

// MySQLDirectoryRepository reads partners and clients from MySQL.
type MySQLDirectoryRepository struct {
	db *sql.DB
}

// NewMySQLDirectoryRepository creates a new MySQL directory repository.
func NewMySQLDirectoryRepository(db *sql.DB) *MySQLDirectoryRepository {
	return &MySQLDirectoryRepository{db: db}
}

// GetPartner returns a partner by id.
func (m *MySQLDirectoryRepository) GetPartner(
	ctx context.Context,
	partnerID uuid.UUID,
) (*lifecycleDomain.Partner, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT ` + partnerColumns + ` FROM partners WHERE id = ?`

	partner, err := m.scanPartner(querier.QueryRowContext(ctx, query, binaryID(partnerID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, lifecycleDomain.ErrPartnerNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get partner")
	}
	return partner, nil
}

// ListPartners returns every partner ordered by name.
func (m *MySQLDirectoryRepository) ListPartners(ctx context.Context) ([]*lifecycleDomain.Partner, error) {
	querier := database.GetTx(ctx, m.db)

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
		partner, err := m.scanPartner(rows)
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
func (m *MySQLDirectoryRepository) GetClient(
	ctx context.Context,
	partnerID, clientID uuid.UUID,
) (*lifecycleDomain.Client, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT ` + clientColumns + ` FROM clients WHERE id = ? AND partner_id = ?`

	var (
		client         lifecycleDomain.Client
		id, partnerRaw []byte
		optional       [7]sql.NullString
	)
	err := querier.QueryRowContext(ctx, query, binaryID(clientID), binaryID(partnerID)).Scan(
		&id,
		&partnerRaw,
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

	if err := client.ID.UnmarshalBinary(id); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal client id")
	}
	if err := client.PartnerID.UnmarshalBinary(partnerRaw); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal partner id")
	}
	fillClient(&client, optional)
	return &client, nil
}

func (m *MySQLDirectoryRepository) scanPartner(row rowScanner) (*lifecycleDomain.Partner, error) {
	var (
		partner       lifecycleDomain.Partner
		id, registrar []byte
	)
	if err := row.Scan(&id, &partner.Name, &partner.Email, &registrar); err != nil {
		return nil, err
	}
	if err := partner.ID.UnmarshalBinary(id); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal partner id")
	}
	registrarID, err := optionalID(registrar)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal registrar id")
	}
	partner.DefaultRegistrarID = registrarID
	return &partner, nil
}

package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/md-riaz/domaindesk/internal/database"
	apperrors "github.com/md-riaz/domaindesk/internal/errors"
	"github.com/md-riaz/domaindesk/internal/registrar/domain"
)

// MySQLRegistrarRepository implements registrar lookups for MySQL.
type MySQLRegistrarRepository struct {
	db *sql.DB
}

// NewMySQLRegistrarRepository creates a new MySQL registrar repository.
func NewMySQLRegistrarRepository(db *sql.DB) *MySQLRegistrarRepository {
	return &MySQLRegistrarRepository{db: db}
}

// Get returns the registrar with id.
func (m *MySQLRegistrarRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Registrar, error) {
	querier := database.GetTx(ctx, m.db)

	idBytes, err := id.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal registrar id")
	}

	query := `SELECT ` + registrarColumns + ` FROM registrars WHERE id = ?`

	reg, err := scanMySQLRegistrar(querier.QueryRowContext(ctx, query, idBytes))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrRegistrarNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get registrar")
	}
	return reg, nil
}

// GetDefault returns the active registrar flagged as default.
func (m *MySQLRegistrarRepository) GetDefault(ctx context.Context) (*domain.Registrar, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT ` + registrarColumns + ` FROM registrars
			  WHERE is_default = TRUE AND is_active = TRUE
			  ORDER BY updated_at DESC LIMIT 1`

	reg, err := scanMySQLRegistrar(querier.QueryRowContext(ctx, query))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrRegistrarNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get default registrar")
	}
	return reg, nil
}

// List returns all registrars ordered by name.
func (m *MySQLRegistrarRepository) List(ctx context.Context) ([]*domain.Registrar, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT ` + registrarColumns + ` FROM registrars ORDER BY name ASC`

	rows, err := querier.QueryContext(ctx, query)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list registrars")
	}
	defer func() {
		_ = rows.Close()
	}()

	var registrars []*domain.Registrar
	for rows.Next() {
		reg, err := scanMySQLRegistrar(rows)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan registrar")
		}
		registrars = append(registrars, reg)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate registrars")
	}
	return registrars, nil
}

func scanMySQLRegistrar(row rowScanner) (*domain.Registrar, error) {
	var (
		reg         domain.Registrar
		id          []byte
		credentials sql.NullString
		lastSyncAt  sql.NullTime
	)

	err := row.Scan(
		&id,
		&reg.Name,
		&reg.Slug,
		&reg.Backend,
		&credentials,
		&reg.IsActive,
		&reg.IsDefault,
		&lastSyncAt,
		&reg.CreatedAt,
		&reg.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := reg.ID.UnmarshalBinary(id); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal registrar id")
	}
	if credentials.Valid {
		reg.RawCredentials = []byte(credentials.String)
	}
	if lastSyncAt.Valid {
		reg.LastSyncAt = &lastSyncAt.Time
	}
	return &reg, nil
}

// Package repository reads registrar configuration records.
//
// PostgreSQL uses native UUID types, MySQL uses BINARY(16). The credentials column is
// returned undecoded in Registrar.RawCredentials.
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

const registrarColumns = `id, name, slug, backend, credentials, is_active, is_default, last_sync_at, created_at, updated_at`

// PostgreSQLRegistrarRepository implements registrar lookups for PostgreSQL.
type PostgreSQLRegistrarRepository struct {
	db *sql.DB
}

// NewPostgreSQLRegistrarRepository creates a new PostgreSQL registrar repository.
func NewPostgreSQLRegistrarRepository(db *sql.DB) *PostgreSQLRegistrarRepository {
	return &PostgreSQLRegistrarRepository{db: db}
}

// Get returns the registrar with id.
func (p *PostgreSQLRegistrarRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Registrar, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + registrarColumns + ` FROM registrars WHERE id = $1`

	reg, err := scanPostgreSQLRegistrar(querier.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrRegistrarNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get registrar")
	}
	return reg, nil
}

// GetDefault returns the active registrar flagged as default.
func (p *PostgreSQLRegistrarRepository) GetDefault(ctx context.Context) (*domain.Registrar, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + registrarColumns + ` FROM registrars
			  WHERE is_default = TRUE AND is_active = TRUE
			  ORDER BY updated_at DESC LIMIT 1`

	reg, err := scanPostgreSQLRegistrar(querier.QueryRowContext(ctx, query))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrRegistrarNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get default registrar")
	}
	return reg, nil
}

// List returns all registrars ordered by name.
func (p *PostgreSQLRegistrarRepository) List(ctx context.Context) ([]*domain.Registrar, error) {
	querier := database.GetTx(ctx, p.db)

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
		reg, err := scanPostgreSQLRegistrar(rows)
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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPostgreSQLRegistrar(row rowScanner) (*domain.Registrar, error) {
	var (
		reg         domain.Registrar
		credentials sql.NullString
		lastSyncAt  sql.NullTime
	)

	err := row.Scan(
		&reg.ID,
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

	if credentials.Valid {
		reg.RawCredentials = []byte(credentials.String)
	}
	if lastSyncAt.Valid {
		reg.LastSyncAt = &lastSyncAt.Time
	}
	return &reg, nil
}

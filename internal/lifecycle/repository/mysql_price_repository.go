package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/md-riaz/domaindesk/internal/database"
	apperrors "github.com/md-riaz/domaindesk/internal/errors"
	lifecycleDomain "github.com/md-riaz/domaindesk/internal/lifecycle/domain"
	lifecycleUsecase "github.com/md-riaz/domaindesk/internal/lifecycle/usecase"
)

// MySQLPriceRepository quotes TLD prices from MySQL.
type MySQLPriceRepository struct {
	db *sql.DB
}

// NewMySQLPriceRepository creates a new MySQL price repository.
func NewMySQLPriceRepository(db *sql.DB) *MySQLPriceRepository {
	return &MySQLPriceRepository{db: db}
}

// RenewalPrice returns the per-year renewal price of tld multiplied by years.
func (m *MySQLPriceRepository) RenewalPrice(
	ctx context.Context,
	partnerID uuid.UUID,
	tld string,
	years int,
) (lifecycleUsecase.Price, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT renew_price, currency FROM tld_prices
			  WHERE tld = ? AND (partner_id = ? OR partner_id IS NULL)
			  ORDER BY partner_id IS NULL ASC
			  LIMIT 1`

	var price lifecycleUsecase.Price
	err := querier.QueryRowContext(ctx, query, strings.ToLower(tld), binaryID(partnerID)).Scan(&price.Amount, &price.Currency)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return lifecycleUsecase.Price{}, apperrors.Wrapf(lifecycleDomain.ErrPriceNotFound, "tld %s", tld)
		}
		return lifecycleUsecase.Price{}, apperrors.Wrap(err, "failed to get tld price")
	}
	return multiply(price, years), nil
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/md-riaz/domaindesk/internal/database"
	apperrors "github.com/md-riaz/domaindesk/internal/errors"
	lifecycleDomain "github.com/md-riaz/domaindesk/internal/lifecycle/domain"
	lifecycleUsecase "github.com/md-riaz/domaindesk/internal/lifecycle/usecase"
)

// PostgreSQLPriceRepository quotes TLD prices from PostgreSQL. A partner-specific
// row takes precedence over the global row (partner_id NULL).
type PostgreSQLPriceRepository struct {
	db *sql.DB
}

// NewPostgreSQLPriceRepository creates a new PostgreSQL price repository.
func NewPostgreSQLPriceRepository(db *sql.DB) *PostgreSQLPriceRepository {
	return &PostgreSQLPriceRepository{db: db}
}

// RenewalPrice returns the per-year renewal price of tld multiplied by years.
func (p *PostgreSQLPriceRepository) RenewalPrice(
	ctx context.Context,
	partnerID uuid.UUID,
	tld string,
	years int,
) (lifecycleUsecase.Price, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT renew_price, currency FROM tld_prices
			  WHERE tld = $1 AND (partner_id = $2 OR partner_id IS NULL)
			  ORDER BY partner_id NULLS LAST
			  LIMIT 1`

	var price lifecycleUsecase.Price
	err := querier.QueryRowContext(ctx, query, strings.ToLower(tld), partnerID).Scan(&price.Amount, &price.Currency)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return lifecycleUsecase.Price{}, apperrors.Wrapf(lifecycleDomain.ErrPriceNotFound, "tld %s", tld)
		}
		return lifecycleUsecase.Price{}, apperrors.Wrap(err, "failed to get tld price")
	}
	return multiply(price, years), nil
}

func multiply(price lifecycleUsecase.Price, years int) lifecycleUsecase.Price {
	if years < 1 {
		years = 1
	}
	price.Amount = price.Amount.Mul(decimal.NewFromInt(int64(years)))
	return price
}

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"promoengine/internal/promo"
)

// PostgresStore is a PostgreSQL implementation of PromotionStore and
// CatalogStore. Nested promotion documents (conditions, actions, coupons,
// badges, variant links) are stored as JSONB columns; the engine only ever
// reads them whole, so there is no value in normalizing them into rows.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const promotionColumns = `id, name, description, priority, cumulative,
	has_coupon, multiple_coupons, status, start_date, end_date, expression,
	conditions, actions, coupons, badges, variant_links, updated_at`

// FindActive retrieves candidate promotions at the given instant, ordered by
// priority descending. Date windows apply only to scheduled promotions.
func (p *PostgresStore) FindActive(ctx context.Context, now time.Time) ([]promo.Promotion, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT `+promotionColumns+`
		FROM promotions
		WHERE status = $1
		   OR (status = $2
		       AND (start_date IS NULL OR start_date <= $3)
		       AND (end_date IS NULL OR end_date >= $3))
		ORDER BY priority DESC, id ASC`,
		string(promo.StatusAvailable), string(promo.StatusScheduledAvailable), now)
	if err != nil {
		return nil, fmt.Errorf("query active promotions: %w", err)
	}
	defer rows.Close()

	return scanPromotions(rows)
}

// GetPromotion retrieves a single promotion by id.
func (p *PostgresStore) GetPromotion(ctx context.Context, id string) (*promo.Promotion, error) {
	row := p.pool.QueryRow(ctx, `
		SELECT `+promotionColumns+`
		FROM promotions
		WHERE id = $1`, id)

	result, err := scanPromotion(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &result, nil
}

// ListPromotions retrieves every promotion ordered by priority descending.
func (p *PostgresStore) ListPromotions(ctx context.Context) ([]promo.Promotion, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT `+promotionColumns+`
		FROM promotions
		ORDER BY priority DESC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query promotions: %w", err)
	}
	defer rows.Close()

	return scanPromotions(rows)
}

// UpsertPromotion creates or updates a promotion.
func (p *PostgresStore) UpsertPromotion(ctx context.Context, pr promo.Promotion) error {
	conditions, err := marshalOrEmptyArray(pr.Conditions)
	if err != nil {
		return err
	}
	actions, err := marshalOrEmptyArray(pr.Actions)
	if err != nil {
		return err
	}
	coupons, err := marshalOrEmptyArray(pr.Coupons)
	if err != nil {
		return err
	}
	badges, err := marshalOrEmptyArray(pr.Badges)
	if err != nil {
		return err
	}
	variantLinks, err := marshalOrEmptyArray(pr.VariantLinks)
	if err != nil {
		return err
	}

	_, err = p.pool.Exec(ctx, `
		INSERT INTO promotions (
			id, name, description, priority, cumulative, has_coupon,
			multiple_coupons, status, start_date, end_date, expression,
			conditions, actions, coupons, badges, variant_links, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,now())
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			priority = EXCLUDED.priority,
			cumulative = EXCLUDED.cumulative,
			has_coupon = EXCLUDED.has_coupon,
			multiple_coupons = EXCLUDED.multiple_coupons,
			status = EXCLUDED.status,
			start_date = EXCLUDED.start_date,
			end_date = EXCLUDED.end_date,
			expression = EXCLUDED.expression,
			conditions = EXCLUDED.conditions,
			actions = EXCLUDED.actions,
			coupons = EXCLUDED.coupons,
			badges = EXCLUDED.badges,
			variant_links = EXCLUDED.variant_links,
			updated_at = now()`,
		pr.ID, pr.Name, pgtype.Text{String: pr.Description, Valid: true},
		pr.Priority, pr.Cumulative, pr.HasCoupon, pr.MultipleCoupons,
		string(pr.Status), pr.StartDate, pr.EndDate, pr.Expression,
		conditions, actions, coupons, badges, variantLinks)
	if err != nil {
		return fmt.Errorf("upsert promotion %s: %w", pr.ID, err)
	}
	return nil
}

// DeletePromotion removes a promotion. Idempotent.
func (p *PostgresStore) DeletePromotion(ctx context.Context, id string) error {
	_, err := p.pool.Exec(ctx, `DELETE FROM promotions WHERE id = $1`, id)
	return err
}

// GetProduct retrieves a product by id.
func (p *PostgresStore) GetProduct(ctx context.Context, id string) (Product, error) {
	var (
		result     Product
		categories []byte
	)
	err := p.pool.QueryRow(ctx, `
		SELECT id, name, price, brand, category_ids
		FROM products
		WHERE id = $1`, id).
		Scan(&result.ID, &result.Name, &result.Price, &result.Brand, &categories)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, ErrNotFound
		}
		return Product{}, err
	}
	if len(categories) > 0 {
		if err := json.Unmarshal(categories, &result.CategoryIDs); err != nil {
			return Product{}, fmt.Errorf("decode category ids for product %s: %w", id, err)
		}
	}
	return result, nil
}

// GetVariant retrieves a variant by id, joining the owning product for its name.
func (p *PostgresStore) GetVariant(ctx context.Context, id string) (Variant, error) {
	var result Variant
	err := p.pool.QueryRow(ctx, `
		SELECT v.id, v.product_id, v.sku, v.price, COALESCE(pr.name, '')
		FROM variants v
		LEFT JOIN products pr ON pr.id = v.product_id
		WHERE v.id = $1`, id).
		Scan(&result.ID, &result.ProductID, &result.SKU, &result.Price, &result.ProductName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Variant{}, ErrNotFound
		}
		return Variant{}, err
	}
	return result, nil
}

// UpsertProduct creates or updates a product.
func (p *PostgresStore) UpsertProduct(ctx context.Context, pr Product) error {
	categories, err := marshalOrEmptyArray(pr.CategoryIDs)
	if err != nil {
		return err
	}
	_, err = p.pool.Exec(ctx, `
		INSERT INTO products (id, name, price, brand, category_ids)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			price = EXCLUDED.price,
			brand = EXCLUDED.brand,
			category_ids = EXCLUDED.category_ids`,
		pr.ID, pr.Name, pr.Price, pr.Brand, categories)
	return err
}

// UpsertVariant creates or updates a variant.
func (p *PostgresStore) UpsertVariant(ctx context.Context, v Variant) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO variants (id, product_id, sku, price)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (id) DO UPDATE SET
			product_id = EXCLUDED.product_id,
			sku = EXCLUDED.sku,
			price = EXCLUDED.price`,
		v.ID, v.ProductID, v.SKU, v.Price)
	return err
}

// Close closes the database connection pool.
func (p *PostgresStore) Close() error {
	p.pool.Close()
	return nil
}

func scanPromotions(rows pgx.Rows) ([]promo.Promotion, error) {
	result := make([]promo.Promotion, 0, 16)
	for rows.Next() {
		pr, err := scanPromotion(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, pr)
	}
	return result, rows.Err()
}

// scanPromotion decodes one promotion row, including its JSONB documents.
func scanPromotion(row pgx.Row) (promo.Promotion, error) {
	var (
		pr           promo.Promotion
		description  pgtype.Text
		status       string
		startDate    pgtype.Timestamptz
		endDate      pgtype.Timestamptz
		updatedAt    pgtype.Timestamptz
		conditions   []byte
		actions      []byte
		coupons      []byte
		badges       []byte
		variantLinks []byte
	)

	err := row.Scan(&pr.ID, &pr.Name, &description, &pr.Priority,
		&pr.Cumulative, &pr.HasCoupon, &pr.MultipleCoupons, &status,
		&startDate, &endDate, &pr.Expression,
		&conditions, &actions, &coupons, &badges, &variantLinks, &updatedAt)
	if err != nil {
		return promo.Promotion{}, err
	}

	pr.Description = description.String
	pr.Status = promo.Status(status)
	if startDate.Valid {
		t := startDate.Time
		pr.StartDate = &t
	}
	if endDate.Valid {
		t := endDate.Time
		pr.EndDate = &t
	}
	pr.UpdatedAt = updatedAt.Time

	for _, doc := range []struct {
		raw []byte
		dst any
	}{
		{conditions, &pr.Conditions},
		{actions, &pr.Actions},
		{coupons, &pr.Coupons},
		{badges, &pr.Badges},
		{variantLinks, &pr.VariantLinks},
	} {
		if len(doc.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(doc.raw, doc.dst); err != nil {
			return promo.Promotion{}, fmt.Errorf("decode promotion %s: %w", pr.ID, err)
		}
	}

	return pr, nil
}

// marshalOrEmptyArray keeps JSONB columns non-null so reads never have to
// distinguish NULL from empty.
func marshalOrEmptyArray(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if string(b) == "null" {
		return []byte("[]"), nil
	}
	return b, nil
}

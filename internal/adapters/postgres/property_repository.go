package postgres

import (
	"context"
	"errors"
	"fmt"

	"listing-service/internal/contextkeys"
	"listing-service/internal/core/domain"
	"listing-service/internal/core/port"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

const propertyColumns = `p.id, p.title, p.description, p.price, p.address, p.city, p.country,
	p.latitude, p.longitude, p.geohash, p.amenities, p.images, p.image_keys,
	p.bedrooms, p.bathrooms, p.max_guests, p.owner_id, p.status, p.availability,
	p.security_deposit, p.cancellation_policy, p.property_token, p.created_at, p.updated_at`

// PropertyRepository реализует PropertyRepositoryPort для PostgreSQL.
type PropertyRepository struct {
	pool       *pgxpool.Pool
	usersTable string
}

// NewPropertyRepository создает адаптер. usersTable - таблица, по которой проверяется владелец.
func NewPropertyRepository(pool *pgxpool.Pool, usersTable string) (*PropertyRepository, error) {
	if pool == nil {
		return nil, fmt.Errorf("pgxpool.Pool cannot be nil")
	}
	if usersTable == "" {
		usersTable = "users"
	}
	return &PropertyRepository{pool: pool, usersTable: pgx.Identifier{usersTable}.Sanitize()}, nil
}

func (r *PropertyRepository) Insert(ctx context.Context, property domain.Property) error {
	repoLogger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"component":   "PostgresPropertyRepository",
		"method":      "Insert",
		"property_id": property.ID.String(),
	})

	row, err := toRow(property)
	if err != nil {
		return domain.NewStoreError("encode property", err)
	}

	query := `
		INSERT INTO properties (
			id, title, description, price, address, city, country,
			latitude, longitude, geohash, amenities, images, image_keys,
			bedrooms, bathrooms, max_guests, owner_id, status, availability,
			security_deposit, cancellation_policy, property_token, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
			$16, $17, $18, $19, $20, $21, $22, $23, $24
		)`
	_, err = r.pool.Exec(ctx, query,
		property.ID, property.Title, property.Description, property.Price, property.Address, property.City, property.Country,
		property.Latitude, property.Longitude, property.Geohash, row.amenities, row.imageURLs, row.imageKeys,
		property.Bedrooms, property.Bathrooms, property.MaxGuests, property.OwnerID, string(property.Status), row.availability,
		property.SecurityDeposit, row.policy, property.PropertyToken, property.CreatedAt, property.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			repoLogger.Warn("Owner reference rejected by database", nil)
			return domain.ErrOwnerNotFound
		}
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			repoLogger.Error("Duplicate property id", err, nil)
		} else {
			repoLogger.Error("Failed to insert property", err, nil)
		}
		return domain.NewStoreError("insert property", err)
	}

	repoLogger.Debug("Property inserted", nil)
	return nil
}

func (r *PropertyRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Property, error) {
	repoLogger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"component":   "PostgresPropertyRepository",
		"method":      "GetByID",
		"property_id": id.String(),
	})

	query := fmt.Sprintf("SELECT %s FROM properties p WHERE p.id = $1", propertyColumns)
	property, err := scanProperty(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			repoLogger.Debug("Property not found", nil)
			return nil, domain.ErrPropertyNotFound
		}
		repoLogger.Error("Failed to get property", err, nil)
		return nil, domain.NewStoreError("get property", err)
	}
	return property, nil
}

// Update перезаписывает запись целиком (last-write-wins).
func (r *PropertyRepository) Update(ctx context.Context, property domain.Property) error {
	repoLogger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"component":   "PostgresPropertyRepository",
		"method":      "Update",
		"property_id": property.ID.String(),
	})

	row, err := toRow(property)
	if err != nil {
		return domain.NewStoreError("encode property", err)
	}

	query := `
		UPDATE properties SET
			title = $2, description = $3, price = $4, address = $5, city = $6, country = $7,
			latitude = $8, longitude = $9, geohash = $10, amenities = $11, images = $12, image_keys = $13,
			bedrooms = $14, bathrooms = $15, max_guests = $16, status = $17, availability = $18,
			security_deposit = $19, cancellation_policy = $20, property_token = $21, updated_at = $22
		WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query,
		property.ID, property.Title, property.Description, property.Price, property.Address, property.City, property.Country,
		property.Latitude, property.Longitude, property.Geohash, row.amenities, row.imageURLs, row.imageKeys,
		property.Bedrooms, property.Bathrooms, property.MaxGuests, string(property.Status), row.availability,
		property.SecurityDeposit, row.policy, property.PropertyToken, property.UpdatedAt,
	)
	if err != nil {
		repoLogger.Error("Failed to update property", err, nil)
		return domain.NewStoreError("update property", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPropertyNotFound
	}
	return nil
}

func (r *PropertyRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM properties WHERE id = $1", id)
	if err != nil {
		contextkeys.LoggerFromContext(ctx).Error("Failed to delete property", err, port.Fields{
			"component":   "PostgresPropertyRepository",
			"method":      "Delete",
			"property_id": id.String(),
		})
		return domain.NewStoreError("delete property", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPropertyNotFound
	}
	return nil
}

func (r *PropertyRepository) OwnerExists(ctx context.Context, ownerID uuid.UUID) (bool, error) {
	query := fmt.Sprintf("SELECT EXISTS (SELECT 1 FROM %s WHERE id = $1)", r.usersTable)
	var exists bool
	if err := r.pool.QueryRow(ctx, query, ownerID).Scan(&exists); err != nil {
		return false, domain.NewStoreError("owner lookup", err)
	}
	return exists, nil
}

// Query выполняет подсчет и выборку страницы в одной транзакции,
// чтобы total и страница были согласованы.
func (r *PropertyRepository) Query(ctx context.Context, q domain.PropertyQuery) (*domain.PropertyPage, error) {
	q = q.WithDefaults()
	repoLogger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"component": "PostgresPropertyRepository",
		"method":    "Query",
		"page":      q.Pagination.Page,
		"limit":     q.Pagination.Limit,
	})

	whereClause, args := applyFilters(q.Filters)

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly, IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return nil, domain.NewStoreError("begin transaction", err)
	}
	defer tx.Rollback(ctx)

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM properties p %s", whereClause)
	var total int64
	if err := tx.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		repoLogger.Error("Failed to count properties", err, port.Fields{"query": countQuery})
		return nil, domain.NewStoreError("count properties", err)
	}

	page := &domain.PropertyPage{
		Properties: []domain.Property{},
		Total:      int(total),
		Page:       q.Pagination.Page,
		Limit:      q.Pagination.Limit,
	}
	if total == 0 || q.Pagination.Offset() >= int(total) {
		return page, nil
	}

	dataQuery := fmt.Sprintf("SELECT %s FROM properties p %s %s LIMIT $%d OFFSET $%d",
		propertyColumns, whereClause, orderClause(q.Sort), len(args)+1, len(args)+2)
	dataArgs := append(append([]interface{}{}, args...), q.Pagination.Limit, q.Pagination.Offset())

	rows, err := tx.Query(ctx, dataQuery, dataArgs...)
	if err != nil {
		repoLogger.Error("Failed to query properties", err, port.Fields{"query": dataQuery})
		return nil, domain.NewStoreError("query properties", err)
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, domain.NewStoreError("scan property", err)
		}
		page.Properties = append(page.Properties, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewStoreError("iterate properties", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, domain.NewStoreError("commit transaction", err)
	}

	repoLogger.Debug("Properties page loaded", port.Fields{"total": total, "count": len(page.Properties)})
	return page, nil
}

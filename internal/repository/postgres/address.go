package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/ghstore/internal/domain"
	"github.com/utafrali/ghstore/pkg/database"
	apperrors "github.com/utafrali/ghstore/pkg/errors"
)

const addressColumns = `id, user_id, label, first_name, last_name, address_line1, address_line2,
	city, region, digital_address, country_code, phone, is_default, created_at, updated_at`

const (
	insertAddressSQL = `
		INSERT INTO addresses (` + addressColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	getAddressSQL = `
		SELECT ` + addressColumns + `
		FROM addresses
		WHERE id = $1`

	listAddressesSQL = `
		SELECT ` + addressColumns + `
		FROM addresses
		WHERE user_id = $1
		ORDER BY is_default DESC, created_at DESC`

	updateAddressSQL = `
		UPDATE addresses
		SET label = $1, first_name = $2, last_name = $3, address_line1 = $4, address_line2 = $5,
		    city = $6, region = $7, digital_address = $8, country_code = $9, phone = $10, updated_at = $11
		WHERE id = $12 AND user_id = $13`

	deleteAddressSQL = `DELETE FROM addresses WHERE id = $1 AND user_id = $2`

	unsetDefaultSQL = `UPDATE addresses SET is_default = false WHERE user_id = $1 AND is_default = true`

	setDefaultSQL = `UPDATE addresses SET is_default = true WHERE id = $1 AND user_id = $2`
)

// AddressRepository implements repository.AddressRepository using PostgreSQL.
type AddressRepository struct {
	db database.DBTX
}

// NewAddressRepository creates a new PostgreSQL-backed address repository.
func NewAddressRepository(db database.DBTX) *AddressRepository {
	return &AddressRepository{db: db}
}

func scanAddress(row pgx.Row) (*domain.Address, error) {
	var a domain.Address
	err := row.Scan(
		&a.ID,
		&a.UserID,
		&a.Label,
		&a.FirstName,
		&a.LastName,
		&a.AddressLine1,
		&a.AddressLine2,
		&a.City,
		&a.Region,
		&a.DigitalAddress,
		&a.CountryCode,
		&a.Phone,
		&a.IsDefault,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Create inserts a new address into the database.
func (r *AddressRepository) Create(ctx context.Context, a *domain.Address) (err error) {
	ctx, end := database.TraceQuery(ctx, "CreateAddress", insertAddressSQL)
	defer func() { end(err) }()

	_, err = r.db.Exec(ctx, insertAddressSQL,
		a.ID,
		a.UserID,
		a.Label,
		a.FirstName,
		a.LastName,
		a.AddressLine1,
		a.AddressLine2,
		a.City,
		a.Region,
		a.DigitalAddress,
		a.CountryCode,
		a.Phone,
		a.IsDefault,
		a.CreatedAt,
		a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert address: %w", err)
	}

	return nil
}

// GetByID retrieves an address by its ID.
func (r *AddressRepository) GetByID(ctx context.Context, id string) (_ *domain.Address, err error) {
	ctx, end := database.TraceQuery(ctx, "GetAddress", getAddressSQL)
	defer func() { end(err) }()

	a, err := scanAddress(r.db.QueryRow(ctx, getAddressSQL, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("address", id)
		}
		return nil, fmt.Errorf("scan address: %w", err)
	}

	return a, nil
}

// ListByUserID returns all addresses for the given user, default first.
func (r *AddressRepository) ListByUserID(ctx context.Context, userID string) (_ []domain.Address, err error) {
	ctx, end := database.TraceQuery(ctx, "ListAddresses", listAddressesSQL)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, listAddressesSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}
	defer rows.Close()

	addresses := []domain.Address{}
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			return nil, fmt.Errorf("scan address row: %w", err)
		}
		addresses = append(addresses, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate address rows: %w", err)
	}

	return addresses, nil
}

// Update modifies an existing address owned by a.UserID.
func (r *AddressRepository) Update(ctx context.Context, a *domain.Address) (err error) {
	ctx, end := database.TraceQuery(ctx, "UpdateAddress", updateAddressSQL)
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, updateAddressSQL,
		a.Label,
		a.FirstName,
		a.LastName,
		a.AddressLine1,
		a.AddressLine2,
		a.City,
		a.Region,
		a.DigitalAddress,
		a.CountryCode,
		a.Phone,
		a.UpdatedAt,
		a.ID,
		a.UserID,
	)
	if err != nil {
		return fmt.Errorf("update address: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("address", a.ID)
	}

	return nil
}

// Delete removes an address owned by userID.
func (r *AddressRepository) Delete(ctx context.Context, userID, id string) (err error) {
	ctx, end := database.TraceQuery(ctx, "DeleteAddress", deleteAddressSQL)
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, deleteAddressSQL, id, userID)
	if err != nil {
		return fmt.Errorf("delete address: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("address", id)
	}

	return nil
}

// SetDefault marks the specified address as the default for the user,
// unsetting any previous default within a transaction.
func (r *AddressRepository) SetDefault(ctx context.Context, userID, addressID string) (err error) {
	ctx, end := database.TraceQuery(ctx, "SetDefaultAddress", setDefaultSQL)
	defer func() { end(err) }()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err = tx.Exec(ctx, unsetDefaultSQL, userID); err != nil {
		return fmt.Errorf("unset default address: %w", err)
	}

	ct, err := tx.Exec(ctx, setDefaultSQL, addressID, userID)
	if err != nil {
		return fmt.Errorf("set default address: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("address", addressID)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

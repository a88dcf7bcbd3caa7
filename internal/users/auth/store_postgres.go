// Copyright (c) 2026 Mercato. All rights reserved.
// Author: platform@mercato.shop

package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mercato/mercato/internal/platform/apperr"
	"github.com/mercato/mercato/internal/platform/dberr"
	"github.com/mercato/mercato/pkg/pagination"
)

// # User Repository

// PostgresUserRepository implements the UserRepository interface using pgx.
//
// Storage-specific errors (like pgx.ErrNoRows or unique constraint
// violations) are mapped to domain-friendly [apperr.AppError] types to avoid
// leaking storage implementation details.
type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new PostgreSQL implementation of the UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

/*
Create persists a new user record into the users.account table.

Description: Deep-persists the account including the optional address
sub-record, ensuring timestamps are initialized if not provided.

Parameters:
  - context: context.Context
  - user: *User (Entity to persist)

Returns:
  - error: apperr.Conflict on duplicate email, or connectivity errors
*/
func (repository *PostgresUserRepository) Create(context context.Context, user *User) error {
	const query = `
		INSERT INTO users.account (
			id, name, email, passwordhash, role,
			addressstreet, addresscity, addressstate, addresszip, addresscountry,
			createdat, updatedat
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	address := user.Address
	if address == nil {
		address = &Address{}
	}

	_, err := repository.pool.Exec(context, query,
		user.ID,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Role,
		address.Street,
		address.City,
		address.State,
		address.Zip,
		address.Country,
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		if dberr.IsUniqueViolation(err) {
			return apperr.Conflict("Email is already registered")
		}
		return dberr.Wrap(fmt.Errorf("postgres_user_repo_create_failed: %w", err))
	}

	return nil
}

/*
FindByID retrieves a user record by their unique ID.

Description: Primary key resolution for user accounts, used on every
authenticated request by the auth gate.

Parameters:
  - context: context.Context
  - id: string (UUIDv7)

Returns:
  - *User: Hydrated account entity
  - error: apperr.UserNotFound or execution errors
*/
func (repository *PostgresUserRepository) FindByID(context context.Context, id string) (*User, error) {
	const query = `
		SELECT id, name, email, passwordhash, role,
			addressstreet, addresscity, addressstate, addresszip, addresscountry,
			createdat, updatedat
		FROM users.account
		WHERE id = $1`

	return repository.scanOne(context, query, id)
}

/*
FindByEmail retrieves a user record by their normalized email address.

Description: Login-path lookup. Email is unique (case-insensitive index).

Parameters:
  - context: context.Context
  - email: string

Returns:
  - *User: Hydrated account entity
  - error: apperr.UserNotFound or database errors
*/
func (repository *PostgresUserRepository) FindByEmail(context context.Context, email string) (*User, error) {
	const query = `
		SELECT id, name, email, passwordhash, role,
			addressstreet, addresscity, addressstate, addresszip, addresscountry,
			createdat, updatedat
		FROM users.account
		WHERE lower(email) = lower($1)`

	return repository.scanOne(context, query, email)
}

/*
Update persists changes to a user's mutable profile fields.

Description: Synchronizes the in-memory user state with the database,
refreshing the updatedat timestamp.

Parameters:
  - context: context.Context
  - user: *User

Returns:
  - error: apperr.Conflict on duplicate email, or update failures
*/
func (repository *PostgresUserRepository) Update(context context.Context, user *User) error {
	const query = `
		UPDATE users.account
		SET name = $2, email = $3,
			addressstreet = $4, addresscity = $5, addressstate = $6,
			addresszip = $7, addresscountry = $8, updatedat = $9
		WHERE id = $1`

	user.UpdatedAt = time.Now()

	address := user.Address
	if address == nil {
		address = &Address{}
	}

	_, err := repository.pool.Exec(context, query,
		user.ID,
		user.Name,
		user.Email,
		address.Street,
		address.City,
		address.State,
		address.Zip,
		address.Country,
		user.UpdatedAt,
	)

	if err != nil {
		if dberr.IsUniqueViolation(err) {
			return apperr.Conflict("Email is already registered")
		}
		return dberr.Wrap(fmt.Errorf("postgres_user_repo_update_failed: %w", err))
	}

	return nil
}

/*
List returns a page of users ordered by creation time, newest first.

Parameters:
  - context: context.Context
  - params: pagination.Params

Returns:
  - []*User: Hydrated account entities for the requested page
  - error: Execution errors
*/
func (repository *PostgresUserRepository) List(context context.Context, params pagination.Params) ([]*User, error) {
	const query = `
		SELECT id, name, email, passwordhash, role,
			addressstreet, addresscity, addressstate, addresszip, addresscountry,
			createdat, updatedat
		FROM users.account
		ORDER BY createdat DESC
		LIMIT $1 OFFSET $2`

	rows, err := repository.pool.Query(context, query, params.Limit, params.Offset())
	if err != nil {
		return nil, dberr.Wrap(fmt.Errorf("postgres_user_repo_list_failed: %w", err))
	}
	defer rows.Close()

	users := make([]*User, 0, params.Limit)
	for rows.Next() {
		user := &User{Address: &Address{}}
		err := rows.Scan(
			&user.ID,
			&user.Name,
			&user.Email,
			&user.PasswordHash,
			&user.Role,
			&user.Address.Street,
			&user.Address.City,
			&user.Address.State,
			&user.Address.Zip,
			&user.Address.Country,
			&user.CreatedAt,
			&user.UpdatedAt,
		)
		if err != nil {
			return nil, dberr.Wrap(fmt.Errorf("postgres_user_repo_list_scan_failed: %w", err))
		}
		normalizeAddress(user)
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(fmt.Errorf("postgres_user_repo_list_rows_failed: %w", err))
	}

	return users, nil
}

/*
Count returns the total number of registered users.

Parameters:
  - context: context.Context

Returns:
  - int: Total account count
  - error: Execution errors
*/
func (repository *PostgresUserRepository) Count(context context.Context) (int, error) {
	const query = "SELECT COUNT(*) FROM users.account"

	var total int
	if err := repository.pool.QueryRow(context, query).Scan(&total); err != nil {
		return 0, dberr.Wrap(fmt.Errorf("postgres_user_repo_count_failed: %w", err))
	}

	return total, nil
}

// scanOne executes a single-row query and hydrates a User entity.
func (repository *PostgresUserRepository) scanOne(context context.Context, query string, arg any) (*User, error) {
	user := &User{Address: &Address{}}
	err := repository.pool.QueryRow(context, query, arg).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.Address.Street,
		&user.Address.City,
		&user.Address.State,
		&user.Address.Zip,
		&user.Address.Country,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err != nil {
		if dberr.IsNoRows(err) {
			return nil, apperr.UserNotFound("User not found")
		}
		return nil, dberr.Wrap(fmt.Errorf("postgres_user_repo_find_failed: %w", err))
	}

	normalizeAddress(user)
	return user, nil
}

// normalizeAddress collapses an all-empty address sub-record to nil so it is
// omitted from API responses.
func normalizeAddress(user *User) {
	address := user.Address
	if address == nil {
		return
	}
	if address.Street == "" && address.City == "" && address.State == "" &&
		address.Zip == "" && address.Country == "" {
		user.Address = nil
	}
}

package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrUserNotFound signals that the account does not exist.
	ErrUserNotFound = errors.New("auth: user not found")
	// ErrDuplicateEmail signals that the email is already registered.
	ErrDuplicateEmail = errors.New("auth: email already exists")
)

// Repository handles data access for accounts.
type Repository interface {
	CreateUser(ctx context.Context, params CreateUserParams) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	GetUserByID(ctx context.Context, userID string) (User, error)
	UpdateProfile(ctx context.Context, userID string, params UpdateProfileParams) (User, error)
	ListUsers(ctx context.Context, filters UserFilters) ([]User, int, error)
	SetUserStatus(ctx context.Context, userID string, params StatusParams) (User, error)
}

// CreateUserParams contains write parameters for creating accounts.
type CreateUserParams struct {
	Email           string
	Name            string
	PasswordHash    string
	Role            Role
	Specializations []string
	LicenseNumber   *string
}

// UpdateProfileParams contains the self-service profile fields. Nil fields
// keep their stored value.
type UpdateProfileParams struct {
	Name            *string
	Specializations []string
	LicenseNumber   *string
}

// StatusParams contains the admin-controlled account state fields. Nil fields
// keep their stored value.
type StatusParams struct {
	IsActive  *bool
	IsBlocked *bool
	KYCStatus *KYCStatus
}

const userColumns = `id, email, name, password_hash, role, kyc_status, specializations, license_number, rating, completed_reviews, is_active, is_blocked, created_at, updated_at`

// PGRepository implements Repository backed by PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a PostgreSQL-backed auth repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// CreateUser inserts a new account with hashed password.
func (r *PGRepository) CreateUser(ctx context.Context, params CreateUserParams) (User, error) {
	insertSQL := fmt.Sprintf(`
		INSERT INTO users (email, name, password_hash, role, specializations, license_number)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING %s
	`, userColumns)

	specs := params.Specializations
	if specs == nil {
		specs = []string{}
	}

	user, err := scanUser(r.pool.QueryRow(ctx, insertSQL,
		params.Email,
		params.Name,
		params.PasswordHash,
		params.Role,
		specs,
		params.LicenseNumber,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return User{}, ErrDuplicateEmail
		}
		return User{}, fmt.Errorf("auth: create user: %w", err)
	}

	return user, nil
}

// GetUserByEmail retrieves an account by email address.
func (r *PGRepository) GetUserByEmail(ctx context.Context, email string) (User, error) {
	selectSQL := fmt.Sprintf(`SELECT %s FROM users WHERE email = $1`, userColumns)

	user, err := scanUser(r.pool.QueryRow(ctx, selectSQL, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, fmt.Errorf("auth: get user by email: %w", err)
	}

	return user, nil
}

// GetUserByID retrieves an account by ID.
func (r *PGRepository) GetUserByID(ctx context.Context, userID string) (User, error) {
	selectSQL := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1`, userColumns)

	user, err := scanUser(r.pool.QueryRow(ctx, selectSQL, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, fmt.Errorf("auth: get user by id: %w", err)
	}

	return user, nil
}

// UpdateProfile applies the caller's profile edits to their own account.
func (r *PGRepository) UpdateProfile(ctx context.Context, userID string, params UpdateProfileParams) (User, error) {
	updateSQL := fmt.Sprintf(`
		UPDATE users
		SET name = COALESCE($2, name),
		    specializations = COALESCE($3, specializations),
		    license_number = COALESCE($4, license_number),
		    updated_at = now()
		WHERE id = $1
		RETURNING %s
	`, userColumns)

	user, err := scanUser(r.pool.QueryRow(ctx, updateSQL,
		userID,
		params.Name,
		params.Specializations,
		params.LicenseNumber,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, fmt.Errorf("auth: update profile: %w", err)
	}

	return user, nil
}

// ListUsers returns accounts matching the filters, newest first, with the
// total count.
func (r *PGRepository) ListUsers(ctx context.Context, filters UserFilters) ([]User, int, error) {
	if filters.Page <= 0 {
		filters.Page = 1
	}
	if filters.PageSize <= 0 || filters.PageSize > 100 {
		filters.PageSize = 10
	}

	const where = `
		WHERE ($1 = '' OR role = $1::user_role)
		  AND ($2 = '' OR kyc_status = $2::kyc_status)
	`

	query := fmt.Sprintf(`
		SELECT %s
		FROM users
		%s
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`, userColumns, where)

	rows, err := r.pool.Query(ctx, query,
		string(filters.Role),
		string(filters.KYCStatus),
		filters.PageSize,
		(filters.Page-1)*filters.PageSize,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("auth: list users: %w", err)
	}
	defer rows.Close()

	users := make([]User, 0, filters.PageSize)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("auth: scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("auth: iterate users: %w", err)
	}

	var total int
	countSQL := `SELECT COUNT(*) FROM users` + where
	if err := r.pool.QueryRow(ctx, countSQL, string(filters.Role), string(filters.KYCStatus)).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("auth: count users: %w", err)
	}

	return users, total, nil
}

// SetUserStatus applies an admin decision to the account state flags.
func (r *PGRepository) SetUserStatus(ctx context.Context, userID string, params StatusParams) (User, error) {
	updateSQL := fmt.Sprintf(`
		UPDATE users
		SET is_active = COALESCE($2, is_active),
		    is_blocked = COALESCE($3, is_blocked),
		    kyc_status = COALESCE($4::kyc_status, kyc_status),
		    updated_at = now()
		WHERE id = $1
		RETURNING %s
	`, userColumns)

	user, err := scanUser(r.pool.QueryRow(ctx, updateSQL,
		userID,
		params.IsActive,
		params.IsBlocked,
		params.KYCStatus,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, fmt.Errorf("auth: set user status: %w", err)
	}

	return user, nil
}

func scanUser(row pgx.Row) (User, error) {
	var (
		user    User
		specs   []string
		license *string
	)
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.PasswordHash,
		&user.Role,
		&user.KYCStatus,
		&specs,
		&license,
		&user.Rating,
		&user.CompletedReviews,
		&user.IsActive,
		&user.IsBlocked,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return User{}, err
	}

	user.Specializations = specs
	user.LicenseNumber = license
	return user, nil
}

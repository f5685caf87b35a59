package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/devstudio/devstudio-server/internal/models"
	"github.com/mattn/go-sqlite3"
)

// AdminRepository handles administrator data access
type AdminRepository struct {
	db *sql.DB
}

// NewAdminRepository creates a new admin repository
func NewAdminRepository(db *sql.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

const adminColumns = `id, username, password_hash, email, role, twofa_enabled, twofa_secret, created_at, updated_at`

// Create creates a new administrator.
// Returns ErrDuplicate when the username is already taken.
func (r *AdminRepository) Create(admin *models.Admin) error {
	query := `
		INSERT INTO admins (username, password_hash, email, role)
		VALUES (?, ?, ?, ?)
	`

	result, err := r.db.Exec(query,
		admin.Username,
		admin.PasswordHash,
		admin.Email,
		admin.Role,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create admin: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	admin.ID = id
	admin.CreatedAt = time.Now()
	admin.UpdatedAt = time.Now()

	return nil
}

// CreateFirst creates an administrator only when the store holds none.
// The count check and insert run inside a single transaction so two
// concurrent bootstrap attempts cannot both win; the loser gets
// ErrStoreNotEmpty and must take the authenticated path.
func (r *AdminRepository) CreateFirst(admin *models.Admin) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var count int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM admins`).Scan(&count); err != nil {
		return fmt.Errorf("failed to count admins: %w", err)
	}
	if count > 0 {
		return ErrStoreNotEmpty
	}

	result, err := tx.Exec(`
		INSERT INTO admins (username, password_hash, email, role)
		VALUES (?, ?, ?, ?)
	`, admin.Username, admin.PasswordHash, admin.Email, admin.Role)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create admin: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	admin.ID = id
	admin.CreatedAt = time.Now()
	admin.UpdatedAt = time.Now()

	return nil
}

// GetByUsername retrieves an administrator by username
func (r *AdminRepository) GetByUsername(username string) (*models.Admin, error) {
	query := `SELECT ` + adminColumns + ` FROM admins WHERE username = ?`
	return r.scanOne(r.db.QueryRow(query, username))
}

// GetByID retrieves an administrator by ID
func (r *AdminRepository) GetByID(id int64) (*models.Admin, error) {
	query := `SELECT ` + adminColumns + ` FROM admins WHERE id = ?`
	return r.scanOne(r.db.QueryRow(query, id))
}

// Count returns the number of administrator records
func (r *AdminRepository) Count() (int, error) {
	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM admins`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count admins: %w", err)
	}
	return count, nil
}

// UpdateTwoFactor updates the two-factor state of an administrator.
// Disabling always clears the stored secret.
func (r *AdminRepository) UpdateTwoFactor(id int64, enabled bool, secret string) error {
	query := `
		UPDATE admins
		SET twofa_enabled = ?, twofa_secret = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	enabledInt := 0
	if enabled {
		enabledInt = 1
	}

	result, err := r.db.Exec(query, enabledInt, secret, id)
	if err != nil {
		return fmt.Errorf("failed to update two-factor state: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

// List lists all administrators, newest first
func (r *AdminRepository) List() ([]*models.Admin, error) {
	query := `SELECT ` + adminColumns + ` FROM admins ORDER BY created_at DESC`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list admins: %w", err)
	}
	defer rows.Close()

	var admins []*models.Admin

	for rows.Next() {
		admin, err := scanAdmin(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan admin: %w", err)
		}
		admins = append(admins, admin)
	}

	return admins, rows.Err()
}

func (r *AdminRepository) scanOne(row *sql.Row) (*models.Admin, error) {
	admin, err := scanAdmin(row.Scan)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get admin: %w", err)
	}
	return admin, nil
}

func scanAdmin(scan func(dest ...interface{}) error) (*models.Admin, error) {
	admin := &models.Admin{}
	var enabled int

	err := scan(
		&admin.ID,
		&admin.Username,
		&admin.PasswordHash,
		&admin.Email,
		&admin.Role,
		&enabled,
		&admin.TwoFASecret,
		&admin.CreatedAt,
		&admin.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	admin.TwoFAEnabled = enabled == 1
	return admin, nil
}

// isUniqueViolation reports whether an error is a SQLite unique
// constraint failure
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

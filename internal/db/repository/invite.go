package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/devstudio/devstudio-server/internal/models"
)

// InviteRepository handles invite token data access
type InviteRepository struct {
	db *sql.DB
}

// NewInviteRepository creates a new invite repository
func NewInviteRepository(db *sql.DB) *InviteRepository {
	return &InviteRepository{db: db}
}

// Create stores a new invite token.
// Returns ErrDuplicate on a code collision so the caller can retry with
// a fresh code.
func (r *InviteRepository) Create(invite *models.InviteToken) error {
	query := `
		INSERT INTO invite_tokens (code, created_by, expires_at)
		VALUES (?, ?, ?)
	`

	result, err := r.db.Exec(query, invite.Code, invite.CreatedBy, invite.ExpiresAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create invite: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	invite.ID = id
	invite.CreatedAt = time.Now()

	return nil
}

// GetByCode retrieves an invite token by its code
func (r *InviteRepository) GetByCode(code string) (*models.InviteToken, error) {
	query := `
		SELECT id, code, created_by, used, redeemed_by, expires_at, redeemed_at, created_at
		FROM invite_tokens
		WHERE code = ?
	`

	invite := &models.InviteToken{}
	var used int
	var redeemedAt sql.NullTime

	err := r.db.QueryRow(query, code).Scan(
		&invite.ID,
		&invite.Code,
		&invite.CreatedBy,
		&used,
		&invite.RedeemedBy,
		&invite.ExpiresAt,
		&redeemedAt,
		&invite.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get invite: %w", err)
	}

	invite.Used = used == 1
	if redeemedAt.Valid {
		invite.RedeemedAt = &redeemedAt.Time
	}

	return invite, nil
}

// MarkUsed marks an invite as redeemed. The WHERE clause only matches an
// unused invite, so two concurrent redemptions cannot both succeed;
// the loser gets ErrNotFound.
func (r *InviteRepository) MarkUsed(id int64, redeemedBy string) error {
	query := `
		UPDATE invite_tokens
		SET used = 1, redeemed_by = ?, redeemed_at = CURRENT_TIMESTAMP
		WHERE id = ? AND used = 0
	`

	result, err := r.db.Exec(query, redeemedBy, id)
	if err != nil {
		return fmt.Errorf("failed to mark invite used: %w", err)
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

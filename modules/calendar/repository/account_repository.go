package repository

import (
	"context"
	"database/sql"
	"time"

	"unified-calendar/core/database"
	"unified-calendar/core/logger"
	"unified-calendar/modules/calendar/entity"

	"github.com/google/uuid"
)

type AccountRepository interface {
	Create(ctx context.Context, account *entity.Account) (*entity.Account, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Account, error)
	GetActiveByOwner(ctx context.Context, ownerID uuid.UUID) ([]entity.Account, error)
	UpdateTokens(ctx context.Context, account *entity.Account) error
	Deactivate(ctx context.Context, ownerID, accountID uuid.UUID) error
	TouchLastSynced(ctx context.Context, accountID uuid.UUID, at time.Time) error
	ListOwnersWithActiveAccounts(ctx context.Context) ([]uuid.UUID, error)
}

type accountRepository struct {
	db database.IDatabase
}

func NewAccountRepository(db database.IDatabase) AccountRepository {
	return &accountRepository{db: db}
}

const accountColumns = `id, owner_id, provider, email, access_token, refresh_token, token_expires_at, is_active, last_synced_at, created_at, updated_at`

func (r *accountRepository) Create(ctx context.Context, account *entity.Account) (*entity.Account, error) {
	query := `
		INSERT INTO accounts (owner_id, provider, email, access_token, refresh_token, token_expires_at, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (owner_id, provider, email) DO UPDATE
		SET access_token = EXCLUDED.access_token,
		    refresh_token = EXCLUDED.refresh_token,
		    token_expires_at = EXCLUDED.token_expires_at,
		    is_active = true,
		    updated_at = NOW()
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		account.OwnerID, account.Provider, account.Email,
		account.AccessToken, account.RefreshToken, account.TokenExpiresAt, account.IsActive,
	).Scan(&account.ID, &account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		logger.Error("AccountRepository:Create", "error", err)
		return nil, err
	}
	return account, nil
}

func (r *accountRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	var account entity.Account
	err := r.db.GetContext(ctx, &account, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		logger.Error("AccountRepository:GetByID", "error", err)
		return nil, err
	}
	return &account, nil
}

func (r *accountRepository) GetActiveByOwner(ctx context.Context, ownerID uuid.UUID) ([]entity.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE owner_id = $1 AND is_active = true
		ORDER BY created_at ASC
	`
	var accounts []entity.Account
	err := r.db.SelectContext(ctx, &accounts, query, ownerID)
	if err != nil {
		logger.Error("AccountRepository:GetActiveByOwner", "error", err)
		return nil, err
	}
	return accounts, nil
}

func (r *accountRepository) UpdateTokens(ctx context.Context, account *entity.Account) error {
	query := `
		UPDATE accounts
		SET access_token = $2, refresh_token = $3, token_expires_at = $4, updated_at = NOW()
		WHERE id = $1
	`
	err := r.db.ExecContext(ctx, query,
		account.ID, account.AccessToken, account.RefreshToken, account.TokenExpiresAt)
	if err != nil {
		logger.Error("AccountRepository:UpdateTokens", "error", err)
	}
	return err
}

// Deactivate soft-removes an account. Rows are never hard-deleted while
// events still reference them.
func (r *accountRepository) Deactivate(ctx context.Context, ownerID, accountID uuid.UUID) error {
	query := `
		UPDATE accounts
		SET is_active = false, updated_at = NOW()
		WHERE id = $1 AND owner_id = $2
	`
	err := r.db.ExecContext(ctx, query, accountID, ownerID)
	if err != nil {
		logger.Error("AccountRepository:Deactivate", "error", err)
	}
	return err
}

func (r *accountRepository) TouchLastSynced(ctx context.Context, accountID uuid.UUID, at time.Time) error {
	query := `UPDATE accounts SET last_synced_at = $2, updated_at = NOW() WHERE id = $1`
	return r.db.ExecContext(ctx, query, accountID, at)
}

func (r *accountRepository) ListOwnersWithActiveAccounts(ctx context.Context) ([]uuid.UUID, error) {
	query := `SELECT DISTINCT owner_id FROM accounts WHERE is_active = true`
	var owners []uuid.UUID
	err := r.db.SelectContext(ctx, &owners, query)
	if err != nil {
		logger.Error("AccountRepository:ListOwnersWithActiveAccounts", "error", err)
		return nil, err
	}
	return owners, nil
}

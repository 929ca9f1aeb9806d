package service

import (
	"context"
	"time"

	"unified-calendar/core/constants"
	"unified-calendar/core/errors"
	"unified-calendar/core/logger"
	"unified-calendar/modules/calendar/entity"
	"unified-calendar/modules/calendar/repository"
	"unified-calendar/modules/provider"

	"github.com/google/uuid"
)

// AccountService manages calendar account connections and is the single
// gateway to the remote provider APIs. Every remote call goes through
// here so tokens are always fresh before they hit the wire.
type AccountService interface {
	GetActiveAccounts(ctx context.Context, ownerID uuid.UUID) ([]entity.Account, *errors.AppError)
	GetAccount(ctx context.Context, ownerID, accountID uuid.UUID) (*entity.Account, *errors.AppError)
	ConnectAccount(ctx context.Context, account *entity.Account) (*entity.Account, *errors.AppError)
	DisconnectAccount(ctx context.Context, ownerID, accountID uuid.UUID) *errors.AppError
	ListOwners(ctx context.Context) ([]uuid.UUID, *errors.AppError)

	FetchRemoteEvents(ctx context.Context, account *entity.Account, from, to time.Time) ([]provider.Event, error)
	CreateRemoteEvent(ctx context.Context, account *entity.Account, draft provider.EventDraft) (*provider.ExternalEventRef, error)
	UpdateRemoteEvent(ctx context.Context, account *entity.Account, eventID string, draft provider.EventDraft) error
	DeleteRemoteEvent(ctx context.Context, account *entity.Account, eventID string) error
}

type accountService struct {
	accountRepo repository.AccountRepository
	clients     provider.Clients
}

func NewAccountService(accountRepo repository.AccountRepository, clients provider.Clients) AccountService {
	return &accountService{
		accountRepo: accountRepo,
		clients:     clients,
	}
}

func (s *accountService) GetActiveAccounts(ctx context.Context, ownerID uuid.UUID) ([]entity.Account, *errors.AppError) {
	accounts, err := s.accountRepo.GetActiveByOwner(ctx, ownerID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to load calendar accounts", err)
	}
	return accounts, nil
}

func (s *accountService) GetAccount(ctx context.Context, ownerID, accountID uuid.UUID) (*entity.Account, *errors.AppError) {
	account, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to load calendar account", err)
	}
	if account == nil || account.OwnerID != ownerID {
		return nil, errors.NewAppError(errors.ErrNotFound, "Calendar account not found", nil)
	}
	return account, nil
}

func (s *accountService) ConnectAccount(ctx context.Context, account *entity.Account) (*entity.Account, *errors.AppError) {
	if _, err := provider.Parse(string(account.Provider)); err != nil {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "Unknown calendar provider", err)
	}
	account.IsActive = true

	created, err := s.accountRepo.Create(ctx, account)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to connect calendar account", err)
	}
	logger.Info("AccountService:ConnectAccount:Success",
		"account_id", created.ID, "provider", created.Provider, "email", created.Email)
	return created, nil
}

func (s *accountService) DisconnectAccount(ctx context.Context, ownerID, accountID uuid.UUID) *errors.AppError {
	account, appErr := s.GetAccount(ctx, ownerID, accountID)
	if appErr != nil {
		return appErr
	}
	if err := s.accountRepo.Deactivate(ctx, ownerID, account.ID); err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "Failed to disconnect calendar account", err)
	}
	logger.Info("AccountService:DisconnectAccount:Success", "account_id", accountID)
	return nil
}

func (s *accountService) ListOwners(ctx context.Context) ([]uuid.UUID, *errors.AppError) {
	owners, err := s.accountRepo.ListOwnersWithActiveAccounts(ctx)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to list account owners", err)
	}
	return owners, nil
}

// ensureValidToken refreshes the account's access token when it is
// expired or within the refresh leeway, persisting the new credentials.
func (s *accountService) ensureValidToken(ctx context.Context, account *entity.Account) error {
	if time.Until(account.TokenExpiresAt) > constants.TokenRefreshLeeway {
		return nil
	}

	logger.Info("AccountService:EnsureValidToken:Refreshing",
		"account_id", account.ID, "provider", account.Provider)

	token, err := provider.RefreshToken(ctx, account.Provider, account.RefreshToken)
	if err != nil {
		logger.Error("AccountService:EnsureValidToken:RefreshFailed",
			"account_id", account.ID, "error", err)
		return err
	}

	account.AccessToken = token.AccessToken
	if token.RefreshToken != "" {
		account.RefreshToken = token.RefreshToken
	}
	account.TokenExpiresAt = token.ExpiresAt

	if err := s.accountRepo.UpdateTokens(ctx, account); err != nil {
		return err
	}
	return nil
}

func (s *accountService) FetchRemoteEvents(ctx context.Context, account *entity.Account, from, to time.Time) ([]provider.Event, error) {
	client, err := s.clients.For(account.Provider)
	if err != nil {
		return nil, err
	}
	if err := s.ensureValidToken(ctx, account); err != nil {
		return nil, err
	}
	return client.FetchEvents(ctx, account.AccessToken, from, to)
}

func (s *accountService) CreateRemoteEvent(ctx context.Context, account *entity.Account, draft provider.EventDraft) (*provider.ExternalEventRef, error) {
	client, err := s.clients.For(account.Provider)
	if err != nil {
		return nil, err
	}
	if err := s.ensureValidToken(ctx, account); err != nil {
		return nil, err
	}
	return client.CreateEvent(ctx, account.AccessToken, draft)
}

func (s *accountService) UpdateRemoteEvent(ctx context.Context, account *entity.Account, eventID string, draft provider.EventDraft) error {
	client, err := s.clients.For(account.Provider)
	if err != nil {
		return err
	}
	if err := s.ensureValidToken(ctx, account); err != nil {
		return err
	}
	return client.UpdateEvent(ctx, account.AccessToken, eventID, draft)
}

func (s *accountService) DeleteRemoteEvent(ctx context.Context, account *entity.Account, eventID string) error {
	client, err := s.clients.For(account.Provider)
	if err != nil {
		return err
	}
	if err := s.ensureValidToken(ctx, account); err != nil {
		return err
	}
	return client.DeleteEvent(ctx, account.AccessToken, eventID)
}

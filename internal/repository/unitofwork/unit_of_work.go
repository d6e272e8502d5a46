package unitofwork

import (
	"context"

	"ai-docchat-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	ProfileRepository() contract.ProfileRepository
	DocumentRepository() contract.DocumentRepository
}

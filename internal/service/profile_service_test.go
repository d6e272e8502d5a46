// FILE: internal/service/profile_service_test.go
package service

import (
	"context"
	"errors"
	"testing"

	"ai-docchat-be/internal/entity"
	"ai-docchat-be/internal/repository/contract"
	"ai-docchat-be/internal/repository/specification"
	"ai-docchat-be/internal/repository/unitofwork"
	"ai-docchat-be/pkg/identity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProfileRepo serves a fixed profile set, or a forced error.
type fakeProfileRepo struct {
	profiles map[uuid.UUID]*entity.Profile
	err      error
}

func (f *fakeProfileRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Profile, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, spec := range specs {
		if byId, ok := spec.(specification.ByID); ok {
			return f.profiles[byId.ID], nil
		}
	}
	return nil, nil
}

func (f *fakeProfileRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Profile, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]*entity.Profile, 0, len(f.profiles))
	for _, p := range f.profiles {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeProfileRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return int64(len(f.profiles)), f.err
}

type fakeDocumentRepo struct {
	documents []*entity.Document
	err       error
}

func (f *fakeDocumentRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Document, error) {
	if f.err != nil || len(f.documents) == 0 {
		return nil, f.err
	}
	return f.documents[0], nil
}

func (f *fakeDocumentRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.documents, nil
}

func (f *fakeDocumentRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return int64(len(f.documents)), f.err
}

// fakeUow satisfies unitofwork.UnitOfWork without a database.
type fakeUow struct {
	profiles  contract.ProfileRepository
	documents contract.DocumentRepository
}

func (f *fakeUow) Begin(ctx context.Context) error { return nil }
func (f *fakeUow) Commit() error                   { return nil }
func (f *fakeUow) Rollback() error                 { return nil }
func (f *fakeUow) ProfileRepository() contract.ProfileRepository {
	return f.profiles
}
func (f *fakeUow) DocumentRepository() contract.DocumentRepository {
	return f.documents
}

type fakeUowFactory struct {
	uow *fakeUow
}

func (f *fakeUowFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return f.uow
}

type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }

func newProfileFixture(repo *fakeProfileRepo) IProfileService {
	factory := &fakeUowFactory{uow: &fakeUow{profiles: repo, documents: &fakeDocumentRepo{}}}
	return NewProfileService(factory, nopLogger{})
}

func TestProfileResolve(t *testing.T) {
	userId := uuid.New()
	companyId := uuid.New()
	admin := &entity.Profile{
		Id:           userId,
		CompanyId:    companyId,
		FullName:     "Ops Admin",
		Role:         entity.ProfileRoleAdmin,
		IsSuperAdmin: false,
	}

	t.Run("authenticated with directory row", func(t *testing.T) {
		svc := newProfileFixture(&fakeProfileRepo{profiles: map[uuid.UUID]*entity.Profile{userId: admin}})

		res := svc.Resolve(context.Background(), userId)

		require.Equal(t, identity.StateAuthenticated, res.State)
		require.NotNil(t, res.Profile)
		assert.Equal(t, companyId, res.Profile.CompanyId)
		assert.Equal(t, identity.RoleAdmin, res.Profile.Role)
	})

	t.Run("missing row resolves to provisioning", func(t *testing.T) {
		svc := newProfileFixture(&fakeProfileRepo{profiles: map[uuid.UUID]*entity.Profile{}})

		res := svc.Resolve(context.Background(), uuid.New())

		assert.Equal(t, identity.StateProvisioning, res.State)
		assert.Nil(t, res.Profile)
	})

	t.Run("lookup error fails closed", func(t *testing.T) {
		svc := newProfileFixture(&fakeProfileRepo{err: errors.New("connection refused")})

		res := svc.Resolve(context.Background(), userId)

		assert.Equal(t, identity.StateUnauthenticated, res.State)
		assert.Nil(t, res.Profile)
	})

	t.Run("nil user id is unauthenticated without a lookup", func(t *testing.T) {
		svc := newProfileFixture(&fakeProfileRepo{err: errors.New("must not be called")})

		res := svc.Resolve(context.Background(), uuid.Nil)

		assert.Equal(t, identity.StateUnauthenticated, res.State)
	})
}

func TestProfileResolveEvent(t *testing.T) {
	userId := uuid.New()
	profile := &entity.Profile{Id: userId, CompanyId: uuid.New(), Role: entity.ProfileRoleUser}

	t.Run("session event resolves through the directory", func(t *testing.T) {
		svc := newProfileFixture(&fakeProfileRepo{profiles: map[uuid.UUID]*entity.Profile{userId: profile}})

		res := svc.ResolveEvent(context.Background(), identity.ChangeEvent{
			Type:    identity.EventInitial,
			Session: &identity.Session{UserId: userId},
		})

		require.Equal(t, identity.StateAuthenticated, res.State)
		assert.Equal(t, profile.CompanyId, res.Profile.CompanyId)
	})

	t.Run("sign-out is unauthenticated without a lookup", func(t *testing.T) {
		svc := newProfileFixture(&fakeProfileRepo{err: errors.New("must not be called")})

		res := svc.ResolveEvent(context.Background(), identity.ChangeEvent{
			Type:    identity.EventSignedOut,
			Session: &identity.Session{UserId: userId},
		})

		assert.Equal(t, identity.StateUnauthenticated, res.State)
	})

	t.Run("missing session is unauthenticated", func(t *testing.T) {
		svc := newProfileFixture(&fakeProfileRepo{err: errors.New("must not be called")})

		res := svc.ResolveEvent(context.Background(), identity.ChangeEvent{Type: identity.EventSignedIn})

		assert.Equal(t, identity.StateUnauthenticated, res.State)
	})
}

func TestGetAccessProfile(t *testing.T) {
	userId := uuid.New()
	profile := &entity.Profile{Id: userId, CompanyId: uuid.New(), Role: entity.ProfileRoleUser}
	svc := newProfileFixture(&fakeProfileRepo{profiles: map[uuid.UUID]*entity.Profile{userId: profile}})

	t.Run("known user", func(t *testing.T) {
		got, err := svc.GetAccessProfile(context.Background(), userId.String())
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, identity.RoleUser, got.Role)
	})

	t.Run("malformed id", func(t *testing.T) {
		got, err := svc.GetAccessProfile(context.Background(), "not-a-uuid")
		assert.Error(t, err)
		assert.Nil(t, got)
	})

	t.Run("unknown user yields nil profile", func(t *testing.T) {
		got, err := svc.GetAccessProfile(context.Background(), uuid.New().String())
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

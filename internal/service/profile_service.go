// FILE: internal/service/profile_service.go
package service

import (
	"context"

	"ai-docchat-be/internal/dto"
	"ai-docchat-be/internal/entity"
	"ai-docchat-be/internal/pkg/logger"
	"ai-docchat-be/internal/repository/specification"
	"ai-docchat-be/internal/repository/unitofwork"
	"ai-docchat-be/pkg/identity"

	"github.com/google/uuid"
)

// IProfileService resolves an authenticated user id to their directory
// profile. Lookups that fail resolve to UNAUTHENTICATED: an access decision
// is never made on a profile we could not read.
type IProfileService interface {
	Resolve(ctx context.Context, userId uuid.UUID) identity.Resolution
	ResolveEvent(ctx context.Context, event identity.ChangeEvent) identity.Resolution
	GetAccessProfile(ctx context.Context, userId string) (*identity.Profile, error)
}

type profileService struct {
	uowFactory unitofwork.RepositoryFactory
	logger     logger.ILogger
}

func NewProfileService(uowFactory unitofwork.RepositoryFactory, log logger.ILogger) IProfileService {
	return &profileService{
		uowFactory: uowFactory,
		logger:     log,
	}
}

func (s *profileService) Resolve(ctx context.Context, userId uuid.UUID) identity.Resolution {
	if userId == uuid.Nil {
		return identity.Unauthenticated()
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	profile, err := uow.ProfileRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		s.logger.Error("ProfileService", "Profile lookup failed", map[string]interface{}{
			"user_id": userId.String(),
			"error":   err.Error(),
		})
		return identity.Unauthenticated()
	}
	if profile == nil {
		// Signed in, but the directory row has not been provisioned yet.
		return identity.Provisioning()
	}

	return identity.Authenticated(toAccessProfile(profile))
}

// ResolveEvent resolves a session lifecycle event. Sign-out and absent
// sessions short-circuit to UNAUTHENTICATED without a directory lookup.
func (s *profileService) ResolveEvent(ctx context.Context, event identity.ChangeEvent) identity.Resolution {
	if event.Type == identity.EventSignedOut || event.Session == nil {
		return identity.Unauthenticated()
	}
	return s.Resolve(ctx, event.Session.UserId)
}

// GetAccessProfile adapts Resolve for the route guard middleware.
func (s *profileService) GetAccessProfile(ctx context.Context, userId string) (*identity.Profile, error) {
	uid, err := uuid.Parse(userId)
	if err != nil {
		return nil, err
	}
	res := s.Resolve(ctx, uid)
	return res.Profile, nil
}

func toAccessProfile(p *entity.Profile) *identity.Profile {
	role := identity.RoleUser
	if p.Role == entity.ProfileRoleAdmin {
		role = identity.RoleAdmin
	}
	return &identity.Profile{
		UserId:       p.Id,
		CompanyId:    p.CompanyId,
		FullName:     p.FullName,
		Role:         role,
		IsSuperAdmin: p.IsSuperAdmin,
	}
}

// ToResolutionResponse maps a resolution to its transport shape.
func ToResolutionResponse(res identity.Resolution) *dto.ResolutionResponse {
	out := &dto.ResolutionResponse{}
	switch res.State {
	case identity.StateAuthenticated:
		out.State = "authenticated"
		out.Profile = &dto.ProfileResponse{
			UserId:       res.Profile.UserId,
			CompanyId:    res.Profile.CompanyId,
			FullName:     res.Profile.FullName,
			Role:         string(res.Profile.Role),
			IsSuperAdmin: res.Profile.IsSuperAdmin,
		}
	case identity.StateProvisioning:
		out.State = "provisioning"
	default:
		out.State = "unauthenticated"
	}
	return out
}

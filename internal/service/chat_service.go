// FILE: internal/service/chat_service.go
package service

import (
	"context"

	"ai-docchat-be/internal/dto"
	"ai-docchat-be/internal/pkg/logger"
	"ai-docchat-be/internal/repository/memory"
	"ai-docchat-be/pkg/chat/dispatch"
	"ai-docchat-be/pkg/chat/session"
	"ai-docchat-be/pkg/identity"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// IChatService owns the live conversation engines. One engine per user,
// created lazily on first use, scoped to the user's company, torn down on
// reset or idle eviction.
type IChatService interface {
	Send(ctx context.Context, userId uuid.UUID, request *dto.SendChatRequest) (*dto.SendChatResponse, error)
	GetThread(ctx context.Context, userId uuid.UUID) (*dto.ThreadResponse, error)
	Reset(ctx context.Context, userId uuid.UUID) error

	ListDocuments(ctx context.Context, userId uuid.UUID) (*dto.DocumentListResponse, error)
	RefreshDocuments(ctx context.Context, userId uuid.UUID) (*dto.DocumentListResponse, error)
	ToggleDocument(ctx context.Context, userId uuid.UUID, request *dto.ToggleDocumentRequest) (*dto.DocumentListResponse, error)
	SelectAllDocuments(ctx context.Context, userId uuid.UUID) (*dto.DocumentListResponse, error)
	ClearAllDocuments(ctx context.Context, userId uuid.UUID) (*dto.DocumentListResponse, error)

	// Subscribe attaches an observer to the user's engine for push delivery.
	Subscribe(ctx context.Context, userId uuid.UUID, observer session.Observer) (unsubscribe func(), err error)

	// RefreshCompany re-reads the catalog of every live engine in a company.
	// Driven by ingestion events, not user actions.
	RefreshCompany(ctx context.Context, companyId uuid.UUID)

	// HandleSessionChange reacts to identity lifecycle events.
	HandleSessionChange(ctx context.Context, event identity.ChangeEvent)
}

type chatService struct {
	profileService IProfileService
	catalog        session.CatalogSource
	dispatcher     dispatch.Dispatcher
	sessionRepo    *memory.SessionRepository
	logger         logger.ILogger
}

func NewChatService(
	profileService IProfileService,
	catalog session.CatalogSource,
	dispatcher dispatch.Dispatcher,
	sessionRepo *memory.SessionRepository,
	log logger.ILogger,
) IChatService {
	return &chatService{
		profileService: profileService,
		catalog:        catalog,
		dispatcher:     dispatcher,
		sessionRepo:    sessionRepo,
		logger:         log,
	}
}

// engineFor returns the user's live engine, creating one on first use. A
// company change closes the old engine and starts fresh; state never leaks
// across tenants.
func (s *chatService) engineFor(ctx context.Context, userId uuid.UUID) (*session.Engine, error) {
	res := s.profileService.Resolve(ctx, userId)
	if res.State != identity.StateAuthenticated {
		return nil, fiber.NewError(fiber.StatusForbidden, "Profile not provisioned")
	}
	companyId := res.Profile.CompanyId

	key := userId.String()
	if eng, ok := s.sessionRepo.Get(key); ok {
		if eng.CompanyId() == companyId {
			s.sessionRepo.Touch(key)
			return eng, nil
		}
		s.sessionRepo.Delete(key)
	}

	eng := session.NewEngine(companyId, s.catalog, s.dispatcher)
	if err := eng.Refresh(ctx); err != nil {
		s.logger.Warn("ChatService", "Initial catalog read failed", map[string]interface{}{
			"user_id":    key,
			"company_id": companyId.String(),
			"error":      err.Error(),
		})
		// Engine stays usable; the catalog error flag asks for a manual retry.
	}
	s.sessionRepo.Save(key, eng)
	return eng, nil
}

func (s *chatService) Send(ctx context.Context, userId uuid.UUID, request *dto.SendChatRequest) (*dto.SendChatResponse, error) {
	eng, err := s.engineFor(ctx, userId)
	if err != nil {
		return nil, err
	}
	accepted := eng.Send(request.Question)
	return &dto.SendChatResponse{Accepted: accepted}, nil
}

func (s *chatService) GetThread(ctx context.Context, userId uuid.UUID) (*dto.ThreadResponse, error) {
	eng, err := s.engineFor(ctx, userId)
	if err != nil {
		return nil, err
	}
	return toThreadResponse(eng.Snapshot()), nil
}

// Reset discards the user's conversation entirely. The next request starts a
// fresh engine with a freshly selected catalog.
func (s *chatService) Reset(ctx context.Context, userId uuid.UUID) error {
	s.sessionRepo.Delete(userId.String())
	return nil
}

func (s *chatService) ListDocuments(ctx context.Context, userId uuid.UUID) (*dto.DocumentListResponse, error) {
	eng, err := s.engineFor(ctx, userId)
	if err != nil {
		return nil, err
	}
	return toDocumentListResponse(eng.Snapshot()), nil
}

func (s *chatService) RefreshDocuments(ctx context.Context, userId uuid.UUID) (*dto.DocumentListResponse, error) {
	eng, err := s.engineFor(ctx, userId)
	if err != nil {
		return nil, err
	}
	// A failed read is reported through the catalog_error flag, not an error
	// status; the previous catalog stays visible.
	_ = eng.Refresh(ctx)
	return toDocumentListResponse(eng.Snapshot()), nil
}

func (s *chatService) ToggleDocument(ctx context.Context, userId uuid.UUID, request *dto.ToggleDocumentRequest) (*dto.DocumentListResponse, error) {
	eng, err := s.engineFor(ctx, userId)
	if err != nil {
		return nil, err
	}
	eng.Toggle(request.DocumentId)
	return toDocumentListResponse(eng.Snapshot()), nil
}

func (s *chatService) SelectAllDocuments(ctx context.Context, userId uuid.UUID) (*dto.DocumentListResponse, error) {
	eng, err := s.engineFor(ctx, userId)
	if err != nil {
		return nil, err
	}
	eng.SelectAll()
	return toDocumentListResponse(eng.Snapshot()), nil
}

func (s *chatService) ClearAllDocuments(ctx context.Context, userId uuid.UUID) (*dto.DocumentListResponse, error) {
	eng, err := s.engineFor(ctx, userId)
	if err != nil {
		return nil, err
	}
	eng.ClearAll()
	return toDocumentListResponse(eng.Snapshot()), nil
}

func (s *chatService) Subscribe(ctx context.Context, userId uuid.UUID, observer session.Observer) (func(), error) {
	eng, err := s.engineFor(ctx, userId)
	if err != nil {
		return nil, err
	}
	return eng.Subscribe(observer), nil
}

func (s *chatService) RefreshCompany(ctx context.Context, companyId uuid.UUID) {
	s.sessionRepo.Range(func(userId string, eng *session.Engine) {
		if eng.CompanyId() != companyId {
			return
		}
		if err := eng.Refresh(ctx); err != nil {
			s.logger.Warn("ChatService", "Catalog push refresh failed", map[string]interface{}{
				"user_id":    userId,
				"company_id": companyId.String(),
				"error":      err.Error(),
			})
		}
	})
}

// HandleSessionChange tears the user's engine down when their session ends.
// The eviction hook closes the engine, which cancels any in-flight dispatch.
func (s *chatService) HandleSessionChange(ctx context.Context, event identity.ChangeEvent) {
	if event.Type != identity.EventSignedOut || event.Session == nil {
		return
	}
	s.sessionRepo.Delete(event.Session.UserId.String())
}

func toThreadResponse(snap session.Snapshot) *dto.ThreadResponse {
	messages := make([]dto.ChatMessageResponse, 0, len(snap.Thread))
	for _, msg := range snap.Thread {
		messages = append(messages, dto.ChatMessageResponse{
			Id:        msg.Id,
			Role:      string(msg.Role),
			Content:   msg.Content,
			State:     string(msg.State),
			CreatedAt: msg.CreatedAt,
		})
	}
	return &dto.ThreadResponse{
		Messages: messages,
		InFlight: snap.InFlight,
	}
}

func toDocumentListResponse(snap session.Snapshot) *dto.DocumentListResponse {
	selected := make(map[uuid.UUID]struct{}, len(snap.SelectedIds))
	for _, id := range snap.SelectedIds {
		selected[id] = struct{}{}
	}
	docs := make([]dto.DocumentResponse, 0, len(snap.Documents))
	for _, doc := range snap.Documents {
		_, isSelected := selected[doc.Id]
		docs = append(docs, dto.DocumentResponse{
			Id:       doc.Id,
			FileName: doc.FileName,
			Summary:  doc.Summary,
			Selected: isSelected,
		})
	}
	return &dto.DocumentListResponse{
		Documents:    docs,
		SelectedIds:  snap.SelectedIds,
		CatalogError: snap.CatalogError,
	}
}

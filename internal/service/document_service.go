// FILE: internal/service/document_service.go
package service

import (
	"context"

	"ai-docchat-be/internal/dto"
	"ai-docchat-be/internal/repository/specification"
	"ai-docchat-be/internal/repository/unitofwork"
	"ai-docchat-be/pkg/chat/session"

	"github.com/google/uuid"
)

// IDocumentService is the catalog read side. It satisfies
// session.CatalogSource so every engine refresh goes through one query path.
type IDocumentService interface {
	ReadyDocuments(ctx context.Context, companyId uuid.UUID) ([]session.Document, error)
	CompanyDocuments(ctx context.Context, companyId uuid.UUID) ([]*dto.AdminDocumentResponse, error)
}

type documentService struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewDocumentService(uowFactory unitofwork.RepositoryFactory) IDocumentService {
	return &documentService{
		uowFactory: uowFactory,
	}
}

// ReadyDocuments returns the tenant's fully ingested documents, newest first.
func (s *documentService) ReadyDocuments(ctx context.Context, companyId uuid.UUID) ([]session.Document, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	docs, err := uow.DocumentRepository().FindAll(ctx,
		specification.CompanyOwnedBy{CompanyID: companyId},
		specification.ReadyOnly(),
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	out := make([]session.Document, 0, len(docs))
	for _, doc := range docs {
		summary := ""
		if doc.AutoSummary != nil {
			summary = *doc.AutoSummary
		}
		out = append(out, session.Document{
			Id:       doc.Id,
			FileName: doc.FileName,
			Summary:  summary,
		})
	}
	return out, nil
}

// CompanyDocuments returns the full catalog for the admin surface, ingestion
// states included.
func (s *documentService) CompanyDocuments(ctx context.Context, companyId uuid.UUID) ([]*dto.AdminDocumentResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	docs, err := uow.DocumentRepository().FindAll(ctx,
		specification.CompanyOwnedBy{CompanyID: companyId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	out := make([]*dto.AdminDocumentResponse, 0, len(docs))
	for _, doc := range docs {
		summary := ""
		if doc.AutoSummary != nil {
			summary = *doc.AutoSummary
		}
		out = append(out, &dto.AdminDocumentResponse{
			Id:        doc.Id,
			FileName:  doc.FileName,
			Status:    string(doc.Status),
			Summary:   summary,
			CreatedAt: doc.CreatedAt,
			UpdatedAt: doc.UpdatedAt,
		})
	}
	return out, nil
}

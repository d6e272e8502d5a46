// FILE: internal/service/publisher_service.go
package service

import (
	"context"
	"encoding/json"

	"ai-docchat-be/internal/dto"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

type IPublisherService interface {
	PublishCatalogChanged(ctx context.Context, companyId uuid.UUID) error
}

type publisherService struct {
	topicName string
	pubSub    *gochannel.GoChannel
}

func NewPublisherService(topicName string, pubSub *gochannel.GoChannel) IPublisherService {
	return &publisherService{
		topicName: topicName,
		pubSub:    pubSub,
	}
}

func (ps *publisherService) PublishCatalogChanged(ctx context.Context, companyId uuid.UUID) error {
	payload, err := json.Marshal(dto.CatalogChangedMessage{CompanyId: companyId})
	if err != nil {
		return err
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	return ps.pubSub.Publish(ps.topicName, msg)
}

// FILE: internal/service/consumer_service.go
package service

import (
	"context"
	"encoding/json"
	"log"

	"ai-docchat-be/internal/dto"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService drains the internal catalog-changed topic and pushes a
// refresh into every live session of the affected company.
type consumerService struct {
	pubSub      *gochannel.GoChannel
	topicName   string
	chatService IChatService
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	chatService IChatService,
) IConsumerService {
	return &consumerService{
		pubSub:      pubSub,
		topicName:   topicName,
		chatService: chatService,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.CatalogChangedMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		log.Printf("[ERROR] Failed to unmarshal catalog message: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}
	if payload.CompanyId == uuid.Nil {
		log.Printf("[ERROR] Catalog message without company id")
		msg.Ack()
		return
	}

	log.Printf("[INFO] Catalog changed for company %s, refreshing live sessions", payload.CompanyId)
	cs.chatService.RefreshCompany(ctx, payload.CompanyId)
	msg.Ack()
}

// FILE: internal/service/consumer_service.go
package service

import (
	"context"
	"encoding/json"

	"soulscript-chat-be/internal/dto"
	"soulscript-chat-be/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill/message"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService is the ingest worker behind IDocumentService.Enqueue.
type consumerService struct {
	subscriber      message.Subscriber
	topicName       string
	documentService IDocumentService
	logger          logger.ILogger
}

func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	documentService IDocumentService,
	logger logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber:      subscriber,
		topicName:       topicName,
		documentService: documentService,
		logger:          logger,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
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
	var payload dto.PublishIngestDocumentMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("INGEST", "Failed to unmarshal message", map[string]interface{}{"error": err.Error()})
		// Ack invalid messages to prevent infinite retry
		msg.Ack()
		return
	}

	cs.logger.Info("INGEST", "Processing document", map[string]interface{}{
		"group_scope": payload.GroupScope,
		"title":       payload.Title,
		"chars":       len(payload.Content),
	})

	if _, err := cs.documentService.Ingest(ctx, payload); err != nil {
		cs.logger.Error("INGEST", "Failed to ingest document", map[string]interface{}{
			"title": payload.Title,
			"error": err.Error(),
		})
		msg.Nack()
		return
	}

	msg.Ack()
}

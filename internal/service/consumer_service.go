package service

import (
	"context"
	"encoding/json"
	"log"

	"amanai-be/internal/dto"
	"amanai-be/pkg/apperror"

	"github.com/ThreeDotsLabs/watermill/message"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	subscriber    message.Subscriber
	topicName     string
	reportService IReportService
}

func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	reportService IReportService,
) IConsumerService {
	return &consumerService{
		subscriber:    subscriber,
		topicName:     topicName,
		reportService: reportService,
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
	var payload dto.RenderReportMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		log.Printf("[ERROR] Failed to unmarshal message: %v", err)
		msg.Ack() // invalid payloads are never retried
		return
	}

	log.Printf("[INFO] Rendering report pdf for ReportId: %s", payload.ReportId)

	path, err := cs.reportService.RenderAndStore(ctx, payload.ReportId)
	if err != nil {
		switch apperror.KindOf(err) {
		case apperror.KindNotFound, apperror.KindNotConfigured:
			// retrying cannot fix a deleted report or a missing font
			log.Printf("[WARN] Skipping report %s: %v", payload.ReportId, err)
			msg.Ack()
		default:
			log.Printf("[ERROR] Failed to render report %s: %v", payload.ReportId, err)
			msg.Nack()
		}
		return
	}

	if path == "" {
		log.Printf("[SUCCESS] Report rendered in memory only for ReportId: %s", payload.ReportId)
	} else {
		log.Printf("[SUCCESS] Report stored at %s for ReportId: %s", path, payload.ReportId)
	}
	msg.Ack()
}

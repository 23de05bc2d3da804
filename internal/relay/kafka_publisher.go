package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	skafka "github.com/wafflestudio/23-5-team7-web/internal/shared/kafka"
	"github.com/wafflestudio/23-5-team7-web/internal/shared/logger"
	"github.com/wafflestudio/23-5-team7-web/pkg/contracts/events"
)

// KafkaPublisher publica snapshots de odds reconciliadas num tópico.
type KafkaPublisher struct {
	writer *kafka.Writer
	log    *zap.Logger
}

// NewKafkaPublisher cria o writer; com autoCreate tenta criar o tópico via
// controller (single-broker, ambientes local/dev).
func NewKafkaPublisher(ctx context.Context, brokers []string, topic string, autoCreate bool, log *zap.Logger) (*KafkaPublisher, error) {
	log = logger.OrNop(log)
	if len(brokers) == 0 {
		return nil, errors.New("kafka brokers not provided")
	}
	if autoCreate {
		if err := ensureTopic(ctx, brokers[0], topic, log); err != nil {
			return nil, err
		}
	}
	return &KafkaPublisher{writer: skafka.NewWriter(brokers, topic), log: log}, nil
}

func ensureTopic(ctx context.Context, broker, topic string, log *zap.Logger) error {
	ctrlCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	conn, err := kafka.DialContext(ctrlCtx, "tcp", broker)
	if err != nil {
		return fmt.Errorf("connect to kafka: %w", err)
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return fmt.Errorf("kafka controller: %w", err)
	}
	cconn, err := kafka.DialContext(ctrlCtx, "tcp", fmt.Sprintf("%s:%d", controller.Host, controller.Port))
	if err != nil {
		return fmt.Errorf("dial controller: %w", err)
	}
	defer cconn.Close()

	err = cconn.CreateTopics(kafka.TopicConfig{Topic: topic, NumPartitions: 1, ReplicationFactor: 1})
	switch {
	case err == nil:
		log.Info("kafka topic created", zap.String("topic", topic))
	case strings.Contains(err.Error(), "already exists"):
	default:
		log.Warn("failed to create kafka topic", zap.String("topic", topic), zap.Error(err))
	}
	return nil
}

// Publish usa o event_id como chave para manter a ordem por partição
func (p *KafkaPublisher) Publish(ctx context.Context, ev events.OddsChanged) error {
	value, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if err := skafka.WriteJSON(ctx, p.writer, ev.EventID, value); err != nil {
		p.log.Error("failed to publish odds change", zap.String("event_id", ev.EventID), zap.Error(err))
		return err
	}
	p.log.Debug("published odds change", zap.String("event_id", ev.EventID), zap.Uint64("version", ev.Version))
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

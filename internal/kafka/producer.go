package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"storefront/internal/config"
	"storefront/internal/logger"
	"storefront/internal/models"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
)

const eventSource = "storefront"

// Producer publishes storefront events.
type Producer struct {
	producer sarama.SyncProducer
	log      *logger.Logger
	topics   *config.Topics
}

// NewProducer connects a synchronous producer to the configured brokers.
func NewProducer(cfg *config.KafkaConfig, log *logger.Logger) (*Producer, error) {
	saramaCfg := sarama.NewConfig()
	saramaCfg.Producer.RequiredAcks = sarama.WaitForAll
	saramaCfg.Producer.Retry.Max = 3
	saramaCfg.Producer.Return.Successes = true
	saramaCfg.Producer.Partitioner = sarama.NewHashPartitioner

	producer, err := sarama.NewSyncProducer(cfg.Brokers, saramaCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	log.WithField("brokers", cfg.Brokers).Info("Kafka producer created")

	topics := cfg.Topics
	return &Producer{
		producer: producer,
		log:      log,
		topics:   &topics,
	}, nil
}

// Close is safe on a nil or empty producer.
func (p *Producer) Close() error {
	if p == nil || p.producer == nil {
		return nil
	}
	return p.producer.Close()
}

// PublishOrderPlaced announces a checked-out order on the orders topic.
func (p *Producer) PublishOrderPlaced(order *models.Order) error {
	items := make([]map[string]interface{}, 0, len(order.Summary.Items))
	for _, item := range order.Summary.Items {
		items = append(items, map[string]interface{}{
			"product_id": item.ProductID,
			"size":       item.Size,
			"quantity":   item.Quantity,
			"price":      item.Price,
		})
	}

	return p.publishEvent(p.topics.Orders, newEvent(models.EventTypeOrderPlaced, order.ID.String(), map[string]interface{}{
		"order_id":       order.ID.String(),
		"customer_email": order.Customer.Email,
		"payment_method": order.Customer.PaymentMethod,
		"items":          items,
		"subtotal":       order.Summary.Subtotal,
		"promo_code":     order.Summary.PromoCode,
		"discount":       order.Summary.PromoDiscount,
		"total":          order.Summary.Total,
	}))
}

// PublishPaymentEvent forwards a verified payment provider event.
func (p *Producer) PublishPaymentEvent(eventType models.EventType, objectID string, data map[string]interface{}) error {
	return p.publishEvent(p.topics.Payments, newEvent(eventType, objectID, data))
}

// PublishProductChanged tells every storefront instance to drop cached catalog reads.
func (p *Producer) PublishProductChanged(productID, action string) error {
	return p.publishEvent(p.topics.Catalog, newEvent(models.EventTypeProductChanged, productID, map[string]interface{}{
		"product_id": productID,
		"action":     action,
	}))
}

func newEvent(eventType models.EventType, key string, data map[string]interface{}) models.Event {
	if data == nil {
		data = map[string]interface{}{}
	}
	data["key"] = key
	return models.Event{
		ID:        uuid.New(),
		Type:      eventType,
		Source:    eventSource,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

func (p *Producer) publishEvent(topic string, event models.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	key := event.ID.String()
	if k, ok := event.Data["key"].(string); ok && k != "" {
		key = k
	}

	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(payload),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_type"), Value: []byte(event.Type)},
		},
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		p.log.WithError(err).WithFields(map[string]interface{}{
			"topic":      topic,
			"event_type": event.Type,
		}).Error("Failed to publish event")
		return fmt.Errorf("failed to send message: %w", err)
	}

	p.log.WithFields(map[string]interface{}{
		"topic":      topic,
		"event_type": event.Type,
		"event_id":   event.ID,
		"partition":  partition,
		"offset":     offset,
	}).Debug("Event published")

	return nil
}

package kafka

import (
	"encoding/json"
	"fmt"
	"testing"

	"storefront/internal/config"
	"storefront/internal/logger"
	"storefront/internal/models"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/google/uuid"
)

func TestPublishEvent(t *testing.T) {
	cfg := sarama.NewConfig()
	mp := mocks.NewSyncProducer(t, cfg)
	mp.ExpectSendMessageAndSucceed()

	event := models.Event{ID: uuid.New(), Type: models.EventTypeOrderPlaced}
	p := &Producer{
		producer: mp,
		log:      logger.New(&config.LoggerConfig{Level: "error", Format: "json"}),
		topics:   &config.Topics{Orders: "orders"},
	}
	if err := p.publishEvent("orders", event); err != nil {
		t.Fatalf("expected publish success, got %v", err)
	}

	if err := mp.Close(); err != nil {
		t.Fatalf("failed to close mock producer: %v", err)
	}
}

func TestProducer_WrapperMethods(t *testing.T) {
	cfg := sarama.NewConfig()
	mp := mocks.NewSyncProducer(t, cfg)
	for i := 0; i < 3; i++ {
		mp.ExpectSendMessageAndSucceed()
	}

	p := &Producer{
		producer: mp,
		log:      logger.New(&config.LoggerConfig{Level: "error", Format: "json"}),
		topics:   &config.Topics{Orders: "orders", Payments: "payments", Catalog: "catalog"},
	}

	order := &models.Order{
		ID:       uuid.New(),
		Customer: models.CustomerDetails{Name: "n", Email: "n@example.com"},
		Summary: models.CheckoutSummary{
			Items: []models.CartItem{{ProductID: "p1", Quantity: 2, Price: 5}},
			Total: 10,
		},
	}

	if err := p.PublishOrderPlaced(order); err != nil {
		t.Fatalf("PublishOrderPlaced failed: %v", err)
	}
	if err := p.PublishPaymentEvent(models.EventTypePaymentSucceeded, "pi_1", map[string]interface{}{"amount": 1000}); err != nil {
		t.Fatalf("PublishPaymentEvent failed: %v", err)
	}
	if err := p.PublishProductChanged("p1", "updated"); err != nil {
		t.Fatalf("PublishProductChanged failed: %v", err)
	}
	if err := mp.Close(); err != nil {
		t.Fatalf("failed to close mock producer: %v", err)
	}
}

func TestProducer_PublishProductChanged_UsesCatalogTopicAndKey(t *testing.T) {
	cfg := sarama.NewConfig()
	mp := mocks.NewSyncProducer(t, cfg)
	mp.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		if msg.Topic != "catalog" {
			return fmt.Errorf("unexpected topic %s", msg.Topic)
		}
		key, _ := msg.Key.Encode()
		if string(key) != "p42" {
			return fmt.Errorf("unexpected key %s", key)
		}
		value, _ := msg.Value.Encode()
		var ev models.Event
		if err := json.Unmarshal(value, &ev); err != nil {
			return err
		}
		if ev.Type != models.EventTypeProductChanged || ev.Data["action"] != "deleted" {
			return fmt.Errorf("unexpected event %+v", ev)
		}
		return nil
	})

	p := &Producer{
		producer: mp,
		log:      logger.New(&config.LoggerConfig{Level: "error", Format: "json"}),
		topics:   &config.Topics{Catalog: "catalog"},
	}
	if err := p.PublishProductChanged("p42", "deleted"); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	_ = mp.Close()
}

func TestProducer_PublishEvent_Failure(t *testing.T) {
	cfg := sarama.NewConfig()
	mp := mocks.NewSyncProducer(t, cfg)
	mp.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	p := &Producer{
		producer: mp,
		log:      logger.New(&config.LoggerConfig{Level: "error", Format: "json"}),
		topics:   &config.Topics{Orders: "orders"},
	}

	ev := models.Event{ID: uuid.New(), Type: models.EventTypeOrderPlaced}
	err := p.publishEvent("orders", ev)
	if err == nil {
		t.Fatalf("expected error on send failure")
	}
	_ = p.Close()
}

func TestNewProducer_Error(t *testing.T) {
	log := logger.New(&config.LoggerConfig{Level: "error", Format: "json"})
	cfg := &config.KafkaConfig{Brokers: []string{"localhost:0"}}
	if _, err := NewProducer(cfg, log); err == nil {
		t.Fatalf("expected error creating producer")
	}
}

func TestProducer_CloseNil(t *testing.T) {
	var p *Producer
	if err := p.Close(); err != nil {
		t.Fatalf("expected nil error on nil producer")
	}
	p = &Producer{}
	if err := p.Close(); err != nil {
		t.Fatalf("expected nil error on empty producer, got %v", err)
	}
}

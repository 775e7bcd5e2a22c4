// Package feed publishes executed trades to Kafka for downstream consumers
// (surveillance, market data vendors, settlement). The engine stays I/O
// free; the publisher hangs off the event callback path with an async
// writer.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"

	"github.com/PvPrs/matching-engine/pkg/engine"
	"github.com/PvPrs/matching-engine/pkg/orderbook"
)

// TradeMessage is the wire shape of one fill.
type TradeMessage struct {
	TradeID    string          `json:"trade_id"`
	Instrument string          `json:"instrument"`
	TakerID    uint64          `json:"taker_id"`
	MakerID    uint64          `json:"maker_id"`
	TakerSide  orderbook.Side  `json:"taker_side"`
	Price      string          `json:"price"`
	Quantity   decimal.Decimal `json:"quantity"`
	Timestamp  time.Time       `json:"timestamp"`
}

type ProducerConfig struct {
	Brokers      []string
	Topic        string
	BatchSize    int
	BatchTimeout time.Duration
}

type Producer struct {
	w     *kafka.Writer
	topic string
}

func NewProducer(cfg ProducerConfig) *Producer {
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 100
	}
	if cfg.BatchTimeout == 0 {
		cfg.BatchTimeout = 50 * time.Millisecond
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.Hash{},
		BatchSize:              cfg.BatchSize,
		BatchTimeout:           cfg.BatchTimeout,
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafka.RequireNone,
		Async:                  true,
	}
	return &Producer{w: w, topic: cfg.Topic}
}

// PublishExecution emits one TradeMessage per fill in the event. Events
// without fills produce nothing.
func (p *Producer) PublishExecution(ctx context.Context, instrument string, ev engine.ExecutionEvent) error {
	if p == nil || p.w == nil {
		return errors.New("producer not initialized")
	}
	if len(ev.Fills) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, 0, len(ev.Fills))
	for _, fill := range ev.Fills {
		trade := TradeMessage{
			TradeID:    uuid.New().String(),
			Instrument: instrument,
			TakerID:    ev.Order.ID,
			MakerID:    fill.CounterID,
			TakerSide:  ev.Side,
			Price:      fill.Price.String(),
			Quantity:   fill.Quantity,
			Timestamp:  ev.Timestamp,
		}
		value, err := json.Marshal(trade)
		if err != nil {
			return err
		}
		msgs = append(msgs, kafka.Message{
			Topic: p.topic,
			Key:   []byte(instrument),
			Value: value,
			Time:  trade.Timestamp,
		})
	}
	return p.w.WriteMessages(ctx, msgs...)
}

func (p *Producer) Close() error {
	if p == nil || p.w == nil {
		return nil
	}
	return p.w.Close()
}

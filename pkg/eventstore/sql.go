package eventstore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/PvPrs/matching-engine/pkg/engine"
	"github.com/PvPrs/matching-engine/pkg/orderbook"
)

// ExecutionRow is the persisted shape of one execution event.
type ExecutionRow struct {
	EventID     string `gorm:"primaryKey;column:event_id"`
	OrderID     uint64 `gorm:"column:order_id;index"`
	PrevOrderID uint64 `gorm:"column:prev_order_id"`
	EventType   string `gorm:"column:event_type"`
	Side        string `gorm:"column:side"`
	Reason      string `gorm:"column:reason"`
	Price       string `gorm:"column:price"`
	Quantity    string `gorm:"column:quantity"`
	Filled      string `gorm:"column:filled"`
	Fills       string `gorm:"column:fills;type:text"`
	CreatedAt   time.Time
}

func (ExecutionRow) TableName() string { return "execution_events" }

func rowFromEvent(ev engine.ExecutionEvent) (*ExecutionRow, error) {
	fills, err := json.Marshal(ev.Fills)
	if err != nil {
		return nil, err
	}
	return &ExecutionRow{
		EventID:     uuid.New().String(),
		OrderID:     ev.Order.ID,
		PrevOrderID: ev.OldID,
		EventType:   string(ev.Type),
		Side:        string(ev.Side),
		Reason:      string(ev.Reason),
		Price:       ev.Order.Price.String(),
		Quantity:    ev.Order.Quantity.String(),
		Filled:      ev.Order.Filled.String(),
		Fills:       string(fills),
		CreatedAt:   ev.Timestamp,
	}, nil
}

// SQLEventStore persists execution events through gorm.
type SQLEventStore struct {
	db *gorm.DB
}

func NewSQLEventStore(db *gorm.DB) *SQLEventStore {
	return &SQLEventStore{db: db}
}

func (s *SQLEventStore) Append(ctx context.Context, ev engine.ExecutionEvent) error {
	row, err := rowFromEvent(ev)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Create(row).Error
}

// BulkAppend writes a batch of events in a single insert.
func (s *SQLEventStore) BulkAppend(ctx context.Context, evs []engine.ExecutionEvent) error {
	if len(evs) == 0 {
		return nil
	}
	rows := make([]*ExecutionRow, 0, len(evs))
	for _, ev := range evs {
		row, err := rowFromEvent(ev)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}
	return s.db.WithContext(ctx).Create(rows).Error
}

func (s *SQLEventStore) History(ctx context.Context, orderID uint64) ([]engine.ExecutionEvent, error) {
	var rows []ExecutionRow
	if err := s.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at asc").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	evs := make([]engine.ExecutionEvent, 0, len(rows))
	for _, row := range rows {
		ev, err := eventFromRow(row)
		if err != nil {
			return nil, err
		}
		evs = append(evs, ev)
	}
	return evs, nil
}

func eventFromRow(row ExecutionRow) (engine.ExecutionEvent, error) {
	ev := engine.ExecutionEvent{
		Type:      engine.EventType(row.EventType),
		Side:      orderbook.Side(row.Side),
		Reason:    engine.RejectReason(row.Reason),
		OldID:     row.PrevOrderID,
		Timestamp: row.CreatedAt,
	}
	ev.Order.ID = row.OrderID
	if price, err := decimal.NewFromString(row.Price); err == nil {
		ev.Order.Price = orderbook.NewPriceLevel(price)
	}
	if qty, err := decimal.NewFromString(row.Quantity); err == nil {
		ev.Order.Quantity = qty
	}
	if filled, err := decimal.NewFromString(row.Filled); err == nil {
		ev.Order.Filled = filled
	}
	if err := json.Unmarshal([]byte(row.Fills), &ev.Fills); err != nil {
		return engine.ExecutionEvent{}, err
	}
	return ev, nil
}

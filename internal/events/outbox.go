package events

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/flightsurety/pkg/telemetry/correlation"
	"gorm.io/gorm"
)

// Outbox persists events in the caller's transaction.
type Outbox struct {
	node *snowflake.Node
}

func NewOutbox(node *snowflake.Node) *Outbox {
	return &Outbox{node: node}
}

// Write stores pending events using tx and returns them as committed-to-be rows.
func (o *Outbox) Write(ctx context.Context, tx *gorm.DB, pending []Pending, now time.Time) ([]Event, error) {
	if len(pending) == 0 {
		return nil, nil
	}
	correlationID := correlation.ExtractCorrelationID(ctx)

	rows := make([]Event, 0, len(pending))
	for _, p := range pending {
		rows = append(rows, Event{
			ID:            o.node.Generate(),
			Name:          p.Name,
			Payload:       p.Payload,
			CorrelationID: correlationID,
			OccurredAt:    now,
		})
	}
	if err := tx.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// List returns events ordered by sequence.
func (o *Outbox) List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*Event, error) {
	query := db.WithContext(ctx).Model(&Event{}).Order("seq ASC")
	if filter.Name != "" {
		query = query.Where("name = ?", filter.Name)
	}
	if filter.AfterSeq > 0 {
		query = query.Where("seq > ?", filter.AfterSeq)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var items []*Event
	if err := query.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

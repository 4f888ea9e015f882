package service

import (
	"context"

	"github.com/smallbiznis/flightsurety/internal/events"
	"github.com/smallbiznis/flightsurety/internal/ledger/domain"
	"github.com/smallbiznis/flightsurety/pkg/db/pagination"
)

// ListEvents pages through committed events in sequence order.
func (s *Service) ListEvents(ctx context.Context, req domain.ListEventsRequest) (domain.ListEventsResponse, error) {
	cursor, err := pagination.DecodeCursor(req.PageToken)
	if err != nil {
		return domain.ListEventsResponse{}, domain.ErrInvalidPageToken
	}

	limit := req.Limit()
	items, err := s.outbox.List(ctx, s.db, events.ListFilter{
		Name:     events.Name(req.Name),
		AfterSeq: cursor.Sequence,
		Limit:    limit + 1,
	})
	if err != nil {
		return domain.ListEventsResponse{}, err
	}

	items, pageInfo := pagination.BuildCursorPageInfo(items, limit, func(e *events.Event) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{Sequence: e.Seq})
		if err != nil {
			return ""
		}
		return token
	})

	out := make([]events.Event, 0, len(items))
	for _, item := range items {
		out = append(out, *item)
	}
	return domain.ListEventsResponse{
		PageInfo: *pageInfo,
		Events:   out,
	}, nil
}

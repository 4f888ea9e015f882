package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/smallbiznis/flightsurety/internal/events"
	ledgerdomain "github.com/smallbiznis/flightsurety/internal/ledger/domain"
	"github.com/smallbiznis/flightsurety/internal/observability/logger"
	"github.com/smallbiznis/flightsurety/pkg/db/pagination"
	"go.uber.org/zap"
)

const (
	streamHeartbeat = 15 * time.Second
	wsWriteWait     = 10 * time.Second
	wsPongWait      = 60 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type listEventsQuery struct {
	PageToken string `form:"page_token"`
	PageSize  int    `form:"page_size"`
	Name      string `form:"name"`
}

func (s *Server) ListEvents(c *gin.Context) {
	var query listEventsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	name := strings.TrimSpace(query.Name)
	if name != "" && !events.Name(name).Known() {
		AbortWithError(c, newValidationError("name", "invalid_name", "name is not a known event name"))
		return
	}

	resp, err := s.store.ListEvents(c.Request.Context(), ledgerdomain.ListEventsRequest{
		Pagination: pagination.Pagination{
			PageToken: strings.TrimSpace(query.PageToken),
			PageSize:  query.PageSize,
		},
		Name: name,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.Events, "page_info": resp.PageInfo})
}

func (s *Server) subscribe(c *gin.Context) (*events.Subscription, []events.Event, error) {
	subscription, backlog, err := s.hub.Subscribe(strings.TrimSpace(c.Query("name")))
	switch {
	case errors.Is(err, events.ErrUnknownTopic):
		return nil, nil, newValidationError("name", "invalid_name", "name is not a known event name")
	case err != nil:
		return nil, nil, ErrServiceUnavailable
	}
	return subscription, backlog, nil
}

// StreamEventsWS pushes committed events over a websocket. ?name= narrows the
// stream to one event name; recent events are replayed first.
func (s *Server) StreamEventsWS(c *gin.Context) {
	subscription, backlog, err := s.subscribe(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	defer subscription.Close()

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	log := logger.FromContext(c.Request.Context())
	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(wsPongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	write := func(event events.Event) error {
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		return conn.WriteJSON(event)
	}

	for _, event := range backlog {
		if err := write(event); err != nil {
			return
		}
	}

	ping := time.NewTicker(streamHeartbeat)
	defer ping.Stop()

	for {
		select {
		case <-done:
			return
		case event := <-subscription.Events():
			if err := write(event); err != nil {
				log.Debug("event stream write failed", zap.Error(err))
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		}
	}
}

// StreamEventsSSE is the server-sent events variant of StreamEventsWS.
func (s *Server) StreamEventsSSE(c *gin.Context) {
	subscription, backlog, err := s.subscribe(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	defer subscription.Close()

	writer := c.Writer
	headers := writer.Header()
	headers.Set("Content-Type", "text/event-stream")
	headers.Set("Cache-Control", "no-cache")
	headers.Set("Connection", "keep-alive")
	headers.Set("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	flusher, ok := writer.(http.Flusher)
	if !ok {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}

	if _, err := io.WriteString(writer, "retry: 2000\n\n"); err != nil {
		return
	}

	for _, event := range backlog {
		if err := writeServerSentEvent(writer, event); err != nil {
			return
		}
	}
	flusher.Flush()

	ctx := c.Request.Context()
	heartbeat := time.NewTicker(streamHeartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case event := <-subscription.Events():
			if err := writeServerSentEvent(writer, event); err != nil {
				return
			}
			flusher.Flush()
		case <-heartbeat.C:
			if _, err := io.WriteString(writer, ": heartbeat\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeServerSentEvent(w io.Writer, event events.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", event.Seq, event.Name, data)
	return err
}

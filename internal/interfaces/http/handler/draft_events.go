package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	printingapp "github.com/erp/workstation/internal/application/printing"
	"github.com/erp/workstation/internal/domain/printing"
	"github.com/erp/workstation/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SSEClient is a connected draft event subscriber
type SSEClient struct {
	ID        string
	UserID    string
	DatasetID string
	Source    string
	Chan      chan SSEMessage
	Done      chan struct{}
}

// SSEMessage is a message written to SSE clients
type SSEMessage struct {
	Event string `json:"event"`
	Data  string `json:"data"`
	ID    string `json:"id,omitempty"`
}

// ErrEventsHandlerStarted is returned when Start is called twice
var ErrEventsHandlerStarted = errors.New("draft events handler already started")

// DraftEventsHandler streams print draft changes made in other browsing
// contexts as Server-Sent Events
type DraftEventsHandler struct {
	BaseHandler
	printService *printingapp.PrintService
	logger       *zap.Logger
	clients      sync.Map // map[string]*SSEClient
	ctx          context.Context
	cancel       context.CancelFunc
	heartbeat    time.Duration
	maxClients   int
	started      bool
	startMu      sync.Mutex
	stopOnce     sync.Once
}

// DraftEventsOption configures a DraftEventsHandler
type DraftEventsOption func(*DraftEventsHandler)

// WithSSELogger sets the logger for the handler
func WithSSELogger(logger *zap.Logger) DraftEventsOption {
	return func(h *DraftEventsHandler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithSSEHeartbeat sets the heartbeat interval
func WithSSEHeartbeat(interval time.Duration) DraftEventsOption {
	return func(h *DraftEventsHandler) {
		if interval > 0 {
			h.heartbeat = interval
		}
	}
}

// WithSSEMaxClients sets the maximum number of concurrent clients, 0 for no limit
func WithSSEMaxClients(max int) DraftEventsOption {
	return func(h *DraftEventsHandler) {
		h.maxClients = max
	}
}

// NewDraftEventsHandler creates a new DraftEventsHandler
func NewDraftEventsHandler(printService *printingapp.PrintService, opts ...DraftEventsOption) *DraftEventsHandler {
	ctx, cancel := context.WithCancel(context.Background())
	h := &DraftEventsHandler{
		printService: printService,
		logger:       zap.NewNop(),
		ctx:          ctx,
		cancel:       cancel,
		heartbeat:    30 * time.Second,
		maxClients:   1000,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Start begins sending heartbeats to connected clients
func (h *DraftEventsHandler) Start() error {
	h.startMu.Lock()
	defer h.startMu.Unlock()

	if h.started {
		return ErrEventsHandlerStarted
	}
	go h.sendHeartbeats()
	h.started = true
	h.logger.Info("Draft events handler started", zap.Duration("heartbeat", h.heartbeat))
	return nil
}

// Stop disconnects every client
func (h *DraftEventsHandler) Stop() {
	h.stopOnce.Do(func() {
		h.cancel()
		h.clients.Range(func(_, value any) bool {
			if client, ok := value.(*SSEClient); ok {
				close(client.Done)
			}
			return true
		})
		h.logger.Info("Draft events handler stopped")
	})
}

// broadcast queues a message for every client
func (h *DraftEventsHandler) broadcast(msg SSEMessage) {
	h.clients.Range(func(_, value any) bool {
		client, ok := value.(*SSEClient)
		if !ok {
			return true
		}
		select {
		case client.Chan <- msg:
		default:
			h.logger.Warn("Client channel full, dropping message",
				zap.String("client_id", client.ID),
				zap.String("event", msg.Event))
		}
		return true
	})
}

func (h *DraftEventsHandler) sendHeartbeats() {
	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			return
		case <-ticker.C:
			h.broadcast(SSEMessage{
				Event: "heartbeat",
				Data:  fmt.Sprintf(`{"timestamp":%d}`, time.Now().Unix()),
			})
		}
	}
}

// Stream godoc
//
//	@Summary		Subscribe to print draft changes
//	@Description	Streams draft_saved and draft_deleted events for changes made by other browsing contexts. EventSource clients may authenticate with the access_token query parameter.
//	@Tags			print-drafts
//	@Produce		text/event-stream
//	@Param			dataset	path		string	true	"Dataset identifier"
//	@Success		200		{string}	string	"SSE stream"
//	@Failure		400		{object}	ErrorResponse
//	@Failure		503		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/print/drafts/{dataset}/events [get]
func (h *DraftEventsHandler) Stream(c *gin.Context) {
	if h.maxClients > 0 && h.GetClientCount() >= h.maxClients {
		c.JSON(http.StatusServiceUnavailable, dto.NewRetryableErrorResponse(
			dto.ErrCodeServiceUnavailable, "Maximum number of event streams reached", getRequestID(c)))
		return
	}

	reqCtx := c.Request.Context()
	watchCtx, cancel := context.WithCancel(reqCtx)
	defer cancel()

	datasetID := c.Param("dataset")
	changes, err := h.printService.WatchDraft(watchCtx, datasetID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	const sseMessageBufferSize = 16
	client := &SSEClient{
		ID:        uuid.NewString(),
		UserID:    getUserID(c),
		DatasetID: datasetID,
		Source:    printing.DraftSource(reqCtx),
		Chan:      make(chan SSEMessage, sseMessageBufferSize),
		Done:      make(chan struct{}),
	}
	h.clients.Store(client.ID, client)
	defer h.clients.Delete(client.ID)

	log := h.logger.With(
		zap.String("client_id", client.ID),
		zap.String("user_id", client.UserID),
		zap.String("dataset_id", datasetID))
	log.Info("Draft event client connected")

	h.sendEvent(c.Writer, SSEMessage{
		Event: "connected",
		Data:  fmt.Sprintf(`{"client_id":%q,"dataset_id":%q,"timestamp":%d}`, client.ID, datasetID, time.Now().Unix()),
	})
	c.Writer.Flush()

	for {
		select {
		case <-reqCtx.Done():
			log.Info("Draft event client disconnected")
			return
		case <-client.Done:
			return
		case <-h.ctx.Done():
			return
		case change, ok := <-changes:
			if !ok {
				return
			}
			msg, send := h.changeToMessage(client, change)
			if !send {
				continue
			}
			h.sendEvent(c.Writer, msg)
			c.Writer.Flush()
		case msg := <-client.Chan:
			h.sendEvent(c.Writer, msg)
			c.Writer.Flush()
		}
	}
}

// changeToMessage converts a draft change to an event. Changes made by the
// client's own browsing context are not echoed back.
func (h *DraftEventsHandler) changeToMessage(client *SSEClient, change printing.DraftChange) (SSEMessage, bool) {
	if client.Source != "" && change.Source == client.Source {
		return SSEMessage{}, false
	}
	data, err := json.Marshal(change)
	if err != nil {
		h.logger.Error("Failed to marshal draft change", zap.Error(err))
		return SSEMessage{}, false
	}
	return SSEMessage{
		Event: "draft_" + string(change.Type),
		Data:  string(data),
		ID:    strconv.FormatInt(change.Timestamp.UnixMilli(), 10),
	}, true
}

// sendEvent writes an SSE event to the response writer
func (h *DraftEventsHandler) sendEvent(w io.Writer, msg SSEMessage) {
	if msg.Event != "" {
		fmt.Fprintf(w, "event: %s\n", msg.Event)
	}
	if msg.ID != "" {
		fmt.Fprintf(w, "id: %s\n", msg.ID)
	}
	fmt.Fprintf(w, "data: %s\n\n", msg.Data)
}

// GetClientCount returns the number of connected clients
func (h *DraftEventsHandler) GetClientCount() int {
	count := 0
	h.clients.Range(func(_, _ any) bool {
		count++
		return true
	})
	return count
}

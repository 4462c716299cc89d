package ws

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/termhub/internal/infrastructure/logging"
	"github.com/GriffinCanCode/termhub/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/termhub/internal/providers/terminal"
	"github.com/GriffinCanCode/termhub/internal/shared/id"
	"github.com/GriffinCanCode/termhub/internal/shared/utils"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 1 << 20
)

// codec validates strings on output, so pty bytes that are not UTF-8 reach
// the client as U+FFFD instead of breaking the frame.
var codec = sonic.ConfigStd

// Terminals is the part of the session manager the bridge drives.
type Terminals interface {
	Init(id, cwd string) bool
	Write(id string, data []byte)
	Resize(id string, cols, rows int)
	Kill(id string) bool
	Subscribe(ids ...string) *terminal.Subscription
}

// ClientMessage is a command frame sent by a display.
type ClientMessage struct {
	Type string `json:"type"`
	ID   string `json:"id,omitempty"`
	Cwd  string `json:"cwd,omitempty"`
	Data string `json:"data,omitempty"`
	Cols int    `json:"cols,omitempty"`
	Rows int    `json:"rows,omitempty"`
}

// ServerMessage is an event or reply frame sent to a display.
type ServerMessage struct {
	Type    string `json:"type"`
	ID      string `json:"id,omitempty"`
	Data    string `json:"data,omitempty"`
	Code    *int   `json:"code,omitempty"`
	Op      string `json:"op,omitempty"`
	OK      *bool  `json:"ok,omitempty"`
	Message string `json:"message,omitempty"`
	ConnID  string `json:"conn_id,omitempty"`
}

// Handler manages WebSocket connections
type Handler struct {
	terminals Terminals
	logger    *logging.Logger
	metrics   *monitoring.Metrics
	upgrader  websocket.Upgrader
}

// NewHandler creates a new WebSocket handler. origins lists the allowed
// Origin header values; "*" or an empty list allows any.
func NewHandler(terminals Terminals, logger *logging.Logger, metrics *monitoring.Metrics, origins []string) *Handler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Handler{
		terminals: terminals,
		logger:    logger.Named("ws"),
		metrics:   metrics,
		upgrader: websocket.Upgrader{
			CheckOrigin: originChecker(origins),
		},
	}
}

func originChecker(origins []string) func(r *http.Request) bool {
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		allowed[strings.TrimRight(o, "/")] = struct{}{}
	}
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := allowed[origin]
		return ok
	}
}

// client serializes writes to one connection.
type client struct {
	conn    *websocket.Conn
	id      string
	mu      sync.Mutex
	metrics *monitoring.Metrics
}

func (c *client) send(msg ServerMessage) error {
	payload, err := codec.Marshal(msg)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return err
	}
	if c.metrics != nil {
		c.metrics.RecordWSMessage("out", msg.Type)
	}
	return nil
}

func (c *client) sendError(message string) error {
	return c.send(ServerMessage{Type: "error", Message: message})
}

func (c *client) sendResult(op, id string, ok bool) error {
	return c.send(ServerMessage{Type: "result", Op: op, ID: id, OK: &ok})
}

// HandleConnection handles WebSocket upgrade and messages. The optional ids
// query parameter (comma separated) limits the events forwarded to this
// connection.
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxMessageSize)

	cl := &client{conn: conn, id: id.NewConnID().String(), metrics: h.metrics}
	logger := h.logger.With(zap.String("conn_id", cl.id))

	if h.metrics != nil {
		h.metrics.IncWSConnections()
		defer h.metrics.DecWSConnections()
	}

	// Subscribe before greeting so no event is missed; forwarding starts
	// after the greeting so it is always the first frame.
	sub := h.terminals.Subscribe(parseIDs(c.Query("ids"))...)
	if err := cl.send(ServerMessage{Type: "system", Message: "Connected to termhub", ConnID: cl.id}); err != nil {
		sub.Close()
		return
	}

	forwarded := make(chan struct{})
	go func() {
		defer close(forwarded)
		h.forward(cl, sub, logger)
	}()
	defer func() {
		sub.Close()
		<-forwarded
	}()
	logger.Info("Client connected", zap.String("remote", c.ClientIP()))

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn("WebSocket read error", zap.Error(err))
			}
			break
		}

		var msg ClientMessage
		if err := codec.Unmarshal(payload, &msg); err != nil {
			_ = cl.sendError("invalid message")
			continue
		}
		if h.metrics != nil {
			h.metrics.RecordWSMessage("in", msg.Type)
		}

		if err := h.dispatch(cl, msg); err != nil {
			logger.Debug("WebSocket write failed", zap.Error(err))
			break
		}
	}

	logger.Info("Client disconnected")
}

// dispatch runs one client command. Commands from a connection are handled
// in arrival order.
func (h *Handler) dispatch(cl *client, msg ClientMessage) error {
	switch msg.Type {
	case "ping":
		return cl.send(ServerMessage{Type: "pong"})
	case "init", "write", "resize", "kill":
	default:
		return cl.sendError("unknown message type")
	}

	if err := utils.ValidateSessionID(msg.ID); err != nil {
		return cl.sendError(err.Error())
	}

	switch msg.Type {
	case "init":
		if err := utils.ValidateWorkingDir(msg.Cwd); err != nil {
			return cl.sendError(err.Error())
		}
		return cl.sendResult(msg.Type, msg.ID, h.terminals.Init(msg.ID, msg.Cwd))
	case "write":
		if err := utils.ValidateWrite(msg.Data); err != nil {
			return cl.sendError(err.Error())
		}
		h.terminals.Write(msg.ID, []byte(msg.Data))
		return nil
	case "resize":
		if err := utils.ValidateGeometry(msg.Cols, msg.Rows); err != nil {
			return cl.sendError(err.Error())
		}
		h.terminals.Resize(msg.ID, msg.Cols, msg.Rows)
		return nil
	default:
		return cl.sendResult(msg.Type, msg.ID, h.terminals.Kill(msg.ID))
	}
}

// forward relays session events until the subscription is closed.
func (h *Handler) forward(cl *client, sub *terminal.Subscription, logger *logging.Logger) {
	for ev := range sub.C {
		var msg ServerMessage
		switch ev.Type {
		case terminal.EventData:
			msg = ServerMessage{Type: "data", ID: ev.SessionID, Data: string(ev.Data)}
		case terminal.EventExit:
			code := ev.ExitCode
			msg = ServerMessage{Type: "exit", ID: ev.SessionID, Code: &code}
		default:
			continue
		}
		if err := cl.send(msg); err != nil {
			logger.Debug("Dropping events for closed connection", zap.Error(err))
			sub.Close()
			return
		}
	}

	if sub.Dropped() {
		logger.Warn("Client fell behind, closing connection")
		_ = cl.sendError("event stream overflow")
		cl.mu.Lock()
		_ = cl.conn.Close()
		cl.mu.Unlock()
	}
}

func parseIDs(raw string) []string {
	if raw == "" {
		return nil
	}
	var ids []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			ids = append(ids, part)
		}
	}
	return ids
}

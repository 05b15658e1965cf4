package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"restaurant/internal/adapters/out/broadcast"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

type ViewersResponse struct {
	Active      int                        `json:"active"`
	Connections []broadcast.ConnectionInfo `json:"connections"`
}

// ListViewers handles GET /api/v1/viewers.
func (s *Server) ListViewers(c echo.Context) error {
	return c.JSON(http.StatusOK, ViewersResponse{
		Active:      s.hub.ActiveCount(),
		Connections: s.hub.Connections(),
	})
}

// StreamOrders handles GET /api/v1/stream/orders as a server-sent event stream. The
// request stays open until the client leaves or the hub drops the viewer.
func (s *Server) StreamOrders(c echo.Context) error {
	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.Header().Set("X-Accel-Buffering", "no")

	ctx := c.Request().Context()
	viewer := newSSEViewer(res)
	conn, err := s.hub.Subscribe(ctx, viewer)
	if err != nil {
		if res.Committed {
			return nil
		}
		return s.fail(c, err)
	}

	select {
	case <-ctx.Done():
	case <-viewer.done:
	}

	s.hub.Unsubscribe(conn)
	viewer.finish()
	return nil
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(*http.Request) bool {
		return true
	},
}

// WatchOrders handles GET /api/v1/ws/orders. Inbound messages and pongs count as viewer
// activity; their content is ignored.
func (s *Server) WatchOrders(c echo.Context) error {
	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return nil
	}

	viewer := &wsViewer{conn: ws}
	conn, err := s.hub.Subscribe(c.Request().Context(), viewer)
	if err != nil {
		s.logger.WithError(err).Warn("websocket viewer rejected")
		_ = ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "viewer rejected"),
			time.Now().Add(time.Second))
		_ = viewer.Close()
		return nil
	}

	ws.SetPongHandler(func(string) error {
		s.hub.Touch(conn)
		return nil
	})

	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
		s.hub.Touch(conn)
	}

	s.hub.Unsubscribe(conn)
	return nil
}

// sseViewer writes events in text/event-stream framing. Writes are bounded by the
// deadline of their context when the underlying connection supports write deadlines.
type sseViewer struct {
	mu     sync.Mutex
	res    *echo.Response
	rc     *http.ResponseController
	closed bool

	done      chan struct{}
	closeOnce sync.Once
}

func newSSEViewer(res *echo.Response) *sseViewer {
	return &sseViewer{
		res:  res,
		rc:   http.NewResponseController(res),
		done: make(chan struct{}),
	}
}

func (v *sseViewer) Send(ctx context.Context, event broadcast.Event) error {
	return v.write(ctx, func() error {
		_, err := fmt.Fprintf(v.res, "event: %s\ndata: %s\n\n", event.Name, event.Data)
		return err
	})
}

func (v *sseViewer) Ping(ctx context.Context) error {
	return v.write(ctx, func() error {
		_, err := fmt.Fprint(v.res, ": ping\n\n")
		return err
	})
}

// Close tells the handler to end the stream.
func (v *sseViewer) Close() error {
	v.closeOnce.Do(func() {
		close(v.done)
	})
	return nil
}

// finish waits for an in-flight write and refuses any later one. The response must not be
// touched once the handler has returned.
func (v *sseViewer) finish() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.closed = true
}

func (v *sseViewer) write(ctx context.Context, write func() error) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return broadcast.ErrConnectionIsClosed
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = v.rc.SetWriteDeadline(deadline)
	}
	if err := write(); err != nil {
		return err
	}
	return v.rc.Flush()
}

type wsFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// wsViewer sends events as JSON text frames. The hub serializes Send and Ping per
// connection, which is the single writer gorilla/websocket requires.
type wsViewer struct {
	conn      *websocket.Conn
	closeOnce sync.Once
}

func (v *wsViewer) Send(ctx context.Context, event broadcast.Event) error {
	if deadline, ok := ctx.Deadline(); ok {
		if err := v.conn.SetWriteDeadline(deadline); err != nil {
			return err
		}
	}
	return v.conn.WriteJSON(wsFrame{Event: event.Name, Data: event.Data})
}

func (v *wsViewer) Ping(ctx context.Context) error {
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(5 * time.Second)
	}
	return v.conn.WriteControl(websocket.PingMessage, nil, deadline)
}

func (v *wsViewer) Close() error {
	var err error
	v.closeOnce.Do(func() {
		err = v.conn.Close()
	})
	return err
}

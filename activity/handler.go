package activity

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// writeTimeout bounds a single frame write. Fan-out holds the
// broadcaster lock, so a stalled client must fail its write rather
// than block every publisher.
const writeTimeout = 5 * time.Second

// Handler serves the SSE subscription endpoint on top of a Broadcaster.
type Handler struct {
	broadcaster *Broadcaster
}

// NewHandler ties the stream endpoint to the given broadcaster.
func NewHandler(b *Broadcaster) *Handler {
	return &Handler{broadcaster: b}
}

// Stream handles GET /api/activity-stream. It registers the connection
// as a subscriber and blocks until the client disconnects or the
// broadcaster shuts down; published events are written by the
// broadcaster from the publishing goroutines.
func (h *Handler) Stream(c echo.Context) error {
	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.WriteHeader(http.StatusOK)

	ctx := c.Request().Context()
	stream := &echoStream{
		res: res,
		rc:  http.NewResponseController(res.Writer),
		ctx: ctx,
	}
	id, gone, err := h.broadcaster.Subscribe(stream)
	if err != nil {
		return err
	}
	defer h.broadcaster.Unsubscribe(id)

	select {
	case <-ctx.Done():
	case <-gone:
	}
	return nil
}

// echoStream adapts an echo response to the Stream interface. Closed is
// derived from the request context, which the server cancels when the
// client connection drops.
type echoStream struct {
	res *echo.Response
	rc  *http.ResponseController
	ctx context.Context
}

func (s *echoStream) Write(p []byte) (int, error) {
	if s.ctx.Err() != nil {
		return 0, s.ctx.Err()
	}
	// Transports without deadline support (test recorders) are served
	// without one.
	_ = s.rc.SetWriteDeadline(time.Now().Add(writeTimeout))
	return s.res.Write(p)
}

func (s *echoStream) Flush() {
	s.res.Flush()
}

func (s *echoStream) Closed() bool {
	return s.ctx.Err() != nil
}

package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/J-Mash24/worldz1/internal/domain/models"
	"github.com/J-Mash24/worldz1/internal/usecase"
	xlogger "github.com/J-Mash24/worldz1/pkg/logger"
)

// liveStreamer pushes growth estimates over a WebSocket connection. Each
// connection gets its own session anchored at upgrade time; the estimate is
// recomputed from (session, now) on every tick.
type liveStreamer struct {
	logger   *xlogger.Logger
	ticker   *usecase.GrowthTicker
	upgrader websocket.Upgrader
	interval time.Duration
}

const defaultStreamInterval = 5 * time.Second

func newLiveStreamer(logger *xlogger.Logger, ticker *usecase.GrowthTicker, interval time.Duration) *liveStreamer {
	if interval <= 0 {
		interval = defaultStreamInterval
	}
	return &liveStreamer{
		logger: logger,
		ticker: ticker,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The dashboard frontend is served from another origin.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		interval: interval,
	}
}

func (s *liveStreamer) Serve(c echo.Context, group models.Group) error {
	conn, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	ctx := c.Request().Context()
	sess, err := s.ticker.StartSession(ctx, group, time.Now())
	if err != nil {
		s.logger.Error("live session start error", xlogger.Error(err))
		return nil
	}

	// Drain client frames so pings and close frames are handled.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// First estimate immediately, then on the interval.
	if err := conn.WriteJSON(s.ticker.Estimate(sess, time.Now())); err != nil {
		return nil
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := conn.WriteJSON(s.ticker.Estimate(sess, time.Now())); err != nil {
				return nil
			}
		}
	}
}

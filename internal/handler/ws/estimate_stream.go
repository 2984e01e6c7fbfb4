package ws

import (
	"encoding/json"
	"net/http"
	"time"

	"CostCast/internal/domain/models"
	"CostCast/internal/handler/api"
	"CostCast/internal/service/metrics"
	"CostCast/internal/service/ratelimit"
	xhttp "CostCast/pkg/http"
	"CostCast/pkg/http/middleware"
	xlogger "CostCast/pkg/logger"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const (
	streamEndpoint = metrics.Endpoint("stream")

	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingInterval   = (pongWait * 9) / 10
	maxMessageSize = 8 << 10
)

// StreamRequest is one estimate frame sent by the client.
type StreamRequest struct {
	RequestID string `json:"request_id"`
	models.EstimateQuery
}

// StreamReply answers one StreamRequest.
type StreamReply struct {
	RequestID string                     `json:"request_id"`
	Points    []models.ProductValuePoint `json:"points,omitempty"`
	Error     []*xhttp.AppError          `json:"error,omitempty"`
}

// EstimateStreamHandler answers estimate requests over a WebSocket.
type EstimateStreamHandler struct {
	logger   *xlogger.Logger
	uc       api.Estimator
	rl       *ratelimit.Limiter
	rate     api.RateLimit
	upgrader websocket.Upgrader
}

func NewEstimateStreamHandler(logger *xlogger.Logger, uc api.Estimator, rl *ratelimit.Limiter, rate api.RateLimit) *EstimateStreamHandler {
	if logger == nil {
		logger = xlogger.NewNop()
	}
	if rl == nil {
		rl = ratelimit.New()
	}
	return &EstimateStreamHandler{
		logger: logger,
		uc:     uc,
		rl:     rl,
		rate:   rate,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

func (h *EstimateStreamHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws/estimate", h.Stream)
}

// Stream upgrades the connection and serves frames until the client leaves.
// Frames are answered in order, one at a time.
func (h *EstimateStreamHandler) Stream(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		h.logger.Warn("websocket upgrade failed", xlogger.Error(err))
		return nil
	}
	defer conn.Close()

	connID := middleware.GetRequestID(c)
	clientIP := c.RealIP()
	ctx := c.Request().Context()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	done := make(chan struct{})
	defer close(done)
	go h.pingLoop(conn, done)

	h.logger.Info("estimate stream opened", xlogger.String("conn_id", connID), xlogger.String("ip", clientIP))
	served := 0
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("estimate stream read error", xlogger.String("conn_id", connID), xlogger.Error(err))
			}
			break
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))

		reply := h.handleFrame(c, clientIP, msg)
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(reply); err != nil {
			h.logger.Warn("estimate stream write error", xlogger.String("conn_id", connID), xlogger.Error(err))
			break
		}
		served++
		if ctx.Err() != nil {
			break
		}
	}
	h.logger.Info("estimate stream closed", xlogger.String("conn_id", connID), xlogger.Int("served", served))
	return nil
}

func (h *EstimateStreamHandler) handleFrame(c echo.Context, clientIP string, msg []byte) StreamReply {
	var req StreamRequest
	if err := json.Unmarshal(msg, &req); err != nil {
		streamEndpoint.Failed("ERR_DECODE")
		return StreamReply{Error: []*xhttp.AppError{xhttp.BadRequestError("ERR_DECODE", "frame is not a JSON estimate request")}}
	}
	if req.RequestID == "" {
		req.RequestID = uuid.New().String()
	}
	reply := StreamReply{RequestID: req.RequestID}

	if !h.rl.Allow(clientIP, h.rate.Capacity, h.rate.RefillPerSec) {
		streamEndpoint.Limited()
		reply.Error = []*xhttp.AppError{xhttp.TooManyRequestsError("Too many requests, slow down")}
		return reply
	}
	start := time.Now()
	defer streamEndpoint.Since(start)

	if appErrs := xhttp.Validate(c.Request().Context(), &req.EstimateQuery); appErrs != nil {
		streamEndpoint.Failed(appErrs[0].Code)
		reply.Error = appErrs
		return reply
	}

	points, err := h.uc.Estimate(c.Request().Context(), req.EstimateQuery.ToEstimateRequest(req.RequestID))
	if err != nil {
		appErr := api.ToAppError(err)
		streamEndpoint.Failed(appErr.Code)
		if appErr.Status >= http.StatusInternalServerError {
			h.logger.Error("stream usecase error", xlogger.String("request_id", req.RequestID), xlogger.Error(err))
		}
		reply.Error = []*xhttp.AppError{appErr}
		return reply
	}
	reply.Points = points
	return reply
}

func (h *EstimateStreamHandler) pingLoop(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

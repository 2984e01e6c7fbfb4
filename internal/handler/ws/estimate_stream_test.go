package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"CostCast/internal/domain/models"
	"CostCast/internal/handler/api"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

type fakeEstimator struct{}

func (fakeEstimator) Estimate(_ context.Context, req models.EstimateRequest) ([]models.ProductValuePoint, error) {
	st, ok := req.Materials[models.MaterialST37]
	if !ok || !st.Requested() {
		return nil, models.NewValidationError("", "at least one material must be supplied")
	}
	return []models.ProductValuePoint{{DS: "2023-03", TotalProductValue: *st.Quantity * 2}}, nil
}

func dial(t *testing.T, rate api.RateLimit) *websocket.Conn {
	t.Helper()
	e := echo.New()
	NewEstimateStreamHandler(nil, fakeEstimator{}, nil, rate).RegisterRoutes(e)
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/estimate"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func roundTrip(t *testing.T, conn *websocket.Conn, frame string) map[string]json.RawMessage {
	t.Helper()
	if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
		t.Fatalf("write: %v", err)
	}
	var reply map[string]json.RawMessage
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatalf("read: %v", err)
	}
	return reply
}

func TestStreamAnswersEachFrame(t *testing.T) {
	conn := dial(t, api.RateLimit{})

	reply := roundTrip(t, conn, `{"request_id":"a1","st37":10,"months":1}`)
	if string(reply["request_id"]) != `"a1"` {
		t.Fatalf("request id = %s", reply["request_id"])
	}
	var pts []models.ProductValuePoint
	if err := json.Unmarshal(reply["points"], &pts); err != nil || len(pts) != 1 || pts[0].TotalProductValue != 20 {
		t.Fatalf("points = %s (%v)", reply["points"], err)
	}

	reply = roundTrip(t, conn, `{"copper":1}`)
	if _, ok := reply["error"]; !ok {
		t.Fatalf("expected error reply, got %v", reply)
	}
	if len(reply["request_id"]) < 3 {
		t.Fatalf("missing generated request id")
	}
}

func TestStreamRejectsBadFrames(t *testing.T) {
	conn := dial(t, api.RateLimit{})

	reply := roundTrip(t, conn, `not json`)
	if !strings.Contains(string(reply["error"]), "ERR_DECODE") {
		t.Fatalf("reply = %v", reply)
	}

	reply = roundTrip(t, conn, `{"st37":-1}`)
	if !strings.Contains(string(reply["error"]), "ERR_GT") {
		t.Fatalf("reply = %v", reply)
	}
}

func TestStreamRateLimitsFrames(t *testing.T) {
	conn := dial(t, api.RateLimit{Capacity: 1, RefillPerSec: 0.001})

	if reply := roundTrip(t, conn, `{"st37":1}`); reply["points"] == nil {
		t.Fatalf("first frame rejected: %v", reply)
	}
	if reply := roundTrip(t, conn, `{"st37":1}`); !strings.Contains(string(reply["error"]), "ERR_RATE_LIMITED") {
		t.Fatalf("second frame not limited: %v", reply)
	}
}

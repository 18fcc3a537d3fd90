package interfaces

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"velocraft/internal/pkg/logger"
	"velocraft/internal/service/configurator/application"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

// PreviewRequest 是客户端每次修改选择后发送的消息
type PreviewRequest struct {
	Selections []application.SelectionDTO `json:"selections"`
}

// PreviewHandler 通过 WebSocket 为展示层提供实时预览：每收到一组选择就回一份快照。
type PreviewHandler struct {
	configs  *application.ConfigurationService
	upgrader websocket.Upgrader
}

func NewPreviewHandler(configs *application.ConfigurationService) *PreviewHandler {
	return &PreviewHandler{
		configs: configs,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool { // 简化处理，允许所有跨域
				return true
			},
		},
	}
}

func (h *PreviewHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /ws/configure", h.serveWs)
}

func (h *PreviewHandler) serveWs(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	productID := r.URL.Query().Get("product_id")
	if productID == "" {
		http.Error(w, "product_id is required", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Ctx(ctx).Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error { return conn.SetReadDeadline(time.Now().Add(pongWait)) })

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(pingPeriod)
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
	}()

	for {
		var req PreviewRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Ctx(ctx).Warn().Err(err).Str("product_id", productID).Msg("websocket closed unexpectedly")
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))

		var msg any
		preview, err := h.configs.PreviewConfiguration(ctx, productID, application.ToSelections(req.Selections))
		if err != nil {
			// 出错时保持连接，客户端下一次修改选择时会重新请求
			msg = application.ErrorResponse{Error: err.Error()}
		} else {
			msg = application.NewPreviewResponse(preview)
		}

		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(msg); err != nil {
			logger.Ctx(ctx).Warn().Err(err).Str("product_id", productID).Msg("websocket write failed")
			return
		}
	}
}

package live

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	callhandler "github.com/zhouzirui/z-guardian/backend/internal/handler/call"
	model "github.com/zhouzirui/z-guardian/backend/internal/model/call"
	callService "github.com/zhouzirui/z-guardian/backend/internal/service/call"
	"github.com/zhouzirui/z-guardian/backend/pkg/utils"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

// WebSocketHandler 通话WebSocket处理器，同一连接上收发控制消息和会话事件
type WebSocketHandler struct {
	calls    *callService.Manager
	hub      *callService.Hub
	upgrader websocket.Upgrader
	logger   zerolog.Logger
}

// NewWebSocketHandler 创建WebSocket处理器
func NewWebSocketHandler(calls *callService.Manager, hub *callService.Hub, logger zerolog.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		calls: calls,
		hub:   hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger: logger.With().Str("component", "websocket").Logger(),
	}
}

// RegisterWebSocketRoutes 注册WebSocket路由
func (h *WebSocketHandler) RegisterWebSocketRoutes(r chi.Router) {
	r.Get("/ws/calls/{callID}", h.handleWebSocket)
}

type inboundMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// TextMessage 携带用户文本，缺省时发送暂存草稿
type TextMessage struct {
	Text *string `json:"text"`
}

// DraftMessage 暂存输入框文本
type DraftMessage struct {
	Text string `json:"text"`
}

// ToggleMessage 指定要切换的控制项
type ToggleMessage struct {
	Control string `json:"control"`
}

// CodeWordMessage 暂存并保存新的暗号
type CodeWordMessage struct {
	CodeWord string `json:"codeWord"`
}

type outgoingMessage struct {
	Type      string      `json:"type"`
	Request   string      `json:"request,omitempty"`
	SessionID string      `json:"sessionId,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// conn 串行化写操作，gorilla 只允许一个并发写者
type conn struct {
	ws *websocket.Conn
	mu sync.Mutex
}

func (c *conn) writeJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteJSON(v)
}

// handleWebSocket 处理WebSocket连接
func (h *WebSocketHandler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	callID := chi.URLParam(r, "callID")
	session, err := h.calls.Get(callID)
	if err != nil {
		utils.RespondError(w, callhandler.StatusFor(err), err.Error())
		return
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Str("call_id", callID).Msg("upgrade failed")
		return
	}
	defer ws.Close()
	c := &conn{ws: ws}

	logger := h.logger.With().Str("call_id", callID).Logger()
	logger.Info().Msg("websocket connected")
	defer logger.Info().Msg("websocket closed")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	sub := h.hub.Subscribe(callID)
	defer sub.Close()

	if err := c.writeJSON(h.message("snapshot", "", callID, session.Snapshot())); err != nil {
		return
	}

	ws.SetReadLimit(64 << 10)
	ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	go h.pingLoop(ctx, ws)
	go h.forwardEvents(ctx, cancel, c, sub, logger)

	for {
		var msg inboundMessage
		if err := ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				logger.Warn().Err(err).Msg("read error")
			}
			return
		}
		if ctx.Err() != nil {
			return
		}
		ws.SetReadDeadline(time.Now().Add(pongWait))

		data, err := h.handleMessage(ctx, session, &msg)
		if err != nil {
			h.sendError(c, msg.Type, err)
			continue
		}
		if err := c.writeJSON(h.message("result", msg.Type, callID, data)); err != nil {
			logger.Debug().Err(err).Msg("write result failed")
			return
		}
	}
}

// forwardEvents 转发会话事件，通话结束后关闭连接
func (h *WebSocketHandler) forwardEvents(ctx context.Context, cancel context.CancelFunc, c *conn, sub *callService.Subscription, logger zerolog.Logger) {
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub.C:
			if !ok {
				h.closeNormally(c)
				return
			}
			if err := c.writeJSON(h.message("event", "", ev.SessionID, ev)); err != nil {
				logger.Debug().Err(err).Msg("write event failed")
				return
			}
			if ev.Type == callService.EventCallEnded {
				h.closeNormally(c)
				return
			}
		}
	}
}

func (h *WebSocketHandler) handleMessage(ctx context.Context, session *callService.Session, msg *inboundMessage) (interface{}, error) {
	switch msg.Type {
	case "text":
		var payload TextMessage
		if err := decode(msg.Data, &payload); err != nil {
			return nil, err
		}
		var (
			m    model.Message
			sent bool
			err  error
		)
		if payload.Text == nil {
			m, sent, err = session.SendDraft(ctx)
		} else {
			m, sent, err = session.SendUserMessage(ctx, *payload.Text)
		}
		result := callhandler.SendResult{Sent: sent}
		if sent {
			result.Message = &m
		}
		return result, err
	case "draft":
		var payload DraftMessage
		if err := decode(msg.Data, &payload); err != nil {
			return nil, err
		}
		return nil, session.SetDraft(payload.Text)
	case "toggle":
		var payload ToggleMessage
		if err := decode(msg.Data, &payload); err != nil {
			return nil, err
		}
		return callhandler.Toggle(session, payload.Control)
	case "code_word":
		var payload CodeWordMessage
		if err := decode(msg.Data, &payload); err != nil {
			return nil, err
		}
		if err := session.StageCodeWord(payload.CodeWord); err != nil {
			return nil, err
		}
		saved, err := session.SaveCodeWord()
		return map[string]bool{"saved": saved}, err
	case "end":
		return h.calls.End(ctx, session.ID())
	default:
		return nil, fmt.Errorf("%w: %s", errUnsupportedType, msg.Type)
	}
}

var (
	errUnsupportedType = errors.New("unsupported message type")
	errInvalidPayload  = errors.New("invalid payload")
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, errUnsupportedType), errors.Is(err, errInvalidPayload), errors.Is(err, callhandler.ErrUnknownControl):
		return http.StatusBadRequest
	default:
		return callhandler.StatusFor(err)
	}
}

func decode(raw json.RawMessage, dst interface{}) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return errInvalidPayload
	}
	return nil
}

func (h *WebSocketHandler) message(kind, request, sessionID string, data interface{}) outgoingMessage {
	return outgoingMessage{
		Type:      kind,
		Request:   request,
		SessionID: sessionID,
		Data:      data,
		Timestamp: time.Now().Unix(),
	}
}

func (h *WebSocketHandler) sendError(c *conn, request string, err error) {
	msg := outgoingMessage{
		Type:    "error",
		Request: request,
		Data: map[string]interface{}{
			"message": err.Error(),
			"status":  statusFor(err),
		},
		Timestamp: time.Now().Unix(),
	}
	if err := c.writeJSON(msg); err != nil {
		h.logger.Debug().Err(err).Msg("write error failed")
	}
}

func (h *WebSocketHandler) closeNormally(c *conn) {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "call ended")
	_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
}

// pingLoop 定期发送ping消息
func (h *WebSocketHandler) pingLoop(ctx context.Context, ws *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

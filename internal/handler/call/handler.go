package call

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	model "github.com/zhouzirui/z-guardian/backend/internal/model/call"
	callService "github.com/zhouzirui/z-guardian/backend/internal/service/call"
	"github.com/zhouzirui/z-guardian/backend/pkg/utils"
)

// Handler 通话会话的HTTP处理器
type Handler struct {
	calls  *callService.Manager
	logger zerolog.Logger
}

// New 创建通话处理器
func New(calls *callService.Manager, logger zerolog.Logger) *Handler {
	return &Handler{
		calls:  calls,
		logger: logger.With().Str("component", "call_handler").Logger(),
	}
}

// RegisterRoutes 注册通话相关的路由，r 挂载在 /calls 下
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Post("/", h.handleStart)
	r.Get("/{callID}", h.handleSnapshot)
	r.Delete("/{callID}", h.handleEnd)
	r.Post("/{callID}/messages", h.handleSendMessage)
	r.Put("/{callID}/draft", h.handleSetDraft)
	r.Post("/{callID}/toggles/{control}", h.handleToggle)
	r.Put("/{callID}/code-word", h.handleStageCodeWord)
	r.Post("/{callID}/code-word/save", h.handleSaveCodeWord)
}

type startRequest struct {
	AIName   string `json:"aiName"`
	CodeWord string `json:"codeWord"`
}

// SendResult 是发送消息的响应体，不包含任何检测结果
type SendResult struct {
	Sent    bool           `json:"sent"`
	Message *model.Message `json:"message,omitempty"`
}

// ToggleResult 返回控制项切换后的值
type ToggleResult struct {
	Control string `json:"control"`
	Enabled bool   `json:"enabled"`
	// Seconds 为停止录音时观察到的录音时长
	Seconds *int `json:"seconds,omitempty"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.calls.List())
}

// handleStart 开始一通新的来电
func (h *Handler) handleStart(w http.ResponseWriter, r *http.Request) {
	var payload startRequest
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.calls.Start(r.Context(), callService.StartOptions{
		AIName:   payload.AIName,
		CodeWord: payload.CodeWord,
	})
	if err != nil {
		h.respondCallError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusCreated, session.Snapshot())
}

func (h *Handler) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	utils.RespondJSON(w, http.StatusOK, session.Snapshot())
}

// handleEnd 挂断通话并返回通话摘要
func (h *Handler) handleEnd(w http.ResponseWriter, r *http.Request) {
	summary, err := h.calls.End(r.Context(), chi.URLParam(r, "callID"))
	if err != nil {
		h.respondCallError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, summary)
}

// handleSendMessage 发送用户消息，回复通过事件流异步到达
func (h *Handler) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Text *string `json:"text"`
	}
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, ok := h.session(w, r)
	if !ok {
		return
	}

	var (
		msg  model.Message
		sent bool
		err  error
	)
	if payload.Text == nil {
		msg, sent, err = session.SendDraft(r.Context())
	} else {
		msg, sent, err = session.SendUserMessage(r.Context(), *payload.Text)
	}
	if err != nil {
		h.respondCallError(w, err)
		return
	}

	result := SendResult{Sent: sent}
	if sent {
		result.Message = &msg
	}
	utils.RespondJSON(w, http.StatusAccepted, result)
}

func (h *Handler) handleSetDraft(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Text string `json:"text"`
	}
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := session.SetDraft(payload.Text); err != nil {
		h.respondCallError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleToggle 切换静音、摄像头、语音模式或录音
func (h *Handler) handleToggle(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	result, err := Toggle(session, chi.URLParam(r, "control"))
	if errors.Is(err, ErrUnknownControl) {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		h.respondCallError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, result)
}

func (h *Handler) handleStageCodeWord(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		CodeWord string `json:"codeWord"`
	}
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := session.StageCodeWord(payload.CodeWord); err != nil {
		h.respondCallError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSaveCodeWord 提交暂存的暗号，空白暗号不会保存
func (h *Handler) handleSaveCodeWord(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	saved, err := session.SaveCodeWord()
	if err != nil {
		h.respondCallError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"saved":    saved,
		"codeWord": session.Snapshot().CodeWord,
	})
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*callService.Session, bool) {
	session, err := h.calls.Get(chi.URLParam(r, "callID"))
	if err != nil {
		h.respondCallError(w, err)
		return nil, false
	}
	return session, true
}

func (h *Handler) respondCallError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error().Err(err).Msg("call operation failed")
	}
	utils.RespondError(w, status, err.Error())
}

// StatusFor 将通话错误映射为HTTP状态码
func StatusFor(err error) int {
	switch {
	case errors.Is(err, callService.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, callService.ErrNotActive), errors.Is(err, callService.ErrAlreadyStarted):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

package contact

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/z-guardian/backend/internal/model/contact"
	"github.com/zhouzirui/z-guardian/backend/pkg/utils"
)

// Replacer 由可编辑联系人列表的存储实现
type Replacer interface {
	Replace(items []contact.EmergencyContact)
}

// Handler 紧急联系人的HTTP处理器
type Handler struct {
	contacts contact.Store
}

// New 创建联系人处理器
func New(contacts contact.Store) *Handler {
	return &Handler{
		contacts: contacts,
	}
}

// RegisterRoutes 注册联系人相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/contacts", h.handleListContacts)
	r.Get("/contacts/{contactID}", h.handleGetContact)
	r.Put("/contacts", h.handleReplaceContacts)
}

// handleListContacts 列出所有紧急联系人
func (h *Handler) handleListContacts(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.contacts.List())
}

func (h *Handler) handleGetContact(w http.ResponseWriter, r *http.Request) {
	item, ok := h.contacts.FindByID(chi.URLParam(r, "contactID"))
	if !ok {
		utils.RespondError(w, http.StatusNotFound, "contact not found")
		return
	}
	utils.RespondJSON(w, http.StatusOK, item)
}

// handleReplaceContacts 整体替换联系人列表，新列表对之后的告警生效
func (h *Handler) handleReplaceContacts(w http.ResponseWriter, r *http.Request) {
	store, ok := h.contacts.(Replacer)
	if !ok {
		utils.RespondError(w, http.StatusMethodNotAllowed, "contacts are read-only")
		return
	}

	var items []contact.EmergencyContact
	if err := utils.DecodeJSON(r, &items); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	seen := make(map[string]struct{}, len(items))
	for i := range items {
		items[i].ID = strings.TrimSpace(items[i].ID)
		items[i].Name = strings.TrimSpace(items[i].Name)
		items[i].Phone = strings.TrimSpace(items[i].Phone)
		if items[i].ID == "" || items[i].Name == "" || items[i].Phone == "" {
			utils.RespondError(w, http.StatusBadRequest, "id, name and phone are required")
			return
		}
		if _, dup := seen[items[i].ID]; dup {
			utils.RespondError(w, http.StatusBadRequest, "duplicate contact id "+items[i].ID)
			return
		}
		seen[items[i].ID] = struct{}{}
	}

	store.Replace(items)
	utils.RespondJSON(w, http.StatusOK, h.contacts.List())
}

package http

import (
	"net/http"

	"github.com/diceydecisions/dicey/internal/dicey/service"
	"github.com/diceydecisions/dicey/pkg/api"
	"github.com/diceydecisions/dicey/pkg/httpx"
)

// OptionsHandler serves option submission and editing.
type OptionsHandler struct {
	Options *service.OptionService
}

func (h *OptionsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req api.CreateOptionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		api.Validation("malformed JSON body").WriteError(w)
		return
	}
	if req.RoomID == "" {
		api.Validation("roomId is required").WriteError(w)
		return
	}

	option, err := h.Options.Submit(r.Context(), httpx.UserID(r.Context()), req.RoomID, req.Text)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, toAPIOption(option))
}

func (h *OptionsHandler) HandleListByRoom(w http.ResponseWriter, r *http.Request) {
	options, err := h.Options.List(r.Context(), httpx.UserID(r.Context()), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toAPIOptions(options))
}

func (h *OptionsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req api.UpdateOptionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		api.Validation("malformed JSON body").WriteError(w)
		return
	}

	option, err := h.Options.Update(r.Context(), httpx.UserID(r.Context()), r.PathValue("id"), req.Text)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toAPIOption(option))
}

func (h *OptionsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.Options.Delete(r.Context(), httpx.UserID(r.Context()), r.PathValue("id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, api.MessageResponse{Message: "option deleted"})
}

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/marmos91/dittoapi/internal/logger"
	"github.com/marmos91/dittoapi/pkg/api/response"
	"github.com/marmos91/dittoapi/pkg/models"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// SettingsStore is the subset of the store used by the settings routes.
type SettingsStore interface {
	ListSettings(ctx context.Context) ([]*models.Setting, error)
	GetSetting(ctx context.Context, key string) (*models.Setting, error)
	SetSetting(ctx context.Context, key, value string) (*models.Setting, error)
	DeleteSetting(ctx context.Context, key string) error
}

// SettingsHandler handles the settings API endpoints.
type SettingsHandler struct {
	store SettingsStore
}

// NewSettingsHandler creates a new SettingsHandler.
func NewSettingsHandler(store SettingsStore) *SettingsHandler {
	return &SettingsHandler{store: store}
}

// SetSettingRequest is the request body for PUT {prefix}/settings/{key}.
// Value is a pointer so that an empty string is accepted but a missing
// field is not.
type SetSettingRequest struct {
	Value *string `json:"value" validate:"required,max=65536"`
}

// SettingResponse is the response body for setting endpoints.
type SettingResponse struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// List handles GET {prefix}/settings.
func (h *SettingsHandler) List(w http.ResponseWriter, r *http.Request) {
	settings, err := h.store.ListSettings(r.Context())
	if err != nil {
		logger.ErrorCtx(r.Context(), "Failed to list settings", logger.KeyError, err)
		response.InternalServerError(w, "Failed to list settings")
		return
	}

	out := make([]SettingResponse, len(settings))
	for i, s := range settings {
		out[i] = settingToResponse(s)
	}
	response.OK(w, out)
}

// Get handles GET {prefix}/settings/{key}.
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	setting, err := h.store.GetSetting(r.Context(), key)
	if err != nil {
		h.writeStoreError(w, r, key, err)
		return
	}
	response.OK(w, settingToResponse(setting))
}

// Set handles PUT {prefix}/settings/{key}. It creates or replaces the value.
func (h *SettingsHandler) Set(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	var req SetSettingRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if err := validate.Struct(req); err != nil {
		response.BadRequest(w, "Field 'value' is required and must be a string of at most 65536 bytes")
		return
	}

	setting, err := h.store.SetSetting(r.Context(), key, *req.Value)
	if err != nil {
		h.writeStoreError(w, r, key, err)
		return
	}
	logger.InfoCtx(r.Context(), "Setting updated", logger.KeyKey, key)
	response.OK(w, settingToResponse(setting))
}

// Delete handles DELETE {prefix}/settings/{key}.
func (h *SettingsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	if err := h.store.DeleteSetting(r.Context(), key); err != nil {
		h.writeStoreError(w, r, key, err)
		return
	}
	logger.InfoCtx(r.Context(), "Setting deleted", logger.KeyKey, key)
	response.NoContent(w)
}

func (h *SettingsHandler) writeStoreError(w http.ResponseWriter, r *http.Request, key string, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidSettingKey):
		response.BadRequest(w, "Invalid setting key")
	case errors.Is(err, models.ErrSettingNotFound):
		response.NotFound(w, "Setting not found")
	default:
		logger.ErrorCtx(r.Context(), "Settings store failure", logger.KeyKey, key, logger.KeyError, err)
		response.InternalServerError(w, "Failed to access settings")
	}
}

// decodeJSONBody decodes a JSON request body into v. On failure it writes
// the error response and returns false.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return false
		}
		response.BadRequest(w, "Invalid request body")
		return false
	}
	return true
}

// settingToResponse converts a models.Setting to SettingResponse.
func settingToResponse(s *models.Setting) SettingResponse {
	return SettingResponse{
		Key:       s.Key,
		Value:     s.Value,
		UpdatedAt: s.UpdatedAt,
	}
}

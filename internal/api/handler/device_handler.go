package handler

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/remindhub/reminder-pipeline/internal/domain"
	"github.com/remindhub/reminder-pipeline/internal/service"
)

// DeviceHandler handles the device registration endpoint.
type DeviceHandler struct {
	svc    *service.EventService
	logger *zap.Logger
}

func NewDeviceHandler(svc *service.EventService, logger *zap.Logger) *DeviceHandler {
	return &DeviceHandler{svc: svc, logger: logger}
}

// Register handles POST /api/v1/devices?userId=...
// Re-registering replaces the user's previous push target (upsert on userId).
func (h *DeviceHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	device, err := h.svc.RegisterDevice(r.Context(), r.URL.Query().Get("userId"), req)
	if err != nil {
		h.logger.Warn("register device failed", zap.Error(err))
		mapError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, device)
}

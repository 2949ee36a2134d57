package handler

import (
	"errors"
	"net/http"

	"github.com/mcoot/signmaze/internal/api/apierr"
	"github.com/mcoot/signmaze/internal/api/middleware"
	"github.com/mcoot/signmaze/internal/api/request"
	"github.com/mcoot/signmaze/internal/api/response"
	"github.com/mcoot/signmaze/internal/model"
	"github.com/mcoot/signmaze/internal/services/identity"
)

// IdentityHandler handles device identity endpoints
type IdentityHandler struct {
	identityService *identity.Service
	errs            *apierr.Writer
}

// NewIdentityHandler creates a new identity handler
func NewIdentityHandler(identityService *identity.Service, errs *apierr.Writer) *IdentityHandler {
	return &IdentityHandler{
		identityService: identityService,
		errs:            errs,
	}
}

// Identify handles POST /api/user/identify
func (h *IdentityHandler) Identify(w http.ResponseWriter, r *http.Request) {
	var req request.IdentifyRequest
	if err := decodeJSON(r, &req, true); err != nil {
		h.errs.Write(w, r, err)
		return
	}

	result, err := h.identityService.Identify(r.Context(), identity.IdentifyInput{
		ExistingDeviceID: model.DeviceID(req.ExistingDeviceID),
		Fingerprint:      req.Fingerprint.ToModel(),
		Client:           middleware.GetClient(r.Context()),
	})
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}

	status := http.StatusOK
	if !result.IsExisting {
		status = http.StatusCreated
	}
	response.JSON(w, status, response.IdentifyFromResult(result))
}

// Verify handles POST /api/user/verify
func (h *IdentityHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req request.VerifyRequest
	if err := decodeJSON(r, &req, false); err != nil {
		h.errs.Write(w, r, err)
		return
	}

	result, err := h.identityService.Verify(r.Context(), model.DeviceID(req.DeviceID), req.Challenge,
		middleware.GetClient(r.Context()))
	if errors.Is(err, model.ErrVerificationFailed) {
		response.JSON(w, http.StatusForbidden, response.VerifyResponse{
			Verified: false,
			Message:  identity.NotVerifiedMessage,
			Error:    apierr.Text(err),
			Code:     apierr.Code(err),
		})
		return
	}
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, response.VerifyResponse{
		Verified: result.Verified,
		Message:  result.Message,
	})
}

package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/logm8/logmate/internal/common"
)

type oneLifeRequest struct {
	AccessToken string  `json:"accessToken"`
	EID         string  `json:"eId"`
	UserID      *string `json:"userId,omitempty"`
}

// parseReqString decodes the JSON carried in the reqString query parameter.
func parseReqString(r *http.Request, v any) error {
	raw := r.URL.Query().Get("reqString")
	if raw == "" {
		return fmt.Errorf("%w: reqString is required", common.ErrorValidation)
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("%w: reqString: %w", common.ErrorValidation, err)
	}
	return nil
}

func (a *API) negotiate(w http.ResponseWriter, r *http.Request) {
	s, err := a.negotiation.Negotiate(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (a *API) oneLifeURL(w http.ResponseWriter, r *http.Request) {
	var req oneLifeRequest
	if err := parseReqString(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	res, err := a.negotiation.ResolveAsymmetric(r.Context(), req.AccessToken, req.EID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeText(w, http.StatusOK, res.URL)
}

func (a *API) oneLifeURLOneStep(w http.ResponseWriter, r *http.Request) {
	var req oneLifeRequest
	if err := parseReqString(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	res, err := a.negotiation.ResolveSymmetric(r.Context(), req.EID, req.UserID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	// success is false when url points at the provisioning page
	writeJSON(w, http.StatusOK, map[string]any{"success": res.Minted(), "url": res.URL})
}

func (a *API) oneLifeURLGuest(w http.ResponseWriter, r *http.Request) {
	var req oneLifeRequest
	if err := parseReqString(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	res, err := a.negotiation.Guest(r.Context(), req.EID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeText(w, http.StatusOK, res.URL)
}

func (a *API) consume(w http.ResponseWriter, r *http.Request) {
	if err := a.negotiation.Consume(r.Context(), r.URL.Query().Get("token")); err != nil {
		a.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/logm8/logmate/internal/common"
	"github.com/logm8/logmate/internal/server/models"
)

type resultMessage struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type replaceTagRequest struct {
	OldTagID string `json:"oldTagId"`
	NewTagID string `json:"newTagId"`
}

func (a *API) garageTag(w http.ResponseWriter, r *http.Request) {
	var req oneLifeRequest
	if err := parseReqString(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	id, err := a.negotiation.OpenEnvelope(req.EID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	tag, err := a.tags.Garage(r.Context(), id)
	if errors.Is(err, common.ErrorNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"tag": "Not Found"})
		return
	}
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]*models.Tag{"tag": tag})
}

func (a *API) acquireTag(w http.ResponseWriter, r *http.Request) {
	id, err := a.tags.Acquire(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeText(w, http.StatusOK, id)
}

func (a *API) configureTag(w http.ResponseWriter, r *http.Request) {
	a.applyProfile(w, r, a.tags.Configure)
}

// submitTag configures a newly provisioned tag by its raw id.
func (a *API) submitTag(w http.ResponseWriter, r *http.Request) {
	a.applyProfile(w, r, a.tags.Submit)
}

func (a *API) applyProfile(w http.ResponseWriter, r *http.Request, apply func(context.Context, *models.TagProfile) error) {
	var profile models.TagProfile
	if err := decodeJSON(r, &profile); err != nil {
		a.writeError(w, r, err)
		return
	}
	if err := apply(r.Context(), &profile); err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			a.writeError(w, r, err)
			return
		}
		writeJSON(w, status, resultMessage{Message: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, resultMessage{Success: true, Message: "Tag configured."})
}

func (a *API) replaceTag(w http.ResponseWriter, r *http.Request) {
	var req replaceTagRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	n, err := a.tags.Replace(r.Context(), req.OldTagID, req.NewTagID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeText(w, http.StatusOK, fmt.Sprintf("Successfully migrated %d records.", n))
}

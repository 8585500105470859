package httpapi

import (
	"errors"
	"net/http"

	"github.com/logm8/logmate/internal/common"
	"github.com/logm8/logmate/internal/server/models"
)

type addRecordRequest struct {
	models.Record
	Token string `json:"token"`
}

type uploadURLRequest struct {
	Token    string `json:"token"`
	FileName string `json:"fileName"`
}

func (a *API) logData(w http.ResponseWriter, r *http.Request) {
	data, err := a.records.LogData(r.Context(), r.URL.Query().Get("token"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

func (a *API) addRecord(w http.ResponseWriter, r *http.Request) {
	var req addRecordRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	rec, err := a.records.Add(r.Context(), req.Token, &req.Record)
	if errors.Is(err, common.ErrorNotFound) {
		writeProblem(w, http.StatusNotFound, "Not Found", "Invalid NFC token", map[string]any{"reqid": GetRequestID(r)})
		return
	}
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (a *API) updateRecord(w http.ResponseWriter, r *http.Request) {
	var patch models.RecordPatch
	if err := decodeJSON(r, &patch); err != nil {
		a.writeError(w, r, err)
		return
	}
	rec, err := a.records.Update(r.Context(), &patch)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (a *API) uploadURL(w http.ResponseWriter, r *http.Request) {
	var req uploadURLRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	target, err := a.records.UploadURL(r.Context(), req.Token, req.FileName)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, target)
}

func (a *API) receiptURL(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	u, err := a.records.ReceiptURL(r.Context(), q.Get("token"), q.Get("key"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": u})
}

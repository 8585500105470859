package httpapi

import "net/http"

type addOptionRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

type addParentRequest struct {
	ParentID int `json:"parentId"`
	ChildID  int `json:"childId"`
}

type addServiceTypeRequest struct {
	ServiceOptionID int `json:"serviceOptionId"`
	ServiceTypeID   int `json:"serviceTypeId"`
}

func (a *API) hierarchy(w http.ResponseWriter, r *http.Request) {
	h, err := a.options.Hierarchy(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h)
}

func (a *API) motorbikeOptions(w http.ResponseWriter, r *http.Request) {
	h, err := a.options.SnapshotHierarchy(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h)
}

func (a *API) refreshOptions(w http.ResponseWriter, r *http.Request) {
	if err := a.options.RefreshSnapshot(r.Context()); err != nil {
		a.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) addOption(w http.ResponseWriter, r *http.Request) {
	var req addOptionRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	id, err := a.options.AddOption(r.Context(), req.Name, req.Description)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int{"id": id})
}

func (a *API) addParent(w http.ResponseWriter, r *http.Request) {
	var req addParentRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	if err := a.options.AddParent(r.Context(), req.ParentID, req.ChildID); err != nil {
		a.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (a *API) addServiceType(w http.ResponseWriter, r *http.Request) {
	var req addServiceTypeRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	if err := a.options.AddServiceType(r.Context(), req.ServiceOptionID, req.ServiceTypeID); err != nil {
		a.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"folder-explorer/internal/service"
	"folder-explorer/pkg/apierror"
)

type FolderHandler struct {
	folders *service.FolderService
	tree    *service.TreeService
}

func NewFolderHandler(folders *service.FolderService, tree *service.TreeService) *FolderHandler {
	return &FolderHandler{folders: folders, tree: tree}
}

// Create commits the folder and returns immediately; the eventId in the
// response lets callers observe asynchronous cache/index completion through
// the events API or the websocket channel.
func (h *FolderHandler) Create(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var req service.CreateFolderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apierror.BadRequest("invalid JSON body", ""))
		return
	}

	folder, eventID, err := h.folders.CreateFolder(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusAccepted, map[string]any{
		"folder":  folder,
		"eventId": eventID,
	}, nil)
}

func (h *FolderHandler) Get(w http.ResponseWriter, r *http.Request) {
	folderID := chi.URLParam(r, "folder_id")
	folder, err := h.folders.GetFolder(r.Context(), folderID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, folder, nil)
}

func (h *FolderHandler) Update(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	folderID := chi.URLParam(r, "folder_id")
	var req service.UpdateFolderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apierror.BadRequest("invalid JSON body", ""))
		return
	}

	folder, err := h.folders.UpdateFolder(r.Context(), folderID, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, folder, nil)
}

func (h *FolderHandler) Move(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	folderID := chi.URLParam(r, "folder_id")
	var req struct {
		NewParentID *string `json:"newParentId"`
		MovedBy     string  `json:"movedBy,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apierror.BadRequest("invalid JSON body", ""))
		return
	}

	folder, err := h.folders.MoveFolder(r.Context(), folderID, req.NewParentID, req.MovedBy)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, folder, nil)
}

func (h *FolderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	folderID := chi.URLParam(r, "folder_id")
	if err := h.folders.DeleteFolder(r.Context(), folderID, r.URL.Query().Get("deletedBy")); err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]string{"id": folderID}, nil)
}

func (h *FolderHandler) Tree(w http.ResponseWriter, r *http.Request) {
	tree, err := h.tree.GetTree(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, tree, nil)
}

func (h *FolderHandler) Children(w http.ResponseWriter, r *http.Request) {
	folderID := chi.URLParam(r, "folder_id")
	children, err := h.tree.GetChildren(r.Context(), folderID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, children, countMeta(len(children)))
}

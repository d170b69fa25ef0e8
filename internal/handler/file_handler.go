package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"folder-explorer/internal/service"
	"folder-explorer/pkg/apierror"
)

type FileHandler struct {
	files *service.FileService
}

func NewFileHandler(files *service.FileService) *FileHandler {
	return &FileHandler{files: files}
}

func (h *FileHandler) Create(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var req service.CreateFileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apierror.BadRequest("invalid JSON body", ""))
		return
	}

	file, err := h.files.CreateFile(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusCreated, file, nil)
}

func (h *FileHandler) Get(w http.ResponseWriter, r *http.Request) {
	fileID := chi.URLParam(r, "file_id")
	file, err := h.files.GetFile(r.Context(), fileID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, file, nil)
}

func (h *FileHandler) Update(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	fileID := chi.URLParam(r, "file_id")
	var req service.UpdateFileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apierror.BadRequest("invalid JSON body", ""))
		return
	}

	file, err := h.files.UpdateFile(r.Context(), fileID, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, file, nil)
}

func (h *FileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	fileID := chi.URLParam(r, "file_id")
	if err := h.files.DeleteFile(r.Context(), fileID, r.URL.Query().Get("deletedBy")); err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]string{"id": fileID}, nil)
}

// ListByFolder serves a folder's files through the read-through cache.
func (h *FileHandler) ListByFolder(w http.ResponseWriter, r *http.Request) {
	folderID := chi.URLParam(r, "folder_id")
	files, err := h.files.ListFiles(r.Context(), folderID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, files, countMeta(len(files)))
}

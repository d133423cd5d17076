package v1

import (
	"net/http"
	"path/filepath"
	"strings"

	"freshmart-backend/pkg/logger"
	"freshmart-backend/pkg/storage"
	"freshmart-backend/pkg/utils"
)

var (
	allowedMimeTypes = map[string]bool{
		"image/jpeg": true,
		"image/jpg":  true,
		"image/png":  true,
		"image/webp": true,
		"image/gif":  true,
	}
	allowedExtensions = map[string]bool{
		".jpg":  true,
		".jpeg": true,
		".png":  true,
		".webp": true,
		".gif":  true,
	}
)

// UploadHandler accepts product and banner images, normalizes them to WebP
// and stores them in the object bucket.
type UploadHandler struct {
	storage       *storage.ObjectStorage
	maxUploadSize int64
}

func NewUploadHandler(s *storage.ObjectStorage, maxUploadSizeMB int64) *UploadHandler {
	return &UploadHandler{
		storage:       s,
		maxUploadSize: maxUploadSizeMB << 20,
	}
}

func (h *UploadHandler) UploadFile(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "File too large or invalid format")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid file")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !allowedMimeTypes[contentType] {
		utils.WriteError(w, http.StatusBadRequest, "Invalid file type. Allowed: JPEG, PNG, WebP, GIF")
		return
	}
	if ext := strings.ToLower(filepath.Ext(header.Filename)); !allowedExtensions[ext] {
		utils.WriteError(w, http.StatusBadRequest, "Invalid file extension")
		return
	}

	data, newContentType, err := utils.ProcessImage(file, header.Filename)
	if err != nil {
		logger.WithContext(r.Context()).Error().Err(err).Str("filename", header.Filename).Msg("Image processing failed")
		utils.WriteError(w, http.StatusInternalServerError, "Failed to process image")
		return
	}

	url, err := h.storage.UploadBuffer(r.Context(), data, newContentType)
	if err != nil {
		logger.WithContext(r.Context()).Error().Err(err).Msg("Upload failed")
		utils.WriteError(w, http.StatusInternalServerError, "Failed to upload file")
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]string{"url": url})
}

type deleteFileReq struct {
	URL string `json:"url"`
}

// DeleteFile removes a previously uploaded asset by its public URL.
func (h *UploadHandler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	var req deleteFileReq
	if err := decodeBody(r, &req); err != nil || req.URL == "" {
		utils.WriteError(w, http.StatusBadRequest, "File URL required")
		return
	}
	if err := h.storage.DeleteFile(r.Context(), req.URL); err != nil {
		logger.WithContext(r.Context()).Error().Err(err).Str("url", req.URL).Msg("Asset delete failed")
		utils.WriteError(w, http.StatusInternalServerError, "Failed to delete file")
		return
	}
	utils.WriteMessage(w, http.StatusOK, "File deleted")
}

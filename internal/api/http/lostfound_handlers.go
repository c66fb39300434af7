package http

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/campus-metrics/outcometrack/internal/audit"
	authmw "github.com/campus-metrics/outcometrack/internal/auth/middleware"
	"github.com/campus-metrics/outcometrack/internal/lostfound"
	"github.com/campus-metrics/outcometrack/internal/storage"
	"github.com/campus-metrics/outcometrack/internal/trash"
)

const maxPhotoBytes = 10 << 20

func ReportLostItemHandler(lf *lostfound.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var it lostfound.Item
		if err := decodeValid(r, &it); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		it.ID = ""
		it.PhotoKey = ""
		it.Status = lostfound.StatusOpen
		it.ReportedBy = authmw.SubjectFromContext(r.Context())
		created, err := lf.Create(r.Context(), it)
		if err != nil {
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func ListLostItemsHandler(lf *lostfound.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := lf.List(r.Context(), r.URL.Query().Get("status"))
		if err != nil {
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items})
	}
}

func GetLostItemHandler(lf *lostfound.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "itemID")
		if !requireUUID(w, id) {
			return
		}
		it, err := lf.Get(r.Context(), id)
		if err != nil {
			if errors.Is(err, lostfound.ErrNotFound) {
				http.Error(w, "item not found", http.StatusNotFound)
				return
			}
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, it)
	}
}

func UpdateLostItemStatusHandler(lf *lostfound.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "itemID")
		if !requireUUID(w, id) {
			return
		}
		var req struct {
			Status string `json:"status"`
		}
		if err := decodeValid(r, &req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		switch req.Status {
		case lostfound.StatusOpen, lostfound.StatusClaimed, lostfound.StatusReturned:
		default:
			http.Error(w, "invalid status", http.StatusBadRequest)
			return
		}
		if err := lf.UpdateStatus(r.Context(), id, req.Status); err != nil {
			if errors.Is(err, lostfound.ErrNotFound) {
				http.Error(w, "item not found", http.StatusNotFound)
				return
			}
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// UploadLostItemPhotoHandler accepts a multipart form with a "photo" part,
// stores the bytes in the blob store under a fresh key, and records the key on
// the item. Re-uploading replaces the previous photo. publicURL, when
// configured, lets the response carry an absolute photo link.
func UploadLostItemPhotoHandler(lf *lostfound.SQLStore, blobs storage.BlobStore, publicURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "itemID")
		if !requireUUID(w, id) {
			return
		}
		it, err := lf.Get(r.Context(), id)
		if err != nil {
			if errors.Is(err, lostfound.ErrNotFound) {
				http.Error(w, "item not found", http.StatusNotFound)
				return
			}
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}

		if err := r.ParseMultipartForm(maxPhotoBytes); err != nil {
			http.Error(w, "bad multipart form", http.StatusBadRequest)
			return
		}
		file, header, err := r.FormFile("photo")
		if err != nil {
			http.Error(w, "photo part required", http.StatusBadRequest)
			return
		}
		defer file.Close()

		key := "lostfound/" + uuid.NewString() + filepath.Ext(header.Filename)
		if _, err := blobs.Put(key, io.LimitReader(file, maxPhotoBytes)); err != nil {
			http.Error(w, "storage error", http.StatusInternalServerError)
			return
		}
		if err := lf.SetPhoto(r.Context(), id, key); err != nil {
			_ = blobs.Delete(key)
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		if it.PhotoKey != "" && it.PhotoKey != key {
			_ = blobs.Delete(it.PhotoKey)
		}
		resp := map[string]string{"photoKey": key}
		if publicURL != "" {
			resp["photoUrl"] = strings.TrimRight(publicURL, "/") + "/lost-found/" + id + "/photo"
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func GetLostItemPhotoHandler(lf *lostfound.SQLStore, blobs storage.BlobStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "itemID")
		if !requireUUID(w, id) {
			return
		}
		it, err := lf.Get(r.Context(), id)
		if err != nil {
			if errors.Is(err, lostfound.ErrNotFound) {
				http.Error(w, "item not found", http.StatusNotFound)
				return
			}
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		if it.PhotoKey == "" {
			http.Error(w, "no photo", http.StatusNotFound)
			return
		}
		rc, err := blobs.Get(it.PhotoKey)
		if err != nil {
			http.Error(w, "photo missing", http.StatusNotFound)
			return
		}
		defer rc.Close()
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = io.Copy(w, rc)
	}
}

// DeleteLostItemHandler moves an item to the trash. The photo bytes stay in
// the blob store so a restored item keeps its image.
func DeleteLostItemHandler(lf *lostfound.SQLStore, bin *trash.Bin, log *audit.Log) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "itemID")
		if !requireUUID(w, id) {
			return
		}
		it, err := lf.Delete(r.Context(), id)
		if err != nil {
			if errors.Is(err, lostfound.ErrNotFound) {
				http.Error(w, "item not found", http.StatusNotFound)
				return
			}
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		if _, err := bin.Put(r.Context(), trash.KindLostFound, it.Title, it); err != nil {
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		_ = log.Append(r.Context(), authmw.SubjectFromContext(r.Context()),
			audit.TypeTrashed, id, map[string]string{"kind": string(trash.KindLostFound)})
		w.WriteHeader(http.StatusNoContent)
	}
}

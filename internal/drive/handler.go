package drive

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
)

// Handler exposes the feed-export endpoints used by operators to inspect the
// shared Drive folder and pull the day's exports into the local feed
// directory.
type Handler struct {
	service    *Service
	downloader *Downloader
	feedDir    string
}

func NewHandler(service *Service, downloader *Downloader, feedDir string) *Handler {
	return &Handler{
		service:    service,
		downloader: downloader,
		feedDir:    feedDir,
	}
}

func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/exports/files", h.ListFiles).Methods("GET")
	router.HandleFunc("/api/exports/files/download", h.DownloadFile).Methods("GET")
	router.HandleFunc("/api/exports/fetch", h.FetchExports).Methods("POST")
}

func (h *Handler) ListFiles(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	folderID := query.Get("folderId")
	folderPath := query.Get("path")

	var files []*File
	var err error

	if folderPath != "" {
		folderID, err = h.service.FindFolderByPath(folderPath)
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
	}

	files, err = h.service.ListFiles(folderID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(files)
}

func (h *Handler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	fileID := r.URL.Query().Get("fileId")
	if fileID == "" {
		http.Error(w, "fileId parameter is required", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=data.csv")

	err := h.service.DownloadFile(fileID, w)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// FetchExports pulls all feed exports from the given Drive folder into the
// local feed directory so the forecast pipeline can pick them up.
func (h *Handler) FetchExports(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	folderID := query.Get("folderId")
	folderPath := query.Get("path")

	var err error
	if folderPath != "" {
		folderID, err = h.service.FindFolderByPath(folderPath)
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
	}

	paths, err := h.downloader.DownloadFolderCSV(r.Context(), DownloadOptions{
		FolderID:    folderID,
		DownloadDir: h.feedDir,
	})
	if err != nil {
		http.Error(w, fmt.Sprintf("fetch failed: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status": "success",
		"files":  paths,
	})
}

package main

import (
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"github.com/mercurios-ai/inventory-insights/internal/config"
	"github.com/mercurios-ai/inventory-insights/internal/drive"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()

	driveService, err := drive.NewService(os.Getenv("GOOGLE_DRIVE_CREDENTIALS_JSON"))
	if err != nil {
		log.Fatalf("Failed to initialize Google Drive service: %v", err)
	}

	downloader := drive.NewDownloader(driveService)

	r := mux.NewRouter()

	driveHandler := drive.NewHandler(driveService, downloader, cfg.App.FeedDir)
	driveHandler.RegisterRoutes(r)

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Exports server starting on %s\n", addr)
	log.Fatal(http.ListenAndServe(addr, r))
}

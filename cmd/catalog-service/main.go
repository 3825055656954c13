package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/mux"

	"github.com/medstream-ai/pipeline/pkg/catalog"
	"github.com/medstream-ai/pipeline/pkg/common/config"
	"github.com/medstream-ai/pipeline/pkg/common/kafka"
	"github.com/medstream-ai/pipeline/pkg/common/logger"
	"github.com/medstream-ai/pipeline/pkg/common/models"
)

// CatalogService keeps a live code catalog fed by patient-record events.
type CatalogService struct {
	mu      sync.RWMutex
	builder *catalog.Builder
	records int
}

func main() {
	logger.Init()
	cfg := config.Load()

	service := &CatalogService{builder: catalog.NewBuilder()}

	consumer := kafka.NewConsumer(cfg.KafkaTopic, "catalog-service")
	defer consumer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := consumer.Consume(ctx, service.processEvent); err != nil && ctx.Err() == nil {
			logger.Log.WithError(err).Fatal("Consumer error")
		}
	}()

	router := mux.NewRouter()
	router.HandleFunc("/health", healthCheck).Methods("GET")
	router.HandleFunc("/api/v1/catalog/summary", service.handleSummary).Methods("GET")
	router.HandleFunc("/api/v1/catalog/systems", service.handleSystems).Methods("GET")

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go func() {
		logger.Log.WithFields(map[string]interface{}{
			"host": cfg.ServerHost,
			"port": cfg.ServerPort,
		}).Info("Catalog Service started")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down Catalog Service...")
	cancel()

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Log.WithError(err).Error("Server forced to shutdown")
	}

	logger.Log.Info("Catalog Service stopped")
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

func (s *CatalogService) processEvent(ctx context.Context, event models.Event) error {
	if event.Type != "patient-record" {
		return nil
	}

	var record models.PatientRecord
	if err := json.Unmarshal(event.Payload, &record); err != nil {
		logger.Log.WithError(err).WithField("event_id", event.ID).Error("Failed to decode patient record")
		// Undecodable payloads are dropped, not retried.
		return nil
	}

	s.mu.Lock()
	s.builder.AddRecord(&record)
	s.records++
	s.mu.Unlock()

	logger.Log.WithFields(map[string]interface{}{
		"event_id":   event.ID,
		"patient_id": record.PatientID,
		"events":     len(record.Events),
	}).Debug("Catalog updated")
	return nil
}

func (s *CatalogService) handleSummary(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	summary := s.builder.SummaryRows()
	records := s.records
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"records": records,
		"systems": summary,
	})
}

func (s *CatalogService) handleSystems(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	systems := s.builder.Systems()
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"systems": systems})
}

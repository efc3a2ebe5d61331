package main

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"homework-hero/internal/cache"
	"homework-hero/internal/dataset"
	"homework-hero/internal/identifier"
	"homework-hero/internal/llm"
	"homework-hero/internal/models"
	"homework-hero/internal/observability"
	"homework-hero/internal/pipeline"
	"homework-hero/internal/reference"
)

type server struct {
	orch       *pipeline.Orchestrator
	codec      *identifier.Codec
	registry   *reference.Registry
	worksheets *cache.Store
	logger     *observability.Logger
}

func (s *server) registerRoutes(router *gin.Engine) {
	router.GET("/api/config", s.handleConfig)
	router.POST("/api/generate", s.handleGenerate)
	router.GET("/worksheets/:id", s.handleWorksheet)
}

// handleConfig serves the reference registries so a front-end can build
// its dropdowns.
func (s *server) handleConfig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"data_sources":  s.registry.Datasets,
		"themes":        s.registry.Themes,
		"models":        s.registry.Models,
		"level_systems": s.registry.LevelSystems,
	})
}

// handleGenerate runs the pipeline for a request document and responds
// with the worksheet PDF.
func (s *server) handleGenerate(c *gin.Context) {
	var req models.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request JSON: " + err.Error()})
		return
	}

	result, err := s.orch.Generate(c.Request.Context(), &req)
	if err != nil {
		s.logger.WithRequestID(c.Request.Context()).Error("generate failed", "error", err)
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	c.Header("X-Worksheet-ID", result.WorksheetID)
	if result.PDFFromCache {
		c.Header("X-Cache", "hit")
	} else {
		c.Header("X-Cache", "miss")
	}
	c.Data(http.StatusOK, "application/pdf", result.PDF)
}

// handleWorksheet serves a previously generated worksheet by identifier.
// This is the QR code's target: the identifier alone reconstructs the
// full cache location.
func (s *server) handleWorksheet(c *gin.Context) {
	id, err := identifier.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	fields, err := s.codec.Decode(id)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	key := cache.Key{
		Dataset:      fields.Dataset,
		ReadingLevel: fields.ReadingLevel,
		Section:      fields.Section,
		Theme:        fields.Theme,
		Model:        fields.Model,
		Leaf:         id.String(),
		Ext:          "pdf",
	}
	pdf, err := s.worksheets.Get(key)
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// statusForError maps the pipeline's error taxonomy onto HTTP statuses:
// client errors for request/identifier problems, not-found for missing
// reference data or artifacts, upstream errors for generation.
func statusForError(err error) int {
	var (
		validationErr *pipeline.ValidationError
		fieldErr      *identifier.InvalidFieldError
		malformedErr  *identifier.MalformedIdentifierError
		datasetErr    *dataset.NotFoundError
		cacheMissErr  *cache.NotFoundError
		generationErr *llm.GenerationError
	)
	switch {
	case errors.As(err, &validationErr), errors.As(err, &fieldErr), errors.As(err, &malformedErr):
		return http.StatusBadRequest
	case errors.As(err, &datasetErr), errors.As(err, &cacheMissErr):
		return http.StatusNotFound
	case errors.As(err, &generationErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

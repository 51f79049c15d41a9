package api

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"inference/internal/detect"
	"inference/internal/download"
	"inference/internal/embedding"
	"inference/internal/extract"
	"inference/internal/registry"
)

type ensureModelRequest struct {
	Task registry.Task `json:"task" binding:"required"`
	Tier registry.Tier `json:"tier" binding:"required"`
}

type embedRequest struct {
	FileID    string        `json:"fileId" binding:"required"`
	FileName  string        `json:"fileName" binding:"required"`
	MimeType  string        `json:"mimeType" binding:"required"`
	ModelTier registry.Tier `json:"modelTier" binding:"required"`
}

type embedResponse struct {
	Embedding []float64 `json:"embedding"`
	ModelName string    `json:"modelName"`
}

type ocrResponse struct {
	Text     string `json:"text"`
	Language string `json:"language,omitempty"`
}

type detectObjectsResponse struct {
	Objects []detect.Object `json:"objects"`
}

type API struct {
	coordinator *download.Coordinator
	pipeline    *extract.Pipeline
	modelsDir   string
}

func NewAPI(coordinator *download.Coordinator, pipeline *extract.Pipeline, modelsDir string) *API {
	return &API{coordinator: coordinator, pipeline: pipeline, modelsDir: modelsDir}
}

// RegisterRoutes registers API routes on the provided gin engine
func (a *API) RegisterRoutes(router *gin.Engine) {
	router.GET("/health", a.Health)
	router.POST("/models/ensure", a.EnsureModel)
	router.GET("/models/download/:id", a.DownloadStatus)
	router.POST("/extract", a.Extract)
	router.POST("/embed", a.Embed)
	router.POST("/embed/stream", a.EmbedStream)
	router.POST("/ocr", a.OCR)
	router.POST("/ocr/stream", a.OCRStream)
	router.POST("/detect-objects", a.DetectObjects)
	router.POST("/detect-objects/stream", a.DetectObjectsStream)
}

func (a *API) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "modelsDir": a.modelsDir})
}

// EnsureModel resolves the model for a (task, tier) pair and makes sure its
// asset is or becomes available, returning the download snapshot.
func (a *API) EnsureModel(c *gin.Context) {
	var req ensureModelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Msg("invalid ensure model request")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	modelID, err := registry.Resolve(req.Task, req.Tier)
	if err != nil {
		log.Warn().Str("task", string(req.Task)).Str("tier", string(req.Tier)).Msg("unknown model requested")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	log.Info().Str("task", string(req.Task)).Str("tier", string(req.Tier)).Str("model_id", modelID).Msg("ensure model requested")
	c.JSON(http.StatusOK, a.coordinator.Ensure(modelID))
}

// DownloadStatus returns the snapshot for a download id.
func (a *API) DownloadStatus(c *gin.Context) {
	snapshot, err := a.coordinator.Status(c.Param("id"))
	if err != nil {
		if errors.Is(err, download.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "download not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

// Extract runs the document extraction pipeline over an uploaded file.
// Accepts a multipart "file" field or a raw body with an X-File-Name header.
func (a *API) Extract(c *gin.Context) {
	fileName, mimeType, payload, err := readUpload(c)
	if err != nil {
		log.Warn().Err(err).Msg("invalid extract request")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	result, err := a.pipeline.Extract(c.Request.Context(), fileName, mimeType, payload)
	if err != nil {
		var failure *extract.Failure
		if errors.As(err, &failure) {
			status := http.StatusInternalServerError
			switch {
			case failure.Kind == extract.KindUnsupportedFileType:
				status = http.StatusBadRequest
			case failure.ClientError():
				status = http.StatusUnprocessableEntity
			}
			c.JSON(status, gin.H{"error": failure.Error()})
			return
		}
		log.Warn().Str("file", fileName).Err(err).Msg("extraction failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (a *API) Embed(c *gin.Context) {
	var req embedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	modelName, err := registry.Resolve(registry.TaskEmbedding, req.ModelTier)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	log.Info().Str("file_id", req.FileID).Str("tier", string(req.ModelTier)).Msg("embed requested")
	seed := req.FileID + "|" + req.FileName + "|" + req.MimeType + "|" + modelName
	c.JSON(http.StatusOK, embedResponse{Embedding: embedding.FromSeed(seed), ModelName: modelName})
}

// EmbedStream embeds the raw request body, seeding the vector from a digest
// of the payload so identical content embeds identically.
func (a *API) EmbedStream(c *gin.Context) {
	fileName := headerOr(c, "X-File-Name", "unknown")
	mimeType := headerOr(c, "X-Mime-Type", "application/octet-stream")
	tier := registry.ResolveTier(c.GetHeader("X-Model-Tier"))
	modelName, _ := registry.Resolve(registry.TaskEmbedding, tier)

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "read body"})
		return
	}
	log.Info().Str("file", fileName).Str("tier", string(tier)).Int("bytes", len(body)).Msg("embed stream requested")

	digest := sha256.Sum256(body)
	seed := fileName + "|" + mimeType + "|" + modelName + "|" + hex.EncodeToString(digest[:])
	c.JSON(http.StatusOK, embedResponse{Embedding: embedding.FromSeed(seed), ModelName: modelName})
}

// OCR is the placeholder recognition endpoint: it derives text from the file
// name until a real OCR model is wired in.
func (a *API) OCR(c *gin.Context) {
	var req embedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if _, err := registry.Resolve(registry.TaskOCR, req.ModelTier); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	log.Info().Str("file_id", req.FileID).Str("tier", string(req.ModelTier)).Msg("ocr requested")
	c.JSON(http.StatusOK, ocrResponse{Text: textFromFileName(req.FileName), Language: "en"})
}

func (a *API) OCRStream(c *gin.Context) {
	tier := registry.ResolveTier(c.GetHeader("X-Model-Tier"))
	if _, err := registry.Resolve(registry.TaskOCR, tier); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	fileName := headerOr(c, "X-File-Name", "file")
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "read body"})
		return
	}
	log.Info().Str("file", fileName).Str("tier", string(tier)).Int("bytes", len(body)).Msg("ocr stream requested")

	digest := sha256.Sum256(body)
	text := textFromFileName(fileName) + " (" + hex.EncodeToString(digest[:])[:12] + ")"
	c.JSON(http.StatusOK, ocrResponse{Text: text, Language: "en"})
}

func (a *API) DetectObjects(c *gin.Context) {
	var req embedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if _, err := registry.Resolve(registry.TaskObjectDetection, req.ModelTier); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	log.Info().Str("file_id", req.FileID).Str("tier", string(req.ModelTier)).Msg("object detection requested")
	c.JSON(http.StatusOK, detectObjectsResponse{Objects: detect.ObjectsFromText(req.FileName)})
}

func (a *API) DetectObjectsStream(c *gin.Context) {
	tier := registry.ResolveTier(c.GetHeader("X-Model-Tier"))
	if _, err := registry.Resolve(registry.TaskObjectDetection, tier); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	fileName := headerOr(c, "X-File-Name", "file")
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "read body"})
		return
	}
	log.Info().Str("file", fileName).Str("tier", string(tier)).Int("bytes", len(body)).Msg("object stream requested")

	digest := sha256.Sum256(body)
	objects := detect.ObjectsFromText(fileName + " " + hex.EncodeToString(digest[:]))
	c.JSON(http.StatusOK, detectObjectsResponse{Objects: objects})
}

// readUpload extracts (fileName, mimeType, payload) from a multipart form or
// a raw request body.
func readUpload(c *gin.Context) (string, string, []byte, error) {
	if fileHeader, err := c.FormFile("file"); err == nil {
		opened, err := fileHeader.Open()
		if err != nil {
			return "", "", nil, err
		}
		defer func() { _ = opened.Close() }()
		payload, err := io.ReadAll(opened)
		if err != nil {
			return "", "", nil, err
		}
		return fileHeader.Filename, fileHeader.Header.Get("Content-Type"), payload, nil
	}

	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return "", "", nil, err
	}
	fileName := headerOr(c, "X-File-Name", "unknown")
	mimeType := c.ContentType()
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return fileName, mimeType, payload, nil
}

func headerOr(c *gin.Context, key, fallback string) string {
	if value := c.GetHeader(key); value != "" {
		return value
	}
	return fallback
}

// textFromFileName turns "my_summer-photo.jpg" into "my summer photo".
func textFromFileName(fileName string) string {
	base := strings.TrimSuffix(fileName, filepath.Ext(fileName))
	base = strings.ReplaceAll(base, "_", " ")
	base = strings.ReplaceAll(base, "-", " ")
	if text := strings.TrimSpace(base); text != "" {
		return text
	}
	return "No extracted text"
}

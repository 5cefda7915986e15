package http

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/salescoach/backend/internal/domain"
	"github.com/salescoach/backend/internal/infrastructure/ingest"
	"github.com/salescoach/backend/internal/usecase"
)

const (
	serviceName    = "salescoach-backend"
	serviceVersion = "1.0.0"
	uploadField    = "files"
)

// Services groups the usecases the handler delegates to. A nil service answers 503.
type Services struct {
	Catalog *usecase.CatalogService
	Upload  *usecase.UploadService
	Auth    *usecase.AuthService
	Chat    *usecase.ChatService
	Quiz    *usecase.QuizService
	Scripts *usecase.ScriptService
}

// UploadConfig bounds admin uploads
type UploadConfig struct {
	Dir      string
	MaxBytes int64
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	svc    Services
	upload UploadConfig
	logger zerolog.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(svc Services, upload UploadConfig, logger zerolog.Logger) *Handler {
	if upload.Dir == "" {
		upload.Dir = os.TempDir()
	}
	if upload.MaxBytes <= 0 {
		upload.MaxBytes = 20 << 20
	}
	return &Handler{svc: svc, upload: upload, logger: logger}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": serviceName,
		"version": serviceVersion,
	})
}

// RequestOTP handles POST /api/v1/auth/otp
func (h *Handler) RequestOTP(c *gin.Context) {
	if !h.available(c, h.svc.Auth != nil) {
		return
	}
	var req domain.OTPRequest
	if !bindJSON(c, &req) {
		return
	}

	expiresAt, err := h.svc.Auth.RequestOTP(c.Request.Context(), req.Identifier)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "verification code sent", "expiresAt": expiresAt})
}

// VerifyOTP handles POST /api/v1/auth/verify
func (h *Handler) VerifyOTP(c *gin.Context) {
	if !h.available(c, h.svc.Auth != nil) {
		return
	}
	var req domain.OTPVerifyRequest
	if !bindJSON(c, &req) {
		return
	}

	session, err := h.svc.Auth.VerifyOTP(c.Request.Context(), req.Identifier, req.Code)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// Logout handles POST /api/v1/auth/logout
func (h *Handler) Logout(c *gin.Context) {
	if err := h.svc.Auth.Logout(c.Request.Context(), bearerToken(c)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListProducts handles GET /api/v1/products
func (h *Handler) ListProducts(c *gin.Context) {
	if !h.available(c, h.svc.Catalog != nil) {
		return
	}
	entries, err := h.svc.Catalog.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": entries, "count": len(entries)})
}

// GetProduct handles GET /api/v1/products/:id
func (h *Handler) GetProduct(c *gin.Context) {
	if !h.available(c, h.svc.Catalog != nil) {
		return
	}
	id, ok := productID(c)
	if !ok {
		return
	}
	entry, err := h.svc.Catalog.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

// createProductRequest is the body of POST /api/v1/admin/products
type createProductRequest struct {
	Record domain.VehicleRecord `json:"record"`
	Image  string               `json:"image"`
}

// CreateProduct handles POST /api/v1/admin/products
func (h *Handler) CreateProduct(c *gin.Context) {
	if !h.available(c, h.svc.Catalog != nil) {
		return
	}
	var req createProductRequest
	if !bindJSON(c, &req) {
		return
	}

	entry, err := h.svc.Catalog.Create(c.Request.Context(), req.Record, req.Image)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

// UpdateProduct handles PUT /api/v1/admin/products/:id
func (h *Handler) UpdateProduct(c *gin.Context) {
	if !h.available(c, h.svc.Catalog != nil) {
		return
	}
	id, ok := productID(c)
	if !ok {
		return
	}
	var patch domain.CatalogPatch
	if !bindJSON(c, &patch) {
		return
	}

	entry, err := h.svc.Catalog.Update(c.Request.Context(), id, patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

// DeleteProduct handles DELETE /api/v1/admin/products/:id
func (h *Handler) DeleteProduct(c *gin.Context) {
	if !h.available(c, h.svc.Catalog != nil) {
		return
	}
	id, ok := productID(c)
	if !ok {
		return
	}

	removed, err := h.svc.Catalog.Delete(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": removed})
}

// ExtractFiles handles POST /api/v1/admin/extract with multipart "files"
func (h *Handler) ExtractFiles(c *gin.Context) {
	if !h.available(c, h.svc.Upload != nil) {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.upload.MaxBytes)
	form, err := c.MultipartForm()
	if err != nil {
		respondError(c, fmt.Errorf("%w: expected multipart form with %q (max %d MB): %v",
			domain.ErrInvalidRequest, uploadField, h.upload.MaxBytes>>20, err))
		return
	}
	defer func() { _ = form.RemoveAll() }()

	files := form.File[uploadField]
	if len(files) == 0 {
		respondError(c, fmt.Errorf("%w: no files uploaded", domain.ErrInvalidRequest))
		return
	}

	artifacts := make([]usecase.Artifact, 0, len(files))
	for _, fh := range files {
		artifact, err := h.saveUpload(c, fh)
		if err != nil {
			h.logger.Error().Err(err).Str("file", fh.Filename).Msg("failed to store upload")
			for _, a := range artifacts {
				_ = os.Remove(a.Path)
			}
			respondError(c, err)
			return
		}
		artifacts = append(artifacts, artifact)
	}

	c.JSON(http.StatusOK, h.svc.Upload.ProcessFiles(c.Request.Context(), artifacts))
}

// saveUpload copies an uploaded part to a uniquely named file in the upload directory
func (h *Handler) saveUpload(c *gin.Context, fh *multipart.FileHeader) (usecase.Artifact, error) {
	name := filepath.Base(fh.Filename)
	path := filepath.Join(h.upload.Dir, uuid.NewString()+filepath.Ext(name))
	if err := c.SaveUploadedFile(fh, path); err != nil {
		return usecase.Artifact{}, err
	}
	return usecase.Artifact{
		Path:      path,
		Name:      name,
		MediaType: ingest.DetectMediaType(name, fh.Header.Get("Content-Type")),
	}, nil
}

// extractURLRequest is the body of POST /api/v1/admin/extract-url
type extractURLRequest struct {
	URL string `json:"url" binding:"required"`
}

// ExtractURL handles POST /api/v1/admin/extract-url
func (h *Handler) ExtractURL(c *gin.Context) {
	if !h.available(c, h.svc.Upload != nil) {
		return
	}
	var req extractURLRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.svc.Upload.ProcessURL(c.Request.Context(), req.URL)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, domain.ExtractionSummary{
		Results: []domain.ExtractionResult{result},
		Errors:  []domain.ExtractionFailure{},
	})
}

// ListQuiz handles GET /api/v1/quiz?category=&limit=
func (h *Handler) ListQuiz(c *gin.Context) {
	if !h.available(c, h.svc.Quiz != nil) {
		return
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respondError(c, fmt.Errorf("%w: limit must be a non-negative integer", domain.ErrInvalidRequest))
			return
		}
		limit = n
	}

	questions, err := h.svc.Quiz.Questions(c.Request.Context(), c.Query("category"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"questions": questions})
}

// SubmitQuiz handles POST /api/v1/quiz/submit
func (h *Handler) SubmitQuiz(c *gin.Context) {
	if !h.available(c, h.svc.Quiz != nil) {
		return
	}
	var submission domain.QuizSubmission
	if !bindJSON(c, &submission) {
		return
	}

	result, err := h.svc.Quiz.Grade(c.Request.Context(), submission)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ListScripts handles GET /api/v1/scripts?category=&q=
func (h *Handler) ListScripts(c *gin.Context) {
	if !h.available(c, h.svc.Scripts != nil) {
		return
	}
	scripts, err := h.svc.Scripts.Search(c.Request.Context(), c.Query("category"), c.Query("q"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"scripts": scripts})
}

// Chat handles POST /api/v1/chat
func (h *Handler) Chat(c *gin.Context) {
	if !h.available(c, h.svc.Chat != nil) {
		return
	}
	var req domain.ChatRequest
	if !bindJSON(c, &req) {
		return
	}

	reply, err := h.svc.Chat.Reply(c.Request.Context(), req.Messages)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reply)
}

func (h *Handler) available(c *gin.Context, ok bool) bool {
	if !ok {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "service not configured"})
	}
	return ok
}

func bindJSON(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		respondError(c, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err))
		return false
	}
	return true
}

func productID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, fmt.Errorf("%w: product id must be an integer", domain.ErrInvalidRequest))
		return 0, false
	}
	return id, true
}

// respondError maps domain errors onto HTTP statuses
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)

	var netErr *domain.NetworkError
	if errors.As(err, &netErr) {
		status := http.StatusBadGateway
		if netErr.Kind == domain.NetworkTimeout {
			status = http.StatusGatewayTimeout
		}
		c.JSON(status, gin.H{"error": netErr.UserMessage()})
		return
	}

	status, message := http.StatusInternalServerError, "internal server error"
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status, message = http.StatusNotFound, err.Error()
	case errors.Is(err, domain.ErrInvalidRequest):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrUnsupportedMediaType):
		status, message = http.StatusUnsupportedMediaType, err.Error()
	case errors.Is(err, domain.ErrDecodeFailure):
		status, message = http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, domain.ErrInvalidOTP), errors.Is(err, domain.ErrOTPExpired):
		status, message = http.StatusUnauthorized, err.Error()
	case errors.Is(err, domain.ErrTooManyAttempts), errors.Is(err, domain.ErrRateLimited):
		status, message = http.StatusTooManyRequests, err.Error()
	case errors.Is(err, domain.ErrExternalService):
		status, message = http.StatusBadGateway, "upstream service unavailable"
	}
	c.JSON(status, gin.H{"error": message})
}

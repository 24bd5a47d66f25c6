package http_handler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"strconv"
	"strings"
	"time"

	"github.com/anthanhphan/go-dedup-file-store/internal/server/config"
	"github.com/anthanhphan/go-dedup-file-store/internal/server/domain"
	"github.com/anthanhphan/go-dedup-file-store/internal/server/port"
	sdklogger "github.com/anthanhphan/gosdk/logger"
	"github.com/dustin/go-humanize"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

type Server struct {
	app     *fiber.App
	cfg     *config.Config
	service port.FileStoreService
}

func NewServer(cfg *config.Config, service port.FileStoreService) *Server {
	app := fiber.New(fiber.Config{
		BodyLimit:         int(cfg.App.MaxFileSize),
		StreamRequestBody: true,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New())

	s := &Server{
		app:     app,
		cfg:     cfg,
		service: service,
	}

	s.registerRoutes()

	return s
}

func (s *Server) registerRoutes() {
	api := s.app.Group("/api")

	api.Post("/files", s.handleUpload)
	api.Post("/files/upload-chunk", s.handleUploadChunk)
	api.Get("/files", s.handleListFiles)
	api.Delete("/files/:id", s.handleDeleteFile)
	api.Get("/files/:id/download", s.handleDownloadFile)

	api.Get("/summaries/weekly", s.handleWeeklySummary)
	api.Get("/summaries/yearly", s.handleYearlySummary)

	api.Post("/admin/gc", s.handleGC)
	api.Get("/admin/integrity", s.handleIntegrity)
}

func (s *Server) Start() error {
	return s.app.Listen(s.cfg.Server.Addr)
}

func (s *Server) Stop(ctx context.Context) error {
	return s.app.Shutdown()
}

func (s *Server) sendJSONError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": message,
	})
}

// sendServiceError maps engine errors onto HTTP statuses.
func (s *Server) sendServiceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, port.ErrFileNotFound), errors.Is(err, port.ErrContentNotFound):
		return s.sendJSONError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, port.ErrSessionExpired):
		return s.sendJSONError(c, fiber.StatusGone, err.Error())
	case errors.Is(err, domain.ErrChunkTooLarge), errors.Is(err, domain.ErrFileTooLarge):
		return s.sendJSONError(c, fiber.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, port.ErrChunkOutOfRange),
		errors.Is(err, port.ErrTotalChunksMismatch),
		errors.Is(err, port.ErrMissingChunkPayload),
		errors.Is(err, port.ErrMissingUploadID),
		errors.Is(err, port.ErrInvalidTotalChunks):
		return s.sendJSONError(c, fiber.StatusBadRequest, err.Error())
	default:
		return s.sendJSONError(c, fiber.StatusInternalServerError, err.Error())
	}
}

// fileResponse is the boundary rendering of a file record.
type fileResponse struct {
	ID                 string    `json:"id"`
	OriginalFilename   string    `json:"original_filename"`
	FileType           string    `json:"file_type"`
	Size               int64     `json:"size"`
	SizeDisplay        string    `json:"size_display"`
	ContentFingerprint string    `json:"content_fingerprint"`
	UploadedAt         time.Time `json:"uploaded_at"`
}

func toFileResponse(record *domain.FileRecord) fileResponse {
	return fileResponse{
		ID:                 record.ID,
		OriginalFilename:   record.OriginalFilename,
		FileType:           record.FileType,
		Size:               record.Size,
		SizeDisplay:        humanize.IBytes(uint64(record.Size)), // #nosec G115 -- sizes are non-negative
		ContentFingerprint: record.ContentFingerprint,
		UploadedAt:         record.UploadedAt,
	}
}

func (s *Server) handleUpload(c *fiber.Ctx) error {
	contentType := c.Get("Content-Type")
	if !strings.HasPrefix(contentType, "multipart/form-data") {
		return s.sendJSONError(c, fiber.StatusBadRequest, "Content-Type must be multipart/form-data")
	}

	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return s.sendJSONError(c, fiber.StatusBadRequest, "Invalid Content-Type")
	}
	boundary, ok := params["boundary"]
	if !ok {
		return s.sendJSONError(c, fiber.StatusBadRequest, "Missing boundary in Content-Type")
	}

	// Use raw request body stream
	bodyStream := c.Context().RequestBodyStream()
	if bodyStream == nil {
		bodyStream = bytes.NewReader(c.Body())
	}
	mr := multipart.NewReader(bodyStream, boundary)

	var fileName string
	var fileType string
	var src io.Reader

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return s.sendJSONError(c, fiber.StatusInternalServerError, fmt.Sprintf("Failed to read multipart: %v", err))
		}

		if part.FileName() != "" {
			fileName = part.FileName()
			fileType = part.Header.Get("Content-Type")
			src = part
			break
		}
		_ = part.Close()
	}

	if src == nil {
		return s.sendJSONError(c, fiber.StatusBadRequest, "Missing 'file' part")
	}
	if fileType == "" {
		fileType = "application/octet-stream"
	}

	record, isDuplicate, err := s.service.UploadFile(c.Context(), fileName, fileType, src)
	if err != nil {
		sdklogger.Errorw("Upload failed", "file_name", fileName, "error", err.Error())
		return s.sendServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"file":         toFileResponse(record),
		"is_duplicate": isDuplicate,
	})
}

func (s *Server) handleUploadChunk(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return s.sendJSONError(c, fiber.StatusBadRequest, "Expected multipart form data")
	}

	uploadID := formValue(form, "upload_id")
	chunkIndex, err := strconv.Atoi(formValue(form, "chunk_index"))
	if err != nil {
		return s.sendJSONError(c, fiber.StatusBadRequest, "Invalid 'chunk_index'")
	}
	totalChunks, err := strconv.Atoi(formValue(form, "total_chunks"))
	if err != nil {
		return s.sendJSONError(c, fiber.StatusBadRequest, "Invalid 'total_chunks'")
	}
	fileName := formValue(form, "filename")
	fileType := formValue(form, "file_type")
	if fileType == "" {
		fileType = "application/octet-stream"
	}

	chunkFiles := form.File["chunk"]
	if len(chunkFiles) == 0 {
		return s.sendJSONError(c, fiber.StatusBadRequest, "Missing 'chunk' part")
	}
	if chunkFiles[0].Size > s.cfg.App.ChunkSize {
		return s.sendJSONError(c, fiber.StatusRequestEntityTooLarge, "Chunk exceeds maximum size")
	}

	chunkFile, err := chunkFiles[0].Open()
	if err != nil {
		return s.sendJSONError(c, fiber.StatusInternalServerError, fmt.Sprintf("Failed to open chunk: %v", err))
	}
	data, err := io.ReadAll(chunkFile)
	_ = chunkFile.Close()
	if err != nil {
		return s.sendJSONError(c, fiber.StatusInternalServerError, fmt.Sprintf("Failed to read chunk: %v", err))
	}

	result, err := s.service.UploadChunk(c.Context(), port.ChunkUpload{
		UploadID:    uploadID,
		ChunkIndex:  chunkIndex,
		TotalChunks: totalChunks,
		FileName:    fileName,
		FileType:    fileType,
		Data:        data,
	})
	if err != nil {
		sdklogger.Warnw("Chunk upload rejected",
			"upload_id", uploadID, "chunk_index", chunkIndex, "error", err.Error())
		return s.sendServiceError(c, err)
	}

	if !result.Complete {
		return c.JSON(fiber.Map{
			"complete":        false,
			"received_chunks": result.ReceivedChunks,
			"total_chunks":    result.TotalChunks,
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"complete":     true,
		"is_duplicate": result.IsDuplicate,
		"file":         toFileResponse(result.File),
	})
}

func (s *Server) handleListFiles(c *fiber.Ctx) error {
	records, err := s.service.ListFiles(c.Context())
	if err != nil {
		return s.sendServiceError(c, err)
	}

	out := make([]fileResponse, 0, len(records))
	for _, record := range records {
		out = append(out, toFileResponse(record))
	}
	return c.JSON(out)
}

func (s *Server) handleDeleteFile(c *fiber.Ctx) error {
	fileID := c.Params("id")
	if err := s.service.DeleteFile(c.Context(), fileID); err != nil {
		return s.sendServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleDownloadFile(c *fiber.Ctx) error {
	fileID := c.Params("id")

	record, err := s.service.DownloadFile(c.Context(), fileID, c.Response().BodyWriter())
	if err != nil {
		sdklogger.Errorw("Download failed", "file_id", fileID, "error", err.Error())
		return s.sendServiceError(c, err)
	}

	// fasthttp buffers the response, so headers may still be set here.
	c.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", record.OriginalFilename))
	c.Set("Content-Type", record.FileType)
	return nil
}

func (s *Server) handleWeeklySummary(c *fiber.Ctx) error {
	summary, err := s.service.WeeklySummary(c.Context())
	if err != nil {
		return s.sendServiceError(c, err)
	}
	return c.JSON(summary)
}

func (s *Server) handleYearlySummary(c *fiber.Ctx) error {
	summary, err := s.service.YearlySummary(c.Context())
	if err != nil {
		return s.sendServiceError(c, err)
	}
	return c.JSON(summary)
}

func (s *Server) handleGC(c *fiber.Ctx) error {
	dryRun := c.QueryBool("dry_run", false)
	report, err := s.service.CollectGarbage(c.Context(), dryRun)
	if err != nil {
		return s.sendServiceError(c, err)
	}
	return c.JSON(report)
}

func (s *Server) handleIntegrity(c *fiber.Ctx) error {
	report, err := s.service.IntegrityReport(c.Context())
	if err != nil {
		return s.sendServiceError(c, err)
	}
	return c.JSON(report)
}

func formValue(form *multipart.Form, key string) string {
	values := form.Value[key]
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

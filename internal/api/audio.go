package api

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Uploads above this size are rejected.
const maxAudioFileSize = 10 * 1024 * 1024

func (s *Server) uploadAudio(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Audio file is required",
		})
	}

	if fileHeader.Size > maxAudioFileSize {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "file_too_large",
			Message: "File too large. Max size: 10MB",
		})
	}

	ext := strings.TrimPrefix(filepath.Ext(fileHeader.Filename), ".")

	file, err := fileHeader.Open()
	if err != nil {
		s.logger.Error("Failed to open uploaded file", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "upload_failure",
			Message: "Failed to read uploaded file",
		})
	}
	defer file.Close()

	stored, err := s.audioStore.Save(file, ext)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_file_type",
			Message: err.Error(),
		})
	}

	return c.JSON(http.StatusOK, UploadAudioResponse{
		ID:       stored.ID,
		Filename: stored.Filename,
		URL:      stored.URL,
	})
}

func (s *Server) streamAudio(c echo.Context) error {
	id := c.Param("id")

	path, mediaType, err := s.audioStore.Lookup(id)
	if err != nil {
		return c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "Audio file not found",
		})
	}

	f, err := os.Open(path)
	if err != nil {
		s.logger.Error("Failed to open stored audio",
			zap.String("path", path),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "storage_failure",
			Message: "Failed to open audio file",
		})
	}
	defer f.Close()

	return c.Stream(http.StatusOK, mediaType, f)
}

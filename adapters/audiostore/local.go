package audiostore

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/medtranslate/server/domain/repositories"
)

// AllowedExtensions lists the audio formats accepted for upload.
var AllowedExtensions = []string{"webm", "wav", "mp3", "ogg", "m4a"}

var mediaTypes = map[string]string{
	"webm": "audio/webm",
	"wav":  "audio/wav",
	"mp3":  "audio/mpeg",
	"ogg":  "audio/ogg",
	"m4a":  "audio/mp4",
}

// Local stores audio files on the local filesystem under a single root
// directory, one file per upload, named by a generated id.
type Local struct {
	root   string
	logger *zap.Logger
}

var _ repositories.AudioStore = (*Local)(nil)

// NewLocal creates the storage root if needed and returns the store.
func NewLocal(root string, logger *zap.Logger) (*Local, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create audio storage root: %w", err)
	}
	return &Local{root: root, logger: logger}, nil
}

// Save writes the payload under a fresh id and returns its stored identity.
func (l *Local) Save(r io.Reader, ext string) (repositories.StoredAudio, error) {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	if !allowed(ext) {
		return repositories.StoredAudio{}, fmt.Errorf("invalid file type %q", ext)
	}

	id := uuid.NewString()
	filename := id + "." + ext
	path := filepath.Join(l.root, filename)

	f, err := os.Create(path)
	if err != nil {
		return repositories.StoredAudio{}, fmt.Errorf("failed to create audio file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(path)
		return repositories.StoredAudio{}, fmt.Errorf("failed to write audio file: %w", err)
	}

	l.logger.Info("Audio file stored",
		zap.String("id", id),
		zap.String("filename", filename))

	return repositories.StoredAudio{
		ID:       id,
		Filename: filename,
		URL:      "/api/audio/" + id,
	}, nil
}

// Resolve maps an audio URL to the path of the stored file. The id is the
// URL's last path segment.
func (l *Local) Resolve(audioURL string) (string, error) {
	segments := strings.Split(strings.TrimSuffix(audioURL, "/"), "/")
	id := segments[len(segments)-1]
	if id == "" {
		return "", fmt.Errorf("audio URL %q carries no id", audioURL)
	}

	path, _, err := l.Lookup(id)
	return path, err
}

// Lookup finds a stored file by id across the allowed extensions.
func (l *Local) Lookup(id string) (string, string, error) {
	for _, ext := range AllowedExtensions {
		path := filepath.Join(l.root, id+"."+ext)
		if _, err := os.Stat(path); err == nil {
			return path, mediaTypes[ext], nil
		}
	}
	return "", "", fmt.Errorf("audio file %q not found", id)
}

func allowed(ext string) bool {
	for _, e := range AllowedExtensions {
		if e == ext {
			return true
		}
	}
	return false
}

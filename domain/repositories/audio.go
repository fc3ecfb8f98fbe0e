package repositories

import "io"

// StoredAudio describes an uploaded audio file.
type StoredAudio struct {
	ID       string
	Filename string
	URL      string
}

// AudioStore persists uploaded audio and resolves audio URLs back to
// readable files.
type AudioStore interface {
	// Save writes the audio payload and returns its stored identity.
	Save(r io.Reader, ext string) (StoredAudio, error)

	// Resolve maps an audio URL (its last path segment is the id) to the
	// path of the stored file.
	Resolve(audioURL string) (string, error)

	// Lookup finds a stored file by id, returning its path and media type.
	Lookup(id string) (path, mediaType string, err error)
}

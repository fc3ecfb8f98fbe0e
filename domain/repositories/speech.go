package repositories

import "context"

// Transcriber turns a stored audio resource into text. Transcription is
// best-effort: it sits on the live relay path, so every failure collapses
// to ok == false instead of an error the caller would have to handle.
type Transcriber interface {
	Transcribe(ctx context.Context, audioURL string) (text string, ok bool)
}

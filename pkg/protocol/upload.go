package protocol

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// MaxUploadBytes is the largest file the backend accepts.
const MaxUploadBytes = 10 * 1024 * 1024

var (
	// ErrFileTooLarge means the file exceeds MaxUploadBytes.
	ErrFileTooLarge = errors.New("file exceeds 10 MiB upload limit")
	// ErrFileType means the file's extension is not in the accepted set.
	ErrFileType = errors.New("unsupported file type")
)

// uploadTypes maps accepted extensions to the MIME type reported to the
// backend.
var uploadTypes = map[string]string{
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".png":  "image/png",
	".txt":  "text/plain",
	".pdf":  "application/pdf",
	".ppt":  "application/vnd.ms-powerpoint",
	".pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
}

// AcceptedExtensions lists the file extensions the backend accepts, for
// user-facing messages.
func AcceptedExtensions() []string {
	return []string{".doc", ".docx", ".pdf", ".png", ".ppt", ".pptx", ".txt"}
}

// LoadAttachment reads a file from disk and validates it against the upload
// rules. Validation happens here, before the file reaches the messaging
// client.
func LoadAttachment(path string) (*Attachment, error) {
	ext := strings.ToLower(filepath.Ext(path))
	mime, ok := uploadTypes[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %s (accepted: %s)", ErrFileType, ext, strings.Join(AcceptedExtensions(), " "))
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("reading attachment: %w", err)
	}
	if info.Size() > MaxUploadBytes {
		return nil, fmt.Errorf("%w: %s is %d bytes", ErrFileTooLarge, filepath.Base(path), info.Size())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading attachment: %w", err)
	}

	return &Attachment{
		Name: filepath.Base(path),
		Type: mime,
		Size: int64(len(data)),
		Data: data,
	}, nil
}

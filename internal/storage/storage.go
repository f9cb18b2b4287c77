package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"panchakarma/internal/domain"
)

var (
	ErrEmptyFile       = errors.New("empty file")
	ErrUnsupportedFile = errors.New("file type is not allowed")
	ErrUnknownFileURL  = errors.New("file url does not belong to this storage")
)

// Attachment describes an uploaded chat file, ready to be put on a message
type Attachment struct {
	URL         string
	Name        string
	MimeType    string
	Size        int64
	MessageType domain.MessageType
}

type FileStorage interface {
	UploadAttachment(ctx context.Context, sessionID, filename string, data []byte) (*Attachment, error)

	DeleteFile(ctx context.Context, fileURL string) error

	GetPresignedURL(ctx context.Context, fileURL string, expiry time.Duration) (string, error)
}

var blockedMimeTypes = []string{
	"application/x-msdownload",
	"application/x-executable",
	"application/x-mach-binary",
	"application/x-elf",
	"application/vnd.microsoft.portable-executable",
	"text/x-shellscript",
}

// inspect sniffs the payload, rejects executables and derives the message
// type and object key for an upload.
func inspect(sessionID, filename string, data []byte) (*Attachment, string, error) {
	if len(data) == 0 {
		return nil, "", ErrEmptyFile
	}

	mtype := mimetype.Detect(data)
	for _, blocked := range blockedMimeTypes {
		if mtype.Is(blocked) {
			return nil, "", fmt.Errorf("%w: %s", ErrUnsupportedFile, mtype.String())
		}
	}

	mime := mtype.String()
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}

	messageType := domain.MessageTypeFile
	switch {
	case strings.HasPrefix(mime, "image/"):
		messageType = domain.MessageTypeImage
	case strings.HasPrefix(mime, "audio/"):
		messageType = domain.MessageTypeAudio
	case strings.HasPrefix(mime, "video/"):
		messageType = domain.MessageTypeVideo
	}

	name := filepath.Base(filename)
	if name == "." || name == "/" {
		name = ""
	}
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		ext = mtype.Extension()
	}
	if name == "" {
		name = "attachment" + ext
	}

	key := fmt.Sprintf("chat/%s/%s%s", sessionID, uuid.New().String(), ext)

	return &Attachment{
		Name:        name,
		MimeType:    mime,
		Size:        int64(len(data)),
		MessageType: messageType,
	}, key, nil
}

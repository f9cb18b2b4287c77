package storage

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

const memoryBaseURL = "memory://attachments/"

// MemoryStorage keeps attachments in process memory for local runs without S3
type MemoryStorage struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{objects: make(map[string][]byte)}
}

func (s *MemoryStorage) UploadAttachment(_ context.Context, sessionID, filename string, data []byte) (*Attachment, error) {
	attachment, key, err := inspect(sessionID, filename, data)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.objects[key] = append([]byte(nil), data...)
	s.mu.Unlock()

	attachment.URL = memoryBaseURL + key
	return attachment, nil
}

func (s *MemoryStorage) DeleteFile(_ context.Context, fileURL string) error {
	key, ok := strings.CutPrefix(fileURL, memoryBaseURL)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownFileURL, fileURL)
	}

	s.mu.Lock()
	delete(s.objects, key)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStorage) GetPresignedURL(_ context.Context, fileURL string, _ time.Duration) (string, error) {
	key, ok := strings.CutPrefix(fileURL, memoryBaseURL)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownFileURL, fileURL)
	}

	s.mu.RLock()
	_, exists := s.objects[key]
	s.mu.RUnlock()
	if !exists {
		return "", fmt.Errorf("%w: %s", ErrUnknownFileURL, fileURL)
	}
	return fileURL, nil
}

// Len reports the number of stored objects
func (s *MemoryStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

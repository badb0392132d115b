package service

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/incident-reporter/pkg/errors"
)

// sniffLen covers the signatures of every image type we accept.
const sniffLen = 3072

type uploadFileStorage interface {
	SaveStream(name string, r io.Reader) (int64, error)
	Delete(name string) error
	PublicPath(name string) string
}

type uploadMetrics interface {
	RecordUpload(outcome string)
}

// FileUpload is a single file received from a multipart form.
type FileUpload struct {
	Filename string
	Size     int64
	MimeType string
	Content  io.Reader
}

// UploadResult describes a stored file. RelativePath is what gets persisted on the incident.
type UploadResult struct {
	RelativePath string `json:"relative_path"`
	SizeBytes    int64  `json:"size_bytes"`
	MimeType     string `json:"mime_type"`
}

// UploadServiceConfig holds validation limits.
type UploadServiceConfig struct {
	MaxFileSize  int64
	AllowedMIMEs []string
}

// UploadService validates and stores screenshot uploads.
type UploadService struct {
	storage uploadFileStorage
	metrics uploadMetrics
	logger  *zap.Logger
	cfg     UploadServiceConfig
	mimeSet map[string]struct{}
	now     func() time.Time
}

// NewUploadService constructs the service with defaults for unset limits.
func NewUploadService(storage uploadFileStorage, metrics uploadMetrics, logger *zap.Logger, cfg UploadServiceConfig) *UploadService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = 5 * 1024 * 1024
	}
	if len(cfg.AllowedMIMEs) == 0 {
		cfg.AllowedMIMEs = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}
	}
	mimeSet := make(map[string]struct{}, len(cfg.AllowedMIMEs))
	for _, mt := range cfg.AllowedMIMEs {
		mimeSet[strings.ToLower(strings.TrimSpace(mt))] = struct{}{}
	}
	return &UploadService{
		storage: storage,
		metrics: metrics,
		logger:  logger,
		cfg:     cfg,
		mimeSet: mimeSet,
		now:     time.Now,
	}
}

// MaxFileSize returns the configured per-file limit in bytes.
func (s *UploadService) MaxFileSize() int64 {
	return s.cfg.MaxFileSize
}

// Accept validates and writes the upload. A nil upload yields a nil pending
// upload and no error. Callers must Release the result, and Commit it once the
// referencing row is stored.
func (s *UploadService) Accept(ctx context.Context, upload *FileUpload) (*PendingUpload, error) {
	if upload == nil {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if upload.Content == nil || upload.Size == 0 {
		return nil, s.reject("empty file")
	}
	if upload.Size > s.cfg.MaxFileSize {
		return nil, s.reject(fmt.Sprintf("File too large. Maximum size is %d bytes.", s.cfg.MaxFileSize))
	}

	mimeType, content, err := s.detectMime(upload)
	if err != nil {
		return nil, err
	}
	if _, allowed := s.mimeSet[mimeType]; !allowed {
		return nil, s.reject("Invalid file type. Only images are allowed.")
	}

	name := s.generateFilename(upload.Filename, mimeType)
	written, err := s.storage.SaveStream(name, io.LimitReader(content, s.cfg.MaxFileSize+1))
	if err != nil {
		return nil, appErrors.Internal(err, "failed to store upload")
	}
	if written > s.cfg.MaxFileSize {
		s.delete(name)
		return nil, s.reject(fmt.Sprintf("File too large. Maximum size is %d bytes.", s.cfg.MaxFileSize))
	}
	if s.metrics != nil {
		s.metrics.RecordUpload(UploadAccepted)
	}

	return &PendingUpload{
		Result: UploadResult{
			RelativePath: s.storage.PublicPath(name),
			SizeBytes:    written,
			MimeType:     mimeType,
		},
		name:    name,
		service: s,
	}, nil
}

func (s *UploadService) reject(message string) error {
	if s.metrics != nil {
		s.metrics.RecordUpload(UploadRejected)
	}
	return appErrors.Clone(appErrors.ErrUploadRejected, message)
}

func (s *UploadService) delete(name string) {
	if err := s.storage.Delete(name); err != nil {
		s.logger.Warn("failed to remove upload", zap.String("file", name), zap.Error(err))
	}
}

// detectMime prefers the declared content type and sniffs the payload when none was sent.
func (s *UploadService) detectMime(upload *FileUpload) (string, io.Reader, error) {
	declared := normalizeMime(upload.MimeType)
	if declared != "" && declared != "application/octet-stream" {
		return declared, upload.Content, nil
	}
	header := make([]byte, sniffLen)
	n, err := io.ReadFull(upload.Content, header)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", nil, appErrors.Internal(err, "failed to inspect upload")
	}
	if n == 0 {
		return "", nil, s.reject("empty file")
	}
	detected := normalizeMime(mimetype.Detect(header[:n]).String())
	return detected, io.MultiReader(bytes.NewReader(header[:n]), upload.Content), nil
}

func (s *UploadService) generateFilename(original, mimeType string) string {
	ext := strings.ToLower(filepath.Ext(original))
	if !validExtension(ext) {
		ext = ""
		if known := mimetype.Lookup(mimeType); known != nil {
			ext = known.Extension()
		}
	}
	return fmt.Sprintf("screenshot-%d-%s%s", s.now().UnixMilli(), randomSuffix(), ext)
}

func normalizeMime(raw string) string {
	if idx := strings.Index(raw, ";"); idx >= 0 {
		raw = raw[:idx]
	}
	return strings.ToLower(strings.TrimSpace(raw))
}

func validExtension(ext string) bool {
	if len(ext) < 2 || len(ext) > 6 || ext[0] != '.' {
		return false
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}

func randomSuffix() string {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}

// PendingUpload is a stored file that is deleted on Release unless committed.
type PendingUpload struct {
	Result UploadResult

	name      string
	service   *UploadService
	mu        sync.Mutex
	committed bool
	released  bool
}

// Commit keeps the file. Safe on a nil receiver.
func (p *PendingUpload) Commit() {
	if p == nil {
		return
	}
	p.mu.Lock()
	p.committed = true
	p.mu.Unlock()
}

// Release deletes the file unless it was committed. Deletion failures are
// logged and swallowed. Calling it more than once is a no-op.
func (p *PendingUpload) Release() {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.committed || p.released {
		return
	}
	p.released = true
	p.service.delete(p.name)
	if p.service.metrics != nil {
		p.service.metrics.RecordUpload(UploadReleased)
	}
}

// ResultPtr returns the upload result, or nil for a nil pending upload.
func (p *PendingUpload) ResultPtr() *UploadResult {
	if p == nil {
		return nil
	}
	result := p.Result
	return &result
}

// Package watcher uploads documents dropped into watched folders. Files are
// uploaded once, on creation; edits to an already-uploaded file are not
// re-uploaded because the backend has no replace operation.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"docchat/internal/logging"
	"docchat/internal/model"

	"github.com/fsnotify/fsnotify"
)

// Uploader is the slice of the backend the watcher needs.
type Uploader interface {
	UploadDocument(ctx context.Context, up model.DocumentUpload) (*model.Response[model.Document], error)
}

// Watcher monitors folders and uploads new allow-listed files.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	uploader  Uploader
	maxSize   int64
	logger    *logging.Logger
}

// NewWatcher creates a folder watcher. maxSizeMB bounds the files it will
// upload.
func NewWatcher(uploader Uploader, maxSizeMB int, logger *logging.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if logger == nil {
		logger = logging.NewLogger("watcher", logging.INFO, nil)
	}
	return &Watcher{
		fsWatcher: fsw,
		uploader:  uploader,
		maxSize:   int64(maxSizeMB) * 1024 * 1024,
		logger:    logger,
	}, nil
}

// AddFolder starts watching a folder for new documents.
func (w *Watcher) AddFolder(path string) error {
	logger := w.logger.With("folder_path", path)

	if err := validatePath(path); err != nil {
		logger.Error("invalid folder path: %v", err)
		return err
	}
	if err := w.fsWatcher.Add(path); err != nil {
		logger.Error("failed to watch folder: %v", err)
		return fmt.Errorf("failed to watch folder: %w", err)
	}

	logger.Debug("watching folder")
	return nil
}

// Start runs the event loop until ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) {
	w.logger.Debug("file watcher started")
	for {
		select {
		case <-ctx.Done():
			w.fsWatcher.Close()
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handleEvent(ctx, event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("watcher error: %v", err)
		}
	}
}

// Close stops watching. Safe to call after Start has returned.
func (w *Watcher) Close() error {
	return w.fsWatcher.Close()
}

func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	if !event.Op.Has(fsnotify.Create) {
		return
	}
	if !w.shouldUpload(event.Name) {
		return
	}

	w.logger.With("file_path", event.Name).Debug("file created")
	w.uploadFile(ctx, event.Name)
}

// shouldUpload gates on the document allow-list and the size limit.
func (w *Watcher) shouldUpload(path string) bool {
	if !model.AllowedFileType(path) {
		return false
	}

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	if info.Size() > w.maxSize {
		w.logger.With("file_path", path).Warn("file exceeds size limit (%d > %d)", info.Size(), w.maxSize)
		return false
	}
	return true
}

// uploadFile reads the file and submits it for ingestion. The title is left
// empty so the backend derives it from the file name.
func (w *Watcher) uploadFile(ctx context.Context, path string) {
	logger := w.logger.With("file_path", path)

	data, err := os.ReadFile(path)
	if err != nil {
		logger.Error("failed to read file: %v", err)
		return
	}

	fileName := filepath.Base(path)
	resp, err := w.uploader.UploadDocument(ctx, model.DocumentUpload{
		FileName: fileName,
		FileType: model.DetectFileType(fileName),
		Data:     data,
	})
	if err != nil {
		logger.Error("upload failed: %v", err)
		return
	}
	if !resp.Success {
		logger.Warn("upload rejected: %s (%s)", resp.Error.Message, resp.Error.Code)
		return
	}

	logger.With("document_id", resp.Data.ID).Info("document uploaded")
}

// validatePath blocks system directories and requires an existing directory.
func validatePath(path string) error {
	systemDirs := []string{"/etc", "/System", "/Windows", "/sys", "/proc", "C:\\Windows", "C:\\System"}
	for _, sysDir := range systemDirs {
		if strings.HasPrefix(path, sysDir) {
			return fmt.Errorf("cannot watch system directory: %s", path)
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("path does not exist: %s", path)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", path)
	}
	return nil
}

package model

import (
	"path"
	"strings"
	"time"
)

const (
	FileTypeFile      = "file"
	FileTypeDirectory = "directory"
)

// FileEntry is one node of a user's file tree. Path is the directory that
// contains the entry, e.g. "/" or "/public_html".
type FileEntry struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"userId"`
	Name       string    `json:"name"`
	Path       string    `json:"path"`
	Type       string    `json:"type"`
	Size       int64     `json:"size"`
	MimeType   *string   `json:"mimeType"`
	ModifiedAt time.Time `json:"modifiedAt"`
}

// FullPath is the path of the entry itself, i.e. the directory its children
// carry in their Path field.
func (f *FileEntry) FullPath() string {
	return path.Join(f.Path, f.Name)
}

// CleanDirPath normalizes a directory path to an absolute, slash-separated
// form without a trailing slash ("/" stays "/").
func CleanDirPath(p string) string {
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}

// FileVersion records a previous state of a file entry.
type FileVersion struct {
	ID        int64     `json:"id"`
	FileID    int64     `json:"fileId"`
	Version   int       `json:"version"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"createdAt"`
}

package model

import "time"

const (
	BackupTypeFull      = "full"
	BackupTypeFiles     = "files"
	BackupTypeDatabases = "databases"
	BackupTypeEmail     = "email"
)

type Backup struct {
	ID            int64      `json:"id"`
	UserID        int64      `json:"userId"`
	Name          string     `json:"name"`
	Type          string     `json:"type"`
	Status        string     `json:"status"`
	Size          int64      `json:"size"`
	StoragePath   string     `json:"storagePath,omitempty"`
	StatusMessage *string    `json:"statusMessage,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	CompletedAt   *time.Time `json:"completedAt,omitempty"`
}

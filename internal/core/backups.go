package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/edvin/hostpanel/internal/model"
	"github.com/edvin/hostpanel/internal/platform"
	"github.com/edvin/hostpanel/internal/store"
)

const archiveVersion = 1

type BackupInput struct {
	UserID int64  `json:"userId"`
	Name   string `json:"name" validate:"required,max=100"`
	Type   string `json:"type" validate:"required,oneof=full files databases email"`
}

type UpdateBackupInput struct {
	Name *string `json:"name" validate:"omitempty,max=100"`
}

// Archive is the JSON document written for a backup. Secrets and password
// hashes are never part of it.
type Archive struct {
	Version       int                  `json:"version"`
	Type          string               `json:"type"`
	CreatedAt     time.Time            `json:"createdAt"`
	User          model.UserSummary    `json:"user"`
	Domains       []model.Domain       `json:"domains,omitempty"`
	DnsRecords    []model.DnsRecord    `json:"dnsRecords,omitempty"`
	EmailAccounts []model.EmailAccount `json:"emailAccounts,omitempty"`
	Databases     []model.Database     `json:"databases,omitempty"`
	Files         []model.FileEntry    `json:"files,omitempty"`
}

type BackupService struct {
	store    store.Store
	clock    platform.Clock
	log      zerolog.Logger
	archiver Archiver
}

func NewBackupService(d Deps) *BackupService {
	return &BackupService{
		store:    d.Store,
		clock:    d.Clock,
		log:      d.Logger.With().Str("component", "backups").Logger(),
		archiver: d.Archiver,
	}
}

func (s *BackupService) List(ctx context.Context, actor Actor, userID *int64) ([]model.Backup, error) {
	f, err := actor.scope(userID)
	if err != nil {
		return nil, err
	}
	backups, err := s.store.ListBackups(ctx, f)
	if err != nil {
		return nil, storeErr(err, "backup")
	}
	return backups, nil
}

func (s *BackupService) Get(ctx context.Context, actor Actor, id int64) (*model.Backup, error) {
	b, err := s.store.GetBackup(ctx, id)
	if err != nil {
		return nil, storeErr(err, "backup")
	}
	if err := actor.authorize(b.UserID); err != nil {
		return nil, err
	}
	return b, nil
}

// Create snapshots the owner's panel records into an archive. The backup
// row is returned completed, or failed with a status message when the
// archive could not be written.
func (s *BackupService) Create(ctx context.Context, actor Actor, in BackupInput) (*model.Backup, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	ownerID, err := actor.owner(in.UserID)
	if err != nil {
		return nil, err
	}
	owner, err := s.store.GetUser(ctx, ownerID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, InvalidInput("user %d does not exist", ownerID)
		}
		return nil, storeErr(err, "user")
	}

	b := &model.Backup{
		UserID:    ownerID,
		Name:      in.Name,
		Type:      in.Type,
		Status:    model.StatusPending,
		CreatedAt: s.clock.Now(),
	}
	if err := s.store.CreateBackup(ctx, b); err != nil {
		return nil, storeErr(err, "backup")
	}

	key := fmt.Sprintf("backups/%d/%d-%s.json", ownerID, b.ID, b.CreatedAt.Format("20060102T150405Z"))
	size, archErr := s.writeArchive(ctx, owner, b.Type, key)
	if archErr != nil {
		msg := archErr.Error()
		b.Status = model.StatusFailed
		b.StatusMessage = &msg
		s.log.Error().Err(archErr).Int64("backup_id", b.ID).Msg("backup failed")
	} else {
		done := s.clock.Now()
		b.Status = model.StatusCompleted
		b.Size = size
		b.StoragePath = key
		b.CompletedAt = &done
		s.log.Info().Int64("backup_id", b.ID).Int64("size", size).Str("key", key).Msg("backup completed")
	}
	if err := s.store.UpdateBackup(ctx, b); err != nil {
		return nil, storeErr(err, "backup")
	}
	return b, nil
}

func (s *BackupService) Update(ctx context.Context, actor Actor, id int64, in UpdateBackupInput) (*model.Backup, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	b, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	assign(&b.Name, in.Name)
	if err := s.store.UpdateBackup(ctx, b); err != nil {
		return nil, storeErr(err, "backup")
	}
	return b, nil
}

// Download returns the archive bytes of a completed backup.
func (s *BackupService) Download(ctx context.Context, actor Actor, id int64) (*model.Backup, []byte, error) {
	b, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, nil, err
	}
	if b.Status != model.StatusCompleted || b.StoragePath == "" {
		return nil, nil, Conflict("backup %d is %s", b.ID, b.Status)
	}
	if s.archiver == nil {
		return nil, nil, Internal(errors.New("no archiver configured"), "backup storage unavailable")
	}
	data, err := s.archiver.Get(ctx, b.StoragePath)
	if err != nil {
		return nil, nil, Internal(err, "read backup archive")
	}
	return b, data, nil
}

// Delete removes the backup row and, best effort, its archive.
func (s *BackupService) Delete(ctx context.Context, actor Actor, id int64) error {
	b, err := s.Get(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteBackup(ctx, id); err != nil {
		return storeErr(err, "backup")
	}
	if b.StoragePath != "" && s.archiver != nil {
		if err := s.archiver.Delete(ctx, b.StoragePath); err != nil {
			s.log.Warn().Err(err).Str("key", b.StoragePath).Msg("failed to remove backup archive")
		}
	}
	return nil
}

func (s *BackupService) writeArchive(ctx context.Context, owner *model.User, kind, key string) (int64, error) {
	if s.archiver == nil {
		return 0, errors.New("no backup storage configured")
	}
	doc, err := s.snapshot(ctx, owner, kind)
	if err != nil {
		return 0, err
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("encode archive: %w", err)
	}
	if err := s.archiver.Put(ctx, key, data); err != nil {
		return 0, fmt.Errorf("store archive: %w", err)
	}
	return int64(len(data)), nil
}

func (s *BackupService) snapshot(ctx context.Context, owner *model.User, kind string) (*Archive, error) {
	f := store.ByUser(owner.ID)
	doc := &Archive{Version: archiveVersion, Type: kind, CreatedAt: s.clock.Now(), User: owner.Summary()}
	full := kind == model.BackupTypeFull
	var err error
	if full {
		if doc.Domains, err = s.store.ListDomains(ctx, f); err != nil {
			return nil, fmt.Errorf("list domains: %w", err)
		}
		if doc.DnsRecords, err = s.store.ListDnsRecords(ctx, f); err != nil {
			return nil, fmt.Errorf("list dns records: %w", err)
		}
	}
	if full || kind == model.BackupTypeEmail {
		if doc.EmailAccounts, err = s.store.ListEmailAccounts(ctx, f); err != nil {
			return nil, fmt.Errorf("list email accounts: %w", err)
		}
	}
	if full || kind == model.BackupTypeDatabases {
		if doc.Databases, err = s.store.ListDatabases(ctx, f); err != nil {
			return nil, fmt.Errorf("list databases: %w", err)
		}
	}
	if full || kind == model.BackupTypeFiles {
		if doc.Files, err = s.store.ListFileEntries(ctx, f); err != nil {
			return nil, fmt.Errorf("list files: %w", err)
		}
	}
	return doc, nil
}

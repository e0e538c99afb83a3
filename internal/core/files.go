package core

import (
	"context"
	"mime"
	"path"
	"strings"

	"github.com/rs/zerolog"

	"github.com/edvin/hostpanel/internal/model"
	"github.com/edvin/hostpanel/internal/platform"
	"github.com/edvin/hostpanel/internal/store"
)

type FileInput struct {
	UserID   int64   `json:"userId"`
	Name     string  `json:"name" validate:"required,max=255,excludesall=/\\"`
	Path     string  `json:"path" validate:"max=1024"`
	Type     string  `json:"type" validate:"required,oneof=file directory"`
	Size     int64   `json:"size" validate:"gte=0"`
	MimeType *string `json:"mimeType" validate:"omitempty,max=255"`
}

type UpdateFileInput struct {
	Name     *string `json:"name" validate:"omitempty,max=255,excludesall=/\\"`
	Path     *string `json:"path" validate:"omitempty,max=1024"`
	Size     *int64  `json:"size" validate:"omitempty,gte=0"`
	MimeType *string `json:"mimeType" validate:"omitempty,max=255"`
}

// UploadedFile is the metadata of one uploaded file. Contents are not kept.
type UploadedFile struct {
	Name     string `validate:"required,max=255,excludesall=/\\"`
	Size     int64  `validate:"gte=0"`
	MimeType string
}

// FileService manages the file-manager tree. Entries are addressed by the
// directory they live in; a directory's children carry its FullPath.
type FileService struct {
	store store.Store
	clock platform.Clock
	log   zerolog.Logger
}

func NewFileService(d Deps) *FileService {
	return &FileService{store: d.Store, clock: d.Clock, log: d.Logger.With().Str("component", "files").Logger()}
}

func (s *FileService) List(ctx context.Context, actor Actor, userID *int64) ([]model.FileEntry, error) {
	f, err := actor.scope(userID)
	if err != nil {
		return nil, err
	}
	files, err := s.store.ListFileEntries(ctx, f)
	if err != nil {
		return nil, storeErr(err, "file")
	}
	return files, nil
}

// ListAt returns the direct children of dir. Nested entries are not
// included.
func (s *FileService) ListAt(ctx context.Context, actor Actor, userID int64, dir string) ([]model.FileEntry, error) {
	if err := actor.authorize(userID); err != nil {
		return nil, err
	}
	files, err := s.store.ListFileEntriesAt(ctx, userID, model.CleanDirPath(dir))
	if err != nil {
		return nil, storeErr(err, "file")
	}
	return files, nil
}

func (s *FileService) Get(ctx context.Context, actor Actor, id int64) (*model.FileEntry, error) {
	f, err := s.store.GetFileEntry(ctx, id)
	if err != nil {
		return nil, storeErr(err, "file")
	}
	if err := actor.authorize(f.UserID); err != nil {
		return nil, err
	}
	return f, nil
}

func (s *FileService) Create(ctx context.Context, actor Actor, in FileInput) (*model.FileEntry, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	if in.Name == "." || in.Name == ".." {
		return nil, InvalidInput("name %q is reserved", in.Name)
	}
	ownerID, err := actor.owner(in.UserID)
	if err != nil {
		return nil, err
	}
	dir := model.CleanDirPath(in.Path)
	if existing, err := s.sibling(ctx, ownerID, dir, in.Name); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, Conflict("%s already exists in %s", in.Name, dir)
	}

	f := &model.FileEntry{
		UserID:     ownerID,
		Name:       in.Name,
		Path:       dir,
		Type:       in.Type,
		Size:       in.Size,
		MimeType:   in.MimeType,
		ModifiedAt: s.clock.Now(),
	}
	if f.Type == model.FileTypeDirectory {
		f.Size = 0
		f.MimeType = nil
	} else if f.MimeType == nil {
		f.MimeType = guessMimeType(f.Name)
	}
	if err := s.store.CreateFileEntry(ctx, f); err != nil {
		return nil, storeErr(err, "file")
	}
	return f, nil
}

// Update renames, moves or resizes an entry. A size change on a file keeps
// the previous size as a new version; moving a directory carries its
// contents along.
func (s *FileService) Update(ctx context.Context, actor Actor, id int64, in UpdateFileInput) (*model.FileEntry, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	f, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	oldFull := f.FullPath()
	oldSize := f.Size

	assign(&f.Name, in.Name)
	if in.Path != nil {
		f.Path = model.CleanDirPath(*in.Path)
	}
	if f.FullPath() != oldFull {
		if f.Type == model.FileTypeDirectory && (f.Path == oldFull || strings.HasPrefix(f.Path, oldFull+"/")) {
			return nil, InvalidInput("cannot move a directory into itself")
		}
		if existing, err := s.sibling(ctx, f.UserID, f.Path, f.Name); err != nil {
			return nil, err
		} else if existing != nil {
			return nil, Conflict("%s already exists in %s", f.Name, f.Path)
		}
	}
	if f.Type == model.FileTypeFile {
		assign(&f.Size, in.Size)
		if in.MimeType != nil {
			f.MimeType = in.MimeType
		}
	}
	f.ModifiedAt = s.clock.Now()

	if f.Type == model.FileTypeFile && f.Size != oldSize {
		if err := s.recordVersion(ctx, f.ID, oldSize); err != nil {
			return nil, err
		}
	}
	if err := s.store.UpdateFileEntry(ctx, f); err != nil {
		return nil, storeErr(err, "file")
	}
	if f.Type == model.FileTypeDirectory && f.FullPath() != oldFull {
		if err := s.moveChildren(ctx, f.UserID, oldFull, f.FullPath()); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// Delete removes an entry. Deleting a directory removes everything below
// it.
func (s *FileService) Delete(ctx context.Context, actor Actor, id int64) error {
	f, err := s.Get(ctx, actor, id)
	if err != nil {
		return err
	}
	if f.Type == model.FileTypeDirectory {
		n, err := s.store.DeleteFileEntriesUnder(ctx, f.UserID, f.FullPath())
		if err != nil {
			return storeErr(err, "file")
		}
		s.log.Debug().Int64("file_id", f.ID).Int("children", n).Msg("directory contents removed")
	}
	if err := s.store.DeleteFileEntry(ctx, id); err != nil {
		return storeErr(err, "file")
	}
	return nil
}

// Upload records metadata for uploaded files in dir. A file that already
// exists is overwritten in place and its previous size kept as a version.
func (s *FileService) Upload(ctx context.Context, actor Actor, userID int64, dir string, files []UploadedFile) ([]model.FileEntry, error) {
	ownerID, err := actor.owner(userID)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, InvalidInput("no files uploaded")
	}
	for _, u := range files {
		if err := validateStruct(u); err != nil {
			return nil, err
		}
	}

	dir = model.CleanDirPath(dir)
	now := s.clock.Now()
	out := make([]model.FileEntry, 0, len(files))
	for _, u := range files {
		mt := guessMimeType(u.Name)
		if u.MimeType != "" {
			mt = &u.MimeType
		}
		existing, err := s.sibling(ctx, ownerID, dir, u.Name)
		if err != nil {
			return nil, err
		}
		switch {
		case existing == nil:
			f := &model.FileEntry{UserID: ownerID, Name: u.Name, Path: dir, Type: model.FileTypeFile, Size: u.Size, MimeType: mt, ModifiedAt: now}
			if err := s.store.CreateFileEntry(ctx, f); err != nil {
				return nil, storeErr(err, "file")
			}
			out = append(out, *f)
		case existing.Type == model.FileTypeDirectory:
			return nil, Conflict("%s is a directory", path.Join(dir, u.Name))
		default:
			if existing.Size != u.Size {
				if err := s.recordVersion(ctx, existing.ID, existing.Size); err != nil {
					return nil, err
				}
			}
			existing.Size = u.Size
			existing.MimeType = mt
			existing.ModifiedAt = now
			if err := s.store.UpdateFileEntry(ctx, existing); err != nil {
				return nil, storeErr(err, "file")
			}
			out = append(out, *existing)
		}
	}
	s.log.Info().Int64("user_id", ownerID).Str("path", dir).Int("count", len(out)).Msg("files uploaded")
	return out, nil
}

func (s *FileService) Versions(ctx context.Context, actor Actor, id int64) ([]model.FileVersion, error) {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return nil, err
	}
	versions, err := s.store.ListFileVersions(ctx, id)
	if err != nil {
		return nil, storeErr(err, "file version")
	}
	return versions, nil
}

func (s *FileService) recordVersion(ctx context.Context, fileID, size int64) error {
	prev, err := s.store.ListFileVersions(ctx, fileID)
	if err != nil {
		return storeErr(err, "file version")
	}
	v := &model.FileVersion{FileID: fileID, Version: len(prev) + 1, Size: size, CreatedAt: s.clock.Now()}
	if err := s.store.CreateFileVersion(ctx, v); err != nil {
		return storeErr(err, "file version")
	}
	return nil
}

func (s *FileService) sibling(ctx context.Context, userID int64, dir, name string) (*model.FileEntry, error) {
	entries, err := s.store.ListFileEntriesAt(ctx, userID, dir)
	if err != nil {
		return nil, storeErr(err, "file")
	}
	for i := range entries {
		if entries[i].Name == name {
			return &entries[i], nil
		}
	}
	return nil, nil
}

// moveChildren rewrites the Path of every entry below from so it sits
// below to instead.
func (s *FileService) moveChildren(ctx context.Context, userID int64, from, to string) error {
	all, err := s.store.ListFileEntries(ctx, store.ByUser(userID))
	if err != nil {
		return storeErr(err, "file")
	}
	for i := range all {
		e := &all[i]
		var rest string
		switch {
		case e.Path == from:
		case strings.HasPrefix(e.Path, from+"/"):
			rest = strings.TrimPrefix(e.Path, from)
		default:
			continue
		}
		e.Path = to + rest
		if err := s.store.UpdateFileEntry(ctx, e); err != nil {
			return storeErr(err, "file")
		}
	}
	return nil
}

func guessMimeType(name string) *string {
	mt := mime.TypeByExtension(path.Ext(name))
	if mt == "" {
		return nil
	}
	mt, _, _ = strings.Cut(mt, ";")
	return &mt
}

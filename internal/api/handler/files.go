package handler

import (
	"mime"
	"net/http"
	"strings"

	"github.com/edvin/hostpanel/internal/api/request"
	"github.com/edvin/hostpanel/internal/api/response"
	"github.com/edvin/hostpanel/internal/core"
)

// maxUploadMemory bounds the multipart form held in memory; larger parts
// spill to temporary files, which are removed after the request.
const maxUploadMemory = 32 << 20

type File struct {
	svc *core.FileService
}

func NewFile(services *core.Services) *File {
	return &File{svc: services.File}
}

func (h *File) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := queryID(w, r, "userId")
	if !ok {
		return
	}
	files, err := h.svc.List(r.Context(), actor(r), userID)
	writeList(w, r, files, err)
}

// ListByUser godoc
//
//	@Summary		Browse a directory
//	@Description	Returns the direct children of path (default "/"), directories first.
//	@Tags			Files
//	@Param			userId	path		int		true	"Owner ID"
//	@Param			path	query		string	false	"Directory"	default(/)
//	@Success		200		{array}		model.FileEntry
//	@Failure		403		{object}	response.ErrorResponse
//	@Router			/files/user/{userId} [get]
func (h *File) ListByUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userId")
	if !ok {
		return
	}
	dir := r.URL.Query().Get("path")
	if dir == "" {
		dir = "/"
	}
	files, err := h.svc.ListAt(r.Context(), actor(r), userID, dir)
	writeList(w, r, files, err)
}

func (h *File) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	f, err := h.svc.Get(r.Context(), actor(r), id)
	writeResult(w, r, http.StatusOK, f, err)
}

func (h *File) Create(w http.ResponseWriter, r *http.Request) {
	var in core.FileInput
	if !decode(w, r, &in) {
		return
	}
	f, err := h.svc.Create(r.Context(), actor(r), in)
	writeResult(w, r, http.StatusCreated, f, err)
}

// Update renames, moves or resizes an entry. A size change on a file
// records the previous size as a version.
func (h *File) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in core.UpdateFileInput
	if !decode(w, r, &in) {
		return
	}
	f, err := h.svc.Update(r.Context(), actor(r), id, in)
	writeResult(w, r, http.StatusOK, f, err)
}

func (h *File) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	writeDeleted(w, r, "File", h.svc.Delete(r.Context(), actor(r), id))
}

func (h *File) Versions(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	versions, err := h.svc.Versions(r.Context(), actor(r), id)
	writeList(w, r, versions, err)
}

// Upload godoc
//
//	@Summary		Upload files
//	@Description	Accepts multipart/form-data with one or more "files" parts and an optional "path" field, or a JSON body listing file metadata. Only metadata is kept; file contents are discarded.
//	@Tags			Files
//	@Accept			mpfd,json
//	@Param			userId	path		int	true	"Owner ID"
//	@Success		201		{array}		model.FileEntry
//	@Failure		400		{object}	response.ErrorResponse
//	@Router			/files/user/{userId}/upload [post]
func (h *File) Upload(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userId")
	if !ok {
		return
	}

	var (
		dir     string
		uploads []core.UploadedFile
	)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
			response.WriteError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
			return
		}
		defer r.MultipartForm.RemoveAll()
		dir = r.FormValue("path")
		for _, fh := range r.MultipartForm.File["files"] {
			uploads = append(uploads, core.UploadedFile{
				Name:     fh.Filename,
				Size:     fh.Size,
				MimeType: partMimeType(fh.Header.Get("Content-Type")),
			})
		}
	} else {
		var req request.Upload
		if err := request.Decode(r, &req); err != nil {
			response.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		dir = req.Path
		for _, f := range req.Files {
			uploads = append(uploads, core.UploadedFile{Name: f.Name, Size: f.Size, MimeType: f.MimeType})
		}
	}
	if dir == "" {
		dir = "/"
	}

	files, err := h.svc.Upload(r.Context(), actor(r), userID, dir, uploads)
	writeResult(w, r, http.StatusCreated, files, err)
}

// partMimeType drops the generic type browsers send for unknown files so
// the service can guess from the extension instead.
func partMimeType(ct string) string {
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil || strings.EqualFold(mt, "application/octet-stream") {
		return ""
	}
	return mt
}

package handler

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"

	"Go_FileStore/internal/dto"
	"Go_FileStore/internal/service"
	"Go_FileStore/utils"

	"github.com/gin-gonic/gin"
)

// FileHandler exposes the file store over HTTP.
type FileHandler struct {
	svc *service.Container
}

func NewFileHandler(svc *service.Container) *FileHandler {
	return &FileHandler{svc: svc}
}

func openPart(header *multipart.FileHeader) (multipart.File, error) {
	f, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload part: %w", err)
	}
	return f, nil
}

// SingleUpload stores a file sent in one request.
func (h *FileHandler) SingleUpload(c *gin.Context) {
	var req dto.SingleUploadRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, err)
		return
	}
	part, err := openPart(req.File)
	if err != nil {
		badRequest(c, err)
		return
	}
	defer part.Close()

	res, err := h.svc.Upload.SingleUpload(c.Request.Context(), service.SingleUploadInput{
		UserID:   c.GetUint64("user_id"),
		UploadID: req.UploadID,
		Filename: req.Filename,
		File:     part,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	utils.Success(c, dto.UploadResponse{ID: res.ID, Path: res.Path})
}

// ChunkUpload stores one chunk of a chunked upload.
func (h *FileHandler) ChunkUpload(c *gin.Context) {
	var req dto.ChunkUploadRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, err)
		return
	}
	part, err := openPart(req.Chunk)
	if err != nil {
		badRequest(c, err)
		return
	}
	defer part.Close()

	err = h.svc.Upload.ChunkUpload(c.Request.Context(), service.ChunkUploadInput{
		UserID:   c.GetUint64("user_id"),
		UploadID: req.UploadID,
		Filename: req.Filename,
		Chunk:    part,
		Index:    *req.Count,
		IsLast:   req.IsLast == "true",
	})
	if err != nil {
		writeError(c, err)
		return
	}
	utils.Success(c, nil)
}

// MergeChunks merges the chunks of an upload into a stored file.
func (h *FileHandler) MergeChunks(c *gin.Context) {
	var req dto.MergeChunksRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, err)
		return
	}
	res, err := h.svc.Upload.Merge(c.Request.Context(), req.UploadID)
	if err != nil {
		writeError(c, err)
		return
	}
	utils.Success(c, dto.UploadResponse{ID: res.ID, Path: res.Path})
}

// FinishedUpload returns the upload id of a finished but unmerged upload.
func (h *FileHandler) FinishedUpload(c *gin.Context) {
	var q dto.FinishedUploadQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}
	session, err := h.svc.Upload.FindFinishedUpload(c.Request.Context(), c.GetUint64("user_id"), q.Filename)
	if err != nil {
		writeError(c, err)
		return
	}
	utils.Success(c, dto.FinishedUploadResponse{
		UploadID:  session.UploadID,
		Filename:  session.Filename,
		UpdatedAt: session.UpdatedAt,
	})
}

// DeleteFile removes a stored file.
func (h *FileHandler) DeleteFile(c *gin.Context) {
	affected, err := h.svc.Files.DeleteFile(c.Request.Context(), c.Param("folder"), c.Param("filename"))
	if err != nil {
		writeError(c, err)
		return
	}
	utils.Success(c, dto.DeleteResponse{Affected: affected})
}

// GetFileInfo returns name, size and timestamps of a stored file.
func (h *FileHandler) GetFileInfo(c *gin.Context) {
	info, err := h.svc.Files.GetFileInfo(c.Request.Context(), c.Param("folder"), c.Param("filename"))
	if err != nil {
		writeError(c, err)
		return
	}
	utils.Success(c, dto.FileInfoResponse{
		Filename:  info.Filename,
		Filesize:  info.Filesize,
		CreatedAt: info.CreatedAt,
		UpdatedAt: info.UpdatedAt,
	})
}

// GetSingleFile streams a stored file as an attachment.
func (h *FileHandler) GetSingleFile(c *gin.Context) {
	loc, err := h.svc.Files.LocateFile(c.Request.Context(), c.Param("folder"), c.Param("filename"))
	if err != nil {
		writeError(c, err)
		return
	}
	f, err := h.svc.Files.Open(loc)
	if err != nil {
		writeError(c, err)
		return
	}
	defer f.Close()
	stream(c, f, loc.Size, loc.ContentType, loc.RealFilename)
}

// DownloadArchive zips the requested files and streams the archive.
func (h *FileHandler) DownloadArchive(c *gin.Context) {
	var req dto.ArchiveDownloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	res, err := h.svc.Archive.BuildArchive(c.Request.Context(), req.Files)
	if err != nil {
		writeError(c, err)
		return
	}
	f, err := h.svc.Fs.Open(res.Path)
	if err != nil {
		writeError(c, err)
		return
	}
	defer f.Close()
	stat, err := f.Stat()
	if err != nil {
		writeError(c, err)
		return
	}

	name := res.DownloadName
	if req.Filename != "" {
		name = req.Filename
	}
	stream(c, f, stat.Size(), "application/zip", name)
}

func stream(c *gin.Context, r io.Reader, size int64, contentType, name string) {
	name = utils.SanitizeHeaderFilename(name)
	disposition := fmt.Sprintf("attachment; filename=\"%s\"; filename*=UTF-8''%s", name, url.PathEscape(name))
	c.DataFromReader(http.StatusOK, size, contentType, r, map[string]string{
		"Content-Disposition": disposition,
	})
}

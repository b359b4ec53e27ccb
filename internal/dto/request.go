package dto

import "mime/multipart"

// Field names follow the existing upload clients.

type SingleUploadRequest struct {
	UploadID string                `form:"uploadId" binding:"required,uuid"`
	Filename string                `form:"filename" binding:"required"`
	File     *multipart.FileHeader `form:"file" binding:"required"`
}

type ChunkUploadRequest struct {
	UploadID string                `form:"uploadId" binding:"required,uuid"`
	Filename string                `form:"filename" binding:"required"`
	Chunk    *multipart.FileHeader `form:"chunk" binding:"required"`
	Count    *int                  `form:"count" binding:"required,gte=0"`
	IsLast   string                `form:"isLast" binding:"required,oneof=true false"`
}

type MergeChunksRequest struct {
	UploadID string `json:"uploadId" form:"uploadId" binding:"required,uuid"`
}

type FinishedUploadQuery struct {
	Filename string `form:"filename" binding:"required"`
}

type ArchiveDownloadRequest struct {
	Files    []string `json:"files" binding:"required,min=1,dive,required"`
	Filename string   `json:"filename"`
}

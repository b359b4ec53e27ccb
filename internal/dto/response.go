package dto

import "time"

type UploadResponse struct {
	ID   uint64 `json:"id"`
	Path string `json:"path"`
}

type FinishedUploadResponse struct {
	UploadID  string    `json:"uploadId"`
	Filename  string    `json:"filename"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type FileInfoResponse struct {
	Filename  string    `json:"filename"`
	Filesize  string    `json:"filesize"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type DeleteResponse struct {
	Affected int64 `json:"affected"`
}

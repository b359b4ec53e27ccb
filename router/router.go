package router

import (
	"Go_FileStore/config"
	"Go_FileStore/internal/handler"
	"Go_FileStore/utils"

	"github.com/gin-gonic/gin"
)

// InitRouter builds API routes.
func InitRouter(h *handler.FileHandler, cfg config.Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), utils.RequestLogger(), utils.CORSMiddleware(cfg.CORSOrigins))

	api := r.Group("/api/v1")
	{
		api.GET("/file/info/:folder/:filename", h.GetFileInfo)
		api.GET("/file/:folder/:filename", h.GetSingleFile)
		api.POST("/files/download", h.DownloadArchive)

		auth := api.Group("")
		auth.Use(utils.AuthMiddleware(cfg.JWTSecret))

		file := auth.Group("/file")
		{
			file.POST("/upload", h.SingleUpload)
			file.POST("/chunk", h.ChunkUpload)
			file.POST("/chunk/merge", h.MergeChunks)
			file.GET("/chunk/finished", h.FinishedUpload)
			file.DELETE("/:folder/:filename", h.DeleteFile)
		}
	}
	return r
}

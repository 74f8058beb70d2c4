package router

import (
	"github.com/ahlanjobb/api/internal/dto"
	"github.com/gin-gonic/gin"
)

func (r *Router) mediaRoutes(api *gin.RouterGroup) {
	media := api.Group("/media")
	media.Use(r.authMw.RequireUser())
	{
		media.POST("", r.mediaHandler.Create)
		media.POST("/upload", r.mediaHandler.Upload)
		media.GET("", r.mediaHandler.List)
		media.GET("/:id", r.mediaHandler.GetByID)
		media.PATCH("/:id", r.validMw.ValidateRequestBody(func() interface{} { return &dto.UpdateMediaRequest{} }), r.mediaHandler.Update)
		media.DELETE("/:id", r.mediaHandler.Remove)
	}
}

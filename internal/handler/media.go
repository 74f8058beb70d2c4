package handler

import (
	"context"
	"mime/multipart"
	"net/http"

	"github.com/ahlanjobb/api/internal/constants"
	"github.com/ahlanjobb/api/internal/dto"
	apperrors "github.com/ahlanjobb/api/internal/errors"
	"github.com/ahlanjobb/api/internal/model"
	"github.com/ahlanjobb/api/internal/service"
	ctxutil "github.com/ahlanjobb/api/pkg/context"
	"github.com/ahlanjobb/api/pkg/logger"
	"github.com/gin-gonic/gin"
)

// multipartOverhead is allowed on top of the file size for form fields and boundaries.
const multipartOverhead = 1 << 20

type MediaHandler struct {
	mediaService *service.MediaService
}

func NewMediaHandler(mediaService *service.MediaService) *MediaHandler {
	return &MediaHandler{mediaService: mediaService}
}

// formFile opens the multipart "file" field. The caller closes the returned file.
func formFile(ctx context.Context, c *gin.Context) (service.UploadFile, multipart.File, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, constants.MaxUploadSizeBytes+multipartOverhead)

	header, err := c.FormFile("file")
	if err != nil {
		logger.WarnWithContext(ctx, "Missing or oversized upload").Err(err).Log()
		c.JSON(http.StatusBadRequest, constants.BuildCodedErrorResponse(apperrors.ErrInvalidInput.Code, "file is required"))
		return service.UploadFile{}, nil, false
	}

	f, err := header.Open()
	if err != nil {
		respondError(ctx, c, "Open upload", apperrors.WrapError(apperrors.ErrInternal, err))
		return service.UploadFile{}, nil, false
	}

	return service.UploadFile{
		Name:        header.Filename,
		ContentType: header.Header.Get(constants.HeaderContentType),
		Size:        header.Size,
		Body:        f,
	}, f, true
}

// Create uploads the file and records it as media.
func (h *MediaHandler) Create(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "CreateMedia")

	file, f, ok := formFile(ctx, c)
	if !ok {
		return
	}
	defer f.Close()

	media, err := h.mediaService.Create(ctx, file, model.MediaType(c.PostForm("type")))
	if err != nil {
		respondError(ctx, c, "Create media", err)
		return
	}

	c.JSON(http.StatusCreated, media)
}

// Upload stores the file without recording it. Type PROFILE-PICTURE is
// resized to a thumbnail first.
func (h *MediaHandler) Upload(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "Upload")

	file, f, ok := formFile(ctx, c)
	if !ok {
		return
	}
	defer f.Close()

	result, err := h.mediaService.Upload(ctx, file, c.PostForm("type"))
	if err != nil {
		respondError(ctx, c, "Upload", err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *MediaHandler) List(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "ListMedia")

	params := constants.ParsePaginationParams(c)

	response, err := h.mediaService.List(ctx, params.Page, params.Limit)
	if err != nil {
		respondError(ctx, c, "List media", err)
		return
	}

	c.JSON(http.StatusOK, response)
}

func (h *MediaHandler) GetByID(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "GetMedia")

	id, ok := paramID(ctx, c)
	if !ok {
		return
	}

	media, err := h.mediaService.Get(ctx, id)
	if err != nil {
		respondError(ctx, c, "Fetch media", err)
		return
	}

	c.JSON(http.StatusOK, media)
}

func (h *MediaHandler) Update(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "UpdateMedia")

	id, ok := paramID(ctx, c)
	if !ok {
		return
	}

	var req dto.UpdateMediaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(ctx, c, err)
		return
	}

	media, err := h.mediaService.Update(ctx, id, req)
	if err != nil {
		respondError(ctx, c, "Update media", err)
		return
	}

	c.JSON(http.StatusOK, media)
}

func (h *MediaHandler) Remove(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "RemoveMedia")

	id, ok := paramID(ctx, c)
	if !ok {
		return
	}

	if err := h.mediaService.Remove(ctx, id); err != nil {
		respondError(ctx, c, "Remove media", err)
		return
	}

	c.JSON(http.StatusOK, constants.BuildSuccessResponse(constants.MsgDeleted))
}

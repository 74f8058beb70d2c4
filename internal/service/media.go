package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"path"
	"strings"
	"time"

	"github.com/ahlanjobb/api/internal/constants"
	"github.com/ahlanjobb/api/internal/dto"
	apperrors "github.com/ahlanjobb/api/internal/errors"
	"github.com/ahlanjobb/api/internal/model"
	ctxutil "github.com/ahlanjobb/api/pkg/context"
	"github.com/ahlanjobb/api/pkg/logger"
	"github.com/ahlanjobb/api/pkg/metrics"
	"github.com/ahlanjobb/api/pkg/storage"
	"golang.org/x/image/draw"
	"gorm.io/gorm"
)

// UploadFile is a file received from a multipart form.
type UploadFile struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

type MediaService struct {
	media   MediaStore
	storage storage.ObjectStorage
	now     func() time.Time
}

func NewMediaService(media MediaStore, objects storage.ObjectStorage) *MediaService {
	return &MediaService{media: media, storage: objects, now: time.Now}
}

func mediaNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.ErrMediaNotFound
	}
	return apperrors.WrapError(apperrors.ErrInternal, err)
}

// mediaTypeFor returns t when set, otherwise guesses from the content type.
func mediaTypeFor(t model.MediaType, contentType string) (model.MediaType, error) {
	if t == "" {
		if strings.HasPrefix(contentType, "video/") {
			return model.MediaTypeVideo, nil
		}
		return model.MediaTypeImage, nil
	}
	if !t.IsValid() {
		return "", apperrors.WithMessage(apperrors.ErrInvalidInput, "type must be IMAGE or VIDEO")
	}
	return t, nil
}

func checkFile(file UploadFile) error {
	if file.Body == nil || file.Name == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "file is required")
	}
	if file.Size > constants.MaxUploadSizeBytes {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "file is too large")
	}
	return nil
}

// Create uploads file and records it as a media entry.
func (s *MediaService) Create(ctx context.Context, file UploadFile, mediaType model.MediaType) (*dto.MediaResponse, error) {
	ctx = ctxutil.WithFunction(ctx, "service", "CreateMedia")

	if err := checkFile(file); err != nil {
		return nil, err
	}
	mediaType, err := mediaTypeFor(mediaType, file.ContentType)
	if err != nil {
		return nil, err
	}

	key := storage.NewObjectKey(storage.FolderDefault, file.Name, s.now())
	location, err := s.storage.Upload(ctx, key, file.ContentType, file.Body)
	if err != nil {
		metrics.MediaUploads.WithLabelValues(string(mediaType), "failed").Inc()
		logger.ErrorWithContext(ctx, "Failed to upload media").String("key", key).Err(err).Log()
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	m := &model.Media{
		Type:        mediaType,
		ContentType: file.ContentType,
		OriginalURL: location,
	}
	if err := s.media.Create(ctx, m); err != nil {
		if delErr := s.storage.Delete(ctx, location); delErr != nil {
			logger.WarnWithContext(ctx, "Failed to remove orphaned object").String("location", location).Err(delErr).Log()
		}
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	metrics.MediaUploads.WithLabelValues(string(mediaType), "ok").Inc()
	logger.InfoWithContext(ctx, "Media created").
		Uint("media_id", m.ID).
		String("location", location).
		Log()

	resp := dto.ToMediaResponse(m)
	return &resp, nil
}

// Upload stores file without creating a record. Profile pictures are
// scaled to a square thumbnail first.
func (s *MediaService) Upload(ctx context.Context, file UploadFile, uploadType string) (*dto.UploadResult, error) {
	ctx = ctxutil.WithFunction(ctx, "service", "Upload")

	if err := checkFile(file); err != nil {
		return nil, err
	}

	folder := storage.FolderDefault
	kind := "file"
	body, name, contentType := file.Body, file.Name, file.ContentType

	if uploadType == constants.UploadTypeProfilePic {
		thumb, err := resizeImage(file.Body, constants.ProfilePictureSize)
		if errors.Is(err, errImageTooLarge) {
			logger.WarnWithContext(ctx, "Profile picture too large to decode").String("name", file.Name).Err(err).Log()
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "profile picture dimensions are too large")
		}
		if err != nil {
			logger.WarnWithContext(ctx, "Profile picture could not be decoded").String("name", file.Name).Err(err).Log()
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "profile picture must be a JPEG, PNG or GIF image")
		}
		folder = storage.FolderSmall
		kind = "profile_picture"
		body = thumb
		name = strings.TrimSuffix(file.Name, path.Ext(file.Name)) + ".jpg"
		contentType = "image/jpeg"
	}

	key := storage.NewObjectKey(folder, name, s.now())
	location, err := s.storage.Upload(ctx, key, contentType, body)
	if err != nil {
		metrics.MediaUploads.WithLabelValues(kind, "failed").Inc()
		logger.ErrorWithContext(ctx, "Failed to upload file").String("key", key).Err(err).Log()
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	metrics.MediaUploads.WithLabelValues(kind, "ok").Inc()
	logger.InfoWithContext(ctx, "File uploaded").String("key", key).Log()

	return &dto.UploadResult{Key: key, Location: location, ContentType: contentType}, nil
}

// maxImagePixels bounds the decoded size of an upload. Compressed formats
// can declare dimensions far beyond what the file size suggests.
const maxImagePixels = 25_000_000

var errImageTooLarge = errors.New("image dimensions exceed limit")

// resizeImage scales r to a size x size JPEG. The header is checked before
// any pixel data is decoded.
func resizeImage(r io.Reader, size int) (io.Reader, error) {
	var header bytes.Buffer
	cfg, _, err := image.DecodeConfig(io.TeeReader(r, &header))
	if err != nil {
		return nil, err
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > maxImagePixels {
		return nil, fmt.Errorf("%w: %dx%d", errImageTooLarge, cfg.Width, cfg.Height)
	}

	src, _, err := image.Decode(io.MultiReader(&header, r))
	if err != nil {
		return nil, err
	}
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: 90}); err != nil {
		return nil, err
	}
	return &buf, nil
}

func (s *MediaService) Get(ctx context.Context, id uint) (*dto.MediaResponse, error) {
	ctx = ctxutil.WithFunction(ctx, "service", "GetMedia")

	m, err := s.media.GetByID(ctx, id)
	if err != nil {
		return nil, mediaNotFound(err)
	}
	resp := dto.ToMediaResponse(m)
	return &resp, nil
}

func (s *MediaService) Update(ctx context.Context, id uint, req dto.UpdateMediaRequest) (*dto.MediaResponse, error) {
	ctx = ctxutil.WithFunction(ctx, "service", "UpdateMedia")

	cols := map[string]any{}
	if req.Type != nil {
		if !req.Type.IsValid() {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "type must be IMAGE or VIDEO")
		}
		cols["type"] = *req.Type
	}
	if req.ContentType != nil {
		cols["content_type"] = *req.ContentType
	}
	if req.OriginalURL != nil {
		cols["original_url"] = *req.OriginalURL
	}

	if len(cols) > 0 {
		if err := s.media.Update(ctx, id, cols); err != nil {
			return nil, mediaNotFound(err)
		}
	}
	return s.Get(ctx, id)
}

func (s *MediaService) List(ctx context.Context, page, limit int) (*dto.MediaListResponse, error) {
	ctx = ctxutil.WithFunction(ctx, "service", "ListMedia")

	items, total, err := s.media.List(ctx, limit, (page-1)*limit)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	results := make([]dto.MediaResponse, 0, len(items))
	for i := range items {
		results = append(results, dto.ToMediaResponse(&items[i]))
	}
	return &dto.MediaListResponse{Results: results, Total: total, Page: page}, nil
}

// Remove deletes the stored object and then the record. A storage failure
// is logged and does not keep the record alive.
func (s *MediaService) Remove(ctx context.Context, id uint) error {
	ctx = ctxutil.WithFunction(ctx, "service", "RemoveMedia")

	m, err := s.media.GetByID(ctx, id)
	if err != nil {
		return mediaNotFound(err)
	}
	if err := s.storage.Delete(ctx, m.OriginalURL); err != nil {
		logger.WarnWithContext(ctx, "Failed to delete stored object").
			Uint("media_id", id).
			String("location", m.OriginalURL).
			Err(err).
			Log()
	}
	if err := s.media.Delete(ctx, id); err != nil {
		return mediaNotFound(err)
	}

	logger.InfoWithContext(ctx, "Media removed").Uint("media_id", id).Log()
	return nil
}

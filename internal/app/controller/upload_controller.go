package controller

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	apperrors "github.com/phantomcommerce/phantom-backend/internal/errors"
	"github.com/phantomcommerce/phantom-backend/internal/middleware"
	"github.com/phantomcommerce/phantom-backend/internal/storage"
)

// URLPresigner issues direct-to-bucket upload URLs.
type URLPresigner interface {
	GeneratePresignedURLWithFolder(ctx context.Context, filename, contentType, folder string) (*storage.PresignedURLResponse, error)
}

var uploadFolders = map[string]bool{
	"products": true,
	"avatars":  true,
}

type UploadController struct {
	presigner URLPresigner
}

// NewUploadController takes a nil presigner when object storage is not
// configured; requests then get 503.
func NewUploadController(presigner URLPresigner) *UploadController {
	return &UploadController{
		presigner: presigner,
	}
}

type GeneratePresignedURLRequest struct {
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"content_type" binding:"required"`
	Folder      string `json:"folder"` // defaults to "products"
}

// GeneratePresignedURL generates a presigned URL for uploading an image
// POST /api/v1/upload/presigned-url
func (ctrl *UploadController) GeneratePresignedURL(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	if ctrl.presigner == nil {
		apperrors.RespondWithError(c, http.StatusServiceUnavailable, apperrors.UploadUnavailable,
			"Upload de imagens indisponível no momento.")
		return
	}

	var req GeneratePresignedURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid presigned URL request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, apperrors.MsgInvalidInput)
		return
	}

	if err := storage.ValidateContentType(req.ContentType, storage.AllowedImageTypes); err != nil {
		log.Warn("Invalid content type", map[string]interface{}{
			"content_type": req.ContentType,
		})
		apperrors.BadRequest(c, apperrors.UploadInvalidFileType, "Apenas imagens são permitidas (JPEG, PNG, GIF, WEBP).")
		return
	}

	folder := strings.ToLower(strings.TrimSpace(req.Folder))
	if folder == "" {
		folder = "products"
	}
	if !uploadFolders[folder] {
		apperrors.BadRequest(c, apperrors.ValidationInvalidFormat, "Pasta de upload inválida.")
		return
	}
	if folder == "avatars" {
		userID, _ := middleware.GetUserID(c)
		folder = avatarFolder(userID)
	}

	response, err := ctrl.presigner.GeneratePresignedURLWithFolder(c.Request.Context(), req.Filename, req.ContentType, folder)
	if err != nil {
		log.Error("Failed to generate presigned URL", err, map[string]interface{}{
			"filename":     req.Filename,
			"content_type": req.ContentType,
			"folder":       folder,
		})
		apperrors.RespondWithError(c, http.StatusInternalServerError, apperrors.UploadFailed,
			"Não foi possível preparar o upload. Tente novamente.")
		return
	}

	log.Info("Presigned URL generated successfully", map[string]interface{}{
		"folder": folder,
		"key":    response.Key,
	})

	c.JSON(http.StatusOK, response)
}

func avatarFolder(userID uint) string {
	return "avatars/" + strconv.FormatUint(uint64(userID), 10)
}

package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-booking/internal/dto"
	"github.com/BruksfildServices01/barber-booking/internal/httperr"
	"github.com/BruksfildServices01/barber-booking/internal/media"
	"github.com/BruksfildServices01/barber-booking/internal/models"
)

// ObjectStore stores a public object and returns its URL.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
}

type AvatarHandler struct {
	db    *gorm.DB
	store ObjectStore
}

// NewAvatarHandler takes a nil store when object storage is not configured.
func NewAvatarHandler(db *gorm.DB, store ObjectStore) *AvatarHandler {
	return &AvatarHandler{db: db, store: store}
}

// Upload replaces the caller's avatar with the multipart "file" image.
func (h *AvatarHandler) Upload(c *gin.Context) {
	if h.store == nil {
		writeBusinessError(c, httperr.ErrBusiness("storage_disabled"), "failed_to_upload_avatar")
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		httperr.BadRequest(c, "missing_file", "Envie a imagem no campo 'file'.")
		return
	}
	if fh.Size > media.MaxUploadBytes {
		httperr.BadRequest(c, "file_too_large", "Imagem maior que 5MB.")
		return
	}

	f, err := fh.Open()
	if err != nil {
		httperr.BadRequest(c, "missing_file", "Envie a imagem no campo 'file'.")
		return
	}
	defer f.Close()

	img, err := media.Avatar(f)
	if err != nil {
		httperr.BadRequest(c, "unsupported_image", "Formato de imagem não suportado.")
		return
	}

	tid, uid := tenantID(c), userID(c)
	key := fmt.Sprintf("avatars/%d/%d-%d.webp", tid, uid, time.Now().Unix())

	url, err := h.store.Put(c.Request.Context(), key, "image/webp", img)
	if err != nil {
		httperr.Internal(c, "failed_to_upload_avatar", "Erro ao enviar imagem.")
		return
	}

	var user models.User
	db := h.db.WithContext(c.Request.Context())
	if err := db.Where("tenant_id = ?", tid).First(&user, uid).Error; err != nil {
		httperr.NotFound(c, "user_not_found", "Usuário não encontrado.")
		return
	}
	if err := db.Model(&user).Update("avatar_url", url).Error; err != nil {
		httperr.Internal(c, "failed_to_update_user", "Erro ao atualizar usuário.")
		return
	}
	user.AvatarURL = url

	c.JSON(http.StatusOK, dto.FromUser(user))
}

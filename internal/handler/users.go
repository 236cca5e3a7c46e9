package handler

import (
	"context"
	"database/sql"
	"io"
	"net/http"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/GIRISHRV/moviereco/internal/config"
	"github.com/GIRISHRV/moviereco/internal/repository"
)

// maxAvatarBytes caps avatar uploads at 5 MiB.
const maxAvatarBytes = 5 << 20

// avatarExts maps accepted content types to the stored extension.
var avatarExts = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
}

// UserHandler serves profile and avatar endpoints.
type UserHandler struct {
	Cfg   config.Config
	Users *repository.UserRepo
}

func NewUserHandler(cfg config.Config, users *repository.UserRepo) *UserHandler {
	if users == nil {
		panic("nil repository passed to NewUserHandler")
	}
	return &UserHandler{Cfg: cfg, Users: users}
}

type profileResp struct {
	ID        uint64 `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
	CreatedAt string `json:"created_at"`
}

type updateProfileReq struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Avatar   *string `json:"avatar"`
}

// Profile returns the authenticated user's profile.
func (h *UserHandler) Profile(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load profile failed"})
	}
	return c.JSON(http.StatusOK, profileResp{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		AvatarURL: u.AvatarURL,
		CreatedAt: u.CreatedAt.UTC().Format(time.RFC3339),
	})
}

// UpdateProfile applies the provided fields. Username and email
// conflicts abort without writing anything.
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req updateProfileReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Username == nil && req.Email == nil && req.Avatar == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "no fields to update"})
	}
	if req.Username != nil && strings.TrimSpace(*req.Username) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username cannot be empty"})
	}
	if req.Email != nil {
		if _, err := mail.ParseAddress(strings.TrimSpace(*req.Email)); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid email"})
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Users.UpdateProfile(ctx, uid, req.Username, req.Email, req.Avatar); err != nil {
		switch err {
		case repository.ErrUsernameExists:
			return c.JSON(http.StatusConflict, echo.Map{"error": "username already exists"})
		case repository.ErrEmailExists:
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update profile failed"})
	}
	return h.Profile(c)
}

// UploadAvatar stores an uploaded image under a random filename and
// points the user's avatar_url at it. A failed database update
// removes the file again.
func (h *UserHandler) UploadAvatar(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	fh, err := c.FormFile("avatar")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "avatar file required"})
	}
	if fh.Size > maxAvatarBytes {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "avatar must be 5MB or smaller"})
	}
	ext, ok := avatarExts[fh.Header.Get("Content-Type")]
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "avatar must be jpeg, png or gif"})
	}

	src, err := fh.Open()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "read upload failed"})
	}
	defer src.Close()

	if err := os.MkdirAll(h.Cfg.UploadDir, 0o755); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "store avatar failed"})
	}
	name := uuid.NewString() + ext
	path := filepath.Join(h.Cfg.UploadDir, name)
	dst, err := os.Create(path)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "store avatar failed"})
	}
	if _, err := io.Copy(dst, io.LimitReader(src, maxAvatarBytes+1)); err != nil {
		dst.Close()
		os.Remove(path)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "store avatar failed"})
	}
	if err := dst.Close(); err != nil {
		os.Remove(path)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "store avatar failed"})
	}

	avatarURL := h.Cfg.PublicBaseURL + "/uploads/avatars/" + name

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Users.SetAvatarURL(ctx, uid, avatarURL); err != nil {
		os.Remove(path)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save avatar failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "avatar_url": avatarURL})
}

// ListAvatars lists the uploaded avatar files as URLs.
func (h *UserHandler) ListAvatars(c echo.Context) error {
	entries, err := os.ReadDir(h.Cfg.UploadDir)
	if err != nil {
		if os.IsNotExist(err) {
			return c.JSON(http.StatusOK, echo.Map{"avatars": []string{}})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list avatars failed"})
	}
	urls := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		urls = append(urls, h.Cfg.PublicBaseURL+"/uploads/avatars/"+e.Name())
	}
	return c.JSON(http.StatusOK, echo.Map{"avatars": urls})
}

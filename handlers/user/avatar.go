package user

import (
	"fmt"
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/curriculum-tracker/model"
	"github.com/sahilchouksey/curriculum-tracker/utils/middleware"
	"github.com/sahilchouksey/curriculum-tracker/utils/response"
)

// MaxAvatarSize is the largest accepted profile picture
const MaxAvatarSize = 5 << 20

// UploadAvatar handles POST /api/v1/users/:id/avatar (multipart field "file")
func (h *UserHandler) UploadAvatar(c *fiber.Ctx) error {
	actor, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}
	id := c.Params("id")
	if actor.ID != id && !actor.Role.Can(model.ActionManageUsers) {
		return response.Forbidden(c, "Not enough permissions")
	}
	if h.uploader == nil {
		return response.ServiceUnavailable(c, "Avatar storage is not configured")
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return response.BadRequest(c, "A file field is required")
	}
	if fh.Size > MaxAvatarSize {
		return response.BadRequest(c, fmt.Sprintf("File exceeds %d MB", MaxAvatarSize>>20))
	}
	contentType := fh.Header.Get(fiber.HeaderContentType)
	if !strings.HasPrefix(contentType, "image/") {
		return response.BadRequest(c, "Only image files are allowed")
	}

	f, err := fh.Open()
	if err != nil {
		return response.BadRequest(c, "Failed to read file")
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, MaxAvatarSize+1))
	if err != nil {
		return response.BadRequest(c, "Failed to read file")
	}

	ctx := c.UserContext()
	url, err := h.uploader.UploadAvatar(ctx, id, fh.Filename, contentType, data)
	if err != nil {
		return response.FromError(c, err)
	}

	user, err := h.users.SetProfilePicture(ctx, actor, id, url)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, user)
}

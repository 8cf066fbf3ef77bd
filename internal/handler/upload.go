package handler

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/scanvault/api/internal/model"
	"github.com/scanvault/api/internal/service"
	"github.com/scanvault/api/pkg/response"
)

const maxVideoSize = 1024 * 1024 * 1024 // 1GB

type UploadHandler struct {
	service   service.VideoSubmitter
	validator *validator.Validate
}

func NewUploadHandler(svc service.VideoSubmitter, v *validator.Validate) *UploadHandler {
	return &UploadHandler{
		service:   svc,
		validator: v,
	}
}

// Video handles POST /api/upload/video
// @Summary      Submit video for reconstruction
// @Description  Forward a video to the vendor and create a tracked job in the queuing state
// @Tags         Upload
// @Accept       multipart/form-data
// @Produce      json
// @Param        videoFile        formData file   true  "Video file"
// @Param        title            formData string false "Display title"
// @Param        modelQuality     formData string false "0 high, 1 medium, 2 low, 3 ultra"
// @Param        textureQuality   formData string false "0 4K, 1 2K, 2 1K, 3 8K"
// @Param        fileFormat       formData string false "obj, fbx, stl, ply, glb, gltf, usdz, xyz"
// @Param        isMask           formData string false "0 or 1"
// @Param        textureSmoothing formData string false "0 or 1"
// @Success      201 {object} model.UploadVideoResponse
// @Failure      400 {object} response.ErrorResponse
// @Failure      401 {object} response.ErrorResponse
// @Failure      422 {object} response.ErrorResponse
// @Failure      429 {object} response.ErrorResponse
// @Failure      500 {object} response.ErrorResponse
// @Failure      502 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/upload/video [post]
func (h *UploadHandler) Video(c *fiber.Ctx) error {
	file, err := c.FormFile("videoFile")
	if err != nil {
		return response.ValidationError(c, "Video file is required", nil)
	}

	if file.Size > maxVideoSize {
		return response.ValidationError(c, "File size exceeds 1GB limit", map[string]interface{}{
			"maxSize":  maxVideoSize,
			"fileSize": file.Size,
		})
	}

	contentType := file.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "video/") {
		return response.ValidationError(c, "Invalid file type. Only video files are allowed", map[string]interface{}{
			"contentType": contentType,
		})
	}

	opts := model.DefaultUploadVideoOptions()
	opts.Title = strings.TrimSpace(c.FormValue("title"))
	formOverride(c, "modelQuality", &opts.ModelQuality)
	formOverride(c, "textureQuality", &opts.TextureQuality)
	formOverride(c, "fileFormat", &opts.FileFormat)
	formOverride(c, "isMask", &opts.IsMask)
	formOverride(c, "textureSmoothing", &opts.TextureSmoothing)
	opts.FileFormat = strings.ToLower(opts.FileFormat)

	if err := h.validator.Struct(&opts); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	f, err := file.Open()
	if err != nil {
		return response.ServiceError(c, "Failed to open file")
	}
	defer f.Close()

	job, err := h.service.SubmitVideo(c.UserContext(), file.Filename, f, opts)
	if err != nil {
		return writeServiceError(c, err)
	}

	return response.Created(c, model.UploadVideoResponse{
		Message: "Video uploaded and job created successfully.",
		JobID:   job.ID,
		Job:     job,
	})
}

func formOverride(c *fiber.Ctx, key string, dst *string) {
	if v := strings.TrimSpace(c.FormValue(key)); v != "" {
		*dst = v
	}
}

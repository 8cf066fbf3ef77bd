package model

// UploadVideoOptions are the processing options forwarded to the vendor with a video
type UploadVideoOptions struct {
	Title            string `json:"title" validate:"omitempty,max=200"`
	ModelQuality     string `json:"modelQuality" validate:"oneof=0 1 2 3"`
	TextureQuality   string `json:"textureQuality" validate:"oneof=0 1 2 3"`
	FileFormat       string `json:"fileFormat" validate:"oneof=obj fbx stl ply glb gltf usdz xyz"`
	IsMask           string `json:"isMask" validate:"oneof=0 1"`
	TextureSmoothing string `json:"textureSmoothing" validate:"oneof=0 1"`
}

// DefaultUploadVideoOptions mirrors the dashboard's upload form defaults
func DefaultUploadVideoOptions() UploadVideoOptions {
	return UploadVideoOptions{
		ModelQuality:     string(ModelQualityMedium),
		TextureQuality:   string(TextureQuality2K),
		FileFormat:       string(FileFormatGLB),
		IsMask:           "0",
		TextureSmoothing: "0",
	}
}

// UploadVideoResponse represents the response for a video submission
type UploadVideoResponse struct {
	Message string     `json:"message"`
	JobID   string     `json:"jobId"`
	Job     *JobRecord `json:"job"`
}

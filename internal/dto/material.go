package dto

// CreateMaterialRequest creates a material row without attaching bytes; the
// type tag is still derived server-side when a file reference is present.
type CreateMaterialRequest struct {
	Title    string  `json:"title" validate:"required,max=200"`
	CourseID *string `json:"course"`
	LevelID  *string `json:"level"`
	LessonID *string `json:"lesson"`
	Duration *int    `json:"duration" validate:"omitempty,min=0"`
	Order    int     `json:"order"`
}

// UpdateMaterialRequest carries partial material updates. File metadata
// (type, size, paths) is never client-writable.
type UpdateMaterialRequest struct {
	Title    *string `json:"title" validate:"omitempty,max=200"`
	CourseID *string `json:"course"`
	LevelID  *string `json:"level"`
	LessonID *string `json:"lesson"`
	Duration *int    `json:"duration" validate:"omitempty,min=0"`
	Order    *int    `json:"order"`
}

// UploadMaterialRequest is the multipart form payload accompanying a direct
// file upload.
type UploadMaterialRequest struct {
	CourseID string `form:"course" validate:"required"`
	LevelID  string `form:"level"`
	Title    string `form:"title"`
	Order    int    `form:"order"`
}

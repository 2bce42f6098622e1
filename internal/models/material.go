package models

import (
	"time"

	"github.com/englify/englify-api/pkg/filetype"
)

// Material describes a learning asset. Course, level and lesson references
// are all nullable: a material can sit unattached pending classification.
// Exactly one of StoredFile (direct upload) or FilePath (path relative to the
// materials root, registered by the scanner) is set for materials that have
// bytes on disk.
type Material struct {
	ID         string        `db:"id" json:"id"`
	CourseID   *string       `db:"course_id" json:"course,omitempty"`
	LevelID    *string       `db:"level_id" json:"level,omitempty"`
	LessonID   *string       `db:"lesson_id" json:"lesson,omitempty"`
	Title      string        `db:"title" json:"title"`
	StoredFile *string       `db:"stored_file" json:"file,omitempty"`
	FilePath   *string       `db:"file_path" json:"file_path,omitempty"`
	Type       filetype.Kind `db:"material_type" json:"material_type"`
	FileSize   *int64        `db:"file_size" json:"file_size,omitempty"`
	Duration   *int          `db:"duration" json:"duration,omitempty"`
	Order      int           `db:"sort_order" json:"order"`
	CreatedAt  time.Time     `db:"created_at" json:"created_at"`
}

// FileName returns the base name the file endpoint advertises for this
// material, preferring the physical file name over the title.
func (m *Material) FileName() string {
	if m.StoredFile != nil && *m.StoredFile != "" {
		return baseName(*m.StoredFile)
	}
	if m.FilePath != nil && *m.FilePath != "" {
		return baseName(*m.FilePath)
	}
	return m.Title
}

func baseName(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' || path[i] == '\\' {
			return path[i+1:]
		}
	}
	return path
}

// MaterialFilter captures list filters for materials.
type MaterialFilter struct {
	CourseID string
	LevelID  string
}

// ScanResult summarises a directory scan run.
type ScanResult struct {
	Created  int `json:"created"`
	Existing int `json:"existing"`
	Skipped  int `json:"skipped"`
}

package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// StudentProfile is the one-to-one extension row for student accounts,
// created in the same transaction as the user.
type StudentProfile struct {
	ID             string         `db:"id" json:"id"`
	UserID         string         `db:"user_id" json:"user_id"`
	EnrollmentDate time.Time      `db:"enrollment_date" json:"enrollment_date"`
	Progress       types.JSONText `db:"progress" json:"progress"`
}

// TeacherProfile is the one-to-one extension row for teacher accounts.
type TeacherProfile struct {
	ID             string    `db:"id" json:"id"`
	UserID         string    `db:"user_id" json:"user_id"`
	HireDate       time.Time `db:"hire_date" json:"hire_date"`
	Bio            string    `db:"bio" json:"bio"`
	Specialization string    `db:"specialization" json:"specialization"`
}

package models

// ResolvedEvent is a Lesson enriched with denormalized display data and
// layout geometry. It is derived, in-memory only, and rebuilt from scratch
// on every assembly pass.
type ResolvedEvent struct {
	Lesson
	ClassName   string     `json:"class_name"`
	CourseName  string     `json:"course_name"`
	TeacherName string     `json:"teacher_name"`
	TeacherID   *TeacherID `json:"teacher_id,omitempty"`
	EventColor  string     `json:"event_color"`
	TopPx       float64    `json:"top_px"`
	HeightPx    float64    `json:"height_px"`
}

// Pagination describes list pagination metadata in responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

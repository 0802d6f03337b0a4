package models

// Subject represents an academic subject.
type Subject struct {
	ID    SubjectID `db:"id" json:"id"`
	Name  string    `db:"name" json:"name"`
	Color *string   `db:"color" json:"color,omitempty"`
}

package dto

import (
	"bytes"
	"encoding/json"

	"github.com/noah-isme/timetable-api/internal/models"
)

// FlexID accepts a JSON string or number and normalizes it to string form.
// The clients feeding this API disagree on whether ids are numeric
// surrogates or opaque keys; the disagreement stops here.
type FlexID string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = FlexID(n.String())
	return nil
}

func (f FlexID) IsZero() bool { return f == "" }

// lessonPayload accepts every field spelling the legacy clients emit. The
// snake_case spelling wins when both are present.
type lessonPayload struct {
	Title       *string `json:"title"`
	ClassRef    *FlexID `json:"class_ref"`
	ClassID     *FlexID `json:"classId"`
	ClassIDAlt  *FlexID `json:"class_id"`
	SubjectRef  *FlexID `json:"subject_ref"`
	SubjectID   *FlexID `json:"subjectId"`
	SubjectAlt  *FlexID `json:"subject_id"`
	Day         *int    `json:"day"`
	StartHour   *int    `json:"start_hour"`
	StartMinute *int    `json:"start_minute"`
	EndHour     *int    `json:"end_hour"`
	EndMinute   *int    `json:"end_minute"`
	Location    *string `json:"location"`
	Color       *string `json:"color"`
}

func firstID(candidates ...*FlexID) *FlexID {
	for _, c := range candidates {
		if c != nil && !c.IsZero() {
			return c
		}
	}
	return nil
}

// LessonRequest is the canonical shape of a create or update payload after
// the field-spelling normalization boundary.
type LessonRequest struct {
	Title       *string
	ClassRef    *models.ClassID
	SubjectRef  *models.SubjectID
	Day         *int
	StartHour   *int
	StartMinute *int
	EndHour     *int
	EndMinute   *int
	Location    *string
	Color       *string
}

// UnmarshalJSON folds every accepted spelling into the canonical shape.
func (r *LessonRequest) UnmarshalJSON(b []byte) error {
	var payload lessonPayload
	if err := json.Unmarshal(b, &payload); err != nil {
		return err
	}

	r.Title = payload.Title
	r.Day = payload.Day
	r.StartHour = payload.StartHour
	r.StartMinute = payload.StartMinute
	r.EndHour = payload.EndHour
	r.EndMinute = payload.EndMinute
	r.Location = payload.Location
	r.Color = payload.Color

	if id := firstID(payload.ClassRef, payload.ClassID, payload.ClassIDAlt); id != nil {
		ref := models.ClassID(*id)
		r.ClassRef = &ref
	}
	if id := firstID(payload.SubjectRef, payload.SubjectID, payload.SubjectAlt); id != nil {
		ref := models.SubjectID(*id)
		r.SubjectRef = &ref
	}
	return nil
}

// Patch converts the request into a lesson patch.
func (r LessonRequest) Patch() models.LessonPatch {
	return models.LessonPatch{
		Title:       r.Title,
		ClassRef:    r.ClassRef,
		SubjectRef:  r.SubjectRef,
		Day:         r.Day,
		StartHour:   r.StartHour,
		StartMinute: r.StartMinute,
		EndHour:     r.EndHour,
		EndMinute:   r.EndMinute,
		Location:    r.Location,
		Color:       r.Color,
	}
}

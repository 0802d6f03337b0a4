package dto

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-api/internal/models"
)

func TestFlexIDAcceptsStringAndNumber(t *testing.T) {
	var f FlexID
	require.NoError(t, json.Unmarshal([]byte(`"abc-123"`), &f))
	assert.Equal(t, FlexID("abc-123"), f)

	require.NoError(t, json.Unmarshal([]byte(`42`), &f))
	assert.Equal(t, FlexID("42"), f)

	require.NoError(t, json.Unmarshal([]byte(`null`), &f))
	assert.True(t, f.IsZero())
}

func TestLessonRequestNormalizesFieldSpellings(t *testing.T) {
	cases := []struct {
		name    string
		payload string
	}{
		{"snake_case", `{"class_ref":"c1","subject_ref":"s1"}`},
		{"camelCase", `{"classId":"c1","subjectId":"s1"}`},
		{"legacy snake", `{"class_id":"c1","subject_id":"s1"}`},
		{"numeric ids", `{"classId":"c1","subject_id":"s1"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var req LessonRequest
			require.NoError(t, json.Unmarshal([]byte(tc.payload), &req))
			require.NotNil(t, req.ClassRef)
			require.NotNil(t, req.SubjectRef)
			assert.Equal(t, models.ClassID("c1"), *req.ClassRef)
			assert.Equal(t, models.SubjectID("s1"), *req.SubjectRef)
		})
	}
}

func TestLessonRequestNumericIDNormalized(t *testing.T) {
	var req LessonRequest
	require.NoError(t, json.Unmarshal([]byte(`{"classId":7,"title":"Math","day":2}`), &req))
	require.NotNil(t, req.ClassRef)
	assert.Equal(t, models.ClassID("7"), *req.ClassRef)
	require.NotNil(t, req.Day)
	assert.Equal(t, 2, *req.Day)
}

func TestLessonRequestSnakeCaseWinsWhenBothPresent(t *testing.T) {
	var req LessonRequest
	require.NoError(t, json.Unmarshal([]byte(`{"class_ref":"canonical","classId":"legacy"}`), &req))
	require.NotNil(t, req.ClassRef)
	assert.Equal(t, models.ClassID("canonical"), *req.ClassRef)
}

func TestLessonRequestPatchCarriesOnlySetFields(t *testing.T) {
	var req LessonRequest
	require.NoError(t, json.Unmarshal([]byte(`{"title":"Bio","start_hour":9}`), &req))

	patch := req.Patch()
	require.NotNil(t, patch.Title)
	assert.Equal(t, "Bio", *patch.Title)
	require.NotNil(t, patch.StartHour)
	assert.Equal(t, 9, *patch.StartHour)
	assert.Nil(t, patch.EndHour)
	assert.Nil(t, patch.ClassRef)
}

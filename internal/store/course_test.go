package store

import (
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studynotion/apiserver/types"
)

type fakeRow []any

func (r fakeRow) Scan(dest ...any) error {
	for i, d := range dest {
		reflect.ValueOf(d).Elem().Set(reflect.ValueOf(r[i]))
	}
	return nil
}

func courseRow(tags, instructions string) fakeRow {
	now := time.Now()
	return fakeRow{
		7, "Go", "desc", "learn", 10.0, 1, 2,
		[]byte(tags), []byte(instructions),
		"https://media/t.png", types.CourseDraft, now, now,
	}
}

func TestScanCourse(t *testing.T) {
	course, err := scanCourse(courseRow(`["go","backend"]`, `["Install Go"]`))
	require.NoError(t, err)
	assert.Equal(t, 7, course.ID)
	assert.Equal(t, []string{"go", "backend"}, course.Tags)
	assert.Equal(t, []string{"Install Go"}, course.Instructions)
}

func TestScanCourseRejectsCorruptLists(t *testing.T) {
	_, err := scanCourse(courseRow(`{"go":1}`, `[]`))
	assert.ErrorContains(t, err, "course 7 tags")

	_, err = scanCourse(courseRow(`[]`, `not json`))
	assert.ErrorContains(t, err, "course 7 instructions")
}

package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStudentUnmarshal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want Student
	}{
		{
			name: "canonical record",
			in:   `{"id":"a1","name":"Ann","section":"3CA","marks":95,"grade":"A"}`,
			want: Student{ID: "a1", Name: "Ann", Section: "3CA", Marks: 95, Grade: "A"},
		},
		{
			name: "numeric id",
			in:   `{"id":7,"name":"Bob","section":"3CB","marks":55.5,"grade":"D"}`,
			want: Student{ID: "7", Name: "Bob", Section: "3CB", Marks: 55.5, Grade: "D"},
		},
		{
			name: "marks stored as text",
			in:   `{"id":"c3","name":"Cy","section":"3CC","marks":" 72 ","grade":"B"}`,
			want: Student{ID: "c3", Name: "Cy", Section: "3CC", Marks: 72, Grade: "B"},
		},
		{
			name: "no id yet",
			in:   `{"name":"Dee","section":"3CA","marks":0,"grade":"F"}`,
			want: Student{Name: "Dee", Section: "3CA", Marks: 0, Grade: "F"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var got Student
			require.NoError(t, json.Unmarshal([]byte(tt.in), &got))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStudentUnmarshal_Rejects(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"missing marks":     `{"id":"a","name":"Ann","section":"3CA","grade":"A"}`,
		"null marks":        `{"id":"a","name":"Ann","section":"3CA","marks":null,"grade":"A"}`,
		"non numeric marks": `{"id":"a","name":"Ann","section":"3CA","marks":"lots","grade":"A"}`,
		"boolean id":        `{"id":true,"name":"Ann","section":"3CA","marks":1,"grade":"A"}`,
		"not an object":     `[1,2,3]`,
	}

	for name, in := range tests {
		in := in
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			var got Student
			assert.Error(t, json.Unmarshal([]byte(in), &got))
		})
	}
}

func TestStudentMarshal_OmitsEmptyID(t *testing.T) {
	t.Parallel()

	raw, err := json.Marshal(Student{Name: "Ann", Section: "3CA", Marks: 95, Grade: "A"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Ann","section":"3CA","marks":95,"grade":"A"}`, string(raw))
}

func TestDraft(t *testing.T) {
	t.Parallel()

	t.Run("new draft carries defaults", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, Draft{Section: "3CA", Grade: "A"}, NewDraft())
	})

	t.Run("draft from record", func(t *testing.T) {
		t.Parallel()
		d := DraftFrom(Student{ID: "x", Name: "Ann", Section: "3CB", Marks: 72.5, Grade: "B"})
		assert.Equal(t, Draft{Name: "Ann", Section: "3CB", Marks: "72.5", Grade: "B"}, d)
	})

	t.Run("student trims name and parses marks", func(t *testing.T) {
		t.Parallel()
		s, err := Draft{Name: "  Ann  ", Section: "3CA", Marks: " 88 ", Grade: "A"}.Student()
		require.NoError(t, err)
		assert.Equal(t, Student{Name: "Ann", Section: "3CA", Marks: 88, Grade: "A"}, s)
	})

	t.Run("student rejects unparsable marks", func(t *testing.T) {
		t.Parallel()
		_, err := Draft{Name: "Ann", Marks: "x"}.Student()
		assert.Error(t, err)
	})
}

func TestFormatMarks(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "95", FormatMarks(95))
	assert.Equal(t, "72.5", FormatMarks(72.5))
	assert.Equal(t, "0", FormatMarks(0))
}

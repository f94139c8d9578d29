package queryengine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hrygo/notegraph/store"
)

func testNote() *store.Note {
	return &store.Note{
		UID:        "n1",
		NotebookID: 3,
		Title:      "Weekly draft",
		Content:    "TODO finish the report",
		Summary:    "report draft",
		Tags:       []string{"golang", "work"},
		CreatedTs:  100,
		UpdatedTs:  200,
	}
}

func TestCompileNoteFilterInvalid(t *testing.T) {
	_, err := CompileNoteFilter("title ==")
	require.Error(t, err)
}

func TestCompileNoteFilterNonBool(t *testing.T) {
	_, err := CompileNoteFilter("title")
	require.Error(t, err)
	require.Contains(t, err.Error(), "boolean")
}

func TestNoteFilterMatch(t *testing.T) {
	tests := []struct {
		expression string
		matched    bool
	}{
		{`"golang" in tags`, true},
		{`"python" in tags`, false},
		{`notebook_id == 3`, true},
		{`notebook_id == 4`, false},
		{`title.contains("draft")`, true},
		{`content.contains("TODO") && "work" in tags`, true},
		{`updated_ts > 150`, true},
		{`created_ts > 150`, false},
		{`summary.startsWith("report") || notebook_id == 99`, true},
	}
	for _, tt := range tests {
		t.Run(tt.expression, func(t *testing.T) {
			filter, err := CompileNoteFilter(tt.expression)
			require.NoError(t, err)

			matched, err := filter.Match(testNote())
			require.NoError(t, err)
			require.Equal(t, tt.matched, matched)
		})
	}
}

func TestFilterNotes(t *testing.T) {
	filter, err := CompileNoteFilter(`"golang" in tags`)
	require.NoError(t, err)

	tagged := testNote()
	plain := &store.Note{UID: "n2", Tags: []string{}}

	filtered, err := FilterNotes(filter, []*store.Note{tagged, plain})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	require.Equal(t, "n1", filtered[0].UID)
}

func TestFilterNotesNilTags(t *testing.T) {
	filter, err := CompileNoteFilter(`size(tags) == 0`)
	require.NoError(t, err)

	matched, err := filter.Match(&store.Note{UID: "n3"})
	require.NoError(t, err)
	require.True(t, matched)
}

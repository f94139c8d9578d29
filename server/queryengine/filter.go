// Package queryengine evaluates CEL filter expressions against notes.
// List endpoints accept expressions such as
//
//	"golang" in tags && notebook_id == 3
//	title.contains("draft") || content.contains("TODO")
package queryengine

import (
	"github.com/google/cel-go/cel"
	"github.com/pkg/errors"

	"github.com/hrygo/notegraph/store"
)

var filterEnv *cel.Env

func init() {
	var err error
	filterEnv, err = cel.NewEnv(
		cel.Variable("title", cel.StringType),
		cel.Variable("content", cel.StringType),
		cel.Variable("summary", cel.StringType),
		cel.Variable("tags", cel.ListType(cel.StringType)),
		cel.Variable("notebook_id", cel.IntType),
		cel.Variable("created_ts", cel.IntType),
		cel.Variable("updated_ts", cel.IntType),
	)
	if err != nil {
		panic(err)
	}
}

// NoteFilter is a compiled filter expression, reusable across notes.
type NoteFilter struct {
	program cel.Program
}

// CompileNoteFilter compiles an expression into a boolean note predicate.
func CompileNoteFilter(expression string) (*NoteFilter, error) {
	ast, issues := filterEnv.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, errors.Wrap(issues.Err(), "invalid filter expression")
	}
	if ast.OutputType() != cel.BoolType {
		return nil, errors.Errorf("filter must evaluate to a boolean, got %s", ast.OutputType())
	}
	program, err := filterEnv.Program(ast)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build filter program")
	}
	return &NoteFilter{program: program}, nil
}

// Match evaluates the filter against one note.
func (f *NoteFilter) Match(note *store.Note) (bool, error) {
	tags := note.Tags
	if tags == nil {
		tags = []string{}
	}
	out, _, err := f.program.Eval(map[string]any{
		"title":       note.Title,
		"content":     note.Content,
		"summary":     note.Summary,
		"tags":        tags,
		"notebook_id": int64(note.NotebookID),
		"created_ts":  note.CreatedTs,
		"updated_ts":  note.UpdatedTs,
	})
	if err != nil {
		return false, errors.Wrap(err, "failed to evaluate filter")
	}
	matched, ok := out.Value().(bool)
	if !ok {
		return false, errors.Errorf("filter returned %T, want bool", out.Value())
	}
	return matched, nil
}

// FilterNotes applies a compiled filter to a note list, keeping order.
func FilterNotes(filter *NoteFilter, notes []*store.Note) ([]*store.Note, error) {
	filtered := []*store.Note{}
	for _, note := range notes {
		matched, err := filter.Match(note)
		if err != nil {
			return nil, err
		}
		if matched {
			filtered = append(filtered, note)
		}
	}
	return filtered, nil
}

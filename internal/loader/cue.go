package loader

import (
	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"

	"github.com/roach88/eidetic/internal/payload"
)

// decodeCUE evaluates a single CUE file and decodes its JSON export.
// CUE emits struct fields in declaration order, which payload.Unmarshal keeps.
func decodeCUE(path string, data []byte) (payload.Value, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(path))
	if err := v.Err(); err != nil {
		return nil, cueError(path, ErrCodeParse, err)
	}
	if err := v.Validate(); err != nil {
		return nil, cueError(path, ErrCodeParse, err)
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, cueError(path, ErrCodeIncomplete, err)
	}

	out, err := v.MarshalJSON()
	if err != nil {
		return nil, cueError(path, ErrCodeIncomplete, err)
	}
	return decodeJSON(path, out)
}

// cueError keeps the first position CUE reports.
func cueError(path, code string, err error) *LoadError {
	le := &LoadError{Code: code, Path: path, Message: cueerrors.Details(err, nil), Err: err}
	for _, e := range cueerrors.Errors(err) {
		if pos := e.Position(); pos.IsValid() {
			le.Line = pos.Line()
			le.Message = e.Error()
			break
		}
	}
	return le
}

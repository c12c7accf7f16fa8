package loader

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/eidetic/internal/payload"
)

// LoadFile reads path and returns its top-level object.
// The format is chosen by extension; see the package documentation.
func LoadFile(path string) (payload.Object, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return payload.Object{}, &LoadError{Code: ErrCodeRead, Path: path, Message: "cannot read file", Err: err}
	}
	return Load(path, data)
}

// Load decodes data as if it had been read from path.
func Load(path string, data []byte) (payload.Object, error) {
	var (
		v   payload.Value
		err error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		v, err = decodeJSON(path, data)
	case ".yaml", ".yml":
		v, err = decodeYAML(path, data)
	case ".cue":
		v, err = decodeCUE(path, data)
	default:
		return payload.Object{}, &LoadError{
			Code:    ErrCodeFormat,
			Path:    path,
			Message: fmt.Sprintf("unsupported extension %q (want .json, .yaml, .yml or .cue)", ext),
		}
	}
	if err != nil {
		return payload.Object{}, err
	}

	obj, ok := v.(payload.Object)
	if !ok {
		return payload.Object{}, &LoadError{Code: ErrCodeNotObject, Path: path, Message: "top level must be an object"}
	}
	return obj, nil
}

func decodeJSON(path string, data []byte) (payload.Value, error) {
	v, err := payload.Unmarshal(data)
	if err != nil {
		return nil, payloadError(path, err)
	}
	return v, nil
}

// payloadError maps a payload decoding error to a LoadError.
func payloadError(path string, err error) *LoadError {
	if errors.Is(err, payload.ErrFloat) || errors.Is(err, payload.ErrInvalidUTF8) {
		return &LoadError{Code: ErrCodeUnsupported, Path: path, Message: err.Error(), Err: err}
	}
	return &LoadError{Code: ErrCodeParse, Path: path, Message: err.Error(), Err: err}
}

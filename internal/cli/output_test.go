package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/eidetic/internal/chain"
	"github.com/roach88/eidetic/internal/loader"
	"github.com/roach88/eidetic/internal/payload"
	"github.com/roach88/eidetic/internal/store"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Success(map[string]int{"versions": 3})
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.NotNil(t, resp.Data)
	assert.Contains(t, buf.String(), "\n  \"data\"", "JSON output is indented")
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Error(ErrCodeIntegrity, "integrity violation", map[string]string{"attribute": "name"})
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeIntegrity, resp.Error.Code)
	assert.Equal(t, "integrity violation", resp.Error.Message)
	assert.NotNil(t, resp.Error.Details)
}

func TestOutputFormatter_Text(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	require.NoError(t, formatter.Success("✓ user-1"))
	require.NoError(t, formatter.Error(ErrCodeNotFound, "model not found", "ignored without verbose"))

	assert.Equal(t, "✓ user-1\nError [E005]: model not found\n", buf.String())
}

func TestOutputFormatter_TextErrorVerbose(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf, Verbose: true}

	require.NoError(t, formatter.Error(ErrCodeBadValue, "invalid value", "line 3"))
	assert.Contains(t, buf.String(), "Error [E002]")
	assert.Contains(t, buf.String(), "Details: line 3")
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		wantLog bool
	}{
		{"verbose_enabled", true, true},
		{"verbose_disabled", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := &bytes.Buffer{}
			errOut := &bytes.Buffer{}
			formatter := &OutputFormatter{
				Format:    "json",
				Writer:    out,
				ErrWriter: errOut,
				Verbose:   tt.verbose,
			}

			formatter.VerboseLog("wrote %s", "user-1.json")

			assert.Empty(t, out.String(), "diagnostics never go to stdout when ErrWriter is set")
			if tt.wantLog {
				assert.Equal(t, "wrote user-1.json\n", errOut.String())
			} else {
				assert.Empty(t, errOut.String())
			}
		})
	}
}

func TestNewFormatter(t *testing.T) {
	cmd := &cobra.Command{}
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)

	f := newFormatter(&RootOptions{Format: "json", Verbose: true}, cmd)
	assert.Equal(t, "json", f.Format)
	assert.True(t, f.Verbose)
	assert.Same(t, out, f.Writer)
	assert.Same(t, errOut, f.ErrWriter)
}

func TestExitError(t *testing.T) {
	cause := errors.New("disk full")
	err := WrapExitError(ExitCommandError, "failed to save model", cause)

	assert.Equal(t, "failed to save model: disk full", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Equal(t, ExitCommandError, GetExitCode(fmt.Errorf("wrapped: %w", err)))
	assert.Equal(t, ExitFailure, GetExitCode(cause))

	assert.Equal(t, "plain", NewExitError(ExitFailure, "plain").Error())
}

func TestClassifyError(t *testing.T) {
	integrity := (&chain.IntegrityError{Code: chain.ErrCodeBrokenLink, Ordinal: 2}).WithAttribute("name")

	tests := []struct {
		name    string
		err     error
		code    int
		errCode string
	}{
		{"integrity", fmt.Errorf("load: %w", integrity), ExitFailure, ErrCodeIntegrity},
		{"divergence", &store.DivergenceError{Model: "m", Attribute: "a"}, ExitFailure, ErrCodeDivergence},
		{"not found", fmt.Errorf("%w: m", store.ErrNotFound), ExitCommandError, ErrCodeNotFound},
		{"load error", &loader.LoadError{Code: loader.ErrCodeParse, Path: "a.yaml"}, ExitCommandError, loader.ErrCodeParse},
		{"float", fmt.Errorf("decode: %w", payload.ErrFloat), ExitCommandError, ErrCodeBadValue},
		{"invalid utf-8", fmt.Errorf("decode: %w", payload.ErrInvalidUTF8), ExitCommandError, ErrCodeBadValue},
		{"other", errors.New("boom"), ExitCommandError, ErrCodeGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyError("failed", tt.err)
			assert.Equal(t, tt.code, got.Code)
			assert.Equal(t, tt.errCode, got.ErrCode)
			assert.ErrorIs(t, got, tt.err)
		})
	}
}

func TestParseValue(t *testing.T) {
	v, err := parseValue(`{"b":1,"a":[true,null]}`, false)
	require.NoError(t, err)
	assert.Equal(t, `{"b":1,"a":[true,null]}`, canonical(v))

	v, err = parseValue(`not json`, true)
	require.NoError(t, err)
	assert.Equal(t, payload.String("not json"), v)

	_, err = parseValue(`not json`, false)
	requireExitError(t, err, ExitCommandError, ErrCodeBadValue)

	// Plain text is NFC-normalized; invalid UTF-8 is refused in both modes
	v, err = parseValue("e\u0301", true)
	require.NoError(t, err)
	assert.Equal(t, payload.String("\u00e9"), v)

	for _, raw := range []bool{true, false} {
		_, err = parseValue("\"\xff\"", raw)
		exitErr := requireExitError(t, err, ExitCommandError, ErrCodeBadValue)
		assert.ErrorIs(t, exitErr, payload.ErrInvalidUTF8)
	}
}

func TestOutputFormatter_Fail(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	cause := NewExitError(ExitFailure, "2 model(s) failed verification")
	err := formatter.Fail(cause, []string{"user-1", "user-2"})
	assert.Same(t, cause, err, "Fail returns the error it reported")

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeGeneric, resp.Error.Code, "missing code falls back to generic")
	assert.Equal(t, "2 model(s) failed verification", resp.Error.Message)
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/eidetic/internal/chain"
	"github.com/roach88/eidetic/internal/loader"
	"github.com/roach88/eidetic/internal/model"
	"github.com/roach88/eidetic/internal/payload"
	"github.com/roach88/eidetic/internal/store"
)

// openStore opens the archive named by --db.
func openStore(opts *RootOptions) (*store.Store, error) {
	slog.Debug("opening database", "path", opts.Database)
	st, err := store.Open(opts.Database)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

// closeStore closes st, logging any error.
func closeStore(st *store.Store) {
	if err := st.Close(); err != nil {
		slog.Error("error closing database", "error", err)
	}
}

// loadModel loads a stored model. With create set, a missing model is
// returned as a new empty one.
func loadModel(ctx context.Context, st *store.Store, name string, create bool) (*model.Model, error) {
	m, err := st.Load(ctx, name)
	if create && errors.Is(err, store.ErrNotFound) {
		slog.Debug("creating model", "model", name)
		return model.New(), nil
	}
	if err != nil {
		return nil, classifyError("failed to load model", err)
	}
	return m, nil
}

// saveModel appends the model's new versions to the archive.
func saveModel(ctx context.Context, st *store.Store, name string, m *model.Model) (store.SaveResult, error) {
	result, err := st.Save(ctx, name, m)
	if err != nil {
		return result, classifyError("failed to save model", err)
	}
	return result, nil
}

// classifyError maps domain errors to exit codes and JSON error codes.
func classifyError(message string, err error) *ExitError {
	var (
		div *store.DivergenceError
		le  *loader.LoadError
	)
	switch {
	case chain.IsIntegrityError(err):
		return &ExitError{Code: ExitFailure, Message: "integrity violation", Err: err, ErrCode: ErrCodeIntegrity}
	case errors.As(err, &div):
		return &ExitError{Code: ExitFailure, Message: message, Err: err, ErrCode: ErrCodeDivergence}
	case errors.Is(err, store.ErrNotFound):
		return &ExitError{Code: ExitCommandError, Message: message, Err: err, ErrCode: ErrCodeNotFound}
	case errors.As(err, &le):
		return &ExitError{Code: ExitCommandError, Message: message, Err: err, ErrCode: le.Code}
	case errors.Is(err, payload.ErrFloat), errors.Is(err, payload.ErrInvalidUTF8):
		return &ExitError{Code: ExitCommandError, Message: message, Err: err, ErrCode: ErrCodeBadValue}
	}
	return &ExitError{Code: ExitCommandError, Message: message, Err: err, ErrCode: ErrCodeGeneric}
}

// parseValue reads a command-line value as JSON, or verbatim with raw set.
func parseValue(arg string, raw bool) (payload.Value, error) {
	var (
		v   payload.Value
		err error
	)
	if raw {
		v, err = payload.NewString(arg)
	} else {
		v, err = payload.Unmarshal([]byte(arg))
	}
	if err != nil {
		msg := fmt.Sprintf("invalid value %q (use --string for plain text)", arg)
		if raw {
			msg = fmt.Sprintf("invalid value %q", arg)
		}
		return nil, &ExitError{
			Code:    ExitCommandError,
			Message: msg,
			Err:     err,
			ErrCode: ErrCodeBadValue,
		}
	}
	return v, nil
}

// outputJSON writes an indented success response.
func outputJSON(cmd *cobra.Command, data any) error {
	return jsonFormatter(cmd).Success(data)
}

// outputJSONError writes an error response and returns err for the exit code.
func outputJSONError(cmd *cobra.Command, err *ExitError, details any) error {
	return jsonFormatter(cmd).Fail(err, details)
}

func jsonFormatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{Format: "json", Writer: cmd.OutOrStdout(), ErrWriter: cmd.ErrOrStderr()}
}

// canonical renders a value for text output.
func canonical(v payload.Value) string {
	return string(payload.MustMarshalCanonical(v))
}

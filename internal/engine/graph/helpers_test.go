package graph

import (
	stderrors "errors"
	"io"
	"log/slog"

	"importcycles/internal/core/errors"
)

func asDomainError(err error, target **errors.DomainError) bool {
	return stderrors.As(err, target)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

package service

import (
	"errors"

	domainerrors "github.com/albumduel/albumduel-server/internal/errors"
	"github.com/albumduel/albumduel-server/internal/store"
)

// translateStoreError maps store sentinels onto coded domain errors.
// Other errors pass through unchanged.
func translateStoreError(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return domainerrors.NotFound(what + " not found").WithCause(err)
	case errors.Is(err, store.ErrAlreadyExists):
		return domainerrors.Conflict(what + " already exists").WithCause(err)
	default:
		return err
	}
}

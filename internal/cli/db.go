package cli

import (
	"context"

	"github.com/roach88/tracklog/internal/config"
	"github.com/roach88/tracklog/internal/store"
)

// withStore opens the configured database and hands it to fn.
func withStore(cfg *config.Config, fn func(st *store.Store) error) error {
	st, err := store.Open(cfg.DB)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()
	return fn(st)
}

// withTx opens the configured database and runs fn inside a transaction,
// committing only when fn succeeds. This is what makes a multi-track log
// or a whole catch-up run land atomically.
func withTx(ctx context.Context, cfg *config.Config, fn func(tx *store.Tx) error) error {
	return withStore(cfg, func(st *store.Store) error {
		tx, err := st.Begin(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to begin transaction", err)
		}
		defer tx.Rollback()

		if err := fn(tx); err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			return WrapExitError(ExitCommandError, "failed to commit transaction", err)
		}
		return nil
	})
}

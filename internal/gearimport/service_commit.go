package gearimport

import (
	"context"
	"errors"
	"fmt"

	"github.com/JonMunkholm/trailpack/internal/logging"
)

// CommitResult summarises a commit. SuccessCount counts created and updated
// items; skipped duplicates are not successes.
type CommitResult struct {
	BatchID      int64    `json:"batch_id"`
	Filename     string   `json:"filename"`
	SuccessCount int      `json:"success_count"`
	Created      int      `json:"created"`
	Updated      int      `json:"updated"`
	Skipped      int      `json:"skipped"`
	EmptyRows    int      `json:"empty_rows"`
	Errors       []string `json:"errors"`

	RowErrors []RowError `json:"-"`
}

type rowOutcome int

const (
	outcomeCreated rowOutcome = iota
	outcomeUpdated
	outcomeSkipped
)

// Commit imports every data row inside one transaction under a new import
// batch. Failing rows are collected and do not stop the run. When no row
// succeeds the transaction is rolled back and a *CommitError is returned.
// The uploaded file and the session are removed whatever the outcome.
func (s *Service) Commit(ctx context.Context, userID, sessionID string, action DuplicateAction) (*CommitResult, error) {
	if action == "" {
		action = DuplicateSkip
	}
	if action != DuplicateSkip && action != DuplicateUpdate {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDuplicateAction, action)
	}

	sess, err := s.sessions.Get(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if err := checkReadyForRows(sess); err != nil {
		return nil, err
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()
	defer s.teardown(ctx, sess)

	sheet, err := s.open(sess.FilePath, sess.Filename)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionExpired, err)
	}

	if s.commitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.commitTimeout)
		defer cancel()
	}

	sess.DuplicateAction = action
	logger := logging.WithFields(ctx, "user_id", userID, "session_id", sess.ID)

	result, err := s.commitRows(ctx, sess, sheet)
	if err != nil {
		logger.Warn("import failed", "error", err)
		return nil, err
	}

	logger.Info("import committed",
		"batch_id", result.BatchID,
		"created", result.Created,
		"updated", result.Updated,
		"skipped", result.Skipped,
		"row_errors", len(result.RowErrors),
		"ip", IPAddressFromContext(ctx),
	)
	return result, nil
}

func (s *Service) commitRows(ctx context.Context, sess *Session, sheet SheetReader) (*CommitResult, error) {
	header := NewHeaderRow(sheet, sess.HeaderRow)
	cols := BuildColumnMap(header, sess.Mapping)
	if _, ok := cols.Column(FieldName); !ok {
		return nil, fmt.Errorf("%w: name column not found in header row %d", ErrMappingInvalid, header.Row)
	}

	var result *CommitResult
	err := s.store.InTx(ctx, func(tx Store) error {
		result = &CommitResult{Filename: sess.Filename}

		batch, err := tx.CreateImportBatch(ctx, sess.UserID, sess.Filename)
		if err != nil {
			return fmt.Errorf("create import batch: %w", err)
		}
		result.BatchID = batch.ID

		owned, err := tx.GearNames(ctx, sess.UserID)
		if err != nil {
			return fmt.Errorf("load gear names: %w", err)
		}

		builder := newRowBuilder(tx, sess, cols)
		for i := header.Row + 1; i <= sheet.RowCount(); i++ {
			cells := sheet.Row(i)
			if isBlankRow(cells) {
				result.EmptyRows++
				continue
			}

			var (
				c       candidate
				outcome rowOutcome
				itemID  int64
			)
			err := tx.InTx(ctx, func(rowTx Store) error {
				var err error
				if c, err = builder.build(ctx, rowTx, i, cells); err != nil {
					return err
				}
				outcome, itemID, err = commitRow(ctx, rowTx, sess, batch.ID, c, owned)
				return err
			})
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				result.addRowError(i, err)
				continue
			}

			switch outcome {
			case outcomeCreated:
				owned[c.key()] = itemID
				result.Created++
			case outcomeUpdated:
				result.Updated++
			case outcomeSkipped:
				result.Skipped++
			}
		}

		result.SuccessCount = result.Created + result.Updated
		if result.SuccessCount == 0 {
			return &CommitError{Errors: result.RowErrors, Skipped: result.Skipped}
		}
		return tx.FinalizeImportBatch(ctx, batch.ID, result.SuccessCount)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// commitRow writes one candidate. Names the user already owns, including
// names created earlier in this run, follow the duplicate action.
func commitRow(ctx context.Context, tx Store, sess *Session, batchID int64, c candidate, owned map[string]int64) (rowOutcome, int64, error) {
	if existingID, ok := owned[c.key()]; ok {
		if sess.DuplicateAction != DuplicateUpdate {
			return outcomeSkipped, existingID, nil
		}
		if upd := c.update(); !upd.Empty() {
			if err := tx.UpdateGearItem(ctx, sess.UserID, existingID, upd); err != nil {
				return 0, 0, err
			}
		}
		return outcomeUpdated, existingID, nil
	}

	if c.WeightKg == nil {
		return 0, 0, RowError{Row: c.Row, Message: "weight can't be blank"}
	}
	item, err := tx.CreateGearItem(ctx, c.newItem(sess.UserID, batchID))
	if err != nil {
		return 0, 0, err
	}
	return outcomeCreated, item.ID, nil
}

func (r *CommitResult) addRowError(row int, err error) {
	var re RowError
	if !errors.As(err, &re) {
		re = RowError{Row: row, Message: err.Error()}
	}
	r.RowErrors = append(r.RowErrors, re)
	r.Errors = append(r.Errors, re.Error())
}

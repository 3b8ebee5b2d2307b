package cart

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/inframex/pos/catalog"
	"github.com/inframex/pos/internal/errors"
	"github.com/inframex/pos/internal/log"
	"github.com/inframex/pos/internal/otel"
)

// Receipt is the immutable record of a committed sale.
type Receipt struct {
	ID        uuid.UUID       `json:"id"`
	Lines     []Line          `json:"lines"`
	Total     decimal.Decimal `json:"total"`
	Timestamp time.Time       `json:"timestamp"`
}

// LineViolation names one cart line that blocked a commit.
type LineViolation struct {
	ProductID int64  `json:"productId"`
	Name      string `json:"name"`
	Requested int32  `json:"requested"`
	Available int32  `json:"available"`
	Err       error  `json:"-"`
}

// CommitError carries every violating line of a failed commit so the till
// can present one consolidated correction prompt.
type CommitError struct {
	Violations []LineViolation
}

func (e *CommitError) Error() string {
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = fmt.Sprintf(
			"productId=%d name=%q requested=%d available=%d: %s",
			v.ProductID,
			v.Name,
			v.Requested,
			v.Available,
			v.Err,
		)
	}
	return "commit rejected: " + strings.Join(msgs, "; ")
}

// Checkout performs the commit transition for one cart. Commit is
// single-flight per Checkout: a second call while one is outstanding fails
// fast with ErrCommitInProgress.
type Checkout struct {
	committing atomic.Bool
}

func NewCheckout() *Checkout {
	return &Checkout{}
}

// Commit re-validates every cart line against live catalog state, then
// decrements stock for all of them and empties the cart. Validation and
// mutation are fully separated: when any line fails validation no stock is
// touched, and when a decrement loses the race after validation the already
// applied decrements are restored, so the catalog is never left partially
// decremented.
func (ch *Checkout) Commit(
	c context.Context,
	crt *Cart,
	cat catalog.Catalog,
) (Receipt, error) {
	c, span := otel.Tracer.Start(c, "Checkout Commit")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Checkout Commit").
		Int(log.KeyLineCount, crt.Len()).
		Logger()

	if !ch.committing.CompareAndSwap(false, true) {
		err := errors.ErrCommitInProgress
		errors.HandleError(err, span)
		logger.Info().Err(err).Msg(err.Error())
		return Receipt{}, err
	}
	defer ch.committing.Store(false)

	if crt.Len() == 0 {
		err := errors.ErrEmptyCart
		errors.HandleError(err, span)
		logger.Info().Err(err).Msg(err.Error())
		return Receipt{}, err
	}

	lines := crt.Lines()

	logger = logger.With().Str(log.KeyProcess, "validating cart lines").Logger()
	logger.Info().Msg("validating cart lines against catalog")
	span.AddEvent("validating cart lines against catalog")
	violations := []LineViolation{}
	for _, line := range lines {
		lg := logger.With().
			Int64(log.KeyProductID, line.ProductID).
			Int32(log.KeyQuantity, line.Quantity).
			Logger()

		product, found, err := cat.FindById(c, line.ProductID)
		if err != nil {
			err = fmt.Errorf(
				"failed finding productId=%d with error=%w",
				line.ProductID,
				err,
			)
			errors.HandleError(err, span)
			lg.Error().Err(err).Msg(err.Error())
			return Receipt{}, err
		}
		if !found || !product.IsActive {
			lg.Info().Err(errors.ErrProductGone).Msg("cart line product is gone")
			violations = append(violations, LineViolation{
				ProductID: line.ProductID,
				Name:      line.Name,
				Requested: line.Quantity,
				Available: 0,
				Err:       errors.ErrProductGone,
			})
			continue
		}
		if product.Stock < line.Quantity {
			lg.Info().Err(errors.ErrInsufficientStock).Msg("cart line exceeds stock")
			violations = append(violations, LineViolation{
				ProductID: line.ProductID,
				Name:      line.Name,
				Requested: line.Quantity,
				Available: product.Stock,
				Err:       errors.ErrInsufficientStock,
			})
		}
	}
	if len(violations) > 0 {
		err := &CommitError{Violations: violations}
		errors.HandleError(err, span)
		logger.Info().Err(err).Int(log.KeyViolations, len(violations)).Msg(err.Error())
		return Receipt{}, err
	}
	span.AddEvent("validated cart lines against catalog")
	logger.Info().Msg("validated cart lines against catalog")

	logger = logger.With().Str(log.KeyProcess, "decrementing product stock").Logger()
	logger.Info().Msg("decrementing product stock")
	span.AddEvent("decrementing product stock")
	applied := []Line{}
	for _, line := range lines {
		err := cat.DecrementStock(c, line.ProductID, line.Quantity)
		if err == nil {
			applied = append(applied, line)
			continue
		}

		// A concurrent commit won the stock between validation and here.
		// Restore what this commit already took before reporting.
		logger = logger.With().Str(log.KeyProcess, "restoring decremented stock").Logger()
		logger.Info().
			Err(err).
			Int64(log.KeyProductID, line.ProductID).
			Msg("decrement lost the stock race, restoring applied decrements")
		span.AddEvent("restoring applied decrements")
		for _, appliedLine := range applied {
			restoreErr := cat.RestoreStock(c, appliedLine.ProductID, appliedLine.Quantity)
			if restoreErr != nil {
				restoreErr = fmt.Errorf(
					"failed restoring stock for productId=%d with error=%w",
					appliedLine.ProductID,
					restoreErr,
				)
				errors.HandleError(restoreErr, span)
				logger.Error().Err(restoreErr).Msg(restoreErr.Error())
				return Receipt{}, restoreErr
			}
		}
		span.AddEvent("restored applied decrements")

		available := int32(0)
		if product, found, findErr := cat.FindById(c, line.ProductID); findErr == nil && found {
			available = product.Stock
		}
		commitErr := &CommitError{Violations: []LineViolation{{
			ProductID: line.ProductID,
			Name:      line.Name,
			Requested: line.Quantity,
			Available: available,
			Err:       err,
		}}}
		errors.HandleError(commitErr, span)
		logger.Info().Err(commitErr).Msg(commitErr.Error())
		return Receipt{}, commitErr
	}
	span.AddEvent("decremented product stock")
	logger.Info().Msg("decremented product stock")

	receipt := Receipt{
		ID:        uuid.New(),
		Lines:     lines,
		Total:     CartTotal(lines),
		Timestamp: time.Now(),
	}
	crt.Clear()

	logger.Info().
		Str(log.KeyReceiptID, receipt.ID.String()).
		Str(log.KeyTotal, receipt.Total.String()).
		Msg("committed sale")
	span.AddEvent("committed sale")

	return receipt, nil
}

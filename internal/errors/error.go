package errors

import (
	"errors"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	ErrStockUnavailable  = errors.New("product is out of stock")
	ErrLineNotFound      = errors.New("cart line not found")
	ErrProductGone       = errors.New("product no longer available")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrCommitInProgress  = errors.New("checkout already in progress")
	ErrEmptyCart         = errors.New("cart is empty, nothing to checkout")
	ErrCartNotFound      = errors.New("cart not found")
	ErrReceiptNotFound   = errors.New("no receipt for this cart yet")
	ErrProductNotFound   = errors.New("product not found")
	ErrProductExists     = errors.New("product already exists")
)

func HandleError(err error, span trace.Span) {
	if err == nil {
		return
	}
	span.AddEvent(err.Error())
	span.SetStatus(codes.Error, err.Error())
	span.RecordError(err)
}

package controller

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/inframex/pos/cart"
	"github.com/inframex/pos/catalog"
	inErrors "github.com/inframex/pos/internal/errors"
	inHttp "github.com/inframex/pos/internal/http"
	"github.com/inframex/pos/internal/log"
	"github.com/inframex/pos/pos/internal/otel"
	"github.com/inframex/pos/pos/internal/service"
	"github.com/inframex/pos/pos/pkg/request"
	"github.com/inframex/pos/pos/pkg/response"
)

type PosController struct {
	service  *service.PosService
	validate *validator.Validate
}

func AttachPosController(router *mux.Router, svc *service.PosService) {
	controller := PosController{
		service:  svc,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}

	products := router.PathPrefix("/products").Subrouter()
	products.HandleFunc("", controller.SearchProducts).Methods(http.MethodGet)
	products.HandleFunc("", controller.InsertProduct).Methods(http.MethodPost)
	products.HandleFunc("/low-stock", controller.LowStockProducts).Methods(http.MethodGet)
	products.HandleFunc("/barcode/{barcode}", controller.FindProductByBarcode).
		Methods(http.MethodGet)
	products.HandleFunc("/{productId}", controller.FindProductById).Methods(http.MethodGet)
	products.HandleFunc("/{productId}", controller.UpdateProduct).Methods(http.MethodPut)
	products.HandleFunc("/{productId}", controller.RemoveProduct).Methods(http.MethodDelete)

	carts := router.PathPrefix("/carts").Subrouter()
	carts.HandleFunc("", controller.OpenCart).Methods(http.MethodPost)
	carts.HandleFunc("/{cartId}", controller.FindCart).Methods(http.MethodGet)
	carts.HandleFunc("/{cartId}", controller.ClearCart).Methods(http.MethodDelete)
	carts.HandleFunc("/{cartId}/items", controller.AddItem).Methods(http.MethodPost)
	carts.HandleFunc("/{cartId}/items/{productId}", controller.SetQuantity).
		Methods(http.MethodPut)
	carts.HandleFunc("/{cartId}/items/{productId}", controller.RemoveItem).
		Methods(http.MethodDelete)
	carts.HandleFunc("/{cartId}/checkout", controller.CheckoutCart).Methods(http.MethodPost)
	carts.HandleFunc("/{cartId}/receipt", controller.LastReceipt).Methods(http.MethodGet)
}

func statusCode(err error) int {
	notFound := []error{
		inErrors.ErrCartNotFound,
		inErrors.ErrProductNotFound,
		inErrors.ErrLineNotFound,
		inErrors.ErrReceiptNotFound,
	}
	for _, sentinel := range notFound {
		if errors.Is(err, sentinel) {
			return http.StatusNotFound
		}
	}
	conflict := []error{
		inErrors.ErrStockUnavailable,
		inErrors.ErrInsufficientStock,
		inErrors.ErrProductGone,
		inErrors.ErrEmptyCart,
		inErrors.ErrCommitInProgress,
		inErrors.ErrProductExists,
	}
	for _, sentinel := range conflict {
		if errors.Is(err, sentinel) {
			return http.StatusConflict
		}
	}
	var commitErr *cart.CommitError
	if errors.As(err, &commitErr) {
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func (p PosController) writeFailure(
	w http.ResponseWriter,
	r *http.Request,
	code int,
	err error,
) {
	body := map[string]interface{}{
		"status":     "failed",
		"statusCode": code,
		"message":    err.Error(),
	}
	var commitErr *cart.CommitError
	if errors.As(err, &commitErr) {
		body["violations"] = response.NewViolations(commitErr.Violations)
	}
	inHttp.WriteJsonResponse(r.Context(), w, map[string]string{}, body)
}

func (p PosController) writeSuccess(
	w http.ResponseWriter,
	r *http.Request,
	message string,
	data map[string]interface{},
) {
	inHttp.WriteJsonResponse(r.Context(), w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    message,
		"data":       data,
	})
}

func cartIdFromRequest(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(mux.Vars(r)["cartId"])
}

func productIdFromRequest(r *http.Request) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)["productId"], 10, 64)
}

func (p PosController) SearchProducts(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "PosController SearchProducts")
	defer span.End()

	query := catalog.SearchQuery{
		Search:   r.URL.Query().Get("search"),
		Category: r.URL.Query().Get("category"),
	}

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "PosController SearchProducts").
		Str(log.KeySearch, query.Search).
		Str(log.KeyCategory, query.Category).
		Logger()

	logger.Info().Msg("searching products")
	c = logger.WithContext(c)
	products, err := p.service.SearchProducts(c, query)
	if err != nil {
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		p.writeFailure(w, r.WithContext(c), statusCode(err), err)
		return
	}
	logger.Info().Msgf("found %d products", len(products))

	p.writeSuccess(w, r.WithContext(c), "successfully searched products", map[string]interface{}{
		"products": products,
	})
}

func (p PosController) FindProductById(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "PosController FindProductById")
	defer span.End()

	id, err := productIdFromRequest(r)
	if err != nil {
		err = fmt.Errorf("failed parsing productId with error=%w", err)
		inErrors.HandleError(err, span)
		p.writeFailure(w, r.WithContext(c), http.StatusBadRequest, err)
		return
	}

	product, err := p.service.FindProductById(c, id)
	if err != nil {
		inErrors.HandleError(err, span)
		p.writeFailure(w, r.WithContext(c), statusCode(err), err)
		return
	}

	p.writeSuccess(w, r.WithContext(c), "successfully found product", map[string]interface{}{
		"product": product,
	})
}

func (p PosController) FindProductByBarcode(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "PosController FindProductByBarcode")
	defer span.End()

	barcode := mux.Vars(r)["barcode"]

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "PosController FindProductByBarcode").
		Str(log.KeyBarcode, barcode).
		Logger()

	logger.Info().Msg("finding product by barcode")
	c = logger.WithContext(c)
	product, err := p.service.FindProductByBarcode(c, barcode)
	if err != nil {
		inErrors.HandleError(err, span)
		logger.Info().Err(err).Msg(err.Error())
		p.writeFailure(w, r.WithContext(c), statusCode(err), err)
		return
	}
	logger.Info().Msg("found product by barcode")

	p.writeSuccess(w, r.WithContext(c), "successfully found product", map[string]interface{}{
		"product": product,
	})
}

func (p PosController) LowStockProducts(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "PosController LowStockProducts")
	defer span.End()

	products, err := p.service.LowStockProducts(c)
	if err != nil {
		inErrors.HandleError(err, span)
		p.writeFailure(w, r.WithContext(c), statusCode(err), err)
		return
	}

	p.writeSuccess(w, r.WithContext(c), "successfully found low stock products", map[string]interface{}{
		"products": products,
	})
}

func (p PosController) InsertProduct(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "PosController InsertProduct")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "PosController InsertProduct").
		Logger()

	reqBody := request.Product{}
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		err = fmt.Errorf("failed decoding request body with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		p.writeFailure(w, r.WithContext(c), http.StatusBadRequest, err)
		return
	}

	if err := p.validate.StructCtx(c, reqBody); err != nil {
		err = fmt.Errorf("failed validating request body with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		p.writeFailure(w, r.WithContext(c), http.StatusBadRequest, err)
		return
	}

	logger.Info().Msg("inserting product")
	c = logger.WithContext(c)
	product, err := p.service.InsertProduct(c, reqBody)
	if err != nil {
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		p.writeFailure(w, r.WithContext(c), statusCode(err), err)
		return
	}
	logger.Info().Msg("inserted product")

	p.writeSuccess(w, r.WithContext(c), "successfully inserted product", map[string]interface{}{
		"product": product,
	})
}

func (p PosController) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "PosController UpdateProduct")
	defer span.End()

	id, err := productIdFromRequest(r)
	if err != nil {
		err = fmt.Errorf("failed parsing productId with error=%w", err)
		inErrors.HandleError(err, span)
		p.writeFailure(w, r.WithContext(c), http.StatusBadRequest, err)
		return
	}

	reqBody := request.UpdateProduct{}
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		err = fmt.Errorf("failed decoding request body with error=%w", err)
		inErrors.HandleError(err, span)
		p.writeFailure(w, r.WithContext(c), http.StatusBadRequest, err)
		return
	}

	if err := p.validate.StructCtx(c, reqBody); err != nil {
		err = fmt.Errorf("failed validating request body with error=%w", err)
		inErrors.HandleError(err, span)
		p.writeFailure(w, r.WithContext(c), http.StatusBadRequest, err)
		return
	}

	product, err := p.service.UpdateProduct(c, id, reqBody)
	if err != nil {
		inErrors.HandleError(err, span)
		p.writeFailure(w, r.WithContext(c), statusCode(err), err)
		return
	}

	p.writeSuccess(w, r.WithContext(c), "successfully updated product", map[string]interface{}{
		"product": product,
	})
}

func (p PosController) RemoveProduct(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "PosController RemoveProduct")
	defer span.End()

	id, err := productIdFromRequest(r)
	if err != nil {
		err = fmt.Errorf("failed parsing productId with error=%w", err)
		inErrors.HandleError(err, span)
		p.writeFailure(w, r.WithContext(c), http.StatusBadRequest, err)
		return
	}

	if err := p.service.RemoveProduct(c, id); err != nil {
		inErrors.HandleError(err, span)
		p.writeFailure(w, r.WithContext(c), statusCode(err), err)
		return
	}

	p.writeSuccess(w, r.WithContext(c), "successfully removed product", map[string]interface{}{})
}

func (p PosController) OpenCart(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "PosController OpenCart")
	defer span.End()

	cartResponse := p.service.OpenCart(c)
	span.AddEvent("opened cart")

	p.writeSuccess(w, r.WithContext(c), "successfully opened cart", map[string]interface{}{
		"cart": cartResponse,
	})
}

func (p PosController) FindCart(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "PosController FindCart")
	defer span.End()

	cartID, err := cartIdFromRequest(r)
	if err != nil {
		err = fmt.Errorf("failed parsing cartId with error=%w", err)
		inErrors.HandleError(err, span)
		p.writeFailure(w, r.WithContext(c), http.StatusBadRequest, err)
		return
	}

	cartResponse, err := p.service.FindCart(c, cartID)
	if err != nil {
		inErrors.HandleError(err, span)
		p.writeFailure(w, r.WithContext(c), statusCode(err), err)
		return
	}

	p.writeSuccess(w, r.WithContext(c), "successfully found cart", map[string]interface{}{
		"cart": cartResponse,
	})
}

func (p PosController) ClearCart(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "PosController ClearCart")
	defer span.End()

	cartID, err := cartIdFromRequest(r)
	if err != nil {
		err = fmt.Errorf("failed parsing cartId with error=%w", err)
		inErrors.HandleError(err, span)
		p.writeFailure(w, r.WithContext(c), http.StatusBadRequest, err)
		return
	}

	cartResponse, err := p.service.ClearCart(c, cartID)
	if err != nil {
		inErrors.HandleError(err, span)
		p.writeFailure(w, r.WithContext(c), statusCode(err), err)
		return
	}

	p.writeSuccess(w, r.WithContext(c), "successfully cleared cart", map[string]interface{}{
		"cart": cartResponse,
	})
}

func (p PosController) AddItem(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "PosController AddItem")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "PosController AddItem").
		Logger()

	cartID, err := cartIdFromRequest(r)
	if err != nil {
		err = fmt.Errorf("failed parsing cartId with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		p.writeFailure(w, r.WithContext(c), http.StatusBadRequest, err)
		return
	}

	reqBody := request.AddItem{}
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		err = fmt.Errorf("failed decoding request body with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		p.writeFailure(w, r.WithContext(c), http.StatusBadRequest, err)
		return
	}

	if err := p.validate.StructCtx(c, reqBody); err != nil {
		err = fmt.Errorf("failed validating request body with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		p.writeFailure(w, r.WithContext(c), http.StatusBadRequest, err)
		return
	}

	logger.Info().Msg("adding item to cart")
	c = logger.WithContext(c)
	cartResponse, err := p.service.AddItem(c, cartID, reqBody)
	if err != nil {
		inErrors.HandleError(err, span)
		logger.Info().Err(err).Msg(err.Error())
		p.writeFailure(w, r.WithContext(c), statusCode(err), err)
		return
	}
	logger.Info().Msg("added item to cart")

	p.writeSuccess(w, r.WithContext(c), "successfully added item to cart", map[string]interface{}{
		"cart": cartResponse,
	})
}

func (p PosController) SetQuantity(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "PosController SetQuantity")
	defer span.End()

	cartID, err := cartIdFromRequest(r)
	if err != nil {
		err = fmt.Errorf("failed parsing cartId with error=%w", err)
		inErrors.HandleError(err, span)
		p.writeFailure(w, r.WithContext(c), http.StatusBadRequest, err)
		return
	}

	productID, err := productIdFromRequest(r)
	if err != nil {
		err = fmt.Errorf("failed parsing productId with error=%w", err)
		inErrors.HandleError(err, span)
		p.writeFailure(w, r.WithContext(c), http.StatusBadRequest, err)
		return
	}

	reqBody := request.SetQuantity{}
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		err = fmt.Errorf("failed decoding request body with error=%w", err)
		inErrors.HandleError(err, span)
		p.writeFailure(w, r.WithContext(c), http.StatusBadRequest, err)
		return
	}

	if err := p.validate.StructCtx(c, reqBody); err != nil {
		err = fmt.Errorf("failed validating request body with error=%w", err)
		inErrors.HandleError(err, span)
		p.writeFailure(w, r.WithContext(c), http.StatusBadRequest, err)
		return
	}

	cartResponse, err := p.service.SetQuantity(c, cartID, productID, reqBody)
	if err != nil {
		inErrors.HandleError(err, span)
		p.writeFailure(w, r.WithContext(c), statusCode(err), err)
		return
	}

	p.writeSuccess(w, r.WithContext(c), "successfully set cart line quantity", map[string]interface{}{
		"cart": cartResponse,
	})
}

func (p PosController) RemoveItem(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "PosController RemoveItem")
	defer span.End()

	cartID, err := cartIdFromRequest(r)
	if err != nil {
		err = fmt.Errorf("failed parsing cartId with error=%w", err)
		inErrors.HandleError(err, span)
		p.writeFailure(w, r.WithContext(c), http.StatusBadRequest, err)
		return
	}

	productID, err := productIdFromRequest(r)
	if err != nil {
		err = fmt.Errorf("failed parsing productId with error=%w", err)
		inErrors.HandleError(err, span)
		p.writeFailure(w, r.WithContext(c), http.StatusBadRequest, err)
		return
	}

	cartResponse, err := p.service.RemoveItem(c, cartID, productID)
	if err != nil {
		inErrors.HandleError(err, span)
		p.writeFailure(w, r.WithContext(c), statusCode(err), err)
		return
	}

	p.writeSuccess(w, r.WithContext(c), "successfully removed item from cart", map[string]interface{}{
		"cart": cartResponse,
	})
}

func (p PosController) CheckoutCart(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "PosController CheckoutCart")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "PosController CheckoutCart").
		Logger()

	cartID, err := cartIdFromRequest(r)
	if err != nil {
		err = fmt.Errorf("failed parsing cartId with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		p.writeFailure(w, r.WithContext(c), http.StatusBadRequest, err)
		return
	}

	logger = logger.With().Str(log.KeyCartID, cartID.String()).Logger()
	logger.Info().Msg("checking out cart")
	c = logger.WithContext(c)
	receipt, err := p.service.Checkout(c, cartID)
	if err != nil {
		inErrors.HandleError(err, span)
		logger.Info().Err(err).Msg("failed checking out cart")
		p.writeFailure(w, r.WithContext(c), statusCode(err), err)
		return
	}
	logger.Info().Str(log.KeyReceiptID, receipt.ID.String()).Msg("checked out cart")

	p.writeSuccess(w, r.WithContext(c), "successfully checked out cart", map[string]interface{}{
		"receipt": receipt,
	})
}

func (p PosController) LastReceipt(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "PosController LastReceipt")
	defer span.End()

	cartID, err := cartIdFromRequest(r)
	if err != nil {
		err = fmt.Errorf("failed parsing cartId with error=%w", err)
		inErrors.HandleError(err, span)
		p.writeFailure(w, r.WithContext(c), http.StatusBadRequest, err)
		return
	}

	receipt, err := p.service.LastReceipt(c, cartID)
	if err != nil {
		inErrors.HandleError(err, span)
		p.writeFailure(w, r.WithContext(c), statusCode(err), err)
		return
	}

	p.writeSuccess(w, r.WithContext(c), "successfully found receipt", map[string]interface{}{
		"receipt": receipt,
	})
}

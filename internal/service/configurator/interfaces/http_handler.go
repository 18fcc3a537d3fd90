package interfaces

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"velocraft/internal/pkg/logger"
	"velocraft/internal/service/configurator/application"
	"velocraft/internal/service/configurator/domain"
)

// ConfiguratorHandler 封装了 configurator 服务的 HTTP 处理器
type ConfiguratorHandler struct {
	configs *application.ConfigurationService
	carts   *application.CartService
	promos  *application.PromoService
	timeout time.Duration
}

// NewConfiguratorHandler timeout 为 0 时不额外限制请求耗时
func NewConfiguratorHandler(configs *application.ConfigurationService, carts *application.CartService, promos *application.PromoService, timeout time.Duration) *ConfiguratorHandler {
	return &ConfiguratorHandler{configs: configs, carts: carts, promos: promos, timeout: timeout}
}

// RegisterRoutes 在 ServeMux 上注册所有路由
func (h *ConfiguratorHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /products/{id}", h.handleGetProduct)
	mux.HandleFunc("GET /products/{id}/configurations", h.handleListConfigurations)
	mux.HandleFunc("GET /categories/{id}/products", h.handleListProducts)
	mux.HandleFunc("GET /categories/{id}/part-types", h.handleListPartTypes)
	mux.HandleFunc("POST /options/available", h.handleAvailableOptions)

	mux.HandleFunc("POST /configurations/validate", h.handleValidate)
	mux.HandleFunc("POST /configurations/price", h.handlePrice)
	mux.HandleFunc("POST /configurations", h.handleCreateConfiguration)
	mux.HandleFunc("GET /configurations/{id}", h.handleGetConfiguration)

	mux.HandleFunc("GET /carts/{id}", h.handleGetCart)
	mux.HandleFunc("POST /carts/{id}/items", h.handleAddToCart)
	mux.HandleFunc("PATCH /carts/{id}/items/{itemID}", h.handleUpdateQuantity)
	mux.HandleFunc("DELETE /carts/{id}/items/{itemID}", h.handleRemoveItem)
	mux.HandleFunc("DELETE /carts/{id}/items", h.handleClearCart)
	mux.HandleFunc("DELETE /carts/{id}", h.handleDeleteCart)

	mux.HandleFunc("POST /promo/validate", h.handleValidatePromo)
	mux.HandleFunc("GET /promo/codes", h.handleListPromoCodes)
}

// requestContext 提取上游的追踪上下文，并按配置附加超时。
func (h *ConfiguratorHandler) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	propagator := otel.GetTextMapPropagator()
	ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))
	if h.timeout > 0 {
		return context.WithTimeout(ctx, h.timeout)
	}
	return context.WithCancel(ctx)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor 根据错误类型返回不同的 HTTP 状态码
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrProductNotFound),
		errors.Is(err, domain.ErrPartTypeNotFound),
		errors.Is(err, domain.ErrPartOptionNotFound),
		errors.Is(err, domain.ErrConfigurationNotFound),
		errors.Is(err, domain.ErrCartNotFound),
		errors.Is(err, domain.ErrCartItemNotFound),
		errors.Is(err, domain.ErrPromoCodeNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidSelection):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidConfiguration):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrCartConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	status := statusFor(err)
	resp := application.ErrorResponse{Error: err.Error()}
	var invalid *domain.InvalidConfigurationError
	if errors.As(err, &invalid) {
		resp.ValidationErrors = invalid.Errors
	}
	if status >= http.StatusInternalServerError {
		logger.Ctx(ctx).Error().Err(err).Int("status", status).Msg("request failed")
	}
	writeJSON(w, status, resp)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, application.ErrorResponse{Error: "Invalid request body"})
		return false
	}
	return true
}

func (h *ConfiguratorHandler) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	p, err := h.configs.GetProduct(ctx, r.PathValue("id"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, application.NewProductView(p))
}

func (h *ConfiguratorHandler) handleListConfigurations(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	list, err := h.configs.ListConfigurations(ctx, r.PathValue("id"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	views := make([]application.ConfigurationView, 0, len(list))
	for i := range list {
		views = append(views, application.NewConfigurationView(&list[i]))
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *ConfiguratorHandler) handleListProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	products, err := h.configs.ListProducts(ctx, r.PathValue("id"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	views := make([]application.ProductView, 0, len(products))
	for i := range products {
		views = append(views, application.NewProductView(&products[i]))
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *ConfiguratorHandler) handleListPartTypes(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	pts, err := h.configs.ListPartTypes(ctx, r.PathValue("id"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, pts)
}

func (h *ConfiguratorHandler) handleAvailableOptions(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	var req application.AvailableOptionsRequest
	if !decode(w, r, &req) {
		return
	}
	opts, err := h.configs.GetAvailableOptions(ctx, req.CategoryID, req.PartTypeID, application.ToSelections(req.Selections))
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, application.NewOptionViews(opts))
}

func (h *ConfiguratorHandler) handleValidate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	var req application.ConfigurationRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.configs.ValidateConfiguration(ctx, req.ProductID, application.ToSelections(req.Selections))
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	// 校验失败也是 200，错误列表在响应体里
	writeJSON(w, http.StatusOK, res)
}

func (h *ConfiguratorHandler) handlePrice(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	var req application.ConfigurationRequest
	if !decode(w, r, &req) {
		return
	}
	price, err := h.configs.CalculatePrice(ctx, req.ProductID, application.ToSelections(req.Selections))
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, application.PriceResponse{ProductID: req.ProductID, TotalPrice: price.StringFixed(2)})
}

func (h *ConfiguratorHandler) handleCreateConfiguration(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	var req application.ConfigurationRequest
	if !decode(w, r, &req) {
		return
	}
	cfg, err := h.configs.CreateConfiguration(ctx, req.ProductID, application.ToSelections(req.Selections))
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusCreated, application.NewConfigurationView(cfg))
}

func (h *ConfiguratorHandler) handleGetConfiguration(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	cfg, err := h.configs.GetConfiguration(ctx, r.PathValue("id"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, application.NewConfigurationView(cfg))
}

func (h *ConfiguratorHandler) handleGetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	cart, err := h.carts.GetCart(ctx, r.PathValue("id"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, application.NewCartView(cart))
}

func (h *ConfiguratorHandler) handleAddToCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	var req application.AddToCartRequest
	if !decode(w, r, &req) {
		return
	}
	qty := 1
	if req.Quantity != nil {
		qty = *req.Quantity
	}
	cart, err := h.carts.AddToCart(ctx, r.PathValue("id"), req.ConfigurationID, qty)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, application.NewCartView(cart))
}

func (h *ConfiguratorHandler) handleUpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	var req application.UpdateQuantityRequest
	if !decode(w, r, &req) {
		return
	}
	cart, err := h.carts.UpdateQuantity(ctx, r.PathValue("id"), r.PathValue("itemID"), req.Quantity)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, application.NewCartView(cart))
}

func (h *ConfiguratorHandler) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	cart, err := h.carts.RemoveItem(ctx, r.PathValue("id"), r.PathValue("itemID"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, application.NewCartView(cart))
}

func (h *ConfiguratorHandler) handleClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	cart, err := h.carts.Clear(ctx, r.PathValue("id"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, application.NewCartView(cart))
}

func (h *ConfiguratorHandler) handleDeleteCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	if err := h.carts.Delete(ctx, r.PathValue("id")); err != nil {
		writeError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ConfiguratorHandler) handleValidatePromo(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	var req application.ValidatePromoRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.promos.ValidatePromoCode(ctx, req.Code, req.OrderTotal, req.ItemCount)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, application.NewPromoValidationResponse(res))
}

func (h *ConfiguratorHandler) handleListPromoCodes(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	codes, err := h.promos.AvailablePromoCodes(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, codes)
}

package httppresentation

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	appcart "github.com/freshmart/cart-service/internal/application/cart"
	domcart "github.com/freshmart/cart-service/internal/domain/cart"
	"github.com/freshmart/cart-service/internal/infrastructure/session"
	"github.com/freshmart/cart-service/internal/observability"
)

const (
	componentHTTPHandler = "http_server"
	headerRequestID      = "X-Request-ID"
	sessionCookie        = "session_id"
)

type Handler struct {
	cartService *appcart.Service
	sessions    *session.Store
	log         observability.Logger
	tel         observability.Observability

	requestTimeout time.Duration
}

func NewHandler(cartSvc *appcart.Service, sessions *session.Store, tel observability.Observability, requestTimeout time.Duration) *Handler {
	if tel == nil {
		tel = observability.Nop()
	}
	return &Handler{
		cartService:    cartSvc,
		sessions:       sessions,
		log:            tel.Logger().With(observability.F("component", componentHTTPHandler)),
		tel:            tel,
		requestTimeout: requestTimeout,
	}
}

// Router wires each route through: Trace → Request logger + HTTP metrics →
// Access log → Timeout → (Auth) → Handler.
func (h *Handler) Router() http.Handler {
	r := mux.NewRouter()

	r.Handle("/login", h.public(h.handleLogin)).Methods(http.MethodPost)
	r.Handle("/health", h.public(h.handleHealth)).Methods(http.MethodGet)

	r.Handle("/cart/items", h.protected(h.handleAddItems)).Methods(http.MethodPost)
	r.Handle("/cart", h.protected(h.handleViewCart)).Methods(http.MethodGet)
	r.Handle("/cart/items/{productID}", h.protected(h.handleSetQuantity)).Methods(http.MethodPut)
	r.Handle("/cart/items/{productID}", h.protected(h.handleRemoveItem)).Methods(http.MethodDelete)
	r.Handle("/cart", h.protected(h.handleClearCart)).Methods(http.MethodDelete)

	return r
}

func (h *Handler) public(handler http.HandlerFunc) http.Handler {
	return h.withTrace(
		ObservabilityMiddleware(h.log, func(r *http.Request) string {
			return r.Header.Get(headerRequestID)
		}, h.tel)(
			h.withAccessLog(h.withTimeout(handler)),
		),
	)
}

func (h *Handler) protected(handler http.HandlerFunc) http.Handler {
	return h.public(h.withAuth(handler).ServeHTTP)
}

type loginRequest struct {
	Username string `json:"username"`
	VIP      bool   `json:"vip"`
}

type loginResponse struct {
	SessionID string `json:"session_id"`
}

// handleLogin issues a session for the given username. There is no password
// check here: identity verification is owned by the upstream gateway and this
// endpoint exists so the two storefront clients share one session format.
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.Username) == "" {
		writeError(w, http.StatusBadRequest, errors.New("username is required"))
		return
	}

	sid, err := h.sessions.Create(r.Context(), session.Identity{
		UserID:     strings.TrimSpace(req.Username),
		Privileged: req.VIP,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    sid,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, loginResponse{SessionID: sid})
}

type addItemsRequest struct {
	Items []struct {
		Description string `json:"description"`
		Quantity    int    `json:"quantity"`
		Category    string `json:"category,omitempty"`
	} `json:"items"`
}

type itemResultResponse struct {
	Description string  `json:"description"`
	Success     bool    `json:"success"`
	ProductID   string  `json:"product_id,omitempty"`
	Name        string  `json:"name,omitempty"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price,omitempty"`
	Failure     string  `json:"failure,omitempty"`
	Reason      string  `json:"reason,omitempty"`
	Available   *int    `json:"available,omitempty"`
}

type cartTotalsResponse struct {
	ItemCount  int     `json:"item_count"`
	TotalPrice float64 `json:"total_price"`
}

type addItemsResponse struct {
	Success    bool                 `json:"success"`
	Items      []itemResultResponse `json:"items"`
	CartTotals cartTotalsResponse   `json:"cart_totals"`
}

func (h *Handler) handleAddItems(w http.ResponseWriter, r *http.Request) {
	ident, ok := identityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, errors.New("no session"))
		return
	}

	var req addItemsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if len(req.Items) == 0 {
		writeError(w, http.StatusBadRequest, errors.New("items is required"))
		return
	}

	input := appcart.AddInput{
		UserID:     ident.UserID,
		Privileged: ident.Privileged,
		Items:      make([]appcart.AddItem, 0, len(req.Items)),
	}
	for _, it := range req.Items {
		input.Items = append(input.Items, appcart.AddItem{
			Description:  it.Description,
			Quantity:     it.Quantity,
			CategoryHint: it.Category,
		})
	}

	result, err := h.cartService.Add(r.Context(), input)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := addItemsResponse{
		Success: result.Success,
		Items:   make([]itemResultResponse, 0, len(result.Items)),
		CartTotals: cartTotalsResponse{
			ItemCount:  result.Totals.ItemCount,
			TotalPrice: euros(result.Totals.TotalPriceCents),
		},
	}
	for _, it := range result.Items {
		out := itemResultResponse{
			Description: it.Description,
			Success:     it.Success,
			ProductID:   it.EntryID,
			Name:        it.MatchedName,
			Quantity:    it.Quantity,
			Failure:     string(it.Failure),
			Reason:      it.Reason,
		}
		if it.Success {
			out.UnitPrice = euros(it.UnitPriceCents)
		}
		if it.Failure == appcart.FailureInsufficientStock {
			avail := it.Available
			out.Available = &avail
		}
		resp.Items = append(resp.Items, out)
	}
	writeJSON(w, http.StatusOK, resp)
}

type lineViewResponse struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	Subtotal  float64 `json:"subtotal"`
}

type cartViewResponse struct {
	Items      []lineViewResponse `json:"items"`
	TotalItems int                `json:"total_items"`
	TotalPrice float64            `json:"total_price"`
	Currency   string             `json:"currency"`
}

func (h *Handler) handleViewCart(w http.ResponseWriter, r *http.Request) {
	ident, ok := identityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, errors.New("no session"))
		return
	}

	view, err := h.cartService.View(r.Context(), ident.UserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartViewResponse(view))
}

func toCartViewResponse(view *appcart.View) cartViewResponse {
	resp := cartViewResponse{
		Items:      make([]lineViewResponse, 0, len(view.Lines)),
		TotalItems: view.TotalItems,
		TotalPrice: euros(view.TotalPriceCents),
		Currency:   view.Currency,
	}
	for _, l := range view.Lines {
		resp.Items = append(resp.Items, lineViewResponse{
			ProductID: l.EntryID,
			Name:      l.Name,
			Quantity:  l.Quantity,
			UnitPrice: euros(l.UnitPriceCents),
			Subtotal:  euros(l.SubtotalCents),
		})
	}
	return resp
}

type setQuantityRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) handleSetQuantity(w http.ResponseWriter, r *http.Request) {
	ident, ok := identityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, errors.New("no session"))
		return
	}

	var req setQuantityRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	productID := mux.Vars(r)["productID"]
	if err := h.cartService.SetQuantity(r.Context(), ident.UserID, productID, req.Quantity); err != nil {
		writeDomainError(w, err)
		return
	}

	view, err := h.cartService.View(r.Context(), ident.UserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartViewResponse(view))
}

func (h *Handler) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	ident, ok := identityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, errors.New("no session"))
		return
	}

	productID := mux.Vars(r)["productID"]
	if err := h.cartService.SetQuantity(r.Context(), ident.UserID, productID, 0); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleClearCart(w http.ResponseWriter, r *http.Request) {
	ident, ok := identityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, errors.New("no session"))
		return
	}

	if err := h.cartService.ClearAll(r.Context(), ident.UserID); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// euros renders an integer cent amount as the decimal euro value clients
// expect in JSON.
func euros(cents int64) float64 {
	return float64(cents) / 100
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeDomainError(w http.ResponseWriter, err error) {
	var stockErr *appcart.InsufficientStockError
	switch {
	case errors.Is(err, appcart.ErrUserRequired):
		writeError(w, http.StatusUnauthorized, err)
	case errors.Is(err, domcart.ErrLineNotFound),
		errors.Is(err, domcart.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, domcart.ErrInvalidQuantity):
		writeError(w, http.StatusBadRequest, err)
	case errors.As(err, &stockErr):
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":     err.Error(),
			"available": stockErr.Available,
		})
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

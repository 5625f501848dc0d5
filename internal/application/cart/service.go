package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domcart "github.com/freshmart/cart-service/internal/domain/cart"
	domcatalog "github.com/freshmart/cart-service/internal/domain/catalog"
	dominv "github.com/freshmart/cart-service/internal/domain/inventory"
	domoutbox "github.com/freshmart/cart-service/internal/domain/outbox"
	dompricing "github.com/freshmart/cart-service/internal/domain/pricing"
	"github.com/freshmart/cart-service/internal/observability"
	"github.com/freshmart/cart-service/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
)

const (
	cartService        = "cart-service"
	useCaseAdd         = "cart.add"
	useCaseView        = "cart.view"
	useCaseSetQuantity = "cart.set_quantity"
	useCaseClear       = "cart.clear"
	spanPrefix         = "UC."
	publishTimeout     = 300 * time.Millisecond
	currencyEUR        = "EUR"

	reasonDescriptionRequired = "product description is required"
	reasonQuantityPositive    = "quantity must be positive"
	reasonNotFound            = "product not found"
)

var (
	ErrUserRequired    = errors.New("cart: user id is required")
	ErrInvalidQuantity = domcart.ErrInvalidQuantity
	ErrLineNotFound    = domcart.ErrLineNotFound
)

// Options tune policy knobs that are deliberately explicit rather than
// buried in the code.
type Options struct {
	// StockFailOpen skips the availability gate when the inventory
	// boundary fails. Off by default: unknown availability counts as zero
	// and the add is rejected rather than oversold.
	StockFailOpen bool
}

// Service orchestrates the four cart operations. Each add item walks
// resolve, stock check, price-if-new, persist; failures before persistence
// leave no partial write for that item.
type Service struct {
	carts     domcart.Repository
	resolver  domcatalog.Resolver
	stock     dominv.StockReader
	pricer    dompricing.Assigner
	publisher domoutbox.Publisher
	opts      Options

	log          observability.Logger
	tracer       observability.Tracer
	reqCounter   observability.Counter
	durHistogram observability.Histogram
}

func NewService(
	carts domcart.Repository,
	resolver domcatalog.Resolver,
	stock dominv.StockReader,
	pricer dompricing.Assigner,
	publisher domoutbox.Publisher,
	tel observability.Observability,
	opts Options,
) *Service {
	if tel == nil {
		tel = observability.Nop()
	}
	return &Service{
		carts:     carts,
		resolver:  resolver,
		stock:     stock,
		pricer:    pricer,
		publisher: publisher,
		opts:      opts,

		log:          tel.Logger().With(observability.F("service", cartService)),
		tracer:       tel.Tracer(),
		reqCounter:   tel.Metrics().Counter(observability.MUsecaseRequests),
		durHistogram: tel.Metrics().Histogram(observability.MUsecaseDuration),
	}
}

// Add resolves, validates and persists each requested item, collecting
// per-item outcomes. Quantity validation happens before any external call;
// stock is fetched in one batched read across all matched items and compared
// against existing line quantity plus the requested delta, so repeated adds
// cannot oversubscribe.
func (s *Service) Add(ctx context.Context, input AddInput) (_ *AddResult, err error) {
	ctx, finish := s.observe(ctx, useCaseAdd,
		attribute.Int("cart.requested_items", len(input.Items)),
	)
	defer func() { finish(err) }()

	if input.UserID == "" {
		return nil, ErrUserRequired
	}

	cart, err := s.carts.GetOrCreate(ctx, input.UserID)
	if err != nil {
		return nil, fmt.Errorf("cart: get or create: %w", err)
	}

	logger := logctx.FromOr(ctx, s.log).With(observability.F("use_case", useCaseAdd))

	results := make([]ItemResult, len(input.Items))
	var matches []matched

	for i, item := range input.Items {
		desc := strings.TrimSpace(item.Description)
		results[i] = ItemResult{Description: desc, Quantity: item.Quantity}

		if desc == "" {
			results[i].Failure = FailureNoMatch
			results[i].Reason = reasonDescriptionRequired
			continue
		}
		if item.Quantity <= 0 {
			results[i].Failure = FailureInvalidQuantity
			results[i].Reason = reasonQuantityPositive
			continue
		}

		entry, rerr := s.resolver.Resolve(ctx, domcatalog.Query{
			Text:         desc,
			CategoryHint: item.CategoryHint,
			Privileged:   input.Privileged,
		})
		if rerr != nil {
			// An unreachable catalog degrades to the same signal as an
			// unmatched query: the caller sees "not found", not a crash.
			if !errors.Is(rerr, domcatalog.ErrNoMatch) {
				logger.Warn("catalog_resolve_failed",
					observability.F("description", desc),
					observability.F("error", rerr.Error()),
				)
			}
			results[i].Failure = FailureNoMatch
			results[i].Reason = reasonNotFound
			continue
		}

		results[i].EntryID = entry.ID
		results[i].MatchedName = entry.Name
		matches = append(matches, matched{index: i, entry: entry, qty: item.Quantity})
	}

	available := s.availability(ctx, logger, matches)

	anyAdded := false
	for _, m := range matches {
		res := &results[m.index]

		existing := 0
		unitPrice := int64(0)
		line, lerr := s.carts.GetLine(ctx, cart.ID, m.entry.ID)
		switch {
		case lerr == nil:
			existing = line.Quantity
			unitPrice = line.UnitPriceCents
		case errors.Is(lerr, domcart.ErrLineNotFound):
			// new line, price assigned below
		default:
			return nil, fmt.Errorf("cart: get line: %w", lerr)
		}

		if avail, gated := available[m.entry.ID]; gated && existing+m.qty > avail {
			res.Failure = FailureInsufficientStock
			res.Available = avail
			res.Reason = fmt.Sprintf("insufficient stock (only %d available)", avail)
			continue
		}

		if existing == 0 {
			unitPrice = s.pricer.UnitPriceCents(m.entry.Category)
		}

		updated, uerr := s.carts.UpsertLine(ctx, cart.ID, m.entry.ID, m.entry.Name, m.qty, unitPrice)
		if uerr != nil {
			return nil, fmt.Errorf("cart: upsert line: %w", uerr)
		}

		res.Success = true
		res.UnitPriceCents = updated.UnitPriceCents
		anyAdded = true
	}

	if anyAdded {
		s.publishChanged(ctx, input.UserID)
	}

	totals, err := s.totals(ctx, cart.ID)
	if err != nil {
		return nil, err
	}

	result := &AddResult{Items: results, Totals: totals, Success: true}
	for _, r := range results {
		if !r.Success {
			result.Success = false
			break
		}
	}
	return result, nil
}

type matched struct {
	index int
	entry domcatalog.Entry
	qty   int
}

// availability fetches stock for all matched entries in one round trip.
// When the boundary fails it returns zero for every entry (fail-closed)
// unless the service was configured fail-open, in which case the gate is
// skipped entirely.
func (s *Service) availability(ctx context.Context, logger observability.Logger, matches []matched) map[string]int {
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(matches))
	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		if _, ok := seen[m.entry.ID]; ok {
			continue
		}
		seen[m.entry.ID] = struct{}{}
		ids = append(ids, m.entry.ID)
	}

	available, err := s.stock.Availability(ctx, ids)
	if err != nil {
		logger.Warn("stock_check_failed",
			observability.F("entry_count", len(ids)),
			observability.F("fail_open", s.opts.StockFailOpen),
			observability.F("error", err.Error()),
		)
		if s.opts.StockFailOpen {
			return nil
		}
		available = make(map[string]int, len(ids))
		for _, id := range ids {
			available[id] = 0
		}
	}
	return available
}

// View returns a snapshot of the caller's cart. A user without a cart sees
// an empty one; no stock validation happens here.
func (s *Service) View(ctx context.Context, userID string) (_ *View, err error) {
	ctx, finish := s.observe(ctx, useCaseView)
	defer func() { finish(err) }()

	if userID == "" {
		return nil, ErrUserRequired
	}

	empty := &View{Lines: []LineView{}, Currency: currencyEUR}

	cart, err := s.carts.Find(ctx, userID)
	if errors.Is(err, domcart.ErrNotFound) {
		return empty, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cart: find: %w", err)
	}

	lines, err := s.carts.ListLines(ctx, cart.ID)
	if err != nil {
		return nil, fmt.Errorf("cart: list lines: %w", err)
	}

	view := empty
	for _, l := range lines {
		view.Lines = append(view.Lines, LineView{
			EntryID:        l.EntryID,
			Name:           l.EntryName,
			Quantity:       l.Quantity,
			UnitPriceCents: l.UnitPriceCents,
			SubtotalCents:  l.SubtotalCents(),
		})
		view.TotalItems += l.Quantity
		view.TotalPriceCents += l.SubtotalCents()
	}
	return view, nil
}

// SetQuantity sets an absolute quantity on an existing line of the caller's
// own cart. Zero removes the line. Increases are re-checked against current
// stock. The target cart is always derived from the verified identity, never
// from a client-supplied cart ID.
func (s *Service) SetQuantity(ctx context.Context, userID, entryID string, quantity int) (err error) {
	ctx, finish := s.observe(ctx, useCaseSetQuantity,
		attribute.Int("cart.quantity", quantity),
	)
	defer func() { finish(err) }()

	if userID == "" {
		return ErrUserRequired
	}
	if quantity < 0 {
		return ErrInvalidQuantity
	}

	cart, err := s.carts.Find(ctx, userID)
	if errors.Is(err, domcart.ErrNotFound) {
		return ErrLineNotFound
	}
	if err != nil {
		return fmt.Errorf("cart: find: %w", err)
	}

	if quantity > 0 {
		line, lerr := s.carts.GetLine(ctx, cart.ID, entryID)
		if errors.Is(lerr, domcart.ErrLineNotFound) {
			return ErrLineNotFound
		}
		if lerr != nil {
			return fmt.Errorf("cart: get line: %w", lerr)
		}

		if quantity > line.Quantity {
			available, serr := s.stock.Availability(ctx, []string{entryID})
			if serr != nil {
				logger := logctx.FromOr(ctx, s.log)
				logger.Warn("stock_check_failed",
					observability.F("entry_id", entryID),
					observability.F("fail_open", s.opts.StockFailOpen),
					observability.F("error", serr.Error()),
				)
				if !s.opts.StockFailOpen {
					return &InsufficientStockError{Available: 0}
				}
			} else if quantity > available[entryID] {
				return &InsufficientStockError{Available: available[entryID]}
			}
		}
	}

	if err := s.carts.SetLineQuantity(ctx, cart.ID, entryID, quantity); err != nil {
		return err
	}

	s.publishChanged(ctx, userID)
	return nil
}

// ClearAll removes every line from the caller's cart. Clearing a missing or
// already-empty cart succeeds.
func (s *Service) ClearAll(ctx context.Context, userID string) (err error) {
	ctx, finish := s.observe(ctx, useCaseClear)
	defer func() { finish(err) }()

	if userID == "" {
		return ErrUserRequired
	}

	cart, err := s.carts.Find(ctx, userID)
	if errors.Is(err, domcart.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("cart: find: %w", err)
	}

	if err := s.carts.Clear(ctx, cart.ID); err != nil {
		return fmt.Errorf("cart: clear: %w", err)
	}

	s.publishChanged(ctx, userID)
	return nil
}

func (s *Service) totals(ctx context.Context, cartID string) (Totals, error) {
	lines, err := s.carts.ListLines(ctx, cartID)
	if err != nil {
		return Totals{}, fmt.Errorf("cart: list lines: %w", err)
	}
	var t Totals
	for _, l := range lines {
		t.ItemCount += l.Quantity
		t.TotalPriceCents += l.SubtotalCents()
	}
	return t, nil
}

func (s *Service) publishChanged(ctx context.Context, userID string) {
	if s.publisher == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := s.publisher.Publish(pubCtx, domcart.NewChangedEvent(userID)); err != nil {
		logger := logctx.FromOr(ctx, s.log)
		logger.Warn("cart_changed_publish_failed",
			observability.F("user_id", userID),
			observability.F("error", err.Error()),
		)
	}
}

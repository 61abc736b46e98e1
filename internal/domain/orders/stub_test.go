package orders

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/conectados420/storefront/internal/domain/catalog"
	"github.com/conectados420/storefront/internal/domain/coupons"
	"github.com/conectados420/storefront/internal/domain/shipping"
	"github.com/conectados420/storefront/internal/email"
)

type stubStore struct {
	orders  *stubOrders
	coupons *stubCoupons
}

func newStubStore() *stubStore {
	return &stubStore{
		orders:  &stubOrders{byID: map[string]*Order{}},
		coupons: &stubCoupons{uses: map[string]int{}},
	}
}

func (s *stubStore) Orders() Repository          { return s.orders }
func (s *stubStore) Coupons() coupons.Repository { return s.coupons }

func (s *stubStore) WithTx(ctx context.Context, fn func(context.Context, Store) error) error {
	return fn(ctx, s)
}

type stubOrders struct {
	mu    sync.Mutex
	byID  map[string]*Order
	seq   int
	logs  []PaymentLog
	fail  error
	clock time.Time
}

func (r *stubOrders) put(o Order) *Order {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := o
	r.byID[o.ID] = &cp
	return &cp
}

func (r *stubOrders) Insert(_ context.Context, o *Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return r.fail
	}
	r.seq++
	o.ID = fmt.Sprintf("%08x-0000-4000-8000-000000000000", r.seq)
	o.CreatedAt = r.clock.Add(time.Duration(r.seq) * time.Minute)
	o.UpdatedAt = o.CreatedAt
	for i := range o.Items {
		o.Items[i].OrderID = o.ID
	}
	cp := *o
	r.byID[o.ID] = &cp
	return nil
}

func (r *stubOrders) Get(_ context.Context, id string) (*Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *stubOrders) sorted(keep func(Order) bool) []Order {
	var out []Order
	for _, o := range r.byID {
		if keep(*o) {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (r *stubOrders) List(_ context.Context, f Filters) ([]Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.sorted(func(o Order) bool {
		return o.IsArchived == f.Archived && (f.Status == "" || o.Status == f.Status)
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *stubOrders) update(id string, fn func(*Order)) (*Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return nil, r.fail
	}
	o, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	fn(o)
	cp := *o
	return &cp, nil
}

func (r *stubOrders) UpdateStatus(_ context.Context, id, status string) (*Order, error) {
	return r.update(id, func(o *Order) { o.Status = status })
}

func (r *stubOrders) SetTracking(_ context.Context, id, tracking string) (*Order, error) {
	return r.update(id, func(o *Order) {
		o.TrackingNumber = tracking
		o.Status = StatusShipped
	})
}

func (r *stubOrders) SetArchived(_ context.Context, ids []string, archived bool) (int64, error) {
	var n int64
	for _, id := range ids {
		if _, err := r.update(id, func(o *Order) { o.IsArchived = archived }); err == nil {
			n++
		}
	}
	return n, nil
}

func (r *stubOrders) Delete(_ context.Context, ids []string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, id := range ids {
		if _, ok := r.byID[id]; ok {
			delete(r.byID, id)
			n++
		}
	}
	return n, nil
}

func (r *stubOrders) PurgeAll(context.Context) (PurgeResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var res PurgeResult
	for _, o := range r.byID {
		res.Items += int64(len(o.Items))
	}
	res.Orders = int64(len(r.byID))
	res.PaymentLogs = int64(len(r.logs))
	r.byID = map[string]*Order{}
	r.logs = nil
	return res, nil
}

func (r *stubOrders) ShippingQueue(context.Context) ([]Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sorted(func(o Order) bool {
		switch o.Status {
		case StatusPaid, StatusConfirmed, StatusShipped, StatusDelivered:
		default:
			return false
		}
		return !o.IsArchived && o.ShippingOption != shipping.OptionPickup
	}), nil
}

func (r *stubOrders) MarkShipped(_ context.Context, ids []string) (int64, error) {
	var n int64
	for _, id := range ids {
		if _, err := r.update(id, func(o *Order) { o.Status = StatusShipped }); err == nil {
			n++
		}
	}
	return n, nil
}

func (r *stubOrders) ListShippedWithTracking(context.Context) ([]Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sorted(func(o Order) bool {
		return o.Status == StatusShipped && o.TrackingNumber != ""
	}), nil
}

func (r *stubOrders) UpdatePayment(_ context.Context, id string, u PaymentUpdate) error {
	_, err := r.update(id, func(o *Order) {
		if u.Status != "" {
			o.Status = u.Status
		}
		if u.PaymentStatus != "" {
			o.PaymentStatus = u.PaymentStatus
		}
		if u.PaymentID != "" {
			o.PaymentID = u.PaymentID
		}
		if u.MPPaymentID != "" {
			o.MPPaymentID = u.MPPaymentID
		}
		if u.PaymentMethod != "" {
			o.PaymentMethod = u.PaymentMethod
		}
		if u.PaymentDetails != nil {
			o.PaymentDetails = u.PaymentDetails
		}
	})
	return err
}

func (r *stubOrders) InsertPaymentLog(_ context.Context, log PaymentLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs = append(r.logs, log)
	return nil
}

func (r *stubOrders) DeletePaymentLogsBefore(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var kept []PaymentLog
	var n int64
	for _, l := range r.logs {
		if l.CreatedAt.Before(cutoff) {
			n++
			continue
		}
		kept = append(kept, l)
	}
	r.logs = kept
	return n, nil
}

func (r *stubOrders) SalesSummary(_ context.Context, statuses []string) (Sales, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var s Sales
	for _, o := range r.byID {
		for _, st := range statuses {
			if o.Status == st {
				s.Total += o.TotalAmount
				s.Count++
			}
		}
	}
	return s, nil
}

func (r *stubOrders) CountByStatus(context.Context) (map[string]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[string]int{}
	for _, o := range r.byID {
		out[o.Status]++
	}
	return out, nil
}

type stubCoupons struct {
	coupons.Repository
	uses      map[string]int
	exhausted bool
}

func (c *stubCoupons) IncrementUses(_ context.Context, id string) error {
	if c.exhausted {
		return coupons.ErrNotFound
	}
	c.uses[id]++
	return nil
}

type stubProducts map[string]catalog.Product

func (p stubProducts) GetMany(_ context.Context, ids []string) (map[string]catalog.Product, error) {
	out := map[string]catalog.Product{}
	for _, id := range ids {
		if prod, ok := p[id]; ok && prod.IsActive {
			out[id] = prod
		}
	}
	return out, nil
}

type stubCouponValidator struct {
	result coupons.Result
	err    error
	calls  []int64
}

func (v *stubCouponValidator) Validate(_ context.Context, _ string, total int64) (coupons.Result, error) {
	v.calls = append(v.calls, total)
	return v.result, v.err
}

type stubQuoter struct {
	quote shipping.Quote
	err   error
	opts  []shipping.QuoteOptions
}

func (q *stubQuoter) Calculate(_ context.Context, addr shipping.Address, _ int64, opts shipping.QuoteOptions) (shipping.Quote, error) {
	q.opts = append(q.opts, opts)
	if addr.Comuna == "" || addr.Region == "" {
		return shipping.Quote{}, shipping.ErrIncompleteAddress
	}
	return q.quote, q.err
}

type recordingNotifier struct {
	mu   sync.Mutex
	msgs []email.Message
	err  error
}

func (n *recordingNotifier) Notify(_ context.Context, msg email.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = append(n.msgs, msg)
	return n.err
}

func (n *recordingNotifier) templates() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.msgs))
	for _, m := range n.msgs {
		out = append(out, m.Template)
	}
	return out
}

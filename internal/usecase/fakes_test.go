package usecase

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/phenrril/skinstore/internal/domain"
)

type memStore struct {
	mu       sync.Mutex
	products map[uuid.UUID]*domain.Product
	orders   map[uuid.UUID]*domain.Order
	coupons  map[string]*domain.Coupon
	users    map[string]*domain.UserProfile
	idents   map[string]*domain.AuthIdentity
	notes    []domain.Notification
	failSave error
}

func newMemStore() *memStore {
	return &memStore{
		products: map[uuid.UUID]*domain.Product{},
		orders:   map[uuid.UUID]*domain.Order{},
		coupons:  map[string]*domain.Coupon{},
		users:    map[string]*domain.UserProfile{},
		idents:   map[string]*domain.AuthIdentity{},
	}
}

func cloneProduct(p *domain.Product) *domain.Product {
	c := *p
	c.Variants = append([]domain.Variant(nil), p.Variants...)
	if p.Stock != nil {
		s := *p.Stock
		c.Stock = &s
	}
	return &c
}

func cloneOrder(o *domain.Order) *domain.Order {
	c := *o
	c.Journey = append([]domain.JourneyEntry(nil), o.Journey...)
	c.Items = append([]domain.CartItem(nil), o.Items...)
	return &c
}

type fakeOrders struct{ *memStore }

func (f fakeOrders) PlaceWithStock(_ context.Context, o *domain.Order, opts domain.PlaceOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if o.PaymentReference != nil {
		for _, ex := range f.orders {
			if ex.PaymentReference != nil && *ex.PaymentReference == *o.PaymentReference {
				return domain.ErrConflict
			}
		}
	}
	work := map[uuid.UUID]*domain.Product{}
	for id, p := range f.products {
		work[id] = cloneProduct(p)
	}
	changed, err := domain.ApplyStock(work, o.Items, domain.StockDecrement, opts.Policy)
	if err != nil {
		return err
	}
	if opts.RedeemCouponInTx && o.CouponCode != nil {
		c := f.coupons[*o.CouponCode]
		if c == nil || c.Exhausted() {
			return domain.ErrCouponExhausted
		}
		c.UsedCount++
	}
	for _, id := range changed {
		f.products[id] = work[id]
	}
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	f.orders[o.ID] = cloneOrder(o)
	return nil
}

func (f fakeOrders) Update(_ context.Context, id uuid.UUID, change func(*domain.Order) (bool, error)) (*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	o := cloneOrder(stored)
	restock, err := change(o)
	if err != nil {
		return nil, err
	}
	if f.failSave != nil {
		return nil, f.failSave
	}
	if restock {
		work := map[uuid.UUID]*domain.Product{}
		for pid, p := range f.products {
			work[pid] = cloneProduct(p)
		}
		changed, err := domain.ApplyStock(work, o.Items, domain.StockIncrement, domain.StockClamp)
		if err != nil {
			return nil, err
		}
		for _, pid := range changed {
			f.products[pid] = work[pid]
		}
	}
	f.orders[id] = cloneOrder(o)
	return o, nil
}

func (f fakeOrders) FindByID(_ context.Context, id uuid.UUID) (*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneOrder(o), nil
}

func (f fakeOrders) FindByPaymentReference(_ context.Context, ref string) (*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.orders {
		if o.PaymentReference != nil && *o.PaymentReference == ref {
			return cloneOrder(o), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f fakeOrders) List(_ context.Context, flt domain.OrderFilter) ([]domain.Order, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.Order{}
	for _, o := range f.orders {
		if flt.UserID != "" && o.UserID != flt.UserID {
			continue
		}
		if flt.Status != "" && o.Status != flt.Status {
			continue
		}
		out = append(out, *cloneOrder(o))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	total := int64(len(out))
	if flt.PageSize > 0 {
		page := flt.Page
		if page < 1 {
			page = 1
		}
		start := (page - 1) * flt.PageSize
		if start > len(out) {
			start = len(out)
		}
		end := start + flt.PageSize
		if end > len(out) {
			end = len(out)
		}
		out = out[start:end]
	}
	return out, total, nil
}

func (f fakeOrders) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.orders[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.orders, id)
	return nil
}

type fakeCoupons struct{ *memStore }

func (f fakeCoupons) FindByCode(_ context.Context, code string) (*domain.Coupon, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.coupons[domain.NormalizeCouponCode(code)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (f fakeCoupons) Save(_ context.Context, c *domain.Coupon) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if old, ok := f.coupons[c.Code]; ok {
		c.UsedCount = old.UsedCount
		c.CreatedAt = old.CreatedAt
	}
	cp := *c
	f.coupons[c.Code] = &cp
	return nil
}

func (f fakeCoupons) List(context.Context) ([]domain.Coupon, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.Coupon{}
	for _, c := range f.coupons {
		out = append(out, *c)
	}
	return out, nil
}

func (f fakeCoupons) IncrementUsage(_ context.Context, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.coupons[domain.NormalizeCouponCode(code)]
	if !ok {
		return domain.ErrNotFound
	}
	c.UsedCount++
	return nil
}

func (f fakeCoupons) Delete(_ context.Context, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.coupons, code)
	return nil
}

type fakeUsers struct{ *memStore }

func (f fakeUsers) FindByID(_ context.Context, id string) (*domain.UserProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f fakeUsers) FindByEmail(_ context.Context, email string) (*domain.UserProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if strings.EqualFold(u.Email, strings.TrimSpace(email)) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f fakeUsers) FindIdentityByEmail(_ context.Context, email string) (*domain.AuthIdentity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.idents[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return a, nil
}

func (f fakeUsers) CreateWithIdentity(_ context.Context, a *domain.AuthIdentity, p *domain.UserProfile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.idents[a.Email]; ok {
		return domain.ErrConflict
	}
	f.idents[a.Email] = a
	cp := *p
	f.users[p.ID] = &cp
	return nil
}

func (f fakeUsers) Update(_ context.Context, id string, change func(*domain.UserProfile) error, _ ...string) (*domain.UserProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	cp.Wishlist = append([]string(nil), u.Wishlist...)
	if err := change(&cp); err != nil {
		return nil, err
	}
	stored := cp
	f.users[id] = &stored
	return &cp, nil
}

func (f fakeUsers) List(context.Context) ([]domain.UserProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.UserProfile{}
	for _, u := range f.users {
		out = append(out, *u)
	}
	return out, nil
}

func (f fakeUsers) AddPoints(_ context.Context, id string, delta int) (*domain.UserProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	u.Points += delta
	u.PointsTier = domain.TierFor(u.Points)
	cp := *u
	return &cp, nil
}

func (f fakeUsers) RedeemPoints(_ context.Context, id string, points int, reward *domain.Coupon) (*domain.UserProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if u.Points < points {
		return nil, domain.ErrInvalidInput
	}
	u.Points -= points
	u.PointsTier = domain.TierFor(u.Points)
	cp := *reward
	f.coupons[reward.Code] = &cp
	out := *u
	return &out, nil
}

type fakeNotifications struct{ *memStore }

func (f fakeNotifications) Create(_ context.Context, n *domain.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	n.ID = uuid.New()
	n.CreatedAt = time.Now()
	f.notes = append(f.notes, *n)
	return nil
}

func (f fakeNotifications) ListForUser(_ context.Context, userID string) ([]domain.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.Notification{}
	for _, n := range f.notes {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f fakeNotifications) MarkRead(_ context.Context, id uuid.UUID, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.notes {
		if f.notes[i].ID == id && f.notes[i].UserID == userID {
			f.notes[i].Read = true
			return nil
		}
	}
	return domain.ErrNotFound
}

type fakeGateway struct {
	result *domain.PaymentVerification
	err    error
	calls  int
}

func (g *fakeGateway) Verify(_ context.Context, ref string) (*domain.PaymentVerification, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	r := *g.result
	r.Reference = ref
	return &r, nil
}

type sentMail struct {
	kind    domain.EmailKind
	orderID uuid.UUID
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *fakeMailer) SendOrderEmail(_ context.Context, kind domain.EmailKind, o *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{kind: kind, orderID: o.ID})
	return m.err
}

type recorder struct {
	mu    sync.Mutex
	snaps []domain.Snapshot
}

func (r *recorder) Publish(s domain.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snaps = append(r.snaps, s)
}

func (r *recorder) count(collection string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, s := range r.snaps {
		if s.Collection == collection {
			n++
		}
	}
	return n
}

type stubTokens struct{}

func (stubTokens) Issue(uid string, role domain.Role) (string, error) {
	return "tok-" + uid + "-" + string(role), nil
}

type plainHasher struct{}

func (plainHasher) Hash(pw string) (string, error) {
	if len(pw) < 6 {
		return "", domain.ErrInvalidInput
	}
	return "h:" + pw, nil
}

func (plainHasher) Compare(hash, pw string) error {
	if hash != "h:"+pw {
		return domain.ErrUnauthenticated
	}
	return nil
}

var fixedNow = time.Date(2026, 5, 4, 12, 30, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func intPtr(v int) *int { return &v }

func strPtr(s string) *string { return &s }

func customer(id string) *domain.UserProfile {
	return &domain.UserProfile{ID: id, Email: id + "@example.com", FullName: "Customer " + id, Role: domain.RoleCustomer}
}

func staff(role domain.Role) *domain.UserProfile {
	return &domain.UserProfile{ID: "staff-" + string(role), Role: role}
}

type env struct {
	store   *memStore
	events  *recorder
	mailer  *fakeMailer
	gateway *fakeGateway
	placer  *OrderPlacer
	orders  *OrderUC
	payment *PaymentUC
	cod     *CheckoutUC
	users   *UserUC
}

func newEnv(policy Policy) *env {
	s := newMemStore()
	rec := &recorder{}
	m := &fakeMailer{}
	g := &fakeGateway{result: &domain.PaymentVerification{Status: "success"}}
	placer := &OrderPlacer{Orders: fakeOrders{s}, Products: fakeProducts{s}, Coupons: fakeCoupons{s}, Events: rec, Policy: policy, Now: clock}
	notifier := &Notifier{Mailer: m, Notifications: fakeNotifications{s}, Events: rec}
	return &env{
		store:   s,
		events:  rec,
		mailer:  m,
		gateway: g,
		placer:  placer,
		orders:  &OrderUC{Orders: fakeOrders{s}, Users: fakeUsers{s}, Mailer: m, Notify: notifier, Events: rec, Policy: policy, Now: clock},
		payment: &PaymentUC{Gateway: g, Placer: placer},
		cod:     &CheckoutUC{Placer: placer},
		users:   &UserUC{Users: fakeUsers{s}, Tokens: stubTokens{}, Hasher: plainHasher{}, Events: rec, Policy: policy},
	}
}

func (e *env) addProduct(p *domain.Product) *domain.Product {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Status == "" {
		p.Status = domain.ProductActive
	}
	e.store.products[p.ID] = p
	return p
}

func (e *env) stock(id uuid.UUID) int {
	e.store.mu.Lock()
	defer e.store.mu.Unlock()
	return e.store.products[id].AvailableStock()
}

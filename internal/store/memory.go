package store

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/clefeel/storefront/internal/models"
	"github.com/shopspring/decimal"
)

// Memory is an in-process Store. A single mutex guards all state, so an
// order transaction is serialised against every other call, and a failed
// transaction restores the snapshot taken when it began.
type Memory struct {
	mu    sync.Mutex
	now   func() time.Time
	state memState
}

type memState struct {
	seq       int64
	perfumes  map[int64]models.Perfume
	variants  map[int64]models.Variant
	users     map[int64]models.User
	cart      map[int64]models.CartItem
	orders    map[int64]models.Order
	enquiries map[int64]models.Enquiry
}

var _ Store = (*Memory)(nil)

// NewMemory returns an empty in-memory store
func NewMemory() *Memory {
	return &Memory{
		now: func() time.Time { return time.Now().UTC() },
		state: memState{
			perfumes:  map[int64]models.Perfume{},
			variants:  map[int64]models.Variant{},
			users:     map[int64]models.User{},
			cart:      map[int64]models.CartItem{},
			orders:    map[int64]models.Order{},
			enquiries: map[int64]models.Enquiry{},
		},
	}
}

func (s *memState) clone() memState {
	c := memState{
		seq:       s.seq,
		perfumes:  maps.Clone(s.perfumes),
		variants:  maps.Clone(s.variants),
		users:     maps.Clone(s.users),
		cart:      maps.Clone(s.cart),
		orders:    make(map[int64]models.Order, len(s.orders)),
		enquiries: maps.Clone(s.enquiries),
	}
	for id, o := range s.orders {
		o.Items = slices.Clone(o.Items)
		c.orders[id] = o
	}
	return c
}

func (s *memState) nextID() int64 {
	s.seq++
	return s.seq
}

// ---- catalog ----

func (s *memState) variantsOf(perfumeID int64, includeInactive bool) []models.Variant {
	var out []models.Variant
	for _, v := range s.variants {
		if v.PerfumeID == perfumeID && (includeInactive || v.IsActive) {
			out = append(out, v)
		}
	}
	slices.SortFunc(out, func(a, b models.Variant) int {
		if c := a.Price.Cmp(b.Price); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

func (s *memState) withVariants(p models.Perfume, includeInactive bool) models.Perfume {
	p.Images = slices.Clone(p.Images)
	p.Variants = s.variantsOf(p.ID, includeInactive)
	if p.Variants == nil {
		p.Variants = []models.Variant{}
	}
	p.MinPrice = nil
	for _, v := range p.Variants {
		if !v.IsActive {
			continue
		}
		if p.MinPrice == nil || v.Price.LessThan(*p.MinPrice) {
			price := v.Price
			p.MinPrice = &price
		}
	}
	return p
}

func (s *memState) priceInRange(perfumeID int64, lo, hi *decimal.Decimal) bool {
	for _, v := range s.variants {
		if v.PerfumeID != perfumeID || !v.IsActive {
			continue
		}
		if lo != nil && v.Price.LessThan(*lo) {
			continue
		}
		if hi != nil && v.Price.GreaterThan(*hi) {
			continue
		}
		return true
	}
	return false
}

func (m *Memory) ListPerfumes(ctx context.Context, f models.PerfumeFilter) ([]models.Perfume, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []models.Perfume
	for _, p := range m.state.perfumes {
		if !f.IncludeInactive && !p.IsActive {
			continue
		}
		if f.Gender != "" && p.Gender != f.Gender {
			continue
		}
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		if (f.MinPrice != nil || f.MaxPrice != nil) && !m.state.priceInRange(p.ID, f.MinPrice, f.MaxPrice) {
			continue
		}
		out = append(out, m.state.withVariants(p, f.IncludeInactive))
	}

	desc := strings.EqualFold(f.SortOrder, "desc")
	slices.SortFunc(out, func(a, b models.Perfume) int {
		var c int
		switch f.SortBy {
		case "name":
			c = strings.Compare(a.Name, b.Name)
		case "price":
			c = compareMinPrice(a.MinPrice, b.MinPrice)
		default:
			c = a.CreatedAt.Compare(b.CreatedAt)
		}
		if c == 0 {
			c = cmp.Compare(a.ID, b.ID)
		}
		if desc {
			return -c
		}
		return c
	})

	total := len(out)
	return paginate(out, f.Limit, f.Offset), total, nil
}

// compareMinPrice orders products without an active variant last
func compareMinPrice(a, b *decimal.Decimal) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	return a.Cmp(*b)
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func (m *Memory) FeaturedPerfumes(ctx context.Context, limit int) ([]models.Perfume, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []models.Perfume
	for _, p := range m.state.perfumes {
		if p.IsActive && p.IsFeatured {
			out = append(out, m.state.withVariants(p, false))
		}
	}
	slices.SortFunc(out, func(a, b models.Perfume) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return paginate(out, limit, 0), nil
}

func (m *Memory) PerfumeBySlug(ctx context.Context, slug string) (*models.Perfume, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range m.state.perfumes {
		if p.Slug == slug && p.IsActive {
			p = m.state.withVariants(p, false)
			return &p, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) PerfumeByID(ctx context.Context, id int64) (*models.Perfume, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.state.perfumes[id]
	if !ok {
		return nil, ErrNotFound
	}
	p = m.state.withVariants(p, true)
	return &p, nil
}

func (s *memState) slugTaken(slug string, except int64) bool {
	for _, p := range s.perfumes {
		if p.Slug == slug && p.ID != except {
			return true
		}
	}
	return false
}

func (s *memState) skuTaken(sku string, except int64) bool {
	for _, v := range s.variants {
		if v.SKU == sku && v.ID != except {
			return true
		}
	}
	return false
}

func (m *Memory) CreatePerfume(ctx context.Context, p *models.Perfume) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state.slugTaken(p.Slug, 0) {
		return ErrDuplicate
	}
	seen := map[string]bool{}
	for _, v := range p.Variants {
		if seen[v.SKU] || m.state.skuTaken(v.SKU, 0) {
			return ErrDuplicate
		}
		seen[v.SKU] = true
	}

	now := m.now()
	p.ID = m.state.nextID()
	p.CreatedAt, p.UpdatedAt = now, now
	stored := *p
	stored.Images = slices.Clone(p.Images)
	stored.Variants = nil
	m.state.perfumes[p.ID] = stored

	for i := range p.Variants {
		v := &p.Variants[i]
		v.ID = m.state.nextID()
		v.PerfumeID = p.ID
		v.CreatedAt = now
		m.state.variants[v.ID] = *v
	}
	return nil
}

func (m *Memory) UpdatePerfume(ctx context.Context, p *models.Perfume) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.state.perfumes[p.ID]
	if !ok {
		return ErrNotFound
	}
	if m.state.slugTaken(p.Slug, p.ID) {
		return ErrDuplicate
	}
	p.CreatedAt = cur.CreatedAt
	p.UpdatedAt = m.now()
	stored := *p
	stored.Images = slices.Clone(p.Images)
	stored.Variants = nil
	stored.MinPrice = nil
	m.state.perfumes[p.ID] = stored
	return nil
}

func (m *Memory) DeletePerfume(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.state.perfumes[id]; !ok {
		return ErrNotFound
	}
	delete(m.state.perfumes, id)
	for vid, v := range m.state.variants {
		if v.PerfumeID == id {
			m.state.deleteVariant(vid)
		}
	}
	return nil
}

func (m *Memory) CountActivePerfumes(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, p := range m.state.perfumes {
		if p.IsActive {
			n++
		}
	}
	return n, nil
}

func (s *memState) detail(id int64) (models.VariantDetail, bool) {
	v, ok := s.variants[id]
	if !ok {
		return models.VariantDetail{}, false
	}
	p := s.perfumes[v.PerfumeID]
	return models.VariantDetail{Variant: v, PerfumeName: p.Name, PerfumeActive: p.IsActive}, true
}

func (m *Memory) Variant(ctx context.Context, id int64) (*models.VariantDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.state.detail(id)
	if !ok {
		return nil, ErrNotFound
	}
	return &d, nil
}

func (m *Memory) CreateVariant(ctx context.Context, v *models.Variant) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.state.perfumes[v.PerfumeID]; !ok {
		return ErrNotFound
	}
	if m.state.skuTaken(v.SKU, 0) {
		return ErrDuplicate
	}
	v.ID = m.state.nextID()
	v.CreatedAt = m.now()
	m.state.variants[v.ID] = *v
	return nil
}

func (m *Memory) UpdateVariant(ctx context.Context, v *models.Variant) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.state.variants[v.ID]
	if !ok {
		return ErrNotFound
	}
	if m.state.skuTaken(v.SKU, v.ID) {
		return ErrDuplicate
	}
	v.PerfumeID = cur.PerfumeID
	v.CreatedAt = cur.CreatedAt
	m.state.variants[v.ID] = *v
	return nil
}

func (m *Memory) DeleteVariant(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.state.variants[id]; !ok {
		return ErrNotFound
	}
	m.state.deleteVariant(id)
	return nil
}

// deleteVariant cascades to cart lines and detaches order lines
func (s *memState) deleteVariant(id int64) {
	delete(s.variants, id)
	for cid, c := range s.cart {
		if c.VariantID == id {
			delete(s.cart, cid)
		}
	}
	for oid, o := range s.orders {
		changed := false
		for i, l := range o.Items {
			if l.VariantID != nil && *l.VariantID == id {
				if !changed {
					o.Items = slices.Clone(o.Items)
					changed = true
				}
				o.Items[i].VariantID = nil
			}
		}
		if changed {
			s.orders[oid] = o
		}
	}
}

// ---- cart ----

func (s *memState) cartLines(userID int64) []models.CartLine {
	var items []models.CartItem
	for _, c := range s.cart {
		if c.UserID == userID {
			items = append(items, c)
		}
	}
	slices.SortFunc(items, func(a, b models.CartItem) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})

	lines := []models.CartLine{}
	for _, c := range items {
		d, ok := s.detail(c.VariantID)
		if !ok || !d.Purchasable() {
			continue
		}
		p := s.perfumes[d.PerfumeID]
		line := models.CartLine{
			CartID:        c.ID,
			VariantID:     d.ID,
			PerfumeID:     p.ID,
			PerfumeName:   p.Name,
			Slug:          p.Slug,
			Size:          d.Size,
			Price:         d.Price,
			Quantity:      c.Quantity,
			StockQuantity: d.StockQuantity,
			Total:         d.Price.Mul(decimal.NewFromInt(int64(c.Quantity))),
		}
		if len(p.Images) > 0 {
			img := p.Images[0]
			line.Image = &img
		}
		lines = append(lines, line)
	}
	return lines
}

func (m *Memory) CartLines(ctx context.Context, userID int64) ([]models.CartLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.cartLines(userID), nil
}

func (m *Memory) CartItem(ctx context.Context, userID, cartID int64) (*models.CartItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.state.cart[cartID]
	if !ok || c.UserID != userID {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (m *Memory) CartQuantity(ctx context.Context, userID, variantID int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, c := range m.state.cart {
		if c.UserID == userID && c.VariantID == variantID {
			return c.Quantity, nil
		}
	}
	return 0, nil
}

func (m *Memory) AddToCart(ctx context.Context, userID, variantID int64, quantity int) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.state.variants[variantID]; !ok {
		return 0, ErrNotFound
	}
	for id, c := range m.state.cart {
		if c.UserID == userID && c.VariantID == variantID {
			c.Quantity += quantity
			m.state.cart[id] = c
			return id, nil
		}
	}
	id := m.state.nextID()
	m.state.cart[id] = models.CartItem{
		ID:        id,
		UserID:    userID,
		VariantID: variantID,
		Quantity:  quantity,
		CreatedAt: m.now(),
	}
	return id, nil
}

func (m *Memory) SetCartQuantity(ctx context.Context, userID, cartID int64, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.state.cart[cartID]
	if !ok || c.UserID != userID {
		return ErrNotFound
	}
	c.Quantity = quantity
	m.state.cart[cartID] = c
	return nil
}

func (m *Memory) RemoveCartItem(ctx context.Context, userID, cartID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.state.cart[cartID]
	if !ok || c.UserID != userID {
		return ErrNotFound
	}
	delete(m.state.cart, cartID)
	return nil
}

func (s *memState) clearCart(userID int64) {
	for id, c := range s.cart {
		if c.UserID == userID {
			delete(s.cart, id)
		}
	}
}

func (m *Memory) ClearCart(ctx context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.clearCart(userID)
	return nil
}

func (m *Memory) ActiveCarts(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	users := map[int64]struct{}{}
	for _, c := range m.state.cart {
		users[c.UserID] = struct{}{}
	}
	return len(users), nil
}

// ---- orders ----

func (m *Memory) InTx(ctx context.Context, fn func(tx OrderTx) error) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.state.clone()
	defer func() {
		if p := recover(); p != nil {
			m.state = snapshot
			panic(p)
		}
	}()

	if err := fn(&memTx{s: &m.state, now: m.now}); err != nil {
		m.state = snapshot
		return err
	}
	return nil
}

type memTx struct {
	s   *memState
	now func() time.Time
}

func (t *memTx) LockVariants(ctx context.Context, ids []int64) (map[int64]models.VariantDetail, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make(map[int64]models.VariantDetail, len(ids))
	for _, id := range ids {
		if d, ok := t.s.detail(id); ok {
			out[id] = d
		}
	}
	return out, nil
}

func (t *memTx) CartLines(ctx context.Context, userID int64) ([]models.LineRequest, error) {
	var items []models.CartItem
	for _, c := range t.s.cart {
		if c.UserID != userID {
			continue
		}
		if d, ok := t.s.detail(c.VariantID); ok && d.Purchasable() {
			items = append(items, c)
		}
	}
	slices.SortFunc(items, func(a, b models.CartItem) int { return cmp.Compare(a.ID, b.ID) })

	lines := make([]models.LineRequest, 0, len(items))
	for _, c := range items {
		lines = append(lines, models.LineRequest{VariantID: c.VariantID, Quantity: c.Quantity})
	}
	return lines, nil
}

func (t *memTx) InsertOrder(ctx context.Context, o *models.Order) error {
	for _, existing := range t.s.orders {
		if existing.OrderNumber == o.OrderNumber {
			return ErrDuplicate
		}
	}
	o.ID = t.s.nextID()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = t.now()
	}
	o.UpdatedAt = o.CreatedAt
	stored := *o
	stored.Items = nil
	t.s.orders[o.ID] = stored
	return nil
}

func (t *memTx) InsertOrderLine(ctx context.Context, l *models.OrderLine) error {
	o, ok := t.s.orders[l.OrderID]
	if !ok {
		return ErrNotFound
	}
	l.ID = t.s.nextID()
	o.Items = append(slices.Clone(o.Items), *l)
	t.s.orders[o.ID] = o
	return nil
}

func (t *memTx) DecrementStock(ctx context.Context, variantID int64, quantity int) error {
	v, ok := t.s.variants[variantID]
	if !ok || v.StockQuantity < quantity {
		return ErrStockChanged
	}
	v.StockQuantity -= quantity
	t.s.variants[variantID] = v
	return nil
}

func (t *memTx) ClearCart(ctx context.Context, userID int64) error {
	t.s.clearCart(userID)
	return nil
}

func newestFirst(a, b models.Order) int {
	if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
		return c
	}
	return cmp.Compare(b.ID, a.ID)
}

func (m *Memory) OrderByID(ctx context.Context, id int64) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.state.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	o.Items = slices.Clone(o.Items)
	return &o, nil
}

func (m *Memory) OrdersByUser(ctx context.Context, userID int64, limit, offset int) ([]models.Order, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []models.Order
	for _, o := range m.state.orders {
		if o.OwnedBy(userID) {
			o.Items = slices.Clone(o.Items)
			out = append(out, o)
		}
	}
	slices.SortFunc(out, newestFirst)
	return paginate(out, limit, offset), len(out), nil
}

func (m *Memory) ListOrders(ctx context.Context, f models.OrderFilter) ([]models.Order, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []models.Order
	for _, o := range m.state.orders {
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		o.Items = nil
		out = append(out, o)
	}
	slices.SortFunc(out, newestFirst)
	return paginate(out, f.Limit, f.Offset), len(out), nil
}

func (m *Memory) RecentOrders(ctx context.Context, limit int) ([]models.Order, error) {
	orders, _, err := m.ListOrders(ctx, models.OrderFilter{Limit: limit})
	return orders, err
}

func (m *Memory) UpdateOrderStatus(ctx context.Context, id int64, from, to models.OrderStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.state.orders[id]
	if !ok {
		return ErrNotFound
	}
	if o.Status != from {
		return ErrStatusChanged
	}
	o.Status = to
	o.UpdatedAt = m.now()
	m.state.orders[id] = o
	return nil
}

func (m *Memory) UpdatePaymentStatus(ctx context.Context, id int64, status models.PaymentStatus, method string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.state.orders[id]
	if !ok {
		return ErrNotFound
	}
	o.PaymentStatus = status
	if method != "" {
		o.PaymentMethod = method
	}
	o.UpdatedAt = m.now()
	m.state.orders[id] = o
	return nil
}

func (m *Memory) OrderStats(ctx context.Context, since time.Time) (OrderStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := OrderStats{Revenue: decimal.Zero}
	for _, o := range m.state.orders {
		if o.Status == models.OrderPending {
			stats.Pending++
		}
		if o.CreatedAt.Before(since) {
			continue
		}
		stats.Orders++
		if o.Status != models.OrderCancelled {
			stats.Revenue = stats.Revenue.Add(o.TotalAmount)
		}
	}
	return stats, nil
}

// ---- users ----

func (m *Memory) CreateUser(ctx context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.state.users {
		if existing.Email == u.Email {
			return ErrDuplicate
		}
	}
	now := m.now()
	u.ID = m.state.nextID()
	u.CreatedAt, u.UpdatedAt = now, now
	m.state.users[u.ID] = *u
	return nil
}

func (m *Memory) UserByID(ctx context.Context, id int64) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.state.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (m *Memory) findUser(match func(models.User) bool) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.state.users {
		if match(u) {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.findUser(func(u models.User) bool { return u.Email == email })
}

func (m *Memory) UserByVerificationToken(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, ErrNotFound
	}
	return m.findUser(func(u models.User) bool { return u.VerificationToken == token })
}

func (m *Memory) MarkVerified(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.state.users[id]
	if !ok {
		return ErrNotFound
	}
	u.IsVerified = true
	u.VerificationToken = ""
	u.UpdatedAt = m.now()
	m.state.users[id] = u
	return nil
}

func (m *Memory) UpdateUser(ctx context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.state.users[u.ID]
	if !ok {
		return ErrNotFound
	}
	cur.FirstName = u.FirstName
	cur.LastName = u.LastName
	cur.Phone = u.Phone
	cur.UpdatedAt = m.now()
	m.state.users[u.ID] = cur
	*u = cur
	return nil
}

func (m *Memory) CountCustomers(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, u := range m.state.users {
		if u.Role == models.RoleCustomer {
			n++
		}
	}
	return n, nil
}

// ---- enquiries ----

func (m *Memory) CreateEnquiry(ctx context.Context, e *models.Enquiry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e.ID = m.state.nextID()
	e.CreatedAt = m.now()
	if e.Status == "" {
		e.Status = "new"
	}
	m.state.enquiries[e.ID] = *e
	return nil
}

func (m *Memory) ListEnquiries(ctx context.Context, limit int) ([]models.Enquiry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := slices.Collect(maps.Values(m.state.enquiries))
	slices.SortFunc(out, func(a, b models.Enquiry) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return paginate(out, limit, 0), nil
}

func (m *Memory) UpdateEnquiryStatus(ctx context.Context, id int64, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.state.enquiries[id]
	if !ok {
		return ErrNotFound
	}
	e.Status = status
	m.state.enquiries[id] = e
	return nil
}

func (m *Memory) CountEnquiries(ctx context.Context, status string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, e := range m.state.enquiries {
		if status == "" || e.Status == status {
			n++
		}
	}
	return n, nil
}

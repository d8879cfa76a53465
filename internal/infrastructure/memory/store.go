// Package memory holds map-backed entity stores. They honour the same
// contract as the postgres stores and back handler and seed tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"catalog-api/internal/domain"
	"catalog-api/internal/ports"
)

// table is a Store keyed by sequential int64 ids.
type table[E any, N any, U any] struct {
	mu    sync.Mutex
	rows  map[int64]E
	next  int64
	build func(id int64, n N) E
	apply func(e *E, u U)
	fail  error
}

func newTable[E any, N any, U any](build func(int64, N) E, apply func(*E, U)) *table[E, N, U] {
	return &table[E, N, U]{rows: map[int64]E{}, build: build, apply: apply}
}

// FailWith makes every later call return err. nil restores normal behaviour.
func (t *table[E, N, U]) FailWith(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.fail = err
}

func (t *table[E, N, U]) sortedIDs() []int64 {
	ids := make([]int64, 0, len(t.rows))
	for id := range t.rows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (t *table[E, N, U]) GetAll(context.Context) ([]E, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.fail != nil {
		return nil, false, t.fail
	}
	var out []E
	for _, id := range t.sortedIDs() {
		out = append(out, t.rows[id])
	}
	return out, len(out) > 0, nil
}

func (t *table[E, N, U]) GetByID(_ context.Context, id int64) (E, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.fail != nil {
		var zero E
		return zero, false, t.fail
	}
	e, ok := t.rows[id]
	return e, ok, nil
}

func (t *table[E, N, U]) Add(_ context.Context, n N) (int64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.fail != nil {
		return 0, t.fail
	}
	t.next++
	t.rows[t.next] = t.build(t.next, n)
	return t.next, nil
}

func (t *table[E, N, U]) Update(_ context.Context, id int64, u U) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.fail != nil {
		return t.fail
	}
	if e, ok := t.rows[id]; ok {
		t.apply(&e, u)
		t.rows[id] = e
	}
	return nil
}

func (t *table[E, N, U]) Delete(_ context.Context, id int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.fail != nil {
		return t.fail
	}
	delete(t.rows, id)
	return nil
}

func (t *table[E, N, U]) filter(match func(E) bool) ([]E, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.fail != nil {
		return nil, false, t.fail
	}
	var out []E
	for _, id := range t.sortedIDs() {
		if match(t.rows[id]) {
			out = append(out, t.rows[id])
		}
	}
	return out, len(out) > 0, nil
}

func (t *table[E, N, U]) first(match func(E) bool) (E, bool, error) {
	found, ok, err := t.filter(match)
	if err != nil || !ok {
		var zero E
		return zero, false, err
	}
	return found[0], true, nil
}

type UserStore struct {
	*table[domain.User, domain.NewUser, domain.UpdateUser]
}

func (s UserStore) GetByUsername(_ context.Context, username string) (domain.User, bool, error) {
	return s.first(func(u domain.User) bool { return u.Username == username })
}

type RoleStore struct {
	*table[domain.Role, domain.NewRole, domain.UpdateRole]
}

func (s RoleStore) ListByUser(_ context.Context, userID int64) ([]domain.Role, bool, error) {
	return s.filter(func(r domain.Role) bool { return r.UserID == userID })
}

type ProductStore struct {
	*table[domain.Product, domain.NewProduct, domain.UpdateProduct]
}

func (s ProductStore) GetByName(_ context.Context, name string) (domain.Product, bool, error) {
	return s.first(func(p domain.Product) bool { return p.Name == name })
}

type CategoryStore struct {
	*table[domain.Category, domain.NewCategory, domain.UpdateCategory]
}

func (s CategoryStore) GetByName(_ context.Context, name string) (domain.Category, bool, error) {
	return s.first(func(c domain.Category) bool { return c.Name == name })
}

type OrderStore struct {
	*table[domain.Order, domain.NewOrder, domain.UpdateOrder]
	roles RoleStore
}

func (s OrderStore) ListByUser(_ context.Context, userID int64) ([]domain.Order, bool, error) {
	return s.filter(func(o domain.Order) bool { return o.UserID == userID })
}

func (s OrderStore) ListByStatus(_ context.Context, status string) ([]domain.Order, bool, error) {
	return s.filter(func(o domain.Order) bool { return o.Status == status })
}

func (s OrderStore) ListByRoleName(_ context.Context, roleName string) ([]domain.Order, bool, error) {
	holders, _, err := s.roles.filter(func(r domain.Role) bool { return r.Name == roleName })
	if err != nil {
		return nil, false, err
	}
	users := map[int64]bool{}
	for _, r := range holders {
		users[r.UserID] = true
	}
	return s.filter(func(o domain.Order) bool { return users[o.UserID] })
}

// LinkStore keeps product/category pairs. Deleting a category leaves its
// pairs in place, as the relational schema does.
type LinkStore struct {
	mu       sync.Mutex
	keys     map[domain.ProductCategoryKey]bool
	products ProductStore
}

func (s *LinkStore) GetAll(context.Context) ([]domain.ProductCategory, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.ProductCategory, 0, len(s.keys))
	for k := range s.keys {
		out = append(out, domain.ProductCategory{ProductID: k.ProductID, CategoryID: k.CategoryID})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ProductID != out[j].ProductID {
			return out[i].ProductID < out[j].ProductID
		}
		return out[i].CategoryID < out[j].CategoryID
	})
	return out, len(out) > 0, nil
}

func (s *LinkStore) GetByID(_ context.Context, key domain.ProductCategoryKey) (domain.ProductCategory, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.keys[key] {
		return domain.ProductCategory{}, false, nil
	}
	return domain.ProductCategory{ProductID: key.ProductID, CategoryID: key.CategoryID}, true, nil
}

func (s *LinkStore) Add(_ context.Context, key domain.NewProductCategory) (domain.ProductCategoryKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.keys[key] {
		return domain.ProductCategoryKey{}, domain.NewDatabaseError("insert product_categories", nil)
	}
	s.keys[key] = true
	return key, nil
}

func (s *LinkStore) Update(_ context.Context, key domain.ProductCategoryKey, form domain.UpdateProductCategory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.keys[key] {
		return nil
	}
	next := key
	if form.ProductID != nil {
		next.ProductID = *form.ProductID
	}
	if form.CategoryID != nil {
		next.CategoryID = *form.CategoryID
	}
	delete(s.keys, key)
	s.keys[next] = true
	return nil
}

func (s *LinkStore) Delete(_ context.Context, key domain.ProductCategoryKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, key)
	return nil
}

func (s *LinkStore) ListProductsByCategory(_ context.Context, categoryID int64) ([]domain.Product, bool, error) {
	s.mu.Lock()
	linked := map[int64]bool{}
	for k := range s.keys {
		if k.CategoryID == categoryID {
			linked[k.ProductID] = true
		}
	}
	s.mu.Unlock()
	return s.products.filter(func(p domain.Product) bool { return linked[p.ProductID] })
}

var (
	_ ports.UserStore            = UserStore{}
	_ ports.RoleStore            = RoleStore{}
	_ ports.ProductStore         = ProductStore{}
	_ ports.CategoryStore        = CategoryStore{}
	_ ports.OrderStore           = OrderStore{}
	_ ports.ProductCategoryStore = (*LinkStore)(nil)
)

type Stores struct {
	Users      UserStore
	Roles      RoleStore
	Products   ProductStore
	Categories CategoryStore
	Orders     OrderStore
	Links      *LinkStore
}

func NewStores() *Stores {
	roles := RoleStore{newTable(
		func(id int64, n domain.NewRole) domain.Role {
			return domain.Role{RoleID: id, UserID: n.UserID, Name: n.Name, Description: n.Description, Permission: n.Permission}
		},
		func(r *domain.Role, u domain.UpdateRole) {
			if u.Name != nil {
				r.Name = *u.Name
			}
			if u.Description != nil {
				r.Description = u.Description
			}
			if u.Permission != nil {
				r.Permission = *u.Permission
			}
		},
	)}
	products := ProductStore{newTable(
		func(id int64, n domain.NewProduct) domain.Product {
			return domain.Product{ProductID: id, Name: n.Name, Description: n.Description, Price: n.Price, ImageURI: n.ImageURI}
		},
		func(p *domain.Product, u domain.UpdateProduct) {
			if u.Name != nil {
				p.Name = *u.Name
			}
			if u.Description != nil {
				p.Description = u.Description
			}
			if u.Price != nil {
				p.Price = *u.Price
			}
			if u.ImageURI != nil {
				p.ImageURI = u.ImageURI
			}
		},
	)}
	return &Stores{
		Users: UserStore{newTable(
			func(id int64, n domain.NewUser) domain.User {
				return domain.User{UserID: id, Username: n.Username, PasswordHash: n.PasswordHash}
			},
			func(u *domain.User, f domain.UpdateUser) {
				if f.Username != nil {
					u.Username = *f.Username
				}
				if f.PasswordHash != nil {
					u.PasswordHash = *f.PasswordHash
				}
			},
		)},
		Roles:    roles,
		Products: products,
		Categories: CategoryStore{newTable(
			func(id int64, n domain.NewCategory) domain.Category {
				return domain.Category{CategoryID: id, Name: n.Name, Description: n.Description}
			},
			func(c *domain.Category, u domain.UpdateCategory) {
				if u.Name != nil {
					c.Name = *u.Name
				}
				if u.Description != nil {
					c.Description = u.Description
				}
			},
		)},
		Orders: OrderStore{
			table: newTable(
				func(id int64, n domain.NewOrder) domain.Order {
					return domain.Order{OrderID: id, UserID: n.UserID, Status: n.Status, Total: n.Total}
				},
				func(o *domain.Order, u domain.UpdateOrder) {
					if u.Status != nil {
						o.Status = *u.Status
					}
					if u.Total != nil {
						o.Total = *u.Total
					}
				},
			),
			roles: roles,
		},
		Links: &LinkStore{keys: map[domain.ProductCategoryKey]bool{}, products: products},
	}
}

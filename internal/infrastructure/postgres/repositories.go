package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"catalog-api/internal/domain"
	"catalog-api/internal/ports"
)

var (
	userColumns     = []string{"user_id", "username", "password_hash", "created_at", "updated_at"}
	roleColumns     = []string{"role_id", "user_id", "name", "description", "permission::text", "created_at", "updated_at"}
	productColumns  = []string{"product_id", "name", "description", "price", "image_uri", "created_at", "updated_at"}
	categoryColumns = []string{"category_id", "name", "description", "created_at", "updated_at"}
	linkColumns     = []string{"product_id", "category_id", "created_at", "updated_at"}
	orderColumns    = []string{"order_id", "user_id", "status", "total", "created_at", "updated_at"}
)

func int64Key(id int64) []any { return []any{id} }

func scanInt64Key(row pgx.Row) (int64, error) {
	var id int64
	err := row.Scan(&id)
	return id, err
}

func scanUser(row pgx.Row) (domain.User, error) {
	var u domain.User
	err := row.Scan(&u.UserID, &u.Username, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func scanRole(row pgx.Row) (domain.Role, error) {
	var (
		r          domain.Role
		permission string
	)
	if err := row.Scan(&r.RoleID, &r.UserID, &r.Name, &r.Description, &permission, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return domain.Role{}, err
	}
	level, err := domain.ParsePermissionLevel(permission)
	if err != nil {
		return domain.Role{}, err
	}
	r.Permission = level
	return r, nil
}

func scanProduct(row pgx.Row) (domain.Product, error) {
	var p domain.Product
	err := row.Scan(&p.ProductID, &p.Name, &p.Description, &p.Price, &p.ImageURI, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func scanCategory(row pgx.Row) (domain.Category, error) {
	var c domain.Category
	err := row.Scan(&c.CategoryID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func scanLink(row pgx.Row) (domain.ProductCategory, error) {
	var pc domain.ProductCategory
	err := row.Scan(&pc.ProductID, &pc.CategoryID, &pc.CreatedAt, &pc.UpdatedAt)
	return pc, err
}

func scanOrder(row pgx.Row) (domain.Order, error) {
	var o domain.Order
	err := row.Scan(&o.OrderID, &o.UserID, &o.Status, &o.Total, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

type UserRepository struct {
	*Store[domain.User, int64, domain.NewUser, domain.UpdateUser]
}

var _ ports.UserStore = (*UserRepository)(nil)

func NewUserRepository(pool *pgxpool.Pool, metrics ports.StoreMetrics) *UserRepository {
	return &UserRepository{newStore(pool, table[domain.User, int64, domain.NewUser, domain.UpdateUser]{
		entity:  "user",
		name:    "users",
		columns: userColumns,
		key:     []string{"user_id"},
		keyArgs: int64Key,
		scan:    scanUser,
		scanKey: scanInt64Key,
		insert: func(n domain.NewUser) ([]string, []any) {
			return []string{"username", "password_hash"}, []any{n.Username, n.PasswordHash}
		},
		changes: func(u domain.UpdateUser) ([]string, []any) {
			var f fields
			if u.Username != nil {
				f.add("username", *u.Username)
			}
			if u.PasswordHash != nil {
				f.add("password_hash", *u.PasswordHash)
			}
			return f.columns, f.args
		},
	}, metrics)}
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (domain.User, bool, error) {
	return r.findOne(ctx, "get_by_username", "username = $1", username)
}

type RoleRepository struct {
	*Store[domain.Role, int64, domain.NewRole, domain.UpdateRole]
}

var _ ports.RoleStore = (*RoleRepository)(nil)

func NewRoleRepository(pool *pgxpool.Pool, metrics ports.StoreMetrics) *RoleRepository {
	return &RoleRepository{newStore(pool, table[domain.Role, int64, domain.NewRole, domain.UpdateRole]{
		entity:  "role",
		name:    "user_roles",
		columns: roleColumns,
		key:     []string{"role_id"},
		keyArgs: int64Key,
		scan:    scanRole,
		scanKey: scanInt64Key,
		insert: func(n domain.NewRole) ([]string, []any) {
			return []string{"user_id", "name", "description", "permission"},
				[]any{n.UserID, n.Name, n.Description, n.Permission.String()}
		},
		changes: func(u domain.UpdateRole) ([]string, []any) {
			var f fields
			if u.Name != nil {
				f.add("name", *u.Name)
			}
			if u.Description != nil {
				f.add("description", *u.Description)
			}
			if u.Permission != nil {
				f.add("permission", u.Permission.String())
			}
			return f.columns, f.args
		},
	}, metrics)}
}

func (r *RoleRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Role, bool, error) {
	query := selectSQL("user_roles", roleColumns, "user_id = $1") + " ORDER BY role_id"
	return r.findMany(ctx, "list_by_user", query, userID)
}

type ProductRepository struct {
	*Store[domain.Product, int64, domain.NewProduct, domain.UpdateProduct]
}

var _ ports.ProductStore = (*ProductRepository)(nil)

func NewProductRepository(pool *pgxpool.Pool, metrics ports.StoreMetrics) *ProductRepository {
	return &ProductRepository{newStore(pool, table[domain.Product, int64, domain.NewProduct, domain.UpdateProduct]{
		entity:  "product",
		name:    "products",
		columns: productColumns,
		key:     []string{"product_id"},
		keyArgs: int64Key,
		scan:    scanProduct,
		scanKey: scanInt64Key,
		insert: func(n domain.NewProduct) ([]string, []any) {
			return []string{"name", "description", "price", "image_uri"},
				[]any{n.Name, n.Description, n.Price, n.ImageURI}
		},
		changes: func(u domain.UpdateProduct) ([]string, []any) {
			var f fields
			if u.Name != nil {
				f.add("name", *u.Name)
			}
			if u.Description != nil {
				f.add("description", *u.Description)
			}
			if u.Price != nil {
				f.add("price", *u.Price)
			}
			if u.ImageURI != nil {
				f.add("image_uri", *u.ImageURI)
			}
			return f.columns, f.args
		},
	}, metrics)}
}

func (r *ProductRepository) GetByName(ctx context.Context, name string) (domain.Product, bool, error) {
	return r.findOne(ctx, "get_by_name", "name = $1", name)
}

type CategoryRepository struct {
	*Store[domain.Category, int64, domain.NewCategory, domain.UpdateCategory]
}

var _ ports.CategoryStore = (*CategoryRepository)(nil)

func NewCategoryRepository(pool *pgxpool.Pool, metrics ports.StoreMetrics) *CategoryRepository {
	return &CategoryRepository{newStore(pool, table[domain.Category, int64, domain.NewCategory, domain.UpdateCategory]{
		entity:  "category",
		name:    "categories",
		columns: categoryColumns,
		key:     []string{"category_id"},
		keyArgs: int64Key,
		scan:    scanCategory,
		scanKey: scanInt64Key,
		insert: func(n domain.NewCategory) ([]string, []any) {
			return []string{"name", "description"}, []any{n.Name, n.Description}
		},
		changes: categoryChanges,
	}, metrics)}
}

func categoryChanges(u domain.UpdateCategory) ([]string, []any) {
	var f fields
	if u.Name != nil {
		f.add("name", *u.Name)
	}
	if u.Description != nil {
		f.add("description", *u.Description)
	}
	return f.columns, f.args
}

func (r *CategoryRepository) GetByName(ctx context.Context, name string) (domain.Category, bool, error) {
	return r.findOne(ctx, "get_by_name", "name = $1", name)
}

// ProductCategoryRepository stores links keyed by (product_id, category_id).
type ProductCategoryRepository struct {
	*Store[domain.ProductCategory, domain.ProductCategoryKey, domain.NewProductCategory, domain.UpdateProductCategory]
}

var _ ports.ProductCategoryStore = (*ProductCategoryRepository)(nil)

func NewProductCategoryRepository(pool *pgxpool.Pool, metrics ports.StoreMetrics) *ProductCategoryRepository {
	return &ProductCategoryRepository{newStore(pool, table[domain.ProductCategory, domain.ProductCategoryKey, domain.NewProductCategory, domain.UpdateProductCategory]{
		entity:  "product_category",
		name:    "product_categories",
		columns: linkColumns,
		key:     []string{"product_id", "category_id"},
		keyArgs: func(k domain.ProductCategoryKey) []any {
			return []any{k.ProductID, k.CategoryID}
		},
		scan: scanLink,
		scanKey: func(row pgx.Row) (domain.ProductCategoryKey, error) {
			var k domain.ProductCategoryKey
			err := row.Scan(&k.ProductID, &k.CategoryID)
			return k, err
		},
		insert: func(n domain.NewProductCategory) ([]string, []any) {
			return []string{"product_id", "category_id"}, []any{n.ProductID, n.CategoryID}
		},
		changes: func(u domain.UpdateProductCategory) ([]string, []any) {
			var f fields
			if u.ProductID != nil {
				f.add("product_id", *u.ProductID)
			}
			if u.CategoryID != nil {
				f.add("category_id", *u.CategoryID)
			}
			return f.columns, f.args
		},
	}, metrics)}
}

func (r *ProductCategoryRepository) ListProductsByCategory(ctx context.Context, categoryID int64) ([]domain.Product, bool, error) {
	query := selectSQL("products p JOIN product_categories pc ON pc.product_id = p.product_id",
		qualify("p", productColumns), "pc.category_id = $1") + " ORDER BY p.product_id"
	conn, err := r.acquire(ctx)
	if err != nil {
		return nil, false, r.fail("list_products", err)
	}
	defer conn.Release()
	products, err := queryRows(ctx, conn, query, scanProduct, categoryID)
	if err != nil {
		return nil, false, r.fail("list_products", err)
	}
	r.observe("list_products", nil)
	if len(products) == 0 {
		return nil, false, nil
	}
	return products, true, nil
}

type OrderRepository struct {
	*Store[domain.Order, int64, domain.NewOrder, domain.UpdateOrder]
}

var _ ports.OrderStore = (*OrderRepository)(nil)

func NewOrderRepository(pool *pgxpool.Pool, metrics ports.StoreMetrics) *OrderRepository {
	return &OrderRepository{newStore(pool, table[domain.Order, int64, domain.NewOrder, domain.UpdateOrder]{
		entity:  "order",
		name:    "orders",
		columns: orderColumns,
		key:     []string{"order_id"},
		keyArgs: int64Key,
		scan:    scanOrder,
		scanKey: scanInt64Key,
		insert: func(n domain.NewOrder) ([]string, []any) {
			return []string{"user_id", "status", "total"}, []any{n.UserID, n.Status, n.Total}
		},
		changes: func(u domain.UpdateOrder) ([]string, []any) {
			var f fields
			if u.Status != nil {
				f.add("status", *u.Status)
			}
			if u.Total != nil {
				f.add("total", *u.Total)
			}
			return f.columns, f.args
		},
	}, metrics)}
}

func (r *OrderRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Order, bool, error) {
	query := selectSQL("orders", orderColumns, "user_id = $1") + " ORDER BY order_id"
	return r.findMany(ctx, "list_by_user", query, userID)
}

func (r *OrderRepository) ListByStatus(ctx context.Context, status string) ([]domain.Order, bool, error) {
	query := selectSQL("orders", orderColumns, "status = $1") + " ORDER BY order_id"
	return r.findMany(ctx, "list_by_status", query, status)
}

// ListByRoleName returns orders of every user holding a role called roleName.
func (r *OrderRepository) ListByRoleName(ctx context.Context, roleName string) ([]domain.Order, bool, error) {
	query := selectSQL("orders", orderColumns, "user_id IN (SELECT user_id FROM user_roles WHERE name = $1)") + " ORDER BY order_id"
	return r.findMany(ctx, "list_by_role_name", query, roleName)
}

// Package seed loads bootstrap data (users, roles, categories, products) from
// YAML straight into the stores, bypassing the authorization gate.
package seed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"catalog-api/internal/domain"
	"catalog-api/internal/ports"
)

type File struct {
	Users      []User     `yaml:"users"`
	Categories []Category `yaml:"categories"`
	Products   []Product  `yaml:"products"`
}

type User struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Roles    []Role `yaml:"roles"`
}

type Role struct {
	Name        string  `yaml:"name"`
	Description *string `yaml:"description"`
	Permission  string  `yaml:"permission"`
}

type Category struct {
	Name        string  `yaml:"name"`
	Description *string `yaml:"description"`
}

type Product struct {
	Name        string          `yaml:"name"`
	Description *string         `yaml:"description"`
	Price       decimal.Decimal `yaml:"price"`
	ImageURI    *string         `yaml:"image_uri"`
	Categories  []string        `yaml:"categories"`
}

// Parse decodes a seed document. Unknown keys are rejected.
func Parse(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var f File
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func Load(path string) (*File, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(bytes.NewReader(contents))
}

func (f *File) Validate() error {
	var errs []error
	categories := map[string]bool{}
	for i, c := range f.Categories {
		if strings.TrimSpace(c.Name) == "" {
			errs = append(errs, fmt.Errorf("categories[%d]: name is required", i))
		}
		categories[c.Name] = true
	}
	for i, u := range f.Users {
		if strings.TrimSpace(u.Username) == "" || u.Password == "" {
			errs = append(errs, fmt.Errorf("users[%d]: username and password are required", i))
		}
		for j, r := range u.Roles {
			if _, err := domain.ParsePermissionLevel(r.Permission); err != nil {
				errs = append(errs, fmt.Errorf("users[%d].roles[%d]: %w", i, j, err))
			}
		}
	}
	for i, p := range f.Products {
		if strings.TrimSpace(p.Name) == "" {
			errs = append(errs, fmt.Errorf("products[%d]: name is required", i))
		}
		if p.Price.IsNegative() {
			errs = append(errs, fmt.Errorf("products[%d]: price must not be negative", i))
		}
		for _, name := range p.Categories {
			if !categories[name] {
				errs = append(errs, fmt.Errorf("products[%d]: unknown category %q", i, name))
			}
		}
	}
	return errors.Join(errs...)
}

type Stores struct {
	Users      ports.UserStore
	Roles      ports.RoleStore
	Categories ports.CategoryStore
	Products   ports.ProductStore
	Links      ports.ProductCategoryStore
}

// Report counts the rows Apply created. Rows that already existed are skipped.
type Report struct {
	Users      int
	Roles      int
	Categories int
	Products   int
	Links      int
}

type Seeder struct {
	stores Stores
	hasher ports.PasswordHasher
	logger ports.Logger
}

func NewSeeder(stores Stores, hasher ports.PasswordHasher, logger ports.Logger) *Seeder {
	return &Seeder{stores: stores, hasher: hasher, logger: logger}
}

// Apply writes f. Existing users, categories and products are matched by
// name and left untouched, so running the same file twice is a no-op.
func (s *Seeder) Apply(ctx context.Context, f *File) (Report, error) {
	var report Report
	for _, u := range f.Users {
		if err := s.applyUser(ctx, u, &report); err != nil {
			return report, err
		}
	}
	categoryIDs := map[string]int64{}
	for _, c := range f.Categories {
		id, err := s.applyCategory(ctx, c, &report)
		if err != nil {
			return report, err
		}
		categoryIDs[c.Name] = id
	}
	for _, p := range f.Products {
		if err := s.applyProduct(ctx, p, categoryIDs, &report); err != nil {
			return report, err
		}
	}
	s.logger.Info(ctx, "seed applied",
		"users", report.Users, "roles", report.Roles, "categories", report.Categories,
		"products", report.Products, "links", report.Links)
	return report, nil
}

func (s *Seeder) applyUser(ctx context.Context, u User, report *Report) error {
	user, ok, err := s.stores.Users.GetByUsername(ctx, u.Username)
	if err != nil {
		return fmt.Errorf("lookup user %s: %w", u.Username, err)
	}
	userID := user.UserID
	if !ok {
		hash, err := s.hasher.Hash(u.Password)
		if err != nil {
			return fmt.Errorf("hash password for %s: %w", u.Username, err)
		}
		if userID, err = s.stores.Users.Add(ctx, domain.NewUser{Username: u.Username, PasswordHash: hash}); err != nil {
			return fmt.Errorf("add user %s: %w", u.Username, err)
		}
		report.Users++
	}

	held, _, err := s.stores.Roles.ListByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("list roles of %s: %w", u.Username, err)
	}
	names := make(map[string]bool, len(held))
	for _, r := range held {
		names[r.Name] = true
	}
	for _, r := range u.Roles {
		if names[r.Name] {
			continue
		}
		level, err := domain.ParsePermissionLevel(r.Permission)
		if err != nil {
			return err
		}
		if _, err := s.stores.Roles.Add(ctx, domain.NewRole{UserID: userID, Name: r.Name, Description: r.Description, Permission: level}); err != nil {
			return fmt.Errorf("add role %s for %s: %w", r.Name, u.Username, err)
		}
		report.Roles++
	}
	return nil
}

func (s *Seeder) applyCategory(ctx context.Context, c Category, report *Report) (int64, error) {
	existing, ok, err := s.stores.Categories.GetByName(ctx, c.Name)
	if err != nil {
		return 0, fmt.Errorf("lookup category %s: %w", c.Name, err)
	}
	if ok {
		return existing.CategoryID, nil
	}
	id, err := s.stores.Categories.Add(ctx, domain.NewCategory{Name: c.Name, Description: c.Description})
	if err != nil {
		return 0, fmt.Errorf("add category %s: %w", c.Name, err)
	}
	report.Categories++
	return id, nil
}

func (s *Seeder) applyProduct(ctx context.Context, p Product, categoryIDs map[string]int64, report *Report) error {
	existing, ok, err := s.stores.Products.GetByName(ctx, p.Name)
	if err != nil {
		return fmt.Errorf("lookup product %s: %w", p.Name, err)
	}
	productID := existing.ProductID
	if !ok {
		productID, err = s.stores.Products.Add(ctx, domain.NewProduct{
			Name:        p.Name,
			Description: p.Description,
			Price:       p.Price,
			ImageURI:    p.ImageURI,
		})
		if err != nil {
			return fmt.Errorf("add product %s: %w", p.Name, err)
		}
		report.Products++
	}
	for _, name := range p.Categories {
		key := domain.ProductCategoryKey{ProductID: productID, CategoryID: categoryIDs[name]}
		_, linked, err := s.stores.Links.GetByID(ctx, key)
		if err != nil {
			return fmt.Errorf("lookup link %s/%s: %w", p.Name, name, err)
		}
		if linked {
			continue
		}
		if _, err := s.stores.Links.Add(ctx, key); err != nil {
			return fmt.Errorf("link %s to %s: %w", p.Name, name, err)
		}
		report.Links++
	}
	return nil
}

package application

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"catalog-api/internal/domain"
)

type nopLogger struct{}

func (nopLogger) Info(context.Context, string, ...any)  {}
func (nopLogger) Error(context.Context, string, ...any) {}
func (nopLogger) Warn(context.Context, string, ...any)  {}
func (nopLogger) Debug(context.Context, string, ...any) {}

type decision struct {
	required domain.PermissionLevel
	granted  bool
}

type metricsRecorder struct {
	mu        sync.Mutex
	decisions []decision
}

func (m *metricsRecorder) ObserveAuthorization(required domain.PermissionLevel, granted bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.decisions = append(m.decisions, decision{required: required, granted: granted})
}

type roleStoreMock struct{ mock.Mock }

func (m *roleStoreMock) GetAll(ctx context.Context) ([]domain.Role, bool, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Role), args.Bool(1), args.Error(2)
}

func (m *roleStoreMock) GetByID(ctx context.Context, id int64) (domain.Role, bool, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Role), args.Bool(1), args.Error(2)
}

func (m *roleStoreMock) Add(ctx context.Context, item domain.NewRole) (int64, error) {
	args := m.Called(ctx, item)
	return args.Get(0).(int64), args.Error(1)
}

func (m *roleStoreMock) Update(ctx context.Context, id int64, form domain.UpdateRole) error {
	args := m.Called(ctx, id, form)
	return args.Error(0)
}

func (m *roleStoreMock) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *roleStoreMock) ListByUser(ctx context.Context, userID int64) ([]domain.Role, bool, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.Role), args.Bool(1), args.Error(2)
}

type userStoreMock struct{ mock.Mock }

func (m *userStoreMock) GetAll(ctx context.Context) ([]domain.User, bool, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.User), args.Bool(1), args.Error(2)
}

func (m *userStoreMock) GetByID(ctx context.Context, id int64) (domain.User, bool, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.User), args.Bool(1), args.Error(2)
}

func (m *userStoreMock) Add(ctx context.Context, item domain.NewUser) (int64, error) {
	args := m.Called(ctx, item)
	return args.Get(0).(int64), args.Error(1)
}

func (m *userStoreMock) Update(ctx context.Context, id int64, form domain.UpdateUser) error {
	args := m.Called(ctx, id, form)
	return args.Error(0)
}

func (m *userStoreMock) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *userStoreMock) GetByUsername(ctx context.Context, username string) (domain.User, bool, error) {
	args := m.Called(ctx, username)
	return args.Get(0).(domain.User), args.Bool(1), args.Error(2)
}

type productStoreMock struct{ mock.Mock }

func (m *productStoreMock) GetAll(ctx context.Context) ([]domain.Product, bool, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Product), args.Bool(1), args.Error(2)
}

func (m *productStoreMock) GetByID(ctx context.Context, id int64) (domain.Product, bool, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Product), args.Bool(1), args.Error(2)
}

func (m *productStoreMock) Add(ctx context.Context, item domain.NewProduct) (int64, error) {
	args := m.Called(ctx, item)
	return args.Get(0).(int64), args.Error(1)
}

func (m *productStoreMock) Update(ctx context.Context, id int64, form domain.UpdateProduct) error {
	args := m.Called(ctx, id, form)
	return args.Error(0)
}

func (m *productStoreMock) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *productStoreMock) GetByName(ctx context.Context, name string) (domain.Product, bool, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(domain.Product), args.Bool(1), args.Error(2)
}

type categoryStoreMock struct{ mock.Mock }

func (m *categoryStoreMock) GetAll(ctx context.Context) ([]domain.Category, bool, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Category), args.Bool(1), args.Error(2)
}

func (m *categoryStoreMock) GetByID(ctx context.Context, id int64) (domain.Category, bool, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Category), args.Bool(1), args.Error(2)
}

func (m *categoryStoreMock) Add(ctx context.Context, item domain.NewCategory) (int64, error) {
	args := m.Called(ctx, item)
	return args.Get(0).(int64), args.Error(1)
}

func (m *categoryStoreMock) Update(ctx context.Context, id int64, form domain.UpdateCategory) error {
	args := m.Called(ctx, id, form)
	return args.Error(0)
}

func (m *categoryStoreMock) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *categoryStoreMock) GetByName(ctx context.Context, name string) (domain.Category, bool, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(domain.Category), args.Bool(1), args.Error(2)
}

type linkStoreMock struct{ mock.Mock }

func (m *linkStoreMock) GetAll(ctx context.Context) ([]domain.ProductCategory, bool, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.ProductCategory), args.Bool(1), args.Error(2)
}

func (m *linkStoreMock) GetByID(ctx context.Context, id domain.ProductCategoryKey) (domain.ProductCategory, bool, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.ProductCategory), args.Bool(1), args.Error(2)
}

func (m *linkStoreMock) Add(ctx context.Context, item domain.NewProductCategory) (domain.ProductCategoryKey, error) {
	args := m.Called(ctx, item)
	return args.Get(0).(domain.ProductCategoryKey), args.Error(1)
}

func (m *linkStoreMock) Update(ctx context.Context, id domain.ProductCategoryKey, form domain.UpdateProductCategory) error {
	args := m.Called(ctx, id, form)
	return args.Error(0)
}

func (m *linkStoreMock) Delete(ctx context.Context, id domain.ProductCategoryKey) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *linkStoreMock) ListProductsByCategory(ctx context.Context, categoryID int64) ([]domain.Product, bool, error) {
	args := m.Called(ctx, categoryID)
	return args.Get(0).([]domain.Product), args.Bool(1), args.Error(2)
}

type orderStoreMock struct{ mock.Mock }

func (m *orderStoreMock) GetAll(ctx context.Context) ([]domain.Order, bool, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Order), args.Bool(1), args.Error(2)
}

func (m *orderStoreMock) GetByID(ctx context.Context, id int64) (domain.Order, bool, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Order), args.Bool(1), args.Error(2)
}

func (m *orderStoreMock) Add(ctx context.Context, item domain.NewOrder) (int64, error) {
	args := m.Called(ctx, item)
	return args.Get(0).(int64), args.Error(1)
}

func (m *orderStoreMock) Update(ctx context.Context, id int64, form domain.UpdateOrder) error {
	args := m.Called(ctx, id, form)
	return args.Error(0)
}

func (m *orderStoreMock) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *orderStoreMock) ListByUser(ctx context.Context, userID int64) ([]domain.Order, bool, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.Order), args.Bool(1), args.Error(2)
}

func (m *orderStoreMock) ListByStatus(ctx context.Context, status string) ([]domain.Order, bool, error) {
	args := m.Called(ctx, status)
	return args.Get(0).([]domain.Order), args.Bool(1), args.Error(2)
}

func (m *orderStoreMock) ListByRoleName(ctx context.Context, roleName string) ([]domain.Order, bool, error) {
	args := m.Called(ctx, roleName)
	return args.Get(0).([]domain.Order), args.Bool(1), args.Error(2)
}

type hasherMock struct{ mock.Mock }

func (m *hasherMock) Hash(password string) (string, error) {
	args := m.Called(password)
	return args.String(0), args.Error(1)
}

func (m *hasherMock) Verify(password, encoded string) (bool, error) {
	args := m.Called(password, encoded)
	return args.Bool(0), args.Error(1)
}

// withRoles registers one GetByID expectation per role. An empty level marks
// the role as absent.
func withRoles(repo *roleStoreMock, levels map[int64]domain.PermissionLevel) {
	for id, level := range levels {
		if level == "" {
			repo.On("GetByID", mock.Anything, id).Return(domain.Role{}, false, nil)
			continue
		}
		repo.On("GetByID", mock.Anything, id).Return(domain.Role{RoleID: id, Permission: level}, true, nil)
	}
}

func newGate(roles *roleStoreMock) (*AuthorizationGate, *metricsRecorder) {
	metrics := &metricsRecorder{}
	return NewAuthorizationGate(NewPermissionResolver(roles), metrics, nopLogger{}), metrics
}

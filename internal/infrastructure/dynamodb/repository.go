package dynamodb

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	awsv2dynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsv2types "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"catalog-api/internal/domain"
	"catalog-api/internal/ports"
)

type userRecord struct {
	PK           string `dynamodbav:"PK"`
	SK           string `dynamodbav:"SK"`
	EntityType   string `dynamodbav:"EntityType"`
	UserID       int64  `dynamodbav:"UserID"`
	Username     string `dynamodbav:"Username"`
	PasswordHash string `dynamodbav:"PasswordHash"`
	CreatedAt    string `dynamodbav:"CreatedAt"`
	UpdatedAt    string `dynamodbav:"UpdatedAt"`
}

func (r userRecord) toDomain() domain.User {
	return domain.User{
		UserID:       r.UserID,
		Username:     r.Username,
		PasswordHash: r.PasswordHash,
		CreatedAt:    parseTime(r.CreatedAt),
		UpdatedAt:    parseTime(r.UpdatedAt),
	}
}

type usernameRecord struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	EntityType string `dynamodbav:"EntityType"`
	UserID     int64  `dynamodbav:"UserID"`
}

type roleRecord struct {
	PK          string  `dynamodbav:"PK"`
	SK          string  `dynamodbav:"SK"`
	GSI1PK      string  `dynamodbav:"GSI1PK"`
	GSI1SK      string  `dynamodbav:"GSI1SK"`
	EntityType  string  `dynamodbav:"EntityType"`
	RoleID      int64   `dynamodbav:"RoleID"`
	UserID      int64   `dynamodbav:"UserID"`
	Name        string  `dynamodbav:"Name"`
	Description *string `dynamodbav:"Description,omitempty"`
	Permission  string  `dynamodbav:"Permission"`
	CreatedAt   string  `dynamodbav:"CreatedAt"`
	UpdatedAt   string  `dynamodbav:"UpdatedAt"`
}

func (r roleRecord) toDomain() (domain.Role, error) {
	level, err := domain.ParsePermissionLevel(r.Permission)
	if err != nil {
		return domain.Role{}, err
	}
	return domain.Role{
		RoleID:      r.RoleID,
		UserID:      r.UserID,
		Name:        r.Name,
		Description: r.Description,
		Permission:  level,
		CreatedAt:   parseTime(r.CreatedAt),
		UpdatedAt:   parseTime(r.UpdatedAt),
	}, nil
}

// UserRepository keeps one item per user plus a USERNAME# guard item that
// enforces unique usernames.
type UserRepository struct{ client *Client }

var _ ports.UserStore = (*UserRepository)(nil)

func NewUserRepository(client *Client) *UserRepository {
	return &UserRepository{client: client}
}

func (r *UserRepository) GetAll(ctx context.Context) ([]domain.User, bool, error) {
	items, err := r.client.scanEntities(ctx, "ScanUsers", "USER")
	if err != nil {
		return nil, false, r.client.fail("user", "get_all", err)
	}
	users := make([]domain.User, 0, len(items))
	for _, item := range items {
		var rec userRecord
		if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
			return nil, false, r.client.fail("user", "get_all", err)
		}
		users = append(users, rec.toDomain())
	}
	r.client.observe("user", "get_all", nil)
	if len(users) == 0 {
		return nil, false, nil
	}
	sortByID(users, func(u domain.User) int64 { return u.UserID })
	return users, true, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (domain.User, bool, error) {
	user, ok, err := r.get(ctx, id)
	if err != nil {
		return domain.User{}, false, r.client.fail("user", "get_by_id", err)
	}
	r.client.observe("user", "get_by_id", nil)
	return user, ok, nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (domain.User, bool, error) {
	item, err := r.client.getItem(ctx, "GetUsername", usernamePK(username))
	if err != nil {
		return domain.User{}, false, r.client.fail("user", "get_by_username", err)
	}
	if item == nil {
		r.client.observe("user", "get_by_username", nil)
		return domain.User{}, false, nil
	}
	var guard usernameRecord
	if err := attributevalue.UnmarshalMap(item, &guard); err != nil {
		return domain.User{}, false, r.client.fail("user", "get_by_username", err)
	}
	user, ok, err := r.get(ctx, guard.UserID)
	if err != nil {
		return domain.User{}, false, r.client.fail("user", "get_by_username", err)
	}
	r.client.observe("user", "get_by_username", nil)
	return user, ok, nil
}

func (r *UserRepository) Add(ctx context.Context, item domain.NewUser) (int64, error) {
	id, err := r.client.nextID(ctx, "USER")
	if err != nil {
		return 0, r.client.fail("user", "add", err)
	}
	now := r.client.now().Format(timeLayout)
	userAV, err := attributevalue.MarshalMap(userRecord{
		PK: userPK(id), SK: metaSK, EntityType: "USER",
		UserID: id, Username: item.Username, PasswordHash: item.PasswordHash,
		CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		return 0, r.client.fail("user", "add", err)
	}
	guardAV, err := attributevalue.MarshalMap(usernameRecord{
		PK: usernamePK(item.Username), SK: metaSK, EntityType: "USERNAME", UserID: id,
	})
	if err != nil {
		return 0, r.client.fail("user", "add", err)
	}
	err = r.client.capture(ctx, "PutUser", func(ctx context.Context) error {
		_, err := r.client.db.TransactWriteItems(ctx, &awsv2dynamodb.TransactWriteItemsInput{
			TransactItems: []awsv2types.TransactWriteItem{
				{Put: r.conditionalPut(userAV)},
				{Put: r.conditionalPut(guardAV)},
			},
		})
		return err
	})
	if err != nil {
		return 0, r.client.fail("user", "add", err)
	}
	r.client.observe("user", "add", nil)
	return id, nil
}

// Update applies the present fields. Renames swap the guard item in the same
// transaction; a missing user is a no-op.
func (r *UserRepository) Update(ctx context.Context, id int64, form domain.UpdateUser) error {
	expr := newUpdateExpr()
	if form.Username != nil {
		expr.set("Username", stringAV(*form.Username))
	}
	if form.PasswordHash != nil {
		expr.set("PasswordHash", stringAV(*form.PasswordHash))
	}
	if expr.empty() {
		return nil
	}
	update := &awsv2types.Update{
		TableName:                 aws.String(r.client.tableName),
		Key:                       itemKey(userPK(id)),
		UpdateExpression:          aws.String(expr.expression(r.client.now())),
		ExpressionAttributeNames:  expr.names,
		ExpressionAttributeValues: expr.values,
		ConditionExpression:       aws.String("attribute_exists(PK)"),
	}

	current, ok, err := r.get(ctx, id)
	if err != nil {
		return r.client.fail("user", "update", err)
	}
	if !ok {
		r.client.observe("user", "update", nil)
		return nil
	}

	items := []awsv2types.TransactWriteItem{{Update: update}}
	if form.Username != nil && *form.Username != current.Username {
		guardAV, err := attributevalue.MarshalMap(usernameRecord{
			PK: usernamePK(*form.Username), SK: metaSK, EntityType: "USERNAME", UserID: id,
		})
		if err != nil {
			return r.client.fail("user", "update", err)
		}
		items = append(items,
			awsv2types.TransactWriteItem{Put: r.conditionalPut(guardAV)},
			awsv2types.TransactWriteItem{Delete: &awsv2types.Delete{
				TableName: aws.String(r.client.tableName),
				Key:       itemKey(usernamePK(current.Username)),
			}},
		)
	}
	err = r.client.capture(ctx, "UpdateUser", func(ctx context.Context) error {
		_, err := r.client.db.TransactWriteItems(ctx, &awsv2dynamodb.TransactWriteItemsInput{TransactItems: items})
		return err
	})
	if err != nil {
		return r.client.fail("user", "update", err)
	}
	r.client.observe("user", "update", nil)
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	current, ok, err := r.get(ctx, id)
	if err != nil {
		return r.client.fail("user", "delete", err)
	}
	if !ok {
		r.client.observe("user", "delete", nil)
		return nil
	}
	err = r.client.capture(ctx, "DeleteUser", func(ctx context.Context) error {
		_, err := r.client.db.TransactWriteItems(ctx, &awsv2dynamodb.TransactWriteItemsInput{
			TransactItems: []awsv2types.TransactWriteItem{
				{Delete: &awsv2types.Delete{TableName: aws.String(r.client.tableName), Key: itemKey(userPK(id))}},
				{Delete: &awsv2types.Delete{TableName: aws.String(r.client.tableName), Key: itemKey(usernamePK(current.Username))}},
			},
		})
		return err
	})
	if err != nil {
		return r.client.fail("user", "delete", err)
	}
	r.client.observe("user", "delete", nil)
	return nil
}

func (r *UserRepository) get(ctx context.Context, id int64) (domain.User, bool, error) {
	item, err := r.client.getItem(ctx, "GetUser", userPK(id))
	if err != nil {
		return domain.User{}, false, err
	}
	if item == nil {
		return domain.User{}, false, nil
	}
	var rec userRecord
	if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
		return domain.User{}, false, err
	}
	return rec.toDomain(), true, nil
}

func (r *UserRepository) conditionalPut(item map[string]awsv2types.AttributeValue) *awsv2types.Put {
	return &awsv2types.Put{
		TableName:           aws.String(r.client.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	}
}

// RoleRepository stores roles under ROLE#<id>; the GSI1 index groups them by
// owning user.
type RoleRepository struct{ client *Client }

var _ ports.RoleStore = (*RoleRepository)(nil)

func NewRoleRepository(client *Client) *RoleRepository {
	return &RoleRepository{client: client}
}

func (r *RoleRepository) GetAll(ctx context.Context) ([]domain.Role, bool, error) {
	items, err := r.client.scanEntities(ctx, "ScanRoles", "ROLE")
	if err != nil {
		return nil, false, r.client.fail("role", "get_all", err)
	}
	return r.decodeAll("get_all", items)
}

func (r *RoleRepository) GetByID(ctx context.Context, id int64) (domain.Role, bool, error) {
	item, err := r.client.getItem(ctx, "GetRole", rolePK(id))
	if err != nil {
		return domain.Role{}, false, r.client.fail("role", "get_by_id", err)
	}
	if item == nil {
		r.client.observe("role", "get_by_id", nil)
		return domain.Role{}, false, nil
	}
	var rec roleRecord
	if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
		return domain.Role{}, false, r.client.fail("role", "get_by_id", err)
	}
	role, err := rec.toDomain()
	if err != nil {
		return domain.Role{}, false, r.client.fail("role", "get_by_id", err)
	}
	r.client.observe("role", "get_by_id", nil)
	return role, true, nil
}

func (r *RoleRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Role, bool, error) {
	items, err := r.client.queryUserIndex(ctx, "QueryUserRoles", userPK(userID))
	if err != nil {
		return nil, false, r.client.fail("role", "list_by_user", err)
	}
	return r.decodeAll("list_by_user", items)
}

func (r *RoleRepository) Add(ctx context.Context, item domain.NewRole) (int64, error) {
	id, err := r.client.nextID(ctx, "ROLE")
	if err != nil {
		return 0, r.client.fail("role", "add", err)
	}
	now := r.client.now().Format(timeLayout)
	av, err := attributevalue.MarshalMap(roleRecord{
		PK: rolePK(id), SK: metaSK,
		GSI1PK: userPK(item.UserID), GSI1SK: rolePK(id),
		EntityType: "ROLE",
		RoleID:     id, UserID: item.UserID,
		Name: item.Name, Description: item.Description, Permission: item.Permission.String(),
		CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		return 0, r.client.fail("role", "add", err)
	}
	err = r.client.capture(ctx, "PutRole", func(ctx context.Context) error {
		_, err := r.client.db.PutItem(ctx, &awsv2dynamodb.PutItemInput{
			TableName:           aws.String(r.client.tableName),
			Item:                av,
			ConditionExpression: aws.String("attribute_not_exists(PK)"),
		})
		return err
	})
	if err != nil {
		return 0, r.client.fail("role", "add", err)
	}
	r.client.observe("role", "add", nil)
	return id, nil
}

// Update applies the present fields. A role that does not exist fails the
// condition, which is reported as success.
func (r *RoleRepository) Update(ctx context.Context, id int64, form domain.UpdateRole) error {
	expr := newUpdateExpr()
	if form.Name != nil {
		expr.set("Name", stringAV(*form.Name))
	}
	if form.Description != nil {
		expr.set("Description", stringAV(*form.Description))
	}
	if form.Permission != nil {
		if !form.Permission.Valid() {
			return r.client.fail("role", "update", fmt.Errorf("%w: %q", domain.ErrUnknownPermission, *form.Permission))
		}
		expr.set("Permission", stringAV(form.Permission.String()))
	}
	if expr.empty() {
		return nil
	}
	err := r.client.capture(ctx, "UpdateRole", func(ctx context.Context) error {
		_, err := r.client.db.UpdateItem(ctx, &awsv2dynamodb.UpdateItemInput{
			TableName:                 aws.String(r.client.tableName),
			Key:                       itemKey(rolePK(id)),
			UpdateExpression:          aws.String(expr.expression(r.client.now())),
			ExpressionAttributeNames:  expr.names,
			ExpressionAttributeValues: expr.values,
			ConditionExpression:       aws.String("attribute_exists(PK)"),
		})
		if isConditionalCheckFailure(err) {
			return nil
		}
		return err
	})
	if err != nil {
		return r.client.fail("role", "update", err)
	}
	r.client.observe("role", "update", nil)
	return nil
}

func (r *RoleRepository) Delete(ctx context.Context, id int64) error {
	err := r.client.capture(ctx, "DeleteRole", func(ctx context.Context) error {
		_, err := r.client.db.DeleteItem(ctx, &awsv2dynamodb.DeleteItemInput{
			TableName: aws.String(r.client.tableName),
			Key:       itemKey(rolePK(id)),
		})
		return err
	})
	if err != nil {
		return r.client.fail("role", "delete", err)
	}
	r.client.observe("role", "delete", nil)
	return nil
}

func (r *RoleRepository) decodeAll(op string, items []map[string]awsv2types.AttributeValue) ([]domain.Role, bool, error) {
	roles := make([]domain.Role, 0, len(items))
	for _, item := range items {
		var rec roleRecord
		if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
			return nil, false, r.client.fail("role", op, err)
		}
		role, err := rec.toDomain()
		if err != nil {
			return nil, false, r.client.fail("role", op, fmt.Errorf("role %d: %w", rec.RoleID, err))
		}
		roles = append(roles, role)
	}
	r.client.observe("role", op, nil)
	if len(roles) == 0 {
		return nil, false, nil
	}
	sortByID(roles, func(role domain.Role) int64 { return role.RoleID })
	return roles, true, nil
}

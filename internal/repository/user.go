package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	apperrors "github.com/ahlanjobb/api/internal/errors"
	"github.com/ahlanjobb/api/internal/model"
	ctxutil "github.com/ahlanjobb/api/pkg/context"
	"github.com/ahlanjobb/api/pkg/logger"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const pgUniqueViolation = "23505"

// sortableColumns maps client orderBy values to columns.
var sortableColumns = map[string]string{
	"firstName": "first_name",
	"lastName":  "last_name",
	"email":     "email",
	"city":      "city",
	"createdAt": "created_at",
	"role":      "role",
}

// UserQuery is the list filter for staff user search.
type UserQuery struct {
	Role       model.Role
	ExcludeID  uint
	Search     string
	City       string
	Category   string
	StartDate  *time.Time
	EndDate    *time.Time
	CompanyID  *uint
	EmployeeID *uint
	OrderBy    string
	OrderDesc  bool
	Limit      int
	Offset     int
}

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

func (r *UserRepository) first(ctx context.Context, function string, query func(*gorm.DB) *gorm.DB) (*model.User, error) {
	ctx = ctxutil.WithFunction(ctx, "repository", function)

	if err := ctx.Err(); err != nil {
		logger.WarnWithContext(ctx, "Context cancelled before query").
			Err(err).
			Log()
		return nil, err
	}

	start := time.Now()
	var user model.User
	result := query(r.db.WithContext(ctx)).First(&user)
	duration := time.Since(start)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			logger.DebugWithContext(ctx, "User not found").
				Duration(duration).
				Log()
		} else {
			logger.ErrorWithContext(ctx, "Failed to get user").
				Duration(duration).
				Err(result.Error).
				Log()
		}
		return nil, result.Error
	}

	logger.DebugWithContext(ctx, "User retrieved successfully").
		Uint("user_id", user.ID).
		Duration(duration).
		Log()

	return &user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uint) (*model.User, error) {
	return r.first(ctx, "GetByID", func(db *gorm.DB) *gorm.DB {
		return db.Where("id = ?", id)
	})
}

// GetByIDWithRelations loads a user with company, employee and media preloaded.
func (r *UserRepository) GetByIDWithRelations(ctx context.Context, id uint) (*model.User, error) {
	return r.first(ctx, "GetByIDWithRelations", func(db *gorm.DB) *gorm.DB {
		return db.Preload("Company").Preload("Employee").Preload("ProfilePicture").Preload("Resume").
			Where("id = ?", id)
	})
}

// GetByIDAndRoles finds a user whose role is one of roles. A user with a
// different role is reported as not found.
func (r *UserRepository) GetByIDAndRoles(ctx context.Context, id uint, roles ...model.Role) (*model.User, error) {
	return r.first(ctx, "GetByIDAndRoles", func(db *gorm.DB) *gorm.DB {
		return db.Where("id = ? AND role IN ?", id, roles)
	})
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	email = model.NormalizeEmail(email)
	return r.first(ctx, "GetByEmail", func(db *gorm.DB) *gorm.DB {
		return db.Where("email = ?", email)
	})
}

func (r *UserRepository) GetByVerificationCode(ctx context.Context, code string) (*model.User, error) {
	return r.first(ctx, "GetByVerificationCode", func(db *gorm.DB) *gorm.DB {
		return db.Where("verification_code = ?", code)
	})
}

func (r *UserRepository) GetByPasswordResetCode(ctx context.Context, code string) (*model.User, error) {
	return r.first(ctx, "GetByPasswordResetCode", func(db *gorm.DB) *gorm.DB {
		return db.Where("password_reset_code = ?", code)
	})
}

// Create inserts a user. A duplicate email is reported as ErrEmailExists.
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	ctx = ctxutil.WithFunction(ctx, "repository", "Create")

	logger.DebugWithContext(ctx, "Creating new user").
		String("email", user.Email).
		String("role", string(user.Role)).
		Log()

	start := time.Now()
	result := r.db.WithContext(ctx).Create(user)
	duration := time.Since(start)

	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			logger.WarnWithContext(ctx, "User email already exists").
				String("email", user.Email).
				Duration(duration).
				Log()
			return apperrors.WrapError(apperrors.ErrEmailExists, result.Error)
		}
		logger.ErrorWithContext(ctx, "Failed to create user").
			String("email", user.Email).
			Duration(duration).
			Err(result.Error).
			Log()
		return result.Error
	}

	logger.InfoWithContext(ctx, "User created successfully").
		String("email", user.Email).
		Uint("user_id", user.ID).
		Duration(duration).
		Log()

	return nil
}

// updateColumns updates user id. When guard is set the row must also match
// it, so the update and the check it depends on happen in one statement.
func (r *UserRepository) updateColumns(ctx context.Context, function string, id uint, cols map[string]any, guard map[string]any) error {
	ctx = ctxutil.WithFunction(ctx, "repository", function)

	if err := ctx.Err(); err != nil {
		return err
	}

	start := time.Now()
	query := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id)
	if len(guard) > 0 {
		query = query.Where(guard)
	}
	result := query.Updates(cols)
	duration := time.Since(start)

	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to update user").
			Uint("user_id", id).
			Duration(duration).
			Err(result.Error).
			Log()
		return result.Error
	}

	if result.RowsAffected == 0 {
		logger.WarnWithContext(ctx, "No user updated").
			Uint("user_id", id).
			Duration(duration).
			Log()
		return gorm.ErrRecordNotFound
	}

	logger.DebugWithContext(ctx, "User updated successfully").
		Uint("user_id", id).
		Int("columns", len(cols)).
		Duration(duration).
		Log()

	return nil
}

// UpdatePassword stores a new hash and drops any pending reset code.
func (r *UserRepository) UpdatePassword(ctx context.Context, id uint, hashedPassword string) error {
	return r.updateColumns(ctx, "UpdatePassword", id, map[string]any{
		"password":            hashedPassword,
		"password_reset_code": gorm.Expr("NULL"),
	}, nil)
}

// ResetPassword stores a new hash only while code is still the pending
// reset code. A code that was already consumed yields gorm.ErrRecordNotFound.
func (r *UserRepository) ResetPassword(ctx context.Context, id uint, code, hashedPassword string) error {
	return r.updateColumns(ctx, "ResetPassword", id, map[string]any{
		"password":            hashedPassword,
		"password_reset_code": gorm.Expr("NULL"),
	}, map[string]any{"password_reset_code": code})
}

// SetVerified marks the user verified and drops the verification code.
func (r *UserRepository) SetVerified(ctx context.Context, id uint) error {
	return r.updateColumns(ctx, "SetVerified", id, map[string]any{
		"verified":          true,
		"verification_code": gorm.Expr("NULL"),
	}, nil)
}

// ConsumeVerificationCode verifies the user only while code is still the
// pending verification code. A consumed code yields gorm.ErrRecordNotFound.
func (r *UserRepository) ConsumeVerificationCode(ctx context.Context, id uint, code string) error {
	return r.updateColumns(ctx, "ConsumeVerificationCode", id, map[string]any{
		"verified":          true,
		"verification_code": gorm.Expr("NULL"),
	}, map[string]any{"verification_code": code})
}

func (r *UserRepository) SetVerificationCode(ctx context.Context, id uint, code string) error {
	return r.updateColumns(ctx, "SetVerificationCode", id, map[string]any{"verification_code": code}, nil)
}

func (r *UserRepository) SetPasswordResetCode(ctx context.Context, id uint, code string) error {
	return r.updateColumns(ctx, "SetPasswordResetCode", id, map[string]any{"password_reset_code": code}, nil)
}

// UpdateProfile applies profile columns. Credential and role columns are
// stripped so a stored hash is never overwritten here.
func (r *UserRepository) UpdateProfile(ctx context.Context, id uint, cols map[string]any) error {
	for _, protected := range []string{"password", "email", "role", "verified", "active", "verification_code", "password_reset_code"} {
		delete(cols, protected)
	}
	if len(cols) == 0 {
		return nil
	}
	return r.updateColumns(ctx, "UpdateProfile", id, cols, nil)
}

func (r *UserRepository) SetActive(ctx context.Context, id uint, active bool) error {
	return r.updateColumns(ctx, "SetActive", id, map[string]any{"active": active}, nil)
}

// Delete removes the row for good, freeing its email for a new account.
func (r *UserRepository) Delete(ctx context.Context, id uint) error {
	ctx = ctxutil.WithFunction(ctx, "repository", "Delete")

	start := time.Now()
	result := r.db.WithContext(ctx).Unscoped().Delete(&model.User{}, id)
	duration := time.Since(start)

	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to delete user").
			Uint("user_id", id).
			Duration(duration).
			Err(result.Error).
			Log()
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	logger.InfoWithContext(ctx, "User deleted successfully").
		Uint("user_id", id).
		Duration(duration).
		Log()

	return nil
}

// List returns one page of users matching q, the filtered count and the
// count of all users visible to the requester's scope.
func (r *UserRepository) List(ctx context.Context, q UserQuery) ([]model.User, int64, int64, error) {
	ctx = ctxutil.WithFunction(ctx, "repository", "List")

	logger.DebugWithContext(ctx, "Listing users").
		String("role", string(q.Role)).
		String("search", q.Search).
		Int("limit", q.Limit).
		Int("offset", q.Offset).
		Log()

	if err := ctx.Err(); err != nil {
		return nil, 0, 0, err
	}

	start := time.Now()

	scope := func(db *gorm.DB) *gorm.DB {
		db = db.Model(&model.User{}).Where("id <> ?", q.ExcludeID)
		if q.Role != "" {
			db = db.Where("role = ?", q.Role)
		}
		if q.CompanyID != nil {
			db = db.Where("company_id = ?", *q.CompanyID)
		}
		if q.EmployeeID != nil {
			db = db.Where("employee_id = ?", *q.EmployeeID)
		}
		return db
	}

	var total int64
	if err := r.db.WithContext(ctx).Scopes(scope).Count(&total).Error; err != nil {
		logger.ErrorWithContext(ctx, "Failed to count users").Err(err).Log()
		return nil, 0, 0, err
	}

	query := r.db.WithContext(ctx).Scopes(scope)
	if q.Search != "" {
		pattern := "%" + q.Search + "%"
		query = query.Where(
			"first_name ILIKE ? OR last_name ILIKE ? OR email ILIKE ? OR phone_number ILIKE ?",
			pattern, pattern, pattern, pattern,
		)
	}
	if q.City != "" {
		query = query.Where("city ILIKE ?", "%"+q.City+"%")
	}
	if q.Category != "" {
		query = query.Where("categories @> ?", `[{"id":"`+strings.ReplaceAll(q.Category, `"`, "")+`"}]`)
	}
	if q.StartDate != nil {
		query = query.Where("start_date >= ?", *q.StartDate)
	}
	if q.EndDate != nil {
		query = query.Where("end_date <= ?", *q.EndDate)
	}

	var filtered int64
	if err := query.Count(&filtered).Error; err != nil {
		logger.ErrorWithContext(ctx, "Failed to count filtered users").Err(err).Log()
		return nil, 0, 0, err
	}

	column, ok := sortableColumns[q.OrderBy]
	if !ok {
		column = "first_name"
	}
	order := column + " ASC"
	if q.OrderDesc {
		order = column + " DESC"
	}

	var users []model.User
	if err := query.Preload("ProfilePicture").Order(order).Limit(q.Limit).Offset(q.Offset).Find(&users).Error; err != nil {
		logger.ErrorWithContext(ctx, "Failed to fetch users").
			Duration(time.Since(start)).
			Err(err).
			Log()
		return nil, 0, 0, err
	}

	logger.InfoWithContext(ctx, "Users listed successfully").
		Int64("total", total).
		Int64("filtered_total", filtered).
		Int("returned_count", len(users)).
		Duration(time.Since(start)).
		Log()

	return users, filtered, total, nil
}

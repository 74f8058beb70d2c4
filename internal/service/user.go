package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Masterminds/goutils"
	"github.com/ahlanjobb/api/internal/constants"
	"github.com/ahlanjobb/api/internal/dto"
	apperrors "github.com/ahlanjobb/api/internal/errors"
	"github.com/ahlanjobb/api/internal/model"
	"github.com/ahlanjobb/api/internal/repository"
	ctxutil "github.com/ahlanjobb/api/pkg/context"
	"github.com/ahlanjobb/api/pkg/logger"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type UserService struct {
	users    UserStore
	tokens   *TokenService
	hasher   *PasswordHasher
	notifier *NotificationService
}

func NewUserService(users UserStore, tokens *TokenService, hasher *PasswordHasher, notifier *NotificationService) *UserService {
	return &UserService{
		users:    users,
		tokens:   tokens,
		hasher:   hasher,
		notifier: notifier,
	}
}

// generatePassword returns an alphanumeric password containing at least one digit.
func generatePassword(n int) (string, error) {
	for {
		p, err := goutils.CryptoRandomAlphaNumeric(n)
		if err != nil {
			return "", err
		}
		if strings.ContainsAny(p, "0123456789") {
			return p, nil
		}
	}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.ErrUserNotFound
	}
	return apperrors.WrapError(apperrors.ErrInternal, err)
}

// canManage reports whether requester may modify target. Admins manage
// everyone, company managers the users of their company and employees the
// users they created.
func canManage(requester, target *model.User) bool {
	switch requester.Role {
	case model.RoleAdmin:
		return true
	case model.RoleCompanyManager:
		return target.CompanyID != nil && *target.CompanyID == requester.ID
	case model.RoleEmployee:
		return target.EmployeeID != nil && *target.EmployeeID == requester.ID
	}
	return false
}

// loadManaged fetches id and checks requester's authority over it.
func (s *UserService) loadManaged(ctx context.Context, requester *model.User, id uint) (*model.User, error) {
	target, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	if !canManage(requester, target) {
		logger.WarnWithContext(ctx, "User outside requester scope").
			Uint("target_id", id).
			String("requester_role", string(requester.Role)).
			Log()
		return nil, apperrors.ErrForbidden
	}
	return target, nil
}

// Create registers an account on behalf of someone else with a generated
// password. Ownership follows the creator: a company manager's users belong
// to their company, an employee's users to the employee and its company.
func (s *UserService) Create(ctx context.Context, owner *model.User, req dto.CreateUserRequest) (*dto.UserResponse, error) {
	ctx = ctxutil.WithFunction(ctx, "service", "Create")

	role := req.Role
	if role == "" {
		role = model.RoleUser
	}
	if role == model.RoleAdmin && owner.Role != model.RoleAdmin {
		return nil, apperrors.WithMessage(apperrors.ErrForbidden, "only administrators can create administrators")
	}

	logger.InfoWithContext(ctx, "Creating user").
		String("email", req.Email).
		String("role", string(role)).
		Uint("owner_id", owner.ID).
		Log()

	password, err := generatePassword(constants.GeneratedPassLen)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	email := model.NormalizeEmail(req.Email)
	code, err := s.tokens.IssueVerificationCode(email)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	user := &model.User{
		Email:            email,
		Password:         hash,
		Role:             role,
		Active:           true,
		VerificationCode: &code,
		FirstName:        req.FirstName,
		LastName:         req.LastName,
		PhoneNumber:      req.PhoneNumber,
		CompanyName:      req.CompanyName,
		City:             req.City,
		Country:          req.Country,
		Categories:       datatypes.JSONSlice[model.Category](req.Categories),
	}
	switch owner.Role {
	case model.RoleCompanyManager:
		companyID := owner.ID
		user.CompanyID = &companyID
	case model.RoleEmployee:
		employeeID := owner.ID
		user.EmployeeID = &employeeID
		user.CompanyID = owner.CompanyID
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, apperrors.ErrEmailExists) {
			return nil, apperrors.ErrEmailExists
		}
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	if role != model.RoleUser {
		_ = s.notifier.SendAccountCreated(ctx, user, password, code)
	} else {
		_ = s.notifier.SendVerification(ctx, user, code)
	}

	logger.InfoWithContext(ctx, "User created").
		Uint("user_id", user.ID).
		Uint("owner_id", owner.ID).
		Log()

	resp := dto.ToUserResponse(user)
	return &resp, nil
}

func (s *UserService) Get(ctx context.Context, id uint) (*dto.UserResponse, error) {
	ctx = ctxutil.WithFunction(ctx, "service", "Get")

	user, err := s.users.GetByIDWithRelations(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	resp := dto.ToUserResponse(user)
	return &resp, nil
}

// UpdateSelf applies a profile update to the signed in user.
func (s *UserService) UpdateSelf(ctx context.Context, userID uint, req dto.UpdateUserRequest) (*dto.UserResponse, error) {
	ctx = ctxutil.WithFunction(ctx, "service", "UpdateSelf")
	return s.update(ctx, userID, req)
}

// UpdateUser applies a profile update to a user managed by requester.
func (s *UserService) UpdateUser(ctx context.Context, requester *model.User, id uint, req dto.UpdateUserRequest) (*dto.UserResponse, error) {
	ctx = ctxutil.WithFunction(ctx, "service", "UpdateUser")

	if _, err := s.loadManaged(ctx, requester, id); err != nil {
		return nil, err
	}
	return s.update(ctx, id, req)
}

func (s *UserService) update(ctx context.Context, id uint, req dto.UpdateUserRequest) (*dto.UserResponse, error) {
	cols := req.Columns()

	logger.InfoWithContext(ctx, "Updating user").
		Uint("user_id", id).
		Int("columns", len(cols)).
		Log()

	if err := s.users.UpdateProfile(ctx, id, cols); err != nil {
		return nil, notFound(err)
	}
	user, err := s.users.GetByIDWithRelations(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	resp := dto.ToUserResponse(user)
	return &resp, nil
}

func (s *UserService) Delete(ctx context.Context, requester *model.User, id uint) error {
	ctx = ctxutil.WithFunction(ctx, "service", "Delete")

	if requester.ID == id {
		return apperrors.WithMessage(apperrors.ErrForbidden, "you cannot delete your own account")
	}
	if _, err := s.loadManaged(ctx, requester, id); err != nil {
		return err
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return notFound(err)
	}

	logger.InfoWithContext(ctx, "User deleted").
		Uint("user_id", id).
		Uint("requester_id", requester.ID).
		Log()
	return nil
}

// ToggleDisable flips the active flag of a managed user.
func (s *UserService) ToggleDisable(ctx context.Context, requester *model.User, id uint) (*dto.UserResponse, error) {
	ctx = ctxutil.WithFunction(ctx, "service", "ToggleDisable")

	if requester.ID == id {
		return nil, apperrors.WithMessage(apperrors.ErrForbidden, "you cannot disable your own account")
	}
	target, err := s.loadManaged(ctx, requester, id)
	if err != nil {
		return nil, err
	}

	active := !target.Active
	if err := s.users.SetActive(ctx, id, active); err != nil {
		return nil, notFound(err)
	}
	target.Active = active

	logger.InfoWithContext(ctx, "User active flag toggled").
		Uint("user_id", id).
		Bool("active", active).
		Log()

	resp := dto.ToUserResponse(target)
	return &resp, nil
}

func parseDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(constants.TimeFormatDateOnly, value)
	if err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "dates must use the YYYY-MM-DD format")
	}
	return &t, nil
}

// List searches the users visible to requester. The requester is never part
// of the result; company managers see their company and employees the users
// they own.
func (s *UserService) List(ctx context.Context, requester *model.User, f dto.UserFilter) (*dto.UserListResponse, error) {
	ctx = ctxutil.WithFunction(ctx, "service", "List")

	if f.Role == model.RoleAdmin && requester.Role.In(model.RoleCompanyManager, model.RoleEmployee) {
		return nil, apperrors.WithMessage(apperrors.ErrForbidden, "you cannot list administrators")
	}

	paging := constants.NewPagination(f.Page, f.Limit)

	startDate, err := parseDate(f.StartDate)
	if err != nil {
		return nil, err
	}
	endDate, err := parseDate(f.EndDate)
	if err != nil {
		return nil, err
	}

	q := repository.UserQuery{
		Role:      f.Role,
		ExcludeID: requester.ID,
		Search:    strings.TrimSpace(f.Search),
		City:      strings.TrimSpace(f.City),
		Category:  f.Category,
		StartDate: startDate,
		EndDate:   endDate,
		OrderBy:   f.OrderBy,
		OrderDesc: f.OrderDirection == "desc",
		Limit:     paging.Limit,
		Offset:    paging.Offset,
	}
	switch requester.Role {
	case model.RoleCompanyManager:
		companyID := requester.ID
		q.CompanyID = &companyID
	case model.RoleEmployee:
		employeeID := requester.ID
		q.EmployeeID = &employeeID
	}

	users, filtered, total, err := s.users.List(ctx, q)
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to list users").Err(err).Log()
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	logger.InfoWithContext(ctx, "Users listed").
		Int("page", paging.Page).
		Int("limit", paging.Limit).
		Int64("filtered_total", filtered).
		Int64("total", total).
		Log()

	return &dto.UserListResponse{
		Users:         dto.ToUserResponses(users),
		Page:          paging.Page,
		FilteredTotal: filtered,
		Total:         total,
	}, nil
}

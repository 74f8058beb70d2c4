package service

import (
	"context"

	"github.com/ahlanjobb/api/internal/model"
	"github.com/ahlanjobb/api/internal/repository"
)

// UserStore is the credential store the services depend on.
// *repository.UserRepository implements it.
type UserStore interface {
	GetByID(ctx context.Context, id uint) (*model.User, error)
	GetByIDWithRelations(ctx context.Context, id uint) (*model.User, error)
	GetByIDAndRoles(ctx context.Context, id uint, roles ...model.Role) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByVerificationCode(ctx context.Context, code string) (*model.User, error)
	GetByPasswordResetCode(ctx context.Context, code string) (*model.User, error)
	Create(ctx context.Context, user *model.User) error
	UpdatePassword(ctx context.Context, id uint, hashedPassword string) error
	ResetPassword(ctx context.Context, id uint, code, hashedPassword string) error
	SetVerified(ctx context.Context, id uint) error
	ConsumeVerificationCode(ctx context.Context, id uint, code string) error
	SetVerificationCode(ctx context.Context, id uint, code string) error
	SetPasswordResetCode(ctx context.Context, id uint, code string) error
	UpdateProfile(ctx context.Context, id uint, cols map[string]any) error
	SetActive(ctx context.Context, id uint, active bool) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, q repository.UserQuery) ([]model.User, int64, int64, error)
}

// MediaStore is implemented by *repository.MediaRepository.
type MediaStore interface {
	GetByID(ctx context.Context, id uint) (*model.Media, error)
	Create(ctx context.Context, media *model.Media) error
	Update(ctx context.Context, id uint, cols map[string]any) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, limit, offset int) ([]model.Media, int64, error)
}

var (
	_ UserStore  = (*repository.UserRepository)(nil)
	_ MediaStore = (*repository.MediaRepository)(nil)
)

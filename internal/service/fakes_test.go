package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ahlanjobb/api/config"
	apperrors "github.com/ahlanjobb/api/internal/errors"
	"github.com/ahlanjobb/api/internal/model"
	"github.com/ahlanjobb/api/internal/repository"
	"github.com/ahlanjobb/api/pkg/queue"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type fakeUserStore struct {
	mu     sync.Mutex
	nextID uint
	users  map[uint]*model.User

	// afterCodeLookup runs once a code lookup has returned, to let a test
	// interleave a competing request before the code is consumed.
	afterCodeLookup func()
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[uint]*model.User{}}
}

func (s *fakeUserStore) find(match func(*model.User) bool) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *fakeUserStore) GetByID(ctx context.Context, id uint) (*model.User, error) {
	return s.find(func(u *model.User) bool { return u.ID == id })
}

func (s *fakeUserStore) GetByIDWithRelations(ctx context.Context, id uint) (*model.User, error) {
	return s.GetByID(ctx, id)
}

func (s *fakeUserStore) GetByIDAndRoles(ctx context.Context, id uint, roles ...model.Role) (*model.User, error) {
	return s.find(func(u *model.User) bool { return u.ID == id && u.Role.In(roles...) })
}

func (s *fakeUserStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	email = model.NormalizeEmail(email)
	return s.find(func(u *model.User) bool { return u.Email == email })
}

func (s *fakeUserStore) GetByVerificationCode(ctx context.Context, code string) (*model.User, error) {
	defer s.codeLookedUp()
	return s.find(func(u *model.User) bool { return u.VerificationCode != nil && *u.VerificationCode == code })
}

func (s *fakeUserStore) GetByPasswordResetCode(ctx context.Context, code string) (*model.User, error) {
	defer s.codeLookedUp()
	return s.find(func(u *model.User) bool { return u.PasswordResetCode != nil && *u.PasswordResetCode == code })
}

func (s *fakeUserStore) codeLookedUp() {
	if hook := s.afterCodeLookup; hook != nil {
		s.afterCodeLookup = nil
		hook()
	}
}

func (s *fakeUserStore) Create(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user.Email = model.NormalizeEmail(user.Email)
	for _, u := range s.users {
		if u.Email == user.Email {
			return apperrors.WrapError(apperrors.ErrEmailExists, gorm.ErrDuplicatedKey)
		}
	}
	s.nextID++
	user.ID = s.nextID
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *fakeUserStore) mutate(id uint, fn func(*model.User)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	fn(u)
	return nil
}

func (s *fakeUserStore) UpdatePassword(ctx context.Context, id uint, hashedPassword string) error {
	return s.mutate(id, func(u *model.User) {
		u.Password = hashedPassword
		u.PasswordResetCode = nil
	})
}

// mutateIf applies fn only when the row still satisfies cond, the way a
// guarded UPDATE does.
func (s *fakeUserStore) mutateIf(id uint, cond func(*model.User) bool, fn func(*model.User)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok || !cond(u) {
		return gorm.ErrRecordNotFound
	}
	fn(u)
	return nil
}

func (s *fakeUserStore) ResetPassword(ctx context.Context, id uint, code, hashedPassword string) error {
	return s.mutateIf(id,
		func(u *model.User) bool { return u.PasswordResetCode != nil && *u.PasswordResetCode == code },
		func(u *model.User) {
			u.Password = hashedPassword
			u.PasswordResetCode = nil
		})
}

func (s *fakeUserStore) ConsumeVerificationCode(ctx context.Context, id uint, code string) error {
	return s.mutateIf(id,
		func(u *model.User) bool { return u.VerificationCode != nil && *u.VerificationCode == code },
		func(u *model.User) {
			u.Verified = true
			u.VerificationCode = nil
		})
}

func (s *fakeUserStore) SetVerified(ctx context.Context, id uint) error {
	return s.mutate(id, func(u *model.User) {
		u.Verified = true
		u.VerificationCode = nil
	})
}

func (s *fakeUserStore) SetVerificationCode(ctx context.Context, id uint, code string) error {
	return s.mutate(id, func(u *model.User) { u.VerificationCode = &code })
}

func (s *fakeUserStore) SetPasswordResetCode(ctx context.Context, id uint, code string) error {
	return s.mutate(id, func(u *model.User) { u.PasswordResetCode = &code })
}

func (s *fakeUserStore) UpdateProfile(ctx context.Context, id uint, cols map[string]any) error {
	return s.mutate(id, func(u *model.User) {
		if v, ok := cols["first_name"].(string); ok {
			u.FirstName = v
		}
		if v, ok := cols["last_name"].(string); ok {
			u.LastName = v
		}
		if v, ok := cols["city"].(string); ok {
			u.City = v
		}
	})
}

func (s *fakeUserStore) SetActive(ctx context.Context, id uint, active bool) error {
	return s.mutate(id, func(u *model.User) { u.Active = active })
}

func (s *fakeUserStore) Delete(ctx context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(s.users, id)
	return nil
}

func (s *fakeUserStore) List(ctx context.Context, q repository.UserQuery) ([]model.User, int64, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.User
	var total int64
	for id := uint(1); id <= s.nextID; id++ {
		u, ok := s.users[id]
		if !ok || u.ID == q.ExcludeID {
			continue
		}
		if q.Role != "" && u.Role != q.Role {
			continue
		}
		if q.CompanyID != nil && (u.CompanyID == nil || *u.CompanyID != *q.CompanyID) {
			continue
		}
		if q.EmployeeID != nil && (u.EmployeeID == nil || *u.EmployeeID != *q.EmployeeID) {
			continue
		}
		total++
		out = append(out, *u)
	}
	return out, int64(len(out)), total, nil
}

// put stores u as is, bypassing Create.
func (s *fakeUserStore) put(u model.User) *model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	u.ID = s.nextID
	s.users[u.ID] = &u
	cp := u
	return &cp
}

type recordingDispatcher struct {
	mu   sync.Mutex
	jobs []queue.EmailJob
}

func (d *recordingDispatcher) Enqueue(ctx context.Context, job queue.EmailJob) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.jobs = append(d.jobs, job)
	return nil
}

func (d *recordingDispatcher) sent() []queue.EmailJob {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]queue.EmailJob(nil), d.jobs...)
}

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		Secret:               "test-secret",
		AccessTokenTTL:       time.Hour,
		RefreshTokenTTL:      8760 * time.Hour,
		VerificationCodeTTL:  24 * time.Hour,
		PasswordResetCodeTTL: time.Hour,
		SaltWorkFactor:       bcrypt.MinCost,
	}
}

type testEnv struct {
	users      *fakeUserStore
	dispatcher *recordingDispatcher
	tokens     *TokenService
	hasher     *PasswordHasher
	auth       *AuthService
	userSvc    *UserService
	authn      *Authenticator
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	users := newFakeUserStore()
	dispatcher := &recordingDispatcher{}
	tokens := NewTokenService(testAuthConfig())
	hasher := NewPasswordHasher(bcrypt.MinCost)
	notifier := NewNotificationService(dispatcher, "http://client.test", "Ahlanjobs")
	authn := NewAuthenticator(tokens, users)

	auth, err := NewAuthService(users, tokens, hasher, notifier, authn)
	if err != nil {
		t.Fatalf("NewAuthService: %v", err)
	}
	return &testEnv{
		users:      users,
		dispatcher: dispatcher,
		tokens:     tokens,
		hasher:     hasher,
		auth:       auth,
		userSvc:    NewUserService(users, tokens, hasher, notifier),
		authn:      authn,
	}
}

// addUser stores an account with the given password hashed.
func (e *testEnv) addUser(t *testing.T, email, password string, role model.Role, verified, active bool) *model.User {
	t.Helper()
	hash, err := e.hasher.Hash(password)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	return e.users.put(model.User{
		Email:    email,
		Password: hash,
		Role:     role,
		Verified: verified,
		Active:   active,
	})
}

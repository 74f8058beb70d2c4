package router

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ahlanjobb/api/config"
	apperrors "github.com/ahlanjobb/api/internal/errors"
	"github.com/ahlanjobb/api/internal/handler"
	"github.com/ahlanjobb/api/internal/middleware"
	"github.com/ahlanjobb/api/internal/model"
	"github.com/ahlanjobb/api/internal/repository"
	"github.com/ahlanjobb/api/internal/service"
	"github.com/ahlanjobb/api/pkg/mailer"
	"github.com/ahlanjobb/api/pkg/queue"
	"github.com/ahlanjobb/api/pkg/storage"
	"github.com/ahlanjobb/api/pkg/validation"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
	if err := validation.RegisterWithGin(); err != nil {
		panic(err)
	}
}

// memoryUsers is an in-memory service.UserStore.
type memoryUsers struct {
	mu     sync.Mutex
	nextID uint
	users  map[uint]*model.User
}

func (s *memoryUsers) find(match func(*model.User) bool) (*model.User, error) {
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

func (s *memoryUsers) GetByID(ctx context.Context, id uint) (*model.User, error) {
	return s.find(func(u *model.User) bool { return u.ID == id })
}

func (s *memoryUsers) GetByIDWithRelations(ctx context.Context, id uint) (*model.User, error) {
	return s.GetByID(ctx, id)
}

func (s *memoryUsers) GetByIDAndRoles(ctx context.Context, id uint, roles ...model.Role) (*model.User, error) {
	return s.find(func(u *model.User) bool { return u.ID == id && u.Role.In(roles...) })
}

func (s *memoryUsers) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	email = model.NormalizeEmail(email)
	return s.find(func(u *model.User) bool { return u.Email == email })
}

func (s *memoryUsers) GetByVerificationCode(ctx context.Context, code string) (*model.User, error) {
	return s.find(func(u *model.User) bool { return u.VerificationCode != nil && *u.VerificationCode == code })
}

func (s *memoryUsers) GetByPasswordResetCode(ctx context.Context, code string) (*model.User, error) {
	return s.find(func(u *model.User) bool { return u.PasswordResetCode != nil && *u.PasswordResetCode == code })
}

func (s *memoryUsers) Create(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == user.Email {
			return apperrors.ErrEmailExists
		}
	}
	s.nextID++
	user.ID = s.nextID
	user.CreatedAt = time.Now()
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

// mutate applies fn under the lock; fn returning false means the row did
// not match and nothing was updated.
func (s *memoryUsers) mutate(id uint, fn func(*model.User) bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok || !fn(u) {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (s *memoryUsers) UpdatePassword(ctx context.Context, id uint, hashedPassword string) error {
	return s.mutate(id, func(u *model.User) bool {
		u.Password = hashedPassword
		u.PasswordResetCode = nil
		return true
	})
}

func (s *memoryUsers) ResetPassword(ctx context.Context, id uint, code, hashedPassword string) error {
	return s.mutate(id, func(u *model.User) bool {
		if u.PasswordResetCode == nil || *u.PasswordResetCode != code {
			return false
		}
		u.Password = hashedPassword
		u.PasswordResetCode = nil
		return true
	})
}

func (s *memoryUsers) ConsumeVerificationCode(ctx context.Context, id uint, code string) error {
	return s.mutate(id, func(u *model.User) bool {
		if u.VerificationCode == nil || *u.VerificationCode != code {
			return false
		}
		u.Verified = true
		u.VerificationCode = nil
		return true
	})
}

func (s *memoryUsers) SetVerified(ctx context.Context, id uint) error {
	return s.mutate(id, func(u *model.User) bool {
		u.Verified = true
		u.VerificationCode = nil
		return true
	})
}

func (s *memoryUsers) SetVerificationCode(ctx context.Context, id uint, code string) error {
	return s.mutate(id, func(u *model.User) bool { u.VerificationCode = &code; return true })
}

func (s *memoryUsers) SetPasswordResetCode(ctx context.Context, id uint, code string) error {
	return s.mutate(id, func(u *model.User) bool { u.PasswordResetCode = &code; return true })
}

func (s *memoryUsers) UpdateProfile(ctx context.Context, id uint, cols map[string]any) error {
	return s.mutate(id, func(u *model.User) bool {
		if v, ok := cols["city"].(string); ok {
			u.City = v
		}
		return true
	})
}

func (s *memoryUsers) SetActive(ctx context.Context, id uint, active bool) error {
	return s.mutate(id, func(u *model.User) bool { u.Active = active; return true })
}

func (s *memoryUsers) Delete(ctx context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, id)
	return nil
}

func (s *memoryUsers) List(ctx context.Context, q repository.UserQuery) ([]model.User, int64, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.User
	for id := uint(1); id <= s.nextID; id++ {
		u, ok := s.users[id]
		if !ok || u.ID == q.ExcludeID || (q.Role != "" && u.Role != q.Role) {
			continue
		}
		out = append(out, *u)
	}
	return out, int64(len(out)), int64(len(out)), nil
}

type noMedia struct{}

func (noMedia) GetByID(ctx context.Context, id uint) (*model.Media, error) {
	return nil, gorm.ErrRecordNotFound
}
func (noMedia) Create(ctx context.Context, media *model.Media) error { return nil }
func (noMedia) Update(ctx context.Context, id uint, cols map[string]any) error {
	return gorm.ErrRecordNotFound
}
func (noMedia) Delete(ctx context.Context, id uint) error { return gorm.ErrRecordNotFound }
func (noMedia) List(ctx context.Context, limit, offset int) ([]model.Media, int64, error) {
	return nil, 0, nil
}

type outbox struct {
	mu       sync.Mutex
	messages []mailer.Message
}

func (o *outbox) Send(ctx context.Context, msg mailer.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.messages = append(o.messages, msg)
	return nil
}

func (o *outbox) last() mailer.Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.messages) == 0 {
		return mailer.Message{}
	}
	return o.messages[len(o.messages)-1]
}

func (o *outbox) count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.messages)
}

type testApp struct {
	engine     *gin.Engine
	users      *memoryUsers
	hasher     *service.PasswordHasher
	outbox     *outbox
	dispatcher *queue.InlineDispatcher
}

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		Secret:               "router-test-secret",
		AccessTokenTTL:       time.Hour,
		RefreshTokenTTL:      24 * time.Hour,
		VerificationCodeTTL:  24 * time.Hour,
		PasswordResetCodeTTL: time.Hour,
		SaltWorkFactor:       bcrypt.MinCost,
		OAuthAssertionSecret: "router-proxy-secret",
	}
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	cfg := &config.Config{
		App:       config.AppConfig{Name: "Ahlanjobs", ClientURL: "http://client.test"},
		Auth:      testAuthConfig(),
		RateLimit: config.RateLimitConfig{Request: 1000, Duration: 60},
		CORS:      config.CORSConfig{AllowedOrigins: []string{"*"}},
	}

	renderer, err := mailer.NewRenderer()
	require.NoError(t, err)
	box := &outbox{}
	dispatcher := queue.NewInlineDispatcher(mailer.JobHandler(renderer, box, cfg.App.Name), nil)

	users := &memoryUsers{users: map[uint]*model.User{}}
	tokens := service.NewTokenService(cfg.Auth)
	hasher := service.NewPasswordHasher(cfg.Auth.SaltWorkFactor)
	notifier := service.NewNotificationService(dispatcher, cfg.App.ClientURL, cfg.App.Name)
	authenticator := service.NewAuthenticator(tokens, users)
	authService, err := service.NewAuthService(users, tokens, hasher, notifier, authenticator)
	require.NoError(t, err)
	authService.WithAssertionVerifier(service.NewAssertionVerifier(cfg.Auth.OAuthAssertionSecret))

	engine := NewRouter(
		handler.NewAuthHandler(authService),
		handler.NewUserHandler(service.NewUserService(users, tokens, hasher, notifier)),
		handler.NewMediaHandler(service.NewMediaService(noMedia{}, storage.NewMemoryStorage("https://cdn.test"))),
		handler.NewHealthHandler(nil, nil, nil, nil),
		middleware.NewAuthMiddleware(authenticator),
		middleware.NewValidationMiddleware(),
		cfg,
	).SetupRoutes()

	return &testApp{engine: engine, users: users, hasher: hasher, outbox: box, dispatcher: dispatcher}
}

func (a *testApp) do(t *testing.T, method, path, token, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)

	var decoded map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &decoded)
	return w, decoded
}

var linkPattern = regexp.MustCompile(`href="[^"]*/(verify-account|reset-password)/([^"]+)"`)

// mailedCode waits for queued mail and returns the code linked from the last message.
func (a *testApp) mailedCode(t *testing.T) string {
	t.Helper()
	a.dispatcher.Wait()
	m := linkPattern.FindStringSubmatch(a.outbox.last().HTMLBody)
	require.Len(t, m, 3, "no link in last email")
	return m[2]
}

func (a *testApp) addUser(t *testing.T, email, password string, role model.Role) {
	t.Helper()
	hash, err := a.hasher.Hash(password)
	require.NoError(t, err)
	require.NoError(t, a.users.Create(context.Background(), &model.User{
		Email: email, Password: hash, Role: role, Verified: true, Active: true,
	}))
}

func (a *testApp) user(t *testing.T, email string) *model.User {
	t.Helper()
	u, err := a.users.GetByEmail(context.Background(), email)
	require.NoError(t, err)
	return u
}

func expiredAccessToken(t *testing.T, userID uint) string {
	t.Helper()
	tokens := service.NewTokenService(testAuthConfig()).WithClock(func() time.Time {
		return time.Now().Add(-2 * time.Hour)
	})
	token, err := tokens.IssueAccessToken(userID)
	require.NoError(t, err)
	return token
}

// proxyAssertion signs what the OAuth proxy sends once the provider has
// confirmed email.
func proxyAssertion(t *testing.T, secret, email string) string {
	t.Helper()
	now := time.Now()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, service.AssertionClaims{
		Email:    email,
		Provider: "google",
		RegisteredClaims: jwt.RegisteredClaims{
			Audience:  jwt.ClaimStrings{service.AssertionAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
		},
	}).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestRouter_RegistrationScenario(t *testing.T) {
	app := newTestApp(t)

	w, body := app.do(t, http.MethodPost, "/api/auth/register", "", `{"email":"alice@example.com","password":"secret123","passwordConfirmation":"secret123"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotContains(t, body, "password")
	code := app.mailedCode(t)

	w, body = app.do(t, http.MethodPost, "/api/auth/login", "", `{"email":"alice@example.com","password":"secret123"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "LOGIN_NOT_VERIFIED", body["code"])

	w, body = app.do(t, http.MethodPost, "/api/auth/verifyUser?verificationCode="+code, "", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotEmpty(t, body["accessToken"])
	assert.NotContains(t, w.Body.String(), `"password"`)

	w, _ = app.do(t, http.MethodPost, "/api/auth/verifyUser?verificationCode="+code, "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, body = app.do(t, http.MethodPost, "/api/auth/login", "", `{"email":"alice@example.com","password":"secret123"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	access := body["accessToken"].(string)
	refresh := body["refreshToken"].(string)

	w, body = app.do(t, http.MethodGet, "/api/auth/me", access, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice@example.com", body["email"])
	assert.NotContains(t, w.Body.String(), "secret123")

	w, body = app.do(t, http.MethodPost, "/api/auth/token", "", `{"refreshToken":"`+refresh+`"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, body["token"])

	// A client still sending its stale access token can refresh.
	w, _ = app.do(t, http.MethodPost, "/api/auth/token", expiredAccessToken(t, app.user(t, "alice@example.com").ID), `{"refreshToken":"`+refresh+`"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	// An access token is not a refresh token.
	w, _ = app.do(t, http.MethodPost, "/api/auth/token", "", `{"refreshToken":"`+access+`"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRouter_GateAndGuards(t *testing.T) {
	app := newTestApp(t)

	w, _ := app.do(t, http.MethodGet, "/api/auth/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, body := app.do(t, http.MethodGet, "/api/auth/me", "garbage", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "INVALID_TOKEN", body["code"])

	// Public auth endpoints ignore the Authorization header.
	w, _ = app.do(t, http.MethodPost, "/api/auth/forgotPassword", "garbage", `{"email":"x@example.com"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	// Everything else rejects a bad token even when the route itself is open to staff.
	w, _ = app.do(t, http.MethodGet, "/api/user/list/users", "garbage", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	app.addUser(t, "user@example.com", "secret123", model.RoleUser)
	_, body = app.do(t, http.MethodPost, "/api/auth/login", "", `{"email":"user@example.com","password":"secret123"}`)
	userToken := body["accessToken"].(string)

	w, _ = app.do(t, http.MethodGet, "/api/user/list/users", userToken, "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = app.do(t, http.MethodGet, "/api/media", userToken, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_StaffManagement(t *testing.T) {
	app := newTestApp(t)
	app.addUser(t, "admin@example.com", "adminpass", model.RoleAdmin)
	app.addUser(t, "bob@example.com", "secret123", model.RoleUser)

	_, body := app.do(t, http.MethodPost, "/api/auth/login", "", `{"email":"admin@example.com","password":"adminpass"}`)
	adminToken := body["accessToken"].(string)
	_, body = app.do(t, http.MethodPost, "/api/auth/login", "", `{"email":"bob@example.com","password":"secret123"}`)
	bobToken := body["accessToken"].(string)

	w, body := app.do(t, http.MethodGet, "/api/user/list/users", adminToken, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Len(t, body["users"], 1)

	sentBefore := app.outbox.count()
	w, body = app.do(t, http.MethodPost, "/api/user", adminToken, `{"email":"manager@example.com","role":"COMPANY_MANAGER","companyName":"Acme"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotContains(t, w.Body.String(), "Password")
	app.dispatcher.Wait()
	require.Equal(t, sentBefore+1, app.outbox.count())
	assert.Contains(t, app.outbox.last().HTMLBody, "Password: ")

	w, body = app.do(t, http.MethodPatch, "/api/user/toggleDisable/2", adminToken, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Bob's token now belongs to a disabled account.
	w, body = app.do(t, http.MethodGet, "/api/auth/me", bobToken, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "ACCOUNT_INACTIVE", body["code"])

	w, _ = app.do(t, http.MethodDelete, "/api/user/1", adminToken, "")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRouter_PasswordReset(t *testing.T) {
	app := newTestApp(t)
	app.addUser(t, "carol@example.com", "oldpass1", model.RoleUser)

	w, known := app.do(t, http.MethodPost, "/api/auth/forgotPassword", "", `{"email":"carol@example.com"}`)
	require.Equal(t, http.StatusOK, w.Code)
	code := app.mailedCode(t)

	w, unknown := app.do(t, http.MethodPost, "/api/auth/forgotPassword", "", `{"email":"nobody@example.com"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, known, unknown)

	w, _ = app.do(t, http.MethodPost, "/api/auth/resetPassword?passwordResetCode="+code, "", `{"password":"newpass1","passwordConfirmation":"newpass1"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, _ = app.do(t, http.MethodPost, "/api/auth/resetPassword?passwordResetCode="+code, "", `{"password":"other12","passwordConfirmation":"other12"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = app.do(t, http.MethodPost, "/api/auth/login", "", `{"email":"carol@example.com","password":"newpass1"}`)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_OpsEndpoints(t *testing.T) {
	app := newTestApp(t)

	w, _ := app.do(t, http.MethodGet, "/api/health/live", "", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = app.do(t, http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")

	w, body := app.do(t, http.MethodPost, "/api/auth/register", "", `{"email":"not-an-email","password":"x"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_INPUT", body["code"])
}

func TestRouter_OAuthCallbackRequiresSignedAssertion(t *testing.T) {
	app := newTestApp(t)
	app.addUser(t, "boss@example.com", "adminpass", model.RoleAdmin)

	// A bare email proves nothing.
	w, body := app.do(t, http.MethodGet, "/api/auth/oauth/callback?provider=google&email=boss@example.com", "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Nil(t, body["accessToken"])

	w, body = app.do(t, http.MethodGet, "/api/auth/oauth/callback?assertion=boss@example.com", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Nil(t, body["accessToken"])

	forged := proxyAssertion(t, "guessed-secret", "boss@example.com")
	w, _ = app.do(t, http.MethodGet, "/api/auth/oauth/callback?assertion="+forged, "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// A token signed with the API secret is not a proxy assertion either.
	own := proxyAssertion(t, testAuthConfig().Secret, "boss@example.com")
	w, _ = app.do(t, http.MethodGet, "/api/auth/oauth/callback?assertion="+own, "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	signed := proxyAssertion(t, testAuthConfig().OAuthAssertionSecret, "boss@example.com")
	w, body = app.do(t, http.MethodGet, "/api/auth/oauth/callback?assertion="+signed, "", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotEmpty(t, body["accessToken"])
}

func TestRouter_EmailReusableAfterDelete(t *testing.T) {
	app := newTestApp(t)
	app.addUser(t, "admin@example.com", "adminpass", model.RoleAdmin)
	app.addUser(t, "bob@example.com", "secret123", model.RoleUser)
	bob := app.user(t, "bob@example.com")

	_, body := app.do(t, http.MethodPost, "/api/auth/login", "", `{"email":"admin@example.com","password":"adminpass"}`)
	admin := body["accessToken"].(string)

	w, _ := app.do(t, http.MethodDelete, fmt.Sprintf("/api/user/%d", bob.ID), admin, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, _ = app.do(t, http.MethodPost, "/api/auth/register", "", `{"email":"bob@example.com","password":"another1","passwordConfirmation":"another1"}`)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	app.dispatcher.Wait()
}

package auth

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bagdatov/carmarket/internal/lib/errs"
	"github.com/bagdatov/carmarket/internal/lib/jwt"
	"github.com/bagdatov/carmarket/internal/lib/password"
	"github.com/bagdatov/carmarket/internal/lib/roles"
	"github.com/bagdatov/carmarket/internal/models"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) CreateUser(ctx context.Context, user models.User) (string, error) {
	args := m.Called(ctx, user)
	return args.String(0), args.Error(1)
}

func (m *MockUserRepository) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) MarkVerified(ctx context.Context, userUID string) error {
	args := m.Called(ctx, userUID)
	return args.Error(0)
}

func (m *MockUserRepository) SetResetToken(ctx context.Context, userUID, token string, expires time.Time) error {
	args := m.Called(ctx, userUID, token, expires)
	return args.Error(0)
}

func (m *MockUserRepository) ResetPasswordByToken(ctx context.Context, token, passwordHash string) error {
	args := m.Called(ctx, token, passwordHash)
	return args.Error(0)
}

type MockCodeManager struct {
	mock.Mock
}

func (m *MockCodeManager) IssueCode(ctx context.Context, userUID string) (string, error) {
	args := m.Called(ctx, userUID)
	return args.String(0), args.Error(1)
}

func (m *MockCodeManager) VerifyCode(ctx context.Context, userUID, code string) error {
	args := m.Called(ctx, userUID, code)
	return args.Error(0)
}

func (m *MockCodeManager) RegisterAttempt(ctx context.Context, userUID string) error {
	args := m.Called(ctx, userUID)
	return args.Error(0)
}

type MockMailPublisher struct {
	mock.Mock
}

func (m *MockMailPublisher) PublishMailTask(task models.MailTask) error {
	args := m.Called(task)
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func newTestService(users *MockUserRepository, codes *MockCodeManager, mail *MockMailPublisher) *AuthService {
	maker := jwt.NewJWTMaker("test-secret-key", time.Hour)
	return NewAuthService(users, codes, mail, maker, newNoopLogger(),
		"https://carmarket.kz", time.Hour)
}

func mustHash(t *testing.T, raw string) string {
	t.Helper()
	h, err := password.GetHash(raw)
	require.NoError(t, err)
	return h
}

func TestRegister(t *testing.T) {
	users := new(MockUserRepository)
	codes := new(MockCodeManager)
	mail := new(MockMailPublisher)
	svc := newTestService(users, codes, mail)
	ctx := context.Background()

	users.On("CreateUser", ctx, mock.MatchedBy(func(u models.User) bool {
		return u.Username == "newuser" && u.Role == roles.Client && !u.IsVerified && u.PasswordHash != "qwerty123"
	})).Return("uid-1", nil).Once()
	codes.On("RegisterAttempt", ctx, "uid-1").Return(nil).Once()
	codes.On("IssueCode", ctx, "uid-1").Return("482915", nil).Once()
	mail.On("PublishMailTask", models.MailTask{
		Kind:     models.MailKindVerification,
		Email:    "new@example.com",
		Username: "newuser",
		Code:     "482915",
	}).Return(nil).Once()

	uid, err := svc.Register(ctx, "New", "User", "newuser", "new@example.com", "qwerty123")
	require.NoError(t, err)
	assert.Equal(t, "uid-1", uid)

	users.AssertExpectations(t)
	codes.AssertExpectations(t)
	mail.AssertExpectations(t)
}

func TestRegister_DuplicateUsername(t *testing.T) {
	users := new(MockUserRepository)
	codes := new(MockCodeManager)
	mail := new(MockMailPublisher)
	svc := newTestService(users, codes, mail)
	ctx := context.Background()

	users.On("CreateUser", ctx, mock.Anything).Return("", errs.ErrAlreadyExists).Once()

	_, err := svc.Register(ctx, "New", "User", "taken", "new@example.com", "qwerty123")
	assert.ErrorIs(t, err, errs.ErrAlreadyExists)
	mail.AssertNotCalled(t, "PublishMailTask")
}

func TestRegister_MailFailureDoesNotUndoSignup(t *testing.T) {
	users := new(MockUserRepository)
	codes := new(MockCodeManager)
	mail := new(MockMailPublisher)
	svc := newTestService(users, codes, mail)
	ctx := context.Background()

	users.On("CreateUser", ctx, mock.Anything).Return("uid-1", nil).Once()
	codes.On("RegisterAttempt", ctx, "uid-1").Return(nil).Once()
	codes.On("IssueCode", ctx, "uid-1").Return("482915", nil).Once()
	mail.On("PublishMailTask", mock.Anything).Return(assert.AnError).Once()

	uid, err := svc.Register(ctx, "New", "User", "newuser", "new@example.com", "qwerty123")
	require.NoError(t, err)
	assert.Equal(t, "uid-1", uid)
}

func TestLogin(t *testing.T) {
	hash := mustHash(t, "qwerty123")

	verified := func() *models.User {
		return &models.User{
			UID:          "uid-1",
			Username:     "client",
			Email:        "client@example.com",
			PasswordHash: hash,
			Role:         roles.Client,
			IsVerified:   true,
		}
	}

	tests := []struct {
		name        string
		username    string
		email       string
		rawPassword string
		setupMocks  func(*MockUserRepository, *MockCodeManager, *MockMailPublisher)
		wantErr     error
		wantToken   bool
	}{
		{
			name:        "success",
			username:    "client",
			email:       "client@example.com",
			rawPassword: "qwerty123",
			setupMocks: func(users *MockUserRepository, _ *MockCodeManager, _ *MockMailPublisher) {
				users.On("GetUserByUsername", mock.Anything, "client").Return(verified(), nil).Once()
			},
			wantToken: true,
		},
		{
			name:        "unknown username",
			username:    "nobody",
			email:       "client@example.com",
			rawPassword: "qwerty123",
			setupMocks: func(users *MockUserRepository, _ *MockCodeManager, _ *MockMailPublisher) {
				users.On("GetUserByUsername", mock.Anything, "nobody").Return(nil, errs.ErrNotFound).Once()
			},
			wantErr: errs.ErrInvalidCredentials,
		},
		{
			name:        "email belongs to another account",
			username:    "client",
			email:       "other@example.com",
			rawPassword: "qwerty123",
			setupMocks: func(users *MockUserRepository, _ *MockCodeManager, _ *MockMailPublisher) {
				users.On("GetUserByUsername", mock.Anything, "client").Return(verified(), nil).Once()
			},
			wantErr: errs.ErrInvalidCredentials,
		},
		{
			name:        "wrong password",
			username:    "client",
			email:       "client@example.com",
			rawPassword: "wrong-password",
			setupMocks: func(users *MockUserRepository, _ *MockCodeManager, _ *MockMailPublisher) {
				users.On("GetUserByUsername", mock.Anything, "client").Return(verified(), nil).Once()
			},
			wantErr: errs.ErrInvalidCredentials,
		},
		{
			name:        "unverified account gets new code",
			username:    "client",
			email:       "client@example.com",
			rawPassword: "qwerty123",
			setupMocks: func(users *MockUserRepository, codes *MockCodeManager, mail *MockMailPublisher) {
				u := verified()
				u.IsVerified = false
				users.On("GetUserByUsername", mock.Anything, "client").Return(u, nil).Once()
				codes.On("RegisterAttempt", mock.Anything, "uid-1").Return(nil).Once()
				codes.On("IssueCode", mock.Anything, "uid-1").Return("111222", nil).Once()
				mail.On("PublishMailTask", mock.Anything).Return(nil).Once()
			},
			wantErr: errs.ErrNotVerified,
		},
		{
			name:        "unverified account over resend limit",
			username:    "client",
			email:       "client@example.com",
			rawPassword: "qwerty123",
			setupMocks: func(users *MockUserRepository, codes *MockCodeManager, _ *MockMailPublisher) {
				u := verified()
				u.IsVerified = false
				users.On("GetUserByUsername", mock.Anything, "client").Return(u, nil).Once()
				codes.On("RegisterAttempt", mock.Anything, "uid-1").Return(errs.ErrTooManyRequests).Once()
			},
			wantErr: errs.ErrTooManyRequests,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := new(MockUserRepository)
			codes := new(MockCodeManager)
			mail := new(MockMailPublisher)
			tt.setupMocks(users, codes, mail)
			svc := newTestService(users, codes, mail)

			token, user, err := svc.Login(context.Background(), tt.username, tt.email, tt.rawPassword)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, token)
			} else {
				require.NoError(t, err)
				assert.NotEmpty(t, token)
				assert.Equal(t, "uid-1", user.UID)
			}
			users.AssertExpectations(t)
			codes.AssertExpectations(t)
			mail.AssertExpectations(t)
		})
	}
}

func TestLogin_UnverifiedReturnsUser(t *testing.T) {
	users := new(MockUserRepository)
	codes := new(MockCodeManager)
	mail := new(MockMailPublisher)
	svc := newTestService(users, codes, mail)

	u := &models.User{
		UID:          "uid-1",
		Username:     "client",
		Email:        "client@example.com",
		PasswordHash: mustHash(t, "qwerty123"),
		Role:         roles.Client,
		IsVerified:   false,
	}
	users.On("GetUserByUsername", mock.Anything, "client").Return(u, nil).Once()
	codes.On("RegisterAttempt", mock.Anything, "uid-1").Return(nil).Once()
	codes.On("IssueCode", mock.Anything, "uid-1").Return("111222", nil).Once()
	mail.On("PublishMailTask", mock.Anything).Return(nil).Once()

	_, user, err := svc.Login(context.Background(), "client", "client@example.com", "qwerty123")
	require.ErrorIs(t, err, errs.ErrNotVerified)
	// uid нужен вызывающей стороне для последующего verify-code
	require.NotNil(t, user)
	assert.Equal(t, "uid-1", user.UID)
}

func TestAuthenticate(t *testing.T) {
	users := new(MockUserRepository)
	codes := new(MockCodeManager)
	mail := new(MockMailPublisher)
	svc := newTestService(users, codes, mail)

	maker := jwt.NewJWTMaker("test-secret-key", time.Hour)
	token, err := maker.GenerateToken("uid-1", "client", roles.Client)
	require.NoError(t, err)

	// роль берется из базы, а не из токена
	fresh := &models.User{UID: "uid-1", Username: "client", Role: roles.Admin, IsVerified: true}
	users.On("GetUser", mock.Anything, "uid-1").Return(fresh, nil).Once()

	user, err := svc.Authenticate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, roles.Admin, user.Role)
}

func TestAuthenticate_InvalidToken(t *testing.T) {
	users := new(MockUserRepository)
	svc := newTestService(users, new(MockCodeManager), new(MockMailPublisher))

	_, err := svc.Authenticate(context.Background(), "not-a-token")
	assert.Error(t, err)
	users.AssertNotCalled(t, "GetUser")
}

func TestAuthenticate_DeletedUser(t *testing.T) {
	users := new(MockUserRepository)
	svc := newTestService(users, new(MockCodeManager), new(MockMailPublisher))

	maker := jwt.NewJWTMaker("test-secret-key", time.Hour)
	token, err := maker.GenerateToken("uid-gone", "ghost", roles.Client)
	require.NoError(t, err)

	users.On("GetUser", mock.Anything, "uid-gone").Return(nil, errs.ErrNotFound).Once()

	_, err = svc.Authenticate(context.Background(), token)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestVerifyEmail(t *testing.T) {
	users := new(MockUserRepository)
	codes := new(MockCodeManager)
	svc := newTestService(users, codes, new(MockMailPublisher))
	ctx := context.Background()

	u := &models.User{UID: "uid-1", Username: "client", Role: roles.Client, IsVerified: false}
	users.On("GetUser", ctx, "uid-1").Return(u, nil).Once()
	codes.On("VerifyCode", ctx, "uid-1", "482915").Return(nil).Once()
	users.On("MarkVerified", ctx, "uid-1").Return(nil).Once()

	token, user, err := svc.VerifyEmail(ctx, "uid-1", "482915")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.True(t, user.IsVerified)

	users.AssertExpectations(t)
	codes.AssertExpectations(t)
}

func TestVerifyEmail_WrongCode(t *testing.T) {
	users := new(MockUserRepository)
	codes := new(MockCodeManager)
	svc := newTestService(users, codes, new(MockMailPublisher))
	ctx := context.Background()

	u := &models.User{UID: "uid-1", Username: "client", Role: roles.Client}
	users.On("GetUser", ctx, "uid-1").Return(u, nil).Once()
	codes.On("VerifyCode", ctx, "uid-1", "000000").Return(errs.ErrIncorrectCode).Once()

	_, _, err := svc.VerifyEmail(ctx, "uid-1", "000000")
	assert.ErrorIs(t, err, errs.ErrIncorrectCode)
	users.AssertNotCalled(t, "MarkVerified")
}

func TestVerifyEmail_UnknownUser(t *testing.T) {
	users := new(MockUserRepository)
	codes := new(MockCodeManager)
	svc := newTestService(users, codes, new(MockMailPublisher))

	users.On("GetUser", mock.Anything, "uid-gone").Return(nil, errs.ErrNotFound).Once()

	_, _, err := svc.VerifyEmail(context.Background(), "uid-gone", "482915")
	assert.ErrorIs(t, err, errs.ErrNotFound)
	codes.AssertNotCalled(t, "VerifyCode")
}

func TestResendCode(t *testing.T) {
	users := new(MockUserRepository)
	codes := new(MockCodeManager)
	mail := new(MockMailPublisher)
	svc := newTestService(users, codes, mail)
	ctx := context.Background()

	u := &models.User{UID: "uid-1", Username: "client", Email: "client@example.com", IsVerified: false}
	users.On("GetUser", ctx, "uid-1").Return(u, nil).Once()
	codes.On("RegisterAttempt", ctx, "uid-1").Return(nil).Once()
	codes.On("IssueCode", ctx, "uid-1").Return("333444", nil).Once()
	mail.On("PublishMailTask", models.MailTask{
		Kind:     models.MailKindVerification,
		Email:    "client@example.com",
		Username: "client",
		Code:     "333444",
	}).Return(nil).Once()

	assert.NoError(t, svc.ResendCode(ctx, "uid-1"))
	mail.AssertExpectations(t)
}

func TestResendCode_AlreadyVerified(t *testing.T) {
	users := new(MockUserRepository)
	codes := new(MockCodeManager)
	svc := newTestService(users, codes, new(MockMailPublisher))

	u := &models.User{UID: "uid-1", IsVerified: true}
	users.On("GetUser", mock.Anything, "uid-1").Return(u, nil).Once()

	err := svc.ResendCode(context.Background(), "uid-1")
	assert.ErrorIs(t, err, errs.ErrAlreadyVerified)
	codes.AssertNotCalled(t, "RegisterAttempt")
}

func TestResendCode_OverLimit(t *testing.T) {
	users := new(MockUserRepository)
	codes := new(MockCodeManager)
	mail := new(MockMailPublisher)
	svc := newTestService(users, codes, mail)

	u := &models.User{UID: "uid-1", IsVerified: false}
	users.On("GetUser", mock.Anything, "uid-1").Return(u, nil).Once()
	codes.On("RegisterAttempt", mock.Anything, "uid-1").Return(errs.ErrTooManyRequests).Once()

	err := svc.ResendCode(context.Background(), "uid-1")
	assert.ErrorIs(t, err, errs.ErrTooManyRequests)
	codes.AssertNotCalled(t, "IssueCode")
	mail.AssertNotCalled(t, "PublishMailTask")
}

func TestRequestPasswordReset(t *testing.T) {
	users := new(MockUserRepository)
	mail := new(MockMailPublisher)
	svc := newTestService(users, new(MockCodeManager), mail)
	ctx := context.Background()

	u := &models.User{UID: "uid-1", Username: "client", Email: "client@example.com"}
	users.On("GetUserByEmail", ctx, "client@example.com").Return(u, nil).Once()

	var savedToken string
	users.On("SetResetToken", ctx, "uid-1", mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).
		Run(func(args mock.Arguments) {
			savedToken = args.String(2)
		}).Return(nil).Once()
	mail.On("PublishMailTask", mock.MatchedBy(func(task models.MailTask) bool {
		return task.Kind == models.MailKindReset && task.Email == "client@example.com"
	})).Return(nil).Once()

	require.NoError(t, svc.RequestPasswordReset(ctx, "client@example.com"))

	// токен из письма совпадает с сохраненным и имеет 64 hex-символа
	assert.Len(t, savedToken, 64)
	task := mail.Calls[0].Arguments.Get(0).(models.MailTask)
	assert.Equal(t, "https://carmarket.kz/reset-password?token="+savedToken, task.ResetLink)
}

func TestRequestPasswordReset_UnknownEmail(t *testing.T) {
	users := new(MockUserRepository)
	mail := new(MockMailPublisher)
	svc := newTestService(users, new(MockCodeManager), mail)

	users.On("GetUserByEmail", mock.Anything, "nobody@example.com").Return(nil, errs.ErrNotFound).Once()

	// наличие учетной записи не раскрывается
	err := svc.RequestPasswordReset(context.Background(), "nobody@example.com")
	assert.NoError(t, err)
	users.AssertNotCalled(t, "SetResetToken")
	mail.AssertNotCalled(t, "PublishMailTask")
}

func TestResetPassword(t *testing.T) {
	users := new(MockUserRepository)
	svc := newTestService(users, new(MockCodeManager), new(MockMailPublisher))
	ctx := context.Background()

	users.On("ResetPasswordByToken", ctx, "deadbeef", mock.MatchedBy(func(hash string) bool {
		return password.CompareHash(hash, "new-password-1") == nil
	})).Return(nil).Once()

	assert.NoError(t, svc.ResetPassword(ctx, "deadbeef", "new-password-1"))
	users.AssertExpectations(t)
}

func TestResetPassword_InvalidToken(t *testing.T) {
	users := new(MockUserRepository)
	svc := newTestService(users, new(MockCodeManager), new(MockMailPublisher))

	users.On("ResetPasswordByToken", mock.Anything, "expired", mock.Anything).
		Return(errs.ErrResetTokenInvalid).Once()

	err := svc.ResetPassword(context.Background(), "expired", "new-password-1")
	assert.ErrorIs(t, err, errs.ErrResetTokenInvalid)
}

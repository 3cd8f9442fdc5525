package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/Shaanshimpi/codehub-live-coding-sub002/internal/domain"
	"github.com/Shaanshimpi/codehub-live-coding-sub002/internal/repository"
	"github.com/Shaanshimpi/codehub-live-coding-sub002/internal/repository/mocks"
	"github.com/Shaanshimpi/codehub-live-coding-sub002/internal/service"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestAuthService_Register_Success(t *testing.T) {
	mockUserRepo := new(mocks.UserRepository)
	authService, err := service.NewAuthService(mockUserRepo, "very-secret-key", 1)
	require.NoError(t, err)

	ctx := context.Background()
	password := "StrongPass123"

	// Snapshot the record as it crosses the repository boundary: Register
	// clears the password hash on the shared pointer after Save returns, so
	// the assertions must run against a copy taken inside the call.
	var saved domain.User
	mockUserRepo.On("Save", ctx, mock.AnythingOfType("*domain.User")).
		Run(func(args mock.Arguments) {
			user := args.Get(1).(*domain.User)
			saved = *user
			user.ID = 5
		}).
		Return(nil).Once()

	user, err := authService.Register(ctx, "newbie", password, "newbie@example.com", "New Bee", domain.RoleTrainer)

	require.NoError(t, err)
	assert.Equal(t, uint(5), user.ID)
	assert.Empty(t, user.Password, "hash must be cleared before returning")

	assert.Equal(t, "newbie", saved.Username)
	assert.Equal(t, domain.RoleTrainer, saved.Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(saved.Password), []byte(password)), "password should be stored hashed")
	mockUserRepo.AssertExpectations(t)
}

func TestAuthService_Register_DefaultsToStudentRole(t *testing.T) {
	mockUserRepo := new(mocks.UserRepository)
	authService, _ := service.NewAuthService(mockUserRepo, "secret", 1)
	ctx := context.Background()

	mockUserRepo.On("Save", ctx, mock.MatchedBy(func(user *domain.User) bool {
		return user.Role == domain.RoleStudent
	})).Return(nil).Once()

	_, err := authService.Register(ctx, "plain", "password", "", "", "")

	require.NoError(t, err)
	mockUserRepo.AssertExpectations(t)
}

func TestAuthService_Register_UnknownRoleRejected(t *testing.T) {
	mockUserRepo := new(mocks.UserRepository)
	authService, _ := service.NewAuthService(mockUserRepo, "secret", 1)

	_, err := authService.Register(context.Background(), "plain", "password", "", "", "superuser")

	assert.True(t, errors.Is(err, service.ErrInvalidInput))
	mockUserRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestAuthService_Register_DuplicateEntry(t *testing.T) {
	mockUserRepo := new(mocks.UserRepository)
	authService, _ := service.NewAuthService(mockUserRepo, "secret", 1)
	ctx := context.Background()

	mockUserRepo.On("Save", ctx, mock.AnythingOfType("*domain.User")).Return(repository.ErrDuplicateEntry).Once()

	_, err := authService.Register(ctx, "taken", "password", "taken@test.com", "", "")

	require.Error(t, err)
	assert.True(t, errors.Is(err, service.ErrRegistrationFailed))
	mockUserRepo.AssertExpectations(t)
}

func TestAuthService_Login_Success(t *testing.T) {
	mockUserRepo := new(mocks.UserRepository)
	authService, _ := service.NewAuthService(mockUserRepo, "test-secret", 24)
	ctx := context.Background()

	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	userInDb := &domain.User{ID: 1, Username: "testuser", Password: string(hashedPassword), Name: "Test User", Role: domain.RoleManager}
	mockUserRepo.On("FindByUsername", ctx, "testuser").Return(userInDb, nil).Once()

	token, err := authService.Login(ctx, "testuser", "password123")

	require.NoError(t, err)
	require.NotEmpty(t, token)

	// The token must carry identity and role claims for the middleware.
	parsed, err := jwt.Parse(token, func(token *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	claims := parsed.Claims.(jwt.MapClaims)
	assert.Equal(t, float64(1), claims["user_id"])
	assert.Equal(t, domain.RoleManager, claims["role"])
	assert.Equal(t, "Test User", claims["name"])

	mockUserRepo.AssertExpectations(t)
}

func TestAuthService_Login_UserNotFound(t *testing.T) {
	mockUserRepo := new(mocks.UserRepository)
	authService, _ := service.NewAuthService(mockUserRepo, "test-secret", 24)
	ctx := context.Background()

	mockUserRepo.On("FindByUsername", ctx, "nonexistent").Return(nil, repository.ErrUserNotFound).Once()

	token, err := authService.Login(ctx, "nonexistent", "password")

	require.Error(t, err)
	assert.Empty(t, token)
	assert.True(t, errors.Is(err, service.ErrAuthenticationFailed))
	mockUserRepo.AssertExpectations(t)
}

func TestAuthService_Login_IncorrectPassword(t *testing.T) {
	mockUserRepo := new(mocks.UserRepository)
	authService, _ := service.NewAuthService(mockUserRepo, "test-secret", 24)
	ctx := context.Background()

	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	userInDb := &domain.User{ID: 1, Username: "testuser", Password: string(hashedPassword)}
	mockUserRepo.On("FindByUsername", ctx, "testuser").Return(userInDb, nil).Once()

	token, err := authService.Login(ctx, "testuser", "wrongpassword")

	require.Error(t, err)
	assert.Empty(t, token)
	assert.True(t, errors.Is(err, service.ErrAuthenticationFailed))
	mockUserRepo.AssertExpectations(t)
}

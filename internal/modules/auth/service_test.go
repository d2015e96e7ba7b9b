package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"hotelbooking/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) Create(ctx context.Context, u *domain.User) error {
	args := m.Called(ctx, u)
	if args.Error(0) == nil {
		u.ID = 42
		u.CreatedAt = time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	return args.Error(0)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if u := args.Get(0); u != nil {
		return u.(*domain.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	args := m.Called(ctx, id)
	if u := args.Get(0); u != nil {
		return u.(*domain.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *mockUserRepo) UpdateProfile(ctx context.Context, id int64, name, phone string) (*domain.User, error) {
	args := m.Called(ctx, id, name, phone)
	if u := args.Get(0); u != nil {
		return u.(*domain.User), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockStats struct {
	mock.Mock
}

func (m *mockStats) CountByGuest(ctx context.Context, guestID int64) (map[domain.ReservationStatus]int64, error) {
	args := m.Called(ctx, guestID)
	return args.Get(0).(map[domain.ReservationStatus]int64), args.Error(1)
}

type stubJWT struct{}

func (stubJWT) GenerateToken(userID int64, role domain.UserRole) (string, error) {
	return "token-" + string(role), nil
}

func TestRegister_CreatesMember(t *testing.T) {
	repo := new(mockUserRepo)
	svc := NewService(repo, nil, stubJWT{})
	ctx := context.Background()

	repo.On("ExistsByEmail", ctx, "guest@example.com").Return(false, nil)
	repo.On("Create", ctx, mock.MatchedBy(func(u *domain.User) bool {
		return u.Email == "guest@example.com" && u.Role == domain.RoleMember &&
			bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("password123")) == nil
	})).Return(nil)

	user, err := svc.Register(ctx, RegisterRequest{
		Name:     " Guest ",
		Email:    " Guest@Example.com ",
		Password: "password123",
	})

	require.NoError(t, err)
	assert.Equal(t, int64(42), user.ID)
	assert.Equal(t, "Guest", user.Name)
	assert.Empty(t, user.PasswordHash)
	repo.AssertExpectations(t)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	repo := new(mockUserRepo)
	svc := NewService(repo, nil, stubJWT{})
	ctx := context.Background()

	repo.On("ExistsByEmail", ctx, "guest@example.com").Return(true, nil)

	_, err := svc.Register(ctx, RegisterRequest{Name: "G", Email: "guest@example.com", Password: "password123"})

	assert.ErrorIs(t, err, ErrEmailAlreadyExists)
	assert.ErrorIs(t, err, domain.ErrConflict)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRegister_RaceOnUniqueIndex(t *testing.T) {
	repo := new(mockUserRepo)
	svc := NewService(repo, nil, stubJWT{})
	ctx := context.Background()

	repo.On("ExistsByEmail", ctx, "guest@example.com").Return(false, nil)
	repo.On("Create", ctx, mock.Anything).Return(gorm.ErrDuplicatedKey)

	_, err := svc.Register(ctx, RegisterRequest{Name: "G", Email: "guest@example.com", Password: "password123"})

	assert.ErrorIs(t, err, ErrEmailAlreadyExists)
}

func TestLogin(t *testing.T) {
	hash, err := HashPassword("password123")
	require.NoError(t, err)
	ctx := context.Background()

	tests := []struct {
		name     string
		password string
		found    bool
		wantErr  error
	}{
		{name: "ok", password: "password123", found: true},
		{name: "wrong password", password: "nope", found: true, wantErr: ErrInvalidCredentials},
		{name: "unknown email", password: "password123", found: false, wantErr: ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(mockUserRepo)
			svc := NewService(repo, nil, stubJWT{})
			if tt.found {
				repo.On("GetByEmail", ctx, "admin@example.com").
					Return(&domain.User{ID: 7, Email: "admin@example.com", PasswordHash: hash, Role: domain.RoleAdmin}, nil)
			} else {
				repo.On("GetByEmail", ctx, "admin@example.com").Return(nil, gorm.ErrRecordNotFound)
			}

			res, err := svc.Login(ctx, LoginRequest{Email: "admin@example.com", Password: tt.password})

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "token-ADMIN", res.AccessToken)
			assert.Empty(t, res.User.PasswordHash)
		})
	}
}

func TestLogin_RepositoryFailure(t *testing.T) {
	repo := new(mockUserRepo)
	svc := NewService(repo, nil, stubJWT{})
	ctx := context.Background()
	boom := errors.New("connection reset")

	repo.On("GetByEmail", ctx, "a@example.com").Return(nil, boom)

	_, err := svc.Login(ctx, LoginRequest{Email: "a@example.com", Password: "x"})
	assert.ErrorIs(t, err, boom)
}

func TestGetProfile_IncludesReservationStats(t *testing.T) {
	repo := new(mockUserRepo)
	stats := new(mockStats)
	svc := NewService(repo, stats, stubJWT{})
	ctx := context.Background()

	repo.On("GetByID", ctx, int64(5)).Return(&domain.User{ID: 5, Email: "g@example.com", Role: domain.RoleMember}, nil)
	stats.On("CountByGuest", ctx, int64(5)).Return(map[domain.ReservationStatus]int64{
		domain.ReservationPending:   1,
		domain.ReservationConfirmed: 2,
		domain.ReservationCancelled: 3,
	}, nil)

	profile, err := svc.GetProfile(ctx, 5)

	require.NoError(t, err)
	require.NotNil(t, profile.Stats)
	assert.Equal(t, int64(3), profile.Stats.ActiveReservations)
	assert.Equal(t, int64(3), profile.Stats.CancelledReservations)
	assert.Equal(t, int64(6), profile.Stats.TotalReservations)
}

func TestGetCurrentUser_NotFound(t *testing.T) {
	repo := new(mockUserRepo)
	svc := NewService(repo, nil, stubJWT{})
	ctx := context.Background()

	repo.On("GetByID", ctx, int64(99)).Return(nil, gorm.ErrRecordNotFound)

	_, err := svc.GetCurrentUser(ctx, 99)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdateProfile_TrimsInput(t *testing.T) {
	repo := new(mockUserRepo)
	svc := NewService(repo, nil, stubJWT{})
	ctx := context.Background()

	repo.On("UpdateProfile", ctx, int64(5), "New Name", "+15550100").
		Return(&domain.User{ID: 5, Name: "New Name", Phone: "+15550100", PasswordHash: "x"}, nil)

	user, err := svc.UpdateProfile(ctx, 5, UpdateProfileRequest{Name: " New Name ", Phone: " +15550100 "})

	require.NoError(t, err)
	assert.Equal(t, "New Name", user.Name)
	assert.Empty(t, user.PasswordHash)
}

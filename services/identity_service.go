package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cppla/articles/config"
	"github.com/cppla/articles/models"
	"github.com/cppla/articles/repository"
	"github.com/cppla/articles/utils"
)

var (
	// ErrInvalidCredentials covers unknown usernames, wrong passwords and inactive accounts alike.
	ErrInvalidCredentials = errors.New("unable to log in with provided credentials")
	// ErrInvalidToken is returned when a presented credential does not resolve to an active user.
	ErrInvalidToken = errors.New("invalid token")
)

const tokenCachePrefix = "cache:token:"

// LoginResult is what a successful login hands back to the client.
type LoginResult struct {
	User      *models.User
	Token     *models.Token
	Access    string
	ExpiresAt time.Time
}

// IdentityService owns accounts and the credentials bound to them.
type IdentityService struct {
	users     *repository.UserRepository
	tokens    *repository.TokenRepository
	jwt       *utils.JWTManager
	blacklist *utils.TokenBlacklist
	cache     utils.Cache
	cacheTTL  time.Duration
}

// NewIdentityService wires the identity store.
func NewIdentityService(users *repository.UserRepository, tokens *repository.TokenRepository, jwt *utils.JWTManager, cache utils.Cache, cacheTTL time.Duration) *IdentityService {
	return &IdentityService{
		users:     users,
		tokens:    tokens,
		jwt:       jwt,
		blacklist: utils.NewTokenBlacklist(cache),
		cache:     cache,
		cacheTTL:  cacheTTL,
	}
}

func newTokenKey() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// CreateUser hashes the password, persists the user and issues its token in one step.
func (s *IdentityService) CreateUser(ctx context.Context, user *models.User, password string) (*models.Token, error) {
	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = hash
	token := &models.Token{Key: newTokenKey(), Version: 1}
	if err := s.users.CreateWithToken(ctx, user, token); err != nil {
		return nil, err
	}
	return token, nil
}

// UpdateUser persists user, re-hashing password when one is supplied.
func (s *IdentityService) UpdateUser(ctx context.Context, user *models.User, password *string) error {
	if password != nil {
		hash, err := utils.HashPassword(*password)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		user.PasswordHash = hash
	}
	return s.users.Update(ctx, user)
}

// DeleteUser removes the account and forgets its cached token.
func (s *IdentityService) DeleteUser(ctx context.Context, user *models.User) error {
	token, err := s.tokens.GetByUserID(ctx, user.ID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	if err := s.users.Delete(ctx, user.ID); err != nil {
		return err
	}
	if token != nil {
		s.forget(ctx, token.Key)
	}
	return nil
}

// Authenticate checks the credentials and returns the user's token plus a fresh access JWT.
// The same opaque token is returned on every login until it is rotated.
func (s *IdentityService) Authenticate(ctx context.Context, username, password string) (*LoginResult, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		utils.BurnPasswordCheck(password)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !utils.CheckPassword(user.PasswordHash, password) || !user.IsActive {
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.GetOrCreate(ctx, &models.Token{UserID: user.ID, Key: newTokenKey(), Version: 1})
	if err != nil {
		return nil, err
	}
	access, claims, err := s.jwt.Issue(user.ID, user.Username, token.Version)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	return &LoginResult{User: user, Token: token, Access: access, ExpiresAt: claims.ExpiresAt.Time}, nil
}

// ResolveToken maps an opaque token to its active user.
func (s *IdentityService) ResolveToken(ctx context.Context, key string) (*models.User, error) {
	if key == "" {
		return nil, ErrInvalidToken
	}
	userID, ok := s.cachedUserID(ctx, key)
	if !ok {
		token, err := s.tokens.GetByKey(ctx, key)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		if err != nil {
			return nil, err
		}
		userID = token.UserID
		if err := s.cache.Set(ctx, tokenCachePrefix+key, []byte(strconv.FormatUint(uint64(userID), 10)), s.cacheTTL); err != nil {
			utils.Logger.Warn("token cache set failed", zap.Error(err))
		}
	}
	return s.activeUser(ctx, userID)
}

// ResolveAccess validates an access JWT: signature, expiry, revocation and token version.
func (s *IdentityService) ResolveAccess(ctx context.Context, raw string) (*models.User, *utils.Claims, error) {
	claims, err := s.jwt.Parse(raw)
	if err != nil {
		return nil, nil, ErrInvalidToken
	}
	if s.blacklist.IsRevoked(ctx, claims.ID) {
		return nil, nil, ErrInvalidToken
	}
	token, err := s.tokens.GetByUserID(ctx, claims.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil, ErrInvalidToken
	}
	if err != nil {
		return nil, nil, err
	}
	if token.Version != claims.Version {
		return nil, nil, ErrInvalidToken
	}
	user, err := s.activeUser(ctx, claims.UserID)
	if err != nil {
		return nil, nil, err
	}
	return user, claims, nil
}

// Rotate replaces the user's opaque token. Access tokens minted before the rotation stop working.
func (s *IdentityService) Rotate(ctx context.Context, userID uint) (*models.Token, error) {
	old, err := s.tokens.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	token, err := s.tokens.Rotate(ctx, userID, newTokenKey())
	if err != nil {
		return nil, err
	}
	s.forget(ctx, old.Key)
	return token, nil
}

// Logout revokes one access token until it expires.
func (s *IdentityService) Logout(ctx context.Context, claims *utils.Claims) error {
	if claims == nil || claims.ExpiresAt == nil {
		return nil
	}
	return s.blacklist.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
}

// EnsureAdmin creates the configured superuser when it does not exist yet.
func (s *IdentityService) EnsureAdmin(ctx context.Context, admin config.AdminSection) (bool, error) {
	if admin.Username == "" || admin.Password == "" {
		return false, nil
	}
	hash, err := utils.HashPassword(admin.Password)
	if err != nil {
		return false, fmt.Errorf("hash password: %w", err)
	}
	user := &models.User{
		Username:     admin.Username,
		Email:        admin.Email,
		PasswordHash: hash,
		Gender:       models.GenderOther,
		Level:        models.LevelSenior,
		IsStaff:      true,
		IsSuperuser:  true,
		IsActive:     true,
	}
	return s.users.EnsureExists(ctx, user, &models.Token{Key: newTokenKey(), Version: 1})
}

func (s *IdentityService) activeUser(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrInvalidToken
	}
	return user, nil
}

func (s *IdentityService) cachedUserID(ctx context.Context, key string) (uint, bool) {
	b, err := s.cache.Get(ctx, tokenCachePrefix+key)
	if err != nil {
		return 0, false
	}
	id, err := strconv.ParseUint(string(b), 10, 64)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}

func (s *IdentityService) forget(ctx context.Context, key string) {
	if err := s.cache.Delete(ctx, tokenCachePrefix+key); err != nil {
		utils.Logger.Warn("token cache delete failed", zap.Error(err))
	}
}

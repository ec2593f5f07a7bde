package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"chat-relay/internal/models"
	"chat-relay/internal/realtime"
	"chat-relay/internal/repositories/mysql"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrUsernameTaken      = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// AuthService issues and validates JWT credentials. It also implements
// realtime.TokenResolver so the websocket handshake and the REST middleware
// share one token format.
type AuthService struct {
	userRepo  *mysql.UserRepository
	jwtSecret string
	jwtExpire time.Duration
}

func NewAuthService(userRepo *mysql.UserRepository, jwtSecret string, jwtExpire time.Duration) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		jwtSecret: jwtSecret,
		jwtExpire: jwtExpire,
	}
}

func (s *AuthService) generateToken(user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"user_id":  user.ID,
		"username": user.Username,
		"exp":      time.Now().Add(s.jwtExpire).Unix(),
		"iat":      time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

func (s *AuthService) Register(req *models.RegisterRequest) (*models.UserResponse, error) {
	if _, err := s.userRepo.FindByUsername(req.Username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("lookup username: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	resp := models.NewUserResponse(user)
	return &resp, nil
}

func (s *AuthService) Login(req *models.LoginRequest) (*models.LoginResponse, error) {
	user, err := s.userRepo.FindByUsername(req.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup username: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.generateToken(user)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	return &models.LoginResponse{
		Token: token,
		User:  models.NewUserResponse(user),
	}, nil
}

// Resolve validates a websocket handshake token and loads the user it
// belongs to. Any failure maps onto realtime.ErrUnauthenticated so the
// hub closes the socket with a policy violation.
func (s *AuthService) Resolve(ctx context.Context, tokenString string) (realtime.Identity, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil || !token.Valid {
		return realtime.Identity{}, realtime.ErrUnauthenticated
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return realtime.Identity{}, realtime.ErrUnauthenticated
	}
	userID, ok := claims["user_id"].(float64)
	if !ok {
		return realtime.Identity{}, realtime.ErrUnauthenticated
	}

	user, err := s.userRepo.FindByID(uint(userID))
	if err != nil {
		return realtime.Identity{}, realtime.ErrUnauthenticated
	}

	return realtime.Identity{ID: user.ID, Username: user.Username}, nil
}

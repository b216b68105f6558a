package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"docchat-be/internal/apperr"
	"docchat-be/internal/dto"
	"docchat-be/internal/entity"
	"docchat-be/internal/pkg/mailer"
	"docchat-be/internal/repository/specification"
	"docchat-be/internal/repository/unitofwork"
	"docchat-be/pkg/events"
	pktNats "docchat-be/pkg/nats"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type IAccountService interface {
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error)
	// LoginWithEmail signs in a user identified by a verified email, e.g.
	// from an OAuth callback. An unknown email yields a registration-pending
	// token carrying the email as the pre-fill hint.
	LoginWithEmail(ctx context.Context, email string) (*dto.LoginResponse, error)
	IsUsernameTaken(ctx context.Context, username string) (bool, error)
	IsEmailTaken(ctx context.Context, email string) (bool, error)
	Register(ctx context.Context, username, email, password string) (*entity.User, error)
}

type accountService struct {
	uowFactory     unitofwork.RepositoryFactory
	emailService   mailer.IEmailService
	eventPublisher *pktNats.Publisher
	jwtSecret      string
}

func NewAccountService(
	uowFactory unitofwork.RepositoryFactory,
	emailService mailer.IEmailService,
	eventPublisher *pktNats.Publisher,
	jwtSecret string,
) IAccountService {
	return &accountService{
		uowFactory:     uowFactory,
		emailService:   emailService,
		eventPublisher: eventPublisher,
		jwtSecret:      jwtSecret,
	}
}

func (s *accountService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	if req.Register {
		// No account yet; issue a limited token that only authorizes the
		// conversational registration flow. If the identifier looks like an
		// email it becomes the pre-fill hint for the email step.
		hint := ""
		if strings.Contains(req.Identifier, "@") {
			hint = req.Identifier
		}
		token, err := s.generateToken(jwt.MapClaims{
			"registration_pending": true,
			"email_hint":           hint,
			"exp":                  time.Now().Add(1 * time.Hour).Unix(),
		})
		if err != nil {
			return nil, err
		}
		return &dto.LoginResponse{Token: token, RegistrationPending: true}, nil
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByUsernameOrEmail{Identifier: req.Identifier})
	if err != nil {
		return nil, apperr.Persistence(err)
	}
	if user == nil {
		return nil, apperr.NotFound("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apperr.Forbidden("invalid credentials")
	}

	if err := uow.UserRepository().UpdateLastLogin(ctx, user.Id); err != nil {
		return nil, apperr.Persistence(err)
	}

	token, err := s.generateToken(jwt.MapClaims{
		"user_id":  user.Id.String(),
		"username": user.Username,
		"exp":      time.Now().Add(24 * time.Hour).Unix(),
	})
	if err != nil {
		return nil, err
	}

	return &dto.LoginResponse{
		Token:    token,
		UserId:   &user.Id,
		Username: user.Username,
	}, nil
}

func (s *accountService) LoginWithEmail(ctx context.Context, email string) (*dto.LoginResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: email})
	if err != nil {
		return nil, apperr.Persistence(err)
	}

	if user == nil {
		token, err := s.generateToken(jwt.MapClaims{
			"registration_pending": true,
			"email_hint":           email,
			"exp":                  time.Now().Add(1 * time.Hour).Unix(),
		})
		if err != nil {
			return nil, err
		}
		return &dto.LoginResponse{Token: token, RegistrationPending: true}, nil
	}

	if err := uow.UserRepository().UpdateLastLogin(ctx, user.Id); err != nil {
		return nil, apperr.Persistence(err)
	}

	token, err := s.generateToken(jwt.MapClaims{
		"user_id":  user.Id.String(),
		"username": user.Username,
		"exp":      time.Now().Add(24 * time.Hour).Unix(),
	})
	if err != nil {
		return nil, err
	}

	return &dto.LoginResponse{
		Token:    token,
		UserId:   &user.Id,
		Username: user.Username,
	}, nil
}

func (s *accountService) IsUsernameTaken(ctx context.Context, username string) (bool, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	count, err := uow.UserRepository().Count(ctx, specification.ByUsername{Username: username})
	if err != nil {
		return false, apperr.Persistence(err)
	}
	return count > 0, nil
}

func (s *accountService) IsEmailTaken(ctx context.Context, email string) (bool, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	count, err := uow.UserRepository().Count(ctx, specification.ByEmail{Email: email})
	if err != nil {
		return false, apperr.Persistence(err)
	}
	return count > 0, nil
}

// Register commits a completed registration draft. Uniqueness races between
// the pre-checks in the registration flow and this insert surface as a
// Conflict via the unique indexes, never as two created users.
func (s *accountService) Register(ctx context.Context, username, email, password string) (*entity.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &entity.User{
		Id:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.UserRepository().Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Conflict("username or email already in use")
		}
		return nil, apperr.Persistence(err)
	}

	if s.eventPublisher != nil {
		_ = s.eventPublisher.Publish(ctx, events.New(events.TypeUserRegistered, map[string]interface{}{
			"user_id":  user.Id.String(),
			"username": user.Username,
		}))
	}

	go func() {
		if emailErr := s.emailService.SendWelcome(user.Email, user.Username); emailErr != nil {
			fmt.Printf("Error sending welcome email: %v\n", emailErr)
		}
	}()

	return user, nil
}

func (s *accountService) generateToken(claims jwt.MapClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", errors.Wrap(err, "failed to sign token")
	}
	return signed, nil
}

// internal/users/service.go
package users

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/RaDu88253/LocalCommerceAi/internal/common/errors"
	"github.com/RaDu88253/LocalCommerceAi/internal/common/logger"
	"github.com/RaDu88253/LocalCommerceAi/internal/models"
)

// Accounts is the persistence surface the service needs.
type Accounts interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByPhone(ctx context.Context, phoneNumber string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

// WelcomeMailer sends the post-registration email. Failures are logged and
// swallowed so a mail outage never blocks signup.
type WelcomeMailer interface {
	SendWelcomeEmail(ctx context.Context, toEmail, firstName string) error
}

// RegisterInput carries the fields of a signup request.
type RegisterInput struct {
	Email       string
	Username    string
	FirstName   string
	LastName    string
	PhoneNumber string
	Password    string
}

// Service implements account registration and login.
type Service struct {
	store  Accounts
	tokens *TokenIssuer
	mailer WelcomeMailer
	logger logger.Logger
}

func NewService(store Accounts, tokens *TokenIssuer, mailer WelcomeMailer, log logger.Logger) *Service {
	return &Service{
		store:  store,
		tokens: tokens,
		mailer: mailer,
		logger: log,
	}
}

// Register creates a new account. Email and phone number must both be
// unused; email is checked first so its error wins when both collide.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	existing, err := s.store.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperrors.NewEmailTakenError(in.Email)
	}

	existing, err = s.store.GetByPhone(ctx, in.PhoneNumber)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperrors.NewPhoneTakenError(in.PhoneNumber)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	user, err := s.store.Create(ctx, &models.User{
		Email:          in.Email,
		Username:       in.Username,
		FirstName:      in.FirstName,
		LastName:       in.LastName,
		PhoneNumber:    in.PhoneNumber,
		HashedPassword: string(hashed),
	})
	if err != nil {
		return nil, err
	}

	if s.mailer != nil {
		if err := s.mailer.SendWelcomeEmail(ctx, user.Email, user.FirstName); err != nil {
			s.logger.Warn("Welcome email failed", map[string]interface{}{
				"email": user.Email,
				"error": err.Error(),
			})
		}
	}

	s.logger.Info("User registered", map[string]interface{}{
		"user_id": user.ID,
		"email":   user.Email,
	})
	return user, nil
}

// Authenticate checks credentials and returns a bearer token. Unknown email
// and wrong password produce the same error.
func (s *Service) Authenticate(ctx context.Context, email, password string) (string, error) {
	user, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", apperrors.NewInvalidCredentialsError()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password)); err != nil {
		return "", apperrors.NewInvalidCredentialsError()
	}

	return s.tokens.Issue(user.Email)
}

// CurrentUser resolves a verified token subject back to the account.
func (s *Service) CurrentUser(ctx context.Context, tokenString string) (*models.User, error) {
	email, err := s.tokens.Verify(tokenString)
	if err != nil {
		return nil, err
	}

	user, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.NewUserNotFoundError("email: " + email)
	}
	return user, nil
}

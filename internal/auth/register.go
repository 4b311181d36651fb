package auth

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/svillagran/tienda-backend/internal/users"
	"github.com/svillagran/tienda-backend/pkg/config"
	"github.com/svillagran/tienda-backend/pkg/db"
	"github.com/svillagran/tienda-backend/pkg/db/models"
	pkgerrors "github.com/svillagran/tienda-backend/pkg/errors"
	"github.com/svillagran/tienda-backend/pkg/security"
)

// RegisterService creates storefront accounts.
type RegisterService interface {
	Register(ctx context.Context, req RegisterRequest) (*users.UserDTO, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type registerUserRepository interface {
	WithTx(tx *gorm.DB) *users.Repository
	Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error)
}

// RegisterServiceParams packages the dependencies for the registration flow.
type RegisterServiceParams struct {
	UserRepo       registerUserRepository
	Tx             txRunner
	PasswordConfig config.PasswordConfig
}

type registerService struct {
	users       registerUserRepository
	tx          txRunner
	passwordCfg config.PasswordConfig
}

// NewRegisterService builds a registration service with the provided dependencies.
func NewRegisterService(params RegisterServiceParams) (RegisterService, error) {
	if params.UserRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "user repository required")
	}
	if params.Tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	return &registerService{
		users:       params.UserRepo,
		tx:          params.Tx,
		passwordCfg: params.PasswordConfig,
	}, nil
}

func (s *registerService) Register(ctx context.Context, req RegisterRequest) (*users.UserDTO, error) {
	username := strings.ToLower(strings.TrimSpace(req.Username))
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if username == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "username is required")
	}
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}

	passwordHash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	var created *models.User
	txErr := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.users.WithTx(tx)
		user, err := repo.Create(ctx, users.CreateUserDTO{
			Username:     username,
			Email:        email,
			PasswordHash: passwordHash,
			RUT:          req.RUT,
			Phone:        req.Phone,
			Address:      req.Address,
			City:         req.City,
			Region:       req.Region,
		})
		if err != nil {
			return mapRegisterConflict(err)
		}
		created = user
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}
	return users.FromModel(created), nil
}

// mapRegisterConflict translates the unique index violations into the
// conflict causes the front end switches on.
func mapRegisterConflict(err error) error {
	switch {
	case db.IsUniqueViolation(err, "username"):
		return pkgerrors.New(pkgerrors.CodeConflict, "username already taken").
			WithDetails(map[string]any{"cause": "USERNAME_EXISTS"})
	case db.IsUniqueViolation(err, "email"):
		return pkgerrors.New(pkgerrors.CodeConflict, "email already registered").
			WithDetails(map[string]any{"cause": "EMAIL_EXISTS"})
	default:
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
	}
}

package accounts

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mindbridge-care/mindbridge-backend/pkg/config"
	"github.com/mindbridge-care/mindbridge-backend/pkg/db/models"
	"github.com/mindbridge-care/mindbridge-backend/pkg/enums"
	pkgerrors "github.com/mindbridge-care/mindbridge-backend/pkg/errors"
	"github.com/mindbridge-care/mindbridge-backend/pkg/logger"
	"github.com/mindbridge-care/mindbridge-backend/pkg/security"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ClientDetails carries the therapy-seeker profile fields collected at signup.
type ClientDetails struct {
	DateOfBirth    *time.Time
	Gender         *enums.Gender
	EmergencyName  *string
	EmergencyPhone *string
}

// CounsellorDetails carries the practitioner profile fields collected at
// signup. Taxonomy entries may arrive as known IDs or as free-form names.
type CounsellorDetails struct {
	LicenseNumber   string
	Bio             *string
	Gender          *enums.Gender
	YearsExperience int
	SessionFee      decimal.Decimal
	SessionDuration int
	MeetLink        *string
	Specializations []TaxonomyRef
	Approaches      []TaxonomyRef
	Languages       []TaxonomyRef
	AgeGroups       []string
}

// RegisterRequest contains the payload for onboarding a new account. Exactly
// one of the role-specific detail blocks must match the requested role.
type RegisterRequest struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     *string
	Role      enums.UserRole

	Client     *ClientDetails
	Counsellor *CounsellorDetails
}

// RegisterResult reports the created identity and its role profile.
type RegisterResult struct {
	User      *models.User
	ProfileID uuid.UUID
}

// Account bundles a user with whichever role profile it owns.
type Account struct {
	User       *models.User
	Client     *models.ClientProfile
	Counsellor *models.Counsellor
}

// Service manages account registration and profile lookups.
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*RegisterResult, error)
	Me(ctx context.Context, userID uuid.UUID) (*Account, error)
}

type service struct {
	tx          txRunner
	users       UserRepository
	profiles    ProfileRepository
	taxonomies  TaxonomyRepository
	logg        *logger.Logger
	passwordCfg config.PasswordConfig
}

// NewService builds the accounts service.
func NewService(
	tx txRunner,
	userRepo UserRepository,
	profileRepo ProfileRepository,
	taxonomyRepo TaxonomyRepository,
	logg *logger.Logger,
	passwordCfg config.PasswordConfig,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if userRepo == nil {
		return nil, fmt.Errorf("user repository required")
	}
	if profileRepo == nil {
		return nil, fmt.Errorf("profile repository required")
	}
	if taxonomyRepo == nil {
		return nil, fmt.Errorf("taxonomy repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		tx:          tx,
		users:       userRepo,
		profiles:    profileRepo,
		taxonomies:  taxonomyRepo,
		logg:        logg,
		passwordCfg: passwordCfg,
	}, nil
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (*RegisterResult, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if req.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password is required")
	}
	if req.FirstName == "" || req.LastName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "first and last name are required")
	}
	if err := validateRoleDetails(req); err != nil {
		return nil, err
	}

	passwordHash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	var result RegisterResult
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		userRepo := s.users.WithTx(tx)
		profileRepo := s.profiles.WithTx(tx)

		exists, err := userRepo.EmailExists(ctx, email)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check user email")
		}
		if exists {
			return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		}

		user := &models.User{
			ID:           uuid.New(),
			Email:        email,
			PasswordHash: passwordHash,
			FirstName:    strings.TrimSpace(req.FirstName),
			LastName:     strings.TrimSpace(req.LastName),
			Phone:        req.Phone,
			Role:         req.Role,
			IsActive:     true,
		}
		if err := userRepo.Create(ctx, user); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
		}

		switch req.Role {
		case enums.UserRoleClient:
			profile, err := s.createClientProfile(ctx, profileRepo, user.ID, req.Client)
			if err != nil {
				return err
			}
			result = RegisterResult{User: user, ProfileID: profile.ID}
		case enums.UserRoleCounsellor:
			counsellor, err := s.createCounsellor(ctx, tx, profileRepo, user.ID, req.Counsellor)
			if err != nil {
				return err
			}
			result = RegisterResult{User: user, ProfileID: counsellor.ID}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"user_id": result.User.ID,
		"role":    result.User.Role,
	}), "account registered")
	return &result, nil
}

func (s *service) createClientProfile(ctx context.Context, repo ProfileRepository, userID uuid.UUID, details *ClientDetails) (*models.ClientProfile, error) {
	profile := &models.ClientProfile{
		ID:     uuid.New(),
		UserID: userID,
	}
	if details != nil {
		profile.DateOfBirth = details.DateOfBirth
		profile.Gender = details.Gender
		profile.EmergencyName = details.EmergencyName
		profile.EmergencyPhone = details.EmergencyPhone
	}
	if err := repo.CreateClientProfile(ctx, profile); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create client profile")
	}
	return profile, nil
}

// createCounsellor resolves taxonomy rows inside the registration transaction
// so a failed upsert rolls back the whole account.
func (s *service) createCounsellor(ctx context.Context, tx *gorm.DB, repo ProfileRepository, userID uuid.UUID, details *CounsellorDetails) (*models.Counsellor, error) {
	taxonomyRepo := s.taxonomies.WithTx(tx)

	specializations, err := taxonomyRepo.ResolveSpecializations(ctx, details.Specializations)
	if err != nil {
		return nil, err
	}
	approaches, err := taxonomyRepo.ResolveApproaches(ctx, details.Approaches)
	if err != nil {
		return nil, err
	}
	languages, err := taxonomyRepo.ResolveLanguages(ctx, details.Languages)
	if err != nil {
		return nil, err
	}
	ageGroups, err := taxonomyRepo.ResolveAgeGroups(ctx, details.AgeGroups)
	if err != nil {
		return nil, err
	}

	duration := details.SessionDuration
	if duration <= 0 {
		duration = 60
	}
	counsellor := &models.Counsellor{
		ID:              uuid.New(),
		UserID:          userID,
		LicenseNumber:   strings.TrimSpace(details.LicenseNumber),
		Bio:             details.Bio,
		Gender:          details.Gender,
		YearsExperience: details.YearsExperience,
		SessionFee:      details.SessionFee,
		SessionDuration: duration,
		MeetLink:        details.MeetLink,
		IsApproved:      false,
		ProfileVisible:  true,
		Specializations: specializations,
		Approaches:      approaches,
		Languages:       languages,
		AgeGroups:       ageGroups,
	}
	if err := repo.CreateCounsellor(ctx, counsellor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create counsellor")
	}
	return counsellor, nil
}

func (s *service) Me(ctx context.Context, userID uuid.UUID) (*Account, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	account := &Account{User: user}
	switch user.Role {
	case enums.UserRoleClient:
		profile, err := s.profiles.FindClientByUserID(ctx, userID)
		if err != nil {
			return nil, err
		}
		account.Client = profile
	case enums.UserRoleCounsellor:
		counsellor, err := s.profiles.FindCounsellorByUserID(ctx, userID)
		if err != nil {
			return nil, err
		}
		account.Counsellor = counsellor
	}
	return account, nil
}

func validateRoleDetails(req RegisterRequest) error {
	switch req.Role {
	case enums.UserRoleClient:
		if req.Counsellor != nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "counsellor details not allowed for client registration")
		}
		return nil
	case enums.UserRoleCounsellor:
		if req.Client != nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "client details not allowed for counsellor registration")
		}
		if req.Counsellor == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "counsellor details required")
		}
		if strings.TrimSpace(req.Counsellor.LicenseNumber) == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "license number is required")
		}
		if req.Counsellor.SessionFee.LessThanOrEqual(decimal.Zero) {
			return pkgerrors.New(pkgerrors.CodeValidation, "session fee must be positive")
		}
		return nil
	case enums.UserRoleAdmin:
		return pkgerrors.New(pkgerrors.CodeForbidden, "admin accounts cannot self-register")
	default:
		return pkgerrors.New(pkgerrors.CodeValidation, "role must be client or counsellor")
	}
}

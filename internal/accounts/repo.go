package accounts

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mindbridge-care/mindbridge-backend/pkg/db/models"
	pkgerrors "github.com/mindbridge-care/mindbridge-backend/pkg/errors"
)

// UserRepository persists identity rows.
type UserRepository interface {
	WithTx(tx *gorm.DB) UserRepository
	Create(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository builds a user repository backed by the provided DB handle.
func NewUserRepository(db *gorm.DB) UserRepository {
	if db == nil {
		return nil
	}
	return &userRepository{db: db}
}

func (r *userRepository) WithTx(tx *gorm.DB) UserRepository {
	if tx == nil {
		return r
	}
	return &userRepository{db: tx}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error
	return count > 0, err
}

func (r *userRepository) TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Update("last_login_at", at).Error
}

// ProfileRepository persists client and counsellor profiles plus their
// session counters.
type ProfileRepository interface {
	WithTx(tx *gorm.DB) ProfileRepository
	CreateClientProfile(ctx context.Context, profile *models.ClientProfile) error
	CreateCounsellor(ctx context.Context, counsellor *models.Counsellor) error
	FindClientByUserID(ctx context.Context, userID uuid.UUID) (*models.ClientProfile, error)
	FindClientByID(ctx context.Context, id uuid.UUID) (*models.ClientProfile, error)
	FindCounsellorByUserID(ctx context.Context, userID uuid.UUID) (*models.Counsellor, error)
	FindCounsellorByID(ctx context.Context, id uuid.UUID) (*models.Counsellor, error)
	RecordClientSession(ctx context.Context, clientID uuid.UUID, sessionDate time.Time) error
	RecordCounsellorSession(ctx context.Context, counsellorID uuid.UUID, newClient bool) error
}

type profileRepository struct {
	db *gorm.DB
}

// NewProfileRepository builds a profile repository backed by the provided DB handle.
func NewProfileRepository(db *gorm.DB) ProfileRepository {
	if db == nil {
		return nil
	}
	return &profileRepository{db: db}
}

func (r *profileRepository) WithTx(tx *gorm.DB) ProfileRepository {
	if tx == nil {
		return r
	}
	return &profileRepository{db: tx}
}

func (r *profileRepository) CreateClientProfile(ctx context.Context, profile *models.ClientProfile) error {
	return r.db.WithContext(ctx).Create(profile).Error
}

func (r *profileRepository) CreateCounsellor(ctx context.Context, counsellor *models.Counsellor) error {
	return r.db.WithContext(ctx).Create(counsellor).Error
}

func (r *profileRepository) FindClientByUserID(ctx context.Context, userID uuid.UUID) (*models.ClientProfile, error) {
	var profile models.ClientProfile
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "client profile not found")
		}
		return nil, err
	}
	return &profile, nil
}

func (r *profileRepository) FindClientByID(ctx context.Context, id uuid.UUID) (*models.ClientProfile, error) {
	var profile models.ClientProfile
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "client profile not found")
		}
		return nil, err
	}
	return &profile, nil
}

func (r *profileRepository) FindCounsellorByUserID(ctx context.Context, userID uuid.UUID) (*models.Counsellor, error) {
	var counsellor models.Counsellor
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&counsellor).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "counsellor not found")
		}
		return nil, err
	}
	return &counsellor, nil
}

func (r *profileRepository) FindCounsellorByID(ctx context.Context, id uuid.UUID) (*models.Counsellor, error) {
	var counsellor models.Counsellor
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&counsellor).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "counsellor not found")
		}
		return nil, err
	}
	return &counsellor, nil
}

// RecordClientSession bumps the client's session counter and last session date.
func (r *profileRepository) RecordClientSession(ctx context.Context, clientID uuid.UUID, sessionDate time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.ClientProfile{}).
		Where("id = ?", clientID).
		Updates(map[string]any{
			"total_sessions":    gorm.Expr("total_sessions + 1"),
			"last_session_date": sessionDate,
		}).Error
}

// RecordCounsellorSession bumps the counsellor's session counter and, for a
// first-time pairing, the distinct client counter.
func (r *profileRepository) RecordCounsellorSession(ctx context.Context, counsellorID uuid.UUID, newClient bool) error {
	updates := map[string]any{
		"total_sessions": gorm.Expr("total_sessions + 1"),
	}
	if newClient {
		updates["total_clients"] = gorm.Expr("total_clients + 1")
	}
	return r.db.WithContext(ctx).
		Model(&models.Counsellor{}).
		Where("id = ?", counsellorID).
		Updates(updates).Error
}

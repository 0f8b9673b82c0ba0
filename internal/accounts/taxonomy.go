package accounts

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/mindbridge-care/mindbridge-backend/pkg/db/models"
	pkgerrors "github.com/mindbridge-care/mindbridge-backend/pkg/errors"
)

// AgeGroupRanges maps the fixed age bracket names to their bounds.
var AgeGroupRanges = map[string]struct{ Min, Max int }{
	"Children":    {6, 12},
	"Adolescents": {13, 17},
	"Adults":      {18, 64},
	"Seniors":     {65, 100},
}

// TaxonomyRef selects an existing taxonomy row by numeric ID or requests a
// name-keyed upsert when the ID is absent.
type TaxonomyRef struct {
	ID   uint
	Name string
}

// TaxonomyRepository resolves counsellor taxonomy rows, creating named
// entries on first use.
type TaxonomyRepository interface {
	WithTx(tx *gorm.DB) TaxonomyRepository
	ResolveSpecializations(ctx context.Context, refs []TaxonomyRef) ([]models.Specialization, error)
	ResolveApproaches(ctx context.Context, refs []TaxonomyRef) ([]models.TherapyApproach, error)
	ResolveLanguages(ctx context.Context, refs []TaxonomyRef) ([]models.Language, error)
	ResolveAgeGroups(ctx context.Context, names []string) ([]models.AgeGroup, error)
}

type taxonomyRepository struct {
	db *gorm.DB
}

// NewTaxonomyRepository builds a taxonomy repository backed by the provided DB handle.
func NewTaxonomyRepository(db *gorm.DB) TaxonomyRepository {
	if db == nil {
		return nil
	}
	return &taxonomyRepository{db: db}
}

func (r *taxonomyRepository) WithTx(tx *gorm.DB) TaxonomyRepository {
	if tx == nil {
		return r
	}
	return &taxonomyRepository{db: tx}
}

func (r *taxonomyRepository) ResolveSpecializations(ctx context.Context, refs []TaxonomyRef) ([]models.Specialization, error) {
	out := make([]models.Specialization, 0, len(refs))
	for _, ref := range refs {
		var row models.Specialization
		if err := r.resolve(ctx, ref, &row); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, nil
}

func (r *taxonomyRepository) ResolveApproaches(ctx context.Context, refs []TaxonomyRef) ([]models.TherapyApproach, error) {
	out := make([]models.TherapyApproach, 0, len(refs))
	for _, ref := range refs {
		var row models.TherapyApproach
		if err := r.resolve(ctx, ref, &row); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, nil
}

func (r *taxonomyRepository) ResolveLanguages(ctx context.Context, refs []TaxonomyRef) ([]models.Language, error) {
	out := make([]models.Language, 0, len(refs))
	for _, ref := range refs {
		var row models.Language
		if err := r.resolve(ctx, ref, &row); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, nil
}

// ResolveAgeGroups looks up the fixed bracket table, seeding rows with the
// canonical min/max on first use.
func (r *taxonomyRepository) ResolveAgeGroups(ctx context.Context, names []string) ([]models.AgeGroup, error) {
	out := make([]models.AgeGroup, 0, len(names))
	for _, name := range names {
		bounds, ok := AgeGroupRanges[name]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown age group").WithDetails(map[string]any{"age_group": name})
		}
		var row models.AgeGroup
		err := r.db.WithContext(ctx).Where("name = ?", name).First(&row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			row = models.AgeGroup{Name: name, MinAge: bounds.Min, MaxAge: bounds.Max}
			err = r.db.WithContext(ctx).Create(&row).Error
		}
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, nil
}

// resolve fills dest from a numeric ID when given, falling back to a
// name-keyed get-or-create.
func (r *taxonomyRepository) resolve(ctx context.Context, ref TaxonomyRef, dest any) error {
	if ref.ID != 0 {
		err := r.db.WithContext(ctx).Where("id = ?", ref.ID).First(dest).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
	}

	name := strings.TrimSpace(ref.Name)
	if name == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "taxonomy entry needs an id or name")
	}

	err := r.db.WithContext(ctx).Where("name = ?", name).First(dest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		switch row := dest.(type) {
		case *models.Specialization:
			row.Name = name
		case *models.TherapyApproach:
			row.Name = name
		case *models.Language:
			row.Name = name
		default:
			return pkgerrors.New(pkgerrors.CodeInternal, "unsupported taxonomy type")
		}
		return r.db.WithContext(ctx).Create(dest).Error
	}
	return err
}

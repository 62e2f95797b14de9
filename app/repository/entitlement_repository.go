package repository

import (
	"context"
	"time"

	"github.com/ManuelReschke/Paywall/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var grantKeyColumns = []clause.Column{
	{Name: "user_id"},
	{Name: "content_type"},
	{Name: "content_id"},
}

// entitlementRepository implements EntitlementStore
type entitlementRepository struct {
	db *gorm.DB
}

// NewEntitlementRepository creates a new entitlement repository instance
func NewEntitlementRepository(db *gorm.DB) EntitlementStore {
	return &entitlementRepository{db: db}
}

// IsGranted reports whether a grant exists and has not expired at now
func (r *entitlementRepository) IsGranted(ctx context.Context, userID string, ct models.ContentType, contentID uint64, now time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.EntitlementGrant{}).
		Where("user_id = ? AND content_type = ? AND content_id = ?", userID, ct, contentID).
		Where("expires_at IS NULL OR expires_at > ?", now).
		Count(&count).Error
	return count > 0, err
}

// Find returns the stored grant regardless of expiry
func (r *entitlementRepository) Find(ctx context.Context, userID string, ct models.ContentType, contentID uint64) (*models.EntitlementGrant, error) {
	var g models.EntitlementGrant
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND content_type = ? AND content_id = ?", userID, ct, contentID).
		First(&g).Error
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// Grant inserts the grant with ON CONFLICT DO NOTHING on the unique key. When the
// key is taken, an expired row is renewed by a conditional update; if that
// touches nothing the existing grant is still valid and ErrGrantConflict is
// returned. Both paths are single statements, so concurrent callers on the same
// key see exactly one success.
func (r *entitlementRepository) Grant(ctx context.Context, grant *models.EntitlementGrant, now time.Time) error {
	db := r.db.WithContext(ctx)
	res := db.Clauses(clause.OnConflict{
		Columns:   grantKeyColumns,
		DoNothing: true,
	}).Create(grant)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	res = db.Model(&models.EntitlementGrant{}).
		Where("user_id = ? AND content_type = ? AND content_id = ?", grant.UserID, grant.ContentType, grant.ContentID).
		Where("expires_at IS NOT NULL AND expires_at <= ?", now).
		Updates(map[string]interface{}{
			"granted_at": grant.GrantedAt,
			"expires_at": grant.ExpiresAt,
			"tx_ref":     grant.TxRef,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrGrantConflict
	}
	return nil
}

// GrantMany bulk-inserts grants; any pre-existing key fails the whole batch
func (r *entitlementRepository) GrantMany(ctx context.Context, grants []models.EntitlementGrant) error {
	if len(grants) == 0 {
		return nil
	}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   grantKeyColumns,
		DoNothing: true,
	}).Create(&grants)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != int64(len(grants)) {
		return ErrGrantConflict
	}
	return nil
}

// ListGranted returns the ids of the work's items with a valid grant
func (r *entitlementRepository) ListGranted(ctx context.Context, userID string, ct models.ContentType, workID uint64, now time.Time) ([]uint64, error) {
	spec, ok := catalogSpecs[ct]
	if !ok || spec.workColumn == "" {
		return nil, ErrUnsupportedContentType
	}
	db := r.db.WithContext(ctx)
	members := db.Table(spec.table).Select("id").Where(spec.workColumn+" = ?", workID)

	var ids []uint64
	err := db.Model(&models.EntitlementGrant{}).
		Where("user_id = ? AND content_type = ?", userID, ct).
		Where("content_id IN (?)", members).
		Where("expires_at IS NULL OR expires_at > ?", now).
		Order("content_id ASC").
		Pluck("content_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

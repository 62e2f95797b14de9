package unlock

import (
	"context"
	"errors"

	"github.com/ManuelReschke/Paywall/app/models"
	"gorm.io/gorm"
)

// ListUnlockedInWork returns the sub-items of a work the user owns right now,
// together with the user's overlay flags.
func (s *Service) ListUnlockedInWork(ctx context.Context, userID string, ct models.ContentType, workID uint64) (*WorkUnlocks, error) {
	if userID == "" || !ct.Valid() || !ct.HasWorks() || workID == 0 {
		return nil, ErrInvalidArgument
	}
	overlay, err := s.overlays.Resolve(ctx, userID)
	if err != nil {
		return nil, classify(err)
	}
	ids, err := s.store.GetRepositories().Entitlement.ListGranted(ctx, userID, ct, workID, s.clock())
	if err != nil {
		return nil, classify(err)
	}
	if ids == nil {
		ids = []uint64{}
	}
	return &WorkUnlocks{
		ContentType: ct,
		WorkID:      workID,
		UnlockedIDs: ids,
		Overlay:     overlay,
	}, nil
}

// AccessStatus reports whether the user may open an item without changing
// anything.
func (s *Service) AccessStatus(ctx context.Context, userID string, ct models.ContentType, contentID uint64) (*Access, error) {
	if userID == "" || !ct.Valid() || contentID == 0 {
		return nil, ErrInvalidArgument
	}
	overlay, err := s.overlays.Resolve(ctx, userID)
	if err != nil {
		return nil, classify(err)
	}

	repos := s.store.GetRepositories()
	catalog, err := repos.Catalog(ct)
	if err != nil {
		return nil, classify(err)
	}
	item, err := catalog.Lookup(ctx, contentID)
	if err != nil {
		return nil, classify(err)
	}

	now := s.clock()
	access := &Access{
		ContentType: ct,
		ContentID:   contentID,
		Price:       item.Price,
		VipGated:    item.VipGated,
		Overlay:     overlay,
	}

	grant, err := repos.Entitlement.Find(ctx, userID, ct, contentID)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
	case err != nil:
		return nil, classify(err)
	case grant.IsValidAt(now):
		access.Unlocked = true
		access.ExpiresAt = grant.ExpiresAt
	}

	mode := decide(item, overlay)
	access.CanAccess = access.Unlocked || mode == chargeFree || mode == chargeBypass
	return access, nil
}

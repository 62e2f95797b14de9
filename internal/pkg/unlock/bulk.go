package unlock

import (
	"context"

	"github.com/ManuelReschke/Paywall/app/models"
	"github.com/ManuelReschke/Paywall/app/repository"
)

// WholeWorkPrice applies the bundle discount to origin, rounding half up.
// With percent 80 this is round(origin * 0.8).
func WholeWorkPrice(origin, percent int64) int64 {
	if origin <= 0 {
		return 0
	}
	return (origin*percent + 50) / 100
}

// UnlockWhole buys every priced, not yet owned sub-item of a work in one
// transaction with a single aggregate ledger entry.
func (s *Service) UnlockWhole(ctx context.Context, userID string, ct models.ContentType, workID uint64) WholeResult {
	res := WholeResult{ContentType: ct, WorkID: workID}
	if userID == "" || !ct.Valid() || !ct.HasWorks() || workID == 0 {
		return s.failWhole(res, ErrInvalidArgument)
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.TxTimeout)
	defer cancel()

	overlay, err := s.overlays.Resolve(ctx, userID)
	if err != nil {
		return s.failWhole(res, classify(err))
	}

	now := s.clock()
	txRef := s.newTxRef()
	nothing := false

	err = s.store.Transaction(ctx, func(repos *repository.Repositories) error {
		catalog, err := repos.Catalog(ct)
		if err != nil {
			return err
		}
		members, err := catalog.WorkMembers(ctx, workID)
		if err != nil {
			return err
		}
		owned, err := repos.Entitlement.ListGranted(ctx, userID, ct, workID, now)
		if err != nil {
			return err
		}
		ownedSet := make(map[uint64]struct{}, len(owned))
		for _, id := range owned {
			ownedSet[id] = struct{}{}
		}

		var origin int64
		grants := make([]models.EntitlementGrant, 0, len(members))
		ids := make([]uint64, 0, len(members))
		for _, m := range members {
			if _, ok := ownedSet[m.ContentID]; ok {
				continue
			}
			origin += m.Price
			ids = append(ids, m.ContentID)
			grants = append(grants, models.EntitlementGrant{
				UserID:      userID,
				ContentType: ct,
				ContentID:   m.ContentID,
				TxRef:       txRef,
				GrantedAt:   now,
				ExpiresAt:   ct.ExpiresAt(now, s.cfg.VideoTTL),
			})
		}
		if len(grants) == 0 {
			nothing = true
			return nil
		}

		pay := WholeWorkPrice(origin, s.cfg.DiscountPercent)
		if overlay.BypassCoin {
			pay = 0
			res.Bypassed = true
		}

		if err := repos.Entitlement.GrantMany(ctx, grants); err != nil {
			return err
		}

		res.OriginAmount = origin
		res.PaidAmount = pay
		res.SavedAmount = origin - pay
		res.UnlockedCount = len(ids)
		res.UnlockedIDs = ids

		switch {
		case res.Bypassed:
			_, err := repos.Ledger.Append(ctx, &models.LedgerEntry{
				UserID:      userID,
				Delta:       0,
				ContentType: ct,
				Scene:       models.SceneVipBypass,
				ContentID:   workID,
				TxRef:       txRef,
				CreatedAt:   now,
			})
			return err
		case pay == 0:
			return nil
		}

		balance, err := repos.Wallet.Debit(ctx, userID, pay)
		if err != nil {
			return err
		}
		res.Balance = &balance
		_, err = repos.Ledger.Append(ctx, &models.LedgerEntry{
			UserID:      userID,
			Delta:       -pay,
			ContentType: ct,
			Scene:       models.SceneWholeUnlock,
			ContentID:   workID,
			TxRef:       txRef,
			CreatedAt:   now,
		})
		return err
	})
	if err != nil {
		return s.failWhole(res, classify(err))
	}
	if nothing {
		res.Status = StatusNothingToUnlock
		return res
	}
	res.Status = StatusUnlocked
	res.TxRef = txRef
	return res
}

func (s *Service) failWhole(res WholeResult, err error) WholeResult {
	status := statusFor(err)
	if status == StatusTransientFailure {
		s.logFailure("whole "+res.ContentType.String(), res.WorkID, err)
	}
	return WholeResult{
		Status:      status,
		ContentType: res.ContentType,
		WorkID:      res.WorkID,
		Err:         err,
	}
}

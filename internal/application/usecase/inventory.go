package usecase

import (
	"context"
	"encoding/json"
	"time"

	"economy-service/internal/domain"
	"economy-service/internal/infrastructure/repository"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type PurchaseRequest struct {
	ItemID     string `json:"itemId"`
	Method     string `json:"method"`
	AdToken    string `json:"adToken,omitempty"`
	PurchaseID string `json:"purchaseId,omitempty"`
}

type PurchaseResult struct {
	Owned               bool    `json:"owned"`
	IsConsumable        bool    `json:"isConsumable"`
	CurrencyLeft        float64 `json:"currencyLeft"`
	PremiumCurrencyLeft int64   `json:"premiumCurrencyLeft"`
	ExpiresAtMillis     *int64  `json:"expiresAtMillis"`
}

// PurchaseItem acquires a catalog item via soft currency, a one-time ad
// token or premium currency. Retrying with the same purchase id returns the
// prior result without charging again. Consumables stack: a repeat purchase
// extends the expiry from the later of now and the previous expiry.
func (uc *EconomyUseCase) PurchaseItem(ctx context.Context, uid string, req PurchaseRequest) (*PurchaseResult, error) {
	if req.ItemID == "" {
		return nil, status.Error(codes.InvalidArgument, "itemId is required")
	}
	switch req.Method {
	case domain.PurchaseMethodGet, domain.PurchaseMethodAd, domain.PurchaseMethodPremium:
	default:
		return nil, status.Error(codes.InvalidArgument, "unknown purchase method")
	}
	now := uc.nowUTC()

	var out *PurchaseResult
	err := uc.store.Atomic(ctx, func(tx *repository.Tx) error {
		if req.PurchaseID != "" {
			rec, err := tx.Idempotency(domain.IdemScopePurchase, req.PurchaseID)
			if err == nil {
				var prior PurchaseResult
				if err := json.Unmarshal([]byte(rec.ResultJSON), &prior); err != nil {
					return status.Error(codes.Internal, "corrupt purchase record")
				}
				out = &prior
				return nil
			}
			if !isNotFound(err) {
				return err
			}
		}

		s, err := uc.settleAll(tx, uid, now)
		if err != nil {
			return err
		}

		item, err := tx.Item(req.ItemID)
		if err != nil {
			if isNotFound(err) {
				return status.Error(codes.NotFound, "Item not found")
			}
			return err
		}

		if item.RequiredReferrals > s.user.ReferralCount {
			return status.Errorf(codes.FailedPrecondition, "Requires %d referrals", item.RequiredReferrals)
		}

		// Read phase continues: fetch the rows the write phase will touch.
		var inv *domain.InventoryItem
		existingInv, invErr := tx.InventoryItem(uid, req.ItemID)
		if invErr != nil && !isNotFound(invErr) {
			return invErr
		}
		if invErr == nil {
			inv = existingInv
		}

		if !item.Consumable && inv != nil && inv.Owned {
			return status.Error(codes.FailedPrecondition, "Already owned")
		}

		var consumable *domain.ActiveConsumable
		var expiresAt time.Time
		if item.Consumable {
			existing, conErr := tx.ActiveConsumable(uid, req.ItemID)
			if conErr != nil && !isNotFound(conErr) {
				return conErr
			}
			base := now
			if conErr == nil && existing.ExpiresAt.After(now) {
				base = existing.ExpiresAt
			}
			expiresAt = base.Add(time.Duration(item.DurationSec) * time.Second)
			consumable = &domain.ActiveConsumable{
				UID:             uid,
				ItemID:          req.ItemID,
				Active:          true,
				ExpiresAt:       expiresAt,
				LastActivatedAt: now,
			}
		}

		// Charge. Still read phase: the ad-token marker is checked here and
		// staged with the rest of the writes below.
		adRecordNeeded := false
		switch req.Method {
		case domain.PurchaseMethodGet:
			if !item.AllowGet {
				return status.Error(codes.FailedPrecondition, "Item is not purchasable with currency")
			}
			if s.user.Currency < item.PriceGet {
				return status.Error(codes.FailedPrecondition, "Insufficient balance")
			}
			s.user.Currency -= item.PriceGet
		case domain.PurchaseMethodAd:
			if !item.AllowAd {
				return status.Error(codes.FailedPrecondition, "Item is not an ad reward")
			}
			if req.AdToken == "" {
				return status.Error(codes.InvalidArgument, "adToken is required")
			}
			_, tokErr := tx.Idempotency(domain.IdemScopeAdPurchase, req.AdToken)
			if tokErr == nil {
				return status.Error(codes.AlreadyExists, "Ad reward already claimed")
			}
			if !isNotFound(tokErr) {
				return tokErr
			}
			adRecordNeeded = true
		case domain.PurchaseMethodPremium:
			if !item.AllowPremium {
				return status.Error(codes.FailedPrecondition, "Item is not purchasable with premium currency")
			}
			if s.user.PremiumCurrency < item.PricePremium {
				return status.Error(codes.FailedPrecondition, "Insufficient premium balance")
			}
			s.user.PremiumCurrency -= item.PricePremium
		}

		res := &PurchaseResult{
			IsConsumable:        item.Consumable,
			CurrencyLeft:        s.user.Currency,
			PremiumCurrencyLeft: s.user.PremiumCurrency,
		}

		if item.Consumable {
			// Replace any prior row for this item in the active set before
			// the stat rebuild, so the new expiry is what counts.
			actives := make([]domain.ActiveConsumable, 0, len(s.active)+1)
			for _, a := range s.active {
				if a.ItemID != req.ItemID {
					actives = append(actives, a)
				}
			}
			actives = append(actives, *consumable)

			loadout := s.loadout
			if loadout == nil {
				loadout, err = tx.Loadout(uid)
				if err != nil {
					if !isNotFound(err) {
						return err
					}
					loadout = &domain.Loadout{UID: uid, ItemIDsJSON: "[]"}
				}
			}
			blob, err := recomputeStatsBlob(tx, loadout, actives, now)
			if err != nil {
				return err
			}
			s.user.StatsJSON = blob

			if inv == nil {
				inv = &domain.InventoryItem{UID: uid, ItemID: req.ItemID, Owned: true, Quantity: 0, AcquiredAt: now}
			}
			inv.Quantity++
			tx.StageUpsert(consumable)
			tx.StageUpsert(inv)

			ms := expiresAt.UnixMilli()
			res.ExpiresAtMillis = &ms
		} else {
			tx.StageCreate(&domain.InventoryItem{
				UID:        uid,
				ItemID:     req.ItemID,
				Owned:      true,
				Quantity:   1,
				AcquiredAt: now,
			})
			res.Owned = true
		}

		s.user.ItemsPurchasedCount++
		s.stageWrites(tx)

		if adRecordNeeded {
			tx.StageCreate(&domain.IdempotencyRecord{
				Scope:     domain.IdemScopeAdPurchase,
				Token:     req.AdToken,
				UID:       uid,
				CreatedAt: now,
			})
		}

		if req.PurchaseID != "" {
			raw, _ := json.Marshal(res)
			tx.StageCreate(&domain.IdempotencyRecord{
				Scope:      domain.IdemScopePurchase,
				Token:      req.PurchaseID,
				UID:        uid,
				ResultJSON: string(raw),
				CreatedAt:  now,
			})
		}

		out = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

type EquipResult struct {
	ItemID string `json:"itemId"`
}

// EquipItem adds an owned item to the loadout and rebuilds the stat blob
// from the post-transition equipped set plus active consumables.
func (uc *EconomyUseCase) EquipItem(ctx context.Context, uid, itemID string) (*EquipResult, error) {
	if itemID == "" {
		return nil, status.Error(codes.InvalidArgument, "itemId is required")
	}
	now := uc.nowUTC()

	err := uc.store.Atomic(ctx, func(tx *repository.Tx) error {
		s, err := uc.settleAll(tx, uid, now)
		if err != nil {
			return err
		}

		item, err := tx.Item(itemID)
		if err != nil {
			if isNotFound(err) {
				return status.Error(codes.NotFound, "Item not found")
			}
			return err
		}
		if item.Consumable {
			return status.Error(codes.FailedPrecondition, "Consumables cannot be equipped")
		}

		inv, err := tx.InventoryItem(uid, itemID)
		if err != nil {
			if isNotFound(err) {
				return status.Error(codes.FailedPrecondition, "Item is not owned")
			}
			return err
		}
		if !inv.Owned {
			return status.Error(codes.FailedPrecondition, "Item is not owned")
		}

		loadout := s.loadout
		if loadout == nil {
			loadout, err = tx.Loadout(uid)
			if err != nil {
				if !isNotFound(err) {
					return err
				}
				loadout = &domain.Loadout{UID: uid, ItemIDsJSON: "[]"}
			}
		}

		if !loadout.Contains(itemID) {
			ids := loadout.Items()
			if len(ids) >= domain.MaxLoadoutSlots {
				return status.Errorf(codes.ResourceExhausted, "Loadout is full (%d slots)", domain.MaxLoadoutSlots)
			}
			loadout.SetItems(append(ids, itemID))
		}

		blob, err := recomputeStatsBlob(tx, loadout, s.active, now)
		if err != nil {
			return err
		}
		s.user.StatsJSON = blob
		inv.Equipped = true

		tx.StageUpsert(loadout)
		tx.StageSave(inv)
		s.stageWrites(tx)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &EquipResult{ItemID: itemID}, nil
}

// UnequipItem removes an item from the loadout. Unequipping an item that is
// not equipped is a no-op, not an error.
func (uc *EconomyUseCase) UnequipItem(ctx context.Context, uid, itemID string) (*EquipResult, error) {
	if itemID == "" {
		return nil, status.Error(codes.InvalidArgument, "itemId is required")
	}
	now := uc.nowUTC()

	err := uc.store.Atomic(ctx, func(tx *repository.Tx) error {
		s, err := uc.settleAll(tx, uid, now)
		if err != nil {
			return err
		}

		loadout := s.loadout
		if loadout == nil {
			loadout, err = tx.Loadout(uid)
			if err != nil {
				if isNotFound(err) {
					// Nothing equipped at all; nothing to do.
					s.stageWrites(tx)
					return nil
				}
				return err
			}
		}

		var inv *domain.InventoryItem
		existing, invErr := tx.InventoryItem(uid, itemID)
		if invErr == nil {
			inv = existing
		} else if !isNotFound(invErr) {
			return invErr
		}

		if loadout.Contains(itemID) {
			ids := loadout.Items()
			kept := make([]string, 0, len(ids))
			for _, id := range ids {
				if id != itemID {
					kept = append(kept, id)
				}
			}
			loadout.SetItems(kept)

			blob, err := recomputeStatsBlob(tx, loadout, s.active, now)
			if err != nil {
				return err
			}
			s.user.StatsJSON = blob
			tx.StageUpsert(loadout)
		}

		if inv != nil && inv.Equipped {
			inv.Equipped = false
			tx.StageSave(inv)
		}

		s.stageWrites(tx)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &EquipResult{ItemID: itemID}, nil
}

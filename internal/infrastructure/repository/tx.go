package repository

import (
	"errors"

	"economy-service/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrReadAfterWrite means a transactional read was issued after the write
// phase started. The store primitive requires all reads before any write;
// Tx enforces the ordering instead of leaving it to convention.
var ErrReadAfterWrite = errors.New("repository: transactional read after staged write")

// Tx is one read-phase-then-write-phase transaction. All reads lock the rows
// they touch (on engines that support it); writes are staged and flushed
// together after the callback returns, so no read can observe a partial
// write and no write lands if the callback fails.
type Tx struct {
	db     *gorm.DB
	staged []func(*gorm.DB) error
}

func (t *Tx) locked() *gorm.DB {
	// SQLite (tests) serializes writers at the database level and rejects
	// FOR UPDATE syntax.
	if t.db.Dialector.Name() == "postgres" {
		return t.db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return t.db
}

func (t *Tx) guardRead() error {
	if len(t.staged) > 0 {
		return ErrReadAfterWrite
	}
	return nil
}

// --- read phase ---

func (t *Tx) User(uid string) (*domain.UserAccount, error) {
	if err := t.guardRead(); err != nil {
		return nil, err
	}
	var user domain.UserAccount
	err := t.locked().Where("uid = ?", uid).First(&user).Error
	return &user, err
}

func (t *Tx) UserByUsername(username string) (*domain.UserAccount, error) {
	if err := t.guardRead(); err != nil {
		return nil, err
	}
	var user domain.UserAccount
	err := t.locked().Where("username = ?", username).First(&user).Error
	return &user, err
}

func (t *Tx) UserByReferralCode(code string) (*domain.UserAccount, error) {
	if err := t.guardRead(); err != nil {
		return nil, err
	}
	var user domain.UserAccount
	err := t.locked().Where("referral_code = ?", code).First(&user).Error
	return &user, err
}

func (t *Tx) Autopilot(uid string) (*domain.AutopilotState, error) {
	if err := t.guardRead(); err != nil {
		return nil, err
	}
	var state domain.AutopilotState
	err := t.locked().Where("uid = ?", uid).First(&state).Error
	return &state, err
}

func (t *Tx) Streak(uid string) (*domain.StreakState, error) {
	if err := t.guardRead(); err != nil {
		return nil, err
	}
	var state domain.StreakState
	err := t.locked().Where("uid = ?", uid).First(&state).Error
	return &state, err
}

func (t *Tx) InventoryItem(uid, itemID string) (*domain.InventoryItem, error) {
	if err := t.guardRead(); err != nil {
		return nil, err
	}
	var item domain.InventoryItem
	err := t.locked().Where("uid = ? AND item_id = ?", uid, itemID).First(&item).Error
	return &item, err
}

func (t *Tx) Loadout(uid string) (*domain.Loadout, error) {
	if err := t.guardRead(); err != nil {
		return nil, err
	}
	var loadout domain.Loadout
	err := t.locked().Where("uid = ?", uid).First(&loadout).Error
	return &loadout, err
}

func (t *Tx) ActiveConsumables(uid string) ([]domain.ActiveConsumable, error) {
	if err := t.guardRead(); err != nil {
		return nil, err
	}
	var list []domain.ActiveConsumable
	err := t.locked().Where("uid = ?", uid).Find(&list).Error
	return list, err
}

func (t *Tx) ActiveConsumable(uid, itemID string) (*domain.ActiveConsumable, error) {
	if err := t.guardRead(); err != nil {
		return nil, err
	}
	var c domain.ActiveConsumable
	err := t.locked().Where("uid = ? AND item_id = ?", uid, itemID).First(&c).Error
	return &c, err
}

func (t *Tx) Idempotency(scope, token string) (*domain.IdempotencyRecord, error) {
	if err := t.guardRead(); err != nil {
		return nil, err
	}
	var rec domain.IdempotencyRecord
	err := t.locked().Where("scope = ? AND token = ?", scope, token).First(&rec).Error
	return &rec, err
}

// Item reads the shared catalog. Read-only and never mutated here, so no
// row lock is taken.
func (t *Tx) Item(itemID string) (*domain.ItemDefinition, error) {
	if err := t.guardRead(); err != nil {
		return nil, err
	}
	var item domain.ItemDefinition
	err := t.db.Where("item_id = ?", itemID).First(&item).Error
	return &item, err
}

func (t *Tx) Items(itemIDs []string) ([]domain.ItemDefinition, error) {
	if err := t.guardRead(); err != nil {
		return nil, err
	}
	if len(itemIDs) == 0 {
		return nil, nil
	}
	var items []domain.ItemDefinition
	err := t.db.Where("item_id IN ?", itemIDs).Find(&items).Error
	return items, err
}

// Config reads the global rates row as an immutable snapshot.
func (t *Tx) Config() (domain.ConfigSnapshot, error) {
	if err := t.guardRead(); err != nil {
		return domain.ConfigSnapshot{}, err
	}
	var cfg domain.EconomyConfig
	if err := t.db.First(&cfg, 1).Error; err != nil {
		return domain.ConfigSnapshot{}, err
	}
	return cfg.Snapshot(), nil
}

// CountUsersWithScoreAbove backs the rank writer: rank = count + 1.
func (t *Tx) CountUsersWithScoreAbove(score int64) (int64, error) {
	if err := t.guardRead(); err != nil {
		return 0, err
	}
	var count int64
	err := t.db.Model(&domain.UserAccount{}).
		Where("max_score > ?", score).
		Count(&count).Error
	return count, err
}

// --- write phase ---

func (t *Tx) StageSave(v any) {
	t.staged = append(t.staged, func(db *gorm.DB) error {
		return db.Save(v).Error
	})
}

func (t *Tx) StageCreate(v any) {
	t.staged = append(t.staged, func(db *gorm.DB) error {
		return db.Create(v).Error
	})
}

// StageDelete deletes by the primary key fields set on v.
func (t *Tx) StageDelete(v any) {
	t.staged = append(t.staged, func(db *gorm.DB) error {
		return db.Delete(v).Error
	})
}

// StageUpsert saves the leaderboard entry with a conflict-replace, since the
// row may or may not exist yet.
func (t *Tx) StageUpsert(v any) {
	t.staged = append(t.staged, func(db *gorm.DB) error {
		return db.Clauses(clause.OnConflict{UpdateAll: true}).Create(v).Error
	})
}

func (t *Tx) flush() error {
	for _, write := range t.staged {
		if err := write(t.db); err != nil {
			return err
		}
	}
	return nil
}

package usecase

import (
	"context"
	"testing"
	"time"

	"economy-service/internal/domain"
	"economy-service/internal/infrastructure/repository"
	"economy-service/internal/stats"

	"github.com/glebarez/sqlite"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testEnv struct {
	t   *testing.T
	uc  *EconomyUseCase
	db  *gorm.DB
	ctx context.Context
	now time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&domain.UserAccount{},
		&domain.AutopilotState{},
		&domain.StreakState{},
		&domain.InventoryItem{},
		&domain.ActiveConsumable{},
		&domain.Loadout{},
		&domain.ItemDefinition{},
		&domain.EconomyConfig{},
		&domain.IdempotencyRecord{},
		&domain.LeaderboardEntry{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	store := repository.NewStore(db)
	ctx := context.Background()
	if err := store.SeedDefaults(ctx); err != nil {
		t.Fatalf("seed: %v", err)
	}

	env := &testEnv{
		t:   t,
		db:  db,
		ctx: ctx,
		now: time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC),
	}
	env.uc = NewEconomyUseCase(store, nil)
	env.uc.now = func() time.Time { return env.now }
	return env
}

func (e *testEnv) advance(d time.Duration) {
	e.now = e.now.Add(d)
}

func (e *testEnv) register(uid, username string) *RegisterResult {
	e.t.Helper()
	res, err := e.uc.Register(e.ctx, uid, RegisterRequest{Username: username})
	if err != nil {
		e.t.Fatalf("register %s: %v", uid, err)
	}
	return res
}

func (e *testEnv) user(uid string) domain.UserAccount {
	e.t.Helper()
	var u domain.UserAccount
	if err := e.db.Where("uid = ?", uid).First(&u).Error; err != nil {
		e.t.Fatalf("load user %s: %v", uid, err)
	}
	return u
}

func (e *testEnv) setUser(uid string, updates map[string]any) {
	e.t.Helper()
	if err := e.db.Model(&domain.UserAccount{}).Where("uid = ?", uid).Updates(updates).Error; err != nil {
		e.t.Fatalf("update user %s: %v", uid, err)
	}
}

func wantCode(t *testing.T, err error, code codes.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("want error code %v, got nil", code)
	}
	if got := status.Code(err); got != code {
		t.Fatalf("want error code %v, got %v (%v)", code, got, err)
	}
}

func TestRegisterIdempotent(t *testing.T) {
	e := newTestEnv(t)

	first := e.register("u1", "alice")
	if !first.Created {
		t.Fatal("first register should create the account")
	}
	if first.ReferralCode == "" {
		t.Fatal("register should mint a referral code")
	}

	second, err := e.uc.Register(e.ctx, "u1", RegisterRequest{Username: "ignored"})
	if err != nil {
		t.Fatalf("second register: %v", err)
	}
	if second.Created {
		t.Fatal("second register should be a no-op")
	}
	if second.Username != "alice" || second.ReferralCode != first.ReferralCode {
		t.Fatalf("second register returned %+v, want existing identity", second)
	}

	u := e.user("u1")
	if u.EnergyCurrent != 5 || u.EnergyMax != 5 {
		t.Fatalf("fresh account energy = %d/%d, want 5/5", u.EnergyCurrent, u.EnergyMax)
	}
	if got := stats.Decode(u.StatsJSON)["speed"]; got != 1 {
		t.Fatalf("fresh account speed = %v, want base 1", got)
	}
}

func TestRegisterValidation(t *testing.T) {
	e := newTestEnv(t)

	_, err := e.uc.Register(e.ctx, "u1", RegisterRequest{Username: "a"})
	wantCode(t, err, codes.InvalidArgument)

	_, err = e.uc.Register(e.ctx, "u1", RegisterRequest{Username: "has spaces"})
	wantCode(t, err, codes.InvalidArgument)

	e.register("u1", "alice")
	_, err = e.uc.Register(e.ctx, "u2", RegisterRequest{Username: "alice"})
	wantCode(t, err, codes.AlreadyExists)

	_, err = e.uc.Register(e.ctx, "u3", RegisterRequest{Username: "carol", ReferralCode: "no-such-code"})
	wantCode(t, err, codes.NotFound)
}

func TestSettleTwiceIsNoop(t *testing.T) {
	e := newTestEnv(t)
	e.register("u1", "alice")

	// Drain one energy so there is something to regenerate.
	if _, err := e.uc.SpendEnergy(e.ctx, "u1", "s1"); err != nil {
		t.Fatalf("spend: %v", err)
	}

	e.advance(25 * time.Minute)
	if _, err := e.uc.SettleAndGetStatus(e.ctx, "u1"); err != nil {
		t.Fatalf("settle: %v", err)
	}
	first := e.user("u1")

	if _, err := e.uc.SettleAndGetStatus(e.ctx, "u1"); err != nil {
		t.Fatalf("resettle: %v", err)
	}
	second := e.user("u1")

	if first.EnergyCurrent != second.EnergyCurrent {
		t.Fatalf("energy changed on resettle: %d -> %d", first.EnergyCurrent, second.EnergyCurrent)
	}
	if first.EnergyUpdatedAt.UnixMilli() != second.EnergyUpdatedAt.UnixMilli() {
		t.Fatal("energy timestamp changed on resettle")
	}
	if first.Currency != second.Currency {
		t.Fatal("currency changed on resettle")
	}
}

func TestEnergyRegenWholeTicks(t *testing.T) {
	e := newTestEnv(t)
	e.register("u1", "alice")

	// 5/5 -> 4/5, regen window opens at spend time.
	if _, err := e.uc.SpendEnergy(e.ctx, "u1", "s1"); err != nil {
		t.Fatalf("spend: %v", err)
	}

	// 25 minutes at a 10 minute period is 2 whole ticks, but the bar caps
	// at 5 after one.
	e.advance(25 * time.Minute)
	res, err := e.uc.SpendEnergy(e.ctx, "u1", "s2")
	if err != nil {
		t.Fatalf("spend 2: %v", err)
	}
	// Settled back to 5, then spent one.
	if res.EnergyCurrent != 4 {
		t.Fatalf("energy after regen+spend = %d, want 4", res.EnergyCurrent)
	}
	if res.NextEnergyAtMillis == nil {
		t.Fatal("partial bar should report the next tick time")
	}
	if got := *res.NextEnergyAtMillis; got != e.now.Add(10*time.Minute).UnixMilli() {
		t.Fatalf("next tick at %d, want spend time + one period", got)
	}
}

func TestSpendEnergyIdempotent(t *testing.T) {
	e := newTestEnv(t)
	e.register("u1", "alice")

	first, err := e.uc.SpendEnergy(e.ctx, "u1", "session-1")
	if err != nil {
		t.Fatalf("spend: %v", err)
	}
	if first.AlreadyProcessed || first.EnergyCurrent != 4 {
		t.Fatalf("first spend = %+v, want fresh spend to 4", first)
	}

	replay, err := e.uc.SpendEnergy(e.ctx, "u1", "session-1")
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if !replay.AlreadyProcessed {
		t.Fatal("replay should be flagged alreadyProcessed")
	}
	if replay.EnergyCurrent != 4 {
		t.Fatalf("replay spent energy again: %d", replay.EnergyCurrent)
	}
}

func TestSpendEnergyExhausted(t *testing.T) {
	e := newTestEnv(t)
	e.register("u1", "alice")
	e.setUser("u1", map[string]any{"energy_current": 0, "energy_updated_at": e.now})

	_, err := e.uc.SpendEnergy(e.ctx, "u1", "s1")
	wantCode(t, err, codes.FailedPrecondition)
}

func TestAdEnergyRefill(t *testing.T) {
	e := newTestEnv(t)
	e.register("u1", "alice")
	e.setUser("u1", map[string]any{"energy_current": 3, "energy_updated_at": e.now})

	res, err := e.uc.GrantEnergy(e.ctx, "u1", "ad-token-1")
	if err != nil {
		t.Fatalf("grant: %v", err)
	}
	if res.EnergyCurrent != 4 {
		t.Fatalf("energy after refill = %d, want 4", res.EnergyCurrent)
	}

	_, err = e.uc.GrantEnergy(e.ctx, "u1", "ad-token-1")
	wantCode(t, err, codes.AlreadyExists)

	// Refill at the cap clamps instead of overflowing.
	e.setUser("u1", map[string]any{"energy_current": 5})
	res, err = e.uc.GrantEnergy(e.ctx, "u1", "ad-token-2")
	if err != nil {
		t.Fatalf("grant at cap: %v", err)
	}
	if res.EnergyCurrent != 5 {
		t.Fatalf("energy after capped refill = %d, want 5", res.EnergyCurrent)
	}
}

func TestAutopilotCapAndClaim(t *testing.T) {
	e := newTestEnv(t)
	e.register("u1", "alice")

	if _, err := e.uc.ToggleAccrual(e.ctx, "u1", true); err != nil {
		t.Fatalf("toggle on: %v", err)
	}

	// Cap is rate*capHours = 10*12 = 120, regardless of 24h elapsed.
	e.advance(24 * time.Hour)
	st, err := e.uc.SettleAndGetStatus(e.ctx, "u1")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if st.Wallet != 120 {
		t.Fatalf("wallet = %v, want capped 120", st.Wallet)
	}
	if st.TimeToCapSeconds == nil || *st.TimeToCapSeconds != 0 {
		t.Fatalf("timeToCap = %v, want 0", st.TimeToCapSeconds)
	}
	if !st.IsClaimReady {
		t.Fatal("capped wallet should be claimable")
	}

	claim, err := e.uc.ClaimAccrual(e.ctx, "u1")
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if claim.Claimed != 120 || claim.CurrencyAfter != 120 {
		t.Fatalf("claim = %+v, want 120 into balance", claim)
	}

	_, err = e.uc.ClaimAccrual(e.ctx, "u1")
	wantCode(t, err, codes.FailedPrecondition)
}

func TestAutopilotClaimBeforeCap(t *testing.T) {
	e := newTestEnv(t)
	e.register("u1", "alice")

	if _, err := e.uc.ToggleAccrual(e.ctx, "u1", true); err != nil {
		t.Fatalf("toggle on: %v", err)
	}
	e.advance(1 * time.Hour)

	_, err := e.uc.ClaimAccrual(e.ctx, "u1")
	wantCode(t, err, codes.FailedPrecondition)
}

func TestAutopilotWalletTruncation(t *testing.T) {
	e := newTestEnv(t)
	e.register("u1", "alice")

	if _, err := e.uc.ToggleAccrual(e.ctx, "u1", true); err != nil {
		t.Fatalf("toggle on: %v", err)
	}

	// 59s at 10/hour is 0.1638..., truncated (never rounded) to 0.16.
	e.advance(59 * time.Second)
	st, err := e.uc.SettleAndGetStatus(e.ctx, "u1")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if st.Wallet != 0.16 {
		t.Fatalf("wallet = %v, want truncated 0.16", st.Wallet)
	}
}

func TestAutopilotToggleOffFreezesWallet(t *testing.T) {
	e := newTestEnv(t)
	e.register("u1", "alice")

	if _, err := e.uc.ToggleAccrual(e.ctx, "u1", true); err != nil {
		t.Fatalf("toggle on: %v", err)
	}
	e.advance(2 * time.Hour)
	if _, err := e.uc.ToggleAccrual(e.ctx, "u1", false); err != nil {
		t.Fatalf("toggle off: %v", err)
	}

	e.advance(10 * time.Hour)
	st, err := e.uc.SettleAndGetStatus(e.ctx, "u1")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if st.Wallet != 20 {
		t.Fatalf("wallet = %v, want frozen 20", st.Wallet)
	}
	if st.IsAccrualOn {
		t.Fatal("accrual should be off")
	}
}

func TestAutopilotPrivilegedUncapped(t *testing.T) {
	e := newTestEnv(t)
	e.register("u1", "alice")
	e.setUser("u1", map[string]any{"premium_currency": 100})

	if _, err := e.uc.PurchaseElitePass(e.ctx, "u1", "ep-1"); err != nil {
		t.Fatalf("elite pass: %v", err)
	}
	if _, err := e.uc.ToggleAccrual(e.ctx, "u1", true); err != nil {
		t.Fatalf("toggle on: %v", err)
	}

	// Elite rate 25/hour, no cap: 24h accrues 600.
	e.advance(24 * time.Hour)
	st, err := e.uc.SettleAndGetStatus(e.ctx, "u1")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !st.IsPrivileged {
		t.Fatal("user should be privileged")
	}
	if st.Wallet != 600 {
		t.Fatalf("wallet = %v, want uncapped 600", st.Wallet)
	}
	if st.TimeToCapSeconds != nil {
		t.Fatal("privileged wallet has no cap countdown")
	}

	claim, err := e.uc.ClaimAccrual(e.ctx, "u1")
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if claim.Claimed != 600 {
		t.Fatalf("claimed %v, want 600", claim.Claimed)
	}
}

func TestElitePassPurchaseAndExtension(t *testing.T) {
	e := newTestEnv(t)
	e.register("u1", "alice")
	e.setUser("u1", map[string]any{"premium_currency": 250})

	first, err := e.uc.PurchaseElitePass(e.ctx, "u1", "ep-1")
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}
	wantExpiry := e.now.AddDate(0, 0, 30).UnixMilli()
	if !first.HasElitePass || first.ExpiresAtMillis != wantExpiry {
		t.Fatalf("first purchase = %+v, want expiry at +30d", first)
	}
	if first.PremiumCurrencyLeft != 150 {
		t.Fatalf("premium left = %d, want 150", first.PremiumCurrencyLeft)
	}

	// Same purchase id replays the stored result without charging again.
	replay, err := e.uc.PurchaseElitePass(e.ctx, "u1", "ep-1")
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if replay.PremiumCurrencyLeft != 150 || replay.ExpiresAtMillis != wantExpiry {
		t.Fatalf("replay = %+v, want stored result", replay)
	}
	if got := e.user("u1").PremiumCurrency; got != 150 {
		t.Fatalf("premium balance = %d, replay must not charge", got)
	}

	// A second purchase extends from the current expiry, not from now.
	second, err := e.uc.PurchaseElitePass(e.ctx, "u1", "ep-2")
	if err != nil {
		t.Fatalf("extension: %v", err)
	}
	if second.ExpiresAtMillis != e.now.AddDate(0, 0, 60).UnixMilli() {
		t.Fatalf("extension expiry = %d, want +60d", second.ExpiresAtMillis)
	}

	_, err = e.uc.PurchaseElitePass(e.ctx, "u1", "ep-3")
	wantCode(t, err, codes.FailedPrecondition)
}

func TestElitePassLapsesLazily(t *testing.T) {
	e := newTestEnv(t)
	e.register("u1", "alice")
	e.setUser("u1", map[string]any{"premium_currency": 100})

	if _, err := e.uc.PurchaseElitePass(e.ctx, "u1", "ep-1"); err != nil {
		t.Fatalf("purchase: %v", err)
	}

	e.advance(31 * 24 * time.Hour)
	st, err := e.uc.SettleAndGetStatus(e.ctx, "u1")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if st.IsPrivileged {
		t.Fatal("expired pass should not be privileged")
	}
	if e.user("u1").HasElitePass {
		t.Fatal("settlement should lapse the expired pass")
	}
}

func TestPurchaseItemIdempotent(t *testing.T) {
	e := newTestEnv(t)
	e.register("u1", "alice")
	e.setUser("u1", map[string]any{"currency": 50})

	res, err := e.uc.PurchaseItem(e.ctx, "u1", PurchaseRequest{
		ItemID: "rocket_skates", Method: domain.PurchaseMethodGet, PurchaseID: "p-1",
	})
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}
	if !res.Owned || res.CurrencyLeft != 20 {
		t.Fatalf("purchase = %+v, want owned with 20 left", res)
	}

	replay, err := e.uc.PurchaseItem(e.ctx, "u1", PurchaseRequest{
		ItemID: "rocket_skates", Method: domain.PurchaseMethodGet, PurchaseID: "p-1",
	})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if replay.CurrencyLeft != 20 {
		t.Fatalf("replay = %+v, want stored result", replay)
	}

	u := e.user("u1")
	if u.Currency != 20 {
		t.Fatalf("balance = %v, replay must not charge twice", u.Currency)
	}
	if u.ItemsPurchasedCount != 1 {
		t.Fatalf("purchase counter = %d, want 1", u.ItemsPurchasedCount)
	}

	// Re-buying an owned non-consumable is rejected even with a fresh id.
	_, err = e.uc.PurchaseItem(e.ctx, "u1", PurchaseRequest{
		ItemID: "rocket_skates", Method: domain.PurchaseMethodGet, PurchaseID: "p-2",
	})
	wantCode(t, err, codes.FailedPrecondition)
}

func TestPurchaseItemValidation(t *testing.T) {
	e := newTestEnv(t)
	e.register("u1", "alice")

	_, err := e.uc.PurchaseItem(e.ctx, "u1", PurchaseRequest{ItemID: "rocket_skates", Method: "BARTER"})
	wantCode(t, err, codes.InvalidArgument)

	_, err = e.uc.PurchaseItem(e.ctx, "u1", PurchaseRequest{ItemID: "no_such_item", Method: domain.PurchaseMethodGet})
	wantCode(t, err, codes.NotFound)

	// 0 balance against a 120 price.
	_, err = e.uc.PurchaseItem(e.ctx, "u1", PurchaseRequest{ItemID: "lucky_charm", Method: domain.PurchaseMethodGet})
	wantCode(t, err, codes.FailedPrecondition)

	// Premium item over the GET path.
	_, err = e.uc.PurchaseItem(e.ctx, "u1", PurchaseRequest{ItemID: "golden_gloves", Method: domain.PurchaseMethodGet})
	wantCode(t, err, codes.FailedPrecondition)
}

func TestPurchaseReferralGate(t *testing.T) {
	e := newTestEnv(t)
	e.register("u1", "alice")
	e.setUser("u1", map[string]any{"currency": 500})

	_, err := e.uc.PurchaseItem(e.ctx, "u1", PurchaseRequest{ItemID: "mentor_badge", Method: domain.PurchaseMethodGet})
	wantCode(t, err, codes.FailedPrecondition)

	e.setUser("u1", map[string]any{"referral_count": 3})
	if _, err := e.uc.PurchaseItem(e.ctx, "u1", PurchaseRequest{ItemID: "mentor_badge", Method: domain.PurchaseMethodGet}); err != nil {
		t.Fatalf("purchase with enough referrals: %v", err)
	}
}

func TestPurchaseAdTokenSingleUse(t *testing.T) {
	e := newTestEnv(t)
	e.register("u1", "alice")

	res, err := e.uc.PurchaseItem(e.ctx, "u1", PurchaseRequest{
		ItemID: "energy_drink", Method: domain.PurchaseMethodAd, AdToken: "ad-1",
	})
	if err != nil {
		t.Fatalf("ad purchase: %v", err)
	}
	if !res.IsConsumable || res.ExpiresAtMillis == nil {
		t.Fatalf("ad purchase = %+v, want active consumable", res)
	}

	_, err = e.uc.PurchaseItem(e.ctx, "u1", PurchaseRequest{
		ItemID: "energy_drink", Method: domain.PurchaseMethodAd, AdToken: "ad-1",
	})
	wantCode(t, err, codes.AlreadyExists)
}

func TestConsumableStacking(t *testing.T) {
	e := newTestEnv(t)
	e.register("u1", "alice")
	e.setUser("u1", map[string]any{"currency": 200})

	first, err := e.uc.PurchaseItem(e.ctx, "u1", PurchaseRequest{
		ItemID: "energy_drink", Method: domain.PurchaseMethodGet,
	})
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}
	if *first.ExpiresAtMillis != e.now.Add(1800*time.Second).UnixMilli() {
		t.Fatalf("first expiry = %d, want now+30m", *first.ExpiresAtMillis)
	}

	// A repeat purchase stacks onto the unexpired remainder.
	second, err := e.uc.PurchaseItem(e.ctx, "u1", PurchaseRequest{
		ItemID: "energy_drink", Method: domain.PurchaseMethodGet,
	})
	if err != nil {
		t.Fatalf("restack: %v", err)
	}
	if *second.ExpiresAtMillis != e.now.Add(3600*time.Second).UnixMilli() {
		t.Fatalf("stacked expiry = %d, want now+60m", *second.ExpiresAtMillis)
	}

	var inv domain.InventoryItem
	if err := e.db.Where("uid = ? AND item_id = ?", "u1", "energy_drink").First(&inv).Error; err != nil {
		t.Fatalf("load inventory: %v", err)
	}
	if inv.Quantity != 2 {
		t.Fatalf("quantity = %d, want 2", inv.Quantity)
	}
}

func TestConsumableExpiryRebuildsStats(t *testing.T) {
	e := newTestEnv(t)
	e.register("u1", "alice")
	e.setUser("u1", map[string]any{"currency": 200})

	if _, err := e.uc.PurchaseItem(e.ctx, "u1", PurchaseRequest{
		ItemID: "double_score", Method: domain.PurchaseMethodGet,
	}); err != nil {
		t.Fatalf("purchase: %v", err)
	}
	if got := stats.Decode(e.user("u1").StatsJSON)["scoreBonus"]; got != 1 {
		t.Fatalf("scoreBonus while active = %v, want 1", got)
	}

	e.advance(2 * time.Hour)
	if _, err := e.uc.SettleAndGetStatus(e.ctx, "u1"); err != nil {
		t.Fatalf("settle: %v", err)
	}
	if got := stats.Decode(e.user("u1").StatsJSON)["scoreBonus"]; got != 0 {
		t.Fatalf("scoreBonus after expiry = %v, want 0", got)
	}

	var count int64
	e.db.Model(&domain.ActiveConsumable{}).Where("uid = ?", "u1").Count(&count)
	if count != 0 {
		t.Fatalf("expired consumable rows left: %d", count)
	}
}

func TestEquipUnequipStats(t *testing.T) {
	e := newTestEnv(t)
	e.register("u1", "alice")
	e.setUser("u1", map[string]any{"currency": 50})

	if _, err := e.uc.PurchaseItem(e.ctx, "u1", PurchaseRequest{
		ItemID: "rocket_skates", Method: domain.PurchaseMethodGet,
	}); err != nil {
		t.Fatalf("purchase: %v", err)
	}

	if _, err := e.uc.EquipItem(e.ctx, "u1", "rocket_skates"); err != nil {
		t.Fatalf("equip: %v", err)
	}
	if got := stats.Decode(e.user("u1").StatsJSON)["speed"]; got != 1.5 {
		t.Fatalf("speed equipped = %v, want 1.5", got)
	}

	// Equipping again is a no-op, not an error.
	if _, err := e.uc.EquipItem(e.ctx, "u1", "rocket_skates"); err != nil {
		t.Fatalf("re-equip: %v", err)
	}

	if _, err := e.uc.UnequipItem(e.ctx, "u1", "rocket_skates"); err != nil {
		t.Fatalf("unequip: %v", err)
	}
	if got := stats.Decode(e.user("u1").StatsJSON)["speed"]; got != 1 {
		t.Fatalf("speed unequipped = %v, want base 1", got)
	}

	// Unequipping something never equipped is also a no-op.
	if _, err := e.uc.UnequipItem(e.ctx, "u1", "lucky_charm"); err != nil {
		t.Fatalf("unequip absent: %v", err)
	}
}

func TestEquipRejections(t *testing.T) {
	e := newTestEnv(t)
	e.register("u1", "alice")

	_, err := e.uc.EquipItem(e.ctx, "u1", "golden_gloves")
	wantCode(t, err, codes.FailedPrecondition)

	_, err = e.uc.EquipItem(e.ctx, "u1", "energy_drink")
	wantCode(t, err, codes.FailedPrecondition)

	_, err = e.uc.EquipItem(e.ctx, "u1", "no_such_item")
	wantCode(t, err, codes.NotFound)
}

func TestLoadoutSlotLimit(t *testing.T) {
	e := newTestEnv(t)
	e.register("u1", "alice")

	for _, id := range []string{"g1", "g2", "g3", "g4", "g5", "g6", "g7"} {
		if err := e.db.Create(&domain.ItemDefinition{
			ItemID: id, Name: id, AllowGet: true, StatDeltasJSON: `{"power": 1}`,
		}).Error; err != nil {
			t.Fatalf("seed item %s: %v", id, err)
		}
		if err := e.db.Create(&domain.InventoryItem{
			UID: "u1", ItemID: id, Owned: true, Quantity: 1, AcquiredAt: e.now,
		}).Error; err != nil {
			t.Fatalf("seed inventory %s: %v", id, err)
		}
	}

	for _, id := range []string{"g1", "g2", "g3", "g4", "g5", "g6"} {
		if _, err := e.uc.EquipItem(e.ctx, "u1", id); err != nil {
			t.Fatalf("equip %s: %v", id, err)
		}
	}

	_, err := e.uc.EquipItem(e.ctx, "u1", "g7")
	wantCode(t, err, codes.ResourceExhausted)

	// Six equipped power items on a base of 1.
	if got := stats.Decode(e.user("u1").StatsJSON)["power"]; got != 7 {
		t.Fatalf("power = %v, want 7", got)
	}

	// Freeing a slot makes the seventh equippable.
	if _, err := e.uc.UnequipItem(e.ctx, "u1", "g1"); err != nil {
		t.Fatalf("unequip: %v", err)
	}
	if _, err := e.uc.EquipItem(e.ctx, "u1", "g7"); err != nil {
		t.Fatalf("equip after freeing slot: %v", err)
	}
}

func TestStreakClaim(t *testing.T) {
	e := newTestEnv(t)
	e.register("u1", "alice")

	// Day 1 is implicit and never claimable.
	_, err := e.uc.ClaimStreak(e.ctx, "u1")
	wantCode(t, err, codes.FailedPrecondition)

	e.advance(24 * time.Hour)
	res, err := e.uc.ClaimStreak(e.ctx, "u1")
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if res.Granted != 50 || res.NewCurrency != 50 || res.UnclaimedDays != 0 {
		t.Fatalf("claim = %+v, want 1 day for 50", res)
	}

	// Same UTC day again: nothing new.
	_, err = e.uc.ClaimStreak(e.ctx, "u1")
	wantCode(t, err, codes.FailedPrecondition)
}

func TestStreakCountsObservedDaysOnly(t *testing.T) {
	e := newTestEnv(t)
	e.register("u1", "alice")

	// Three days pass with no contact. Only the day of the next observation
	// counts; skipped days are simply gone.
	e.advance(72 * time.Hour)
	res, err := e.uc.ClaimStreak(e.ctx, "u1")
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if res.Granted != 50 {
		t.Fatalf("granted = %v, want one day's 50", res.Granted)
	}

	var streak domain.StreakState
	if err := e.db.Where("uid = ?", "u1").First(&streak).Error; err != nil {
		t.Fatalf("load streak: %v", err)
	}
	if streak.TotalDays != 2 {
		t.Fatalf("totalDays = %d, want 2", streak.TotalDays)
	}
}

func TestStreakAccumulatesUnclaimedDays(t *testing.T) {
	e := newTestEnv(t)
	e.register("u1", "alice")

	// Log in on two fresh days without claiming.
	e.advance(24 * time.Hour)
	if _, err := e.uc.SettleAndGetStatus(e.ctx, "u1"); err != nil {
		t.Fatalf("settle day 2: %v", err)
	}
	e.advance(24 * time.Hour)
	if _, err := e.uc.SettleAndGetStatus(e.ctx, "u1"); err != nil {
		t.Fatalf("settle day 3: %v", err)
	}

	res, err := e.uc.ClaimStreak(e.ctx, "u1")
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if res.Granted != 100 || res.NewCurrency != 100 {
		t.Fatalf("claim = %+v, want 2 days for 100", res)
	}
}

func TestSubmitSessionResult(t *testing.T) {
	e := newTestEnv(t)
	e.register("u1", "alice")

	req := SessionRequest{
		SessionID:      "s1",
		EarnedCurrency: 12.5,
		EarnedScore:    1000,
		Telemetry:      SessionTelemetry{MaxCombo: 7, PlaytimeSec: 300, PowerUpsCollected: 4},
	}
	res, err := e.uc.SubmitSessionResult(e.ctx, "u1", req)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.Currency != 12.5 || res.MaxScore != 1000 {
		t.Fatalf("result = %+v", res)
	}

	replay, err := e.uc.SubmitSessionResult(e.ctx, "u1", req)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if !replay.AlreadyProcessed {
		t.Fatal("replay should be flagged alreadyProcessed")
	}
	if got := e.user("u1").Currency; got != 12.5 {
		t.Fatalf("balance = %v, replay must not credit twice", got)
	}

	u := e.user("u1")
	if u.SessionsPlayed != 1 || u.MaxCombo != 7 || u.TotalPlaytimeSec != 300 || u.PowerUpsCollected != 4 {
		t.Fatalf("counters = %+v", u)
	}
	if u.Rank != 1 {
		t.Fatalf("rank = %d, want 1", u.Rank)
	}

	// A lower score later keeps the best.
	if _, err := e.uc.SubmitSessionResult(e.ctx, "u1", SessionRequest{
		SessionID: "s2", EarnedCurrency: 1, EarnedScore: 500,
	}); err != nil {
		t.Fatalf("second session: %v", err)
	}
	if got := e.user("u1").MaxScore; got != 1000 {
		t.Fatalf("maxScore = %d, want 1000 kept", got)
	}
}

func TestSubmitSessionValidation(t *testing.T) {
	e := newTestEnv(t)
	e.register("u1", "alice")

	_, err := e.uc.SubmitSessionResult(e.ctx, "u1", SessionRequest{EarnedCurrency: 1})
	wantCode(t, err, codes.InvalidArgument)

	_, err = e.uc.SubmitSessionResult(e.ctx, "u1", SessionRequest{SessionID: "s1", EarnedCurrency: -1})
	wantCode(t, err, codes.InvalidArgument)

	_, err = e.uc.SubmitSessionResult(e.ctx, "u1", SessionRequest{SessionID: "s1", EarnedScore: -5})
	wantCode(t, err, codes.InvalidArgument)
}

func TestReferralBonusOnFirstSession(t *testing.T) {
	e := newTestEnv(t)
	ref := e.register("u1", "alice")

	if _, err := e.uc.Register(e.ctx, "u2", RegisterRequest{
		Username: "bob", ReferralCode: ref.ReferralCode,
	}); err != nil {
		t.Fatalf("register referred: %v", err)
	}

	if _, err := e.uc.SubmitSessionResult(e.ctx, "u2", SessionRequest{
		SessionID: "s1", EarnedCurrency: 5, EarnedScore: 10,
	}); err != nil {
		t.Fatalf("first session: %v", err)
	}

	referrer := e.user("u1")
	if referrer.Currency != 100 || referrer.ReferralCount != 1 {
		t.Fatalf("referrer = currency %v count %d, want 100 and 1", referrer.Currency, referrer.ReferralCount)
	}

	// Only the first finished session pays out.
	if _, err := e.uc.SubmitSessionResult(e.ctx, "u2", SessionRequest{
		SessionID: "s2", EarnedCurrency: 5, EarnedScore: 10,
	}); err != nil {
		t.Fatalf("second session: %v", err)
	}
	if got := e.user("u1").Currency; got != 100 {
		t.Fatalf("referrer balance = %v, want unchanged 100", got)
	}
}

func TestLeaderboard(t *testing.T) {
	e := newTestEnv(t)
	e.register("u1", "alice")
	e.register("u2", "bob")

	if _, err := e.uc.SubmitSessionResult(e.ctx, "u1", SessionRequest{
		SessionID: "s1", EarnedScore: 1000,
	}); err != nil {
		t.Fatalf("u1 session: %v", err)
	}
	if _, err := e.uc.SubmitSessionResult(e.ctx, "u2", SessionRequest{
		SessionID: "s2", EarnedScore: 2000,
	}); err != nil {
		t.Fatalf("u2 session: %v", err)
	}

	res, err := e.uc.Leaderboard(e.ctx, "u1")
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(res.Entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(res.Entries))
	}
	if res.Entries[0].UID != "u2" || res.Entries[0].Rank != 1 {
		t.Fatalf("top entry = %+v, want u2 at rank 1", res.Entries[0])
	}
	if res.Entries[1].UID != "u1" || res.Entries[1].Rank != 2 {
		t.Fatalf("second entry = %+v, want u1 at rank 2", res.Entries[1])
	}
	if res.Me == nil || res.Me.UID != "u1" {
		t.Fatalf("me = %+v, want caller's row", res.Me)
	}
}

func TestOperationsRequireAccount(t *testing.T) {
	e := newTestEnv(t)

	_, err := e.uc.SettleAndGetStatus(e.ctx, "ghost")
	wantCode(t, err, codes.FailedPrecondition)

	_, err = e.uc.SpendEnergy(e.ctx, "ghost", "s1")
	wantCode(t, err, codes.FailedPrecondition)

	_, err = e.uc.PurchaseItem(e.ctx, "ghost", PurchaseRequest{ItemID: "rocket_skates", Method: domain.PurchaseMethodGet})
	wantCode(t, err, codes.FailedPrecondition)
}

package rating

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fallncrlss/comparty-bot/internal/common"
	"github.com/fallncrlss/comparty-bot/internal/config"
	"github.com/fallncrlss/comparty-bot/internal/features/members"
)

type fakeStore struct {
	records   map[uuid.UUID]RecordRequest
	score     decimal.Decimal
	scoreErr  error
	createErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: map[uuid.UUID]RecordRequest{}}
}

func (f *fakeStore) CreateRecord(_ context.Context, req RecordRequest) (uuid.UUID, error) {
	if f.createErr != nil {
		return uuid.Nil, f.createErr
	}
	id := uuid.New()
	f.records[id] = req
	return id, nil
}

// FetchScore агрегирует записи журнала как SUM(amount) в репозитории;
// score задаёт стартовое значение для пользователей без записей.
func (f *fakeStore) FetchScore(_ context.Context, userID, chatID int64) (decimal.Decimal, error) {
	if f.scoreErr != nil {
		return decimal.Decimal{}, f.scoreErr
	}
	total := f.score
	for _, req := range f.records {
		if req.ChatID == chatID && req.UserID == userID {
			total = total.Add(req.Amount)
		}
	}
	return total, nil
}

func (f *fakeStore) FetchTopByScore(context.Context, int64, int) ([]TopUser, error) {
	return nil, nil
}

func (f *fakeStore) DeleteRecord(_ context.Context, id uuid.UUID) (bool, error) {
	if _, ok := f.records[id]; !ok {
		return false, nil
	}
	delete(f.records, id)
	return true, nil
}

type fakeRegistrar struct {
	memberCreated bool
	users         []members.User
}

func (f *fakeRegistrar) EnsureUser(_ context.Context, u members.User) (bool, error) {
	f.users = append(f.users, u)
	return true, nil
}

func (f *fakeRegistrar) EnsureChatUser(context.Context, int64, int64) (bool, error) {
	return f.memberCreated, nil
}

func testConfig() *config.Config {
	return &config.Config{
		RatingBase:       10,
		RatingAdminBoost: 2,
		RatingTopLimit:   15,
	}
}

func testService(store *fakeStore, registrar *fakeRegistrar, cdStore *fakeCooldownStore) *Service {
	return NewService(store, registrar, NewCooldown(cdStore, 300*time.Second), testConfig())
}

func TestApplyTriggerRejectsSelf(t *testing.T) {
	store := newFakeStore()
	svc := testService(store, &fakeRegistrar{}, newFakeCooldownStore())

	ident := Identity{ID: 7}
	_, _, err := svc.ApplyTrigger(context.Background(), ident, ident, 1, Trigger{})
	if !errors.Is(err, common.ErrSelfRating) {
		t.Fatalf("ожидали ErrSelfRating, получили %v", err)
	}
	if len(store.records) != 0 {
		t.Fatal("не ожидали записей в журнале")
	}
}

func TestApplyTriggerRejectsChannelIdentity(t *testing.T) {
	store := newFakeStore()
	svc := testService(store, &fakeRegistrar{}, newFakeCooldownStore())

	initiator := Identity{ID: -100500, FirstName: "Канал", Synthetic: true}
	_, _, err := svc.ApplyTrigger(context.Background(), initiator, Identity{ID: 2}, 1, Trigger{})
	if !errors.Is(err, common.ErrChannelIdentity) {
		t.Fatalf("ожидали ErrChannelIdentity, получили %v", err)
	}
	if len(store.records) != 0 {
		t.Fatal("не ожидали записей в журнале")
	}
}

func TestApplyTriggerCooldownActive(t *testing.T) {
	store := newFakeStore()
	store.score = decimal.RequireFromString("100")
	cdStore := newFakeCooldownStore()
	cdStore.ttl["2-1-3"] = 42
	svc := testService(store, &fakeRegistrar{}, cdStore)

	_, _, err := svc.ApplyTrigger(context.Background(), Identity{ID: 1}, Identity{ID: 2}, 3, Trigger{})
	var cdErr *common.CooldownError
	if !errors.As(err, &cdErr) {
		t.Fatalf("ожидали CooldownError, получили %v", err)
	}
	if cdErr.Remaining != 42 {
		t.Fatalf("ожидали 42 секунды, получили %d", cdErr.Remaining)
	}
	if len(store.records) != 0 {
		t.Fatal("не ожидали записей в журнале при активном кулдауне")
	}
}

func TestApplyTriggerCreatesRecordAndCooldown(t *testing.T) {
	store := newFakeStore()
	store.score = decimal.RequireFromString("100")
	cdStore := newFakeCooldownStore()
	svc := testService(store, &fakeRegistrar{}, cdStore)

	id, applied, err := svc.ApplyTrigger(context.Background(), Identity{ID: 1}, Identity{ID: 2}, 3, Trigger{})
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if !applied.Equal(decimal.RequireFromString("10")) {
		t.Fatalf("ожидали сумму 10, получили %s", applied)
	}

	req, ok := store.records[id]
	if !ok {
		t.Fatal("запись не создана")
	}
	if req.UserID != 2 || req.ByUserID == nil || *req.ByUserID != 1 || req.ChatID != 3 {
		t.Fatalf("неверные поля записи: %+v", req)
	}

	if len(cdStore.setKeys) != 1 || cdStore.setKeys[0] != "2-1-3" {
		t.Fatalf("ожидали кулдаун 2-1-3, получили %v", cdStore.setKeys)
	}
}

func TestApplyTriggerDecreaseSignsAmount(t *testing.T) {
	store := newFakeStore()
	store.score = decimal.RequireFromString("100")
	svc := testService(store, &fakeRegistrar{}, newFakeCooldownStore())

	trig := Trigger{Decrease: true, Amount: decimal.RequireFromString("3.5"), HasAmount: true}
	_, applied, err := svc.ApplyTrigger(context.Background(), Identity{ID: 1}, Identity{ID: 2}, 3, trig)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if !applied.Equal(decimal.RequireFromString("-3.5")) {
		t.Fatalf("ожидали -3.5, получили %s", applied)
	}
}

func TestApplyTriggerFailsFastOnScoreError(t *testing.T) {
	store := newFakeStore()
	store.scoreErr = errors.New("db down")
	svc := testService(store, &fakeRegistrar{}, newFakeCooldownStore())

	_, _, err := svc.ApplyTrigger(context.Background(), Identity{ID: 1}, Identity{ID: 2}, 3, Trigger{})
	if err == nil {
		t.Fatal("ожидали ошибку")
	}
	if common.IsUserError(err) {
		t.Fatalf("сбой БД не должен считаться пользовательской ошибкой: %v", err)
	}
}

func TestCreateUserIfAbsentBaseline(t *testing.T) {
	store := newFakeStore()
	registrar := &fakeRegistrar{memberCreated: true}
	svc := testService(store, registrar, newFakeCooldownStore())

	created, err := svc.CreateUserIfAbsent(context.Background(), Identity{ID: 5, FirstName: "Аня"}, 1, nil)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if !created {
		t.Fatal("ожидали создание членства")
	}
	if len(store.records) != 1 {
		t.Fatalf("ожидали одну запись базового начисления, получили %d", len(store.records))
	}
	for _, req := range store.records {
		if !req.Amount.Equal(decimal.RequireFromString("10")) {
			t.Fatalf("ожидали базовое начисление 10, получили %s", req.Amount)
		}
		if req.ByUserID != nil {
			t.Fatal("базовое начисление не должно иметь инициатора")
		}
	}
}

func TestCreateUserIfAbsentAdminBoost(t *testing.T) {
	store := newFakeStore()
	registrar := &fakeRegistrar{memberCreated: true}
	svc := testService(store, registrar, newFakeCooldownStore())

	isAdmin := func(context.Context) bool { return true }
	if _, err := svc.CreateUserIfAbsent(context.Background(), Identity{ID: 5}, 1, isAdmin); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	for _, req := range store.records {
		if !req.Amount.Equal(decimal.RequireFromString("20")) {
			t.Fatalf("ожидали начисление 20 для администратора, получили %s", req.Amount)
		}
	}
}

func TestCreateUserIfAbsentIdempotent(t *testing.T) {
	store := newFakeStore()
	registrar := &fakeRegistrar{memberCreated: false}
	svc := testService(store, registrar, newFakeCooldownStore())

	created, err := svc.CreateUserIfAbsent(context.Background(), Identity{ID: 5}, 1, nil)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if created {
		t.Fatal("не ожидали повторное создание членства")
	}
	if len(store.records) != 0 {
		t.Fatal("повторная регистрация не должна начислять рейтинг")
	}
}

func TestCreateUserIfAbsentSkipsSynthetic(t *testing.T) {
	store := newFakeStore()
	registrar := &fakeRegistrar{memberCreated: true}
	svc := testService(store, registrar, newFakeCooldownStore())

	created, err := svc.CreateUserIfAbsent(context.Background(), Identity{ID: -1, Synthetic: true}, 1, nil)
	if err != nil || created {
		t.Fatalf("синтетическая личность не регистрируется: created=%v err=%v", created, err)
	}
	if len(registrar.users) != 0 {
		t.Fatal("не ожидали обращений к регистратору")
	}
}

func TestDeleteRecordIdempotent(t *testing.T) {
	store := newFakeStore()
	store.score = decimal.RequireFromString("100")
	svc := testService(store, &fakeRegistrar{}, newFakeCooldownStore())

	id, _, err := svc.ApplyTrigger(context.Background(), Identity{ID: 1}, Identity{ID: 2}, 3, Trigger{})
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}

	if err := svc.DeleteRecord(context.Background(), id); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(store.records) != 0 {
		t.Fatal("запись должна быть удалена")
	}

	// Повторная отмена — no-op, не ошибка.
	if err := svc.DeleteRecord(context.Background(), id); err != nil {
		t.Fatalf("повторная отмена должна быть no-op: %v", err)
	}
}

func TestScoreRoundTrip(t *testing.T) {
	store := newFakeStore()
	store.score = decimal.RequireFromString("100")
	registrar := &fakeRegistrar{memberCreated: true}
	svc := testService(store, registrar, newFakeCooldownStore())
	ctx := context.Background()

	const chatID = int64(3)
	target := Identity{ID: 2, FirstName: "Аня"}

	// Регистрация даёт базовое начисление.
	if _, err := svc.CreateUserIfAbsent(ctx, target, chatID, nil); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}

	// Изменения от разных инициаторов, чтобы не упереться в кулдаун.
	trigs := []struct {
		initiator Identity
		trig      Trigger
		expect    string
	}{
		{Identity{ID: 1}, Trigger{Amount: decimal.RequireFromString("4"), HasAmount: true}, "4"},
		{Identity{ID: 4}, Trigger{Decrease: true, Amount: decimal.RequireFromString("2.5"), HasAmount: true}, "-2.5"},
		{Identity{ID: 5}, Trigger{Decrease: true}, "-10"},
	}
	var lastID uuid.UUID
	for _, tc := range trigs {
		id, applied, err := svc.ApplyTrigger(ctx, tc.initiator, target, chatID, tc.trig)
		if err != nil {
			t.Fatalf("не ожидали ошибку: %v", err)
		}
		if !applied.Equal(decimal.RequireFromString(tc.expect)) {
			t.Fatalf("ожидали %s, получили %s", tc.expect, applied)
		}
		lastID = id
	}

	// Рейтинг — точная сумма: старт 100, база 10, затем +4, -2.5, -10.
	score, err := svc.GetScore(ctx, target.ID, chatID)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if !score.Equal(decimal.RequireFromString("101.5")) {
		t.Fatalf("ожидали 101.5, получили %s", score)
	}

	// Отмена убирает запись из агрегации целиком.
	if err := svc.DeleteRecord(ctx, lastID); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	score, err = svc.GetScore(ctx, target.ID, chatID)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if !score.Equal(decimal.RequireFromString("111.5")) {
		t.Fatalf("ожидали 111.5 после отмены, получили %s", score)
	}
}

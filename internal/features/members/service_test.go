package members

import (
	"context"
	"errors"
	"testing"
)

type fakeStore struct {
	users       map[int64]User
	memberships map[[2]int64]bool
	err         error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:       map[int64]User{},
		memberships: map[[2]int64]bool{},
	}
}

func (f *fakeStore) EnsureUser(_ context.Context, u User) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	if _, ok := f.users[u.ID]; ok {
		return false, nil
	}
	f.users[u.ID] = u
	return true, nil
}

func (f *fakeStore) EnsureChatUser(_ context.Context, chatID, userID int64) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	key := [2]int64{chatID, userID}
	if f.memberships[key] {
		return false, nil
	}
	f.memberships[key] = true
	return true, nil
}

func TestEnsureUserIdempotent(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)
	ctx := context.Background()
	u := User{ID: 5, Username: "anya", FirstName: "Аня"}

	created, err := svc.EnsureUser(ctx, u)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if !created {
		t.Fatal("ожидали создание пользователя")
	}

	created, err = svc.EnsureUser(ctx, u)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if created {
		t.Fatal("повторная регистрация не должна считаться созданием")
	}
	if len(store.users) != 1 {
		t.Fatalf("ожидали одного пользователя, получили %d", len(store.users))
	}
}

func TestEnsureChatUserIdempotent(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)
	ctx := context.Background()

	created, err := svc.EnsureChatUser(ctx, 3, 5)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if !created {
		t.Fatal("ожидали создание членства")
	}

	created, err = svc.EnsureChatUser(ctx, 3, 5)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if created {
		t.Fatal("повторное членство не должно считаться созданием")
	}

	// Тот же пользователь в другом чате — новое членство.
	created, err = svc.EnsureChatUser(ctx, 4, 5)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if !created {
		t.Fatal("членство в другом чате независимо")
	}
}

func TestEnsureUserWrapsStoreError(t *testing.T) {
	store := newFakeStore()
	storeErr := errors.New("db down")
	store.err = storeErr
	svc := NewService(store)

	if _, err := svc.EnsureUser(context.Background(), User{ID: 5}); !errors.Is(err, storeErr) {
		t.Fatalf("ожидали обёрнутую ошибку хранилища, получили %v", err)
	}
	if _, err := svc.EnsureChatUser(context.Background(), 3, 5); !errors.Is(err, storeErr) {
		t.Fatalf("ожидали обёрнутую ошибку хранилища, получили %v", err)
	}
}

func TestFullName(t *testing.T) {
	cases := map[User]string{
		{FirstName: "Аня", LastName: "Иванова"}: "Аня Иванова",
		{FirstName: "Аня"}:                      "Аня",
		{}:                                      "",
	}
	for u, expected := range cases {
		if got := u.FullName(); got != expected {
			t.Fatalf("FullName(%+v): ожидали %q, получили %q", u, expected, got)
		}
	}
}

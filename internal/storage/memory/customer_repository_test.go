package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/crm/internal/domain"
	"github.com/vladislavdragonenkov/crm/internal/storage/memory"
)

func newCustomer(email string) domain.Customer {
	phone := "+1234"
	return domain.Customer{Name: "Alice", Email: email, Phone: &phone}
}

func TestCustomerRepository_CreateGet(t *testing.T) {
	repo := memory.NewCustomerRepository(memory.NewStore())
	ctx := context.Background()

	created, err := repo.Create(ctx, newCustomer("alice@example.com"))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected store-assigned id")
	}
	if created.CreatedAt.IsZero() {
		t.Fatal("expected created_at to be set")
	}

	stored, err := repo.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if stored.Email != "alice@example.com" {
		t.Fatalf("expected email alice@example.com, got %s", stored.Email)
	}

	exists, err := repo.ExistsByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.True(t, exists)
}

func TestCustomerRepository_GetUnknown(t *testing.T) {
	repo := memory.NewCustomerRepository(memory.NewStore())

	_, err := repo.Get(context.Background(), "missing")
	if !errors.Is(err, domain.ErrCustomerNotFound) {
		t.Fatalf("expected ErrCustomerNotFound, got %v", err)
	}
}

func TestCustomerRepository_UniqueEmail(t *testing.T) {
	repo := memory.NewCustomerRepository(memory.NewStore())
	ctx := context.Background()

	_, err := repo.Create(ctx, newCustomer("alice@example.com"))
	require.NoError(t, err)

	_, err = repo.Create(ctx, domain.Customer{Name: "Other", Email: "alice@example.com"})
	require.ErrorIs(t, err, domain.ErrDuplicateEmail)

	customers, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, customers, 1)
}

func TestCustomerRepository_RequiresName(t *testing.T) {
	repo := memory.NewCustomerRepository(memory.NewStore())

	_, err := repo.Create(context.Background(), domain.Customer{Email: "noname@example.com"})
	require.ErrorIs(t, err, domain.ErrCustomerNameRequired)
}

func TestCustomerRepository_ListKeepsInsertionOrder(t *testing.T) {
	repo := memory.NewCustomerRepository(memory.NewStore())
	ctx := context.Background()

	for _, email := range []string{"c@example.com", "a@example.com", "b@example.com"} {
		_, err := repo.Create(ctx, newCustomer(email))
		require.NoError(t, err)
	}

	customers, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, customers, 3)
	require.Equal(t, "c@example.com", customers[0].Email)
	require.Equal(t, "a@example.com", customers[1].Email)
	require.Equal(t, "b@example.com", customers[2].Email)
}

func TestCustomerRepository_WithinTxCommit(t *testing.T) {
	repo := memory.NewCustomerRepository(memory.NewStore())
	ctx := context.Background()

	err := repo.WithinTx(ctx, func(ctx context.Context, tx domain.CustomerTx) error {
		if _, err := tx.Create(ctx, newCustomer("a@example.com")); err != nil {
			return err
		}

		// Запись видна внутри транзакции, но ещё не снаружи.
		exists, err := tx.ExistsByEmail(ctx, "a@example.com")
		require.NoError(t, err)
		require.True(t, exists)

		_, err = tx.Create(ctx, newCustomer("a@example.com"))
		require.ErrorIs(t, err, domain.ErrDuplicateEmail)

		_, err = tx.Create(ctx, domain.Customer{Email: "b@example.com"})
		require.ErrorIs(t, err, domain.ErrCustomerNameRequired)
		return nil
	})
	require.NoError(t, err)

	customers, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, customers, 1)
	require.Equal(t, "a@example.com", customers[0].Email)
}

func TestCustomerRepository_WithinTxRollback(t *testing.T) {
	repo := memory.NewCustomerRepository(memory.NewStore())
	ctx := context.Background()
	boom := errors.New("boom")

	err := repo.WithinTx(ctx, func(ctx context.Context, tx domain.CustomerTx) error {
		if _, err := tx.Create(ctx, newCustomer("a@example.com")); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	exists, err := repo.ExistsByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	require.False(t, exists)
}

func TestCustomerRepository_WithinTxCanceledContextIsFatal(t *testing.T) {
	repo := memory.NewCustomerRepository(memory.NewStore())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := repo.WithinTx(ctx, func(ctx context.Context, tx domain.CustomerTx) error {
		_, err := tx.Create(ctx, newCustomer("a@example.com"))
		return err
	})
	require.True(t, domain.IsFatal(err), "expected fatal error, got %v", err)
}

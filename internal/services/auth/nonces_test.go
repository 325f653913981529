package auth

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/benvon/hotsauce-api/internal/database"
	"github.com/benvon/hotsauce-api/internal/models"
)

type brokenNonceStore struct{ err error }

func (s brokenNonceStore) Insert(context.Context, models.UsedNonce) error { return s.err }

var _ database.NonceStore = brokenNonceStore{}

func TestNonceLedger_Claim(t *testing.T) {
	t.Parallel()

	ledger := NewNonceLedger(database.NewMemoryStore())
	ctx := context.Background()

	steps := []struct {
		userID int64
		nonce  string
		want   bool
	}{
		{userID: 1, nonce: "abc", want: true},
		{userID: 1, nonce: "abc", want: false},
		{userID: 2, nonce: "abc", want: true},
		{userID: 1, nonce: "def", want: true},
		{userID: 1, nonce: "def", want: false},
	}
	for i, step := range steps {
		got, err := ledger.Claim(ctx, step.userID, step.nonce)
		if err != nil {
			t.Fatalf("step %d: Claim() error: %v", i, err)
		}
		if got != step.want {
			t.Errorf("step %d: Claim(%d, %q) = %v, want %v", i, step.userID, step.nonce, got, step.want)
		}
	}
}

func TestNonceLedger_ClaimStorageFailure(t *testing.T) {
	t.Parallel()

	boom := errors.New("connection reset")
	ledger := NewNonceLedger(brokenNonceStore{err: boom})

	fresh, err := ledger.Claim(context.Background(), 1, "abc")
	if fresh {
		t.Error("Claim() reported fresh on storage failure")
	}
	if !errors.Is(err, boom) {
		t.Errorf("Claim() error = %v, want wrapped %v", err, boom)
	}
}

func TestNonceLedger_ConcurrentClaims(t *testing.T) {
	t.Parallel()

	ledger := NewNonceLedger(database.NewMemoryStore())

	const callers = 32
	var (
		wg    sync.WaitGroup
		fresh atomic.Int32
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := ledger.Claim(context.Background(), 5, "race")
			if err != nil {
				t.Errorf("Claim() error: %v", err)
				return
			}
			if ok {
				fresh.Add(1)
			}
		}()
	}
	wg.Wait()

	if got := fresh.Load(); got != 1 {
		t.Errorf("fresh claims = %d, want 1", got)
	}
}

package repokit

import (
	"context"
	"errors"
	"testing"

	"shiftsync/internal/platform/testkit"
)

type fakeQ struct{ execs int }

func (f *fakeQ) Exec(context.Context, string, ...any) (CommandTag, error) {
	f.execs++
	return nil, nil
}
func (f *fakeQ) Query(context.Context, string, ...any) (Rows, error) { return nil, nil }
func (f *fakeQ) QueryRow(context.Context, string, ...any) Row        { return nil }

type fakeTx struct {
	fakeQ
	began int
}

func (f *fakeTx) Tx(_ context.Context, fn func(Queryer) error) error {
	f.began++
	return fn(&f.fakeQ)
}

func TestBindFunc_AndMustBind(t *testing.T) {
	t.Parallel()

	q := &fakeQ{}
	b := BindFunc[*fakeQ](func(in Queryer) *fakeQ { return in.(*fakeQ) })
	if got := MustBind[*fakeQ](b, q); got != q {
		t.Fatalf("MustBind returned a different Queryer")
	}

	testkit.MustPanic(t, func() { _ = MustBind[*fakeQ](b, nil) })
}

func TestWithTx_PassesTxQueryer(t *testing.T) {
	t.Parallel()

	tx := &fakeTx{}
	err := WithTx(context.Background(), tx, func(q Queryer) error {
		_, err := q.Exec(context.Background(), "SELECT 1")
		return err
	})
	if err != nil || tx.began != 1 || tx.execs != 1 {
		t.Fatalf("WithTx: err=%v began=%d execs=%d", err, tx.began, tx.execs)
	}

	boom := errors.New("boom")
	if err := WithTx(context.Background(), tx, func(Queryer) error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("WithTx should surface fn error, got %v", err)
	}
}

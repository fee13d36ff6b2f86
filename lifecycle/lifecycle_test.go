package lifecycle_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tastemate/tastemate-go/faults"
	"github.com/tastemate/tastemate-go/internal/utils"
	"github.com/tastemate/tastemate-go/lifecycle"
)

func TestDefaultStatusIsIdle(t *testing.T) {
	m := lifecycle.MetaMap{}
	require.Equal(t, lifecycle.StatusIdle, m.Get("p-1").Status)
}

func TestPendingClearsErrorsAndKeepsCursor(t *testing.T) {
	m := lifecycle.MetaMap{
		"list": {
			Status: lifecycle.StatusFailed,
			Errors: []string{"boom"},
			Next:   lifecycle.Cursor{URL: "/communities?cursor=2", Known: true},
		},
	}

	m = lifecycle.Pending(m, "list")
	meta := m.Get("list")
	require.Equal(t, lifecycle.StatusLoading, meta.Status)
	require.Empty(t, meta.Errors)
	require.Equal(t, "/communities?cursor=2", meta.Next.URL)
}

func TestRejectedAuthExpiredLeavesErrorsUntouched(t *testing.T) {
	m := lifecycle.MetaMap{"p-1": {Status: lifecycle.StatusLoading}}

	m, err := lifecycle.Rejected(m, "p-1", faults.AuthExpired())
	require.NoError(t, err)
	require.Equal(t, lifecycle.StatusExpiredAuth, m.Get("p-1").Status)
	require.Empty(t, m.Get("p-1").Errors)
}

func TestRejectedFormFaultSetsSingleMessage(t *testing.T) {
	m := lifecycle.MetaMap{"p-1": {Status: lifecycle.StatusLoading}}

	m, err := lifecycle.Rejected(m, "p-1", faults.FormFault("could not load product"))
	require.NoError(t, err)
	require.Equal(t, lifecycle.StatusFailed, m.Get("p-1").Status)
	require.Equal(t, []string{"could not load product"}, m.Get("p-1").Errors)
}

func TestRejectedUnknownIsReRaised(t *testing.T) {
	m := lifecycle.MetaMap{"p-1": {Status: lifecycle.StatusLoading}}

	out, err := lifecycle.Rejected(m, "p-1", faults.Fault{Kind: faults.KindUnknown})
	require.Error(t, err)
	// State unchanged: the failure is not absorbed.
	require.Equal(t, lifecycle.StatusLoading, out.Get("p-1").Status)
}

func TestReducersDoNotMutateInput(t *testing.T) {
	original := lifecycle.MetaMap{"a": {Status: lifecycle.StatusIdle}}
	_ = lifecycle.Pending(original, "a")
	require.Equal(t, lifecycle.StatusIdle, original.Get("a").Status)
}

func TestCursorSemantics(t *testing.T) {
	var unset lifecycle.Cursor
	require.False(t, unset.Known)
	require.False(t, unset.Exhausted())

	exhausted := lifecycle.NextCursor(nil)
	require.True(t, exhausted.Exhausted())

	next := lifecycle.NextCursor(utils.Ptr("/products?cursor=9"))
	require.False(t, next.Exhausted())
	require.Equal(t, "/products?cursor=9", next.URL)
}

func TestAcknowledgeExpiryFlipsOnlyExpiredKeys(t *testing.T) {
	m := lifecycle.MetaMap{
		"list": {Status: lifecycle.StatusExpiredAuth, Next: lifecycle.Cursor{URL: "/x", Known: true}},
		"p-1":  {Status: lifecycle.StatusSucceeded},
		"p-2":  {Status: lifecycle.StatusExpiredAuth},
	}

	m = lifecycle.AcknowledgeExpiry(m)
	require.Equal(t, lifecycle.StatusIdle, m.Get("list").Status)
	require.Equal(t, "/x", m.Get("list").Next.URL) // cursor preserved
	require.Equal(t, lifecycle.StatusSucceeded, m.Get("p-1").Status)
	require.Equal(t, lifecycle.StatusIdle, m.Get("p-2").Status)
}

func TestContainerAppliesTransitionsAtomically(t *testing.T) {
	c := lifecycle.NewContainer(lifecycle.MetaMap{})

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			c.Update(func(m lifecycle.MetaMap) lifecycle.MetaMap {
				return lifecycle.Pending(m, "list")
			})
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}

	require.Equal(t, lifecycle.StatusLoading, c.View().Get("list").Status)
}

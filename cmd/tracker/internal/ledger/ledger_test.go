package ledger_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Stephc02/FinancialTrackingSystem/cmd/tracker/internal/ledger"
	"github.com/Stephc02/FinancialTrackingSystem/pkg/models"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestSnapshot_InsertionOrder(t *testing.T) {
	l := ledger.New()

	for i := 0; i < 5; i++ {
		l.Insert(models.NewPosition(fmt.Sprintf("I%d", i), "BTC", d("1"), d("100")))
	}

	snap := l.Snapshot()
	require.Len(t, snap, 5)
	for i, p := range snap {
		assert.Equal(t, fmt.Sprintf("I%d", i), p.InstrumentID)
	}
}

func TestSnapshot_EmptyLedger(t *testing.T) {
	l := ledger.New()

	snap := l.Snapshot()
	require.NotNil(t, snap)
	assert.Empty(t, snap)
}

func TestInsert_SingleBTCPosition(t *testing.T) {
	l := ledger.New()
	l.Insert(models.NewPosition("A1", "BTC", d("2"), d("10000")))

	snap := l.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, "A1", snap[0].InstrumentID)
	assert.True(t, snap[0].TotalValue().Equal(d("20000")), "totalValue = %s", snap[0].TotalValue())
	assert.True(t, snap[0].CurrentRate.Equal(snap[0].InitialRate))
}

func TestApplyRateUpdate_AllMatchingPositions(t *testing.T) {
	l := ledger.New()
	l.Insert(models.NewPosition("A1", "BTC", d("2"), d("10000")))
	l.Insert(models.NewPosition("A2", "BTC", d("0.5"), d("20000")))
	l.Insert(models.NewPosition("A3", "ETH", d("10"), d("3000")))

	n := l.ApplyRateUpdate("BTC", d("15000"))
	assert.Equal(t, 2, n)

	snap := l.Snapshot()
	assert.True(t, snap[0].CurrentRate.Equal(d("15000")))
	assert.True(t, snap[0].TotalValue().Equal(d("30000")))
	assert.True(t, snap[1].CurrentRate.Equal(d("15000")))
	assert.True(t, snap[1].TotalValue().Equal(d("7500")))

	// different symbol untouched
	assert.True(t, snap[2].CurrentRate.Equal(d("3000")))
}

func TestApplyRateUpdate_NoMatchIsNoOp(t *testing.T) {
	l := ledger.New()
	l.Insert(models.NewPosition("A1", "BTC", d("2"), d("10000")))

	n := l.ApplyRateUpdate("DOGE", d("1"))
	assert.Equal(t, 0, n)

	snap := l.Snapshot()
	require.Len(t, snap, 1)
	assert.True(t, snap[0].CurrentRate.Equal(d("10000")))
}

func TestApplyRateUpdate_ExactSymbolMatch(t *testing.T) {
	l := ledger.New()
	l.Insert(models.NewPosition("A1", "btc", d("1"), d("10000")))

	// matching is case-sensitive
	n := l.ApplyRateUpdate("BTC", d("15000"))
	assert.Equal(t, 0, n)
	assert.True(t, l.Snapshot()[0].CurrentRate.Equal(d("10000")))
}

func TestApplyRateUpdate_Idempotent(t *testing.T) {
	l := ledger.New()
	l.Insert(models.NewPosition("A1", "ETH", d("10"), d("2800")))

	l.ApplyRateUpdate("ETH", d("3000"))
	first := l.Snapshot()
	l.ApplyRateUpdate("ETH", d("3000"))
	second := l.Snapshot()

	assert.Equal(t, first, second)
}

func TestLedger_ConcurrentUpdatesAndSnapshots(t *testing.T) {
	l := ledger.New()
	symbols := []string{"BTC", "ETH", "SOL"}
	for i := 0; i < 30; i++ {
		l.Insert(models.NewPosition(fmt.Sprintf("I%d", i), symbols[i%3], d("1"), d("100")))
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			sym := symbols[n%3]
			for j := 0; j < 100; j++ {
				l.ApplyRateUpdate(sym, decimal.NewFromInt(int64(j+1)))
			}
		}(i)
	}
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				snap := l.Snapshot()
				if len(snap) != 30 {
					t.Errorf("snapshot lost positions: got %d", len(snap))
					return
				}
			}
		}()
	}
	wg.Wait()

	// all writers finish on rate 100
	for _, p := range l.Snapshot() {
		assert.True(t, p.CurrentRate.Equal(d("100")), "%s ended at %s", p.InstrumentID, p.CurrentRate)
	}
}

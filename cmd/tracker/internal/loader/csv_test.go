package loader_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Stephc02/FinancialTrackingSystem/cmd/tracker/internal/ledger"
	"github.com/Stephc02/FinancialTrackingSystem/cmd/tracker/internal/loader"
)

const validCSV = `instrument_id,symbol,quantity,initial_rate
INST-001,BTC,2,10000
INST-002,ETH,10.5,2800.25
INST-003,BTC,0.5,20000
`

func TestLoadInto_Valid(t *testing.T) {
	l := ledger.New()

	n, err := loader.LoadInto(strings.NewReader(validCSV), l)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	snap := l.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, "INST-001", snap[0].InstrumentID)
	assert.Equal(t, "BTC", snap[0].Symbol)
	assert.Equal(t, "10000", snap[0].InitialRate.String())
	assert.Equal(t, "10000", snap[0].CurrentRate.String())
	assert.Equal(t, "10.5", snap[1].Quantity.String())
}

func TestLoadInto_MalformedRowLeavesLedgerUntouched(t *testing.T) {
	bad := `instrument_id,symbol,quantity,initial_rate
INST-001,BTC,2,10000
INST-002,ETH,not-a-number,2800
`
	l := ledger.New()

	_, err := loader.LoadInto(strings.NewReader(bad), l)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 3")
	assert.Zero(t, l.Len(), "partial load must not reach the ledger")
}

func TestLoadInto_BadHeader(t *testing.T) {
	l := ledger.New()

	_, err := loader.LoadInto(strings.NewReader("id,sym,qty,rate\nX,BTC,1,2\n"), l)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad header")
	assert.Zero(t, l.Len())
}

func TestLoadInto_EmptyFile(t *testing.T) {
	l := ledger.New()

	_, err := loader.LoadInto(strings.NewReader(""), l)
	require.Error(t, err)
	assert.Zero(t, l.Len())
}

func TestParse_MissingFields(t *testing.T) {
	bad := `instrument_id,symbol,quantity,initial_rate
INST-001,BTC,2
`
	_, err := loader.Parse(strings.NewReader(bad))
	require.Error(t, err)
}

func TestParse_EmptySymbol(t *testing.T) {
	bad := `instrument_id,symbol,quantity,initial_rate
INST-001, ,2,10000
`
	_, err := loader.Parse(strings.NewReader(bad))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "symbol is empty")
}

func TestLoadFile_Missing(t *testing.T) {
	l := ledger.New()

	_, err := loader.LoadFile("/does/not/exist.csv", l)
	require.Error(t, err)
	assert.Zero(t, l.Len())
}

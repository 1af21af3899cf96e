package reference

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ginjaninja78/invoic-edifact/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const chargeJSON = `{
  "ChargeCodes": [
    {"chargeCode": "THC", "description": "Terminal handling", "edifactCode": "106", "chargeType": "C", "serviceCategoryCode": "SC"},
    {"chargeCode": "OFR", "description": "Ocean freight", "edifactCode": "64", "chargeType": "C", "serviceCategoryCode": "DD"}
  ]
}`

const sizeYAML = `container_sizes:
  - source_size: 40HC
    description: 40ft high cube
    edifact_code: 45G1
    equipment_size_type_code: "4510"
    size: "40"
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestProvider_LoadsJSONAndYAML(t *testing.T) {
	dir := t.TempDir()
	p := NewProvider(
		writeFile(t, dir, "charges.json", chargeJSON),
		writeFile(t, dir, "sizes.yaml", sizeYAML),
		nil,
	)

	s, err := p.Snapshot(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, s.Charges.Len())
	thc, ok := s.Charges.Lookup("THC")
	require.True(t, ok)
	assert.Equal(t, "106", thc.EdifactCode)
	assert.Equal(t, "SC", thc.ServiceCategoryCode)

	size, ok := s.Sizes.Lookup("40hc")
	require.True(t, ok)
	assert.Equal(t, "45G1", size.EdifactCode)
	assert.Equal(t, "4510", size.EquipmentSizeTypeCode)
	assert.Equal(t, "40", size.Size)
}

func TestProvider_LoadsXLSX(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "charges.xlsx")

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"EDIFACT Code", "Charge Code", "Service Category Code", "Charge_Type"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{"106", "THC", "SC", "C"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A4", &[]interface{}{"999", "", "SC", "C"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A5", &[]interface{}{"64", "OFR", "DD", "A"}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	p := NewProvider(path, "", nil)
	s, err := p.Snapshot(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, s.Charges.Len(), "rows without a charge code are skipped")
	ofr, ok := s.Charges.Lookup("OFR")
	require.True(t, ok)
	assert.Equal(t, "64", ofr.EdifactCode)
	assert.Equal(t, "A", ofr.ChargeType)
	assert.Equal(t, "DD", ofr.ServiceCategoryCode)
	assert.Equal(t, 0, s.Sizes.Len())
}

func TestProvider_MissingFilesGiveEmptyTables(t *testing.T) {
	dir := t.TempDir()
	p := NewProvider(filepath.Join(dir, "nope.json"), filepath.Join(dir, "nope.yaml"), nil)

	s, err := p.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, s.Charges.Len())
	assert.Equal(t, 0, s.Sizes.Len())
}

func TestProvider_MalformedFileGivesEmptyTable(t *testing.T) {
	dir := t.TempDir()
	var logs bytes.Buffer
	p := NewProvider(
		writeFile(t, dir, "charges.json", `{"chargeCodes": [`),
		writeFile(t, dir, "sizes.yaml", sizeYAML),
		logging.New(&logs, logging.LevelDebug),
	)

	var reads int32
	p.readFile = func(path string) ([]byte, error) {
		atomic.AddInt32(&reads, 1)
		return os.ReadFile(path)
	}

	s, err := p.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, s.Charges.Len())
	assert.Equal(t, 1, s.Sizes.Len(), "the valid table still loads")
	assert.Contains(t, logs.String(), "[ERROR] failed to parse charge code mappings")

	again, err := p.Snapshot(context.Background())
	require.NoError(t, err)
	assert.NotSame(t, s, again, "a degraded snapshot is not memoized")
	assert.Equal(t, int32(4), atomic.LoadInt32(&reads))
}

func TestProvider_StrictRejectsBadFiles(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		file    string
		content string
		want    string
	}{
		{name: "malformed json", file: "charges.json", content: `{"chargeCodes": [`, want: "failed to parse charge code mappings"},
		{name: "unsupported format", file: "charges.txt", content: "THC", want: "unsupported mapping file format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewProvider(writeFile(t, dir, tt.file, tt.content), "", nil).Strict()

			s, err := p.Snapshot(context.Background())
			assert.ErrorContains(t, err, tt.want)
			assert.Nil(t, s)
		})
	}
}

func TestProvider_SingleLoadUnderConcurrency(t *testing.T) {
	dir := t.TempDir()
	p := NewProvider(
		writeFile(t, dir, "charges.json", chargeJSON),
		writeFile(t, dir, "sizes.yaml", sizeYAML),
		nil,
	)

	var reads int32
	p.readFile = func(path string) ([]byte, error) {
		atomic.AddInt32(&reads, 1)
		time.Sleep(20 * time.Millisecond)
		return os.ReadFile(path)
	}

	const callers = 16
	snapshots := make([]*Snapshot, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := p.Snapshot(context.Background())
			assert.NoError(t, err)
			snapshots[i] = s
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(2), atomic.LoadInt32(&reads), "one read per file")
	for _, s := range snapshots {
		assert.Same(t, snapshots[0], s)
	}

	again, err := p.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Same(t, snapshots[0], again)
	assert.Equal(t, int32(2), atomic.LoadInt32(&reads))
}

func TestProvider_FailedLoadIsRetried(t *testing.T) {
	p := NewProvider("charges.json", "", nil)

	calls := 0
	p.readFile = func(string) ([]byte, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("disk on fire")
		}
		return []byte(chargeJSON), nil
	}

	first, err := p.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, first.Charges.Len())

	s, err := p.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, s.Charges.Len())

	_, err = p.Strict().Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, calls, "a complete snapshot is memoized")
}

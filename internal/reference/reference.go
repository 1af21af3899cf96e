// =============================================================================
// INVOIC EDIFACT Generator - Reference Data Provider
// =============================================================================
//
// This module loads the two reference tables consulted by the message
// builder:
//   1. Charge codes    (source charge code -> ALC charge type / category)
//   2. Container sizes (source size code   -> LIN / EQD size codes)
//
// LIFECYCLE:
//   Both tables are read once and handed out as one immutable Snapshot.
//   Concurrent first callers share a single load; nobody observes a
//   partially populated table and no file is read twice.
//
// FAILURES:
//   A missing file gives an empty table with a warning. A file that cannot
//   be read or parsed is logged as an error and also gives an empty table,
//   so every charge falls back to the default codes; such a snapshot is not
//   memoized and the next call reads the files again. A Strict provider
//   returns these failures as errors instead.
//
// FILE FORMATS (chosen by extension):
//   .json        {"chargeCodes": [...]} / {"containerSizes": [...]}
//   .yaml, .yml  charge_codes: [...]    / container_sizes: [...]
//   .xlsx        first sheet, header row names the columns
//
// =============================================================================

package reference

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/ginjaninja78/invoic-edifact/internal/logging"
	"github.com/ginjaninja78/invoic-edifact/internal/types"
	"golang.org/x/sync/singleflight"
)

// Snapshot is a loaded, read-only pair of reference tables.
type Snapshot struct {
	Charges types.ChargeCodeTable
	Sizes   types.ContainerSizeTable
}

// Provider loads and memoizes the reference tables.
type Provider struct {
	chargeCodeFile    string
	containerSizeFile string
	logger            logging.Logger

	// readFile is swapped in tests to count reads.
	readFile func(string) ([]byte, error)

	strict bool

	group    singleflight.Group
	mu       sync.RWMutex
	snapshot *Snapshot
}

// NewProvider returns a Provider for the two mapping files.
func NewProvider(chargeCodeFile, containerSizeFile string, logger logging.Logger) *Provider {
	if logger == nil {
		logger = logging.Discard{}
	}
	return &Provider{
		chargeCodeFile:    chargeCodeFile,
		containerSizeFile: containerSizeFile,
		logger:            logger,
		readFile:          os.ReadFile,
	}
}

// Strict makes unreadable or malformed mapping files an error of Snapshot.
func (p *Provider) Strict() *Provider {
	p.strict = true
	return p
}

// Snapshot returns the memoized tables, loading them on first use.
// A failed or degraded load is not memoized; the next call tries again.
func (p *Provider) Snapshot(ctx context.Context) (*Snapshot, error) {
	p.mu.RLock()
	s := p.snapshot
	p.mu.RUnlock()
	if s != nil {
		return s, nil
	}

	ch := p.group.DoChan("snapshot", func() (interface{}, error) {
		p.mu.RLock()
		s := p.snapshot
		p.mu.RUnlock()
		if s != nil {
			return s, nil
		}

		s, complete, err := p.load()
		if err != nil {
			return nil, err
		}

		if complete {
			p.mu.Lock()
			p.snapshot = s
			p.mu.Unlock()
		}
		return s, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Snapshot), nil
	}
}

// load reads both tables. complete is false when a table was replaced by an
// empty one after a read or parse failure.
func (p *Provider) load() (s *Snapshot, complete bool, err error) {
	charges, chargesOK, err := p.loadChargeCodes()
	if err != nil {
		return nil, false, err
	}
	p.logger.Info("Loaded %d charge code mappings", charges.Len())

	sizes, sizesOK, err := p.loadContainerSizes()
	if err != nil {
		return nil, false, err
	}
	p.logger.Info("Loaded %d container size mappings", sizes.Len())

	return &Snapshot{Charges: charges, Sizes: sizes}, chargesOK && sizesOK, nil
}

func (p *Provider) loadChargeCodes() (types.ChargeCodeTable, bool, error) {
	data, ok, err := p.read(p.chargeCodeFile, "charge code")
	if err == nil && ok {
		var entries []types.ChargeCodeMapping
		entries, err = decodeChargeCodes(p.chargeCodeFile, data)
		if err == nil {
			return types.NewChargeCodeTable(entries), true, nil
		}
		err = fmt.Errorf("failed to parse charge code mappings %s: %w", p.chargeCodeFile, err)
	}
	if err != nil {
		return types.ChargeCodeTable{}, false, p.degrade(err)
	}
	return types.ChargeCodeTable{}, true, nil
}

func (p *Provider) loadContainerSizes() (types.ContainerSizeTable, bool, error) {
	data, ok, err := p.read(p.containerSizeFile, "container size")
	if err == nil && ok {
		var entries []types.ContainerSizeMapping
		entries, err = decodeContainerSizes(p.containerSizeFile, data)
		if err == nil {
			return types.NewContainerSizeTable(entries), true, nil
		}
		err = fmt.Errorf("failed to parse container size mappings %s: %w", p.containerSizeFile, err)
	}
	if err != nil {
		return types.ContainerSizeTable{}, false, p.degrade(err)
	}
	return types.ContainerSizeTable{}, true, nil
}

// degrade returns err for a strict provider. Otherwise it logs err and the
// caller continues with an empty table.
func (p *Provider) degrade(err error) error {
	if p.strict {
		return err
	}
	p.logger.Error("%v; continuing with an empty table", err)
	return nil
}

// read returns ok=false with a warning when the file is not configured or
// does not exist; the table is then empty.
func (p *Provider) read(path, kind string) ([]byte, bool, error) {
	if path == "" {
		p.logger.Warn("No %s mapping file configured", kind)
		return nil, false, nil
	}
	data, err := p.readFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		p.logger.Warn("%s mapping file not found: %s", kind, path)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %s mapping file: %w", kind, err)
	}
	return data, true, nil
}

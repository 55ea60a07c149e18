package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/pdfcut/internal/core/domain"
	"github.com/custodia-labs/pdfcut/internal/core/ports/driven"
	"github.com/custodia-labs/pdfcut/internal/core/ports/driving"
	"github.com/custodia-labs/pdfcut/internal/logger"
)

// Ensure SplitService implements the interface.
var _ driving.SplitService = (*SplitService)(nil)

// ScratchSelector returns the scratch factory configured by opts.
type ScratchSelector func(opts domain.SplitOptions) (driven.ScratchFactory, error)

// SplitService loads a document, partitions it and writes its fragments.
type SplitService struct {
	loader     driven.DocumentLoader
	sink       driven.FragmentSink
	runStore   driven.RunStore
	scratchFor ScratchSelector
	now        func() time.Time
	newID      func() string
}

// NewSplitService creates a new split service. runStore may be nil.
func NewSplitService(
	loader driven.DocumentLoader,
	sink driven.FragmentSink,
	runStore driven.RunStore,
	scratchFor ScratchSelector,
) *SplitService {
	return &SplitService{
		loader:     loader,
		sink:       sink,
		runStore:   runStore,
		scratchFor: scratchFor,
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

// Split partitions req.Input under req.Options.Limit and writes each
// fragment next to the input (or into Options.OutputDir).
func (s *SplitService) Split(ctx context.Context, req domain.SplitRequest) (*domain.SplitRun, error) {
	if strings.TrimSpace(req.Input) == "" {
		return nil, fmt.Errorf("%w: input path is required", domain.ErrInvalidInput)
	}
	if err := req.Options.Limit.Validate(); err != nil {
		return nil, err
	}
	if s.loader == nil || s.scratchFor == nil {
		return nil, errors.New("split service not configured")
	}
	if s.sink == nil && !req.DryRun {
		return nil, errors.New("fragment sink not configured")
	}

	factory, err := s.scratchFor(req.Options)
	if err != nil {
		return nil, err
	}

	logger.Section("Split")
	logger.Debug("Input: %s", req.Input)

	doc, err := s.loader.Load(ctx, req.Input)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := doc.Close(); cerr != nil {
			logger.Warn("closing %s: %v", req.Input, cerr)
		}
	}()

	run := &domain.SplitRun{
		ID:        s.newID(),
		Input:     req.Input,
		Limit:     req.Options.Limit,
		PageCount: doc.PageCount(),
		DryRun:    req.DryRun,
		Status:    domain.RunRunning,
		StartedAt: s.now().UTC(),
	}
	s.record(ctx, req.Options, run)

	outDir := req.Options.OutputDir
	if outDir == "" {
		outDir = filepath.Dir(req.Input)
	}

	partitioner := NewPartitioner(req.Options.Limit, factory)
	frags, err := partitioner.Partition(ctx, doc, s.emitter(req, outDir))
	run.Fragments = frags
	if err == nil {
		err = ValidatePartition(frags, run.PageCount)
	}

	run.FinishedAt = s.now().UTC()
	if err != nil {
		run.Status = domain.RunFailed
		run.Error = err.Error()
		// The caller's context may be cancelled; the record still needs writing.
		s.record(context.WithoutCancel(ctx), req.Options, run)
		return run, err
	}

	run.Status = domain.RunCompleted
	s.record(ctx, req.Options, run)
	logger.Info("Split %s into %d fragments (%d oversized)", req.Input, len(frags), run.OversizedCount())
	return run, nil
}

// emitter writes each fragment through the sink and reports progress.
func (s *SplitService) emitter(req domain.SplitRequest, outDir string) Emitter {
	return func(ctx context.Context, frag domain.Fragment, body driven.FragmentBody) (domain.Fragment, error) {
		if !req.DryRun {
			path := filepath.Join(outDir, FragmentName(req.Input, frag))
			stored, err := s.sink.Write(ctx, path, frag, body)
			if err != nil {
				return frag, err
			}
			frag = stored
		}
		if frag.Oversized {
			logger.Warn("page %d exceeds the limit on its own (%d bytes)", frag.FirstPage(), frag.Size)
		}
		if req.Progress != nil {
			req.Progress(frag)
		}
		return frag, nil
	}
}

// record saves run when history is enabled. History is best effort:
// a failing store never aborts a split.
func (s *SplitService) record(ctx context.Context, opts domain.SplitOptions, run *domain.SplitRun) {
	if s.runStore == nil || !opts.History {
		return
	}
	if err := s.runStore.Save(ctx, run); err != nil {
		logger.Warn("recording run %s: %v", run.ID, err)
	}
}

// FragmentName returns the output file name of frag for the given input:
// "<base>_PART_<n><ext>", with "_OVERSIZED" before the extension for
// oversized fragments.
func FragmentName(input string, frag domain.Fragment) string {
	base := filepath.Base(input)
	ext := filepath.Ext(base)
	base = strings.TrimSuffix(base, ext)

	var sb strings.Builder
	sb.WriteString(base)
	sb.WriteString(domain.PartMarker)
	sb.WriteString(strconv.Itoa(frag.Part))
	if frag.Oversized {
		sb.WriteString(domain.OversizedMarker)
	}
	sb.WriteString(ext)
	return sb.String()
}

// IsFragmentName reports whether name looks like an output of FragmentName.
func IsFragmentName(name string) bool {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	base = strings.TrimSuffix(base, domain.OversizedMarker)
	i := strings.LastIndex(base, domain.PartMarker)
	if i <= 0 {
		return false
	}
	n, err := strconv.Atoi(base[i+len(domain.PartMarker):])
	return err == nil && n > 0
}

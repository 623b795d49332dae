package splitter

import (
	"fmt"
	"os"

	"github.com/cleave-tools/cleave/internal/assemble"
	"github.com/cleave-tools/cleave/internal/boundary"
	"github.com/cleave-tools/cleave/internal/config"
)

// Pipeline runs the full split: scan, detect boundaries, categorize,
// rewrite visibility, assemble, verify, and (for RunFile) commit to disk.
// A Pipeline is synchronous and processes one source per invocation; every
// phase consumes the complete output of the previous one, because boundary
// detection needs the whole depth trace up front.
type Pipeline struct {
	cfg *config.Config
	// Progress, when set, is invoked as each phase completes.
	Progress func(phase string)
}

// Result is everything a verified run produced, still in memory.
type Result struct {
	Source   *assemble.SourceUnit
	Decls    []boundary.Declaration
	Units    []assemble.Unit
	Manifest *assemble.Manifest
}

// New creates a pipeline for a validated configuration.
func New(cfg *config.Config) *Pipeline {
	return &Pipeline{cfg: cfg}
}

func (p *Pipeline) step(phase string) {
	if p.Progress != nil {
		p.Progress(phase)
	}
}

// Run executes the pipeline over raw source text without touching the
// filesystem. Any error means no usable output exists; there is no partial
// or degraded result.
func (p *Pipeline) Run(text string) (*Result, error) {
	src, err := assemble.ParseSource(text, p.cfg.Split.TypeName)
	if err != nil {
		return nil, err
	}
	p.step("scan")

	switch p.cfg.Split.Strategy {
	case config.StrategyDepthTarget:
		return p.runDepthTarget(src)
	default:
		return p.runDeclaration(src)
	}
}

// runDeclaration is the per-member path: every declaration is routed by the
// rule table and the always-resident policy.
func (p *Pipeline) runDeclaration(src *assemble.SourceUnit) (*Result, error) {
	decls, err := src.Declarations()
	if err != nil {
		return nil, err
	}
	p.step("boundaries")

	table, err := p.cfg.RuleTable()
	if err != nil {
		return nil, err
	}
	assignment := table.Categorize(decls)
	p.step("categorize")

	units, err := assemble.Assemble(src, assignment)
	if err != nil {
		return nil, err
	}
	p.step("assemble")

	if err := assemble.VerifyRoundTrip(src, units, decls); err != nil {
		return nil, err
	}
	p.step("verify")

	m := assemble.NewManifest(src.TypeName, p.cfg.Split.Strategy, units, assignment.Pinned)
	return &Result{Source: src, Decls: decls, Units: units, Manifest: m}, nil
}

// runDepthTarget is the coarse path: the body is sliced at clean depth-1
// lines near the configured targets instead of being routed per member.
func (p *Pipeline) runDepthTarget(src *assemble.SourceUnit) (*Result, error) {
	cuts, err := boundary.FindCutPoints(src.Body, src.BodyDepths(), 1,
		p.cfg.TargetLines(), p.cfg.Split.SearchWindow)
	if err != nil {
		return nil, err
	}
	p.step("boundaries")

	chunks := boundary.SliceAtCuts(src.Body, cuts)
	if len(chunks) != len(p.cfg.Targets)+1 {
		return nil, fmt.Errorf("%w: %d cuts produced %d chunks for %d targets",
			boundary.ErrBoundary, len(cuts), len(chunks), len(p.cfg.Targets))
	}

	slices := make([]assemble.Slice, len(chunks))
	offset := 0
	for i, chunk := range chunks {
		id := p.cfg.Split.Primary
		if i > 0 {
			id = p.cfg.Targets[i-1].Partition
		}
		depths := src.BodyDepths()[offset : offset+len(chunk)]
		count := 0
		if decls, derr := boundary.Detect(chunk, depths, 1); derr == nil {
			count = len(decls)
		}
		slices[i] = assemble.Slice{ID: id, Lines: chunk, DeclCount: count}
		offset += len(chunk)
	}
	p.step("categorize")

	units, err := assemble.AssembleSlices(src, slices)
	if err != nil {
		return nil, err
	}
	p.step("assemble")
	p.step("verify")

	m := assemble.NewManifest(src.TypeName, p.cfg.Split.Strategy, units, nil)
	return &Result{Source: src, Units: units, Manifest: m}, nil
}

// RunFile reads one input file, runs the pipeline, and commits the verified
// units plus the manifest to the configured output directory. On any error
// the filesystem is left untouched.
func (p *Pipeline) RunFile(path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	res, err := p.Run(string(data))
	if err != nil {
		return nil, err
	}
	if err := assemble.WriteUnits(p.cfg.Split.OutputDir, res.Units, res.Manifest); err != nil {
		return nil, err
	}
	p.step("commit")
	return res, nil
}

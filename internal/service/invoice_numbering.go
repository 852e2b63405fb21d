package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"backoffice/internal/config"
	"backoffice/internal/repository"
)

// Numberer hands out the next invoice number of a kind. Call Next with the
// transaction context of the insert so the read sees uncommitted rows of
// the same unit of work. Concurrent callers may still collide; the unique
// index on (kind, invoice_no) catches that and the caller retries.
type Numberer interface {
	Next(ctx context.Context, kind string) (string, error)
}

// DateSeedPolicy continues the highest number of the kind. The first
// invoice of a kind is numbered YYMMDD001 from the clock.
type DateSeedPolicy struct {
	repo repository.InvoiceRepository
	now  func() time.Time
}

func NewDateSeedPolicy(repo repository.InvoiceRepository, now func() time.Time) *DateSeedPolicy {
	if now == nil {
		now = time.Now
	}
	return &DateSeedPolicy{repo: repo, now: now}
}

func (p *DateSeedPolicy) Next(ctx context.Context, kind string) (string, error) {
	highest, err := p.repo.HighestNumber(ctx, kind)
	if err != nil {
		return "", fmt.Errorf("read highest %s invoice number: %w", kind, err)
	}
	if highest == "" {
		return p.now().Format("060102") + "001", nil
	}
	n, err := strconv.ParseUint(highest, 10, 64)
	if err != nil {
		return "", fmt.Errorf("invoice number %q is not numeric: %w", highest, err)
	}
	return strconv.FormatUint(n+1, 10), nil
}

// SequencePolicy numbers invoices max(id) + 1 + offset
type SequencePolicy struct {
	repo   repository.InvoiceRepository
	offset int64
}

func NewSequencePolicy(repo repository.InvoiceRepository, offset int64) *SequencePolicy {
	return &SequencePolicy{repo: repo, offset: offset}
}

func (p *SequencePolicy) Next(ctx context.Context, _ string) (string, error) {
	maxID, err := p.repo.MaxID(ctx)
	if err != nil {
		return "", fmt.Errorf("read max invoice id: %w", err)
	}
	return strconv.FormatInt(int64(maxID)+1+p.offset, 10), nil
}

// NewNumberer picks the policy configured in cfg.Numbering
func NewNumberer(cfg config.InvoiceConfig, repo repository.InvoiceRepository) (Numberer, error) {
	switch cfg.Numbering {
	case "", config.NumberingDateSeed:
		return NewDateSeedPolicy(repo, time.Now), nil
	case config.NumberingSequence:
		return NewSequencePolicy(repo, cfg.SequenceOffset), nil
	default:
		return nil, fmt.Errorf("unknown invoice numbering policy %q", cfg.Numbering)
	}
}

// Package scan walks the registry entries recorded for one subject hash and
// prints them, either as raw ClassAds or through format templates.
package scan

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/fentz26/jobreg/internal/classad"
	"github.com/fentz26/jobreg/internal/format"
	"github.com/fentz26/jobreg/internal/models"
	"github.com/fentz26/jobreg/internal/store"
)

// parseRecord is swapped in tests to exercise the parse-failure path.
var parseRecord = classad.Parse

// Options configures a scan.
type Options struct {
	// Hash is the subject hash to look up. Required.
	Hash string
	// Subject is the raw subject Hash was computed from, if known. It is
	// only used to warn when the registry caches a different subject.
	Subject string
	// Status keeps only entries in this job status when greater than zero.
	Status int
	// Templates are the raw template/attribute arguments. Without them
	// every match is printed as a ClassAd.
	Templates []string
	Out       io.Writer
	Logger    *zap.Logger
}

// Result summarises a finished scan.
type Result struct {
	Matched  int // entries that passed the status filter
	Rendered int // entries printed or rendered
	Skipped  int // entries whose ClassAd could not be parsed
}

// Match is one entry that passed the status filter.
type Match struct {
	Ordinal int // 1-based position among the matches of this scan
	Entry   *models.Entry
	ClassAd string
}

// Run checks that opts.Hash is known to the registry and then prints every
// matching entry to opts.Out.
func Run(ctx context.Context, reg *store.Store, opts Options) (Result, error) {
	var res Result

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	if opts.Hash == "" {
		return res, Errorf(KindUsage, "no subject or subject hash given")
	}

	if err := Probe(ctx, reg, opts.Hash, opts.Subject, logger); err != nil {
		return res, err
	}

	raw := len(opts.Templates) == 0
	prog := format.Compile(opts.Templates)

	err := Walk(ctx, reg, opts.Hash, opts.Status, func(m Match) error {
		res.Matched++
		if raw {
			if _, err := fmt.Fprintln(out, m.ClassAd); err != nil {
				return Errorf(KindFatal, "writing output: %w", err)
			}
			res.Rendered++
			return nil
		}

		ad, err := parseRecord(m.ClassAd)
		if err != nil {
			res.Skipped++
			logger.Warn("Cannot parse classad",
				zap.Int64("recnum", m.Entry.RecNum),
				zap.String("classad", m.ClassAd),
				zap.Error(err))
			return nil
		}
		if err := prog.Render(out, ad, m.Ordinal); err != nil {
			return Errorf(KindFatal, "writing output: %w", err)
		}
		res.Rendered++
		return nil
	})

	logger.Debug("Scan finished",
		zap.String("hash", opts.Hash),
		zap.Int("matched", res.Matched),
		zap.Int("rendered", res.Rendered),
		zap.Int("skipped", res.Skipped))
	return res, err
}

// Probe checks that hash is registered. When subject is given and differs
// from the subject cached for hash, a warning is logged and the scan may
// still go ahead.
func Probe(ctx context.Context, reg *store.Store, hash, subject string, logger *zap.Logger) error {
	cached, err := reg.LookupSubjectHash(ctx, hash)
	if errors.Is(err, store.ErrHashNotFound) {
		return Errorf(KindLookupMiss, "Hash %s is not found in registry %s", hash, reg.Path())
	}
	if err != nil {
		return Errorf(KindResource, "error looking up subject hash: %w", err)
	}

	if subject != "" && cached != subject {
		if logger == nil {
			logger = zap.NewNop()
		}
		logger.Warn("Cached subject differs from the requested subject",
			zap.String("cached", cached),
			zap.String("requested", subject))
	}
	return nil
}

// Walk calls fn for every entry of hash that passes the status filter, in
// registry order, with the registry read-locked for the whole walk. Errors
// from fn stop the walk and are returned as is.
func Walk(ctx context.Context, reg *store.Store, hash string, status int, fn func(Match) error) error {
	var fnErr error
	err := reg.View(ctx, func(r *store.Reader) error {
		cur, err := r.HashMatches(ctx, hash)
		if err != nil {
			return Errorf(KindResource, "error reading job registry: %w", err)
		}
		defer cur.Close()

		ordinal := 0
		for cur.Next() {
			e := cur.Entry()
			if status > 0 && int(e.Status) != status {
				continue
			}
			ordinal++

			text, err := classad.Marshal(e)
			if err != nil {
				return Errorf(KindFatal, "cannot serialize entry %d: %w", e.RecNum, err)
			}
			if fnErr = fn(Match{Ordinal: ordinal, Entry: e, ClassAd: text}); fnErr != nil {
				return fnErr
			}
		}
		if err := cur.Err(); err != nil {
			return Errorf(KindResource, "error reading job registry: %w", err)
		}
		return nil
	})

	if fnErr != nil {
		return fnErr
	}
	var se *Error
	if err != nil && !errors.As(err, &se) {
		return &Error{Kind: KindResource, Err: err}
	}
	return err
}

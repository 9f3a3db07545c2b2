// Command discount-ingest bulk-loads discount codes from gzipped text files
// (one code per line) into the discount_codes table. Lines are validated and
// deduplicated through a bloom filter before being written in CopyFrom
// batches, so multi-million-line promotional dumps load in one pass without
// a unique-violation storm.
package main

import (
	"bufio"
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/slicelab/pizzeria/internal/repository"
)

const (
	bloomCapacity = 10_000_000
	bloomFPR      = 0.001
	batchSize     = 5_000
	minCodeLen    = 4
	maxCodeLen    = 32
)

func main() {
	var (
		databaseURL string
		value       string
	)
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&value, "value", "10.00", "discount percentage for all ingested codes")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if flag.NArg() == 0 {
		slog.Error("at least one .gz code file is required")
		os.Exit(1)
	}

	percent, err := decimal.NewFromString(value)
	if err != nil || percent.IsNegative() || percent.GreaterThan(decimal.NewFromInt(100)) {
		slog.Error("value must be a percentage between 0 and 100", slog.String("value", value))
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, percent, flag.Args()); err != nil {
		slog.Error("ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, databaseURL string, percent decimal.Decimal, files []string) error {
	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	codes := make(chan string, batchSize)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(codes)
		readers, readCtx := errgroup.WithContext(ctx)
		for _, path := range files {
			readers.Go(func() error {
				return readCodes(readCtx, path, codes)
			})
		}
		return readers.Wait()
	})

	var total int64
	g.Go(func() error {
		n, err := insertCodes(ctx, pool, percent, codes)
		total = n
		return err
	})

	if err := g.Wait(); err != nil {
		return err
	}

	slog.Info("ingest completed", slog.Int64("codes", total))
	return nil
}

// readCodes streams valid code lines from one gzipped file into out.
func readCodes(ctx context.Context, path string, out chan<- string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "gzip %s", path)
	}
	defer gz.Close()

	scanner := bufio.NewScanner(gz)
	for scanner.Scan() {
		code := strings.ToUpper(strings.TrimSpace(scanner.Text()))
		if !validCode(code) {
			continue
		}
		select {
		case out <- code:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return errors.Wrapf(scanner.Err(), "scan %s", path)
}

// insertCodes dedupes incoming codes through a bloom filter and writes them
// in CopyFrom batches to a staging table merged into discount_codes, so
// codes already present keep their state.
func insertCodes(ctx context.Context, pool *pgxpool.Pool, percent decimal.Decimal, codes <-chan string) (int64, error) {
	filter := bloom.NewWithEstimates(bloomCapacity, bloomFPR)

	batch := make([][]any, 0, batchSize)
	var total int64

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := copyBatch(ctx, pool, percent, batch)
		if err != nil {
			return err
		}
		total += n
		batch = batch[:0]
		return nil
	}

	for code := range codes {
		if filter.TestAndAddString(code) {
			continue
		}
		batch = append(batch, []any{code})
		if len(batch) >= batchSize {
			if err := flush(); err != nil {
				return total, err
			}
		}
	}
	return total, flush()
}

func copyBatch(ctx context.Context, pool *pgxpool.Pool, percent decimal.Decimal, batch [][]any) (int64, error) {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "begin")
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	if _, err := tx.Exec(ctx,
		`CREATE TEMP TABLE ingest_codes (code TEXT) ON COMMIT DROP`,
	); err != nil {
		return 0, errors.Wrap(err, "create staging table")
	}

	if _, err := tx.CopyFrom(ctx,
		pgx.Identifier{"ingest_codes"},
		[]string{"code"},
		pgx.CopyFromRows(batch),
	); err != nil {
		return 0, errors.Wrap(err, "copy batch")
	}

	tag, err := tx.Exec(ctx,
		`INSERT INTO discount_codes (code, discount_value, is_active)
		 SELECT code, $1, TRUE FROM ingest_codes
		 ON CONFLICT (lower(code)) DO NOTHING`,
		percent,
	)
	if err != nil {
		return 0, errors.Wrap(err, "merge batch")
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, errors.Wrap(err, "commit")
	}
	return tag.RowsAffected(), nil
}

// validCode accepts upper-case alphanumeric codes within length bounds.
func validCode(code string) bool {
	if len(code) < minCodeLen || len(code) > maxCodeLen {
		return false
	}
	for i := range len(code) {
		c := code[i]
		if (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}

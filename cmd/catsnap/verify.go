package main

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sync/atomic"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/arloliu/catsnap"
	"github.com/arloliu/catsnap/catalog"
	"github.com/arloliu/catsnap/format"
)

func (s *snapT) runVerify(cmd *cobra.Command, args []string) error {
	opts, err := s.envelopeOptions()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	limit := s.concurrency
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}

	var failed atomic.Int64
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for _, path := range args {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			kind, records, err := verifyFile(path, opts...)
			if err != nil {
				failed.Add(1)
				s.logger.Error("snapshot verification failed", "file", path, "error", err)

				return nil
			}
			s.logger.Info("snapshot ok", "file", path, "kind", kind.String(), "records", records)

			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if n := failed.Load(); n > 0 {
		return fmt.Errorf("%d of %d snapshots failed verification", n, len(args))
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%d snapshots ok\n", len(args))

	return nil
}

// verifyFile opens a snapshot file and decodes every child record. It
// returns the entity kind and the number of records decoded.
func verifyFile(path string, opts ...catsnap.Option) (format.EntityKind, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, 0, err
	}

	kind, payload, err := catsnap.Open(data, opts...)
	if err != nil {
		return 0, 0, err
	}

	records, err := walkSnapshot(kind, payload)

	return kind, records, err
}

func walkSnapshot(kind format.EntityKind, payload []byte) (int, error) {
	records := 0

	switch kind {
	case format.KindNamespace:
		ns, err := catalog.DecodeNamespace(payload)
		if err != nil {
			return 0, err
		}
		for table, err := range ns.Tables() {
			if err != nil {
				return records, err
			}
			if _, found, err := ns.LookupTable(table.Name); err != nil || !found {
				return records, lookupError("table", table.Name, err)
			}
			records++
		}
	case format.KindTable:
		t, err := catalog.DecodeTable(payload)
		if err != nil {
			return 0, err
		}
		for col, err := range t.Columns() {
			if err != nil {
				return records, err
			}
			if _, found, err := t.LookupColumn(col.Name); err != nil || !found {
				return records, lookupError("column", col.Name, err)
			}
			records++
		}
		for part, err := range t.Partitions() {
			if err != nil {
				return records, err
			}
			if _, found, err := t.LookupPartition(part.Key); err != nil || !found {
				return records, lookupError("partition", string(part.Key), err)
			}
			records++
		}
	case format.KindPartition:
		p, err := catalog.DecodePartition(payload)
		if err != nil {
			return 0, err
		}
		for f, err := range p.Files() {
			if err != nil {
				return records, err
			}
			if _, err := p.FileColumnIDs(f); err != nil {
				return records, err
			}
			records++
		}
	default:
		return 0, fmt.Errorf("unsupported kind %s", kind)
	}

	return records, nil
}

func lookupError(what, name string, err error) error {
	if err != nil {
		return fmt.Errorf("lookup %s %q: %w", what, name, err)
	}

	return fmt.Errorf("%s %q not found through its hash index", what, name)
}

// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package archive

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sondehub/sondehub-go/internal/log"
	"github.com/sondehub/sondehub-go/internal/queue"
	"golang.org/x/sync/errgroup"
)

type (
	// Fetcher downloads historical telemetry from the archive with a bounded
	// pool of workers.
	Fetcher struct {
		store   ObjectStore
		options FetcherOptions
		log     log.Logger
	}

	// Query selects the archive objects to fetch. At most one field may be
	// set; an empty query selects the whole date tree.
	Query struct {
		// Serial selects the single per-sonde object.
		Serial string

		// DatePrefix selects every object under date/<prefix>, e.g.
		// "2021/03/01".
		DatePrefix string
	}

	// Task is one archive object to download.
	Task struct {
		Bucket string
		Key    string
	}
)

// NewFetcher constructs a fetcher over the object store.
func NewFetcher(store ObjectStore, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{store: store}
	f.options.Apply(opts)

	if f.options.Bucket == "" {
		f.options.Bucket = DefaultBucket
	}
	if f.options.Workers <= 0 {
		f.options.Workers = DefaultWorkers
	}

	f.log = log.Wrap(f.options.Logger)
	return f
}

// Prefix returns the object key prefix selected by the query.
func (q Query) Prefix() (string, error) {
	switch {
	case q.Serial != "" && q.DatePrefix != "":
		return "", &InvalidArgumentError{
			message: "query cannot select both a serial and a date prefix",
		}
	case q.Serial != "":
		return fmt.Sprintf("serial/%s.json.gz", q.Serial), nil
	case q.DatePrefix != "":
		return "date/" + q.DatePrefix, nil
	default:
		return "date/", nil
	}
}

// FetchSerial fetches the full history of one sonde.
func (f *Fetcher) FetchSerial(ctx context.Context, serial string) ([]Record, error) {
	return f.Fetch(ctx, Query{Serial: serial})
}

// FetchDate fetches every sonde under a date prefix.
func (f *Fetcher) FetchDate(ctx context.Context, prefix string) ([]Record, error) {
	return f.Fetch(ctx, Query{DatePrefix: prefix})
}

// Fetch lists the objects selected by the query, downloads and decodes them
// concurrently, and returns every decoded record. Only a failure to list is
// returned; an object that cannot be fetched or decoded is logged and
// skipped. Records are not ordered.
func (f *Fetcher) Fetch(ctx context.Context, q Query) ([]Record, error) {
	prefix, err := q.Prefix()
	if err != nil {
		return nil, err
	}

	keys, err := f.store.List(ctx, f.options.Bucket, prefix)
	if err != nil {
		return nil, err
	}

	tasks := queue.New[Task](0)
	for _, key := range keys {
		tasks.Push(Task{Bucket: f.options.Bucket, Key: key})
	}
	f.options.Metrics.ArchiveTasks(len(keys))

	workers := min(f.options.Workers, len(keys))
	f.log.Info(ctx, "fetching archive",
		slog.String("prefix", prefix),
		slog.Int("objects", len(keys)),
		slog.Int("workers", workers),
	)

	results := queue.New[[]Record](0)
	var g errgroup.Group
	for range workers {
		g.Go(func() error {
			f.work(ctx, tasks, results)
			return nil
		})
	}
	_ = g.Wait()

	var records []Record
	for _, batch := range results.Drain() {
		records = append(records, batch...)
	}
	f.options.Metrics.ArchiveRecords(len(records))
	return records, nil
}

// work pops tasks until the queue is empty.
func (f *Fetcher) work(
	ctx context.Context,
	tasks *queue.Queue[Task],
	results *queue.Queue[[]Record],
) {
	for {
		task, ok := tasks.Pop()
		if !ok || ctx.Err() != nil {
			return
		}
		f.log.Debug(ctx, "fetching object", slog.String("key", task.Key))

		data, err := f.store.Get(ctx, task.Bucket, task.Key)
		if err != nil {
			f.log.Err(ctx, err)
			f.options.Metrics.ArchiveTaskFailure("fetch")
			continue
		}

		records, err := Decode(task.Key, data)
		if err != nil {
			f.log.Err(ctx, err)
			f.options.Metrics.ArchiveTaskFailure("decode")
			continue
		}
		results.Push(records)
	}
}

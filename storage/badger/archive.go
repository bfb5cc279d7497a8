package badger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/palletic/warevec/core"
	"github.com/palletic/warevec/storage"
)

// Archive implements storage.JobArchive for BadgerDB. Terminal job
// snapshots land here when the in-memory registry retires them, so job
// history survives restarts.
type Archive struct {
	backend *Backend
	logger  *slog.Logger
}

var _ storage.JobArchive = (*Archive)(nil)

// NewArchive opens a job archive at the given path, creating the directory
// if needed.
//
// Returns storage.JobArchive interface to enforce abstraction.
func NewArchive(path string) (storage.JobArchive, error) {
	backend, err := OpenBackend(path, false)
	if err != nil {
		return nil, err
	}
	return newArchive(backend), nil
}

func newArchive(backend *Backend) *Archive {
	return &Archive{
		backend: backend,
		logger:  slog.Default().With("component", "job-archive"),
	}
}

// ArchiveJob stores a terminal job snapshot, keyed by job id and indexed by
// finish time. Re-archiving the same id overwrites the prior snapshot.
func (a *Archive) ArchiveJob(ctx context.Context, job *core.Job) error {
	if job == nil || job.ID == "" {
		return fmt.Errorf("archive: job must have an id")
	}

	data, err := storage.MarshalJob(job)
	if err != nil {
		return err
	}

	return a.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeJobKey(job.ID), data); err != nil {
			return err
		}
		// End-time index enables range purges without scanning snapshots.
		if err := tx.Set(makeJobEndKey(finishTime(job), job.ID), []byte(job.ID)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetJob retrieves an archived job by id.
func (a *Archive) GetJob(ctx context.Context, id string) (*core.Job, error) {
	var result *core.Job
	err := a.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = a.readJob(tx, makeJobKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// ListJobs returns all archived jobs, most recently finished first.
func (a *Archive) ListJobs(ctx context.Context) ([]*core.Job, error) {
	var jobs []*core.Job
	err := a.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(jobRecordPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var job *core.Job
			err := iter.Item().Value(func(val []byte) error {
				var err error
				job, err = storage.UnmarshalJob(val)
				return err
			})
			if err != nil {
				return err
			}
			jobs = append(jobs, job)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(jobs, func(x, y *core.Job) int {
		xt, yt := finishTime(x), finishTime(y)
		if xt.After(yt) {
			return -1
		}
		if xt.Before(yt) {
			return 1
		}
		return strings.Compare(x.ID, y.ID)
	})

	return jobs, nil
}

// PurgeOlderThan removes archived jobs that finished before the cutoff.
// Returns the number of removed jobs.
func (a *Archive) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	purged := 0
	err := a.backend.WithTx(func(tx *badger.Txn) error {
		bound := makePartialJobEndKey(cutoff)

		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(jobEndTimePrefix + ":")
		iter := tx.NewIterator(opts)

		// Collect first; mutating while iterating is not safe.
		type victim struct {
			endKey []byte
			id     string
		}
		var victims []victim

		for iter.Rewind(); iter.Valid(); iter.Next() {
			item := iter.Item()
			if bytes.Compare(item.Key(), bound) >= 0 {
				break
			}

			var id string
			if err := item.Value(func(val []byte) error {
				id = string(val)
				return nil
			}); err != nil {
				iter.Close()
				return err
			}
			victims = append(victims, victim{endKey: item.KeyCopy(nil), id: id})
		}
		iter.Close()

		for _, v := range victims {
			if err := tx.Delete(v.endKey); err != nil {
				return err
			}
			if err := tx.Delete(makeJobKey(v.id)); err != nil {
				return err
			}
			purged++
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return 0, err
	}

	if purged > 0 {
		a.logger.Info("purged archived jobs", "count", purged, "cutoff", cutoff)
	}
	return purged, nil
}

// Close closes the archive and its backend.
func (a *Archive) Close() error {
	return a.backend.Close()
}

// readJob reads and decodes a job, returning nil when the key is absent.
func (a *Archive) readJob(tx *badger.Txn, key []byte) (*core.Job, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var job *core.Job
	err = item.Value(func(val []byte) error {
		var err error
		job, err = storage.UnmarshalJob(val)
		return err
	})
	return job, err
}

// finishTime is the job's end time, falling back to creation time for
// snapshots that never recorded one.
func finishTime(job *core.Job) time.Time {
	if job.EndTime != nil {
		return *job.EndTime
	}
	return job.CreatedAt
}

// Package ledger remembers what earlier runs produced, so re-running over
// the same tree neither re-optimizes outputs nor redoes unchanged sources.
package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"

	"imgopt/internal/processor"
)

var (
	bucketSources = []byte("sources")
	bucketOutputs = []byte("outputs")
)

// entry is stored under the absolute source path.
type entry struct {
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
	Dest    string    `json:"dest"`
	Saved   time.Time `json:"saved"`
}

type Ledger struct {
	db  *bolt.DB
	log *zap.Logger
}

func Open(path string, log *zap.Logger) (*Ledger, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open ledger %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{bucketSources, bucketOutputs} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Ledger{db: db, log: log.Named("ledger")}, nil
}

func (l *Ledger) Close() error {
	return l.db.Close()
}

// Filter drops files that an earlier run produced, and sources whose size
// and modification time are unchanged since they were optimized and whose
// output still exists.
func (l *Ledger) Filter(files []processor.SourceFile) (kept []processor.SourceFile, skipped int) {
	_ = l.db.View(func(tx *bolt.Tx) error {
		sources := tx.Bucket(bucketSources)
		outputs := tx.Bucket(bucketOutputs)

		for _, f := range files {
			key := []byte(absPath(f.Path))
			if outputs.Get(key) != nil {
				skipped++
				continue
			}
			if raw := sources.Get(key); raw != nil && l.unchanged(f.Path, raw) {
				skipped++
				continue
			}
			kept = append(kept, f)
		}
		return nil
	})

	if skipped > 0 {
		l.log.Info("skipping files recorded by earlier runs", zap.Int("skipped", skipped))
	}
	return kept, skipped
}

func (l *Ledger) unchanged(path string, raw []byte) bool {
	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return false
	}
	fi, err := os.Stat(path)
	if err != nil || fi.Size() != e.Size || !fi.ModTime().Equal(e.ModTime) {
		return false
	}
	_, err = os.Stat(e.Dest)
	return err == nil
}

// Observe records successful results. It implements processor.Observer.
func (l *Ledger) Observe(res processor.Result) {
	if res.Outcome != processor.OutcomeSuccess {
		return
	}
	fi, err := os.Stat(res.Source)
	if err != nil {
		l.log.Warn("source vanished before it could be recorded", zap.String("path", res.Source), zap.Error(err))
		return
	}

	src := absPath(res.Source)
	dest := absPath(res.Dest)
	data, err := json.Marshal(entry{
		Size:    fi.Size(),
		ModTime: fi.ModTime(),
		Dest:    dest,
		Saved:   time.Now().UTC(),
	})
	if err != nil {
		l.log.Error("encode ledger entry", zap.Error(err))
		return
	}

	err = l.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(bucketSources).Put([]byte(src), data); err != nil {
			return err
		}
		return tx.Bucket(bucketOutputs).Put([]byte(dest), []byte(src))
	})
	if err != nil {
		l.log.Error("write ledger entry", zap.String("path", res.Source), zap.Error(err))
	}
}

// Len returns the number of recorded sources.
func (l *Ledger) Len() int {
	n := 0
	_ = l.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(bucketSources).Stats().KeyN
		return nil
	})
	return n
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}

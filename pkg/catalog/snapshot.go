package catalog

import (
	"encoding/json"

	bolt "go.etcd.io/bbolt"

	"github.com/ManuMario0/trading-lab-sub000/pkg/manifest"
)

var snapshotBucket = []byte("descriptors")

// SnapshotStore persists the catalog's last successfully discovered
// descriptor set to a bbolt file. It is a read-only convenience for a
// restarted orchestrator to serve GetStatus before the watcher's initial
// scan completes; it is never a write path for Catalog itself, which
// stays authoritative and purely in-memory.
type SnapshotStore struct {
	db *bolt.DB
}

// OpenSnapshotStore opens (creating if necessary) a bbolt file at path.
func OpenSnapshotStore(path string) (*SnapshotStore, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(snapshotBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &SnapshotStore{db: db}, nil
}

// Close releases the underlying bbolt file handle.
func (s *SnapshotStore) Close() error {
	return s.db.Close()
}

// Save writes the full descriptor set, replacing anything previously
// stored under each service_type key.
func (s *SnapshotStore) Save(descs []manifest.ServiceDescriptor) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(snapshotBucket)
		for _, d := range descs {
			data, err := json.Marshal(d)
			if err != nil {
				return err
			}
			if err := b.Put([]byte(d.Blueprint.ServiceType), data); err != nil {
				return err
			}
		}
		return nil
	})
}

// Load reads every persisted descriptor back, for seeding a Catalog on
// startup before the watcher's first scan completes.
func (s *SnapshotStore) Load() ([]manifest.ServiceDescriptor, error) {
	var out []manifest.ServiceDescriptor
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(snapshotBucket)
		return b.ForEach(func(_, v []byte) error {
			var d manifest.ServiceDescriptor
			if err := json.Unmarshal(v, &d); err != nil {
				return err
			}
			out = append(out, d)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

package snapshot

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/vango-dev/sweetstate/internal/errors"
	"github.com/vango-dev/sweetstate/pkg/store"
)

// formatVersion is the document version written by Capture.
const formatVersion = 1

// ErrNotFound matches errors for snapshots that do not exist.
var ErrNotFound = errors.New("S301")

// Backend stores snapshot documents by name.
type Backend interface {
	Save(ctx context.Context, name string, data []byte) error
	// Load returns an error matching ErrNotFound if name does not exist.
	Load(ctx context.Context, name string) ([]byte, error)
}

// Document is a captured snapshot.
type Document struct {
	Version int                        `json:"version"`
	Created time.Time                  `json:"created"`
	Stores  map[string]json.RawMessage `json:"stores"`
}

// Names returns the store names in the document, sorted.
func (d *Document) Names() []string {
	names := make([]string, 0, len(d.Stores))
	for name := range d.Stores {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Capture encodes the state of every named store in the global scope of r.
// Scoped and anonymous instances are skipped.
func Capture(r *store.Registry) ([]byte, error) {
	doc := Document{
		Version: formatVersion,
		Created: time.Now().UTC(),
		Stores:  make(map[string]json.RawMessage),
	}
	for _, s := range r.Stores() {
		if s.ScopeID() != store.GlobalScope || s.Name() == "" {
			continue
		}
		data, err := json.Marshal(s.Snapshot())
		if err != nil {
			return nil, errors.New("S303").WithDetail("Store " + s.Name() + " could not be encoded.").Wrap(err)
		}
		doc.Stores[s.Name()] = data
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, errors.New("S303").Wrap(err)
	}
	return data, nil
}

// Decode parses a snapshot document.
func Decode(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.New("S303").WithDetail("The snapshot is not a valid document.").Wrap(err)
	}
	if doc.Stores == nil {
		doc.Stores = make(map[string]json.RawMessage)
	}
	return &doc, nil
}

// Save captures r and stores it in b under name.
func Save(ctx context.Context, b Backend, name string, r *store.Registry) error {
	data, err := Capture(r)
	if err != nil {
		return err
	}
	if err := b.Save(ctx, name, data); err != nil {
		return backendError(err)
	}
	return nil
}

// Restore loads the snapshot name from b and installs its states as the
// initial states of r, replacing any configured before. Instances that
// already exist keep their state. It returns the restored store names.
func Restore(ctx context.Context, b Backend, name string, r *store.Registry) ([]string, error) {
	data, err := b.Load(ctx, name)
	if err != nil {
		return nil, backendError(err)
	}
	doc, err := Decode(data)
	if err != nil {
		return nil, err
	}

	states := make(map[string]any, len(doc.Stores))
	for n, raw := range doc.Stores {
		states[n] = raw
	}
	r.Configure(store.Options{InitialStates: states})
	return doc.Names(), nil
}

func backendError(err error) error {
	return errors.FromError(err, "S302")
}

func notFound(name string) error {
	return errors.New("S301").WithDetail("No snapshot named " + name + ".")
}

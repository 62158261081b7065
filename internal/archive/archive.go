// Package archive publishes investigations to a blob store and fetches them
// back. A published prefix holds the tabular files, the document and a
// manifest listing both.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"time"

	"isacore/internal/blob"
	"isacore/internal/logging"
	"isacore/internal/metrics"
	"isacore/pkg/isa"
	"isacore/pkg/isajson"
	"isacore/pkg/isatab"
)

const (
	// DocumentName is the key of the document under a prefix.
	DocumentName = "investigation.json"
	// ManifestName is the key of the manifest under a prefix.
	ManifestName = "manifest.json"

	contentTypeTabular = "text/tab-separated-values"
	contentTypeJSON    = "application/json"
)

// ErrNoManifest is returned by Fetch when a prefix holds no manifest.
var ErrNoManifest = errors.New("archive: no manifest under prefix")

// Manifest describes a published investigation.
type Manifest struct {
	Identifier  string    `json:"identifier"`
	Title       string    `json:"title,omitempty"`
	Prefix      string    `json:"prefix"`
	Fingerprint string    `json:"fingerprint"`
	Tabular     []string  `json:"tabular"`
	Document    string    `json:"document"`
	PublishedAt time.Time `json:"published_at"`
	// DocumentURL is a pre-signed link when the store supports one.
	DocumentURL string `json:"-"`
}

// Publisher writes investigations under key prefixes of a store.
type Publisher struct {
	Store   blob.Store
	Tabular isatab.WriteOptions
	// Document encodes the document; counter identifiers when zero.
	Document isajson.Writer
	// Replace overwrites an existing publication.
	Replace bool
	// LinkExpiry is the lifetime of DocumentURL; the store default when zero.
	LinkExpiry time.Duration
	Metrics    *metrics.Recorder
}

// Publish writes every tabular file of inv, then its document, then the
// manifest. Unused synthetic protocols of inv are pruned.
func (p *Publisher) Publish(ctx context.Context, inv *isa.Investigation, prefix string) (m *Manifest, err error) {
	done := p.Metrics.Track(ctx, "publish")
	defer func() { done(err) }()

	prefix, err = cleanPrefix(prefix)
	if err != nil {
		return nil, err
	}
	sum, err := isa.Hash(inv)
	if err != nil {
		return nil, fmt.Errorf("archive: fingerprint %s: %w", inv.Identifier, err)
	}
	sink := &blobSink{ctx: ctx, store: p.Store, prefix: prefix, overwrite: p.Replace}
	if err := isatab.DumpTo(sink, inv, p.Tabular); err != nil {
		return nil, err
	}

	doc, err := p.Document.Marshal(inv)
	if err != nil {
		return nil, fmt.Errorf("archive: encode %s: %w", inv.Identifier, err)
	}
	docKey := path.Join(prefix, DocumentName)
	if err := p.put(ctx, docKey, doc, contentTypeJSON, inv.Identifier); err != nil {
		return nil, err
	}

	m = &Manifest{
		Identifier:  inv.Identifier,
		Title:       inv.Title,
		Prefix:      prefix,
		Fingerprint: strconv.FormatUint(sum, 16),
		Tabular:     sink.names,
		Document:    DocumentName,
		PublishedAt: time.Now().UTC(),
	}
	body, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, err
	}
	if err := p.put(ctx, path.Join(prefix, ManifestName), body, contentTypeJSON, inv.Identifier); err != nil {
		return nil, err
	}

	url, err := p.Store.PresignURL(ctx, docKey, blob.SignedURLOptions{Expiry: p.LinkExpiry})
	switch {
	case err == nil:
		m.DocumentURL = url
	case !errors.Is(err, blob.ErrUnsupported):
		return nil, err
	}
	logging.L().Info("investigation published", "investigation", inv.Identifier, "prefix", prefix,
		"driver", string(p.Store.Driver()), "files", len(sink.names)+2)
	return m, nil
}

func (p *Publisher) put(ctx context.Context, key string, data []byte, contentType, identifier string) error {
	_, err := p.Store.Put(ctx, key, bytes.NewReader(data), blob.PutOptions{
		ContentType: contentType,
		Metadata:    map[string]string{"investigation": identifier},
		Overwrite:   p.Replace,
	})
	if err != nil {
		return fmt.Errorf("archive: upload %s: %w", key, err)
	}
	return nil
}

// blobSink uploads each file of a dump when it is closed.
type blobSink struct {
	ctx       context.Context
	store     blob.Store
	prefix    string
	overwrite bool
	names     []string
}

func (s *blobSink) Create(name string) (io.WriteCloser, error) {
	return &upload{sink: s, name: path.Base(filepath.ToSlash(name))}, nil
}

type upload struct {
	sink *blobSink
	name string
	buf  bytes.Buffer
}

func (u *upload) Write(p []byte) (int, error) { return u.buf.Write(p) }

func (u *upload) Close() error {
	key := path.Join(u.sink.prefix, u.name)
	_, err := u.sink.store.Put(u.sink.ctx, key, &u.buf, blob.PutOptions{
		ContentType: contentTypeTabular,
		Overwrite:   u.sink.overwrite,
	})
	if err != nil {
		return fmt.Errorf("archive: upload %s: %w", key, err)
	}
	u.sink.names = append(u.sink.names, u.name)
	return nil
}

// ReadManifest returns the manifest published under prefix.
func ReadManifest(ctx context.Context, store blob.Store, prefix string) (*Manifest, error) {
	prefix, err := cleanPrefix(prefix)
	if err != nil {
		return nil, err
	}
	_, rc, err := store.Get(ctx, path.Join(prefix, ManifestName))
	if errors.Is(err, blob.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNoManifest, prefix)
	}
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	var m Manifest
	if err := json.NewDecoder(rc).Decode(&m); err != nil {
		return nil, fmt.Errorf("archive: decode manifest of %s: %w", prefix, err)
	}
	return &m, nil
}

// Fetch downloads the tabular files published under prefix into a scratch
// directory and loads them. The scratch directory is removed before Fetch
// returns.
func Fetch(ctx context.Context, store blob.Store, prefix string, opts isatab.Options) (*isatab.LoadResult, error) {
	m, err := ReadManifest(ctx, store, prefix)
	if err != nil {
		return nil, err
	}
	scratch, err := os.MkdirTemp("", "isacore-fetch-*")
	if err != nil {
		return nil, fmt.Errorf("archive: scratch dir: %w", err)
	}
	defer func() {
		if rmErr := os.RemoveAll(scratch); rmErr != nil {
			logging.L().Warn("scratch dir not removed", "dir", scratch, "error", rmErr)
		}
	}()
	for _, name := range m.Tabular {
		if err := download(ctx, store, path.Join(m.Prefix, name), filepath.Join(scratch, path.Base(name))); err != nil {
			return nil, err
		}
	}
	res, err := isatab.Load(scratch, opts)
	if err != nil {
		return nil, err
	}
	logging.L().Debug("investigation fetched", "investigation", m.Identifier, "prefix", m.Prefix)
	return res, nil
}

// FetchDocument decodes the document published under prefix.
func FetchDocument(ctx context.Context, store blob.Store, prefix string, opts isajson.Options) (*isa.Investigation, error) {
	m, err := ReadManifest(ctx, store, prefix)
	if err != nil {
		return nil, err
	}
	key := path.Join(m.Prefix, m.Document)
	_, rc, err := store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("archive: download %s: %w", key, err)
	}
	defer rc.Close()
	if opts.Name == "" {
		opts.Name = key
	}
	return isajson.Read(rc, opts)
}

// Withdraw deletes every object under prefix and returns how many existed.
func Withdraw(ctx context.Context, store blob.Store, prefix string) (int, error) {
	prefix, err := cleanPrefix(prefix)
	if err != nil {
		return 0, err
	}
	infos, err := store.List(ctx, prefix+"/")
	if err != nil {
		return 0, err
	}
	n := 0
	for _, info := range infos {
		ok, err := store.Delete(ctx, info.Key)
		if err != nil {
			return n, fmt.Errorf("archive: delete %s: %w", info.Key, err)
		}
		if ok {
			n++
		}
	}
	return n, nil
}

func download(ctx context.Context, store blob.Store, key, dst string) (err error) {
	_, rc, err := store.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("archive: download %s: %w", key, err)
	}
	defer rc.Close()
	f, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	if _, err := io.Copy(f, rc); err != nil {
		return fmt.Errorf("archive: download %s: %w", key, err)
	}
	return nil
}

func cleanPrefix(prefix string) (string, error) {
	clean := path.Clean("/" + filepath.ToSlash(prefix))[1:]
	if clean == "" {
		return "", fmt.Errorf("%w: empty archive prefix", blob.ErrInvalidKey)
	}
	return clean, nil
}

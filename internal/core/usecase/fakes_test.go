package usecase

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"

	"github.com/kirillkom/digital-seva/internal/core/domain"
	"github.com/kirillkom/digital-seva/internal/core/ports"
)

type documentRepoFake struct {
	mu        sync.Mutex
	records   map[string]domain.DocumentRecord
	upserts   int
	upsertErr error
	listErr   error
}

func newDocumentRepoFake() *documentRepoFake {
	return &documentRepoFake{records: map[string]domain.DocumentRecord{}}
}

func docKey(userID string, t domain.DocumentType) string { return userID + "|" + string(t) }

func (f *documentRepoFake) Upsert(_ context.Context, rec *domain.DocumentRecord) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertErr != nil {
		return "", f.upsertErr
	}
	f.upserts++
	key := docKey(rec.UserID, rec.Type)
	prev, ok := f.records[key]
	if ok {
		rec.ID = prev.ID
	}
	f.records[key] = *rec
	if ok {
		return prev.FilePath, nil
	}
	return "", nil
}

func (f *documentRepoFake) ListByUser(_ context.Context, userID string) ([]domain.DocumentRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []domain.DocumentRecord
	for _, t := range domain.DocumentTypes() {
		if rec, ok := f.records[docKey(userID, t)]; ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *documentRepoFake) GetByID(_ context.Context, userID, id string) (*domain.DocumentRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, rec := range f.records {
		if rec.ID == id && rec.UserID == userID {
			out := rec
			return &out, nil
		}
	}
	return nil, domain.WrapError(domain.ErrNotFound, "get document", errors.New(id))
}

func (f *documentRepoFake) GetByType(_ context.Context, userID string, t domain.DocumentType) (*domain.DocumentRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[docKey(userID, t)]
	if !ok {
		return nil, domain.WrapError(domain.ErrNotFound, "get document by type", errors.New(string(t)))
	}
	return &rec, nil
}

func (f *documentRepoFake) Delete(_ context.Context, userID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for key, rec := range f.records {
		if rec.ID == id && rec.UserID == userID {
			delete(f.records, key)
			return nil
		}
	}
	return domain.WrapError(domain.ErrNotFound, "delete document", errors.New(id))
}

type storageFake struct {
	mu        sync.Mutex
	files     map[string][]byte
	deleted   []string
	saveErr   error
	deleteErr error
}

func newStorageFake() *storageFake {
	return &storageFake{files: map[string][]byte{}}
}

func (f *storageFake) Save(_ context.Context, key string, data io.Reader) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[key] = raw
	return nil
}

func (f *storageFake) Open(_ context.Context, key string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	raw, ok := f.files[key]
	if !ok {
		return nil, errors.New("missing")
	}
	return io.NopCloser(bytes.NewReader(raw)), nil
}

func (f *storageFake) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, key)
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.files, key)
	return nil
}

func (f *storageFake) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.files)
}

type gatewayFake struct {
	mu      sync.Mutex
	verdict domain.VerificationVerdict
	err     error
	calls   []ports.VerificationRequest
}

func (f *gatewayFake) Verify(_ context.Context, req ports.VerificationRequest) (domain.VerificationVerdict, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	if f.err != nil {
		return domain.VerificationVerdict{}, f.err
	}
	return f.verdict, nil
}

type inspectorFake struct{ err error }

func (f inspectorFake) Inspect([]byte) error { return f.err }

type publisherFake struct {
	events []domain.DocumentSupersededEvent
	err    error
}

func (f *publisherFake) PublishDocumentSuperseded(_ context.Context, event domain.DocumentSupersededEvent) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

type completionFake struct {
	text     string
	err      error
	requests []domain.CompletionRequest
}

func (f *completionFake) Complete(_ context.Context, req domain.CompletionRequest) (string, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

type profileLoaderFake struct {
	profile *domain.Profile
	err     error
}

func (f profileLoaderFake) GetProfile(context.Context, string) (*domain.Profile, error) {
	if f.err != nil {
		return nil, f.err
	}
	p := *f.profile
	return &p, nil
}

type catalogFake struct{ schemes []domain.Scheme }

func (f catalogFake) List() []domain.Scheme { return f.schemes }

func (f catalogFake) Get(id int) (domain.Scheme, bool) {
	for _, s := range f.schemes {
		if s.ID == id {
			return s, true
		}
	}
	return domain.Scheme{}, false
}

func (f catalogFake) FindByName(name string) (domain.Scheme, bool) {
	for _, s := range f.schemes {
		if s.Name == name {
			return s, true
		}
	}
	return domain.Scheme{}, false
}

type cacheFake[V any] struct {
	items   map[string]V
	gets    int
	deletes int
}

func newCacheFake[V any]() *cacheFake[V] {
	return &cacheFake[V]{items: map[string]V{}}
}

func (c *cacheFake[V]) Get(_ context.Context, key string) (V, bool) {
	c.gets++
	v, ok := c.items[key]
	return v, ok
}

func (c *cacheFake[V]) Set(_ context.Context, key string, value V) { c.items[key] = value }

func (c *cacheFake[V]) Delete(_ context.Context, key string) {
	c.deletes++
	delete(c.items, key)
}

func int64Ptr(v int64) *int64 { return &v }
func intPtr(v int) *int       { return &v }

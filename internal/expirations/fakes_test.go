package expirations_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/JaimeStill/warden/internal/coupons"
	"github.com/JaimeStill/warden/internal/probe"
	"github.com/JaimeStill/warden/pkg/lifecycle"
	"github.com/JaimeStill/warden/pkg/storage"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type expireCall struct {
	id string
	at time.Time
}

type fakeStore struct {
	mu        sync.Mutex
	records   []coupons.Coupon
	validErr  error
	expireErr map[string]error
	expires   []expireCall
}

func newStore(records ...coupons.Coupon) *fakeStore {
	return &fakeStore{records: records, expireErr: map[string]error{}}
}

func (s *fakeStore) Valid(_ context.Context) ([]coupons.Coupon, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.validErr != nil {
		return nil, s.validErr
	}
	var out []coupons.Coupon
	for _, c := range s.records {
		if c.Status == coupons.StatusValid {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *fakeStore) Expire(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.expireErr[id]; err != nil {
		return err
	}
	for i := range s.records {
		if s.records[i].ID == id {
			if s.records[i].Status != coupons.StatusValid {
				return coupons.ErrNotValid
			}
			s.records[i].Status = coupons.StatusExpired
			s.records[i].LastUpdated = at
			expiredOn := at
			s.records[i].ExpiredOn = &expiredOn
			s.expires = append(s.expires, expireCall{id: id, at: at})
			return nil
		}
	}
	return coupons.ErrNotValid
}

func (s *fakeStore) record(id string) coupons.Coupon {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.records {
		if c.ID == id {
			return c
		}
	}
	return coupons.Coupon{}
}

type fakeClassifier struct {
	marker   string
	verdicts map[string]probe.Verdict
	panics   map[string]bool
	onCall   func(code string)
	calls    []string
}

func (f *fakeClassifier) Classify(_ context.Context, code string) probe.Result {
	f.calls = append(f.calls, code)
	if f.onCall != nil {
		f.onCall(code)
	}
	if f.panics[code] {
		panic("classifier exploded on " + code)
	}
	v, ok := f.verdicts[code]
	if !ok {
		v = probe.Active
	}
	result := probe.Result{Code: code, Verdict: v}
	if v == probe.Expired {
		result.Marker = f.marker
		if result.Marker == "" {
			result.Marker = "h1.pop_tit"
		}
	}
	return result
}

type fakePacer struct {
	waits int
}

func (p *fakePacer) Wait(ctx context.Context) error {
	p.waits++
	return ctx.Err()
}

type published struct {
	key     string
	payload any
}

type fakePublisher struct {
	events []published
	err    error
}

func (p *fakePublisher) Publish(_ context.Context, key string, payload any) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, published{key: key, payload: payload})
	return nil
}

type fakeLock struct {
	err      error
	acquired int
	released int
}

func (l *fakeLock) Acquire(_ context.Context) (func(context.Context) error, error) {
	if l.err != nil {
		return nil, l.err
	}
	l.acquired++
	return func(context.Context) error {
		l.released++
		return nil
	}, nil
}

type fakeArchive struct {
	mu      sync.Mutex
	blobs   map[string][]byte
	listed  []string
	failing bool
}

func newArchive() *fakeArchive {
	return &fakeArchive{blobs: map[string][]byte{}}
}

func (a *fakeArchive) Start(*lifecycle.Coordinator) error { return nil }

func (a *fakeArchive) Upload(_ context.Context, key string, reader io.Reader, _ string) error {
	if a.failing {
		return io.ErrUnexpectedEOF
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.blobs[key] = body
	return nil
}

func (a *fakeArchive) Download(_ context.Context, key string) (*storage.DownloadResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	body, ok := a.blobs[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &storage.DownloadResult{
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentType:   "application/json",
		ContentLength: int64(len(body)),
	}, nil
}

func (a *fakeArchive) List(_ context.Context, prefix, _ string, maxResults int32) (*storage.ListResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.listed = append(a.listed, prefix)

	var keys []string
	for k := range a.blobs {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	result := &storage.ListResult{Blobs: []storage.BlobMeta{}}
	for i, k := range keys {
		if int32(i) >= maxResults {
			result.NextMarker = k
			break
		}
		result.Blobs = append(result.Blobs, storage.BlobMeta{Key: k, ContentLength: int64(len(a.blobs[k]))})
	}
	return result, nil
}

// markedExpired reports every code as expired by selector.
func markedExpired(selector string, codes ...string) *fakeClassifier {
	f := &fakeClassifier{marker: selector, verdicts: map[string]probe.Verdict{}}
	for _, c := range codes {
		f.verdicts[c] = probe.Expired
	}
	return f
}

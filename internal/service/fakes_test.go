package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"RestaurantSync/internal/interfaces"
	"RestaurantSync/internal/model"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type fakeNames struct {
	names []string
	err   error
}

func (f *fakeNames) ListNames(context.Context) ([]string, error) { return f.names, f.err }

// fakeDetails 按名称返回详情或错误；block 中的名称会一直阻塞到 ctx 结束
type fakeDetails struct {
	mu      sync.Mutex
	details map[string]*model.PlaceDetail
	errs    map[string]error
	block   map[string]bool
	calls   []string
}

func (f *fakeDetails) Fetch(ctx context.Context, name string) (*model.PlaceDetail, error) {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	f.mu.Unlock()

	if f.block[name] {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err, ok := f.errs[name]; ok {
		return nil, err
	}
	if d, ok := f.details[name]; ok {
		return d, nil
	}
	return nil, interfaces.ErrPlaceNotFound
}

func (f *fakeDetails) fetchCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// fakeByID 额外支持按 Place ID 拉取
type fakeByID struct {
	fakeDetails
	byID map[string]*model.PlaceDetail
	ids  []string
}

func (f *fakeByID) FetchByID(_ context.Context, id string) (*model.PlaceDetail, error) {
	f.mu.Lock()
	f.ids = append(f.ids, id)
	f.mu.Unlock()
	if d, ok := f.byID[id]; ok {
		return d, nil
	}
	return nil, interfaces.ErrPlaceNotFound
}

type fakeRepo struct {
	mu        sync.Mutex
	stored    []interfaces.StoredRestaurant
	storedErr error
	commitErr map[string]error // key: google id
	commits   map[string]*model.EnrichedRestaurant
	ids       map[string]uint64
	deleted   []string

	// 记录同一 Place ID 的并发提交
	inflight   map[string]int
	overlapped bool
	commitWait time.Duration
}

func newFakeRepo(storedNames ...string) *fakeRepo {
	r := &fakeRepo{
		commitErr: map[string]error{},
		commits:   map[string]*model.EnrichedRestaurant{},
		ids:       map[string]uint64{},
		inflight:  map[string]int{},
	}
	for i, n := range storedNames {
		r.stored = append(r.stored, interfaces.StoredRestaurant{ID: uint64(i + 1), GoogleID: "stored-" + n, GoogleName: n})
	}
	return r
}

func (r *fakeRepo) Commit(_ context.Context, rec *model.EnrichedRestaurant) (uint64, error) {
	id := rec.ExternalID()

	r.mu.Lock()
	r.inflight[id]++
	if r.inflight[id] > 1 {
		r.overlapped = true
	}
	r.mu.Unlock()

	time.Sleep(r.commitWait)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.inflight[id]--
	if err := r.commitErr[id]; err != nil {
		return 0, err
	}
	if _, ok := r.ids[id]; !ok {
		r.ids[id] = uint64(len(r.ids) + 100)
	}
	r.commits[id] = rec
	return r.ids[id], nil
}

func (r *fakeRepo) ListStoredNames(context.Context) ([]string, error) {
	if r.storedErr != nil {
		return nil, r.storedErr
	}
	names := make([]string, 0, len(r.stored))
	for _, s := range r.stored {
		names = append(names, s.GoogleName)
	}
	return names, nil
}

func (r *fakeRepo) ListStored(context.Context) ([]interfaces.StoredRestaurant, error) {
	return r.stored, r.storedErr
}

func (r *fakeRepo) DeleteByNames(_ context.Context, names []string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleted = append(r.deleted, names...)
	return names, nil
}

func (r *fakeRepo) List(context.Context, interfaces.RestaurantFilter) ([]model.Restaurant, int64, error) {
	return nil, 0, errors.New("not used")
}

func (r *fakeRepo) GetByID(context.Context, uint64) (*model.Restaurant, error) {
	return nil, errors.New("not used")
}

type fakeQuota struct {
	mu         sync.Mutex
	increments int
	incErr     error
	usage      []model.GoogleAPIQuota
	usageErr   error
}

func (q *fakeQuota) Increment(_ context.Context, _ time.Time, tiers ...string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.incErr != nil {
		return q.incErr
	}
	q.increments += len(tiers)
	return nil
}

func (q *fakeQuota) Usage(context.Context, time.Time) ([]model.GoogleAPIQuota, error) {
	return q.usage, q.usageErr
}

type fakeRuns struct {
	mu    sync.Mutex
	saved []*model.IngestionReport
}

func (f *fakeRuns) Save(_ context.Context, report *model.IngestionReport) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, report)
	return nil
}

func (f *fakeRuns) Recent(context.Context, int) ([]model.IngestionRun, error) { return nil, nil }

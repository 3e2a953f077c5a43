package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RestaurantSync/internal/config"
	"RestaurantSync/internal/model"
)

func syncConfig() config.SyncConfig {
	return config.SyncConfig{Workers: 4, FetchTimeout: time.Second}
}

func detailFor(id, address string) *model.PlaceDetail {
	return &model.PlaceDetail{ID: id, FormattedAddress: strPtr(address)}
}

func TestRun_BarXEndToEnd(t *testing.T) {
	detail := detailFor("place-bar-x", "Av. Paulista, 1000, Bela Vista, São Paulo - SP, Brasil")
	detail.RegularOpeningHours = &model.RegularOpeningHours{
		Periods: []model.PlacePeriod{{
			Open:  &model.PlacePoint{Day: intPtr(1), Hour: 10},
			Close: &model.PlacePoint{Day: intPtr(1), Hour: 22},
		}},
	}
	details := &fakeDetails{details: map[string]*model.PlaceDetail{"Bar X": detail}}
	repo := newFakeRepo()
	quota := &fakeQuota{}
	runs := &fakeRuns{}

	svc := NewIngestionService(&fakeNames{names: []string{"Bar X"}}, details, repo, quota, runs, syncConfig(), quietLogger())
	report, err := svc.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, model.RunKindCreate, report.Kind)
	assert.NotEmpty(t, report.RunUUID)
	assert.Equal(t, []string{"Bar X"}, report.Candidates)
	require.Len(t, report.Succeeded, 1)
	assert.Empty(t, report.Failed)
	assert.Equal(t, "place-bar-x", report.Succeeded[0].ExternalID)

	rec := repo.commits["place-bar-x"]
	require.NotNil(t, rec)
	assert.Equal(t, "Av.", *rec.Restaurant.StreetType)
	assert.Equal(t, "1000", *rec.Restaurant.StreetNumber)
	require.Len(t, rec.Schedule, 7)
	for _, e := range rec.Schedule {
		assert.Equal(t, e.DayIndex == 1, e.IsOpen, "day %d", e.DayIndex)
	}
	assert.Equal(t, "10:00", *rec.Schedule[0].OpensAt)
	assert.Equal(t, "22:00", *rec.Schedule[0].ClosesAt)

	assert.Equal(t, 3, quota.increments)
	require.Len(t, runs.saved, 1)
	assert.Same(t, report, runs.saved[0])
}

func TestRun_OnlyNewNamesAreFetched(t *testing.T) {
	details := &fakeDetails{details: map[string]*model.PlaceDetail{
		"Nova":   detailFor("p-nova", "São Paulo, Brasil"),
		"Antiga": detailFor("p-antiga", "São Paulo, Brasil"),
	}}
	repo := newFakeRepo("Antiga")

	svc := NewIngestionService(&fakeNames{names: []string{"Antiga", "Nova"}}, details, repo, nil, nil, syncConfig(), quietLogger())
	report, err := svc.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"Nova"}, details.fetchCalls())
	assert.Len(t, report.Succeeded, 1)
}

func TestRun_PerItemFailuresDoNotAbortBatch(t *testing.T) {
	details := &fakeDetails{
		details: map[string]*model.PlaceDetail{
			"Sem Endereco": {ID: "p-sem"},
			"Quebra Banco": detailFor("p-db", "São Paulo, Brasil"),
			"Ok":           detailFor("p-ok", "Rua Augusta, 10, Centro, São Paulo - SP, Brasil"),
			"Sem ID":       {FormattedAddress: strPtr("São Paulo, Brasil")},
		},
		errs: map[string]error{"Rede Caiu": errors.New("connection reset by peer")},
	}
	repo := newFakeRepo()
	repo.commitErr["p-db"] = errors.New("deadlock detected")

	names := []string{"Fantasma", "Rede Caiu", "Sem Endereco", "Quebra Banco", "Ok", "Sem ID"}
	svc := NewIngestionService(&fakeNames{names: names}, details, repo, nil, nil, syncConfig(), quietLogger())
	report, err := svc.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Succeeded, 1)
	assert.Equal(t, "Ok", report.Succeeded[0].Name)

	kinds := map[string]model.FailureKind{}
	for _, f := range report.Failed {
		kinds[f.Name] = f.Kind
		assert.NotEmpty(t, f.Reason)
	}
	assert.Equal(t, map[string]model.FailureKind{
		"Fantasma":     model.FailureNotFound,
		"Rede Caiu":    model.FailureFetch,
		"Sem Endereco": model.FailureMissingAddress,
		"Quebra Banco": model.FailureTransaction,
		"Sem ID":       model.FailureInvalidDetail,
	}, kinds)
	assert.NotContains(t, repo.commits, "p-db")
}

func TestRun_NameSourceFailureIsFatal(t *testing.T) {
	details := &fakeDetails{}
	runs := &fakeRuns{}
	svc := NewIngestionService(&fakeNames{err: errors.New("status 500")}, details, newFakeRepo(), nil, runs, syncConfig(), quietLogger())

	report, err := svc.Run(context.Background())
	assert.Nil(t, report)
	assert.ErrorIs(t, err, ErrNameSource)
	assert.Empty(t, details.fetchCalls())
	assert.Empty(t, runs.saved)
	assert.False(t, svc.Running())
}

func TestRun_StoredNamesFailureIsFatal(t *testing.T) {
	repo := newFakeRepo()
	repo.storedErr = errors.New("db down")
	svc := NewIngestionService(&fakeNames{names: []string{"A"}}, &fakeDetails{}, repo, nil, nil, syncConfig(), quietLogger())

	_, err := svc.Run(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNameSource)
}

func TestRun_FetchTimeoutIsFetchFailure(t *testing.T) {
	details := &fakeDetails{
		block:   map[string]bool{"Lento": true},
		details: map[string]*model.PlaceDetail{"Rapido": detailFor("p-rapido", "São Paulo, Brasil")},
	}
	cfg := syncConfig()
	cfg.FetchTimeout = 20 * time.Millisecond

	svc := NewIngestionService(&fakeNames{names: []string{"Lento", "Rapido"}}, details, newFakeRepo(), nil, nil, cfg, quietLogger())
	report, err := svc.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Failed, 1)
	assert.Equal(t, "Lento", report.Failed[0].Name)
	assert.Equal(t, model.FailureFetch, report.Failed[0].Kind)
	require.Len(t, report.Succeeded, 1)
	assert.Equal(t, "Rapido", report.Succeeded[0].Name)
}

func TestRun_QuotaGuard(t *testing.T) {
	details := &fakeDetails{details: map[string]*model.PlaceDetail{"A": detailFor("p-a", "São Paulo, Brasil")}}
	quota := &fakeQuota{usage: []model.GoogleAPIQuota{
		{APIService: model.QuotaEssential, QuotaLimit: 10000, QuotaUsed: 12},
		{APIService: model.QuotaEnterprise, QuotaLimit: 1000, QuotaUsed: 1000},
	}}
	cfg := syncConfig()
	cfg.EnforceQuota = true

	svc := NewIngestionService(&fakeNames{names: []string{"A"}}, details, newFakeRepo(), quota, nil, cfg, quietLogger())
	report, err := svc.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Failed, 1)
	assert.Equal(t, model.FailureQuotaExhausted, report.Failed[0].Kind)
	assert.Empty(t, details.fetchCalls())
	assert.Zero(t, quota.increments)
}

func TestRun_QuotaCounterFailureIsNonFatal(t *testing.T) {
	details := &fakeDetails{details: map[string]*model.PlaceDetail{"A": detailFor("p-a", "São Paulo, Brasil")}}
	quota := &fakeQuota{incErr: errors.New("quota table locked"), usageErr: errors.New("quota table locked")}
	cfg := syncConfig()
	cfg.EnforceQuota = true

	svc := NewIngestionService(&fakeNames{names: []string{"A"}}, details, newFakeRepo(), quota, nil, cfg, quietLogger())
	report, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, report.Succeeded, 1)
	assert.Empty(t, report.Failed)
}

func TestRun_PruneRemoved(t *testing.T) {
	repo := newFakeRepo("Fechou", "Continua")
	cfg := syncConfig()

	svc := NewIngestionService(&fakeNames{names: []string{"Continua"}}, &fakeDetails{}, repo, nil, nil, cfg, quietLogger())
	report, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, repo.deleted, "prune disabled by default")
	assert.Empty(t, report.Removed)

	cfg.PruneRemoved = true
	svc = NewIngestionService(&fakeNames{names: []string{"Continua"}}, &fakeDetails{}, repo, nil, nil, cfg, quietLogger())
	report, err = svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Fechou"}, repo.deleted)
	assert.Equal(t, []string{"Fechou"}, report.Removed)
}

func TestRun_MaxItems(t *testing.T) {
	details := &fakeDetails{details: map[string]*model.PlaceDetail{
		"A": detailFor("p-a", "São Paulo, Brasil"),
		"B": detailFor("p-b", "São Paulo, Brasil"),
		"C": detailFor("p-c", "São Paulo, Brasil"),
	}}
	cfg := syncConfig()
	cfg.MaxItems = 2

	svc := NewIngestionService(&fakeNames{names: []string{"C", "B", "A"}}, details, newFakeRepo(), nil, nil, cfg, quietLogger())
	report, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, report.Candidates)
	assert.Len(t, report.Succeeded, 2)
}

func TestRun_SerializesCommitsPerExternalID(t *testing.T) {
	// 不同名称解析到同一个 Place ID
	details := &fakeDetails{details: map[string]*model.PlaceDetail{}}
	var names []string
	for i := 0; i < 8; i++ {
		name := fmt.Sprintf("Filial %d", i)
		names = append(names, name)
		details.details[name] = detailFor("p-same", "São Paulo, Brasil")
	}
	repo := newFakeRepo()
	repo.commitWait = 5 * time.Millisecond

	cfg := syncConfig()
	cfg.Workers = 8
	svc := NewIngestionService(&fakeNames{names: names}, details, repo, nil, nil, cfg, quietLogger())
	report, err := svc.Run(context.Background())
	require.NoError(t, err)

	assert.Len(t, report.Succeeded, 8)
	assert.False(t, repo.overlapped)
	for _, s := range report.Succeeded {
		assert.Equal(t, report.Succeeded[0].RestaurantID, s.RestaurantID)
	}
}

func TestRun_RejectsConcurrentRun(t *testing.T) {
	svc := NewIngestionService(&fakeNames{}, &fakeDetails{}, newFakeRepo(), nil, nil, syncConfig(), quietLogger())
	svc.running.Store(true)

	_, err := svc.Run(context.Background())
	assert.ErrorIs(t, err, ErrRunInProgress)
	_, err = svc.Refresh(context.Background())
	assert.ErrorIs(t, err, ErrRunInProgress)
}

func TestRefresh_UsesStoredPlaceID(t *testing.T) {
	details := &fakeByID{byID: map[string]*model.PlaceDetail{
		"stored-Cantina": detailFor("stored-Cantina", "Rua Augusta, 10, Centro, São Paulo - SP, Brasil"),
	}}
	repo := newFakeRepo("Cantina", "Sumiu")
	runs := &fakeRuns{}

	svc := NewIngestionService(&fakeNames{}, details, repo, nil, runs, syncConfig(), quietLogger())
	report, err := svc.Refresh(context.Background())
	require.NoError(t, err)

	assert.Equal(t, model.RunKindRefresh, report.Kind)
	assert.ElementsMatch(t, []string{"stored-Cantina", "stored-Sumiu"}, details.ids)
	assert.Empty(t, details.fetchCalls())

	require.Len(t, report.Succeeded, 1)
	assert.Equal(t, "Cantina", report.Succeeded[0].Name)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, model.FailureNotFound, report.Failed[0].Kind)

	assert.Equal(t, "Cantina", repo.commits["stored-Cantina"].Restaurant.GoogleName)
	assert.Len(t, runs.saved, 1)
}

func TestRefresh_FallsBackToNameLookup(t *testing.T) {
	details := &fakeDetails{details: map[string]*model.PlaceDetail{"Cantina": detailFor("p-cantina", "São Paulo, Brasil")}}
	svc := NewIngestionService(&fakeNames{}, details, newFakeRepo("Cantina"), nil, nil, syncConfig(), quietLogger())

	report, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Cantina"}, details.fetchCalls())
	assert.Len(t, report.Succeeded, 1)
}

func TestKeyedMutex(t *testing.T) {
	km := newKeyedMutex()
	var (
		mu      sync.Mutex
		active  int
		maxSeen int
		wg      sync.WaitGroup
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := km.Lock("k")
			mu.Lock()
			active++
			if active > maxSeen {
				maxSeen = active
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			active--
			mu.Unlock()
			unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
	assert.Empty(t, km.locks)
}

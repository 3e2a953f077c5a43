package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"RestaurantSync/internal/config"
	"RestaurantSync/internal/interfaces"
	"RestaurantSync/internal/model"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// IngestionService 收藏列表 → Places 详情 → 入库 的同步流程
type IngestionService struct {
	names   interfaces.NameSource
	details interfaces.DetailSource
	repo    interfaces.RestaurantRepository
	quota   interfaces.QuotaCounter  // 可为 nil
	runs    interfaces.RunRepository // 可为 nil
	cfg     config.SyncConfig
	logger  *logrus.Logger

	locks   *keyedMutex
	running atomic.Bool
	now     func() time.Time
}

func NewIngestionService(
	names interfaces.NameSource,
	details interfaces.DetailSource,
	repo interfaces.RestaurantRepository,
	quota interfaces.QuotaCounter,
	runs interfaces.RunRepository,
	cfg config.SyncConfig,
	logger *logrus.Logger,
) *IngestionService {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 30 * time.Second
	}
	return &IngestionService{
		names:   names,
		details: details,
		repo:    repo,
		quota:   quota,
		runs:    runs,
		cfg:     cfg,
		logger:  logger,
		locks:   newKeyedMutex(),
		now:     time.Now,
	}
}

// job 一个待处理的餐厅：名称 + 拉取详情的方式
type job struct {
	name  string
	fetch func(ctx context.Context) (*model.PlaceDetail, error)
}

// Running 当前是否有同步在执行
func (s *IngestionService) Running() bool {
	return s.running.Load()
}

// Run 拉取收藏列表，入库新增的餐厅；prune_removed 打开时删除已移出列表的餐厅。
// 名称列表获取失败直接返回 ErrNameSource，单个餐厅失败只记录在报告里。
func (s *IngestionService) Run(ctx context.Context) (*model.IngestionReport, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrRunInProgress
	}
	defer s.running.Store(false)

	report := s.newReport(model.RunKindCreate)
	log := s.logger.WithFields(logrus.Fields{"run_uuid": report.RunUUID, "kind": report.Kind})

	names, err := s.names.ListNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNameSource, err)
	}
	stored, err := s.repo.ListStoredNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("查询已入库餐厅失败: %w", err)
	}

	rec := Reconcile(names, stored)
	candidates := rec.ToCreate
	if s.cfg.MaxItems > 0 && len(candidates) > s.cfg.MaxItems {
		log.Infof("新增餐厅%d个，本次只处理前%d个", len(candidates), s.cfg.MaxItems)
		candidates = candidates[:s.cfg.MaxItems]
	}
	log.WithFields(logrus.Fields{
		"listed":    len(names),
		"stored":    len(stored),
		"to_create": len(rec.ToCreate),
		"to_remove": len(rec.ToRemove),
	}).Info("名称比对完成")

	jobs := make([]job, 0, len(candidates))
	for _, name := range candidates {
		jobs = append(jobs, job{name: name, fetch: func(ctx context.Context) (*model.PlaceDetail, error) {
			return s.details.Fetch(ctx, name)
		}})
	}
	report.Candidates = candidates
	report.Succeeded, report.Failed = s.processAll(ctx, jobs)

	if s.cfg.PruneRemoved && len(rec.ToRemove) > 0 {
		removed, err := s.repo.DeleteByNames(ctx, rec.ToRemove)
		if err != nil {
			log.WithError(err).Warn("删除已移出列表的餐厅失败")
		} else {
			report.Removed = removed
		}
	}

	s.finish(ctx, report)
	return report, nil
}

// Refresh 按已保存的 Place ID 重新拉取所有餐厅并覆盖写入（月度更新）
func (s *IngestionService) Refresh(ctx context.Context) (*model.IngestionReport, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrRunInProgress
	}
	defer s.running.Store(false)

	report := s.newReport(model.RunKindRefresh)

	stored, err := s.repo.ListStored(ctx)
	if err != nil {
		return nil, fmt.Errorf("查询已入库餐厅失败: %w", err)
	}

	byID, canFetchByID := s.details.(interfaces.PlaceByIDFetcher)
	jobs := make([]job, 0, len(stored))
	for _, st := range stored {
		j := job{name: st.GoogleName}
		if canFetchByID && st.GoogleID != "" {
			j.fetch = func(ctx context.Context) (*model.PlaceDetail, error) {
				return byID.FetchByID(ctx, st.GoogleID)
			}
		} else {
			j.fetch = func(ctx context.Context) (*model.PlaceDetail, error) {
				return s.details.Fetch(ctx, st.GoogleName)
			}
		}
		report.Candidates = append(report.Candidates, st.GoogleName)
		jobs = append(jobs, j)
	}
	report.Succeeded, report.Failed = s.processAll(ctx, jobs)

	s.finish(ctx, report)
	return report, nil
}

func (s *IngestionService) newReport(kind string) *model.IngestionReport {
	return &model.IngestionReport{
		RunUUID:    uuid.NewString(),
		Kind:       kind,
		StartedAt:  s.now(),
		Candidates: []string{},
		Succeeded:  []model.ItemSuccess{},
		Failed:     []model.ItemFailure{},
		Removed:    []string{},
	}
}

func (s *IngestionService) finish(ctx context.Context, report *model.IngestionReport) {
	report.FinishedAt = s.now()
	s.logger.WithFields(logrus.Fields{
		"run_uuid":  report.RunUUID,
		"kind":      report.Kind,
		"succeeded": len(report.Succeeded),
		"failed":    len(report.Failed),
		"removed":   len(report.Removed),
		"elapsed":   report.FinishedAt.Sub(report.StartedAt).String(),
	}).Info("餐厅同步完成")

	if s.runs == nil {
		return
	}
	// 请求已断开也要把结果落库
	if err := s.runs.Save(context.WithoutCancel(ctx), report); err != nil {
		s.logger.WithError(err).WithField("run_uuid", report.RunUUID).Warn("保存同步记录失败")
	}
}

type itemResult struct {
	success *model.ItemSuccess
	failure *model.ItemFailure
}

// processAll 有界并发处理；单条失败不影响其他条目
func (s *IngestionService) processAll(ctx context.Context, jobs []job) ([]model.ItemSuccess, []model.ItemFailure) {
	succeeded := []model.ItemSuccess{}
	failed := []model.ItemFailure{}
	if len(jobs) == 0 {
		return succeeded, failed
	}

	results := make(chan itemResult, len(jobs))
	sem := make(chan struct{}, s.cfg.Workers)
	var wg sync.WaitGroup

	for _, j := range jobs {
		wg.Add(1)
		go func(j job) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				results <- s.fail(j.name, fmt.Errorf("%w: %w", ErrFetchFailure, ctx.Err()))
				return
			}

			ok, err := s.processOne(ctx, j)
			if err != nil {
				results <- s.fail(j.name, err)
				return
			}
			results <- itemResult{success: ok}
		}(j)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	for r := range results {
		if r.success != nil {
			succeeded = append(succeeded, *r.success)
		} else {
			failed = append(failed, *r.failure)
		}
	}

	sort.Slice(succeeded, func(i, k int) bool { return succeeded[i].Name < succeeded[k].Name })
	sort.Slice(failed, func(i, k int) bool { return failed[i].Name < failed[k].Name })
	return succeeded, failed
}

func (s *IngestionService) fail(name string, err error) itemResult {
	kind := failureKind(err)
	entry := s.logger.WithError(err).WithFields(logrus.Fields{"name": name, "kind": kind})
	if kind == model.FailureNotFound {
		entry.Info("Places 未找到该餐厅，跳过")
	} else {
		entry.Warn("餐厅同步失败，跳过")
	}
	return itemResult{failure: &model.ItemFailure{Name: name, Kind: kind, Reason: err.Error()}}
}

// processOne 配额检查 → 拉取（带超时）→ 计数 → 富化 → 按 Place ID 串行提交
func (s *IngestionService) processOne(ctx context.Context, j job) (*model.ItemSuccess, error) {
	if s.cfg.EnforceQuota {
		if err := s.checkQuota(ctx); err != nil {
			return nil, err
		}
	}

	detail, err := s.fetchWithTimeout(ctx, j)
	if err != nil {
		if errors.Is(err, interfaces.ErrPlaceNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrFetchFailure, err)
	}
	s.countUsage(ctx)

	rec, err := Enrich(j.name, detail)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(rec.ExternalID())
	id, err := s.repo.Commit(ctx, rec)
	unlock()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransaction, err)
	}

	s.logger.WithFields(logrus.Fields{
		"name":          j.name,
		"google_id":     rec.ExternalID(),
		"restaurant_id": id,
	}).Debug("餐厅入库成功")
	return &model.ItemSuccess{Name: j.name, ExternalID: rec.ExternalID(), RestaurantID: id}, nil
}

// fetchWithTimeout 拉取放到独立 goroutine，超时按拉取失败处理
func (s *IngestionService) fetchWithTimeout(ctx context.Context, j job) (*model.PlaceDetail, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
	defer cancel()

	type fetched struct {
		detail *model.PlaceDetail
		err    error
	}
	ch := make(chan fetched, 1)
	go func() {
		d, err := j.fetch(fetchCtx)
		ch <- fetched{detail: d, err: err}
	}()

	select {
	case r := <-ch:
		return r.detail, r.err
	case <-fetchCtx.Done():
		return nil, fmt.Errorf("拉取详情超时(%s): %w", s.cfg.FetchTimeout, fetchCtx.Err())
	}
}

// checkQuota 任一档位本月用量达到上限即拒绝拉取；查询失败不阻塞
func (s *IngestionService) checkQuota(ctx context.Context) error {
	if s.quota == nil {
		return nil
	}
	usage, err := s.quota.Usage(ctx, s.now())
	if err != nil {
		s.logger.WithError(err).Warn("查询API配额失败，继续拉取")
		return nil
	}
	for _, q := range usage {
		if q.QuotaLimit > 0 && q.QuotaUsed >= q.QuotaLimit {
			return fmt.Errorf("%w: %s %d/%d", ErrQuotaExhausted, q.APIService, q.QuotaUsed, q.QuotaLimit)
		}
	}
	return nil
}

// countUsage 成功拉取后计数；失败只打日志
func (s *IngestionService) countUsage(ctx context.Context) {
	if s.quota == nil {
		return
	}
	if err := s.quota.Increment(ctx, s.now(), model.QuotaTiers()...); err != nil {
		s.logger.WithError(err).Warn("API配额计数失败")
	}
}

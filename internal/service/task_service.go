package service

import (
	"context"
	"errors"
	"strings"

	dom "taskboard/internal/domain"
	"taskboard/internal/repo"

	"github.com/jackc/pgx/v5"
	"golang.org/x/sync/singleflight"

	"taskboard/internal/cache"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrBlankTitle = errors.New("title must not be blank")
)

type TaskService struct {
	repo  repo.TaskRepo
	cache *cache.TaskCache
	sf    singleflight.Group
}

// NewTaskService creates a TaskService. If c is nil, caching is disabled.
func NewTaskService(r repo.TaskRepo, c *cache.TaskCache) *TaskService {
	return &TaskService{repo: r, cache: c}
}

// ListPage returns one page of tasks matching f plus the total count for
// that scope and filter.
func (s *TaskService) ListPage(ctx context.Context, f repo.TaskFilter) ([]dom.Task, int64, error) {
	if s.cache != nil {
		key := cache.PageKey(f.Owner, f.Completed, f.Limit, f.Offset)
		v, err, _ := s.sf.Do(key, func() (interface{}, error) {
			if p, err := s.cache.GetPage(ctx, key); err == nil && p != nil {
				return *p, nil
			}
			p, err := s.loadPage(ctx, f)
			if err != nil {
				return nil, err
			}
			_ = s.cache.SetPage(ctx, key, p)
			return p, nil
		})
		if err != nil {
			return nil, 0, err
		}
		p := v.(cache.Page)
		return p.Tasks, p.Count, nil
	}
	p, err := s.loadPage(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	return p.Tasks, p.Count, nil
}

func (s *TaskService) loadPage(ctx context.Context, f repo.TaskFilter) (cache.Page, error) {
	count, err := s.repo.Count(ctx, f)
	if err != nil {
		return cache.Page{}, err
	}
	list, err := s.repo.List(ctx, f)
	if err != nil {
		return cache.Page{}, err
	}
	return cache.Page{Count: count, Tasks: list}, nil
}

// Create stores a new task owned by userID.
func (s *TaskService) Create(ctx context.Context, userID int64, title, desc string, completed bool) (dom.Task, error) {
	title = strings.TrimSpace(title)
	desc = strings.TrimSpace(desc)
	if title == "" {
		return dom.Task{}, ErrBlankTitle
	}

	t, err := s.repo.Create(ctx, dom.Task{
		Title:       title,
		Description: desc,
		Completed:   completed,
		UserID:      &userID,
	})
	if err != nil {
		return dom.Task{}, err
	}
	s.invalidateCache(ctx)
	return t, nil
}

// GetByID returns the task only if it is owned by userID.
func (s *TaskService) GetByID(ctx context.Context, userID, id int64) (dom.Task, error) {
	t, err := s.repo.GetOwned(ctx, userID, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return dom.Task{}, ErrNotFound
		}
		return dom.Task{}, err
	}
	return t, nil
}

// Replace overwrites title, description and completed of an owned task.
func (s *TaskService) Replace(ctx context.Context, userID, id int64, title, desc string, completed bool) (dom.Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return dom.Task{}, ErrBlankTitle
	}
	t, err := s.repo.Update(ctx, userID, id, dom.Task{
		Title:       title,
		Description: strings.TrimSpace(desc),
		Completed:   completed,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return dom.Task{}, ErrNotFound
		}
		return dom.Task{}, err
	}
	s.invalidateCache(ctx)
	return t, nil
}

// Patch applies the non-nil fields to an owned task.
func (s *TaskService) Patch(ctx context.Context, userID, id int64, title, desc *string, completed *bool) (dom.Task, error) {
	existing, err := s.repo.GetOwned(ctx, userID, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return dom.Task{}, ErrNotFound
		}
		return dom.Task{}, err
	}
	patch := existing
	if title != nil {
		trimmed := strings.TrimSpace(*title)
		if trimmed == "" {
			return dom.Task{}, ErrBlankTitle
		}
		patch.Title = trimmed
	}
	if desc != nil {
		patch.Description = strings.TrimSpace(*desc)
	}
	if completed != nil {
		patch.Completed = *completed
	}
	t, err := s.repo.Update(ctx, userID, id, patch)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return dom.Task{}, ErrNotFound
		}
		return dom.Task{}, err
	}
	s.invalidateCache(ctx)
	return t, nil
}

// Delete removes an owned task permanently. Deleting it again is ErrNotFound.
func (s *TaskService) Delete(ctx context.Context, userID, id int64) error {
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	s.invalidateCache(ctx)
	return nil
}

func (s *TaskService) invalidateCache(ctx context.Context) {
	if s.cache != nil {
		_ = s.cache.InvalidateAll(ctx)
	}
}

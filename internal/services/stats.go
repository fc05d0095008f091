package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/postledger/postledger/internal/model"
	"github.com/postledger/postledger/internal/store"
)

// Period is a relative time window used to filter posts before aggregation.
// Week and month are rolling 7/30-day windows, not calendar-aligned.
type Period string

const (
	PeriodToday      Period = "today"
	PeriodLast7Days  Period = "last_7_days"
	PeriodLast30Days Period = "last_30_days"
	PeriodAllTime    Period = "all_time"
)

// ParsePeriod accepts canonical period names and their short aliases.
// Empty input defaults to the rolling 30-day window.
func ParsePeriod(s string) (Period, error) {
	switch s {
	case "today":
		return PeriodToday, nil
	case "week", "last_7_days":
		return PeriodLast7Days, nil
	case "", "month", "last_30_days":
		return PeriodLast30Days, nil
	case "all", "all_time":
		return PeriodAllTime, nil
	}
	return "", fmt.Errorf("%w: unknown period %q", model.ErrValidation, s)
}

// Includes reports whether a post submitted at the given time falls inside
// the period, evaluated against the query clock "now". Today means the same
// calendar date in now's location; the rolling windows have an inclusive
// lower bound and no upper bound.
func (p Period) Includes(submittedAt, now time.Time) bool {
	switch p {
	case PeriodToday:
		y1, m1, d1 := submittedAt.In(now.Location()).Date()
		y2, m2, d2 := now.Date()
		return y1 == y2 && m1 == m2 && d1 == d2
	case PeriodLast7Days:
		return !submittedAt.Before(now.AddDate(0, 0, -7))
	case PeriodLast30Days:
		return !submittedAt.Before(now.AddDate(0, 0, -30))
	default:
		return true
	}
}

// StatsService aggregates the post ledger into per-user, per-character
// leaderboards. All grouping happens in process over a single scoped read,
// keeping the store contract minimal.
type StatsService struct {
	store   store.Store
	timeout time.Duration
	now     func() time.Time
}

func NewStatsService(s store.Store, storeTimeout time.Duration) *StatsService {
	if storeTimeout <= 0 {
		storeTimeout = defaultStoreTimeout
	}
	return &StatsService{store: s, timeout: storeTimeout, now: time.Now}
}

// Query returns every user with posts in the period, sorted by point total
// descending. Ties keep first-seen order (order of the user's first post in
// the scope), as do character lists within a user.
func (s *StatsService) Query(ctx context.Context, chatScope string, period Period) ([]*model.AggregatedUser, error) {
	if chatScope == "" {
		return nil, fmt.Errorf("%w: chat scope is required", model.ErrValidation)
	}
	posts, err := s.listPosts(ctx, model.ListPostsRequest{ChatScope: chatScope})
	if err != nil {
		return nil, err
	}
	now := s.now()
	var retained []*model.Post
	for _, p := range posts {
		if period.Includes(p.SubmittedAt, now) {
			retained = append(retained, p)
		}
	}
	return aggregate(retained), nil
}

// UserStats returns one user's per-character aggregates over the scope's
// whole history. model.ErrNotFound signals the user has no posts.
func (s *StatsService) UserStats(ctx context.Context, chatScope, userID string) (*model.AggregatedUser, error) {
	if chatScope == "" || userID == "" {
		return nil, fmt.Errorf("%w: chat scope and user id are required", model.ErrValidation)
	}
	posts, err := s.listPosts(ctx, model.ListPostsRequest{ChatScope: chatScope, UserID: userID})
	if err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return nil, fmt.Errorf("%w: no posts for user %s", model.ErrNotFound, userID)
	}
	return aggregate(posts)[0], nil
}

// ScopeStats summarizes the whole ledger of one chat.
func (s *StatsService) ScopeStats(ctx context.Context, chatScope string) (*model.ScopeStats, error) {
	if chatScope == "" {
		return nil, fmt.Errorf("%w: chat scope is required", model.ErrValidation)
	}
	posts, err := s.listPosts(ctx, model.ListPostsRequest{ChatScope: chatScope})
	if err != nil {
		return nil, err
	}
	users := make(map[string]struct{})
	chars := make(map[string]struct{})
	for _, p := range posts {
		users[p.UserID] = struct{}{}
		chars[p.CharacterName] = struct{}{}
	}
	return &model.ScopeStats{
		TotalPosts:       len(posts),
		UniqueUsers:      len(users),
		UniqueCharacters: len(chars),
	}, nil
}

func (s *StatsService) listPosts(ctx context.Context, req model.ListPostsRequest) ([]*model.Post, error) {
	sctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	posts, err := s.store.Posts().List(sctx, req)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

// aggregate groups posts by (user, character) and rolls the pairs up per
// user. Input order is first-seen order; both sorts are stable so it becomes
// the tie-break.
func aggregate(posts []*model.Post) []*model.AggregatedUser {
	users := make(map[string]*model.AggregatedUser)
	charIdx := make(map[string]map[string]int)
	var order []string

	for _, p := range posts {
		u, ok := users[p.UserID]
		if !ok {
			u = &model.AggregatedUser{UserID: p.UserID, DisplayName: p.DisplayName}
			users[p.UserID] = u
			charIdx[p.UserID] = make(map[string]int)
			order = append(order, p.UserID)
		}
		idx, ok := charIdx[p.UserID][p.CharacterName]
		if !ok {
			idx = len(u.Characters)
			u.Characters = append(u.Characters, &model.AggregatedCharacter{Name: p.CharacterName})
			charIdx[p.UserID][p.CharacterName] = idx
		}
		c := u.Characters[idx]
		c.PostCount++
		c.CharTotal += int64(p.CharCount)
		c.PointTotal += int64(p.Points)
		u.PostCount++
		u.CharTotal += int64(p.CharCount)
		u.PointTotal += int64(p.Points)
	}

	out := make([]*model.AggregatedUser, 0, len(order))
	for _, id := range order {
		u := users[id]
		sort.SliceStable(u.Characters, func(i, j int) bool {
			return u.Characters[i].PointTotal > u.Characters[j].PointTotal
		})
		out = append(out, u)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PointTotal > out[j].PointTotal
	})
	return out
}

// TopN truncates an already-sorted aggregation result to its first n
// entries. n past the end returns the whole list; n <= 0 returns an empty
// list.
func TopN(users []*model.AggregatedUser, n int) []*model.AggregatedUser {
	if n <= 0 {
		return []*model.AggregatedUser{}
	}
	if n > len(users) {
		n = len(users)
	}
	return users[:n]
}

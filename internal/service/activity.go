package service

import (
	"context"
	"log/slog"

	"github.com/sakif/ideahub/internal/model"
	"github.com/sakif/ideahub/internal/repository"
	"github.com/sakif/ideahub/internal/transform"
)

// Feed sizes. The feeds are fixed-size windows, not paginated streams.
const (
	GlobalFeedLimit = 10
	UserFeedLimit   = 5
)

// ActivityService derives activity feeds from idea rows at query time.
// There is no activity table: each feed entry is a recent idea re-described
// as a "created" event, so the feed is only as durable as the ideas behind
// it — deleting an idea removes its entry retroactively.
type ActivityService struct {
	ideas  repository.IdeaRepository
	logger *slog.Logger
}

// NewActivityService creates a new ActivityService.
func NewActivityService(ideas repository.IdeaRepository, logger *slog.Logger) *ActivityService {
	return &ActivityService{
		ideas:  ideas,
		logger: logger,
	}
}

// GlobalFeed returns the platform-wide activity feed: the ten newest
// public, published ideas as creation events. The limit rides down into the
// store query, so the feed never pulls the whole table into memory.
func (s *ActivityService) GlobalFeed(ctx context.Context) ([]model.Activity, error) {
	ideas, err := s.ideas.List(ctx, repository.IdeaFilter{
		Sort:  repository.SortNewest,
		Limit: GlobalFeedLimit,
	}, "")
	if err != nil {
		return nil, err
	}
	return toActivities(ideas, "activity-"), nil
}

// UserFeed returns a single user's recent creations, newest first, capped
// at five entries.
func (s *ActivityService) UserFeed(ctx context.Context, userID string) ([]model.Activity, error) {
	ideas, err := s.ideas.ListByAuthor(ctx, userID, "")
	if err != nil {
		return nil, err
	}
	if len(ideas) > UserFeedLimit {
		ideas = ideas[:UserFeedLimit]
	}
	return toActivities(ideas, "user-activity-"), nil
}

// toActivities re-describes ideas as creation events. Each entry embeds the
// basic idea projection — the feeds render titles and timestamps, not full
// content.
func toActivities(ideas []model.Idea, idPrefix string) []model.Activity {
	activities := make([]model.Activity, 0, len(ideas))
	for _, idea := range ideas {
		basic := transform.ToBasicIdea(transform.BasicIdeaRow{
			ID:        idea.ID,
			Title:     idea.Title,
			CreatedAt: idea.CreatedAt,
		})
		basic.Author = idea.Author
		activities = append(activities, model.Activity{
			ID:          idPrefix + idea.ID,
			Type:        model.ActivityCreated,
			User:        idea.Author,
			Idea:        basic,
			Description: "created a new idea",
			Timestamp:   idea.CreatedAt,
		})
	}
	return activities
}

package boards

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/lmedina/mailboard/internal/extract"
	"github.com/lmedina/mailboard/internal/model"
	"github.com/lmedina/mailboard/internal/render"
)

// autoTag is attached to every work item this system creates.
const autoTag = "Auto-Generated"

// API is the subset of the backend the Submitter needs.
type API interface {
	ListItemTypes(ctx context.Context) ([]string, error)
	ListStates(ctx context.Context, itemType string) ([]string, error)
	CreateWorkItem(ctx context.Context, req CreateRequest) (*CreatedItem, error)
}

// SubmissionResult reports the outcome of one create attempt. It is
// produced once, logged, and discarded; no retry state is kept.
type SubmissionResult struct {
	Success bool
	ItemID  string
	ItemURL string
	State   string
}

// Submitter resolves categories to board states, validates them against
// the backend's reported states, and issues create calls. Transport
// failures are soft: they yield a failed SubmissionResult, never an
// error to the caller.
type Submitter struct {
	api      API
	itemType string
	prefixes []model.TitlePrefixes
	logger   *zap.Logger
}

// NewSubmitter creates a Submitter targeting the given work item type.
func NewSubmitter(api API, itemType string, prefixes []model.TitlePrefixes, logger *zap.Logger) *Submitter {
	if itemType == "" {
		itemType = "Issue"
	}
	return &Submitter{
		api:      api,
		itemType: itemType,
		prefixes: prefixes,
		logger:   logger,
	}
}

// Submit renders and creates one work item for a classified message.
func (s *Submitter) Submit(
	ctx context.Context,
	subject string,
	category model.Category,
	details extract.Details,
) SubmissionResult {
	itemType := s.resolveItemType(ctx)
	state := s.resolveState(ctx, itemType, category)

	item := render.Item{
		Title:       render.Title(s.prefixes, category, details.Sender, subject),
		Description: render.Describe(category, details),
		Category:    category,
	}

	req := CreateRequest{
		ItemType:    itemType,
		Title:       item.Title,
		Description: item.Description,
		State:       state,
		Tags:        autoTag,
	}
	if details.Sender != "" {
		req.HistoryNote = fmt.Sprintf(
			"Work item created from execution report sent by: %s",
			details.Sender,
		)
	}

	created, err := s.api.CreateWorkItem(ctx, req)
	if err != nil {
		s.logger.Error("work item creation failed",
			zap.String("title", item.Title),
			zap.String("state", state),
			zap.Error(err),
		)
		return SubmissionResult{}
	}

	return SubmissionResult{
		Success: true,
		ItemID:  created.ID,
		ItemURL: created.URL,
		State:   state,
	}
}

// resolveItemType validates the configured work item type against the
// backend's offerings, falling back to the first offered type. A failed
// listing keeps the configured type.
func (s *Submitter) resolveItemType(ctx context.Context) string {
	types, err := s.api.ListItemTypes(ctx)
	if err != nil {
		s.logger.Warn("could not list work item types; keeping configured type",
			zap.String("item_type", s.itemType),
			zap.Error(err),
		)
		return s.itemType
	}

	for _, t := range types {
		if t == s.itemType {
			return s.itemType
		}
	}
	if len(types) == 0 {
		return s.itemType
	}

	s.logger.Warn("configured work item type not offered by project",
		zap.String("item_type", s.itemType),
		zap.String("using", types[0]),
	)
	return types[0]
}

// resolveState maps a category to its board state and validates it
// against the states the backend reports for itemType. An absent state
// falls back to the first valid state; an empty list falls back to the
// hardcoded default.
func (s *Submitter) resolveState(ctx context.Context, itemType string, category model.Category) string {
	state := model.StateForCategory(category)

	states, err := s.api.ListStates(ctx, itemType)
	if err != nil {
		s.logger.Warn("could not list states; keeping mapped state",
			zap.String("state", state),
			zap.Error(err),
		)
		return state
	}

	for _, valid := range states {
		if valid == state {
			return state
		}
	}

	if len(states) == 0 {
		s.logger.Warn("backend reported no states; using default",
			zap.String("state", model.DefaultState),
			zap.String("item_type", itemType),
		)
		return model.DefaultState
	}

	s.logger.Warn("mapped state not valid for item type; using first valid state",
		zap.String("mapped", state),
		zap.String("using", states[0]),
		zap.String("item_type", itemType),
	)
	return states[0]
}

// Package pipeline orchestrates one polling cycle: it walks the
// monitored senders, fetches their unseen messages, and drives each
// message through extraction, classification, rendering, and
// submission. Messages are processed strictly one at a time, and a
// failure in one never aborts the rest of the batch.
package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lmedina/mailboard/internal/boards"
	"github.com/lmedina/mailboard/internal/classify"
	"github.com/lmedina/mailboard/internal/extract"
	"github.com/lmedina/mailboard/internal/journal"
	"github.com/lmedina/mailboard/internal/mailbox"
	"github.com/lmedina/mailboard/internal/model"
)

// Mailbox is the mailbox collaborator contract the pipeline consumes.
type Mailbox interface {
	SearchUnseenFrom(ctx context.Context, sender string) ([]uint32, error)
	FetchMessage(ctx context.Context, uid uint32) (*mailbox.Message, error)
	MarkSeen(ctx context.Context, uid uint32) error
}

// Submitter files one work item for a classified message.
type Submitter interface {
	Submit(
		ctx context.Context,
		subject string,
		category model.Category,
		details extract.Details,
	) boards.SubmissionResult
}

// Recorder persists processed-message outcomes for auditing.
type Recorder interface {
	Record(ctx context.Context, e journal.Entry) error
}

// CycleStats summarizes one polling cycle.
type CycleStats struct {
	Messages  int
	Submitted int
	NoAction  int
	Failed    int
}

// Pipeline processes the unseen messages of every monitored sender.
type Pipeline struct {
	mailbox    Mailbox
	classifier *classify.Classifier
	submitter  Submitter
	recorder   Recorder // nil when the journal is disabled
	senders    []string
	logger     *zap.Logger
}

// New creates a Pipeline. recorder may be nil.
func New(
	mb Mailbox,
	classifier *classify.Classifier,
	submitter Submitter,
	recorder Recorder,
	senders []string,
	logger *zap.Logger,
) *Pipeline {
	return &Pipeline{
		mailbox:    mb,
		classifier: classifier,
		submitter:  submitter,
		recorder:   recorder,
		senders:    senders,
		logger:     logger,
	}
}

// RunCycle performs one polling cycle: one UNSEEN search per monitored
// sender, then sequential processing of every hit in fetch order.
func (p *Pipeline) RunCycle(ctx context.Context) CycleStats {
	cycleID := uuid.NewString()
	logger := p.logger.With(zap.String("cycle_id", cycleID))

	var stats CycleStats
	for _, sender := range p.senders {
		uids, err := p.mailbox.SearchUnseenFrom(ctx, sender)
		if err != nil {
			if model.IsAuthError(err) {
				logger.Error("mailbox authentication failed, check credentials",
					zap.String("sender", sender),
					zap.Error(err),
				)
			} else {
				logger.Error("mailbox search failed",
					zap.String("sender", sender),
					zap.Error(err),
				)
			}
			continue
		}

		for _, uid := range uids {
			stats.Messages++
			p.processMessage(ctx, logger, cycleID, sender, uid, &stats)
		}
	}

	logger.Info("cycle finished",
		zap.Int("messages", stats.Messages),
		zap.Int("submitted", stats.Submitted),
		zap.Int("no_action", stats.NoAction),
		zap.Int("failed", stats.Failed),
	)
	return stats
}

// processMessage drives one message through the pipeline:
// fetch → extract → classify → render+submit → mark seen. The message
// is marked seen no matter how processing went, except when the fetch
// itself failed; an unfetched message stays unseen for the next cycle.
func (p *Pipeline) processMessage(
	ctx context.Context,
	logger *zap.Logger,
	cycleID string,
	sender string,
	uid uint32,
	stats *CycleStats,
) {
	msg, err := p.mailbox.FetchMessage(ctx, uid)
	if err != nil {
		stats.Failed++
		if model.IsAuthError(err) {
			logger.Error("mailbox authentication failed, check credentials",
				zap.String("sender", sender),
				zap.Uint32("uid", uid),
				zap.Error(err),
			)
		} else {
			logger.Error("message fetch failed",
				zap.String("sender", sender),
				zap.Uint32("uid", uid),
				zap.Error(err),
			)
		}
		return
	}

	defer func() {
		if err := p.mailbox.MarkSeen(ctx, uid); err != nil {
			logger.Warn("could not mark message seen",
				zap.Uint32("uid", uid),
				zap.Error(err),
			)
		}
	}()

	if err := p.handleMessage(ctx, logger, cycleID, sender, msg, stats); err != nil {
		stats.Failed++
		logger.Error("message processing failed",
			zap.String("sender", sender),
			zap.String("subject", msg.Subject),
			zap.Error(err),
		)
	}
}

// handleMessage classifies and, when actionable, submits one fetched
// message. A panic anywhere in the derivation is converted to an error
// so a single poisoned message cannot take down the batch.
func (p *Pipeline) handleMessage(
	ctx context.Context,
	logger *zap.Logger,
	cycleID string,
	sender string,
	msg *mailbox.Message,
	stats *CycleStats,
) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic processing message: %v", r)
		}
	}()

	logger.Info("processing message",
		zap.String("sender", sender),
		zap.String("subject", msg.Subject),
	)

	details := extract.Extract(msg.Body, sender)

	category, keyword, ok := p.classifier.Classify(msg.Subject, sender)
	if !ok {
		stats.NoAction++
		logger.Info("message requires no action",
			zap.String("sender", sender),
			zap.String("subject", msg.Subject),
		)
		p.record(ctx, logger, journal.Entry{
			CycleID: cycleID,
			Sender:  sender,
			Subject: msg.Subject,
		})
		return nil
	}

	result := p.submitter.Submit(ctx, msg.Subject, category, details)
	if result.Success {
		stats.Submitted++
		logger.Info("work item created",
			zap.String("sender", sender),
			zap.String("category", string(category)),
			zap.String("keyword", keyword),
			zap.String("item_id", result.ItemID),
			zap.String("item_url", result.ItemURL),
			zap.String("state", result.State),
		)
	} else {
		stats.Failed++
		logger.Error("work item submission failed",
			zap.String("sender", sender),
			zap.String("subject", msg.Subject),
			zap.String("category", string(category)),
		)
	}

	p.record(ctx, logger, journal.Entry{
		CycleID:  cycleID,
		Sender:   sender,
		Subject:  msg.Subject,
		Category: string(category),
		ItemID:   result.ItemID,
		ItemURL:  result.ItemURL,
		State:    result.State,
		Success:  result.Success,
	})
	return nil
}

// record writes a journal entry when a recorder is configured. Journal
// failures never affect the pipeline outcome.
func (p *Pipeline) record(ctx context.Context, logger *zap.Logger, e journal.Entry) {
	if p.recorder == nil {
		return
	}
	if err := p.recorder.Record(ctx, e); err != nil {
		logger.Warn("journal write failed", zap.Error(err))
	}
}

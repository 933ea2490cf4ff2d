package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"pr-reminder/internal/config"
	"pr-reminder/internal/notifier"
	"pr-reminder/internal/reminder"
	"pr-reminder/pkg/models"
)

// Source lists the open pull requests of one repository.
type Source interface {
	ListOpenPRs(ctx context.Context, repo config.Repository) ([]models.PullRequest, error)
}

// Job is one reminder run over the configured repositories.
type Job struct {
	Source         Source
	Notifiers      []notifier.Notifier
	Composer       *reminder.Composer
	Repositories   []config.Repository
	FreezeDate     string
	ExcludeLabels  []string
	IgnoreKeywords []string
}

// Run evaluates the freeze countdown at now and delivers the reminder it calls
// for. Fetch and delivery failures do not stop the run; they are combined into
// the returned error. Chunks already sent stay sent.
func (j *Job) Run(ctx context.Context, now time.Time) error {
	log := slog.With("run_id", uuid.NewString())

	if len(j.Notifiers) == 0 {
		log.Warn("No notifier configured, skipping run", "error", reminder.ErrConfigurationMissing)
		return nil
	}

	freeze, err := reminder.ParseFreezeDate(j.FreezeDate)
	if errors.Is(err, reminder.ErrConfigurationMissing) {
		log.Warn("No freeze date configured, skipping run", "error", err)
		return nil
	}
	if err != nil {
		return err
	}

	decision := reminder.EvaluateFreezeWindow(freeze, now)
	policy, ok := decision.Policy()
	log.Info("Freeze window evaluated", "freeze_date", freeze.Format(time.DateOnly), "decision", decision.String())
	if !ok {
		log.Info("No reminder due in this run")
		return nil
	}

	selector := j.selector(now)

	switch policy {
	case models.ProjectFreezeStatus:
		return j.deliver(ctx, log, policy, j.Composer.RenderFreezeNotice(decision.Days))
	case models.AwaitingReview:
		return j.runAwaitingReview(ctx, log, selector, decision.Days)
	case models.MissingTriage:
		return j.runMissingTriage(ctx, log, selector)
	}
	return nil
}

func (j *Job) selector(now time.Time) *reminder.Selector {
	var opts []reminder.SelectorOption
	if len(j.ExcludeLabels) > 0 {
		opts = append(opts, reminder.WithExcludeLabels(j.ExcludeLabels...))
	}
	if len(j.IgnoreKeywords) > 0 {
		opts = append(opts, reminder.WithIgnoreKeywords(j.IgnoreKeywords...))
	}
	return reminder.NewSelector(now, opts...)
}

// runAwaitingReview sends one review reminder per repository, in configured order.
func (j *Job) runAwaitingReview(ctx context.Context, log *slog.Logger, selector *reminder.Selector, daysRemaining int) error {
	var errs error
	for _, repo := range j.Repositories {
		if err := ctx.Err(); err != nil {
			return multierr.Append(errs, err)
		}

		prs, err := j.fetch(ctx, log, repo)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}

		selected := selector.SelectAwaitingReview(prs)
		log.Info("PRs awaiting review", "repo", repo.Slug, "total", len(prs), "selected", len(selected))

		chunks := j.Composer.RenderReviewReminder(selected, repo.DisplayTitle(), daysRemaining)
		errs = multierr.Append(errs, j.deliver(ctx, log, models.AwaitingReview, chunks))
	}
	return errs
}

// runMissingTriage aggregates every repository and sends a single triage reminder.
func (j *Job) runMissingTriage(ctx context.Context, log *slog.Logger, selector *reminder.Selector) error {
	var errs error
	var all []models.PullRequest
	for _, repo := range j.Repositories {
		if err := ctx.Err(); err != nil {
			return multierr.Append(errs, err)
		}

		prs, err := j.fetch(ctx, log, repo)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		all = append(all, prs...)
	}

	selected := selector.SelectMissingTriage(all)
	log.Info("PRs missing triage", "total", len(all), "selected", len(selected))
	if len(selected) == 0 {
		return errs
	}

	return multierr.Append(errs, j.deliver(ctx, log, models.MissingTriage, j.Composer.RenderTriageReminder(selected)))
}

func (j *Job) fetch(ctx context.Context, log *slog.Logger, repo config.Repository) ([]models.PullRequest, error) {
	log.Info("Fetching open PRs for repository", "repo", repo.Slug)
	prs, err := j.Source.ListOpenPRs(ctx, repo)
	if err != nil {
		log.Error("Error fetching PRs for repository", "repo", repo.Slug, "error", err)
		return nil, fmt.Errorf("%w: %s: %w", reminder.ErrSourceFetchFailed, repo.Slug, err)
	}
	return prs, nil
}

// deliver sends every chunk, in order, to every notifier exactly once.
func (j *Job) deliver(ctx context.Context, log *slog.Logger, policy models.ReminderPolicy, chunks []models.MessageChunk) error {
	var errs error
	for i, chunk := range chunks {
		for _, n := range j.Notifiers {
			if err := n.Send(ctx, chunk); err != nil {
				log.Error("Error delivering chunk",
					"policy", policy.String(), "notifier", n.Name(), "chunk", i+1, "chunks", len(chunks), "error", err)
				errs = multierr.Append(errs, fmt.Errorf("%w: %s: %w", reminder.ErrDeliveryFailed, n.Name(), err))
			}
		}
	}
	if len(chunks) > 0 {
		log.Info("Reminder delivered", "policy", policy.String(), "chunks", len(chunks), "notifiers", len(j.Notifiers))
	}
	return errs
}

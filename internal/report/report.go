// Package report renders run reports for people: a text summary on the
// console, a YAML file, and an optional Slack message.
package report

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/slack-go/slack"
	"gopkg.in/yaml.v3"

	"github.com/racker/rackspace-cloudmonitoring-migration-tool/internal/models"
)

// WriteText prints the per-stage counts and every failed item.
func WriteText(w io.Writer, r *models.Report) {
	title := "Migration summary"
	if r.DryRun {
		title += " (dry run)"
	}
	fmt.Fprintf(w, "=== %s ===\n", title)
	for _, stage := range r.Stages() {
		fmt.Fprintf(w, "  %-20s %s\n", stage+":", r.Summary(stage))
	}
	if r.FinishedAt != nil {
		fmt.Fprintf(w, "  Duration: %s\n", r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))
	}

	failed := Failures(r)
	if len(failed) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%d item(s) failed:\n", len(failed))
	for _, it := range failed {
		fmt.Fprintf(w, "  [%s] %s: %s\n", it.Stage, it.Label, it.Detail)
	}
}

// Failures returns the failed items of a report.
func Failures(r *models.Report) []models.ItemResult {
	var out []models.ItemResult
	for _, it := range r.Items {
		if it.Action == models.ActionFailed {
			out = append(out, it)
		}
	}
	return out
}

// WriteYAML writes the full report to path.
func WriteYAML(path string, r *models.Report) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing report %s: %w", path, err)
	}
	return nil
}

// SlackMessage builds the webhook message for a report.
func SlackMessage(r *models.Report) *slack.WebhookMessage {
	color := "good"
	if len(Failures(r)) > 0 {
		color = "danger"
	}
	var fields []slack.AttachmentField
	for _, stage := range r.Stages() {
		fields = append(fields, slack.AttachmentField{
			Title: stage,
			Value: r.Summary(stage),
		})
	}

	text := fmt.Sprintf("Cloud Monitoring %s finished", r.Command)
	if r.DryRun {
		text += " (dry run)"
	}
	var failures []string
	for i, it := range Failures(r) {
		if i == 10 {
			failures = append(failures, fmt.Sprintf("... and %d more", len(Failures(r))-10))
			break
		}
		failures = append(failures, fmt.Sprintf("• %s: %s", it.Label, it.Detail))
	}

	return &slack.WebhookMessage{
		Text: text,
		Attachments: []slack.Attachment{{
			Color:  color,
			Title:  "Run " + r.RunID,
			Fields: fields,
			Text:   strings.Join(failures, "\n"),
		}},
	}
}

// PostSlack sends the report summary to a Slack incoming webhook.
func PostSlack(ctx context.Context, webhookURL string, r *models.Report) error {
	if err := slack.PostWebhookContext(ctx, webhookURL, SlackMessage(r)); err != nil {
		return fmt.Errorf("posting report to Slack: %w", err)
	}
	return nil
}

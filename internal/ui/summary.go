package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/temirov/cascade/internal/cascade"
)

const (
	summaryHeaderTemplateConstant      = "Cascade merge of %s in %s"
	summaryDryRunSuffixConstant        = " (dry run)"
	summarySkippedTemplateConstant     = "%s is not a release branch; nothing to merge"
	summaryEmptyChainConstant          = "No merges attempted"
	summaryStepTemplateConstant        = "%s -> %s"
	summaryPullRequestTemplateConstant = "Pull request #%d %s"
	summaryReusedSuffixConstant        = " (already open)"
	summaryOutcomeWidthConstant        = 12
	summaryIndentConstant              = 2
	summaryShortSHALengthConstant      = 7
	summaryNewlineConstant             = "\n"
	summaryColorSuccessConstant        = "#4CAF50"
	summaryColorNeutralConstant        = "#A0AEC0"
	summaryColorWarningConstant        = "#F7B801"
	summaryColorFailureConstant        = "#FF6B6B"
	summaryColorPlannedConstant        = "#5B8DEF"
)

var outcomeLabels = map[cascade.StepOutcome]string{
	cascade.StepOutcomePlanned:  "planned",
	cascade.StepOutcomeMerged:   "merged",
	cascade.StepOutcomeUpToDate: "up to date",
	cascade.StepOutcomeConflict: "conflict",
	cascade.StepOutcomeFailed:   "failed",
}

// SummaryRenderer prints a styled overview of a cascade result. Colors follow the capabilities of the writer.
type SummaryRenderer struct {
	writer       io.Writer
	headerStyle  lipgloss.Style
	stepStyle    lipgloss.Style
	detailStyle  lipgloss.Style
	outcomeStyle map[cascade.StepOutcome]lipgloss.Style
}

// NewSummaryRenderer constructs a renderer writing to writer.
func NewSummaryRenderer(writer io.Writer) *SummaryRenderer {
	if writer == nil {
		writer = io.Discard
	}
	renderer := lipgloss.NewRenderer(writer)
	outcomeBase := renderer.NewStyle().Width(summaryOutcomeWidthConstant).Bold(true)

	return &SummaryRenderer{
		writer:      writer,
		headerStyle: renderer.NewStyle().Bold(true),
		stepStyle:   renderer.NewStyle().PaddingLeft(summaryIndentConstant),
		detailStyle: renderer.NewStyle().Foreground(lipgloss.Color(summaryColorNeutralConstant)),
		outcomeStyle: map[cascade.StepOutcome]lipgloss.Style{
			cascade.StepOutcomePlanned:  outcomeBase.Foreground(lipgloss.Color(summaryColorPlannedConstant)),
			cascade.StepOutcomeMerged:   outcomeBase.Foreground(lipgloss.Color(summaryColorSuccessConstant)),
			cascade.StepOutcomeUpToDate: outcomeBase.Foreground(lipgloss.Color(summaryColorNeutralConstant)),
			cascade.StepOutcomeConflict: outcomeBase.Foreground(lipgloss.Color(summaryColorWarningConstant)),
			cascade.StepOutcomeFailed:   outcomeBase.Foreground(lipgloss.Color(summaryColorFailureConstant)),
		},
	}
}

// Render writes the formatted summary followed by a newline.
func (summaryRenderer *SummaryRenderer) Render(result cascade.Result) error {
	_, writeError := io.WriteString(summaryRenderer.writer, summaryRenderer.Format(result)+summaryNewlineConstant)
	return writeError
}

// Format returns the summary without writing it.
func (summaryRenderer *SummaryRenderer) Format(result cascade.Result) string {
	if result.Skipped {
		return summaryRenderer.detailStyle.Render(fmt.Sprintf(summarySkippedTemplateConstant, result.TriggerBranch))
	}

	header := fmt.Sprintf(summaryHeaderTemplateConstant, result.TriggerBranch, result.Repository.FullName())
	if result.DryRun {
		header += summaryDryRunSuffixConstant
	}

	lines := []string{summaryRenderer.headerStyle.Render(header)}
	if len(result.Steps) == 0 {
		lines = append(lines, summaryRenderer.stepStyle.Render(summaryRenderer.detailStyle.Render(summaryEmptyChainConstant)))
	}
	for _, step := range result.Steps {
		lines = append(lines, summaryRenderer.formatStep(step))
	}

	if result.PullRequest != nil {
		pullRequestLine := fmt.Sprintf(summaryPullRequestTemplateConstant, result.PullRequest.Number, result.PullRequest.URL)
		if result.PullRequestReused {
			pullRequestLine += summaryReusedSuffixConstant
		}
		lines = append(lines, summaryRenderer.headerStyle.Render(strings.TrimSpace(pullRequestLine)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (summaryRenderer *SummaryRenderer) formatStep(step cascade.MergeStep) string {
	label, known := outcomeLabels[step.Outcome]
	if !known {
		label = string(step.Outcome)
	}
	style, styled := summaryRenderer.outcomeStyle[step.Outcome]
	if !styled {
		style = summaryRenderer.outcomeStyle[cascade.StepOutcomeFailed]
	}

	segments := []string{style.Render(label), fmt.Sprintf(summaryStepTemplateConstant, step.Source, step.Target)}
	if len(step.CommitSHA) > 0 {
		segments = append(segments, summaryRenderer.detailStyle.Render(shortSHA(step.CommitSHA)))
	}
	if step.Cause != nil && step.Outcome == cascade.StepOutcomeFailed {
		segments = append(segments, summaryRenderer.detailStyle.Render(step.Cause.Error()))
	}
	return summaryRenderer.stepStyle.Render(strings.Join(segments, " "))
}

func shortSHA(commitSHA string) string {
	if len(commitSHA) <= summaryShortSHALengthConstant {
		return commitSHA
	}
	return commitSHA[:summaryShortSHALengthConstant]
}

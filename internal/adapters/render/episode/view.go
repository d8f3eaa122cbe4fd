package episode

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/bnema/studentgym/internal/application"
	"github.com/bnema/studentgym/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

const (
	progressWidth  = 24
	sparklineWidth = 48
)

var sparkLevels = []rune("▁▂▃▄▅▆▇█")

type RenderOptions struct {
	Now     time.Time
	EnvType string
}

func renderView(status application.EpisodeStatus, opts RenderOptions, s styles) string {
	title := "Student Gym"
	if opts.EnvType != "" {
		title += " · " + opts.EnvType
	}

	lines := []string{
		s.title.Render(title),
		lipgloss.JoinHorizontal(lipgloss.Top, stateBadge(status, s), " ", s.header.Render(sessionLabel(status.Session))),
	}

	if status.Episode.ID == "" {
		lines = append(lines, s.empty.Render("No episode yet. Run reset to start one."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	lines = append(lines,
		s.section.Render(renderEpisode(status, opts, s)),
		s.section.Render(renderObservation(status.Observation, s)),
		s.section.Render(renderRewards(status, s)),
	)

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderEpisode(status application.EpisodeStatus, opts RenderOptions, s styles) string {
	parts := []string{
		s.episode.Render(fmt.Sprintf("episode %s", status.Episode.ID)),
		lipgloss.JoinHorizontal(lipgloss.Top,
			s.fieldKey.Render("steps:"),
			" ",
			renderProgressBar(status.Episode.Step, status.MaxSteps, progressWidth, s),
			" ",
			s.detail.Render(stepLabel(status.Episode.Step, status.MaxSteps)),
		),
		lipgloss.JoinHorizontal(lipgloss.Top, s.fieldKey.Render("total:"), " ", rewardStyle(status.Episode.TotalReward, s).Render(fmt.Sprintf("%.2f", status.Episode.TotalReward))),
	}

	if started := formatStarted(status.Episode.StartedAt, opts.Now); started != "" {
		parts = append(parts, s.detail.Render(started))
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func renderObservation(obs *domain.Observation, s styles) string {
	if obs == nil {
		return s.empty.Render("observation: n/a (not seen by this process)")
	}

	rows := []string{s.header.Render("last observation")}
	for i, name := range domain.ObservationFieldNames {
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top,
			s.fieldKey.Render(name),
			s.fieldValue.Render(formatValue(obs[i])),
		))
	}

	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func renderRewards(status application.EpisodeStatus, s styles) string {
	if len(status.Rewards) == 0 {
		return s.empty.Render("rewards: none recorded yet")
	}

	stats := status.Stats
	repairs, sells := countActions(status.Actions)

	return lipgloss.JoinVertical(lipgloss.Left,
		s.header.Render("step rewards"),
		s.detail.Render(Sparkline(status.Rewards, sparklineWidth)),
		s.detail.Render(fmt.Sprintf("count %d  total %.2f  mean %.2f  min %.2f  max %.2f", stats.Count, stats.Total, stats.Mean, stats.Min, stats.Max)),
		s.detail.Render(fmt.Sprintf("actions: %d repairs, %d sells", repairs, sells)),
	)
}

func stateBadge(status application.EpisodeStatus, s styles) string {
	label := strings.ToUpper(string(status.State))
	if label == "" {
		label = strings.ToUpper(string(domain.EpisodeStateUninitialized))
	}

	switch status.State {
	case domain.EpisodeStateActive:
		return s.active.Render("[" + label + "]")
	case domain.EpisodeStateTerminated:
		if status.Episode.Truncated && !status.Episode.Terminated {
			label = "TRUNCATED"
		}
		return s.ended.Render("[" + label + "]")
	default:
		return s.idle.Render("[" + label + "]")
	}
}

func sessionLabel(session string) string {
	if session == "" {
		return "in-process session"
	}
	return "session: " + session
}

func stepLabel(step, maxSteps int) string {
	if maxSteps <= 0 {
		return fmt.Sprintf("%d", step)
	}
	return fmt.Sprintf("%d/%d", step, maxSteps)
}

func renderProgressBar(step, maxSteps, width int, s styles) string {
	if width <= 0 || maxSteps <= 0 {
		return ""
	}

	filled := int(math.Round(float64(width) * float64(step) / float64(maxSteps)))
	if filled < 0 {
		filled = 0
	}
	if filled > width {
		filled = width
	}

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.barBracket.Render("["),
		s.barFill.Render(strings.Repeat("=", filled)),
		s.barEmpty.Render(strings.Repeat("-", width-filled)),
		s.barBracket.Render("]"),
	)
}

// Sparkline draws the most recent width values scaled between their min and max.
func Sparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return ""
	}
	if len(values) > width {
		values = values[len(values)-width:]
	}

	low, high := values[0], values[0]
	for _, v := range values {
		low = math.Min(low, v)
		high = math.Max(high, v)
	}

	var b strings.Builder
	for _, v := range values {
		level := len(sparkLevels) / 2
		if high > low {
			level = int(math.Round((v - low) / (high - low) * float64(len(sparkLevels)-1)))
		}
		b.WriteRune(sparkLevels[level])
	}
	return b.String()
}

func rewardStyle(v float64, s styles) lipgloss.Style {
	if v < 0 {
		return s.negative
	}
	return s.positive
}

func countActions(actions []domain.Action) (repairs, sells int) {
	for _, action := range actions {
		switch action {
		case domain.ActionRepair:
			repairs++
		case domain.ActionSell:
			sells++
		}
	}
	return repairs, sells
}

func formatValue(v float64) string {
	if math.Abs(v) >= 1e5 || (v != 0 && math.Abs(v) < 1e-3) {
		return fmt.Sprintf("%.4g", v)
	}
	return fmt.Sprintf("%.3f", v)
}

func formatStarted(startedAt, now time.Time) string {
	if startedAt.IsZero() {
		return ""
	}
	if now.IsZero() || now.Before(startedAt) {
		return "started " + startedAt.Format(time.RFC3339)
	}
	return fmt.Sprintf("started %s ago", now.Sub(startedAt).Round(time.Second))
}

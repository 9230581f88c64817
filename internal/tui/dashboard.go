package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bluerate/internal/domain"
	"bluerate/internal/sentiment"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	defaultRefresh = 30 * time.Second
	fetchTimeout   = 10 * time.Second
	headlineCount  = 5
)

type RateReader interface {
	Latest(ctx context.Context) (*domain.RateSample, error)
}

type NewsReader interface {
	List(ctx context.Context, f domain.NewsFilter) ([]domain.NewsItem, error)
	SentimentScore(ctx context.Context) (sentiment.Aggregate, error)
}

type Services struct {
	Rates    RateReader
	News     NewsReader
	Username string
	Refresh  time.Duration
}

type snapshotMsg struct {
	sample    *domain.RateSample
	aggregate *sentiment.Aggregate
	headlines []domain.NewsItem
	err       error
	at        time.Time
}

type tickMsg time.Time

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	upStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	downStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// DashboardModel is a read-only view of the latest rate, sentiment and headlines.
type DashboardModel struct {
	svc       Services
	spinner   spinner.Model
	loading   bool
	sample    *domain.RateSample
	aggregate *sentiment.Aggregate
	headlines []domain.NewsItem
	err       error
	updated   time.Time
	width     int
	height    int
}

func NewDashboardModel(svc Services) DashboardModel {
	if svc.Refresh <= 0 {
		svc.Refresh = defaultRefresh
	}
	s := spinner.New()
	s.Spinner = spinner.Dot
	return DashboardModel{svc: svc, spinner: s, loading: true}
}

func (m *DashboardModel) SetSize(width, height int) {
	m.width, m.height = width, height
}

func (m DashboardModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetch())
}

func (m DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "r":
			if !m.loading {
				m.loading = true
				return m, tea.Batch(m.spinner.Tick, m.fetch())
			}
		}
		return m, nil
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil
	case snapshotMsg:
		m.loading = false
		m.err = msg.err
		if msg.sample != nil {
			m.sample = msg.sample
		}
		if msg.aggregate != nil {
			m.aggregate = msg.aggregate
		}
		if msg.headlines != nil {
			m.headlines = msg.headlines
		}
		m.updated = msg.at
		return m, tea.Tick(m.svc.Refresh, func(t time.Time) tea.Msg { return tickMsg(t) })
	case tickMsg:
		if m.loading {
			return m, nil
		}
		m.loading = true
		return m, tea.Batch(m.spinner.Tick, m.fetch())
	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// fetch keeps the first error and still returns whatever else loaded.
func (m DashboardModel) fetch() tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()

		out := snapshotMsg{at: time.Now().UTC()}
		keep := func(err error) {
			if err != nil && out.err == nil {
				out.err = err
			}
		}
		if svc.Rates != nil {
			sample, err := svc.Rates.Latest(ctx)
			keep(err)
			out.sample = sample
		}
		if svc.News != nil {
			agg, err := svc.News.SentimentScore(ctx)
			keep(err)
			if err == nil {
				out.aggregate = &agg
			}
			items, err := svc.News.List(ctx, domain.NewsFilter{Limit: headlineCount})
			keep(err)
			if err == nil {
				out.headlines = items
			}
		}
		return out
	}
}

func (m DashboardModel) View() string {
	var sections []string

	header := titleStyle.Render("bluerate")
	if m.svc.Username != "" {
		header += labelStyle.Render("  " + m.svc.Username)
	}
	if m.loading {
		header += "  " + m.spinner.View()
	}
	sections = append(sections, header)

	sections = append(sections, boxStyle.Render(m.rateView()))
	sections = append(sections, boxStyle.Render(m.sentimentView()))
	if len(m.headlines) > 0 {
		sections = append(sections, boxStyle.Render(m.headlinesView()))
	}
	if m.err != nil {
		sections = append(sections, errStyle.Render("error: "+m.err.Error()))
	}

	footer := "r refresh • q quit"
	if !m.updated.IsZero() {
		footer = "updated " + m.updated.Format("15:04:05 MST") + " • " + footer
	}
	sections = append(sections, helpStyle.Render(footer))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m DashboardModel) rateView() string {
	if m.sample == nil {
		return labelStyle.Render("USD/" + domain.LocalCurrency + "  waiting for first sample")
	}
	s := m.sample
	lines := []string{
		fmt.Sprintf("%s  buy %.4f  sell %.4f  mid %.4f", labelStyle.Render("USD/"+domain.LocalCurrency), s.Buy, s.Sell, s.Mid),
	}
	if s.OfficialMid != nil {
		lines = append(lines, fmt.Sprintf("%s  %.4f (%s)", labelStyle.Render("official"), *s.OfficialMid, s.OfficialSource))
	}
	if s.MidBRL != nil {
		lines = append(lines, fmt.Sprintf("%s  %.4f", labelStyle.Render("BRL mid"), *s.MidBRL))
	}
	if s.MidEUR != nil {
		lines = append(lines, fmt.Sprintf("%s  %.4f", labelStyle.Render("EUR mid"), *s.MidEUR))
	}
	return strings.Join(lines, "\n")
}

func (m DashboardModel) sentimentView() string {
	if m.aggregate == nil {
		return labelStyle.Render("sentiment  n/a")
	}
	a := m.aggregate
	return fmt.Sprintf("%s  %s  (%d articles, confidence %.0f%%)",
		labelStyle.Render("sentiment"), scoreText(a.Score), a.ArticleCount, a.Confidence*100)
}

func (m DashboardModel) headlinesView() string {
	lines := make([]string, 0, len(m.headlines))
	for _, item := range m.headlines {
		lines = append(lines, directionMark(item.Sentiment)+" "+truncate(item.Title, m.titleWidth()))
	}
	return strings.Join(lines, "\n")
}

func (m DashboardModel) titleWidth() int {
	if m.width > 12 {
		return m.width - 8
	}
	return 72
}

func scoreText(score float64) string {
	text := fmt.Sprintf("%+.2f", score)
	switch {
	case score > 0:
		return upStyle.Render(text)
	case score < 0:
		return downStyle.Render(text)
	}
	return text
}

func directionMark(s domain.Sentiment) string {
	switch s {
	case domain.SentimentUp:
		return upStyle.Render("▲")
	case domain.SentimentDown:
		return downStyle.Render("▼")
	}
	return labelStyle.Render("•")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

package tui

import (
	"context"
	"io"
	"runtime"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/agbru/heatsolve/internal/config"
	apperrors "github.com/agbru/heatsolve/internal/errors"
	"github.com/agbru/heatsolve/internal/heat"
	"github.com/agbru/heatsolve/internal/orchestration"
	"github.com/agbru/heatsolve/internal/sysmon"
)

// Layout constants for the dashboard.
const (
	headerHeight          = 1
	footerHeight          = 1
	minBodyHeight         = 8
	LeftPanelWidthPercent = 60
	MetricsPanelHeight    = 7
	tickInterval          = 500 * time.Millisecond
)

// ExecutionState holds the execution-related fields of a dashboard session.
type ExecutionState struct {
	ctx        context.Context
	cancel     context.CancelFunc
	generation uint64
	done       bool
	exitCode   int
}

// LayoutManager holds terminal dimensions and provides layout calculations.
type LayoutManager struct {
	width       int
	height      int
	simulations int
}

func (l LayoutManager) bodyHeight() int {
	return max(l.height-headerHeight-footerHeight, minBodyHeight)
}

func (l LayoutManager) leftWidth() int {
	return l.width * LeftPanelWidthPercent / 100
}

func (l LayoutManager) rightWidth() int {
	return l.width - l.leftWidth()
}

// simulationsHeight fits one row per simulation plus title and borders, up
// to half of the body.
func (l LayoutManager) simulationsHeight() int {
	return min(l.simulations+3, l.bodyHeight()/2)
}

func (l LayoutManager) logsHeight() int {
	return l.bodyHeight() - l.simulationsHeight()
}

func (l LayoutManager) metricsHeight() int {
	return min(MetricsPanelHeight, l.bodyHeight()/2)
}

func (l LayoutManager) chartHeight() int {
	return l.bodyHeight() - l.metricsHeight()
}

// Model is the root bubbletea model for the dashboard.
type Model struct {
	header      HeaderModel
	simulations SimulationsModel
	logs        LogsModel
	chart       ChartModel
	metrics     MetricsModel
	footer      FooterModel

	keymap KeyMap

	ExecutionState
	LayoutManager

	parentCtx context.Context
	orch      *orchestration.Orchestrator
	configs   []heat.SimulationConfig
	config    config.AppConfig
	ref       *programRef
	paused    bool
}

// NewModel creates a dashboard for one batch.
func NewModel(parentCtx context.Context, orch *orchestration.Orchestrator, configs []heat.SimulationConfig, cfg config.AppConfig, version string) Model {
	ctx, cancel := context.WithCancel(parentCtx)

	logs := NewLogsModel()
	logs.AddExecutionConfig(cfg, configs)
	keys := DefaultKeyMap()

	return Model{
		header:      NewHeaderModel(version, len(configs)),
		simulations: NewSimulationsModel(configs),
		logs:        logs,
		chart:       NewChartModel(),
		metrics:     NewMetricsModel(configs),
		footer:      NewFooterModel(keys),
		keymap:      keys,
		ExecutionState: ExecutionState{
			ctx:      ctx,
			cancel:   cancel,
			exitCode: apperrors.ExitSuccess,
		},
		LayoutManager: LayoutManager{simulations: len(configs)},
		parentCtx:     parentCtx,
		orch:          orch,
		configs:       configs,
		config:        cfg,
		ref:           &programRef{},
	}
}

// Init returns the initial commands.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		startRunCmd(m.ref, m.ctx, m.orch, m.configs, m.config.Verbose, m.generation),
		watchContextCmd(m.parentCtx),
	)
}

// Update handles all incoming messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layoutPanels()
		return m, nil

	case RunStartedMsg, ProgressMsg, SimulationDoneMsg, SimulationFailedMsg,
		StreamEndedMsg, ResultsMsg, SummaryMsg, ErrorMsg:
		if generationOf(msg) != m.generation {
			return m, nil
		}
		m.applyRunMsg(msg)
		return m, nil

	case TickMsg:
		if m.done {
			return m, nil
		}
		if !m.paused {
			return m, tea.Batch(sampleMemStatsCmd(), sampleSysStatsCmd(m.parentCtx), tickCmd())
		}
		return m, tickCmd()

	case MemStatsMsg:
		m.metrics.UpdateMemStats(msg)
		return m, nil

	case SysStatsMsg:
		m.chart.UpdateSysStats(msg.CPUPercent, msg.MemPercent)
		return m, nil

	case RunCompleteMsg:
		if msg.Generation != m.generation {
			return m, nil
		}
		m.done = true
		m.exitCode = msg.ExitCode
		m.header.SetDone()
		m.chart.SetDone()
		m.footer.SetDone(true)
		return m, nil

	case ContextCancelledMsg:
		m.cancel()
		m.done = true
		m.exitCode = apperrors.HandleRunError(msg.Err, 0, io.Discard, nil)
		return m, tea.Quit
	}

	return m, nil
}

// applyRunMsg folds a message of the current run into the panels. Progress
// is dropped while the display is paused; terminal messages never are.
func (m *Model) applyRunMsg(msg tea.Msg) {
	switch msg := msg.(type) {
	case ProgressMsg:
		if m.paused {
			return
		}
		m.simulations.UpdateProgress(msg.Percent)
		m.chart.AddProgress(msg.Average)
	case SimulationDoneMsg:
		m.simulations.SetResult(msg.Index, msg.Result)
		m.logs.AddResult(msg.Index, msg.Result)
		m.chart.ShowResidual(msg.Index, msg.Result)
		m.metrics.AddResult(msg.Result)
	case SimulationFailedMsg:
		m.simulations.SetFailed(msg.Index, msg.Reason)
		m.logs.AddFailure(msg.Index, msg.Reason)
	case StreamEndedMsg:
		if msg.Cancelled {
			m.simulations.MarkCancelled()
			m.footer.SetCancelled(true)
		}
		m.logs.AddStreamEnd(msg.Cancelled)
	case ResultsMsg:
		m.logs.AddOutcomes(msg.Outcomes)
	case SummaryMsg:
		m.logs.AddSummary(msg.Summary)
		m.metrics.SetSummary(msg.Summary)
	case ErrorMsg:
		m.logs.AddError(msg)
		m.footer.SetError(true)
	}
}

func generationOf(msg tea.Msg) uint64 {
	switch msg := msg.(type) {
	case RunStartedMsg:
		return msg.Generation
	case ProgressMsg:
		return msg.Generation
	case SimulationDoneMsg:
		return msg.Generation
	case SimulationFailedMsg:
		return msg.Generation
	case StreamEndedMsg:
		return msg.Generation
	case ResultsMsg:
		return msg.Generation
	case SummaryMsg:
		return msg.Generation
	case ErrorMsg:
		return msg.Generation
	}
	return 0
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.Quit):
		m.cancel()
		return m, tea.Quit

	case key.Matches(msg, m.keymap.Cancel):
		m.cancel()
		return m, nil

	case key.Matches(msg, m.keymap.Pause):
		m.paused = !m.paused
		m.footer.SetPaused(m.paused)
		return m, nil

	case key.Matches(msg, m.keymap.Reset):
		m.cancel()

		m.generation++
		m.ctx, m.cancel = context.WithCancel(m.parentCtx)

		m.header.Reset()
		m.simulations.Reset()
		m.logs.Reset()
		m.logs.AddExecutionConfig(m.config, m.configs)
		m.chart.Reset()
		m.metrics = NewMetricsModel(m.configs)
		m.layoutPanels()
		m.footer.SetDone(false)
		m.footer.SetError(false)
		m.footer.SetCancelled(false)
		m.footer.SetPaused(false)
		m.done = false
		m.paused = false
		m.exitCode = apperrors.ExitSuccess

		return m, tea.Batch(
			tickCmd(),
			startRunCmd(m.ref, m.ctx, m.orch, m.configs, m.config.Verbose, m.generation),
		)

	case key.Matches(msg, m.keymap.Up), key.Matches(msg, m.keymap.Down),
		key.Matches(msg, m.keymap.PageUp), key.Matches(msg, m.keymap.PageDown):
		m.logs.Update(msg)
		return m, nil
	}

	return m, nil
}

// View renders the entire dashboard.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}
	left := lipgloss.JoinVertical(lipgloss.Left, m.simulations.View(), m.logs.View())
	right := lipgloss.JoinVertical(lipgloss.Left, m.metrics.View(), m.chart.View())
	body := lipgloss.JoinHorizontal(lipgloss.Top, left, right)
	return lipgloss.JoinVertical(lipgloss.Left, m.header.View(), body, m.footer.View())
}

func (m *Model) layoutPanels() {
	m.header.SetWidth(m.width)
	m.footer.SetWidth(m.width)
	m.simulations.SetSize(m.leftWidth(), m.simulationsHeight())
	m.logs.SetSize(m.leftWidth(), m.logsHeight())
	m.metrics.SetSize(m.rightWidth(), m.metricsHeight())
	m.chart.SetSize(m.rightWidth(), m.chartHeight())
}

// ExitCode returns the exit code of the last run.
func (m Model) ExitCode() int { return m.exitCode }

// Run is the public entry point for the dashboard mode. It runs configs on
// orch, shows the dashboard until the user quits, and returns the exit code.
func Run(ctx context.Context, orch *orchestration.Orchestrator, configs []heat.SimulationConfig, cfg config.AppConfig, version string) int {
	initTUIStyles()

	model := NewModel(ctx, orch, configs, cfg, version)
	defer model.cancel()

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	model.ref.SetProgram(p)

	finalModel, err := p.Run()
	if m, ok := finalModel.(Model); ok {
		m.cancel()
		if err == nil || m.done {
			return m.exitCode
		}
	}
	if err != nil {
		return apperrors.HandleRunError(ctx.Err(), 0, io.Discard, nil)
	}
	return apperrors.ExitSuccess
}

// startRunCmd executes the batch and reports its outcome through the bridge.
func startRunCmd(ref *programRef, ctx context.Context, orch *orchestration.Orchestrator, configs []heat.SimulationConfig, verbose bool, gen uint64) tea.Cmd {
	return func() tea.Msg {
		reporter := &TUIEventReporter{ref: ref, gen: gen}
		presenter := &TUIResultPresenter{ref: ref, gen: gen}

		outcomes, err := orchestration.ExecuteSimulations(ctx, orch, configs, reporter, io.Discard)
		if err != nil {
			return RunCompleteMsg{ExitCode: presenter.HandleError(err, 0, io.Discard), Generation: gen}
		}
		exitCode := orchestration.AnalyzeResults(outcomes, verbose, presenter, io.Discard)
		return RunCompleteMsg{ExitCode: exitCode, Generation: gen}
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func sampleMemStatsCmd() tea.Cmd {
	return func() tea.Msg {
		var ms runtime.MemStats
		runtime.ReadMemStats(&ms)
		return MemStatsMsg{
			HeapAlloc:    ms.HeapAlloc,
			Sys:          ms.Sys,
			NumGC:        ms.NumGC,
			NumGoroutine: runtime.NumGoroutine(),
		}
	}
}

func sampleSysStatsCmd(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		s := sysmon.SampleContext(ctx)
		return SysStatsMsg{CPUPercent: s.CPUPercent, MemPercent: s.MemPercent}
	}
}

// watchContextCmd waits for the parent context (signal or timeout) to end.
func watchContextCmd(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		<-ctx.Done()
		return ContextCancelledMsg{Err: ctx.Err()}
	}
}

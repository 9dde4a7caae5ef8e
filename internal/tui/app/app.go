// Package app provides the main TUI application that wires all views together.
package app

import (
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pvlab-dev/pvlab/internal/api"
	"github.com/pvlab-dev/pvlab/internal/cache"
	"github.com/pvlab-dev/pvlab/internal/config"
	"github.com/pvlab-dev/pvlab/internal/importer"
	"github.com/pvlab-dev/pvlab/internal/log"
	"github.com/pvlab-dev/pvlab/internal/session"
	"github.com/pvlab-dev/pvlab/internal/stats"
	"github.com/pvlab-dev/pvlab/internal/tui"
	"github.com/pvlab-dev/pvlab/internal/tui/commands"
	"github.com/pvlab-dev/pvlab/internal/tui/views"
)

// recordsLimit caps the rows the records tab loads at once.
const recordsLimit = 200

// Deps carries the wired application services into the TUI.
type Deps struct {
	Config   *config.Config
	Client   *api.Client
	Sessions *session.Manager
	Cache    *cache.Cache
	Imports  *importer.Service
	Stats    *stats.Service
	Logger   *log.Logger
}

// App is the main TUI application that wires all views together.
type App struct {
	model *tui.Model
	deps  Deps

	// resets delivers forced-navigation signals from the session
	// manager's 401 hook, which fires on request goroutines.
	resets chan struct{}

	// Active polling subscriptions, one per tab that polls.
	realtimeSub *cache.Subscription
	summarySub  *cache.Subscription
	importsSub  *cache.Subscription

	// View models
	loginView      views.LoginModel
	dashboardView  views.DashboardModel
	recordsView    views.RecordsModel
	devicesView    views.DevicesModel
	importsView    views.ImportsModel
	statisticsView views.StatisticsModel
}

// New creates a new App with the given dependencies.
func New(deps Deps) *App {
	model := tui.NewModel(deps.Config)

	a := &App{
		model:     model,
		deps:      deps,
		resets:    make(chan struct{}, 1),
		loginView: views.NewLoginModel(model.Width, model.Height),
	}

	// The hook runs on whatever goroutine saw the 401; hand the signal
	// to the Bubble Tea loop through the channel. A pending signal is
	// enough, duplicates are dropped.
	deps.Sessions.OnReset(func() {
		select {
		case a.resets <- struct{}{}:
		default:
		}
	})

	return a
}

// Init revalidates any persisted session and arms the reset listener.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		commands.CheckAuthCmd(a.deps.Sessions),
		commands.WaitForResetCmd(a.resets),
	)
}

// Update handles messages and updates the application state.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.model.Width = msg.Width
		a.model.Height = msg.Height
		return a, a.propagate(msg)

	case tea.KeyMsg:
		switch msg.String() {
		case tui.KeyCtrlC:
			if a.model.CtrlCPending {
				a.stopPolling()
				return a, tea.Quit
			}
			a.model.CtrlCPending = true
			return a, tea.Tick(time.Second, func(time.Time) tea.Msg {
				return tui.CtrlCResetMsg{}
			})

		case tui.KeyTab:
			if a.model.State != tui.StateLogin && !a.typing() {
				return a, a.cycleTab()
			}

		case "ctrl+l":
			if a.model.State != tui.StateLogin {
				return a.handleLogout()
			}
		}

	case tui.CtrlCResetMsg:
		a.model.CtrlCPending = false
		return a, nil

	case tui.SessionCheckedMsg:
		if !msg.Valid {
			a.model.State = tui.StateLogin
			a.loginView = views.NewLoginModel(a.model.Width, a.model.Height)
			return a, a.loginView.Init()
		}
		a.model.Session = msg.Session
		return a, a.enterTab(tui.TabDashboard)

	case tui.LoginResultMsg:
		if msg.Err != nil {
			a.loginView.SetBusy(false)
			a.loginView.Err = msg.Err
			_ = a.deps.Logger.Append(log.LogEvent{
				Event: log.EventLoginFailed,
				Error: msg.Err.Error(),
			})
			return a, nil
		}
		a.model.Session = msg.Session
		_ = a.deps.Logger.Append(log.LogEvent{
			Event: log.EventLoginSucceeded,
			User:  msg.Session.User.Email,
		})
		return a, a.enterTab(tui.TabDashboard)

	case tui.SessionResetMsg:
		// A request came back 401: the manager already cleared the
		// session, the UI follows.
		a.stopPolling()
		_ = a.deps.Logger.Append(log.LogEvent{Event: log.EventSessionExpired})
		a.model.Session = session.Session{}
		a.model.State = tui.StateLogin
		a.loginView = views.NewLoginModel(a.model.Width, a.model.Height)
		a.loginView.Err = errors.New("session expired, sign in again")
		return a, tea.Batch(
			a.loginView.Init(),
			commands.WaitForResetCmd(a.resets),
		)

	case tui.LoggedOutMsg:
		a.model.Session = session.Session{}
		a.model.State = tui.StateLogin
		a.loginView = views.NewLoginModel(a.model.Width, a.model.Height)
		return a, a.loginView.Init()

	case views.SubmitLoginMsg:
		return a, commands.LoginCmd(a.deps.Sessions, msg.Email, msg.Password)

	case tui.PollStoppedMsg:
		// Subscription torn down on tab switch; nothing to re-arm.
		return a, nil
	}

	return a.routeToView(msg)
}

// routeToView dispatches a message to the active view and handles the
// intents the view emits.
func (a *App) routeToView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch a.model.State {
	case tui.StateLogin:
		a.loginView, cmd = a.loginView.Update(msg)
		return a, cmd

	case tui.StateDashboard:
		a.dashboardView, cmd = a.dashboardView.Update(msg)
		if key, ok := msg.(tea.KeyMsg); ok && key.String() == "r" {
			a.deps.Cache.InvalidatePrefix("stats/")
			return a, tea.Batch(
				commands.LoadSummaryCmd(a.deps.Stats),
				commands.LoadRealtimeCmd(a.deps.Stats),
			)
		}
		if _, ok := msg.(tui.RealtimePollMsg); ok && a.realtimeSub != nil {
			return a, commands.ListenRealtimeCmd(a.realtimeSub)
		}
		if _, ok := msg.(tui.SummaryPollMsg); ok && a.summarySub != nil {
			return a, commands.ListenSummaryCmd(a.summarySub)
		}
		return a, cmd

	case tui.StateRecords:
		a.recordsView, cmd = a.recordsView.Update(msg)
		switch msg := msg.(type) {
		case views.RefreshRecordsMsg:
			a.deps.Cache.InvalidatePrefix("records")
			return a, commands.LoadRecordsCmd(a.deps.Client, a.deps.Cache, a.recordsFilter())
		case views.DeleteRecordRequestMsg:
			return a, commands.DeleteRecordCmd(a.deps.Client, a.deps.Cache, msg.ID)
		case tui.RecordDeletedMsg:
			if msg.Err == nil {
				_ = a.deps.Logger.Append(log.LogEvent{
					Event: log.EventRecordDeleted,
					Data:  map[string]any{"record_id": msg.ID},
				})
			}
			return a, cmd
		}
		return a, cmd

	case tui.StateDevices:
		a.devicesView, cmd = a.devicesView.Update(msg)
		switch msg := msg.(type) {
		case views.RefreshDevicesMsg:
			a.deps.Cache.Invalidate("devices")
			return a, commands.LoadDevicesCmd(a.deps.Client, a.deps.Cache)
		case views.DeleteDeviceRequestMsg:
			return a, commands.DeleteDeviceCmd(a.deps.Client, a.deps.Cache, msg.ID)
		case tui.DeviceDeletedMsg:
			if msg.Err == nil {
				_ = a.deps.Logger.Append(log.LogEvent{
					Event: log.EventDeviceDeleted,
					Data:  map[string]any{"device_id": msg.ID},
				})
			}
			return a, cmd
		}
		return a, cmd

	case tui.StateImports:
		a.importsView, cmd = a.importsView.Update(msg)
		switch msg := msg.(type) {
		case views.RefreshImportsMsg:
			a.deps.Cache.Invalidate(importer.ListKey)
			return a, commands.LoadImportsCmd(a.deps.Imports)
		case views.UploadRequestMsg:
			return a, commands.UploadCmd(a.deps.Imports, msg.Path)
		case views.RetryRequestMsg:
			return a, commands.RetryCmd(a.deps.Imports, msg.ID)
		case tui.UploadResultMsg:
			if msg.Err == nil {
				_ = a.deps.Logger.Append(log.LogEvent{
					Event:    log.EventImportUploaded,
					JobID:    msg.Job.ID,
					FileName: msg.Job.FileName,
				})
			}
			return a, cmd
		case tui.RetryResultMsg:
			if msg.Err == nil {
				_ = a.deps.Logger.Append(log.LogEvent{
					Event: log.EventImportRetried,
					JobID: msg.ID,
				})
			}
			return a, cmd
		case tui.ImportPollMsg:
			if a.importsSub != nil {
				return a, tea.Batch(cmd, commands.ListenImportsCmd(a.importsSub))
			}
			return a, cmd
		}
		return a, cmd

	case tui.StateStatistics:
		a.statisticsView, cmd = a.statisticsView.Update(msg)
		if _, ok := msg.(views.RefreshStatisticsMsg); ok {
			a.deps.Cache.InvalidatePrefix("stats/")
			return a, tea.Batch(
				commands.LoadQualityCmd(a.deps.Stats),
				commands.LoadTrendsCmd(a.deps.Stats, 30),
			)
		}
		return a, cmd
	}

	return a, nil
}

// View renders the current application state.
func (a *App) View() string {
	var content string

	switch a.model.State {
	case tui.StateLogin:
		content = a.loginView.View()
	case tui.StateDashboard:
		content = a.dashboardView.View()
	case tui.StateRecords:
		content = a.recordsView.View()
	case tui.StateDevices:
		content = a.devicesView.View()
	case tui.StateImports:
		content = a.importsView.View()
	case tui.StateStatistics:
		content = a.statisticsView.View()
	default:
		content = "Unknown state"
	}

	if a.model.State != tui.StateLogin {
		tabBar := a.renderTabBar(a.model.ActiveTab)
		content = lipgloss.JoinVertical(lipgloss.Center, content, "", tabBar)
	}

	if a.model.CtrlCPending {
		hint := tui.WarningStyle.Render("Press Ctrl+C again to exit")
		content = lipgloss.JoinVertical(lipgloss.Center, content, hint)
	}

	return lipgloss.Place(
		a.model.Width,
		a.model.Height,
		lipgloss.Center,
		lipgloss.Center,
		content,
	)
}

// ============================================================================
// Tab Handling
// ============================================================================

// cycleTab advances to the next tab and loads its data.
func (a *App) cycleTab() tea.Cmd {
	next := tui.Tab((int(a.model.ActiveTab) + 1) % len(tui.TabNames))
	return a.enterTab(next)
}

// enterTab switches the active tab, rebuilding the view and starting the
// polling its screen needs. The previous tab's subscription is stopped
// first; an in-flight fetch still lands in the shared cache.
func (a *App) enterTab(tab tui.Tab) tea.Cmd {
	a.stopPolling()
	a.model.ActiveTab = tab
	a.model.State = tab.TabState()

	w, h := a.model.Width, a.model.Height
	interval := a.pollInterval

	switch tab {
	case tui.TabDashboard:
		a.dashboardView = views.NewDashboardModel(a.model.Session.DisplayIdentity(), w, h)
		a.realtimeSub = a.deps.Stats.WatchRealtime(interval(a.model.Cfg.Cache.RealtimePollSeconds))
		a.summarySub = a.deps.Stats.WatchSummary(api.StatsFilter{}, interval(a.model.Cfg.Cache.SummaryPollSeconds))
		return tea.Batch(
			a.dashboardView.Init(),
			commands.ListenRealtimeCmd(a.realtimeSub),
			commands.ListenSummaryCmd(a.summarySub),
		)

	case tui.TabRecords:
		a.recordsView = views.NewRecordsModel(w, h)
		return tea.Batch(
			a.recordsView.Init(),
			commands.LoadRecordsCmd(a.deps.Client, a.deps.Cache, a.recordsFilter()),
		)

	case tui.TabDevices:
		a.devicesView = views.NewDevicesModel(w, h)
		return tea.Batch(
			a.devicesView.Init(),
			commands.LoadDevicesCmd(a.deps.Client, a.deps.Cache),
		)

	case tui.TabImports:
		a.importsView = views.NewImportsModel(w, h)
		a.importsSub = a.deps.Imports.WatchList(interval(a.model.Cfg.Cache.ImportPollSeconds))
		return tea.Batch(
			a.importsView.Init(),
			commands.LoadImportsCmd(a.deps.Imports),
			commands.ListenImportsCmd(a.importsSub),
		)

	case tui.TabStatistics:
		a.statisticsView = views.NewStatisticsModel(w, h)
		return tea.Batch(
			a.statisticsView.Init(),
			commands.LoadQualityCmd(a.deps.Stats),
			commands.LoadTrendsCmd(a.deps.Stats, 30),
		)
	}

	return nil
}

// stopPolling halts whichever subscriptions are running. Stopping is
// idempotent and guarantees the ticker goroutine exits.
func (a *App) stopPolling() {
	if a.realtimeSub != nil {
		a.realtimeSub.Stop()
		a.realtimeSub = nil
	}
	if a.summarySub != nil {
		a.summarySub.Stop()
		a.summarySub = nil
	}
	if a.importsSub != nil {
		a.importsSub.Stop()
		a.importsSub = nil
	}
}

// handleLogout clears the session from the UI thread's perspective.
func (a *App) handleLogout() (tea.Model, tea.Cmd) {
	a.stopPolling()
	_ = a.deps.Logger.Append(log.LogEvent{
		Event: log.EventLogout,
		User:  a.model.Session.User.Email,
	})
	return a, commands.LogoutCmd(a.deps.Sessions)
}

// typing reports whether the active view is capturing free-form text,
// in which case Tab must reach the view instead of cycling tabs.
func (a *App) typing() bool {
	return a.model.State == tui.StateImports && a.importsView.Prompting()
}

// recordsFilter is the default filter for the records tab.
func (a *App) recordsFilter() api.RecordFilter {
	return api.RecordFilter{Limit: recordsLimit}
}

// pollInterval converts configured seconds to a duration, with 0 falling
// through to the service defaults.
func (a *App) pollInterval(seconds int) time.Duration {
	return time.Duration(seconds) * time.Second
}

// renderTabBar renders the tab bar with the active tab highlighted.
func (a *App) renderTabBar(activeTab tui.Tab) string {
	var rendered []string
	for _, t := range tui.TabNames {
		if t.Tab == activeTab {
			rendered = append(rendered, tui.ActiveTabStyle.Render(t.Name))
		} else {
			rendered = append(rendered, tui.InactiveTabStyle.Render(t.Name))
		}
	}

	tabBar := lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
	return lipgloss.NewStyle().
		Width(a.model.Width).
		Align(lipgloss.Center).
		Render(tabBar)
}

// propagate forwards a window resize to the active view.
func (a *App) propagate(msg tea.WindowSizeMsg) tea.Cmd {
	var cmd tea.Cmd
	switch a.model.State {
	case tui.StateLogin:
		a.loginView, cmd = a.loginView.Update(msg)
	case tui.StateDashboard:
		a.dashboardView, cmd = a.dashboardView.Update(msg)
	case tui.StateRecords:
		a.recordsView, cmd = a.recordsView.Update(msg)
	case tui.StateDevices:
		a.devicesView, cmd = a.devicesView.Update(msg)
	case tui.StateImports:
		a.importsView, cmd = a.importsView.Update(msg)
	case tui.StateStatistics:
		a.statisticsView, cmd = a.statisticsView.Update(msg)
	}
	return cmd
}

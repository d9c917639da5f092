// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Non-blocking notices inspired by lazygit's popup/toast system. Unlike
// modal error dialogs, notices appear in a corner and auto-dismiss,
// letting the user keep talking while errors are displayed.
package components

import (
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/bestfit-labs/coach-tui/internal/ui/styles"
)

// =============================================================================
// NOTICE TYPES
// =============================================================================

// NoticeKind represents the type of notice.
type NoticeKind int

const (
	// NoticeStatus is an informational notice (cyan)
	NoticeStatus NoticeKind = iota
	// NoticeError is an error notice (rose)
	NoticeError
	// NoticeWarning is a warning notice (amber)
	NoticeWarning
	// NoticeSuccess is a success notice (emerald)
	NoticeSuccess
)

// DefaultNoticeDuration is the auto-dismiss duration for status notices.
const DefaultNoticeDuration = 4 * time.Second

// ErrorNoticeDuration is the auto-dismiss duration for errors (longer to read).
const ErrorNoticeDuration = 8 * time.Second

// WarningNoticeDuration is the auto-dismiss duration for warnings.
const WarningNoticeDuration = 6 * time.Second

// Notice is a non-blocking notification.
type Notice struct {
	ID          int
	Message     string
	Kind        NoticeKind
	CreatedAt   time.Time
	Duration    time.Duration
	Dismissible bool
	Sticky      bool // Never auto-dismiss (fatal errors)
}

// NewErrorNotice creates an error notice with the 8-second duration.
func NewErrorNotice(message string) Notice {
	return Notice{
		Message:     message,
		Kind:        NoticeError,
		CreatedAt:   time.Now(),
		Duration:    ErrorNoticeDuration,
		Dismissible: true,
	}
}

// NewFatalNotice creates a sticky error notice that never auto-dismisses.
// Used for unrecoverable conditions like denied microphone access.
func NewFatalNotice(message string) Notice {
	n := NewErrorNotice(message)
	n.Sticky = true
	return n
}

// NewWarningNotice creates a warning notice with the 6-second duration.
func NewWarningNotice(message string) Notice {
	return Notice{
		Message:     message,
		Kind:        NoticeWarning,
		CreatedAt:   time.Now(),
		Duration:    WarningNoticeDuration,
		Dismissible: true,
	}
}

// NewStatusNotice creates an informational notice with the 4-second duration.
func NewStatusNotice(message string) Notice {
	return Notice{
		Message:     message,
		Kind:        NoticeStatus,
		CreatedAt:   time.Now(),
		Duration:    DefaultNoticeDuration,
		Dismissible: true,
	}
}

// NewSuccessNotice creates a success notice with the 4-second duration.
func NewSuccessNotice(message string) Notice {
	return Notice{
		Message:     message,
		Kind:        NoticeSuccess,
		CreatedAt:   time.Now(),
		Duration:    DefaultNoticeDuration,
		Dismissible: true,
	}
}

// IsExpired returns true if the notice should be dismissed.
func (n *Notice) IsExpired() bool {
	if n.Sticky {
		return false
	}
	return time.Since(n.CreatedAt) >= n.Duration
}

// =============================================================================
// NOTICE MANAGER
// =============================================================================

// NoticeManager manages a stack of notices.
type NoticeManager struct {
	notices    []Notice
	nextID     int
	maxNotices int
	mutex      sync.Mutex
}

// NewNoticeManager creates an empty manager.
func NewNoticeManager() *NoticeManager {
	return &NoticeManager{
		notices:    make([]Notice, 0),
		nextID:     1,
		maxNotices: 5,
	}
}

// Add adds a notice and returns its assigned ID.
func (m *NoticeManager) Add(n Notice) int {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if n.ID == 0 {
		n.ID = m.nextID
		m.nextID++
	}

	// Newest first
	m.notices = append([]Notice{n}, m.notices...)
	if len(m.notices) > m.maxNotices {
		m.notices = m.notices[:m.maxNotices]
	}

	return n.ID
}

// AddError is a convenience method to add an error notice.
func (m *NoticeManager) AddError(message string) int {
	return m.Add(NewErrorNotice(message))
}

// AddWarning is a convenience method to add a warning notice.
func (m *NoticeManager) AddWarning(message string) int {
	return m.Add(NewWarningNotice(message))
}

// AddStatus is a convenience method to add a status notice.
func (m *NoticeManager) AddStatus(message string) int {
	return m.Add(NewStatusNotice(message))
}

// AddSuccess is a convenience method to add a success notice.
func (m *NoticeManager) AddSuccess(message string) int {
	return m.Add(NewSuccessNotice(message))
}

// Remove removes a notice by ID.
func (m *NoticeManager) Remove(id int) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for i, n := range m.notices {
		if n.ID == id {
			m.notices = append(m.notices[:i], m.notices[i+1:]...)
			return
		}
	}
}

// DismissNewest removes the most recent dismissible notice.
func (m *NoticeManager) DismissNewest() bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for i, n := range m.notices {
		if n.Dismissible {
			m.notices = append(m.notices[:i], m.notices[i+1:]...)
			return true
		}
	}
	return false
}

// Tick removes expired notices and returns the remaining set.
// Should be called periodically (e.g., every 100ms).
func (m *NoticeManager) Tick() []Notice {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	active := make([]Notice, 0, len(m.notices))
	for _, n := range m.notices {
		if !n.IsExpired() {
			active = append(active, n)
		}
	}
	m.notices = active

	return m.notices
}

// Notices returns a copy of the current notices.
func (m *NoticeManager) Notices() []Notice {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	result := make([]Notice, len(m.notices))
	copy(result, m.notices)
	return result
}

// HasNotices returns true if any notice is active.
func (m *NoticeManager) HasNotices() bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return len(m.notices) > 0
}

// Clear removes all notices.
func (m *NoticeManager) Clear() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.notices = make([]Notice, 0)
}

// =============================================================================
// NOTICE MESSAGES
// =============================================================================

// NoticeTickMsg is sent periodically to expire notices.
type NoticeTickMsg struct {
	Time time.Time
}

// NoticeTickCmd returns a command that ticks notices every 100ms.
func NoticeTickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return NoticeTickMsg{Time: t}
	})
}

// =============================================================================
// NOTICE RENDERING
// =============================================================================

// RenderNotice renders a single notice box.
func RenderNotice(theme *styles.Theme, n Notice, width int) string {
	maxWidth := 60
	if width > 0 && width-8 < maxWidth {
		maxWidth = width - 8
	}
	if maxWidth < 30 {
		maxWidth = 30
	}

	var iconColor lipgloss.AdaptiveColor
	var icon string

	switch n.Kind {
	case NoticeError:
		iconColor = styles.Rose
		icon = styles.StatusIndicators.Error
	case NoticeWarning:
		iconColor = styles.Amber
		icon = styles.StatusIndicators.Warning
	case NoticeSuccess:
		iconColor = styles.Emerald
		icon = styles.StatusIndicators.Success
	default:
		iconColor = styles.Cyan
		icon = styles.StatusIndicators.Info
	}

	iconStyle := lipgloss.NewStyle().
		Foreground(iconColor).
		Bold(true)

	messageStyle := lipgloss.NewStyle().
		Foreground(styles.TextPrimary).
		Width(maxWidth - 8)

	message := n.Message
	if len(message) > maxWidth-10 {
		message = wrapNoticeText(message, maxWidth-10)
	}

	content := iconStyle.Render(icon+" ") + messageStyle.Render(message)

	if n.Dismissible {
		content += "\n" + theme.NoticeHint.Render("[esc] Dismiss")
	}

	return theme.NoticeBox.
		BorderForeground(iconColor).
		MaxWidth(maxWidth).
		Render(content)
}

// RenderNoticeStack renders notices stacked in the bottom-right corner.
func RenderNoticeStack(theme *styles.Theme, notices []Notice, width, height int) string {
	if len(notices) == 0 {
		return ""
	}

	rendered := make([]string, 0, len(notices))
	for _, n := range notices {
		rendered = append(rendered, RenderNotice(theme, n, width))
	}

	stack := lipgloss.JoinVertical(lipgloss.Right, rendered...)

	positioned := lipgloss.NewStyle().
		MarginRight(2).
		MarginBottom(1).
		Render(stack)

	if width > 0 && height > 0 {
		return lipgloss.Place(
			width, height,
			lipgloss.Right, lipgloss.Bottom,
			positioned,
		)
	}

	return positioned
}

// wrapNoticeText performs simple word wrapping for notice messages.
func wrapNoticeText(text string, maxWidth int) string {
	if maxWidth <= 0 {
		return text
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return text
	}

	var lines []string
	var current strings.Builder

	for _, word := range words {
		if current.Len() == 0 {
			current.WriteString(word)
		} else if current.Len()+1+len(word) <= maxWidth {
			current.WriteString(" ")
			current.WriteString(word)
		} else {
			lines = append(lines, current.String())
			current.Reset()
			current.WriteString(word)
		}
	}

	if current.Len() > 0 {
		lines = append(lines, current.String())
	}

	return strings.Join(lines, "\n")
}

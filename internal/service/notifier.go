package service

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

type NotificationKind string

const (
	NotifySuccess NotificationKind = "success"
	NotifyError   NotificationKind = "error"
	NotifyInfo    NotificationKind = "info"
)

// Notification is a transient user-facing message, shown once and not kept.
type Notification struct {
	Kind    NotificationKind
	Title   string
	Message string
}

// Notifier shows transient notifications.
type Notifier interface {
	Notify(n Notification)
}

// NoopNotifier drops every notification.
type NoopNotifier struct{}

func (NoopNotifier) Notify(Notification) {}

var (
	toastError   = lipgloss.NewStyle().Foreground(lipgloss.Color("#fb4934")).Bold(true)
	toastSuccess = lipgloss.NewStyle().Foreground(lipgloss.Color("#8ec07c")).Bold(true)
	toastInfo    = lipgloss.NewStyle().Foreground(lipgloss.Color("#83a598")).Bold(true)
)

type writerNotifier struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterNotifier prints notifications as one styled line each.
func NewWriterNotifier(w io.Writer) Notifier {
	if w == nil {
		return NoopNotifier{}
	}
	return &writerNotifier{w: w}
}

func (n *writerNotifier) Notify(note Notification) {
	style := toastInfo
	switch note.Kind {
	case NotifyError:
		style = toastError
	case NotifySuccess:
		style = toastSuccess
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintf(n.w, "%s %s\n", style.Render(note.Title), note.Message)
}

// RecordingNotifier keeps notifications in memory.
type RecordingNotifier struct {
	mu    sync.Mutex
	notes []Notification
}

func (r *RecordingNotifier) Notify(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, n)
}

// Notifications returns a copy of everything recorded so far.
func (r *RecordingNotifier) Notifications() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.notes...)
}

package testutil

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/trezcool/bursar/core"
	"github.com/trezcool/bursar/core/fee"
	"github.com/trezcool/bursar/core/student"
)

func CreateStudent(
	t *testing.T,
	repo student.Repository,
	number, name, grade string,
	payments ...student.Payment,
) student.Student {
	if payments == nil {
		payments = []student.Payment{}
	}
	s := student.Student{
		StudentNumber:  number,
		Name:           name,
		Grade:          grade,
		PaymentHistory: payments,
	}
	if err := repo.SaveStudent(context.Background(), s); err != nil {
		t.Fatalf("createStudent() failed: %v", err)
	}
	return s
}

func CreateFee(t *testing.T, repo fee.Repository, grade, term, year, amount string) fee.Fee {
	f := fee.Fee{
		Amount: decimal.RequireFromString(amount),
		Grade:  grade,
		Term:   term,
		Year:   year,
	}
	if err := repo.SaveFee(context.Background(), f); err != nil {
		t.Fatalf("createFee() failed: %v", err)
	}
	return f
}

// LogEntry is a message recorded by Logger.
type LogEntry struct {
	Level string
	Msg   string
	Args  []interface{}
}

// Logger records log entries in memory.
type Logger struct {
	mu      sync.Mutex
	entries []LogEntry
}

var _ core.Logger = (*Logger)(nil)

func (l *Logger) log(level, msg string, args []interface{}) {
	l.mu.Lock()
	l.entries = append(l.entries, LogEntry{Level: level, Msg: msg, Args: args})
	l.mu.Unlock()
}

func (l *Logger) Debug(msg string, args ...interface{}) { l.log("debug", msg, args) }
func (l *Logger) Info(msg string, args ...interface{})  { l.log("info", msg, args) }
func (l *Logger) Warn(msg string, args ...interface{})  { l.log("warn", msg, args) }
func (l *Logger) Error(msg string, args ...interface{}) { l.log("error", msg, args) }
func (l *Logger) Fatal(msg string, args ...interface{}) { l.log("fatal", msg, args) }

// Entries returns the recorded entries of the given level, or all of them if level is empty.
func (l *Logger) Entries(level string) []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	res := make([]LogEntry, 0, len(l.entries))
	for _, e := range l.entries {
		if level == "" || e.Level == level {
			res = append(res, e)
		}
	}
	return res
}

// Notification is a notification recorded by Notifier.
type Notification struct {
	Message string
	Color   string
}

// Notifier records notifications in memory.
type Notifier struct {
	mu    sync.Mutex
	items []Notification
}

var _ core.Notifier = (*Notifier)(nil)

func (n *Notifier) Notify(message, color string) {
	n.mu.Lock()
	n.items = append(n.items, Notification{Message: message, Color: color})
	n.mu.Unlock()
}

func (n *Notifier) Notifications() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Notification(nil), n.items...)
}

// Count returns the number of notifications of the given color.
func (n *Notifier) Count(color string) int {
	n.mu.Lock()
	defer n.mu.Unlock()

	var count int
	for _, item := range n.items {
		if item.Color == color {
			count++
		}
	}
	return count
}

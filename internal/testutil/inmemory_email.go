package testutil

import (
	"context"
	"sync"

	"github.com/dojoflow/dojoflow/internal/notification"
)

var _ notification.EmailSender = (*InMemoryEmailSender)(nil)

// InMemoryEmailSender records reminder emails instead of sending them.
type InMemoryEmailSender struct {
	mu       sync.Mutex
	upcoming []*notification.Reminder
	overdue  []*notification.Reminder
}

func NewInMemoryEmailSender() *InMemoryEmailSender {
	return &InMemoryEmailSender{}
}

func (s *InMemoryEmailSender) SendUpcomingChargeReminder(ctx context.Context, r *notification.Reminder) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.upcoming = append(s.upcoming, r)
	return nil
}

func (s *InMemoryEmailSender) SendOverdueNotice(ctx context.Context, r *notification.Reminder) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.overdue = append(s.overdue, r)
	return nil
}

// UpcomingReminders returns the captured upcoming-charge reminders
func (s *InMemoryEmailSender) UpcomingReminders() []*notification.Reminder {
	s.mu.Lock()
	defer s.mu.Unlock()

	reminders := make([]*notification.Reminder, len(s.upcoming))
	copy(reminders, s.upcoming)
	return reminders
}

// OverdueNotices returns the captured overdue notices
func (s *InMemoryEmailSender) OverdueNotices() []*notification.Reminder {
	s.mu.Lock()
	defer s.mu.Unlock()

	notices := make([]*notification.Reminder, len(s.overdue))
	copy(notices, s.overdue)
	return notices
}

func (s *InMemoryEmailSender) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.upcoming = nil
	s.overdue = nil
}

// Package events publishes domain events after mutations commit.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	SubjectPostCreated    = "post.created"
	SubjectPostDeleted    = "post.deleted"
	SubjectPostLiked      = "post.liked"
	SubjectPostUnliked    = "post.unliked"
	SubjectPostCommented  = "post.commented"
	SubjectPostSaved      = "post.saved"
	SubjectPostUnsaved    = "post.unsaved"
	SubjectUserFollowed   = "user.followed"
	SubjectUserUnfollowed = "user.unfollowed"
)

// Event is the JSON payload published on Subject.
type Event struct {
	ID         string            `json:"id"`
	Subject    string            `json:"subject"`
	ActorID    string            `json:"actorId"`
	TargetID   string            `json:"targetId"`
	Attributes map[string]string `json:"attributes,omitempty"`
	OccurredAt time.Time         `json:"occurredAt"`
}

// New stamps an event with a fresh id and the current time.
func New(subject, actorID, targetID string, attrs map[string]string) Event {
	return Event{
		ID:         uuid.NewString(),
		Subject:    subject,
		ActorID:    actorID,
		TargetID:   targetID,
		Attributes: attrs,
		OccurredAt: time.Now().UTC(),
	}
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Nop discards events. It is used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

// Subjects returns the subjects published so far, in order.
func (r *Recorder) Subjects() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Subject
	}
	return out
}

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

package model

import "time"

// Document is a long-term memory record. Category, topic, and content are
// lexically indexed; content alone carries the embedding.
type Document struct {
	ID           int64     `json:"id"`
	Category     string    `json:"category"`
	Topic        string    `json:"topic"`
	Content      string    `json:"content"`
	CreatedAt    time.Time `json:"created_at"`
	LastVerified time.Time `json:"last_verified"`
}

// Agenda is a named, ordered collection of tasks representing a plan.
type Agenda struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	Tasks       []Task    `json:"tasks,omitempty"`
}

// Task belongs to exactly one agenda. Tasks are created with the agenda or
// appended via an agenda update, never standalone.
type Task struct {
	ID              int64  `json:"id"`
	AgendaID        int64  `json:"agenda_id"`
	Order           int    `json:"order"`
	IsOptional      bool   `json:"is_optional"`
	Details         string `json:"details"`
	AcceptanceGuard string `json:"acceptance_guard,omitempty"`
	IsCompleted     bool   `json:"is_completed"`
}

// TaskInput describes a task to be created.
type TaskInput struct {
	Details         string `json:"details"`
	IsOptional      bool   `json:"is_optional,omitempty"`
	AcceptanceGuard string `json:"acceptance_guard,omitempty"`
}

package journal

import "time"

// Run is one workflow invocation.
type Run struct {
	ID           string    `json:"id" yaml:"id"`
	Input        string    `json:"input,omitempty" yaml:"input,omitempty"`
	Filename     string    `json:"filename,omitempty" yaml:"filename,omitempty"`
	Mode         string    `json:"mode" yaml:"mode"`
	State        string    `json:"state" yaml:"state"`
	Reason       string    `json:"reason,omitempty" yaml:"reason,omitempty"`
	ErrorMessage string    `json:"error,omitempty" yaml:"error,omitempty"`
	ClipCount    int       `json:"clip_count" yaml:"clip_count"`
	StartedAt    time.Time `json:"started_at" yaml:"started_at"`
	UpdatedAt    time.Time `json:"updated_at" yaml:"updated_at"`
}

// Transition is one recorded state change of a run.
type Transition struct {
	ID      int64     `json:"id" yaml:"id"`
	RunID   string    `json:"run_id" yaml:"run_id"`
	From    string    `json:"from" yaml:"from"`
	To      string    `json:"to" yaml:"to"`
	Reason  string    `json:"reason,omitempty" yaml:"reason,omitempty"`
	Message string    `json:"message,omitempty" yaml:"message,omitempty"`
	At      time.Time `json:"at" yaml:"at"`
}

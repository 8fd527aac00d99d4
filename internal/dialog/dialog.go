package dialog

import (
	"context"
	"sync"
)

type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

type Notice struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

// Prompt is a yes/no question put to the operator before a destructive action.
type Prompt struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// UI is how operations talk back to the operator. It is handed to each call
// explicitly; nothing replaces a process-wide alert or confirm.
type UI interface {
	Confirm(ctx context.Context, p Prompt) (bool, error)
	Notify(n Notice)
}

// Recorder answers every prompt with a fixed decision and keeps the notices
// so a request handler can return them with its response.
type Recorder struct {
	confirmed bool

	mu      sync.Mutex
	notices []Notice
	asked   []Prompt
}

var _ UI = (*Recorder)(nil)

func NewRecorder(confirmed bool) *Recorder {
	return &Recorder{confirmed: confirmed}
}

func (r *Recorder) Confirm(_ context.Context, p Prompt) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.asked = append(r.asked, p)
	return r.confirmed, nil
}

func (r *Recorder) Notify(n Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

func (r *Recorder) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notice{}, r.notices...)
}

// Asked lists the prompts that were put to the operator.
func (r *Recorder) Asked() []Prompt {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Prompt{}, r.asked...)
}

func Success(msg string) Notice { return Notice{Level: LevelSuccess, Message: msg} }
func Info(msg string) Notice    { return Notice{Level: LevelInfo, Message: msg} }
func Error(msg string) Notice   { return Notice{Level: LevelError, Message: msg} }

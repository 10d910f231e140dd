package harness

// Trace event types.
const (
	EventGesture  = "gesture"
	EventRejected = "rejected"
	EventIdentify = "identify"
	EventClear    = "clear"
	EventUpload   = "upload"
	EventFlush    = "flush"
)

// TraceEvent is one observable step of a run.
type TraceEvent struct {
	Seq      int           `json:"seq"`
	Type     string        `json:"type"`
	Screen   string        `json:"screen,omitempty"`
	Gesture  *GestureTrace `json:"gesture,omitempty"`
	UserID   string        `json:"user_id,omitempty"`
	BatchKey string        `json:"batch_key,omitempty"`
	Rows     []RowTrace    `json:"rows,omitempty"`
	Events   int           `json:"events,omitempty"`
	Deleted  int64         `json:"deleted,omitempty"`
	Error    string        `json:"error,omitempty"`
}

// GestureTrace is a classified gesture as handed to the recorder.
type GestureTrace struct {
	Kind      string   `json:"kind"`
	X         float64  `json:"x"`
	Y         float64  `json:"y"`
	EndX      *float64 `json:"end_x,omitempty"`
	EndY      *float64 `json:"end_y,omitempty"`
	Intensity float64  `json:"intensity"`
}

// RowTrace is a queued event as seen by the uploader.
type RowTrace struct {
	ID        int64   `json:"id"`
	Kind      string  `json:"kind"`
	Screen    string  `json:"screen"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Timestamp int64   `json:"timestamp"`
	UserID    string  `json:"user_id,omitempty"`
}

// Result is the outcome of a script run.
type Result struct {
	// Pass is true when every assertion held.
	Pass bool `json:"pass"`

	// Trace lists gestures, identity changes, uploads and flushes in order.
	Trace []TraceEvent `json:"trace"`

	// Errors holds assertion failures.
	Errors []string `json:"errors,omitempty"`

	// Pending is the queue length after the last step.
	Pending int `json:"pending"`

	// Uploads is the number of upload attempts.
	Uploads int `json:"uploads"`
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

package transfer

import "fmt"

// State is the lifecycle position of a single object transfer.
type State string

const (
	StatePending     State = "pending"
	StateUploading   State = "uploading"
	StateStored      State = "stored"
	StateDownloading State = "downloading"
	StateVerified    State = "verified"
	StateFailed      State = "failed"
)

var transitions = map[State][]State{
	StatePending:     {StateUploading},
	StateUploading:   {StateStored, StateFailed},
	StateStored:      {StateDownloading},
	StateDownloading: {StateVerified, StateFailed},
}

// CanTransition reports whether the state machine allows s -> to.
func (s State) CanTransition(to State) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition is possible.
// Stored ends the upload path but can still be downloaded.
func (s State) Terminal() bool {
	return len(transitions[s]) == 0
}

// Transfer tracks one object through upload and verification.
type Transfer struct {
	Bucket   string   `json:"bucket"`
	Key      string   `json:"key"`
	Filename string   `json:"filename"`
	Metadata Metadata `json:"metadata"`
	// Digest is the hex BLAKE3-256 of the uploaded payload, once stored.
	Digest string `json:"digest,omitempty"`
	State  State  `json:"state"`
	Reason string `json:"reason,omitempty"`
}

// NewTransfer starts a pending transfer under a freshly generated key.
func NewTransfer(bucket, filename string, meta Metadata) *Transfer {
	return &Transfer{
		Bucket:   bucket,
		Key:      GenerateKey(filename),
		Filename: filename,
		Metadata: meta,
		State:    StatePending,
	}
}

// Advance moves the transfer to the next state.
func (t *Transfer) Advance(to State) error {
	if !t.State.CanTransition(to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, t.State, to)
	}
	t.State = to
	return nil
}

// Fail moves the transfer to StateFailed and records the cause.
func (t *Transfer) Fail(cause error) error {
	if err := t.Advance(StateFailed); err != nil {
		return err
	}
	if cause != nil {
		t.Reason = cause.Error()
	}
	return nil
}

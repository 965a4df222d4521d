// Package execution records and broadcasts payment attempts. Every
// attempt is persisted through its full lifecycle so an interrupted
// run can be inspected instead of silently retried.
package execution

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/petrkrulis2022/cube-pay-hackathons-sub002/internal/model"
)

type AttemptStatus string

const (
	StatusPending       AttemptStatus = "pending"
	StatusBuilt         AttemptStatus = "built"
	StatusSimulatedOK   AttemptStatus = "simulated-ok"
	StatusSimulatedFail AttemptStatus = "simulated-fail"
	StatusSent          AttemptStatus = "sent"
	StatusUnconfirmed   AttemptStatus = "unconfirmed"
	StatusConfirmed     AttemptStatus = "confirmed"
	StatusError         AttemptStatus = "error"
)

// Attempt is one payment try against one agent. An unconfirmed
// attempt is terminal for the tool; the chain may still confirm it, so
// it is never retried automatically.
type Attempt struct {
	AttemptID      string                 `json:"attempt_id"`
	AgentID        string                 `json:"agent_id"`
	Outcome        string                 `json:"outcome"`
	SourceKey      string                 `json:"source_key"`
	DestinationKey string                 `json:"destination_key"`
	Status         AttemptStatus          `json:"status"`
	Plan           model.TransactionPlan  `json:"plan"`
	Fee            model.FeeEstimate      `json:"fee"`
	Simulation     model.SimulationResult `json:"simulation"`
	TxHash         string                 `json:"tx_hash,omitempty"`
	MessageID      string                 `json:"message_id,omitempty"`
	Error          string                 `json:"error,omitempty"`
	CreatedAt      string                 `json:"created_at"`
	UpdatedAt      string                 `json:"updated_at"`
}

func NewAttemptID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "pay-unknown"
	}
	return fmt.Sprintf("pay_%s", hex.EncodeToString(b))
}

func NewAttempt(agentID string) Attempt {
	now := time.Now().UTC().Format(time.RFC3339)
	return Attempt{
		AttemptID: NewAttemptID(),
		AgentID:   agentID,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (a *Attempt) Touch() {
	a.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
}

func (a *Attempt) SetStatus(status AttemptStatus) {
	a.Status = status
	a.Touch()
}

func (a *Attempt) Fail(status AttemptStatus, msg string) {
	a.Status = status
	a.Error = msg
	a.Touch()
}

package models

import "time"

// DeadLetter records a sink delivery that ran out of retries.
type DeadLetter struct {
	ID        string    `json:"id"`
	LeadID    string    `json:"leadId"`
	Sink      string    `json:"sink"`
	Attempts  int       `json:"attempts"`
	Error     string    `json:"error"`
	Payload   string    `json:"payload"`
	CreatedAt time.Time `json:"createdAt"`
}

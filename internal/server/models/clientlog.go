package models

// ClientLog is a log record shipped by a client to POST /log.
type ClientLog struct {
	ID        string
	Level     string
	Message   string
	SessionID string
	Timestamp string
}

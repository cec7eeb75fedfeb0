package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrijs2005/trackmeta/internal/common"
	"github.com/dmitrijs2005/trackmeta/internal/server/models"
	"github.com/google/uuid"
)

var clientLevels = map[string]slog.Level{
	common.LogLevelDebug: slog.LevelDebug,
	common.LogLevelInfo:  slog.LevelInfo,
	common.LogLevelWarn:  slog.LevelWarn,
	common.LogLevelError: slog.LevelError,
}

// ClientLogService persists records received from clients through a
// slog.Handler, normally a logging.FileHandler over app.log and error.log.
type ClientLogService struct {
	sink slog.Handler
	now  func() time.Time
}

func NewClientLogService(sink slog.Handler) *ClientLogService {
	return &ClientLogService{sink: sink, now: time.Now}
}

// Record validates entry and writes it to the sink. The stored ID is filled
// in on success.
func (s *ClientLogService) Record(ctx context.Context, entry *models.ClientLog) error {
	if entry.Level == "" || entry.Message == "" || entry.SessionID == "" || entry.Timestamp == "" {
		return common.ErrInvalidLogEntry
	}
	level, ok := clientLevels[entry.Level]
	if !ok {
		return common.ErrInvalidLogLevel
	}

	entry.ID = uuid.NewString()

	r := slog.NewRecord(s.now(), level, entry.Message, 0)
	r.AddAttrs(
		slog.String("id", entry.ID),
		slog.String("sessionId", entry.SessionID),
		slog.String("clientTimestamp", entry.Timestamp),
	)

	if err := s.sink.Handle(ctx, r); err != nil {
		return fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}
	return nil
}

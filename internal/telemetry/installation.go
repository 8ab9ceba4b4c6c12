package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"accessibility-insights/background/internal/logging"
	"accessibility-insights/background/internal/storage"
)

// InstallationData identifies this installation for one UTC month.
type InstallationData struct {
	ID    string `json:"id"`
	Month int    `json:"month"`
	Year  int    `json:"year"`
}

// InstallationService hands out the installation id, regenerating it when the month changes.
// Calls are serialized so the read-check-write of InstallationData is atomic within the process.
type InstallationService struct {
	mu      sync.Mutex
	store   storage.Store
	current *InstallationData
	loaded  bool
	logger  *zap.Logger
	nowF    func() time.Time
	newID   func() string
}

// NewInstallationService returns a service over store. initial is the value read during startup, if any;
// nil means it is read lazily from store on first use.
func NewInstallationService(store storage.Store, initial *InstallationData, logger *zap.Logger) *InstallationService {
	return &InstallationService{
		store:   store,
		current: initial,
		loaded:  initial != nil,
		logger:  logging.OrNop(logger),
		nowF:    time.Now,
		newID:   uuid.NewString,
	}
}

// GetInstallationID returns the id for the current UTC month and year.
// A new id is generated and written to storage when none exists or the stored one is from another month.
// A failed write is logged; the new id is still returned and kept in memory.
func (s *InstallationService) GetInstallationID(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		var stored InstallationData
		found, err := storage.GetJSON(ctx, s.store, storage.KeyInstallationData, &stored)
		if err != nil {
			return "", err
		}
		if found {
			s.current = &stored
		}
		s.loaded = true
	}

	now := s.nowF().UTC()
	month, year := int(now.Month()), now.Year()
	if s.current != nil && s.current.ID != "" && s.current.Month == month && s.current.Year == year {
		return s.current.ID, nil
	}

	next := &InstallationData{ID: s.newID(), Month: month, Year: year}
	s.current = next
	if err := storage.SetJSON(ctx, s.store, storage.KeyInstallationData, next); err != nil {
		s.logger.Error("telemetry: failed to persist installation data", zap.Error(err))
	}
	return next.ID, nil
}

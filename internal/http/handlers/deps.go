package handlers

import (
	"sync"

	"travelatlas/internal/ai"
	intconfig "travelatlas/internal/config"
	"travelatlas/internal/services"
)

// Deps are the long-lived collaborators the handlers share. Repositories
// fall back to the shared connection, so only process-wide pieces live here.
type Deps struct {
	Env        intconfig.Env
	AI         ai.Client
	Dispatcher *services.Dispatcher
}

var (
	depsMu sync.RWMutex
	deps   Deps
)

// Configure is called once from main before the router serves traffic.
func Configure(d Deps) {
	depsMu.Lock()
	defer depsMu.Unlock()
	deps = d
}

func current() Deps {
	depsMu.RLock()
	defer depsMu.RUnlock()
	return deps
}

func itineraryService(reqID string) services.ItineraryService {
	return services.ItineraryService{RequestID: reqID}
}

func activityService(reqID string) services.ActivityService {
	return services.ActivityService{Itineraries: itineraryService(reqID), RequestID: reqID}
}

func atlasService(reqID string) services.AtlasService {
	env := current().Env
	return services.AtlasService{
		Itineraries: itineraryService(reqID),
		ResolveURL:  env.PublicObjectURL,
		RequestID:   reqID,
	}
}

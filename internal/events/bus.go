package events

import (
	platformevents "leadops_backend/platform/events"
	"leadops_backend/platform/logger"
)

// InMemoryBus is the process-local bus both binaries use.
type InMemoryBus = platformevents.InMemoryBus

func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return platformevents.NewInMemoryBus(log)
}

package services

import "context"

// Routing keys for domain events published on the topic exchange. External
// collaborators (notification service, standings) subscribe to these.
const (
	EventScheduleAllocated = "schedule.allocated"
	EventScheduleMoved     = "schedule.moved"
	EventScheduleCleared   = "schedule.cleared"
	EventTemplateActivated = "template.activated"
)

// EventPublisher is the outbound message broker surface. mq.Publisher
// implements it; tests substitute a recording fake.
type EventPublisher interface {
	PublishJSON(ctx context.Context, key string, v interface{}) error
}

// GridBroadcaster pushes live updates to operator consoles watching an
// event's schedule grid. ws.Hub implements it.
type GridBroadcaster interface {
	BroadcastToRoom(roomID string, message interface{})
}

// WebSocket message types pushed to grid rooms.
const (
	WSScheduleAllocated = "SCHEDULE_ALLOCATED"
	WSEncounterMoved    = "ENCOUNTER_MOVED"
	WSScheduleCleared   = "SCHEDULE_CLEARED"
)

// GridMessage is the envelope broadcast to a grid room.
type GridMessage struct {
	Type    string      `json:"type"`
	EventID int         `json:"event_id"`
	Payload interface{} `json:"payload"`
}

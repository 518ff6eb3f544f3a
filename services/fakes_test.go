package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/courtflow/scheduler/models"
	"github.com/courtflow/scheduler/repositories"
	"github.com/courtflow/scheduler/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeTemplateRepo struct {
	templates map[int]*models.Template

	setActiveCalls    []int
	replaceRulesCalls [][]models.AdvancementRule
	replacedPhases    [][]models.Phase
}

func newFakeTemplateRepo(templates ...*models.Template) *fakeTemplateRepo {
	repo := &fakeTemplateRepo{templates: make(map[int]*models.Template)}
	for _, tpl := range templates {
		repo.templates[tpl.ID] = tpl
	}
	return repo
}

func (f *fakeTemplateRepo) Create(ctx context.Context, tpl *models.Template) error {
	tpl.ID = len(f.templates) + 1
	f.templates[tpl.ID] = tpl
	return nil
}

func (f *fakeTemplateRepo) GetByID(ctx context.Context, id int) (*models.Template, error) {
	tpl, ok := f.templates[id]
	if !ok {
		return nil, repositories.ErrTemplateNotFound
	}
	return tpl, nil
}

func (f *fakeTemplateRepo) Update(ctx context.Context, tpl *models.Template) error {
	if _, ok := f.templates[tpl.ID]; !ok {
		return repositories.ErrTemplateNotFound
	}
	f.templates[tpl.ID] = tpl
	return nil
}

func (f *fakeTemplateRepo) Delete(ctx context.Context, id int) error {
	if _, ok := f.templates[id]; !ok {
		return repositories.ErrTemplateNotFound
	}
	delete(f.templates, id)
	return nil
}

func (f *fakeTemplateRepo) SetActive(ctx context.Context, id int, active bool) error {
	tpl, ok := f.templates[id]
	if !ok {
		return repositories.ErrTemplateNotFound
	}
	tpl.IsActive = active
	f.setActiveCalls = append(f.setActiveCalls, id)
	return nil
}

func (f *fakeTemplateRepo) ReplaceRules(ctx context.Context, templateID int, rules []models.AdvancementRule) error {
	tpl, ok := f.templates[templateID]
	if !ok {
		return repositories.ErrTemplateNotFound
	}
	tpl.Rules = rules
	f.replaceRulesCalls = append(f.replaceRulesCalls, rules)
	return nil
}

func (f *fakeTemplateRepo) ReplacePhases(ctx context.Context, templateID int, phases []models.Phase) error {
	tpl, ok := f.templates[templateID]
	if !ok {
		return repositories.ErrTemplateNotFound
	}
	tpl.Phases = phases
	f.replacedPhases = append(f.replacedPhases, phases)
	return nil
}

type fakeEventRepo struct {
	events map[int]*models.Event
	// gate, when set, blocks GetByID until closed. Used to hold an
	// allocation run open while a second one is attempted.
	gate    chan struct{}
	entered chan struct{}
	once    sync.Once
}

func (f *fakeEventRepo) GetByID(ctx context.Context, id int) (*models.Event, error) {
	if f.gate != nil {
		f.once.Do(func() { close(f.entered) })
		<-f.gate
	}
	event, ok := f.events[id]
	if !ok {
		return nil, repositories.ErrEventNotFound
	}
	return event, nil
}

type fakeDivisionRepo struct {
	divisions []models.Division
}

func (f *fakeDivisionRepo) GetByID(ctx context.Context, id int) (*models.Division, error) {
	for i := range f.divisions {
		if f.divisions[i].ID == id {
			return &f.divisions[i], nil
		}
	}
	return nil, repositories.ErrDivisionNotFound
}

func (f *fakeDivisionRepo) ListByEvent(ctx context.Context, eventID int) ([]models.Division, error) {
	return f.divisions, nil
}

type fakeCourtRepo struct {
	courts []models.Court
	groups []models.CourtGroup
}

func (f *fakeCourtRepo) Create(ctx context.Context, court *models.Court) error {
	court.ID = len(f.courts) + 1
	f.courts = append(f.courts, *court)
	return nil
}

func (f *fakeCourtRepo) GetByID(ctx context.Context, id int) (*models.Court, error) {
	for i := range f.courts {
		if f.courts[i].ID == id {
			return &f.courts[i], nil
		}
	}
	return nil, repositories.ErrCourtNotFound
}

func (f *fakeCourtRepo) List(ctx context.Context) ([]models.Court, error) {
	return f.courts, nil
}

func (f *fakeCourtRepo) Update(ctx context.Context, court *models.Court) error {
	for i := range f.courts {
		if f.courts[i].ID == court.ID {
			f.courts[i] = *court
			return nil
		}
	}
	return repositories.ErrCourtNotFound
}

func (f *fakeCourtRepo) Delete(ctx context.Context, id int) error {
	for i := range f.courts {
		if f.courts[i].ID == id {
			f.courts = append(f.courts[:i], f.courts[i+1:]...)
			return nil
		}
	}
	return repositories.ErrCourtNotFound
}

func (f *fakeCourtRepo) CreateGroup(ctx context.Context, group *models.CourtGroup) error {
	group.ID = len(f.groups) + 1
	f.groups = append(f.groups, *group)
	return nil
}

func (f *fakeCourtRepo) ListGroups(ctx context.Context) ([]models.CourtGroup, error) {
	return f.groups, nil
}

func (f *fakeCourtRepo) DeleteGroup(ctx context.Context, id int) error {
	for i := range f.groups {
		if f.groups[i].ID == id {
			f.groups = append(f.groups[:i], f.groups[i+1:]...)
			return nil
		}
	}
	return repositories.ErrCourtGroupNotFound
}

type fakeTimeBlockRepo struct {
	blocks []models.TimeBlockAllocation
}

func (f *fakeTimeBlockRepo) Create(ctx context.Context, block *models.TimeBlockAllocation) error {
	block.ID = len(f.blocks) + 1
	f.blocks = append(f.blocks, *block)
	return nil
}

func (f *fakeTimeBlockRepo) GetByID(ctx context.Context, id int) (*models.TimeBlockAllocation, error) {
	for i := range f.blocks {
		if f.blocks[i].ID == id {
			return &f.blocks[i], nil
		}
	}
	return nil, repositories.ErrTimeBlockNotFound
}

func (f *fakeTimeBlockRepo) ListByEvent(ctx context.Context, eventID int) ([]models.TimeBlockAllocation, error) {
	return f.blocks, nil
}

func (f *fakeTimeBlockRepo) Delete(ctx context.Context, id int) error {
	for i := range f.blocks {
		if f.blocks[i].ID == id {
			f.blocks = append(f.blocks[:i], f.blocks[i+1:]...)
			return nil
		}
	}
	return repositories.ErrTimeBlockNotFound
}

type fakeEncounterRepo struct {
	mu         sync.Mutex
	encounters map[int]*models.Encounter

	clearCalls []clearCall
}

type clearCall struct {
	eventID    int
	divisionID *int
}

func newFakeEncounterRepo(encounters ...models.Encounter) *fakeEncounterRepo {
	repo := &fakeEncounterRepo{encounters: make(map[int]*models.Encounter)}
	for i := range encounters {
		enc := encounters[i]
		repo.encounters[enc.ID] = &enc
	}
	return repo
}

func (f *fakeEncounterRepo) Create(ctx context.Context, exec repositories.SQLExecutor, enc *models.Encounter) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	enc.ID = len(f.encounters) + 1
	copied := *enc
	f.encounters[enc.ID] = &copied
	return nil
}

func (f *fakeEncounterRepo) GetByID(ctx context.Context, id int) (*models.Encounter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	enc, ok := f.encounters[id]
	if !ok {
		return nil, repositories.ErrEncounterNotFound
	}
	copied := *enc
	return &copied, nil
}

func (f *fakeEncounterRepo) ListByEvent(ctx context.Context, eventID int) ([]models.Encounter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Encounter
	for _, enc := range f.encounters {
		if enc.EventID == eventID {
			out = append(out, *enc)
		}
	}
	return out, nil
}

func (f *fakeEncounterRepo) UpdateNextEncounter(ctx context.Context, exec repositories.SQLExecutor, id int, nextID *int, nextSlot *int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	enc, ok := f.encounters[id]
	if !ok {
		return repositories.ErrEncounterNotFound
	}
	enc.NextEncounterID = nextID
	enc.NextSlot = nextSlot
	return nil
}

func (f *fakeEncounterRepo) UpdateAssignment(ctx context.Context, id int, courtID *int, start, end *time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	enc, ok := f.encounters[id]
	if !ok {
		return repositories.ErrEncounterNotFound
	}
	enc.CourtID = courtID
	enc.StartTime = start
	enc.EndTime = end
	return nil
}

func (f *fakeEncounterRepo) ClearAssignments(ctx context.Context, eventID int, divisionID *int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clearCalls = append(f.clearCalls, clearCall{eventID: eventID, divisionID: divisionID})
	for _, enc := range f.encounters {
		if enc.EventID != eventID {
			continue
		}
		if divisionID != nil && enc.DivisionID != *divisionID {
			continue
		}
		enc.CourtID = nil
		enc.StartTime = nil
		enc.EndTime = nil
	}
	return nil
}

func (f *fakeEncounterRepo) DeleteByPhase(ctx context.Context, exec repositories.SQLExecutor, divisionID, phaseID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, enc := range f.encounters {
		if enc.DivisionID == divisionID && enc.PhaseID == phaseID {
			delete(f.encounters, id)
		}
	}
	return nil
}

type publishedEvent struct {
	key     string
	payload interface{}
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (f *fakePublisher) PublishJSON(ctx context.Context, key string, v interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, publishedEvent{key: key, payload: v})
	return nil
}

func (f *fakePublisher) keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.key)
	}
	return out
}

type broadcastMessage struct {
	room    string
	message interface{}
}

type fakeBroadcaster struct {
	mu       sync.Mutex
	messages []broadcastMessage
}

func (f *fakeBroadcaster) BroadcastToRoom(roomID string, message interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, broadcastMessage{room: roomID, message: message})
}

type fakeUploader struct {
	lastKey  string
	lastBody []byte
}

func (f *fakeUploader) Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*storage.UploadResult, error) {
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	f.lastKey = key
	f.lastBody = body
	return &storage.UploadResult{Key: key, Location: "https://files.example.com/" + key}, nil
}

func (f *fakeUploader) Delete(ctx context.Context, key string) error { return nil }

func (f *fakeUploader) GetPublicURL(key string) string {
	return "https://files.example.com/" + key
}

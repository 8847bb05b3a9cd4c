package service

import (
	"context"
	"sync"
	"time"

	"github.com/eduline/liveclass/internal/broadcast"
	"github.com/eduline/liveclass/internal/model"
	"go.uber.org/zap"
)

// In-memory фейки репозиториев для тестов сервисного слоя

type fakeSessionRepo struct {
	mu       sync.Mutex
	nextID   int64
	sessions map[int64]*model.LiveSession
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{nextID: 1, sessions: make(map[int64]*model.LiveSession)}
}

func (r *fakeSessionRepo) Create(_ context.Context, s *model.LiveSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s.ID = r.nextID
	r.nextID++
	s.CreatedAt = time.Now()
	s.UpdatedAt = s.CreatedAt
	copied := *s
	r.sessions[s.ID] = &copied
	return nil
}

func (r *fakeSessionRepo) GetByID(_ context.Context, id int64) (*model.LiveSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, nil
	}
	copied := *s
	return &copied, nil
}

func (r *fakeSessionRepo) ListByOrganization(_ context.Context, orgID int64) ([]*model.LiveSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.LiveSession
	for _, s := range r.sessions {
		if s.OrganizationID == orgID {
			copied := *s
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeSessionRepo) Update(_ context.Context, s *model.LiveSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *s
	r.sessions[s.ID] = &copied
	return nil
}

func (r *fakeSessionRepo) MarkStarted(_ context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok || s.Status != model.SessionStatusScheduled {
		return false, nil
	}
	now := time.Now()
	s.Status = model.SessionStatusLive
	s.ActualStartTime = &now
	return true, nil
}

func (r *fakeSessionRepo) ChangeStatus(_ context.Context, id int64, target model.SessionStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok || s.IsTerminal() {
		return false, nil
	}
	s.Status = target
	if s.IsTerminal() {
		now := time.Now()
		s.EndTime = &now
	}
	return true, nil
}

func (r *fakeSessionRepo) SetCurrentSlide(_ context.Context, id, slideID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok || s.IsTerminal() {
		return false, nil
	}
	s.CurrentSlideID = &slideID
	return true, nil
}

func (r *fakeSessionRepo) SetNavigationLock(_ context.Context, id int64, locked bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		s.NavigationLocked = locked
	}
	return nil
}

func (r *fakeSessionRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	return nil
}

func (r *fakeSessionRepo) EndStale(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ended int64
	for _, s := range r.sessions {
		if s.Status == model.SessionStatusLive && s.ScheduledStartTime.Before(cutoff) {
			now := time.Now()
			s.Status = model.SessionStatusEnded
			s.EndTime = &now
			ended++
		}
	}
	return ended, nil
}

type fakeParticipantRepo struct {
	mu           sync.Mutex
	nextID       int64
	participants map[int64]*model.Participant
}

func newFakeParticipantRepo() *fakeParticipantRepo {
	return &fakeParticipantRepo{nextID: 1, participants: make(map[int64]*model.Participant)}
}

func (r *fakeParticipantRepo) Upsert(_ context.Context, sessionID, childID int64) (*model.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.participants {
		if p.SessionID == sessionID && p.ChildID == childID {
			p.Status = model.ParticipantStatusJoined
			p.ConnectionStatus = model.ConnectionStatusConnected
			p.JoinedAt = time.Now()
			p.LeftAt = nil
			copied := *p
			return &copied, nil
		}
	}
	p := &model.Participant{
		ID:               r.nextID,
		SessionID:        sessionID,
		ChildID:          childID,
		Status:           model.ParticipantStatusJoined,
		ConnectionStatus: model.ConnectionStatusConnected,
		JoinedAt:         time.Now(),
	}
	r.nextID++
	r.participants[p.ID] = p
	copied := *p
	return &copied, nil
}

func (r *fakeParticipantRepo) GetByID(_ context.Context, id int64) (*model.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.participants[id]
	if !ok {
		return nil, nil
	}
	copied := *p
	return &copied, nil
}

func (r *fakeParticipantRepo) GetBySessionAndChild(_ context.Context, sessionID, childID int64) (*model.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.participants {
		if p.SessionID == sessionID && p.ChildID == childID {
			copied := *p
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeParticipantRepo) ListBySession(_ context.Context, sessionID int64) ([]*model.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Participant
	for _, p := range r.participants {
		if p.SessionID == sessionID {
			copied := *p
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeParticipantRepo) ListActiveBySession(_ context.Context, sessionID int64) ([]*model.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Participant
	for _, p := range r.participants {
		if p.SessionID == sessionID && p.Status == model.ParticipantStatusJoined {
			copied := *p
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeParticipantRepo) MarkLeft(_ context.Context, sessionID, childID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.participants {
		if p.SessionID == sessionID && p.ChildID == childID && p.Status == model.ParticipantStatusJoined {
			now := time.Now()
			p.Status = model.ParticipantStatusLeft
			p.LeftAt = &now
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeParticipantRepo) MarkKicked(_ context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.participants[id]
	if !ok || p.Status != model.ParticipantStatusJoined {
		return false, nil
	}
	now := time.Now()
	p.Status = model.ParticipantStatusKicked
	p.LeftAt = &now
	return true, nil
}

func (r *fakeParticipantRepo) SetHandRaised(_ context.Context, sessionID, childID int64, raised bool) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.participants {
		if p.SessionID == sessionID && p.ChildID == childID && p.Status == model.ParticipantStatusJoined {
			p.HandRaised = raised
			if raised {
				now := time.Now()
				p.HandRaisedAt = &now
			} else {
				p.HandRaisedAt = nil
			}
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeParticipantRepo) LowerHandByID(_ context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.participants[id]
	if !ok {
		return false, nil
	}
	p.HandRaised = false
	p.HandRaisedAt = nil
	return true, nil
}

func (r *fakeParticipantRepo) SetConnectionStatus(_ context.Context, sessionID, childID int64, status model.ConnectionStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.participants {
		if p.SessionID == sessionID && p.ChildID == childID && p.Status == model.ParticipantStatusJoined {
			p.ConnectionStatus = status
		}
	}
	return nil
}

type fakeGrantRepo struct {
	grants map[int64][]*model.AccessGrant
}

func newFakeGrantRepo() *fakeGrantRepo {
	return &fakeGrantRepo{grants: make(map[int64][]*model.AccessGrant)}
}

func (r *fakeGrantRepo) GetUsableByChild(_ context.Context, childID int64) ([]*model.AccessGrant, error) {
	var out []*model.AccessGrant
	for _, g := range r.grants[childID] {
		if g.IsUsable() {
			out = append(out, g)
		}
	}
	return out, nil
}

type fakeMessageRepo struct {
	mu       sync.Mutex
	nextID   int64
	messages map[int64]*model.SessionMessage
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{nextID: 1, messages: make(map[int64]*model.SessionMessage)}
}

func (r *fakeMessageRepo) Create(_ context.Context, m *model.SessionMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m.ID = r.nextID
	r.nextID++
	m.CreatedAt = time.Now()
	copied := *m
	r.messages[m.ID] = &copied
	return nil
}

func (r *fakeMessageRepo) GetByID(_ context.Context, id int64) (*model.SessionMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.messages[id]
	if !ok {
		return nil, nil
	}
	copied := *m
	return &copied, nil
}

func (r *fakeMessageRepo) ListBySession(_ context.Context, sessionID int64) ([]*model.SessionMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.SessionMessage
	for _, m := range r.messages {
		if m.SessionID == sessionID {
			copied := *m
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeMessageRepo) MarkAnswered(_ context.Context, id int64, answer string, answeredBy int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.messages[id]
	if !ok || m.IsAnswered {
		return false, nil
	}
	now := time.Now()
	m.IsAnswered = true
	m.Answer = answer
	m.AnsweredBy = &answeredBy
	m.AnsweredAt = &now
	return true, nil
}

type fakeUserRepo struct {
	users map[int64]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int64]*model.User)}
}

func (r *fakeUserRepo) GetByID(_ context.Context, id int64) (*model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	return u, nil
}

type fakeChildRepo struct {
	children map[int64]*model.Child
}

func newFakeChildRepo() *fakeChildRepo {
	return &fakeChildRepo{children: make(map[int64]*model.Child)}
}

func (r *fakeChildRepo) GetByID(_ context.Context, id int64) (*model.Child, error) {
	c, ok := r.children[id]
	if !ok {
		return nil, nil
	}
	return c, nil
}

func (r *fakeChildRepo) GetByParentID(_ context.Context, parentID int64) ([]*model.Child, error) {
	var out []*model.Child
	for _, c := range r.children {
		if c.ParentID == parentID {
			out = append(out, c)
		}
	}
	return out, nil
}

type fakeLessonRepo struct {
	lessons map[int64]*model.Lesson
	slides  map[int64]int64 // slideID -> lessonID
}

func newFakeLessonRepo() *fakeLessonRepo {
	return &fakeLessonRepo{lessons: make(map[int64]*model.Lesson), slides: make(map[int64]int64)}
}

func (r *fakeLessonRepo) GetByID(_ context.Context, id int64) (*model.Lesson, error) {
	l, ok := r.lessons[id]
	if !ok {
		return nil, nil
	}
	return l, nil
}

func (r *fakeLessonRepo) SlideBelongsToLesson(_ context.Context, slideID, lessonID int64) (bool, error) {
	return r.slides[slideID] == lessonID, nil
}

// recordingBroadcaster копит опубликованные события для проверок
type recordingBroadcaster struct {
	mu     sync.Mutex
	events []publishedEvent
}

type publishedEvent struct {
	SessionID int64
	Event     broadcast.Event
}

func (b *recordingBroadcaster) Publish(sessionID int64, event broadcast.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, publishedEvent{SessionID: sessionID, Event: event})
}

func (b *recordingBroadcaster) byName(name string) []publishedEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []publishedEvent
	for _, e := range b.events {
		if e.Event.Name == name {
			out = append(out, e)
		}
	}
	return out
}

// testEnv собирает все сервисы поверх фейков
type testEnv struct {
	sessions     *fakeSessionRepo
	participants *fakeParticipantRepo
	grants       *fakeGrantRepo
	messages     *fakeMessageRepo
	users        *fakeUserRepo
	children     *fakeChildRepo
	lessons      *fakeLessonRepo
	bc           *recordingBroadcaster

	sessionService     *SessionService
	participantService *ParticipantService
	messageService     *MessageService
}

type fakeTokenIssuer struct{}

func (fakeTokenIssuer) IssueRoomToken(session *model.LiveSession, actor model.Actor, permissions []string, metadata map[string]any) (string, error) {
	return "room-token", nil
}

func newTestEnv() *testEnv {
	env := &testEnv{
		sessions:     newFakeSessionRepo(),
		participants: newFakeParticipantRepo(),
		grants:       newFakeGrantRepo(),
		messages:     newFakeMessageRepo(),
		users:        newFakeUserRepo(),
		children:     newFakeChildRepo(),
		lessons:      newFakeLessonRepo(),
		bc:           &recordingBroadcaster{},
	}

	logger := zap.NewNop()
	access := NewAccessService(env.grants, logger)
	env.sessionService = NewSessionService(env.sessions, env.lessons, env.users, env.bc, fakeTokenIssuer{}, logger)
	env.participantService = NewParticipantService(env.sessions, env.participants, env.children, access, env.bc, logger)
	env.messageService = NewMessageService(env.sessions, env.messages, env.children, access, env.bc, logger)

	return env
}

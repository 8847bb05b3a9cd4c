package service

import (
	"context"
	"time"

	"github.com/eduline/liveclass/internal/model"
)

// Интерфейсы хранилища, которые потребляют сервисы. Реализуются
// pgx-репозиториями из internal/repository; в тестах подменяются
// in-memory фейками.
type (
	SessionRepository interface {
		Create(ctx context.Context, s *model.LiveSession) error
		GetByID(ctx context.Context, id int64) (*model.LiveSession, error)
		ListByOrganization(ctx context.Context, orgID int64) ([]*model.LiveSession, error)
		Update(ctx context.Context, s *model.LiveSession) error
		MarkStarted(ctx context.Context, id int64) (bool, error)
		ChangeStatus(ctx context.Context, id int64, target model.SessionStatus) (bool, error)
		SetCurrentSlide(ctx context.Context, id, slideID int64) (bool, error)
		SetNavigationLock(ctx context.Context, id int64, locked bool) error
		Delete(ctx context.Context, id int64) error
		EndStale(ctx context.Context, cutoff time.Time) (int64, error)
	}

	ParticipantRepository interface {
		Upsert(ctx context.Context, sessionID, childID int64) (*model.Participant, error)
		GetByID(ctx context.Context, id int64) (*model.Participant, error)
		GetBySessionAndChild(ctx context.Context, sessionID, childID int64) (*model.Participant, error)
		ListBySession(ctx context.Context, sessionID int64) ([]*model.Participant, error)
		ListActiveBySession(ctx context.Context, sessionID int64) ([]*model.Participant, error)
		MarkLeft(ctx context.Context, sessionID, childID int64) (bool, error)
		MarkKicked(ctx context.Context, id int64) (bool, error)
		SetHandRaised(ctx context.Context, sessionID, childID int64, raised bool) (bool, error)
		LowerHandByID(ctx context.Context, id int64) (bool, error)
		SetConnectionStatus(ctx context.Context, sessionID, childID int64, status model.ConnectionStatus) error
	}

	AccessGrantRepository interface {
		GetUsableByChild(ctx context.Context, childID int64) ([]*model.AccessGrant, error)
	}

	MessageRepository interface {
		Create(ctx context.Context, m *model.SessionMessage) error
		GetByID(ctx context.Context, id int64) (*model.SessionMessage, error)
		ListBySession(ctx context.Context, sessionID int64) ([]*model.SessionMessage, error)
		MarkAnswered(ctx context.Context, id int64, answer string, answeredBy int64) (bool, error)
	}

	UserRepository interface {
		GetByID(ctx context.Context, id int64) (*model.User, error)
	}

	ChildRepository interface {
		GetByID(ctx context.Context, id int64) (*model.Child, error)
		GetByParentID(ctx context.Context, parentID int64) ([]*model.Child, error)
	}

	LessonRepository interface {
		GetByID(ctx context.Context, id int64) (*model.Lesson, error)
		SlideBelongsToLesson(ctx context.Context, slideID, lessonID int64) (bool, error)
	}
)

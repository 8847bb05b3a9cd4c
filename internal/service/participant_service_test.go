package service

import (
	"context"
	"testing"

	"github.com/eduline/liveclass/internal/broadcast"
	"github.com/eduline/liveclass/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedParent(env *testEnv, id, orgID int64, childIDs ...int64) model.Actor {
	env.users.users[id] = &model.User{ID: id, OrganizationID: orgID, Role: model.RoleParent}
	for _, childID := range childIDs {
		env.children.children[childID] = &model.Child{ID: childID, ParentID: id, Name: "Ребёнок"}
	}
	return model.Actor{ID: id, OrganizationID: orgID, Role: model.RoleParent}
}

func grantAccess(env *testEnv, childID, sessionID int64) {
	env.grants.grants[childID] = append(env.grants.grants[childID], &model.AccessGrant{
		ID:            int64(len(env.grants.grants[childID]) + 1),
		ChildID:       childID,
		Kind:          model.GrantKindCourse,
		SourceID:      500,
		SourceName:    "Математика 5 класс",
		PaymentStatus: model.PaymentStatusPaid,
		Access:        true,
		LessonIDs:     []int64{sessionID},
	})
}

func TestJoinHappyPath(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	seedTeacher(env, 1, 10)
	parent := seedParent(env, 2, 10, 50)
	session := seedSession(env, 1, 10, 100, model.SessionStatusLive)
	grantAccess(env, 50, session.ID)

	result, err := env.participantService.Join(ctx, parent, session.ID, 0)
	require.NoError(t, err)
	require.NotNil(t, result.Participant)
	assert.Equal(t, int64(50), result.Participant.ChildID)
	require.NotNil(t, result.PurchaseSource)
	assert.Equal(t, model.GrantKindCourse, result.PurchaseSource.Kind)

	events := env.bc.byName(broadcast.EventParticipantJoined)
	require.Len(t, events, 1)
	assert.Equal(t, int64(50), events[0].Event.ExcludeClientID)
}

func TestJoinNotLive(t *testing.T) {
	env := newTestEnv()
	seedTeacher(env, 1, 10)
	parent := seedParent(env, 2, 10, 50)
	session := seedSession(env, 1, 10, 100, model.SessionStatusScheduled)
	grantAccess(env, 50, session.ID)

	_, err := env.participantService.Join(context.Background(), parent, session.ID, 0)
	assert.ErrorIs(t, err, ErrSessionNotActive)
}

func TestJoinNoPurchase(t *testing.T) {
	env := newTestEnv()
	seedTeacher(env, 1, 10)
	parent := seedParent(env, 2, 10, 50)
	session := seedSession(env, 1, 10, 100, model.SessionStatusLive)

	_, err := env.participantService.Join(context.Background(), parent, session.ID, 0)
	assert.ErrorIs(t, err, ErrAccessDenied)
}

func TestJoinChildSelectionRequired(t *testing.T) {
	env := newTestEnv()
	seedTeacher(env, 1, 10)
	parent := seedParent(env, 2, 10, 50, 51)
	session := seedSession(env, 1, 10, 100, model.SessionStatusLive)
	grantAccess(env, 50, session.ID)

	_, err := env.participantService.Join(context.Background(), parent, session.ID, 0)
	assert.ErrorIs(t, err, ErrChildSelectionRequired)

	// С явным выбором ребёнка вход проходит
	result, err := env.participantService.Join(context.Background(), parent, session.ID, 50)
	require.NoError(t, err)
	assert.Equal(t, int64(50), result.Participant.ChildID)
}

func TestJoinForeignChildForbidden(t *testing.T) {
	env := newTestEnv()
	seedTeacher(env, 1, 10)
	parent := seedParent(env, 2, 10, 50)
	seedParent(env, 3, 10, 60)
	session := seedSession(env, 1, 10, 100, model.SessionStatusLive)

	_, err := env.participantService.Join(context.Background(), parent, session.ID, 60)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestJoinStaffWithoutChild(t *testing.T) {
	env := newTestEnv()
	teacher := seedTeacher(env, 1, 10)
	session := seedSession(env, 1, 10, 100, model.SessionStatusLive)

	result, err := env.participantService.Join(context.Background(), teacher, session.ID, 0)
	require.NoError(t, err)
	assert.Nil(t, result.Participant)
	assert.Empty(t, env.bc.byName(broadcast.EventParticipantJoined))
}

func TestRejoinSameParticipant(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	seedTeacher(env, 1, 10)
	parent := seedParent(env, 2, 10, 50)
	session := seedSession(env, 1, 10, 100, model.SessionStatusLive)
	grantAccess(env, 50, session.ID)

	first, err := env.participantService.Join(ctx, parent, session.ID, 0)
	require.NoError(t, err)

	require.NoError(t, env.participantService.Leave(ctx, parent, session.ID, 0))

	second, err := env.participantService.Join(ctx, parent, session.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, first.Participant.ID, second.Participant.ID)
	assert.Equal(t, model.ParticipantStatusJoined, second.Participant.Status)
	assert.Nil(t, second.Participant.LeftAt)
}

func TestLeaveIdempotent(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	seedTeacher(env, 1, 10)
	parent := seedParent(env, 2, 10, 50)
	session := seedSession(env, 1, 10, 100, model.SessionStatusLive)
	grantAccess(env, 50, session.ID)

	// Выход никогда не заходившего — не ошибка
	require.NoError(t, env.participantService.Leave(ctx, parent, session.ID, 0))

	_, err := env.participantService.Join(ctx, parent, session.ID, 0)
	require.NoError(t, err)
	require.NoError(t, env.participantService.Leave(ctx, parent, session.ID, 0))
	require.NoError(t, env.participantService.Leave(ctx, parent, session.ID, 0))
}

func TestRaiseHand(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	seedTeacher(env, 1, 10)
	parent := seedParent(env, 2, 10, 50)
	session := seedSession(env, 1, 10, 100, model.SessionStatusLive)
	grantAccess(env, 50, session.ID)

	_, err := env.participantService.Join(ctx, parent, session.ID, 0)
	require.NoError(t, err)

	require.NoError(t, env.participantService.RaiseHand(ctx, parent, session.ID, 0, true))

	stored, _ := env.participants.GetBySessionAndChild(ctx, session.ID, 50)
	assert.True(t, stored.HandRaised)
	assert.NotNil(t, stored.HandRaisedAt)

	// Сам поднявший событие не получает
	events := env.bc.byName(broadcast.EventHandRaised)
	require.Len(t, events, 1)
	assert.Equal(t, int64(50), events[0].Event.ExcludeClientID)
}

func TestRaiseHandDeniedAfterGrantRevoked(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	seedTeacher(env, 1, 10)
	parent := seedParent(env, 2, 10, 50)
	session := seedSession(env, 1, 10, 100, model.SessionStatusLive)
	grantAccess(env, 50, session.ID)

	_, err := env.participantService.Join(ctx, parent, session.ID, 0)
	require.NoError(t, err)

	// Биллинг отозвал покупку уже после входа в занятие
	delete(env.grants.grants, 50)

	err = env.participantService.RaiseHand(ctx, parent, session.ID, 0, true)
	assert.ErrorIs(t, err, ErrAccessDenied)
	assert.Empty(t, env.bc.byName(broadcast.EventHandRaised))
}

func TestKickExcludesKickedChild(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	teacher := seedTeacher(env, 1, 10)
	parent := seedParent(env, 2, 10, 50)
	session := seedSession(env, 1, 10, 100, model.SessionStatusLive)
	grantAccess(env, 50, session.ID)

	result, err := env.participantService.Join(ctx, parent, session.ID, 0)
	require.NoError(t, err)

	err = env.participantService.Kick(ctx, teacher, session.ID, result.Participant.ID, "Нарушение правил")
	require.NoError(t, err)

	stored, _ := env.participants.GetByID(ctx, result.Participant.ID)
	assert.Equal(t, model.ParticipantStatusKicked, stored.Status)

	events := env.bc.byName(broadcast.EventParticipantKicked)
	require.Len(t, events, 1)
	assert.Equal(t, int64(50), events[0].Event.ExcludeClientID)
}

func TestKickByParentForbidden(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	seedTeacher(env, 1, 10)
	parent := seedParent(env, 2, 10, 50)
	session := seedSession(env, 1, 10, 100, model.SessionStatusLive)
	grantAccess(env, 50, session.ID)

	result, err := env.participantService.Join(ctx, parent, session.ID, 0)
	require.NoError(t, err)

	err = env.participantService.Kick(ctx, parent, session.ID, result.Participant.ID, "")
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestKickedParticipantStaysKickedOnRejoinAttempt(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	teacher := seedTeacher(env, 1, 10)
	parent := seedParent(env, 2, 10, 50)
	session := seedSession(env, 1, 10, 100, model.SessionStatusLive)
	grantAccess(env, 50, session.ID)

	result, err := env.participantService.Join(ctx, parent, session.ID, 0)
	require.NoError(t, err)
	require.NoError(t, env.participantService.Kick(ctx, teacher, session.ID, result.Participant.ID, ""))

	// Повторный вход реактивирует ту же запись участника
	second, err := env.participantService.Join(ctx, parent, session.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, result.Participant.ID, second.Participant.ID)
	assert.Equal(t, model.ParticipantStatusJoined, second.Participant.Status)
}

func TestMuteAllFansOutPerParticipant(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	teacher := seedTeacher(env, 1, 10)
	parentA := seedParent(env, 2, 10, 50)
	parentB := seedParent(env, 3, 10, 60)
	session := seedSession(env, 1, 10, 100, model.SessionStatusLive)
	grantAccess(env, 50, session.ID)
	grantAccess(env, 60, session.ID)

	_, err := env.participantService.Join(ctx, parentA, session.ID, 0)
	require.NoError(t, err)
	_, err = env.participantService.Join(ctx, parentB, session.ID, 0)
	require.NoError(t, err)

	require.NoError(t, env.participantService.MuteAll(ctx, teacher, session.ID, true))

	events := env.bc.byName(broadcast.EventParticipantMuted)
	require.Len(t, events, 2)
	for _, e := range events {
		assert.Equal(t, true, e.Event.Payload["muted"])
		assert.Equal(t, broadcast.StaffClientID(teacher.ID), e.Event.ExcludeClientID)
	}
}

func TestResolveClientKey(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	teacher := seedTeacher(env, 1, 10)
	parent := seedParent(env, 2, 10, 50)
	session := seedSession(env, 1, 10, 100, model.SessionStatusLive)

	key, err := env.participantService.ResolveClientKey(ctx, teacher, session.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(-1), key)

	key, err = env.participantService.ResolveClientKey(ctx, parent, session.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(50), key)
}

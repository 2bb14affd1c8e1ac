package app

import (
	"fmt"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"aichorus/internal/model"
	"aichorus/internal/repository"
)

// newTestDB opens an isolated in-memory database per test. cache=shared keeps
// it alive across the pooled connections gorm opens.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.Session{}, &model.Message{}, &model.Persona{}, &model.SessionMember{},
	))
	return db
}

func seedSession(t *testing.T, db *gorm.DB, topic string) uint {
	t.Helper()

	session := model.Session{Topic: topic}
	require.NoError(t, db.Create(&session).Error)
	return session.ID
}

func seedPersona(t *testing.T, db *gorm.DB, id string, role model.BusinessRole) *model.Persona {
	t.Helper()

	persona := model.Persona{
		ID:           id,
		Name:         "persona " + id,
		Personality:  "a test personality",
		ModelName:    "test-model",
		BusinessRole: role,
	}
	require.NoError(t, db.Create(&persona).Error)
	return &persona
}

func newMemberService(db *gorm.DB, memberCap int) *MemberService {
	return NewMemberService(
		repository.NewSessionRepository(db),
		repository.NewPersonaRepository(db),
		repository.NewMemberRepository(db),
		memberCap,
	)
}

func TestAddMember(t *testing.T) {
	db := newTestDB(t)
	sessionID := seedSession(t, db, "roster")
	seedPersona(t, db, "p1", model.RoleAnswer)

	svc := newMemberService(db, 0)
	require.NoError(t, svc.AddMember(sessionID, "p1"))

	members, err := svc.ListMembers(sessionID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "p1", members[0].ID)
}

func TestAddMemberTwice(t *testing.T) {
	db := newTestDB(t)
	sessionID := seedSession(t, db, "roster")
	seedPersona(t, db, "p1", model.RoleAnswer)

	svc := newMemberService(db, 0)
	require.NoError(t, svc.AddMember(sessionID, "p1"))

	err := svc.AddMember(sessionID, "p1")
	assert.ErrorIs(t, err, ErrAlreadyMember)
}

func TestAddMemberUnknownSession(t *testing.T) {
	db := newTestDB(t)
	seedPersona(t, db, "p1", model.RoleAnswer)

	svc := newMemberService(db, 0)
	assert.ErrorIs(t, svc.AddMember(999, "p1"), ErrSessionNotFound)
}

func TestAddMemberUnknownPersona(t *testing.T) {
	db := newTestDB(t)
	sessionID := seedSession(t, db, "roster")

	svc := newMemberService(db, 0)
	assert.ErrorIs(t, svc.AddMember(sessionID, "ghost"), ErrPersonaNotFound)
}

func TestAddMemberInvalidInput(t *testing.T) {
	svc := newMemberService(newTestDB(t), 0)

	assert.ErrorIs(t, svc.AddMember(0, "p1"), ErrInvalidInput)
	assert.ErrorIs(t, svc.AddMember(1, ""), ErrInvalidInput)
}

func TestAddMemberCap(t *testing.T) {
	db := newTestDB(t)
	sessionID := seedSession(t, db, "full house")
	for i := 0; i < 4; i++ {
		seedPersona(t, db, fmt.Sprintf("p%d", i), model.RoleAnswer)
	}

	svc := newMemberService(db, 3)
	for i := 0; i < 3; i++ {
		require.NoError(t, svc.AddMember(sessionID, fmt.Sprintf("p%d", i)))
	}

	err := svc.AddMember(sessionID, "p3")
	assert.ErrorIs(t, err, ErrCapExceeded)
}

func TestAddMembersBatchCapRejectsWhole(t *testing.T) {
	db := newTestDB(t)
	sessionID := seedSession(t, db, "batch")
	for i := 0; i < 6; i++ {
		seedPersona(t, db, fmt.Sprintf("p%d", i), model.RoleAnswer)
	}

	svc := newMemberService(db, 5)
	for i := 0; i < 3; i++ {
		require.NoError(t, svc.AddMember(sessionID, fmt.Sprintf("p%d", i)))
	}

	_, err := svc.AddMembers(sessionID, []string{"p3", "p4", "p5"})
	assert.ErrorIs(t, err, ErrCapExceeded)

	// Nothing from the rejected batch got in.
	members, err := svc.ListMembers(sessionID)
	require.NoError(t, err)
	assert.Len(t, members, 3)
}

func TestAddMembersPartialFailure(t *testing.T) {
	db := newTestDB(t)
	sessionID := seedSession(t, db, "batch")
	seedPersona(t, db, "p1", model.RoleAnswer)
	seedPersona(t, db, "p2", model.RoleQuestion)

	svc := newMemberService(db, 0)
	require.NoError(t, svc.AddMember(sessionID, "p1"))

	results, err := svc.AddMembers(sessionID, []string{"p1", "p2"})
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "p1", results[0].PersonaID)
	assert.False(t, results[0].Success)
	assert.Equal(t, ErrAlreadyMember.Error(), results[0].Reason)

	assert.Equal(t, "p2", results[1].PersonaID)
	assert.True(t, results[1].Success)
	assert.Empty(t, results[1].Reason)

	members, err := svc.ListMembers(sessionID)
	require.NoError(t, err)
	assert.Len(t, members, 2)
}

func TestAddMembersEmptyBatch(t *testing.T) {
	svc := newMemberService(newTestDB(t), 0)

	_, err := svc.AddMembers(1, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRemoveMember(t *testing.T) {
	db := newTestDB(t)
	sessionID := seedSession(t, db, "roster")
	seedPersona(t, db, "p1", model.RoleAnswer)

	svc := newMemberService(db, 0)
	require.NoError(t, svc.AddMember(sessionID, "p1"))
	require.NoError(t, svc.RemoveMember(sessionID, "p1"))

	assert.ErrorIs(t, svc.RemoveMember(sessionID, "p1"), ErrNotAMember)

	members, err := svc.ListMembers(sessionID)
	require.NoError(t, err)
	assert.Empty(t, members)
}

func TestListMembersUnknownSession(t *testing.T) {
	svc := newMemberService(newTestDB(t), 0)

	_, err := svc.ListMembers(42)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

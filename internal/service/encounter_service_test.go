package service

import (
	"context"
	"errors"
	"testing"

	"amanai-be/internal/dto"
	"amanai-be/internal/pkg/logger"
	"amanai-be/pkg/apperror"
	"amanai-be/pkg/events"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEncounterService(t *testing.T) (IEncounterService, *events.RecordingPublisher) {
	t.Helper()
	pub := &events.RecordingPublisher{}
	svc := NewEncounterService(newTestFactory(t), pub, logger.NewNopLogger())
	svc.(*encounterService).now = newTestClock().Now
	return svc, pub
}

func TestStartRejectsSecondOpenEncounter(t *testing.T) {
	ctx := context.Background()
	svc, _ := newEncounterService(t)

	first, err := svc.Start(ctx, "doc-1", &dto.StartEncounterRequest{})
	require.NoError(t, err)
	assert.Equal(t, "active", first.Status)
	require.NotNil(t, first.LastActivityAt)

	_, err = svc.Start(ctx, "doc-1", &dto.StartEncounterRequest{})
	require.Error(t, err)
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))

	var open *OpenEncounterError
	require.True(t, errors.As(err, &open))
	assert.Equal(t, first.Id, open.ExistingId)

	// other owners are unaffected
	_, err = svc.Start(ctx, "doc-2", nil)
	assert.NoError(t, err)
}

func TestPausePersistsStateAndResumeKeepsIt(t *testing.T) {
	ctx := context.Background()
	svc, pub := newEncounterService(t)

	enc, err := svc.Start(ctx, "doc-1", &dto.StartEncounterRequest{
		State: map[string]interface{}{"conversation_history_ref": "hist-1"},
	})
	require.NoError(t, err)

	snapshot := map[string]interface{}{
		"flow_step":                "recording",
		"elapsed_seconds":          float64(42),
		"speaker_labels":           map[string]interface{}{"SPEAKER_0": "Provider"},
		"messages":                 []interface{}{"first"},
		"conversation_history_ref": nil,
	}
	paused, err := svc.Pause(ctx, "doc-1", enc.Id, &dto.PauseEncounterRequest{State: snapshot})
	require.NoError(t, err)
	assert.Equal(t, "paused", paused.Status)
	require.NotNil(t, paused.PausedAt)
	assert.Equal(t, *paused.PausedAt, *paused.LastActivityAt)

	resumed, err := svc.Resume(ctx, "doc-1", enc.Id)
	require.NoError(t, err)
	assert.Equal(t, "active", resumed.Status)
	require.NotNil(t, resumed.ResumedAt)

	got, err := svc.Get(ctx, "doc-1", enc.Id)
	require.NoError(t, err)
	assert.Equal(t, "recording", got.State["flow_step"])
	assert.Equal(t, float64(42), got.State["elapsed_seconds"])
	assert.Equal(t, map[string]interface{}{"SPEAKER_0": "Provider"}, got.State["speaker_labels"])
	assert.Equal(t, []interface{}{"first"}, got.State["messages"])
	// null values in an update never erase stored keys
	assert.Equal(t, "hist-1", got.State["conversation_history_ref"])

	assert.Equal(t, []string{events.EncounterStarted, events.EncounterPaused, events.EncounterResumed}, pub.Types())
}

func TestInvalidTransitionsConflict(t *testing.T) {
	ctx := context.Background()
	svc, _ := newEncounterService(t)

	enc, err := svc.Start(ctx, "doc-1", nil)
	require.NoError(t, err)

	_, err = svc.Resume(ctx, "doc-1", enc.Id)
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))
	assert.Equal(t, "Only paused encounters can be resumed", apperror.MessageOf(err))

	_, err = svc.Pause(ctx, "doc-1", enc.Id, nil)
	require.NoError(t, err)

	_, err = svc.Pause(ctx, "doc-1", enc.Id, nil)
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))
	assert.Equal(t, "Only active encounters can be paused", apperror.MessageOf(err))

	_, err = svc.AppendMessage(ctx, "doc-1", enc.Id, &dto.AppendMessageRequest{Content: "hello"})
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))
	assert.Equal(t, "Cannot add messages unless encounter is active", apperror.MessageOf(err))
}

func TestOwnershipAndMissingEncounter(t *testing.T) {
	ctx := context.Background()
	svc, _ := newEncounterService(t)

	enc, err := svc.Start(ctx, "doc-1", nil)
	require.NoError(t, err)

	_, err = svc.Get(ctx, "doc-2", enc.Id)
	assert.Equal(t, apperror.KindForbidden, apperror.KindOf(err))
	assert.Equal(t, "Encounter does not belong to this user", apperror.MessageOf(err))

	_, err = svc.Pause(ctx, "doc-2", enc.Id, nil)
	assert.Equal(t, apperror.KindForbidden, apperror.KindOf(err))

	_, err = svc.Get(ctx, "doc-1", uuid.New())
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
	assert.Equal(t, "Encounter not found", apperror.MessageOf(err))
}

func TestTerminalTransitionsAreIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, pub := newEncounterService(t)

	enc, err := svc.Start(ctx, "doc-1", nil)
	require.NoError(t, err)

	done, err := svc.Complete(ctx, "doc-1", enc.Id)
	require.NoError(t, err)
	assert.Equal(t, "completed", done.Status)

	again, err := svc.Complete(ctx, "doc-1", enc.Id)
	require.NoError(t, err)
	assert.Equal(t, "completed", again.Status)

	cancelled, err := svc.Cancel(ctx, "doc-1", enc.Id)
	require.NoError(t, err)
	assert.Equal(t, "completed", cancelled.Status)

	assert.Equal(t, []string{events.EncounterStarted, events.EncounterCompleted}, pub.Types())

	// a terminal encounter no longer blocks a new one
	_, err = svc.Start(ctx, "doc-1", nil)
	assert.NoError(t, err)
}

func TestCancelFromPaused(t *testing.T) {
	ctx := context.Background()
	svc, _ := newEncounterService(t)

	enc, err := svc.Start(ctx, "doc-1", nil)
	require.NoError(t, err)
	_, err = svc.Pause(ctx, "doc-1", enc.Id, nil)
	require.NoError(t, err)

	cancelled, err := svc.Cancel(ctx, "doc-1", enc.Id)
	require.NoError(t, err)
	assert.Equal(t, "cancelled", cancelled.Status)
}

func TestAppendMessage(t *testing.T) {
	ctx := context.Background()
	svc, pub := newEncounterService(t)

	enc, err := svc.Start(ctx, "doc-1", &dto.StartEncounterRequest{
		State: map[string]interface{}{"context": map[string]interface{}{"patient": "A.B."}},
	})
	require.NoError(t, err)

	_, err = svc.AppendMessage(ctx, "doc-1", enc.Id, &dto.AppendMessageRequest{Content: "Здравствуйте"})
	require.NoError(t, err)

	got, err := svc.AppendMessage(ctx, "doc-1", enc.Id, &dto.AppendMessageRequest{
		Content:  "Hello",
		Role:     "assistant",
		FlowStep: "complaints",
		Context:  map[string]interface{}{"lang": "ru"},
	})
	require.NoError(t, err)

	messages, ok := got.State["messages"].([]interface{})
	require.True(t, ok)
	require.Len(t, messages, 2)
	first := messages[0].(map[string]interface{})
	second := messages[1].(map[string]interface{})
	assert.Equal(t, "user", first["role"])
	assert.Equal(t, "Здравствуйте", first["content"])
	assert.NotEmpty(t, first["timestamp"])
	assert.Equal(t, "assistant", second["role"])

	assert.Equal(t, "complaints", got.State["flow_step"])
	assert.Equal(t, map[string]interface{}{"patient": "A.B.", "lang": "ru"}, got.State["context"])

	assert.Contains(t, pub.Types(), events.EncounterMessageAppended)
}

func TestListOrderingAndActive(t *testing.T) {
	ctx := context.Background()
	svc, _ := newEncounterService(t)

	_, err := svc.Active(ctx, "doc-1")
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
	assert.Equal(t, "No active or paused encounters found", apperror.MessageOf(err))

	old, err := svc.Start(ctx, "doc-1", nil)
	require.NoError(t, err)
	_, err = svc.Complete(ctx, "doc-1", old.Id)
	require.NoError(t, err)

	current, err := svc.Start(ctx, "doc-1", nil)
	require.NoError(t, err)
	_, err = svc.Pause(ctx, "doc-1", current.Id, nil)
	require.NoError(t, err)

	all, err := svc.List(ctx, "doc-1", &dto.ListEncountersRequest{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, current.Id, all[0].Id)
	assert.Equal(t, old.Id, all[1].Id)

	_, err = svc.Cancel(ctx, "doc-1", current.Id)
	require.NoError(t, err)
	open, err := svc.List(ctx, "doc-1", &dto.ListEncountersRequest{Statuses: []string{"active", "paused"}})
	require.NoError(t, err)
	assert.Empty(t, open)

	completed, err := svc.List(ctx, "doc-1", &dto.ListEncountersRequest{Statuses: []string{"completed"}})
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, old.Id, completed[0].Id)

	_, err = svc.List(ctx, "doc-1", &dto.ListEncountersRequest{Statuses: []string{"archived"}})
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
}

func TestActiveReturnsOpenEncounter(t *testing.T) {
	ctx := context.Background()
	svc, _ := newEncounterService(t)

	enc, err := svc.Start(ctx, "doc-1", nil)
	require.NoError(t, err)
	_, err = svc.Pause(ctx, "doc-1", enc.Id, nil)
	require.NoError(t, err)

	active, err := svc.Active(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, enc.Id, active.Id)
	assert.Equal(t, "paused", active.Status)
}

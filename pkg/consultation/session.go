// Package consultation ties one recording, its interruption monitor and its
// encounter together into the flow a doctor drives: start, pause, resume,
// finish or cancel.
package consultation

import (
	"context"
	"errors"
	"sync"

	"amanai-be/pkg/analysis"
	"amanai-be/pkg/apperror"
	"amanai-be/pkg/encounter"
	"amanai-be/pkg/recording"
	"amanai-be/pkg/speaker"
)

const FlowStepRecording = "recording"

// Recorder is the subset of *recording.Controller the session drives.
type Recorder interface {
	Start(ctx context.Context) error
	Pause() (recording.Snapshot, error)
	Resume(ctx context.Context) error
	Restore(snapshot recording.Snapshot) error
	Stop(ctx context.Context) (*recording.Result, error)
	Close() error
	Status() recording.Status
	Elapsed() int
	Err() error
	Labels() *speaker.Labels
}

// Encounters is the subset of *encounter.Manager the session drives.
type Encounters interface {
	LoadActive(ctx context.Context) (*encounter.Encounter, error)
	Start(ctx context.Context, initial encounter.State) (*encounter.Encounter, error)
	Pause(ctx context.Context, snapshot encounter.State) (*encounter.Encounter, error)
	Resume(ctx context.Context) (*encounter.Encounter, error)
	Complete(ctx context.Context) (*encounter.Encounter, error)
	Cancel(ctx context.Context) (*encounter.Encounter, error)
	Status() encounter.Status
}

// Watcher is the subset of *recording.Monitor the session drives.
type Watcher interface {
	Start(ctx context.Context)
	Stop()
}

// View is what a UI renders.
type View struct {
	Status          recording.Status
	IsProcessing    bool
	ElapsedSeconds  int
	Error           string
	EncounterStatus encounter.Status
	EncounterError  string
}

type Session struct {
	recorder   Recorder
	encounters Encounters
	watcher    Watcher
	lang       string

	mu           sync.Mutex
	processing   bool
	err          error
	encounterErr error
	outcome      *analysis.Outcome
}

func NewSession(recorder Recorder, encounters Encounters, watcher Watcher, lang string) *Session {
	if lang == "" {
		lang = apperror.LangRussian
	}
	return &Session{recorder: recorder, encounters: encounters, watcher: watcher, lang: lang}
}

// Begin resumes a paused encounter when one exists, otherwise starts both a
// new encounter and a fresh recording.
func (s *Session) Begin(ctx context.Context) error {
	enc, err := s.encounters.LoadActive(ctx)
	s.noteEncounter(err)

	if enc != nil && enc.Status == encounter.StatusPaused {
		if err := s.recorder.Restore(snapshotFromState(enc.State)); err != nil {
			return s.fail(err)
		}
		return s.Resume(ctx)
	}

	if enc == nil {
		_, err := s.encounters.Start(ctx, encounter.State{encounter.StateFlowStep: FlowStepRecording})
		s.noteEncounter(err)
	}

	if err := s.recorder.Start(ctx); err != nil {
		return s.fail(err)
	}
	s.clearErr()
	s.watch(ctx)
	return nil
}

// Pause freezes the recording and persists its snapshot on the encounter.
func (s *Session) Pause(ctx context.Context) error {
	snapshot, err := s.recorder.Pause()
	if err != nil {
		return s.fail(err)
	}
	s.unwatch()

	_, err = s.encounters.Pause(ctx, stateFromSnapshot(snapshot))
	s.noteEncounter(err)
	return nil
}

func (s *Session) Resume(ctx context.Context) error {
	if s.encounters.Status() == encounter.StatusPaused {
		_, err := s.encounters.Resume(ctx)
		s.noteEncounter(err)
	}

	if err := s.recorder.Resume(ctx); err != nil {
		return s.fail(err)
	}
	s.clearErr()
	s.watch(ctx)
	return nil
}

// Finish stops the recording, waits for analysis and completes the encounter.
func (s *Session) Finish(ctx context.Context) (*analysis.Outcome, error) {
	s.unwatch()

	s.mu.Lock()
	s.processing = true
	s.mu.Unlock()

	res, err := s.recorder.Stop(ctx)

	s.mu.Lock()
	s.processing = false
	s.mu.Unlock()

	if err != nil {
		return nil, s.fail(err)
	}

	_, encErr := s.encounters.Complete(ctx)
	s.noteEncounter(encErr)

	s.mu.Lock()
	s.outcome = res.Outcome
	s.err = nil
	s.mu.Unlock()
	return res.Outcome, nil
}

// Cancel discards the recording and cancels the encounter.
func (s *Session) Cancel(ctx context.Context) error {
	s.unwatch()
	_ = s.recorder.Close()

	if s.encounters.Status() == encounter.StatusNone {
		return nil
	}
	_, err := s.encounters.Cancel(ctx)
	s.noteEncounter(err)
	return err
}

// OverrideSpeaker pins a role; it is carried into the next pause snapshot.
func (s *Session) OverrideSpeaker(speakerID string, role speaker.Role) error {
	if err := s.recorder.Labels().Override(speakerID, role); err != nil {
		return apperror.Validation(err.Error())
	}
	return nil
}

func (s *Session) Labeled() []speaker.LabeledLine {
	s.mu.Lock()
	outcome := s.outcome
	s.mu.Unlock()
	if outcome == nil {
		return nil
	}
	return s.recorder.Labels().Label(outcome.Lines)
}

func (s *Session) Outcome() *analysis.Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outcome
}

func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		Status:          s.recorder.Status(),
		IsProcessing:    s.processing,
		ElapsedSeconds:  s.recorder.Elapsed(),
		EncounterStatus: s.encounters.Status(),
	}
	if s.err != nil {
		v.Error = s.describe(s.err)
	}
	if s.encounterErr != nil {
		v.EncounterError = s.describe(s.encounterErr)
	}
	return v
}

// Close releases the microphone on every exit path.
func (s *Session) Close() error {
	s.unwatch()
	return s.recorder.Close()
}

func (s *Session) watch(ctx context.Context) {
	if s.watcher != nil {
		s.watcher.Start(ctx)
	}
}

func (s *Session) unwatch() {
	if s.watcher != nil {
		s.watcher.Stop()
	}
}

func (s *Session) fail(err error) error {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
	return err
}

func (s *Session) clearErr() {
	s.mu.Lock()
	s.err = nil
	s.mu.Unlock()
}

func (s *Session) noteEncounter(err error) {
	s.mu.Lock()
	s.encounterErr = err
	s.mu.Unlock()
}

// describe renders err in the session language.
func (s *Session) describe(err error) string {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return apperror.LocalizeKind(apperror.KindServiceUnavailable, s.lang)
	}
	return apperror.Localize(err, s.lang)
}

func stateFromSnapshot(snapshot recording.Snapshot) encounter.State {
	labels := make(map[string]any, len(snapshot.SpeakerLabels))
	for id, role := range snapshot.SpeakerLabels {
		labels[id] = string(role)
	}
	return encounter.State{
		encounter.StateFlowStep:       FlowStepRecording,
		encounter.StateElapsedSeconds: snapshot.ElapsedSeconds,
		encounter.StateSpeakerLabels:  labels,
	}
}

func snapshotFromState(state encounter.State) recording.Snapshot {
	labels := map[string]speaker.Role{}
	for id, role := range state.SpeakerLabels() {
		labels[id] = speaker.Role(role)
	}
	return recording.Snapshot{
		ElapsedSeconds: state.ElapsedSeconds(),
		SpeakerLabels:  labels,
	}
}

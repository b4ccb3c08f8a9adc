package interview

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-cv-bot/internal/document"
	"go-cv-bot/internal/models"
)

type fakePolisher struct {
	summary, description string
}

func (f fakePolisher) PolishSummary(context.Context, string) string     { return f.summary }
func (f fakePolisher) PolishDescription(context.Context, string) string { return f.description }

type fakeAssembler struct {
	res   *document.Result
	err   error
	calls int
	got   *models.Draft
}

func (f *fakeAssembler) Assemble(_ context.Context, _ int64, d *models.Draft) (*document.Result, error) {
	f.calls++
	f.got = d.Clone()
	return f.res, f.err
}

type fakeStore struct {
	saved map[int64]*models.Draft
}

func (f *fakeStore) Save(_ context.Context, id int64, d *models.Draft) error {
	if f.saved == nil {
		f.saved = map[int64]*models.Draft{}
	}
	f.saved[id] = d.Clone()
	return nil
}

type fakeNotifier struct {
	started   int
	completed []bool
}

func (f *fakeNotifier) SessionStarted(context.Context, int64) { f.started++ }
func (f *fakeNotifier) SessionCompleted(_ context.Context, _ int64, _ string, ok bool) {
	f.completed = append(f.completed, ok)
}

type fakeTracker struct {
	actions []models.ActionType
}

func (f *fakeTracker) Track(_ context.Context, _ int64, a models.ActionType, _ map[string]any) {
	f.actions = append(f.actions, a)
}

// run feeds events in order and fails the test if any lands in an unexpected state.
func run(t *testing.T, m *Machine, s *Session, events ...Event) []Message {
	t.Helper()
	var last []Message
	for _, ev := range events {
		_, last = m.Handle(context.Background(), s, ev)
	}
	return last
}

func toReview(t *testing.T, m *Machine) *Session {
	t.Helper()
	s, _ := m.Start(context.Background(), 7)
	run(t, m, s,
		Command(CommandSkip),
		Text("Ann Lee"),
		Text("ann@example.com"),
		Text("+251 900"),
		Text("I build things"),
		Text("Engineer - Acme - 2020-2022 - Built things"),
		Action(ActionFinishExperience),
		Text("BSc - AAU - 2016-2020"),
		Action(ActionFinishEducation),
		Text("Go, Rust"),
		Text("English"),
		Text("Bot - CV bot - Go"),
		Action(ActionFinishProjects),
	)
	require.Equal(t, StateReview, s.State)
	return s
}

func TestMachineHappyPath(t *testing.T) {
	dir := t.TempDir()
	asm := &fakeAssembler{res: &document.Result{
		PDFPath:  filepath.Join(dir, "Ann_Lee_CV.pdf"),
		DOCXPath: filepath.Join(dir, "Ann_Lee_CV.docx"),
	}}
	store := &fakeStore{}
	notifier := &fakeNotifier{}
	tracker := &fakeTracker{}
	m := NewMachine(Deps{Assembler: asm, Store: store, Notifier: notifier, Tracker: tracker})

	s := toReview(t, m)
	d := s.Draft
	assert.Equal(t, "Ann Lee", d.Name)
	assert.Equal(t, "ann@example.com", d.Email)
	assert.Equal(t, "+251 900", d.Phone)
	assert.Equal(t, "I build things", d.Summary)
	assert.Equal(t, []models.Experience{{Role: "Engineer", Company: "Acme", Years: "2020-2022", Description: "Built things"}}, d.Experience)
	assert.Equal(t, []string{"Go", "Rust"}, d.Skills)
	assert.Equal(t, []string{"English"}, d.Languages)
	require.Len(t, d.Projects, 1)

	state, out := m.Handle(context.Background(), s, Action(ActionGenerate))
	assert.Equal(t, StateSelectTemplate, state)
	require.Len(t, out, 1)
	assert.Equal(t, TemplateMenu(), out[0].Menu)

	state, out = m.Handle(context.Background(), s, Action("template_modern"))
	assert.Equal(t, StateDone, state)
	assert.True(t, state.Terminal())
	assert.Equal(t, 1, asm.calls)
	assert.Equal(t, "modern", asm.got.Template)

	var files []string
	for _, msg := range out {
		if msg.File != nil {
			files = append(files, msg.File.Name)
			assert.True(t, msg.File.Temporary)
		}
	}
	assert.Equal(t, []string{"Ann_Lee_CV.pdf", "Ann_Lee_CV.docx"}, files)
	assert.Equal(t, msgCVReady, out[len(out)-1].Text)

	assert.Equal(t, "Ann Lee", store.saved[7].Name)
	assert.Equal(t, 1, notifier.started)
	assert.Equal(t, []bool{true}, notifier.completed)
	assert.Contains(t, tracker.actions, models.ActionSessionStarted)
	assert.Contains(t, tracker.actions, models.ActionProfileCompleted)
	assert.Contains(t, tracker.actions, models.ActionCVGenerated)
}

func TestMachineAddAnotherAppends(t *testing.T) {
	m := NewMachine(Deps{})
	s := &Session{UserID: 1, Draft: models.NewDraft(), State: StateExperience}

	for i := 0; i < 3; i++ {
		state, out := m.Handle(context.Background(), s, Text("Dev - Co - 2020 - Work"))
		require.Equal(t, StateExperienceChoice, state)
		assert.Equal(t, sectionMenu(ActionAddExperience, ActionFinishExperience), out[0].Menu)
		assert.Len(t, s.Draft.Experience, i+1)

		state, _ = m.Handle(context.Background(), s, Action(ActionAddExperience))
		require.Equal(t, StateExperience, state)
	}
	run(t, m, s, Text("Lead - Co - 2023 - More work"))
	assert.Len(t, s.Draft.Experience, 4)
	assert.Equal(t, "Lead", s.Draft.Experience[3].Role)
}

func TestMachineRejectsMalformedExperience(t *testing.T) {
	m := NewMachine(Deps{})
	s := &Session{UserID: 1, Draft: models.NewDraft(), State: StateExperience}
	before := s.Draft.Clone()

	state, out := m.Handle(context.Background(), s, Text("Engineer - Acme"))
	assert.Equal(t, StateExperience, state)
	assert.Equal(t, corrections[StateExperience], out[0].Text)
	assert.Equal(t, before, s.Draft)
}

func TestMachinePolishing(t *testing.T) {
	tests := []struct {
		name     string
		polisher fakePolisher
		summary  string
		desc     string
	}{
		{name: "polished", polisher: fakePolisher{summary: "Seasoned builder.", description: "Delivered things."}, summary: "Seasoned builder.", desc: "Delivered things."},
		{name: "service failed", polisher: fakePolisher{}, summary: "I build", desc: "Built things"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMachine(Deps{Polisher: tt.polisher})
			s := &Session{UserID: 1, Draft: models.NewDraft(), State: StateSummary}
			run(t, m, s, Text("I build"), Text("Engineer - Acme - 2020-2022 - Built things"))

			assert.Equal(t, tt.summary, s.Draft.Summary)
			assert.Equal(t, tt.desc, s.Draft.Experience[0].Description)
		})
	}
}

func TestMachineEditSingleFieldReturnsToReview(t *testing.T) {
	m := NewMachine(Deps{})
	s := toReview(t, m)
	expBefore := append([]models.Experience{}, s.Draft.Experience...)

	state, out := m.Handle(context.Background(), s, Action(ActionEditEmail))
	assert.Equal(t, StateEmail, state)
	assert.True(t, s.Editing)
	assert.True(t, out[0].Replace)

	state, out = m.Handle(context.Background(), s, Text("new@example.com"))
	assert.Equal(t, StateReview, state)
	assert.False(t, s.Editing)
	assert.Equal(t, "new@example.com", s.Draft.Email)
	assert.Equal(t, expBefore, s.Draft.Experience)
	assert.Equal(t, RenderReview(s.Draft), out[0].Text)
	assert.Equal(t, ReviewMenu(), out[0].Menu)
}

func TestMachineEditListResetsSection(t *testing.T) {
	tests := []struct {
		action string
		state  State
		input  string
		length func(d *models.Draft) int
	}{
		{ActionEditExperience, StateExperience, "CTO - Beta - 2023 - Led", func(d *models.Draft) int { return len(d.Experience) }},
		{ActionEditEducation, StateEducation, "MSc - MIT - 2021", func(d *models.Draft) int { return len(d.Education) }},
		{ActionEditProjects, StateProjects, "Site - Portfolio - HTML", func(d *models.Draft) int { return len(d.Projects) }},
	}
	for _, tt := range tests {
		t.Run(tt.action, func(t *testing.T) {
			m := NewMachine(Deps{})
			s := toReview(t, m)

			state, _ := m.Handle(context.Background(), s, Action(tt.action))
			require.Equal(t, tt.state, state)
			assert.Equal(t, 0, tt.length(s.Draft))

			state, _ = m.Handle(context.Background(), s, Text(tt.input))
			assert.Equal(t, StateReview, state)
			assert.Equal(t, 1, tt.length(s.Draft))
		})
	}
}

func TestMachineGenerationFailureReturnsToReview(t *testing.T) {
	asm := &fakeAssembler{err: errors.New("both renderers failed")}
	notifier := &fakeNotifier{}
	m := NewMachine(Deps{Assembler: asm, Notifier: notifier})
	s := toReview(t, m)

	run(t, m, s, Action(ActionGenerate))
	state, out := m.Handle(context.Background(), s, Action("template_professional"))

	assert.Equal(t, StateReview, state)
	assert.Equal(t, "Ann Lee", s.Draft.Name)
	require.Len(t, out, 3)
	assert.Equal(t, msgGenerateFail, out[1].Text)
	assert.Equal(t, ReviewMenu(), out[2].Menu)
	assert.Equal(t, []bool{false}, notifier.completed)
}

func TestMachinePartialGeneration(t *testing.T) {
	asm := &fakeAssembler{res: &document.Result{DOCXPath: "/tmp/x/Ann_Lee_CV.docx", PDFErr: errors.New("no browser")}}
	m := NewMachine(Deps{Assembler: asm})
	s := toReview(t, m)

	run(t, m, s, Action(ActionGenerate))
	state, out := m.Handle(context.Background(), s, Action("template_creative"))

	assert.Equal(t, StateDone, state)
	var files int
	for _, msg := range out {
		if msg.File != nil {
			files++
		}
	}
	assert.Equal(t, 1, files)
}

func TestMachineUnknownTemplateFallsBack(t *testing.T) {
	asm := &fakeAssembler{res: &document.Result{PDFPath: "a.pdf", DOCXPath: "a.docx"}}
	m := NewMachine(Deps{Assembler: asm})
	s := toReview(t, m)

	run(t, m, s, Action(ActionGenerate), Action("template_retro"))
	assert.Equal(t, models.DefaultTemplate, asm.got.Template)
}

func TestMachinePhoto(t *testing.T) {
	t.Run("upload", func(t *testing.T) {
		m := NewMachine(Deps{})
		s, _ := m.Start(context.Background(), 1)
		state, _ := m.Handle(context.Background(), s, Photo("/tmp/p.jpg"))
		assert.Equal(t, StateName, state)
		assert.Equal(t, "/tmp/p.jpg", s.Draft.PhotoPath)
	})
	t.Run("download failed", func(t *testing.T) {
		m := NewMachine(Deps{})
		s, _ := m.Start(context.Background(), 1)
		state, out := m.Handle(context.Background(), s, Event{Kind: EventPhoto, Err: errors.New("timeout")})
		assert.Equal(t, StatePhoto, state)
		assert.Equal(t, msgPhotoFail, out[0].Text)
		assert.Empty(t, s.Draft.PhotoPath)
	})
	t.Run("skip button", func(t *testing.T) {
		m := NewMachine(Deps{})
		s, _ := m.Start(context.Background(), 1)
		state, out := m.Handle(context.Background(), s, Action(ActionSkipPhoto))
		assert.Equal(t, StateName, state)
		assert.True(t, out[0].Replace)
	})
	t.Run("text instead of photo", func(t *testing.T) {
		m := NewMachine(Deps{})
		s, _ := m.Start(context.Background(), 1)
		state, _ := m.Handle(context.Background(), s, Text("hello"))
		assert.Equal(t, StatePhoto, state)
	})
}

func TestMachineCancelRemovesPhoto(t *testing.T) {
	photo := filepath.Join(t.TempDir(), "photo_1.jpg")
	require.NoError(t, os.WriteFile(photo, []byte("jpg"), 0o644))

	tracker := &fakeTracker{}
	m := NewMachine(Deps{Tracker: tracker})
	s, _ := m.Start(context.Background(), 1)
	run(t, m, s, Photo(photo), Text("Ann"))

	state, out := m.Handle(context.Background(), s, Command(CommandCancel))
	assert.Equal(t, StateCancelled, state)
	assert.Equal(t, msgCancelled, out[0].Text)
	assert.NoFileExists(t, photo)
	assert.Contains(t, tracker.actions, models.ActionSessionCancelled)

	state, out = m.Handle(context.Background(), s, Text("late"))
	assert.Equal(t, StateCancelled, state)
	assert.Nil(t, out)
}

func TestMachineChoiceRequiresButtons(t *testing.T) {
	m := NewMachine(Deps{})
	s := &Session{UserID: 1, Draft: models.NewDraft(), State: StateEducationChoice}

	state, out := m.Handle(context.Background(), s, Text("next"))
	assert.Equal(t, StateEducationChoice, state)
	assert.Equal(t, msgUseButtons, out[0].Text)

	state, _ = m.Handle(context.Background(), s, Action(ActionAddProject))
	assert.Equal(t, StateEducationChoice, state)
}

func TestMachineDiscard(t *testing.T) {
	photo := filepath.Join(t.TempDir(), "photo_7.jpg")
	require.NoError(t, os.WriteFile(photo, []byte("jpg"), 0o644))

	m := NewMachine(Deps{})
	s, _ := m.Start(context.Background(), 7)
	run(t, m, s, Photo(photo))

	m.Discard(s, "expired")
	assert.Equal(t, StateCancelled, s.State)
	assert.NoFileExists(t, photo)

	state, out := m.Handle(context.Background(), s, Text("hello"))
	assert.Equal(t, StateCancelled, state)
	assert.Empty(t, out)
}

package interview

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"

	"go.uber.org/zap"

	"go-cv-bot/internal/document"
	"go-cv-bot/internal/metrics"
	"go-cv-bot/internal/models"
)

// Polisher rewrites free-text fields. An empty result means the original
// text should be kept.
type Polisher interface {
	PolishSummary(ctx context.Context, text string) string
	PolishDescription(ctx context.Context, text string) string
}

type Assembler interface {
	Assemble(ctx context.Context, userID int64, d *models.Draft) (*document.Result, error)
}

type DraftStore interface {
	Save(ctx context.Context, userID int64, d *models.Draft) error
}

// Notifier receives best-effort session notifications.
type Notifier interface {
	SessionStarted(ctx context.Context, userID int64)
	SessionCompleted(ctx context.Context, userID int64, name string, ok bool)
}

// Tracker records analytics actions. Implementations must not block on failure.
type Tracker interface {
	Track(ctx context.Context, userID int64, action models.ActionType, data map[string]any)
}

type Deps struct {
	Polisher  Polisher
	Assembler Assembler
	Store     DraftStore
	Notifier  Notifier
	Tracker   Tracker
	Logger    *zap.Logger
}

// Machine drives the interview. It keeps no per-user state of its own;
// everything lives in the Session handed to each call.
type Machine struct {
	polisher  Polisher
	assembler Assembler
	store     DraftStore
	notifier  Notifier
	tracker   Tracker
	log       *zap.Logger
}

func NewMachine(d Deps) *Machine {
	m := &Machine{
		polisher:  d.Polisher,
		assembler: d.Assembler,
		store:     d.Store,
		notifier:  d.Notifier,
		tracker:   d.Tracker,
		log:       d.Logger,
	}
	if m.polisher == nil {
		m.polisher = nopPolisher{}
	}
	if m.notifier == nil {
		m.notifier = nopNotifier{}
	}
	if m.tracker == nil {
		m.tracker = nopTracker{}
	}
	if m.log == nil {
		m.log = zap.NewNop()
	}
	return m
}

const (
	msgCancelled     = "❌ CV creation cancelled."
	msgUnknownAction = "Unknown command, please try again."
	msgUseButtons    = "❗ Please choose one of the options above."
	msgGenerateFail  = "❌ Failed to generate CV. Please try again."
	msgPhotoFail     = "❌ Failed to save photo. Please try again or type /skip"
	msgCVReady       = "🎉 Your professional CV is ready!\n" +
		"Use /start to create another CV.\n" +
		"Use /feedback to provide feedback on this CV generation process."
)

// Start opens a fresh session for userID positioned at the photo prompt.
func (m *Machine) Start(ctx context.Context, userID int64) (*Session, []Message) {
	m.log.Info("🚀 User started CV creation", zap.Int64("user_id", userID))
	metrics.SessionsStarted.Inc()
	m.tracker.Track(ctx, userID, models.ActionSessionStarted, nil)
	m.notifier.SessionStarted(ctx, userID)

	s := &Session{UserID: userID, Draft: models.NewDraft(), State: StatePhoto}
	return s, []Message{{
		Text: prompts[StatePhoto],
		Menu: Menu{{{"Skip Photo", ActionSkipPhoto}}},
	}}
}

// Cancel ends the session and discards its draft.
func (m *Machine) Cancel(ctx context.Context, s *Session, fromMenu bool) (State, []Message) {
	m.tracker.Track(ctx, s.UserID, models.ActionSessionCancelled, map[string]any{"state": s.State.String()})
	metrics.SessionsEnded.WithLabelValues("cancelled").Inc()
	m.removePhoto(s)

	s.Draft = models.NewDraft()
	s.Editing = false
	s.State = StateCancelled
	if fromMenu {
		return s.State, []Message{replace(msgCancelled)}
	}
	return s.State, []Message{reply(msgCancelled)}
}

// Handle applies ev to the session and returns the state it moved to along
// with the replies to send. Text, photos, commands and menu actions all
// go through here. Validation failures leave the draft untouched.
func (m *Machine) Handle(ctx context.Context, s *Session, ev Event) (State, []Message) {
	if s.State.Terminal() {
		return s.State, nil
	}
	if (ev.Kind == EventCommand && ev.Text == CommandCancel) || (ev.Kind == EventAction && ev.Text == ActionCancel) {
		return m.Cancel(ctx, s, ev.Kind == EventAction)
	}

	var next State
	var out []Message
	switch s.State {
	case StatePhoto:
		next, out = m.handlePhoto(s, ev)
	case StateExperienceChoice, StateEducationChoice, StateProjectChoice:
		next, out = m.handleChoice(ctx, s, ev)
	case StateReview:
		next, out = m.handleReview(s, ev)
	case StateSelectTemplate:
		next, out = m.handleTemplate(ctx, s, ev)
	default:
		next, out = m.handleCapture(ctx, s, ev)
	}
	s.State = next
	return next, out
}

func (m *Machine) handlePhoto(s *Session, ev Event) (State, []Message) {
	const skipped = "👍 No photo will be included. What's your full name?"

	switch {
	case ev.Kind == EventPhoto && ev.Err != nil:
		m.log.Warn("⚠️ Photo download failed", zap.Int64("user_id", s.UserID), zap.Error(ev.Err))
		return StatePhoto, []Message{reply(msgPhotoFail)}
	case ev.Kind == EventPhoto:
		s.Draft.PhotoPath = ev.PhotoPath
		return StateName, []Message{reply("✅ Photo received. What's your full name?")}
	case ev.Kind == EventAction && ev.Text == ActionSkipPhoto:
		return StateName, []Message{replace(skipped)}
	case ev.Kind == EventCommand && ev.Text == CommandSkip:
		return StateName, []Message{reply(skipped)}
	}
	return StatePhoto, []Message{reply(corrections[StatePhoto])}
}

// handleCapture runs the grammar of a field state against a text event.
func (m *Machine) handleCapture(ctx context.Context, s *Session, ev Event) (State, []Message) {
	if ev.Kind != EventText {
		if ev.Kind == EventAction {
			return s.State, []Message{reply(msgUnknownAction)}
		}
		return s.State, []Message{reply(corrections[s.State])}
	}

	d := s.Draft
	text := ev.Text
	switch s.State {
	case StateName, StateEmail, StatePhone:
		v, err := parseLine(text)
		if err != nil {
			return s.State, []Message{reply(corrections[s.State])}
		}
		switch s.State {
		case StateName:
			d.Name = v
		case StateEmail:
			d.Email = v
		default:
			d.Phone = v
		}
		return m.advance(s, s.State+1, prompts[s.State+1])

	case StateSummary:
		v, err := parseLine(text)
		if err != nil {
			return s.State, []Message{reply(corrections[s.State])}
		}
		d.Summary = polished(m.polisher.PolishSummary(ctx, v), v)
		return m.advance(s, StateExperience, prompts[StateExperience])

	case StateExperience:
		job, err := ParseExperience(text)
		if err != nil {
			return s.State, []Message{reply(corrections[s.State])}
		}
		job.Description = polished(m.polisher.PolishDescription(ctx, job.Description), job.Description)
		d.Experience = append(d.Experience, job)
		return m.appended(s, StateExperienceChoice, "✅ Experience added!", ActionAddExperience, ActionFinishExperience)

	case StateEducation:
		edu, err := ParseEducation(text)
		if err != nil {
			return s.State, []Message{reply(corrections[s.State])}
		}
		d.Education = append(d.Education, edu)
		return m.appended(s, StateEducationChoice, "✅ Education added!", ActionAddEducation, ActionFinishEducation)

	case StateSkills:
		d.Skills = ParseList(text)
		return m.advance(s, StateLanguages, prompts[StateLanguages])

	case StateLanguages:
		d.Languages = ParseList(text)
		return m.advance(s, StateProjects, prompts[StateProjects])

	case StateProjects:
		p, err := ParseProject(text)
		if err != nil {
			return s.State, []Message{reply(corrections[s.State])}
		}
		d.Projects = append(d.Projects, p)
		return m.appended(s, StateProjectChoice, "✅ Project added!", ActionAddProject, ActionFinishProjects)
	}

	m.log.Error("❌ No handler for state", zap.Stringer("state", s.State))
	return s.State, nil
}

// advance moves to the normal successor unless the editing marker sends
// the session back to Review.
func (m *Machine) advance(s *Session, next State, prompt string) (State, []Message) {
	if s.Editing {
		s.Editing = false
		return StateReview, []Message{reviewMessage(s.Draft, false)}
	}
	return next, []Message{reply(prompt)}
}

func (m *Machine) appended(s *Session, choice State, text, add, finish string) (State, []Message) {
	if s.Editing {
		s.Editing = false
		return StateReview, []Message{reviewMessage(s.Draft, false)}
	}
	return choice, []Message{{Text: text, Menu: sectionMenu(add, finish)}}
}

func (m *Machine) handleChoice(ctx context.Context, s *Session, ev Event) (State, []Message) {
	if ev.Kind != EventAction {
		return s.State, []Message{reply(msgUseButtons)}
	}

	switch {
	case s.State == StateExperienceChoice && ev.Text == ActionAddExperience:
		return StateExperience, []Message{replace("💼 Add another experience (Role - Company - Years - Description):")}
	case s.State == StateExperienceChoice && ev.Text == ActionFinishExperience:
		return StateEducation, []Message{replace(prompts[StateEducation])}
	case s.State == StateEducationChoice && ev.Text == ActionAddEducation:
		return StateEducation, []Message{replace("🎓 Add another education (Degree - Institution - Years):")}
	case s.State == StateEducationChoice && ev.Text == ActionFinishEducation:
		return StateSkills, []Message{replace(prompts[StateSkills])}
	case s.State == StateProjectChoice && ev.Text == ActionAddProject:
		return StateProjects, []Message{replace("🛠️ Add another project (Name - Description - Technologies):")}
	case s.State == StateProjectChoice && ev.Text == ActionFinishProjects:
		m.tracker.Track(ctx, s.UserID, models.ActionProfileCompleted, nil)
		return StateReview, []Message{reviewMessage(s.Draft, true)}
	}
	return s.State, []Message{reply(msgUnknownAction)}
}

func (m *Machine) handleReview(s *Session, ev Event) (State, []Message) {
	if ev.Kind != EventAction {
		return StateReview, []Message{reviewMessage(s.Draft, false)}
	}

	if ev.Text == ActionGenerate {
		return StateSelectTemplate, []Message{{
			Text:    prompts[StateSelectTemplate],
			Menu:    TemplateMenu(),
			Replace: true,
		}}
	}

	edit, ok := editPrompts[ev.Text]
	if !ok {
		return StateReview, []Message{replace(msgUnknownAction)}
	}
	s.Editing = true
	switch edit.state {
	case StateExperience:
		s.Draft.Experience = []models.Experience{}
	case StateEducation:
		s.Draft.Education = []models.Education{}
	case StateProjects:
		s.Draft.Projects = []models.Project{}
	}
	return edit.state, []Message{replace(edit.prompt)}
}

func (m *Machine) handleTemplate(ctx context.Context, s *Session, ev Event) (State, []Message) {
	name, ok := strings.CutPrefix(ev.Text, templateActionPrefix)
	if ev.Kind != EventAction || !ok {
		return StateSelectTemplate, []Message{reply(msgUseButtons)}
	}
	if !slices.Contains(models.Templates, name) {
		name = models.DefaultTemplate
	}
	s.Draft.Template = name

	out := []Message{replace(fmt.Sprintf("✅ Selected %s template", templateTitle(name)))}
	next, msgs := m.generate(ctx, s)
	return next, append(out, msgs...)
}

// generate assembles the documents. Total failure returns to Review with
// the draft intact.
func (m *Machine) generate(ctx context.Context, s *Session) (State, []Message) {
	d := s.Draft
	m.tracker.Track(ctx, s.UserID, models.ActionCVGenerated, map[string]any{"template": d.Template})

	if m.assembler == nil {
		m.notifier.SessionCompleted(ctx, s.UserID, d.Name, false)
		return StateReview, []Message{reply(msgGenerateFail), reviewMessage(d, false)}
	}

	res, err := m.assembler.Assemble(ctx, s.UserID, d)
	m.notifier.SessionCompleted(ctx, s.UserID, d.Name, err == nil)
	if err != nil {
		m.log.Error("❌ CV generation failed", zap.Int64("user_id", s.UserID), zap.Error(err))
		m.tracker.Track(ctx, s.UserID, models.ActionDocumentGenerationFailed, map[string]any{"error": err.Error()})
		return StateReview, []Message{reply(msgGenerateFail), reviewMessage(d, false)}
	}

	var out []Message
	if res.PDFPath != "" {
		out = append(out, Message{File: &Attachment{Path: res.PDFPath, Name: res.PDFName(), Temporary: true}})
	} else {
		out = append(out, reply("⚠️ The PDF version could not be generated."))
	}
	if res.DOCXPath != "" {
		out = append(out, Message{File: &Attachment{Path: res.DOCXPath, Name: res.DOCXName(), Temporary: true}})
	} else {
		out = append(out, reply("⚠️ The DOCX version could not be generated."))
	}
	out = append(out, reply(msgCVReady))

	m.removePhoto(s)
	if m.store != nil {
		if err := m.store.Save(ctx, s.UserID, d); err != nil {
			m.log.Warn("⚠️ Could not save draft", zap.Int64("user_id", s.UserID), zap.Error(err))
		}
	}
	metrics.SessionsEnded.WithLabelValues("done").Inc()
	return StateDone, out
}

// Discard drops a session that ended without a terminal state, such as an
// expired or crashed one. outcome labels the metric.
func (m *Machine) Discard(s *Session, outcome string) {
	if s.State.Terminal() {
		return
	}
	metrics.SessionsEnded.WithLabelValues(outcome).Inc()
	m.removePhoto(s)
	s.State = StateCancelled
}

func (m *Machine) removePhoto(s *Session) {
	if s.Draft.PhotoPath == "" {
		return
	}
	if err := os.Remove(s.Draft.PhotoPath); err != nil && !os.IsNotExist(err) {
		m.log.Warn("⚠️ Error cleaning up photo", zap.String("path", s.Draft.PhotoPath), zap.Error(err))
	}
	s.Draft.PhotoPath = ""
}

func polished(out, original string) string {
	if strings.TrimSpace(out) == "" {
		return original
	}
	return strings.TrimSpace(out)
}

type nopPolisher struct{}

func (nopPolisher) PolishSummary(context.Context, string) string     { return "" }
func (nopPolisher) PolishDescription(context.Context, string) string { return "" }

type nopNotifier struct{}

func (nopNotifier) SessionStarted(context.Context, int64)                {}
func (nopNotifier) SessionCompleted(context.Context, int64, string, bool) {}

type nopTracker struct{}

func (nopTracker) Track(context.Context, int64, models.ActionType, map[string]any) {}

package interview

// State identifies what the session is collecting or which screen is shown.
type State int

const (
	StatePhoto State = iota
	StateName
	StateEmail
	StatePhone
	StateSummary
	StateExperience
	StateExperienceChoice
	StateEducation
	StateEducationChoice
	StateSkills
	StateLanguages
	StateProjects
	StateProjectChoice
	StateReview
	StateSelectTemplate
	StateDone
	StateCancelled
)

var stateNames = map[State]string{
	StatePhoto:            "photo",
	StateName:             "name",
	StateEmail:            "email",
	StatePhone:            "phone",
	StateSummary:          "summary",
	StateExperience:       "experience",
	StateExperienceChoice: "experience_choice",
	StateEducation:        "education",
	StateEducationChoice:  "education_choice",
	StateSkills:           "skills",
	StateLanguages:        "languages",
	StateProjects:         "projects",
	StateProjectChoice:    "project_choice",
	StateReview:           "review",
	StateSelectTemplate:   "select_template",
	StateDone:             "done",
	StateCancelled:        "cancelled",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return "unknown"
}

// Terminal reports whether the session is over and can be discarded.
func (s State) Terminal() bool {
	return s == StateDone || s == StateCancelled
}

// Menu actions carried as callback data.
const (
	ActionSkipPhoto        = "skip_photo"
	ActionAddExperience    = "add_experience"
	ActionFinishExperience = "finish_experience"
	ActionAddEducation     = "add_education"
	ActionFinishEducation  = "finish_education"
	ActionAddProject       = "add_project"
	ActionFinishProjects   = "finish_projects"
	ActionEditName         = "edit_name"
	ActionEditEmail        = "edit_email"
	ActionEditPhone        = "edit_phone"
	ActionEditSummary      = "edit_summary"
	ActionEditExperience   = "edit_experience"
	ActionEditEducation    = "edit_education"
	ActionEditSkills       = "edit_skills"
	ActionEditLanguages    = "edit_languages"
	ActionEditProjects     = "edit_projects"
	ActionGenerate         = "generate_cv"
	ActionCancel           = "cancel"

	templateActionPrefix = "template_"
)

// Commands understood by the machine.
const (
	CommandSkip   = "skip"
	CommandCancel = "cancel"
)

// prompts are sent when a state is entered through the normal sequence.
var prompts = map[State]string{
	StatePhoto:   "📸 Please upload a professional profile photo (or type /skip to skip):",
	StateName:    "What's your full name?",
	StateEmail:   "📧 What's your email address?",
	StatePhone:   "📱 What's your phone number?",
	StateSummary: "🧠 Please write a short professional summary about yourself:",
	StateExperience: "💼 Let's add your work experience. Please send in format:\n" +
		"Role - Company - Years - Description\n\n" +
		"Example:\n" +
		"Software Engineer - Google - 2020-2023 - Developed web applications using Python",
	StateEducation: "🎓 Add your education (Degree - Institution - Years):",
	StateSkills: "🛠️ List your skills (comma separated):\n" +
		"Example: Python, JavaScript, Project Management",
	StateLanguages: "🌐 What languages do you speak? (comma separated)\n" +
		"Example: English, Spanish, French",
	StateProjects: "🛠️ Let's add projects. Please send in format:\n" +
		"Name - Description - Technologies\n\n" +
		"Example:\n" +
		"CV Generator Bot - Telegram bot that creates professional CVs - Python, Telegram API",
	StateSelectTemplate: "🎨 Please select a CV template design:",
}

// corrections are sent when input does not match the state's grammar.
var corrections = map[State]string{
	StatePhoto: "❗ Please send a photo, or type /skip to continue without one.",
	StateName:  "❗ Please enter your full name.",
	StateEmail: "❗ Please enter your email address.",
	StatePhone: "❗ Please enter your phone number.",
	StateSummary: "❗ Please write a short professional summary about yourself.",
	StateExperience: "❗ Please use format: Role - Company - Years - Description\n\n" +
		"Example:\n" +
		"Software Engineer - Google - 2020-2023 - Developed web applications",
	StateEducation: "❗ Please use format: Degree - Institution - Years\n\n" +
		"Example:\n" +
		"BSc Computer Science - Harvard University - 2016-2020",
	StateProjects: "❗ Please use format: Name - Description - Technologies\n\n" +
		"Example:\n" +
		"CV Generator - Telegram bot that creates CVs - Python, Telegram API",
	StateSkills:    "❗ Please list your skills separated by commas.",
	StateLanguages: "❗ Please list your languages separated by commas.",
}

// editPrompts are sent when Review routes back into a capture state.
var editPrompts = map[string]struct {
	state  State
	prompt string
}{
	ActionEditName:       {StateName, "Please enter your full name:"},
	ActionEditEmail:      {StateEmail, "Please enter your email address:"},
	ActionEditPhone:      {StatePhone, "Please enter your phone number:"},
	ActionEditSummary:    {StateSummary, "Please enter your professional summary:"},
	ActionEditExperience: {StateExperience, "💼 Let's re-enter your experiences (Role - Company - Years - Description):"},
	ActionEditEducation:  {StateEducation, "🎓 Let's re-enter your education (Degree - Institution - Years):"},
	ActionEditSkills:     {StateSkills, prompts[StateSkills]},
	ActionEditLanguages:  {StateLanguages, "🌐 List languages you speak (comma separated):\nExample: English, Spanish, French"},
	ActionEditProjects:   {StateProjects, "🛠️ Let's re-enter your projects (Name - Description - Technologies):"},
}

package auth

// The login/signup modal is an explicit state machine: Apply is a pure
// transition function over FlowState, and every provider call it wants
// made is returned as an Effect for the caller to execute. This keeps
// each transition unit-testable without a live provider.

// Mode selects which form the modal shows.
type Mode string

const (
	ModeLogin  Mode = "login"
	ModeSignup Mode = "signup"
)

// Step is the modal's screen.
type Step string

const (
	StepForm   Step = "form"
	StepVerify Step = "verify"
)

// ResendCooldownSeconds is the wait before a verification code may be
// re-requested.
const ResendCooldownSeconds = 60

// Message is a banner shown inside the modal.
type Message struct {
	Kind string `json:"kind"` // "success" or "error"
	Text string `json:"text"`
}

// FlowState is the transient modal state. It is never persisted.
type FlowState struct {
	Mode           Mode     `json:"mode"`
	Step           Step     `json:"step"`
	Email          string   `json:"email"`
	Password       string   `json:"-"`
	Code           string   `json:"-"`
	Loading        bool     `json:"loading"`
	Message        *Message `json:"message"`
	ResendCooldown int      `json:"resend_cooldown_seconds"`
	Done           bool     `json:"done"`
}

// NewFlowState returns the initial modal state.
func NewFlowState() FlowState {
	return FlowState{Mode: ModeLogin, Step: StepForm}
}

// Event is the tagged union of everything that can happen to the flow.
type Event interface{ isFlowEvent() }

type (
	// EventSetMode switches between the login and signup forms.
	EventSetMode struct{ Mode Mode }
	// EventSubmit is the form submit with the entered credentials.
	EventSubmit struct{ Email, Password string }
	// EventSignInResult reports a password sign-in attempt.
	EventSignInResult struct{ Err error }
	// EventSignUpResult reports a signup attempt. SessionIssued is true
	// when the provider auto-confirmed and returned a session.
	EventSignUpResult struct {
		SessionIssued bool
		Err           error
	}
	// EventVerifySubmit is the code submit on the verify screen.
	EventVerifySubmit struct{ Code string }
	// EventVerifyResult reports the whole verification attempt,
	// including any provider-side fallback the executor performed.
	EventVerifyResult struct {
		SessionIssued bool
		Err           error
	}
	// EventResend asks for a new code.
	EventResend struct{}
	// EventResendResult reports the resend dispatch.
	EventResendResult struct{ Err error }
	// EventTick is the 1 Hz cooldown timer.
	EventTick struct{}
	// EventBack returns from verify to the form.
	EventBack struct{}
)

func (EventSetMode) isFlowEvent()      {}
func (EventSubmit) isFlowEvent()       {}
func (EventSignInResult) isFlowEvent() {}
func (EventSignUpResult) isFlowEvent() {}
func (EventVerifySubmit) isFlowEvent() {}
func (EventVerifyResult) isFlowEvent() {}
func (EventResend) isFlowEvent()       {}
func (EventResendResult) isFlowEvent() {}
func (EventTick) isFlowEvent()         {}
func (EventBack) isFlowEvent()         {}

// Effect describes the side effect the caller must execute after a
// transition. At most one effect is returned per transition.
type Effect interface{ isFlowEffect() }

type (
	// EffectSignIn asks for a password sign-in.
	EffectSignIn struct{ Email, Password string }
	// EffectSignUp asks for a signup.
	EffectSignUp struct{ Email, Password string }
	// EffectVerify asks for code verification. Kinds lists the code
	// kinds to attempt in order; Password is the last-resort sign-in
	// credential when verification succeeds without a session.
	EffectVerify struct {
		Email    string
		Code     string
		Kinds    []CodeKind
		Password string
	}
	// EffectResend asks for a new code dispatch.
	EffectResend struct{ Email string }
	// EffectStartCooldown starts the resend countdown.
	EffectStartCooldown struct{ Seconds int }
	// EffectStopCooldown cancels the countdown.
	EffectStopCooldown struct{}
	// EffectClose ends the flow. AfterSeconds delays the close so a
	// success banner stays visible.
	EffectClose struct{ AfterSeconds int }
)

func (EffectSignIn) isFlowEffect()        {}
func (EffectSignUp) isFlowEffect()        {}
func (EffectVerify) isFlowEffect()        {}
func (EffectResend) isFlowEffect()        {}
func (EffectStartCooldown) isFlowEffect() {}
func (EffectStopCooldown) isFlowEffect()  {}
func (EffectClose) isFlowEffect()         {}

// Apply advances the flow. The Loading flag gates every action event so
// only one submit/verify/resend can be in flight per modal instance.
func Apply(s FlowState, ev Event) (FlowState, Effect) {
	switch e := ev.(type) {
	case EventSetMode:
		if s.Loading || s.Step != StepForm {
			return s, nil
		}
		s.Mode = e.Mode
		s.Message = nil
		return s, nil

	case EventSubmit:
		if s.Loading || s.Step != StepForm {
			return s, nil
		}
		s.Email = e.Email
		s.Password = e.Password
		s.Loading = true
		s.Message = nil
		if s.Mode == ModeSignup {
			return s, EffectSignUp{Email: e.Email, Password: e.Password}
		}
		return s, EffectSignIn{Email: e.Email, Password: e.Password}

	case EventSignInResult:
		s.Loading = false
		if e.Err != nil {
			s.Message = &Message{Kind: "error", Text: TranslateError(e.Err)}
			return s, nil
		}
		s.Done = true
		return s, EffectClose{}

	case EventSignUpResult:
		s.Loading = false
		if e.Err != nil {
			s.Message = &Message{Kind: "error", Text: TranslateError(e.Err)}
			return s, nil
		}
		if e.SessionIssued {
			// Provider auto-confirmed; nothing left to verify.
			s.Done = true
			return s, EffectClose{}
		}
		s.Step = StepVerify
		s.Code = ""
		s.Message = &Message{Kind: "success", Text: "أرسلنا رمز التحقق إلى بريدك الإلكتروني"}
		s.ResendCooldown = ResendCooldownSeconds
		return s, EffectStartCooldown{Seconds: ResendCooldownSeconds}

	case EventVerifySubmit:
		if s.Loading || s.Step != StepVerify {
			return s, nil
		}
		s.Code = e.Code
		s.Loading = true
		s.Message = nil
		return s, EffectVerify{
			Email: s.Email,
			Code:  e.Code,
			// Try the signup confirmation kind first, then fall back to
			// the emailed login kind. Which one the provider actually
			// issued is ambiguous, so both are attempted.
			Kinds:    []CodeKind{CodeKindSignup, CodeKindEmail},
			Password: s.Password,
		}

	case EventVerifyResult:
		s.Loading = false
		if e.Err != nil {
			s.Message = &Message{Kind: "error", Text: TranslateError(e.Err)}
			return s, nil
		}
		s.Done = true
		s.Message = &Message{Kind: "success", Text: "تم تأكيد حسابك بنجاح!"}
		return s, EffectClose{AfterSeconds: 2}

	case EventResend:
		if s.Loading || s.Step != StepVerify || s.ResendCooldown > 0 {
			return s, nil
		}
		s.Loading = true
		return s, EffectResend{Email: s.Email}

	case EventResendResult:
		s.Loading = false
		if e.Err != nil {
			s.Message = &Message{Kind: "error", Text: TranslateError(e.Err)}
			return s, nil
		}
		s.Message = &Message{Kind: "success", Text: "تم إرسال رمز جديد إلى بريدك"}
		s.ResendCooldown = ResendCooldownSeconds
		return s, EffectStartCooldown{Seconds: ResendCooldownSeconds}

	case EventTick:
		if s.ResendCooldown > 0 {
			s.ResendCooldown--
		}
		return s, nil

	case EventBack:
		if s.Loading || s.Step != StepVerify {
			return s, nil
		}
		s.Step = StepForm
		s.Code = ""
		s.Message = nil
		s.ResendCooldown = 0
		return s, EffectStopCooldown{}
	}

	return s, nil
}

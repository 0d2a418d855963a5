package auth

import (
	"context"
	"errors"
)

// CodeKind is the provider-side classification of a one-time code.
type CodeKind string

const (
	// CodeKindSignup is a first-time signup confirmation code.
	CodeKindSignup CodeKind = "signup"
	// CodeKindEmail is an emailed login (magic-link style) code.
	CodeKindEmail CodeKind = "email"
)

// Identity is the read-only projection of the provider-owned session:
// who the user is plus the token the remote store is addressed with.
type Identity struct {
	UserID       string `json:"user_id"`
	Email        string `json:"email"`
	AccessToken  string `json:"-"`
	RefreshToken string `json:"-"`
}

// Provider is the hosted auth backend surface this app consumes. All
// calls are network calls and may fail with the typed errors below or
// a *ProviderError carrying the raw provider message.
type Provider interface {
	SignInWithPassword(ctx context.Context, email, password string) (*Identity, error)
	// SignUp returns a nil Identity when the provider requires email
	// confirmation before issuing a session.
	SignUp(ctx context.Context, email, password string) (*Identity, error)
	VerifyCode(ctx context.Context, email, code string, kind CodeKind) (*Identity, error)
	ResendCode(ctx context.Context, email string) error
	OAuthURL(provider string) (string, error)
	SignOut(ctx context.Context, accessToken string) error
}

var (
	ErrInvalidCredentials     = errors.New("invalid email or password")
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	ErrWeakPassword           = errors.New("password too weak")
	ErrRateLimited            = errors.New("too many attempts")
	ErrCodeInvalid            = errors.New("verification code invalid or expired")
)

// ProviderError carries a raw provider message that has no dedicated
// sentinel. Its text is shown to the user as-is.
type ProviderError struct {
	Status  int
	Message string
}

func (e *ProviderError) Error() string {
	return e.Message
}

// TranslateError maps a provider failure to the Arabic user-facing
// message the client renders. Unknown errors fall through to the
// provider's raw message, and only then to a generic line.
func TranslateError(err error) string {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return "البريد الإلكتروني أو كلمة المرور غير صحيحة"
	case errors.Is(err, ErrEmailAlreadyRegistered):
		return "هذا البريد الإلكتروني مسجل بالفعل، جرب تسجيل الدخول"
	case errors.Is(err, ErrWeakPassword):
		return "كلمة المرور ضعيفة، استخدم 6 أحرف على الأقل"
	case errors.Is(err, ErrRateLimited):
		return "محاولات كثيرة، انتظر قليلاً ثم حاول مجدداً"
	case errors.Is(err, ErrCodeInvalid):
		return "رمز التحقق غير صحيح أو منتهي الصلاحية"
	}

	var perr *ProviderError
	if errors.As(err, &perr) && perr.Message != "" {
		return perr.Message
	}
	return "حدث خطأ أثناء تسجيل الدخول"
}

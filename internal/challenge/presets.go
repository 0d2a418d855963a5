package challenge

import "fmt"

// PresetHabit is one of the ready-made challenges offered on the
// selection screen.
type PresetHabit struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon"`
}

// PresetHabits mirrors the selection grid of the web client.
var PresetHabits = []PresetHabit{
	{ID: "reading", Name: "قراءة 10 صفحات يومياً", Icon: "📖"},
	{ID: "exercise", Name: "رياضة 30 دقيقة", Icon: "🏃"},
	{ID: "water", Name: "شرب 8 أكواب ماء", Icon: "💧"},
	{ID: "early-rise", Name: "الاستيقاظ مبكراً", Icon: "🌅"},
	{ID: "no-sugar", Name: "الامتناع عن السكر", Icon: "🚫"},
	{ID: "journaling", Name: "كتابة اليوميات", Icon: "✍️"},
	{ID: "meditation", Name: "تأمل 10 دقائق", Icon: "🧘"},
	{ID: "quran", Name: "قراءة صفحة من القرآن", Icon: "🕌"},
}

// FallbackQuotes rotate on the dashboard when no generated motivation
// is available. Indexed by completed-day count modulo the list length.
var FallbackQuotes = []string{
	"كل يوم تلتزم فيه هو لبنة في بناء شخصيتك الجديدة.",
	"الاستمرارية تغلب الحماس المؤقت.",
	"أنت أقرب إلى هدفك مما كنت عليه بالأمس.",
	"العادات الصغيرة تصنع الفارق الكبير.",
	"لا تكسر السلسلة، يومك القادم أسهل من سابقه.",
	"النجاح مجموع جهود صغيرة تتكرر كل يوم.",
	"ثابر اليوم لتشكر نفسك بعد 21 يوماً.",
}

// FallbackQuoteFor picks the rotating quote for a record.
func FallbackQuoteFor(r *Record) string {
	return FallbackQuotes[len(r.CompletedDays)%len(FallbackQuotes)]
}

// ShareText builds the progress share message used by the dashboard
// share action.
func ShareText(r *Record) string {
	return fmt.Sprintf("أنجزت %d من 21 يوماً في تحدي \"%s\"! 🚀\n#تحدي_21_يوم", len(r.CompletedDays), r.HabitName)
}

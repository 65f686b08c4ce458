package bot

import (
	"fmt"
	"strings"

	"github.com/antoniostano/abqarino/internal/intent"
	"github.com/antoniostano/abqarino/internal/prompt"
)

// Messages holds every fixed user-facing reply.
type Messages struct {
	DefaultName string
	Greeting    string // %s: display name
	Cleared     string
	Stats       string // %d: turns held, %d: window size
	Help        string
	Usage       string // %s: command name
	Failure     string
	Acknowledge string // %s: name, %s: verb, %s: platform
}

// DefaultMessages are the Saudi-dialect Arabic replies.
func DefaultMessages() Messages {
	return Messages{
		DefaultName: "صديقي",
		Greeting: "مرحباً يا %s! 👋\n\n" +
			"أنا عبقرينو، مساعدك الشخصي 🤖\n" +
			"كلمني بشكل طبيعي وأنا أفهمك، وأتذكر سوالفنا الأخيرة 😊\n\n" +
			"اكتب /help عشان تشوف الأوامر.",
		Cleared: "تمام! مسحت كل المحادثات السابقة 🗑️\nنبدأ من جديد 😊",
		Stats:   "📊 إحصائياتك:\n\n• عدد الرسائل في الذاكرة: %d\n• الحد الأقصى: %d\n\nاستخدم /clear لمسح الذاكرة",
		Help: "الأوامر المتاحة:\n" +
			"/summarize <نص> - تلخيص\n" +
			"/rewrite <نص> - إعادة صياغة\n" +
			"/reply <رسالة> - اقتراح رد\n" +
			"/idea <موضوع> - أفكار\n" +
			"/plan <هدف> - خطة\n" +
			"/stats - إحصائيات الذاكرة\n" +
			"/clear - مسح الذاكرة",
		Usage:   "اكتب النص بعد الأمر، مثال:\n/%s النص هنا ✍️",
		Failure: "عذراً يا حبيبي، صار عندي مشكلة تقنية. جرب مرة ثانية! 😅",
		Acknowledge: "تمام يا %s! فهمت إنك تبي %s على %s ✅\n\n" +
			"التنفيذ المباشر قيد التطوير حالياً 🚀\n" +
			"أقدر أساعدك بأي شي ثاني؟ 😊",
	}
}

func (m Messages) greeting(name string) string {
	return fmt.Sprintf(m.Greeting, m.name(name))
}

func (m Messages) stats(size, limit int) string {
	return fmt.Sprintf(m.Stats, size, limit)
}

func (m Messages) usage(mode prompt.Mode) string {
	return fmt.Sprintf(m.Usage, mode.String())
}

func (m Messages) acknowledge(name string, action intent.Action) string {
	return fmt.Sprintf(m.Acknowledge, m.name(name), action.Verb, action.Platform)
}

func (m Messages) name(name string) string {
	if strings.TrimSpace(name) == "" {
		return m.DefaultName
	}
	return name
}

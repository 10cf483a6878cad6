package apperror

import (
	"errors"

	"golang.org/x/text/language"
)

// Supported UI languages.
const (
	LangRussian = "ru"
	LangKazakh  = "kk"
	LangEnglish = "en"
)

var matcher = language.NewMatcher([]language.Tag{
	language.Russian,
	language.Kazakh,
	language.English,
})

var messages = map[Kind]map[string]string{
	KindPermissionDenied: {
		LangRussian: "Доступ к микрофону запрещён. Разрешите доступ в настройках и попробуйте снова.",
		LangKazakh:  "Микрофонға рұқсат берілмеді. Баптауларда рұқсат беріп, қайталап көріңіз.",
		LangEnglish: "Microphone access was denied. Allow access in settings and try again.",
	},
	KindServiceUnavailable: {
		LangRussian: "Сервис временно недоступен. Попробуйте ещё раз.",
		LangKazakh:  "Қызмет уақытша қолжетімсіз. Қайталап көріңіз.",
		LangEnglish: "The service is temporarily unavailable. Please try again.",
	},
	KindValidation: {
		LangRussian: "Проверьте введённые данные.",
		LangKazakh:  "Енгізілген деректерді тексеріңіз.",
		LangEnglish: "Please check the submitted data.",
	},
	KindConflict: {
		LangRussian: "Действие недоступно в текущем состоянии сеанса.",
		LangKazakh:  "Бұл әрекет сеанстың ағымдағы күйінде қолжетімсіз.",
		LangEnglish: "This action is not available in the current session state.",
	},
	KindNotConfigured: {
		LangRussian: "Сервис не настроен. Обратитесь к администратору.",
		LangKazakh:  "Қызмет бапталмаған. Әкімшіге хабарласыңыз.",
		LangEnglish: "The service is not configured. Contact the administrator.",
	},
	KindNotFound: {
		LangRussian: "Запись не найдена.",
		LangKazakh:  "Жазба табылмады.",
		LangEnglish: "Record not found.",
	},
	KindForbidden: {
		LangRussian: "Нет доступа к этой записи.",
		LangKazakh:  "Бұл жазбаға қолжетімділік жоқ.",
		LangEnglish: "You do not have access to this record.",
	},
	KindInternal: {
		LangRussian: "Произошла ошибка. Попробуйте позже.",
		LangKazakh:  "Қате орын алды. Кейінірек қайталаңыз.",
		LangEnglish: "Something went wrong. Please try later.",
	},
}

// NegotiateLanguage picks ru, kk or en from an Accept-Language value. Russian is the default.
func NegotiateLanguage(acceptLanguage string) string {
	if acceptLanguage == "" {
		return LangRussian
	}
	tag, _ := language.MatchStrings(matcher, acceptLanguage)
	base, _ := tag.Base()
	switch base.String() {
	case LangKazakh:
		return LangKazakh
	case LangEnglish:
		return LangEnglish
	default:
		return LangRussian
	}
}

// Localize renders the user-facing message for err in lang. Messages of
// UserFacing errors are returned unchanged.
func Localize(err error, lang string) string {
	if err == nil {
		return ""
	}
	var appErr *Error
	if errors.As(err, &appErr) && appErr.UserFacing && appErr.Message != "" {
		return appErr.Message
	}
	return LocalizeKind(KindOf(err), lang)
}

func LocalizeKind(kind Kind, lang string) string {
	byLang, ok := messages[kind]
	if !ok {
		byLang = messages[KindInternal]
	}
	if msg, ok := byLang[lang]; ok {
		return msg
	}
	return byLang[LangRussian]
}

// Trilingual returns the message in all supported languages, keyed by language code.
func Trilingual(err error) map[string]string {
	kind := KindOf(err)
	return map[string]string{
		LangRussian: LocalizeKind(kind, LangRussian),
		LangKazakh:  LocalizeKind(kind, LangKazakh),
		LangEnglish: LocalizeKind(kind, LangEnglish),
	}
}

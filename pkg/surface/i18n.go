package surface

import "golang.org/x/text/language"

// MenuAction is an entry of the surface context menu.
type MenuAction string

const (
	ActionMarkError    MenuAction = "mark_error"
	ActionAddHere      MenuAction = "add_here"
	ActionAnnotate     MenuAction = "annotate"
	ActionPin          MenuAction = "pin"
	ActionCopySelector MenuAction = "copy_selector"
	ActionSelectParent MenuAction = "select_parent"
)

// MenuActions lists the context menu in display order.
var MenuActions = []MenuAction{
	ActionMarkError,
	ActionAddHere,
	ActionAnnotate,
	ActionPin,
	ActionCopySelector,
	ActionSelectParent,
}

var labels = map[string]map[MenuAction]string{
	"en": {
		ActionMarkError:    "Mark error",
		ActionAddHere:      "Add here",
		ActionAnnotate:     "Add note",
		ActionPin:          "Drop prompt pin",
		ActionCopySelector: "Copy selector",
		ActionSelectParent: "Select parent",
	},
	"fr": {
		ActionMarkError:    "Signaler une erreur",
		ActionAddHere:      "Ajouter ici",
		ActionAnnotate:     "Ajouter une note",
		ActionPin:          "Épingler une consigne",
		ActionCopySelector: "Copier le sélecteur",
		ActionSelectParent: "Sélectionner le parent",
	},
	"de": {
		ActionMarkError:    "Fehler markieren",
		ActionAddHere:      "Hier einfügen",
		ActionAnnotate:     "Notiz hinzufügen",
		ActionPin:          "Prompt-Pin setzen",
		ActionCopySelector: "Selektor kopieren",
		ActionSelectParent: "Elternelement wählen",
	},
	"es": {
		ActionMarkError:    "Marcar error",
		ActionAddHere:      "Añadir aquí",
		ActionAnnotate:     "Añadir nota",
		ActionPin:          "Fijar indicación",
		ActionCopySelector: "Copiar selector",
		ActionSelectParent: "Seleccionar padre",
	},
}

var (
	supported = []language.Tag{language.English, language.French, language.German, language.Spanish}
	matcher   = language.NewMatcher(supported)
)

// MatchLanguage resolves a BCP 47 tag such as "fr-CA" to one of the
// built-in label tables, falling back to English.
func MatchLanguage(lang string) string {
	tag, err := language.Parse(lang)
	if err != nil {
		return "en"
	}
	_, index, confidence := matcher.Match(tag)
	if confidence == language.No {
		return "en"
	}
	base, _ := supported[index].Base()
	return base.String()
}

// Label returns the menu label for action in lang.
func Label(lang string, action MenuAction) string {
	if s, ok := labels[MatchLanguage(lang)][action]; ok {
		return s
	}
	if s, ok := labels["en"][action]; ok {
		return s
	}
	return string(action)
}

package actor

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Role is a normalized role label.
type Role string

const (
	RoleRequester    Role = "missionnaire"
	RoleChief        Role = "chef_hierarchique"
	RoleFinance      Role = "raf"
	RoleCoordinator  Role = "coordonnateur_de_projet"
	RolePaymentAgent Role = "accp"
	RoleAdmin        Role = "administrateur"
	RoleAssistant    Role = "assistant_administratif"
)

// Known lists every role the workflow understands.
var Known = []Role{
	RoleRequester,
	RoleChief,
	RoleFinance,
	RoleCoordinator,
	RolePaymentAgent,
	RoleAdmin,
	RoleAssistant,
}

// aliases maps folded free-text labels seen in directories and spreadsheets to roles.
var aliases = map[string]Role{
	"admin":                   RoleAdmin,
	"administrator":           RoleAdmin,
	"administrateur_systeme":  RoleAdmin,
	"ch":                      RoleChief,
	"chef":                    RoleChief,
	"chef_hierarchique_ch":    RoleChief,
	"cp":                      RoleCoordinator,
	"chef_de_projet":          RoleCoordinator,
	"coordonnateur_projet":    RoleCoordinator,
	"coordonnateur":           RoleCoordinator,
	"coordonnateur_projet_cp": RoleCoordinator,
	"agent_comptable":         RolePaymentAgent,
	"aadm":                    RoleAssistant,
	"employe":                 RoleRequester,

	"responsable_administratif_et_financier": RoleFinance,
}

// Fold lowercases label, strips diacritics, and collapses every run of
// punctuation or whitespace into a single underscore.
func Fold(label string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

	folded, _, err := transform.String(t, label)
	if err != nil {
		folded = label
	}

	folded = cases.Fold().String(folded)

	fields := strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	return strings.Join(fields, "_")
}

// NormalizeRole folds label and resolves known aliases to their canonical
// role. Any other label is returned in folded form.
func NormalizeRole(label string) Role {
	key := Fold(label)

	if r, ok := aliases[key]; ok {
		return r
	}

	return Role(key)
}

// NormalizeRoles normalizes every label and drops blanks and duplicates.
func NormalizeRoles(labels []string) []Role {
	roles := make([]Role, 0, len(labels))
	seen := make(map[Role]struct{}, len(labels))

	for _, l := range labels {
		r := NormalizeRole(l)
		if r == "" {
			continue
		}

		if _, dup := seen[r]; dup {
			continue
		}

		seen[r] = struct{}{}
		roles = append(roles, r)
	}

	return roles
}

package roster

type field int

const (
	fieldMatricule field = iota
	fieldName
	fieldEmail
	fieldRole
	fieldChief
	fieldActive
)

// column lists the folded header labels accepted for one field. HR exports
// rename columns freely, so matching is done on folded labels.
type column struct {
	field    field
	labels   []string
	required bool
}

var columns = []column{
	{field: fieldMatricule, labels: []string{"matricule", "mle", "code_agent", "id_agent"}, required: true},
	{field: fieldName, labels: []string{"nom", "nom_prenoms", "nom_et_prenoms", "nom_complet", "name"}, required: true},
	{field: fieldEmail, labels: []string{"email", "e_mail", "mail", "courriel"}},
	{field: fieldRole, labels: []string{"role", "roles", "fonction", "profil"}, required: true},
	{field: fieldChief, labels: []string{"chef", "matricule_chef", "chef_hierarchique", "superieur", "superieur_hierarchique"}},
	{field: fieldActive, labels: []string{"actif", "active", "statut"}},
}

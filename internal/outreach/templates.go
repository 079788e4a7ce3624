package outreach

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Template placeholders: {name}, {link}, {count}.
const (
	placeholderName  = "{name}"
	placeholderLink  = "{link}"
	placeholderCount = "{count}"
)

// defaultTemplates maps a template key to its message text. Synchronous
// sends key on the highest threshold met ("t1", "t3", ...); scheduled
// sends key on the variant name. Kept as data so copy changes never touch
// control flow.
var defaultTemplates = map[string]string{
	"t1": "¡Hola {name}! Una clienta te busca en nuestra app de belleza y quiere reservar contigo. " +
		"Regístrate gratis aquí: {link}",
	"t3": "¡Hola {name}! Ya son varias clientas preguntando por ti en nuestra app. " +
		"No las hagas esperar, regístrate aquí: {link}",
	"t5": "¡Hola {name}! Tu salón es de los más buscados en nuestra app esta semana. " +
		"Completa tu registro y empieza a recibir reservas: {link}",
	"t10": "¡Hola {name}! Más de 10 clientas quieren reservar contigo. " +
		"Te está esperando una agenda llena: {link}",
	"t20": "¡Hola {name}! Tu salón no deja de recibir solicitudes en nuestra app. " +
		"Regístrate hoy y conecta con todas esas clientas: {link}",
	VariantFirstDay: "¡Hola {name}! Ayer una clienta pidió que te unieras a nuestra app de belleza. " +
		"El registro toma 5 minutos: {link}",
	VariantWeekly: "¡Hola {name}! Esta semana {count} clientas han buscado tu salón en nuestra app. " +
		"Únete gratis y recibe sus reservas: {link}",
	VariantReminder: "¡Hola {name}! {count} clientas siguen esperando poder reservar contigo. " +
		"Completa tu registro aquí: {link}",
}

// Templates renders outreach messages from a key→text table and builds
// registration links from the configured base URL.
type Templates struct {
	texts            map[string]string
	registrationBase string
}

// NewTemplates returns the built-in template set.
func NewTemplates(registrationBase string) *Templates {
	texts := make(map[string]string, len(defaultTemplates))
	for k, v := range defaultTemplates {
		texts[k] = v
	}
	return &Templates{texts: texts, registrationBase: registrationBase}
}

// LoadTemplates reads a YAML key→text file and overlays it on the
// defaults, so a partial file only overrides the keys it names.
func LoadTemplates(registrationBase, path string) (*Templates, error) {
	t := NewTemplates(registrationBase)
	if path == "" {
		return t, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "templates: read %s", path)
	}

	var overrides map[string]string
	if err := yaml.Unmarshal(raw, &overrides); err != nil {
		return nil, eris.Wrapf(err, "templates: parse %s", path)
	}
	for k, v := range overrides {
		t.texts[k] = v
	}
	return t, nil
}

// ThresholdKey maps an interest count to the template key of the highest
// threshold met.
func ThresholdKey(count int) string {
	met := HighestThresholdMet(count)
	if met == 0 {
		return ""
	}
	return "t" + strconv.Itoa(met)
}

// Render produces the message text for a template key, parameterized by
// business name, the salon's registration link, and the interest count.
func (t *Templates) Render(key, salonID, businessName string, interestCount int) (string, error) {
	text, ok := t.texts[key]
	if !ok {
		return "", eris.Errorf("templates: unknown key %q", key)
	}

	link := fmt.Sprintf("%s/register/%s", strings.TrimRight(t.registrationBase, "/"), salonID)
	r := strings.NewReplacer(
		placeholderName, businessName,
		placeholderLink, link,
		placeholderCount, strconv.Itoa(interestCount),
	)
	return r.Replace(text), nil
}

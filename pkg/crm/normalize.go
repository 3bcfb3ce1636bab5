package crm

import (
	"encoding/json"
	"strings"

	"github.com/Sternrassler/minicrm-client/pkg/model"
	"github.com/tidwall/gjson"
)

// fieldRule maps one Enterprise field to the backend names it may arrive
// under. The first non-empty path wins.
type fieldRule struct {
	paths    []string
	fallback string
	set      func(e *model.Enterprise, v string)
}

// enterpriseFields is the ingress mapping of enterprise records.
var enterpriseFields = []fieldRule{
	{paths: []string{"id", "ID", "_id"}, set: func(e *model.Enterprise, v string) { e.ID = v }},
	{paths: []string{"nom_entreprise", "nom", "name"}, fallback: "Nom manquant", set: func(e *model.Enterprise, v string) { e.Name = v }},
	{paths: []string{"commune", "ville", "city"}, set: func(e *model.Enterprise, v string) { e.Commune = v }},
	{paths: []string{"telephone", "tel", "phone"}, set: func(e *model.Enterprise, v string) { e.Phone = v }},
	{paths: []string{"portable", "mobile"}, set: func(e *model.Enterprise, v string) { e.Mobile = v }},
	{paths: []string{"adresse", "address"}, set: func(e *model.Enterprise, v string) { e.Address = v }},
	{paths: []string{"email", "mail"}, set: func(e *model.Enterprise, v string) { e.Email = v }},
	{paths: []string{"interlocuteur", "contact"}, set: func(e *model.Enterprise, v string) { e.Contact = v }},
	{paths: []string{"statut", "status"}, fallback: "Disponible", set: func(e *model.Enterprise, v string) { e.Status = v }},
	{paths: []string{"client_2025", "Client_2025"}, set: func(e *model.Enterprise, v string) { e.Client2025 = isYes(v) }},
	{paths: []string{"format_encart_2025", "Format_encart_2025"}, set: func(e *model.Enterprise, v string) { e.Format2025 = v }},
	{paths: []string{"mode_paiement_2024", "Mode_paiement_2024"}, set: func(e *model.Enterprise, v string) { e.PaymentMode2024 = v }},
}

// normalizeEnterprises maps a JSON array of backend records. It reports
// false when data is not an array. Elements that are not objects are
// skipped. The returned slice is never nil.
func normalizeEnterprises(data []byte) ([]model.Enterprise, bool) {
	root := gjson.ParseBytes(data)
	if !root.IsArray() {
		return []model.Enterprise{}, false
	}

	out := make([]model.Enterprise, 0, len(root.Array()))
	root.ForEach(func(_, raw gjson.Result) bool {
		if raw.IsObject() {
			out = append(out, normalizeEnterprise(raw))
		}
		return true
	})
	return out, true
}

// normalizeEnterprise applies enterpriseFields to one record.
func normalizeEnterprise(raw gjson.Result) model.Enterprise {
	e := model.Enterprise{Original: json.RawMessage(raw.Raw)}
	for _, rule := range enterpriseFields {
		v := lookup(raw, rule.paths)
		if v == "" {
			v = rule.fallback
		}
		rule.set(&e, v)
	}
	return e
}

func lookup(raw gjson.Result, paths []string) string {
	for _, p := range paths {
		if v := strings.TrimSpace(text(raw.Get(p))); v != "" {
			return v
		}
	}
	return ""
}

// text flattens a value to a string. Select fields arrive as
// {"id": 1, "value": "Oui"} or as a list of those.
func text(r gjson.Result) string {
	switch {
	case !r.Exists() || r.Type == gjson.Null:
		return ""
	case r.IsObject():
		return r.Get("value").String()
	case r.IsArray():
		items := r.Array()
		if len(items) == 0 {
			return ""
		}
		return text(items[0])
	case r.Type == gjson.True:
		return "true"
	case r.Type == gjson.False:
		return ""
	default:
		return r.String()
	}
}

func isYes(v string) bool {
	switch strings.ToLower(v) {
	case "oui", "true", "yes", "1":
		return true
	default:
		return false
	}
}

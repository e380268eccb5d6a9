// Package normalize converts raw source records into the uniform shape the
// rest of the service operates on. Each record type has a text template;
// the rendered text is the only field the embedding index ever sees.
package normalize

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/hyperjump/tenmon/internal/models"
	"github.com/hyperjump/tenmon/pkg/utils"
)

// Normalize converts one raw record. Records of unknown type, or missing
// the field their template leads with, come back with empty Text; callers
// drop those before indexing. Normalizing the same raw record twice yields
// the same text.
func Normalize(raw models.RawRecord) models.NormalizedRecord {
	rec := models.NormalizedRecord{
		ID:     deriveID(raw),
		Type:   raw.Type,
		Source: raw.Source,
	}

	var text string
	switch raw.Type {
	case models.TypeAPOD:
		text, rec.Payload = apodText(raw.Payload)
	case models.TypeNEO:
		text, rec.Payload = neoText(raw.Payload)
	case models.TypeMarsPhoto:
		text, rec.Payload = marsPhotoText(raw.Payload)
	case models.TypeExoplanet:
		text, rec.Payload = exoplanetText(raw.Payload)
	case models.TypeTechnology:
		text, rec.Payload = technologyText(raw.Payload)
	case models.TypeLaunch:
		text, rec.Payload = launchText(raw.Payload)
	case models.TypeRocket:
		text, rec.Payload = rocketText(raw.Payload)
	case models.TypeCapsule:
		text, rec.Payload = capsuleText(raw.Payload)
	case models.TypeCrew:
		text, rec.Payload = crewText(raw.Payload)
	case models.TypePayload:
		text, rec.Payload = payloadText(raw.Payload)
	case models.TypeStarlink:
		text, rec.Payload = starlinkText(raw.Payload)
	}

	rec.Text = utils.NormalizeWhitespace(text)
	return rec
}

// NormalizeAll converts a batch and drops records whose text rendered empty.
func NormalizeAll(raws []models.RawRecord) []models.NormalizedRecord {
	records := make([]models.NormalizedRecord, 0, len(raws))
	for _, raw := range raws {
		rec := Normalize(raw)
		if rec.Text == "" {
			continue
		}
		records = append(records, rec)
	}
	return records
}

func apodText(p map[string]any) (string, map[string]any) {
	title := field(p, "title")
	if title == "" {
		return "", nil
	}
	desc := field(p, "explanation", "description")
	data := map[string]any{
		"title":       title,
		"description": desc,
	}
	copyFields(p, data, "date", "media_url", "url", "media_type")
	return "NASA Astronomy Picture: " + title + ". " + desc, data
}

func neoText(p map[string]any) (string, map[string]any) {
	name := field(p, "name")
	if name == "" {
		return "", nil
	}
	hazardous := boolField(p, "hazardous", "potentially_hazardous")
	magnitude := orUnknown(field(p, "magnitude", "absolute_magnitude"))
	data := map[string]any{
		"name":      name,
		"hazardous": hazardous,
		"magnitude": field(p, "magnitude", "absolute_magnitude"),
	}
	return "Near-Earth Object: " + name + ". Potentially hazardous: " +
		strconv.FormatBool(hazardous) + ". Magnitude: " + magnitude, data
}

func marsPhotoText(p map[string]any) (string, map[string]any) {
	rover := field(p, "rover")
	if rover == "" {
		return "", nil
	}
	sol := orUnknown(field(p, "sol"))
	camera := orUnknown(field(p, "camera"))
	data := map[string]any{
		"rover":  rover,
		"sol":    field(p, "sol"),
		"camera": field(p, "camera"),
	}
	copyFields(p, data, "earth_date", "image_url", "img_src")
	return "Mars photo from " + rover + " rover on sol " + sol + " using " + camera + " camera", data
}

func exoplanetText(p map[string]any) (string, map[string]any) {
	name := field(p, "planet_name")
	if name == "" {
		return "", nil
	}
	star := orUnknown(field(p, "host_star"))
	year := orUnknown(field(p, "discovery_year"))
	data := map[string]any{
		"planet_name":    name,
		"host_star":      field(p, "host_star"),
		"discovery_year": field(p, "discovery_year"),
	}
	copyFields(p, data, "orbital_period", "planet_radius", "planet_mass", "stellar_distance")
	return "Exoplanet " + name + " orbiting " + star + ", discovered in " + year, data
}

func technologyText(p map[string]any) (string, map[string]any) {
	title := field(p, "title")
	if title == "" {
		return "", nil
	}
	desc := field(p, "description")
	data := map[string]any{
		"title":       title,
		"description": desc,
	}
	copyFields(p, data, "benefits", "status", "program")
	text := "NASA Technology: " + title + ". " + desc
	if benefits := field(p, "benefits"); benefits != "" {
		text += " Benefits: " + benefits
	}
	return text, data
}

func launchText(p map[string]any) (string, map[string]any) {
	name := field(p, "name")
	if name == "" {
		return "", nil
	}
	flight := orUnknown(field(p, "flight_number"))
	success := "pending"
	if v, ok := p["success"]; ok && v != nil {
		if b, ok := v.(bool); ok {
			if b {
				success = "successful"
			} else {
				success = "unsuccessful"
			}
		}
	}
	data := map[string]any{
		"name":          name,
		"success":       p["success"],
		"flight_number": field(p, "flight_number"),
		"details":       field(p, "details"),
	}
	copyFields(p, data, "date_utc", "rocket", "payloads")
	return "SpaceX Launch: " + name + " - Flight #" + flight + " was " + success + ". " + field(p, "details"), data
}

func rocketText(p map[string]any) (string, map[string]any) {
	name := field(p, "name")
	if name == "" {
		return "", nil
	}
	rate := orUnknown(field(p, "success_rate_pct", "success_rate"))
	data := map[string]any{
		"name":         name,
		"description":  field(p, "description"),
		"success_rate": field(p, "success_rate_pct", "success_rate"),
	}
	copyFields(p, data, "cost_per_launch")
	return "SpaceX Rocket: " + name + ". " + field(p, "description") + " Success rate: " + rate + "%", data
}

func capsuleText(p map[string]any) (string, map[string]any) {
	serial := field(p, "serial")
	if serial == "" {
		return "", nil
	}
	ctype := orUnknown(field(p, "type", "capsule_type"))
	status := orUnknown(field(p, "status"))
	reuse := orUnknown(field(p, "reuse_count"))
	data := map[string]any{
		"type":        field(p, "type", "capsule_type"),
		"serial":      serial,
		"status":      field(p, "status"),
		"reuse_count": field(p, "reuse_count"),
	}
	copyFields(p, data, "water_landings", "land_landings")
	return "SpaceX Capsule " + serial + " (" + ctype + ") - Status: " + status + ", Reused " + reuse + " times", data
}

func crewText(p map[string]any) (string, map[string]any) {
	name := field(p, "name")
	if name == "" {
		return "", nil
	}
	agency := orUnknown(field(p, "agency"))
	status := orUnknown(field(p, "status"))
	data := map[string]any{
		"name":   name,
		"agency": field(p, "agency"),
		"status": field(p, "status"),
	}
	return "SpaceX Crew Member: " + name + " from " + agency + " - Status: " + status, data
}

func payloadText(p map[string]any) (string, map[string]any) {
	name := field(p, "name")
	if name == "" {
		return "", nil
	}
	ptype := orUnknown(field(p, "payload_type", "type"))
	mass := orUnknown(field(p, "mass_kg"))
	customers := "Unknown"
	if list := stringList(p["customers"]); len(list) > 0 {
		customers = strings.Join(list, ", ")
	}
	data := map[string]any{
		"name":      name,
		"type":      field(p, "payload_type", "type"),
		"mass_kg":   field(p, "mass_kg"),
		"customers": p["customers"],
	}
	copyFields(p, data, "orbit", "manufacturers")
	return "SpaceX Payload: " + name + " (" + ptype + ") - Mass: " + mass + "kg, Customers: " + customers, data
}

func starlinkText(p map[string]any) (string, map[string]any) {
	name := field(p, "object_name")
	if name == "" {
		return "", nil
	}
	height := orUnknown(field(p, "height_km"))
	velocity := orUnknown(field(p, "velocity_kms"))
	data := map[string]any{
		"object_name":  name,
		"height_km":    field(p, "height_km"),
		"velocity_kms": field(p, "velocity_kms"),
	}
	copyFields(p, data, "launch_date", "longitude", "latitude")
	return "Starlink Satellite: " + name + " at " + height + "km altitude, velocity " + velocity + "km/s", data
}

// deriveID builds a stable record ID: the payload's explicit id when
// present, otherwise the type's natural key, otherwise a UUID.
func deriveID(raw models.RawRecord) string {
	if v, ok := raw.Payload["id"]; ok {
		if s := formatValue(v); s != "" {
			return raw.Type + "_" + slugify(s)
		}
	}
	if key := naturalKey(raw); key != "" {
		return raw.Type + "_" + slugify(key)
	}
	return raw.Type + "_" + uuid.NewString()
}

func naturalKey(raw models.RawRecord) string {
	p := raw.Payload
	switch raw.Type {
	case models.TypeAPOD, models.TypeTechnology:
		return field(p, "title")
	case models.TypeNEO, models.TypeLaunch, models.TypeRocket, models.TypeCrew, models.TypePayload:
		return field(p, "name")
	case models.TypeMarsPhoto:
		if rover := field(p, "rover"); rover != "" {
			return rover + "_sol" + field(p, "sol")
		}
	case models.TypeExoplanet:
		return field(p, "planet_name")
	case models.TypeCapsule:
		return field(p, "serial")
	case models.TypeStarlink:
		return field(p, "object_name")
	}
	return ""
}

// field returns the first present, non-empty payload value among keys,
// rendered as a string.
func field(p map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := p[k]; ok {
			if s := formatValue(v); s != "" {
				return s
			}
		}
	}
	return ""
}

func boolField(p map[string]any, keys ...string) bool {
	for _, k := range keys {
		if b, ok := p[k].(bool); ok {
			return b
		}
	}
	return false
}

// formatValue renders a payload value for template use. JSON numbers
// arrive as float64; integral values render without a decimal point.
func formatValue(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

func stringList(v any) []string {
	var out []string
	switch t := v.(type) {
	case []string:
		return t
	case []any:
		for _, item := range t {
			if s := formatValue(item); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

func copyFields(src, dst map[string]any, keys ...string) {
	for _, k := range keys {
		if v, ok := src[k]; ok && v != nil {
			dst[k] = v
		}
	}
}

func slugify(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune('_')
		}
	}
	return b.String()
}

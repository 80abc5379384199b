package i18n

import (
	"golang.org/x/text/language"
)

// Supported response languages. Fallback is always English.
var supported = []language.Tag{
	language.English,
	language.Spanish,
	language.French,
}

var matcher = language.NewMatcher(supported)

var catalogs = map[string]map[string]string{
	"en": {
		"user_registered":  "User registered successfully",
		"login_success":    "Login successful",
		"profile_updated":  "Profile updated successfully",
		"password_changed": "Password changed successfully",
		"event_created":    "Event created successfully",
		"event_updated":    "Event updated successfully",
		"event_deleted":    "Event deleted successfully",
	},
	"es": {
		"user_registered":  "Usuario registrado con éxito",
		"login_success":    "Inicio de sesión exitoso",
		"profile_updated":  "Perfil actualizado con éxito",
		"password_changed": "Contraseña cambiada con éxito",
		"event_created":    "Evento creado con éxito",
		"event_updated":    "Evento actualizado con éxito",
		"event_deleted":    "Evento eliminado con éxito",
	},
	"fr": {
		"user_registered":  "Utilisateur enregistré avec succès",
		"login_success":    "Connexion réussie",
		"profile_updated":  "Profil mis à jour avec succès",
		"password_changed": "Mot de passe modifié avec succès",
		"event_created":    "Événement créé avec succès",
		"event_updated":    "Événement mis à jour avec succès",
		"event_deleted":    "Événement supprimé avec succès",
	},
}

// Match resolves the best supported language from the detection inputs,
// in priority order (query param first, then Accept-Language header).
func Match(candidates ...string) string {
	var tags []language.Tag

	for _, c := range candidates {
		if c == "" {
			continue
		}

		parsed, _, err := language.ParseAcceptLanguage(c)

		if err != nil {
			continue
		}

		tags = append(tags, parsed...)
	}

	_, idx, _ := matcher.Match(tags...)

	base, _ := supported[idx].Base()

	return base.String()
}

// T looks up a message key for a language, falling back to English and
// finally to the key itself.
func T(lang, key string) string {
	if cat, ok := catalogs[lang]; ok {
		if msg, ok := cat[key]; ok {
			return msg
		}
	}

	if msg, ok := catalogs["en"][key]; ok {
		return msg
	}

	return key
}

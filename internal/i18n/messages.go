// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package i18n

// Message keys for the shell's system messages.
const (
	MsgWelcome           = "shell.welcome"
	MsgNotFound          = "cmd.not_found"
	MsgDidYouMean        = "cmd.did_you_mean"
	MsgUsage             = "cmd.usage"
	MsgArity             = "cmd.arity"
	MsgUnterminatedQuote = "parse.unterminated_quote"
	MsgHandlerFailed     = "cmd.failed"
	MsgCancelled         = "cmd.cancelled"
	MsgQueued            = "cmd.queued"
	MsgHelpHeader        = "help.header"
	MsgHelpFooter        = "help.footer"
	MsgHelpAliases       = "help.aliases"
	MsgHistoryEmpty      = "history.empty"
	MsgNoMatches         = "history.no_matches"
	MsgAliasNone         = "alias.none"
	MsgAliasUnknown      = "alias.unknown"
	MsgAliasInvalid      = "alias.invalid"
)

// builtin holds the bundled translations, keyed by BCP 47 tag.
var builtin = map[string]map[string]string{
	"en": {
		MsgWelcome:           "Welcome to deskshell. Type 'help' to get started.",
		MsgNotFound:          "command not found: %s",
		MsgDidYouMean:        "did you mean: %s?",
		MsgUsage:             "usage: %s",
		MsgArity:             "%s: expected %s arguments, got %d",
		MsgUnterminatedQuote: "parse error: unterminated %s quote at column %d",
		MsgHandlerFailed:     "%s failed: %s",
		MsgCancelled:         "^C %s cancelled",
		MsgQueued:            "queued: %s",
		MsgHelpHeader:        "Available commands:",
		MsgHelpFooter:        "Type 'help <command>' for details.",
		MsgHelpAliases:       "aliases: %s",
		MsgHistoryEmpty:      "history is empty",
		MsgNoMatches:         "no matches for '%s'",
		MsgAliasNone:         "no aliases defined",
		MsgAliasUnknown:      "alias: %s: not found",
		MsgAliasInvalid:      "alias: invalid name '%s'",
	},
	"es": {
		MsgWelcome:           "Bienvenido a deskshell. Escriba 'help' para empezar.",
		MsgNotFound:          "comando no encontrado: %s",
		MsgDidYouMean:        "¿quiso decir: %s?",
		MsgUsage:             "uso: %s",
		MsgArity:             "%s: se esperaban %s argumentos, se recibieron %d",
		MsgUnterminatedQuote: "error de sintaxis: comilla %s sin cerrar en la columna %d",
		MsgHandlerFailed:     "%s falló: %s",
		MsgCancelled:         "^C %s cancelado",
		MsgQueued:            "en cola: %s",
		MsgHelpHeader:        "Comandos disponibles:",
		MsgHelpFooter:        "Escriba 'help <comando>' para más detalles.",
		MsgHelpAliases:       "alias: %s",
		MsgHistoryEmpty:      "el historial está vacío",
		MsgNoMatches:         "sin coincidencias para '%s'",
		MsgAliasNone:         "no hay alias definidos",
		MsgAliasUnknown:      "alias: %s: no existe",
		MsgAliasInvalid:      "alias: nombre no válido '%s'",
	},
	"fr": {
		MsgWelcome:           "Bienvenue dans deskshell. Tapez 'help' pour commencer.",
		MsgNotFound:          "commande introuvable : %s",
		MsgDidYouMean:        "vouliez-vous dire : %s ?",
		MsgUsage:             "usage : %s",
		MsgArity:             "%s : %s arguments attendus, %d reçus",
		MsgUnterminatedQuote: "erreur de syntaxe : guillemet %s non fermé à la colonne %d",
		MsgHandlerFailed:     "échec de %s : %s",
		MsgCancelled:         "^C %s annulé",
		MsgQueued:            "en attente : %s",
		MsgHelpHeader:        "Commandes disponibles :",
		MsgHelpFooter:        "Tapez 'help <commande>' pour plus de détails.",
		MsgHelpAliases:       "alias : %s",
		MsgHistoryEmpty:      "l'historique est vide",
		MsgNoMatches:         "aucun résultat pour '%s'",
		MsgAliasNone:         "aucun alias défini",
		MsgAliasUnknown:      "alias : %s : introuvable",
		MsgAliasInvalid:      "alias : nom invalide '%s'",
	},
}

package monitor

import (
	"fmt"
	"strings"

	"github.com/dtnitsch/vacancy-watch/internal/common"
	"github.com/dtnitsch/vacancy-watch/models"
)

// Title is the anchor text, else the last path segment, else the link.
func Title(c models.Candidate) string {
	if t := strings.TrimSpace(c.AnchorText); t != "" {
		return t
	}
	if seg := common.LastPathSegment(c.URL); seg != "" {
		return seg
	}
	return c.URL
}

// FormatMessage renders the plain-text alert sent on every channel.
func FormatMessage(res models.MatchResult) string {
	var sb strings.Builder
	sb.WriteString("🚨 Nueva convocatoria potencial encontrada\n\n")
	fmt.Fprintf(&sb, "Título: %s\n", Title(res.Candidate))
	fmt.Fprintf(&sb, "Enlace: %s\n", res.Candidate.URL)
	fmt.Fprintf(&sb, "Coincidencia en: %s\n\n", strings.Join(res.StageNames(), ", "))
	sb.WriteString("Revisa el documento por si corresponde (puede ser CAS u otro tipo).")
	return sb.String()
}

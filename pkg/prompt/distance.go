package prompt

import (
	"fmt"

	"geotale/pkg/geo"
	"geotale/pkg/model"
)

// RenderDistance formats an approximate distance for the FACTS header
// and the opening of the story. The raw value is rounded to the display
// step first so the narration never claims false precision.
func RenderDistance(lang string, meters float64, stepM int) string {
	m := geo.RoundToStep(meters, stepM)
	switch model.BaseLang(lang) {
	case "he":
		return fmt.Sprintf("במרחק של כ-%d מטרים", m)
	case "fr":
		return fmt.Sprintf("à environ %d mètres", m)
	default:
		return fmt.Sprintf("about %d meters away", m)
	}
}

package gate

import (
	"charm.land/lipgloss/v2"

	"github.com/tutorai/tutorai/internal/ui/theme"
)

const bannerArt = `
 ████████╗██╗   ██╗████████╗ ██████╗ ██████╗    █████╗ ██╗
 ╚══██╔══╝██║   ██║╚══██╔══╝██╔═══██╗██╔══██╗  ██╔══██╗██║
    ██║   ██║   ██║   ██║   ██║   ██║██████╔╝  ███████║██║
    ██║   ██║   ██║   ██║   ██║   ██║██╔══██╗  ██╔══██║██║
    ██║   ╚██████╔╝   ██║   ╚██████╔╝██║  ██║  ██║  ██║██║
    ╚═╝    ╚═════╝    ╚═╝    ╚═════╝ ╚═╝  ╚═╝  ╚═╝  ╚═╝╚═╝`

const bannerCompact = "T U T O R A I"

// bannerWidth is the widest line of bannerArt.
const bannerWidth = 58

// RenderBanner returns the TUTORAI banner styled in the primary color.
// Uses a compact fallback for terminals narrower than the art.
func RenderBanner(width int) string {
	style := lipgloss.NewStyle().
		Foreground(theme.Primary).
		Bold(true)

	if width < bannerWidth {
		return style.Render(bannerCompact)
	}
	return style.Render(bannerArt)
}

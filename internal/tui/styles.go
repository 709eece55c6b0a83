package tui

import "github.com/charmbracelet/lipgloss"

// Semantic color palette.
var (
	colorPrimary       = lipgloss.Color("#00BFFF") // Cyan: primary accent
	colorAccent        = lipgloss.Color("#FFD700") // Gold: attention
	colorSuccess       = lipgloss.Color("#00E676") // Green: installed/success
	colorDanger        = lipgloss.Color("#FF5252") // Red: errors/failures
	colorMuted         = lipgloss.Color("#636363") // Gray: de-emphasized
	colorMutedLight    = lipgloss.Color("#8C8C8C") // Lighter gray: normal text
	colorWhite         = lipgloss.Color("#EEEEEE") // Off-white: primary text
	colorBrightWhite   = lipgloss.Color("#FFFFFF") // Pure white: emphatic text
	colorSurface       = lipgloss.Color("#1E1E2E") // Dark surface: search bar bg
	colorSurfaceBright = lipgloss.Color("#2A2A3C") // Lighter surface: selected row bg
	colorSurfaceDim    = lipgloss.Color("#181825") // Darkest surface: footer bg
	colorBlue          = lipgloss.Color("#5B8DEF") // Blue: official repos
	colorMagenta       = lipgloss.Color("#C678DD") // Magenta: AUR
)

// Selection indicator prepended to the active row.
const selectionIndicator = "▎"

// Row icons.
const (
	iconInstalled = "✓"
	iconFailed    = "✗"
	iconPending   = "◎"
	iconNone      = "·"
)

// Search bar styles.
var (
	styleSearchBar = lipgloss.NewStyle().
			Background(colorSurface).
			Foreground(colorWhite).
			Padding(0, 1)

	styleSearchLabel = lipgloss.NewStyle().
				Foreground(colorPrimary).
				Bold(true)

	styleChipOn = lipgloss.NewStyle().
			Foreground(colorSuccess)

	styleChipOff = lipgloss.NewStyle().
			Foreground(colorMuted).
			Strikethrough(true)
)

// Result row styles.
var (
	styleRowSelected = lipgloss.NewStyle().
				Foreground(colorBrightWhite).
				Bold(true)

	styleRowNormal = lipgloss.NewStyle().
			Foreground(colorMutedLight)

	styleRepoOfficial = lipgloss.NewStyle().
				Foreground(colorBlue)

	styleRepoAUR = lipgloss.NewStyle().
			Foreground(colorMagenta)

	styleInstalled = lipgloss.NewStyle().
			Foreground(colorSuccess)

	styleOutOfDate = lipgloss.NewStyle().
			Foreground(colorDanger)

	// styleSelectionIndicator styles the left-edge indicator for the selected row.
	styleSelectionIndicator = lipgloss.NewStyle().
				Foreground(colorPrimary).
				Bold(true)
)

// Pane styles: rounded border, styled title.
var (
	stylePane = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorMuted).
			Padding(0, 1)

	stylePaneFocused = stylePane.
				BorderForeground(colorPrimary)

	stylePaneTitle = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true)

	styleLabel = lipgloss.NewStyle().
			Foreground(colorMutedLight).
			Bold(true)

	styleDim = lipgloss.NewStyle().
			Foreground(colorMuted)
)

// Modal styles.
var (
	styleModal = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(colorPrimary).
			Padding(1, 2)

	styleModalDanger = styleModal.
				BorderForeground(colorDanger)

	styleModalTitle = lipgloss.NewStyle().
			Foreground(colorAccent).
			Bold(true)

	styleTabActive = lipgloss.NewStyle().
			Foreground(colorBrightWhite).
			Background(colorSurfaceBright).
			Bold(true).
			Padding(0, 1)

	styleTabInactive = lipgloss.NewStyle().
				Foreground(colorMutedLight).
				Padding(0, 1)

	styleError = lipgloss.NewStyle().
			Foreground(colorDanger).
			Bold(true)

	styleSuccess = lipgloss.NewStyle().
			Foreground(colorSuccess).
			Bold(true)

	styleWarn = lipgloss.NewStyle().
			Foreground(colorAccent)
)

// Risk chip styles.
var (
	styleRiskLow    = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)
	styleRiskMedium = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	styleRiskHigh   = lipgloss.NewStyle().Foreground(colorDanger).Bold(true)
)

// Footer and toast styles.
var (
	styleFooter = lipgloss.NewStyle().
			Background(colorSurfaceDim).
			Foreground(colorMutedLight).
			Padding(0, 1)

	styleFooterKey = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Background(colorSurfaceDim).
			Bold(true)

	styleFooterDesc = lipgloss.NewStyle().
			Foreground(colorMutedLight).
			Background(colorSurfaceDim)

	styleFooterSep = lipgloss.NewStyle().
			Foreground(colorMuted).
			Background(colorSurfaceDim)

	styleToast = lipgloss.NewStyle().
			Foreground(colorBrightWhite).
			Background(colorBlue).
			Padding(0, 1)
)

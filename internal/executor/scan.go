package executor

import (
	"strings"

	"github.com/papapumpkin/pacsea/internal/pacman"
)

// Scanner toggles are exported to the scan script as PACSEA_SCAN_DO_<NAME>.
const scanEnvPrefix = "PACSEA_SCAN_DO_"

func flag(on bool) string {
	if on {
		return "1"
	}
	return "0"
}

// scanStep runs body only when its toggle is set.
func scanStep(name, title, body string) string {
	return "if [ \"${" + scanEnvPrefix + name + ":-0}\" = \"1\" ]; then echo '--- " + title + " ---'; " + body + "; fi"
}

// ScanCommand clones the AUR repository of pkg into a temporary directory,
// downloads its sources with `makepkg -o` and runs the selected scanners.
// The working directory is left behind for inspection.
func ScanCommand(pkg string, opts ScanOptions) string {
	if strings.TrimSpace(pkg) == "" {
		return ""
	}
	env := []string{
		"export " + scanEnvPrefix + "CLAMAV=" + flag(opts.ClamAV),
		"export " + scanEnvPrefix + "TRIVY=" + flag(opts.Trivy),
		"export " + scanEnvPrefix + "SEMGREP=" + flag(opts.Semgrep),
		"export " + scanEnvPrefix + "SHELLCHECK=" + flag(opts.ShellCheck),
		"export " + scanEnvPrefix + "VIRUSTOTAL=" + flag(opts.VirusTotal),
		"export " + scanEnvPrefix + "CUSTOM=" + flag(opts.Custom),
	}

	steps := []string{
		"pkg=" + pacman.ShellQuote(pkg),
		"work=$(mktemp -d -t pacsea_scan_XXXXXXXX)",
		`echo "Pacsea: scanning AUR package '$pkg'"`,
		`echo "Working directory: $work"`,
		`cd "$work"`,
		"if command -v git >/dev/null 2>&1; then :; else echo 'git not found. Cannot clone AUR repo.'; exit 1; fi",
		`git clone --depth 1 "https://aur.archlinux.org/${pkg}.git" || { echo 'Clone failed'; exit 1; }`,
		`cd "$pkg"`,
		"(makepkg -o --noconfirm && echo 'makepkg -o: sources downloaded.') || echo 'makepkg -o failed or partially completed; continuing'",
		scanStep("CLAMAV", "ClamAV scan",
			"(command -v clamscan >/dev/null 2>&1 && (clamscan -r . | tee ./.pacsea_scan_clamav.txt || echo 'ClamAV encountered an error')) || echo 'ClamAV not found; skipping'"),
		scanStep("TRIVY", "Trivy filesystem scan",
			"(command -v trivy >/dev/null 2>&1 && (trivy fs --quiet --format json . > ./.pacsea_scan_trivy.json || echo 'Trivy failed')) || echo 'Trivy not found; skipping'"),
		scanStep("SEMGREP", "Semgrep static analysis",
			"(command -v semgrep >/dev/null 2>&1 && (semgrep --config=auto --json . > ./.pacsea_scan_semgrep.json || echo 'Semgrep failed')) || echo 'Semgrep not found; skipping'"),
		scanStep("SHELLCHECK", "ShellCheck on PKGBUILD",
			"(command -v shellcheck >/dev/null 2>&1 && (shellcheck -s bash -e SC2034,SC2154 PKGBUILD | tee ./.pacsea_scan_shellcheck.txt; true)) || echo 'ShellCheck not found; skipping'"),
		scanStep("VIRUSTOTAL", "VirusTotal hash lookups",
			`if [ -n "${VT_API_KEY:-}" ]; then for f in $(find . -type f \( -name 'PKGBUILD' -o -path './src/*' -o -name '*.patch' \) 2>/dev/null); do h=$(sha256sum "$f" | awk '{print $1}'); echo "File: $f SHA256: $h"; resp=$(curl -s -H "x-apikey: $VT_API_KEY" "https://www.virustotal.com/api/v3/files/$h"); if echo "$resp" | grep -q '"error"'; then echo 'VT: No report found'; else mal=$(echo "$resp" | grep -o '"malicious":[0-9]\+' | head -n1 | cut -d: -f2); echo "VT: malicious=${mal:-0} https://www.virustotal.com/gui/file/$h"; fi; done; else echo 'VT_API_KEY not set; skipping VirusTotal lookups.'; fi`),
		scanStep("CUSTOM", "Suspicious pattern scan",
			`n=$(grep -nEi '(curl|wget)[^|]*\|[[:space:]]*(ba)?sh|base64[[:space:]]+-d|eval[[:space:]]|/dev/tcp/' PKGBUILD *.install 2>/dev/null | tee ./.pacsea_scan_custom.txt | wc -l); if [ "$n" -gt 0 ]; then echo "Suspicious patterns: $n (see .pacsea_scan_custom.txt)"; else echo 'No suspicious patterns found'; fi`),
		"echo",
		`echo "Pacsea: scan finished. Working directory preserved: $work"`,
	}
	return strings.Join(env, "; ") + "; " + strings.Join(steps, " && ")
}

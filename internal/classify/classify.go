// Package classify assigns a role to a patch file from its name and
// content. Classification is pure and total: the same inputs always
// produce the same role and nothing ever fails, the fallback is
// FileTypeUnknown.
package classify

import (
	"path/filepath"
	"strings"

	"github.com/soulhub/soulhub-backend/internal/types"
)

// manifestToken is the key every soulpatch manifest opens with. Files
// without a recognized extension are probed for it near the start.
const manifestToken = "soulPatchV1"

// probeWindow bounds how far into the content the token probe looks.
const probeWindow = 512

var extensions = map[string]types.FileType{
	".soul":      types.FileTypeSoul,
	".soulpatch": types.FileTypeManifest,
}

// Classify determines the role of a file. The extension wins when it is
// one of the canonical ones; otherwise the content probe decides
// between manifest and unknown.
func Classify(name, content string) types.FileType {
	ext := strings.ToLower(filepath.Ext(name))
	if ft, ok := extensions[ext]; ok {
		return ft
	}
	if looksLikeManifest(content) {
		return types.FileTypeManifest
	}
	return types.FileTypeUnknown
}

func looksLikeManifest(content string) bool {
	window := content
	if len(window) > probeWindow {
		window = window[:probeWindow]
	}
	return strings.Contains(window, manifestToken)
}

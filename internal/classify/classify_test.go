package classify

import (
	"strings"
	"testing"

	"github.com/soulhub/soulhub-backend/internal/types"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name     string
		fileName string
		content  string
		want     types.FileType
	}{
		{
			name:     "soul_extension",
			fileName: "lead.soul",
			content:  "processor Lead {}",
			want:     types.FileTypeSoul,
		},
		{
			name:     "soul_extension_uppercase",
			fileName: "LEAD.SOUL",
			content:  "",
			want:     types.FileTypeSoul,
		},
		{
			name:     "soulpatch_extension",
			fileName: "lead.soulpatch",
			content:  "",
			want:     types.FileTypeManifest,
		},
		{
			name:     "extension_wins_over_content",
			fileName: "lead.soul",
			content:  `{"soulPatchV1": {}}`,
			want:     types.FileTypeSoul,
		},
		{
			name:     "no_extension_manifest_token",
			fileName: "manifest",
			content:  `{ "soulPatchV1": { "ID": "com.example.lead" } }`,
			want:     types.FileTypeManifest,
		},
		{
			name:     "unrecognized_extension_manifest_token",
			fileName: "manifest.json",
			content:  `{"soulPatchV1":{}}`,
			want:     types.FileTypeManifest,
		},
		{
			name:     "token_beyond_probe_window",
			fileName: "notes.txt",
			content:  strings.Repeat(" ", 600) + "soulPatchV1",
			want:     types.FileTypeUnknown,
		},
		{
			name:     "plain_text",
			fileName: "notes.txt",
			content:  "remember to tune the filter",
			want:     types.FileTypeUnknown,
		},
		{
			name:     "empty_everything",
			fileName: "",
			content:  "",
			want:     types.FileTypeUnknown,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Classify(tc.fileName, tc.content)
			if got != tc.want {
				t.Fatalf("Classify(%q)=%v, want %v", tc.fileName, got, tc.want)
			}
		})
	}
}

func TestClassifyDeterministic(t *testing.T) {
	first := Classify("ambiguous.json", `{"soulPatchV1":{}}`)
	for i := 0; i < 100; i++ {
		if got := Classify("ambiguous.json", `{"soulPatchV1":{}}`); got != first {
			t.Fatalf("classification changed between calls: %v then %v", first, got)
		}
	}
}

// Package patchxml renders a patch into its canonical XML interchange
// form: a soulpatch root carrying the patch id, one soulfile element
// per SOUL source file and one soulpatchfile element per manifest.
// Files with an unknown role are deliberately left out.
package patchxml

import (
	"encoding/xml"

	"github.com/soulhub/soulhub-backend/internal/types"
)

type FileXML struct {
	ID          string `xml:"id,attr"`
	FileName    string `xml:"filename"`
	FileContent string `xml:"filecontent"`
}

type SOULPatchXML struct {
	XMLName        xml.Name  `xml:"soulpatch"`
	ID             string    `xml:"id,attr"`
	SoulFiles      []FileXML `xml:"soulfile"`
	SoulPatchFiles []FileXML `xml:"soulpatchfile"`
}

// FromPatch projects a patch and its files into interchange form. File
// order inside each group follows the order of files.
func FromPatch(patch *types.Patch, files []*types.PatchFile) *SOULPatchXML {
	doc := &SOULPatchXML{ID: patch.ID.String()}
	for _, f := range files {
		entry := FileXML{
			ID:          f.ID.String(),
			FileName:    f.Name,
			FileContent: f.Content,
		}
		switch f.FileType {
		case types.FileTypeSoul:
			doc.SoulFiles = append(doc.SoulFiles, entry)
		case types.FileTypeManifest:
			doc.SoulPatchFiles = append(doc.SoulPatchFiles, entry)
		}
	}
	return doc
}

// SOULPatchListXML wraps the full dump of every patch.
type SOULPatchListXML struct {
	XMLName xml.Name        `xml:"soulpatches"`
	Patches []*SOULPatchXML `xml:"soulpatch"`
}

// MarshalList serializes a full dump with the standard XML header.
func MarshalList(list *SOULPatchListXML) ([]byte, error) {
	body, err := xml.MarshalIndent(list, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), body...), nil
}

// Marshal serializes the document with the standard XML header.
func Marshal(doc *SOULPatchXML) ([]byte, error) {
	body, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), body...), nil
}

// Matches reports whether the document's root id equals the patch id.
// The file groups are deliberately not compared: a stale export still
// matches the patch it came from. This is a best-effort probe: any
// parse failure is answered with false, never an error.
func Matches(patch *types.Patch, data []byte) bool {
	if patch == nil {
		return false
	}
	var doc SOULPatchXML
	if err := xml.Unmarshal(data, &doc); err != nil {
		return false
	}
	return doc.ID == patch.ID.String()
}

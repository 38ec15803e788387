package appcast

import (
	"mime"
	"path/filepath"
	"strings"
)

const defaultContentType = "application/octet-stream"

var builtinTypes = map[string]string{
	".dmg": "application/x-apple-diskimage",
	".pkg": "application/octet-stream",
	".zip": "application/zip",
	".xip": "application/x-xar",
	".msi": "application/x-msi",
	".apk": "application/vnd.android.package-archive",
	".deb": "application/vnd.debian.binary-package",
}

// MimeTable resolves enclosure content types from file extensions. Project
// overrides win over the built-in entries, which win over the system table.
type MimeTable struct {
	overrides map[string]string
}

func NewMimeTable(overrides map[string]string) *MimeTable {
	normalized := make(map[string]string, len(overrides))
	for ext, typ := range overrides {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		normalized[ext] = typ
	}
	return &MimeTable{overrides: normalized}
}

// TypeFor never fails; unknown extensions get application/octet-stream.
func (m *MimeTable) TypeFor(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return defaultContentType
	}

	if typ, ok := m.overrides[ext]; ok {
		return typ
	}
	if typ, ok := builtinTypes[ext]; ok {
		return typ
	}
	if typ := mime.TypeByExtension(ext); typ != "" {
		return typ
	}

	return defaultContentType
}

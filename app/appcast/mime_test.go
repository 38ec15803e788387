package appcast

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMimeTableTypeFor(t *testing.T) {
	table := NewMimeTable(map[string]string{
		"appimage": "application/x-appimage",
		".ZIP":     "application/x-zip-compressed",
	})

	tests := []struct {
		path string
		want string
	}{
		{"/out/App-1/App.dmg", "application/x-apple-diskimage"},
		{"/out/App-1/App.DMG", "application/x-apple-diskimage"},
		{"/out/App-1/App.AppImage", "application/x-appimage"},
		{"/out/App-1/App.zip", "application/x-zip-compressed"},
		{"/out/App-1/App.unknownext", "application/octet-stream"},
		{"/out/App-1/App", "application/octet-stream"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, table.TypeFor(tt.path), tt.path)
	}
}

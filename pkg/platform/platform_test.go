package platform

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func withPlatform(t *testing.T, p Platform) {
	t.Helper()
	orig := currentPlatformFunc
	currentPlatformFunc = func() Platform { return p }
	t.Cleanup(func() { currentPlatformFunc = orig })
}

func TestCurrentPlatform(t *testing.T) {
	p := CurrentPlatform()
	assert.Equal(t, NormalizeOS(runtime.GOOS), p.OS)
	assert.Equal(t, NormalizeArch(runtime.GOARCH), p.Arch)
}

func TestResolve(t *testing.T) {
	withPlatform(t, Platform{OS: OSLinux, Arch: ArchAMD64})

	assert.Equal(t, Platform{OS: OSLinux, Arch: ArchAMD64}, Resolve("", ""))
	assert.Equal(t, Platform{OS: OSDarwin, Arch: ArchAMD64}, Resolve("macos", " "))
	assert.Equal(t, Platform{OS: OSLinux, Arch: ArchARM64}, Resolve("", "aarch64"))
}

func TestPlatformString(t *testing.T) {
	assert.Equal(t, "linux/amd64", Platform{OS: "linux", Arch: "amd64"}.String())
	assert.Equal(t, "darwin/arm64", Platform{OS: "darwin", Arch: "arm64"}.String())
}

func TestNormalizeOS(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"darwin", "darwin"},
		{"DARWIN", "darwin"},
		{" macos ", "darwin"},
		{"linux", "linux"},
		{"win", "windows"},
		{"Windows", "windows"},
		{"freebsd", "freebsd"},
		{"unknownos", "unknownos"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeOS(tt.input))
		})
	}
}

func TestNormalizeArch(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"amd64", "amd64"},
		{"x86_64", "amd64"},
		{"x64", "amd64"},
		{"ia64", "amd64"},
		{"i686", "386"},
		{"x86", "386"},
		{"aarch64", "arm64"},
		{"ARM64", "arm64"},
		{"armv7l", "arm"},
		{"aarch32", "arm"},
		{"riscv64", "riscv64"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeArch(tt.input))
		})
	}
}

func TestIsUnix(t *testing.T) {
	assert.True(t, Platform{OS: OSFreeBSD}.IsUnix())
	assert.False(t, Platform{OS: OSLinux}.IsUnix())
	assert.False(t, Platform{OS: OSDarwin}.IsUnix())
}

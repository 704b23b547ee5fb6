package media

import (
	"testing"

	"github.com/glorpus-work/upkeep/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVariant(t *testing.T) {
	tests := []struct {
		name     string
		expected string
	}{
		{"app-linux-x86_64-1.2.3.tar.gz", "tar.gz"},
		{"app-unix-1.0.tar.bz", "tar.bz"},
		{"app.rpm", "rpm"},
		{"app-windows-x64-1.0.exe", "exe"},
		{"setup", "setup"},
		{"archive.gz", "gz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Variant(tt.name))
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		fileName   string
		bundledJRE string
		expected   Key
	}{
		{
			name:     "linux tarball",
			fileName: "app-linux-x86_64-1.2.3.tar.gz",
			expected: Key{OS: OSLinux, Arch: ArchX8664, Type: TypeArchive, Variant: "tar.gz"},
		},
		{
			name:     "rpm has no arch marker",
			fileName: "app.rpm",
			expected: Key{OS: OSLinux, Arch: ArchXPlatform, Type: TypeRPM, Variant: "rpm"},
		},
		{
			name:     "deb",
			fileName: "app-amd64-1.0.deb",
			expected: Key{OS: OSLinux, Arch: ArchX8664, Type: TypeDEB, Variant: "deb"},
		},
		{
			name:     "linux installer",
			fileName: "app-linux-amd64-1.0.sh",
			expected: Key{OS: OSLinux, Arch: ArchX8664, Type: TypeInstaller, Variant: "sh"},
		},
		{
			name:     "arm64 is not arm32",
			fileName: "app-linux-arm64-1.0.sh",
			expected: Key{OS: OSLinux, Arch: ArchAArch64, Type: TypeInstaller, Variant: "sh"},
		},
		{
			name:     "aarch64 is not arm32",
			fileName: "app-linux-aarch64-1.0.tar.gz",
			expected: Key{OS: OSLinux, Arch: ArchAArch64, Type: TypeArchive, Variant: "tar.gz"},
		},
		{
			name:     "plain x86",
			fileName: "app-linux-x86-1.0.sh",
			expected: Key{OS: OSLinux, Arch: ArchX86, Type: TypeInstaller, Variant: "sh"},
		},
		{
			name:     "armv7",
			fileName: "app-linux-armv7-1.0.sh",
			expected: Key{OS: OSLinux, Arch: ArchARM32, Type: TypeInstaller, Variant: "sh"},
		},
		{
			name:     "plain shell installer is unix",
			fileName: "app_unix_1_0.sh",
			expected: Key{OS: OSUnix, Arch: ArchXPlatform, Type: TypeInstaller, Variant: "sh"},
		},
		{
			name:       "linux jre upgrades unix",
			fileName:   "app_unix_1_0.sh",
			bundledJRE: "linux-amd64-17.0.2",
			expected:   Key{OS: OSLinux, Arch: ArchXPlatform, Type: TypeInstaller, Variant: "sh"},
		},
		{
			name:       "windows jre leaves unix alone",
			fileName:   "app_unix_1_0.sh",
			bundledJRE: "windows-x64-17.0.2",
			expected:   Key{OS: OSUnix, Arch: ArchXPlatform, Type: TypeInstaller, Variant: "sh"},
		},
		{
			name:     "windows msi",
			fileName: "app-windows-x64-2.0.msi",
			expected: Key{OS: OSWindows, Arch: ArchX8664, Type: TypeInstaller, Variant: "msi"},
		},
		{
			name:     "windows zip 32 bit",
			fileName: "app-windows-x86-2.0.zip",
			expected: Key{OS: OSWindows, Arch: ArchX86, Type: TypeArchive, Variant: "zip"},
		},
		{
			name:     "mac dmg on arm64",
			fileName: "app-macos-arm64-2.0.dmg",
			expected: Key{OS: OSMacOS, Arch: ArchAArch64, Type: TypeInstaller, Variant: "dmg"},
		},
		{
			name:     "x86-64 is not x86",
			fileName: "app-linux-x86-64-1.0.sh",
			expected: Key{OS: OSLinux, Arch: ArchX8664, Type: TypeInstaller, Variant: "sh"},
		},
		{
			name:     "armhf",
			fileName: "app-linux-armhf-1.0.tgz",
			expected: Key{OS: OSLinux, Arch: ArchARM32, Type: TypeArchive, Variant: "tgz"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := Classify(tt.fileName, tt.bundledJRE)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, key)
		})
	}
}

func TestClassify_Unrecognised(t *testing.T) {
	_, err := Classify("readme.txt", "")
	assert.ErrorIs(t, err, errors.ErrUnclassifiedMedia)

	// A zip with no OS marker has a type but no OS.
	_, err = Classify("app-1.0.zip", "")
	assert.ErrorIs(t, err, errors.ErrUnclassifiedMedia)
}

func TestParseEnums(t *testing.T) {
	typ, err := ParseType("archive")
	require.NoError(t, err)
	assert.Equal(t, TypeArchive, typ)

	os, err := ParseOS("MacOS")
	require.NoError(t, err)
	assert.Equal(t, OSMacOS, os)

	arch, err := ParseArch("x86_64")
	require.NoError(t, err)
	assert.Equal(t, ArchX8664, arch)

	_, err = ParseType("flatpak")
	assert.ErrorIs(t, err, errors.ErrUnclassifiedMedia)
}

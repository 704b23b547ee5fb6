package media

import (
	"encoding/xml"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/glorpus-work/upkeep/pkg/errors"
)

type xmlDescriptor struct {
	XMLName xml.Name
	BaseURL *string    `xml:"baseUrl,attr"`
	Entries []xmlEntry `xml:"entry"`
}

type xmlEntry struct {
	FileName   string `xml:"fileName,attr"`
	FileSize   string `xml:"fileSize,attr"`
	NewVersion string `xml:"newVersion,attr"`
	MD5Sum     string `xml:"md5Sum,attr"`
	SHA256Sum  string `xml:"sha256Sum,attr"`
	BundledJRE string `xml:"bundledJre,attr"`
}

// Parse reads an XML update descriptor:
//
//	<updateDescriptor baseUrl="https://example.com/app/">
//	  <entry fileName="app-linux-x64-1.0.sh" fileSize="123" newVersion="1.0"
//	         md5Sum="..." sha256Sum="..." bundledJre="linux-amd64-17"/>
//	</updateDescriptor>
func Parse(r io.Reader) (*Descriptor, error) {
	var doc xmlDescriptor
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.Wrap(errors.ErrDescriptorParse, err.Error())
	}
	if doc.BaseURL == nil {
		return nil, errors.Wrap(errors.ErrDescriptorParse, "missing baseUrl attribute")
	}
	base, err := url.Parse(strings.TrimSpace(*doc.BaseURL))
	if err != nil {
		return nil, errors.Wrapf(errors.ErrDescriptorParse, "invalid baseUrl %q", *doc.BaseURL)
	}

	entries := make([]Entry, 0, len(doc.Entries))
	for i, e := range doc.Entries {
		if e.FileName == "" {
			return nil, errors.Wrapf(errors.ErrDescriptorParse, "entry %d has no fileName", i)
		}
		size, err := strconv.ParseInt(strings.TrimSpace(e.FileSize), 10, 64)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrDescriptorParse, "entry %s has invalid fileSize %q", e.FileName, e.FileSize)
		}
		entries = append(entries, Entry{
			FileName:   e.FileName,
			FileSize:   size,
			NewVersion: e.NewVersion,
			MD5Sum:     e.MD5Sum,
			SHA256Sum:  e.SHA256Sum,
			BundledJRE: e.BundledJRE,
		})
	}
	return NewDescriptor(base, entries)
}

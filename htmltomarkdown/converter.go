// Package htmltomarkdown renders digest HTML as Markdown for terminal previews.
package htmltomarkdown

import (
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/iguv/weekly"
)

// Ensure Converter implements weekly.Converter at compile time.
var _ weekly.Converter = (*Converter)(nil)

// Converter turns a rendered fragment into Markdown.
type Converter struct {
	conv *converter.Converter
}

// NewConverter creates a new Converter. Lists use "-" bullets and headings
// the ATX style, which read well in a terminal.
func NewConverter() *Converter {
	conv := converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(
				commonmark.WithBulletListMarker("-"),
				commonmark.WithHeadingStyle(commonmark.HeadingStyleATX),
			),
		),
	)
	// The inline stylesheet of the fragment is not content.
	conv.Register.TagType("style", converter.TagTypeRemove, converter.PriorityStandard)
	return &Converter{conv: conv}
}

// Convert transforms a fragment into Markdown.
func (c *Converter) Convert(html string) (string, error) {
	if strings.TrimSpace(html) == "" {
		return "", weekly.Errorf(weekly.EINVALID, "empty HTML input")
	}

	md, err := c.conv.ConvertString(html)
	if err != nil {
		return "", weekly.Errorf(weekly.EINVALID, "convert fragment: %v", err)
	}
	return strings.TrimSpace(md), nil
}

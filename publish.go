package weekly

import (
	"context"
	"fmt"
)

// Default anchor of the weekly region.
const (
	DefaultStartMarker = "<!-- IGUV_WEEKLY_START -->"
	DefaultEndMarker   = "<!-- IGUV_WEEKLY_END -->"
	DefaultContainerID = "iguv-weekly"
)

// Anchor names the region of a remote document owned by the digest: a pair
// of comment markers around a container element with a fixed id.
type Anchor struct {
	StartMarker string
	EndMarker   string
	ContainerID string
}

// DefaultAnchor returns the anchor used on the IGUV site.
func DefaultAnchor() Anchor {
	return Anchor{
		StartMarker: DefaultStartMarker,
		EndMarker:   DefaultEndMarker,
		ContainerID: DefaultContainerID,
	}
}

// Wrap returns inner inside the container element and the markers.
func (a Anchor) Wrap(inner string) string {
	return fmt.Sprintf("%s\n<div id=\"%s\">%s</div>\n%s", a.StartMarker, a.ContainerID, inner, a.EndMarker)
}

// ReplaceMode records which rule located the region.
type ReplaceMode string

// Replace modes.
const (
	// ReplaceMarkers replaced the span between the first marker pair.
	ReplaceMarkers ReplaceMode = "markers"
	// ReplaceContainer replaced the inner content of the container element.
	ReplaceContainer ReplaceMode = "container"
	// ReplaceAppended appended the wrapped block to the document.
	ReplaceAppended ReplaceMode = "appended"
	// ReplaceForced overwrote the first HTML widget of an Elementor tree.
	ReplaceForced ReplaceMode = "forced"
	// ReplaceRemote handed the fragment to a server-side endpoint that owns
	// the replacement.
	ReplaceRemote ReplaceMode = "remote"
)

// Replacement describes the outcome of a region replacement.
type Replacement struct {
	Mode ReplaceMode

	// Occurrences counts anchor occurrences found. Only the first is
	// replaced; more than one means the document needs manual cleanup.
	Occurrences int

	// Forced is set when existing content without an anchor was overwritten.
	Forced bool
}

// PublishResult is returned by a successful publish.
type PublishResult struct {
	Replacement

	// Target identifies what was written (a URL or a file path).
	Target string

	// Bytes is the size of the written document or payload.
	Bytes int
}

// Publisher writes a rendered fragment into its target document.
type Publisher interface {
	// Publish reads the target, replaces the anchored region with fragment
	// and writes it back. A rejected write has code EPUBLISH.
	Publish(ctx context.Context, fragment string) (*PublishResult, error)
}

// SPDX-License-Identifier: MIT

package resolver

// Kind distinguishes movie and episodic content.
type Kind string

const (
	KindMovie   Kind = "movie"
	KindEpisode Kind = "episode"
)

// Delivery describes how a source is played back.
type Delivery string

const (
	// DeliveryDirect is a manifest URL handed to the adaptive player.
	DeliveryDirect Delivery = "direct"
	// DeliveryEmbed is a third-party page rendered in an embedded frame.
	DeliveryEmbed Delivery = "embed"
)

// Request identifies the content to resolve.
type Request struct {
	Kind    Kind
	ID      string
	Season  int
	Episode int
}

// StreamSource is one playable candidate, in descending preference order.
type StreamSource struct {
	URL      string   `json:"url"`
	Quality  string   `json:"quality"`
	Provider string   `json:"provider"`
	Delivery Delivery `json:"delivery"`
}

// StreamCaption is one subtitle track.
type StreamCaption struct {
	Label    string `json:"label"`
	URL      string `json:"url"`
	Language string `json:"language"`
}

// Result is the resolver output. Streams and Captions are always non-nil,
// even on total failure.
type Result struct {
	Success  bool            `json:"success"`
	Streams  []StreamSource  `json:"streams"`
	Captions []StreamCaption `json:"captions"`
}

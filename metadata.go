package jsonplot

import "time"

// ImageEvent is sent to gallery clients for every displayed image.
type ImageEvent struct {
	Name string
	Path string
	URL  string
	Time time.Time
}

type GalleryMetadata struct {
	Title  string
	Images []ImageEvent
}

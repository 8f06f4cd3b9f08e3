package models

// Camera is a fixed physical camera along the corridor. Loaded once at
// startup from the camera catalog and never mutated afterwards.
type Camera struct {
	ID        int     `json:"Id"`
	Location  string  `json:"Location"`
	Latitude  float64 `json:"Latitude"`
	Longitude float64 `json:"Longitude"`
	Views     []View  `json:"Views"`
}

// View is one lens of a camera. The snapshot URL is the 511ON image
// endpoint for that lens.
type View struct {
	ID  int    `json:"Id"`
	URL string `json:"Url"`
}

// CaptureMetadata travels with an image through classification so the
// downstream components know where the frame came from.
type CaptureMetadata struct {
	CameraID  int     `json:"camera_id"`
	ViewID    int     `json:"view_id"`
	Location  string  `json:"location"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

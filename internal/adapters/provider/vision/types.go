package vision

// AnnotateRequest is the images:annotate request body.
type AnnotateRequest struct {
	Requests []ImageRequest `json:"requests"`
}

// ImageRequest is one image plus the features to detect on it.
type ImageRequest struct {
	Image    ImageContent `json:"image"`
	Features []Feature    `json:"features"`
}

// ImageContent carries the base64 image bytes.
type ImageContent struct {
	Content string `json:"content"`
}

// Feature selects a detection type and its result cap.
type Feature struct {
	Type       string `json:"type"`
	MaxResults int    `json:"maxResults"`
}

// AnnotateResponse is the images:annotate response body.
type AnnotateResponse struct {
	Responses []ImageResponse `json:"responses"`
}

// ImageResponse holds the annotations for one image, or its error.
type ImageResponse struct {
	FaceAnnotations            []FaceAnnotation   `json:"faceAnnotations"`
	LocalizedObjectAnnotations []ObjectAnnotation `json:"localizedObjectAnnotations"`
	Error                      *Status            `json:"error,omitempty"`
}

// FaceAnnotation is the subset of face likelihoods mapped to emotions.
type FaceAnnotation struct {
	JoyLikelihood      string `json:"joyLikelihood"`
	SorrowLikelihood   string `json:"sorrowLikelihood"`
	AngerLikelihood    string `json:"angerLikelihood"`
	SurpriseLikelihood string `json:"surpriseLikelihood"`
}

// ObjectAnnotation is a localized object label.
type ObjectAnnotation struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// Status is a per-image error returned by the API.
type Status struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

package domain

// Attachment describes one uploaded file. Only the metadata survives the
// request; the file content is never read.
type Attachment struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

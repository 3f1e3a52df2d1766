package service

import (
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"github.com/xiaot623/arrifai/internal/domain"
)

// describedLimit is how many labels are listed before the rest are counted.
const describedLimit = 3

var documentTypes = map[string]bool{
	"application/msword":            true,
	"application/rtf":               true,
	"text/rtf":                      true,
	"application/vnd.ms-excel":      true,
	"application/vnd.ms-powerpoint": true,
}

// ClassifyAttachment reduces a declared content type (and, failing that, the
// filename extension) to one of the coarse attachment labels.
func ClassifyAttachment(contentType, filename string) domain.AttachmentKind {
	mediaType := baseMediaType(contentType)
	if mediaType == "" || mediaType == "application/octet-stream" {
		if guessed := baseMediaType(mime.TypeByExtension(strings.ToLower(filepath.Ext(filename)))); guessed != "" {
			mediaType = guessed
		}
	}

	switch {
	case strings.HasPrefix(mediaType, "image/"):
		return domain.AttachmentImage
	case mediaType == "application/pdf":
		return domain.AttachmentPDF
	case documentTypes[mediaType],
		strings.HasPrefix(mediaType, "application/vnd.openxmlformats-officedocument."),
		strings.HasPrefix(mediaType, "application/vnd.oasis.opendocument."):
		return domain.AttachmentDocument
	case strings.HasPrefix(mediaType, "text/"):
		return domain.AttachmentText
	default:
		return domain.AttachmentFile
	}
}

func baseMediaType(contentType string) string {
	contentType = strings.TrimSpace(contentType)
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		// Keep what precedes any parameters.
		mediaType, _, _ = strings.Cut(contentType, ";")
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}

// DescribeAttachments builds the sentence appended to the user message.
func DescribeAttachments(labels []domain.AttachmentKind) string {
	if len(labels) == 0 {
		return ""
	}

	shown := labels
	if len(shown) > describedLimit {
		shown = shown[:describedLimit]
	}
	parts := make([]string, len(shown))
	for i, l := range shown {
		parts[i] = string(l)
	}

	noun := "files"
	if len(labels) == 1 {
		noun = "file"
	}
	desc := fmt.Sprintf("User has attached %d %s: %s", len(labels), noun, strings.Join(parts, ", "))
	if extra := len(labels) - describedLimit; extra > 0 {
		desc += fmt.Sprintf(", and %d more", extra)
	}
	return desc
}

// AnnotateMessage appends the attachment description to message.
func AnnotateMessage(message string, attachments []domain.Attachment) string {
	if len(attachments) == 0 {
		return message
	}
	labels := make([]domain.AttachmentKind, len(attachments))
	for i, a := range attachments {
		labels[i] = ClassifyAttachment(a.ContentType, a.Filename)
	}
	return message + "\n\n" + DescribeAttachments(labels)
}

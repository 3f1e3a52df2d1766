// Package domain defines the core domain models for the chat relay.
package domain

// Role is the author of a transcript message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// EventType represents the type of an event.
type EventType string

const (
	EventTypeSessionCreated EventType = "session_created"
	EventTypeSessionDeleted EventType = "session_deleted"
	EventTypeSessionEvicted EventType = "session_evicted"
	// Completion events
	EventTypeCompletionStarted EventType = "completion_started"
	EventTypeCompletionDone    EventType = "completion_done"
)

// FailureKind classifies why a completion did not produce a reply.
type FailureKind string

const (
	FailureNone         FailureKind = ""
	FailureNetwork      FailureKind = "network"
	FailureTimeout      FailureKind = "timeout"
	FailureCanceled     FailureKind = "canceled"
	FailureAuth         FailureKind = "auth"
	FailureQuota        FailureKind = "quota"
	FailureInvalidModel FailureKind = "invalid_model"
	FailureBadRequest   FailureKind = "bad_request"
	FailureUpstream     FailureKind = "upstream"
	FailureEmptyReply   FailureKind = "empty_reply"
)

// AttachmentKind is the coarse label an uploaded file is reduced to.
type AttachmentKind string

const (
	AttachmentImage    AttachmentKind = "image"
	AttachmentPDF      AttachmentKind = "PDF document"
	AttachmentText     AttachmentKind = "text document"
	AttachmentDocument AttachmentKind = "document"
	AttachmentFile     AttachmentKind = "file"
)

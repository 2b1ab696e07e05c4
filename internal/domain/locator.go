package domain

type FileKind string

const (
	FileDocument  FileKind = "document"
	FileVideo     FileKind = "video"
	FileAnimation FileKind = "animation"
	FilePhoto     FileKind = "photo"
	FileChatPhoto FileKind = "chat-photo"
)

// Streamable reports whether the kind carries playable media.
func (k FileKind) Streamable() bool {
	switch k {
	case FileVideo, FileDocument, FileAnimation:
		return true
	}
	return false
}

// FileLocator is the upstream-opaque set of ids needed to fetch a file.
// Immutable once obtained; invalidated only by the periodic cache flush.
type FileLocator struct {
	DCID          int
	MediaID       int64
	AccessHash    int64
	FileReference []byte
	Kind          FileKind
	UniqueID      string
	FileName      string
	FileSize      int64
	MimeType      string
}

// ChatRef identifies a chat either by numeric id or by public username.
type ChatRef struct {
	ID       int64
	Username string
}

// InboundMedia is one media attachment extracted from a chat message, the
// unit of work flowing through the ingestion queue.
type InboundMedia struct {
	ChatID    int64
	MessageID int
	Kind      FileKind
	FileName  string
	Caption   string
	MimeType  string
	FileSize  int64
	UniqueID  string
	FileID    string
}

// ExportedAuth is an authorization exported from the primary session for
// import into a media session on another data center.
type ExportedAuth struct {
	DCID  int
	ID    int64
	Bytes []byte
}

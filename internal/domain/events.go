package domain

// RequestType represents the kind of request sent from the controller to a plugin
type RequestType string

// Request types
const (
	RequestSearch   RequestType = "Search"
	RequestActivate RequestType = "Activate"
	RequestTimeout  RequestType = "Timeout"
)

// PluginRequest is the interface for all controller -> plugin requests
type PluginRequest interface {
	Type() RequestType
}

// SearchRequest asks a plugin to filter its entries against Query
type SearchRequest struct {
	Query string
}

func (r SearchRequest) Type() RequestType { return RequestSearch }

// ActivateRequest asks a plugin to run the side effect of one of its entries
type ActivateRequest struct {
	EntryID string
}

func (r ActivateRequest) Type() RequestType { return RequestActivate }

// TimeoutRequest is synthesized by a worker when no request arrived within the poll interval
type TimeoutRequest struct{}

func (r TimeoutRequest) Type() RequestType { return RequestTimeout }

// MessageType represents the kind of message sent from a plugin to the controller
type MessageType string

// Message types
const (
	MessageRegisterPlugin MessageType = "RegisterPlugin"
	MessageClear          MessageType = "Clear"
	MessageAppendEntry    MessageType = "AppendEntry"
	MessageExit           MessageType = "Exit"
)

// ControllerMessage is the interface for all plugin -> controller messages
type ControllerMessage interface {
	Type() MessageType
}

// RegisterPluginMessage announces a plugin and hands over its request handle
type RegisterPluginMessage struct {
	Plugin   PluginInfo
	Entries  []Entry
	Requests RequestSender
}

func (m RegisterPluginMessage) Type() MessageType { return MessageRegisterPlugin }

// ClearMessage empties a plugin's entry list
type ClearMessage struct {
	PluginID string
}

func (m ClearMessage) Type() MessageType { return MessageClear }

// AppendEntryMessage appends one entry to a plugin's entry list
type AppendEntryMessage struct {
	PluginID string
	Entry    Entry
}

func (m AppendEntryMessage) Type() MessageType { return MessageAppendEntry }

// ExitMessage requests application shutdown. It is advisory.
type ExitMessage struct {
	PluginID string // requesting plugin, for logging
}

func (m ExitMessage) Type() MessageType { return MessageExit }

package live

// Client frame types.
const (
	FrameInit   = "init"
	FrameType   = "type"
	FrameSearch = "search"
	FrameFilter = "filter"
	FramePage   = "page"
)

// Server frame types.
const (
	FrameLoading = "loading"
	FrameRender  = "render"
	FrameToast   = "toast"
)

// ClientFrame is one message from the browser.
//
//	{"type":"init","query":"search=abc&page=2"}
//	{"type":"type","value":"ab"}
//	{"type":"search","value":"abc"}
//	{"type":"filter","name":"fabricante","value":"3"}
//	{"type":"page","page":4}
type ClientFrame struct {
	Type  string `json:"type"`
	Query string `json:"query,omitempty"`
	Value string `json:"value,omitempty"`
	Name  string `json:"name,omitempty"`
	Page  int    `json:"page,omitempty"`
}

// ServerFrame is one message to the browser.
type ServerFrame struct {
	Type    string `json:"type"`
	Active  *bool  `json:"active,omitempty"`
	HTML    string `json:"html,omitempty"`
	URL     string `json:"url,omitempty"`
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message,omitempty"`
}

func loadingFrame(active bool) ServerFrame {
	return ServerFrame{Type: FrameLoading, Active: &active}
}

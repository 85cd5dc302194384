// pkg/manifest/config.go
package manifest

// Config is the top-level effects manifest.
type Config struct {
	Dispatch Dispatch `toml:"dispatch"`
	Ingress  Ingress  `toml:"ingress"`
	Effects  []Effect `toml:"effect"`
	Relays   []Relay  `toml:"relay"`
}

// Dispatch tunes the store loop and the registration policy.
type Dispatch struct {
	BufferSize int  `toml:"buffer_size"` // queued actions; default 256
	FailFast   bool `toml:"fail_fast"`   // abort registration on the first bad effect
	TimeoutMS  int  `toml:"timeout_ms"`  // how long the store waits on one completion; 0 = forever
}

// Ingress configures the HTTP dispatch endpoint.
type Ingress struct {
	Disabled bool   `toml:"disabled"`
	Path     string `toml:"path"`  // POST {path}/{type}; default /actions
	Codec    string `toml:"codec"` // "" | "json-strict" | "json"
	Guard    Guard  `toml:"guard"`
}

type Guard struct {
	Roles       []string `toml:"roles"`
	Users       []string `toml:"users"`
	RequireAuth bool     `toml:"require_auth"`
}

// Effect declares one effect method. Either Host+Method (instance) or Func
// (a registered free function) is set. ReactsTo is the optional explicit
// action type name.
type Effect struct {
	Host     string `toml:"host"`
	Method   string `toml:"method"`
	Func     string `toml:"func"`
	ReactsTo string `toml:"reacts_to"`
}

// Static reports whether the declaration names a free function.
func (e Effect) Static() bool { return e.Func != "" }

// Relay forwards every action of DataType to Topic.
type Relay struct {
	DataType string `toml:"datatype"`
	Topic    string `toml:"topic"`
}

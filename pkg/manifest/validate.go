// pkg/manifest/validate.go
package manifest

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/joeydtaylor/steeze-effects/pkg/actions"
	"github.com/joeydtaylor/steeze-effects/pkg/codec"
)

const (
	DefaultBufferSize  = 256
	DefaultIngressPath = "/actions"
)

// Validate normalizes defaults and checks names against actions.Default.
func (c *Config) Validate() error { return c.ValidateWith(actions.Default) }

// ValidateWith is Validate against a specific action registry.
func (c *Config) ValidateWith(reg *actions.Registry) error {
	if err := c.Dispatch.normalize(); err != nil {
		return fmt.Errorf("dispatch: %w", err)
	}
	if err := c.Ingress.normalize(); err != nil {
		return fmt.Errorf("ingress: %w", err)
	}
	if len(c.Effects) == 0 {
		return errors.New("no effects defined")
	}

	seen := map[Effect]int{}
	for i := range c.Effects {
		e := &c.Effects[i]
		e.normalize()
		if err := e.validate(reg); err != nil {
			return fmt.Errorf("effect %d: %w", i, err)
		}
		if j, dup := seen[*e]; dup {
			return fmt.Errorf("effect %d: duplicates effect %d", i, j)
		}
		seen[*e] = i
	}

	relays := map[Relay]int{}
	for i := range c.Relays {
		r := &c.Relays[i]
		r.DataType = strings.TrimSpace(r.DataType)
		r.Topic = strings.TrimSpace(r.Topic)
		if r.DataType == "" {
			return fmt.Errorf("relay %d: datatype required", i)
		}
		if _, ok := reg.Lookup(r.DataType); !ok {
			return fmt.Errorf("relay %d: datatype %q not registered", i, r.DataType)
		}
		if r.Topic == "" {
			return fmt.Errorf("relay %d: topic required", i)
		}
		if j, dup := relays[*r]; dup {
			return fmt.Errorf("relay %d: duplicates relay %d", i, j)
		}
		relays[*r] = i
	}
	return nil
}

func (d *Dispatch) normalize() error {
	if d.BufferSize == 0 {
		d.BufferSize = DefaultBufferSize
	}
	if d.BufferSize < 0 {
		return errors.New("buffer_size must be >= 0")
	}
	if d.TimeoutMS < 0 {
		return errors.New("timeout_ms must be >= 0")
	}
	return nil
}

func (in *Ingress) normalize() error {
	p := strings.TrimSpace(in.Path)
	if p == "" {
		p = DefaultIngressPath
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	in.Path = path.Clean(p)
	if in.Path == "/" {
		return errors.New("path must not be /")
	}
	in.Codec = strings.ToLower(strings.TrimSpace(in.Codec))
	if _, err := codec.ByName(in.Codec); err != nil {
		return err
	}
	return nil
}

func (e *Effect) normalize() {
	e.Host = strings.TrimSpace(e.Host)
	e.Method = strings.TrimSpace(e.Method)
	e.Func = strings.TrimSpace(e.Func)
	e.ReactsTo = strings.TrimSpace(e.ReactsTo)
}

func (e *Effect) validate(reg *actions.Registry) error {
	switch {
	case e.Func != "" && (e.Host != "" || e.Method != ""):
		return errors.New("func cannot be combined with host/method")
	case e.Func == "" && e.Host == "":
		return errors.New("host or func required")
	case e.Func == "" && e.Method == "":
		return errors.New("method required")
	}
	if e.ReactsTo != "" {
		if _, ok := reg.Lookup(e.ReactsTo); !ok {
			return fmt.Errorf("reacts_to %q not registered", e.ReactsTo)
		}
	}
	return nil
}
